package odata

import (
	"fmt"
	"strings"
)

// Well-known content types.
const (
	// ContentTypeJSON is the JSON wire encoding.
	ContentTypeJSON = "application/json"
	// ContentTypeXML is the XML wire encoding.
	ContentTypeXML = "application/xml"
	// ContentTypeAtom is the Atom flavor of the XML wire encoding.
	ContentTypeAtom = "application/atom+xml"
	// ContentTypeMultipartMixed is the batch envelope encoding.
	ContentTypeMultipartMixed = "multipart/mixed"
	// ContentTypeTextPlain is the raw primitive value encoding.
	ContentTypeTextPlain = "text/plain"
)

// Parameter is one name=value pair on a media type. Names and recognized
// values compare case-insensitively.
type Parameter struct {
	Name  string
	Value string
}

// MediaType is a negotiated content type: type/subtype plus an ordered
// parameter list. The value is immutable after construction; parameter order
// is preserved and lookup is by case-insensitive name, first match wins.
type MediaType struct {
	typ     string
	subtype string
	params  []Parameter
}

// NewMediaType creates a media type from its parts. The parameter slice is
// copied.
func NewMediaType(typ, subtype string, params ...Parameter) MediaType {
	mt := MediaType{typ: typ, subtype: subtype}
	if len(params) > 0 {
		mt.params = make([]Parameter, len(params))
		copy(mt.params, params)
	}
	return mt
}

// ParseMediaType parses a Content-Type style string such as
// "application/json; odata=minimalmetadata". Parameters without an equals
// sign are kept with an empty value.
func ParseMediaType(s string) (MediaType, error) {
	parts := strings.Split(s, ";")
	full := strings.TrimSpace(parts[0])
	typ, subtype, ok := strings.Cut(full, "/")
	if !ok || typ == "" || subtype == "" {
		return MediaType{}, fmt.Errorf("odata: malformed media type %q", s)
	}
	mt := MediaType{typ: typ, subtype: subtype}
	for _, raw := range parts[1:] {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		name, value, _ := strings.Cut(raw, "=")
		mt.params = append(mt.params, Parameter{
			Name:  strings.TrimSpace(name),
			Value: strings.Trim(strings.TrimSpace(value), `"`),
		})
	}
	return mt, nil
}

// Type returns the primary type ("application").
func (m MediaType) Type() string { return m.typ }

// Subtype returns the subtype ("json").
func (m MediaType) Subtype() string { return m.subtype }

// FullType returns "type/subtype".
func (m MediaType) FullType() string { return m.typ + "/" + m.subtype }

// HasType reports whether the media type's type/subtype equals full,
// compared case-insensitively. Parameters do not participate.
func (m MediaType) HasType(full string) bool {
	return strings.EqualFold(m.FullType(), full)
}

// Parameters returns a copy of the ordered parameter list.
func (m MediaType) Parameters() []Parameter {
	if m.params == nil {
		return nil
	}
	out := make([]Parameter, len(m.params))
	copy(out, m.params)
	return out
}

// ParameterCount returns the number of parameters.
func (m MediaType) ParameterCount() int { return len(m.params) }

// Parameter returns the value of the first parameter whose name matches
// case-insensitively, and whether such a parameter exists.
func (m MediaType) Parameter(name string) (string, bool) {
	for _, p := range m.params {
		if strings.EqualFold(p.Name, name) {
			return p.Value, true
		}
	}
	return "", false
}

// String formats the media type in Content-Type header form.
func (m MediaType) String() string {
	var b strings.Builder
	b.WriteString(m.FullType())
	for _, p := range m.params {
		b.WriteString("; ")
		b.WriteString(p.Name)
		if p.Value != "" {
			b.WriteString("=")
			b.WriteString(p.Value)
		}
	}
	return b.String()
}
