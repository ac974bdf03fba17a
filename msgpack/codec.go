package msgpack

import (
	"fmt"
	"net/url"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/rbaliyan/odata"
	"github.com/rbaliyan/odata/edm"
	"github.com/rbaliyan/odata/model"
)

// Wire envelopes. MessagePack carries integers, binary and timestamps
// natively, so values stay untagged unless they are complex or collections.

type wireValue struct {
	Type       string         `msgpack:"type,omitempty"`
	Null       bool           `msgpack:"null,omitempty"`
	Value      any            `msgpack:"value,omitempty"`
	Properties []wireProperty `msgpack:"properties,omitempty"`
	Items      []wireValue    `msgpack:"items,omitempty"`
}

type wireProperty struct {
	Name  string    `msgpack:"name"`
	Value wireValue `msgpack:"value"`
}

type wireLink struct {
	Name string `msgpack:"name,omitempty"`
	URL  string `msgpack:"url"`
}

type wireOperation struct {
	Metadata string `msgpack:"metadata"`
	Title    string `msgpack:"title,omitempty"`
	Target   string `msgpack:"target,omitempty"`
}

type wireEntry struct {
	Type             string          `msgpack:"type,omitempty"`
	ID               string          `msgpack:"id,omitempty"`
	ETag             string          `msgpack:"etag,omitempty"`
	EditLink         string          `msgpack:"edit_link,omitempty"`
	ReadLink         string          `msgpack:"read_link,omitempty"`
	MediaReadLink    string          `msgpack:"media_read_link,omitempty"`
	MediaEditLink    string          `msgpack:"media_edit_link,omitempty"`
	MediaContentType string          `msgpack:"media_content_type,omitempty"`
	MediaETag        string          `msgpack:"media_etag,omitempty"`
	Properties       []wireProperty  `msgpack:"properties,omitempty"`
	NavigationLinks  []wireLink      `msgpack:"navigation_links,omitempty"`
	AssociationLinks []wireLink      `msgpack:"association_links,omitempty"`
	Operations       []wireOperation `msgpack:"operations,omitempty"`
	EntitySet        string          `msgpack:"entity_set,omitempty"`
}

type wireFeed struct {
	Count     *int64      `msgpack:"count,omitempty"`
	NextLink  string      `msgpack:"next_link,omitempty"`
	EntitySet string      `msgpack:"entity_set,omitempty"`
	Entries   []wireEntry `msgpack:"entries"`
}

type wireError struct {
	Code    string          `msgpack:"code,omitempty"`
	Message string          `msgpack:"message,omitempty"`
	Lang    string          `msgpack:"lang,omitempty"`
	Inner   *wireInnerError `msgpack:"inner,omitempty"`
}

type wireInnerError struct {
	Message    string          `msgpack:"message,omitempty"`
	Type       string          `msgpack:"type,omitempty"`
	StackTrace string          `msgpack:"stacktrace,omitempty"`
	Inner      *wireInnerError `msgpack:"inner,omitempty"`
}

type wireLinks struct {
	Count    *int64   `msgpack:"count,omitempty"`
	URLs     []string `msgpack:"urls"`
	NextLink string   `msgpack:"next_link,omitempty"`
}

func urlString(u *url.URL) string {
	if u == nil {
		return ""
	}
	return u.String()
}

func encodeValue(v any, oracle odata.TypeNameOracle, declared string, isOpen bool) wireValue {
	switch x := v.(type) {
	case nil:
		return wireValue{Null: true}
	case *model.ComplexValue:
		out := wireValue{Type: oracle.ValueTypeNameForWriting(declared, x.TypeName, isOpen)}
		for _, p := range x.Properties {
			out.Properties = append(out.Properties, wireProperty{Name: p.Name, Value: encodeValue(p.Value, oracle, "", false)})
		}
		if out.Properties == nil {
			out.Properties = []wireProperty{}
		}
		return out
	case *model.CollectionValue:
		out := wireValue{Type: oracle.ValueTypeNameForWriting(declared, x.TypeName, isOpen)}
		for _, it := range x.Items {
			out.Items = append(out.Items, encodeValue(it, oracle, "", false))
		}
		if out.Items == nil {
			out.Items = []wireValue{}
		}
		return out
	default:
		return wireValue{Value: x}
	}
}

func decodeValue(w wireValue) (any, error) {
	switch {
	case w.Null:
		return nil, nil
	case w.Properties != nil:
		cv := &model.ComplexValue{TypeName: w.Type}
		for _, p := range w.Properties {
			v, err := decodeValue(p.Value)
			if err != nil {
				return nil, err
			}
			cv.Properties = append(cv.Properties, model.Property{Name: p.Name, Value: v})
		}
		return cv, nil
	case w.Items != nil:
		col := &model.CollectionValue{TypeName: w.Type}
		for _, it := range w.Items {
			v, err := decodeValue(it)
			if err != nil {
				return nil, err
			}
			col.Items = append(col.Items, v)
		}
		return col, nil
	default:
		return normalizeScalar(w.Value), nil
	}
}

// normalizeScalar maps decoder output to the model's primitive types.
func normalizeScalar(v any) any {
	switch x := v.(type) {
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	case uint:
		return int64(x)
	case float32:
		return float64(x)
	case time.Time:
		return x
	default:
		return v
	}
}

func encodeEntry(c *odata.OutputContext, e *model.Entry, expected *edm.EntityType, fallbackInfo *model.SerializationInfo) wireEntry {
	oracle := c.TypeNameOracle()
	info := e.SerializationInfo
	if info == nil {
		info = fallbackInfo
	}
	actual := resolveEntityType(c.Model(), e.TypeName, expected)
	c.NewEntryMetadataBuilder(e, info, actual, model.SelectAll())

	expectedName := ""
	if expected != nil {
		expectedName = expected.QualifiedName()
	}
	out := wireEntry{
		Type: oracle.EntryTypeNameForWriting(expectedName, e.TypeName),
		ETag: e.ETag,
	}
	if info != nil {
		out.EntitySet = info.EntitySet
	}

	computed := c.Level().WritesComputedMetadata()
	if computed {
		out.ID, _ = e.ResolveID()
		if u, ok := e.ResolveEditLink(); ok {
			out.EditLink = u.String()
		}
		if u, ok := e.ResolveReadLink(); ok && u.String() != out.EditLink {
			out.ReadLink = u.String()
		}
		if mr, ok := e.ResolveMediaResource(); ok {
			out.MediaReadLink = urlString(mr.ReadLink)
			out.MediaEditLink = urlString(mr.EditLink)
			out.MediaContentType = mr.ContentType
			out.MediaETag = mr.ETag
		}
		for _, op := range e.ResolveOperations() {
			out.Operations = append(out.Operations, wireOperation{Metadata: op.Metadata, Title: op.Title, Target: urlString(op.Target)})
		}
	} else {
		out.ID = e.ID
		out.EditLink = urlString(e.EditLink)
		out.ReadLink = urlString(e.ReadLink)
		if e.MediaResource != nil {
			out.MediaReadLink = urlString(e.MediaResource.ReadLink)
			out.MediaEditLink = urlString(e.MediaResource.EditLink)
			out.MediaContentType = e.MediaResource.ContentType
			out.MediaETag = e.MediaResource.ETag
		}
		for _, op := range e.Operations {
			out.Operations = append(out.Operations, wireOperation{Metadata: op.Metadata, Title: op.Title, Target: urlString(op.Target)})
		}
	}
	for _, l := range e.NavigationLinks {
		u := l.URL
		if computed {
			u, _ = e.ResolveNavigationLink(l.Name)
		}
		if u != nil {
			out.NavigationLinks = append(out.NavigationLinks, wireLink{Name: l.Name, URL: u.String()})
		}
	}
	for _, l := range e.AssociationLinks {
		u := l.URL
		if computed {
			u, _ = e.ResolveAssociationLink(l.Name)
		}
		if u != nil {
			out.AssociationLinks = append(out.AssociationLinks, wireLink{Name: l.Name, URL: u.String()})
		}
	}

	for _, p := range e.Properties {
		declared := ""
		isOpen := false
		if actual != nil {
			if dp, ok := actual.Property(p.Name); ok {
				declared = dp.Type
			} else {
				isOpen = actual.IsOpen()
			}
		}
		out.Properties = append(out.Properties, wireProperty{Name: p.Name, Value: encodeValue(p.Value, oracle, declared, isOpen)})
	}
	return out
}

func buildEntry(c *odata.InputContext, w *wireEntry, expected *edm.EntityType, fallbackInfo *model.SerializationInfo) (*model.Entry, error) {
	e := &model.Entry{
		TypeName:          w.Type,
		ID:                w.ID,
		ETag:              w.ETag,
		SerializationInfo: fallbackInfo,
	}
	if w.EntitySet != "" {
		e.SerializationInfo = &model.SerializationInfo{EntitySet: w.EntitySet}
	}
	var err error
	if e.EditLink, err = parseWireURL(c, w.EditLink); err != nil {
		return nil, err
	}
	if e.ReadLink, err = parseWireURL(c, w.ReadLink); err != nil {
		return nil, err
	}
	if w.MediaReadLink != "" || w.MediaEditLink != "" || w.MediaContentType != "" || w.MediaETag != "" {
		mr := &model.StreamReference{ContentType: w.MediaContentType, ETag: w.MediaETag}
		if mr.ReadLink, err = parseWireURL(c, w.MediaReadLink); err != nil {
			return nil, err
		}
		if mr.EditLink, err = parseWireURL(c, w.MediaEditLink); err != nil {
			return nil, err
		}
		e.MediaResource = mr
	}
	for _, l := range w.NavigationLinks {
		u, err := parseWireURL(c, l.URL)
		if err != nil {
			return nil, err
		}
		e.NavigationLinks = append(e.NavigationLinks, model.NavigationLink{Name: l.Name, URL: u})
	}
	for _, l := range w.AssociationLinks {
		u, err := parseWireURL(c, l.URL)
		if err != nil {
			return nil, err
		}
		e.AssociationLinks = append(e.AssociationLinks, model.AssociationLink{Name: l.Name, URL: u})
	}
	for _, op := range w.Operations {
		target, err := parseWireURL(c, op.Target)
		if err != nil {
			return nil, err
		}
		e.Operations = append(e.Operations, model.Operation{Metadata: op.Metadata, Title: op.Title, Target: target})
	}
	for _, p := range w.Properties {
		v, err := decodeValue(p.Value)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", p.Name, err)
		}
		e.Properties = append(e.Properties, model.Property{Name: p.Name, Value: v})
	}

	actual := resolveEntityType(c.Model(), e.TypeName, expected)
	c.NewEntryMetadataBuilder(e, e.SerializationInfo, actual, model.SelectAll())
	return e, nil
}

func parseWireURL(c *odata.InputContext, s string) (*url.URL, error) {
	if s == "" {
		return nil, nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return c.ResolveURL(u), nil
}

func resolveEntityType(m *edm.Model, typeName string, expected *edm.EntityType) *edm.EntityType {
	if m != nil && typeName != "" {
		if t, ok := m.EntityType(typeName); ok {
			return t
		}
	}
	return expected
}

func writeWire(c *odata.OutputContext, v any) error {
	return msgpack.NewEncoder(c.Writer()).Encode(v)
}

func readWire(c *odata.InputContext, v any) error {
	if err := msgpack.NewDecoder(c.Reader()).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}

type entryWriter struct {
	c        *odata.OutputContext
	expected *edm.EntityType
}

func (w *entryWriter) Write(e *model.Entry) error {
	return writeWire(w.c, encodeEntry(w.c, e, w.expected, nil))
}

type entryReader struct {
	c        *odata.InputContext
	expected *edm.EntityType
}

func (r *entryReader) Read() (*model.Entry, error) {
	var wire wireEntry
	if err := readWire(r.c, &wire); err != nil {
		return nil, err
	}
	return buildEntry(r.c, &wire, r.expected, nil)
}

type feedWriter struct {
	c        *odata.OutputContext
	expected *edm.EntityType
}

func (w *feedWriter) Write(feed *model.Feed) error {
	out := wireFeed{Count: feed.Count, Entries: []wireEntry{}}
	if feed.NextPageLink != nil {
		out.NextLink = feed.NextPageLink.String()
	}
	if feed.SerializationInfo != nil {
		out.EntitySet = feed.SerializationInfo.EntitySet
	}
	for _, e := range feed.Entries {
		out.Entries = append(out.Entries, encodeEntry(w.c, e, w.expected, feed.SerializationInfo))
	}
	return writeWire(w.c, out)
}

type feedReader struct {
	c        *odata.InputContext
	expected *edm.EntityType
}

func (r *feedReader) Read() (*model.Feed, error) {
	var wire wireFeed
	if err := readWire(r.c, &wire); err != nil {
		return nil, err
	}
	feed := &model.Feed{Count: wire.Count}
	if wire.EntitySet != "" {
		feed.SerializationInfo = &model.SerializationInfo{EntitySet: wire.EntitySet}
	}
	var err error
	if wire.NextLink != "" {
		if feed.NextPageLink, err = parseWireURL(r.c, wire.NextLink); err != nil {
			return nil, err
		}
	}
	for i := range wire.Entries {
		e, err := buildEntry(r.c, &wire.Entries[i], r.expected, feed.SerializationInfo)
		if err != nil {
			return nil, err
		}
		feed.Entries = append(feed.Entries, e)
	}
	return feed, nil
}

type propertyWriter struct {
	c        *odata.OutputContext
	expected *edm.Property
}

func (w *propertyWriter) Write(p *model.Property) error {
	declared := ""
	if w.expected != nil {
		declared = w.expected.Type
	}
	return writeWire(w.c, wireProperty{
		Name:  p.Name,
		Value: encodeValue(p.Value, w.c.TypeNameOracle(), declared, false),
	})
}

type propertyReader struct {
	c        *odata.InputContext
	expected *edm.Property
}

func (r *propertyReader) Read() (*model.Property, error) {
	var wire wireProperty
	if err := readWire(r.c, &wire); err != nil {
		return nil, err
	}
	v, err := decodeValue(wire.Value)
	if err != nil {
		return nil, err
	}
	name := wire.Name
	if name == "" && r.expected != nil {
		name = r.expected.Name
	}
	return &model.Property{Name: name, Value: v}, nil
}

type collectionWriter struct {
	c                *odata.OutputContext
	expectedItemType string
}

func (w *collectionWriter) Write(col *model.Collection) error {
	itemType := col.TypeName
	if itemType == "" {
		itemType = w.expectedItemType
	}
	out := wireValue{Type: itemType, Items: []wireValue{}}
	oracle := w.c.TypeNameOracle()
	for _, it := range col.Items {
		out.Items = append(out.Items, encodeValue(it, oracle, itemType, false))
	}
	return writeWire(w.c, out)
}

type collectionReader struct {
	c                *odata.InputContext
	expectedItemType string
}

func (r *collectionReader) Read() (*model.Collection, error) {
	var wire wireValue
	if err := readWire(r.c, &wire); err != nil {
		return nil, err
	}
	itemType := wire.Type
	if itemType == "" {
		itemType = r.expectedItemType
	}
	col := &model.Collection{TypeName: itemType}
	for _, it := range wire.Items {
		v, err := decodeValue(it)
		if err != nil {
			return nil, err
		}
		col.Items = append(col.Items, v)
	}
	return col, nil
}

type errorWriter struct {
	c *odata.OutputContext
}

func (w *errorWriter) Write(oerr *model.Error) error {
	return writeWire(w.c, wireError{
		Code:    oerr.Code,
		Message: oerr.Message,
		Lang:    oerr.Lang,
		Inner:   encodeInnerError(oerr.Inner),
	})
}

func encodeInnerError(ie *model.InnerError) *wireInnerError {
	if ie == nil {
		return nil
	}
	return &wireInnerError{
		Message:    ie.Message,
		Type:       ie.TypeName,
		StackTrace: ie.StackTrace,
		Inner:      encodeInnerError(ie.Inner),
	}
}

type errorReader struct {
	c *odata.InputContext
}

func (r *errorReader) Read() (*model.Error, error) {
	var wire wireError
	if err := readWire(r.c, &wire); err != nil {
		return nil, err
	}
	return &model.Error{
		Code:    wire.Code,
		Message: wire.Message,
		Lang:    wire.Lang,
		Inner:   decodeInnerError(wire.Inner),
	}, nil
}

func decodeInnerError(w *wireInnerError) *model.InnerError {
	if w == nil {
		return nil
	}
	return &model.InnerError{
		Message:    w.Message,
		TypeName:   w.Type,
		StackTrace: w.StackTrace,
		Inner:      decodeInnerError(w.Inner),
	}
}

type referenceLinkWriter struct {
	c *odata.OutputContext
}

func (w *referenceLinkWriter) Write(l *model.EntityReferenceLink) error {
	return writeWire(w.c, wireLink{URL: urlString(l.URL)})
}

type referenceLinkReader struct {
	c *odata.InputContext
}

func (r *referenceLinkReader) Read() (*model.EntityReferenceLink, error) {
	var wire wireLink
	if err := readWire(r.c, &wire); err != nil {
		return nil, err
	}
	u, err := parseWireURL(r.c, wire.URL)
	if err != nil {
		return nil, err
	}
	return &model.EntityReferenceLink{URL: u}, nil
}

type referenceLinksWriter struct {
	c *odata.OutputContext
}

func (w *referenceLinksWriter) Write(ls *model.EntityReferenceLinks) error {
	out := wireLinks{Count: ls.Count, URLs: []string{}}
	for _, l := range ls.Links {
		out.URLs = append(out.URLs, urlString(l.URL))
	}
	if ls.NextPageLink != nil {
		out.NextLink = ls.NextPageLink.String()
	}
	return writeWire(w.c, out)
}

type referenceLinksReader struct {
	c *odata.InputContext
}

func (r *referenceLinksReader) Read() (*model.EntityReferenceLinks, error) {
	var wire wireLinks
	if err := readWire(r.c, &wire); err != nil {
		return nil, err
	}
	links := &model.EntityReferenceLinks{Count: wire.Count}
	for _, raw := range wire.URLs {
		u, err := parseWireURL(r.c, raw)
		if err != nil {
			return nil, err
		}
		links.Links = append(links.Links, &model.EntityReferenceLink{URL: u})
	}
	if wire.NextLink != "" {
		u, err := parseWireURL(r.c, wire.NextLink)
		if err != nil {
			return nil, err
		}
		links.NextPageLink = u
	}
	return links, nil
}
