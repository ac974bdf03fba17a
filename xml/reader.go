package xml

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"

	"github.com/rbaliyan/odata"
	"github.com/rbaliyan/odata/edm"
	"github.com/rbaliyan/odata/model"
)

// Wire shells for the structural parts of the Atom documents. The dynamic
// property bags decode through propertyBag below.

type atomCategory struct {
	Term   string `xml:"term,attr"`
	Scheme string `xml:"scheme,attr"`
}

type atomLink struct {
	Rel   string `xml:"rel,attr"`
	Href  string `xml:"href,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
}

type atomContent struct {
	Type       string       `xml:"type,attr"`
	Src        string       `xml:"src,attr"`
	Properties *propertyBag `xml:"http://schemas.microsoft.com/ado/2007/08/dataservices/metadata properties"`
}

type atomEntry struct {
	ETag       string         `xml:"http://schemas.microsoft.com/ado/2007/08/dataservices/metadata etag,attr"`
	ID         string         `xml:"http://www.w3.org/2005/Atom id"`
	Categories []atomCategory `xml:"http://www.w3.org/2005/Atom category"`
	Links      []atomLink     `xml:"http://www.w3.org/2005/Atom link"`
	Content    *atomContent   `xml:"http://www.w3.org/2005/Atom content"`
	// Properties appears directly under entry for media link entries.
	Properties *propertyBag `xml:"http://schemas.microsoft.com/ado/2007/08/dataservices/metadata properties"`
}

type atomFeed struct {
	Count   *int64      `xml:"http://schemas.microsoft.com/ado/2007/08/dataservices/metadata count"`
	ID      string      `xml:"http://www.w3.org/2005/Atom id"`
	Links   []atomLink  `xml:"http://www.w3.org/2005/Atom link"`
	Entries []atomEntry `xml:"http://www.w3.org/2005/Atom entry"`
}

// propertyBag decodes an m:properties container: dynamically named d:
// elements carrying primitives, complex values or collections.
type propertyBag struct {
	props []model.Property
	// typed records which properties carried an explicit m:type.
	typed map[string]bool
}

func (b *propertyBag) UnmarshalXML(dec *xml.Decoder, start xml.StartElement) error {
	b.typed = make(map[string]bool)
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			v, typeName, err := decodeValueTree(dec, t)
			if err != nil {
				return err
			}
			b.props = append(b.props, model.Property{Name: t.Name.Local, Value: v})
			if typeName != "" {
				b.typed[t.Name.Local] = true
			}
		case xml.EndElement:
			return nil
		}
	}
}

// decodeValueTree parses one value element: null, primitive text, a complex
// value (named children) or a collection (d:element children). It returns
// the decoded value and the m:type annotation when present.
func decodeValueTree(dec *xml.Decoder, start xml.StartElement) (any, string, error) {
	typeName := ""
	for _, a := range start.Attr {
		if a.Name.Space != nsMeta {
			continue
		}
		switch a.Name.Local {
		case "type":
			typeName = a.Value
		case "null":
			if a.Value == "true" {
				return nil, typeName, dec.Skip()
			}
		}
	}

	var (
		text      strings.Builder
		children  []model.Property
		elements  []any
		collected bool
		listShape = true
	)
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.StartElement:
			collected = true
			v, childType, err := decodeValueTree(dec, t)
			if err != nil {
				return nil, "", err
			}
			if t.Name.Space == nsData && t.Name.Local == "element" {
				if v == nil && childType != "" {
					v, err = parsePrimitiveText("", childType)
					if err != nil {
						return nil, "", err
					}
				}
				elements = append(elements, v)
			} else {
				listShape = false
				children = append(children, model.Property{Name: t.Name.Local, Value: v})
			}
		case xml.EndElement:
			if !collected {
				v, err := parsePrimitiveText(text.String(), typeName)
				return v, typeName, err
			}
			if listShape {
				itemType := collectionItemType(typeName)
				items := elements
				if itemType != "" {
					for i, it := range items {
						if s, ok := it.(string); ok {
							v, err := parsePrimitiveText(s, itemType)
							if err != nil {
								return nil, "", err
							}
							items[i] = v
						}
					}
				}
				return &model.CollectionValue{TypeName: typeName, Items: items}, typeName, nil
			}
			return &model.ComplexValue{TypeName: typeName, Properties: children}, typeName, nil
		}
	}
}

func decodeDocument(c *odata.InputContext, v any) error {
	if err := xml.NewDecoder(c.Reader()).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}

func parseHref(c *odata.InputContext, href string) (*url.URL, error) {
	if href == "" {
		return nil, nil
	}
	u, err := url.Parse(href)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return c.ResolveURL(u), nil
}

type entryReader struct {
	c        *odata.InputContext
	expected *edm.EntityType
}

func (r *entryReader) Read() (*model.Entry, error) {
	var wire atomEntry
	if err := decodeDocument(r.c, &wire); err != nil {
		return nil, err
	}
	return buildEntry(r.c, &wire, r.expected, nil)
}

type feedReader struct {
	c        *odata.InputContext
	expected *edm.EntityType
}

func (r *feedReader) Read() (*model.Feed, error) {
	var wire atomFeed
	if err := decodeDocument(r.c, &wire); err != nil {
		return nil, err
	}
	feed := &model.Feed{ID: wire.ID, Count: wire.Count}
	for _, l := range wire.Links {
		if l.Rel == "next" {
			u, err := parseHref(r.c, l.Href)
			if err != nil {
				return nil, err
			}
			feed.NextPageLink = u
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

// buildEntry converts a decoded atom:entry to the model form and injects
// the level-appropriate metadata builder.
func buildEntry(c *odata.InputContext, wire *atomEntry, expected *edm.EntityType, fallbackInfo *model.SerializationInfo) (*model.Entry, error) {
	e := &model.Entry{
		ID:                wire.ID,
		ETag:              wire.ETag,
		SerializationInfo: fallbackInfo,
	}
	for _, cat := range wire.Categories {
		if cat.Scheme == nsScheme {
			e.TypeName = cat.Term
			break
		}
	}
	for _, l := range wire.Links {
		u, err := parseHref(c, l.Href)
		if err != nil {
			return nil, err
		}
		switch {
		case l.Rel == "edit":
			e.EditLink = u
		case l.Rel == "self":
			e.ReadLink = u
		case strings.HasPrefix(l.Rel, nsRelated):
			name := strings.TrimPrefix(l.Rel, nsRelated)
			e.NavigationLinks = append(e.NavigationLinks, model.NavigationLink{Name: name, URL: u})
		case strings.HasPrefix(l.Rel, nsRelLink):
			name := strings.TrimPrefix(l.Rel, nsRelLink)
			e.AssociationLinks = append(e.AssociationLinks, model.AssociationLink{Name: name, URL: u})
		}
	}

	bag := wire.Properties
	if wire.Content != nil {
		if wire.Content.Src != "" {
			src, err := parseHref(c, wire.Content.Src)
			if err != nil {
				return nil, err
			}
			e.MediaResource = &model.StreamReference{ReadLink: src, ContentType: wire.Content.Type}
		}
		if wire.Content.Properties != nil {
			bag = wire.Content.Properties
		}
	}

	actual := resolveEntityType(c.Model(), e.TypeName, expected)
	if bag != nil {
		e.Properties = bag.props
		// Untyped text values take their declared model type.
		for i, p := range e.Properties {
			if bag.typed[p.Name] || actual == nil {
				continue
			}
			s, ok := p.Value.(string)
			if !ok {
				continue
			}
			if dp, ok := actual.Property(p.Name); ok {
				v, err := parsePrimitiveText(s, dp.Type)
				if err != nil {
					return nil, fmt.Errorf("property %q: %w", p.Name, err)
				}
				e.Properties[i].Value = v
			}
		}
	}

	c.NewEntryMetadataBuilder(e, e.SerializationInfo, actual, model.SelectAll())
	return e, nil
}

type propertyReader struct {
	c        *odata.InputContext
	expected *edm.Property
}

func (r *propertyReader) Read() (*model.Property, error) {
	dec := xml.NewDecoder(r.c.Reader())
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		v, typeName, err := decodeValueTree(dec, start)
		if err != nil {
			return nil, err
		}
		if typeName == "" && r.expected != nil {
			if s, ok := v.(string); ok {
				if v, err = parsePrimitiveText(s, r.expected.Type); err != nil {
					return nil, err
				}
			}
		}
		return &model.Property{Name: start.Name.Local, Value: v}, nil
	}
}

type collectionReader struct {
	c                *odata.InputContext
	expectedItemType string
}

func (r *collectionReader) Read() (*model.Collection, error) {
	dec := xml.NewDecoder(r.c.Reader())
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		v, typeName, err := decodeValueTree(dec, start)
		if err != nil {
			return nil, err
		}
		itemType := collectionItemType(typeName)
		if itemType == "" {
			itemType = r.expectedItemType
		}
		col := &model.Collection{TypeName: itemType}
		switch x := v.(type) {
		case *model.CollectionValue:
			col.Items = x.Items
		case string:
			if x == "" {
				return col, nil
			}
			return nil, fmt.Errorf("%w: collection payload has no elements", ErrMalformedPayload)
		default:
			return nil, fmt.Errorf("%w: collection payload has no elements", ErrMalformedPayload)
		}
		if itemType != "" {
			for i, it := range col.Items {
				if s, ok := it.(string); ok {
					v, err := parsePrimitiveText(s, itemType)
					if err != nil {
						return nil, err
					}
					col.Items[i] = v
				}
			}
		}
		return col, nil
	}
}

type xmlInnerError struct {
	Message    string         `xml:"http://schemas.microsoft.com/ado/2007/08/dataservices/metadata message"`
	Type       string         `xml:"http://schemas.microsoft.com/ado/2007/08/dataservices/metadata type"`
	StackTrace string         `xml:"http://schemas.microsoft.com/ado/2007/08/dataservices/metadata stacktrace"`
	Inner      *xmlInnerError `xml:"http://schemas.microsoft.com/ado/2007/08/dataservices/metadata internalexception"`
}

type xmlErrorMessage struct {
	Lang  string `xml:"http://www.w3.org/XML/1998/namespace lang,attr"`
	Value string `xml:",chardata"`
}

type xmlError struct {
	Code    string          `xml:"http://schemas.microsoft.com/ado/2007/08/dataservices/metadata code"`
	Message xmlErrorMessage `xml:"http://schemas.microsoft.com/ado/2007/08/dataservices/metadata message"`
	Inner   *xmlInnerError  `xml:"http://schemas.microsoft.com/ado/2007/08/dataservices/metadata innererror"`
}

type errorReader struct {
	c *odata.InputContext
}

func (r *errorReader) Read() (*model.Error, error) {
	var wire xmlError
	if err := decodeDocument(r.c, &wire); err != nil {
		return nil, err
	}
	oerr := &model.Error{
		Code:    wire.Code,
		Message: wire.Message.Value,
		Lang:    wire.Message.Lang,
	}
	oerr.Inner = buildInnerError(wire.Inner)
	return oerr, nil
}

func buildInnerError(wire *xmlInnerError) *model.InnerError {
	if wire == nil {
		return nil
	}
	return &model.InnerError{
		Message:    wire.Message,
		TypeName:   wire.Type,
		StackTrace: wire.StackTrace,
		Inner:      buildInnerError(wire.Inner),
	}
}

type referenceLinkReader struct {
	c *odata.InputContext
}

func (r *referenceLinkReader) Read() (*model.EntityReferenceLink, error) {
	var wire struct {
		Value string `xml:",chardata"`
	}
	if err := decodeDocument(r.c, &wire); err != nil {
		return nil, err
	}
	u, err := parseHref(r.c, strings.TrimSpace(wire.Value))
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("%w: reference link has no target", ErrMalformedPayload)
	}
	return &model.EntityReferenceLink{URL: u}, nil
}

type referenceLinksReader struct {
	c *odata.InputContext
}

func (r *referenceLinksReader) Read() (*model.EntityReferenceLinks, error) {
	var wire struct {
		Count *int64   `xml:"http://schemas.microsoft.com/ado/2007/08/dataservices/metadata count"`
		URIs  []string `xml:"http://schemas.microsoft.com/ado/2007/08/dataservices uri"`
		Next  string   `xml:"http://schemas.microsoft.com/ado/2007/08/dataservices next"`
	}
	if err := decodeDocument(r.c, &wire); err != nil {
		return nil, err
	}
	links := &model.EntityReferenceLinks{Count: wire.Count}
	for _, raw := range wire.URIs {
		u, err := parseHref(r.c, strings.TrimSpace(raw))
		if err != nil {
			return nil, err
		}
		links.Links = append(links.Links, &model.EntityReferenceLink{URL: u})
	}
	if wire.Next != "" {
		u, err := parseHref(r.c, strings.TrimSpace(wire.Next))
		if err != nil {
			return nil, err
		}
		links.NextPageLink = u
	}
	return links, nil
}

type serviceDocumentReader struct {
	c *odata.InputContext
}

func (r *serviceDocumentReader) Read() (*model.ServiceDocument, error) {
	var wire struct {
		Workspaces []struct {
			Collections []struct {
				Href  string `xml:"href,attr"`
				Title string `xml:"http://www.w3.org/2005/Atom title"`
			} `xml:"http://www.w3.org/2007/app collection"`
		} `xml:"http://www.w3.org/2007/app workspace"`
	}
	if err := decodeDocument(r.c, &wire); err != nil {
		return nil, err
	}
	doc := &model.ServiceDocument{}
	for _, ws := range wire.Workspaces {
		for _, col := range ws.Collections {
			doc.Collections = append(doc.Collections, model.ServiceDocumentCollection{
				Name:  col.Title,
				URL:   col.Href,
				Title: col.Title,
			})
		}
	}
	return doc, nil
}
