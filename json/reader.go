package json

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/rbaliyan/odata"
	"github.com/rbaliyan/odata/edm"
	"github.com/rbaliyan/odata/model"
)

func decodeObject(c *odata.InputContext) (map[string]any, error) {
	dec := json.NewDecoder(c.Reader())
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return obj, nil
}

// sortedKeys fixes the processing order of a decoded object. Annotations
// sort ahead of the members they annotate only by accident of their names,
// so decoding never depends on ordering; this just keeps errors
// deterministic.
func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func memberString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: expected string, got %T", ErrMalformedPayload, v)
	}
	return s, nil
}

func memberURL(c *odata.InputContext, v any) (*url.URL, error) {
	s, err := memberString(v)
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return c.ResolveURL(u), nil
}

// memberCount parses an inline count, which rides as either a JSON number
// or a decimal string.
func memberCount(v any) (int64, error) {
	switch x := v.(type) {
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		return n, nil
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: expected count, got %T", ErrMalformedPayload, v)
	}
}

type entryReader struct {
	c        *odata.InputContext
	expected *edm.EntityType
}

func (r *entryReader) Read() (*model.Entry, error) {
	obj, err := decodeObject(r.c)
	if err != nil {
		return nil, err
	}
	return decodeEntry(r.c, obj, r.expected, nil)
}

type feedReader struct {
	c        *odata.InputContext
	expected *edm.EntityType
}

func (r *feedReader) Read() (*model.Feed, error) {
	c := r.c
	obj, err := decodeObject(c)
	if err != nil {
		return nil, err
	}
	feed := &model.Feed{}
	for _, key := range sortedKeys(obj) {
		v := obj[key]
		switch key {
		case annotationMetadata:
			uri, err := memberString(v)
			if err != nil {
				return nil, err
			}
			if set := entitySetFromFragment(contextFragment(uri)); set != "" {
				feed.SerializationInfo = &model.SerializationInfo{EntitySet: set}
			}
		case annotationCount:
			n, err := memberCount(v)
			if err != nil {
				return nil, err
			}
			feed.Count = &n
		case annotationNextLink:
			u, err := memberURL(c, v)
			if err != nil {
				return nil, err
			}
			feed.NextPageLink = u
		case "value":
			items, ok := v.([]any)
			if !ok {
				return nil, fmt.Errorf("%w: feed value must be an array", ErrMalformedPayload)
			}
			for _, it := range items {
				entryObj, ok := it.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("%w: feed entry must be an object", ErrMalformedPayload)
				}
				e, err := decodeEntry(c, entryObj, r.expected, feed.SerializationInfo)
				if err != nil {
					return nil, err
				}
				feed.Entries = append(feed.Entries, e)
			}
		}
	}
	return feed, nil
}

// decodeEntry materializes one entry from its decoded object, then injects
// the level-appropriate metadata builder so convention-derived values left
// off the wire stay resolvable.
func decodeEntry(c *odata.InputContext, obj map[string]any, expected *edm.EntityType, fallbackInfo *model.SerializationInfo) (*model.Entry, error) {
	e := &model.Entry{SerializationInfo: fallbackInfo}
	typeAnnotations := make(map[string]string)

	for _, key := range sortedKeys(obj) {
		v := obj[key]
		switch key {
		case annotationMetadata:
			uri, err := memberString(v)
			if err != nil {
				return nil, err
			}
			if set := entitySetFromFragment(contextFragment(uri)); set != "" {
				e.SerializationInfo = &model.SerializationInfo{EntitySet: set}
			}
			continue
		case annotationType:
			tn, err := memberString(v)
			if err != nil {
				return nil, err
			}
			e.TypeName = tn
			continue
		case annotationID:
			id, err := memberString(v)
			if err != nil {
				return nil, err
			}
			e.ID = id
			continue
		case annotationETag:
			etag, err := memberString(v)
			if err != nil {
				return nil, err
			}
			e.ETag = etag
			continue
		case annotationEditLink:
			u, err := memberURL(c, v)
			if err != nil {
				return nil, err
			}
			e.EditLink = u
			continue
		case annotationReadLink:
			u, err := memberURL(c, v)
			if err != nil {
				return nil, err
			}
			e.ReadLink = u
			continue
		case annotationMediaReadLink, annotationMediaEditLink, annotationMediaContentType, annotationMediaETag:
			if err := decodeStreamMember(c, e, key, v); err != nil {
				return nil, err
			}
			continue
		}
		if name, ok := strings.CutSuffix(key, suffixType); ok {
			tn, err := memberString(v)
			if err != nil {
				return nil, err
			}
			typeAnnotations[name] = tn
			continue
		}
		if name, ok := strings.CutSuffix(key, suffixNavigationLink); ok {
			u, err := memberURL(c, v)
			if err != nil {
				return nil, err
			}
			e.NavigationLinks = append(e.NavigationLinks, model.NavigationLink{Name: name, URL: u})
			continue
		}
		if name, ok := strings.CutSuffix(key, suffixAssociationLink); ok {
			u, err := memberURL(c, v)
			if err != nil {
				return nil, err
			}
			e.AssociationLinks = append(e.AssociationLinks, model.AssociationLink{Name: name, URL: u})
			continue
		}
		if strings.HasPrefix(key, "#") {
			op, err := decodeOperation(c, key, v)
			if err != nil {
				return nil, err
			}
			e.Operations = append(e.Operations, op)
			continue
		}
		if strings.HasPrefix(key, "odata.") {
			// Unrecognized instance annotation; skip.
			continue
		}
		e.Properties = append(e.Properties, model.Property{Name: key, Value: v})
	}

	actual := resolveEntityType(c.Model(), e.TypeName, expected)
	for i, p := range e.Properties {
		declared := typeAnnotations[p.Name]
		if declared == "" && actual != nil {
			if dp, ok := actual.Property(p.Name); ok {
				declared = dp.Type
			}
		}
		val, err := decodeValue(c, p.Value, declared)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", p.Name, err)
		}
		e.Properties[i].Value = val
	}

	c.NewEntryMetadataBuilder(e, e.SerializationInfo, actual, model.SelectAll())
	return e, nil
}

func decodeStreamMember(c *odata.InputContext, e *model.Entry, key string, v any) error {
	if e.MediaResource == nil {
		e.MediaResource = &model.StreamReference{}
	}
	switch key {
	case annotationMediaReadLink:
		u, err := memberURL(c, v)
		if err != nil {
			return err
		}
		e.MediaResource.ReadLink = u
	case annotationMediaEditLink:
		u, err := memberURL(c, v)
		if err != nil {
			return err
		}
		e.MediaResource.EditLink = u
	case annotationMediaContentType:
		s, err := memberString(v)
		if err != nil {
			return err
		}
		e.MediaResource.ContentType = s
	case annotationMediaETag:
		s, err := memberString(v)
		if err != nil {
			return err
		}
		e.MediaResource.ETag = s
	}
	return nil
}

func decodeOperation(c *odata.InputContext, key string, v any) (model.Operation, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return model.Operation{}, fmt.Errorf("%w: operation %q must be an object", ErrMalformedPayload, key)
	}
	op := model.Operation{Metadata: key}
	if t, ok := obj["title"]; ok {
		s, err := memberString(t)
		if err != nil {
			return model.Operation{}, err
		}
		op.Title = s
	}
	if t, ok := obj["target"]; ok {
		u, err := memberURL(c, t)
		if err != nil {
			return model.Operation{}, err
		}
		op.Target = u
	}
	return op, nil
}

// decodeValue converts a decoded JSON value to its model representation,
// honoring the declared or annotated wire type.
func decodeValue(c *odata.InputContext, v any, declared string) (any, error) {
	switch x := v.(type) {
	case map[string]any:
		return decodeComplex(c, x, declared)
	case []any:
		itemDeclared := collectionItemType(declared)
		col := &model.CollectionValue{TypeName: declared}
		for _, it := range x {
			val, err := decodeValue(c, it, itemDeclared)
			if err != nil {
				return nil, err
			}
			col.Items = append(col.Items, val)
		}
		return col, nil
	default:
		return coercePrimitive(v, declared)
	}
}

func decodeComplex(c *odata.InputContext, obj map[string]any, declared string) (*model.ComplexValue, error) {
	cv := &model.ComplexValue{TypeName: declared}
	typeAnnotations := make(map[string]string)
	for _, key := range sortedKeys(obj) {
		v := obj[key]
		if key == annotationType {
			tn, err := memberString(v)
			if err != nil {
				return nil, err
			}
			cv.TypeName = tn
			continue
		}
		if name, ok := strings.CutSuffix(key, suffixType); ok {
			tn, err := memberString(v)
			if err != nil {
				return nil, err
			}
			typeAnnotations[name] = tn
			continue
		}
		if strings.HasPrefix(key, "odata.") {
			continue
		}
		cv.Properties = append(cv.Properties, model.Property{Name: key, Value: v})
	}
	for i, p := range cv.Properties {
		val, err := decodeValue(c, p.Value, typeAnnotations[p.Name])
		if err != nil {
			return nil, err
		}
		cv.Properties[i].Value = val
	}
	return cv, nil
}

type propertyReader struct {
	c        *odata.InputContext
	expected *edm.Property
}

func (r *propertyReader) Read() (*model.Property, error) {
	obj, err := decodeObject(r.c)
	if err != nil {
		return nil, err
	}
	declared := ""
	if r.expected != nil {
		declared = r.expected.Type
	}
	if tn, ok := obj["value"+suffixType]; ok {
		s, err := memberString(tn)
		if err != nil {
			return nil, err
		}
		declared = s
	}
	raw, ok := obj["value"]
	if !ok {
		return nil, fmt.Errorf("%w: property payload has no value member", ErrMalformedPayload)
	}
	val, err := decodeValue(r.c, raw, declared)
	if err != nil {
		return nil, err
	}
	name := ""
	if r.expected != nil {
		name = r.expected.Name
	}
	return &model.Property{Name: name, Value: val}, nil
}

type collectionReader struct {
	c                *odata.InputContext
	expectedItemType string
}

func (r *collectionReader) Read() (*model.Collection, error) {
	obj, err := decodeObject(r.c)
	if err != nil {
		return nil, err
	}
	itemType := r.expectedItemType
	if uri, ok := obj[annotationMetadata]; ok {
		s, err := memberString(uri)
		if err != nil {
			return nil, err
		}
		if t := collectionItemType(contextFragment(s)); t != "" {
			itemType = t
		}
	}
	raw, ok := obj["value"]
	if !ok {
		return nil, fmt.Errorf("%w: collection payload has no value member", ErrMalformedPayload)
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: collection value must be an array", ErrMalformedPayload)
	}
	col := &model.Collection{TypeName: itemType}
	for _, it := range items {
		val, err := decodeValue(r.c, it, itemType)
		if err != nil {
			return nil, err
		}
		col.Items = append(col.Items, val)
	}
	return col, nil
}

type errorReader struct {
	c *odata.InputContext
}

func (r *errorReader) Read() (*model.Error, error) {
	obj, err := decodeObject(r.c)
	if err != nil {
		return nil, err
	}
	raw, ok := obj[annotationError]
	if !ok {
		return nil, fmt.Errorf("%w: error payload has no %s member", ErrMalformedPayload, annotationError)
	}
	body, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be an object", ErrMalformedPayload, annotationError)
	}
	oerr := &model.Error{}
	if v, ok := body["code"]; ok {
		if oerr.Code, err = memberString(v); err != nil {
			return nil, err
		}
	}
	if v, ok := body["message"]; ok {
		switch msg := v.(type) {
		case string:
			oerr.Message = msg
		case map[string]any:
			if lv, ok := msg["lang"]; ok {
				if oerr.Lang, err = memberString(lv); err != nil {
					return nil, err
				}
			}
			if vv, ok := msg["value"]; ok {
				if oerr.Message, err = memberString(vv); err != nil {
					return nil, err
				}
			}
		default:
			return nil, fmt.Errorf("%w: malformed error message", ErrMalformedPayload)
		}
	}
	if v, ok := body["innererror"]; ok {
		inner, err := decodeInnerError(v)
		if err != nil {
			return nil, err
		}
		oerr.Inner = inner
	}
	return oerr, nil
}

func decodeInnerError(v any) (*model.InnerError, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: innererror must be an object", ErrMalformedPayload)
	}
	ie := &model.InnerError{}
	var err error
	if m, ok := obj["message"]; ok {
		if ie.Message, err = memberString(m); err != nil {
			return nil, err
		}
	}
	if t, ok := obj["type"]; ok {
		if ie.TypeName, err = memberString(t); err != nil {
			return nil, err
		}
	}
	if s, ok := obj["stacktrace"]; ok {
		if ie.StackTrace, err = memberString(s); err != nil {
			return nil, err
		}
	}
	if n, ok := obj["internalexception"]; ok {
		if ie.Inner, err = decodeInnerError(n); err != nil {
			return nil, err
		}
	}
	return ie, nil
}

type referenceLinkReader struct {
	c *odata.InputContext
}

func (r *referenceLinkReader) Read() (*model.EntityReferenceLink, error) {
	obj, err := decodeObject(r.c)
	if err != nil {
		return nil, err
	}
	raw, ok := obj["url"]
	if !ok {
		return nil, fmt.Errorf("%w: reference link has no url member", ErrMalformedPayload)
	}
	u, err := memberURL(r.c, raw)
	if err != nil {
		return nil, err
	}
	return &model.EntityReferenceLink{URL: u}, nil
}

type referenceLinksReader struct {
	c *odata.InputContext
}

func (r *referenceLinksReader) Read() (*model.EntityReferenceLinks, error) {
	obj, err := decodeObject(r.c)
	if err != nil {
		return nil, err
	}
	links := &model.EntityReferenceLinks{}
	for _, key := range sortedKeys(obj) {
		v := obj[key]
		switch key {
		case annotationCount:
			n, err := memberCount(v)
			if err != nil {
				return nil, err
			}
			links.Count = &n
		case annotationNextLink:
			u, err := memberURL(r.c, v)
			if err != nil {
				return nil, err
			}
			links.NextPageLink = u
		case "value":
			items, ok := v.([]any)
			if !ok {
				return nil, fmt.Errorf("%w: reference links value must be an array", ErrMalformedPayload)
			}
			for _, it := range items {
				inner, ok := it.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("%w: reference link must be an object", ErrMalformedPayload)
				}
				raw, ok := inner["url"]
				if !ok {
					return nil, fmt.Errorf("%w: reference link has no url member", ErrMalformedPayload)
				}
				u, err := memberURL(r.c, raw)
				if err != nil {
					return nil, err
				}
				links.Links = append(links.Links, &model.EntityReferenceLink{URL: u})
			}
		}
	}
	return links, nil
}

type serviceDocumentReader struct {
	c *odata.InputContext
}

func (r *serviceDocumentReader) Read() (*model.ServiceDocument, error) {
	obj, err := decodeObject(r.c)
	if err != nil {
		return nil, err
	}
	raw, ok := obj["value"]
	if !ok {
		return nil, fmt.Errorf("%w: service document has no value member", ErrMalformedPayload)
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: service document value must be an array", ErrMalformedPayload)
	}
	doc := &model.ServiceDocument{}
	for _, it := range items {
		inner, ok := it.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: service document collection must be an object", ErrMalformedPayload)
		}
		col := model.ServiceDocumentCollection{}
		if v, ok := inner["name"]; ok {
			if col.Name, err = memberString(v); err != nil {
				return nil, err
			}
		}
		if v, ok := inner["url"]; ok {
			if col.URL, err = memberString(v); err != nil {
				return nil, err
			}
		}
		doc.Collections = append(doc.Collections, col)
	}
	return doc, nil
}
