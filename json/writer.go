package json

import (
	"encoding/json"
	"strings"

	"github.com/rbaliyan/odata"
	"github.com/rbaliyan/odata/edm"
	"github.com/rbaliyan/odata/model"
)

func writeTopLevel(c *odata.OutputContext, members []member) error {
	raw, err := marshalMembers(members)
	if err != nil {
		return err
	}
	_, err = c.Writer().Write(raw)
	return err
}

// resolveEntityType resolves the actual entity type of an entry: its own
// type name when the model knows it, else the statically expected type.
func resolveEntityType(m *edm.Model, typeName string, expected *edm.EntityType) *edm.EntityType {
	if m != nil && typeName != "" {
		if t, ok := m.EntityType(typeName); ok {
			return t
		}
	}
	return expected
}

// entitySetName names the navigation source: explicit serialization info
// wins over the model lookup.
func entitySetName(m *edm.Model, info *model.SerializationInfo, actual *edm.EntityType) string {
	if info != nil && info.EntitySet != "" {
		return info.EntitySet
	}
	if m != nil && actual != nil {
		if set, ok := m.EntitySetForType(actual); ok {
			return set.Name()
		}
	}
	return ""
}

// contextURI builds "<metadata document>#<fragment>", or "" when the
// session has no metadata document location.
func contextURI(c *odata.OutputContext, fragment string) string {
	if u := c.MetadataDocumentURI(); u != nil {
		return u.String() + "#" + fragment
	}
	return ""
}

type entryWriter struct {
	c        *odata.OutputContext
	expected *edm.EntityType
}

func (w *entryWriter) Write(e *model.Entry) error {
	members, err := encodeEntry(w.c, e, w.expected, nil, true)
	if err != nil {
		return err
	}
	return writeTopLevel(w.c, members)
}

type feedWriter struct {
	c        *odata.OutputContext
	expected *edm.EntityType
}

func (w *feedWriter) Write(feed *model.Feed) error {
	c := w.c
	var members []member
	if c.Level().WritesContextURI() {
		set := entitySetName(c.Model(), feed.SerializationInfo, w.expected)
		if uri := contextURI(c, set); uri != "" && set != "" {
			members = append(members, member{annotationMetadata, rawString(uri)})
		}
	}
	if feed.Count != nil {
		raw, err := json.Marshal(*feed.Count)
		if err != nil {
			return err
		}
		members = append(members, member{annotationCount, raw})
	}
	items := make([]json.RawMessage, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		entryMembers, err := encodeEntry(c, e, w.expected, feed.SerializationInfo, false)
		if err != nil {
			return err
		}
		raw, err := marshalMembers(entryMembers)
		if err != nil {
			return err
		}
		items = append(items, raw)
	}
	members = append(members, member{"value", marshalArray(items)})
	if feed.NextPageLink != nil {
		members = append(members, member{annotationNextLink, rawString(feed.NextPageLink.String())})
	}
	return writeTopLevel(c, members)
}

// encodeEntry renders one entry. The metadata level decides which odata.*
// annotations appear: below the full level only producer-set values are
// written, at the full level the injected builder supplies the
// convention-computed remainder.
func encodeEntry(c *odata.OutputContext, e *model.Entry, expected *edm.EntityType, fallbackInfo *model.SerializationInfo, topLevel bool) ([]member, error) {
	level := c.Level()
	oracle := c.TypeNameOracle()
	info := e.SerializationInfo
	if info == nil {
		info = fallbackInfo
	}
	actual := resolveEntityType(c.Model(), e.TypeName, expected)
	c.NewEntryMetadataBuilder(e, info, actual, model.SelectAll())

	var members []member
	if topLevel && level.WritesContextURI() {
		if set := entitySetName(c.Model(), info, actual); set != "" {
			if uri := contextURI(c, set+"/@Element"); uri != "" {
				members = append(members, member{annotationMetadata, rawString(uri)})
			}
		}
	}

	expectedName := ""
	if expected != nil {
		expectedName = expected.QualifiedName()
	}
	if tn := oracle.EntryTypeNameForWriting(expectedName, e.TypeName); tn != "" {
		members = append(members, member{annotationType, rawString(tn)})
	}

	if level.WritesComputedMetadata() {
		members = append(members, computedMetadataMembers(e, actual)...)
	} else {
		members = append(members, explicitMetadataMembers(e)...)
	}

	props, err := encodeProperties(c, e.Properties, actual, oracle)
	if err != nil {
		return nil, err
	}
	return append(members, props...), nil
}

// computedMetadataMembers writes builder-resolved entry metadata for
// full-metadata payloads. Navigation candidates come from the explicit
// links plus the declared navigation properties; the builder decides which
// of them actually resolve.
func computedMetadataMembers(e *model.Entry, actual *edm.EntityType) []member {
	var members []member
	if id, ok := e.ResolveID(); ok {
		members = append(members, member{annotationID, rawString(id)})
	}
	if e.ETag != "" {
		members = append(members, member{annotationETag, rawString(e.ETag)})
	}
	edit, hasEdit := e.ResolveEditLink()
	if hasEdit {
		members = append(members, member{annotationEditLink, rawString(edit.String())})
	}
	if read, ok := e.ResolveReadLink(); ok && (!hasEdit || read.String() != edit.String()) {
		members = append(members, member{annotationReadLink, rawString(read.String())})
	}
	if mr, ok := e.ResolveMediaResource(); ok {
		members = append(members, streamMembers(mr)...)
	}
	seen := make(map[string]bool)
	navNames := make([]string, 0, len(e.NavigationLinks))
	for _, l := range e.NavigationLinks {
		if !seen[l.Name] {
			seen[l.Name] = true
			navNames = append(navNames, l.Name)
		}
	}
	for _, l := range e.AssociationLinks {
		if !seen[l.Name] {
			seen[l.Name] = true
			navNames = append(navNames, l.Name)
		}
	}
	if actual != nil {
		for _, nav := range actual.NavigationProperties() {
			if !seen[nav.Name] {
				seen[nav.Name] = true
				navNames = append(navNames, nav.Name)
			}
		}
	}
	for _, name := range navNames {
		if u, ok := e.ResolveNavigationLink(name); ok {
			members = append(members, member{name + suffixNavigationLink, rawString(u.String())})
		}
		if u, ok := e.ResolveAssociationLink(name); ok {
			members = append(members, member{name + suffixAssociationLink, rawString(u.String())})
		}
	}
	for _, op := range e.ResolveOperations() {
		members = append(members, operationMember(op))
	}
	return members
}

// explicitMetadataMembers writes only producer-set entry metadata.
func explicitMetadataMembers(e *model.Entry) []member {
	var members []member
	if e.ID != "" {
		members = append(members, member{annotationID, rawString(e.ID)})
	}
	if e.ETag != "" {
		members = append(members, member{annotationETag, rawString(e.ETag)})
	}
	if e.EditLink != nil {
		members = append(members, member{annotationEditLink, rawString(e.EditLink.String())})
	}
	if e.ReadLink != nil {
		members = append(members, member{annotationReadLink, rawString(e.ReadLink.String())})
	}
	if e.MediaResource != nil {
		members = append(members, streamMembers(e.MediaResource)...)
	}
	for _, l := range e.NavigationLinks {
		if l.URL != nil {
			members = append(members, member{l.Name + suffixNavigationLink, rawString(l.URL.String())})
		}
	}
	for _, l := range e.AssociationLinks {
		if l.URL != nil {
			members = append(members, member{l.Name + suffixAssociationLink, rawString(l.URL.String())})
		}
	}
	for _, op := range e.Operations {
		members = append(members, operationMember(op))
	}
	return members
}

func streamMembers(mr *model.StreamReference) []member {
	var members []member
	if mr.ReadLink != nil {
		members = append(members, member{annotationMediaReadLink, rawString(mr.ReadLink.String())})
	}
	if mr.EditLink != nil {
		members = append(members, member{annotationMediaEditLink, rawString(mr.EditLink.String())})
	}
	if mr.ContentType != "" {
		members = append(members, member{annotationMediaContentType, rawString(mr.ContentType)})
	}
	if mr.ETag != "" {
		members = append(members, member{annotationMediaETag, rawString(mr.ETag)})
	}
	return members
}

func operationMember(op model.Operation) member {
	inner := make([]member, 0, 2)
	if op.Title != "" {
		inner = append(inner, member{"title", rawString(op.Title)})
	}
	if op.Target != nil {
		inner = append(inner, member{"target", rawString(op.Target.String())})
	}
	raw, _ := marshalMembers(inner)
	name := op.Metadata
	if i := strings.Index(name, "#"); i >= 0 {
		name = name[i:]
	} else {
		name = "#" + name
	}
	return member{name, raw}
}

// encodeProperties renders the property bag, consulting the oracle for
// each value's type annotation.
func encodeProperties(c *odata.OutputContext, props []model.Property, owner *edm.EntityType, oracle odata.TypeNameOracle) ([]member, error) {
	var members []member
	for _, p := range props {
		declared := ""
		isOpen := false
		if owner != nil {
			if dp, ok := owner.Property(p.Name); ok {
				declared = dp.Type
			} else {
				isOpen = owner.IsOpen()
			}
		}
		ann, raw, err := encodeValue(c, p.Value, declared, isOpen, oracle)
		if err != nil {
			return nil, err
		}
		if ann != "" {
			members = append(members, member{p.Name + suffixType, rawString(ann)})
		}
		members = append(members, member{p.Name, raw})
	}
	return members, nil
}

// encodeValue renders one value. The returned annotation, when non-empty,
// must be written as a "<name>@odata.type" member ahead of the value;
// complex values carry their annotation inside instead.
func encodeValue(c *odata.OutputContext, v any, declared string, isOpen bool, oracle odata.TypeNameOracle) (string, json.RawMessage, error) {
	switch x := v.(type) {
	case nil:
		return "", json.RawMessage("null"), nil
	case *model.ComplexValue:
		inner := make([]member, 0, len(x.Properties)+1)
		if tn := oracle.ValueTypeNameForWriting(declared, x.TypeName, isOpen); tn != "" {
			inner = append(inner, member{annotationType, rawString(tn)})
		}
		for _, p := range x.Properties {
			ann, raw, err := encodeValue(c, p.Value, "", false, oracle)
			if err != nil {
				return "", nil, err
			}
			if ann != "" {
				inner = append(inner, member{p.Name + suffixType, rawString(ann)})
			}
			inner = append(inner, member{p.Name, raw})
		}
		raw, err := marshalMembers(inner)
		return "", raw, err
	case *model.CollectionValue:
		items := make([]json.RawMessage, 0, len(x.Items))
		itemDeclared := collectionItemType(declared)
		for _, it := range x.Items {
			_, raw, err := encodeValue(c, it, itemDeclared, false, oracle)
			if err != nil {
				return "", nil, err
			}
			items = append(items, raw)
		}
		ann := oracle.ValueTypeNameForWriting(declared, x.TypeName, isOpen)
		return ann, marshalArray(items), nil
	default:
		actual := primitiveTypeName(x)
		ann := oracle.ValueTypeNameForWriting(declared, actual, isOpen)
		if jsonNative(ann) {
			// The representation already carries the type.
			ann = ""
		}
		raw, err := encodePrimitive(x)
		return ann, raw, err
	}
}

type propertyWriter struct {
	c        *odata.OutputContext
	expected *edm.Property
}

func (w *propertyWriter) Write(p *model.Property) error {
	c := w.c
	oracle := c.TypeNameOracle()
	declared := ""
	if w.expected != nil {
		declared = w.expected.Type
	}
	var members []member
	if c.Level().WritesContextURI() && declared != "" {
		if uri := contextURI(c, declared); uri != "" {
			members = append(members, member{annotationMetadata, rawString(uri)})
		}
	}
	ann, raw, err := encodeValue(c, p.Value, declared, false, oracle)
	if err != nil {
		return err
	}
	if ann != "" {
		members = append(members, member{"value" + suffixType, rawString(ann)})
	}
	members = append(members, member{"value", raw})
	return writeTopLevel(c, members)
}

type collectionWriter struct {
	c                *odata.OutputContext
	expectedItemType string
}

func (w *collectionWriter) Write(col *model.Collection) error {
	c := w.c
	oracle := c.TypeNameOracle()
	itemType := col.TypeName
	if itemType == "" {
		itemType = w.expectedItemType
	}
	var members []member
	if c.Level().WritesContextURI() && itemType != "" {
		if uri := contextURI(c, "Collection("+itemType+")"); uri != "" {
			members = append(members, member{annotationMetadata, rawString(uri)})
		}
	}
	items := make([]json.RawMessage, 0, len(col.Items))
	for _, it := range col.Items {
		_, raw, err := encodeValue(c, it, itemType, false, oracle)
		if err != nil {
			return err
		}
		items = append(items, raw)
	}
	members = append(members, member{"value", marshalArray(items)})
	return writeTopLevel(c, members)
}

type errorWriter struct {
	c *odata.OutputContext
}

func (w *errorWriter) Write(oerr *model.Error) error {
	msg := []member{}
	if oerr.Lang != "" {
		msg = append(msg, member{"lang", rawString(oerr.Lang)})
	}
	msg = append(msg, member{"value", rawString(oerr.Message)})
	msgRaw, err := marshalMembers(msg)
	if err != nil {
		return err
	}
	inner := []member{
		{"code", rawString(oerr.Code)},
		{"message", msgRaw},
	}
	if oerr.Inner != nil {
		raw, err := marshalInnerError(oerr.Inner)
		if err != nil {
			return err
		}
		inner = append(inner, member{"innererror", raw})
	}
	body, err := marshalMembers(inner)
	if err != nil {
		return err
	}
	return writeTopLevel(w.c, []member{{annotationError, body}})
}

func marshalInnerError(ie *model.InnerError) (json.RawMessage, error) {
	members := []member{
		{"message", rawString(ie.Message)},
		{"type", rawString(ie.TypeName)},
		{"stacktrace", rawString(ie.StackTrace)},
	}
	if ie.Inner != nil {
		raw, err := marshalInnerError(ie.Inner)
		if err != nil {
			return nil, err
		}
		members = append(members, member{"internalexception", raw})
	}
	return marshalMembers(members)
}

type referenceLinkWriter struct {
	c *odata.OutputContext
}

func (w *referenceLinkWriter) Write(l *model.EntityReferenceLink) error {
	members := []member{}
	if l.URL != nil {
		members = append(members, member{"url", rawString(l.URL.String())})
	}
	return writeTopLevel(w.c, members)
}

type referenceLinksWriter struct {
	c *odata.OutputContext
}

func (w *referenceLinksWriter) Write(ls *model.EntityReferenceLinks) error {
	var members []member
	if ls.Count != nil {
		raw, err := json.Marshal(*ls.Count)
		if err != nil {
			return err
		}
		members = append(members, member{annotationCount, raw})
	}
	items := make([]json.RawMessage, 0, len(ls.Links))
	for _, l := range ls.Links {
		var inner []member
		if l.URL != nil {
			inner = append(inner, member{"url", rawString(l.URL.String())})
		}
		raw, err := marshalMembers(inner)
		if err != nil {
			return err
		}
		items = append(items, raw)
	}
	members = append(members, member{"value", marshalArray(items)})
	if ls.NextPageLink != nil {
		members = append(members, member{annotationNextLink, rawString(ls.NextPageLink.String())})
	}
	return writeTopLevel(w.c, members)
}

type serviceDocumentWriter struct {
	c *odata.OutputContext
}

func (w *serviceDocumentWriter) Write(doc *model.ServiceDocument) error {
	items := make([]json.RawMessage, 0, len(doc.Collections))
	for _, col := range doc.Collections {
		inner := []member{
			{"name", rawString(col.Name)},
			{"url", rawString(col.URL)},
		}
		raw, err := marshalMembers(inner)
		if err != nil {
			return err
		}
		items = append(items, raw)
	}
	return writeTopLevel(w.c, []member{{"value", marshalArray(items)}})
}
