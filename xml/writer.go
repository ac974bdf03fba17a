package xml

import (
	"encoding/xml"

	"github.com/rbaliyan/odata"
	"github.com/rbaliyan/odata/edm"
	"github.com/rbaliyan/odata/model"
)

// docWriter emits prefixed XML tokens. Prefixes are bound by the xmlns
// attributes the root element carries; encoding/xml passes prefixed local
// names through untouched.
type docWriter struct {
	enc *xml.Encoder
}

func newDocWriter(c *odata.OutputContext) *docWriter {
	return &docWriter{enc: xml.NewEncoder(c.Writer())}
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

func (w *docWriter) start(name string, attrs ...xml.Attr) error {
	return w.enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: name}, Attr: attrs})
}

func (w *docWriter) end(name string) error {
	return w.enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: name}})
}

func (w *docWriter) text(s string) error {
	return w.enc.EncodeToken(xml.CharData(s))
}

func (w *docWriter) element(name, text string, attrs ...xml.Attr) error {
	if err := w.start(name, attrs...); err != nil {
		return err
	}
	if text != "" {
		if err := w.text(text); err != nil {
			return err
		}
	}
	return w.end(name)
}

func (w *docWriter) flush() error { return w.enc.Flush() }

// rootAttrs declares the namespaces a standalone document needs.
func rootAttrs(c *odata.OutputContext, extra ...xml.Attr) []xml.Attr {
	attrs := []xml.Attr{
		attr("xmlns", nsAtom),
		attr("xmlns:d", nsData),
		attr("xmlns:m", nsMeta),
	}
	if root := c.ServiceRoot(); root != nil {
		attrs = append(attrs, attr("xml:base", root.String()))
	}
	return append(attrs, extra...)
}

type entryWriter struct {
	c        *odata.OutputContext
	expected *edm.EntityType
}

func (ew *entryWriter) Write(e *model.Entry) error {
	w := newDocWriter(ew.c)
	if err := writeEntry(w, ew.c, e, ew.expected, nil, true); err != nil {
		return err
	}
	return w.flush()
}

type feedWriter struct {
	c        *odata.OutputContext
	expected *edm.EntityType
}

func (fw *feedWriter) Write(feed *model.Feed) error {
	c := fw.c
	w := newDocWriter(c)
	if err := w.start("feed", rootAttrs(c)...); err != nil {
		return err
	}
	if feed.Count != nil {
		if err := w.element("m:count", formatInt64(*feed.Count)); err != nil {
			return err
		}
	}
	if feed.ID != "" {
		if err := w.element("id", feed.ID); err != nil {
			return err
		}
	}
	for _, e := range feed.Entries {
		if err := writeEntry(w, c, e, fw.expected, feed.SerializationInfo, false); err != nil {
			return err
		}
	}
	if feed.NextPageLink != nil {
		if err := w.element("link", "", attr("rel", "next"), attr("href", feed.NextPageLink.String())); err != nil {
			return err
		}
	}
	if err := w.end("feed"); err != nil {
		return err
	}
	return w.flush()
}

func formatInt64(n int64) string {
	s, _ := formatPrimitiveText(n)
	return s
}

// writeEntry emits one atom:entry. Like the JSON encoding, the metadata
// level decides whether convention-computed identities and links reach the
// wire or only producer-set ones do.
func writeEntry(w *docWriter, c *odata.OutputContext, e *model.Entry, expected *edm.EntityType, fallbackInfo *model.SerializationInfo, topLevel bool) error {
	level := c.Level()
	oracle := c.TypeNameOracle()
	info := e.SerializationInfo
	if info == nil {
		info = fallbackInfo
	}
	actual := resolveEntityType(c.Model(), e.TypeName, expected)
	c.NewEntryMetadataBuilder(e, info, actual, model.SelectAll())

	var attrs []xml.Attr
	if topLevel {
		attrs = rootAttrs(c)
	}
	if e.ETag != "" {
		attrs = append(attrs, attr("m:etag", e.ETag))
	}
	if err := w.start("entry", attrs...); err != nil {
		return err
	}

	computed := level.WritesComputedMetadata()
	if id, ok := entryID(e, computed); ok {
		if err := w.element("id", id); err != nil {
			return err
		}
	}

	expectedName := ""
	if expected != nil {
		expectedName = expected.QualifiedName()
	}
	if tn := oracle.EntryTypeNameForWriting(expectedName, e.TypeName); tn != "" {
		if err := w.element("category", "", attr("term", tn), attr("scheme", nsScheme)); err != nil {
			return err
		}
	}

	if err := writeEntryLinks(w, e, computed); err != nil {
		return err
	}

	mr, isMedia := entryMediaResource(e, computed)
	if isMedia {
		contentAttrs := []xml.Attr{}
		if mr.ContentType != "" {
			contentAttrs = append(contentAttrs, attr("type", mr.ContentType))
		}
		if mr.ReadLink != nil {
			contentAttrs = append(contentAttrs, attr("src", mr.ReadLink.String()))
		}
		if err := w.element("content", "", contentAttrs...); err != nil {
			return err
		}
		if err := writeProperties(w, "m:properties", e.Properties, actual, oracle); err != nil {
			return err
		}
	} else {
		if err := w.start("content", attr("type", "application/xml")); err != nil {
			return err
		}
		if err := writeProperties(w, "m:properties", e.Properties, actual, oracle); err != nil {
			return err
		}
		if err := w.end("content"); err != nil {
			return err
		}
	}
	return w.end("entry")
}

func entryID(e *model.Entry, computed bool) (string, bool) {
	if computed {
		return e.ResolveID()
	}
	return e.ID, e.ID != ""
}

func entryMediaResource(e *model.Entry, computed bool) (*model.StreamReference, bool) {
	if computed {
		return e.ResolveMediaResource()
	}
	return e.MediaResource, e.MediaResource != nil
}

func writeEntryLinks(w *docWriter, e *model.Entry, computed bool) error {
	edit := e.EditLink
	if computed {
		edit, _ = e.ResolveEditLink()
	}
	if edit != nil {
		if err := w.element("link", "", attr("rel", "edit"), attr("href", edit.String())); err != nil {
			return err
		}
	}
	read := e.ReadLink
	if computed {
		read, _ = e.ResolveReadLink()
	}
	if read != nil && (edit == nil || read.String() != edit.String()) {
		if err := w.element("link", "", attr("rel", "self"), attr("href", read.String())); err != nil {
			return err
		}
	}
	for _, l := range e.NavigationLinks {
		u := l.URL
		if computed {
			u, _ = e.ResolveNavigationLink(l.Name)
		}
		if u == nil {
			continue
		}
		if err := w.element("link", "",
			attr("rel", nsRelated+l.Name), attr("title", l.Name), attr("href", u.String())); err != nil {
			return err
		}
	}
	for _, l := range e.AssociationLinks {
		u := l.URL
		if computed {
			u, _ = e.ResolveAssociationLink(l.Name)
		}
		if u == nil {
			continue
		}
		if err := w.element("link", "",
			attr("rel", nsRelLink+l.Name), attr("title", l.Name), attr("href", u.String())); err != nil {
			return err
		}
	}
	return nil
}

// writeProperties emits the property bag under the given container element.
func writeProperties(w *docWriter, container string, props []model.Property, owner *edm.EntityType, oracle odata.TypeNameOracle) error {
	if err := w.start(container); err != nil {
		return err
	}
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
		if err := writeValue(w, "d:"+p.Name, p.Value, declared, isOpen, oracle); err != nil {
			return err
		}
	}
	return w.end(container)
}

// writeValue emits one d: element for a value. Strings travel unannotated;
// every other annotated type carries m:type per the oracle.
func writeValue(w *docWriter, name string, v any, declared string, isOpen bool, oracle odata.TypeNameOracle) error {
	switch x := v.(type) {
	case nil:
		return w.element(name, "", attr("m:null", "true"))
	case *model.ComplexValue:
		var attrs []xml.Attr
		if tn := oracle.ValueTypeNameForWriting(declared, x.TypeName, isOpen); tn != "" {
			attrs = append(attrs, attr("m:type", tn))
		}
		if err := w.start(name, attrs...); err != nil {
			return err
		}
		for _, p := range x.Properties {
			if err := writeValue(w, "d:"+p.Name, p.Value, "", false, oracle); err != nil {
				return err
			}
		}
		return w.end(name)
	case *model.CollectionValue:
		var attrs []xml.Attr
		if tn := oracle.ValueTypeNameForWriting(declared, x.TypeName, isOpen); tn != "" {
			attrs = append(attrs, attr("m:type", tn))
		}
		if err := w.start(name, attrs...); err != nil {
			return err
		}
		itemDeclared := collectionItemType(declared)
		for _, it := range x.Items {
			if err := writeValue(w, "d:element", it, itemDeclared, false, oracle); err != nil {
				return err
			}
		}
		return w.end(name)
	default:
		text, err := formatPrimitiveText(x)
		if err != nil {
			return err
		}
		var attrs []xml.Attr
		tn := oracle.ValueTypeNameForWriting(declared, primitiveTypeName(x), isOpen)
		if tn != "" && tn != string(edm.PrimitiveString) {
			attrs = append(attrs, attr("m:type", tn))
		}
		return w.element(name, text, attrs...)
	}
}

type propertyWriter struct {
	c        *odata.OutputContext
	expected *edm.Property
}

func (pw *propertyWriter) Write(p *model.Property) error {
	c := pw.c
	w := newDocWriter(c)
	declared := ""
	if pw.expected != nil {
		declared = pw.expected.Type
	}
	name := p.Name
	if name == "" && pw.expected != nil {
		name = pw.expected.Name
	}
	if err := writeStandaloneValue(w, name, p.Value, declared, c.TypeNameOracle()); err != nil {
		return err
	}
	return w.flush()
}

func writeStandaloneValue(w *docWriter, name string, v any, declared string, oracle odata.TypeNameOracle) error {
	attrs := []xml.Attr{attr("xmlns:d", nsData), attr("xmlns:m", nsMeta)}
	switch x := v.(type) {
	case nil:
		return w.element("d:"+name, "", append(attrs, attr("m:null", "true"))...)
	case *model.ComplexValue:
		if tn := oracle.ValueTypeNameForWriting(declared, x.TypeName, false); tn != "" {
			attrs = append(attrs, attr("m:type", tn))
		}
		if err := w.start("d:"+name, attrs...); err != nil {
			return err
		}
		for _, p := range x.Properties {
			if err := writeValue(w, "d:"+p.Name, p.Value, "", false, oracle); err != nil {
				return err
			}
		}
		return w.end("d:" + name)
	case *model.CollectionValue:
		if tn := oracle.ValueTypeNameForWriting(declared, x.TypeName, false); tn != "" {
			attrs = append(attrs, attr("m:type", tn))
		}
		if err := w.start("d:"+name, attrs...); err != nil {
			return err
		}
		itemDeclared := collectionItemType(declared)
		for _, it := range x.Items {
			if err := writeValue(w, "d:element", it, itemDeclared, false, oracle); err != nil {
				return err
			}
		}
		return w.end("d:" + name)
	default:
		text, err := formatPrimitiveText(x)
		if err != nil {
			return err
		}
		tn := oracle.ValueTypeNameForWriting(declared, primitiveTypeName(x), false)
		if tn != "" && tn != string(edm.PrimitiveString) {
			attrs = append(attrs, attr("m:type", tn))
		}
		return w.element("d:"+name, text, attrs...)
	}
}

type collectionWriter struct {
	c                *odata.OutputContext
	expectedItemType string
}

func (cw *collectionWriter) Write(col *model.Collection) error {
	c := cw.c
	w := newDocWriter(c)
	itemType := col.TypeName
	if itemType == "" {
		itemType = cw.expectedItemType
	}
	attrs := []xml.Attr{attr("xmlns:d", nsData), attr("xmlns:m", nsMeta)}
	if itemType != "" {
		attrs = append(attrs, attr("m:type", "Collection("+itemType+")"))
	}
	if err := w.start("d:collection", attrs...); err != nil {
		return err
	}
	oracle := c.TypeNameOracle()
	for _, it := range col.Items {
		if err := writeValue(w, "d:element", it, itemType, false, oracle); err != nil {
			return err
		}
	}
	if err := w.end("d:collection"); err != nil {
		return err
	}
	return w.flush()
}

type errorWriter struct {
	c *odata.OutputContext
}

func (ew *errorWriter) Write(oerr *model.Error) error {
	w := newDocWriter(ew.c)
	if err := w.start("m:error", attr("xmlns:m", nsMeta)); err != nil {
		return err
	}
	if err := w.element("m:code", oerr.Code); err != nil {
		return err
	}
	var msgAttrs []xml.Attr
	if oerr.Lang != "" {
		msgAttrs = append(msgAttrs, attr("xml:lang", oerr.Lang))
	}
	if err := w.element("m:message", oerr.Message, msgAttrs...); err != nil {
		return err
	}
	if oerr.Inner != nil {
		if err := writeInnerError(w, "m:innererror", oerr.Inner); err != nil {
			return err
		}
	}
	if err := w.end("m:error"); err != nil {
		return err
	}
	return w.flush()
}

func writeInnerError(w *docWriter, name string, ie *model.InnerError) error {
	if err := w.start(name); err != nil {
		return err
	}
	if err := w.element("m:message", ie.Message); err != nil {
		return err
	}
	if err := w.element("m:type", ie.TypeName); err != nil {
		return err
	}
	if err := w.element("m:stacktrace", ie.StackTrace); err != nil {
		return err
	}
	if ie.Inner != nil {
		if err := writeInnerError(w, "m:internalexception", ie.Inner); err != nil {
			return err
		}
	}
	return w.end(name)
}

type referenceLinkWriter struct {
	c *odata.OutputContext
}

func (rw *referenceLinkWriter) Write(l *model.EntityReferenceLink) error {
	w := newDocWriter(rw.c)
	href := ""
	if l.URL != nil {
		href = l.URL.String()
	}
	if err := w.element("uri", href, attr("xmlns", nsData)); err != nil {
		return err
	}
	return w.flush()
}

type referenceLinksWriter struct {
	c *odata.OutputContext
}

func (rw *referenceLinksWriter) Write(ls *model.EntityReferenceLinks) error {
	w := newDocWriter(rw.c)
	if err := w.start("links", attr("xmlns", nsData), attr("xmlns:m", nsMeta)); err != nil {
		return err
	}
	if ls.Count != nil {
		if err := w.element("m:count", formatInt64(*ls.Count)); err != nil {
			return err
		}
	}
	for _, l := range ls.Links {
		href := ""
		if l.URL != nil {
			href = l.URL.String()
		}
		if err := w.element("uri", href); err != nil {
			return err
		}
	}
	if ls.NextPageLink != nil {
		if err := w.element("next", ls.NextPageLink.String()); err != nil {
			return err
		}
	}
	if err := w.end("links"); err != nil {
		return err
	}
	return w.flush()
}

type serviceDocumentWriter struct {
	c *odata.OutputContext
}

func (sw *serviceDocumentWriter) Write(doc *model.ServiceDocument) error {
	c := sw.c
	w := newDocWriter(c)
	attrs := []xml.Attr{attr("xmlns", nsApp), attr("xmlns:atom", nsAtom)}
	if root := c.ServiceRoot(); root != nil {
		attrs = append(attrs, attr("xml:base", root.String()))
	}
	if err := w.start("service", attrs...); err != nil {
		return err
	}
	if err := w.start("workspace"); err != nil {
		return err
	}
	if err := w.element("atom:title", "Default"); err != nil {
		return err
	}
	for _, col := range doc.Collections {
		if err := w.start("collection", attr("href", col.URL)); err != nil {
			return err
		}
		title := col.Title
		if title == "" {
			title = col.Name
		}
		if err := w.element("atom:title", title); err != nil {
			return err
		}
		if err := w.end("collection"); err != nil {
			return err
		}
	}
	if err := w.end("workspace"); err != nil {
		return err
	}
	if err := w.end("service"); err != nil {
		return err
	}
	return w.flush()
}
