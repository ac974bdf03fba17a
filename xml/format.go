// Package xml implements the Atom flavored XML wire encoding of the
// payload model, plus the plain text raw value representation and the
// schema document reader.
//
// Importing the package registers the format:
//
//	import _ "github.com/rbaliyan/odata/xml"
package xml

import (
	"errors"

	"github.com/rbaliyan/odata"
	"github.com/rbaliyan/odata/edm"
)

// Codec errors.
var (
	ErrMalformedPayload = errors.New("xml: malformed payload")
)

// Namespaces of the encoding.
const (
	nsAtom    = "http://www.w3.org/2005/Atom"
	nsApp     = "http://www.w3.org/2007/app"
	nsData    = "http://schemas.microsoft.com/ado/2007/08/dataservices"
	nsMeta    = "http://schemas.microsoft.com/ado/2007/08/dataservices/metadata"
	nsEdmx    = "http://schemas.microsoft.com/ado/2007/06/edmx"
	nsRelated = "http://schemas.microsoft.com/ado/2007/08/dataservices/related/"
	nsRelLink = "http://schemas.microsoft.com/ado/2007/08/dataservices/relatedlinks/"
	nsScheme  = "http://schemas.microsoft.com/ado/2007/08/dataservices/scheme"
)

// Format is the XML wire encoding. The zero value is ready to use.
type Format struct{}

// Name returns "xml".
func (Format) Name() string { return "xml" }

// MediaTypes returns the content types the format serves.
func (Format) MediaTypes() []odata.MediaType {
	return []odata.MediaType{
		odata.NewMediaType("application", "xml"),
		odata.NewMediaType("application", "atom+xml"),
		odata.NewMediaType("text", "plain"),
	}
}

// Supports reports the payload kinds the XML encoding can represent. Raw
// values and the schema document are XML-family exclusives; batch envelopes
// are not representable.
func (Format) Supports(kind odata.Kind) bool {
	switch kind {
	case odata.KindFeed, odata.KindEntry, odata.KindProperty, odata.KindCollection,
		odata.KindError, odata.KindEntityReferenceLink, odata.KindEntityReferenceLinks,
		odata.KindValue, odata.KindServiceDocument, odata.KindMetadataDocument:
		return true
	default:
		return false
	}
}

// NewFeedReader implements odata.InputFormat.
func (f Format) NewFeedReader(c *odata.InputContext, expected *edm.EntityType) (odata.FeedReader, error) {
	return &feedReader{c: c, expected: expected}, nil
}

// NewEntryReader implements odata.InputFormat.
func (f Format) NewEntryReader(c *odata.InputContext, expected *edm.EntityType) (odata.EntryReader, error) {
	return &entryReader{c: c, expected: expected}, nil
}

// NewPropertyReader implements odata.InputFormat.
func (f Format) NewPropertyReader(c *odata.InputContext, expected *edm.Property) (odata.PropertyReader, error) {
	return &propertyReader{c: c, expected: expected}, nil
}

// NewCollectionReader implements odata.InputFormat.
func (f Format) NewCollectionReader(c *odata.InputContext, expectedItemType string) (odata.CollectionReader, error) {
	return &collectionReader{c: c, expectedItemType: expectedItemType}, nil
}

// NewErrorReader implements odata.InputFormat.
func (f Format) NewErrorReader(c *odata.InputContext) (odata.ErrorReader, error) {
	return &errorReader{c: c}, nil
}

// NewReferenceLinkReader implements odata.InputFormat.
func (f Format) NewReferenceLinkReader(c *odata.InputContext) (odata.ReferenceLinkReader, error) {
	return &referenceLinkReader{c: c}, nil
}

// NewReferenceLinksReader implements odata.InputFormat.
func (f Format) NewReferenceLinksReader(c *odata.InputContext) (odata.ReferenceLinksReader, error) {
	return &referenceLinksReader{c: c}, nil
}

// NewFeedWriter implements odata.OutputFormat.
func (f Format) NewFeedWriter(c *odata.OutputContext, expected *edm.EntityType) (odata.FeedWriter, error) {
	return &feedWriter{c: c, expected: expected}, nil
}

// NewEntryWriter implements odata.OutputFormat.
func (f Format) NewEntryWriter(c *odata.OutputContext, expected *edm.EntityType) (odata.EntryWriter, error) {
	return &entryWriter{c: c, expected: expected}, nil
}

// NewPropertyWriter implements odata.OutputFormat.
func (f Format) NewPropertyWriter(c *odata.OutputContext, expected *edm.Property) (odata.PropertyWriter, error) {
	return &propertyWriter{c: c, expected: expected}, nil
}

// NewCollectionWriter implements odata.OutputFormat.
func (f Format) NewCollectionWriter(c *odata.OutputContext, expectedItemType string) (odata.CollectionWriter, error) {
	return &collectionWriter{c: c, expectedItemType: expectedItemType}, nil
}

// NewErrorWriter implements odata.OutputFormat.
func (f Format) NewErrorWriter(c *odata.OutputContext) (odata.ErrorWriter, error) {
	return &errorWriter{c: c}, nil
}

// NewReferenceLinkWriter implements odata.OutputFormat.
func (f Format) NewReferenceLinkWriter(c *odata.OutputContext) (odata.ReferenceLinkWriter, error) {
	return &referenceLinkWriter{c: c}, nil
}

// NewReferenceLinksWriter implements odata.OutputFormat.
func (f Format) NewReferenceLinksWriter(c *odata.OutputContext) (odata.ReferenceLinksWriter, error) {
	return &referenceLinksWriter{c: c}, nil
}

// NewRawValueReader implements odata.RawValueFormat.
func (f Format) NewRawValueReader(c *odata.InputContext, expected edm.Primitive) (odata.RawValueReader, error) {
	return &rawValueReader{c: c, expected: expected}, nil
}

// NewRawValueWriter implements odata.RawValueFormat.
func (f Format) NewRawValueWriter(c *odata.OutputContext, expected edm.Primitive) (odata.RawValueWriter, error) {
	return &rawValueWriter{c: c, expected: expected}, nil
}

// NewServiceDocumentReader implements odata.ServiceDocumentFormat.
func (f Format) NewServiceDocumentReader(c *odata.InputContext) (odata.ServiceDocumentReader, error) {
	return &serviceDocumentReader{c: c}, nil
}

// NewServiceDocumentWriter implements odata.ServiceDocumentFormat.
func (f Format) NewServiceDocumentWriter(c *odata.OutputContext) (odata.ServiceDocumentWriter, error) {
	return &serviceDocumentWriter{c: c}, nil
}

// NewMetadataReader implements odata.MetadataFormat.
func (f Format) NewMetadataReader(c *odata.InputContext) (odata.MetadataReader, error) {
	return &metadataReader{c: c}, nil
}

// Compile-time interface checks.
var (
	_ odata.InputFormat           = Format{}
	_ odata.OutputFormat          = Format{}
	_ odata.RawValueFormat        = Format{}
	_ odata.ServiceDocumentFormat = Format{}
	_ odata.MetadataFormat        = Format{}
)

func init() {
	odata.RegisterFormat(Format{})
}
