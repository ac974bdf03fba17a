// Package msgpack implements a compact binary wire encoding of the payload
// model on MessagePack. It is a non-standard interchange encoding for
// service-to-service traffic where payload size matters more than
// interoperability.
//
// Importing the package registers the format:
//
//	import _ "github.com/rbaliyan/odata/msgpack"
package msgpack

import (
	"errors"

	"github.com/rbaliyan/odata"
	"github.com/rbaliyan/odata/edm"
)

// Codec errors.
var (
	ErrMalformedPayload = errors.New("msgpack: malformed payload")
)

// Format is the MessagePack wire encoding. The zero value is ready to use.
type Format struct{}

// Name returns "msgpack".
func (Format) Name() string { return "msgpack" }

// MediaTypes returns the content types the format serves.
func (Format) MediaTypes() []odata.MediaType {
	return []odata.MediaType{odata.NewMediaType("application", "msgpack")}
}

// Supports reports the payload kinds the encoding can represent: the core
// data shapes. Documents aimed at generic clients (service document, schema)
// stay on the standard encodings.
func (Format) Supports(kind odata.Kind) bool {
	switch kind {
	case odata.KindFeed, odata.KindEntry, odata.KindProperty, odata.KindCollection,
		odata.KindError, odata.KindEntityReferenceLink, odata.KindEntityReferenceLinks:
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

// Compile-time interface checks.
var (
	_ odata.InputFormat  = Format{}
	_ odata.OutputFormat = Format{}
)

func init() {
	odata.RegisterFormat(Format{})
}
