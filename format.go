package odata

import (
	"strings"
	"sync"

	"github.com/rbaliyan/odata/edm"
)

// Format is one wire encoding. Implementations declare the payload kinds
// they can represent through Supports and the extension interfaces below;
// a kind requested against a format that cannot represent it fails with
// an UnsupportedError.
//
// Formats borrow the session's stream through the context for the duration
// of one read or write and must not retain it afterwards.
type Format interface {
	// Name returns a short identifier ("json", "xml", "msgpack", "batch").
	Name() string
	// MediaTypes returns the content types the format serves.
	MediaTypes() []MediaType
	// Supports reports whether the format can represent the payload kind.
	Supports(kind Kind) bool
}

// InputFormat is implemented by formats that decode the core payload
// shapes.
type InputFormat interface {
	Format
	NewFeedReader(c *InputContext, expected *edm.EntityType) (FeedReader, error)
	NewEntryReader(c *InputContext, expected *edm.EntityType) (EntryReader, error)
	NewPropertyReader(c *InputContext, expected *edm.Property) (PropertyReader, error)
	NewCollectionReader(c *InputContext, expectedItemType string) (CollectionReader, error)
	NewErrorReader(c *InputContext) (ErrorReader, error)
	NewReferenceLinkReader(c *InputContext) (ReferenceLinkReader, error)
	NewReferenceLinksReader(c *InputContext) (ReferenceLinksReader, error)
}

// OutputFormat is implemented by formats that encode the core payload
// shapes.
type OutputFormat interface {
	Format
	NewFeedWriter(c *OutputContext, expected *edm.EntityType) (FeedWriter, error)
	NewEntryWriter(c *OutputContext, expected *edm.EntityType) (EntryWriter, error)
	NewPropertyWriter(c *OutputContext, expected *edm.Property) (PropertyWriter, error)
	NewCollectionWriter(c *OutputContext, expectedItemType string) (CollectionWriter, error)
	NewErrorWriter(c *OutputContext) (ErrorWriter, error)
	NewReferenceLinkWriter(c *OutputContext) (ReferenceLinkWriter, error)
	NewReferenceLinksWriter(c *OutputContext) (ReferenceLinksWriter, error)
}

// RawValueFormat is implemented by formats with a top-level primitive value
// representation.
type RawValueFormat interface {
	NewRawValueReader(c *InputContext, expected edm.Primitive) (RawValueReader, error)
	NewRawValueWriter(c *OutputContext, expected edm.Primitive) (RawValueWriter, error)
}

// ServiceDocumentFormat is implemented by formats that can represent the
// service document.
type ServiceDocumentFormat interface {
	NewServiceDocumentReader(c *InputContext) (ServiceDocumentReader, error)
	NewServiceDocumentWriter(c *OutputContext) (ServiceDocumentWriter, error)
}

// MetadataFormat is implemented by formats that can read the schema
// document.
type MetadataFormat interface {
	NewMetadataReader(c *InputContext) (MetadataReader, error)
}

// BatchFormat is implemented by formats with a batch envelope
// representation.
type BatchFormat interface {
	NewBatchReader(c *InputContext, boundary string) (BatchReader, error)
	NewBatchWriter(c *OutputContext, boundary string) (BatchWriter, error)
}

var (
	formatMu sync.RWMutex
	formats  = make(map[string]Format)
)

// RegisterFormat adds a format to the global registry under each of its
// media types. Format packages call this from init; importing a format
// package is enough to make it negotiable.
func RegisterFormat(f Format) {
	formatMu.Lock()
	defer formatMu.Unlock()
	for _, mt := range f.MediaTypes() {
		formats[strings.ToLower(mt.FullType())] = f
	}
}

// FormatFor retrieves the registered format serving the media type.
// Parameters do not participate in the lookup.
func FormatFor(mt MediaType) (Format, bool) {
	return FormatForContentType(mt.FullType())
}

// FormatForContentType retrieves a format by bare "type/subtype".
func FormatForContentType(contentType string) (Format, bool) {
	formatMu.RLock()
	defer formatMu.RUnlock()
	f, ok := formats[strings.ToLower(contentType)]
	return f, ok
}
