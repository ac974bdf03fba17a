package odata

import (
	"github.com/rbaliyan/odata/edm"
	"github.com/rbaliyan/odata/model"
)

// Shape-specific readers. A reader performs the single top-level read of
// its context; Read consumes the context's stream to completion for the
// payload shape it was created for.

// FeedReader reads a feed payload.
type FeedReader interface {
	Read() (*model.Feed, error)
}

// EntryReader reads a single entry payload.
type EntryReader interface {
	Read() (*model.Entry, error)
}

// PropertyReader reads a top-level property payload.
type PropertyReader interface {
	Read() (*model.Property, error)
}

// CollectionReader reads a top-level collection payload.
type CollectionReader interface {
	Read() (*model.Collection, error)
}

// ErrorReader reads a top-level error payload.
type ErrorReader interface {
	Read() (*model.Error, error)
}

// ReferenceLinkReader reads a single entity reference link.
type ReferenceLinkReader interface {
	Read() (*model.EntityReferenceLink, error)
}

// ReferenceLinksReader reads a collection of entity reference links.
type ReferenceLinksReader interface {
	Read() (*model.EntityReferenceLinks, error)
}

// RawValueReader reads a raw primitive value. The concrete Go type follows
// the expected primitive type the reader was created with.
type RawValueReader interface {
	Read() (any, error)
}

// ServiceDocumentReader reads the service document.
type ServiceDocumentReader interface {
	Read() (*model.ServiceDocument, error)
}

// MetadataReader reads the schema document.
type MetadataReader interface {
	Read() (*edm.Model, error)
}

// BatchReader iterates the parts of a batch envelope. Next returns io.EOF
// after the last part.
type BatchReader interface {
	Next() (*BatchPart, error)
}

// Shape-specific writers, mirroring the readers.

// FeedWriter writes a feed payload.
type FeedWriter interface {
	Write(*model.Feed) error
}

// EntryWriter writes a single entry payload.
type EntryWriter interface {
	Write(*model.Entry) error
}

// PropertyWriter writes a top-level property payload.
type PropertyWriter interface {
	Write(*model.Property) error
}

// CollectionWriter writes a top-level collection payload.
type CollectionWriter interface {
	Write(*model.Collection) error
}

// ErrorWriter writes a top-level error payload.
type ErrorWriter interface {
	Write(*model.Error) error
}

// ReferenceLinkWriter writes a single entity reference link.
type ReferenceLinkWriter interface {
	Write(*model.EntityReferenceLink) error
}

// ReferenceLinksWriter writes a collection of entity reference links.
type ReferenceLinksWriter interface {
	Write(*model.EntityReferenceLinks) error
}

// RawValueWriter writes a raw primitive value.
type RawValueWriter interface {
	Write(v any) error
}

// ServiceDocumentWriter writes the service document.
type ServiceDocumentWriter interface {
	Write(*model.ServiceDocument) error
}

// BatchWriter writes the parts of a batch envelope. Close flushes the
// terminating boundary; it does not close the context's stream.
type BatchWriter interface {
	// Boundary returns the envelope's boundary token.
	Boundary() string
	// WritePart appends one part outside or inside the open changeset.
	WritePart(*BatchPart) error
	// StartChangeset opens an atomic group of parts.
	StartChangeset() error
	// EndChangeset closes the open changeset.
	EndChangeset() error
	Close() error
}

// BatchPart is one operation inside a batch envelope: a request in a batch
// request, a response in a batch response.
type BatchPart struct {
	// Method and URL describe request parts.
	Method string
	URL    string
	// Status describes response parts.
	Status int
	Header map[string]string
	Body   []byte
}
