package odata

import (
	"context"
	"fmt"
	"io"

	"github.com/rbaliyan/odata/edm"
)

// SinkOpener acquires the transport sink for a deferred output context. It
// is called at most once, by the first writer factory invoked on the
// context; the context then owns the returned sink.
type SinkOpener func(ctx context.Context) (io.WriteCloser, error)

// OutputContext is one message write session, the mirror image of
// InputContext: it owns the sink exclusively, carries the negotiated
// metadata level, and manufactures the shape-specific writer for the
// payload the caller declares it wants to produce.
type OutputContext struct {
	session
	format   Format
	sink     io.WriteCloser
	opener   SinkOpener
	deferred bool
	consumed bool
	closed   bool
}

// NewOutputContext creates a synchronous write session over an already-open
// sink. The context takes ownership of the sink.
func NewOutputContext(f Format, sink io.WriteCloser, opts ...Option) (*OutputContext, error) {
	if f == nil {
		return nil, ErrNilFormat
	}
	if sink == nil {
		return nil, ErrNilStream
	}
	cfg := newContextConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &OutputContext{session: newSession(cfg), format: f, sink: sink}, nil
}

// NewDeferredOutputContext creates a write session that acquires its sink
// lazily through the Context-suffixed writer factories.
func NewDeferredOutputContext(f Format, open SinkOpener, opts ...Option) (*OutputContext, error) {
	if f == nil {
		return nil, ErrNilFormat
	}
	if open == nil {
		return nil, ErrNilStream
	}
	cfg := newContextConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &OutputContext{session: newSession(cfg), format: f, opener: open, deferred: true}, nil
}

// Format returns the format serving this session.
func (c *OutputContext) Format() Format { return c.format }

// Writer exposes the owned sink to the format for the duration of one
// write call. The format must not retain it.
func (c *OutputContext) Writer() io.Writer { return c.sink }

// Close releases the owned sink. It is idempotent.
func (c *OutputContext) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	sink := c.sink
	c.sink = nil
	c.opener = nil
	recordClose(c.format, "output")
	if sink == nil {
		return nil
	}
	if err := sink.Close(); err != nil {
		c.logger().Warn("closing output sink", "format", c.format.Name(), "error", err)
		return err
	}
	return nil
}

func (c *OutputContext) prepare(ctx context.Context, kind Kind, deferredCall bool) error {
	if c.closed {
		return fmt.Errorf("create %s writer: %w", kind, ErrDisposed)
	}
	if deferredCall != c.deferred {
		if c.deferred {
			panic("odata: synchronous writer factory called on deferred output context")
		}
		panic("odata: deferred writer factory called on synchronous output context")
	}
	if c.consumed {
		return fmt.Errorf("create %s writer: %w", kind, ErrAlreadyConsumed)
	}
	if !c.format.Supports(kind) {
		return unsupported(kind, c.format)
	}
	if c.sink == nil {
		sink, err := c.opener(ctx)
		if err != nil {
			return fmt.Errorf("open output sink: %w", err)
		}
		if sink == nil {
			return ErrNilStream
		}
		c.sink = sink
	}
	return nil
}

func newOutputWriter[W any](c *OutputContext, ctx context.Context, deferredCall bool, kind Kind, create func() (W, error)) (W, error) {
	var zero W
	if err := c.prepare(ctx, kind, deferredCall); err != nil {
		return zero, err
	}
	w, err := create()
	if err != nil {
		return zero, err
	}
	c.consumed = true
	recordWrite(c.format, kind)
	return w, nil
}

// FeedWriter creates the writer for a feed payload with the given expected
// base entity type.
func (c *OutputContext) FeedWriter(expected *edm.EntityType) (FeedWriter, error) {
	return newOutputWriter(c, context.Background(), false, KindFeed, c.feedWriter(expected))
}

// FeedWriterContext is the deferred form of FeedWriter.
func (c *OutputContext) FeedWriterContext(ctx context.Context, expected *edm.EntityType) (FeedWriter, error) {
	return newOutputWriter(c, ctx, true, KindFeed, c.feedWriter(expected))
}

func (c *OutputContext) feedWriter(expected *edm.EntityType) func() (FeedWriter, error) {
	return func() (FeedWriter, error) {
		f, ok := c.format.(OutputFormat)
		if !ok {
			return nil, unsupported(KindFeed, c.format)
		}
		return f.NewFeedWriter(c, expected)
	}
}

// EntryWriter creates the writer for a single entry payload with the given
// expected entity type.
func (c *OutputContext) EntryWriter(expected *edm.EntityType) (EntryWriter, error) {
	return newOutputWriter(c, context.Background(), false, KindEntry, c.entryWriter(expected))
}

// EntryWriterContext is the deferred form of EntryWriter.
func (c *OutputContext) EntryWriterContext(ctx context.Context, expected *edm.EntityType) (EntryWriter, error) {
	return newOutputWriter(c, ctx, true, KindEntry, c.entryWriter(expected))
}

func (c *OutputContext) entryWriter(expected *edm.EntityType) func() (EntryWriter, error) {
	return func() (EntryWriter, error) {
		f, ok := c.format.(OutputFormat)
		if !ok {
			return nil, unsupported(KindEntry, c.format)
		}
		return f.NewEntryWriter(c, expected)
	}
}

// PropertyWriter creates the writer for a top-level property payload.
func (c *OutputContext) PropertyWriter(expected *edm.Property) (PropertyWriter, error) {
	return newOutputWriter(c, context.Background(), false, KindProperty, c.propertyWriter(expected))
}

// PropertyWriterContext is the deferred form of PropertyWriter.
func (c *OutputContext) PropertyWriterContext(ctx context.Context, expected *edm.Property) (PropertyWriter, error) {
	return newOutputWriter(c, ctx, true, KindProperty, c.propertyWriter(expected))
}

func (c *OutputContext) propertyWriter(expected *edm.Property) func() (PropertyWriter, error) {
	return func() (PropertyWriter, error) {
		f, ok := c.format.(OutputFormat)
		if !ok {
			return nil, unsupported(KindProperty, c.format)
		}
		return f.NewPropertyWriter(c, expected)
	}
}

// CollectionWriter creates the writer for a top-level collection payload
// with the given expected item type name.
func (c *OutputContext) CollectionWriter(expectedItemType string) (CollectionWriter, error) {
	return newOutputWriter(c, context.Background(), false, KindCollection, c.collectionWriter(expectedItemType))
}

// CollectionWriterContext is the deferred form of CollectionWriter.
func (c *OutputContext) CollectionWriterContext(ctx context.Context, expectedItemType string) (CollectionWriter, error) {
	return newOutputWriter(c, ctx, true, KindCollection, c.collectionWriter(expectedItemType))
}

func (c *OutputContext) collectionWriter(expectedItemType string) func() (CollectionWriter, error) {
	return func() (CollectionWriter, error) {
		f, ok := c.format.(OutputFormat)
		if !ok {
			return nil, unsupported(KindCollection, c.format)
		}
		return f.NewCollectionWriter(c, expectedItemType)
	}
}

// ErrorWriter creates the writer for a top-level error payload.
func (c *OutputContext) ErrorWriter() (ErrorWriter, error) {
	return newOutputWriter(c, context.Background(), false, KindError, c.errorWriter())
}

// ErrorWriterContext is the deferred form of ErrorWriter.
func (c *OutputContext) ErrorWriterContext(ctx context.Context) (ErrorWriter, error) {
	return newOutputWriter(c, ctx, true, KindError, c.errorWriter())
}

func (c *OutputContext) errorWriter() func() (ErrorWriter, error) {
	return func() (ErrorWriter, error) {
		f, ok := c.format.(OutputFormat)
		if !ok {
			return nil, unsupported(KindError, c.format)
		}
		return f.NewErrorWriter(c)
	}
}

// ReferenceLinkWriter creates the writer for a single entity reference
// link.
func (c *OutputContext) ReferenceLinkWriter() (ReferenceLinkWriter, error) {
	return newOutputWriter(c, context.Background(), false, KindEntityReferenceLink, c.referenceLinkWriter())
}

// ReferenceLinkWriterContext is the deferred form of ReferenceLinkWriter.
func (c *OutputContext) ReferenceLinkWriterContext(ctx context.Context) (ReferenceLinkWriter, error) {
	return newOutputWriter(c, ctx, true, KindEntityReferenceLink, c.referenceLinkWriter())
}

func (c *OutputContext) referenceLinkWriter() func() (ReferenceLinkWriter, error) {
	return func() (ReferenceLinkWriter, error) {
		f, ok := c.format.(OutputFormat)
		if !ok {
			return nil, unsupported(KindEntityReferenceLink, c.format)
		}
		return f.NewReferenceLinkWriter(c)
	}
}

// ReferenceLinksWriter creates the writer for a collection of entity
// reference links.
func (c *OutputContext) ReferenceLinksWriter() (ReferenceLinksWriter, error) {
	return newOutputWriter(c, context.Background(), false, KindEntityReferenceLinks, c.referenceLinksWriter())
}

// ReferenceLinksWriterContext is the deferred form of ReferenceLinksWriter.
func (c *OutputContext) ReferenceLinksWriterContext(ctx context.Context) (ReferenceLinksWriter, error) {
	return newOutputWriter(c, ctx, true, KindEntityReferenceLinks, c.referenceLinksWriter())
}

func (c *OutputContext) referenceLinksWriter() func() (ReferenceLinksWriter, error) {
	return func() (ReferenceLinksWriter, error) {
		f, ok := c.format.(OutputFormat)
		if !ok {
			return nil, unsupported(KindEntityReferenceLinks, c.format)
		}
		return f.NewReferenceLinksWriter(c)
	}
}

// RawValueWriter creates the writer for a raw primitive value. Formats
// without a primitive top-level representation reject this with
// ErrUnsupported.
func (c *OutputContext) RawValueWriter(expected edm.Primitive) (RawValueWriter, error) {
	return newOutputWriter(c, context.Background(), false, KindValue, c.rawValueWriter(expected))
}

// RawValueWriterContext is the deferred form of RawValueWriter.
func (c *OutputContext) RawValueWriterContext(ctx context.Context, expected edm.Primitive) (RawValueWriter, error) {
	return newOutputWriter(c, ctx, true, KindValue, c.rawValueWriter(expected))
}

func (c *OutputContext) rawValueWriter(expected edm.Primitive) func() (RawValueWriter, error) {
	return func() (RawValueWriter, error) {
		f, ok := c.format.(RawValueFormat)
		if !ok {
			return nil, unsupported(KindValue, c.format)
		}
		return f.NewRawValueWriter(c, expected)
	}
}

// ServiceDocumentWriter creates the writer for the service document.
func (c *OutputContext) ServiceDocumentWriter() (ServiceDocumentWriter, error) {
	return newOutputWriter(c, context.Background(), false, KindServiceDocument, c.serviceDocumentWriter())
}

// ServiceDocumentWriterContext is the deferred form of
// ServiceDocumentWriter.
func (c *OutputContext) ServiceDocumentWriterContext(ctx context.Context) (ServiceDocumentWriter, error) {
	return newOutputWriter(c, ctx, true, KindServiceDocument, c.serviceDocumentWriter())
}

func (c *OutputContext) serviceDocumentWriter() func() (ServiceDocumentWriter, error) {
	return func() (ServiceDocumentWriter, error) {
		f, ok := c.format.(ServiceDocumentFormat)
		if !ok {
			return nil, unsupported(KindServiceDocument, c.format)
		}
		return f.NewServiceDocumentWriter(c)
	}
}

// BatchWriter creates the writer for a batch envelope. An empty boundary
// lets the format generate one. Formats without a batch representation
// reject this with ErrUnsupported.
func (c *OutputContext) BatchWriter(boundary string) (BatchWriter, error) {
	return newOutputWriter(c, context.Background(), false, KindBatch, c.batchWriter(boundary))
}

// BatchWriterContext is the deferred form of BatchWriter.
func (c *OutputContext) BatchWriterContext(ctx context.Context, boundary string) (BatchWriter, error) {
	return newOutputWriter(c, ctx, true, KindBatch, c.batchWriter(boundary))
}

func (c *OutputContext) batchWriter(boundary string) func() (BatchWriter, error) {
	return func() (BatchWriter, error) {
		f, ok := c.format.(BatchFormat)
		if !ok {
			return nil, unsupported(KindBatch, c.format)
		}
		return f.NewBatchWriter(c, boundary)
	}
}
