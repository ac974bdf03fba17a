package odata

import (
	"context"
	"fmt"
	"io"

	"github.com/rbaliyan/odata/edm"
)

// StreamOpener acquires the transport stream for a deferred input context.
// It is called at most once, by the first reader factory invoked on the
// context; the context then owns the returned stream.
type StreamOpener func(ctx context.Context) (io.ReadCloser, error)

// InputContext is one message read session. It owns the transport stream
// exclusively, carries the negotiated metadata level, and manufactures the
// shape-specific reader for the payload the caller declares it wants.
//
// A context produces exactly one top-level reader and is not safe for
// concurrent use; confine it to one logical flow of control. Close releases
// the stream exactly once.
type InputContext struct {
	session
	format   Format
	stream   io.ReadCloser
	opener   StreamOpener
	deferred bool
	consumed bool
	closed   bool
}

// NewInputContext creates a synchronous read session over an already-open
// stream. The context takes ownership of the stream.
func NewInputContext(f Format, stream io.ReadCloser, opts ...Option) (*InputContext, error) {
	if f == nil {
		return nil, ErrNilFormat
	}
	if stream == nil {
		return nil, ErrNilStream
	}
	cfg := newContextConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &InputContext{session: newSession(cfg), format: f, stream: stream}, nil
}

// NewDeferredInputContext creates a read session that acquires its stream
// lazily. Only the Context-suffixed reader factories may be used; stream
// acquisition honors their context, after which the read itself proceeds
// synchronously to completion.
func NewDeferredInputContext(f Format, open StreamOpener, opts ...Option) (*InputContext, error) {
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
	return &InputContext{session: newSession(cfg), format: f, opener: open, deferred: true}, nil
}

// Format returns the format serving this session.
func (c *InputContext) Format() Format { return c.format }

// Reader exposes the owned stream to the format for the duration of one
// read call. The format must not retain it.
func (c *InputContext) Reader() io.Reader { return c.stream }

// Close releases the owned stream. It is idempotent: the first call closes
// the stream and clears internal references, later calls are no-ops.
func (c *InputContext) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	stream := c.stream
	c.stream = nil
	c.opener = nil
	recordClose(c.format, "input")
	if stream == nil {
		return nil
	}
	if err := stream.Close(); err != nil {
		c.logger().Warn("closing input stream", "format", c.format.Name(), "error", err)
		return err
	}
	return nil
}

// prepare runs the checks every reader factory shares: liveness, execution
// mode, single top-level read, format capability, stream acquisition.
func (c *InputContext) prepare(ctx context.Context, kind Kind, deferredCall bool) error {
	if c.closed {
		return fmt.Errorf("create %s reader: %w", kind, ErrDisposed)
	}
	if deferredCall != c.deferred {
		// Mixing the synchronous and deferred APIs on one context is an
		// implementer bug, not a recoverable condition.
		if c.deferred {
			panic("odata: synchronous reader factory called on deferred input context")
		}
		panic("odata: deferred reader factory called on synchronous input context")
	}
	if c.consumed {
		return fmt.Errorf("create %s reader: %w", kind, ErrAlreadyConsumed)
	}
	if !c.format.Supports(kind) {
		return unsupported(kind, c.format)
	}
	if c.stream == nil {
		stream, err := c.opener(ctx)
		if err != nil {
			return fmt.Errorf("open input stream: %w", err)
		}
		if stream == nil {
			return ErrNilStream
		}
		c.stream = stream
	}
	return nil
}

func newInputReader[R any](c *InputContext, ctx context.Context, deferredCall bool, kind Kind, create func() (R, error)) (R, error) {
	var zero R
	if err := c.prepare(ctx, kind, deferredCall); err != nil {
		return zero, err
	}
	r, err := create()
	if err != nil {
		return zero, err
	}
	c.consumed = true
	recordRead(c.format, kind)
	return r, nil
}

// FeedReader creates the reader for a feed payload with the given expected
// base entity type.
func (c *InputContext) FeedReader(expected *edm.EntityType) (FeedReader, error) {
	return newInputReader(c, context.Background(), false, KindFeed, c.feedReader(expected))
}

// FeedReaderContext is the deferred form of FeedReader.
func (c *InputContext) FeedReaderContext(ctx context.Context, expected *edm.EntityType) (FeedReader, error) {
	return newInputReader(c, ctx, true, KindFeed, c.feedReader(expected))
}

func (c *InputContext) feedReader(expected *edm.EntityType) func() (FeedReader, error) {
	return func() (FeedReader, error) {
		f, ok := c.format.(InputFormat)
		if !ok {
			return nil, unsupported(KindFeed, c.format)
		}
		return f.NewFeedReader(c, expected)
	}
}

// EntryReader creates the reader for a single entry payload with the given
// expected entity type.
func (c *InputContext) EntryReader(expected *edm.EntityType) (EntryReader, error) {
	return newInputReader(c, context.Background(), false, KindEntry, c.entryReader(expected))
}

// EntryReaderContext is the deferred form of EntryReader.
func (c *InputContext) EntryReaderContext(ctx context.Context, expected *edm.EntityType) (EntryReader, error) {
	return newInputReader(c, ctx, true, KindEntry, c.entryReader(expected))
}

func (c *InputContext) entryReader(expected *edm.EntityType) func() (EntryReader, error) {
	return func() (EntryReader, error) {
		f, ok := c.format.(InputFormat)
		if !ok {
			return nil, unsupported(KindEntry, c.format)
		}
		return f.NewEntryReader(c, expected)
	}
}

// PropertyReader creates the reader for a top-level property payload.
func (c *InputContext) PropertyReader(expected *edm.Property) (PropertyReader, error) {
	return newInputReader(c, context.Background(), false, KindProperty, c.propertyReader(expected))
}

// PropertyReaderContext is the deferred form of PropertyReader.
func (c *InputContext) PropertyReaderContext(ctx context.Context, expected *edm.Property) (PropertyReader, error) {
	return newInputReader(c, ctx, true, KindProperty, c.propertyReader(expected))
}

func (c *InputContext) propertyReader(expected *edm.Property) func() (PropertyReader, error) {
	return func() (PropertyReader, error) {
		f, ok := c.format.(InputFormat)
		if !ok {
			return nil, unsupported(KindProperty, c.format)
		}
		return f.NewPropertyReader(c, expected)
	}
}

// CollectionReader creates the reader for a top-level collection payload
// with the given expected item type name.
func (c *InputContext) CollectionReader(expectedItemType string) (CollectionReader, error) {
	return newInputReader(c, context.Background(), false, KindCollection, c.collectionReader(expectedItemType))
}

// CollectionReaderContext is the deferred form of CollectionReader.
func (c *InputContext) CollectionReaderContext(ctx context.Context, expectedItemType string) (CollectionReader, error) {
	return newInputReader(c, ctx, true, KindCollection, c.collectionReader(expectedItemType))
}

func (c *InputContext) collectionReader(expectedItemType string) func() (CollectionReader, error) {
	return func() (CollectionReader, error) {
		f, ok := c.format.(InputFormat)
		if !ok {
			return nil, unsupported(KindCollection, c.format)
		}
		return f.NewCollectionReader(c, expectedItemType)
	}
}

// ErrorReader creates the reader for a top-level error payload.
func (c *InputContext) ErrorReader() (ErrorReader, error) {
	return newInputReader(c, context.Background(), false, KindError, c.errorReader())
}

// ErrorReaderContext is the deferred form of ErrorReader.
func (c *InputContext) ErrorReaderContext(ctx context.Context) (ErrorReader, error) {
	return newInputReader(c, ctx, true, KindError, c.errorReader())
}

func (c *InputContext) errorReader() func() (ErrorReader, error) {
	return func() (ErrorReader, error) {
		f, ok := c.format.(InputFormat)
		if !ok {
			return nil, unsupported(KindError, c.format)
		}
		return f.NewErrorReader(c)
	}
}

// ReferenceLinkReader creates the reader for a single entity reference
// link.
func (c *InputContext) ReferenceLinkReader() (ReferenceLinkReader, error) {
	return newInputReader(c, context.Background(), false, KindEntityReferenceLink, c.referenceLinkReader())
}

// ReferenceLinkReaderContext is the deferred form of ReferenceLinkReader.
func (c *InputContext) ReferenceLinkReaderContext(ctx context.Context) (ReferenceLinkReader, error) {
	return newInputReader(c, ctx, true, KindEntityReferenceLink, c.referenceLinkReader())
}

func (c *InputContext) referenceLinkReader() func() (ReferenceLinkReader, error) {
	return func() (ReferenceLinkReader, error) {
		f, ok := c.format.(InputFormat)
		if !ok {
			return nil, unsupported(KindEntityReferenceLink, c.format)
		}
		return f.NewReferenceLinkReader(c)
	}
}

// ReferenceLinksReader creates the reader for a collection of entity
// reference links.
func (c *InputContext) ReferenceLinksReader() (ReferenceLinksReader, error) {
	return newInputReader(c, context.Background(), false, KindEntityReferenceLinks, c.referenceLinksReader())
}

// ReferenceLinksReaderContext is the deferred form of ReferenceLinksReader.
func (c *InputContext) ReferenceLinksReaderContext(ctx context.Context) (ReferenceLinksReader, error) {
	return newInputReader(c, ctx, true, KindEntityReferenceLinks, c.referenceLinksReader())
}

func (c *InputContext) referenceLinksReader() func() (ReferenceLinksReader, error) {
	return func() (ReferenceLinksReader, error) {
		f, ok := c.format.(InputFormat)
		if !ok {
			return nil, unsupported(KindEntityReferenceLinks, c.format)
		}
		return f.NewReferenceLinksReader(c)
	}
}

// RawValueReader creates the reader for a raw primitive value with the
// given expected primitive type. Formats without a primitive top-level
// representation reject this with ErrUnsupported.
func (c *InputContext) RawValueReader(expected edm.Primitive) (RawValueReader, error) {
	return newInputReader(c, context.Background(), false, KindValue, c.rawValueReader(expected))
}

// RawValueReaderContext is the deferred form of RawValueReader.
func (c *InputContext) RawValueReaderContext(ctx context.Context, expected edm.Primitive) (RawValueReader, error) {
	return newInputReader(c, ctx, true, KindValue, c.rawValueReader(expected))
}

func (c *InputContext) rawValueReader(expected edm.Primitive) func() (RawValueReader, error) {
	return func() (RawValueReader, error) {
		f, ok := c.format.(RawValueFormat)
		if !ok {
			return nil, unsupported(KindValue, c.format)
		}
		return f.NewRawValueReader(c, expected)
	}
}

// ServiceDocumentReader creates the reader for the service document.
func (c *InputContext) ServiceDocumentReader() (ServiceDocumentReader, error) {
	return newInputReader(c, context.Background(), false, KindServiceDocument, c.serviceDocumentReader())
}

// ServiceDocumentReaderContext is the deferred form of
// ServiceDocumentReader.
func (c *InputContext) ServiceDocumentReaderContext(ctx context.Context) (ServiceDocumentReader, error) {
	return newInputReader(c, ctx, true, KindServiceDocument, c.serviceDocumentReader())
}

func (c *InputContext) serviceDocumentReader() func() (ServiceDocumentReader, error) {
	return func() (ServiceDocumentReader, error) {
		f, ok := c.format.(ServiceDocumentFormat)
		if !ok {
			return nil, unsupported(KindServiceDocument, c.format)
		}
		return f.NewServiceDocumentReader(c)
	}
}

// MetadataReader creates the reader for the schema document.
func (c *InputContext) MetadataReader() (MetadataReader, error) {
	return newInputReader(c, context.Background(), false, KindMetadataDocument, c.metadataReader())
}

// MetadataReaderContext is the deferred form of MetadataReader.
func (c *InputContext) MetadataReaderContext(ctx context.Context) (MetadataReader, error) {
	return newInputReader(c, ctx, true, KindMetadataDocument, c.metadataReader())
}

func (c *InputContext) metadataReader() func() (MetadataReader, error) {
	return func() (MetadataReader, error) {
		f, ok := c.format.(MetadataFormat)
		if !ok {
			return nil, unsupported(KindMetadataDocument, c.format)
		}
		return f.NewMetadataReader(c)
	}
}

// BatchReader creates the reader for a batch envelope with the given
// boundary token. Formats without a batch representation reject this with
// ErrUnsupported.
func (c *InputContext) BatchReader(boundary string) (BatchReader, error) {
	return newInputReader(c, context.Background(), false, KindBatch, c.batchReader(boundary))
}

// BatchReaderContext is the deferred form of BatchReader.
func (c *InputContext) BatchReaderContext(ctx context.Context, boundary string) (BatchReader, error) {
	return newInputReader(c, ctx, true, KindBatch, c.batchReader(boundary))
}

func (c *InputContext) batchReader(boundary string) func() (BatchReader, error) {
	return func() (BatchReader, error) {
		f, ok := c.format.(BatchFormat)
		if !ok {
			return nil, unsupported(KindBatch, c.format)
		}
		return f.NewBatchReader(c, boundary)
	}
}
