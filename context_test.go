package odata

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"

	"github.com/rbaliyan/odata/edm"
	"github.com/rbaliyan/odata/model"
)

// fakeInput is a capability-complete stub for the core read shapes. It
// claims support for raw values without implementing the extension
// interface, so both rejection paths are reachable.
type fakeInput struct{}

func (fakeInput) Name() string            { return "fake" }
func (fakeInput) MediaTypes() []MediaType { return []MediaType{NewMediaType("application", "fake")} }

func (fakeInput) Supports(kind Kind) bool { return kind != KindBatch }

func (fakeInput) NewFeedReader(c *InputContext, expected *edm.EntityType) (FeedReader, error) {
	return stubFeedReader{}, nil
}

func (fakeInput) NewEntryReader(c *InputContext, expected *edm.EntityType) (EntryReader, error) {
	return stubEntryReader{}, nil
}

func (fakeInput) NewPropertyReader(c *InputContext, expected *edm.Property) (PropertyReader, error) {
	return stubPropertyReader{}, nil
}

func (fakeInput) NewCollectionReader(c *InputContext, expectedItemType string) (CollectionReader, error) {
	return stubCollectionReader{}, nil
}

func (fakeInput) NewErrorReader(c *InputContext) (ErrorReader, error) {
	return stubErrorReader{}, nil
}

func (fakeInput) NewReferenceLinkReader(c *InputContext) (ReferenceLinkReader, error) {
	return stubLinkReader{}, nil
}

func (fakeInput) NewReferenceLinksReader(c *InputContext) (ReferenceLinksReader, error) {
	return stubLinksReader{}, nil
}

var _ InputFormat = fakeInput{}

// Shape reader stubs returning empty payloads.
type (
	stubFeedReader       struct{}
	stubEntryReader      struct{}
	stubPropertyReader   struct{}
	stubCollectionReader struct{}
	stubErrorReader      struct{}
	stubLinkReader       struct{}
	stubLinksReader      struct{}
)

func (stubFeedReader) Read() (*model.Feed, error)           { return &model.Feed{}, nil }
func (stubEntryReader) Read() (*model.Entry, error)         { return &model.Entry{}, nil }
func (stubPropertyReader) Read() (*model.Property, error)   { return &model.Property{}, nil }
func (stubCollectionReader) Read() (*model.Collection, error) { return &model.Collection{}, nil }
func (stubErrorReader) Read() (*model.Error, error)         { return &model.Error{}, nil }

func (stubLinkReader) Read() (*model.EntityReferenceLink, error) {
	return &model.EntityReferenceLink{}, nil
}

func (stubLinksReader) Read() (*model.EntityReferenceLinks, error) {
	return &model.EntityReferenceLinks{}, nil
}

// fakeOutput mirrors fakeInput for write sessions.
type fakeOutput struct{}

func (fakeOutput) Name() string            { return "fake" }
func (fakeOutput) MediaTypes() []MediaType { return []MediaType{NewMediaType("application", "fake")} }
func (fakeOutput) Supports(kind Kind) bool { return kind != KindBatch }

func (fakeOutput) NewFeedWriter(c *OutputContext, expected *edm.EntityType) (FeedWriter, error) {
	return stubFeedWriter{}, nil
}

func (fakeOutput) NewEntryWriter(c *OutputContext, expected *edm.EntityType) (EntryWriter, error) {
	return stubEntryWriter{}, nil
}

func (fakeOutput) NewPropertyWriter(c *OutputContext, expected *edm.Property) (PropertyWriter, error) {
	return stubPropertyWriter{}, nil
}

func (fakeOutput) NewCollectionWriter(c *OutputContext, expectedItemType string) (CollectionWriter, error) {
	return stubCollectionWriter{}, nil
}

func (fakeOutput) NewErrorWriter(c *OutputContext) (ErrorWriter, error) {
	return stubErrorWriter{}, nil
}

func (fakeOutput) NewReferenceLinkWriter(c *OutputContext) (ReferenceLinkWriter, error) {
	return stubLinkWriter{}, nil
}

func (fakeOutput) NewReferenceLinksWriter(c *OutputContext) (ReferenceLinksWriter, error) {
	return stubLinksWriter{}, nil
}

var _ OutputFormat = fakeOutput{}

// Shape writer stubs discarding their payloads.
type (
	stubFeedWriter       struct{}
	stubEntryWriter      struct{}
	stubPropertyWriter   struct{}
	stubCollectionWriter struct{}
	stubErrorWriter      struct{}
	stubLinkWriter       struct{}
	stubLinksWriter      struct{}
)

func (stubFeedWriter) Write(*model.Feed) error                        { return nil }
func (stubEntryWriter) Write(*model.Entry) error                      { return nil }
func (stubPropertyWriter) Write(*model.Property) error                { return nil }
func (stubCollectionWriter) Write(*model.Collection) error            { return nil }
func (stubErrorWriter) Write(*model.Error) error                      { return nil }
func (stubLinkWriter) Write(*model.EntityReferenceLink) error         { return nil }
func (stubLinksWriter) Write(*model.EntityReferenceLinks) error       { return nil }

func nopReadCloser(s string) io.ReadCloser { return io.NopCloser(strings.NewReader(s)) }

// countingCloser records how often it was closed.
type countingCloser struct {
	io.Reader
	closes int
}

func (c *countingCloser) Close() error {
	c.closes++
	return nil
}

type discardSink struct{ closes int }

func (s *discardSink) Write(p []byte) (int, error) { return len(p), nil }

func (s *discardSink) Close() error {
	s.closes++
	return nil
}

func TestNewInputContextValidation(t *testing.T) {
	if _, err := NewInputContext(nil, nopReadCloser("")); !errors.Is(err, ErrNilFormat) {
		t.Errorf("nil format got %v, expected ErrNilFormat", err)
	}
	if _, err := NewInputContext(fakeInput{}, nil); !errors.Is(err, ErrNilStream) {
		t.Errorf("nil stream got %v, expected ErrNilStream", err)
	}
	if _, err := NewDeferredInputContext(fakeInput{}, nil); !errors.Is(err, ErrNilStream) {
		t.Errorf("nil opener got %v, expected ErrNilStream", err)
	}
}

func TestInputContextSingleRead(t *testing.T) {
	c, err := NewInputContext(fakeInput{}, nopReadCloser(""))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, err := c.EntryReader(nil); err != nil {
		t.Fatalf("first reader: %v", err)
	}
	if _, err := c.FeedReader(nil); !errors.Is(err, ErrAlreadyConsumed) {
		t.Errorf("second reader got %v, expected ErrAlreadyConsumed", err)
	}
}

func TestInputContextUnsupportedLeavesContextUsable(t *testing.T) {
	c, err := NewInputContext(fakeInput{}, nopReadCloser(""))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	// Claimed but unimplemented: the extension assertion rejects it.
	if _, err := c.RawValueReader(edm.PrimitiveString); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("raw value got %v, expected ErrUnsupported", err)
	}
	// Not claimed at all: the capability check rejects it.
	_, err = c.BatchReader("b")
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("batch got %v, expected ErrUnsupported", err)
	}
	var ue *UnsupportedError
	if !errors.As(err, &ue) {
		t.Fatal("expected an UnsupportedError")
	}
	if ue.Operation != KindBatch || ue.Format != "fake" {
		t.Errorf("got %+v", ue)
	}

	// A rejected request does not consume the single read.
	if _, err := c.EntryReader(nil); err != nil {
		t.Errorf("context unusable after rejection: %v", err)
	}
}

func TestInputContextCloseIdempotent(t *testing.T) {
	stream := &countingCloser{Reader: strings.NewReader("")}
	c, err := NewInputContext(fakeInput{}, stream)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := c.Close(); err != nil {
			t.Fatal(err)
		}
	}
	if stream.closes != 1 {
		t.Errorf("stream closed %d times, expected 1", stream.closes)
	}
	if _, err := c.EntryReader(nil); !errors.Is(err, ErrDisposed) {
		t.Errorf("reader after close got %v, expected ErrDisposed", err)
	}
}

func TestInputContextModeMismatchPanics(t *testing.T) {
	t.Run("deferred factory on synchronous context", func(t *testing.T) {
		c, err := NewInputContext(fakeInput{}, nopReadCloser(""))
		if err != nil {
			t.Fatal(err)
		}
		defer c.Close()
		defer func() {
			if recover() == nil {
				t.Error("expected panic")
			}
		}()
		c.EntryReaderContext(context.Background(), nil)
	})

	t.Run("synchronous factory on deferred context", func(t *testing.T) {
		c, err := NewDeferredInputContext(fakeInput{}, func(context.Context) (io.ReadCloser, error) {
			return nopReadCloser(""), nil
		})
		if err != nil {
			t.Fatal(err)
		}
		defer c.Close()
		defer func() {
			if recover() == nil {
				t.Error("expected panic")
			}
		}()
		c.EntryReader(nil)
	})
}

func TestDeferredInputContextOpensLazily(t *testing.T) {
	opened := 0
	c, err := NewDeferredInputContext(fakeInput{}, func(context.Context) (io.ReadCloser, error) {
		opened++
		return nopReadCloser(""), nil
	})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if opened != 0 {
		t.Fatal("opener called before any factory")
	}
	if _, err := c.EntryReaderContext(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if opened != 1 {
		t.Errorf("opener called %d times, expected 1", opened)
	}
}

func TestDeferredInputContextOpenerError(t *testing.T) {
	boom := errors.New("connect refused")
	c, err := NewDeferredInputContext(fakeInput{}, func(context.Context) (io.ReadCloser, error) {
		return nil, boom
	})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, err := c.EntryReaderContext(context.Background(), nil); !errors.Is(err, boom) {
		t.Errorf("got %v, expected opener error", err)
	}
}

func TestOutputContextLifecycle(t *testing.T) {
	sink := &discardSink{}
	c, err := NewOutputContext(fakeOutput{}, sink)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.FeedWriter(nil); err != nil {
		t.Fatalf("first writer: %v", err)
	}
	if _, err := c.EntryWriter(nil); !errors.Is(err, ErrAlreadyConsumed) {
		t.Errorf("second writer got %v, expected ErrAlreadyConsumed", err)
	}
	for i := 0; i < 2; i++ {
		if err := c.Close(); err != nil {
			t.Fatal(err)
		}
	}
	if sink.closes != 1 {
		t.Errorf("sink closed %d times, expected 1", sink.closes)
	}
	if _, err := c.FeedWriter(nil); !errors.Is(err, ErrDisposed) {
		t.Errorf("writer after close got %v, expected ErrDisposed", err)
	}
}

func TestOutputContextModeMismatchPanics(t *testing.T) {
	c, err := NewOutputContext(fakeOutput{}, &discardSink{})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	c.FeedWriterContext(context.Background(), nil)
}

func TestOutputContextUnsupported(t *testing.T) {
	c, err := NewOutputContext(fakeOutput{}, &discardSink{})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if _, err := c.BatchWriter(""); !errors.Is(err, ErrUnsupported) {
		t.Errorf("got %v, expected ErrUnsupported", err)
	}
}

func TestSessionResolveURL(t *testing.T) {
	root := mustURL(t, "http://svc.example/api/")
	c, err := NewInputContext(fakeInput{}, nopReadCloser(""), WithServiceRoot(root))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	rel := mustURL(t, "Customers('ALFKI')")
	if got := c.ResolveURL(rel); got.String() != "http://svc.example/api/Customers('ALFKI')" {
		t.Errorf("relative resolution got %q", got)
	}
	abs := mustURL(t, "http://other.example/x")
	if got := c.ResolveURL(abs); got != abs {
		t.Error("absolute URL rewritten")
	}
}

func TestSessionCustomResolver(t *testing.T) {
	override := mustURL(t, "http://cdn.example/override")
	c, err := NewInputContext(fakeInput{}, nopReadCloser(""),
		WithURLResolver(func(base, payload *url.URL) *url.URL {
			return override
		}))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if got := c.ResolveURL(mustURL(t, "anything")); got != override {
		t.Errorf("resolver ignored, got %v", got)
	}
}
