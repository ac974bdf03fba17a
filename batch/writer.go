package batch

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/rbaliyan/odata"
)

type writer struct {
	c         *odata.OutputContext
	mw        *multipart.Writer
	changeset *multipart.Writer
}

func newWriter(c *odata.OutputContext, boundary string) (*writer, error) {
	mw := multipart.NewWriter(c.Writer())
	if boundary == "" {
		boundary = "batch_" + uuid.NewString()
	}
	if err := mw.SetBoundary(boundary); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return &writer{c: c, mw: mw}, nil
}

func (w *writer) Boundary() string { return w.mw.Boundary() }

// StartChangeset opens a nested multipart group whose parts apply
// atomically.
func (w *writer) StartChangeset() error {
	if w.changeset != nil {
		return ErrChangesetOpen
	}
	header := make(textproto.MIMEHeader)
	boundary := "changeset_" + uuid.NewString()
	header.Set("Content-Type", "multipart/mixed; boundary="+boundary)
	part, err := w.mw.CreatePart(header)
	if err != nil {
		return err
	}
	cw := multipart.NewWriter(part)
	if err := cw.SetBoundary(boundary); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	w.changeset = cw
	return nil
}

// EndChangeset closes the open changeset.
func (w *writer) EndChangeset() error {
	if w.changeset == nil {
		return ErrNoChangeset
	}
	err := w.changeset.Close()
	w.changeset = nil
	return err
}

// WritePart appends one operation, inside the open changeset when one is
// active.
func (w *writer) WritePart(p *odata.BatchPart) error {
	target := w.mw
	if w.changeset != nil {
		target = w.changeset
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Type", "application/http")
	header.Set("Content-Transfer-Encoding", "binary")
	out, err := target.CreatePart(header)
	if err != nil {
		return err
	}

	var sb strings.Builder
	if p.Status != 0 {
		fmt.Fprintf(&sb, "HTTP/1.1 %d %s\r\n", p.Status, http.StatusText(p.Status))
	} else {
		fmt.Fprintf(&sb, "%s %s HTTP/1.1\r\n", p.Method, p.URL)
	}
	names := make([]string, 0, len(p.Header))
	for name := range p.Header {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&sb, "%s: %s\r\n", name, p.Header[name])
	}
	sb.WriteString("\r\n")
	if _, err := out.Write([]byte(sb.String())); err != nil {
		return err
	}
	_, err = out.Write(p.Body)
	return err
}

// Close writes the terminating boundary. The enclosing context's stream
// stays open.
func (w *writer) Close() error {
	if w.changeset != nil {
		return ErrChangesetOpen
	}
	return w.mw.Close()
}
