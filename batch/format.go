// Package batch implements the multipart batch envelope: several requests
// or responses packed into one multipart/mixed body, with changesets as
// nested multipart groups.
//
// Importing the package registers the format:
//
//	import _ "github.com/rbaliyan/odata/batch"
package batch

import (
	"errors"

	"github.com/rbaliyan/odata"
)

// Codec errors.
var (
	ErrMalformedPayload = errors.New("batch: malformed payload")
	// ErrChangesetOpen is returned when Close or StartChangeset is called
	// while a changeset is still open.
	ErrChangesetOpen = errors.New("batch: changeset still open")
	// ErrNoChangeset is returned by EndChangeset without an open changeset.
	ErrNoChangeset = errors.New("batch: no open changeset")
)

// Format is the multipart batch envelope. The zero value is ready to use.
type Format struct{}

// Name returns "batch".
func (Format) Name() string { return "batch" }

// MediaTypes returns the content types the format serves.
func (Format) MediaTypes() []odata.MediaType {
	return []odata.MediaType{odata.NewMediaType("multipart", "mixed")}
}

// Supports reports that only batch envelopes are representable.
func (Format) Supports(kind odata.Kind) bool {
	return kind == odata.KindBatch
}

// NewBatchReader implements odata.BatchFormat. The boundary comes from the
// content type of the enclosing message.
func (f Format) NewBatchReader(c *odata.InputContext, boundary string) (odata.BatchReader, error) {
	if boundary == "" {
		return nil, ErrMalformedPayload
	}
	return newReader(c, boundary), nil
}

// NewBatchWriter implements odata.BatchFormat. An empty boundary generates
// a fresh one; read it back through Boundary for the content type header.
func (f Format) NewBatchWriter(c *odata.OutputContext, boundary string) (odata.BatchWriter, error) {
	return newWriter(c, boundary)
}

// Compile-time interface checks.
var (
	_ odata.Format      = Format{}
	_ odata.BatchFormat = Format{}
)

func init() {
	odata.RegisterFormat(Format{})
}
