package xml

import (
	"io"

	"github.com/rbaliyan/odata"
	"github.com/rbaliyan/odata/edm"
)

// Raw values travel as bare text without any markup: the body of a $value
// request. Binary values are the raw bytes themselves rather than base64
// text.

type rawValueReader struct {
	c        *odata.InputContext
	expected edm.Primitive
}

func (r *rawValueReader) Read() (any, error) {
	b, err := io.ReadAll(r.c.Reader())
	if err != nil {
		return nil, err
	}
	if r.expected == edm.PrimitiveBinary {
		return b, nil
	}
	return parsePrimitiveText(string(b), string(r.expected))
}

type rawValueWriter struct {
	c        *odata.OutputContext
	expected edm.Primitive
}

func (w *rawValueWriter) Write(v any) error {
	if b, ok := v.([]byte); ok && w.expected == edm.PrimitiveBinary {
		_, err := w.c.Writer().Write(b)
		return err
	}
	text, err := formatPrimitiveText(v)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w.c.Writer(), text)
	return err
}
