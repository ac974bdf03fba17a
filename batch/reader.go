package batch

import (
	"bufio"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/rbaliyan/odata"
)

type reader struct {
	outer *multipart.Reader
	// changeset is the nested reader currently being drained, or nil.
	changeset *multipart.Reader
}

func newReader(c *odata.InputContext, boundary string) *reader {
	return &reader{outer: multipart.NewReader(c.Reader(), boundary)}
}

// Next returns the next operation in document order, descending into
// changesets transparently. It returns io.EOF after the last part.
func (r *reader) Next() (*odata.BatchPart, error) {
	for {
		source := r.outer
		if r.changeset != nil {
			source = r.changeset
		}
		part, err := source.NextPart()
		if err == io.EOF {
			if r.changeset != nil {
				r.changeset = nil
				continue
			}
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}

		contentType := part.Header.Get("Content-Type")
		mediaType, params, err := mime.ParseMediaType(contentType)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		if mediaType == "multipart/mixed" {
			if r.changeset != nil {
				return nil, fmt.Errorf("%w: nested changesets", ErrMalformedPayload)
			}
			boundary := params["boundary"]
			if boundary == "" {
				return nil, fmt.Errorf("%w: changeset without boundary", ErrMalformedPayload)
			}
			r.changeset = multipart.NewReader(part, boundary)
			continue
		}
		if mediaType != "application/http" {
			return nil, fmt.Errorf("%w: unexpected part content type %q", ErrMalformedPayload, contentType)
		}
		return parseHTTPPart(part)
	}
}

// parseHTTPPart decodes one application/http body: a request or status
// line, headers, a blank line and the payload.
func parseHTTPPart(body io.Reader) (*odata.BatchPart, error) {
	br := bufio.NewReader(body)
	line, err := readLine(br)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	part := &odata.BatchPart{}
	if status, ok := strings.CutPrefix(line, "HTTP/1.1 "); ok {
		code, _, _ := strings.Cut(status, " ")
		n, err := strconv.Atoi(code)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed status line %q", ErrMalformedPayload, line)
		}
		part.Status = n
	} else {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("%w: malformed request line %q", ErrMalformedPayload, line)
		}
		part.Method = fields[0]
		part.URL = fields[1]
	}

	header, err := textproto.NewReader(br).ReadMIMEHeader()
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if len(header) > 0 {
		part.Header = make(map[string]string, len(header))
		for name := range header {
			part.Header[name] = header.Get(name)
		}
	}

	payload, err := io.ReadAll(br)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if len(payload) > 0 {
		part.Body = payload
	}
	return part, nil
}

func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
