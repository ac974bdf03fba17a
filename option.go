package odata

import (
	"log/slog"
	"net/url"

	"github.com/rbaliyan/odata/edm"
)

// URLResolver lets callers override how payload URLs are resolved. It is
// called with the session's service root (which may be nil) and the URL as
// it appeared in the payload; returning nil falls back to the default
// resolution.
type URLResolver func(base, payload *url.URL) *url.URL

// contextConfig is the negotiated, immutable configuration of one message
// session.
type contextConfig struct {
	mediaType           MediaType
	model               *edm.Model
	version             Version
	response            bool
	serviceRoot         *url.URL
	metadataDocumentURI *url.URL
	resolver            URLResolver
	autoCompute         bool
	keyPlacement        KeyPlacement
	logger              *slog.Logger
}

func newContextConfig() *contextConfig {
	return &contextConfig{
		mediaType:   NewMediaType("application", "json"),
		version:     DefaultVersion,
		autoCompute: true,
		logger:      slog.Default(),
	}
}

// Option configures a context at construction time.
type Option func(*contextConfig)

// WithMediaType sets the negotiated content type, including any metadata
// level parameter. Default is application/json with no parameters.
func WithMediaType(mt MediaType) Option {
	return func(c *contextConfig) {
		c.mediaType = mt
	}
}

// WithModel sets the entity data model consulted for type lookups and
// convention computation. Without a model, convention-based metadata
// surfaces as absent.
func WithModel(m *edm.Model) Option {
	return func(c *contextConfig) {
		c.model = m
	}
}

// WithVersion sets the protocol version. Default is DefaultVersion.
func WithVersion(v Version) Option {
	return func(c *contextConfig) {
		c.version = v
	}
}

// WithResponse sets the message direction. Metadata level parameters are
// only consulted for responses; request sessions always use the minimal
// level. Default is false (request).
func WithResponse(response bool) Option {
	return func(c *contextConfig) {
		c.response = response
	}
}

// WithServiceRoot sets the base URL for convention-built identities and
// links.
func WithServiceRoot(u *url.URL) Option {
	return func(c *contextConfig) {
		c.serviceRoot = u
	}
}

// WithMetadataDocumentURI sets the schema document location, written as the
// top-level metadata link at the minimal and full levels and used to
// absolutize relative references at the full level.
func WithMetadataDocumentURI(u *url.URL) Option {
	return func(c *contextConfig) {
		c.metadataDocumentURI = u
	}
}

// WithURLResolver sets a resolver consulted for every URL read from a
// payload before default resolution applies.
func WithURLResolver(r URLResolver) Option {
	return func(c *contextConfig) {
		c.resolver = r
	}
}

// WithAutoComputeMetadata enables or disables convention-based metadata
// computation. When disabled the minimal-metadata annotation rules apply
// regardless of the negotiated level; this is a compatibility escape hatch
// for payloads produced before convention computation existed. Default is
// true.
func WithAutoComputeMetadata(v bool) Option {
	return func(c *contextConfig) {
		c.autoCompute = v
	}
}

// WithKeyPlacement sets the key-in-URL convention. KeyDefault defers to the
// model's url-conventions annotation and then to parentheses.
func WithKeyPlacement(p KeyPlacement) Option {
	return func(c *contextConfig) {
		c.keyPlacement = p
	}
}

// WithLogger sets the logger for the session. Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *contextConfig) {
		if l != nil {
			c.logger = l
		}
	}
}
