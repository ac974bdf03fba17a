package odata

import (
	"log/slog"
	"net/url"

	"github.com/rbaliyan/odata/edm"
	"github.com/rbaliyan/odata/model"
)

// session carries the negotiated state shared by input and output contexts:
// the media type, the selected metadata level, the model and the direction.
// It is fixed at construction and read-only afterwards.
type session struct {
	cfg   *contextConfig
	level Level
}

func newSession(cfg *contextConfig) session {
	return session{
		cfg:   cfg,
		level: SelectLevel(cfg.mediaType, cfg.metadataDocumentURI, cfg.model, cfg.response),
	}
}

// MediaType returns the negotiated content type.
func (s *session) MediaType() MediaType { return s.cfg.mediaType }

// Level returns the metadata level selected for the session.
func (s *session) Level() Level { return s.level }

// Model returns the entity data model, or nil.
func (s *session) Model() *edm.Model { return s.cfg.model }

// Version returns the protocol version.
func (s *session) Version() Version { return s.cfg.version }

// Response reports the message direction.
func (s *session) Response() bool { return s.cfg.response }

// ServiceRoot returns the base for convention-built URLs, or nil.
func (s *session) ServiceRoot() *url.URL { return s.cfg.serviceRoot }

// MetadataDocumentURI returns the schema document location, or nil.
func (s *session) MetadataDocumentURI() *url.URL { return s.cfg.metadataDocumentURI }

// TypeNameOracle returns the session's type annotation oracle, with the
// compatibility override already applied.
func (s *session) TypeNameOracle() TypeNameOracle {
	return s.level.TypeNameOracle(s.cfg.autoCompute)
}

// ResolveURL resolves a URL read from the payload: the custom resolver is
// consulted first, then relative URLs resolve against the service root.
func (s *session) ResolveURL(u *url.URL) *url.URL {
	if u == nil {
		return nil
	}
	if s.cfg.resolver != nil {
		if r := s.cfg.resolver(s.cfg.serviceRoot, u); r != nil {
			return r
		}
	}
	if !u.IsAbs() && s.cfg.serviceRoot != nil {
		return s.cfg.serviceRoot.ResolveReference(u)
	}
	return u
}

// NewEntryMetadataBuilder creates the level-appropriate metadata builder
// for one entry and injects it. Format readers and writers call this once
// per entry, immediately before processing it.
func (s *session) NewEntryMetadataBuilder(entry *model.Entry, info *model.SerializationInfo, actual *edm.EntityType, selected model.SelectedProperties) model.EntryMetadataBuilder {
	if info == nil {
		info = entry.SerializationInfo
	}
	b := s.level.EntryMetadataBuilder(BuilderArgs{
		Entry:             entry,
		TypeContext:       NewTypeContext(info, actual, s.cfg.model, s.cfg.serviceRoot),
		SerializationInfo: info,
		ActualType:        actual,
		Selected:          selected,
		Response:          s.cfg.response,
		KeyPlacement:      s.cfg.keyPlacement,
		Model:             s.cfg.model,
	})
	model.InjectMetadataBuilder(entry, b)
	return b
}

func (s *session) logger() *slog.Logger { return s.cfg.logger }
