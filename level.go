package odata

import (
	"net/url"
	"strings"

	"github.com/rbaliyan/odata/edm"
	"github.com/rbaliyan/odata/model"
)

// Media type parameter carrying the metadata level, and its recognized
// values. Names and values compare case-insensitively.
const (
	// MetadataParameterName is the content type parameter name.
	MetadataParameterName = "odata"
	// MetadataNone requests payloads without convention-derived metadata.
	MetadataNone = "nometadata"
	// MetadataMinimal requests payloads where inferable metadata is
	// omitted; this is the default.
	MetadataMinimal = "minimalmetadata"
	// MetadataFull requests self-describing payloads.
	MetadataFull = "fullmetadata"

	// metadataVerbose is the legacy encoding token. It is rejected during
	// content type validation, long before level selection; seeing it here
	// means an upstream negotiation bug.
	metadataVerbose = "verbose"
)

// Level is the metadata level of a message session: how much
// convention-derived metadata its payloads carry. Exactly three levels
// exist (none, minimal, full); the interface is sealed and every
// level-dependent decision dispatches through it.
//
// A level is selected once per message by SelectLevel and is immutable for
// the session's lifetime.
type Level interface {
	// String names the level.
	String() string

	// WritesContextURI reports whether top-level payloads at this level
	// carry the metadata document link. It depends on the level alone.
	WritesContextURI() bool

	// WritesComputedMetadata reports whether convention-computed entry
	// metadata (identities, links, operations) is written to the wire.
	// Below the full level only explicitly supplied values appear; the
	// consumer recomputes the rest.
	WritesComputedMetadata() bool

	// TypeNameOracle returns the oracle deciding when values carry
	// explicit type annotations. autoCompute=false is the compatibility
	// override: it returns the minimal-metadata oracle no matter the
	// level, before any level-specific logic runs.
	TypeNameOracle(autoCompute bool) TypeNameOracle

	// EntryMetadataBuilder returns the builder computing convention-based
	// metadata for one entry. The entry owns the returned builder; attach
	// it with model.InjectMetadataBuilder.
	EntryMetadataBuilder(args BuilderArgs) model.EntryMetadataBuilder

	sealedLevel()
}

// SelectLevel picks the metadata level for a message.
//
// The media type must already be validated as a JSON-family content type.
// For requests the parameters are never consulted and the result is always
// the minimal level; this is deliberate policy, not a shortcut. For
// responses the first "odata" parameter with a recognized value wins;
// absence or an unrecognized value selects minimal.
func SelectLevel(mt MediaType, metadataDocumentURI *url.URL, m *edm.Model, response bool) Level {
	if !response || mt.ParameterCount() == 0 {
		return minimalLevel{}
	}
	for _, p := range mt.Parameters() {
		if !strings.EqualFold(p.Name, MetadataParameterName) {
			continue
		}
		// The first name match decides; later parameters are never
		// consulted, even when this value is unrecognized.
		switch {
		case strings.EqualFold(p.Value, MetadataNone):
			return noneLevel{}
		case strings.EqualFold(p.Value, MetadataFull):
			return fullLevel{model: m, metadataDocumentURI: metadataDocumentURI}
		case strings.EqualFold(p.Value, metadataVerbose):
			// Precondition: verbose never survives content type
			// validation. Accepting it here would mask an upstream
			// negotiation bug.
			panic("odata: verbose content type reached metadata level selection")
		}
		break
	}
	return minimalLevel{}
}

type noneLevel struct{}

func (noneLevel) String() string               { return "none" }
func (noneLevel) WritesContextURI() bool       { return false }
func (noneLevel) WritesComputedMetadata() bool { return false }
func (noneLevel) sealedLevel()                 {}

func (noneLevel) TypeNameOracle(autoCompute bool) TypeNameOracle {
	if !autoCompute {
		return minimalTypeNameOracle{}
	}
	return noneTypeNameOracle{}
}

func (noneLevel) EntryMetadataBuilder(args BuilderArgs) model.EntryMetadataBuilder {
	return &nullMetadataBuilder{entry: args.Entry}
}

type minimalLevel struct{}

func (minimalLevel) String() string               { return "minimal" }
func (minimalLevel) WritesContextURI() bool       { return true }
func (minimalLevel) WritesComputedMetadata() bool { return false }
func (minimalLevel) sealedLevel()                 {}

func (minimalLevel) TypeNameOracle(autoCompute bool) TypeNameOracle {
	// The compatibility override and the minimal level agree.
	return minimalTypeNameOracle{}
}

func (minimalLevel) EntryMetadataBuilder(args BuilderArgs) model.EntryMetadataBuilder {
	return newConventionalMetadataBuilder(args)
}

type fullLevel struct {
	model               *edm.Model
	metadataDocumentURI *url.URL
}

func (fullLevel) String() string               { return "full" }
func (fullLevel) WritesContextURI() bool       { return true }
func (fullLevel) WritesComputedMetadata() bool { return true }
func (fullLevel) sealedLevel()                 {}

func (fullLevel) TypeNameOracle(autoCompute bool) TypeNameOracle {
	if !autoCompute {
		return minimalTypeNameOracle{}
	}
	return fullTypeNameOracle{}
}

func (l fullLevel) EntryMetadataBuilder(args BuilderArgs) model.EntryMetadataBuilder {
	if args.Model == nil {
		args.Model = l.model
	}
	return &fullMetadataBuilder{
		conventionalMetadataBuilder: *newConventionalMetadataBuilder(args),
		metadataDocumentURI:         l.metadataDocumentURI,
	}
}
