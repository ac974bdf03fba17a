package odata

import "fmt"

// Kind identifies the shape of a top-level payload.
type Kind int

const (
	// KindUnsupported is the zero value; no reader or writer serves it.
	KindUnsupported Kind = iota
	// KindFeed is an ordered collection of entries.
	KindFeed
	// KindEntry is a single structured record.
	KindEntry
	// KindProperty is a single named value.
	KindProperty
	// KindCollection is a top-level collection of primitive or complex values.
	KindCollection
	// KindEntityReferenceLink is a single reference link.
	KindEntityReferenceLink
	// KindEntityReferenceLinks is a collection of reference links.
	KindEntityReferenceLinks
	// KindValue is a raw primitive value.
	KindValue
	// KindServiceDocument is the service's collection directory.
	KindServiceDocument
	// KindMetadataDocument is the schema document.
	KindMetadataDocument
	// KindError is a top-level error payload.
	KindError
	// KindBatch is a multipart batch envelope.
	KindBatch
)

// String returns a stable name for the payload kind.
func (k Kind) String() string {
	switch k {
	case KindFeed:
		return "feed"
	case KindEntry:
		return "entry"
	case KindProperty:
		return "property"
	case KindCollection:
		return "collection"
	case KindEntityReferenceLink:
		return "entityreferencelink"
	case KindEntityReferenceLinks:
		return "entityreferencelinks"
	case KindValue:
		return "value"
	case KindServiceDocument:
		return "servicedocument"
	case KindMetadataDocument:
		return "metadatadocument"
	case KindError:
		return "error"
	case KindBatch:
		return "batch"
	case KindUnsupported:
		return "unsupported"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}
