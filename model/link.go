package model

import "net/url"

// NavigationLink relates an entry to its neighbors.
type NavigationLink struct {
	Name string
	// URL is the navigation target. Nil when the producer left it for
	// convention computation.
	URL *url.URL
	// IsCollection reports whether the target is a feed rather than an
	// entry. Nil means unknown.
	IsCollection *bool
}

// AssociationLink points at the relationship itself rather than the related
// entries.
type AssociationLink struct {
	Name string
	URL  *url.URL
}

// OperationKind distinguishes actions from functions.
type OperationKind int

const (
	// OperationAction has side effects.
	OperationAction OperationKind = iota
	// OperationFunction is side-effect free.
	OperationFunction
)

// Operation is an action or function advertised on an entry.
type Operation struct {
	Kind OperationKind
	// Metadata identifies the operation in the schema document, typically
	// "<metadata document>#<qualified name>".
	Metadata string
	Title    string
	Target   *url.URL
}

// StreamReference describes an entry's media resource or a named stream.
type StreamReference struct {
	ReadLink    *url.URL
	EditLink    *url.URL
	ContentType string
	ETag        string
}

// EntityReferenceLink is a single $links payload item.
type EntityReferenceLink struct {
	URL *url.URL
}

// EntityReferenceLinks is a collection-of-links payload.
type EntityReferenceLinks struct {
	Links        []*EntityReferenceLink
	Count        *int64
	NextPageLink *url.URL
}
