package model

import "net/url"

// EntryMetadataBuilder computes convention-based entry metadata on demand.
// One builder serves one entry; it is attached with InjectMetadataBuilder
// and consulted lazily by the entry's Resolve accessors.
//
// Implementations must prefer values the producer set explicitly on the
// entry and must memoize each computed field so repeated reads return the
// identical value. The second return reports whether a value exists at all.
type EntryMetadataBuilder interface {
	// ID returns the entry identity.
	ID() (string, bool)
	// EditLink returns the link used to modify the entry.
	EditLink() (*url.URL, bool)
	// ReadLink returns the link used to read the entry back.
	ReadLink() (*url.URL, bool)
	// MediaResource returns the default stream descriptor for media
	// entries.
	MediaResource() (*StreamReference, bool)
	// NavigationLink returns the navigation link for the named property.
	NavigationLink(name string) (*url.URL, bool)
	// AssociationLink returns the association link for the named property.
	AssociationLink(name string) (*url.URL, bool)
	// Operations returns the bindable operations to advertise.
	Operations() []Operation
}

// InjectMetadataBuilder attaches a builder to an entry. Construction and
// attachment are separate steps: a builder needs full serialization context
// which may not exist when the entry is first materialized. Reading entry
// metadata before injection surfaces only the raw, unconverted fields.
//
// The entry owns its builder; the builder's reference back to the entry
// never extends the entry's lifetime.
func InjectMetadataBuilder(e *Entry, b EntryMetadataBuilder) {
	e.builder = b
}
