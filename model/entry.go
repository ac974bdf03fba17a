package model

import "net/url"

// Entry is one structured record instance. Exported fields hold what the
// producer set explicitly; the Resolve accessors additionally consult the
// injected metadata builder for convention-computed values.
type Entry struct {
	// TypeName is the qualified entity type name of the record.
	TypeName string
	ID       string
	ETag     string
	EditLink *url.URL
	ReadLink *url.URL
	// MediaResource is set for media link entries.
	MediaResource    *StreamReference
	Properties       []Property
	NavigationLinks  []NavigationLink
	AssociationLinks []AssociationLink
	Operations       []Operation
	// SerializationInfo carries producer-supplied naming hints.
	SerializationInfo *SerializationInfo

	builder EntryMetadataBuilder
}

// Property returns the named property value and whether it exists.
func (e *Entry) Property(name string) (any, bool) {
	for _, p := range e.Properties {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

// MetadataBuilder returns the injected builder, or nil before injection.
func (e *Entry) MetadataBuilder() EntryMetadataBuilder { return e.builder }

// ResolveID returns the entry identity, computed by convention when a
// builder is attached and the producer left it unset.
func (e *Entry) ResolveID() (string, bool) {
	if e.builder != nil {
		return e.builder.ID()
	}
	return e.ID, e.ID != ""
}

// ResolveEditLink returns the edit link, explicit or convention-computed.
func (e *Entry) ResolveEditLink() (*url.URL, bool) {
	if e.builder != nil {
		return e.builder.EditLink()
	}
	return e.EditLink, e.EditLink != nil
}

// ResolveReadLink returns the read link, explicit or convention-computed.
func (e *Entry) ResolveReadLink() (*url.URL, bool) {
	if e.builder != nil {
		return e.builder.ReadLink()
	}
	return e.ReadLink, e.ReadLink != nil
}

// ResolveMediaResource returns the media resource descriptor, explicit or
// convention-computed.
func (e *Entry) ResolveMediaResource() (*StreamReference, bool) {
	if e.builder != nil {
		return e.builder.MediaResource()
	}
	return e.MediaResource, e.MediaResource != nil
}

// ResolveNavigationLink returns the navigation link URL for name.
func (e *Entry) ResolveNavigationLink(name string) (*url.URL, bool) {
	if e.builder != nil {
		return e.builder.NavigationLink(name)
	}
	for _, l := range e.NavigationLinks {
		if l.Name == name && l.URL != nil {
			return l.URL, true
		}
	}
	return nil, false
}

// ResolveAssociationLink returns the association link URL for name.
func (e *Entry) ResolveAssociationLink(name string) (*url.URL, bool) {
	if e.builder != nil {
		return e.builder.AssociationLink(name)
	}
	for _, l := range e.AssociationLinks {
		if l.Name == name && l.URL != nil {
			return l.URL, true
		}
	}
	return nil, false
}

// ResolveOperations returns the operations to advertise on the entry.
func (e *Entry) ResolveOperations() []Operation {
	if e.builder != nil {
		return e.builder.Operations()
	}
	return e.Operations
}

// Feed is an ordered collection of entries.
type Feed struct {
	ID           string
	Count        *int64
	NextPageLink *url.URL
	Entries      []*Entry
	// SerializationInfo carries producer-supplied naming hints applying to
	// every entry of the feed.
	SerializationInfo *SerializationInfo
}

// Collection is a top-level collection of primitive or complex values.
type Collection struct {
	// TypeName is the qualified item type name, when known.
	TypeName string
	Items    []any
}
