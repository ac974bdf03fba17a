package odata

// Version is the protocol version a message session speaks. It is fixed at
// context construction and never changes for the lifetime of the session.
type Version string

// Supported protocol versions.
const (
	V1 Version = "1.0"
	V2 Version = "2.0"
	V3 Version = "3.0"
)

// DefaultVersion is used when a context is built without WithVersion.
const DefaultVersion = V3

func (v Version) String() string { return string(v) }
