package model

// SerializationInfo carries names the producer supplied explicitly. When
// present they are preferred over model lookups and convention computation;
// a set field suppresses the corresponding derivation entirely.
type SerializationInfo struct {
	// EntitySet is the navigation source name.
	EntitySet string
	// BaseTypeName is the declared element type of the entity set.
	BaseTypeName string
	// ExpectedTypeName is the type expected at the point of use, when it
	// differs from the base type.
	ExpectedTypeName string
	// IsMediaEntity marks the entry as carrying a media resource even when
	// no model is available to say so.
	IsMediaEntity bool
}
