package model

// Error is a top-level error payload.
type Error struct {
	Code    string
	Message string
	// Lang is the language tag of Message, when the producer supplied one.
	Lang  string
	Inner *InnerError
}

// InnerError carries debugging detail. Services omit it outside development
// configurations.
type InnerError struct {
	Message    string
	TypeName   string
	StackTrace string
	Inner      *InnerError
}
