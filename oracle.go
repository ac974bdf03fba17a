package odata

import "strings"

// TypeNameOracle decides whether a value must carry an explicit type name on
// the wire. One oracle serves a whole message session; implementations are
// stateless beyond configuration captured at construction.
//
// A returned empty string means the annotation is omitted.
type TypeNameOracle interface {
	// EntryTypeNameForWriting returns the type name to annotate an entry
	// with. expected is the statically declared type at the point of use;
	// actual is the entry's real type. Either may be empty when unknown.
	EntryTypeNameForWriting(expected, actual string) string

	// ValueTypeNameForWriting returns the type name to annotate a property
	// value with. isOpen marks a dynamic property with no declaration to
	// infer from.
	ValueTypeNameForWriting(expected, actual string, isOpen bool) string
}

// noneTypeNameOracle never requires an annotation; consumers of
// no-metadata payloads infer types by other means or accept untyped values.
type noneTypeNameOracle struct{}

func (noneTypeNameOracle) EntryTypeNameForWriting(expected, actual string) string { return "" }

func (noneTypeNameOracle) ValueTypeNameForWriting(expected, actual string, isOpen bool) string {
	return ""
}

// minimalTypeNameOracle annotates only values whose type cannot be
// unambiguously inferred from the declared type at the point of use.
type minimalTypeNameOracle struct{}

func (minimalTypeNameOracle) EntryTypeNameForWriting(expected, actual string) string {
	if actual == "" {
		return ""
	}
	if expected == "" || !strings.EqualFold(expected, actual) {
		return actual
	}
	return ""
}

func (o minimalTypeNameOracle) ValueTypeNameForWriting(expected, actual string, isOpen bool) string {
	if isOpen && actual != "" {
		return actual
	}
	return o.EntryTypeNameForWriting(expected, actual)
}

// fullTypeNameOracle annotates every resolvable type, inferable or not, so
// full-metadata payloads stay self-describing.
type fullTypeNameOracle struct{}

func (fullTypeNameOracle) EntryTypeNameForWriting(expected, actual string) string { return actual }

func (fullTypeNameOracle) ValueTypeNameForWriting(expected, actual string, isOpen bool) string {
	return actual
}
