package model

import "strings"

// SelectedProperties is a projection restricting which fields of an entry
// are materialized. The zero value selects the entire subtree.
type SelectedProperties struct {
	names map[string]bool
}

// SelectAll returns a projection covering everything; equivalent to the
// zero value.
func SelectAll() SelectedProperties { return SelectedProperties{} }

// Select returns a projection limited to the given property names. The
// wildcard "*" selects everything at this level.
func Select(names ...string) SelectedProperties {
	s := SelectedProperties{names: make(map[string]bool, len(names))}
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			s.names[n] = true
		}
	}
	return s
}

// ParseSelection parses a comma separated $select style clause. An empty
// clause selects everything.
func ParseSelection(clause string) SelectedProperties {
	clause = strings.TrimSpace(clause)
	if clause == "" {
		return SelectAll()
	}
	return Select(strings.Split(clause, ",")...)
}

// IsEntireSubtree reports whether the projection places no restriction.
func (s SelectedProperties) IsEntireSubtree() bool {
	return s.names == nil || s.names["*"]
}

// Includes reports whether the named property is part of the projection.
// Nested paths ("Orders/Amount") include their first segment.
func (s SelectedProperties) Includes(name string) bool {
	if s.IsEntireSubtree() {
		return true
	}
	if s.names[name] {
		return true
	}
	for n := range s.names {
		if first, _, ok := strings.Cut(n, "/"); ok && first == name {
			return true
		}
	}
	return false
}
