package model

import "testing"

func TestSelectedPropertiesZeroValue(t *testing.T) {
	var s SelectedProperties
	if !s.IsEntireSubtree() {
		t.Error("zero value must select everything")
	}
	if !s.Includes("Anything") {
		t.Error("zero value must include every property")
	}
	if !SelectAll().IsEntireSubtree() {
		t.Error("SelectAll must select everything")
	}
}

func TestSelectedPropertiesSubset(t *testing.T) {
	s := Select("Name", "Orders/Amount")
	if s.IsEntireSubtree() {
		t.Error("restricted projection reported as entire subtree")
	}
	if !s.Includes("Name") {
		t.Error("selected property excluded")
	}
	if !s.Includes("Orders") {
		t.Error("nested path must include its first segment")
	}
	if s.Includes("Phone") {
		t.Error("unselected property included")
	}
}

func TestSelectedPropertiesWildcard(t *testing.T) {
	s := Select("*")
	if !s.IsEntireSubtree() || !s.Includes("Anything") {
		t.Error("wildcard must select everything")
	}
}

func TestParseSelection(t *testing.T) {
	tests := []struct {
		name     string
		clause   string
		includes []string
		excludes []string
	}{
		{"empty selects all", "", []string{"X"}, nil},
		{"single", "Name", []string{"Name"}, []string{"ID"}},
		{"list with spaces", " Name , Orders ", []string{"Name", "Orders"}, []string{"ID"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ParseSelection(tt.clause)
			for _, name := range tt.includes {
				if !s.Includes(name) {
					t.Errorf("%q excluded", name)
				}
			}
			for _, name := range tt.excludes {
				if s.Includes(name) {
					t.Errorf("%q included", name)
				}
			}
		})
	}
}
