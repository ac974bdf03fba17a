package odata

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseMediaType(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		full    string
		params  []Parameter
		wantErr bool
	}{
		{
			name:  "bare",
			input: "application/json",
			full:  "application/json",
		},
		{
			name:   "with metadata parameter",
			input:  "application/json; odata=minimalmetadata",
			full:   "application/json",
			params: []Parameter{{Name: "odata", Value: "minimalmetadata"}},
		},
		{
			name:   "quoted value",
			input:  `application/json; charset="utf-8"`,
			full:   "application/json",
			params: []Parameter{{Name: "charset", Value: "utf-8"}},
		},
		{
			name:   "multiple parameters keep order",
			input:  "multipart/mixed; boundary=batch_1; charset=utf-8",
			full:   "multipart/mixed",
			params: []Parameter{{Name: "boundary", Value: "batch_1"}, {Name: "charset", Value: "utf-8"}},
		},
		{
			name:    "missing subtype",
			input:   "application",
			wantErr: true,
		},
		{
			name:    "empty type",
			input:   "/json",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mt, err := ParseMediaType(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if mt.FullType() != tt.full {
				t.Errorf("full type got %q, expected %q", mt.FullType(), tt.full)
			}
			if diff := cmp.Diff(tt.params, mt.Parameters()); diff != "" {
				t.Errorf("parameters mismatch:\n%s", diff)
			}
		})
	}
}

func TestMediaTypeParameterLookup(t *testing.T) {
	mt := NewMediaType("application", "json",
		Parameter{Name: "ODataA", Value: "first"},
		Parameter{Name: "odataa", Value: "second"})

	v, ok := mt.Parameter("odata" + "a")
	if !ok || v != "first" {
		t.Errorf("case-insensitive first match got %q/%v, expected first/true", v, ok)
	}
	if _, ok := mt.Parameter("missing"); ok {
		t.Error("lookup of absent parameter succeeded")
	}
}

func TestMediaTypeImmutable(t *testing.T) {
	params := []Parameter{{Name: "odata", Value: "fullmetadata"}}
	mt := NewMediaType("application", "json", params...)
	params[0].Value = "mutated"
	if v, _ := mt.Parameter("odata"); v != "fullmetadata" {
		t.Errorf("constructor aliased caller slice, got %q", v)
	}
	out := mt.Parameters()
	out[0].Value = "mutated"
	if v, _ := mt.Parameter("odata"); v != "fullmetadata" {
		t.Errorf("accessor aliased internal slice, got %q", v)
	}
}

func TestMediaTypeHasType(t *testing.T) {
	mt := NewMediaType("Application", "JSON", Parameter{Name: "odata", Value: "nometadata"})
	if !mt.HasType(ContentTypeJSON) {
		t.Error("HasType must compare case-insensitively and ignore parameters")
	}
	if mt.HasType(ContentTypeXML) {
		t.Error("HasType matched the wrong type")
	}
}

func TestMediaTypeString(t *testing.T) {
	mt := NewMediaType("application", "json", Parameter{Name: "odata", Value: "fullmetadata"})
	const expected = "application/json; odata=fullmetadata"
	if got := mt.String(); got != expected {
		t.Errorf("got %q, expected %q", got, expected)
	}
}
