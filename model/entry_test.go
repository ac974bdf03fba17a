package model

import (
	"net/url"
	"testing"
)

// scriptedBuilder answers every accessor from fixed values and counts
// invocations.
type scriptedBuilder struct {
	id    string
	edit  *url.URL
	calls map[string]int
}

func newScriptedBuilder(id string, edit *url.URL) *scriptedBuilder {
	return &scriptedBuilder{id: id, edit: edit, calls: make(map[string]int)}
}

func (b *scriptedBuilder) ID() (string, bool) {
	b.calls["ID"]++
	return b.id, b.id != ""
}

func (b *scriptedBuilder) EditLink() (*url.URL, bool) {
	b.calls["EditLink"]++
	return b.edit, b.edit != nil
}

func (b *scriptedBuilder) ReadLink() (*url.URL, bool) { return b.edit, b.edit != nil }

func (b *scriptedBuilder) MediaResource() (*StreamReference, bool) { return nil, false }

func (b *scriptedBuilder) NavigationLink(name string) (*url.URL, bool) { return nil, false }

func (b *scriptedBuilder) AssociationLink(name string) (*url.URL, bool) { return nil, false }

func (b *scriptedBuilder) Operations() []Operation { return nil }

func TestEntryResolveWithoutBuilder(t *testing.T) {
	edit, _ := url.Parse("http://svc.example/Customers('ALFKI')")
	e := &Entry{ID: "explicit", EditLink: edit}

	if id, ok := e.ResolveID(); !ok || id != "explicit" {
		t.Errorf("got %q/%v", id, ok)
	}
	if u, ok := e.ResolveEditLink(); !ok || u != edit {
		t.Errorf("got %v/%v", u, ok)
	}
	if _, ok := e.ResolveReadLink(); ok {
		t.Error("unset read link resolved without builder")
	}
	if _, ok := e.ResolveMediaResource(); ok {
		t.Error("unset media resource resolved without builder")
	}
}

func TestEntryResolveDelegatesToBuilder(t *testing.T) {
	edit, _ := url.Parse("http://svc.example/Customers('ALFKI')")
	b := newScriptedBuilder("computed-id", edit)
	e := &Entry{}
	InjectMetadataBuilder(e, b)

	if e.MetadataBuilder() == nil {
		t.Fatal("builder not attached")
	}
	if id, ok := e.ResolveID(); !ok || id != "computed-id" {
		t.Errorf("got %q/%v", id, ok)
	}
	if u, ok := e.ResolveEditLink(); !ok || u != edit {
		t.Errorf("got %v/%v", u, ok)
	}
	if b.calls["ID"] != 1 || b.calls["EditLink"] != 1 {
		t.Errorf("unexpected call counts: %v", b.calls)
	}
}

func TestEntryProperty(t *testing.T) {
	e := &Entry{Properties: []Property{
		{Name: "ID", Value: "ALFKI"},
		{Name: "Rating", Value: nil},
	}}
	if v, ok := e.Property("ID"); !ok || v != "ALFKI" {
		t.Errorf("got %v/%v", v, ok)
	}
	if v, ok := e.Property("Rating"); !ok || v != nil {
		t.Errorf("null property got %v/%v, expected nil/true", v, ok)
	}
	if _, ok := e.Property("Missing"); ok {
		t.Error("absent property reported present")
	}
}

func TestEntryResolveLinksByName(t *testing.T) {
	orders, _ := url.Parse("http://svc.example/Customers('ALFKI')/Orders")
	e := &Entry{NavigationLinks: []NavigationLink{
		{Name: "Orders", URL: orders},
		{Name: "Pending"},
	}}
	if u, ok := e.ResolveNavigationLink("Orders"); !ok || u != orders {
		t.Errorf("got %v/%v", u, ok)
	}
	if _, ok := e.ResolveNavigationLink("Pending"); ok {
		t.Error("link without URL resolved")
	}
}
