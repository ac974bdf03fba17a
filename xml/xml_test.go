package xml

import (
	"bytes"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/rbaliyan/odata"
	"github.com/rbaliyan/odata/edm"
	"github.com/rbaliyan/odata/model"
)

type nopWriteCloser struct{ *bytes.Buffer }

func (nopWriteCloser) Close() error { return nil }

func testModel() (*edm.Model, *edm.EntityType) {
	customer := edm.NewEntityType("NW", "Customer").
		WithKey("ID").
		WithProperty("ID", edm.PrimitiveString).
		WithProperty("Name", edm.PrimitiveString).
		WithProperty("Balance", edm.PrimitiveInt64).
		WithProperty("Since", edm.PrimitiveDateTime).
		WithNavigation("Orders", true)
	m := edm.New("NW").
		AddEntityType(customer).
		AddEntitySet("Customers", customer)
	return m, customer
}

func outputContext(t *testing.T, buf *bytes.Buffer, m *edm.Model, contentType string) *odata.OutputContext {
	t.Helper()
	mt, err := odata.ParseMediaType(contentType)
	if err != nil {
		t.Fatal(err)
	}
	root, _ := url.Parse("http://svc.example/")
	metadata, _ := url.Parse("http://svc.example/$metadata")
	c, err := odata.NewOutputContext(Format{}, nopWriteCloser{buf},
		odata.WithMediaType(mt),
		odata.WithResponse(true),
		odata.WithModel(m),
		odata.WithServiceRoot(root),
		odata.WithMetadataDocumentURI(metadata))
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func inputContext(t *testing.T, data []byte, m *edm.Model, contentType string) *odata.InputContext {
	t.Helper()
	mt, err := odata.ParseMediaType(contentType)
	if err != nil {
		t.Fatal(err)
	}
	root, _ := url.Parse("http://svc.example/")
	c, err := odata.NewInputContext(Format{}, io.NopCloser(bytes.NewReader(data)),
		odata.WithMediaType(mt),
		odata.WithResponse(true),
		odata.WithModel(m),
		odata.WithServiceRoot(root))
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestFormatRegistered(t *testing.T) {
	f, ok := odata.FormatForContentType(odata.ContentTypeAtom)
	if !ok {
		t.Fatal("atom content type not registered")
	}
	if f.Name() != "xml" {
		t.Errorf("got %q", f.Name())
	}
}

func TestEntryRoundTrip(t *testing.T) {
	m, customer := testModel()
	edit, _ := url.Parse("http://svc.example/Customers('ALFKI')")
	since := time.Date(2021, 11, 2, 8, 0, 0, 0, time.UTC)
	in := &model.Entry{
		ID:       "http://svc.example/Customers('ALFKI')",
		ETag:     `W/"1"`,
		TypeName: "NW.Customer",
		EditLink: edit,
		Properties: []model.Property{
			{Name: "ID", Value: "ALFKI"},
			{Name: "Name", Value: "Alfreds"},
			{Name: "Balance", Value: int64(42)},
			{Name: "Since", Value: since},
			{Name: "Address", Value: &model.ComplexValue{
				TypeName: "NW.Address",
				Properties: []model.Property{
					{Name: "City", Value: "Berlin"},
					{Name: "Zip", Value: "12209"},
				},
			}},
			{Name: "Tags", Value: &model.CollectionValue{
				TypeName: "Collection(Edm.String)",
				Items:    []any{"vip", "eu"},
			}},
		},
		NavigationLinks: []model.NavigationLink{
			{Name: "Orders", URL: mustURL(t, "http://svc.example/Customers('ALFKI')/Orders")},
		},
	}

	var buf bytes.Buffer
	oc := outputContext(t, &buf, m, "application/atom+xml;odata=minimalmetadata")
	defer oc.Close()
	w, err := oc.EntryWriter(customer)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Write(in); err != nil {
		t.Fatal(err)
	}

	ic := inputContext(t, buf.Bytes(), m, "application/atom+xml;odata=minimalmetadata")
	defer ic.Close()
	r, err := ic.EntryReader(customer)
	if err != nil {
		t.Fatal(err)
	}
	out, err := r.Read()
	if err != nil {
		t.Fatal(err)
	}

	if out.ID != in.ID || out.ETag != in.ETag {
		t.Errorf("identity got %q/%q", out.ID, out.ETag)
	}
	if out.EditLink == nil || out.EditLink.String() != edit.String() {
		t.Errorf("edit link got %v", out.EditLink)
	}
	if diff := cmp.Diff(in.Properties, out.Properties); diff != "" {
		t.Errorf("properties mismatch:\n%s", diff)
	}
	if u, ok := out.ResolveNavigationLink("Orders"); !ok || u.String() != "http://svc.example/Customers('ALFKI')/Orders" {
		t.Errorf("navigation link got %v/%v", u, ok)
	}
	if out.TypeName != "" {
		t.Errorf("inferable type name got %q", out.TypeName)
	}
}

func mustURL(t *testing.T, s string) *url.URL {
	t.Helper()
	u, err := url.Parse(s)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestEntryWriterFullMetadata(t *testing.T) {
	m, customer := testModel()
	var buf bytes.Buffer
	oc := outputContext(t, &buf, m, "application/atom+xml;odata=fullmetadata")
	defer oc.Close()

	w, err := oc.EntryWriter(customer)
	if err != nil {
		t.Fatal(err)
	}
	err = w.Write(&model.Entry{
		TypeName:        "NW.Customer",
		Properties:      []model.Property{{Name: "ID", Value: "ALFKI"}},
		NavigationLinks: []model.NavigationLink{{Name: "Orders"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	doc := buf.String()
	for _, fragment := range []string{
		"<id>http://svc.example/Customers(&#39;ALFKI&#39;)</id>",
		`term="NW.Customer"`,
		`rel="edit"`,
		`href="http://svc.example/Customers(&#39;ALFKI&#39;)/Orders"`,
	} {
		if !strings.Contains(doc, fragment) {
			t.Errorf("document lacks %s:\n%s", fragment, doc)
		}
	}
}

func TestMediaEntryRoundTrip(t *testing.T) {
	photo := edm.NewEntityType("NW", "Photo").
		WithKey("ID").
		WithProperty("ID", edm.PrimitiveInt32).
		WithStream()
	m := edm.New("NW").AddEntityType(photo).AddEntitySet("Photos", photo)

	src, _ := url.Parse("http://svc.example/Photos(7)/$value")
	in := &model.Entry{
		TypeName:      "NW.Photo",
		MediaResource: &model.StreamReference{ReadLink: src, ContentType: "image/png"},
		Properties:    []model.Property{{Name: "ID", Value: int32(7)}},
	}

	var buf bytes.Buffer
	oc := outputContext(t, &buf, m, "application/atom+xml;odata=minimalmetadata")
	defer oc.Close()
	w, err := oc.EntryWriter(photo)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Write(in); err != nil {
		t.Fatal(err)
	}

	ic := inputContext(t, buf.Bytes(), m, "application/atom+xml;odata=minimalmetadata")
	defer ic.Close()
	r, err := ic.EntryReader(photo)
	if err != nil {
		t.Fatal(err)
	}
	out, err := r.Read()
	if err != nil {
		t.Fatal(err)
	}
	if out.MediaResource == nil {
		t.Fatal("media resource lost")
	}
	if out.MediaResource.ReadLink.String() != src.String() || out.MediaResource.ContentType != "image/png" {
		t.Errorf("media resource got %+v", out.MediaResource)
	}
	if v, ok := out.Property("ID"); !ok || v != int32(7) {
		t.Errorf("property bag outside content lost: %v/%v", v, ok)
	}
}

func TestFeedRoundTrip(t *testing.T) {
	m, customer := testModel()
	count := int64(2)
	next, _ := url.Parse("http://svc.example/Customers?$skiptoken=BONAP")
	in := &model.Feed{
		Count:        &count,
		NextPageLink: next,
		Entries: []*model.Entry{
			{TypeName: "NW.Customer", Properties: []model.Property{{Name: "ID", Value: "ALFKI"}}},
			{TypeName: "NW.Customer", Properties: []model.Property{{Name: "ID", Value: "BONAP"}}},
		},
	}

	var buf bytes.Buffer
	oc := outputContext(t, &buf, m, "application/atom+xml;odata=minimalmetadata")
	defer oc.Close()
	w, err := oc.FeedWriter(customer)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Write(in); err != nil {
		t.Fatal(err)
	}

	ic := inputContext(t, buf.Bytes(), m, "application/atom+xml;odata=minimalmetadata")
	defer ic.Close()
	r, err := ic.FeedReader(customer)
	if err != nil {
		t.Fatal(err)
	}
	out, err := r.Read()
	if err != nil {
		t.Fatal(err)
	}

	if out.Count == nil || *out.Count != 2 {
		t.Errorf("count got %v", out.Count)
	}
	if out.NextPageLink == nil || out.NextPageLink.String() != next.String() {
		t.Errorf("next link got %v", out.NextPageLink)
	}
	if len(out.Entries) != 2 {
		t.Fatalf("got %d entries", len(out.Entries))
	}
	if v, _ := out.Entries[1].Property("ID"); v != "BONAP" {
		t.Errorf("second entry got %v", v)
	}
}

func TestStandalonePropertyRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		expected *edm.Property
		value    any
	}{
		{"declared int32", &edm.Property{Name: "Age", Type: "Edm.Int32"}, int32(7)},
		{"undeclared double", &edm.Property{Name: "Score"}, 2.5},
		{"declared datetime", &edm.Property{Name: "Since", Type: "Edm.DateTime"}, time.Date(2020, 5, 4, 12, 30, 0, 0, time.UTC)},
		{"string", &edm.Property{Name: "Note", Type: "Edm.String"}, "hello & <world>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			oc := outputContext(t, &buf, nil, "application/xml")
			defer oc.Close()
			w, err := oc.PropertyWriter(tt.expected)
			if err != nil {
				t.Fatal(err)
			}
			if err := w.Write(&model.Property{Name: tt.expected.Name, Value: tt.value}); err != nil {
				t.Fatal(err)
			}

			ic := inputContext(t, buf.Bytes(), nil, "application/xml")
			defer ic.Close()
			r, err := ic.PropertyReader(tt.expected)
			if err != nil {
				t.Fatal(err)
			}
			out, err := r.Read()
			if err != nil {
				t.Fatal(err)
			}
			if out.Name != tt.expected.Name {
				t.Errorf("name got %q", out.Name)
			}
			if diff := cmp.Diff(tt.value, out.Value); diff != "" {
				t.Errorf("value mismatch:\n%s", diff)
			}
		})
	}
}

func TestNullPropertyRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	oc := outputContext(t, &buf, nil, "application/xml")
	defer oc.Close()
	expected := &edm.Property{Name: "Rating", Type: "Edm.Int32"}
	w, err := oc.PropertyWriter(expected)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Write(&model.Property{Name: "Rating", Value: nil}); err != nil {
		t.Fatal(err)
	}

	ic := inputContext(t, buf.Bytes(), nil, "application/xml")
	defer ic.Close()
	r, err := ic.PropertyReader(expected)
	if err != nil {
		t.Fatal(err)
	}
	out, err := r.Read()
	if err != nil {
		t.Fatal(err)
	}
	if out.Value != nil {
		t.Errorf("null value got %v", out.Value)
	}
}

func TestCollectionRoundTrip(t *testing.T) {
	in := &model.Collection{
		TypeName: "Edm.Int32",
		Items:    []any{int32(1), int32(2), int32(3)},
	}

	var buf bytes.Buffer
	oc := outputContext(t, &buf, nil, "application/xml")
	defer oc.Close()
	w, err := oc.CollectionWriter("Edm.Int32")
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Write(in); err != nil {
		t.Fatal(err)
	}

	ic := inputContext(t, buf.Bytes(), nil, "application/xml")
	defer ic.Close()
	r, err := ic.CollectionReader("Edm.Int32")
	if err != nil {
		t.Fatal(err)
	}
	out, err := r.Read()
	if err != nil {
		t.Fatal(err)
	}
	if out.TypeName != "Edm.Int32" {
		t.Errorf("item type got %q", out.TypeName)
	}
	if diff := cmp.Diff(in.Items, out.Items); diff != "" {
		t.Errorf("items mismatch:\n%s", diff)
	}
}

func TestRawValueRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		expected edm.Primitive
		value    any
	}{
		{"string", edm.PrimitiveString, "plain text"},
		{"int64", edm.PrimitiveInt64, int64(42)},
		{"boolean", edm.PrimitiveBoolean, true},
		{"binary passthrough", edm.PrimitiveBinary, []byte{0x00, 0xff, 0x10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			oc := outputContext(t, &buf, nil, "text/plain")
			defer oc.Close()
			w, err := oc.RawValueWriter(tt.expected)
			if err != nil {
				t.Fatal(err)
			}
			if err := w.Write(tt.value); err != nil {
				t.Fatal(err)
			}

			ic := inputContext(t, buf.Bytes(), nil, "text/plain")
			defer ic.Close()
			r, err := ic.RawValueReader(tt.expected)
			if err != nil {
				t.Fatal(err)
			}
			out, err := r.Read()
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.value, out); diff != "" {
				t.Errorf("value mismatch:\n%s", diff)
			}
		})
	}
}

func TestErrorRoundTrip(t *testing.T) {
	in := &model.Error{
		Code:    "NotFound",
		Message: "customer does not exist",
		Lang:    "en-US",
		Inner: &model.InnerError{
			Message:  "sql: no rows",
			TypeName: "QueryError",
			Inner:    &model.InnerError{Message: "timeout"},
		},
	}

	var buf bytes.Buffer
	oc := outputContext(t, &buf, nil, "application/xml")
	defer oc.Close()
	w, err := oc.ErrorWriter()
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Write(in); err != nil {
		t.Fatal(err)
	}

	ic := inputContext(t, buf.Bytes(), nil, "application/xml")
	defer ic.Close()
	r, err := ic.ErrorReader()
	if err != nil {
		t.Fatal(err)
	}
	out, err := r.Read()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("error mismatch:\n%s", diff)
	}
}

func TestReferenceLinksRoundTrip(t *testing.T) {
	one := mustURL(t, "http://svc.example/Orders(1)")
	two := mustURL(t, "http://svc.example/Orders(2)")
	count := int64(2)
	in := &model.EntityReferenceLinks{
		Links: []*model.EntityReferenceLink{{URL: one}, {URL: two}},
		Count: &count,
	}

	var buf bytes.Buffer
	oc := outputContext(t, &buf, nil, "application/xml")
	defer oc.Close()
	w, err := oc.ReferenceLinksWriter()
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Write(in); err != nil {
		t.Fatal(err)
	}

	ic := inputContext(t, buf.Bytes(), nil, "application/xml")
	defer ic.Close()
	r, err := ic.ReferenceLinksReader()
	if err != nil {
		t.Fatal(err)
	}
	out, err := r.Read()
	if err != nil {
		t.Fatal(err)
	}
	if out.Count == nil || *out.Count != 2 {
		t.Errorf("count got %v", out.Count)
	}
	if len(out.Links) != 2 || out.Links[0].URL.String() != one.String() {
		t.Errorf("links got %v", out.Links)
	}
}

func TestReferenceLinkRoundTrip(t *testing.T) {
	target := mustURL(t, "http://svc.example/Orders(1)")

	var buf bytes.Buffer
	oc := outputContext(t, &buf, nil, "application/xml")
	defer oc.Close()
	w, err := oc.ReferenceLinkWriter()
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Write(&model.EntityReferenceLink{URL: target}); err != nil {
		t.Fatal(err)
	}

	ic := inputContext(t, buf.Bytes(), nil, "application/xml")
	defer ic.Close()
	r, err := ic.ReferenceLinkReader()
	if err != nil {
		t.Fatal(err)
	}
	out, err := r.Read()
	if err != nil {
		t.Fatal(err)
	}
	if out.URL.String() != target.String() {
		t.Errorf("got %v", out.URL)
	}
}

func TestServiceDocumentRoundTrip(t *testing.T) {
	in := &model.ServiceDocument{Collections: []model.ServiceDocumentCollection{
		{Name: "Customers", URL: "Customers", Title: "Customers"},
		{Name: "Orders", URL: "Orders", Title: "Orders"},
	}}

	var buf bytes.Buffer
	oc := outputContext(t, &buf, nil, "application/xml")
	defer oc.Close()
	w, err := oc.ServiceDocumentWriter()
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Write(in); err != nil {
		t.Fatal(err)
	}

	ic := inputContext(t, buf.Bytes(), nil, "application/xml")
	defer ic.Close()
	r, err := ic.ServiceDocumentReader()
	if err != nil {
		t.Fatal(err)
	}
	out, err := r.Read()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("service document mismatch:\n%s", diff)
	}
}

const northwindSchema = `<?xml version="1.0" encoding="utf-8"?>
<edmx:Edmx xmlns:edmx="http://schemas.microsoft.com/ado/2007/06/edmx" Version="1.0">
  <edmx:DataServices>
    <Schema Namespace="NW" xmlns="http://schemas.microsoft.com/ado/2008/09/edm"
        xmlns:m="http://schemas.microsoft.com/ado/2007/08/dataservices/metadata">
      <EntityType Name="Customer">
        <Key><PropertyRef Name="ID"/></Key>
        <Property Name="ID" Type="Edm.String" Nullable="false"/>
        <Property Name="Name" Type="Edm.String"/>
        <Property Name="Address" Type="NW.Address"/>
        <NavigationProperty Name="Orders" ToRole="Collection(NW.Order)"/>
      </EntityType>
      <EntityType Name="VipCustomer" BaseType="NW.Customer">
        <Property Name="Tier" Type="Edm.Int32"/>
      </EntityType>
      <EntityType Name="Photo" m:HasStream="true">
        <Key><PropertyRef Name="ID"/></Key>
        <Property Name="ID" Type="Edm.Int32" Nullable="false"/>
      </EntityType>
      <EntityContainer Name="Container" m:IsDefaultEntityContainer="true">
        <EntitySet Name="Customers" EntityType="NW.Customer"/>
        <EntitySet Name="Photos" EntityType="Photo"/>
        <FunctionImport Name="Upgrade" IsBindable="true" m:BindingParameterType="NW.Customer"/>
        <FunctionImport Name="Audit" IsBindable="true" IsSideEffecting="false">
          <Parameter Name="customer" Type="NW.Customer"/>
        </FunctionImport>
        <FunctionImport Name="Reindex"/>
      </EntityContainer>
    </Schema>
  </edmx:DataServices>
</edmx:Edmx>`

func TestMetadataReader(t *testing.T) {
	ic := inputContext(t, []byte(northwindSchema), nil, "application/xml")
	defer ic.Close()
	r, err := ic.MetadataReader()
	if err != nil {
		t.Fatal(err)
	}
	m, err := r.Read()
	if err != nil {
		t.Fatal(err)
	}

	customer, ok := m.EntityType("NW.Customer")
	if !ok {
		t.Fatal("Customer not parsed")
	}
	if key := customer.Key(); len(key) != 1 || key[0] != "ID" {
		t.Errorf("key got %v", key)
	}
	if p, ok := customer.Property("Address"); !ok || p.Type != "NW.Address" {
		t.Errorf("complex property got %+v/%v", p, ok)
	}
	navs := customer.NavigationProperties()
	if len(navs) != 1 || navs[0].Name != "Orders" || !navs[0].Collection {
		t.Errorf("navigation got %v", navs)
	}

	vip, ok := m.EntityType("NW.VipCustomer")
	if !ok {
		t.Fatal("VipCustomer not parsed")
	}
	if !customer.AssignableFrom(vip) {
		t.Error("base type not wired")
	}
	if p, ok := vip.Property("Name"); !ok || p.Type != "Edm.String" {
		t.Errorf("inherited property got %+v/%v", p, ok)
	}

	photo, ok := m.EntityType("NW.Photo")
	if !ok {
		t.Fatal("Photo not parsed")
	}
	if !photo.HasStream() {
		t.Error("stream marker lost")
	}

	set, ok := m.EntitySet("Customers")
	if !ok || set.ElementType() != customer {
		t.Errorf("entity set got %v/%v", set, ok)
	}
	if _, ok := m.EntitySet("Photos"); !ok {
		t.Error("namespace-relative entity set type not resolved")
	}

	ops := m.BoundOperations(customer)
	if len(ops) != 2 {
		t.Fatalf("bound operations got %d, expected 2", len(ops))
	}
	kinds := map[string]edm.OperationKind{}
	for _, op := range ops {
		kinds[op.QualifiedName()] = op.Kind()
	}
	if kinds["NW.Upgrade"] != edm.Action || kinds["NW.Audit"] != edm.Function {
		t.Errorf("operation kinds got %v", kinds)
	}
}

func TestMalformedDocument(t *testing.T) {
	ic := inputContext(t, []byte("<entry><unclosed>"), nil, "application/atom+xml")
	defer ic.Close()
	r, err := ic.EntryReader(nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Read(); err == nil {
		t.Fatal("malformed document accepted")
	}
}
