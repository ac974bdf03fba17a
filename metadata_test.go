package odata

import (
	"net/url"
	"testing"

	"github.com/rbaliyan/odata/edm"
	"github.com/rbaliyan/odata/model"
)

func testModel() (*edm.Model, *edm.EntityType) {
	customer := edm.NewEntityType("NW", "Customer").
		WithKey("ID").
		WithProperty("ID", edm.PrimitiveString).
		WithProperty("Name", edm.PrimitiveString).
		WithNavigation("Orders", true)
	m := edm.New("NW").
		AddEntityType(customer).
		AddEntitySet("Customers", customer).
		AddOperation(edm.NewAction("NW", "Upgrade").BindTo(customer))
	return m, customer
}

func mustURL(t *testing.T, s string) *url.URL {
	t.Helper()
	u, err := url.Parse(s)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func builderArgs(t *testing.T, e *model.Entry, m *edm.Model, actual *edm.EntityType, placement KeyPlacement) BuilderArgs {
	t.Helper()
	root := mustURL(t, "http://svc.example/")
	return BuilderArgs{
		Entry:        e,
		TypeContext:  NewTypeContext(nil, actual, m, root),
		ActualType:   actual,
		Selected:     model.SelectAll(),
		Response:     true,
		KeyPlacement: placement,
		Model:        m,
	}
}

func TestConventionalBuilderComputesIdentity(t *testing.T) {
	m, customer := testModel()
	e := &model.Entry{
		TypeName:   "NW.Customer",
		Properties: []model.Property{{Name: "ID", Value: "ALFKI"}},
	}
	b := newConventionalMetadataBuilder(builderArgs(t, e, m, customer, KeyDefault))

	id, ok := b.ID()
	if !ok {
		t.Fatal("identity not computed")
	}
	const expected = "http://svc.example/Customers('ALFKI')"
	if id != expected {
		t.Errorf("id got %q, expected %q", id, expected)
	}
	edit, ok := b.EditLink()
	if !ok || edit.String() != expected {
		t.Errorf("edit link got %v, expected %s", edit, expected)
	}
	read, ok := b.ReadLink()
	if !ok || read.String() != expected {
		t.Errorf("read link got %v, expected %s", read, expected)
	}
}

func TestConventionalBuilderExplicitWins(t *testing.T) {
	m, customer := testModel()
	explicit := mustURL(t, "http://svc.example/Special('X')")
	e := &model.Entry{
		TypeName:   "NW.Customer",
		ID:         "custom-id",
		EditLink:   explicit,
		Properties: []model.Property{{Name: "ID", Value: "ALFKI"}},
	}
	b := newConventionalMetadataBuilder(builderArgs(t, e, m, customer, KeyDefault))

	if id, _ := b.ID(); id != "custom-id" {
		t.Errorf("explicit id overridden: %q", id)
	}
	if edit, _ := b.EditLink(); edit != explicit {
		t.Errorf("explicit edit link overridden: %v", edit)
	}
}

func TestConventionalBuilderMemoizes(t *testing.T) {
	m, customer := testModel()
	e := &model.Entry{
		TypeName:   "NW.Customer",
		Properties: []model.Property{{Name: "ID", Value: "ALFKI"}},
	}
	b := newConventionalMetadataBuilder(builderArgs(t, e, m, customer, KeyDefault))

	first, _ := b.EditLink()
	second, _ := b.EditLink()
	if first != second {
		t.Error("edit link recomputed instead of memoized")
	}

	// Absence is memoized too: once computed as missing, a later property
	// mutation does not change the answer.
	missing := &model.Entry{TypeName: "NW.Customer"}
	mb := newConventionalMetadataBuilder(builderArgs(t, missing, m, customer, KeyDefault))
	if _, ok := mb.ID(); ok {
		t.Fatal("identity computed without key value")
	}
	missing.Properties = []model.Property{{Name: "ID", Value: "ALFKI"}}
	if _, ok := mb.ID(); ok {
		t.Error("memoized absent identity recomputed")
	}
}

func TestConventionalBuilderKeyForms(t *testing.T) {
	m, customer := testModel()

	t.Run("string key escapes quotes", func(t *testing.T) {
		e := &model.Entry{Properties: []model.Property{{Name: "ID", Value: "O'Hare"}}}
		b := newConventionalMetadataBuilder(builderArgs(t, e, m, customer, KeyDefault))
		id, _ := b.ID()
		if id != "http://svc.example/Customers('O''Hare')" {
			t.Errorf("got %q", id)
		}
	})

	t.Run("key as segment", func(t *testing.T) {
		e := &model.Entry{Properties: []model.Property{{Name: "ID", Value: "ALFKI"}}}
		b := newConventionalMetadataBuilder(builderArgs(t, e, m, customer, KeySegment))
		id, _ := b.ID()
		if id != "http://svc.example/Customers/ALFKI" {
			t.Errorf("got %q", id)
		}
	})

	t.Run("model annotation selects segments", func(t *testing.T) {
		annotated, typ := testModel()
		annotated.Annotate(edm.AnnotationURLConventions, edm.URLConventionKeyAsSegment)
		e := &model.Entry{Properties: []model.Property{{Name: "ID", Value: "ALFKI"}}}
		b := newConventionalMetadataBuilder(builderArgs(t, e, annotated, typ, KeyDefault))
		id, _ := b.ID()
		if id != "http://svc.example/Customers/ALFKI" {
			t.Errorf("got %q", id)
		}
	})

	t.Run("explicit parentheses beat the annotation", func(t *testing.T) {
		annotated, typ := testModel()
		annotated.Annotate(edm.AnnotationURLConventions, edm.URLConventionKeyAsSegment)
		e := &model.Entry{Properties: []model.Property{{Name: "ID", Value: "ALFKI"}}}
		b := newConventionalMetadataBuilder(builderArgs(t, e, annotated, typ, KeyParentheses))
		id, _ := b.ID()
		if id != "http://svc.example/Customers('ALFKI')" {
			t.Errorf("got %q", id)
		}
	})

	t.Run("composite keys always use parentheses", func(t *testing.T) {
		detail := edm.NewEntityType("NW", "OrderDetail").
			WithKey("OrderID", "ProductID").
			WithProperty("OrderID", edm.PrimitiveInt32).
			WithProperty("ProductID", edm.PrimitiveInt32)
		m := edm.New("NW").AddEntityType(detail).AddEntitySet("OrderDetails", detail)
		e := &model.Entry{Properties: []model.Property{
			{Name: "OrderID", Value: int32(10248)},
			{Name: "ProductID", Value: int32(11)},
		}}
		b := newConventionalMetadataBuilder(builderArgs(t, e, m, detail, KeySegment))
		id, _ := b.ID()
		if id != "http://svc.example/OrderDetails(OrderID=10248,ProductID=11)" {
			t.Errorf("got %q", id)
		}
	})
}

func TestConventionalBuilderMediaResource(t *testing.T) {
	photo := edm.NewEntityType("NW", "Photo").
		WithKey("ID").
		WithProperty("ID", edm.PrimitiveInt32).
		WithStream()
	m := edm.New("NW").AddEntityType(photo).AddEntitySet("Photos", photo)
	e := &model.Entry{Properties: []model.Property{{Name: "ID", Value: int32(7)}}}
	b := newConventionalMetadataBuilder(builderArgs(t, e, m, photo, KeyDefault))

	mr, ok := b.MediaResource()
	if !ok {
		t.Fatal("media resource not computed for stream type")
	}
	const expected = "http://svc.example/Photos(7)/$value"
	if mr.ReadLink.String() != expected || mr.EditLink.String() != expected {
		t.Errorf("got read=%v edit=%v, expected %s", mr.ReadLink, mr.EditLink, expected)
	}

	plainModel, customer := testModel()
	plain := &model.Entry{Properties: []model.Property{{Name: "ID", Value: "ALFKI"}}}
	pb := newConventionalMetadataBuilder(builderArgs(t, plain, plainModel, customer, KeyDefault))
	if _, ok := pb.MediaResource(); ok {
		t.Error("media resource computed for non-stream type")
	}
}

func TestFullBuilderLinksAndOperations(t *testing.T) {
	m, customer := testModel()
	metadataURI := mustURL(t, "http://svc.example/$metadata")
	level := fullLevel{model: m, metadataDocumentURI: metadataURI}
	e := &model.Entry{
		TypeName:   "NW.Customer",
		Properties: []model.Property{{Name: "ID", Value: "ALFKI"}},
	}
	b := level.EntryMetadataBuilder(builderArgs(t, e, m, customer, KeyDefault))

	nav, ok := b.NavigationLink("Orders")
	if !ok || nav.String() != "http://svc.example/Customers('ALFKI')/Orders" {
		t.Errorf("navigation link got %v", nav)
	}
	assoc, ok := b.AssociationLink("Orders")
	if !ok || assoc.String() != "http://svc.example/Customers('ALFKI')/$links/Orders" {
		t.Errorf("association link got %v", assoc)
	}
	if _, ok := b.NavigationLink("Nope"); ok {
		t.Error("undeclared navigation produced a link")
	}

	ops := b.Operations()
	if len(ops) != 1 {
		t.Fatalf("got %d operations, expected 1", len(ops))
	}
	if ops[0].Metadata != "http://svc.example/$metadata#NW.Upgrade" {
		t.Errorf("operation metadata got %q", ops[0].Metadata)
	}
	if ops[0].Target.String() != "http://svc.example/Customers('ALFKI')/NW.Upgrade" {
		t.Errorf("operation target got %q", ops[0].Target)
	}
}

func TestFullBuilderSelectionRestrictsLinks(t *testing.T) {
	m, customer := testModel()
	args := builderArgs(t, &model.Entry{
		TypeName:   "NW.Customer",
		Properties: []model.Property{{Name: "ID", Value: "ALFKI"}},
	}, m, customer, KeyDefault)
	args.Selected = model.Select("Name")
	level := fullLevel{model: m}
	b := level.EntryMetadataBuilder(args)

	if _, ok := b.NavigationLink("Orders"); ok {
		t.Error("unselected navigation produced a link")
	}
}

func TestNullBuilderSurfacesOnlyExplicit(t *testing.T) {
	m, customer := testModel()
	explicit := mustURL(t, "http://svc.example/Customers('ALFKI')")
	e := &model.Entry{
		TypeName:   "NW.Customer",
		EditLink:   explicit,
		Properties: []model.Property{{Name: "ID", Value: "ALFKI"}},
	}
	b := noneLevel{}.EntryMetadataBuilder(builderArgs(t, e, m, customer, KeyDefault))

	if _, ok := b.ID(); ok {
		t.Error("identity synthesized at the none level")
	}
	if edit, ok := b.EditLink(); !ok || edit != explicit {
		t.Error("explicit edit link lost")
	}
}
