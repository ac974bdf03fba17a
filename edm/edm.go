// Package edm provides the entity data model consumed by the payload core:
// entity types, entity sets, bindable operations and model-level
// annotations. The model is read-only once built and safe for concurrent
// lookups.
//
// Models are assembled with fluent builders:
//
//	customer := edm.NewEntityType("NW", "Customer").
//	    WithKey("ID").
//	    WithProperty("ID", edm.PrimitiveInt32).
//	    WithProperty("Name", edm.PrimitiveString).
//	    WithNavigation("Orders", true)
//
//	m := edm.New("NW").
//	    AddEntityType(customer).
//	    AddEntitySet("Customers", customer)
package edm

import "strings"

// Model-level annotation names and values.
const (
	// AnnotationURLConventions selects how entity keys appear in
	// convention-built URLs.
	AnnotationURLConventions = "url-conventions"
	// URLConventionKeyAsSegment places the key in its own path segment.
	URLConventionKeyAsSegment = "key-as-segment"
	// URLConventionParentheses places the key in parentheses; this is the
	// default when the annotation is absent.
	URLConventionParentheses = "parentheses"
)

// Model is a schema: a namespace with entity types, entity sets, operations
// and annotations.
type Model struct {
	namespace   string
	types       map[string]*EntityType
	sets        map[string]*EntitySet
	operations  []*Operation
	annotations map[string]string
}

// New creates an empty model for the namespace.
func New(namespace string) *Model {
	return &Model{
		namespace:   namespace,
		types:       make(map[string]*EntityType),
		sets:        make(map[string]*EntitySet),
		annotations: make(map[string]string),
	}
}

// Namespace returns the schema namespace.
func (m *Model) Namespace() string { return m.namespace }

// AddEntityType registers a type under its simple and qualified names.
func (m *Model) AddEntityType(t *EntityType) *Model {
	m.types[t.Name()] = t
	m.types[t.QualifiedName()] = t
	return m
}

// AddEntitySet registers an entity set with the given element type.
func (m *Model) AddEntitySet(name string, element *EntityType) *Model {
	m.sets[name] = &EntitySet{name: name, element: element}
	return m
}

// AddOperation registers a service operation.
func (m *Model) AddOperation(op *Operation) *Model {
	m.operations = append(m.operations, op)
	return m
}

// Annotate sets a model-level annotation.
func (m *Model) Annotate(name, value string) *Model {
	m.annotations[name] = value
	return m
}

// Annotation returns a model-level annotation value and whether it is set.
func (m *Model) Annotation(name string) (string, bool) {
	v, ok := m.annotations[name]
	return v, ok
}

// EntityType looks a type up by simple or qualified name.
func (m *Model) EntityType(name string) (*EntityType, bool) {
	t, ok := m.types[name]
	return t, ok
}

// EntitySet looks an entity set up by name.
func (m *Model) EntitySet(name string) (*EntitySet, bool) {
	s, ok := m.sets[name]
	return s, ok
}

// EntitySetForType returns the first entity set whose element type the given
// type derives from. Lookup order over sets is unspecified; models with
// multiple sets for one type hierarchy should name the set explicitly via
// serialization info.
func (m *Model) EntitySetForType(t *EntityType) (*EntitySet, bool) {
	for _, s := range m.sets {
		if s.element.AssignableFrom(t) {
			return s, true
		}
	}
	return nil, false
}

// BoundOperations returns the operations bindable to the given type or any
// of its base types.
func (m *Model) BoundOperations(t *EntityType) []*Operation {
	var out []*Operation
	for _, op := range m.operations {
		if op.bindingType == "" {
			continue
		}
		for cur := t; cur != nil; cur = cur.base {
			if strings.EqualFold(op.bindingType, cur.QualifiedName()) {
				out = append(out, op)
				break
			}
		}
	}
	return out
}

// EntitySet is a named top-level collection of entries.
type EntitySet struct {
	name    string
	element *EntityType
}

// Name returns the entity set name.
func (s *EntitySet) Name() string { return s.name }

// ElementType returns the declared element type.
func (s *EntitySet) ElementType() *EntityType { return s.element }
