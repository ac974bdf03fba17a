package edm

// Primitive is a qualified primitive type name.
type Primitive string

// Primitive types understood by the format readers and writers.
const (
	PrimitiveString   Primitive = "Edm.String"
	PrimitiveBoolean  Primitive = "Edm.Boolean"
	PrimitiveInt32    Primitive = "Edm.Int32"
	PrimitiveInt64    Primitive = "Edm.Int64"
	PrimitiveDouble   Primitive = "Edm.Double"
	PrimitiveBinary   Primitive = "Edm.Binary"
	PrimitiveDateTime Primitive = "Edm.DateTime"
)

// Property is a declared structural property.
type Property struct {
	Name     string
	Type     string
	Nullable bool
}

// NavigationProperty is a declared relationship.
type NavigationProperty struct {
	Name string
	// Target is the qualified name of the related entity type.
	Target string
	// Collection reports whether the relationship targets a feed.
	Collection bool
}

// EntityType describes one entity type. Build with NewEntityType and the
// With* methods, then register on a Model; types are not mutated afterwards.
type EntityType struct {
	namespace  string
	name       string
	base       *EntityType
	key        []string
	properties []Property
	navigation []NavigationProperty
	hasStream  bool
	open       bool
}

// NewEntityType creates an entity type in the namespace.
func NewEntityType(namespace, name string) *EntityType {
	return &EntityType{namespace: namespace, name: name}
}

// WithBase sets the base type.
func (t *EntityType) WithBase(base *EntityType) *EntityType {
	t.base = base
	return t
}

// WithKey declares the key property names, in order.
func (t *EntityType) WithKey(names ...string) *EntityType {
	t.key = append(t.key, names...)
	return t
}

// WithProperty declares a structural property of primitive type.
func (t *EntityType) WithProperty(name string, typ Primitive) *EntityType {
	t.properties = append(t.properties, Property{Name: name, Type: string(typ), Nullable: true})
	return t
}

// WithComplexProperty declares a structural property of complex type.
func (t *EntityType) WithComplexProperty(name, typeName string) *EntityType {
	t.properties = append(t.properties, Property{Name: name, Type: typeName, Nullable: true})
	return t
}

// WithNavigation declares a navigation property.
func (t *EntityType) WithNavigation(name string, collection bool) *EntityType {
	t.navigation = append(t.navigation, NavigationProperty{Name: name, Collection: collection})
	return t
}

// WithStream marks the type as a media entity.
func (t *EntityType) WithStream() *EntityType {
	t.hasStream = true
	return t
}

// WithOpenType allows undeclared (dynamic) properties.
func (t *EntityType) WithOpenType() *EntityType {
	t.open = true
	return t
}

// Name returns the simple type name.
func (t *EntityType) Name() string { return t.name }

// QualifiedName returns "Namespace.Name".
func (t *EntityType) QualifiedName() string { return t.namespace + "." + t.name }

// Base returns the base type, or nil.
func (t *EntityType) Base() *EntityType { return t.base }

// Key returns the key property names in declaration order, walking up to
// the root of the hierarchy when the type itself declares none.
func (t *EntityType) Key() []string {
	for cur := t; cur != nil; cur = cur.base {
		if len(cur.key) > 0 {
			return cur.key
		}
	}
	return nil
}

// Properties returns the declared structural properties.
func (t *EntityType) Properties() []Property { return t.properties }

// Property returns the declared property and whether it exists, consulting
// base types.
func (t *EntityType) Property(name string) (Property, bool) {
	for cur := t; cur != nil; cur = cur.base {
		for _, p := range cur.properties {
			if p.Name == name {
				return p, true
			}
		}
	}
	return Property{}, false
}

// NavigationProperties returns the declared relationships, including
// inherited ones.
func (t *EntityType) NavigationProperties() []NavigationProperty {
	if t.base == nil {
		return t.navigation
	}
	out := append([]NavigationProperty(nil), t.base.NavigationProperties()...)
	return append(out, t.navigation...)
}

// HasStream reports whether the type is a media entity, consulting base
// types.
func (t *EntityType) HasStream() bool {
	for cur := t; cur != nil; cur = cur.base {
		if cur.hasStream {
			return true
		}
	}
	return false
}

// IsOpen reports whether dynamic properties are allowed.
func (t *EntityType) IsOpen() bool { return t.open }

// AssignableFrom reports whether other is t or derives from t.
func (t *EntityType) AssignableFrom(other *EntityType) bool {
	for cur := other; cur != nil; cur = cur.base {
		if cur == t {
			return true
		}
	}
	return false
}
