package model

// Property is one named value of an entry or complex value.
//
// Value holds nil or one of: bool, string, int32, int64, float64, []byte,
// time.Time, *ComplexValue, *CollectionValue. Readers produce this set;
// writers accept it.
type Property struct {
	Name  string
	Value any
}

// ComplexValue is a structured value without identity of its own.
type ComplexValue struct {
	// TypeName is the qualified type name, when known or annotated.
	TypeName   string
	Properties []Property
}

// Property returns the named property value and whether it exists.
func (c *ComplexValue) Property(name string) (any, bool) {
	for _, p := range c.Properties {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

// CollectionValue is an ordered collection of primitive or complex items.
type CollectionValue struct {
	// TypeName is the qualified item type name, when known or annotated.
	TypeName string
	Items    []any
}
