package xml

import (
	"fmt"
	"strings"

	"github.com/rbaliyan/odata"
	"github.com/rbaliyan/odata/edm"
)

// Schema document (CSDL inside an edmx envelope) reader. The parser covers
// the subset the payload core consumes: entity types with keys, properties,
// navigation properties and stream markers, entity containers with entity
// sets, and bindable function imports.

type csdlPropertyRef struct {
	Name string `xml:"Name,attr"`
}

type csdlProperty struct {
	Name     string `xml:"Name,attr"`
	Type     string `xml:"Type,attr"`
	Nullable string `xml:"Nullable,attr"`
}

type csdlNavigationProperty struct {
	Name string `xml:"Name,attr"`
	// ToRole carries the target multiplicity role in V3 schemas; the parser
	// keeps only the name.
	ToRole string `xml:"ToRole,attr"`
}

type csdlEntityType struct {
	Name       string                   `xml:"Name,attr"`
	BaseType   string                   `xml:"BaseType,attr"`
	OpenType   string                   `xml:"OpenType,attr"`
	HasStream  string                   `xml:"http://schemas.microsoft.com/ado/2007/08/dataservices/metadata HasStream,attr"`
	Keys       []csdlPropertyRef        `xml:"Key>PropertyRef"`
	Properties []csdlProperty           `xml:"Property"`
	Navigation []csdlNavigationProperty `xml:"NavigationProperty"`
}

type csdlEntitySet struct {
	Name       string `xml:"Name,attr"`
	EntityType string `xml:"EntityType,attr"`
}

type csdlFunctionImport struct {
	Name       string `xml:"Name,attr"`
	IsBindable string `xml:"IsBindable,attr"`
	// IsSideEffecting defaults to true in V3; "false" marks a function.
	IsSideEffecting string `xml:"IsSideEffecting,attr"`
	BindingType     string `xml:"http://schemas.microsoft.com/ado/2007/08/dataservices/metadata BindingParameterType,attr"`
	Parameters      []struct {
		Type string `xml:"Type,attr"`
	} `xml:"Parameter"`
}

type csdlContainer struct {
	Name            string               `xml:"Name,attr"`
	EntitySets      []csdlEntitySet      `xml:"EntitySet"`
	FunctionImports []csdlFunctionImport `xml:"FunctionImport"`
}

type csdlSchema struct {
	Namespace   string           `xml:"Namespace,attr"`
	EntityTypes []csdlEntityType `xml:"EntityType"`
	Containers  []csdlContainer  `xml:"EntityContainer"`
}

type edmxDocument struct {
	Schemas []csdlSchema `xml:"DataServices>Schema"`
}

type metadataReader struct {
	c *odata.InputContext
}

func (r *metadataReader) Read() (*edm.Model, error) {
	var doc edmxDocument
	if err := decodeDocument(r.c, &doc); err != nil {
		return nil, err
	}
	if len(doc.Schemas) == 0 {
		return nil, fmt.Errorf("%w: schema document has no schemas", ErrMalformedPayload)
	}
	m := edm.New(doc.Schemas[0].Namespace)

	// First pass: build every type without its base so forward references
	// resolve.
	types := make(map[string]*edm.EntityType)
	bases := make(map[string]string)
	for _, schema := range doc.Schemas {
		for _, wire := range schema.EntityTypes {
			t := edm.NewEntityType(schema.Namespace, wire.Name)
			for _, k := range wire.Keys {
				t = t.WithKey(k.Name)
			}
			for _, p := range wire.Properties {
				if strings.HasPrefix(p.Type, "Edm.") {
					t = t.WithProperty(p.Name, edm.Primitive(p.Type))
				} else {
					t = t.WithComplexProperty(p.Name, p.Type)
				}
			}
			for _, n := range wire.Navigation {
				t = t.WithNavigation(n.Name, strings.HasPrefix(n.ToRole, "Collection"))
			}
			if wire.HasStream == "true" {
				t = t.WithStream()
			}
			if wire.OpenType == "true" {
				t = t.WithOpenType()
			}
			types[schema.Namespace+"."+wire.Name] = t
			if wire.BaseType != "" {
				bases[schema.Namespace+"."+wire.Name] = wire.BaseType
			}
		}
	}
	for qualified, baseName := range bases {
		base, ok := types[baseName]
		if !ok {
			return nil, fmt.Errorf("%w: unknown base type %q", ErrMalformedPayload, baseName)
		}
		types[qualified].WithBase(base)
	}
	for _, t := range types {
		m.AddEntityType(t)
	}

	for _, schema := range doc.Schemas {
		for _, container := range schema.Containers {
			for _, set := range container.EntitySets {
				t, ok := types[set.EntityType]
				if !ok {
					if t, ok = types[schema.Namespace+"."+set.EntityType]; !ok {
						return nil, fmt.Errorf("%w: entity set %q has unknown type %q", ErrMalformedPayload, set.Name, set.EntityType)
					}
				}
				m.AddEntitySet(set.Name, t)
			}
			for _, fi := range container.FunctionImports {
				if fi.IsBindable != "true" {
					continue
				}
				var op *edm.Operation
				if fi.IsSideEffecting == "false" {
					op = edm.NewFunction(schema.Namespace, fi.Name)
				} else {
					op = edm.NewAction(schema.Namespace, fi.Name)
				}
				binding := fi.BindingType
				if binding == "" && len(fi.Parameters) > 0 {
					binding = fi.Parameters[0].Type
				}
				if binding != "" {
					if t, ok := types[binding]; ok {
						op = op.BindTo(t)
					}
				}
				m.AddOperation(op)
			}
		}
	}
	return m, nil
}
