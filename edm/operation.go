package edm

// OperationKind distinguishes actions from functions.
type OperationKind int

const (
	// Action has side effects.
	Action OperationKind = iota
	// Function is side-effect free.
	Function
)

// Operation is a service operation, optionally bindable to an entity type.
type Operation struct {
	namespace   string
	name        string
	kind        OperationKind
	bindingType string
	title       string
}

// NewAction creates an action.
func NewAction(namespace, name string) *Operation {
	return &Operation{namespace: namespace, name: name, kind: Action}
}

// NewFunction creates a function.
func NewFunction(namespace, name string) *Operation {
	return &Operation{namespace: namespace, name: name, kind: Function}
}

// BindTo makes the operation bindable to the entity type.
func (o *Operation) BindTo(t *EntityType) *Operation {
	o.bindingType = t.QualifiedName()
	return o
}

// WithTitle sets the human readable name.
func (o *Operation) WithTitle(title string) *Operation {
	o.title = title
	return o
}

// Name returns the simple operation name.
func (o *Operation) Name() string { return o.name }

// QualifiedName returns "Namespace.Name".
func (o *Operation) QualifiedName() string { return o.namespace + "." + o.name }

// Kind returns whether the operation is an action or a function.
func (o *Operation) Kind() OperationKind { return o.kind }

// Title returns the human readable name, defaulting to the simple name.
func (o *Operation) Title() string {
	if o.title != "" {
		return o.title
	}
	return o.name
}

// BindingType returns the qualified name of the type the operation binds
// to, or "" for unbound operations.
func (o *Operation) BindingType() string { return o.bindingType }
