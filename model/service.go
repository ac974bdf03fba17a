package model

// ServiceDocument lists the collections a service exposes.
type ServiceDocument struct {
	Collections []ServiceDocumentCollection
}

// ServiceDocumentCollection is one advertised collection.
type ServiceDocumentCollection struct {
	// Name is the entity set name.
	Name string
	// URL is the collection location, usually relative to the service root.
	URL string
	// Title is the human readable name; often equal to Name.
	Title string
}
