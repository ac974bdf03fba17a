// Package odata implements the payload-interpretation core of a
// resource-oriented data-exchange protocol: entries, feeds, collections,
// links, errors and raw values carried over negotiable wire encodings.
//
// The package decides, from a negotiated content type, how much
// convention-derived metadata a payload carries (the metadata level), and it
// owns the per-message read/write session (the input and output contexts).
// The concrete wire encodings live in subpackages and register themselves as
// formats:
//   - json (application/json, the default)
//   - xml (application/xml, Atom flavored)
//   - msgpack (application/msgpack, binary)
//   - batch (multipart/mixed batch envelopes)
//
// Reading an entry:
//
//	mt, _ := odata.ParseMediaType("application/json; odata=fullmetadata")
//	f, _ := odata.FormatFor(mt)
//	c, err := odata.NewInputContext(f, body,
//	    odata.WithMediaType(mt),
//	    odata.WithModel(m),
//	    odata.WithResponse(true),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
//	r, err := c.EntryReader(customerType)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	entry, err := r.Read()
//
// Context Options:
//   - WithMediaType: the negotiated content type. Default is application/json.
//   - WithModel: the entity data model consulted for conventions.
//   - WithResponse: direction flag. Metadata-level parameters are only
//     consulted for responses.
//   - WithServiceRoot / WithMetadataDocumentURI: bases for convention-built
//     and absolutized links.
//   - WithAutoComputeMetadata: compatibility override; when false the
//     minimal-metadata annotation rules apply regardless of the level.
//   - WithKeyPlacement: key-in-URL convention (parentheses or segment).
//
// A context is confined to one logical flow of control and produces exactly
// one top-level reader or writer. Closing a context releases the owned
// stream; a closed context rejects further use with ErrDisposed.
package odata
