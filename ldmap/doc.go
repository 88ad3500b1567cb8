// Package ldmap maps in-memory object graphs to and from JSON-LD documents
// using declarative per-model schemas.
//
// A Schema associates a Go struct type with an rdf_type IRI and an ordered
// set of field bindings, each pairing a struct attribute with a predicate IRI
// and a typed converter:
//   - Declare: NewSchema() with explicit Bind() bindings, or SchemaFromStruct()
//     from `ldmap` struct tags. Both forms produce equivalent schemas.
//   - Dump: Schema.Dump() emits a JSON-LD node, or a flat array of nodes
//     cross-referenced by @id for flattened schemas.
//   - Load: Schema.Load() accepts expanded, compacted, or flattened JSON-LD;
//     compacted input is normalized through the json-gold processor.
//   - Resolve: Registry.Load() picks the schema for a node polymorphically
//     from its @type set, with registration order as the tie-break.
//   - Validate: ValidateProperties() checks the predicates a document uses
//     against an OWL ontology.
//
// Nested bindings recurse into other schemas; ambiguous nested positions are
// resolved against the candidate schemas in the order given, selecting the
// first whose rdf_type intersects the node's @type set. Lazy schemas defer
// nested materialization behind Ref values that force exactly once.
//
// Example:
//
//	sc := ldmap.MustNamespace("http://schema.org/")
//
//	type Book struct {
//	    ID   string
//	    Name string
//	}
//
//	schema, err := ldmap.NewSchema(Book{}, sc.MustRef("Book"), []*ldmap.Binding{
//	    ldmap.Bind("ID", ldmap.Id()),
//	    ldmap.Bind("Name", ldmap.String(sc.MustRef("name"))),
//	})
//	if err != nil {
//	    // handle error
//	}
//
//	node, err := schema.Dump(Book{ID: "http://example.com/books/1", Name: "Hitchhikers Guide to the Galaxy"})
//
// Cyclic object graphs are rejected in non-flattened dumps and supported in
// flattened form, where shared references collapse to @id cross-references.
package ldmap
