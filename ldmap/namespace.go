package ldmap

import "fmt"

// Namespace is an absolute IRI prefix under which terms are resolved.
// A Namespace is immutable once constructed.
type Namespace struct {
	base     string
	ontology *Ontology
}

// NewNamespace creates a namespace from a base IRI prefix.
// The base must be a syntactically valid absolute IRI.
func NewNamespace(base string) (*Namespace, error) {
	if err := ValidateIRI(base); err != nil {
		return nil, err
	}
	return &Namespace{base: base}, nil
}

// MustNamespace is like NewNamespace but panics on an invalid base IRI.
// Intended for package-level vocabulary declarations.
func MustNamespace(base string) *Namespace {
	ns, err := NewNamespace(base)
	if err != nil {
		panic(err)
	}
	return ns
}

// NewNamespaceWithOntology creates a namespace whose term resolution is
// checked against an ontology: resolving a term the ontology does not
// declare (as a property or class) fails.
func NewNamespaceWithOntology(base string, ont *Ontology) (*Namespace, error) {
	ns, err := NewNamespace(base)
	if err != nil {
		return nil, err
	}
	ns.ontology = ont
	return ns, nil
}

// String returns the base IRI prefix.
func (n *Namespace) String() string { return n.base }

// Ref resolves a local name to a full IRI reference by concatenation.
func (n *Namespace) Ref(name string) (IRIRef, error) {
	if name == "" {
		return IRIRef{}, &IRIError{Value: n.base, Err: fmt.Errorf("empty local name")}
	}
	ref := IRIRef{namespace: n.base, name: name}
	if err := ValidateIRI(ref.String()); err != nil {
		return IRIRef{}, err
	}
	if n.ontology != nil && !n.ontology.HasTerm(ref.String()) {
		return IRIRef{}, fmt.Errorf("ldmap: property %s does not exist in namespace %s", name, n.base)
	}
	return ref, nil
}

// MustRef is like Ref but panics on failure.
// Intended for package-level vocabulary declarations.
func (n *Namespace) MustRef(name string) IRIRef {
	ref, err := n.Ref(name)
	if err != nil {
		panic(err)
	}
	return ref
}

// RawIRI wraps an already-expanded IRI string as a reference, without
// validation. Use Namespace.Ref when the IRI belongs to a namespace.
func RawIRI(iri string) IRIRef {
	return IRIRef{namespace: iri}
}

// IRIRef represents an IRI inside a namespace.
type IRIRef struct {
	namespace string
	name      string
}

// String returns the expanded IRI.
func (r IRIRef) String() string { return r.namespace + r.name }

// IsZero reports whether the reference is empty.
func (r IRIRef) IsZero() bool { return r.namespace == "" && r.name == "" }

// Name returns the local name of the reference.
func (r IRIRef) Name() string { return r.name }
