package ldmap

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// Well-known vocabulary namespaces used when reading OWL sources.
const (
	rdfNS  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	rdfsNS = "http://www.w3.org/2000/01/rdf-schema#"
	owlNS  = "http://www.w3.org/2002/07/owl#"
)

// Ontology is a parsed OWL ontology answering "declared properties of class C"
// queries, including properties inherited from declared superclasses.
type Ontology struct {
	superclasses map[string][]string
	byDomain     map[string][]string
	domainless   []string
	properties   map[string]struct{}
}

var anyElement = xpath.MustCompile("//*")

// ParseOntology parses an RDF/XML OWL document.
func ParseOntology(data []byte) (*Ontology, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, &OntologyError{Source: "inline", Err: err}
	}

	o := &Ontology{
		superclasses: make(map[string][]string),
		byDomain:     make(map[string][]string),
		properties:   make(map[string]struct{}),
	}

	for _, n := range xmlquery.QuerySelectorAll(doc, anyElement) {
		switch {
		case isElement(n, owlNS, "Class"), isElement(n, rdfsNS, "Class"):
			o.readClass(n)
		case isElement(n, owlNS, "ObjectProperty"),
			isElement(n, owlNS, "DatatypeProperty"),
			isElement(n, owlNS, "AnnotationProperty"),
			isElement(n, rdfNS, "Property"):
			o.readProperty(n)
		}
	}
	return o, nil
}

// LoadOntology reads and parses an OWL ontology from a filesystem path or an
// http(s) URI. Remote sources are fetched through a caching loader.
func LoadOntology(ctx context.Context, source string) (*Ontology, error) {
	var data []byte
	var err error
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		data, err = NewCachingLoader(http.DefaultClient).Fetch(ctx, source)
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, &OntologyError{Source: source, Err: err}
	}
	ont, err := ParseOntology(data)
	if err != nil {
		return nil, &OntologyError{Source: source, Err: err}
	}
	return ont, nil
}

func (o *Ontology) readClass(n *xmlquery.Node) {
	iri := rdfResource(n, "about")
	if iri == "" {
		return
	}
	if _, ok := o.superclasses[iri]; !ok {
		o.superclasses[iri] = nil
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if isElement(child, rdfsNS, "subClassOf") {
			if super := rdfResource(child, "resource"); super != "" {
				o.superclasses[iri] = append(o.superclasses[iri], super)
			}
		}
	}
}

func (o *Ontology) readProperty(n *xmlquery.Node) {
	iri := rdfResource(n, "about")
	if iri == "" {
		return
	}
	o.properties[iri] = struct{}{}

	var domains []string
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if !isElement(child, rdfsNS, "domain") {
			continue
		}
		if res := rdfResource(child, "resource"); res != "" {
			domains = append(domains, res)
		}
		// Union domains nest class references under the domain element.
		for _, desc := range descendants(child) {
			if res := rdfResource(desc, "about"); res != "" {
				domains = append(domains, res)
			}
			if res := rdfResource(desc, "resource"); res != "" {
				domains = append(domains, res)
			}
		}
	}

	if len(domains) == 0 {
		o.domainless = append(o.domainless, iri)
		return
	}
	for _, d := range domains {
		o.byDomain[d] = append(o.byDomain[d], iri)
	}
}

// PropertiesForClass returns the set of property IRIs declared for a class or
// any of its declared superclasses. An unknown class yields an empty set.
func (o *Ontology) PropertiesForClass(class string) map[string]struct{} {
	props := make(map[string]struct{})
	if !o.knownClass(class) {
		return props
	}

	visited := make(map[string]bool)
	stack := []string{class}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[current] {
			continue
		}
		visited[current] = true
		for _, p := range o.byDomain[current] {
			props[p] = struct{}{}
		}
		stack = append(stack, o.superclasses[current]...)
	}
	for _, p := range o.domainless {
		props[p] = struct{}{}
	}
	return props
}

// HasProperty reports whether the ontology declares the property for the class.
func (o *Ontology) HasProperty(class, property string) bool {
	_, ok := o.PropertiesForClass(class)[property]
	return ok
}

// HasTerm reports whether an IRI is declared anywhere in the ontology, as a
// class or as a property of any class.
func (o *Ontology) HasTerm(iri string) bool {
	if _, ok := o.properties[iri]; ok {
		return true
	}
	_, ok := o.superclasses[iri]
	return ok
}

// knownClass reports whether the class is declared or appears as a property domain.
func (o *Ontology) knownClass(class string) bool {
	if _, ok := o.superclasses[class]; ok {
		return true
	}
	_, ok := o.byDomain[class]
	return ok
}

func isElement(n *xmlquery.Node, ns, local string) bool {
	return n.Type == xmlquery.ElementNode && n.Data == local && n.NamespaceURI == ns
}

// rdfResource reads an rdf:about or rdf:resource style attribute.
func rdfResource(n *xmlquery.Node, local string) string {
	for _, attr := range n.Attr {
		if attr.Name.Local == local &&
			(attr.NamespaceURI == rdfNS || attr.Name.Space == rdfNS || attr.Name.Space == "rdf" || attr.Name.Space == "") {
			return attr.Value
		}
	}
	return ""
}

func descendants(n *xmlquery.Node) []*xmlquery.Node {
	var out []*xmlquery.Node
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != xmlquery.ElementNode {
			continue
		}
		out = append(out, child)
		out = append(out, descendants(child)...)
	}
	return out
}
