package ldmap

import (
	"fmt"
	"sort"
)

// Partition is the result of validating a document's predicates against an
// ontology: the predicate IRIs the ontology declares for the nodes' classes,
// and the ones it does not.
type Partition struct {
	Valid   map[string]struct{}
	Invalid map[string]struct{}
}

func newPartition() Partition {
	return Partition{
		Valid:   make(map[string]struct{}),
		Invalid: make(map[string]struct{}),
	}
}

// InvalidList returns the invalid predicate IRIs, sorted.
func (p Partition) InvalidList() []string {
	out := make([]string, 0, len(p.Invalid))
	for pred := range p.Invalid {
		out = append(out, pred)
	}
	sort.Strings(out)
	return out
}

// ValidateOption configures property validation.
type ValidateOption func(*validateConfig)

type validateConfig struct {
	strict bool
}

// Strict makes validation fail with an OntologyViolationError when any
// undeclared predicate is found, instead of reporting it in the partition.
func Strict() ValidateOption {
	return func(c *validateConfig) { c.strict = true }
}

// ValidateProperties partitions the predicates used at the top level of each
// node of a document into those declared by the ontology for the node's
// asserted classes (or their superclasses) and those that are not. Nested
// nodes are not recursed into. A node with an unknown class contributes all
// its predicates to the invalid set; that is data, not an error.
func ValidateProperties(doc interface{}, ont *Ontology, opts ...ValidateOption) (Partition, error) {
	var cfg validateConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	partition := newPartition()
	nodes, err := documentNodes(doc)
	if err != nil {
		return partition, err
	}
	for _, node := range nodes {
		declared := declaredProperties(node, ont)
		for key := range node {
			if isKeyword(key) {
				continue
			}
			if _, ok := declared[key]; ok {
				partition.Valid[key] = struct{}{}
			} else {
				partition.Invalid[key] = struct{}{}
			}
		}
	}

	if cfg.strict && len(partition.Invalid) > 0 {
		return partition, &OntologyViolationError{Invalid: partition.InvalidList()}
	}
	return partition, nil
}

// FilterProperties returns a copy of the document retaining only the
// predicates the ontology declares for each node's classes. @id and @type are
// always retained. Values under retained predicates are kept as-is.
func FilterProperties(doc interface{}, ont *Ontology) (interface{}, error) {
	switch value := doc.(type) {
	case []interface{}:
		out := make([]interface{}, len(value))
		for i, item := range value {
			filtered, err := FilterProperties(item, ont)
			if err != nil {
				return nil, err
			}
			out[i] = filtered
		}
		return out, nil
	case []Node:
		out := make([]Node, len(value))
		for i, item := range value {
			filtered, err := FilterProperties(item, ont)
			if err != nil {
				return nil, err
			}
			out[i] = filtered.(Node)
		}
		return out, nil
	default:
		node, ok := asNode(doc)
		if !ok {
			return nil, fmt.Errorf("ldmap: expected node object, got %T", doc)
		}
		declared := declaredProperties(node, ont)
		filtered := make(Node, len(node))
		for key, v := range node {
			if isKeyword(key) {
				filtered[key] = v
				continue
			}
			if _, ok := declared[key]; ok {
				filtered[key] = v
			}
		}
		return filtered, nil
	}
}

// ValidateProperties dumps an instance (or passes a document through) and
// partitions its predicates against the ontology. See ValidateProperties.
func (s *Schema) ValidateProperties(v interface{}, ont *Ontology, opts ...ValidateOption) (Partition, error) {
	doc, err := s.asDocument(v)
	if err != nil {
		return newPartition(), err
	}
	return ValidateProperties(doc, ont, opts...)
}

// FilterProperties dumps an instance (or passes a document through) and
// returns a copy retaining only ontology-declared predicates.
func (s *Schema) FilterProperties(v interface{}, ont *Ontology) (interface{}, error) {
	doc, err := s.asDocument(v)
	if err != nil {
		return nil, err
	}
	return FilterProperties(doc, ont)
}

// asDocument turns a model instance into its dumped document; documents pass
// through unchanged.
func (s *Schema) asDocument(v interface{}) (interface{}, error) {
	if s.matchesModel(v) {
		return s.Dump(v)
	}
	return v, nil
}

// declaredProperties returns the union of declared properties over all
// classes the node asserts.
func declaredProperties(node Node, ont *Ontology) map[string]struct{} {
	declared := make(map[string]struct{})
	for _, class := range node.Types() {
		for p := range ont.PropertiesForClass(class) {
			declared[p] = struct{}{}
		}
	}
	return declared
}

func isKeyword(key string) bool {
	return len(key) > 0 && key[0] == '@'
}

// documentNodes flattens a document value into its list of node objects.
func documentNodes(doc interface{}) ([]Node, error) {
	switch value := doc.(type) {
	case []interface{}:
		var nodes []Node
		for _, item := range value {
			sub, err := documentNodes(item)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, sub...)
		}
		return nodes, nil
	case []Node:
		return value, nil
	default:
		node, ok := asNode(doc)
		if !ok {
			return nil, fmt.Errorf("ldmap: expected node object, got %T", doc)
		}
		return []Node{node}, nil
	}
}
