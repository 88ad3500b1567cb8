package ldmap

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// Registry maps rdf_type IRIs to candidate schemas for polymorphic
// resolution. Registration order is the tie-break when several schemas
// match a node's @type set.
//
// A Registry is populated at configuration time and read thereafter.
// Registration from multiple goroutines is serialized internally, but the
// intended usage is register-then-read.
type Registry struct {
	mu      sync.RWMutex
	ordered []*Schema
	byType  map[string][]*Schema
	byModel map[reflect.Type]*Schema
}

// NewRegistry creates an empty schema registry.
func NewRegistry() *Registry {
	return &Registry{
		byType:  make(map[string][]*Schema),
		byModel: make(map[reflect.Type]*Schema),
	}
}

// Register adds schemas to the registry in the given order.
func (r *Registry) Register(schemas ...*Schema) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range schemas {
		if s == nil {
			return fmt.Errorf("%w: nil schema", ErrInvalidSchema)
		}
		r.ordered = append(r.ordered, s)
		for _, t := range s.rdfTypes {
			r.byType[t] = append(r.byType[t], s)
		}
		if _, ok := r.byModel[s.model]; !ok {
			r.byModel[s.model] = s
		}
	}
	return nil
}

// SchemasFor returns the schemas declared for an rdf_type IRI, in
// registration order.
func (r *Registry) SchemasFor(rdfType string) []*Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Schema(nil), r.byType[rdfType]...)
}

// SchemaForModel returns the first registered schema for the dynamic type of
// model (a struct or pointer to struct).
func (r *Registry) SchemaForModel(model interface{}) (*Schema, error) {
	t := reflect.TypeOf(model)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byModel[t]
	if !ok {
		return nil, fmt.Errorf("%w: no schema for model %v", ErrNotRegistered, t)
	}
	return s, nil
}

// resolve returns the first registered schema whose rdf_type set intersects
// the given @type set.
func (r *Registry) resolve(types []string) (*Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.ordered {
		if typesIntersect(s.rdfTypes, types) {
			return s, nil
		}
	}
	return nil, &TypeResolutionError{Types: types}
}

// Load deserializes a document whose root schema is resolved polymorphically
// from the node's @type set against the registered schemas, in registration
// order.
func (r *Registry) Load(doc interface{}) (interface{}, error) {
	expanded, err := expandDocument(doc)
	if err != nil {
		return nil, err
	}

	switch value := expanded.(type) {
	case []interface{}:
		if len(value) == 1 {
			return r.loadNode(value[0])
		}
		out := make([]interface{}, 0, len(value))
		for _, item := range value {
			instance, err := r.loadNode(item)
			if err != nil {
				return nil, err
			}
			out = append(out, instance)
		}
		return out, nil
	default:
		return r.loadNode(expanded)
	}
}

func (r *Registry) loadNode(raw interface{}) (interface{}, error) {
	node, ok := asNode(raw)
	if !ok {
		return nil, fmt.Errorf("ldmap: expected node object, got %T", raw)
	}
	schema, err := r.resolve(node.Types())
	if err != nil {
		var typeErr *TypeResolutionError
		if errors.As(err, &typeErr) {
			typeErr.NodeID = node.ID()
		}
		return nil, err
	}
	return schema.Load(node)
}
