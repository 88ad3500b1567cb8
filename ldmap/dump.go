package ldmap

import (
	"fmt"
	"reflect"
	"time"
)

// Dump serializes an instance to a JSON-LD node, or to a flat array of nodes
// cross-referenced by @id when the schema is flattened.
func (s *Schema) Dump(instance interface{}) (interface{}, error) {
	if s.flattened {
		st := newDumpState()
		if _, err := st.emit(instance, s); err != nil {
			return nil, err
		}
		return st.nodes, nil
	}
	st := newDumpState()
	return st.dumpInline(instance, s)
}

// DumpAll serializes a finite ordered sequence of instances, producing one
// Dump result per instance.
func (s *Schema) DumpAll(instances interface{}) ([]interface{}, error) {
	v := reflect.ValueOf(instances)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil, fmt.Errorf("ldmap: DumpAll expects a slice, got %T", instances)
	}
	out := make([]interface{}, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		node, err := s.Dump(v.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		out = append(out, node)
	}
	return out, nil
}

type dumpState struct {
	// visiting guards against reference cycles in non-flattened dumps,
	// keyed by pointer identity.
	visiting map[uintptr]bool

	// flattened output, in first-visit order.
	nodes []Node
	byID  map[string]Node
	// ids assigns stable identifiers per pointer identity within one dump.
	ids map[uintptr]string
}

func newDumpState() *dumpState {
	return &dumpState{
		visiting: make(map[uintptr]bool),
		byID:     make(map[string]Node),
		ids:      make(map[uintptr]string),
	}
}

// pointerKey returns an identity key for pointer instances. Value instances
// have no identity and cannot participate in cycles.
func pointerKey(instance interface{}) (uintptr, bool) {
	v := reflect.ValueOf(instance)
	if v.Kind() == reflect.Ptr && !v.IsNil() {
		return v.Pointer(), true
	}
	return 0, false
}

// dumpInline builds a single node with nested nodes inlined, failing fast on
// reference cycles.
func (st *dumpState) dumpInline(instance interface{}, schema *Schema) (Node, error) {
	if key, ok := pointerKey(instance); ok {
		if st.visiting[key] {
			return nil, ErrCycle
		}
		st.visiting[key] = true
		defer delete(st.visiting, key)
	}

	v, err := schema.instanceValue(instance)
	if err != nil {
		return nil, err
	}

	node := Node{}
	for _, b := range schema.bindings {
		if b.isID() {
			id, err := st.instanceID(instance, v, schema, b, false)
			if err != nil {
				return nil, err
			}
			if id != "" {
				node["@id"] = id
			}
			continue
		}
		value := v.FieldByName(b.attr)
		if skipOnDump(value) {
			continue
		}
		raw, err := st.serializeValue(schema, b, b.field, value.Interface(), false)
		if err != nil {
			return nil, err
		}
		if raw == nil {
			continue
		}
		if b.reverse {
			reverse, _ := node["@reverse"].(Node)
			if reverse == nil {
				reverse = Node{}
				node["@reverse"] = reverse
			}
			reverse[b.field.Predicate()] = raw
		} else {
			node[b.field.Predicate()] = raw
		}
	}
	node["@type"] = schema.RDFTypes()
	return node, nil
}

// emit serializes an instance as a top-level flattened node, returning its id.
// Nested instances are emitted as separate nodes referenced by @id, so shared
// references and cycles are preserved.
func (st *dumpState) emit(instance interface{}, schema *Schema) (string, error) {
	if ref, ok := instance.(*Ref); ok {
		resolved, err := ref.Resolve()
		if err != nil {
			return "", err
		}
		instance = resolved
	}

	key, hasKey := pointerKey(instance)
	if hasKey {
		if id, ok := st.ids[key]; ok {
			return id, nil
		}
	}

	v, err := schema.instanceValue(instance)
	if err != nil {
		return "", err
	}

	id, err := st.instanceID(instance, v, schema, schema.idBinding, true)
	if err != nil {
		return "", err
	}
	if hasKey {
		st.ids[key] = id
	}
	if existing, ok := st.byID[id]; ok && existing != nil {
		return id, nil
	}

	node := Node{"@id": id}
	st.nodes = append(st.nodes, node)
	st.byID[id] = node

	for _, b := range schema.bindings {
		if b.isID() {
			continue
		}
		value := v.FieldByName(b.attr)
		if skipOnDump(value) {
			continue
		}
		raw, err := st.serializeValue(schema, b, b.field, value.Interface(), true)
		if err != nil {
			return "", err
		}
		if raw == nil {
			continue
		}
		if b.reverse {
			// Flattened form has no @reverse: the child node carries the
			// predicate pointing back at this node instead.
			if err := st.linkReverse(b.field.Predicate(), id, raw); err != nil {
				return "", err
			}
		} else {
			node[b.field.Predicate()] = raw
		}
	}
	node["@type"] = schema.RDFTypes()
	return id, nil
}

// linkReverse adds predicate -> parent references on already-emitted child nodes.
func (st *dumpState) linkReverse(predicate, parentID string, raw interface{}) error {
	refs, ok := raw.([]interface{})
	if !ok {
		refs = []interface{}{raw}
	}
	for _, r := range refs {
		childRef, ok := asNode(r)
		if !ok {
			return fmt.Errorf("ldmap: reverse binding %s produced a non-node value %T", predicate, r)
		}
		child := st.byID[childRef.ID()]
		if child == nil {
			return &UnresolvedReferenceError{ID: childRef.ID()}
		}
		existing, _ := child[predicate].([]interface{})
		child[predicate] = append(existing, Node{"@id": parentID})
	}
	return nil
}

// instanceID resolves the identifier for an instance: the declared id binding
// value if set, otherwise the schema's generation strategy. In flattened form
// every node needs a resolvable id, so a blank node id is generated as a last
// resort.
func (st *dumpState) instanceID(instance interface{}, v reflect.Value, schema *Schema, b *Binding, needID bool) (string, error) {
	if b != nil {
		raw, err := b.field.Serialize(v.FieldByName(b.attr).Interface())
		if err != nil {
			return "", err
		}
		if id, ok := raw.(string); ok && id != "" {
			return id, nil
		}
	}
	if schema.idGen != nil {
		return schema.idGen.NewID(instance), nil
	}
	if needID {
		return BlankNodeGenerator().NewID(instance), nil
	}
	return "", nil
}

// serializeValue converts one binding value, dispatching nested and list
// fields through the dump state.
func (st *dumpState) serializeValue(schema *Schema, b *Binding, f Field, value interface{}, flattened bool) (interface{}, error) {
	switch field := f.(type) {
	case *nestedField:
		if b.many {
			v := reflect.ValueOf(value)
			if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
				return nil, fmt.Errorf("ldmap: binding %s declared Many but value is %T", b.attr, value)
			}
			out := make([]interface{}, 0, v.Len())
			for i := 0; i < v.Len(); i++ {
				item, err := st.serializeNested(field, v.Index(i).Interface(), flattened)
				if err != nil {
					return nil, err
				}
				out = append(out, item)
			}
			return out, nil
		}
		if v := reflect.ValueOf(value); v.Kind() == reflect.Slice {
			return nil, fmt.Errorf("ldmap: expected single value for binding %s but got a collection", b.attr)
		}
		return st.serializeNested(field, value, flattened)

	case *listField:
		v := reflect.ValueOf(value)
		if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
			return nil, fmt.Errorf("ldmap: list binding %s expects a slice, got %T", b.attr, value)
		}
		out := make([]interface{}, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			item, err := st.serializeValue(schema, b, field.inner, v.Index(i).Interface(), flattened)
			if err != nil {
				return nil, err
			}
			out = append(out, item)
		}
		if b.ordered {
			return Node{"@list": out}, nil
		}
		return out, nil

	default:
		raw, err := f.Serialize(value)
		if err != nil {
			return nil, err
		}
		if typed, ok := f.(datatypeField); ok && (schema.addValueTypes || b.valueType) {
			return Node{"@value": raw, "@type": typed.datatype()}, nil
		}
		return raw, nil
	}
}

// serializeNested dumps one nested instance, selecting the candidate schema
// matching the instance's model type.
func (st *dumpState) serializeNested(f *nestedField, instance interface{}, flattened bool) (interface{}, error) {
	if ref, ok := instance.(*Ref); ok {
		resolved, err := ref.Resolve()
		if err != nil {
			return nil, err
		}
		instance = resolved
	}

	var selected *Schema
	for _, candidate := range f.schemas() {
		if candidate.matchesModel(instance) {
			selected = candidate
			break
		}
	}
	if selected == nil {
		return nil, fmt.Errorf("ldmap: no candidate schema for type %T on predicate %s",
			instance, f.predicate)
	}

	if flattened {
		id, err := st.emit(instance, selected)
		if err != nil {
			return nil, err
		}
		return Node{"@id": id}, nil
	}
	return st.dumpInline(instance, selected)
}

// skipOnDump reports whether an attribute value is absent and should be
// omitted from the node.
func skipOnDump(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map:
		if v.IsNil() {
			return true
		}
	}
	if t, ok := v.Interface().(time.Time); ok && t.IsZero() {
		return true
	}
	return false
}
