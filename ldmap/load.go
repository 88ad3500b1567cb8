package ldmap

import (
	"fmt"
	"reflect"
	"sort"
)

// Load deserializes a JSON-LD document into an instance of the schema's
// model. Compacted input (carrying an @context) is expanded through the
// JSON-LD processor first; flattened input is resolved by @id.
func (s *Schema) Load(doc interface{}) (interface{}, error) {
	expanded, err := expandDocument(doc)
	if err != nil {
		return nil, err
	}

	st := &loadState{flattened: s.flattened, lazy: s.lazy}

	if s.flattened {
		roots, err := st.collectRoots(s, expanded)
		if err != nil {
			return nil, err
		}
		if len(roots) != 1 {
			return nil, fmt.Errorf("ldmap: expected one root node of type %v, found %d (use LoadAll)",
				s.rdfTypes, len(roots))
		}
		return st.loadNode(s, roots[0])
	}

	if list, ok := expanded.([]interface{}); ok {
		if len(list) != 1 {
			return nil, fmt.Errorf("ldmap: expected single node, got %d (use LoadAll)", len(list))
		}
		expanded = list[0]
	}
	node, ok := asNode(expanded)
	if !ok {
		return nil, fmt.Errorf("ldmap: expected node object, got %T", expanded)
	}
	return st.loadNode(s, node)
}

// LoadAll deserializes a document containing a sequence of nodes, returning
// one instance per root node.
func (s *Schema) LoadAll(doc interface{}) ([]interface{}, error) {
	expanded, err := expandDocument(doc)
	if err != nil {
		return nil, err
	}

	st := &loadState{flattened: s.flattened, lazy: s.lazy}

	var roots []Node
	if s.flattened {
		roots, err = st.collectRoots(s, expanded)
		if err != nil {
			return nil, err
		}
	} else {
		list, ok := expanded.([]interface{})
		if !ok {
			if nodes, isNodes := expanded.([]Node); isNodes {
				list = make([]interface{}, len(nodes))
				for i, n := range nodes {
					list[i] = n
				}
			} else {
				list = []interface{}{expanded}
			}
		}
		for _, item := range list {
			node, ok := asNode(item)
			if !ok {
				return nil, fmt.Errorf("ldmap: expected node object, got %T", item)
			}
			roots = append(roots, node)
		}
	}

	out := make([]interface{}, 0, len(roots))
	for _, node := range roots {
		instance, err := st.loadNode(s, node)
		if err != nil {
			return nil, err
		}
		out = append(out, instance)
	}
	return out, nil
}

type loadState struct {
	flattened bool
	lazy      bool
	// allObjects indexes every node of a flattened document by @id.
	allObjects map[string]Node
}

// collectRoots indexes a flattened document by @id and returns the nodes
// whose @type set equals the schema's rdf_type set.
func (st *loadState) collectRoots(s *Schema, expanded interface{}) ([]Node, error) {
	list, ok := expanded.([]interface{})
	if !ok {
		if nodes, isNodes := expanded.([]Node); isNodes {
			list = make([]interface{}, len(nodes))
			for i, n := range nodes {
				list[i] = n
			}
		} else {
			// A flattened document with a single node is a plain node object.
			node, ok := asNode(expanded)
			if !ok {
				return nil, fmt.Errorf("ldmap: expected flattened node array, got %T", expanded)
			}
			list = []interface{}{node}
		}
	}

	st.allObjects = make(map[string]Node, len(list))
	var roots []Node
	for _, item := range list {
		node, ok := asNode(item)
		if !ok {
			return nil, fmt.Errorf("ldmap: expected node object, got %T", item)
		}
		if id := node.ID(); id != "" {
			st.allObjects[id] = node
		}
		if typesEqual(node.Types(), s.rdfTypes) {
			roots = append(roots, node)
		}
	}
	return roots, nil
}

// loadNode reconstructs a model instance from one expanded node.
func (st *loadState) loadNode(s *Schema, node Node) (interface{}, error) {
	ptr := reflect.New(s.model)
	elem := ptr.Elem()

	for _, b := range s.bindings {
		var raw interface{}
		var present bool

		if b.isID() {
			raw, present = node["@id"]
		} else if b.reverse {
			raw, present = st.reverseValue(node, b.field.Predicate())
		} else {
			raw, present = node[b.field.Predicate()]
		}

		if !present {
			if b.required {
				pred := b.field.Predicate()
				if b.isID() {
					pred = "@id"
				}
				return nil, &RequiredFieldError{Predicate: pred, NodeID: node.ID()}
			}
			if b.hasDefault {
				def := b.def
				if b.defFunc != nil {
					def = b.defFunc()
				}
				if err := assignValue(elem.FieldByName(b.loadName()), def); err != nil {
					return nil, fmt.Errorf("ldmap: default for %s: %w", b.attr, err)
				}
			}
			continue
		}

		value, err := st.deserializeValue(b, b.field, raw)
		if err != nil {
			return nil, err
		}
		if err := assignValue(elem.FieldByName(b.loadName()), value); err != nil {
			return nil, fmt.Errorf("ldmap: field %s of %s: %w", b.loadName(), s.model.Name(), err)
		}
	}

	if s.wantPtr {
		return ptr.Interface(), nil
	}
	return elem.Interface(), nil
}

// reverseValue extracts a reverse binding's raw value: from the node's
// @reverse map, or, for flattened input, by searching the node table for
// nodes referencing this one through the predicate.
func (st *loadState) reverseValue(node Node, predicate string) (interface{}, bool) {
	if reverse, ok := asNode(node["@reverse"]); ok {
		if raw, ok := reverse[predicate]; ok {
			return raw, true
		}
	}
	if !st.flattened || node.ID() == "" {
		return nil, false
	}

	// Scan in @id order so reverse collections load reproducibly.
	candidateIDs := make([]string, 0, len(st.allObjects))
	for id := range st.allObjects {
		candidateIDs = append(candidateIDs, id)
	}
	sort.Strings(candidateIDs)

	var children []interface{}
	for _, candidateID := range candidateIDs {
		candidate := st.allObjects[candidateID]
		raw, ok := candidate[predicate]
		if !ok {
			continue
		}
		ids, err := normalizeIDs(raw)
		if err != nil {
			continue
		}
		for _, id := range ids {
			if id == node.ID() {
				// The child carries the back reference; drop it so the
				// child does not try to load it as its own property.
				child := make(Node, len(candidate))
				for k, v := range candidate {
					if k != predicate {
						child[k] = v
					}
				}
				children = append(children, child)
				break
			}
		}
	}
	if len(children) == 0 {
		return nil, false
	}
	return children, true
}

// deserializeValue converts one raw predicate value, dispatching nested and
// list fields through the load state.
func (st *loadState) deserializeValue(b *Binding, f Field, raw interface{}) (interface{}, error) {
	switch field := f.(type) {
	case *nestedField:
		if b.many {
			list, ok := raw.([]interface{})
			if !ok {
				list = []interface{}{raw}
			}
			out := make([]interface{}, 0, len(list))
			for _, item := range list {
				value, err := st.loadNested(field, item)
				if err != nil {
					return nil, err
				}
				out = append(out, value)
			}
			return out, nil
		}
		if list, ok := raw.([]interface{}); ok {
			// Single values can be single element lists in JSON-LD.
			if len(list) > 1 {
				return nil, fmt.Errorf("ldmap: got multiple values for nested binding %s but Many is not set", b.attr)
			}
			if len(list) == 0 {
				return nil, nil
			}
			raw = list[0]
		}
		return st.loadNested(field, raw)

	case *listField:
		if wrapper, ok := asNode(raw); ok {
			if inner, ok := wrapper["@list"]; ok {
				raw = inner
			}
		}
		list, ok := raw.([]interface{})
		if !ok {
			// Singleton tolerance: a lone value is a list of one.
			list = []interface{}{raw}
		}
		out := make([]interface{}, 0, len(list))
		for _, item := range list {
			value, err := st.deserializeValue(b, field.inner, item)
			if err != nil {
				return nil, err
			}
			out = append(out, value)
		}
		return out, nil

	default:
		return f.Deserialize(normalizeValue(raw))
	}
}

// loadNested materializes (or lazily wraps) one nested node, selecting the
// first candidate schema whose rdf_type intersects the node's @type set.
func (st *loadState) loadNested(f *nestedField, raw interface{}) (interface{}, error) {
	if st.flattened {
		var err error
		raw, err = st.dereference(raw)
		if err != nil {
			return nil, err
		}
	}

	node, ok := asNode(raw)
	if !ok {
		return nil, fmt.Errorf("ldmap: nested value must be a node object, got %T", raw)
	}

	types := node.Types()
	var selected *Schema
	for _, candidate := range f.schemas() {
		if typesIntersect(candidate.rdfTypes, types) {
			selected = candidate
			break
		}
	}
	if selected == nil {
		return nil, &TypeResolutionError{NodeID: node.ID(), Types: types}
	}

	if st.lazy {
		return newRef(node, selected, func() (interface{}, error) {
			return st.loadNode(selected, node)
		}), nil
	}
	return st.loadNode(selected, node)
}

// dereference resolves @id cross-references of a flattened document to their
// full nodes.
func (st *loadState) dereference(raw interface{}) (interface{}, error) {
	switch value := raw.(type) {
	case string:
		return st.dereferenceID(value)
	case []interface{}:
		if len(value) == 1 {
			return st.dereference(value[0])
		}
		return nil, fmt.Errorf("ldmap: got multiple values for nested reference")
	default:
		node, ok := asNode(raw)
		if !ok {
			return nil, fmt.Errorf("ldmap: nested reference must be a node or an id, got %T", raw)
		}
		// A pure reference node carries only @id; anything richer is
		// already the full node.
		if len(node) == 1 && node.ID() != "" {
			return st.dereferenceID(node.ID())
		}
		return node, nil
	}
}

func (st *loadState) dereferenceID(id string) (Node, error) {
	node, ok := st.allObjects[id]
	if !ok {
		return nil, &UnresolvedReferenceError{ID: id}
	}
	return node, nil
}

// assignValue stores a deserialized value into a struct field, converting
// shapes where needed (numeric widths, slices, pointers, lazy references).
func assignValue(dst reflect.Value, v interface{}) error {
	if !dst.IsValid() {
		return fmt.Errorf("no such field")
	}
	if !dst.CanSet() {
		return fmt.Errorf("field is not settable")
	}
	if v == nil {
		return nil
	}

	sv := reflect.ValueOf(v)

	// Lazy references assign as-is when the field can hold them; otherwise
	// they are forced eagerly.
	if ref, ok := v.(*Ref); ok {
		if sv.Type().AssignableTo(dst.Type()) {
			dst.Set(sv)
			return nil
		}
		resolved, err := ref.Resolve()
		if err != nil {
			return err
		}
		return assignValue(dst, resolved)
	}

	if sv.Type().AssignableTo(dst.Type()) {
		dst.Set(sv)
		return nil
	}

	switch dst.Kind() {
	case reflect.Ptr:
		if sv.Kind() != reflect.Ptr {
			ptr := reflect.New(dst.Type().Elem())
			if err := assignValue(ptr.Elem(), v); err != nil {
				return err
			}
			dst.Set(ptr)
			return nil
		}
		return assignValue(dst, sv.Elem().Interface())
	case reflect.Slice:
		list, ok := v.([]interface{})
		if !ok {
			list = []interface{}{v}
		}
		out := reflect.MakeSlice(dst.Type(), len(list), len(list))
		for i, item := range list {
			if err := assignValue(out.Index(i), item); err != nil {
				return err
			}
		}
		dst.Set(out)
		return nil
	case reflect.Interface:
		dst.Set(sv)
		return nil
	}

	if sv.Kind() == reflect.Ptr {
		return assignValue(dst, sv.Elem().Interface())
	}
	if sv.Type().ConvertibleTo(dst.Type()) &&
		isScalarKind(sv.Kind()) && isScalarKind(dst.Kind()) {
		dst.Set(sv.Convert(dst.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", v, dst.Type())
}

func isScalarKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.String, reflect.Bool:
		return true
	}
	return false
}
