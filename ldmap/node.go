package ldmap

import (
	"fmt"
	"sort"
)

// Node is a JSON-LD node object: a mapping from predicate IRI (or @id/@type)
// to a literal value, a list of values, or a nested node.
type Node map[string]interface{}

// ID returns the node's @id, or the empty string if it has none.
func (n Node) ID() string {
	id, _ := n["@id"].(string)
	return id
}

// Types returns the node's @type set as a sorted list of strings.
func (n Node) Types() []string {
	return normalizeTypes(n["@type"])
}

// asNode converts a raw decoded value to a Node without copying.
func asNode(v interface{}) (Node, bool) {
	switch m := v.(type) {
	case Node:
		return m, true
	case map[string]interface{}:
		return Node(m), true
	}
	return nil, false
}

// normalizeIDs turns a JSON-LD id reference (string, node, or list of either)
// into a list of id strings.
func normalizeIDs(v interface{}) ([]string, error) {
	switch value := v.(type) {
	case string:
		return []string{value}, nil
	case IRIRef:
		return []string{value.String()}, nil
	case []interface{}:
		var ids []string
		for _, item := range value {
			sub, err := normalizeIDs(item)
			if err != nil {
				return nil, err
			}
			ids = append(ids, sub...)
		}
		return ids, nil
	default:
		if node, ok := asNode(v); ok {
			id := node.ID()
			if id == "" {
				return nil, fmt.Errorf("ldmap: no @id found in id object")
			}
			return []string{id}, nil
		}
		return []string{fmt.Sprint(v)}, nil
	}
}

// normalizeTypes normalizes an @type reference to a sorted list of IRI strings.
func normalizeTypes(v interface{}) []string {
	var types []string
	switch value := v.(type) {
	case nil:
		return nil
	case string:
		types = []string{value}
	case IRIRef:
		types = []string{value.String()}
	case []string:
		types = append(types, value...)
	case []interface{}:
		for _, item := range value {
			types = append(types, normalizeTypes(item)...)
		}
	default:
		types = []string{fmt.Sprint(v)}
	}
	sort.Strings(types)
	return types
}

// normalizeValue unwraps a JSON-LD value object to a plain value.
// Single-element lists collapse to their element; {"@value": v} unwraps to v.
func normalizeValue(v interface{}) interface{} {
	if list, ok := v.([]interface{}); ok {
		if len(list) == 1 {
			return normalizeValue(list[0])
		}
		out := make([]interface{}, len(list))
		for i, item := range list {
			out[i] = normalizeValue(item)
		}
		return out
	}
	if node, ok := asNode(v); ok {
		if inner, ok := node["@value"]; ok {
			return inner
		}
	}
	return v
}

// typesIntersect reports whether two @type sets share at least one IRI.
func typesIntersect(a, b []string) bool {
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	for _, t := range b {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}

// typesEqual reports whether two @type sets contain exactly the same IRIs.
func typesEqual(a, b []string) bool {
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	seen := make(map[string]struct{}, len(b))
	for _, t := range b {
		if _, ok := set[t]; !ok {
			return false
		}
		seen[t] = struct{}{}
	}
	return len(seen) == len(set)
}
