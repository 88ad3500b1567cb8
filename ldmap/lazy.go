package ldmap

import (
	"sync"
	"sync/atomic"
)

// Ref is a lazy reference to a nested instance. It owns the raw node data and
// the schema needed to materialize the instance, and materializes exactly
// once on first access. The Unresolved to Resolved transition is guarded, so
// concurrent first access is safe.
type Ref struct {
	node   Node
	schema *Schema

	once        sync.Once
	done        atomic.Bool
	materialize func() (interface{}, error)
	value       interface{}
	err         error
}

func newRef(node Node, schema *Schema, materialize func() (interface{}, error)) *Ref {
	return &Ref{node: node, schema: schema, materialize: materialize}
}

// Resolve forces materialization and returns the instance. Subsequent calls
// return the same instance without re-parsing.
func (r *Ref) Resolve() (interface{}, error) {
	r.once.Do(func() {
		r.value, r.err = r.materialize()
		r.materialize = nil
		r.done.Store(true)
	})
	return r.value, r.err
}

// Resolved reports whether the reference has been materialized, without
// forcing it.
func (r *Ref) Resolved() bool {
	return r.done.Load()
}

// Value forces materialization and returns the instance, panicking if
// materialization fails. Use Resolve to handle errors explicitly.
func (r *Ref) Value() interface{} {
	v, err := r.Resolve()
	if err != nil {
		panic(err)
	}
	return v
}

// RawNode returns the raw node data the reference was captured with.
func (r *Ref) RawNode() Node {
	return r.node
}

// Schema returns the schema the reference materializes with.
func (r *Ref) Schema() *Schema {
	return r.schema
}
