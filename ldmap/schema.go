package ldmap

import (
	"fmt"
	"reflect"
	"sort"
)

// Binding associates an attribute of the object model with a field converter
// and its per-binding options.
type Binding struct {
	attr       string
	field      Field
	required   bool
	hasDefault bool
	def        interface{}
	defFunc    func() interface{}
	initName   string
	reverse    bool
	many       bool
	ordered    bool
	valueType  bool
}

// BindOption configures a single field binding.
type BindOption func(*Binding)

// Required marks the binding's predicate as required on load.
func Required() BindOption {
	return func(b *Binding) { b.required = true }
}

// Default sets a value applied on load when the predicate is absent.
func Default(v interface{}) BindOption {
	return func(b *Binding) {
		b.hasDefault = true
		b.def = v
	}
}

// DefaultFunc sets a default-producing function applied on load when the
// predicate is absent.
func DefaultFunc(fn func() interface{}) BindOption {
	return func(b *Binding) {
		b.hasDefault = true
		b.defFunc = fn
	}
}

// InitName overrides the struct field populated on load when it differs from
// the attribute name read on dump.
func InitName(name string) BindOption {
	return func(b *Binding) { b.initName = name }
}

// Reverse marks a nested binding as a reverse relation, emitted under the
// node's @reverse map.
func Reverse() BindOption {
	return func(b *Binding) { b.reverse = true }
}

// Many marks a nested binding as holding a collection of values.
func Many() BindOption {
	return func(b *Binding) { b.many = true }
}

// Ordered marks a list binding as order-preserving via the @list keyword.
//
// The JSON-LD flattening algorithm does not merge @list entries when merging
// nodes, so ordered lists on nodes reachable from multiple places in a
// flattened graph do not round-trip.
func Ordered() BindOption {
	return func(b *Binding) { b.ordered = true }
}

// WithValueType emits this binding's scalar values as
// {"@value": v, "@type": xsd-IRI} objects.
func WithValueType() BindOption {
	return func(b *Binding) { b.valueType = true }
}

// Bind declares a field binding for the named attribute of the model struct.
func Bind(attr string, field Field, opts ...BindOption) *Binding {
	b := &Binding{attr: attr, field: field}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attr returns the attribute name the binding reads on dump.
func (b *Binding) Attr() string { return b.attr }

// Field returns the binding's field converter.
func (b *Binding) Field() Field { return b.field }

// loadName returns the struct field name populated on load.
func (b *Binding) loadName() string {
	if b.initName != "" {
		return b.initName
	}
	return b.attr
}

// isID reports whether the binding is an identifier binding.
func (b *Binding) isID() bool {
	_, ok := b.field.(*idField)
	return ok
}

// IDGenerator produces a node identifier for an instance that supplies none.
type IDGenerator interface {
	NewID(model interface{}) string
}

// IDGeneratorFunc adapts a function to the IDGenerator interface.
type IDGeneratorFunc func(model interface{}) string

// NewID calls f.
func (f IDGeneratorFunc) NewID(model interface{}) string { return f(model) }

// Schema declares how a model type maps to JSON-LD nodes of a given rdf_type.
// A Schema is immutable once constructed.
type Schema struct {
	rdfTypes      []string
	model         reflect.Type // struct type, pointer stripped
	wantPtr       bool         // load produces *T instead of T
	bindings      []*Binding
	idBinding     *Binding
	flattened     bool
	lazy          bool
	addValueTypes bool
	idGen         IDGenerator
}

// SchemaOption configures a schema declaration.
type SchemaOption func(*Schema)

// Flattened makes the schema dump and load the JSON-LD flattened form:
// a flat array of nodes cross-referenced by @id.
func Flattened() SchemaOption {
	return func(s *Schema) { s.flattened = true }
}

// Lazy defers materialization of nested instances to first access,
// wrapping them in Ref values.
func Lazy() SchemaOption {
	return func(s *Schema) { s.lazy = true }
}

// AddValueTypes emits all scalar values as {"@value": v, "@type": xsd-IRI}
// objects.
func AddValueTypes() SchemaOption {
	return func(s *Schema) { s.addValueTypes = true }
}

// WithIDGenerator sets the identifier generation strategy used when an
// instance supplies no identifier. Generated identifiers are not stable
// across repeated dumps.
func WithIDGenerator(g IDGenerator) SchemaOption {
	return func(s *Schema) { s.idGen = g }
}

// WithRDFTypes adds additional rdf_type IRIs to the schema's type set.
func WithRDFTypes(refs ...IRIRef) SchemaOption {
	return func(s *Schema) {
		for _, ref := range refs {
			s.rdfTypes = append(s.rdfTypes, ref.String())
		}
	}
}

// Extends inherits the bindings and rdf_type sets of the given parent
// schemas. A child binding with the same attribute name overrides the
// inherited one.
func Extends(parents ...*Schema) SchemaOption {
	return func(s *Schema) {
		var inherited []*Binding
		for _, parent := range parents {
			s.rdfTypes = append(s.rdfTypes, parent.rdfTypes...)
			for _, b := range parent.bindings {
				inherited = append(inherited, b)
			}
		}
		inherited = append(inherited, s.bindings...)
		s.bindings = dedupeBindings(inherited)
	}
}

// dedupeBindings keeps the last binding per attribute name, preserving the
// position of the first occurrence.
func dedupeBindings(bindings []*Binding) []*Binding {
	byAttr := make(map[string]*Binding, len(bindings))
	for _, b := range bindings {
		byAttr[b.attr] = b
	}
	seen := make(map[string]bool, len(bindings))
	out := make([]*Binding, 0, len(byAttr))
	for _, b := range bindings {
		if seen[b.attr] {
			continue
		}
		seen[b.attr] = true
		out = append(out, byAttr[b.attr])
	}
	return out
}

// NewSchema declares a schema mapping the model type (a struct or pointer to
// struct value used as a type witness) to nodes of the given rdf_type.
func NewSchema(model interface{}, rdfType IRIRef, bindings []*Binding, opts ...SchemaOption) (*Schema, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: model must not be nil", ErrInvalidSchema)
	}

	t := reflect.TypeOf(model)
	wantPtr := false
	if t.Kind() == reflect.Ptr {
		wantPtr = true
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: model must be a struct type, got %s", ErrInvalidSchema, t.Kind())
	}

	s := &Schema{
		model:    t,
		wantPtr:  wantPtr,
		bindings: bindings,
	}
	if !rdfType.IsZero() {
		s.rdfTypes = []string{rdfType.String()}
	}
	for _, opt := range opts {
		opt(s)
	}

	if len(s.rdfTypes) == 0 {
		return nil, fmt.Errorf("%w: rdf_type must be set for model %s", ErrInvalidSchema, t.Name())
	}
	s.rdfTypes = sortedTypeSet(s.rdfTypes)

	seen := map[string][]string{}
	for _, b := range s.bindings {
		if b.isID() {
			if s.idBinding != nil {
				return nil, fmt.Errorf("%w: multiple identifier bindings on %s", ErrInvalidSchema, t.Name())
			}
			s.idBinding = b
			continue
		}
		pred := b.field.Predicate()
		if pred == "" {
			return nil, fmt.Errorf("%w: binding %s has no predicate", ErrInvalidSchema, b.attr)
		}
		seen[pred] = append(seen[pred], b.attr)
	}
	for pred, attrs := range seen {
		if len(attrs) > 1 {
			return nil, &DuplicatePredicateError{Predicate: pred, Attrs: attrs}
		}
	}

	for _, b := range s.bindings {
		if _, ok := t.FieldByName(b.attr); !ok {
			return nil, fmt.Errorf("%w: model %s has no field %s", ErrInvalidSchema, t.Name(), b.attr)
		}
		if b.initName != "" {
			if _, ok := t.FieldByName(b.initName); !ok {
				return nil, fmt.Errorf("%w: model %s has no field %s (init name of %s)",
					ErrInvalidSchema, t.Name(), b.initName, b.attr)
			}
		}
	}

	return s, nil
}

// sortedTypeSet sorts and deduplicates a type IRI list.
func sortedTypeSet(types []string) []string {
	set := make(map[string]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// RDFTypes returns the schema's rdf_type IRI set, sorted.
func (s *Schema) RDFTypes() []string {
	return append([]string(nil), s.rdfTypes...)
}

// Model returns the struct type the schema maps.
func (s *Schema) Model() reflect.Type { return s.model }

// Bindings returns the schema's field bindings in declaration order.
func (s *Schema) Bindings() []*Binding {
	return append([]*Binding(nil), s.bindings...)
}

// instanceValue unwraps an instance to its struct value, resolving lazy
// references and pointers.
func (s *Schema) instanceValue(instance interface{}) (reflect.Value, error) {
	if ref, ok := instance.(*Ref); ok {
		resolved, err := ref.Resolve()
		if err != nil {
			return reflect.Value{}, err
		}
		instance = resolved
	}
	v := reflect.ValueOf(instance)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return reflect.Value{}, fmt.Errorf("ldmap: nil instance for schema %s", s.model.Name())
		}
		v = v.Elem()
	}
	if v.Type() != s.model {
		return reflect.Value{}, fmt.Errorf("ldmap: instance type %s does not match schema model %s",
			v.Type(), s.model.Name())
	}
	return v, nil
}

// matchesModel reports whether the schema maps the dynamic type of instance.
func (s *Schema) matchesModel(instance interface{}) bool {
	t := reflect.TypeOf(instance)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t == s.model
}
