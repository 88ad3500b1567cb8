package ldmap

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// XSD datatype IRIs used by the typed scalar fields.
const (
	XSDString   = "http://www.w3.org/2001/XMLSchema#string"
	XSDInteger  = "http://www.w3.org/2001/XMLSchema#integer"
	XSDFloat    = "http://www.w3.org/2001/XMLSchema#float"
	XSDBoolean  = "http://www.w3.org/2001/XMLSchema#boolean"
	XSDDateTime = "http://www.w3.org/2001/XMLSchema#dateTime"
)

// Field converts between native values and JSON-LD literal or node
// representations for a single predicate.
type Field interface {
	// Predicate returns the predicate IRI this field maps to,
	// or the empty string for identifier fields.
	Predicate() string
	// Serialize converts a native value to its JSON-LD representation.
	Serialize(v interface{}) (interface{}, error)
	// Deserialize converts a raw JSON-LD value back to a native value.
	Deserialize(raw interface{}) (interface{}, error)
}

// datatypeField is implemented by scalar fields with an xsd datatype,
// used when value typing is enabled on the schema or binding.
type datatypeField interface {
	datatype() string
}

type baseField struct {
	predicate string
}

func (f baseField) Predicate() string { return f.predicate }

// Id declares a node identifier field. It is not emitted as a predicate;
// it populates @id.
func Id() Field { return &idField{} }

// BlankNodeID declares a blank node identifier field. Like Id, but the value
// denotes a locally-scoped "_:"-prefixed identifier rather than a resolvable IRI.
func BlankNodeID() Field { return &idField{blank: true} }

type idField struct {
	baseField
	blank bool
}

func (f *idField) Serialize(v interface{}) (interface{}, error) {
	s, ok := v.(string)
	if !ok {
		return nil, &LiteralError{Datatype: XSDString, Value: v, Err: fmt.Errorf("identifier must be a string")}
	}
	if s == "" {
		return nil, nil
	}
	if f.blank && !IsBlankNodeID(s) {
		s = "_:" + s
	}
	if err := ValidateIRI(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (f *idField) Deserialize(raw interface{}) (interface{}, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	default:
		if node, ok := asNode(raw); ok {
			return node.ID(), nil
		}
		return nil, &LiteralError{Datatype: XSDString, Value: raw, Err: fmt.Errorf("identifier must be a string")}
	}
}

// String declares a string field bound to the given predicate.
func String(predicate IRIRef) Field {
	return &stringField{baseField{predicate.String()}}
}

type stringField struct{ baseField }

func (f *stringField) datatype() string { return XSDString }

func (f *stringField) Serialize(v interface{}) (interface{}, error) {
	s, ok := v.(string)
	if !ok {
		return nil, &LiteralError{Predicate: f.predicate, Datatype: XSDString, Value: v,
			Err: fmt.Errorf("expected string, got %T", v)}
	}
	return s, nil
}

func (f *stringField) Deserialize(raw interface{}) (interface{}, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, &LiteralError{Predicate: f.predicate, Datatype: XSDString, Value: raw,
			Err: fmt.Errorf("expected string, got %T", raw)}
	}
	return s, nil
}

// IRI declares a field whose value is an external IRI reference,
// serialized as an {"@id": ...} node.
func IRI(predicate IRIRef) Field {
	return &iriField{baseField{predicate.String()}}
}

type iriField struct{ baseField }

func (f *iriField) Serialize(v interface{}) (interface{}, error) {
	var s string
	switch value := v.(type) {
	case string:
		s = value
	case IRIRef:
		s = value.String()
	default:
		return nil, &LiteralError{Predicate: f.predicate, Value: v,
			Err: fmt.Errorf("expected IRI string, got %T", v)}
	}
	if err := ValidateIRI(s); err != nil {
		return nil, err
	}
	return Node{"@id": s}, nil
}

func (f *iriField) Deserialize(raw interface{}) (interface{}, error) {
	if node, ok := asNode(raw); ok {
		if id := node.ID(); id != "" {
			return id, nil
		}
	}
	if s, ok := raw.(string); ok {
		return s, nil
	}
	return nil, &LiteralError{Predicate: f.predicate, Value: raw,
		Err: fmt.Errorf("expected @id node or string, got %T", raw)}
}

// Integer declares an integer field bound to the given predicate.
func Integer(predicate IRIRef) Field {
	return &integerField{baseField{predicate.String()}}
}

type integerField struct{ baseField }

func (f *integerField) datatype() string { return XSDInteger }

func (f *integerField) Serialize(v interface{}) (interface{}, error) {
	switch value := v.(type) {
	case int:
		return int64(value), nil
	case int32:
		return int64(value), nil
	case int64:
		return value, nil
	default:
		return nil, &LiteralError{Predicate: f.predicate, Datatype: XSDInteger, Value: v,
			Err: fmt.Errorf("expected integer, got %T", v)}
	}
}

func (f *integerField) Deserialize(raw interface{}) (interface{}, error) {
	switch value := raw.(type) {
	case int:
		return int64(value), nil
	case int64:
		return value, nil
	case float64:
		i := int64(value)
		if float64(i) != value {
			return nil, &LiteralError{Predicate: f.predicate, Datatype: XSDInteger, Value: raw,
				Err: fmt.Errorf("not a whole number")}
		}
		return i, nil
	case json.Number:
		i, err := value.Int64()
		if err != nil {
			return nil, &LiteralError{Predicate: f.predicate, Datatype: XSDInteger, Value: raw, Err: err}
		}
		return i, nil
	case string:
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, &LiteralError{Predicate: f.predicate, Datatype: XSDInteger, Value: raw, Err: err}
		}
		return i, nil
	default:
		return nil, &LiteralError{Predicate: f.predicate, Datatype: XSDInteger, Value: raw,
			Err: fmt.Errorf("expected number, got %T", raw)}
	}
}

// Float declares a floating point field bound to the given predicate.
func Float(predicate IRIRef) Field {
	return &floatField{baseField{predicate.String()}}
}

type floatField struct{ baseField }

func (f *floatField) datatype() string { return XSDFloat }

func (f *floatField) Serialize(v interface{}) (interface{}, error) {
	switch value := v.(type) {
	case float32:
		return float64(value), nil
	case float64:
		return value, nil
	case int:
		return float64(value), nil
	case int64:
		return float64(value), nil
	default:
		return nil, &LiteralError{Predicate: f.predicate, Datatype: XSDFloat, Value: v,
			Err: fmt.Errorf("expected float, got %T", v)}
	}
}

func (f *floatField) Deserialize(raw interface{}) (interface{}, error) {
	switch value := raw.(type) {
	case float64:
		return value, nil
	case int64:
		return float64(value), nil
	case json.Number:
		fl, err := value.Float64()
		if err != nil {
			return nil, &LiteralError{Predicate: f.predicate, Datatype: XSDFloat, Value: raw, Err: err}
		}
		return fl, nil
	case string:
		fl, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, &LiteralError{Predicate: f.predicate, Datatype: XSDFloat, Value: raw, Err: err}
		}
		return fl, nil
	default:
		return nil, &LiteralError{Predicate: f.predicate, Datatype: XSDFloat, Value: raw,
			Err: fmt.Errorf("expected number, got %T", raw)}
	}
}

// Boolean declares a boolean field bound to the given predicate.
func Boolean(predicate IRIRef) Field {
	return &booleanField{baseField{predicate.String()}}
}

type booleanField struct{ baseField }

func (f *booleanField) datatype() string { return XSDBoolean }

func (f *booleanField) Serialize(v interface{}) (interface{}, error) {
	b, ok := v.(bool)
	if !ok {
		return nil, &LiteralError{Predicate: f.predicate, Datatype: XSDBoolean, Value: v,
			Err: fmt.Errorf("expected bool, got %T", v)}
	}
	return b, nil
}

func (f *booleanField) Deserialize(raw interface{}) (interface{}, error) {
	switch value := raw.(type) {
	case bool:
		return value, nil
	case string:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, &LiteralError{Predicate: f.predicate, Datatype: XSDBoolean, Value: raw, Err: err}
		}
		return b, nil
	default:
		return nil, &LiteralError{Predicate: f.predicate, Datatype: XSDBoolean, Value: raw,
			Err: fmt.Errorf("expected bool, got %T", raw)}
	}
}

// dateTimeFormats are the lexical forms accepted on load, tried in order.
var dateTimeFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// DateTime declares a date/time field bound to the given predicate.
// Values serialize to xsd:dateTime lexical form (RFC 3339); loading also
// accepts date-only and zone-less forms.
func DateTime(predicate IRIRef) Field {
	return &dateTimeField{baseField{predicate.String()}}
}

// Date is an alias for DateTime kept for schema readability when a binding
// holds calendar dates.
func Date(predicate IRIRef) Field { return DateTime(predicate) }

type dateTimeField struct{ baseField }

func (f *dateTimeField) datatype() string { return XSDDateTime }

func (f *dateTimeField) Serialize(v interface{}) (interface{}, error) {
	t, ok := v.(time.Time)
	if !ok {
		return nil, &LiteralError{Predicate: f.predicate, Datatype: XSDDateTime, Value: v,
			Err: fmt.Errorf("expected time.Time, got %T", v)}
	}
	return t.Format(time.RFC3339), nil
}

func (f *dateTimeField) Deserialize(raw interface{}) (interface{}, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, &LiteralError{Predicate: f.predicate, Datatype: XSDDateTime, Value: raw,
			Err: fmt.Errorf("expected string, got %T", raw)}
	}
	var lastErr error
	for _, format := range dateTimeFormats {
		t, err := time.Parse(format, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return nil, &LiteralError{Predicate: f.predicate, Datatype: XSDDateTime, Value: raw, Err: lastErr}
}

// Dict declares an opaque dictionary field. Values pass through without
// conversion; the caller is responsible for pre/post shaping.
func Dict(predicate IRIRef) Field {
	return &dictField{baseField{predicate.String()}}
}

type dictField struct{ baseField }

func (f *dictField) Serialize(v interface{}) (interface{}, error) {
	switch value := v.(type) {
	case Node:
		return map[string]interface{}(value), nil
	case map[string]interface{}:
		return value, nil
	default:
		return nil, &LiteralError{Predicate: f.predicate, Value: v,
			Err: fmt.Errorf("expected map, got %T", v)}
	}
}

func (f *dictField) Deserialize(raw interface{}) (interface{}, error) {
	if m, ok := asNode(raw); ok {
		return map[string]interface{}(m), nil
	}
	return nil, &LiteralError{Predicate: f.predicate, Value: raw,
		Err: fmt.Errorf("expected map, got %T", raw)}
}

// Raw declares a passthrough field without any conversion.
func Raw(predicate IRIRef) Field {
	return &rawField{baseField{predicate.String()}}
}

type rawField struct{ baseField }

func (f *rawField) Serialize(v interface{}) (interface{}, error)     { return v, nil }
func (f *rawField) Deserialize(raw interface{}) (interface{}, error) { return raw, nil }

// List declares an ordered list field wrapping an inner field type.
// Input order is preserved. A singleton (non-array) value deserializes as a
// list of one.
func List(predicate IRIRef, inner Field) Field {
	return &listField{baseField: baseField{predicate.String()}, inner: inner}
}

type listField struct {
	baseField
	inner Field
}

func (f *listField) Serialize(v interface{}) (interface{}, error) {
	return nil, fmt.Errorf("ldmap: list field %s requires schema context", f.predicate)
}

func (f *listField) Deserialize(raw interface{}) (interface{}, error) {
	return nil, fmt.Errorf("ldmap: list field %s requires schema context", f.predicate)
}

// Nested declares a field referencing one or more candidate schemas.
// On load, the first candidate (in the given order) whose rdf_type intersects
// the node's @type set is selected.
func Nested(predicate IRIRef, candidates ...*Schema) Field {
	return &nestedField{
		baseField:  baseField{predicate.String()},
		candidates: candidates,
	}
}

// NestedProvider declares a nested field whose candidate schemas are resolved
// lazily on first use, enabling self-referential and mutually recursive schemas.
func NestedProvider(predicate IRIRef, provide func() []*Schema) Field {
	return &nestedField{
		baseField: baseField{predicate.String()},
		provide:   provide,
	}
}

type nestedField struct {
	baseField
	candidates []*Schema
	provide    func() []*Schema
	resolve    sync.Once
}

// schemas resolves the candidate schemas, invoking the provider at most once.
// Safe for concurrent use; schemas sharing a nested field may load in
// parallel.
func (f *nestedField) schemas() []*Schema {
	f.resolve.Do(func() {
		if f.candidates == nil && f.provide != nil {
			f.candidates = f.provide()
		}
	})
	return f.candidates
}

func (f *nestedField) Serialize(v interface{}) (interface{}, error) {
	return nil, fmt.Errorf("ldmap: nested field %s requires schema context", f.predicate)
}

func (f *nestedField) Deserialize(raw interface{}) (interface{}, error) {
	return nil, fmt.Errorf("ldmap: nested field %s requires schema context", f.predicate)
}
