package ldmap

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// SchemaFromStruct synthesizes a schema from `ldmap` struct tags on the model
// type, producing a schema equivalent to one built with explicit bindings.
//
// Tag grammar:
//
//	`ldmap:"@id"`                            identifier field
//	`ldmap:"@blank"`                         blank node identifier field
//	`ldmap:"<predicate-IRI>[,option...]"`    predicate binding
//	`ldmap:"-"`                              ignored field
//
// Options: a field type (string, integer, float, boolean, datetime, iri,
// dict, raw, list), "required", "reverse", "many", "ordered", "valuetype"
// and "init=<FieldName>". When no type is named it is inferred from the Go
// field type. Untagged fields are ignored. Nested bindings reference schema
// values and are declared with the explicit builder instead.
func SchemaFromStruct(model interface{}, rdfType IRIRef, opts ...SchemaOption) (*Schema, error) {
	t := reflect.TypeOf(model)
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: model must be a struct type", ErrInvalidSchema)
	}

	var bindings []*Binding
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag, ok := sf.Tag.Lookup("ldmap")
		if !ok || tag == "-" || !sf.IsExported() {
			continue
		}
		b, err := bindingFromTag(sf, tag)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, b)
	}

	return NewSchema(model, rdfType, bindings, opts...)
}

func bindingFromTag(sf reflect.StructField, tag string) (*Binding, error) {
	parts := strings.Split(tag, ",")
	head := strings.TrimSpace(parts[0])

	var bindOpts []BindOption
	typeName := ""
	for _, part := range parts[1:] {
		part = strings.TrimSpace(part)
		switch {
		case part == "required":
			bindOpts = append(bindOpts, Required())
		case part == "reverse":
			bindOpts = append(bindOpts, Reverse())
		case part == "many":
			bindOpts = append(bindOpts, Many())
		case part == "ordered":
			bindOpts = append(bindOpts, Ordered())
		case part == "valuetype":
			bindOpts = append(bindOpts, WithValueType())
		case strings.HasPrefix(part, "init="):
			bindOpts = append(bindOpts, InitName(strings.TrimPrefix(part, "init=")))
		case part != "":
			typeName = part
		}
	}

	switch head {
	case "@id":
		return Bind(sf.Name, Id(), bindOpts...), nil
	case "@blank":
		return Bind(sf.Name, BlankNodeID(), bindOpts...), nil
	case "":
		return nil, fmt.Errorf("%w: empty predicate in tag on field %s", ErrInvalidSchema, sf.Name)
	}

	if err := ValidateIRI(head); err != nil {
		return nil, err
	}
	predicate := RawIRI(head)

	field, err := fieldForTag(sf.Name, sf.Type, predicate, typeName)
	if err != nil {
		return nil, err
	}
	return Bind(sf.Name, field, bindOpts...), nil
}

func fieldForTag(name string, t reflect.Type, predicate IRIRef, typeName string) (Field, error) {
	if typeName == "" {
		typeName = inferTagType(t)
	}
	switch typeName {
	case "string":
		return String(predicate), nil
	case "integer":
		return Integer(predicate), nil
	case "float":
		return Float(predicate), nil
	case "boolean":
		return Boolean(predicate), nil
	case "datetime":
		return DateTime(predicate), nil
	case "iri":
		return IRI(predicate), nil
	case "dict":
		return Dict(predicate), nil
	case "raw":
		return Raw(predicate), nil
	case "list":
		if t.Kind() != reflect.Slice && t.Kind() != reflect.Array {
			return nil, fmt.Errorf("%w: list tag on non-slice field %s", ErrInvalidSchema, name)
		}
		// Recurse on the element type so nested slices build nested lists.
		inner, err := fieldForTag(name, t.Elem(), predicate, inferTagType(t.Elem()))
		if err != nil {
			return nil, err
		}
		return List(predicate, inner), nil
	default:
		return nil, fmt.Errorf("%w: unknown field type %q on field %s", ErrInvalidSchema, typeName, name)
	}
}

var timeType = reflect.TypeOf(time.Time{})

func inferTagType(t reflect.Type) string {
	if t == timeType {
		return "datetime"
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "float"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "list"
	case reflect.Map:
		return "dict"
	default:
		return "raw"
	}
}
