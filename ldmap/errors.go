package ldmap

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCode represents a programmatic error code for error handling.
type ErrorCode string

const (
	// ErrCodeTypeResolution indicates that no registered schema matched a node's @type set.
	ErrCodeTypeResolution ErrorCode = "TYPE_RESOLUTION"
	// ErrCodeRequiredField indicates that a required predicate was absent from an input node.
	ErrCodeRequiredField ErrorCode = "REQUIRED_FIELD"
	// ErrCodeInvalidLiteral indicates a literal could not be parsed per its datatype.
	ErrCodeInvalidLiteral ErrorCode = "INVALID_LITERAL"
	// ErrCodeInvalidIRI indicates an invalid IRI was encountered.
	ErrCodeInvalidIRI ErrorCode = "INVALID_IRI"
	// ErrCodeDuplicatePredicate indicates two bindings in one schema target the same predicate.
	ErrCodeDuplicatePredicate ErrorCode = "DUPLICATE_PREDICATE"
	// ErrCodeCycle indicates a reference cycle in a non-flattened dump.
	ErrCodeCycle ErrorCode = "CYCLE_DETECTED"
	// ErrCodeUnresolvedReference indicates a dangling @id reference in a flattened document.
	ErrCodeUnresolvedReference ErrorCode = "UNRESOLVED_REFERENCE"
	// ErrCodeOntologySource indicates an ontology source could not be read or parsed.
	ErrCodeOntologySource ErrorCode = "ONTOLOGY_SOURCE"
	// ErrCodeInvalidSchema indicates a schema declaration error.
	ErrCodeInvalidSchema ErrorCode = "INVALID_SCHEMA"
	// ErrCodeMappingError indicates a general mapping error.
	ErrCodeMappingError ErrorCode = "MAPPING_ERROR"
)

var (
	// ErrCycle indicates a reference cycle was detected during a non-flattened dump.
	// Cyclic object graphs are only supported in flattened form.
	ErrCycle = errors.New("ldmap: reference cycle detected; use a flattened schema for cyclic graphs")
	// ErrInvalidSchema indicates an invalid schema declaration.
	ErrInvalidSchema = errors.New("ldmap: invalid schema declaration")
	// ErrNotRegistered indicates a schema lookup against a registry that does not contain it.
	ErrNotRegistered = errors.New("ldmap: schema not registered")
)

// Code returns the error code for an error, or ErrCodeMappingError if unknown.
// Returns the empty string for nil errors.
func Code(err error) ErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrCycle):
		return ErrCodeCycle
	case errors.Is(err, ErrInvalidSchema):
		return ErrCodeInvalidSchema
	}

	var typeErr *TypeResolutionError
	if errors.As(err, &typeErr) {
		return ErrCodeTypeResolution
	}
	var reqErr *RequiredFieldError
	if errors.As(err, &reqErr) {
		return ErrCodeRequiredField
	}
	var litErr *LiteralError
	if errors.As(err, &litErr) {
		return ErrCodeInvalidLiteral
	}
	var iriErr *IRIError
	if errors.As(err, &iriErr) {
		return ErrCodeInvalidIRI
	}
	var dupErr *DuplicatePredicateError
	if errors.As(err, &dupErr) {
		return ErrCodeDuplicatePredicate
	}
	var refErr *UnresolvedReferenceError
	if errors.As(err, &refErr) {
		return ErrCodeUnresolvedReference
	}
	var ontErr *OntologyError
	if errors.As(err, &ontErr) {
		return ErrCodeOntologySource
	}

	return ErrCodeMappingError
}

// TypeResolutionError reports a node whose @type set matched no candidate schema.
type TypeResolutionError struct {
	NodeID string   // @id of the unmatched node, if any
	Types  []string // @type set asserted by the node
}

func (e *TypeResolutionError) Error() string {
	var msg strings.Builder
	msg.WriteString("ldmap: no schema matches node")
	if e.NodeID != "" {
		fmt.Fprintf(&msg, " %s", e.NodeID)
	}
	if len(e.Types) > 0 {
		fmt.Fprintf(&msg, " with types [%s]", strings.Join(e.Types, ", "))
	} else {
		msg.WriteString(" without @type")
	}
	return msg.String()
}

// RequiredFieldError reports a required predicate missing from an input node.
type RequiredFieldError struct {
	Predicate string // predicate IRI of the missing binding
	NodeID    string // @id of the enclosing node, if any
}

func (e *RequiredFieldError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("ldmap: required predicate %s missing from node %s", e.Predicate, e.NodeID)
	}
	return fmt.Sprintf("ldmap: required predicate %s missing", e.Predicate)
}

// LiteralError reports a value that could not be converted per its field's datatype.
type LiteralError struct {
	Predicate string      // predicate IRI of the failing binding, if known
	Datatype  string      // expected datatype IRI
	Value     interface{} // offending raw value
	Err       error       // underlying conversion error, if any
}

func (e *LiteralError) Error() string {
	var msg strings.Builder
	fmt.Fprintf(&msg, "ldmap: cannot convert %v", e.Value)
	if e.Datatype != "" {
		fmt.Fprintf(&msg, " to %s", e.Datatype)
	}
	if e.Predicate != "" {
		fmt.Fprintf(&msg, " for predicate %s", e.Predicate)
	}
	if e.Err != nil {
		fmt.Fprintf(&msg, ": %v", e.Err)
	}
	return msg.String()
}

func (e *LiteralError) Unwrap() error { return e.Err }

// IRIError reports a value that is not a syntactically valid IRI.
type IRIError struct {
	Value string // offending value
	Err   error  // underlying validation error
}

func (e *IRIError) Error() string {
	return fmt.Sprintf("ldmap: invalid IRI %q: %v", e.Value, e.Err)
}

func (e *IRIError) Unwrap() error { return e.Err }

// DuplicatePredicateError reports two bindings in a schema targeting the same predicate.
type DuplicatePredicateError struct {
	Predicate string
	Attrs     []string // attribute names of the colliding bindings
}

func (e *DuplicatePredicateError) Error() string {
	return fmt.Sprintf("ldmap: predicate %s bound more than once (attributes %s)",
		e.Predicate, strings.Join(e.Attrs, ", "))
}

// UnresolvedReferenceError reports an @id in a flattened document with no matching node.
type UnresolvedReferenceError struct {
	ID string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("ldmap: cannot dereference id %s", e.ID)
}

// OntologyError reports a failure to read or parse an ontology source.
type OntologyError struct {
	Source string
	Err    error
}

func (e *OntologyError) Error() string {
	return fmt.Sprintf("ldmap: ontology source %s: %v", e.Source, e.Err)
}

func (e *OntologyError) Unwrap() error { return e.Err }

// OntologyViolationError reports undeclared predicates found during strict validation.
type OntologyViolationError struct {
	Invalid []string // undeclared predicate IRIs, sorted
}

func (e *OntologyViolationError) Error() string {
	invalid := append([]string(nil), e.Invalid...)
	sort.Strings(invalid)
	return fmt.Sprintf("ldmap: undeclared properties found: %s", strings.Join(invalid, ", "))
}
