package ldmap

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateIRI validates an IRI string used as a node identifier or IRI field value.
// Blank node identifiers ("_:"-prefixed) are accepted. Returns nil for valid input.
//
// This performs basic RFC 3987 validation via url.Parse plus scheme and
// character checks; it is not a full RFC 3987 validator.
func ValidateIRI(iri string) error {
	if iri == "" {
		return &IRIError{Value: iri, Err: fmt.Errorf("empty IRI")}
	}

	if strings.HasPrefix(iri, "_:") {
		if len(iri) == 2 {
			return &IRIError{Value: iri, Err: fmt.Errorf("empty blank node label")}
		}
		return nil
	}

	parsed, err := url.Parse(iri)
	if err != nil {
		return &IRIError{Value: iri, Err: err}
	}

	if parsed.Scheme == "" {
		return &IRIError{Value: iri, Err: fmt.Errorf("missing scheme")}
	}
	first := parsed.Scheme[0]
	if !((first >= 'a' && first <= 'z') || (first >= 'A' && first <= 'Z')) {
		return &IRIError{Value: iri, Err: fmt.Errorf("scheme must start with a letter")}
	}

	for i, r := range iri {
		if r < 0x20 {
			return &IRIError{Value: iri, Err: fmt.Errorf("control character at position %d", i)}
		}
		switch r {
		case ' ', '<', '>', '"', '{', '}', '|', '\\', '^', '`':
			return &IRIError{Value: iri, Err: fmt.Errorf("character %q at position %d must be percent-encoded", r, i)}
		}
	}

	return nil
}

// IsBlankNodeID reports whether an identifier denotes a blank node.
func IsBlankNodeID(id string) bool {
	return strings.HasPrefix(id, "_:")
}
