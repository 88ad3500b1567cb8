package ldmap

import (
	"context"

	ld "github.com/piprate/json-gold/ld"
)

// Options configures JSON-LD processing.
type Options struct {
	// BaseIRI resolves relative IRIs.
	BaseIRI string
	// ProcessingMode controls JSON-LD version semantics: "json-ld-1.0" or "json-ld-1.1".
	ProcessingMode string
	// ExpandContext provides an external context for expansion.
	ExpandContext interface{}
	// CompactArrays controls compaction of single-element arrays.
	CompactArrays bool
	// DocumentLoader resolves remote contexts and documents.
	DocumentLoader DocumentLoader
}

// DocumentLoader resolves remote contexts/documents.
type DocumentLoader interface {
	LoadDocument(ctx context.Context, iri string) (RemoteDocument, error)
}

// RemoteDocument represents a fetched JSON-LD document.
type RemoteDocument struct {
	DocumentURL string
	Document    interface{}
	ContextURL  string
}

// Processor exposes the JSON-LD algorithms the schema engine relies on.
// The default implementation delegates to the json-gold processor.
type Processor interface {
	Expand(ctx context.Context, input interface{}, opts Options) ([]interface{}, error)
	Compact(ctx context.Context, input interface{}, context interface{}, opts Options) (map[string]interface{}, error)
	Flatten(ctx context.Context, input interface{}, context interface{}, opts Options) (interface{}, error)
}

type goldProcessor struct{}

// NewProcessor returns the default JSON-LD processor.
func NewProcessor() Processor {
	return &goldProcessor{}
}

func (p *goldProcessor) Expand(ctx context.Context, input interface{}, opts Options) ([]interface{}, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	proc := ld.NewJsonLdProcessor()
	return proc.Expand(plainDocument(input), newGoldOptions(ctx, opts))
}

func (p *goldProcessor) Compact(ctx context.Context, input interface{}, context interface{}, opts Options) (map[string]interface{}, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	proc := ld.NewJsonLdProcessor()
	return proc.Compact(plainDocument(input), context, newGoldOptions(ctx, opts))
}

func (p *goldProcessor) Flatten(ctx context.Context, input interface{}, context interface{}, opts Options) (interface{}, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	proc := ld.NewJsonLdProcessor()
	return proc.Flatten(plainDocument(input), context, newGoldOptions(ctx, opts))
}

type goldDocumentLoader struct {
	ctx   context.Context
	inner DocumentLoader
}

func (l goldDocumentLoader) LoadDocument(iri string) (*ld.RemoteDocument, error) {
	if l.inner == nil {
		return ld.NewDefaultDocumentLoader(nil).LoadDocument(iri)
	}
	remote, err := l.inner.LoadDocument(l.ctx, iri)
	if err != nil {
		return nil, err
	}
	return &ld.RemoteDocument{
		DocumentURL: remote.DocumentURL,
		Document:    remote.Document,
		ContextURL:  remote.ContextURL,
	}, nil
}

func newGoldOptions(ctx context.Context, opts Options) *ld.JsonLdOptions {
	goldOpts := ld.NewJsonLdOptions(opts.BaseIRI)
	if opts.ProcessingMode != "" {
		goldOpts.ProcessingMode = opts.ProcessingMode
	}
	if opts.ExpandContext != nil {
		goldOpts.ExpandContext = opts.ExpandContext
	}
	if opts.CompactArrays {
		goldOpts.CompactArrays = opts.CompactArrays
	}
	if opts.DocumentLoader != nil {
		goldOpts.DocumentLoader = goldDocumentLoader{ctx: ctx, inner: opts.DocumentLoader}
	}
	return goldOpts
}

// plainDocument strips the Node alias from a document so json-gold sees the
// plain map/slice shapes it expects.
func plainDocument(input interface{}) interface{} {
	switch value := input.(type) {
	case Node:
		out := make(map[string]interface{}, len(value))
		for k, v := range value {
			out[k] = plainDocument(v)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(value))
		for k, v := range value {
			out[k] = plainDocument(v)
		}
		return out
	case []Node:
		out := make([]interface{}, len(value))
		for i, v := range value {
			out[i] = plainDocument(v)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(value))
		for i, v := range value {
			out[i] = plainDocument(v)
		}
		return out
	case []string:
		// @type sets are produced as string slices.
		out := make([]interface{}, len(value))
		for i, v := range value {
			out[i] = v
		}
		return out
	default:
		return input
	}
}

// expandDocument normalizes compacted input to expanded node form.
// Documents without an @context pass through unchanged.
func expandDocument(doc interface{}) (interface{}, error) {
	if !hasContext(doc) {
		return doc, nil
	}
	expanded, err := NewProcessor().Expand(context.Background(), doc, Options{})
	if err != nil {
		return nil, err
	}
	if len(expanded) == 1 {
		return expanded[0], nil
	}
	return expanded, nil
}

func hasContext(doc interface{}) bool {
	switch value := doc.(type) {
	case []interface{}:
		for _, item := range value {
			if hasContext(item) {
				return true
			}
		}
	case []Node:
		for _, item := range value {
			if hasContext(item) {
				return true
			}
		}
	default:
		if node, ok := asNode(doc); ok {
			if _, ok := node["@context"]; ok {
				return true
			}
		}
	}
	return false
}
