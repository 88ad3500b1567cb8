package ldmap

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadBookOntology(t *testing.T) *Ontology {
	t.Helper()
	ont, err := LoadOntology(context.Background(), "testdata/book_ontology.owl")
	require.NoError(t, err)
	return ont
}

func TestOntologyPropertiesForClass(t *testing.T) {
	ont := loadBookOntology(t)

	// Book inherits name through its CreativeWork superclass.
	props := ont.PropertiesForClass("http://schema.org/Book")
	assert.Contains(t, props, "http://schema.org/name")
	assert.Contains(t, props, "http://schema.org/author")
	assert.NotContains(t, props, "http://schema.org/publishedYear")

	props = ont.PropertiesForClass("http://schema.org/CreativeWork")
	assert.Contains(t, props, "http://schema.org/name")
	assert.NotContains(t, props, "http://schema.org/author")

	// Known class with no declared properties.
	assert.Empty(t, ont.PropertiesForClass("http://schema.org/Person"))

	// Unknown class yields an empty set, not an error.
	assert.Empty(t, ont.PropertiesForClass("http://schema.org/Movie"))
}

func TestOntologyHasProperty(t *testing.T) {
	ont := loadBookOntology(t)

	assert.True(t, ont.HasProperty("http://schema.org/Book", "http://schema.org/author"))
	assert.True(t, ont.HasProperty("http://schema.org/Book", "http://schema.org/name"))
	assert.False(t, ont.HasProperty("http://schema.org/CreativeWork", "http://schema.org/author"))
	assert.False(t, ont.HasProperty("http://schema.org/Book", "http://schema.org/publishedYear"))
}

func TestOntologyHasTerm(t *testing.T) {
	ont := loadBookOntology(t)

	assert.True(t, ont.HasTerm("http://schema.org/Book"))
	assert.True(t, ont.HasTerm("http://schema.org/name"))
	assert.False(t, ont.HasTerm("http://schema.org/publishedYear"))
}

func TestLoadOntologyMissingFile(t *testing.T) {
	_, err := LoadOntology(context.Background(), "testdata/no_such_file.owl")
	require.Error(t, err)
	assert.Equal(t, ErrCodeOntologySource, Code(err))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseOntologyUnionDomain(t *testing.T) {
	const src = `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:rdfs="http://www.w3.org/2000/01/rdf-schema#"
         xmlns:owl="http://www.w3.org/2002/07/owl#">
  <owl:DatatypeProperty rdf:about="http://example.com/vocab/shared">
    <rdfs:domain>
      <owl:Class>
        <owl:unionOf rdf:parseType="Collection">
          <owl:Class rdf:about="http://example.com/vocab/A"/>
          <owl:Class rdf:about="http://example.com/vocab/B"/>
        </owl:unionOf>
      </owl:Class>
    </rdfs:domain>
  </owl:DatatypeProperty>
</rdf:RDF>`

	ont, err := ParseOntology([]byte(src))
	require.NoError(t, err)

	assert.True(t, ont.HasProperty("http://example.com/vocab/A", "http://example.com/vocab/shared"))
	assert.True(t, ont.HasProperty("http://example.com/vocab/B", "http://example.com/vocab/shared"))
	assert.False(t, ont.HasProperty("http://example.com/vocab/C", "http://example.com/vocab/shared"))
}

func TestParseOntologyDomainlessProperty(t *testing.T) {
	const src = `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:rdfs="http://www.w3.org/2000/01/rdf-schema#"
         xmlns:owl="http://www.w3.org/2002/07/owl#">
  <owl:Class rdf:about="http://example.com/vocab/Thing"/>
  <owl:AnnotationProperty rdf:about="http://example.com/vocab/comment"/>
</rdf:RDF>`

	ont, err := ParseOntology([]byte(src))
	require.NoError(t, err)

	// Properties without a declared domain apply to every known class.
	assert.True(t, ont.HasProperty("http://example.com/vocab/Thing", "http://example.com/vocab/comment"))
	// But still not to unknown classes.
	assert.False(t, ont.HasProperty("http://example.com/vocab/Other", "http://example.com/vocab/comment"))
}
