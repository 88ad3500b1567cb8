package ldmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bookDocNode() Node {
	return Node{
		"@id":                             "http://example.com/books/dune",
		"@type":                           []interface{}{"http://schema.org/Book"},
		"http://schema.org/name":          "Dune",
		"http://schema.org/author":        Node{"@id": "http://example.com/people/frank"},
		"http://schema.org/publishedYear": int64(1965),
	}
}

func TestValidateProperties(t *testing.T) {
	ont := loadBookOntology(t)

	partition, err := ValidateProperties(bookDocNode(), ont)
	require.NoError(t, err)

	assert.Contains(t, partition.Valid, "http://schema.org/name")
	assert.Contains(t, partition.Valid, "http://schema.org/author")
	assert.NotContains(t, partition.Valid, "http://schema.org/publishedYear")
	assert.Equal(t, []string{"http://schema.org/publishedYear"}, partition.InvalidList())
}

func TestValidatePropertiesStrict(t *testing.T) {
	ont := loadBookOntology(t)

	_, err := ValidateProperties(bookDocNode(), ont, Strict())
	require.Error(t, err)

	var violation *OntologyViolationError
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, []string{"http://schema.org/publishedYear"}, violation.Invalid)
	assert.Contains(t, err.Error(), "publishedYear")
}

func TestValidatePropertiesCleanDocument(t *testing.T) {
	ont := loadBookOntology(t)

	doc := bookDocNode()
	delete(doc, "http://schema.org/publishedYear")

	partition, err := ValidateProperties(doc, ont, Strict())
	require.NoError(t, err)
	assert.Empty(t, partition.Invalid)
}

func TestValidatePropertiesUnknownClass(t *testing.T) {
	ont := loadBookOntology(t)

	// Unknown classes are data, not an error: every predicate lands in the
	// invalid set.
	partition, err := ValidateProperties(Node{
		"@type":                  "http://schema.org/Movie",
		"http://schema.org/name": "Dune (1984)",
	}, ont)
	require.NoError(t, err)
	assert.Empty(t, partition.Valid)
	assert.Equal(t, []string{"http://schema.org/name"}, partition.InvalidList())
}

func TestValidatePropertiesMultipleNodes(t *testing.T) {
	ont := loadBookOntology(t)

	partition, err := ValidateProperties([]interface{}{
		bookDocNode(),
		Node{
			"@type":                  "http://schema.org/CreativeWork",
			"http://schema.org/name": "Essay",
		},
	}, ont)
	require.NoError(t, err)
	assert.Contains(t, partition.Valid, "http://schema.org/name")
	assert.Equal(t, []string{"http://schema.org/publishedYear"}, partition.InvalidList())
}

func TestFilterProperties(t *testing.T) {
	ont := loadBookOntology(t)

	filtered, err := FilterProperties(bookDocNode(), ont)
	require.NoError(t, err)

	node := filtered.(Node)
	// JSON-LD keywords are always retained.
	assert.Equal(t, "http://example.com/books/dune", node.ID())
	assert.Contains(t, node, "@type")
	assert.Contains(t, node, "http://schema.org/name")
	assert.Contains(t, node, "http://schema.org/author")
	assert.NotContains(t, node, "http://schema.org/publishedYear")
}

func TestFilterPropertiesList(t *testing.T) {
	ont := loadBookOntology(t)

	filtered, err := FilterProperties([]interface{}{bookDocNode(), bookDocNode()}, ont)
	require.NoError(t, err)

	list := filtered.([]interface{})
	require.Len(t, list, 2)
	for _, item := range list {
		assert.NotContains(t, item.(Node), "http://schema.org/publishedYear")
	}
}

func TestSchemaValidateProperties(t *testing.T) {
	ont := loadBookOntology(t)
	s := newBookSchema(t, newPersonSchema(t))

	partition, err := s.ValidateProperties(testDune(testFrank()), ont)
	require.NoError(t, err)

	assert.Contains(t, partition.Valid, "http://schema.org/name")
	assert.Contains(t, partition.Valid, "http://schema.org/author")
	// publishedYear and keywords are not declared for Book.
	assert.Contains(t, partition.Invalid, "http://schema.org/publishedYear")
	assert.Contains(t, partition.Invalid, "http://schema.org/keywords")
}

func TestSchemaFilterProperties(t *testing.T) {
	ont := loadBookOntology(t)
	s := newBookSchema(t, newPersonSchema(t))

	filtered, err := s.FilterProperties(testDune(testFrank()), ont)
	require.NoError(t, err)

	node := filtered.(Node)
	assert.Contains(t, node, "http://schema.org/name")
	assert.NotContains(t, node, "http://schema.org/publishedYear")
	assert.NotContains(t, node, "http://schema.org/keywords")
}
