package ldmap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Shared model types and schema builders for the package tests, modeled on a
// small book catalog vocabulary.

type testPerson struct {
	ID   string
	Name string
}

type testBook struct {
	ID     string
	Title  string
	Author *testPerson
	Year   int64
	Tags   []string
}

func newPersonSchema(t *testing.T, opts ...SchemaOption) *Schema {
	t.Helper()
	s, err := NewSchema(testPerson{}, testNS.MustRef("Person"), []*Binding{
		Bind("ID", Id()),
		Bind("Name", String(testNS.MustRef("name")), Required()),
	}, opts...)
	require.NoError(t, err)
	return s
}

func newBookSchema(t *testing.T, person *Schema, opts ...SchemaOption) *Schema {
	t.Helper()
	s, err := NewSchema(testBook{}, testNS.MustRef("Book"), []*Binding{
		Bind("ID", Id()),
		Bind("Title", String(testNS.MustRef("name")), Required()),
		Bind("Author", Nested(testNS.MustRef("author"), person)),
		Bind("Year", Integer(testNS.MustRef("publishedYear"))),
		Bind("Tags", List(testNS.MustRef("keywords"), String(testNS.MustRef("keywords")))),
	}, opts...)
	require.NoError(t, err)
	return s
}

func testFrank() *testPerson {
	return &testPerson{ID: "http://example.com/people/frank", Name: "Frank Herbert"}
}

func testDune(author *testPerson) testBook {
	return testBook{
		ID:     "http://example.com/books/dune",
		Title:  "Dune",
		Author: author,
		Year:   1965,
		Tags:   []string{"sf", "desert"},
	}
}
