package ldmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findNode(t *testing.T, nodes []Node, id string) Node {
	t.Helper()
	for _, n := range nodes {
		if n.ID() == id {
			return n
		}
	}
	t.Fatalf("no node with id %s", id)
	return nil
}

func TestFlattenedDump(t *testing.T) {
	s := newBookSchema(t, newPersonSchema(t), Flattened())

	dumped, err := s.Dump(testDune(testFrank()))
	require.NoError(t, err)

	nodes, ok := dumped.([]Node)
	require.True(t, ok)
	require.Len(t, nodes, 2)

	book := findNode(t, nodes, "http://example.com/books/dune")
	assert.Equal(t, []string{"http://schema.org/Book"}, book["@type"])
	assert.Equal(t, "Dune", book["http://schema.org/name"])
	// Nested nodes are emitted separately and referenced by id.
	assert.Equal(t, Node{"@id": "http://example.com/people/frank"},
		book["http://schema.org/author"])

	person := findNode(t, nodes, "http://example.com/people/frank")
	assert.Equal(t, "Frank Herbert", person["http://schema.org/name"])
}

type testShelf struct {
	ID    string
	Books []*testBook
}

func TestFlattenedDumpSharedReference(t *testing.T) {
	person := newPersonSchema(t)
	book := newBookSchema(t, person)
	shelf, err := NewSchema(testShelf{}, testNS.MustRef("Collection"), []*Binding{
		Bind("ID", Id()),
		Bind("Books", Nested(testNS.MustRef("hasPart"), book), Many()),
	}, Flattened())
	require.NoError(t, err)

	frank := testFrank()
	first := testDune(frank)
	second := testBook{ID: "http://example.com/books/messiah", Title: "Dune Messiah", Author: frank}

	dumped, err := shelf.Dump(testShelf{
		ID:    "http://example.com/shelves/1",
		Books: []*testBook{&first, &second},
	})
	require.NoError(t, err)

	nodes := dumped.([]Node)
	// Shelf, two books, and the shared author emitted exactly once.
	require.Len(t, nodes, 4)

	a := findNode(t, nodes, "http://example.com/books/dune")
	b := findNode(t, nodes, "http://example.com/books/messiah")
	assert.Equal(t, a["http://schema.org/author"], b["http://schema.org/author"])
}

func TestFlattenedDumpCycle(t *testing.T) {
	s := newLinkedSchema(t, Flattened())

	a := &testLinkedNode{ID: "http://example.com/items/a"}
	b := &testLinkedNode{ID: "http://example.com/items/b"}
	a.Next = b
	b.Next = a

	dumped, err := s.Dump(a)
	require.NoError(t, err)

	nodes := dumped.([]Node)
	require.Len(t, nodes, 2)
	na := findNode(t, nodes, "http://example.com/items/a")
	nb := findNode(t, nodes, "http://example.com/items/b")
	assert.Equal(t, Node{"@id": "http://example.com/items/b"}, na["http://schema.org/nextItem"])
	assert.Equal(t, Node{"@id": "http://example.com/items/a"}, nb["http://schema.org/nextItem"])
}

func TestFlattenedDumpBlankNodeFallback(t *testing.T) {
	type anon struct {
		Name string
	}
	s, err := NewSchema(anon{}, testNS.MustRef("Thing"), []*Binding{
		Bind("Name", String(testNS.MustRef("name"))),
	}, Flattened())
	require.NoError(t, err)

	dumped, err := s.Dump(anon{Name: "x"})
	require.NoError(t, err)

	nodes := dumped.([]Node)
	require.Len(t, nodes, 1)
	assert.True(t, IsBlankNodeID(nodes[0].ID()))
}

func flattenedBookDoc() []interface{} {
	return []interface{}{
		map[string]interface{}{
			"@id":                             "http://example.com/books/dune",
			"@type":                           []interface{}{"http://schema.org/Book"},
			"http://schema.org/name":          "Dune",
			"http://schema.org/author":        map[string]interface{}{"@id": "http://example.com/people/frank"},
			"http://schema.org/publishedYear": float64(1965),
		},
		map[string]interface{}{
			"@id":                    "http://example.com/people/frank",
			"@type":                  []interface{}{"http://schema.org/Person"},
			"http://schema.org/name": "Frank Herbert",
		},
	}
}

func TestFlattenedLoad(t *testing.T) {
	s := newBookSchema(t, newPersonSchema(t), Flattened())

	loaded, err := s.Load(flattenedBookDoc())
	require.NoError(t, err)

	book := loaded.(testBook)
	assert.Equal(t, "http://example.com/books/dune", book.ID)
	assert.Equal(t, "Dune", book.Title)
	assert.Equal(t, int64(1965), book.Year)
	require.NotNil(t, book.Author)
	assert.Equal(t, "Frank Herbert", book.Author.Name)
}

func TestFlattenedLoadRootSelection(t *testing.T) {
	s := newBookSchema(t, newPersonSchema(t), Flattened())

	// Root selection is by exact @type set match: the person node is not a root.
	doc := flattenedBookDoc()
	loaded, err := s.Load(doc)
	require.NoError(t, err)
	assert.IsType(t, testBook{}, loaded)

	// A node asserting extra types does not match either.
	doc[0].(map[string]interface{})["@type"] = []interface{}{
		"http://schema.org/Book", "http://schema.org/CreativeWork",
	}
	_, err = s.Load(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected one root")
}

func TestFlattenedLoadMultipleRoots(t *testing.T) {
	s := newPersonSchema(t, Flattened())

	doc := []interface{}{
		map[string]interface{}{
			"@id":                    "http://example.com/people/a",
			"@type":                  "http://schema.org/Person",
			"http://schema.org/name": "A",
		},
		map[string]interface{}{
			"@id":                    "http://example.com/people/b",
			"@type":                  "http://schema.org/Person",
			"http://schema.org/name": "B",
		},
	}

	_, err := s.Load(doc)
	require.Error(t, err)

	loaded, err := s.LoadAll(doc)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "A", loaded[0].(testPerson).Name)
	assert.Equal(t, "B", loaded[1].(testPerson).Name)
}

func TestFlattenedLoadUnresolvedReference(t *testing.T) {
	s := newBookSchema(t, newPersonSchema(t), Flattened())

	doc := []interface{}{
		map[string]interface{}{
			"@id":                      "http://example.com/books/dune",
			"@type":                    "http://schema.org/Book",
			"http://schema.org/name":   "Dune",
			"http://schema.org/author": map[string]interface{}{"@id": "http://example.com/people/missing"},
		},
	}

	_, err := s.Load(doc)
	require.Error(t, err)
	assert.Equal(t, ErrCodeUnresolvedReference, Code(err))

	var refErr *UnresolvedReferenceError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, "http://example.com/people/missing", refErr.ID)
}

func TestFlattenedRoundTrip(t *testing.T) {
	s := newBookSchema(t, newPersonSchema(t), Flattened())
	original := testDune(testFrank())

	dumped, err := s.Dump(original)
	require.NoError(t, err)

	loaded, err := s.Load(dumped)
	require.NoError(t, err)

	book := loaded.(testBook)
	assert.Equal(t, original.ID, book.ID)
	assert.Equal(t, original.Title, book.Title)
	assert.Equal(t, original.Year, book.Year)
	assert.Equal(t, original.Tags, book.Tags)
	require.NotNil(t, book.Author)
	assert.Equal(t, *original.Author, *book.Author)
}

func TestFlattenedReverseLoadOrder(t *testing.T) {
	work, err := NewSchema(testWork{}, testNS.MustRef("Book"), []*Binding{
		Bind("ID", Id()),
		Bind("Name", String(testNS.MustRef("name"))),
	})
	require.NoError(t, err)

	author, err := NewSchema(testAuthor{}, testNS.MustRef("Person"), []*Binding{
		Bind("ID", Id()),
		Bind("Name", String(testNS.MustRef("name"))),
		Bind("Books", Nested(testNS.MustRef("author"), work), Reverse(), Many()),
	}, Flattened())
	require.NoError(t, err)

	bookNode := func(id, name string) map[string]interface{} {
		return map[string]interface{}{
			"@id":                      id,
			"@type":                    "http://schema.org/Book",
			"http://schema.org/name":   name,
			"http://schema.org/author": map[string]interface{}{"@id": "http://example.com/people/frank"},
		}
	}
	// Document order deliberately differs from @id order.
	doc := []interface{}{
		bookNode("http://example.com/books/z-heretics", "Heretics of Dune"),
		map[string]interface{}{
			"@id":                    "http://example.com/people/frank",
			"@type":                  "http://schema.org/Person",
			"http://schema.org/name": "Frank Herbert",
		},
		bookNode("http://example.com/books/a-dune", "Dune"),
	}

	// Reverse children load in @id order regardless of document order.
	for i := 0; i < 5; i++ {
		loaded, err := author.Load(doc)
		require.NoError(t, err)

		got := loaded.(testAuthor)
		require.Len(t, got.Books, 2)
		assert.Equal(t, "http://example.com/books/a-dune", got.Books[0].ID)
		assert.Equal(t, "http://example.com/books/z-heretics", got.Books[1].ID)
	}
}

func TestFlattenedReverseRoundTrip(t *testing.T) {
	work, err := NewSchema(testWork{}, testNS.MustRef("Book"), []*Binding{
		Bind("ID", Id()),
		Bind("Name", String(testNS.MustRef("name"))),
	})
	require.NoError(t, err)

	author, err := NewSchema(testAuthor{}, testNS.MustRef("Person"), []*Binding{
		Bind("ID", Id()),
		Bind("Name", String(testNS.MustRef("name"))),
		Bind("Books", Nested(testNS.MustRef("author"), work), Reverse(), Many()),
	}, Flattened())
	require.NoError(t, err)

	original := testAuthor{
		ID:   "http://example.com/people/frank",
		Name: "Frank Herbert",
		Books: []*testWork{
			{ID: "http://example.com/books/dune", Name: "Dune"},
		},
	}

	dumped, err := author.Dump(original)
	require.NoError(t, err)

	// The child node carries the forward predicate pointing at the author.
	nodes := dumped.([]Node)
	book := findNode(t, nodes, "http://example.com/books/dune")
	assert.Equal(t, []interface{}{Node{"@id": "http://example.com/people/frank"}},
		book["http://schema.org/author"])

	loaded, err := author.Load(dumped)
	require.NoError(t, err)

	got := loaded.(testAuthor)
	assert.Equal(t, original.Name, got.Name)
	require.Len(t, got.Books, 1)
	assert.Equal(t, "Dune", got.Books[0].Name)
}
