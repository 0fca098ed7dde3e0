package book

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore/internal/apperror"
	"bookstore/package/client/jsondb"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	backend, err := jsondb.NewFileBackend(filepath.Join(t.TempDir(), "db.json"))
	require.NoError(t, err)
	db, err := jsondb.Open(backend, jsondb.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewService(db)
}

func validBook() Book {
	return Book{
		ISBN:        "123",
		Title:       "T",
		Subtitle:    "S",
		Author:      "A",
		Published:   "2020-01-01",
		Publisher:   "P",
		Pages:       100,
		Description: "D",
		Website:     "https://example.com",
	}
}

func TestCreateAssignsID(t *testing.T) {
	s := newTestService(t)
	input := validBook()

	created, err := s.Create(input)
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, []Comment{}, created.Comments)

	expected := input
	expected.ID = created.ID
	expected.Comments = []Comment{}
	assert.Equal(t, expected, created)
}

func TestCreateIgnoresSuppliedID(t *testing.T) {
	s := newTestService(t)
	input := validBook()
	input.ID = "chosen"

	created, err := s.Create(input)
	require.NoError(t, err)
	assert.NotEqual(t, "chosen", created.ID)
}

func TestCreateThenGetRoundTrip(t *testing.T) {
	s := newTestService(t)

	created, err := s.Create(validBook())
	require.NoError(t, err)

	got, err := s.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestCreateRequiresEveryField(t *testing.T) {
	fields := map[string]func(*Book){
		"isbn":        func(b *Book) { b.ISBN = "" },
		"title":       func(b *Book) { b.Title = "" },
		"subtitle":    func(b *Book) { b.Subtitle = "" },
		"author":      func(b *Book) { b.Author = "" },
		"published":   func(b *Book) { b.Published = "" },
		"publisher":   func(b *Book) { b.Publisher = "" },
		"pages":       func(b *Book) { b.Pages = 0 },
		"description": func(b *Book) { b.Description = "" },
		"website":     func(b *Book) { b.Website = "" },
	}

	for field, clear := range fields {
		t.Run(field, func(t *testing.T) {
			s := newTestService(t)
			input := validBook()
			clear(&input)

			_, err := s.Create(input)
			require.Error(t, err)
			assert.True(t, apperror.IsValidation(err))
			assert.Contains(t, err.Error(), field)

			all, err := s.List(nil)
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestUnknownIDs(t *testing.T) {
	s := newTestService(t)
	_, err := s.Create(validBook())
	require.NoError(t, err)

	_, err = s.Get("missing")
	assert.True(t, apperror.IsUnknownEntity(err))

	title := "Z"
	_, err = s.Update(Patch{ID: "missing", Title: &title})
	assert.True(t, apperror.IsUnknownEntity(err))

	_, err = s.Delete("missing")
	assert.True(t, apperror.IsUnknownEntity(err))

	_, err = s.CreateComment("u1", "missing", "hi")
	assert.True(t, apperror.IsUnknownEntity(err))
}

func TestUpdateMergesPartialFields(t *testing.T) {
	s := newTestService(t)
	input := validBook()
	input.Title = "A"
	input.Author = "B"
	created, err := s.Create(input)
	require.NoError(t, err)

	title := "Z"
	updated, err := s.Update(Patch{ID: created.ID, Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Z", updated.Title)
	assert.Equal(t, "B", updated.Author)

	stored, err := s.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, stored)
}

func TestDeleteTwice(t *testing.T) {
	s := newTestService(t)
	first, err := s.Create(validBook())
	require.NoError(t, err)
	_, err = s.Create(validBook())
	require.NoError(t, err)

	id, err := s.Delete(first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, id)

	remaining, err := s.List(nil)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)

	_, err = s.Delete(first.ID)
	assert.True(t, apperror.IsUnknownEntity(err))

	remaining, err = s.List(nil)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestCreateComment(t *testing.T) {
	s := newTestService(t)
	created, err := s.Create(validBook())
	require.NoError(t, err)

	updated, err := s.CreateComment("u1", created.ID, "hi")
	require.NoError(t, err)

	require.Len(t, updated.Comments, 1)
	comment := updated.Comments[0]
	assert.NotEmpty(t, comment.ID)
	assert.Equal(t, "u1", comment.UserID)
	assert.Equal(t, "hi", comment.Message)

	withoutComments := updated
	withoutComments.Comments = created.Comments
	assert.Equal(t, created, withoutComments)

	stored, err := s.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, stored)
}

func TestCreateCommentRequiresMessage(t *testing.T) {
	s := newTestService(t)
	created, err := s.Create(validBook())
	require.NoError(t, err)

	_, err = s.CreateComment("u1", created.ID, "  ")
	assert.True(t, apperror.IsValidation(err))
}

func TestListFilter(t *testing.T) {
	s := newTestService(t)
	for i, author := range []string{"Austen", "Herbert", "Austen"} {
		input := validBook()
		input.Author = author
		input.Title = fmt.Sprintf("Book %d", i)
		_, err := s.Create(input)
		require.NoError(t, err)
	}

	austen, err := s.List(map[string]any{"author": "Austen"})
	require.NoError(t, err)
	assert.Len(t, austen, 2)

	one, err := s.List(map[string]any{"author": "Austen", "title": "Book 2"})
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "Book 2", one[0].Title)
}

func TestPatchApplyKeepsID(t *testing.T) {
	title := "New"
	pages := 7
	b := Patch{ID: "other", Title: &title, Pages: &pages}.Apply(Book{ID: "b1", Title: "Old", Author: "A", Pages: 1})

	assert.Equal(t, Book{ID: "b1", Title: "New", Author: "A", Pages: 7}, b)
}
