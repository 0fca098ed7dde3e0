package database

import (
	"database/sql"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore/package/client/jsondb"
)

func mockBackend(t *testing.T) (*DocumentBackend, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS documents")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	backend, err := NewDocumentBackend(sqlx.NewDb(raw, "postgres"), "bookstore", time.Second)
	require.NoError(t, err)
	return backend, mock
}

func TestPostgresLoadMissingDocument(t *testing.T) {
	backend, mock := mockBackend(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT body FROM documents WHERE name = $1")).
		WithArgs("bookstore").
		WillReturnError(sql.ErrNoRows)

	data, err := backend.Load()
	require.NoError(t, err)
	assert.Nil(t, data)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLoadDocument(t *testing.T) {
	backend, mock := mockBackend(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT body FROM documents WHERE name = $1")).
		WithArgs("bookstore").
		WillReturnRows(sqlmock.NewRows([]string{"body"}).AddRow(`{"books":[]}`))

	data, err := backend.Load()
	require.NoError(t, err)
	assert.JSONEq(t, `{"books":[]}`, string(data))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveUpserts(t *testing.T) {
	backend, mock := mockBackend(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO documents (name, body) VALUES ($1, $2)")).
		WithArgs("bookstore", `{"users":[]}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, backend.Save([]byte(`{"users":[]}`)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnsupportedDriver(t *testing.T) {
	raw, _, err := sqlmock.New()
	require.NoError(t, err)
	defer raw.Close()

	_, err = NewDocumentBackend(sqlx.NewDb(raw, "mysql"), "bookstore", time.Second)
	assert.Error(t, err)
}

func TestSQLiteDocumentRoundTrip(t *testing.T) {
	db, err := InitSQLite(filepath.Join(t.TempDir(), "store", "bookstore.db"))
	require.NoError(t, err)

	backend, err := NewDocumentBackend(db, "bookstore", time.Second)
	require.NoError(t, err)

	store, err := jsondb.Open(backend, jsondb.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Push("/books[]", map[string]string{"id": "b1", "title": "Dune"}, true))
	require.NoError(t, store.Push("/books[]", map[string]string{"id": "b2", "title": "Emma"}, true))

	idx, err := store.GetIndex("/books", "b2", "id")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	raw, err := backend.Load()
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Emma")

	var book map[string]string
	require.NoError(t, store.GetData("/books[0]", &book))
	assert.Equal(t, "Dune", book["title"])
}
