// Package dao maps entity operations onto an array of records stored under
// a fixed path of the JSON document.
package dao

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"bookstore/package/client/jsondb"
)

const idField = "id"

// Entity is a record addressed by its id field.
type Entity interface {
	GetID() string
}

type Collection[T Entity] struct {
	db   *jsondb.DB
	path string
}

// New returns a DAO for the records stored under path, e.g. "/books".
func New[T Entity](db *jsondb.DB, path string) *Collection[T] {
	return &Collection[T]{db: db, path: path}
}

func (c *Collection[T]) Path() string { return c.path }

// List returns the records whose fields equal every value in filter.
// Values are compared by their string form, so "300" matches the number 300.
// A nil or empty filter returns everything.
func (c *Collection[T]) List(filter map[string]any) ([]T, error) {
	var raw []json.RawMessage
	if err := c.db.GetData(c.path, &raw); err != nil {
		if errors.Is(err, jsondb.ErrDataPath) {
			return []T{}, nil
		}
		return nil, err
	}

	out := make([]T, 0, len(raw))
	for _, record := range raw {
		if !matches(record, filter) {
			continue
		}
		var item T
		if err := json.Unmarshal(record, &item); err != nil {
			return nil, fmt.Errorf("decode %s record: %w", c.path, err)
		}
		out = append(out, item)
	}
	return out, nil
}

// Create appends record to the collection as is.
func (c *Collection[T]) Create(record T) (T, error) {
	if err := c.db.Push(c.path+"[]", record, true); err != nil {
		var zero T
		return zero, err
	}
	return record, nil
}

func (c *Collection[T]) GetByID(id string) (T, bool, error) {
	var item T
	found, err := c.db.GetWhere(c.path, idField, id, &item)
	if err != nil || !found {
		var zero T
		return zero, false, err
	}
	return item, true, nil
}

// Update merges record's fields over the stored record with the same id.
func (c *Collection[T]) Update(record T) (T, bool, error) {
	var zero T
	found, err := c.db.MergeWhere(c.path, idField, record.GetID(), record)
	if err != nil || !found {
		return zero, false, err
	}
	return record, true, nil
}

func (c *Collection[T]) Delete(id string) (string, bool, error) {
	found, err := c.db.DeleteWhere(c.path, idField, id)
	if err != nil || !found {
		return "", false, err
	}
	return id, true, nil
}

// IndexOf is the position of the first record with the given id, or -1.
func (c *Collection[T]) IndexOf(id string) (int, error) {
	return c.db.GetIndex(c.path, id, idField)
}

func (c *Collection[T]) Count() (int, error) {
	return c.db.Count(c.path)
}

// matches compares top-level fields only; filter keys are escaped so gjson
// wildcards and dotted paths are taken literally.
func matches(record []byte, filter map[string]any) bool {
	for field, want := range filter {
		got := gjson.GetBytes(record, gjson.Escape(field))
		if !got.Exists() || got.String() != fmt.Sprint(want) {
			return false
		}
	}
	return true
}
