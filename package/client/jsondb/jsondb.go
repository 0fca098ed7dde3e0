// Package jsondb is a small path-addressed store over a single JSON document.
//
// The document is an object whose top-level keys usually hold arrays of
// records. Paths take three forms:
//
//	/books      the value stored under "books"
//	/books[3]   the fourth element of the "books" array
//	/books[]    append position of the "books" array (Push only)
//
// Every operation reads the whole document from the Backend and, when it
// mutates, writes the whole document back. Single operations are serialized;
// sequences of operations are not.
package jsondb

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
)

var (
	ErrDataPath = errors.New("jsondb: data path not found")
	ErrBadPath  = errors.New("jsondb: malformed data path")
)

// Backend loads and stores the raw document bytes.
// Load returns nil data when nothing has been stored yet.
type Backend interface {
	Load() ([]byte, error)
	Save(data []byte) error
	Close() error
}

type Options struct {
	// Pretty writes the document indented.
	Pretty bool
}

type DB struct {
	mu      sync.Mutex
	backend Backend
	opts    Options
}

type document map[string]json.RawMessage

type dataPath struct {
	raw    string
	key    string
	index  int
	append bool
}

// Open checks that the backend holds a readable document and initializes an
// empty one when it holds nothing.
func Open(backend Backend, opts Options) (*DB, error) {
	db := &DB{backend: backend, opts: opts}

	data, err := backend.Load()
	if err != nil {
		return nil, fmt.Errorf("jsondb: load: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		if err := db.save(document{}); err != nil {
			return nil, err
		}
		return db, nil
	}
	if _, err := decode(data); err != nil {
		return nil, err
	}
	return db, nil
}

func (db *DB) Close() error {
	return db.backend.Close()
}

// GetData decodes the value found at path into out.
func (db *DB) GetData(path string, out any) error {
	dp, err := parsePath(path)
	if err != nil {
		return err
	}
	if dp.append {
		return fmt.Errorf("%w: %q cannot be read", ErrBadPath, path)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	doc, err := db.load()
	if err != nil {
		return err
	}
	raw, err := lookup(doc, dp)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("jsondb: decode %s: %w", path, err)
	}
	return nil
}

// Push stores value at path. With override set the previous value is
// replaced; otherwise objects are merged key by key and arrays are
// concatenated.
func (db *DB) Push(path string, value any, override bool) error {
	dp, err := parsePath(path)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("jsondb: encode %s: %w", path, err)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	doc, err := db.load()
	if err != nil {
		return err
	}

	switch {
	case dp.append:
		items, _, err := arrayAt(doc, dp.key)
		if err != nil {
			return err
		}
		if err := setArray(doc, dp.key, append(items, encoded)); err != nil {
			return err
		}
	case dp.index >= 0:
		items, found, err := arrayAt(doc, dp.key)
		if err != nil {
			return err
		}
		if !found || dp.index >= len(items) {
			return fmt.Errorf("%w: %s", ErrDataPath, path)
		}
		if override {
			items[dp.index] = encoded
		} else if items[dp.index], err = merge(items[dp.index], encoded); err != nil {
			return err
		}
		if err := setArray(doc, dp.key, items); err != nil {
			return err
		}
	default:
		existing, found := doc[dp.key]
		if found && !override {
			if encoded, err = merge(existing, encoded); err != nil {
				return err
			}
		}
		doc[dp.key] = encoded
	}

	return db.save(doc)
}

// Delete removes the value at path. For an indexed path the array slot is
// removed and later elements shift down.
func (db *DB) Delete(path string) error {
	dp, err := parsePath(path)
	if err != nil {
		return err
	}
	if dp.append {
		return fmt.Errorf("%w: %q cannot be deleted", ErrBadPath, path)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	doc, err := db.load()
	if err != nil {
		return err
	}

	if dp.index < 0 {
		if _, ok := doc[dp.key]; !ok {
			return fmt.Errorf("%w: %s", ErrDataPath, path)
		}
		delete(doc, dp.key)
		return db.save(doc)
	}

	items, found, err := arrayAt(doc, dp.key)
	if err != nil {
		return err
	}
	if !found || dp.index >= len(items) {
		return fmt.Errorf("%w: %s", ErrDataPath, path)
	}
	items = append(items[:dp.index], items[dp.index+1:]...)
	if err := setArray(doc, dp.key, items); err != nil {
		return err
	}
	return db.save(doc)
}

// GetIndex scans the array at path in order and returns the position of the
// first element whose field equals value, or -1. A missing array yields -1.
// The position is only valid until the next mutation; use the *Where
// operations to act on a record by field.
func (db *DB) GetIndex(path, value, field string) (int, error) {
	dp, err := arrayPath(path)
	if err != nil {
		return -1, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	doc, err := db.load()
	if err != nil {
		return -1, err
	}
	items, _, err := arrayAt(doc, dp.key)
	if err != nil {
		return -1, err
	}
	return indexWhere(items, field, value), nil
}

// GetWhere decodes into out the first element of the array at path whose
// field equals value and reports whether there was one.
func (db *DB) GetWhere(path, field, value string, out any) (bool, error) {
	dp, err := arrayPath(path)
	if err != nil {
		return false, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	doc, err := db.load()
	if err != nil {
		return false, err
	}
	items, _, err := arrayAt(doc, dp.key)
	if err != nil {
		return false, err
	}
	i := indexWhere(items, field, value)
	if i < 0 {
		return false, nil
	}
	if err := json.Unmarshal(items[i], out); err != nil {
		return false, fmt.Errorf("jsondb: decode %s[%d]: %w", path, i, err)
	}
	return true, nil
}

// MergeWhere merges value over the first element of the array at path whose
// field equals match, the same way Push does without override. Lookup and
// write happen under one lock.
func (db *DB) MergeWhere(path, field, match string, value any) (bool, error) {
	dp, err := arrayPath(path)
	if err != nil {
		return false, err
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("jsondb: encode %s: %w", path, err)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	doc, err := db.load()
	if err != nil {
		return false, err
	}
	items, _, err := arrayAt(doc, dp.key)
	if err != nil {
		return false, err
	}
	i := indexWhere(items, field, match)
	if i < 0 {
		return false, nil
	}
	if items[i], err = merge(items[i], encoded); err != nil {
		return false, err
	}
	if err := setArray(doc, dp.key, items); err != nil {
		return false, err
	}
	return true, db.save(doc)
}

// DeleteWhere removes the first element of the array at path whose field
// equals value. Lookup and removal happen under one lock.
func (db *DB) DeleteWhere(path, field, value string) (bool, error) {
	dp, err := arrayPath(path)
	if err != nil {
		return false, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	doc, err := db.load()
	if err != nil {
		return false, err
	}
	items, _, err := arrayAt(doc, dp.key)
	if err != nil {
		return false, err
	}
	i := indexWhere(items, field, value)
	if i < 0 {
		return false, nil
	}
	if err := setArray(doc, dp.key, append(items[:i], items[i+1:]...)); err != nil {
		return false, err
	}
	return true, db.save(doc)
}

// Count returns the number of elements of the array at path; a missing
// array counts as empty.
func (db *DB) Count(path string) (int, error) {
	dp, err := arrayPath(path)
	if err != nil {
		return 0, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	doc, err := db.load()
	if err != nil {
		return 0, err
	}
	items, _, err := arrayAt(doc, dp.key)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

func (db *DB) load() (document, error) {
	data, err := db.backend.Load()
	if err != nil {
		return nil, fmt.Errorf("jsondb: load: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return document{}, nil
	}
	return decode(data)
}

func (db *DB) save(doc document) error {
	var (
		data []byte
		err  error
	)
	if db.opts.Pretty {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return fmt.Errorf("jsondb: encode document: %w", err)
	}
	if err := db.backend.Save(data); err != nil {
		return fmt.Errorf("jsondb: save: %w", err)
	}
	return nil
}

func decode(data []byte) (document, error) {
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return nil, errors.New("jsondb: document is not a JSON object")
	}
	doc := document{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("jsondb: decode document: %w", err)
	}
	return doc, nil
}

func parsePath(path string) (dataPath, error) {
	bad := fmt.Errorf("%w: %q", ErrBadPath, path)
	if !strings.HasPrefix(path, "/") || len(path) < 2 {
		return dataPath{}, bad
	}
	p := path[1:]
	dp := dataPath{raw: path, index: -1}

	open := strings.IndexByte(p, '[')
	if open < 0 {
		if strings.ContainsAny(p, "/]") {
			return dataPath{}, bad
		}
		dp.key = p
		return dp, nil
	}
	if open == 0 || !strings.HasSuffix(p, "]") {
		return dataPath{}, bad
	}
	dp.key = p[:open]
	if strings.ContainsAny(dp.key, "/]") {
		return dataPath{}, bad
	}
	inner := p[open+1 : len(p)-1]
	if inner == "" {
		dp.append = true
		return dp, nil
	}
	i, err := strconv.Atoi(inner)
	if err != nil || i < 0 {
		return dataPath{}, bad
	}
	dp.index = i
	return dp, nil
}

func arrayPath(path string) (dataPath, error) {
	dp, err := parsePath(path)
	if err != nil {
		return dataPath{}, err
	}
	if dp.append || dp.index >= 0 {
		return dataPath{}, fmt.Errorf("%w: %q is not an array path", ErrBadPath, path)
	}
	return dp, nil
}

// indexWhere matches field as a literal key, never as a gjson path pattern.
func indexWhere(items []json.RawMessage, field, value string) int {
	key := gjson.Escape(field)
	for i, item := range items {
		res := gjson.GetBytes(item, key)
		if res.Exists() && res.String() == value {
			return i
		}
	}
	return -1
}

func lookup(doc document, dp dataPath) (json.RawMessage, error) {
	raw, ok := doc[dp.key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDataPath, dp.raw)
	}
	if dp.index < 0 {
		return raw, nil
	}
	items, _, err := arrayAt(doc, dp.key)
	if err != nil {
		return nil, err
	}
	if dp.index >= len(items) {
		return nil, fmt.Errorf("%w: %s", ErrDataPath, dp.raw)
	}
	return items[dp.index], nil
}

func arrayAt(doc document, key string) ([]json.RawMessage, bool, error) {
	raw, ok := doc[key]
	if !ok {
		return nil, false, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, true, fmt.Errorf("jsondb: /%s is not an array: %w", key, err)
	}
	return items, true, nil
}

func setArray(doc document, key string, items []json.RawMessage) error {
	if items == nil {
		items = []json.RawMessage{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("jsondb: encode /%s: %w", key, err)
	}
	doc[key] = raw
	return nil
}

func merge(existing, incoming json.RawMessage) (json.RawMessage, error) {
	oldVal, newVal := gjson.ParseBytes(existing), gjson.ParseBytes(incoming)

	switch {
	case oldVal.IsObject() && newVal.IsObject():
		fields := map[string]json.RawMessage{}
		if err := json.Unmarshal(existing, &fields); err != nil {
			return nil, fmt.Errorf("jsondb: merge: %w", err)
		}
		var overlay map[string]json.RawMessage
		if err := json.Unmarshal(incoming, &overlay); err != nil {
			return nil, fmt.Errorf("jsondb: merge: %w", err)
		}
		for k, v := range overlay {
			fields[k] = v
		}
		return json.Marshal(fields)
	case oldVal.IsArray() && newVal.IsArray():
		var head, tail []json.RawMessage
		if err := json.Unmarshal(existing, &head); err != nil {
			return nil, fmt.Errorf("jsondb: merge: %w", err)
		}
		if err := json.Unmarshal(incoming, &tail); err != nil {
			return nil, fmt.Errorf("jsondb: merge: %w", err)
		}
		return json.Marshal(append(head, tail...))
	default:
		return incoming, nil
	}
}
