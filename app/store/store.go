// Package store persists named calculator documents and the last editing
// session in a bbolt database.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	documentsBucket = "documents"
	metaBucket      = "meta"

	sessionKey = "session"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// Store is a handle on the database file.
type Store struct {
	db *bolt.DB
}

// Document is a stored calculator sheet.
type Document struct {
	Name    string    `json:"name"`
	Text    string    `json:"text"`
	Culture string    `json:"culture"`
	Updated time.Time `json:"updated"`
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{documentsBucket, metaBucket} {
			if _, e := tx.CreateBucketIfNotExists([]byte(name)); e != nil {
				return e
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save stores doc under its name, replacing any previous version.
func (s *Store) Save(doc Document) error {
	if doc.Name == "" {
		return errors.New("document has no name")
	}
	if doc.Updated.IsZero() {
		doc.Updated = time.Now().UTC()
	}
	return s.put(documentsBucket, doc.Name, doc)
}

// Load returns the named document.
func (s *Store) Load(name string) (Document, error) {
	var doc Document
	err := s.get(documentsBucket, name, &doc)
	return doc, err
}

// Delete removes the named document.
func (s *Store) Delete(name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bk := tx.Bucket([]byte(documentsBucket))
		if bk.Get([]byte(name)) == nil {
			return fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return bk.Delete([]byte(name))
	})
}

// List returns every stored document, most recently updated first.
func (s *Store) List() ([]Document, error) {
	var out []Document
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(documentsBucket)).ForEach(func(k, v []byte) error {
			var doc Document
			if err := json.Unmarshal(v, &doc); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			out = append(out, doc)
			return nil
		})
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Updated.After(out[j].Updated)
	})
	return out, err
}

// SaveSession remembers the document open in the editor.
func (s *Store) SaveSession(doc Document) error {
	if doc.Updated.IsZero() {
		doc.Updated = time.Now().UTC()
	}
	return s.put(metaBucket, sessionKey, doc)
}

// LoadSession returns the last saved session. ok is false when there is none.
func (s *Store) LoadSession() (doc Document, ok bool, err error) {
	err = s.get(metaBucket, sessionKey, &doc)
	if errors.Is(err, ErrNotFound) {
		return Document{}, false, nil
	}
	return doc, err == nil, err
}

func (s *Store) put(bucket, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucket)).Put([]byte(key), b)
	})
}

func (s *Store) get(bucket, key string, v any) error {
	return s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket)).Get([]byte(key))
		if b == nil {
			return fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return json.Unmarshal(b, v)
	})
}
