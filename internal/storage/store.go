package storage

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/pixil98/go-errors"
	"gopkg.in/yaml.v3"
)

type Storer[T ValidatingSpec] interface {
	Get(string) (T, error)
	Keys() ([]Identifier, error)
	Invalidate()
}

// FileStore lazily loads YAML documents from a directory and caches the
// ones that parse and validate. Failed loads are never cached so a fixed
// document is picked up on the next Get.
type FileStore[T ValidatingSpec] struct {
	path    string
	records map[Identifier]T

	mu sync.RWMutex
}

func NewFileStore[T ValidatingSpec](path string) (*FileStore[T], error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("opening document directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("document path %q is not a directory", path)
	}

	return &FileStore[T]{
		path:    path,
		records: map[Identifier]T{},
	}, nil
}

// Path returns the directory backing the store.
func (s *FileStore[T]) Path() string {
	return s.path
}

func (s *FileStore[T]) Get(id string) (T, error) {
	key := Canonical(id)

	s.mu.RLock()
	val, ok := s.records[key]
	s.mu.RUnlock()
	if ok {
		return val, nil
	}

	var zero T
	if !key.Valid() {
		return zero, fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
	}

	val, err := s.loadDocument(key)
	if err != nil {
		return zero, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another caller may have raced us; keep the first cached value.
	if cached, ok := s.records[key]; ok {
		return cached, nil
	}
	s.records[key] = val
	return val, nil
}

// Exists reports whether a document for id is cached or present on disk.
func (s *FileStore[T]) Exists(id string) bool {
	key := Canonical(id)

	s.mu.RLock()
	_, ok := s.records[key]
	s.mu.RUnlock()
	if ok {
		return true
	}
	if !key.Valid() {
		return false
	}

	_, err := s.documentPath(key)
	return err == nil
}

// Keys lists every document in the directory, sorted.
func (s *FileStore[T]) Keys() ([]Identifier, error) {
	entries, err := os.ReadDir(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading document directory: %w", err)
	}

	var keys []Identifier
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".yml" && ext != ".yaml" {
			continue
		}
		key := Canonical(e.Name())
		if !key.Valid() {
			slog.Warn("skipping document with invalid name", "path", filepath.Join(s.path, e.Name()))
			continue
		}
		if !slices.Contains(keys, key) {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)

	return keys, nil
}

// GetAll loads every document. Documents that fail are left out of the
// result and reported together in the returned error.
func (s *FileStore[T]) GetAll() (map[Identifier]T, error) {
	keys, err := s.Keys()
	if err != nil {
		return nil, err
	}

	el := errors.NewErrorList()
	vals := map[Identifier]T{}
	for _, k := range keys {
		v, err := s.Get(string(k))
		if err != nil {
			el.Add(err)
			continue
		}
		vals[k] = v
	}

	return vals, el.Err()
}

// Invalidate drops every cached document.
func (s *FileStore[T]) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = map[Identifier]T{}
}

func (s *FileStore[T]) documentPath(key Identifier) (string, error) {
	for _, ext := range []string{".yml", ".yaml"} {
		p := filepath.Join(s.path, string(key)+ext)
		info, err := os.Stat(p)
		if err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, filepath.Join(s.path, key.FileName()))
}

func (s *FileStore[T]) loadDocument(key Identifier) (T, error) {
	var doc T

	path, err := s.documentPath(key)
	if err != nil {
		return doc, err
	}

	file, err := os.Open(path)
	if err != nil {
		return doc, fmt.Errorf("opening file: %w", err)
	}

	// Ignoring close error - file is read-only, error is not actionable
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return doc, fmt.Errorf("reading file: %w", err)
	}

	err = yaml.Unmarshal(data, &doc)
	if err != nil {
		return doc, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	if isNil(doc) {
		return doc, fmt.Errorf("parsing %s: document is empty", filepath.Base(path))
	}

	if ided, ok := any(doc).(Identified); ok {
		ided.SetIdentifier(key)
	}

	err = doc.Validate()
	if err != nil {
		return doc, fmt.Errorf("validating %s: %w", filepath.Base(path), err)
	}

	return doc, nil
}
