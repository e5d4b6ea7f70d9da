// Package file stores named JSON documents (diagrams) in a directory, one
// <name>.json file per document.
package file

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leofalp/crewgraph/internal/utils"
)

var (
	// ErrDiagramNotFound is returned when the named document does not exist.
	ErrDiagramNotFound = errors.New("diagram not found")

	// ErrInvalidName is returned for empty names or names escaping the directory.
	ErrInvalidName = errors.New("invalid diagram name")
)

const extension = ".json"

// Store persists values of type T as indented JSON. It is safe for concurrent
// use; writes are atomic.
type Store[T any] struct {
	dir string
}

// New returns a store rooted at dir, creating it if needed.
func New[T any](dir string) (*Store[T], error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create diagram directory %s: %w", dir, err)
	}
	return &Store[T]{dir: dir}, nil
}

// Dir returns the root directory.
func (s *Store[T]) Dir() string {
	return s.dir
}

// FileName normalizes a diagram name: spaces become underscores and the .json
// extension is appended when missing.
func FileName(name string) (string, error) {
	name = strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	if name == "" || name == extension {
		return "", ErrInvalidName
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if !strings.HasSuffix(strings.ToLower(name), extension) {
		name += extension
	}
	return name, nil
}

// List returns the file names of every stored diagram, sorted.
func (s *Store[T]) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list diagrams: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), extension) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Get loads the named diagram.
func (s *Store[T]) Get(name string) (T, error) {
	var value T

	path, err := s.path(name)
	if err != nil {
		return value, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return value, fmt.Errorf("%w: %s", ErrDiagramNotFound, filepath.Base(path))
		}
		return value, fmt.Errorf("failed to read diagram %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, &value); err != nil {
		return value, fmt.Errorf("failed to decode diagram %s: %w", filepath.Base(path), err)
	}
	return value, nil
}

// Save writes value under name, replacing any existing diagram, and returns the
// stored file name.
func (s *Store[T]) Save(name string, value T) (string, error) {
	path, err := s.path(name)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode diagram: %w", err)
	}
	if err := utils.WriteFileAtomic(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to save diagram %s: %w", filepath.Base(path), err)
	}
	return filepath.Base(path), nil
}

// Delete removes the named diagram.
func (s *Store[T]) Delete(name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrDiagramNotFound, filepath.Base(path))
		}
		return fmt.Errorf("failed to delete diagram %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (s *Store[T]) path(name string) (string, error) {
	fileName, err := FileName(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, fileName), nil
}
