package document

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for extensions no extractor handles.
	ErrUnsupportedFormat = errors.New("document: unsupported format")

	// ErrNotFound is returned when the document does not exist.
	ErrNotFound = errors.New("document: file not found")
)

// Extractor turns one document into ordered text chunks.
type Extractor interface {
	ExtractChunks(path string) ([]string, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(path string) ([]string, error)

func (f ExtractorFunc) ExtractChunks(path string) ([]string, error) {
	return f(path)
}

// Mux dispatches to an Extractor by lowercase file extension (".pdf").
type Mux struct {
	extractors map[string]Extractor
}

// NewMux returns a Mux with the built-in extractors registered.
func NewMux() *Mux {
	mux := &Mux{extractors: make(map[string]Extractor)}
	mux.Handle(".pdf", ExtractorFunc(ExtractPDF))
	mux.Handle(".docx", ExtractorFunc(ExtractDOCX))
	mux.Handle(".txt", ExtractorFunc(ExtractText))
	mux.Handle(".md", ExtractorFunc(ExtractText))
	mux.Handle(".csv", ExtractorFunc(ExtractCSV))
	mux.Handle(".html", ExtractorFunc(ExtractHTML))
	mux.Handle(".htm", ExtractorFunc(ExtractHTML))
	return mux
}

// Handle registers extractor for extension, replacing any previous one.
func (m *Mux) Handle(extension string, extractor Extractor) {
	m.extractors[strings.ToLower(extension)] = extractor
}

// Supports reports whether an extractor is registered for path's extension.
func (m *Mux) Supports(path string) bool {
	_, ok := m.extractors[strings.ToLower(filepath.Ext(path))]
	return ok
}

// ExtractChunks implements Extractor.
func (m *Mux) ExtractChunks(path string) ([]string, error) {
	extractor, ok := m.extractors[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return []string{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return []string{}, err
	}
	chunks, err := extractor.ExtractChunks(path)
	if err != nil {
		return []string{}, fmt.Errorf("extracting %s: %w", filepath.Base(path), err)
	}
	return chunks, nil
}

var defaultMux = NewMux()

// Extract extracts chunks with the built-in extractors.
func Extract(path string) ([]string, error) {
	return defaultMux.ExtractChunks(path)
}
