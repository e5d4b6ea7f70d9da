package document

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	extract "github.com/leofalp/crewgraph/internal/document"
)

var (
	// ErrDocumentNotFound is returned when the document does not exist.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrUnsupportedDocument is returned for extensions outside the registry.
	ErrUnsupportedDocument = errors.New("unsupported document type")
)

// Kind tags a supported document format.
type Kind string

const (
	KindPDF  Kind = "pdf"
	KindDOCX Kind = "docx"
	KindTXT  Kind = "txt"
	KindCSV  Kind = "csv"
)

// KindOf returns the Kind for path's extension (case-insensitive).
func KindOf(path string) (Kind, bool) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "pdf":
		return KindPDF, true
	case "docx":
		return KindDOCX, true
	case "txt":
		return KindTXT, true
	case "csv":
		return KindCSV, true
	default:
		return "", false
	}
}

// Constructor builds a SearchTool for the document at path.
type Constructor func(path string) (SearchTool, error)

// Registry maps document kinds to SearchTool constructors. It is built once and
// read concurrently; Register is meant for setup time only.
type Registry struct {
	constructors map[Kind]Constructor
}

// NewRegistry returns a registry with a chunk-search constructor for every Kind,
// extracting text with extractor (the built-in extractors when nil).
func NewRegistry(extractor extract.Extractor, opts ...SearchOption) *Registry {
	if extractor == nil {
		extractor = extract.NewMux()
	}
	constructor := func(path string) (SearchTool, error) {
		return NewChunkSearch(path, extractor, opts...), nil
	}
	return &Registry{constructors: map[Kind]Constructor{
		KindPDF:  constructor,
		KindDOCX: constructor,
		KindTXT:  constructor,
		KindCSV:  constructor,
	}}
}

// Register replaces the constructor used for kind.
func (r *Registry) Register(kind Kind, constructor Constructor) {
	r.constructors[kind] = constructor
}

// Kinds lists the registered kinds in sorted order.
func (r *Registry) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r.constructors))
	for kind := range r.constructors {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// New resolves a SearchTool for path. The file must exist and its extension
// must map to a registered Kind.
func (r *Registry) New(path string) (SearchTool, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, path)
	}

	kind, ok := KindOf(path)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDocument, filepath.Ext(path))
	}
	constructor, ok := r.constructors[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDocument, kind)
	}
	return constructor(path)
}
