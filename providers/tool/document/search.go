package document

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"

	extract "github.com/leofalp/crewgraph/internal/document"
)

// SearchTool answers free-text queries about one document.
type SearchTool interface {
	// Name identifies the tool to a language model, e.g. "search_report_pdf".
	Name() string
	// Path is the document the tool searches.
	Path() string
	// Query returns the passages most relevant to text.
	Query(ctx context.Context, text string) (string, error)
}

// DefaultTopPassages is how many passages a query returns.
const DefaultTopPassages = 3

type searchConfig struct {
	topPassages int
}

// SearchOption configures a ChunkSearch.
type SearchOption func(*searchConfig)

// WithTopPassages sets how many passages a query returns.
func WithTopPassages(count int) SearchOption {
	return func(config *searchConfig) {
		if count > 0 {
			config.topPassages = count
		}
	}
}

// ChunkSearch ranks the document's chunks by query term frequency. The document
// is extracted lazily on the first query and kept in memory afterwards.
type ChunkSearch struct {
	path      string
	extractor extract.Extractor
	config    searchConfig

	loadOnce sync.Once
	chunks   []string
	terms    []map[string]int
	loadErr  error
}

var _ SearchTool = (*ChunkSearch)(nil)

// NewChunkSearch creates a search tool over path.
func NewChunkSearch(path string, extractor extract.Extractor, opts ...SearchOption) *ChunkSearch {
	config := searchConfig{topPassages: DefaultTopPassages}
	for _, opt := range opts {
		opt(&config)
	}
	return &ChunkSearch{path: path, extractor: extractor, config: config}
}

var nonIdentifier = regexp.MustCompile(`[^a-z0-9]+`)

// Name derives a tool name from the file name: "Q3 Report.pdf" -> "search_q3_report_pdf".
func (s *ChunkSearch) Name() string {
	base := strings.Trim(nonIdentifier.ReplaceAllString(strings.ToLower(filepath.Base(s.path)), "_"), "_")
	return "search_" + base
}

func (s *ChunkSearch) Path() string {
	return s.path
}

// Query returns up to the configured number of passages, best first, separated
// by "---". Chunks without any query term are never returned.
func (s *ChunkSearch) Query(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.loadOnce.Do(s.load)
	if s.loadErr != nil {
		return "", s.loadErr
	}

	queryTerms := tokenize(text)
	if len(queryTerms) == 0 {
		return "", fmt.Errorf("empty query for %s", filepath.Base(s.path))
	}

	type scored struct {
		index int
		score int
	}
	var ranking []scored
	for index, chunkTerms := range s.terms {
		score := 0
		for term := range queryTerms {
			score += chunkTerms[term]
		}
		if score > 0 {
			ranking = append(ranking, scored{index: index, score: score})
		}
	}
	if len(ranking) == 0 {
		return fmt.Sprintf("No passage of %s matches %q.", filepath.Base(s.path), text), nil
	}

	sort.SliceStable(ranking, func(i, j int) bool { return ranking[i].score > ranking[j].score })
	if len(ranking) > s.config.topPassages {
		ranking = ranking[:s.config.topPassages]
	}

	passages := make([]string, 0, len(ranking))
	for _, entry := range ranking {
		passages = append(passages, s.chunks[entry.index])
	}
	return strings.Join(passages, "\n---\n"), nil
}

func (s *ChunkSearch) load() {
	chunks, err := s.extractor.ExtractChunks(s.path)
	if err != nil {
		s.loadErr = fmt.Errorf("loading %s: %w", filepath.Base(s.path), err)
		return
	}
	s.chunks = chunks
	s.terms = make([]map[string]int, len(chunks))
	for index, chunk := range chunks {
		counts := map[string]int{}
		for _, word := range words(chunk) {
			counts[word]++
		}
		s.terms[index] = counts
	}
}

// tokenize returns the distinct query words worth matching on.
func tokenize(text string) map[string]struct{} {
	terms := map[string]struct{}{}
	for _, word := range words(text) {
		terms[word] = struct{}{}
	}
	return terms
}

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "that": {}, "this": {}, "are": {}, "was": {},
	"what": {}, "which": {}, "who": {}, "how": {}, "from": {}, "its": {}, "into": {}, "about": {},
}

// words lowercases text and splits it on non-alphanumerics, dropping stop words
// and words shorter than three runes.
func words(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	kept := fields[:0]
	for _, field := range fields {
		if _, stop := stopWords[field]; stop || len([]rune(field)) < 3 {
			continue
		}
		kept = append(kept, field)
	}
	return kept
}
