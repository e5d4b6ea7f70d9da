package document

import (
	"os"
	"strings"
)

// TextChunkSize is the target chunk length, in bytes, for plain text.
const TextChunkSize = 2000

// ExtractText reads a plain text or Markdown file and chunks it on paragraph
// boundaries.
func ExtractText(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ChunkText(string(content), TextChunkSize), nil
}

// ChunkText groups blank-line separated paragraphs into chunks of roughly
// chunkSize bytes. A paragraph longer than chunkSize becomes a chunk on its own
// rather than being cut mid-sentence.
func ChunkText(text string, chunkSize int) []string {
	chunks := []string{}
	var current strings.Builder

	flush := func() {
		if trimmed := strings.TrimSpace(current.String()); trimmed != "" {
			chunks = append(chunks, trimmed)
		}
		current.Reset()
	}

	for _, paragraph := range splitParagraphs(text) {
		if current.Len() > 0 && current.Len()+len(paragraph) > chunkSize {
			flush()
		}
		current.WriteString(paragraph)
		current.WriteString("\n\n")
	}
	flush()
	return chunks
}

func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var paragraphs []string
	for _, block := range strings.Split(text, "\n\n") {
		if trimmed := strings.TrimSpace(block); trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}
	return paragraphs
}
