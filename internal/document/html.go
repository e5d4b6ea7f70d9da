package document

import (
	"fmt"
	"os"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// ExtractHTML converts an HTML page to Markdown and chunks it like text, so
// headings and lists survive as structure instead of tag soup.
func ExtractHTML(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	markdown, err := htmltomarkdown.ConvertString(string(content))
	if err != nil {
		return nil, fmt.Errorf("converting html: %w", err)
	}
	return ChunkText(markdown, TextChunkSize), nil
}
