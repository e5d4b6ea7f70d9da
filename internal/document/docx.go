package document

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ParagraphsPerChunk is how many DOCX paragraphs make one chunk.
const ParagraphsPerChunk = 11

// ExtractDOCX reads word/document.xml and groups non-empty paragraphs into
// chunks of ParagraphsPerChunk.
func ExtractDOCX(path string) ([]string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening docx: %w", err)
	}
	defer archive.Close()

	for _, entry := range archive.File {
		if entry.Name != "word/document.xml" {
			continue
		}
		body, err := entry.Open()
		if err != nil {
			return nil, fmt.Errorf("opening document.xml: %w", err)
		}
		defer body.Close()

		paragraphs, err := readParagraphs(body)
		if err != nil {
			return nil, err
		}
		return groupParagraphs(paragraphs, ParagraphsPerChunk), nil
	}
	return nil, errors.New("docx: word/document.xml not found")
}

// readParagraphs streams the WordprocessingML body collecting the text runs
// (w:t) of every paragraph (w:p). Tabs and breaks become whitespace.
func readParagraphs(reader io.Reader) ([]string, error) {
	decoder := xml.NewDecoder(reader)
	var paragraphs []string
	var current strings.Builder
	inText := false

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decoding document.xml: %w", err)
		}

		switch element := token.(type) {
		case xml.StartElement:
			switch element.Name.Local {
			case "t":
				inText = true
			case "tab":
				current.WriteByte('\t')
			case "br":
				current.WriteByte('\n')
			}
		case xml.EndElement:
			switch element.Name.Local {
			case "t":
				inText = false
			case "p":
				if text := strings.TrimSpace(current.String()); text != "" {
					paragraphs = append(paragraphs, text)
				}
				current.Reset()
			}
		case xml.CharData:
			if inText {
				current.Write(element)
			}
		}
	}
	return paragraphs, nil
}

func groupParagraphs(paragraphs []string, size int) []string {
	chunks := []string{}
	for start := 0; start < len(paragraphs); start += size {
		end := min(start+size, len(paragraphs))
		chunks = append(chunks, strings.Join(paragraphs[start:end], "\n"))
	}
	return chunks
}
