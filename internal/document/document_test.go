package document

import (
	"archive/zip"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeFile creates name under dir with content and returns its path.
func writeFile(testingHelper *testing.T, dir, name, content string) string {
	testingHelper.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		testingHelper.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// writeDOCX builds a minimal .docx holding one w:p per paragraph.
func writeDOCX(testingHelper *testing.T, dir, name string, paragraphs []string) string {
	testingHelper.Helper()
	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	if err != nil {
		testingHelper.Fatalf("failed to create docx: %v", err)
	}
	defer file.Close()

	archive := zip.NewWriter(file)
	entry, err := archive.Create("word/document.xml")
	if err != nil {
		testingHelper.Fatalf("failed to create entry: %v", err)
	}

	var body strings.Builder
	body.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	body.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, paragraph := range paragraphs {
		fmt.Fprintf(&body, `<w:p><w:r><w:t>%s</w:t></w:r></w:p>`, paragraph)
	}
	body.WriteString(`</w:body></w:document>`)

	if _, err := entry.Write([]byte(body.String())); err != nil {
		testingHelper.Fatalf("failed to write entry: %v", err)
	}
	if err := archive.Close(); err != nil {
		testingHelper.Fatalf("failed to close archive: %v", err)
	}
	return path
}

func TestExtract_Text(testCase *testing.T) {
	path := writeFile(testCase, testCase.TempDir(), "notes.txt", "Quarterly report\n\nRevenue grew.\r\n\r\nCosts fell.")

	chunks, err := Extract(path)
	if err != nil {
		testCase.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 || !strings.Contains(chunks[0], "Revenue grew.") {
		testCase.Errorf("expected one chunk holding all paragraphs, got %q", chunks)
	}
}

func TestChunkText_SplitsOnParagraphs(testCase *testing.T) {
	text := strings.Repeat("a", 30) + "\n\n" + strings.Repeat("b", 30) + "\n\n" + strings.Repeat("c", 80)

	chunks := ChunkText(text, 64)

	if len(chunks) != 2 {
		testCase.Fatalf("expected 2 chunks, got %d: %q", len(chunks), chunks)
	}
	if !strings.HasPrefix(chunks[0], "aaa") || !strings.Contains(chunks[0], "bbb") {
		testCase.Errorf("expected first two paragraphs together, got %q", chunks[0])
	}
	if chunks[1] != strings.Repeat("c", 80) {
		testCase.Errorf("expected oversized paragraph kept whole, got %q", chunks[1])
	}
}

func TestChunkText_Empty(testCase *testing.T) {
	if chunks := ChunkText(" \n\n ", 100); len(chunks) != 0 {
		testCase.Errorf("expected no chunks, got %q", chunks)
	}
}

func TestExtract_DOCXGroupsParagraphs(testCase *testing.T) {
	var paragraphs []string
	for index := range 23 {
		paragraphs = append(paragraphs, fmt.Sprintf("Paragraph %d", index+1))
	}
	path := writeDOCX(testCase, testCase.TempDir(), "brief.DOCX", paragraphs)

	chunks, err := Extract(path)
	if err != nil {
		testCase.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 3 {
		testCase.Fatalf("expected 3 chunks of up to %d paragraphs, got %d", ParagraphsPerChunk, len(chunks))
	}
	if !strings.HasPrefix(chunks[1], "Paragraph 12\n") {
		testCase.Errorf("expected second chunk to start at paragraph 12, got %q", chunks[1])
	}
	if chunks[2] != "Paragraph 23" {
		testCase.Errorf("expected last chunk to hold the remainder, got %q", chunks[2])
	}
}

func TestExtract_DOCXWithoutBody(testCase *testing.T) {
	path := filepath.Join(testCase.TempDir(), "empty.docx")
	file, _ := os.Create(path)
	archive := zip.NewWriter(file)
	_, _ = archive.Create("docProps/app.xml")
	_ = archive.Close()
	_ = file.Close()

	if _, err := Extract(path); err == nil {
		testCase.Error("expected an error for a docx without word/document.xml")
	}
}

func TestExtract_CSVRepeatsHeader(testCase *testing.T) {
	var content strings.Builder
	content.WriteString("name,amount\n")
	for index := range RowsPerChunk + 5 {
		fmt.Fprintf(&content, "item%d,%d\n", index, index)
	}
	path := writeFile(testCase, testCase.TempDir(), "ledger.csv", content.String())

	chunks, err := Extract(path)
	if err != nil {
		testCase.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 2 {
		testCase.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	for _, chunk := range chunks {
		if !strings.HasPrefix(chunk, "name, amount\n") {
			testCase.Errorf("expected header on every chunk, got %q", chunk[:20])
		}
	}
	if strings.Count(chunks[1], "\n") != 5 {
		testCase.Errorf("expected 5 rows in the last chunk, got %q", chunks[1])
	}
}

func TestExtract_HTMLToMarkdown(testCase *testing.T) {
	path := writeFile(testCase, testCase.TempDir(), "page.html", "<html><body><h1>Charter</h1><p>Team <strong>goals</strong>.</p></body></html>")

	chunks, err := Extract(path)
	if err != nil {
		testCase.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 || !strings.Contains(chunks[0], "# Charter") || !strings.Contains(chunks[0], "**goals**") {
		testCase.Errorf("expected markdown output, got %q", chunks)
	}
}

func TestExtract_UnsupportedFormat(testCase *testing.T) {
	path := writeFile(testCase, testCase.TempDir(), "slides.pptx", "binary")

	chunks, err := Extract(path)
	if !errors.Is(err, ErrUnsupportedFormat) {
		testCase.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if chunks == nil || len(chunks) != 0 {
		testCase.Errorf("expected an empty, non-nil sequence, got %#v", chunks)
	}
}

func TestExtract_NotFound(testCase *testing.T) {
	_, err := Extract(filepath.Join(testCase.TempDir(), "missing.pdf"))
	if !errors.Is(err, ErrNotFound) {
		testCase.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExtract_InvalidPDF(testCase *testing.T) {
	path := writeFile(testCase, testCase.TempDir(), "broken.pdf", "not a pdf")

	if _, err := Extract(path); err == nil {
		testCase.Error("expected an error for a malformed pdf")
	}
}

func TestMux_CustomExtractor(testCase *testing.T) {
	mux := NewMux()
	mux.Handle(".LOG", ExtractorFunc(func(path string) ([]string, error) {
		return []string{"custom"}, nil
	}))
	path := writeFile(testCase, testCase.TempDir(), "server.log", "ignored")

	if !mux.Supports(path) {
		testCase.Fatal("expected .log to be supported after Handle")
	}
	chunks, err := mux.ExtractChunks(path)
	if err != nil || len(chunks) != 1 || chunks[0] != "custom" {
		testCase.Errorf("expected custom extractor output, got %q (%v)", chunks, err)
	}
}
