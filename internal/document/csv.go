package document

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// RowsPerChunk is how many CSV data rows make one chunk.
const RowsPerChunk = 50

// ExtractCSV repeats the header line at the top of every chunk of
// RowsPerChunk rows, so each chunk can be read on its own.
func ExtractCSV(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}
	headerLine := strings.Join(header, ", ")

	chunks := []string{}
	var rows []string
	flush := func() {
		if len(rows) == 0 {
			return
		}
		chunks = append(chunks, headerLine+"\n"+strings.Join(rows, "\n"))
		rows = rows[:0]
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv row: %w", err)
		}
		rows = append(rows, strings.Join(record, ", "))
		if len(rows) == RowsPerChunk {
			flush()
		}
	}
	flush()

	if len(chunks) == 0 {
		chunks = append(chunks, headerLine)
	}
	return chunks, nil
}
