package extractor

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// CSVExtractor renders CSV data as a markdown table. The normalizer then
// linearizes that table into key:value lines, so tabular sources get the
// same retrieval shape as tables embedded in reports.
type CSVExtractor struct{}

func (e *CSVExtractor) Extract(r io.Reader, filename string) (*Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	doc := &Document{Title: stem(filename)}
	if len(records) == 0 {
		return doc, nil
	}

	headers := records[0]
	var b strings.Builder
	b.WriteString("| " + strings.Join(sanitizeCells(headers), " | ") + " |\n")
	b.WriteString("|" + strings.Repeat("---|", len(headers)) + "\n")
	for _, row := range records[1:] {
		b.WriteString("| " + strings.Join(sanitizeCells(row), " | ") + " |\n")
	}

	doc.Text = b.String()
	return doc, nil
}

// sanitizeCells keeps cell content from breaking table row syntax.
func sanitizeCells(row []string) []string {
	out := make([]string, len(row))
	for i, c := range row {
		c = strings.ReplaceAll(c, "|", "/")
		c = strings.ReplaceAll(c, "\n", " ")
		out[i] = strings.TrimSpace(c)
	}
	return out
}
