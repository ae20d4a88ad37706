// Package interim persists per-document intermediate artifacts for
// traceability: the normalized text and the full segment record collection.
// Output is bit-stable for equivalent inputs so reruns of the same document
// can be diffed.
package interim

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"medingest/internal/doctree"
)

// SegmentRecord is one serialized segment. Field order is fixed; the files
// are a debugging contract, not an API.
type SegmentRecord struct {
	Content    string `json:"content"`
	Context    string `json:"context"`
	Level      int    `json:"level"`
	ChunkIndex int    `json:"chunk_index"`
	PageNumber int    `json:"page_number"`
}

// DocumentRecord is the record collection written per source document.
type DocumentRecord struct {
	DocID         string          `json:"doc_id"`
	Source        string          `json:"source"`
	TotalSegments int             `json:"total_segments"`
	Segments      []SegmentRecord `json:"segments"`
}

// NewDocumentRecord assembles the serializable record for a document run.
func NewDocumentRecord(docID, source string, segments []doctree.Segment) DocumentRecord {
	records := make([]SegmentRecord, len(segments))
	for i, seg := range segments {
		records[i] = SegmentRecord{
			Content:    seg.Content,
			Context:    seg.Breadcrumb,
			Level:      seg.Depth,
			ChunkIndex: seg.Index,
			PageNumber: seg.Page,
		}
	}
	return DocumentRecord{
		DocID:         docID,
		Source:        source,
		TotalSegments: len(segments),
		Segments:      records,
	}
}

// Writer stores intermediate files under a base directory. A nil Writer (or
// one with an empty dir) discards everything, so callers don't need to
// branch on whether persistence is enabled.
type Writer struct {
	dir string
}

// NewWriter creates the base directory on first use.
func NewWriter(dir string) (*Writer, error) {
	if dir == "" {
		return &Writer{}, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create interim dir: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// Enabled reports whether files will actually be written.
func (w *Writer) Enabled() bool {
	return w != nil && w.dir != ""
}

// WriteNormalized stores the post-normalization text as <stem>_cleaned.md.
func (w *Writer) WriteNormalized(stem, text string) error {
	if !w.Enabled() {
		return nil
	}
	path := filepath.Join(w.dir, stem+"_cleaned.md")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write normalized text: %w", err)
	}
	return nil
}

// WriteSegments stores the segment record collection as <stem>_segments.json.
func (w *Writer) WriteSegments(stem string, rec DocumentRecord) error {
	if !w.Enabled() {
		return nil
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal segments: %w", err)
	}
	path := filepath.Join(w.dir, stem+"_segments.json")
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write segments: %w", err)
	}
	return nil
}
