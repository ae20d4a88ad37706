// Package extractor converts source file formats into the marker-annotated
// markdown the pipeline runs on: headings as #-lines, page provenance as
// <!-- PAGE: N --> sentinel lines.
package extractor

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Document is raw extracted text plus the best available title.
type Document struct {
	Title string // document title (first heading, <title> tag, or filename stem)
	Text  string // marker-annotated markdown, not yet normalized
}

// Extractor converts one source format into a Document.
type Extractor interface {
	Extract(r io.Reader, filename string) (*Document, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate extractor for a filename.
func ForFile(filename string) (Extractor, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return &TextExtractor{}, nil
	case ".md", ".markdown":
		return &MarkdownExtractor{}, nil
	case ".csv":
		return &CSVExtractor{}, nil
	case ".html", ".htm":
		return &HTMLExtractor{}, nil
	case ".pdf":
		return &PDFExtractor{FallbackPdftotext: true}, nil
	case ".docx":
		return &DOCXExtractor{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", filepath.Ext(filename))
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// stem strips the extension from a filename for use as a fallback title.
func stem(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

// PageMarker renders the sentinel line for a source page. Every extractor
// that knows page boundaries emits these so provenance survives all the way
// to the emitted segments.
func PageMarker(page int) string {
	return fmt.Sprintf("<!-- PAGE: %d -->", page)
}
