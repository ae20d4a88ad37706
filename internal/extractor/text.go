package extractor

import (
	"bufio"
	"io"
	"strings"
)

// TextExtractor handles plain text files. The content carries no structure,
// so it passes through as heading-free markdown and the whole document ends
// up owned by the segment tree's root.
type TextExtractor struct{}

func (e *TextExtractor) Extract(r io.Reader, filename string) (*Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var b strings.Builder
	for scanner.Scan() {
		b.WriteString(scanner.Text())
		b.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return &Document{
		Title: stem(filename),
		Text:  b.String(),
	}, nil
}
