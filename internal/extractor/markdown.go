package extractor

import (
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownExtractor handles markdown sources. The text itself needs no
// conversion since the upstream recognition subsystem already produces our
// format, so extraction only derives a title from the first top-level
// heading in the goldmark AST.
type MarkdownExtractor struct{}

func (e *MarkdownExtractor) Extract(r io.Reader, filename string) (*Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Title: stem(filename),
		Text:  string(src),
	}
	if title := firstHeading(src); title != "" {
		doc.Title = title
	}
	return doc, nil
}

// firstHeading returns the text of the shallowest earliest heading.
func firstHeading(src []byte) string {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(src))

	best := ""
	bestLevel := 7
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Level >= bestLevel {
			continue
		}
		if t := string(h.Text(src)); t != "" {
			best = t
			bestLevel = h.Level
		}
		if bestLevel == 1 {
			break
		}
	}
	return best
}
