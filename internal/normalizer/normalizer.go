// Package normalizer cleans OCR/conversion artifacts out of marker-annotated
// markdown before segmentation. Normalize is pure and idempotent: rerunning
// it on its own output is a no-op, which keeps repeated debug runs of the
// same document stable.
package normalizer

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrInvalidEncoding is returned when the input is not valid UTF-8.
// No partial output is produced for such documents.
var ErrInvalidEncoding = errors.New("normalizer: input is not valid UTF-8")

// Normalize applies the cleanup passes in a fixed order. Later passes assume
// the artifacts removed by earlier ones are gone, so the order matters:
//
//  1. strip image references ![alt](target)
//  2. strip empty-target links [](target)
//  3. linearize markdown table blocks into "Header: Value" lines
//  4. rejoin words hyphenated across line wraps
//  5. collapse runs of 3+ newlines to a single blank line
//  6. trim surrounding whitespace
//
// Page markers and heading lines pass through untouched; the segmenter
// depends on that.
func Normalize(text string) (string, error) {
	if !utf8.ValidString(text) {
		return "", ErrInvalidEncoding
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		line = stripImageRefs(line)
		lines[i] = stripEmptyLinks(line)
	}
	lines = linearizeTables(lines)
	lines = rejoinHyphens(lines)

	out := strings.Join(lines, "\n")
	out = collapseBlankLines(out)
	return strings.TrimSpace(out), nil
}

// stripImageRefs removes every complete ![...](...)  occurrence in a line.
// Incomplete syntax is left alone.
func stripImageRefs(line string) string {
	for {
		start := strings.Index(line, "![")
		if start < 0 {
			return line
		}
		mid := strings.Index(line[start:], "](")
		if mid < 0 {
			return line
		}
		end := strings.Index(line[start+mid+2:], ")")
		if end < 0 {
			return line
		}
		line = line[:start] + line[start+mid+2+end+1:]
	}
}

// stripEmptyLinks removes phantom [](...) citation artifacts.
func stripEmptyLinks(line string) string {
	for {
		start := strings.Index(line, "[](")
		if start < 0 {
			return line
		}
		end := strings.Index(line[start+3:], ")")
		if end < 0 {
			return line
		}
		line = line[:start] + line[start+3+end+1:]
	}
}

// linearizeTables rewrites each detected table block as flat key:value
// lines. A block starts at a row containing the column delimiter whose next
// line is a separator row; the header row and separator are consumed and
// every following data row becomes one "Header1: Value1, Header2: Value2"
// line. Rows with a cell count different from the header are zipped to the
// shorter length; extra cells are dropped, not realigned.
func linearizeTables(lines []string) []string {
	out := make([]string, 0, len(lines))
	i := 0
	for i < len(lines) {
		if !isTableRow(lines[i]) || i+1 >= len(lines) || !isSeparatorRow(lines[i+1]) {
			out = append(out, lines[i])
			i++
			continue
		}

		headers := splitCells(lines[i])
		i += 2 // skip header and separator
		for i < len(lines) && isTableRow(lines[i]) && !isSeparatorRow(lines[i]) {
			cells := splitCells(lines[i])
			n := len(headers)
			if len(cells) < n {
				n = len(cells)
			}
			pairs := make([]string, 0, n)
			for j := 0; j < n; j++ {
				pairs = append(pairs, headers[j]+": "+cells[j])
			}
			out = append(out, strings.Join(pairs, ", "))
			i++
		}
	}
	return out
}

func isTableRow(line string) bool {
	return strings.Contains(line, "|") && strings.TrimSpace(line) != ""
}

// isSeparatorRow matches rows like |----|:---:| that contain only
// delimiters, dashes, colons and spaces, with at least one dash.
func isSeparatorRow(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || !strings.Contains(trimmed, "-") {
		return false
	}
	for _, r := range trimmed {
		switch r {
		case '|', '-', ':', ' ', '\t':
		default:
			return false
		}
	}
	return true
}

func splitCells(line string) []string {
	var cells []string
	for _, c := range strings.Split(line, "|") {
		c = strings.TrimSpace(c)
		if c != "" {
			cells = append(cells, c)
		}
	}
	return cells
}

// rejoinHyphens merges words broken across line wraps: a line ending in a
// letter followed by "-" whose successor starts with a letter. Blank lines
// and table rows never participate. Legitimate compounds such as
// "co-\noperative" merge too; that over-merge is accepted behavior.
func rejoinHyphens(lines []string) []string {
	out := make([]string, 0, len(lines))
	i := 0
	for i < len(lines) {
		line := lines[i]
		for i+1 < len(lines) && hyphenBreak(line, lines[i+1]) {
			line = line[:len(line)-1] + lines[i+1]
			i++
		}
		out = append(out, line)
		i++
	}
	return out
}

func hyphenBreak(cur, next string) bool {
	if !strings.HasSuffix(cur, "-") || next == "" {
		return false
	}
	if strings.Contains(cur, "|") || strings.Contains(next, "|") {
		return false
	}
	before, _ := utf8.DecodeLastRuneInString(cur[:len(cur)-1])
	after, _ := utf8.DecodeRuneInString(next)
	return unicode.IsLetter(before) && unicode.IsLetter(after)
}

// collapseBlankLines reduces any run of 3 or more newlines to exactly 2.
func collapseBlankLines(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	run := 0
	for _, r := range text {
		if r == '\n' {
			run++
			if run <= 2 {
				b.WriteRune(r)
			}
			continue
		}
		run = 0
		b.WriteRune(r)
	}
	return b.String()
}
