// Package segmenter turns normalized, marker-annotated text into bounded
// retrieval segments that carry their heading lineage and source page.
package segmenter

import (
	"fmt"
	"log/slog"
	"strings"

	"medingest/internal/doctree"
)

// Config controls segmentation behavior.
type Config struct {
	MaxUnitSize int       // target segment size in estimated tokens
	Marker      byte      // heading marker character, '#' when zero
	MaxDepth    int       // heading levels recognized, 6 when zero
	Estimator   Estimator // token estimator, CharEstimator when nil
}

// DefaultConfig returns the defaults used by the pipeline.
func DefaultConfig() Config {
	return Config{
		MaxUnitSize: 512,
		Marker:      '#',
		MaxDepth:    6,
		Estimator:   CharEstimator{},
	}
}

// Segmenter builds a section tree per document and emits its segments.
// It holds no per-document state, so one Segmenter may serve concurrent
// documents.
type Segmenter struct {
	cfg Config
	log *slog.Logger
}

// New validates the configuration up front; segmentation itself cannot fail
// on well-formed normalized input.
func New(cfg Config, log *slog.Logger) (*Segmenter, error) {
	if cfg.MaxUnitSize <= 0 {
		return nil, fmt.Errorf("segmenter: max unit size must be positive, got %d", cfg.MaxUnitSize)
	}
	if cfg.Marker == 0 {
		cfg.Marker = '#'
	}
	if cfg.MaxDepth <= 0 || cfg.MaxDepth > 6 {
		cfg.MaxDepth = 6
	}
	if cfg.Estimator == nil {
		cfg.Estimator = CharEstimator{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Segmenter{cfg: cfg, log: log}, nil
}

// Segment reconstructs the section tree and emits bounded segments in
// document reading order. The index counter is threaded through the
// traversal, so repeated calls over the same input yield identical output.
func (s *Segmenter) Segment(text string) []doctree.Segment {
	tree := doctree.Build(text, doctree.BuildOptions{
		Marker:   s.cfg.Marker,
		MaxDepth: s.cfg.MaxDepth,
		Log:      s.log,
	})

	var segments []doctree.Segment
	s.emit(tree, 0, nil, &segments, 0)
	return segments
}

// emit handles one node then recurses into its children, returning the next
// free segment index.
func (s *Segmenter) emit(tree *doctree.Tree, idx int, breadcrumb []string, out *[]doctree.Segment, next int) int {
	node := &tree.Nodes[idx]

	bc := breadcrumb
	if node.Title != "" {
		bc = make([]string, len(breadcrumb), len(breadcrumb)+1)
		copy(bc, breadcrumb)
		bc = append(bc, node.Title)
	}

	if node.Body != "" {
		crumb := strings.Join(bc, " > ")
		if s.cfg.Estimator.Estimate(node.Body) <= s.cfg.MaxUnitSize {
			*out = append(*out, s.segment(node.Body, crumb, node, next))
			next++
		} else {
			for _, piece := range s.pack(splitParagraphs(node.Body)) {
				*out = append(*out, s.segment(piece, crumb, node, next))
				next++
			}
		}
	}

	for _, child := range node.Children {
		next = s.emit(tree, child, bc, out, next)
	}
	return next
}

func (s *Segmenter) segment(body, crumb string, node *doctree.Node, index int) doctree.Segment {
	content := body
	if crumb != "" {
		content = "Context: " + crumb + "\n\n" + body
	}
	return doctree.Segment{
		Content:    content,
		Breadcrumb: crumb,
		Depth:      node.Depth,
		Index:      index,
		Page:       node.Page,
	}
}

// pack greedily joins consecutive paragraphs into pieces whose estimated
// size stays within MaxUnitSize. Paragraphs are never split internally: a
// single paragraph above the limit is emitted whole, making the size bound
// a hard constraint only at paragraph granularity.
func (s *Segmenter) pack(paragraphs []string) []string {
	var pieces []string
	current := ""

	flush := func() {
		if current != "" {
			pieces = append(pieces, current)
			current = ""
		}
	}

	for _, para := range paragraphs {
		if s.cfg.Estimator.Estimate(para) > s.cfg.MaxUnitSize {
			if kind := atomicKind(para); kind != "" {
				s.log.Debug("emitting oversized atomic block whole",
					"kind", kind,
					"estimated_tokens", s.cfg.Estimator.Estimate(para),
				)
			}
			flush()
			pieces = append(pieces, para)
			continue
		}
		candidate := para
		if current != "" {
			candidate = current + "\n\n" + para
		}
		if current != "" && s.cfg.Estimator.Estimate(candidate) > s.cfg.MaxUnitSize {
			flush()
			candidate = para
		}
		current = candidate
	}
	flush()
	return pieces
}

// splitParagraphs breaks a body into blank-line-bounded paragraphs, keeping
// fenced blocks intact: blank lines inside a ``` fence never split.
func splitParagraphs(body string) []string {
	var paragraphs []string
	var current []string
	inFence := false

	flush := func() {
		if len(current) > 0 {
			paragraphs = append(paragraphs, strings.Join(current, "\n"))
			current = current[:0]
		}
	}

	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			current = append(current, line)
			continue
		}
		if strings.TrimSpace(line) == "" && !inFence {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()
	return paragraphs
}

// atomicKind classifies paragraphs that must never be split internally.
// The packer already treats every paragraph as indivisible; the kind is
// surfaced for logging when such a block exceeds the size limit.
func atomicKind(para string) string {
	trimmed := strings.TrimSpace(para)
	switch {
	case strings.HasPrefix(trimmed, "```"):
		return "fenced block"
	case strings.HasPrefix(trimmed, ">"):
		return "block quote"
	case isListItem(trimmed):
		return "list"
	}
	return ""
}

func isListItem(line string) bool {
	if line == "" {
		return false
	}
	if (line[0] == '-' || line[0] == '*' || line[0] == '+') && len(line) > 1 && line[1] == ' ' {
		return true
	}
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	return i > 0 && i+1 < len(line) && (line[i] == '.' || line[i] == ')') && line[i+1] == ' '
}
