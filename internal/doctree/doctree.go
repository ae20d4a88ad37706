// Package doctree reconstructs the section hierarchy of a marker-annotated
// document. Nodes live in a flat arena addressed by index, so the tree has
// no pointer cycles and traversal order is explicit.
package doctree

import (
	"log/slog"
	"strconv"
	"strings"
)

// Node is one section of the document. Index 0 of a Tree is always the
// implicit root: depth 0, empty title, owning any text that appears before
// the first heading.
type Node struct {
	Title    string // heading text, empty for the root
	Depth    int    // 0 for root, 1-6 for headings
	Page     int    // page active when the heading (or first root content) appeared
	Parent   int    // arena index of the parent, -1 for the root
	Children []int  // arena indices in document order
	Body     string // text owned directly by this node, before its first child heading
}

// Tree is an arena-backed section tree. It is built once per document,
// traversed once for segment emission, and then discarded.
type Tree struct {
	Nodes []Node
}

// Root returns the implicit root node.
func (t *Tree) Root() *Node {
	return &t.Nodes[0]
}

// BuildOptions controls heading recognition during the scan.
type BuildOptions struct {
	Marker   byte // heading marker character, '#' when zero
	MaxDepth int  // deepest marker count treated as a heading, 6 when zero
	Log      *slog.Logger
}

// Segment is the unit handed to downstream consumers: bounded text with its
// structural lineage attached.
type Segment struct {
	Content    string // breadcrumb line (when any) followed by the body text
	Breadcrumb string // " > "-joined ancestor heading path, empty at the root
	Depth      int    // depth of the owning node
	Index      int    // position in document reading order, from 0
	Page       int    // page inherited from the owning node
}

// Build scans normalized text in a single forward pass, maintaining a stack
// of open sections. Page markers update the current page without opening a
// node; a heading of depth D closes every open section of depth >= D and
// opens a child of whatever remains on top. A heading that skips levels is
// attached to that nearest open ancestor as-is, missing intermediate levels
// are never fabricated, only logged. A node's Page is the page active where
// its body starts (its heading's page while the body is empty).
func Build(text string, opts BuildOptions) *Tree {
	if opts.Marker == 0 {
		opts.Marker = '#'
	}
	if opts.MaxDepth <= 0 || opts.MaxDepth > 6 {
		opts.MaxDepth = 6
	}

	tree := &Tree{Nodes: []Node{{Depth: 0, Page: 1, Parent: -1}}}
	bodies := [][]string{nil}
	hasBody := []bool{false}
	stack := []int{0} // arena indices of open sections, root at the bottom
	page := 1

	for _, line := range strings.Split(text, "\n") {
		if n, ok := parsePageMarker(line); ok {
			page = n
			continue
		}

		if depth, title, ok := parseHeading(line, opts.Marker, opts.MaxDepth); ok {
			top := stack[len(stack)-1]
			for tree.Nodes[top].Depth >= depth {
				stack = stack[:len(stack)-1]
				top = stack[len(stack)-1]
			}
			if depth > tree.Nodes[top].Depth+1 && opts.Log != nil {
				opts.Log.Warn("heading skips levels, attaching to nearest open ancestor",
					"heading", title,
					"depth", depth,
					"parent_depth", tree.Nodes[top].Depth,
				)
			}
			idx := len(tree.Nodes)
			tree.Nodes = append(tree.Nodes, Node{
				Title:  title,
				Depth:  depth,
				Page:   page,
				Parent: top,
			})
			bodies = append(bodies, nil)
			hasBody = append(hasBody, false)
			tree.Nodes[top].Children = append(tree.Nodes[top].Children, idx)
			stack = append(stack, idx)
			continue
		}

		top := stack[len(stack)-1]
		bodies[top] = append(bodies[top], line)
		// A node reports the page where its body begins, so content pushed
		// past a page boundary inherits the later page even though the
		// heading sat on the earlier one.
		if !hasBody[top] && strings.TrimSpace(line) != "" {
			tree.Nodes[top].Page = page
			hasBody[top] = true
		}
	}

	for i := range tree.Nodes {
		tree.Nodes[i].Body = strings.TrimSpace(strings.Join(bodies[i], "\n"))
	}
	return tree
}

// parsePageMarker matches sentinel lines of the form <!-- PAGE: N -->.
func parsePageMarker(line string) (int, bool) {
	s := strings.TrimSpace(line)
	if !strings.HasPrefix(s, "<!--") || !strings.HasSuffix(s, "-->") {
		return 0, false
	}
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(s, "<!--"), "-->"))
	if !strings.HasPrefix(s, "PAGE:") {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(s, "PAGE:")))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// parseHeading matches lines of 1..maxDepth repeated marker characters
// followed by a space and non-empty text.
func parseHeading(line string, marker byte, maxDepth int) (int, string, bool) {
	depth := 0
	for depth < len(line) && line[depth] == marker {
		depth++
	}
	if depth == 0 || depth > maxDepth || depth >= len(line) || line[depth] != ' ' {
		return 0, "", false
	}
	title := strings.TrimSpace(line[depth+1:])
	if title == "" {
		return 0, "", false
	}
	return depth, title, true
}
