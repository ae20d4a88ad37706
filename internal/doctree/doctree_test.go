package doctree

import (
	"strings"
	"testing"
)

func TestBuild_HeadingHierarchy(t *testing.T) {
	input := strings.Join([]string{
		"# Title",
		"",
		"Intro text.",
		"",
		"## Section A",
		"",
		"Section A content.",
		"",
		"### Subsection A1",
		"",
		"Subsection A1 content.",
		"",
		"## Section B",
		"",
		"Section B content.",
	}, "\n")

	tree := Build(input, BuildOptions{})

	root := tree.Root()
	if len(root.Children) != 1 {
		t.Fatalf("expected 1 top-level section, got %d", len(root.Children))
	}

	h1 := tree.Nodes[root.Children[0]]
	if h1.Title != "Title" || h1.Depth != 1 {
		t.Errorf("h1: got title %q depth %d", h1.Title, h1.Depth)
	}
	if h1.Body != "Intro text." {
		t.Errorf("h1 body: got %q", h1.Body)
	}
	if len(h1.Children) != 2 {
		t.Fatalf("expected 2 subsections under Title, got %d", len(h1.Children))
	}

	secA := tree.Nodes[h1.Children[0]]
	if secA.Title != "Section A" || secA.Body != "Section A content." {
		t.Errorf("section A: got title %q body %q", secA.Title, secA.Body)
	}
	if len(secA.Children) != 1 {
		t.Fatalf("expected 1 child under Section A, got %d", len(secA.Children))
	}
	sub := tree.Nodes[secA.Children[0]]
	if sub.Title != "Subsection A1" || sub.Depth != 3 {
		t.Errorf("subsection: got title %q depth %d", sub.Title, sub.Depth)
	}
	if sub.Parent != h1.Children[0] {
		t.Errorf("subsection parent: got %d, want %d", sub.Parent, h1.Children[0])
	}

	secB := tree.Nodes[h1.Children[1]]
	if secB.Title != "Section B" {
		t.Errorf("section B: got title %q", secB.Title)
	}
}

func TestBuild_PreambleBelongsToRoot(t *testing.T) {
	tree := Build("preamble before any heading\n\n# First", BuildOptions{})
	if tree.Root().Body != "preamble before any heading" {
		t.Errorf("root body: got %q", tree.Root().Body)
	}
}

func TestBuild_PageInheritance(t *testing.T) {
	input := strings.Join([]string{
		"<!-- PAGE: 1 -->",
		"# Overview",
		"<!-- PAGE: 2 -->",
		"Body on the second page.",
		"<!-- PAGE: 3 -->",
		"## Details",
		"More text.",
	}, "\n")

	tree := Build(input, BuildOptions{})

	// The Overview heading sits on page 1 but its body starts on page 2,
	// and the body's page wins.
	overview := tree.Nodes[tree.Root().Children[0]]
	if overview.Page != 2 {
		t.Errorf("Overview page: got %d, want 2", overview.Page)
	}
	details := tree.Nodes[overview.Children[0]]
	if details.Page != 3 {
		t.Errorf("Details page: got %d, want 3", details.Page)
	}
}

func TestBuild_HeadingPageUsedWhenBodyEmpty(t *testing.T) {
	tree := Build("<!-- PAGE: 5 -->\n# Header Only", BuildOptions{})
	node := tree.Nodes[tree.Root().Children[0]]
	if node.Page != 5 {
		t.Errorf("page: got %d, want 5", node.Page)
	}
}

func TestBuild_RootPageFromFirstContent(t *testing.T) {
	tree := Build("<!-- PAGE: 2 -->\nloose text before headings", BuildOptions{})
	if tree.Root().Page != 2 {
		t.Errorf("root page: got %d, want 2", tree.Root().Page)
	}
}

func TestBuild_ConsecutiveHeadingsKeepEmptyBody(t *testing.T) {
	tree := Build("# Outer\n## Inner\ntext", BuildOptions{})

	outer := tree.Nodes[tree.Root().Children[0]]
	if outer.Body != "" {
		t.Errorf("outer body: got %q, want empty", outer.Body)
	}
	if len(outer.Children) != 1 {
		t.Fatalf("expected Inner under Outer, got %d children", len(outer.Children))
	}
	inner := tree.Nodes[outer.Children[0]]
	if inner.Body != "text" {
		t.Errorf("inner body: got %q", inner.Body)
	}
}

func TestBuild_DepthSkipAttachesToNearestAncestor(t *testing.T) {
	// A depth-3 heading directly under the root: no synthetic intermediate
	// levels are invented.
	tree := Build("### Deep Start\ncontent", BuildOptions{})

	root := tree.Root()
	if len(root.Children) != 1 {
		t.Fatalf("expected 1 child of root, got %d", len(root.Children))
	}
	deep := tree.Nodes[root.Children[0]]
	if deep.Depth != 3 || deep.Parent != 0 {
		t.Errorf("got depth %d parent %d, want depth 3 parent 0", deep.Depth, deep.Parent)
	}
}

func TestBuild_SiblingAfterDeepNesting(t *testing.T) {
	input := "# A\n### A3\ndeep\n## A2\nshallower sibling"
	tree := Build(input, BuildOptions{})

	a := tree.Nodes[tree.Root().Children[0]]
	if len(a.Children) != 2 {
		t.Fatalf("expected A3 and A2 under A, got %d children", len(a.Children))
	}
	if tree.Nodes[a.Children[0]].Title != "A3" || tree.Nodes[a.Children[1]].Title != "A2" {
		t.Errorf("children: got %q, %q", tree.Nodes[a.Children[0]].Title, tree.Nodes[a.Children[1]].Title)
	}
}

func TestBuild_MaxDepthLimitsHeadingRecognition(t *testing.T) {
	tree := Build("## Too Deep\nbody", BuildOptions{MaxDepth: 1})

	// With MaxDepth 1 the "##" line is plain text owned by the root.
	if len(tree.Root().Children) != 0 {
		t.Fatalf("expected no sections, got %d", len(tree.Root().Children))
	}
	if !strings.Contains(tree.Root().Body, "## Too Deep") {
		t.Errorf("root body: got %q", tree.Root().Body)
	}
}

func TestParsePageMarker(t *testing.T) {
	tests := []struct {
		line string
		page int
		ok   bool
	}{
		{"<!-- PAGE: 4 -->", 4, true},
		{"<!--PAGE:12-->", 12, true},
		{"  <!-- PAGE: 7 -->  ", 7, true},
		{"<!-- PAGE: x -->", 0, false},
		{"<!-- NOTE: 4 -->", 0, false},
		{"PAGE: 4", 0, false},
	}
	for _, tt := range tests {
		page, ok := parsePageMarker(tt.line)
		if ok != tt.ok || page != tt.page {
			t.Errorf("parsePageMarker(%q) = %d, %v; want %d, %v", tt.line, page, ok, tt.page, tt.ok)
		}
	}
}

func TestParseHeading(t *testing.T) {
	tests := []struct {
		line  string
		depth int
		title string
		ok    bool
	}{
		{"# Top", 1, "Top", true},
		{"###### Six", 6, "Six", true},
		{"####### Seven", 0, "", false},
		{"#NoSpace", 0, "", false},
		{"#  padded title ", 1, "padded title", true},
		{"# ", 0, "", false},
		{"plain", 0, "", false},
	}
	for _, tt := range tests {
		depth, title, ok := parseHeading(tt.line, '#', 6)
		if depth != tt.depth || title != tt.title || ok != tt.ok {
			t.Errorf("parseHeading(%q) = %d, %q, %v; want %d, %q, %v",
				tt.line, depth, title, ok, tt.depth, tt.title, tt.ok)
		}
	}
}
