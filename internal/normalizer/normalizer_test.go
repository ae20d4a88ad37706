package normalizer

import (
	"errors"
	"strings"
	"testing"
)

func TestNormalize_StripImageRefs(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "before ![fig 1](images/fig1.png) after", "before  after"},
		{"empty alt", "x ![](a.png) y", "x  y"},
		{"two on one line", "![a](1)![b](2)done", "done"},
		{"incomplete left alone", "a ![broken](no-close", "a ![broken](no-close"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != strings.TrimSpace(tt.want) {
				t.Errorf("got %q, want %q", got, strings.TrimSpace(tt.want))
			}
		})
	}
}

func TestNormalize_StripEmptyLinks(t *testing.T) {
	got, err := Normalize("dosage was confirmed [](citation-3) in trials")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "dosage was confirmed  in trials"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNormalize_TableLinearization(t *testing.T) {
	input := "| Drug | Dose |\n|------|------|\n| Aspirin | 500mg |"
	got, err := Normalize(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Drug: Aspirin, Dose: 500mg"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNormalize_TableMultipleRows(t *testing.T) {
	input := strings.Join([]string{
		"| Drug | Dose | Route |",
		"|------|------|-------|",
		"| Aspirin | 500mg | oral |",
		"| Heparin | 5000IU | IV |",
	}, "\n")
	got, err := Normalize(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Drug: Aspirin, Dose: 500mg, Route: oral\nDrug: Heparin, Dose: 5000IU, Route: IV"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNormalize_TableMismatchedCellsZipToShorter(t *testing.T) {
	// Extra cells beyond the header count are dropped, not realigned.
	input := "| A | B |\n|---|---|\n| 1 | 2 | 3 |\n| only |"
	got, err := Normalize(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "A: 1, B: 2\nA: only"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNormalize_PipeLineWithoutSeparatorLeftAlone(t *testing.T) {
	input := "systolic | diastolic readings varied"
	got, err := Normalize(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != input {
		t.Errorf("got %q, want input unchanged", got)
	}
}

func TestNormalize_HyphenRejoin(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"broken word", "improve-\nment", "improvement"},
		// Legitimate compounds merge too; this over-merge is accepted.
		{"compound over-merge", "co-\noperative", "cooperative"},
		{"rest of line preserved", "improve-\nment was noted", "improvement was noted"},
		{"not across blank line", "improve-\n\nment", "improve-\n\nment"},
		{"digit before hyphen", "X5-\nreceptor", "X5-\nreceptor"},
		{"digit after hyphen", "dose-\n21mg", "dose-\n21mg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalize_CollapseBlankLines(t *testing.T) {
	got, err := Normalize("one\n\n\n\n\ntwo\n\n\nthree")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "one\n\ntwo\n\nthree"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNormalize_PreservesMarkers(t *testing.T) {
	input := "<!-- PAGE: 1 -->\n# Clinical Studies\n\nBody text."
	got, err := Normalize(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "<!-- PAGE: 1 -->") {
		t.Errorf("page marker was not preserved: %q", got)
	}
	if !strings.Contains(got, "# Clinical Studies") {
		t.Errorf("heading was not preserved: %q", got)
	}
}

func TestNormalize_InvalidUTF8(t *testing.T) {
	_, err := Normalize("valid prefix \xff\xfe broken")
	if !errors.Is(err, ErrInvalidEncoding) {
		t.Fatalf("expected ErrInvalidEncoding, got %v", err)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"| Drug | Dose |\n|------|------|\n| Aspirin | 500mg |",
		"improve-\nment with ![x](y) and [](cite)\n\n\n\nend",
		"# H\n\n\n\ntext\n",
		"plain text already clean",
		"",
	}
	for _, input := range inputs {
		once, err := Normalize(input)
		if err != nil {
			t.Fatalf("first pass failed for %q: %v", input, err)
		}
		twice, err := Normalize(once)
		if err != nil {
			t.Fatalf("second pass failed for %q: %v", once, err)
		}
		if once != twice {
			t.Errorf("not idempotent:\nonce:  %q\ntwice: %q", once, twice)
		}
	}
}
