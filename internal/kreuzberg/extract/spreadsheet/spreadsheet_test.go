package spreadsheet

import "testing"

func TestFormatCellAppendsDecimalToWholeFloats(t *testing.T) {
	if got := formatCell("3.0"); got != "3.0" {
		t.Errorf("formatCell(3.0) = %q, want 3.0", got)
	}
	if got := formatCell("3"); got != "3" {
		t.Errorf("formatCell(3) = %q, want 3", got)
	}
	if got := formatCell(""); got != "" {
		t.Errorf("formatCell(empty) = %q, want empty", got)
	}
	if got := formatCell("hello"); got != "hello" {
		t.Errorf("formatCell(hello) = %q, want hello", got)
	}
}

func TestEscapeMarkdownCellEscapesPipesAndBackslashes(t *testing.T) {
	if got := escapeMarkdownCell("a|b"); got != "a\\|b" {
		t.Errorf("got %q", got)
	}
	if got := escapeMarkdownCell(`a\b`); got != `a\\b` {
		t.Errorf("got %q", got)
	}
}

func TestRenderMarkdownTableProducesHeaderAndAlignmentRow(t *testing.T) {
	rows := [][]string{{"a", "b"}, {"1", "2"}}
	md := renderMarkdownTable("Sheet1", rows)
	want := "## Sheet1\n\n| a | b |\n| --- | --- |\n| 1 | 2 |\n"
	if md != want {
		t.Errorf("renderMarkdownTable = %q, want %q", md, want)
	}
}

func TestTruncateNamesKeepsFirstFivePlusCount(t *testing.T) {
	names := []string{"a", "b", "c", "d", "e", "f", "g"}
	got := truncateNames(names)
	if len(got) != 6 {
		t.Fatalf("expected 6 entries, got %d: %v", len(got), got)
	}
}
