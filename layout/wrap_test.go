package layout

import (
	"strings"
	"testing"
)

// tenPerRune is the measurer used throughout: every rune is 10 wide, which
// makes expected widths easy to read off the test data.
func tenPerRune(s string) float64 {
	return float64(len([]rune(s))) * 10
}

func texts(lines []Line) []string {
	out := make([]string, len(lines))
	for i, ln := range lines {
		out[i] = ln.Text
	}
	return out
}

func TestWrapKeepsShortTextOnOneLine(t *testing.T) {
	lines := Wrap(tenPerRune, 110, 0, "hello world")
	if len(lines) != 1 || lines[0].Text != "hello world" {
		t.Fatalf("expected a single line %q, got %#v", "hello world", lines)
	}
	if lines[0].Width != 110 {
		t.Fatalf("expected width 110, got %g", lines[0].Width)
	}
}

func TestWrapBreaksGreedily(t *testing.T) {
	lines := Wrap(tenPerRune, 100, 0, "hello world")
	got := texts(lines)
	want := []string{"hello", "world"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

// TestWrapWidthInvariant asserts that no produced line is ever wider than
// maxWidth, across a range of widths and inputs.
func TestWrapWidthInvariant(t *testing.T) {
	inputs := []string{
		"the quick brown fox jumps over the lazy dog",
		"one\ntwo three four\nfive",
		"supercalifragilisticexpialidocious and more",
		"  leading spaces stay put",
	}
	for _, in := range inputs {
		for _, max := range []float64{30, 50, 80, 120, 400} {
			for _, lines := range [][]Line{
				Wrap(tenPerRune, max, 0, in),
				Wrap(tenPerRune, max, 40, in),
			} {
				for _, ln := range lines {
					if ln.Width > max {
						t.Fatalf("line %q width %g exceeds max %g (input %q)", ln.Text, ln.Width, max, in)
					}
					if got := tenPerRune(ln.Text); got != ln.Width {
						t.Fatalf("line %q reports width %g, measures %g", ln.Text, ln.Width, got)
					}
				}
			}
		}
	}
}

func TestWrapPreservesBlankLines(t *testing.T) {
	lines := Wrap(tenPerRune, 200, 0, "a\n\nb")
	got := texts(lines)
	if len(got) != 3 || got[0] != "a" || got[1] != "" || got[2] != "b" {
		t.Fatalf("expected [a, <blank>, b], got %v", got)
	}
}

// A token wider than the whole line is exploded into characters; the
// characters must reassemble to the original token in order.
func TestWrapExplodesOversizedToken(t *testing.T) {
	const tok = "abcdefgh"
	lines := Wrap(tenPerRune, 30, 0, tok)
	var joined strings.Builder
	for _, ln := range lines {
		if ln.Width > 30 {
			t.Fatalf("line %q wider than max", ln.Text)
		}
		joined.WriteString(ln.Text)
	}
	if joined.String() != tok {
		t.Fatalf("explosion lost characters: got %q want %q", joined.String(), tok)
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines of at most 3 chars, got %d: %v", len(lines), texts(lines))
	}
}

// A single character that still does not fit gets a line of its own rather
// than looping forever.
func TestWrapUnsplittableCharacter(t *testing.T) {
	wide := func(string) float64 { return 50 }
	lines := Wrap(wide, 30, 0, "x")
	if len(lines) != 1 || lines[0].Text != "x" {
		t.Fatalf("expected the lone character on its own line, got %v", texts(lines))
	}
}

func TestWrapStartXConsumesFirstLine(t *testing.T) {
	// 60 already used, so only 4 more characters fit on the first line.
	lines := Wrap(tenPerRune, 100, 60, "abc defg")
	got := texts(lines)
	if len(got) != 2 || got[0] != "abc" || got[1] != "defg" {
		t.Fatalf("expected [abc, defg], got %v", got)
	}
}

func TestWrapStartXBeyondMaxTerminatesLine(t *testing.T) {
	lines := Wrap(tenPerRune, 100, 120, "hi")
	got := texts(lines)
	if len(got) != 2 || got[0] != "" || got[1] != "hi" {
		t.Fatalf("expected an empty terminating line then the text, got %v", got)
	}
}

func TestWrapEmptyTextYieldsOneEmptyLine(t *testing.T) {
	lines := Wrap(tenPerRune, 100, 0, "")
	if len(lines) != 1 || lines[0].Text != "" || lines[0].Width != 0 {
		t.Fatalf("expected a single empty line, got %#v", lines)
	}
}

// Mid-line continuation: a leading space is kept when the text starts in the
// middle of a line and dropped when the token lands at a line start.
func TestWrapLeadingSpaceMidLine(t *testing.T) {
	lines := Wrap(tenPerRune, 200, 50, " world")
	if len(lines) != 1 || lines[0].Text != " world" {
		t.Fatalf("expected %q, got %v", " world", texts(lines))
	}

	lines = Wrap(tenPerRune, 200, 0, " world")
	if len(lines) != 1 || lines[0].Text != "world" {
		t.Fatalf("expected the space dropped at line start, got %v", texts(lines))
	}
}
