package markup

import (
	"strings"
	"testing"
)

func parse(t *testing.T, src string) *Node {
	t.Helper()
	n, err := ParseString(src)
	if err != nil {
		t.Fatalf("parsing %q: %v", src, err)
	}
	return n
}

func TestParseInlineTree(t *testing.T) {
	root := parse(t, `Hello <b>bold <i>both</i></b> end`)
	if root.Tag != TagRoot || len(root.Children) != 3 {
		t.Fatalf("unexpected shape: %#v", root)
	}
	if root.Children[0].Tag != TagText || root.Children[0].Text != "Hello " {
		t.Fatalf("first child: %#v", root.Children[0])
	}
	b := root.Children[1]
	if b.Tag != TagBold || len(b.Children) != 2 {
		t.Fatalf("bold element: %#v", b)
	}
	if b.Children[0].Text != "bold " {
		t.Fatalf("bold text: %q", b.Children[0].Text)
	}
	if b.Children[1].Tag != TagItalic || b.Children[1].Children[0].Text != "both" {
		t.Fatalf("nested italic: %#v", b.Children[1])
	}
	if root.Children[2].Text != " end" {
		t.Fatalf("trailing text: %q", root.Children[2].Text)
	}
}

func TestParseTagAliases(t *testing.T) {
	for src, want := range map[string]Tag{
		"<strong>x</strong>": TagBold,
		"<em>x</em>":         TagItalic,
		"<del>x</del>":       TagStrike,
		"<big>x</big>":       TagH3,
		"<video src=a>":      TagMedia,
		"<object data=a>":    TagMedia,
	} {
		root := parse(t, src)
		if len(root.Children) == 0 || root.Children[0].Tag != want {
			t.Fatalf("%q: expected tag %d, got %#v", src, want, root.Children)
		}
	}
}

func TestParseUnknownTagKeepsChildren(t *testing.T) {
	root := parse(t, `<span class=x>inner</span>`)
	if len(root.Children) != 1 {
		t.Fatalf("expected one child, got %#v", root.Children)
	}
	span := root.Children[0]
	if span.Tag != TagUnknown {
		t.Fatalf("expected TagUnknown, got %d", span.Tag)
	}
	if len(span.Children) != 1 || span.Children[0].Text != "inner" {
		t.Fatalf("children of unknown tag lost: %#v", span.Children)
	}
}

func TestParseRepairsMalformedInput(t *testing.T) {
	// unclosed and misnested tags must still produce a usable tree
	root := parse(t, `<b>never closed <i>and misnested</b></i> tail`)
	if len(root.Children) == 0 {
		t.Fatalf("malformed input produced an empty tree")
	}
	var blob strings.Builder
	var walk func(*Node)
	walk = func(n *Node) {
		blob.WriteString(n.Text)
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(root)
	for _, word := range []string{"never", "misnested", "tail"} {
		if !strings.Contains(blob.String(), word) {
			t.Fatalf("lost %q from malformed input: %q", word, blob.String())
		}
	}
}

func TestCollapseSpace(t *testing.T) {
	for in, want := range map[string]string{
		"a  b":          "a b",
		"a\n b":         "a b",
		" a":            " a",
		"a ":            "a ",
		"\n\t x \n y\n": " x y ",
		"   ":           "",
		"":              "",
	} {
		if got := collapseSpace(in); got != want {
			t.Fatalf("collapseSpace(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParsePreKeepsWhitespace(t *testing.T) {
	root := parse(t, "<pre>line one\n  line two</pre>")
	if len(root.Children) != 1 || root.Children[0].Tag != TagMono {
		t.Fatalf("unexpected shape: %#v", root.Children)
	}
	text := root.Children[0].Children[0].Text
	if text != "line one\n  line two" {
		t.Fatalf("pre content altered: %q", text)
	}
}

func TestSrcAttribute(t *testing.T) {
	for src, want := range map[string]string{
		`<img src="https://x/p.png">`:      "https://x/p.png",
		`<a href="https://x/page">go</a>`:  "https://x/page",
		`<object data="https://x/o">`:      "https://x/o",
		`<img SRC=" https://padded.png ">`: "https://padded.png",
		`<img>`:                            "",
	} {
		root := parse(t, src)
		if len(root.Children) == 0 {
			t.Fatalf("%q: empty tree", src)
		}
		if got := root.Children[0].Src(); got != want {
			t.Fatalf("%q: Src() = %q, want %q", src, got, want)
		}
	}
}

func TestTextBuildsFlatBlob(t *testing.T) {
	root := Text("plain\nbody <b>not markup</b>")
	if len(root.Children) != 1 || root.Children[0].Tag != TagText {
		t.Fatalf("unexpected shape: %#v", root)
	}
	if root.Children[0].Text != "plain\nbody <b>not markup</b>" {
		t.Fatalf("text altered: %q", root.Children[0].Text)
	}
}
