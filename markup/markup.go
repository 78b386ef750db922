// Package markup parses the constrained HTML subset allowed in notification
// bodies into a closed tree of nodes. Only a fixed allow-list of tags carries
// meaning; anything else becomes TagUnknown, which renders no style of its own
// but still has its children walked.
package markup

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Tag identifies the kind of element node.
type Tag int

const (
	TagRoot Tag = iota
	TagText
	TagUnknown
	TagBold      // strong, b
	TagItalic    // em, i
	TagUnderline // u
	TagStrike    // strike, s, del
	TagFont      // font; inverts when a non-black color is requested
	TagMark      // mark
	TagMono      // pre
	TagCenter    // center
	TagH1        // h1
	TagH2        // h2
	TagH3        // h3, big
	TagSmall     // small
	TagQuote     // q
	TagBlockQuote
	TagRule  // hr
	TagBreak // br
	TagItem  // li
	TagLink  // a
	TagImage // img
	TagMedia // video, audio, embed, object
)

var tagNames = map[string]Tag{
	"strong": TagBold, "b": TagBold,
	"em": TagItalic, "i": TagItalic,
	"u":      TagUnderline,
	"strike": TagStrike, "s": TagStrike, "del": TagStrike,
	"font":   TagFont,
	"mark":   TagMark,
	"pre":    TagMono,
	"center": TagCenter,
	"h1":     TagH1,
	"h2":     TagH2,
	"h3":     TagH3, "big": TagH3,
	"small":      TagSmall,
	"q":          TagQuote,
	"blockquote": TagBlockQuote,
	"hr":         TagRule,
	"br":         TagBreak,
	"li":         TagItem,
	"a":          TagLink,
	"img":        TagImage,
	"video": TagMedia, "audio": TagMedia, "embed": TagMedia, "object": TagMedia,
}

// Node is one node of the parsed document tree. Text nodes carry Text and have
// no children; element nodes carry Attr and Children.
type Node struct {
	Tag      Tag
	Text     string
	Attr     map[string]string
	Children []*Node
}

// Src returns the primary source attribute of a media node: src for img/video/
// audio/embed, data for object, href for links.
func (n *Node) Src() string {
	if n.Attr == nil {
		return ""
	}
	for _, key := range []string{"src", "data", "href"} {
		if v := strings.TrimSpace(n.Attr[key]); v != "" {
			return v
		}
	}
	return ""
}

// Parse reads an HTML fragment and converts it into the closed node tree.
// x/net/html never fails on malformed input, it repairs instead, so the only
// errors here are reader errors.
func Parse(r io.Reader) (*Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	root := &Node{Tag: TagRoot}
	// html.Parse always wraps fragments into html>head+body.
	body := findElement(doc, "body")
	if body == nil {
		body = doc
	}
	convertChildren(body, root)
	return root, nil
}

// ParseString parses a fragment held in a string.
func ParseString(s string) (*Node, error) {
	return Parse(strings.NewReader(s))
}

// Text builds a tree holding a single flat text blob, for plain-text bodies.
func Text(s string) *Node {
	return &Node{Tag: TagRoot, Children: []*Node{{Tag: TagText, Text: s}}}
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func convertChildren(src *html.Node, dst *Node) {
	for c := src.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			text := collapseSpace(c.Data)
			if text == "" {
				continue
			}
			dst.Children = append(dst.Children, &Node{Tag: TagText, Text: text})

		case html.ElementNode:
			tag, ok := tagNames[c.Data]
			if !ok {
				tag = TagUnknown
			}
			node := &Node{Tag: tag, Attr: attrMap(c)}
			if tag == TagMono {
				// Preformatted content keeps its whitespace verbatim.
				node.Children = append(node.Children, &Node{Tag: TagText, Text: rawText(c)})
			} else {
				convertChildren(c, node)
			}
			dst.Children = append(dst.Children, node)
		}
	}
}

func attrMap(n *html.Node) map[string]string {
	if len(n.Attr) == 0 {
		return nil
	}
	m := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		m[strings.ToLower(a.Key)] = a.Val
	}
	return m
}

func rawText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// collapseSpace folds runs of whitespace into single spaces, the way inline
// HTML text is displayed. Newlines inside markup carry no meaning; explicit
// breaks come from <br>. A fully blank run collapses to nothing.
func collapseSpace(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	out := strings.Join(fields, " ")
	if isSpace(rune(s[0])) {
		out = " " + out
	}
	if isSpace(rune(s[len(s)-1])) {
		out = out + " "
	}
	return out
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
