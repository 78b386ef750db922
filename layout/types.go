package layout

// This file defines the value types threaded through a document traversal.
// Style and Cursor travel by value so that sibling branches can never observe
// each other's mutations.

// Align is the horizontal alignment of a line within the paper width.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
)

// Style is the inherited text style at one point of the traversal. A child
// node receives a copy, mutates its own fields and passes the copy down; the
// parent's value is untouched when the child returns.
type Style struct {
	Bold      bool
	Italic    bool
	Underline bool
	Strike    bool
	Invert    bool
	Mono      bool
	Scale     float64
	Align     Align
}

// DefaultStyle returns the style active at the document root.
func DefaultStyle() Style {
	return Style{Scale: 1}
}

// Cursor is the pen position in pixels. X is the width already consumed on the
// current line, Y the top of the current line measured from the top of the
// output region.
type Cursor struct {
	X float64
	Y float64
}

// Line is one width-fitted piece of text produced by Wrap. Width is the
// measured width of Text under the measurer the wrap was requested with.
type Line struct {
	Text  string
	Width float64
}
