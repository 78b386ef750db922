package layout

import (
	"context"
	"image"
)

// Sink is the output capability the walker emits styled content into. One
// realization paints a raster surface, the other accumulates printer control
// codes; the walker is written once against this interface.
//
// Image and QRCode occupy whole lines of their own: the walker breaks the
// current line before calling them and resumes text flow at x = 0 below the
// returned height.
type Sink interface {
	// MaxWidth is the usable line width in the sink's measurement unit
	// (pixels for the raster sink, character columns for the command sink).
	MaxWidth() float64
	// MediaWidth is the usable width for embedded media in pixels,
	// regardless of the sink's text measurement unit. Fetched images are
	// sized against this, never against the text budget.
	MediaWidth() float64
	// Measure returns the measurement function matching how the sink will
	// render text under st. Wrap correctness depends on this being the very
	// same metric used for output.
	Measure(st Style) Measurer
	// LineHeight is the vertical advance of one text line under st.
	LineHeight(st Style) float64
	// Run emits a single line fragment, free of newlines, at cur.
	Run(cur Cursor, text string, st Style)
	// Rule emits a full-width horizontal rule with its top edge at cur.Y.
	Rule(cur Cursor)
	// Break marks a forced transition to the next line.
	Break()
	// Image emits an already-sized raster block with its top-left at cur.
	Image(cur Cursor, img image.Image)
	// QRCode emits a QR code encoding data and reports the height consumed.
	QRCode(cur Cursor, data string) float64
}

// Media loads remote images for inline embedding. Implementations must return
// an image no wider than maxWidth whose dimensions are multiples of 8.
type Media interface {
	FetchImage(ctx context.Context, src string, maxWidth int) (image.Image, error)
}
