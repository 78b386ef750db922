// Package escpos realizes the layout sink as a stream of ESC/POS printer
// control codes. Plain text is not rasterized; it wraps on the printer
// profile's character-column budget and styling happens with the printer's
// own bold/underline/invert/size toggles. Images and QR codes are embedded
// as byte-aligned raster blocks or native 2D-code commands.
package escpos

import (
	"bytes"
	"image"

	"pushprint/layout"
	"pushprint/render"
)

const qrNominalHeight = 8 // lines; the printer decides the real size

// Sink accumulates a complete print job for one message.
type Sink struct {
	buf   bytes.Buffer
	cols  int
	paper int

	bold      bool
	underline bool
	invert    bool
	fontB     bool
	sizeByte  byte
	align     layout.Align
}

var _ layout.Sink = (*Sink)(nil)

// New creates a command sink for a printer with the given column budget and
// paper width in pixels. The paper width only sizes embedded media; text is
// budgeted in columns.
func New(columns, paperPx int) *Sink {
	if columns <= 0 {
		columns = 32
	}
	if paperPx <= 0 {
		paperPx = 384
	}
	s := &Sink{cols: columns, paper: paperPx}
	s.buf.Write([]byte{0x1b, '@'}) // initialize
	return s
}

// MaxWidth is the column budget; the command path has no pixel metrics for
// text.
func (s *Sink) MaxWidth() float64 { return float64(s.cols) }

// MediaWidth is the paper width in pixels: raster blocks and fetched images
// are full printer resolution even though text wraps on columns.
func (s *Sink) MediaWidth() float64 { return float64(s.paper) }

// Measure counts display columns: narrow runes take one, wide (CJK) runes
// two, doubled again when the style requests double-width characters.
func (s *Sink) Measure(st layout.Style) layout.Measurer {
	mult := float64(widthMult(st))
	return func(text string) float64 {
		return float64(StringWidth(text)) * mult
	}
}

// LineHeight is measured in text lines: double-height styles take two.
func (s *Sink) LineHeight(st layout.Style) float64 {
	return float64(heightMult(st))
}

func (s *Sink) Run(cur layout.Cursor, text string, st layout.Style) {
	s.applyStyle(st)
	s.buf.WriteString(text)
}

func (s *Sink) Rule(cur layout.Cursor) {
	s.applyStyle(layout.DefaultStyle())
	for i := 0; i < s.cols; i++ {
		s.buf.WriteByte('-')
	}
	s.buf.WriteByte('\n')
}

func (s *Sink) Break() {
	s.buf.WriteByte('\n')
}

// Image embeds a GS v 0 raster block. The incoming image is dithered down to
// one bit per pixel; its width must already be a multiple of 8.
func (s *Sink) Image(cur layout.Cursor, img image.Image) {
	data, widthBytes, rows := rasterize(img)
	s.setAlign(layout.AlignCenter)
	s.buf.Write([]byte{0x1d, 'v', '0', 0x00,
		byte(widthBytes), byte(widthBytes >> 8),
		byte(rows), byte(rows >> 8)})
	s.buf.Write(data)
	s.setAlign(layout.AlignLeft)
	s.buf.WriteByte('\n')
}

// QRCode emits the printer-native 2D code sequence, centered.
func (s *Sink) QRCode(cur layout.Cursor, data string) float64 {
	s.setAlign(layout.AlignCenter)

	s.buf.Write([]byte{0x1d, '(', 'k', 4, 0, 49, 65, 50, 0}) // model 2
	s.buf.Write([]byte{0x1d, '(', 'k', 3, 0, 49, 67, 6})     // module size 6
	s.buf.Write([]byte{0x1d, '(', 'k', 3, 0, 49, 69, 49})    // EC level M

	n := len(data) + 3
	s.buf.Write([]byte{0x1d, '(', 'k', byte(n), byte(n >> 8), 49, 80, 48})
	s.buf.WriteString(data)
	s.buf.Write([]byte{0x1d, '(', 'k', 3, 0, 49, 81, 48}) // print

	s.setAlign(layout.AlignLeft)
	s.buf.WriteByte('\n')
	return qrNominalHeight
}

// Finalize terminates the job with a feed and a partial cut.
func (s *Sink) Finalize() *render.Output {
	s.applyStyle(layout.DefaultStyle())
	s.buf.Write([]byte{'\n', '\n', '\n'})
	s.buf.Write([]byte{0x1d, 'V', 65, 0x10}) // feed and partial cut
	return &render.Output{Commands: s.buf.Bytes()}
}

// applyStyle diffs the wanted style against the printer state and emits only
// the toggles that changed. Italic has no ESC/POS equivalent and is dropped;
// strike-through likewise.
func (s *Sink) applyStyle(st layout.Style) {
	if st.Bold != s.bold {
		s.bold = st.Bold
		s.buf.Write([]byte{0x1b, 'E', flag(st.Bold)})
	}
	if st.Underline != s.underline {
		s.underline = st.Underline
		s.buf.Write([]byte{0x1b, '-', flag(st.Underline)})
	}
	if st.Invert != s.invert {
		s.invert = st.Invert
		s.buf.Write([]byte{0x1d, 'B', flag(st.Invert)})
	}
	if small := scaleOf(st) < 1; small != s.fontB {
		s.fontB = small
		s.buf.Write([]byte{0x1b, 'M', flag(small)})
	}
	if sz := sizeByte(st); sz != s.sizeByte {
		s.sizeByte = sz
		s.buf.Write([]byte{0x1d, '!', sz})
	}
	s.setAlign(st.Align)
}

func (s *Sink) setAlign(a layout.Align) {
	if a == s.align {
		return
	}
	s.align = a
	n := byte(0)
	if a == layout.AlignCenter {
		n = 1
	}
	s.buf.Write([]byte{0x1b, 'a', n})
}

func flag(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func scaleOf(st layout.Style) float64 {
	if st.Scale <= 0 {
		return 1
	}
	return st.Scale
}

// widthMult and heightMult map the continuous scale onto the printer's
// integer character magnification: full double size at 2x, double height for
// intermediate headings, normal otherwise.
func widthMult(st layout.Style) int {
	if scaleOf(st) >= 2 {
		return 2
	}
	return 1
}

func heightMult(st layout.Style) int {
	if scaleOf(st) >= 1.25 {
		return 2
	}
	return 1
}

func sizeByte(st layout.Style) byte {
	return byte((widthMult(st)-1)<<4 | (heightMult(st) - 1))
}
