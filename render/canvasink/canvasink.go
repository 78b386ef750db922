// Package canvasink realizes the layout sink on a raster surface via
// github.com/tdewolff/canvas. Measurement queries go through the same font
// faces used for painting, so wrap decisions match painted widths exactly.
package canvasink

import (
	"image"
	"math"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"go.uber.org/zap"

	"pushprint/fonts"
	"pushprint/layout"
	"pushprint/media"
	"pushprint/render"
)

const (
	// One canvas unit is one pixel; the surface is tall enough for any
	// realistic receipt and cropped to content at finalize.
	surfaceHeight = 16384

	baseFontSize = 16.0
	bottomPad    = 8.0
)

type faceKey struct {
	bold      bool
	italic    bool
	underline bool
	strike    bool
	invert    bool
	mono      bool
	scale     float64
}

// Sink paints styled runs, rules and media blocks onto a growing canvas and
// finalizes into a grayscale raster cropped to the content height, rounded up
// to a multiple of 8.
type Sink struct {
	width float64
	set   *fonts.Set
	log   *zap.Logger

	c     *canvas.Canvas
	ctx   *canvas.Context
	faces map[faceKey]*canvas.FontFace
	maxY  float64
}

var _ layout.Sink = (*Sink)(nil)

// New creates a canvas sink for the given paper width in pixels.
func New(paperWidth int, set *fonts.Set, log *zap.Logger) *Sink {
	if log == nil {
		log = zap.NewNop()
	}
	c := canvas.New(float64(paperWidth), surfaceHeight)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // origin at the top-left, like the cursor model

	ctx.SetFillColor(canvas.White)
	ctx.DrawPath(0, 0, canvas.Rectangle(float64(paperWidth), surfaceHeight))

	return &Sink{
		width: float64(paperWidth),
		set:   set,
		log:   log,
		c:     c,
		ctx:   ctx,
		faces: make(map[faceKey]*canvas.FontFace),
	}
}

func (s *Sink) MaxWidth() float64 { return s.width }

// MediaWidth equals MaxWidth here: the raster sink measures text in pixels
// already.
func (s *Sink) MediaWidth() float64 { return s.width }

func (s *Sink) Measure(st layout.Style) layout.Measurer {
	face := s.face(st)
	return func(text string) float64 {
		return face.TextWidth(text)
	}
}

func (s *Sink) LineHeight(st layout.Style) float64 {
	return s.face(st).Metrics().LineHeight
}

func (s *Sink) Run(cur layout.Cursor, text string, st layout.Style) {
	face := s.face(st)
	m := face.Metrics()

	x := cur.X
	if st.Align == layout.AlignCenter && cur.X == 0 {
		if w := face.TextWidth(text); w < s.width {
			x = (s.width - w) / 2
		}
	}

	if st.Invert {
		s.ctx.SetFillColor(canvas.Black)
		s.ctx.DrawPath(x, cur.Y, canvas.Rectangle(face.TextWidth(text), m.LineHeight))
	}
	s.ctx.DrawText(x, cur.Y+m.Ascent, canvas.NewTextLine(face, text, canvas.Left))
	s.track(cur.Y + m.LineHeight)
}

func (s *Sink) Rule(cur layout.Cursor) {
	s.ctx.SetFillColor(canvas.Black)
	s.ctx.DrawPath(0, cur.Y, canvas.Rectangle(s.width, 2))
	s.track(cur.Y + 2)
}

// Break is a no-op for the raster sink: vertical advance lives entirely in
// the walker's cursor.
func (s *Sink) Break() {}

func (s *Sink) Image(cur layout.Cursor, img image.Image) {
	w := float64(img.Bounds().Dx())
	x := cur.X
	if w < s.width {
		x = (s.width - w) / 2
	}
	s.ctx.DrawImage(x, cur.Y, img, canvas.DPMM(1.0))
	s.track(cur.Y + float64(img.Bounds().Dy()))
}

func (s *Sink) QRCode(cur layout.Cursor, data string) float64 {
	img, err := media.QRImage(data, int(s.width))
	if err != nil {
		// A QR code is itself the fallback path; the worst we can do is
		// print the raw text instead.
		s.log.Warn("qr rasterization failed", zap.Error(err))
		st := layout.DefaultStyle()
		s.Run(cur, data, st)
		return s.LineHeight(st)
	}
	s.Image(cur, img)
	return float64(img.Bounds().Dy())
}

// Finalize rasterizes the surface and crops it to the painted height, rounded
// up to a multiple of 8 rows as the printer's raster transfer requires.
func (s *Sink) Finalize() *render.Output {
	h := media.RoundUp8(int(math.Ceil(s.maxY + bottomPad)))
	if h > surfaceHeight {
		h = surfaceHeight
	}
	rgba := rasterizer.Draw(s.c, canvas.DPMM(1.0), canvas.DefaultColorSpace)

	w := int(s.width)
	gray := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gray.Set(x, y, rgba.At(x, y))
		}
	}
	return &render.Output{Raster: gray}
}

func (s *Sink) face(st layout.Style) *canvas.FontFace {
	scale := st.Scale
	if scale <= 0 {
		scale = 1
	}
	key := faceKey{
		bold:      st.Bold,
		italic:    st.Italic,
		underline: st.Underline,
		strike:    st.Strike,
		invert:    st.Invert,
		mono:      st.Mono,
		scale:     scale,
	}
	if face, ok := s.faces[key]; ok {
		return face
	}

	family := s.set.Sans
	if st.Mono {
		family = s.set.Mono
	}
	style := canvas.FontRegular
	if st.Bold {
		style |= canvas.FontBold
	}
	if st.Italic {
		style |= canvas.FontItalic
	}
	col := canvas.Black
	if st.Invert {
		col = canvas.White
	}

	args := []interface{}{col, style, canvas.FontNormal}
	if st.Underline {
		args = append(args, canvas.FontUnderline)
	}
	if st.Strike {
		args = append(args, canvas.FontStrikethrough)
	}

	face := family.Face(baseFontSize*scale, args...)
	s.faces[key] = face
	return face
}

func (s *Sink) track(y float64) {
	if y > s.maxY {
		s.maxY = y
	}
}
