package canvasink

import (
	"image/color"
	"testing"

	"pushprint/fonts"
	"pushprint/layout"
)

func newSink(t *testing.T) *Sink {
	t.Helper()
	set, err := fonts.Load()
	if err != nil {
		t.Fatalf("loading fonts: %v", err)
	}
	return New(384, set, nil)
}

func TestFinalizeCropsToContent(t *testing.T) {
	s := newSink(t)
	s.Run(layout.Cursor{}, "hello", layout.DefaultStyle())
	out := s.Finalize()
	if !out.IsRaster() {
		t.Fatalf("canvas sink must produce a raster")
	}
	b := out.Raster.Bounds()
	if b.Dx() != 384 {
		t.Fatalf("raster width %d, want 384", b.Dx())
	}
	if b.Dy()%8 != 0 {
		t.Fatalf("raster height %d not byte aligned", b.Dy())
	}
	if b.Dy() >= surfaceHeight {
		t.Fatalf("raster not cropped: %d rows", b.Dy())
	}

	// the painted line must leave some dark pixels near the top
	dark := 0
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if out.Raster.GrayAt(x, y).Y < 128 {
				dark++
			}
		}
	}
	if dark == 0 {
		t.Fatalf("nothing painted")
	}
}

func TestMeasureMatchesStyle(t *testing.T) {
	s := newSink(t)
	st := layout.DefaultStyle()
	normal := s.Measure(st)("wide")
	if normal <= 0 {
		t.Fatalf("zero measurement")
	}
	st.Scale = 2
	if double := s.Measure(st)("wide"); double <= normal {
		t.Fatalf("double scale did not widen: %g vs %g", double, normal)
	}
	if s.LineHeight(st) <= s.LineHeight(layout.DefaultStyle()) {
		t.Fatalf("double scale did not raise the line height")
	}
}

func TestRuleSpansPaper(t *testing.T) {
	s := newSink(t)
	s.Rule(layout.Cursor{X: 0, Y: 4})
	out := s.Finalize()

	row := 5 // inside the 2px rule starting at y 4
	for _, x := range []int{0, 100, 383} {
		if c := color.GrayModel.Convert(out.Raster.At(x, row)).(color.Gray); c.Y > 128 {
			t.Fatalf("rule missing at x=%d", x)
		}
	}
}

func TestQRCodeFitsPaper(t *testing.T) {
	s := newSink(t)
	h := s.QRCode(layout.Cursor{}, "https://example.com/page")
	if h <= 0 || h > 384 {
		t.Fatalf("implausible qr height %g", h)
	}
	if int(h)%8 != 0 {
		t.Fatalf("qr height %g not byte aligned", h)
	}
}
