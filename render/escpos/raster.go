package escpos

import (
	"image"

	"pushprint/layout"
	"pushprint/media"
)

// rasterize converts img to the 1-bit row format of GS v 0: one bit per
// pixel, most significant bit leftmost, rows padded to whole bytes. Grayscale
// conversion uses Floyd–Steinberg dithering so photographs stay legible on a
// two-tone printer.
func rasterize(img image.Image) (data []byte, widthBytes, rows int) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	// Error-diffused luminance buffer.
	lum := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bb, a := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			if a == 0 {
				lum[y*w+x] = 65535 // transparent prints white
				continue
			}
			lum[y*w+x] = 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(bb)
		}
	}

	widthBytes = media.RoundUp8(w) / 8
	rows = h
	data = make([]byte, widthBytes*rows)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			old := lum[y*w+x]
			var newVal float64
			black := old < 32768
			if !black {
				newVal = 65535
			}
			err := old - newVal
			if black {
				data[y*widthBytes+x/8] |= 0x80 >> uint(x%8)
			}
			if x+1 < w {
				lum[y*w+x+1] += err * 7 / 16
			}
			if y+1 < h {
				if x > 0 {
					lum[(y+1)*w+x-1] += err * 3 / 16
				}
				lum[(y+1)*w+x] += err * 5 / 16
				if x+1 < w {
					lum[(y+1)*w+x+1] += err * 1 / 16
				}
			}
		}
	}
	return data, widthBytes, rows
}

// RasterJob wraps an already-rendered raster region into a standalone print
// job: initialize, raster block, feed, cut. The transport uses this to ship
// canvas-sink output to the printer.
func RasterJob(img image.Image) []byte {
	s := New(0, 0)
	s.Image(layout.Cursor{}, img)
	return s.Finalize().Commands
}
