// Package media loads remote images for inline printing and rasterizes QR
// codes. Thermal raster transfer works on byte-aligned rows, so everything
// that leaves this package has dimensions rounded to multiples of 8.
package media

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"net/url"
	"time"

	"github.com/disintegration/imaging"
	qrcode "github.com/skip2/go-qrcode"
)

const maxImageBytes = 8 << 20

// Fetcher loads and sizes remote images. It only talks to secure-transport
// sources; everything else is refused so the caller can fall back to a QR
// code of the raw URL.
type Fetcher struct {
	client *http.Client
}

// NewFetcher returns a fetcher with the given timeout per request.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{client: &http.Client{Timeout: timeout}}
}

// FetchImage downloads src, decodes it and sizes it to fit maxWidth while
// preserving aspect ratio. The result's width is a multiple of 8 no larger
// than maxWidth; its height is padded up to a multiple of 8 with white.
func (f *Fetcher) FetchImage(ctx context.Context, src string, maxWidth int) (image.Image, error) {
	u, err := url.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parsing image url: %w", err)
	}
	if u.Scheme != "https" {
		return nil, fmt.Errorf("refusing insecure image scheme %q", u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching image: unexpected status %s", resp.Status)
	}

	img, _, err := image.Decode(http.MaxBytesReader(nil, resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return FitToWidth(img, maxWidth), nil
}

// FitToWidth scales img down to the paper width and byte-aligns both
// dimensions. Width is rounded down so it never exceeds the paper; height is
// rounded up and the slack filled with white. Images narrower than the paper
// keep their native size, blowing up a small icon only makes it blurry; the
// sinks center what does not fill the line.
func FitToWidth(img image.Image, maxWidth int) image.Image {
	w := RoundDown8(maxWidth)
	if sw := img.Bounds().Dx(); sw < w {
		w = RoundDown8(sw)
	}
	if w <= 0 {
		w = 8
	}
	resized := imaging.Resize(img, w, 0, imaging.Lanczos)
	h := resized.Bounds().Dy()
	if h%8 == 0 {
		return resized
	}
	padded := image.NewNRGBA(image.Rect(0, 0, w, RoundUp8(h)))
	draw.Draw(padded, padded.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(padded, resized.Bounds(), resized, image.Point{}, draw.Over)
	return padded
}

// QRImage rasterizes data as a QR code sized for the paper. The side length
// is a multiple of 8, at most maxWidth and at most 240px so codes stay
// scannable without eating the whole receipt.
func QRImage(data string, maxWidth int) (image.Image, error) {
	side := RoundDown8(maxWidth)
	if side > 240 {
		side = 240
	}
	if side < 64 {
		side = 64
	}
	code, err := qrcode.New(data, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("building qr code: %w", err)
	}
	return code.Image(side), nil
}

// RoundUp8 rounds n up to the nearest multiple of 8.
func RoundUp8(n int) int {
	return (n + 7) / 8 * 8
}

// RoundDown8 rounds n down to the nearest multiple of 8.
func RoundDown8(n int) int {
	return n / 8 * 8
}
