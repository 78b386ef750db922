package engine

import (
	"bytes"
	"context"
	"image"
	"testing"

	"pushprint/printer"
	"pushprint/pushover"
)

// sizingMedia records the width each fetch was asked to fit.
type sizingMedia struct {
	widths []int
}

func (m *sizingMedia) FetchImage(_ context.Context, _ string, maxWidth int) (image.Image, error) {
	m.widths = append(m.widths, maxWidth)
	return image.NewGray(image.Rect(0, 0, 384, 96)), nil
}

func escposProfile() printer.Profile {
	p := printer.Default()
	p.Backend = printer.BackendESCPOS
	return p
}

func TestRenderPlainMessage(t *testing.T) {
	eng := New(nil, nil)
	msg := pushover.Message{
		AppName: "Cron",
		Title:   "Backup",
		Body:    "nightly backup finished",
	}
	out, err := eng.Render(context.Background(), msg, escposProfile())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out.IsRaster() {
		t.Fatalf("escpos backend produced a raster")
	}
	cmd := out.Commands
	if !bytes.Contains(cmd, []byte("Backup")) || !bytes.Contains(cmd, []byte("nightly backup finished")) {
		t.Fatalf("title or body missing: % x", cmd)
	}
	// the title precedes the body and is switched to bold
	if bytes.Index(cmd, []byte("Backup")) > bytes.Index(cmd, []byte("nightly")) {
		t.Fatalf("title does not precede body")
	}
	if !bytes.Contains(cmd, []byte{0x1b, 'E', 1}) {
		t.Fatalf("heading not bold: % x", cmd)
	}
}

// Without a title the sending application's name becomes the heading.
func TestRenderTitleFallsBackToApp(t *testing.T) {
	eng := New(nil, nil)
	msg := pushover.Message{AppName: "Grafana", Body: "disk almost full"}
	out, err := eng.Render(context.Background(), msg, escposProfile())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.Contains(out.Commands, []byte("Grafana")) {
		t.Fatalf("app name heading missing: % x", out.Commands)
	}
}

func TestRenderHTMLBodyIsParsed(t *testing.T) {
	eng := New(nil, nil)
	msg := pushover.Message{
		AppName: "Monitor",
		Body:    "status: <b>degraded</b>",
		HTML:    1,
	}
	out, err := eng.Render(context.Background(), msg, escposProfile())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	cmd := out.Commands
	if bytes.Contains(cmd, []byte("<b>")) {
		t.Fatalf("markup leaked into output: %q", cmd)
	}
	if !bytes.Contains(cmd, []byte("degraded")) {
		t.Fatalf("body text missing: %q", cmd)
	}
}

// A non-HTML body is printed verbatim, markup and all.
func TestRenderPlainBodyKeepsAngleBrackets(t *testing.T) {
	eng := New(nil, nil)
	msg := pushover.Message{AppName: "Raw", Body: "a < b and <b>no markup"}
	out, err := eng.Render(context.Background(), msg, escposProfile())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.Contains(out.Commands, []byte("<b>no markup")) {
		t.Fatalf("plain body was parsed: %q", out.Commands)
	}
}

func TestRenderAppendsURLAsQR(t *testing.T) {
	eng := New(nil, nil)
	msg := pushover.Message{
		AppName:  "Grafana",
		Body:     "disk almost full",
		URL:      "https://grafana.example.com/d/disk",
		URLTitle: "Open dashboard",
	}
	out, err := eng.Render(context.Background(), msg, escposProfile())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	cmd := out.Commands
	if !bytes.Contains(cmd, []byte("Open dashboard")) {
		t.Fatalf("url label missing: %q", cmd)
	}
	n := len(msg.URL) + 3
	store := []byte{0x1d, '(', 'k', byte(n), byte(n >> 8), 49, 80, 48}
	if !bytes.Contains(cmd, append(store, []byte(msg.URL)...)) {
		t.Fatalf("url not stored as a qr code: % x", cmd)
	}
}

// Inline images on the command backend are sized against the paper's pixel
// width, not against the character-column budget text wraps on.
func TestRenderSizesImagesToPaperOnCommandBackend(t *testing.T) {
	med := &sizingMedia{}
	eng := New(med, nil)
	msg := pushover.Message{
		AppName: "Cam",
		Body:    `snapshot <img src="https://example.com/p.png">`,
		HTML:    1,
	}
	out, err := eng.Render(context.Background(), msg, printer.Default())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(med.widths) != 1 || med.widths[0] != 384 {
		t.Fatalf("image fetched for widths %v, want [384]", med.widths)
	}
	if !bytes.Contains(out.Commands, []byte{0x1d, 'v', '0'}) {
		t.Fatalf("fetched image not embedded as a raster block: % x", out.Commands)
	}
}

func TestRenderUnknownBackend(t *testing.T) {
	eng := New(nil, nil)
	p := printer.Default()
	p.Backend = "inkjet"
	if _, err := eng.Render(context.Background(), pushover.Message{Body: "x"}, p); err == nil {
		t.Fatalf("expected an error for an unknown backend")
	}
}
