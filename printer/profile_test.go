package printer

import (
	"bytes"
	"image"
	"os"
	"path/filepath"
	"testing"

	"pushprint/render"
)

func TestPaperWidthPx(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want int
	}{
		{"", 384}, // unset falls back to the default head
		{"384", 384},
		{"384px", 384},
		{"48mm", 384},
		{"58mm", 464}, // 58mm printers have a 48mm printable area, but take the profile at its word
		{"380", 376},  // rounded down to byte alignment
		{"72.5mm", 576},
	} {
		p := Profile{PaperWidth: tc.in}
		got, err := p.PaperWidthPx()
		if err != nil {
			t.Fatalf("%q: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("%q: got %d, want %d", tc.in, got, tc.want)
		}
		if got%8 != 0 {
			t.Fatalf("%q: %d not byte aligned", tc.in, got)
		}
	}
}

func TestPaperWidthPxErrors(t *testing.T) {
	for _, in := range []string{"wide", "-5px", "0mm", "4px"} {
		p := Profile{PaperWidth: in}
		if _, err := p.PaperWidthPx(); err == nil {
			t.Fatalf("expected %q to be rejected", in)
		}
	}
}

func TestValidate(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default profile invalid: %v", err)
	}
	bad := Default()
	bad.Backend = "inkjet"
	if err := bad.Validate(); err == nil {
		t.Fatalf("unknown backend accepted")
	}
	bad = Default()
	bad.Columns = 0
	if err := bad.Validate(); err == nil {
		t.Fatalf("zero columns accepted")
	}
}

func TestTransportRequiresDevice(t *testing.T) {
	if _, err := NewTransport("  "); err == nil {
		t.Fatalf("blank device accepted")
	}
}

func TestTransportWritesCommandsToFileDevice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lp0")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	tr, err := NewTransport(path)
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}
	job := []byte{0x1b, '@', 'h', 'i', '\n'}
	if err := tr.Send(&render.Output{Commands: job}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, job) {
		t.Fatalf("device received % x, want % x", got, job)
	}
}

func TestTransportWrapsRasterIntoJob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lp0")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	tr, err := NewTransport(path)
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	if err := tr.Send(&render.Output{Raster: img}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(got, []byte{0x1b, '@'}) {
		t.Fatalf("raster job not initialized: % x", got)
	}
	if !bytes.Contains(got, []byte{0x1d, 'v', '0'}) {
		t.Fatalf("raster job missing a raster block: % x", got)
	}
}
