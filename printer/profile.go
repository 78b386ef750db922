// Package printer describes the physical target: paper geometry, the column
// budget of the built-in font, and how rendered jobs reach the device.
package printer

import (
	"fmt"
	"strconv"
	"strings"
)

// Thermal heads print 8 dots per millimeter; paper widths in profiles may be
// given in either unit.
const dotsPerMM = 8

// Backend selects which sink renders a message.
type Backend string

const (
	BackendCanvas Backend = "canvas"
	BackendESCPOS Backend = "escpos"
)

// Profile is one printer definition.
type Profile struct {
	Name string `yaml:"name"`
	// PaperWidth accepts "384", "384px" or "48mm".
	PaperWidth string  `yaml:"paper_width"`
	Columns    int     `yaml:"columns"`
	Backend    Backend `yaml:"backend"`
	// Device is a character device path ("/dev/usb/lp0") or a "host:port"
	// TCP endpoint.
	Device string `yaml:"device"`
}

// Default is the common 58mm printer profile.
func Default() Profile {
	return Profile{
		Name:       "default",
		PaperWidth: "384px",
		Columns:    32,
		Backend:    BackendESCPOS,
	}
}

// PaperWidthPx resolves the configured paper width to pixels, rounded down to
// a multiple of 8 so raster rows stay byte-aligned.
func (p Profile) PaperWidthPx() (int, error) {
	s := strings.TrimSpace(strings.ToLower(p.PaperWidth))
	if s == "" {
		return 384, nil
	}
	unit := "px"
	switch {
	case strings.HasSuffix(s, "mm"):
		unit, s = "mm", strings.TrimSuffix(s, "mm")
	case strings.HasSuffix(s, "px"):
		s = strings.TrimSuffix(s, "px")
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid paper width %q", p.PaperWidth)
	}
	if unit == "mm" {
		v *= dotsPerMM
	}
	px := int(v) / 8 * 8
	if px < 8 {
		return 0, fmt.Errorf("paper width %q narrower than 8px", p.PaperWidth)
	}
	return px, nil
}

// Validate checks the parts of the profile the renderer depends on.
func (p Profile) Validate() error {
	if _, err := p.PaperWidthPx(); err != nil {
		return err
	}
	if p.Columns <= 0 {
		return fmt.Errorf("profile %s: columns must be positive", p.Name)
	}
	switch p.Backend {
	case BackendCanvas, BackendESCPOS:
	default:
		return fmt.Errorf("profile %s: unknown backend %q", p.Name, p.Backend)
	}
	return nil
}
