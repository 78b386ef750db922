// Package fonts provides the compiled-in font families used for raster
// rendering. The Go fonts ship as TTF byte slices, so no filesystem or embed
// assets are needed.
package fonts

import (
	"fmt"

	"github.com/tdewolff/canvas"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// Set holds the proportional and monospace families with their style variants
// loaded.
type Set struct {
	Sans *canvas.FontFamily
	Mono *canvas.FontFamily
}

// Load builds the font set. Loading cannot realistically fail at runtime since
// the TTF data is compiled in, but a corrupt build is reported rather than
// ignored.
func Load() (*Set, error) {
	sans := canvas.NewFontFamily("go")
	for _, v := range []struct {
		data  []byte
		style canvas.FontStyle
	}{
		{goregular.TTF, canvas.FontRegular},
		{gobold.TTF, canvas.FontBold},
		{goitalic.TTF, canvas.FontItalic},
		{gobolditalic.TTF, canvas.FontBold | canvas.FontItalic},
	} {
		if err := sans.LoadFont(v.data, 0, v.style); err != nil {
			return nil, fmt.Errorf("loading go sans variant: %w", err)
		}
	}

	mono := canvas.NewFontFamily("go-mono")
	for _, v := range []struct {
		data  []byte
		style canvas.FontStyle
	}{
		{gomono.TTF, canvas.FontRegular},
		{gomonobold.TTF, canvas.FontBold},
		{gomonoitalic.TTF, canvas.FontItalic},
		{gomonobolditalic.TTF, canvas.FontBold | canvas.FontItalic},
	} {
		if err := mono.LoadFont(v.data, 0, v.style); err != nil {
			return nil, fmt.Errorf("loading go mono variant: %w", err)
		}
	}

	return &Set{Sans: sans, Mono: mono}, nil
}
