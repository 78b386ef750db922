// Package render defines the finished outputs the sinks produce. A sink
// finalizes into either a raster region ready to be dithered and shipped as
// an image, or a stream of printer-native control codes.
package render

import "image"

// Output is one rendered message, ready for a printer transport.
type Output struct {
	// Raster is set by the canvas sink: a grayscale region whose width and
	// height are multiples of 8.
	Raster *image.Gray
	// Commands is set by the command sink: a complete ESC/POS byte stream.
	Commands []byte
}

// IsRaster reports whether the output is an image region.
func (o *Output) IsRaster() bool { return o.Raster != nil }
