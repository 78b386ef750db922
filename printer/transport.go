package printer

import (
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"go.uber.org/multierr"

	"pushprint/render"
	"pushprint/render/escpos"
)

// Transport ships finished jobs to the device. Both backends end up as raw
// ESC/POS bytes on the wire: raster outputs are wrapped into a raster job
// first.
type Transport struct {
	device string
}

// NewTransport validates the device reference without opening it; printers
// come and go, so the connection is opened per job.
func NewTransport(device string) (*Transport, error) {
	if strings.TrimSpace(device) == "" {
		return nil, fmt.Errorf("no printer device configured")
	}
	return &Transport{device: device}, nil
}

// Send delivers one rendered output to the printer.
func (t *Transport) Send(out *render.Output) (err error) {
	var data []byte
	if out.IsRaster() {
		data = escpos.RasterJob(out.Raster)
	} else {
		data = out.Commands
	}

	w, err := t.open()
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, w.Close())
	}()

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing to printer: %w", err)
	}
	return nil
}

func (t *Transport) open() (io.WriteCloser, error) {
	if host, port, splitErr := net.SplitHostPort(t.device); splitErr == nil && host != "" && port != "" {
		conn, err := net.DialTimeout("tcp", t.device, 10*time.Second)
		if err != nil {
			return nil, fmt.Errorf("connecting to printer %s: %w", t.device, err)
		}
		return conn, nil
	}
	f, err := os.OpenFile(t.device, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("opening printer device %s: %w", t.device, err)
	}
	return f, nil
}
