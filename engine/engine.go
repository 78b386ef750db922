// Package engine turns one notification into one printable output. It builds
// the document tree for a message, walks it through the layout engine into
// the backend selected by the printer profile, and finalizes the sink.
package engine

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"pushprint/fonts"
	"pushprint/layout"
	"pushprint/markup"
	"pushprint/printer"
	"pushprint/pushover"
	"pushprint/render"
	"pushprint/render/canvasink"
	"pushprint/render/escpos"
)

// sinks that can be finalized into an output.
type finalizer interface {
	layout.Sink
	Finalize() *render.Output
}

// Engine renders messages. It is safe for sequential reuse; each Render call
// builds a fresh sink and traversal.
type Engine struct {
	media layout.Media
	log   *zap.Logger

	fontOnce sync.Once
	fontSet  *fonts.Set
	fontErr  error
}

// New creates an engine. media may be nil to disable inline images entirely
// (every <img> then degrades to its QR fallback).
func New(media layout.Media, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{media: media, log: log}
}

// Render produces the printable output for msg on the given profile.
func (e *Engine) Render(ctx context.Context, msg pushover.Message, prof printer.Profile) (*render.Output, error) {
	sink, err := e.sinkFor(prof)
	if err != nil {
		return nil, err
	}

	doc := buildDocument(msg, e.log)
	walker := layout.NewWalker(sink, e.media, e.log)
	walker.Render(ctx, layout.Cursor{}, layout.DefaultStyle(), doc)
	return sink.Finalize(), nil
}

func (e *Engine) sinkFor(prof printer.Profile) (finalizer, error) {
	width, err := prof.PaperWidthPx()
	if err != nil {
		return nil, err
	}
	switch prof.Backend {
	case printer.BackendCanvas:
		set, err := e.fontsOnce()
		if err != nil {
			return nil, err
		}
		return canvasink.New(width, set, e.log), nil
	case printer.BackendESCPOS, "":
		return escpos.New(prof.Columns, width), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", prof.Backend)
	}
}

func (e *Engine) fontsOnce() (*fonts.Set, error) {
	e.fontOnce.Do(func() {
		e.fontSet, e.fontErr = fonts.Load()
	})
	return e.fontSet, e.fontErr
}

// buildDocument assembles the printable tree for one message: a heading from
// the title (or the sending app's name), the body as markup or flat text,
// and the optional trailing link as a labelled QR block.
func buildDocument(msg pushover.Message, log *zap.Logger) *markup.Node {
	doc := &markup.Node{Tag: markup.TagRoot}

	if title := msg.DisplayTitle(); title != "" {
		doc.Children = append(doc.Children, &markup.Node{
			Tag:      markup.TagH1,
			Children: []*markup.Node{{Tag: markup.TagText, Text: title}},
		})
	}

	body := markup.Text(msg.Body)
	if msg.IsHTML() {
		if parsed, err := markup.ParseString(msg.Body); err == nil {
			body = parsed
		} else {
			log.Warn("unreadable html body, printing as text", zap.Error(err))
		}
	}
	doc.Children = append(doc.Children, body.Children...)

	if msg.URL != "" {
		if msg.URLTitle != "" {
			doc.Children = append(doc.Children,
				&markup.Node{Tag: markup.TagBreak},
				&markup.Node{Tag: markup.TagText, Text: msg.URLTitle})
		}
		doc.Children = append(doc.Children, &markup.Node{
			Tag:  markup.TagLink,
			Attr: map[string]string{"href": msg.URL},
		})
	}
	return doc
}
