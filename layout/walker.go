package layout

import (
	"context"
	"errors"
	"image"
	"strings"

	"go.uber.org/zap"

	"pushprint/markup"
)

const (
	ruleHeight = 2 // px-equivalent, fixed
	rulePad    = 2
)

// Walker drives one document traversal: it dispatches on node tags, threads
// an inherited Style and a running Cursor through the tree in document order,
// and emits everything into a Sink. Style flows down by value, so leaving an
// element restores the enclosing style without an explicit pop.
type Walker struct {
	sink  Sink
	media Media
	log   *zap.Logger
}

// NewWalker wires a traversal against a sink and a media loader. media may be
// nil, in which case every image degrades to its QR fallback.
func NewWalker(sink Sink, media Media, log *zap.Logger) *Walker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Walker{sink: sink, media: media, log: log}
}

// Render walks n and its subtree, returning the cursor after the last emitted
// content. Media fetches are awaited in document order, so output order is
// deterministic regardless of fetch latency.
func (w *Walker) Render(ctx context.Context, cur Cursor, st Style, n *markup.Node) Cursor {
	switch n.Tag {
	case markup.TagText:
		return w.text(cur, st, n.Text)

	case markup.TagBold:
		st.Bold = true
	case markup.TagItalic:
		st.Italic = true
	case markup.TagUnderline:
		st.Underline = true
	case markup.TagStrike:
		st.Strike = true
	case markup.TagMark:
		st.Invert = true
	case markup.TagFont:
		if c := strings.ToLower(strings.TrimSpace(n.Attr["color"])); c != "" && c != "black" && c != "#000" && c != "#000000" {
			st.Invert = true
		}
	case markup.TagMono:
		st.Mono = true
	case markup.TagCenter:
		st.Align = AlignCenter

	case markup.TagH1, markup.TagH2, markup.TagH3:
		cur = w.breakLine(cur, st)
		switch n.Tag {
		case markup.TagH1:
			st.Scale = 2.0
		case markup.TagH2:
			st.Scale = 1.5
		default:
			st.Scale = 1.25
		}
		st.Bold = true
		cur = w.children(ctx, cur, st, n)
		return w.breakLine(cur, st)
	case markup.TagSmall:
		st.Scale = 0.75

	case markup.TagBlockQuote:
		cur = w.breakLine(cur, st)
		st.Italic = true
		cur = w.children(ctx, cur, st, n)
		return w.breakLine(cur, st)

	case markup.TagRule:
		cur = w.breakLine(cur, st)
		w.sink.Rule(Cursor{X: 0, Y: cur.Y + rulePad})
		return Cursor{X: 0, Y: cur.Y + ruleHeight + 2*rulePad}

	case markup.TagBreak:
		return w.breakLine(cur, st)

	case markup.TagItem:
		cur = w.breakLine(cur, st)
		cur = w.text(cur, st, "- ")
		cur = w.children(ctx, cur, st, n)
		return w.breakLine(cur, st)

	case markup.TagLink:
		// Links become scannable QR blocks; the anchor text is not rendered
		// separately, so we do not descend.
		if src := n.Src(); src != "" {
			return w.qr(cur, st, src)
		}
		return cur

	case markup.TagImage:
		src := n.Src()
		if src == "" {
			return cur
		}
		img, err := w.fetch(ctx, src)
		if err != nil {
			w.log.Debug("image unavailable, falling back to qr",
				zap.String("src", src), zap.Error(err))
			return w.qr(cur, st, src)
		}
		cur = w.mediaBreak(cur, st)
		w.sink.Image(Cursor{X: 0, Y: cur.Y}, img)
		return Cursor{X: 0, Y: cur.Y + float64(img.Bounds().Dy())}

	case markup.TagMedia:
		// Audio and video cannot print; hand the source over as a QR code.
		if src := n.Src(); src != "" {
			return w.qr(cur, st, src)
		}
		return cur
	}

	// Root, quote and unknown tags have no effect of their own but their
	// children are still walked.
	return w.children(ctx, cur, st, n)
}

func (w *Walker) children(ctx context.Context, cur Cursor, st Style, n *markup.Node) Cursor {
	for _, c := range n.Children {
		cur = w.Render(ctx, cur, st, c)
	}
	return cur
}

// text wraps one text blob at the current cursor and emits the resulting
// lines. Interior lines force breaks; the trailing line stays in flow so a
// following inline sibling continues on the same line.
func (w *Walker) text(cur Cursor, st Style, text string) Cursor {
	if text == "" {
		return cur
	}
	lines := Wrap(w.sink.Measure(st), w.sink.MaxWidth(), cur.X, text)
	lh := w.sink.LineHeight(st)
	for i, ln := range lines {
		if i > 0 {
			w.sink.Break()
			cur.X = 0
			cur.Y += lh
		}
		if ln.Text != "" {
			w.sink.Run(cur, ln.Text, st)
		}
		cur.X += ln.Width
	}
	return cur
}

// breakLine forces a newline. It is idempotent at x = 0, so consecutive block
// boundaries do not pile up blank lines.
func (w *Walker) breakLine(cur Cursor, st Style) Cursor {
	if cur.X == 0 {
		return cur
	}
	w.sink.Break()
	return Cursor{X: 0, Y: cur.Y + w.sink.LineHeight(st)}
}

// mediaBreak is breakLine plus a small vertical reservation so descenders of
// the preceding line are not clipped by the incoming block.
func (w *Walker) mediaBreak(cur Cursor, st Style) Cursor {
	cur = w.breakLine(cur, st)
	cur.Y += w.sink.LineHeight(st) * 0.25
	return cur
}

func (w *Walker) qr(cur Cursor, st Style, data string) Cursor {
	cur = w.mediaBreak(cur, st)
	h := w.sink.QRCode(Cursor{X: 0, Y: cur.Y}, data)
	return Cursor{X: 0, Y: cur.Y + h}
}

func (w *Walker) fetch(ctx context.Context, src string) (image.Image, error) {
	if w.media == nil {
		return nil, errors.New("no media loader")
	}
	return w.media.FetchImage(ctx, src, int(w.sink.MediaWidth()))
}
