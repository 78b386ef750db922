package layout

import (
	"math"
	"strings"
)

// Measurer reports the rendered width, in pixels, of a piece of text under the
// currently active style. Measurement must be deterministic; Wrap memoizes it
// per distinct token.
type Measurer func(text string) float64

// Wrap splits text into lines that each fit maxWidth. startX is the width
// already consumed on the caller's current line; the first produced line fits
// into the remaining space, every following line starts at x = 0.
//
// Explicit newlines always force a line break. Within a newline segment the
// fit is greedy: whitespace-separated tokens keep one leading space so that
// inter-word spacing survives, and the space is dropped again when a token
// lands at a line start. A token wider than maxWidth on its own is exploded
// into single characters, which guarantees progress on pathological input.
func Wrap(measure Measurer, maxWidth, startX float64, text string) []Line {
	if maxWidth <= 0 {
		maxWidth = math.MaxFloat64
	}
	cache := make(map[string]float64)
	m := func(s string) float64 {
		if s == "" {
			return 0
		}
		if w, ok := cache[s]; ok {
			return w
		}
		w := measure(s)
		cache[s] = w
		return w
	}

	var lines []Line
	x := startX
	if x > maxWidth {
		// The caller overflowed its own line; terminate it before laying
		// out anything.
		lines = append(lines, Line{})
		x = 0
	}
	if text == "" {
		return append(lines, Line{})
	}

	var buf strings.Builder
	bufW := 0.0
	flush := func() {
		lines = append(lines, Line{Text: buf.String(), Width: bufW})
		buf.Reset()
		bufW = 0
		x = 0
	}

	segments := strings.Split(strings.ReplaceAll(text, "\r", ""), "\n")
	for si, seg := range segments {
		work := tokenize(seg)
		for len(work) > 0 {
			tok := work[0]
			work = work[1:]

			bare := strings.TrimPrefix(tok, " ")
			if m(bare) > maxWidth {
				runes := []rune(tok)
				if len([]rune(bare)) <= 1 {
					// A single character that still does not fit gets
					// its own line; it cannot be split further.
					if x > 0 || buf.Len() > 0 {
						flush()
					}
					buf.WriteString(bare)
					bufW = m(bare)
					x = bufW
					flush()
					continue
				}
				// Re-insert the characters at the front so order is kept.
				parts := make([]string, len(runes))
				for i, r := range runes {
					parts[i] = string(r)
				}
				work = append(parts, work...)
				continue
			}

			tw := m(tok)
			if x+tw > maxWidth {
				flush()
			}
			if x == 0 && buf.Len() == 0 {
				tok = bare
				tw = m(tok)
			}
			buf.WriteString(tok)
			bufW += tw
			x += tw
		}
		if si < len(segments)-1 {
			flush() // explicit newline, a blank line when the segment was empty
		}
	}
	if buf.Len() > 0 {
		flush()
	}
	return lines
}

// tokenize splits a newline-free segment into whitespace-separated tokens,
// re-attaching a single leading space to every token except the first. A
// leading space on the segment itself is kept on the first token, and a
// trailing space on the last, so inline runs flow correctly mid-line: the
// word gap between "Hello " and a following styled "world" lives in the
// first run and must keep its width.
func tokenize(seg string) []string {
	fields := strings.Fields(seg)
	if len(fields) == 0 {
		return nil
	}
	tokens := make([]string, len(fields))
	for i, f := range fields {
		if i == 0 && !startsWithSpace(seg) {
			tokens[i] = f
			continue
		}
		tokens[i] = " " + f
	}
	if seg[len(seg)-1] == ' ' || seg[len(seg)-1] == '\t' {
		tokens[len(tokens)-1] += " "
	}
	return tokens
}

func startsWithSpace(s string) bool {
	return len(s) > 0 && (s[0] == ' ' || s[0] == '\t')
}
