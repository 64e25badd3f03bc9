package docstring

import (
	"strings"

	"github.com/rivo/uniseg"
)

// DefaultWidth is the wrap column used when RenderConfig.Width is unset.
const DefaultWidth = 72

// RenderConfig controls how units are laid out.
type RenderConfig struct {
	// Width is the column no wrapped line may pass, counted from the start
	// of the source line.
	Width int
	// Indent is the display width of the docstring's own indentation in the
	// source file, which eats into Width.
	Indent int
}

func (c RenderConfig) available() int {
	w := c.Width
	if w <= 0 {
		w = DefaultWidth
	}
	w -= c.Indent
	if w < 1 {
		w = 1
	}
	return w
}

// Render lays out units as docstring text with "\n" line breaks and no
// base indentation. Summaries are never wrapped; paragraphs and item
// descriptions are wrapped at word boundaries; section labels, item
// headers and literal blocks are written verbatim.
func Render(units []Unit, cfg RenderConfig) string {
	avail := cfg.available()
	var out []string
	for i, u := range units {
		if i > 0 && !isTight(u) {
			out = append(out, "")
		}
		switch u := u.(type) {
		case *Summary:
			out = append(out, u.Text)
		case *Paragraph:
			pad := spaces(u.Indent)
			out = append(out, wrapPrefixed(u.Text, avail, pad+u.Marker, pad+spaces(len(u.Marker)))...)
		case *Literal:
			out = appendLiteral(out, u.Lines, u.Indent)
		case *Section:
			out = append(out, u.Label, strings.Repeat("-", uniseg.StringWidth(u.Label)))
			for _, it := range u.Items {
				if it.Spaced {
					out = append(out, "")
				}
				out = renderItem(out, it, avail)
			}
		}
	}
	return strings.Join(out, "\n")
}

func isTight(u Unit) bool {
	switch u := u.(type) {
	case *Paragraph:
		return u.Tight
	case *Literal:
		return u.Tight
	}
	return false
}

func renderItem(out []string, it Item, avail int) []string {
	if it.IsLiteral() {
		return appendLiteral(out, it.Lines, it.Indent)
	}
	pad := spaces(it.Indent)
	if it.Name == "" {
		return append(out, wrapPrefixed(it.Description, avail, pad+it.Marker, pad+spaces(len(it.Marker)))...)
	}

	out = append(out, it.Header())
	if it.Indent == 0 {
		pad = spaces(4)
	}
	out = append(out, wrapPrefixed(it.Description, avail, pad, pad)...)
	for _, more := range it.More {
		out = append(out, "")
		out = append(out, wrapPrefixed(more, avail, pad, pad)...)
	}
	return out
}

func appendLiteral(out, lines []string, indent int) []string {
	pad := spaces(indent)
	for _, l := range lines {
		if l == "" {
			out = append(out, "")
			continue
		}
		out = append(out, pad+l)
	}
	return out
}

// wrapPrefixed wraps text so that prefix plus text fits in width, using
// first on the first line and rest on continuation lines.
func wrapPrefixed(text string, width int, first, rest string) []string {
	w := width - max(uniseg.StringWidth(first), uniseg.StringWidth(rest))
	lines := Wrap(text, w)
	for i := range lines {
		if i == 0 {
			lines[i] = first + lines[i]
		} else {
			lines[i] = rest + lines[i]
		}
	}
	return lines
}

// Wrap breaks text into lines of at most width display columns. Lines
// break at whitespace and, inside runs of wide (CJK) text, at the Unicode
// line-break opportunities between characters. A word without wide
// characters is never split; one wider than width gets a line of its own.
// Runs of whitespace collapse to one space.
func Wrap(text string, width int) []string {
	if width < 1 {
		width = 1
	}
	var lines []string
	var cur strings.Builder
	curWidth := 0
	for _, p := range wrapPieces(text) {
		sep := 0
		if p.spaced && cur.Len() > 0 {
			sep = 1
		}
		if cur.Len() > 0 && curWidth+sep+p.width > width {
			lines = append(lines, cur.String())
			cur.Reset()
			curWidth, sep = 0, 0
		}
		if sep > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(p.text)
		curWidth += sep + p.width
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}

// wrapPiece is an unbreakable run of text. spaced pieces are separated
// from the previous one by a space.
type wrapPiece struct {
	text   string
	width  int
	spaced bool
}

func wrapPieces(text string) []wrapPiece {
	var out []wrapPiece
	for _, word := range strings.Fields(text) {
		if !hasWide(word) {
			out = append(out, wrapPiece{text: word, width: uniseg.StringWidth(word), spaced: true})
			continue
		}
		rest, state, spaced := word, -1, true
		for rest != "" {
			var seg string
			seg, rest, _, state = uniseg.FirstLineSegmentInString(rest, state)
			out = append(out, wrapPiece{text: seg, width: uniseg.StringWidth(seg), spaced: spaced})
			spaced = false
		}
	}
	return out
}

func hasWide(s string) bool {
	for _, r := range s {
		if isWide(r) {
			return true
		}
	}
	return false
}

func isWide(r rune) bool {
	return uniseg.StringWidth(string(r)) > 1
}

func spaces(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(" ", n)
}
