package docstring

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultSections is the numpydoc section vocabulary. Labels match exactly
// and case-sensitively.
var DefaultSections = []string{
	"Parameters",
	"Other Parameters",
	"Returns",
	"Yields",
	"Receives",
	"Raises",
	"Warns",
	"Warnings",
	"See Also",
	"Notes",
	"References",
	"Examples",
	"Attributes",
	"Methods",
}

var listMarkerRe = regexp.MustCompile(`^(?:[-*|]|#\.|\d+\.)\s+`)

// Parser splits docstrings into units. The zero value knows no sections;
// use NewParser.
type Parser struct {
	labels map[string]bool
}

// NewParser returns a parser recognizing DefaultSections plus extra labels.
func NewParser(extra ...string) *Parser {
	p := &Parser{labels: make(map[string]bool, len(DefaultSections)+len(extra))}
	for _, l := range DefaultSections {
		p.labels[l] = true
	}
	for _, l := range extra {
		if l = strings.TrimSpace(l); l != "" {
			p.labels[l] = true
		}
	}
	return p
}

var defaultParser = NewParser()

// Parse splits raw with the default section vocabulary.
func Parse(raw string) []Unit {
	return defaultParser.Parse(raw)
}

type srcLine struct {
	indent int
	text   string
}

// Parse splits a cleaned docstring body into units. The first block starts
// with the Summary unless it is a section header; later blocks are sections,
// section continuations, doctests or paragraphs.
func (p *Parser) Parse(raw string) []Unit {
	var units []Unit
	var sec *Section
	for i, b := range splitBlocks(raw) {
		switch {
		case p.isSectionHeader(b):
			sec = &Section{Label: b[0].text}
			units = append(units, sec)
			parseItems(sec, b[2:], false)
		case i == 0:
			units = append(units, summaryBlock(b)...)
		case sec != nil:
			continueSection(sec, b)
		default:
			units = append(units, paragraphs(b)...)
		}
	}
	return units
}

// isSectionHeader requires a known label followed by an underline of
// dashes, both at column zero. An underline at any other indentation does
// not make a section.
func (p *Parser) isSectionHeader(b []srcLine) bool {
	if len(b) < 2 || b[0].indent != 0 || b[1].indent != 0 {
		return false
	}
	return p.labels[b[0].text] && isUnderline(b[1].text)
}

func isUnderline(s string) bool {
	return s != "" && strings.Trim(s, "-") == ""
}

// isDecoration reports a heading underline or transition line: one
// punctuation character repeated, such as "-----" or "=====".
func isDecoration(s string) bool {
	if len(s) < 2 || !strings.ContainsRune("-=~^*+#\"'`:._", rune(s[0])) {
		return false
	}
	return strings.Trim(s, s[:1]) == ""
}

func isDoctest(s string) bool {
	return s == ">>>" || strings.HasPrefix(s, ">>> ")
}

func splitListMarker(s string) (marker, body string, ok bool) {
	loc := listMarkerRe.FindStringIndex(s)
	if loc == nil || loc[1] == len(s) {
		return "", "", false
	}
	return s[:loc[1]], s[loc[1]:], true
}

func splitBlocks(raw string) [][]srcLine {
	var blocks [][]srcLine
	var cur []srcLine
	for _, l := range strings.Split(raw, "\n") {
		text := strings.TrimSpace(l)
		if text == "" {
			if len(cur) > 0 {
				blocks = append(blocks, cur)
				cur = nil
			}
			continue
		}
		ws := l[:len(l)-len(strings.TrimLeft(l, " \t"))]
		cur = append(cur, srcLine{indent: indentWidth(ws), text: text})
	}
	if len(cur) > 0 {
		blocks = append(blocks, cur)
	}
	return blocks
}

func indentWidth(ws string) int {
	col := 0
	for _, r := range ws {
		if r == '\t' {
			col += 8 - col%8
		} else {
			col++
		}
	}
	return col
}

// joinText joins the lines of a block with spaces, except between two wide
// characters, where a wrapped line of CJK text had no space to begin with.
func joinText(b []srcLine) string {
	return joinLines(lineTexts(b))
}

func lineTexts(b []srcLine) []string {
	parts := make([]string, len(b))
	for i, l := range b {
		parts[i] = l.text
	}
	return parts
}

func joinLines(parts []string) string {
	var sb strings.Builder
	for i, p := range parts {
		if i > 0 {
			last, _ := utf8.DecodeLastRuneInString(parts[i-1])
			first, _ := utf8.DecodeRuneInString(p)
			if !isWide(last) || !isWide(first) {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(p)
	}
	return sb.String()
}

// relativeLines returns the lines of b re-indented relative to their
// smallest indentation, and that indentation.
func relativeLines(b []srcLine) ([]string, int) {
	base := b[0].indent
	for _, l := range b[1:] {
		if l.indent < base {
			base = l.indent
		}
	}
	out := make([]string, len(b))
	for i, l := range b {
		out[i] = strings.Repeat(" ", l.indent-base) + l.text
	}
	return out, base
}

// paragraphs splits a top-level block into paragraphs. A list marker or a
// change of indentation starts a new paragraph; a doctest line turns the
// rest of the block into a Literal. Decoration lines such as the underlines of
// unknown headings are kept as one-line literals.
func paragraphs(b []srcLine) []Unit {
	var out []Unit
	var cur *Paragraph
	var text []string
	flush := func() {
		if cur != nil {
			cur.Text = joinLines(text)
			out = append(out, cur)
			cur, text = nil, nil
		}
	}

	for k, ln := range b {
		if isDoctest(ln.text) {
			flush()
			lines, indent := relativeLines(b[k:])
			out = append(out, &Literal{Lines: lines, Indent: indent, Tight: len(out) > 0})
			break
		}
		if isDecoration(ln.text) {
			flush()
			out = append(out, &Literal{Lines: []string{ln.text}, Indent: ln.indent, Tight: len(out) > 0})
			continue
		}
		if marker, body, ok := splitListMarker(ln.text); ok {
			flush()
			cur = &Paragraph{Indent: ln.indent, Marker: marker, Tight: len(out) > 0}
			text = []string{body}
			continue
		}
		if cur != nil && ln.indent == cur.Indent+len(cur.Marker) {
			text = append(text, ln.text)
			continue
		}
		flush()
		cur = &Paragraph{Indent: ln.indent, Tight: len(out) > 0}
		text = []string{ln.text}
	}
	flush()
	return out
}

// summaryBlock splits the first block into the Summary and whatever follows
// it without a blank line. The summary ends before the first decoration,
// list item, doctest or indentation change; those lines are parsed as
// paragraphs attached to the summary.
func summaryBlock(b []srcLine) []Unit {
	k := 0
	for k < len(b) && !endsSummary(b[k], b[0].indent) {
		k++
	}
	if k == 0 {
		return paragraphs(b)
	}
	out := []Unit{&Summary{Text: joinText(b[:k])}}
	if k == len(b) {
		return out
	}
	rest := paragraphs(b[k:])
	switch u := rest[0].(type) {
	case *Paragraph:
		u.Tight = true
	case *Literal:
		u.Tight = true
	}
	return append(out, rest...)
}

func endsSummary(ln srcLine, indent int) bool {
	if ln.indent != indent || isDoctest(ln.text) || isDecoration(ln.text) {
		return true
	}
	_, _, isList := splitListMarker(ln.text)
	return isList
}

// continueSection attaches a block that follows a section to it: an
// indented block directly continues the last named item's description,
// anything else adds items.
func continueSection(sec *Section, b []srcLine) {
	first := b[0]
	if first.indent > 0 && len(sec.Items) > 0 && !isDoctest(first.text) {
		last := &sec.Items[len(sec.Items)-1]
		if _, _, isList := splitListMarker(first.text); !isList && last.Name != "" && !last.IsLiteral() && uniform(b) {
			switch {
			case last.Description == "":
				last.Indent = first.indent
				last.Description = joinText(b)
				return
			case first.indent == last.Indent:
				last.More = append(last.More, joinText(b))
				return
			}
		}
	}
	parseItems(sec, b, true)
}

func uniform(b []srcLine) bool {
	for _, l := range b[1:] {
		if l.indent != b[0].indent {
			return false
		}
	}
	return true
}

type pendingItem struct {
	item Item
	desc []string
}

// parseItems reads section lines into items. At column zero a line is an
// item header when it is followed by an indented line, contains " : ", or
// is a single word; other column-zero lines are free text. Indented lines
// form the description of the current item.
func parseItems(sec *Section, lines []srcLine, spaced bool) {
	start := len(sec.Items)
	var cur *pendingItem
	flush := func() {
		if cur != nil {
			if len(cur.desc) > 0 {
				cur.item.Description = joinLines(cur.desc)
			}
			sec.Items = append(sec.Items, cur.item)
			cur = nil
		}
	}

	for k, ln := range lines {
		if isDoctest(ln.text) {
			flush()
			rel, indent := relativeLines(lines[k:])
			sec.Items = append(sec.Items, Item{Lines: rel, Indent: indent})
			break
		}
		if cur != nil && continuesItem(cur, lines, k) {
			if cur.item.Name != "" && len(cur.desc) == 0 {
				cur.item.Indent = ln.indent
			}
			cur.desc = append(cur.desc, ln.text)
			continue
		}
		flush()
		cur = startItem(lines, k)
	}
	flush()

	if spaced && len(sec.Items) > start {
		sec.Items[start].Spaced = true
	}
}

func isItemHeader(lines []srcLine, k int) bool {
	if lines[k].indent != 0 {
		return false
	}
	if k+1 < len(lines) && lines[k+1].indent > 0 {
		return true
	}
	return strings.Contains(lines[k].text, " : ")
}

func continuesItem(cur *pendingItem, lines []srcLine, k int) bool {
	ln := lines[k]
	if _, _, ok := splitListMarker(ln.text); ok {
		return false
	}
	switch {
	case cur.item.Marker != "":
		return ln.indent == cur.item.Indent+len(cur.item.Marker)
	case cur.item.Name != "":
		return ln.indent > 0
	default:
		return ln.indent == cur.item.Indent && !isItemHeader(lines, k)
	}
}

func startItem(lines []srcLine, k int) *pendingItem {
	ln := lines[k]
	if marker, body, ok := splitListMarker(ln.text); ok {
		return &pendingItem{item: Item{Marker: marker, Indent: ln.indent}, desc: []string{body}}
	}
	if ln.indent == 0 && (isItemHeader(lines, k) || !strings.ContainsAny(ln.text, " \t")) {
		name, typ, _ := strings.Cut(ln.text, " : ")
		return &pendingItem{item: Item{Name: name, Type: typ}}
	}
	return &pendingItem{item: Item{Indent: ln.indent}, desc: []string{ln.text}}
}
