package stub

import "strings"

// Literal re-emits the span's literal with body as its docstring text.
// body uses "\n" line breaks and carries no base indentation; continuation
// lines get the span's Indent. Prefix, delimiter and the placement of the
// opening and closing delimiters follow the original literal. A one-quote
// literal is promoted to the matching triple quote when body spans lines.
func (s Span) Literal(body string) string {
	if body == "" {
		return s.Prefix + s.Quote + s.Content + s.Quote
	}
	nl := s.Newline
	if nl == "" {
		nl = "\n"
	}
	lines := strings.Split(body, "\n")

	closeOwn := s.ClosingOwnLine
	if !closeOwn && unsafeTail(lines[len(lines)-1], s.Quote[0]) {
		closeOwn = true
	}
	quote := s.Quote
	if len(quote) == 1 && (len(lines) > 1 || s.LeadingNewline || closeOwn) {
		quote = strings.Repeat(quote, 3)
	}

	var b strings.Builder
	b.WriteString(s.Prefix)
	b.WriteString(quote)
	if s.LeadingNewline {
		b.WriteString(nl)
	}
	for i, line := range lines {
		if i > 0 {
			b.WriteString(nl)
		}
		if line != "" && (i > 0 || s.LeadingNewline) {
			b.WriteString(s.Indent)
		}
		b.WriteString(line)
	}
	if closeOwn {
		b.WriteString(nl)
		b.WriteString(s.Indent)
	}
	b.WriteString(quote)
	return b.String()
}

// unsafeTail reports whether line would merge with a closing delimiter
// written right after it: a trailing unescaped quote character or an odd
// run of backslashes.
func unsafeTail(line string, q byte) bool {
	if line == "" {
		return false
	}
	n := 0
	for i := len(line) - 1; i >= 0 && line[i] == '\\'; i-- {
		n++
	}
	if n > 0 {
		return n%2 == 1
	}
	if line[len(line)-1] != q {
		return false
	}
	n = 0
	for i := len(line) - 2; i >= 0 && line[i] == '\\'; i-- {
		n++
	}
	return n%2 == 0
}

// Escape converts a plain string value into source text that can be
// placed inside this literal.
func (s Span) Escape(text string) string {
	if !s.IsRaw() {
		text = strings.ReplaceAll(text, `\`, `\\`)
	}
	q := s.Quote[:1]
	if len(s.Quote) == 1 {
		return strings.ReplaceAll(text, q, `\`+q)
	}
	return strings.ReplaceAll(text, s.Quote, `\`+q+`\`+q+`\`+q)
}

// Decode returns the string value of source text taken from this literal.
// Only the escapes that can appear in prose are interpreted; anything else
// is kept as written.
func (s Span) Decode(text string) string {
	if s.IsRaw() || !strings.Contains(text, `\`) {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); i++ {
		if text[i] != '\\' || i+1 >= len(text) {
			b.WriteByte(text[i])
			continue
		}
		switch text[i+1] {
		case '\\', '"', '\'':
			b.WriteByte(text[i+1])
			i++
		case 't':
			b.WriteByte('\t')
			i++
		default:
			b.WriteByte(text[i])
		}
	}
	return b.String()
}
