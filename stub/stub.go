// Package stub locates docstring literals in Python stub (.pyi) source and
// re-emits them with new content.
//
// A docstring is a string literal that forms the whole first statement of
// the module, of a class body, or of a function body. Everything else in the
// file is never inspected beyond the tokenization needed to find statement
// boundaries.
package stub

import (
	"iter"
	"strings"
)

// Span is one located docstring literal.
type Span struct {
	// Start and End are byte offsets of the whole literal, prefix and
	// delimiters included.
	Start, End int
	// Line is the 1-based line of the opening delimiter.
	Line int
	// Indent is the leading whitespace used for continuation lines.
	Indent string
	// Prefix is the string prefix as written ("", "r", "U", ...).
	Prefix string
	// Quote is the delimiter: `"""`, `'''`, `"` or `'`.
	Quote string
	// Content is the source text between the delimiters, verbatim.
	Content string
	// Raw is Content with the first line trimmed, common indentation of the
	// remaining lines removed and surrounding blank lines dropped.
	Raw string
	// Newline is the line terminator used inside the literal.
	Newline string
	// LeadingNewline reports that the text starts on the line after the
	// opening delimiter.
	LeadingNewline bool
	// ClosingOwnLine reports that the closing delimiter sits on its own line.
	ClosingOwnLine bool
}

// IsRaw reports whether the literal has an r prefix.
func (s Span) IsRaw() bool {
	return strings.ContainsAny(s.Prefix, "rR")
}

// IndentWidth is the display width of Indent, with tabs advancing to the
// next multiple of eight.
func (s Span) IndentWidth() int {
	return expandedWidth(s.Indent)
}

// Docstrings yields every docstring of src in source order. Scanning stops
// at the first malformed string literal, which is yielded as an error.
func Docstrings(src string) iter.Seq2[Span, error] {
	return func(yield func(Span, error) bool) {
		sc := newScanner(src)
		first := true
		expectBody := false
		var bodyIndent string
		for {
			toks, ok, err := sc.logicalLine()
			if err != nil {
				yield(Span{}, err)
				return
			}
			if !ok {
				return
			}

			if first || expectBody {
				indent := lineIndent(src, toks[0].start)
				if sp, found := docstringAt(src, toks, 0, indent); found {
					if !yield(sp, nil) {
						return
					}
				}
			}
			first = false
			expectBody = false

			colon := headerColon(toks)
			if colon < 0 {
				continue
			}
			if colon == len(toks)-1 {
				expectBody = true
				continue
			}
			bodyIndent = lineIndent(src, toks[0].start) + "    "
			if sp, found := docstringAt(src, toks, colon+1, bodyIndent); found {
				if !yield(sp, nil) {
					return
				}
			}
		}
	}
}

// Locate collects all docstrings of src. It returns the first malformed
// literal error, if any, and no spans in that case.
func Locate(src string) ([]Span, error) {
	var spans []Span
	for sp, err := range Docstrings(src) {
		if err != nil {
			return nil, err
		}
		spans = append(spans, sp)
	}
	return spans, nil
}

// headerColon returns the index of the block-opening colon of a def or
// class statement, or -1 if toks is not such a statement.
func headerColon(toks []token) int {
	i := 0
	if toks[0].kind == tokName && toks[0].text == "async" {
		i = 1
	}
	if i >= len(toks) || toks[i].kind != tokName || (toks[i].text != "def" && toks[i].text != "class") {
		return -1
	}
	depth := 0
	for j := i + 1; j < len(toks); j++ {
		if toks[j].kind != tokOp {
			continue
		}
		switch toks[j].text {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			depth--
		case ":":
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}

// docstringAt reports whether toks[i:] is a single docstring-capable string
// literal, optionally followed by a semicolon.
func docstringAt(src string, toks []token, i int, indent string) (Span, bool) {
	if i >= len(toks) || toks[i].kind != tokString {
		return Span{}, false
	}
	rest := toks[i+1:]
	if len(rest) > 0 && !(rest[0].kind == tokOp && rest[0].text == ";") {
		return Span{}, false
	}
	tok := toks[i]
	if strings.ContainsAny(tok.prefix, "bBfF") {
		return Span{}, false
	}
	return newSpan(src, tok, indent), true
}

func newSpan(src string, tok token, indent string) Span {
	open := tok.start + len(tok.prefix) + len(tok.quote)
	content := src[open : tok.end-len(tok.quote)]
	sp := Span{
		Start:   tok.start,
		End:     tok.end,
		Line:    tok.line,
		Indent:  indent,
		Prefix:  tok.prefix,
		Quote:   tok.quote,
		Content: content,
		Raw:     cleandoc(content),
		Newline: "\n",
	}
	if strings.Contains(content, "\r\n") {
		sp.Newline = "\r\n"
	}
	if nl := strings.IndexByte(content, '\n'); nl >= 0 {
		sp.LeadingNewline = strings.TrimSpace(content[:nl]) == ""
		last := content[strings.LastIndexByte(content, '\n')+1:]
		sp.ClosingOwnLine = strings.TrimSpace(last) == ""
	}
	return sp
}

// lineIndent returns the leading whitespace of the physical line holding pos.
func lineIndent(src string, pos int) string {
	start := strings.LastIndexByte(src[:pos], '\n') + 1
	end := start
	for end < len(src) && (src[end] == ' ' || src[end] == '\t') {
		end++
	}
	return src[start:end]
}

// cleandoc strips the indentation of a docstring body the way Python's
// inspect.cleandoc does.
func cleandoc(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = expandLeadingTabs(strings.TrimRight(line, " \t\r\f"))
	}

	margin := -1
	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " "))
		if margin < 0 || n < margin {
			margin = n
		}
	}

	lines[0] = strings.TrimLeft(lines[0], " ")
	for i := 1; i < len(lines); i++ {
		if margin > 0 && len(lines[i]) >= margin {
			lines[i] = lines[i][margin:]
		}
	}

	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

func expandLeadingTabs(line string) string {
	ws := len(line) - len(strings.TrimLeft(line, " \t"))
	if !strings.Contains(line[:ws], "\t") {
		return line
	}
	return strings.Repeat(" ", expandedWidth(line[:ws])) + line[ws:]
}

func expandedWidth(ws string) int {
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
