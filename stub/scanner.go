package stub

import (
	"strings"

	"github.com/minios-linux/pyidoc/apperr"
)

type tokenKind int

const (
	tokName tokenKind = iota
	tokString
	tokOp
	tokOther
	tokNewline
	tokEOF
)

type token struct {
	kind  tokenKind
	start int
	end   int
	line  int
	text  string
	// prefix and quote are set for tokString.
	prefix string
	quote  string
}

// scanner splits Python source into the few token kinds needed to find
// statement boundaries: names, strings, single-character operators and
// logical newlines. Newlines inside brackets or after a backslash
// continuation are not logical newlines.
type scanner struct {
	src   string
	pos   int
	line  int
	depth int
}

func newScanner(src string) *scanner {
	return &scanner{src: src, line: 1}
}

func (s *scanner) next() (token, error) {
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\f' || c == '\r':
			s.pos++
		case c == '\n':
			tok := token{kind: tokNewline, start: s.pos, end: s.pos + 1, line: s.line}
			s.pos++
			s.line++
			if s.depth == 0 {
				return tok, nil
			}
		case c == '#':
			if i := strings.IndexByte(s.src[s.pos:], '\n'); i >= 0 {
				s.pos += i
			} else {
				s.pos = len(s.src)
			}
		case c == '\\':
			rest := s.src[s.pos+1:]
			switch {
			case strings.HasPrefix(rest, "\n"):
				s.pos += 2
				s.line++
			case strings.HasPrefix(rest, "\r\n"):
				s.pos += 3
				s.line++
			default:
				return s.op(), nil
			}
		case c == '"' || c == '\'':
			return s.str(s.pos, "")
		case isIdentStart(c):
			start := s.pos
			for s.pos < len(s.src) && isIdentPart(s.src[s.pos]) {
				s.pos++
			}
			word := s.src[start:s.pos]
			if s.pos < len(s.src) && (s.src[s.pos] == '"' || s.src[s.pos] == '\'') && isStringPrefix(word) {
				return s.str(start, word)
			}
			return token{kind: tokName, start: start, end: s.pos, line: s.line, text: word}, nil
		case c >= '0' && c <= '9':
			start := s.pos
			for s.pos < len(s.src) && (isIdentPart(s.src[s.pos]) || s.src[s.pos] == '.') {
				s.pos++
			}
			return token{kind: tokOther, start: start, end: s.pos, line: s.line, text: s.src[start:s.pos]}, nil
		default:
			switch c {
			case '(', '[', '{':
				s.depth++
			case ')', ']', '}':
				if s.depth > 0 {
					s.depth--
				}
			}
			return s.op(), nil
		}
	}
	return token{kind: tokEOF, start: len(s.src), end: len(s.src), line: s.line}, nil
}

func (s *scanner) op() token {
	tok := token{kind: tokOp, start: s.pos, end: s.pos + 1, line: s.line, text: s.src[s.pos : s.pos+1]}
	s.pos++
	return tok
}

// str scans a string literal whose prefix starts at start and whose opening
// quote is at s.pos.
func (s *scanner) str(start int, prefix string) (token, error) {
	q := s.src[s.pos]
	quote := string(q)
	if strings.HasPrefix(s.src[s.pos:], strings.Repeat(quote, 3)) {
		quote = strings.Repeat(quote, 3)
	}
	line := s.line
	i := s.pos + len(quote)
	for {
		if i >= len(s.src) {
			return token{}, apperr.Malformed(line, "unterminated string literal (opened with %s)", prefix+quote)
		}
		c := s.src[i]
		switch {
		case c == '\\':
			if i+1 < len(s.src) && s.src[i+1] == '\n' {
				s.line++
			}
			i += 2
			continue
		case c == '\n':
			if len(quote) == 1 {
				return token{}, apperr.Malformed(line, "unterminated string literal (opened with %s)", prefix+quote)
			}
			s.line++
		case strings.HasPrefix(s.src[i:], quote):
			s.pos = i + len(quote)
			return token{
				kind:   tokString,
				start:  start,
				end:    s.pos,
				line:   line,
				prefix: prefix,
				quote:  quote,
			}, nil
		}
		i++
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isStringPrefix(word string) bool {
	if len(word) == 0 || len(word) > 2 {
		return false
	}
	for i := 0; i < len(word); i++ {
		if !strings.ContainsRune("rRbBuUfF", rune(word[i])) {
			return false
		}
	}
	return true
}

// logicalLine returns the tokens of the next logical line, without the
// terminating newline. ok is false once the source is exhausted.
func (s *scanner) logicalLine() (toks []token, ok bool, err error) {
	for {
		tok, err := s.next()
		if err != nil {
			return nil, false, err
		}
		switch tok.kind {
		case tokEOF:
			return toks, len(toks) > 0, nil
		case tokNewline:
			if len(toks) > 0 {
				return toks, true, nil
			}
		default:
			toks = append(toks, tok)
		}
	}
}
