// Package translate replaces the docstrings of stub files with their
// translations, re-wrapped to a configured width. Everything outside the
// docstring literals is copied byte for byte.
package translate

import (
	"strings"

	"github.com/minios-linux/pyidoc/apperr"
	"github.com/minios-linux/pyidoc/catalog"
	"github.com/minios-linux/pyidoc/docstring"
	"github.com/minios-linux/pyidoc/stub"
)

// Options controls how docstrings are parsed and rendered.
type Options struct {
	// Width is the column wrapped lines may not pass. 0 means
	// docstring.DefaultWidth.
	Width int
	// Sections are section labels recognized in addition to the numpydoc
	// vocabulary.
	Sections []string
	// Workers bounds the number of files Batch processes at once.
	// 0 means one per CPU.
	Workers int
	// OnProgress is called by Batch after each file, with the number of
	// files finished so far.
	OnProgress func(done, total int)
}

// Result is the outcome of translating one file.
type Result struct {
	// Output is the complete translated file.
	Output string
	// Docstrings is the number of docstrings found.
	Docstrings int
	// Stats aggregates the catalog lookups of all docstrings. Missing keys
	// are decoded message text, suitable for a message template.
	Stats docstring.Stats
}

// File translates every docstring of src. It fails without output on the
// first malformed literal or structural mismatch; the returned errors carry
// the docstring line but no path.
func File(src string, cat catalog.Catalog, opts Options) (*Result, error) {
	spans, err := stub.Locate(src)
	if err != nil {
		return nil, err
	}

	parser := docstring.NewParser(opts.Sections...)
	res := &Result{Docstrings: len(spans)}

	var b strings.Builder
	b.Grow(len(src))
	last := 0
	for _, sp := range spans {
		units := parser.Parse(sp.Raw)
		translated, st := docstring.Translate(units, literalCatalog{cat: cat, span: sp})
		if err := docstring.CheckShape(units, translated); err != nil {
			return nil, apperr.WithLine(err, sp.Line)
		}

		for i, key := range st.Missing {
			st.Missing[i] = catalog.Normalize(sp.Decode(key))
		}
		res.Stats.Add(st)

		body := docstring.Render(translated, docstring.RenderConfig{
			Width:  opts.Width,
			Indent: sp.IndentWidth(),
		})
		b.WriteString(src[last:sp.Start])
		b.WriteString(sp.Literal(body))
		last = sp.End
	}
	b.WriteString(src[last:])
	res.Output = b.String()
	return res, nil
}

// literalCatalog looks up the string value of source text taken from one
// literal and escapes translations back into that literal's syntax.
type literalCatalog struct {
	cat  catalog.Catalog
	span stub.Span
}

func (c literalCatalog) Lookup(key string) (string, bool) {
	t, ok := c.cat.Lookup(catalog.Normalize(c.span.Decode(key)))
	if !ok {
		return "", false
	}
	return c.span.Escape(t), true
}
