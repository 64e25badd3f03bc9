package docstring

import (
	"slices"

	"github.com/minios-linux/pyidoc/apperr"
	"github.com/minios-linux/pyidoc/catalog"
)

// Stats counts the translatable text of a docstring.
type Stats struct {
	// Units is the number of text payloads looked up.
	Units int
	// Translated is how many of them had a catalog entry.
	Translated int
	// Missing lists the normalized keys without an entry, first occurrence
	// order, without duplicates.
	Missing []string
}

// Add merges o into s. Missing keys already listed in s are not repeated.
func (s *Stats) Add(o Stats) {
	s.Units += o.Units
	s.Translated += o.Translated
	for _, key := range o.Missing {
		if !slices.Contains(s.Missing, key) {
			s.Missing = append(s.Missing, key)
		}
	}
}

// Translate returns a copy of units with every text payload replaced by its
// catalog translation. Payloads are looked up by their normalized text;
// payloads without an entry are kept as they are. Labels, item headers,
// markers and literal blocks are never looked up.
func Translate(units []Unit, cat catalog.Catalog) ([]Unit, Stats) {
	var st Stats
	seen := make(map[string]bool)
	tr := func(s string) string {
		key := catalog.Normalize(s)
		if key == "" {
			return s
		}
		st.Units++
		if t, ok := cat.Lookup(key); ok {
			if t = catalog.Normalize(t); t != "" {
				st.Translated++
				return t
			}
		}
		if !seen[key] {
			seen[key] = true
			st.Missing = append(st.Missing, key)
		}
		return s
	}

	out := make([]Unit, 0, len(units))
	for _, u := range units {
		switch u := u.(type) {
		case *Summary:
			out = append(out, &Summary{Text: tr(u.Text)})
		case *Paragraph:
			p := *u
			p.Text = tr(u.Text)
			out = append(out, &p)
		case *Literal:
			l := *u
			l.Lines = slices.Clone(u.Lines)
			out = append(out, &l)
		case *Section:
			sec := &Section{Label: u.Label, Items: make([]Item, len(u.Items))}
			for i, it := range u.Items {
				it.Lines = slices.Clone(it.Lines)
				if !it.IsLiteral() {
					if it.Description != "" {
						it.Description = tr(it.Description)
					}
					more := make([]string, len(it.More))
					for j, m := range it.More {
						more[j] = tr(m)
					}
					if it.More == nil {
						more = nil
					}
					it.More = more
				}
				sec.Items[i] = it
			}
			out = append(out, sec)
		}
	}
	return out, st
}

// CheckShape verifies that dst has the structure of src: same unit kinds in
// the same order, same section labels, same item headers, markers and
// literal blocks. Only text payloads may differ.
func CheckShape(src, dst []Unit) error {
	if len(src) != len(dst) {
		return apperr.StructuralMismatch("unit count changed from %d to %d", len(src), len(dst))
	}
	for i := range src {
		if err := sameShape(src[i], dst[i]); err != nil {
			return apperr.StructuralMismatch("unit %d: %s", i+1, err.Error())
		}
	}
	return nil
}

type shapeError string

func (e shapeError) Error() string { return string(e) }

func sameShape(a, b Unit) error {
	switch a := a.(type) {
	case *Summary:
		if _, ok := b.(*Summary); !ok {
			return shapeError("summary replaced")
		}
	case *Paragraph:
		p, ok := b.(*Paragraph)
		if !ok {
			return shapeError("paragraph replaced")
		}
		if p.Indent != a.Indent || p.Marker != a.Marker || p.Tight != a.Tight {
			return shapeError("paragraph layout changed")
		}
	case *Literal:
		l, ok := b.(*Literal)
		if !ok || l.Indent != a.Indent || l.Tight != a.Tight || !slices.Equal(l.Lines, a.Lines) {
			return shapeError("literal block changed")
		}
	case *Section:
		s, ok := b.(*Section)
		if !ok {
			return shapeError("section " + a.Label + " replaced")
		}
		if s.Label != a.Label {
			return shapeError("section label changed from " + a.Label + " to " + s.Label)
		}
		if len(s.Items) != len(a.Items) {
			return shapeError("section " + a.Label + " item count changed")
		}
		for j := range a.Items {
			x, y := a.Items[j], s.Items[j]
			if x.Header() != y.Header() || x.Marker != y.Marker || x.Indent != y.Indent ||
				x.Spaced != y.Spaced || len(x.More) != len(y.More) || !slices.Equal(x.Lines, y.Lines) ||
				(x.Description == "") != (y.Description == "") {
				return shapeError("section " + a.Label + " item " + x.Header() + " changed")
			}
		}
	default:
		return shapeError("unknown unit")
	}
	return nil
}
