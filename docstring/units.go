// Package docstring parses numpy-style docstrings into translatable units,
// substitutes catalog translations into them and renders them back as
// wrapped docstring text.
//
// Parsing is a heuristic over blank-line separated blocks and indentation.
// It never fails: anything that is not recognized as a section, list or
// doctest becomes a Paragraph.
package docstring

// Unit is one structural unit of a docstring: *Summary, *Paragraph,
// *Section or *Literal.
type Unit interface {
	unit()
}

// Summary is the opening line of a docstring.
type Summary struct {
	Text string
}

// Paragraph is free text outside of sections. Its source lines are joined
// into Text.
type Paragraph struct {
	Text string
	// Indent is the column the paragraph starts at.
	Indent int
	// Marker is a list bullet kept verbatim in front of Text ("- ", "1. ").
	Marker string
	// Tight paragraphs follow the previous unit without a blank line.
	Tight bool
}

// Section is a labeled, underlined block such as "Parameters".
type Section struct {
	Label string
	Items []Item
}

// Literal is a block emitted verbatim, such as a doctest.
type Literal struct {
	Lines  []string
	Indent int
	Tight  bool
}

// Item is one entry of a section. A named item has Name (and optionally
// Type) on its header line and Description below it; an item without a
// name is free text at Indent inside the section. Items with Lines are
// verbatim blocks.
type Item struct {
	Name string
	// Type is the text after " : " on the header line, kept verbatim.
	Type        string
	Description string
	// More holds further description paragraphs separated by blank lines.
	More []string
	// Marker is the list bullet of a free-text item.
	Marker string
	// Lines is set for verbatim items and holds them relative to Indent.
	Lines []string
	// Indent is the column of the description (or free text) relative to
	// the section.
	Indent int
	// Spaced items are preceded by a blank line.
	Spaced bool
}

// Header returns the item's header line as written in the source.
func (it Item) Header() string {
	if it.Type == "" {
		return it.Name
	}
	return it.Name + " : " + it.Type
}

// IsLiteral reports whether the item is a verbatim block.
func (it Item) IsLiteral() bool {
	return it.Lines != nil
}

func (*Summary) unit()   {}
func (*Paragraph) unit() {}
func (*Section) unit()   {}
func (*Literal) unit()   {}
