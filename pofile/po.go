// Package pofile reads and writes gettext PO/POT files. It backs .po
// catalogs (when no compiled .mo exists) and the message templates written
// for untranslated docstring text.
package pofile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"
)

// Entry is one message of a PO file.
type Entry struct {
	// TranslatorComments are "# " lines.
	TranslatorComments []string
	// ExtractedComments are "#." lines.
	ExtractedComments []string
	// References are "#:" source locations.
	References []string
	// Flags are "#," flags such as fuzzy.
	Flags []string

	MsgCtxt      string
	MsgID        string
	MsgIDPlural  string
	MsgStr       string
	MsgStrPlural map[int]string

	// Obsolete marks "#~" entries.
	Obsolete bool
}

// IsTranslated reports whether the entry has a usable translation: not the
// header, not fuzzy, and every form filled in.
func (e *Entry) IsTranslated() bool {
	if e.MsgID == "" || e.IsFuzzy() {
		return false
	}
	if e.MsgIDPlural != "" {
		for _, v := range e.MsgStrPlural {
			if v == "" {
				return false
			}
		}
		return len(e.MsgStrPlural) > 0
	}
	return e.MsgStr != ""
}

// IsFuzzy returns true if the entry is marked fuzzy.
func (e *Entry) IsFuzzy() bool {
	for _, f := range e.Flags {
		if f == "fuzzy" {
			return true
		}
	}
	return false
}

// File is a parsed PO or POT file.
type File struct {
	// Header is the metadata entry (msgid "").
	Header  *Entry
	Entries []*Entry

	index map[string]*Entry
}

// NewFile creates an empty PO file with an empty header.
func NewFile() *File {
	return &File{Header: &Entry{}}
}

// HeaderField returns a header field value by name, case-insensitively.
func (f *File) HeaderField(name string) string {
	if f.Header == nil {
		return ""
	}
	for _, line := range strings.Split(f.Header.MsgStr, "\n") {
		if key, value, ok := strings.Cut(line, ":"); ok && strings.EqualFold(strings.TrimSpace(key), name) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

// Stats counts live messages by state.
func (f *File) Stats() (total, translated, fuzzy int) {
	for _, e := range f.Entries {
		if e.MsgID == "" || e.Obsolete {
			continue
		}
		total++
		switch {
		case e.IsFuzzy():
			fuzzy++
		case e.IsTranslated():
			translated++
		}
	}
	return
}

// AddMessage appends msgid as an untranslated message, or adds ref to the
// references of the existing message with that msgid.
func (f *File) AddMessage(msgid, ref string) *Entry {
	if f.index == nil {
		f.index = make(map[string]*Entry, len(f.Entries))
		for _, e := range f.Entries {
			if e.MsgCtxt == "" && !e.Obsolete {
				f.index[e.MsgID] = e
			}
		}
	}
	e, ok := f.index[msgid]
	if !ok {
		e = &Entry{MsgID: msgid}
		f.index[msgid] = e
		f.Entries = append(f.Entries, e)
	}
	if ref != "" {
		e.References = append(e.References, ref)
	}
	return e
}

// Parse reads a PO/POT file.
func Parse(r io.Reader) (*File, error) {
	f := &File{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var cur *Entry
	var appendTo func(string) // continuation target of the last keyword
	lineNum := 0
	into := func(p *string) func(string) {
		return func(s string) { *p += s }
	}

	flush := func() {
		if cur == nil {
			return
		}
		if cur.MsgID == "" && !cur.Obsolete && f.Header == nil {
			f.Header = cur
		} else {
			f.Entries = append(f.Entries, cur)
		}
		cur, appendTo = nil, nil
	}

	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")

		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if cur == nil {
			cur = &Entry{}
		}
		if rest, ok := strings.CutPrefix(line, "#~"); ok {
			cur.Obsolete = true
			line = strings.TrimLeft(rest, " ")
			if line == "" {
				continue
			}
		}

		switch {
		case strings.HasPrefix(line, "#:"):
			cur.References = append(cur.References, strings.TrimSpace(line[2:]))
		case strings.HasPrefix(line, "#,"):
			for _, flag := range strings.Split(line[2:], ",") {
				if flag = strings.TrimSpace(flag); flag != "" {
					cur.Flags = append(cur.Flags, flag)
				}
			}
		case strings.HasPrefix(line, "#."):
			cur.ExtractedComments = append(cur.ExtractedComments, strings.TrimSpace(line[2:]))
		case strings.HasPrefix(line, "#|"):
			// previous msgid of a fuzzy entry; not kept
		case strings.HasPrefix(line, "#"):
			cur.TranslatorComments = append(cur.TranslatorComments, strings.TrimPrefix(line[1:], " "))
		case strings.HasPrefix(line, "msgctxt "):
			cur.MsgCtxt = unquote(line[len("msgctxt "):])
			appendTo = into(&cur.MsgCtxt)
		case strings.HasPrefix(line, "msgid_plural "):
			cur.MsgIDPlural = unquote(line[len("msgid_plural "):])
			appendTo = into(&cur.MsgIDPlural)
		case strings.HasPrefix(line, "msgid "):
			if cur.MsgID != "" || cur.MsgStr != "" {
				// entries without a separating blank line
				flush()
				cur = &Entry{}
			}
			cur.MsgID = unquote(line[len("msgid "):])
			appendTo = into(&cur.MsgID)
		case strings.HasPrefix(line, "msgstr["):
			var idx int
			if n, err := fmt.Sscanf(line, "msgstr[%d]", &idx); err != nil || n != 1 {
				return nil, fmt.Errorf("line %d: invalid msgstr index: %s", lineNum, line)
			}
			_, quoted, ok := strings.Cut(line, "] ")
			if !ok {
				return nil, fmt.Errorf("line %d: invalid msgstr format: %s", lineNum, line)
			}
			if cur.MsgStrPlural == nil {
				cur.MsgStrPlural = make(map[int]string)
			}
			cur.MsgStrPlural[idx] = unquote(quoted)
			forms := cur.MsgStrPlural
			appendTo = func(s string) { forms[idx] += s }
		case strings.HasPrefix(line, "msgstr "):
			cur.MsgStr = unquote(line[len("msgstr "):])
			appendTo = into(&cur.MsgStr)
		case strings.HasPrefix(line, `"`):
			if appendTo == nil {
				return nil, fmt.Errorf("line %d: string continuation without a keyword", lineNum)
			}
			appendTo(unquote(line))
		default:
			return nil, fmt.Errorf("line %d: unexpected %q", lineNum, line)
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading PO file: %w", err)
	}
	if f.Header == nil {
		f.Header = &Entry{}
	}
	return f, nil
}

// ParseFile reads a PO/POT file from disk.
func ParseFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Write writes the file in PO syntax.
func (f *File) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	first := true
	if f.Header != nil {
		writeEntry(bw, f.Header)
		first = false
	}
	for _, e := range f.Entries {
		if !first {
			bw.WriteString("\n")
		}
		first = false
		writeEntry(bw, e)
	}
	return bw.Flush()
}

func writeEntry(w *bufio.Writer, e *Entry) {
	prefix := ""
	if e.Obsolete {
		prefix = "#~ "
	}
	for _, c := range e.TranslatorComments {
		fmt.Fprintf(w, "# %s\n", c)
	}
	for _, c := range e.ExtractedComments {
		fmt.Fprintf(w, "#. %s\n", c)
	}
	for _, ref := range e.References {
		fmt.Fprintf(w, "#: %s\n", ref)
	}
	if len(e.Flags) > 0 {
		fmt.Fprintf(w, "#, %s\n", strings.Join(e.Flags, ", "))
	}
	if e.MsgCtxt != "" {
		writeQuotedField(w, prefix+"msgctxt", e.MsgCtxt)
	}
	writeQuotedField(w, prefix+"msgid", e.MsgID)
	if e.MsgIDPlural == "" {
		writeQuotedField(w, prefix+"msgstr", e.MsgStr)
		return
	}
	writeQuotedField(w, prefix+"msgid_plural", e.MsgIDPlural)
	indices := make([]int, 0, len(e.MsgStrPlural))
	for idx := range e.MsgStrPlural {
		indices = append(indices, idx)
	}
	if len(indices) == 0 {
		indices = []int{0, 1}
	}
	sort.Ints(indices)
	for _, idx := range indices {
		writeQuotedField(w, fmt.Sprintf("%smsgstr[%d]", prefix, idx), e.MsgStrPlural[idx])
	}
}

// writeQuotedField writes a field, splitting multi-line values after each
// "\n" the way xgettext does.
func writeQuotedField(w *bufio.Writer, field, value string) {
	if !strings.Contains(strings.TrimSuffix(value, "\n"), "\n") {
		fmt.Fprintf(w, "%s %s\n", field, quote(value))
		return
	}
	fmt.Fprintf(w, "%s \"\"\n", field)
	for _, part := range strings.SplitAfter(value, "\n") {
		if part != "" {
			fmt.Fprintf(w, "%s\n", quote(part))
		}
	}
}

func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`)
	return `"` + r.Replace(s) + `"`
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	s = s[1 : len(s)-1]

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\', '"':
			b.WriteByte(s[i])
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// TemplateHeader creates the header of a message template for domain.
func TemplateHeader(domain, version string) *Entry {
	now := time.Now().UTC().Format("2006-01-02 15:04+0000")
	return &Entry{
		TranslatorComments: []string{
			fmt.Sprintf("Docstring messages of %s missing from the catalogs.", domain),
		},
		Flags: []string{"fuzzy"},
		MsgStr: fmt.Sprintf(
			"Project-Id-Version: %s %s\n"+
				"POT-Creation-Date: %s\n"+
				"PO-Revision-Date: YEAR-MO-DA HO:MI+ZONE\n"+
				"Last-Translator: \n"+
				"Language-Team: \n"+
				"Language: \n"+
				"MIME-Version: 1.0\n"+
				"Content-Type: text/plain; charset=UTF-8\n"+
				"Content-Transfer-Encoding: 8bit\n",
			domain, version, now),
	}
}
