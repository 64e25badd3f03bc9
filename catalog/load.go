package catalog

import (
	"bytes"
	"crypto/md5"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/leonelquinteros/gotext"
	"github.com/minios-linux/pyidoc/apperr"
	"github.com/minios-linux/pyidoc/pofile"
)

const (
	moMagicLE = 0x950412de
	moMagicBE = 0xde120495
)

// File is a catalog loaded from a compiled .mo or a .po file.
type File struct {
	// Path is the file the catalog was read from.
	Path string
	// Lang is the language directory the file was found under.
	Lang string
	// Checksum is the MD5 hex digest of the file contents.
	Checksum string

	lookup func(string) (string, bool)
}

func (f *File) Lookup(key string) (string, bool) {
	return f.lookup(key)
}

// Path returns the expected location of a domain's catalog for one
// language directory.
func Path(localeDir, lang, domain, ext string) string {
	return filepath.Join(localeDir, lang, "LC_MESSAGES", domain+ext)
}

// Load opens the catalog of domain for lang under localeDir, trying the
// gettext fallbacks of lang in order (ja_JP.UTF-8, ja_JP, ja) and, for each,
// the compiled .mo before the .po source. Any failure is reported as
// apperr.KindCatalogUnavailable.
func Load(domain, localeDir, lang string) (*File, error) {
	if domain == "" {
		return nil, apperr.New(apperr.KindCatalogUnavailable, "empty catalog domain", nil)
	}
	candidates := LangCandidates(lang)
	if len(candidates) == 0 {
		return nil, apperr.New(apperr.KindCatalogUnavailable, "empty target language", nil)
	}

	for _, l := range candidates {
		for _, ext := range []string{".mo", ".po"} {
			path := Path(localeDir, l, domain, ext)
			data, err := os.ReadFile(path)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					continue
				}
				return nil, apperr.CatalogUnavailable(path, err)
			}
			f := &File{Path: path, Lang: l, Checksum: fmt.Sprintf("%x", md5.Sum(data))}
			if ext == ".mo" {
				f.lookup, err = parseMO(data)
			} else {
				f.lookup, err = parsePO(data)
			}
			if err != nil {
				return nil, apperr.CatalogUnavailable(path, err)
			}
			return f, nil
		}
	}
	return nil, apperr.CatalogUnavailable(Path(localeDir, candidates[0], domain, ".mo"), os.ErrNotExist)
}

// parseMO reads a compiled gettext catalog with gotext and indexes its
// translated singular messages by normalized msgid, like parsePO.
func parseMO(data []byte) (lookup func(string) (string, bool), err error) {
	if len(data) < 28 {
		return nil, fmt.Errorf("file too short for a gettext MO catalog")
	}
	if m := binary.LittleEndian.Uint32(data); m != moMagicLE && m != moMagicBE {
		return nil, fmt.Errorf("bad MO magic number %#x", m)
	}

	defer func() {
		if r := recover(); r != nil {
			lookup, err = nil, fmt.Errorf("corrupt MO catalog: %v", r)
		}
	}()
	mo := gotext.NewMo()
	mo.Parse(data)

	m := make(Map)
	for id, tr := range mo.GetDomain().GetTranslations() {
		key := Normalize(id)
		if key == "" || tr.PluralID != "" || !tr.IsTranslated() {
			continue
		}
		m[key] = tr.Get()
	}
	return m.Lookup, nil
}

// parsePO indexes the translated, non-fuzzy entries of a PO file by
// normalized msgid.
func parsePO(data []byte) (func(string) (string, bool), error) {
	po, err := pofile.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	m := make(Map)
	for _, e := range po.Entries {
		if e.Obsolete || e.MsgCtxt != "" || e.MsgIDPlural != "" || !e.IsTranslated() {
			continue
		}
		m[Normalize(e.MsgID)] = e.MsgStr
	}
	return m.Lookup, nil
}
