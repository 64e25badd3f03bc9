// Package catalog provides read-only translation catalogs: a message key
// maps to a translated string, and a missing key means "keep the source
// text".
//
// Catalogs are compiled upstream by the documentation toolchain into
// gettext files laid out as <locale_dir>/<lang>/LC_MESSAGES/<domain>.mo
// (or .po). Load opens one of those; Map is an in-memory catalog.
package catalog

import "strings"

// Catalog looks up the translation of a normalized message key.
// Implementations must be safe for concurrent reads.
type Catalog interface {
	Lookup(key string) (string, bool)
}

// Normalize collapses every run of whitespace to a single space and trims
// both ends. Message keys are always normalized before lookup.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Map is an in-memory catalog keyed by normalized message.
type Map map[string]string

// NewMap builds a Map from raw message pairs, normalizing the keys.
// Entries with an empty translation are dropped.
func NewMap(pairs map[string]string) Map {
	m := make(Map, len(pairs))
	for k, v := range pairs {
		if v == "" {
			continue
		}
		m[Normalize(k)] = v
	}
	return m
}

func (m Map) Lookup(key string) (string, bool) {
	s, ok := m[key]
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Func adapts a plain function to the Catalog interface.
type Func func(key string) (string, bool)

func (f Func) Lookup(key string) (string, bool) {
	return f(key)
}
