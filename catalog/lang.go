package catalog

import (
	"os"
	"strings"
)

// LangCandidates expands a language code into the directory names gettext
// tries, most specific first: "ja_JP.UTF-8@x" gives ja_JP.UTF-8@x,
// ja_JP.UTF-8, ja_JP, ja. A "pt-BR" style tag is also tried as "pt_BR".
func LangCandidates(lang string) []string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return nil
	}

	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	add(lang)
	base := lang
	if i := strings.IndexByte(base, '@'); i >= 0 {
		base = base[:i]
		add(base)
	}
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
		add(base)
	}
	if strings.Contains(base, "-") {
		add(strings.ReplaceAll(base, "-", "_"))
	}
	if i := strings.IndexAny(base, "_-"); i > 0 {
		add(base[:i])
	}
	return out
}

// DetectLanguage reads the user's preferred language from LANGUAGE,
// LC_ALL, LC_MESSAGES and LANG, in GNU gettext order. It returns "" when
// none names a real language.
func DetectLanguage() string {
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		val := os.Getenv(env)
		if val == "" {
			continue
		}
		// LANGUAGE can be a colon-separated list; take the first
		if env == "LANGUAGE" {
			val, _, _ = strings.Cut(val, ":")
		}
		if idx := strings.IndexByte(val, '.'); idx >= 0 {
			val = val[:idx]
		}
		if val == "C" || val == "POSIX" || val == "" {
			continue
		}
		return val
	}
	return ""
}
