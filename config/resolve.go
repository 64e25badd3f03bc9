package config

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ---------------------------------------------------------------------------
// Resolving targets
// ---------------------------------------------------------------------------

// ResolvedTarget holds a target with absolute paths and its languages.
type ResolvedTarget struct {
	Target       Target
	AbsRoot      string
	AbsLocaleDir string
	// Languages are the configured languages, or the ones detected from the
	// locale directory.
	Languages []string
}

// Resolve converts the project file into targets with absolute paths.
// Languages are detected from the locale directory where not configured.
func (f *File) Resolve(projectRoot string) ([]ResolvedTarget, error) {
	absProjectRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, err
	}

	var resolved []ResolvedTarget
	for _, t := range f.Targets {
		rt := ResolvedTarget{
			Target:       t,
			AbsRoot:      filepath.Join(absProjectRoot, t.Root),
			AbsLocaleDir: filepath.Join(absProjectRoot, t.LocaleDir),
			Languages:    t.Languages,
		}
		rt.Target.Output = filepath.Join(absProjectRoot, t.Output)

		// Auto-detect languages if not specified
		if len(rt.Languages) == 0 {
			rt.Languages = DetectLanguages(rt.AbsLocaleDir, t.Domain)
		}
		if len(rt.Languages) > 1 && !strings.Contains(t.Output, LangPlaceholder) {
			return nil, fmt.Errorf("target %q: output %q has no %s placeholder for languages %s",
				t.Name, t.Output, LangPlaceholder, strings.Join(rt.Languages, ", "))
		}
		resolved = append(resolved, rt)
	}
	return resolved, nil
}

// Sources returns the target's stub files as slash-separated paths relative
// to AbsRoot, sorted and without excluded files.
func (rt *ResolvedTarget) Sources() ([]string, error) {
	fsys := os.DirFS(rt.AbsRoot)
	seen := make(map[string]bool)
	var out []string
	for _, pattern := range rt.Target.Sources {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("target %q: expanding %q: %w", rt.Target.Name, pattern, err)
		}
		for _, m := range matches {
			if seen[m] || rt.excluded(m) {
				continue
			}
			if info, err := fs.Stat(fsys, m); err != nil || info.IsDir() {
				continue
			}
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (rt *ResolvedTarget) excluded(rel string) bool {
	for _, pattern := range rt.Target.Exclude {
		if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
			return true
		}
	}
	return false
}

// SourcePath returns the absolute path of a source returned by Sources.
func (rt *ResolvedTarget) SourcePath(rel string) string {
	return filepath.Join(rt.AbsRoot, filepath.FromSlash(rel))
}

// OutputDir returns the absolute output directory for a language.
func (rt *ResolvedTarget) OutputDir(lang string) string {
	return strings.ReplaceAll(rt.Target.Output, LangPlaceholder, lang)
}

// OutputPath returns where the translation of a source goes.
func (rt *ResolvedTarget) OutputPath(lang, rel string) string {
	return filepath.Join(rt.OutputDir(lang), filepath.FromSlash(rel))
}

// AllLanguages returns the deduplicated union of all target languages.
func AllLanguages(targets []ResolvedTarget) []string {
	seen := make(map[string]bool)
	var all []string
	for _, rt := range targets {
		for _, lang := range rt.Languages {
			if !seen[lang] {
				seen[lang] = true
				all = append(all, lang)
			}
		}
	}
	sort.Strings(all)
	return all
}

// ---------------------------------------------------------------------------
// Language detection
// ---------------------------------------------------------------------------

// DetectLanguages finds the languages that have a catalog for domain in
// localeDir, laid out as <lang>/LC_MESSAGES/<domain>.mo (or .po).
func DetectLanguages(localeDir, domain string) []string {
	entries, err := os.ReadDir(localeDir)
	if err != nil {
		return nil
	}

	var langs []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		lang := entry.Name()
		if !isLangCode(lang) {
			continue
		}
		msgDir := filepath.Join(localeDir, lang, "LC_MESSAGES")
		for _, ext := range []string{".mo", ".po"} {
			if _, err := os.Stat(filepath.Join(msgDir, domain+ext)); err == nil {
				langs = append(langs, lang)
				break
			}
		}
	}
	sort.Strings(langs)
	return langs
}

// isLangCode checks if a string looks like a gettext locale name: a two or
// three letter language, an optional _CC territory and an optional
// @modifier (ja, pt_BR, sr@latin).
func isLangCode(s string) bool {
	s, modifier, hasModifier := strings.Cut(s, "@")
	if hasModifier && modifier == "" {
		return false
	}
	lang, territory, hasTerritory := strings.Cut(s, "_")
	if len(lang) < 2 || len(lang) > 3 || !isLower(lang) {
		return false
	}
	if hasTerritory {
		return len(territory) == 2 && isUpper(territory)
	}
	return true
}

func isLower(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'a' || s[i] > 'z' {
			return false
		}
	}
	return true
}

func isUpper(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}
