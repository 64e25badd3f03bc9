// Package config reads the .pyidoc.yaml project file.
//
// A project file declares translation targets: sets of stub files under a
// root directory, the catalog domain and locale directory to translate them
// with, and where the translated copies go. The "run" and "status" commands
// use it as their only input.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// File is the top-level .pyidoc.yaml structure. Top-level values are
// defaults for every target.
type File struct {
	// Domain is the catalog domain (the .mo file name without extension).
	Domain string `yaml:"domain,omitempty"`
	// LocaleDir is the catalog directory, relative to the project file.
	LocaleDir string `yaml:"locale_dir,omitempty"`
	// Languages to translate into. Empty means every language that has a
	// catalog for the domain.
	Languages []string `yaml:"languages,omitempty"`
	// Width is the wrap column (default 72).
	Width int `yaml:"width,omitempty"`
	// Sections are extra section labels recognized besides numpydoc's.
	Sections []string `yaml:"sections,omitempty"`
	// Workers bounds parallel file translation (default: number of CPUs).
	Workers int `yaml:"workers,omitempty"`
	// Targets is the list of stub sets to translate.
	Targets []Target `yaml:"targets"`
}

// Target is one set of stub files translated the same way.
type Target struct {
	// Name is a human-readable label shown in status and logs.
	Name string `yaml:"name"`
	// Root is the directory sources are relative to (default ".").
	Root string `yaml:"root,omitempty"`
	// Sources are doublestar globs of stub files relative to Root.
	Sources []string `yaml:"sources"`
	// Exclude are doublestar globs removed from Sources.
	Exclude []string `yaml:"exclude,omitempty"`
	// Output is the output directory relative to the project file. A
	// "{lang}" placeholder is replaced by the language code. Outputs keep
	// their path relative to Root.
	Output string `yaml:"output,omitempty"`

	// --- overrides ---

	Domain    string   `yaml:"domain,omitempty"`
	LocaleDir string   `yaml:"locale_dir,omitempty"`
	Languages []string `yaml:"languages,omitempty"`
	Width     int      `yaml:"width,omitempty"`
	Sections  []string `yaml:"sections,omitempty"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// FileName is the default project file name.
const FileName = ".pyidoc.yaml"

// DefaultOutput is the output directory used when a target names none.
const DefaultOutput = "build/stubs/{lang}"

// DefaultLocaleDir is the catalog directory used when none is configured.
const DefaultLocaleDir = "locale"

// LangPlaceholder is replaced by the language code in output paths.
const LangPlaceholder = "{lang}"

// Load loads and validates .pyidoc.yaml from the given directory.
// Returns nil if no project file exists.
func Load(rootDir string) (*File, error) {
	path := filepath.Join(rootDir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes a project file, fills in defaults and validates it.
// Targets inherit every unset override from the top level.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing: %w", err)
	}

	// Defaults
	if f.LocaleDir == "" {
		f.LocaleDir = DefaultLocaleDir
	}
	if f.Workers <= 0 {
		f.Workers = runtime.NumCPU()
	}
	if f.Width < 0 {
		return nil, fmt.Errorf("width must be positive, got %d", f.Width)
	}
	if len(f.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined")
	}

	names := make(map[string]bool)
	for i := range f.Targets {
		t := &f.Targets[i]

		if t.Name == "" {
			return nil, fmt.Errorf("target #%d has no name", i+1)
		}
		if names[t.Name] {
			return nil, fmt.Errorf("duplicate target name %q", t.Name)
		}
		names[t.Name] = true

		if t.Root == "" {
			t.Root = "."
		}
		if t.Output == "" {
			t.Output = DefaultOutput
		}

		// Inherit top-level settings
		if t.Domain == "" {
			t.Domain = f.Domain
		}
		if t.LocaleDir == "" {
			t.LocaleDir = f.LocaleDir
		}
		if len(t.Languages) == 0 {
			t.Languages = f.Languages
		}
		if t.Width == 0 {
			t.Width = f.Width
		}
		t.Sections = append(append([]string(nil), f.Sections...), t.Sections...)

		if t.Domain == "" {
			return nil, fmt.Errorf("target %q has no domain", t.Name)
		}
		if t.Width < 0 {
			return nil, fmt.Errorf("target %q: width must be positive, got %d", t.Name, t.Width)
		}
		if len(t.Sources) == 0 {
			return nil, fmt.Errorf("target %q has no sources", t.Name)
		}
		for _, p := range append(append([]string(nil), t.Sources...), t.Exclude...) {
			if !doublestar.ValidatePattern(p) {
				return nil, fmt.Errorf("target %q has invalid pattern %q", t.Name, p)
			}
		}
		if len(t.Languages) > 1 && !strings.Contains(t.Output, LangPlaceholder) {
			return nil, fmt.Errorf("target %q translates %d languages but output %q has no %s placeholder",
				t.Name, len(t.Languages), t.Output, LangPlaceholder)
		}
	}

	return &f, nil
}
