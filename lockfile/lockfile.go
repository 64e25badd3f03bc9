// Package lockfile implements pyidoc.lock, a lock file that tracks MD5
// checksums of the inputs each translated stub was produced from. This
// enables incremental runs: a stub is only re-translated when its source,
// its catalog or the rendering settings changed.
//
// The lock file is stored alongside .pyidoc.yaml as pyidoc.lock.
package lockfile

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/minios-linux/pyidoc/files"
	"gopkg.in/yaml.v3"
)

// LockFileName is the default lock file name.
const LockFileName = "pyidoc.lock"

// Version is the lock file format version.
const Version = 1

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// LockFile represents the pyidoc.lock file structure.
type LockFile struct {
	Version   int                          `yaml:"version"`
	Checksums map[string]map[string]string `yaml:"checksums"` // target -> output key -> md5

	mu   sync.Mutex `yaml:"-"`
	path string     `yaml:"-"`
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// Load reads a lock file from the given directory.
// Returns an empty lock file if the file doesn't exist.
func Load(dir string) (*LockFile, error) {
	path := filepath.Join(dir, LockFileName)
	lf := &LockFile{
		Version:   Version,
		Checksums: make(map[string]map[string]string),
		path:      path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lf, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, lf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	lf.path = path

	if lf.Checksums == nil {
		lf.Checksums = make(map[string]map[string]string)
	}
	if lf.Version != Version {
		// An unknown format is treated as a cold cache.
		lf.Version = Version
		lf.Checksums = make(map[string]map[string]string)
	}

	return lf, nil
}

// Save writes the lock file to disk atomically.
func (lf *LockFile) Save() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.path == "" {
		return fmt.Errorf("lock file path not set")
	}

	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("marshaling lock file: %w", err)
	}

	if err := files.AtomicWrite(lf.path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", lf.path, err)
	}

	return nil
}

// Path returns the lock file path.
func (lf *LockFile) Path() string {
	return lf.path
}

// ---------------------------------------------------------------------------
// Checksum operations
// ---------------------------------------------------------------------------

// Hash computes the MD5 hex digest of a string.
func Hash(s string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(s)))
}

// OutputKey builds the key of one translated file within a target.
// Format: "ja:pkg/core.pyi".
func OutputKey(lang, relPath string) string {
	return lang + ":" + filepath.ToSlash(relPath)
}

// Inputs describes everything a translated stub depends on.
type Inputs struct {
	// Source is the stub file contents.
	Source string
	// Catalog is the checksum of the catalog file used.
	Catalog string
	// Width is the wrap column.
	Width int
	// Sections are the extra section labels.
	Sections []string
}

// Content builds the string hashed for a set of inputs.
func (in Inputs) Content() string {
	return strings.Join([]string{
		in.Source,
		in.Catalog,
		strconv.Itoa(in.Width),
		strings.Join(in.Sections, "\x1f"),
	}, "\x00")
}

// IsChanged checks if the inputs of an output changed since it was last
// written. Returns true if the output is new or any input changed.
func (lf *LockFile) IsChanged(target, key string, in Inputs) bool {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	keys, ok := lf.Checksums[target]
	if !ok {
		return true
	}
	oldHash, ok := keys[key]
	if !ok {
		return true
	}
	return oldHash != Hash(in.Content())
}

// Update records the inputs of an output after it was written.
func (lf *LockFile) Update(target, key string, in Inputs) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.Checksums[target] == nil {
		lf.Checksums[target] = make(map[string]string)
	}
	lf.Checksums[target][key] = Hash(in.Content())
}

// Forget drops the record of an output, so the next run rebuilds it.
func (lf *LockFile) Forget(target, key string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	delete(lf.Checksums[target], key)
}

// Clean removes entries from the lock file that are no longer present in
// the current set of keys. This prevents stale entries from accumulating.
func (lf *LockFile) Clean(target string, currentKeys []string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	existing := lf.Checksums[target]
	if existing == nil {
		return
	}

	valid := make(map[string]bool, len(currentKeys))
	for _, k := range currentKeys {
		valid[k] = true
	}

	for k := range existing {
		if !valid[k] {
			delete(existing, k)
		}
	}
}

// RetainTargets removes all checksums of targets not in names.
func (lf *LockFile) RetainTargets(names []string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	keep := make(map[string]bool, len(names))
	for _, n := range names {
		keep[n] = true
	}
	for t := range lf.Checksums {
		if !keep[t] {
			delete(lf.Checksums, t)
		}
	}
}

// ---------------------------------------------------------------------------
// Stats
// ---------------------------------------------------------------------------

// Stats returns the number of targets and total keys in the lock file.
func (lf *LockFile) Stats() (targets, keys int) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	targets = len(lf.Checksums)
	for _, m := range lf.Checksums {
		keys += len(m)
	}
	return
}

// Targets returns sorted list of target names.
func (lf *LockFile) Targets() []string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	targets := make([]string, 0, len(lf.Checksums))
	for t := range lf.Checksums {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	return targets
}

// Summary returns a human-readable summary string.
func (lf *LockFile) Summary() string {
	targets, keys := lf.Stats()
	if targets == 0 {
		return "empty"
	}

	var parts []string
	for _, t := range lf.Targets() {
		lf.mu.Lock()
		n := len(lf.Checksums[t])
		lf.mu.Unlock()
		parts = append(parts, fmt.Sprintf("%s: %d files", t, n))
	}
	return fmt.Sprintf("%d targets, %d files (%s)", targets, keys, strings.Join(parts, ", "))
}
