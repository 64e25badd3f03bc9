package lockfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newLockFile() *LockFile {
	return &LockFile{
		Version:   Version,
		Checksums: make(map[string]map[string]string),
	}
}

func TestHashDeterministic(t *testing.T) {
	h1 := Hash("hello world")
	h2 := Hash("hello world")
	if h1 != h2 {
		t.Errorf("Hash not deterministic: %s != %s", h1, h2)
	}
	h3 := Hash("different")
	if h1 == h3 {
		t.Errorf("Hash collision: %s == %s", h1, h3)
	}
}

func TestLoadNonExistent(t *testing.T) {
	lf, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load returned error for non-existent file: %v", err)
	}
	if lf.Version != Version {
		t.Errorf("Version = %d, want %d", lf.Version, Version)
	}
	if len(lf.Checksums) != 0 {
		t.Errorf("Checksums not empty: %v", lf.Checksums)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()

	lf, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	in := Inputs{Source: "def f(): ...", Catalog: "abc", Width: 72}
	lf.Update("stubs", OutputKey("ja", "pkg/core.pyi"), in)
	lf.Update("stubs", OutputKey("de", "pkg/core.pyi"), in)
	lf.Update("extras", OutputKey("ja", "extra.pyi"), in)

	if err := lf.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	path := filepath.Join(dir, LockFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatalf("Lock file not created at %s", path)
	}

	lf2, err := Load(dir)
	if err != nil {
		t.Fatalf("Load after save: %v", err)
	}

	targets, keys := lf2.Stats()
	if targets != 2 {
		t.Errorf("targets = %d, want 2", targets)
	}
	if keys != 3 {
		t.Errorf("keys = %d, want 3", keys)
	}
	if lf2.IsChanged("stubs", OutputKey("ja", "pkg/core.pyi"), in) {
		t.Error("reloaded entry should be unchanged")
	}
}

func TestLoadOtherVersionIsEmpty(t *testing.T) {
	dir := t.TempDir()
	data := "version: 99\nchecksums:\n  stubs:\n    ja:a.pyi: deadbeef\n"
	if err := os.WriteFile(filepath.Join(dir, LockFileName), []byte(data), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	lf, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, keys := lf.Stats(); keys != 0 {
		t.Errorf("keys = %d, want 0", keys)
	}
}

func TestLoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, LockFileName), []byte("checksums: ["), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatal("Load of corrupt lock file should fail")
	}
}

func TestIsChanged(t *testing.T) {
	lf := newLockFile()
	key := OutputKey("ja", "mod.pyi")
	in := Inputs{Source: "src", Catalog: "c1", Width: 72}

	// New entry is always changed
	if !lf.IsChanged("stubs", key, in) {
		t.Error("new entry should be changed")
	}

	lf.Update("stubs", key, in)
	if lf.IsChanged("stubs", key, in) {
		t.Error("same inputs should not be changed")
	}

	for name, changed := range map[string]Inputs{
		"source":   {Source: "src2", Catalog: "c1", Width: 72},
		"catalog":  {Source: "src", Catalog: "c2", Width: 72},
		"width":    {Source: "src", Catalog: "c1", Width: 60},
		"sections": {Source: "src", Catalog: "c1", Width: 72, Sections: []string{"Usage"}},
	} {
		if !lf.IsChanged("stubs", key, changed) {
			t.Errorf("changed %s should be detected", name)
		}
	}

	lf.Forget("stubs", key)
	if !lf.IsChanged("stubs", key, in) {
		t.Error("forgotten entry should be changed")
	}
}

func TestOutputKey(t *testing.T) {
	if got := OutputKey("pt_BR", filepath.Join("pkg", "core.pyi")); got != "pt_BR:pkg/core.pyi" {
		t.Errorf("OutputKey = %q", got)
	}
}

func TestClean(t *testing.T) {
	lf := newLockFile()
	lf.Update("stubs", "ja:a.pyi", Inputs{Source: "a"})
	lf.Update("stubs", "ja:b.pyi", Inputs{Source: "b"})
	lf.Update("stubs", "ja:c.pyi", Inputs{Source: "c"})

	lf.Clean("stubs", []string{"ja:a.pyi", "ja:c.pyi"})

	if _, ok := lf.Checksums["stubs"]["ja:b.pyi"]; ok {
		t.Error("stale key should be removed")
	}
	if len(lf.Checksums["stubs"]) != 2 {
		t.Errorf("keys = %d, want 2", len(lf.Checksums["stubs"]))
	}
}

func TestRetainTargets(t *testing.T) {
	lf := newLockFile()
	lf.Update("stubs", "ja:a.pyi", Inputs{})
	lf.Update("removed", "ja:a.pyi", Inputs{})

	lf.RetainTargets([]string{"stubs"})

	targets := lf.Targets()
	if len(targets) != 1 || targets[0] != "stubs" {
		t.Errorf("Targets = %v, want [stubs]", targets)
	}
}

func TestSummary(t *testing.T) {
	lf := newLockFile()
	if got := lf.Summary(); got != "empty" {
		t.Errorf("Summary of empty lock = %q", got)
	}
	lf.Update("stubs", "ja:a.pyi", Inputs{})
	lf.Update("stubs", "de:a.pyi", Inputs{})
	got := lf.Summary()
	if !strings.Contains(got, "1 targets, 2 files") || !strings.Contains(got, "stubs: 2 files") {
		t.Errorf("Summary = %q", got)
	}
}

func TestConcurrentAccess(t *testing.T) {
	lf := newLockFile()

	done := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		go func(n int) {
			key := OutputKey("ja", "mod"+string(rune('0'+n))+".pyi")
			in := Inputs{Source: "value"}
			lf.Update("stubs", key, in)
			lf.IsChanged("stubs", key, in)
			lf.Stats()
			done <- true
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	_, keys := lf.Stats()
	if keys != 10 {
		t.Errorf("keys after concurrent writes = %d, want 10", keys)
	}
}
