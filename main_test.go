package main

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/minios-linux/pyidoc/apperr"
	"github.com/minios-linux/pyidoc/lockfile"
	"github.com/minios-linux/pyidoc/pofile"
)

const coreStub = `def add(x: int, y: int) -> int:
    """Adds two numbers.

    Parameters
    ----------
    x : int
        First value.
    """
`

const jaPO = `msgid ""
msgstr ""
"Content-Type: text/plain; charset=UTF-8\n"

msgid "Adds two numbers."
msgstr "数値を加算します。"
`

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

// newProject lays out a project with one target and a Japanese catalog.
func newProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "src", "pkg", "core.pyi"), coreStub)
	writeTestFile(t, filepath.Join(dir, "locale", "ja", "LC_MESSAGES", "mylib.po"), jaPO)
	writeTestFile(t, filepath.Join(dir, ".pyidoc.yaml"), `
domain: mylib
targets:
  - name: stubs
    root: src
    sources: ["**/*.pyi"]
`)
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	rootDir = "."
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTranslateCommandToStdout(t *testing.T) {
	dir := newProject(t)
	src := filepath.Join(dir, "src", "pkg", "core.pyi")

	out, err := execute(t, "translate", "-q", src, "mylib", filepath.Join(dir, "locale"), "ja_JP.UTF-8")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	want := strings.Replace(coreStub, "Adds two numbers.", "数値を加算します。", 1)
	if out != want {
		t.Fatalf("stdout = %q, want %q", out, want)
	}
}

func TestTranslateCommandOutputFile(t *testing.T) {
	dir := newProject(t)
	src := filepath.Join(dir, "src", "pkg", "core.pyi")
	dst := filepath.Join(dir, "out", "core.pyi")

	if _, err := execute(t, "translate", "-q", src, "mylib", filepath.Join(dir, "locale"), "ja", "-o", dst); err != nil {
		t.Fatalf("translate: %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "数値を加算します。") {
		t.Fatalf("output not translated:\n%s", data)
	}
}

func TestTranslateCommandFailures(t *testing.T) {
	dir := newProject(t)
	locale := filepath.Join(dir, "locale")
	bad := filepath.Join(dir, "bad.pyi")
	writeTestFile(t, bad, "def f():\n    \"\"\"never closed\n")
	dst := filepath.Join(dir, "out", "bad.pyi")

	_, err := execute(t, "translate", bad, "mylib", locale, "ja", "-o", dst)
	if !apperr.Is(err, apperr.KindMalformedDocstring) {
		t.Fatalf("err = %v, want malformed docstring", err)
	}
	if !strings.Contains(err.Error(), bad+":2") {
		t.Errorf("error %q does not locate the literal", err)
	}
	if fileExists(dst) {
		t.Errorf("output written despite failure")
	}

	_, err = execute(t, "translate", bad, "mylib", locale, "fr")
	if !apperr.Is(err, apperr.KindCatalogUnavailable) {
		t.Fatalf("err = %v, want catalog unavailable", err)
	}

	if _, err := execute(t, "translate", bad, "mylib", locale, "ja", "--width", "0"); err == nil {
		t.Fatal("--width 0 accepted")
	}
	if _, err := execute(t, "translate", bad, "mylib"); err == nil {
		t.Fatal("missing arguments accepted")
	}
}

func TestRunCommandIsIncremental(t *testing.T) {
	dir := newProject(t)
	out := filepath.Join(dir, "build", "stubs", "ja", "pkg", "core.pyi")

	if _, err := execute(t, "run", "--root", dir); err != nil {
		t.Fatalf("run: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "数値を加算します。") {
		t.Fatalf("output not translated:\n%s", data)
	}
	lock, err := lockfile.Load(dir)
	if err != nil {
		t.Fatalf("lockfile.Load: %v", err)
	}
	if _, keys := lock.Stats(); keys != 1 {
		t.Fatalf("lock keys = %d, want 1", keys)
	}

	// An unchanged input is skipped, so a local edit survives.
	writeTestFile(t, out, "edited")
	if _, err := execute(t, "run", "--root", dir); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if data, _ := os.ReadFile(out); string(data) != "edited" {
		t.Fatalf("up-to-date output was rewritten: %q", data)
	}

	if _, err := execute(t, "run", "--root", dir, "--force"); err != nil {
		t.Fatalf("forced run: %v", err)
	}
	if data, _ := os.ReadFile(out); string(data) == "edited" {
		t.Fatal("--force did not rewrite the output")
	}
}

func TestRunCommandReportsFailures(t *testing.T) {
	dir := newProject(t)
	writeTestFile(t, filepath.Join(dir, "src", "pkg", "broken.pyi"), "class C:\n    '''open\n")

	_, err := execute(t, "run", "--root", dir)
	if err == nil || !strings.Contains(err.Error(), "1 files failed") {
		t.Fatalf("run error = %v, want one failure", err)
	}
	if !fileExists(filepath.Join(dir, "build", "stubs", "ja", "pkg", "core.pyi")) {
		t.Error("healthy file not translated")
	}
	if fileExists(filepath.Join(dir, "build", "stubs", "ja", "pkg", "broken.pyi")) {
		t.Error("broken file produced output")
	}
}

func TestRunDryRun(t *testing.T) {
	dir := newProject(t)
	out, err := execute(t, "run", "--root", dir, "--dry_run")
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if !strings.Contains(out, filepath.Join("pkg", "core.pyi")) {
		t.Errorf("dry run output = %q", out)
	}
	if fileExists(filepath.Join(dir, "build", "stubs", "ja", "pkg", "core.pyi")) {
		t.Error("dry run wrote output")
	}
}

func TestRunWithoutProjectFile(t *testing.T) {
	if _, err := execute(t, "run", "--root", t.TempDir()); err == nil {
		t.Fatal("run without .pyidoc.yaml succeeded")
	}
}

func TestRunKeepsLockRecordsOfUnloadableCatalog(t *testing.T) {
	dir := newProject(t)
	dePO := strings.Replace(jaPO, "数値を加算します。", "Addiert zwei Zahlen.", 1)
	dePath := filepath.Join(dir, "locale", "de", "LC_MESSAGES", "mylib.po")
	writeTestFile(t, dePath, dePO)
	deOut := filepath.Join(dir, "build", "stubs", "de", "pkg", "core.pyi")

	if _, err := execute(t, "run", "--root", dir); err != nil {
		t.Fatalf("run: %v", err)
	}

	writeTestFile(t, dePath, "not a po file\n")
	if _, err := execute(t, "run", "--root", dir); err == nil {
		t.Fatal("run with a broken catalog succeeded")
	}
	lock, err := lockfile.Load(dir)
	if err != nil {
		t.Fatalf("lockfile.Load: %v", err)
	}
	if _, keys := lock.Stats(); keys != 2 {
		t.Fatalf("lock keys = %d, want 2 after a failed catalog load", keys)
	}

	// With the catalog restored, the German output is still up to date.
	writeTestFile(t, dePath, dePO)
	writeTestFile(t, deOut, "edited")
	if _, err := execute(t, "run", "--root", dir); err != nil {
		t.Fatalf("third run: %v", err)
	}
	if data, _ := os.ReadFile(deOut); string(data) != "edited" {
		t.Fatalf("up-to-date output was rebuilt: %q", data)
	}
}

func TestStatusTemplateUsesTargetDomain(t *testing.T) {
	dir := newProject(t)
	writeTestFile(t, filepath.Join(dir, ".pyidoc.yaml"), `
targets:
  - name: stubs
    domain: mylib
    root: src
    sources: ["**/*.pyi"]
`)
	pot := filepath.Join(dir, "missing.pot")
	if _, err := execute(t, "status", "--root", dir, "--pot", pot); err != nil {
		t.Fatalf("status: %v", err)
	}
	pf, err := pofile.ParseFile(pot)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if got := pf.HeaderField("Project-Id-Version"); !strings.HasPrefix(got, "mylib ") {
		t.Fatalf("Project-Id-Version = %q, want the target domain", got)
	}
}

func TestStatusWritesTemplate(t *testing.T) {
	dir := newProject(t)
	pot := filepath.Join(dir, "missing.pot")

	out, err := execute(t, "status", "--root", dir, "--pot", pot)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "1/2") {
		t.Errorf("status table = %q, want 1/2 coverage", out)
	}
	data, err := os.ReadFile(pot)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "#: pkg/core.pyi\nmsgid \"First value.\"") {
		t.Errorf("template = %s", data)
	}
	if strings.Contains(string(data), "Adds two numbers.") {
		t.Errorf("translated message in template: %s", data)
	}

	pf, err := pofile.ParseFile(pot)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(pf.Entries) != 1 || pf.Entries[0].MsgID != "First value." {
		t.Fatalf("template entries = %+v", pf.Entries)
	}
	if got := pf.HeaderField("Project-Id-Version"); !strings.HasPrefix(got, "mylib ") {
		t.Errorf("Project-Id-Version = %q", got)
	}
}

func TestCoverageBar(t *testing.T) {
	tests := []struct {
		name    string
		percent int
		width   int
		want    string
	}{
		{"clamps below zero", -10, 4, colorRed + "░░░░" + colorReset + "   0%"},
		{"mid range uses yellow", 50, 4, colorYellow + "██░░" + colorReset + "  50%"},
		{"clamps above hundred", 120, 4, colorGreen + "████" + colorReset + " 100%"},
	}
	for _, tc := range tests {
		if got := coverageBar(tc.percent, tc.width); got != tc.want {
			t.Fatalf("%s: coverageBar() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestCoverage(t *testing.T) {
	if got := coverage(1, 3); got != "1/3 (33%)" {
		t.Fatalf("coverage(1, 3) = %q", got)
	}
	if got := percent(0, 0); got != 100 {
		t.Fatalf("percent(0, 0) = %d, want 100", got)
	}
}

func TestLanguageLists(t *testing.T) {
	if got, want := parseLangList(" ja, de ,,fr"), []string{"ja", "de", "fr"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("parseLangList() = %#v, want %#v", got, want)
	}

	available := []string{"de", "es", "fr", "ja"}
	if got, want := intersectLanguages(available, []string{" fr ", "ja", "it"}), []string{"fr", "ja"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("intersectLanguages() = %#v, want %#v", got, want)
	}
	if got := intersectLanguages(available, nil); !reflect.DeepEqual(got, available) {
		t.Fatalf("intersectLanguages(nil filter) = %#v", got)
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(filePath, []byte("ok"), 0644); err != nil {
		t.Fatalf("os.WriteFile() error: %v", err)
	}

	if !fileExists(filePath) {
		t.Fatalf("fileExists(file) = false, want true")
	}
	if fileExists(dir) {
		t.Fatalf("fileExists(directory) = true, want false")
	}
	if fileExists(filepath.Join(dir, "missing.txt")) {
		t.Fatalf("fileExists(missing) = true, want false")
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "pyidoc version ") {
		t.Fatalf("version output = %q", out)
	}
}
