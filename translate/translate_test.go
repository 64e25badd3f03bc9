package translate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/minios-linux/pyidoc/apperr"
	"github.com/minios-linux/pyidoc/catalog"
	"github.com/rivo/uniseg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const addStub = `from typing import overload

def add(x: int, y: int) -> int:
    """Adds two numbers.

    Parameters
    ----------
    x : int
        First value.
    """

X = 1  # "not a docstring"
`

var japanese = catalog.NewMap(map[string]string{
	"Adds two numbers.": "数値を加算します。",
	"First value.":      "最初の値。",
})

func TestFileTranslatesDocstrings(t *testing.T) {
	res, err := File(addStub, japanese, Options{})
	require.NoError(t, err)

	want := strings.NewReplacer(
		"Adds two numbers.", "数値を加算します。",
		"First value.", "最初の値。",
	).Replace(addStub)
	assert.Equal(t, want, res.Output)
	assert.Equal(t, 1, res.Docstrings)
	assert.Equal(t, 2, res.Stats.Translated)
	assert.Empty(t, res.Stats.Missing)
}

func TestFileEmptyCatalogKeepsCanonicalSource(t *testing.T) {
	res, err := File(addStub, catalog.Map{}, Options{})
	require.NoError(t, err)
	assert.Equal(t, addStub, res.Output)
	assert.Equal(t, []string{"Adds two numbers.", "First value."}, res.Stats.Missing)
}

func TestFileWithoutDocstrings(t *testing.T) {
	src := "import os\n\nX: int\n"
	res, err := File(src, japanese, Options{})
	require.NoError(t, err)
	assert.Equal(t, src, res.Output)
	assert.Zero(t, res.Docstrings)
}

func TestFileMalformedLiteralAborts(t *testing.T) {
	src := "def f():\n    \"\"\"Adds two numbers.\n"
	res, err := File(src, japanese, Options{})
	assert.Nil(t, res)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindMalformedDocstring))
}

func TestFileDecodesKeysAndEscapesTranslations(t *testing.T) {
	src := "def f():\n    \"\"\"Use C:\\\\path.\"\"\"\n"
	var keys []string
	cat := catalog.Func(func(key string) (string, bool) {
		keys = append(keys, key)
		return `Utilisez C:\chemin.`, true
	})

	res, err := File(src, cat, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{`Use C:\path.`}, keys)
	assert.Equal(t, "def f():\n    \"\"\"Utilisez C:\\\\chemin.\"\"\"\n", res.Output)
}

func TestFileWrapsWithinWidth(t *testing.T) {
	src := "class C:\n    def m(self) -> None:\n        \"\"\"Short.\n\n        Original text.\n        \"\"\"\n"
	long := strings.Repeat("ein langer deutscher Satz ", 6)
	cat := catalog.NewMap(map[string]string{"Original text.": long})

	res, err := File(src, cat, Options{Width: 40})
	require.NoError(t, err)
	lines := strings.Split(res.Output, "\n")
	assert.Greater(t, len(lines), 7)
	for _, line := range lines {
		assert.LessOrEqual(t, uniseg.StringWidth(line), 40, "line %q", line)
	}
	assert.Contains(t, res.Output, "        ein langer")
}

func TestFileExtraSections(t *testing.T) {
	src := "def f():\n    \"\"\"Doc.\n\n    Usage\n    -----\n    Call it.\n    \"\"\"\n"
	cat := catalog.NewMap(map[string]string{"Usage": "Utilisation", "Call it.": "Appelez."})

	res, err := File(src, cat, Options{})
	require.NoError(t, err)
	assert.Contains(t, res.Output, "    Utilisation\n    -----\n    Appelez.")

	res, err = File(src, cat, Options{Sections: []string{"Usage"}})
	require.NoError(t, err)
	assert.Contains(t, res.Output, "    Usage\n    -----\n    Appelez.")
}

func TestBatch(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.pyi")
	bad := filepath.Join(dir, "bad.pyi")
	require.NoError(t, os.WriteFile(good, []byte(addStub), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("def f():\n    '''open\n"), 0o644))

	badOut := filepath.Join(dir, "out", "bad.pyi")
	jobs := []Job{
		{Source: good, Output: filepath.Join(dir, "out", "good.pyi"), Lang: "ja", Catalog: japanese},
		{Source: bad, Output: badOut, Lang: "ja", Catalog: japanese},
	}

	var mu sync.Mutex
	var progress []int
	results, err := Batch(context.Background(), jobs, Options{
		Workers: 2,
		OnProgress: func(done, total int) {
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, 2, total)
			progress = append(progress, done)
		},
	})

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindMalformedDocstring))
	assert.Contains(t, err.Error(), bad)
	assert.ElementsMatch(t, []int{1, 2}, progress)

	require.Len(t, results, 2)
	require.NoError(t, results[0].Err)
	assert.Equal(t, 1, results[0].Result.Docstrings)
	out, err := os.ReadFile(jobs[0].Output)
	require.NoError(t, err)
	assert.Contains(t, string(out), "数値を加算します。")

	assert.Error(t, results[1].Err)
	assert.NoFileExists(t, badOut)
}

func TestBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := Batch(ctx, []Job{{Source: "missing.pyi", Output: "unused.pyi"}}, Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, results[0].Err, context.Canceled)
}

func TestFileMissingKeysAcrossDocstrings(t *testing.T) {
	src := "def f():\n    \"\"\"Shared text.\"\"\"\n\ndef g():\n    \"\"\"Shared text.\"\"\"\n"
	res, err := File(src, catalog.Map{}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Stats.Units)
	assert.Equal(t, []string{"Shared text."}, res.Stats.Missing)
}

func TestFileKeepsHeadingInFirstBlock(t *testing.T) {
	src := "\"\"\"Title\n=====\n\nBody text.\n\"\"\"\n"
	res, err := File(src, catalog.Map{}, Options{})
	require.NoError(t, err)
	assert.Equal(t, src, res.Output)
	assert.Equal(t, []string{"Title", "Body text."}, res.Stats.Missing)
}
