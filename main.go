// Command pyidoc translates the numpy-style docstrings of Python stub files with
// gettext catalogs and re-wraps them to a fixed width.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/minios-linux/pyidoc/apperr"
	"github.com/minios-linux/pyidoc/catalog"
	"github.com/minios-linux/pyidoc/docstring"
	"github.com/minios-linux/pyidoc/files"
	"github.com/minios-linux/pyidoc/translate"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

var isTerminal = term.IsTerminal

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flag
// ---------------------------------------------------------------------------

var rootDir string

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pyidoc",
		Short: "Translate docstrings of Python stub files with gettext catalogs",
		Long: `pyidoc: translate the numpy-style docstrings of Python .pyi stubs.

Each docstring is split into its summary, paragraphs and sections, every
piece of prose is looked up in a gettext catalog, and the result is wrapped
back to a fixed width. Code and everything outside docstrings is copied
byte for byte. Text without a catalog entry stays in the source language.

Commands:
  translate   Translate one stub file
  run         Translate all targets of .pyidoc.yaml
  status      Show catalog coverage of the configured targets
  version     Show version information`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// --dry_run and --dry-run are the same flag
	root.SetGlobalNormalizationFunc(wordSepNormalizeFunc)

	// Global persistent flag, inherited by all subcommands
	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory (where .pyidoc.yaml lives)")

	root.AddCommand(
		newTranslateCmd(),
		newRunCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	return root
}

func wordSepNormalizeFunc(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logError("%v", err)
		stop()
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version (display version information)
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pyidoc version %s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "  commit:    %s\n", commit)
			fmt.Fprintf(cmd.OutOrStdout(), "  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// translate (one file)
// ---------------------------------------------------------------------------

type translateArgs struct {
	source, domain, localeDir, lang string
	output                          string
	width                           int
	sections                        []string
	quiet                           bool
}

func newTranslateCmd() *cobra.Command {
	var a translateArgs

	cmd := &cobra.Command{
		Use:   "translate <stub.pyi> <domain> <locale_dir> <language>",
		Short: "Translate the docstrings of one stub file",
		Long: `Translate the docstrings of one stub file.

The catalog is read from <locale_dir>/<language>/LC_MESSAGES/<domain>.mo,
falling back to a .po file and to less specific language names (ja_JP -> ja).
Use "auto" as language to take it from LANGUAGE, LC_ALL, LC_MESSAGES or LANG.

The translated file is printed to standard output unless -o is given. On any
error nothing is written.

Examples:
  pyidoc translate mylib/core.pyi mylib locale ja -o build/ja/mylib/core.pyi
  pyidoc translate core.pyi mylib locale auto --width 79 > core.ja.pyi`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.source, a.domain, a.localeDir, a.lang = args[0], args[1], args[2], args[3]
			return runTranslate(cmd, a)
		},
	}

	cmd.Flags().StringVarP(&a.output, "output", "o", "", "Write the translated stub here instead of stdout")
	cmd.Flags().IntVarP(&a.width, "width", "w", docstring.DefaultWidth, "Wrap column for docstring text")
	cmd.Flags().StringArrayVar(&a.sections, "section", nil, "Extra section label to recognize (repeatable)")
	cmd.Flags().BoolVarP(&a.quiet, "quiet", "q", false, "Only report errors")

	return cmd
}

func runTranslate(cmd *cobra.Command, a translateArgs) error {
	if a.width <= 0 {
		return fmt.Errorf("--width must be positive, got %d", a.width)
	}
	lang := a.lang
	if lang == "auto" {
		if lang = catalog.DetectLanguage(); lang == "" {
			return errors.New("cannot detect language: LANGUAGE, LC_ALL, LC_MESSAGES and LANG are unset")
		}
	}

	// The catalog is loaded before the stub is read or parsed.
	cat, err := catalog.Load(a.domain, a.localeDir, lang)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(a.source)
	if err != nil {
		return fmt.Errorf("reading %s: %w", a.source, err)
	}
	res, err := translate.File(string(data), cat, translate.Options{Width: a.width, Sections: a.sections})
	if err != nil {
		return apperr.WithPath(err, a.source)
	}

	if a.output == "" {
		if _, err := fmt.Fprint(cmd.OutOrStdout(), res.Output); err != nil {
			return err
		}
	} else if err := files.AtomicWrite(a.output, []byte(res.Output), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", a.output, err)
	}

	if !a.quiet {
		logSuccess("%s: %d docstrings, %s translated (%s)",
			a.source, res.Docstrings, coverage(res.Stats.Translated, res.Stats.Units), cat.Path)
		if n := len(res.Stats.Missing); n > 0 {
			logWarning("%d messages have no translation in %s", n, cat.Path)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// coverage formats "translated/total (percent%)".
func coverage(translated, total int) string {
	return fmt.Sprintf("%d/%d (%d%%)", translated, total, percent(translated, total))
}

func percent(part, total int) int {
	if total == 0 {
		return 100
	}
	return part * 100 / total
}

// parseLangList splits a comma-separated --lang value.
func parseLangList(s string) []string {
	var out []string
	for _, l := range strings.Split(s, ",") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// intersectLanguages keeps the languages of available that appear in
// filter, in available's order. An empty filter keeps everything.
func intersectLanguages(available, filter []string) []string {
	if len(filter) == 0 {
		return available
	}
	want := make(map[string]bool, len(filter))
	for _, l := range filter {
		want[strings.TrimSpace(l)] = true
	}
	var out []string
	for _, l := range available {
		if want[l] {
			out = append(out, l)
		}
	}
	return out
}
