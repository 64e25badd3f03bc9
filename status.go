package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/minios-linux/pyidoc/catalog"
	"github.com/minios-linux/pyidoc/config"
	"github.com/minios-linux/pyidoc/files"
	"github.com/minios-linux/pyidoc/lockfile"
	"github.com/minios-linux/pyidoc/pofile"
	"github.com/minios-linux/pyidoc/translate"
	"github.com/spf13/cobra"
)

// ---------------------------------------------------------------------------
// status (read-only: catalog coverage per target and language)
// ---------------------------------------------------------------------------

type statusArgs struct {
	langs string
	pot   string
}

func newStatusCmd() *cobra.Command {
	var a statusArgs

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show catalog coverage of the configured targets",
		Long: `Show, for every target and language of .pyidoc.yaml, how much of the
docstring text has a translation in the catalog. Does not write any stub.

With --pot, the messages missing from any catalog are written to a gettext
template, with the stub files they occur in as references.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, a)
		},
	}

	cmd.Flags().StringVar(&a.langs, "lang", "", "Only these languages (comma-separated)")
	cmd.Flags().StringVar(&a.pot, "pot", "", "Write missing messages to this POT file")

	return cmd
}

// langCoverage is one row of the status table.
type langCoverage struct {
	lang       string
	docstrings int
	translated int
	total      int
	failed     int
	err        error
}

func runStatus(cmd *cobra.Command, a statusArgs) error {
	pf, targets, err := loadTargets()
	if err != nil {
		return err
	}
	filter := parseLangList(a.langs)
	out := cmd.ErrOrStderr()

	fmt.Fprintf(out, "Project:    %s\n", rootDir)
	fmt.Fprintf(out, "Languages:  %s\n", strings.Join(config.AllLanguages(targets), ", "))
	if lock, err := lockfile.Load(rootDir); err == nil {
		fmt.Fprintf(out, "Lock file:  %s\n", lock.Summary())
	}

	var pot *pofile.File
	if a.pot != "" {
		pot = pofile.NewFile()
		pot.Header = pofile.TemplateHeader(templateDomain(pf, targets), version)
	}

	for _, rt := range targets {
		sources, err := rt.Sources()
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "\n%s%s%s\n", colorBlue, rt.Target.Name, colorReset)
		fmt.Fprintln(out, strings.Repeat("─", 60))
		fmt.Fprintf(out, "  Root:       %s\n", rt.AbsRoot)
		fmt.Fprintf(out, "  Domain:     %s\n", rt.Target.Domain)
		fmt.Fprintf(out, "  Catalogs:   %s\n", rt.AbsLocaleDir)
		fmt.Fprintf(out, "  Stubs:      %d\n", len(sources))
		langs := intersectLanguages(rt.Languages, filter)
		if len(langs) == 0 {
			fmt.Fprintf(out, "  Languages:  none found\n\n")
			continue
		}
		fmt.Fprintf(out, "  Languages:  %s\n\n", strings.Join(langs, ", "))

		rows := make([]langCoverage, 0, len(langs))
		for _, lang := range langs {
			rows = append(rows, measureCoverage(rt, sources, lang, pot))
		}
		writeCoverageTable(out, rows)
	}

	if pot != nil {
		var buf bytes.Buffer
		if err := pot.Write(&buf); err != nil {
			return err
		}
		if err := files.AtomicWrite(a.pot, buf.Bytes(), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", a.pot, err)
		}
		logSuccess("Wrote %d missing messages to %s", len(pot.Entries), a.pot)
	}
	return nil
}

// templateDomain names the domain of the message template: the domain
// shared by all targets, else the project-wide one.
func templateDomain(pf *config.File, targets []config.ResolvedTarget) string {
	if len(targets) == 0 {
		return pf.Domain
	}
	domain := targets[0].Target.Domain
	for _, rt := range targets[1:] {
		if rt.Target.Domain != domain {
			return pf.Domain
		}
	}
	return domain
}

// measureCoverage translates every source in memory and sums the lookup
// statistics. Missing messages are added to pot when it is not nil.
func measureCoverage(rt config.ResolvedTarget, sources []string, lang string, pot *pofile.File) langCoverage {
	row := langCoverage{lang: lang}
	cat, err := catalog.Load(rt.Target.Domain, rt.AbsLocaleDir, lang)
	if err != nil {
		row.err = err
		return row
	}
	opts := translate.Options{Width: rt.Target.Width, Sections: rt.Target.Sections}
	for _, rel := range sources {
		data, err := os.ReadFile(rt.SourcePath(rel))
		if err != nil {
			row.failed++
			continue
		}
		res, err := translate.File(string(data), cat, opts)
		if err != nil {
			logWarning("%s: %v", rel, err)
			row.failed++
			continue
		}
		row.docstrings += res.Docstrings
		row.translated += res.Stats.Translated
		row.total += res.Stats.Units
		if pot != nil {
			for _, msg := range res.Stats.Missing {
				e := pot.AddMessage(msg, "")
				if !slices.Contains(e.References, rel) {
					e.References = append(e.References, rel)
				}
			}
		}
	}
	return row
}

func writeCoverageTable(w io.Writer, rows []langCoverage) {
	width := len("Lang")
	for _, r := range rows {
		width = max(width, len(r.lang))
	}

	fmt.Fprintf(w, "  %-*s %-11s %-14s %s\n", width, "Lang", "Docstrings", "Translated", "Coverage")
	fmt.Fprintln(w, "  "+strings.Repeat("─", width+50))
	for _, r := range rows {
		if r.err != nil {
			fmt.Fprintf(w, "  %-*s %s%s%s\n", width, r.lang, colorRed, "no catalog", colorReset)
			continue
		}
		line := fmt.Sprintf("  %-*s %-11d %-14s %s", width, r.lang, r.docstrings,
			fmt.Sprintf("%d/%d", r.translated, r.total), coverageBar(percent(r.translated, r.total), 20))
		if r.failed > 0 {
			line += fmt.Sprintf("  %s%d failed%s", colorRed, r.failed, colorReset)
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w)
}

