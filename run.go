package main

import (
	"fmt"
	"os"

	"github.com/minios-linux/pyidoc/catalog"
	"github.com/minios-linux/pyidoc/config"
	"github.com/minios-linux/pyidoc/lockfile"
	"github.com/minios-linux/pyidoc/translate"
	"github.com/spf13/cobra"
)

// ---------------------------------------------------------------------------
// run (all targets of .pyidoc.yaml)
// ---------------------------------------------------------------------------

type runArgs struct {
	langs   string
	workers int
	force   bool
	dryRun  bool
}

func newRunCmd() *cobra.Command {
	var a runArgs

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Translate every target of .pyidoc.yaml",
		Long: `Translate every stub of every target declared in .pyidoc.yaml into
every configured language, in parallel.

Outputs are written atomically. A stub is skipped when neither it, its
catalog nor the rendering settings changed since the last run (recorded in
pyidoc.lock); --force translates everything again. A stub that fails to
translate is reported and leaves its previous output untouched; the command
then exits with a non-zero status.

Examples:
  pyidoc run
  pyidoc run --lang ja,de --force
  pyidoc run --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, a)
		},
	}

	cmd.Flags().StringVar(&a.langs, "lang", "", "Only these languages (comma-separated)")
	cmd.Flags().IntVarP(&a.workers, "workers", "j", 0, "Files translated in parallel (default: from .pyidoc.yaml)")
	cmd.Flags().BoolVarP(&a.force, "force", "f", false, "Ignore pyidoc.lock and translate everything")
	cmd.Flags().BoolVar(&a.dryRun, "dry-run", false, "List the files that would be translated")

	return cmd
}

// loadTargets reads .pyidoc.yaml under the project root.
func loadTargets() (*config.File, []config.ResolvedTarget, error) {
	pf, err := config.Load(rootDir)
	if err != nil {
		return nil, nil, err
	}
	if pf == nil {
		return nil, nil, fmt.Errorf("no %s in %s", config.FileName, rootDir)
	}
	targets, err := pf.Resolve(rootDir)
	if err != nil {
		return nil, nil, err
	}
	return pf, targets, nil
}

// plannedOutput is the lock file record written once a job succeeds.
type plannedOutput struct {
	target string
	key    string
	inputs lockfile.Inputs
}

func runRun(cmd *cobra.Command, a runArgs) error {
	pf, targets, err := loadTargets()
	if err != nil {
		return err
	}
	lock, err := lockfile.Load(rootDir)
	if err != nil {
		return err
	}
	filter := parseLangList(a.langs)

	var (
		jobs       []translate.Job
		plan       []plannedOutput
		names      []string
		failed     int
		upToDate   int
		translated int
	)
	for _, rt := range targets {
		name := rt.Target.Name
		names = append(names, name)

		sources, err := rt.Sources()
		if err != nil {
			logError("%v", err)
			failed++
			continue
		}
		if len(sources) == 0 {
			logWarning("target %q: no stub files match %v", name, rt.Target.Sources)
			continue
		}
		langs := intersectLanguages(rt.Languages, filter)
		if len(langs) == 0 {
			logWarning("target %q: no languages to translate", name)
			continue
		}

		// Keys of every selected output, including those of languages
		// whose catalog fails to load, so Clean keeps their records.
		var keys []string
		for _, lang := range langs {
			for _, rel := range sources {
				keys = append(keys, lockfile.OutputKey(lang, rel))
			}
		}
		for _, lang := range langs {
			cat, err := catalog.Load(rt.Target.Domain, rt.AbsLocaleDir, lang)
			if err != nil {
				logError("target %q: %v", name, err)
				failed += len(sources)
				continue
			}
			for _, rel := range sources {
				key := lockfile.OutputKey(lang, rel)

				src, out := rt.SourcePath(rel), rt.OutputPath(lang, rel)
				data, err := os.ReadFile(src)
				if err != nil {
					logError("reading %s: %v", src, err)
					failed++
					continue
				}
				in := lockfile.Inputs{
					Source:   string(data),
					Catalog:  cat.Checksum,
					Width:    rt.Target.Width,
					Sections: rt.Target.Sections,
				}
				if !a.force && fileExists(out) && !lock.IsChanged(name, key, in) {
					upToDate++
					continue
				}
				jobs = append(jobs, translate.Job{
					Source:   src,
					Output:   out,
					Lang:     lang,
					Catalog:  cat,
					Width:    rt.Target.Width,
					Sections: rt.Target.Sections,
				})
				plan = append(plan, plannedOutput{target: name, key: key, inputs: in})
			}
		}
		if len(filter) == 0 {
			lock.Clean(name, keys)
		}
	}

	if a.dryRun {
		for _, job := range jobs {
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", job.Source, job.Output)
		}
		logInfo("%d files to translate, %d up to date", len(jobs), upToDate)
		return nil
	}

	if len(jobs) > 0 {
		workers := a.workers
		if workers <= 0 {
			workers = pf.Workers
		}
		logInfo("Translating %d files with %d workers", len(jobs), workers)
		results, _ := translate.Batch(cmd.Context(), jobs, translate.Options{
			Workers:    workers,
			OnProgress: newProgress(len(jobs), "Translating"),
		})
		for i, r := range results {
			p := plan[i]
			if r.Err != nil {
				logError("%v", r.Err)
				lock.Forget(p.target, p.key)
				failed++
				continue
			}
			lock.Update(p.target, p.key, p.inputs)
			translated++
		}
	}
	lock.RetainTargets(names)
	if err := lock.Save(); err != nil {
		return err
	}

	if err := cmd.Context().Err(); err != nil {
		return fmt.Errorf("interrupted after %d files: %w", translated, err)
	}
	if failed > 0 {
		return fmt.Errorf("%d files failed, %d translated, %d up to date", failed, translated, upToDate)
	}
	logSuccess("%d files translated, %d up to date", translated, upToDate)
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
