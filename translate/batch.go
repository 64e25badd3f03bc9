package translate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync/atomic"

	"github.com/minios-linux/pyidoc/apperr"
	"github.com/minios-linux/pyidoc/catalog"
	"github.com/minios-linux/pyidoc/files"
	"golang.org/x/sync/errgroup"
)

// Job is one stub file to translate into one language.
type Job struct {
	// Source is the stub file to read.
	Source string
	// Output is where the translated file is written.
	Output string
	// Lang is the catalog language, for reporting.
	Lang string
	// Catalog is shared read-only between jobs.
	Catalog catalog.Catalog
	// Width and Sections override the batch options when set.
	Width    int
	Sections []string
}

// JobResult pairs a job with its outcome. Exactly one of Result and Err is
// set.
type JobResult struct {
	Job    Job
	Result *Result
	Err    error
}

// Batch translates jobs in parallel, at most opts.Workers at a time, and
// writes each output atomically. A failing job does not stop the others;
// its output is left untouched. Results are returned in job order together
// with the joined errors of all failed jobs. Cancelling ctx skips the jobs
// that have not started yet. OnProgress may be called concurrently.
func Batch(ctx context.Context, jobs []Job, opts Options) ([]JobResult, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]JobResult, len(jobs))
	var done atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(workers)
	for i, job := range jobs {
		g.Go(func() error {
			results[i] = JobResult{Job: job}
			if err := ctx.Err(); err != nil {
				results[i].Err = err
			} else {
				results[i].Result, results[i].Err = runJob(job, opts)
			}
			if opts.OnProgress != nil {
				opts.OnProgress(int(done.Add(1)), len(jobs))
			}
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return results, errors.Join(errs...)
}

func runJob(job Job, opts Options) (*Result, error) {
	if job.Width > 0 {
		opts.Width = job.Width
	}
	if job.Sections != nil {
		opts.Sections = job.Sections
	}
	data, err := os.ReadFile(job.Source)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", job.Source, err)
	}
	res, err := File(string(data), job.Catalog, opts)
	if err != nil {
		return nil, apperr.WithPath(err, job.Source)
	}
	if err := files.AtomicWrite(job.Output, []byte(res.Output), 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", job.Output, err)
	}
	return res, nil
}
