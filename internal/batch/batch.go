// Package batch analyzes many procedures concurrently with a bounded
// worker pool. Each procedure gets its own analysis budget, so one
// pathological input degrades only its own result.
package batch

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"github.com/fortdoc/fortflow/pkg/cache"
	"github.com/fortdoc/fortflow/pkg/flow"
	"github.com/fortdoc/fortflow/pkg/fortran"
)

// Item pairs one analysis result with the file it came from.
type Item struct {
	Path   string      `json:"path"`
	Result flow.Result `json:"result"`
}

// Report is the outcome of a batch run.
type Report struct {
	Items       []Item   `json:"items"`
	Unavailable []string `json:"unavailable,omitempty"` // procedures whose graph timed out
}

// Options configures a batch run.
type Options struct {
	// Workers bounds concurrency. 0 means one worker per CPU.
	Workers int

	// Flow is the per-procedure analysis configuration.
	Flow flow.Options

	// Cache, when non-nil, serves repeated procedures without recomputing.
	Cache *cache.ResultCache
}

// Run analyzes every procedure in the given files. Results come back in a
// deterministic order (by path, then by procedure start line) regardless of
// worker scheduling. Cancellation stops dispatching new work; already
// dispatched procedures finish.
func Run(ctx context.Context, files []*fortran.File, opts Options) Report {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	type job struct {
		path string
		proc fortran.Procedure
	}
	var jobs []job
	for _, f := range files {
		for _, p := range f.Procedures {
			jobs = append(jobs, job{path: f.Path, proc: p})
		}
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	items := make([]Item, 0, len(jobs))

	sem := make(chan struct{}, workers)

	for _, j := range jobs {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func(j job) {
			sem <- struct{}{}
			defer wg.Done()
			defer func() { <-sem }()

			proc := j.proc.FlowProcedure()
			var res flow.Result
			if opts.Cache != nil {
				res = opts.Cache.GetOrCompute(proc, opts.Flow)
			} else {
				res = flow.Analyze(proc, opts.Flow)
			}

			mu.Lock()
			items = append(items, Item{Path: j.path, Result: res})
			mu.Unlock()
		}(j)
	}

	wg.Wait()
	sortItems(items)
	return buildReport(items)
}

func sortItems(items []Item) {
	sort.Slice(items, func(a, b int) bool {
		if items[a].Path != items[b].Path {
			return items[a].Path < items[b].Path
		}
		return items[a].Result.Procedure < items[b].Result.Procedure
	})
}

func buildReport(items []Item) Report {
	r := Report{Items: items}
	for _, it := range items {
		if it.Result.Unavailable {
			r.Unavailable = append(r.Unavailable, it.Result.Procedure)
		}
	}
	return r
}
