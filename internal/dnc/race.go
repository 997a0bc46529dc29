// Package dnc implements the divide-and-conquer splitter and the
// concurrent portfolio orchestrator of SPEC_FULL.md §4.8: DnCManager
// bisects a query on its top-ranked PLConstraint into leaf subqueries,
// and Portfolio races a heterogeneous mix of Engine and MILP workers
// over the original query (or over a DnCManager's leaves), reporting
// whichever concludes first.
package dnc

import (
	"context"
	"sync"
	"sync/atomic"

	"plsolve"
)

// WorkerResult is one worker's terminal report, independent of whether
// it came from a single-threaded Engine, a DnCManager's own internal
// race over its leaves, or the MILP encoder.
type WorkerResult struct {
	Worker     string
	Result     plsolve.Result
	Assignment plsolve.Assignment
	Stats      *plsolve.Statistics
	Err        error
}

// worker is one named unit of portfolio work: run it with a context
// that is cancelled as soon as any sibling concludes.
type worker struct {
	name string
	run  func(context.Context) WorkerResult
}

// race runs every worker concurrently and returns as soon as one
// reports a conclusive SAT/UNSAT result, cancelling the rest — but
// still waits for every goroutine to actually return before race
// itself returns, so no worker is left running after the caller moves
// on (spec.md §9 Open Question 2: join every worker). A panicking
// worker is recovered and reported as that worker's own ERROR result,
// so it cannot take down its siblings (spec.md §7).
//
// If no worker ever concludes SAT/UNSAT, race falls back to the first
// ERROR seen, or else TIMEOUT.
func race(ctx context.Context, workers []worker) WorkerResult {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu      sync.Mutex
		once    sync.Once
		done    atomic.Bool
		winner  WorkerResult
		results []WorkerResult
	)

	conclude := func(r WorkerResult) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()

		if r.Result == plsolve.ResultSAT || r.Result == plsolve.ResultUNSAT {
			once.Do(func() {
				done.Store(true)
				mu.Lock()
				winner = r
				mu.Unlock()
				cancel()
			})
		}
	}

	var wg sync.WaitGroup
	for _, w := range workers {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					conclude(WorkerResult{
						Worker: w.name,
						Result: plsolve.ResultError,
						Err:    errPanicf(w.name, rec),
					})
				}
			}()
			conclude(w.run(ctx))
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if winner.Worker != "" {
		return winner
	}
	for _, r := range results {
		if r.Result == plsolve.ResultError {
			return r
		}
	}
	return WorkerResult{Result: plsolve.ResultTimeout}
}
