// Package summary writes the single-line result summary file spec.md
// §6 defines, guarded by a single-writer mutex so the first worker to
// conclude always wins even if a second worker is mid-write
// (SPEC_FULL.md §4.8, §5 "shared-resource policy").
package summary

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"plsolve"
)

// Writer serializes writes to one summary file behind a mutex, the Go
// idiom for the original's std::mutex-guarded single-writer file.
type Writer struct {
	mu   sync.Mutex
	path string
}

func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Report is everything one summary line needs, independent of whether
// it came from a lone Engine or a Portfolio race.
type Report struct {
	Result     plsolve.Result
	Elapsed    float64
	Assignment plsolve.Assignment
	Stats      plsolve.StatsSnapshot

	// Portfolio reports "holds"/"violated"/"unknown" in place of
	// sat/unsat/TIMEOUT-ERROR-UNKNOWN (spec.md §6: "The DnC portfolio
	// writes holds / violated / unknown instead.").
	Portfolio bool
}

func (r Report) resultWord() string {
	if !r.Portfolio {
		return r.Result.String()
	}
	switch r.Result {
	case plsolve.ResultSAT:
		return "violated"
	case plsolve.ResultUNSAT:
		return "holds"
	default:
		return "unknown"
	}
}

// Write overwrites path with this report's summary line (and, on a SAT
// result, one "xK = <value>" line per assigned variable), replacing
// whatever a previous writer left there — the winner's write always
// stands (spec.md §5 "the winner overwrites any prior partial write").
func (w *Writer) Write(r Report) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("summary: create %s: %w", w.path, err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s %f %d %d %d %d\n",
		r.resultWord(),
		r.Elapsed,
		r.Stats.VisitedTreeStates,
		r.Stats.ProposedFlips,
		r.Stats.AcceptedFlips,
		r.Stats.RejectedFlips,
	); err != nil {
		return fmt.Errorf("summary: write %s: %w", w.path, err)
	}

	if r.Result == plsolve.ResultSAT {
		vars := make([]plsolve.Variable, 0, len(r.Assignment))
		for v := range r.Assignment {
			vars = append(vars, v)
		}
		sort.Slice(vars, func(i, j int) bool { return vars[i] < vars[j] })
		for _, v := range vars {
			if _, err := fmt.Fprintf(f, "x%d = %f\n", v, r.Assignment[v]); err != nil {
				return fmt.Errorf("summary: write %s: %w", w.path, err)
			}
		}
	}
	return nil
}

// Exists reports whether a summary file is already present at path,
// used to short-circuit a run per spec.md §6's SUMMARY_FILE option
// ("existence short-circuits the run").
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
