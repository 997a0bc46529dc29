// Package config holds the engine's tunable settings as an explicit,
// immutable struct rather than a process-global options registry
// (Design Notes §9: "Global Options singleton → explicit context
// object"). Every field here corresponds to one of spec.md §6's
// enumerated options.
package config

import (
	"flag"
	"time"
)

// Configuration is passed by value (or pointer-to-immutable) into
// every Engine, DnCManager, and Portfolio constructor. Nothing in the
// core reads process-wide state.
type Configuration struct {
	// InputQueryFilePath points at an already-dumped query; network and
	// property parsing are out of scope (spec.md §1, §2 AMBIENT notes).
	InputQueryFilePath string
	QueryDumpFile      string
	SummaryFile        string

	Timeout time.Duration

	ConstraintViolationThreshold int
	LocalSearch                  bool

	EqEpsilon float64

	BranchStrategy string
	RandomSeed     int64

	// NumDisjuncts is the DnCManager's target leaf-subquery count.
	NumDisjuncts int
	// NumSingleThreadWorkers is the portfolio's count of additional
	// SoI/polarity engines run alongside the DnCManagers and the MILP
	// worker, for queries without a top-level Disjunction.
	NumSingleThreadWorkers int

	Verbosity int
}

// Default returns the settings a bare `cmd/plsolve` invocation starts
// from absent any flags, matching the teacher's zero-value-means-
// maxFun-heuristic/one-worker convention (jjhbw-GoMILP/api.go's
// Problem field defaults).
func Default() Configuration {
	return Configuration{
		Timeout:                      10 * time.Second,
		ConstraintViolationThreshold: 10,
		LocalSearch:                  false,
		EqEpsilon:                    1e-6,
		BranchStrategy:               "pseudocost",
		RandomSeed:                   1,
		NumDisjuncts:                 4,
		NumSingleThreadWorkers:       2,
		Verbosity:                    0,
	}
}

// FromFlags registers spec.md §6's option table onto fs and returns a
// Configuration populated by fs.Parse(args), layered over Default() —
// used only by cmd/plsolve; no core package reads flags or any other
// process-wide state directly (Design Notes §9).
func FromFlags(fs *flag.FlagSet, args []string) (Configuration, error) {
	cfg := Default()

	fs.StringVar(&cfg.InputQueryFilePath, "input-query-file", cfg.InputQueryFilePath, "path to a dumped InputQuery")
	fs.StringVar(&cfg.QueryDumpFile, "query-dump-file", cfg.QueryDumpFile, "if set, dump the parsed query here and exit")
	fs.StringVar(&cfg.SummaryFile, "summary-file", cfg.SummaryFile, "path to the single-line result summary; existence short-circuits the run")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "per-worker timeout")
	fs.IntVar(&cfg.ConstraintViolationThreshold, "constraint-violation-threshold", cfg.ConstraintViolationThreshold, "random-flip count before local search forces a split")
	fs.BoolVar(&cfg.LocalSearch, "local-search", cfg.LocalSearch, "enable SoI-guided local search")
	fs.Float64Var(&cfg.EqEpsilon, "eq-epsilon", cfg.EqEpsilon, "feasibility tolerance")
	fs.StringVar(&cfg.BranchStrategy, "branch-strategy", cfg.BranchStrategy, "polarity|pseudocost|soi|random")
	fs.Int64Var(&cfg.RandomSeed, "seed", cfg.RandomSeed, "random seed")
	fs.IntVar(&cfg.NumDisjuncts, "num-disjuncts", cfg.NumDisjuncts, "DnCManager target leaf-subquery count")
	fs.IntVar(&cfg.NumSingleThreadWorkers, "num-single-thread-workers", cfg.NumSingleThreadWorkers, "portfolio single-thread engine count")
	fs.IntVar(&cfg.Verbosity, "verbosity", cfg.Verbosity, "log level")

	if err := fs.Parse(args); err != nil {
		return Configuration{}, err
	}
	return cfg, nil
}
