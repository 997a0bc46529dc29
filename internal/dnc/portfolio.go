package dnc

import (
	"context"
	"errors"
	"fmt"

	"plsolve"
	"plsolve/internal/config"
	"plsolve/internal/lporacle"
	"plsolve/internal/milp"
)

// milpWorkers is the MILP encoder's own internal branch-and-bound
// concurrency (internal/milp.Solve's enumeration-tree worker count),
// independent of the portfolio's own worker mix.
const milpWorkers = 4

// Portfolio spawns, for a query with a top-level Disjunction, four
// DnCManagers plus one MILP worker; for a query without one, a single
// DnCManager, cfg.NumSingleThreadWorkers single-threaded SoI/polarity
// Engines with distinct seeds, and one MILP worker — exactly spec.md
// §4.8's worker mix (SPEC_FULL.md §4.8).
type Portfolio struct {
	cfg config.Configuration
}

func NewPortfolio(cfg config.Configuration) *Portfolio {
	return &Portfolio{cfg: cfg}
}

// Run races the configured worker mix over query and returns whichever
// concludes first, after joining every worker.
func (p *Portfolio) Run(ctx context.Context, query *plsolve.InputQuery) WorkerResult {
	if hasTopLevelDisjunction(query) {
		return race(ctx, p.disjunctionWorkers(query))
	}
	return race(ctx, p.plainWorkers(query))
}

func hasTopLevelDisjunction(query *plsolve.InputQuery) bool {
	for _, c := range query.PLConstraints {
		if c.Kind() == plsolve.Disjunction {
			return true
		}
	}
	return false
}

func (p *Portfolio) disjunctionWorkers(query *plsolve.InputQuery) []worker {
	workers := make([]worker, 0, 5)
	for s := 0; s < 4; s++ {
		s := s
		name := fmt.Sprintf("dnc-%d", s)
		mgr := NewDnCManager(s)
		workers = append(workers, worker{
			name: name,
			run: func(ctx context.Context) WorkerResult {
				return mgr.Run(ctx, name, query.Clone(), p.cfg)
			},
		})
	}
	workers = append(workers, p.milpWorker(query))
	return workers
}

func (p *Portfolio) plainWorkers(query *plsolve.InputQuery) []worker {
	workers := make([]worker, 0, 2+p.cfg.NumSingleThreadWorkers)

	mgr := NewDnCManager(0)
	workers = append(workers, worker{
		name: "dnc-0",
		run: func(ctx context.Context) WorkerResult {
			return mgr.Run(ctx, "dnc-0", query.Clone(), p.cfg)
		},
	})

	strategies := []plsolve.BranchStrategy{plsolve.StrategyPolarity, plsolve.StrategySoI}
	for i := 0; i < p.cfg.NumSingleThreadWorkers; i++ {
		i := i
		name := fmt.Sprintf("single-%d", i)
		strategy := strategies[i%len(strategies)]
		workers = append(workers, worker{
			name: name,
			run: func(ctx context.Context) WorkerResult {
				return p.runSingleEngine(ctx, name, query.Clone(), strategy, p.cfg.RandomSeed+int64(i)+1)
			},
		})
	}

	workers = append(workers, p.milpWorker(query))
	return workers
}

func (p *Portfolio) runSingleEngine(ctx context.Context, name string, query *plsolve.InputQuery, strategy plsolve.BranchStrategy, seed int64) WorkerResult {
	cfg := p.cfg
	cfg.BranchStrategy = strategy.String()
	cfg.RandomSeed = seed

	stats := plsolve.NewStatistics()
	oracle := lporacle.NewGonumOracle()
	engine := plsolve.NewEngine(query, oracle, cfg, stats)

	result, assignment, err := engine.Solve(ctx)
	if err != nil {
		return WorkerResult{Worker: name, Result: plsolve.ResultError, Stats: stats, Err: err}
	}
	return WorkerResult{Worker: name, Result: result, Assignment: assignment, Stats: stats}
}

func (p *Portfolio) milpWorker(query *plsolve.InputQuery) worker {
	return worker{
		name: "milp",
		run: func(ctx context.Context) WorkerResult {
			assignment, err := milp.Solve(ctx, query.Clone(), milpWorkers, milp.BRANCH_MAXFUN)
			if err == nil {
				return WorkerResult{Worker: "milp", Result: plsolve.ResultSAT, Assignment: assignment}
			}
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				return WorkerResult{Worker: "milp", Result: plsolve.ResultTimeout}
			}
			if errors.Is(err, milp.ErrNoFeasibleAssignment) {
				return WorkerResult{Worker: "milp", Result: plsolve.ResultUNSAT}
			}
			return WorkerResult{Worker: "milp", Result: plsolve.ResultError, Err: err}
		},
	}
}
