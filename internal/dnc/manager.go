package dnc

import (
	"context"
	"fmt"
	"math"

	"plsolve"
	"plsolve/internal/config"
	"plsolve/internal/lporacle"
)

// DnCManager splits one InputQuery into a target number of leaf
// subqueries by repeatedly bisecting the top-ranked PLConstraint of
// whichever leaf currently holds it, then races a single-threaded
// Engine per leaf — directly grounded on jjhbw-GoMILP/subproblem.go's
// subProblem.copy()+bnbConstraint/getChild pattern of "clone and append
// one more restriction", generalized from "append one more simplex
// inequality" to "append one more case-split's tightenings/equations"
// (SPEC_FULL.md §4.8).
type DnCManager struct {
	strategyIndex int
}

// NewDnCManager returns a manager using strategy index s∈{0..3} to
// pick its leaf Engines' branching heuristic and to offset their
// random seeds, so that distinct DnCManagers in one Portfolio explore
// different regions first.
func NewDnCManager(strategyIndex int) *DnCManager {
	return &DnCManager{strategyIndex: strategyIndex}
}

// Strategy maps this manager's strategy index onto a concrete
// BranchStrategy, completing SPEC_FULL.md §4.6's "giving the DnC
// strategy index s∈{0..3} concrete meaning."
func (m *DnCManager) Strategy() plsolve.BranchStrategy {
	switch m.strategyIndex % 4 {
	case 0:
		return plsolve.StrategyPseudoCost
	case 1:
		return plsolve.StrategyPolarity
	case 2:
		return plsolve.StrategySoI
	default:
		return plsolve.StrategyRandom
	}
}

// Split divides query into up to numDisj leaf subqueries. Each
// iteration picks the single highest-scoring splittable PLConstraint
// across every current leaf (via a throwaway PseudoCostTracker, as
// spec.md §4.8 names it), replaces that leaf with one child per
// CaseSplit, and stops early — returning fewer than numDisj leaves —
// once no leaf has anything left to split on (e.g. a query with no
// PLConstraints, or one whose every constraint is already phase-fixed
// or obsolete).
func (m *DnCManager) Split(query *plsolve.InputQuery, numDisj int) []*plsolve.InputQuery {
	leaves := []*plsolve.InputQuery{query}
	for len(leaves) < numDisj {
		idx, constraint := pickSplit(leaves)
		if idx < 0 {
			break
		}

		cases := constraint.CaseSplits()
		if len(cases) == 0 {
			break
		}

		leaf := leaves[idx]
		children := make([]*plsolve.InputQuery, len(cases))
		for i, cs := range cases {
			child := leaf.Clone()
			child.ApplyCaseSplit(cs)
			child.Name = fmt.Sprintf("%s/%d", leaf.Name, i)
			children[i] = child
		}

		next := make([]*plsolve.InputQuery, 0, len(leaves)-1+len(children))
		next = append(next, leaves[:idx]...)
		next = append(next, children...)
		next = append(next, leaves[idx+1:]...)
		leaves = next
	}
	return leaves
}

// pickSplit returns the index of the leaf holding the globally
// highest-scoring active, unfixed, non-obsolete PLConstraint, and that
// constraint itself; (-1, nil) if no leaf has one.
func pickSplit(leaves []*plsolve.InputQuery) (int, plsolve.PLConstraint) {
	bestIdx := -1
	var best plsolve.PLConstraint
	bestScore := math.Inf(-1)

	for i, leaf := range leaves {
		c := topSplittable(leaf)
		if c == nil {
			continue
		}
		if c.Score() > bestScore {
			bestScore = c.Score()
			bestIdx = i
			best = c
		}
	}
	return bestIdx, best
}

// topSplittable ranks leaf's own PLConstraints with a throwaway
// PseudoCostTracker and returns the best one that is still a candidate
// to bisect on, skipping obsolete entries the tracker doesn't itself
// filter (TopUnfixed only excludes inactive/phase-fixed ones).
func topSplittable(leaf *plsolve.InputQuery) plsolve.PLConstraint {
	candidates := make([]plsolve.PLConstraint, 0, len(leaf.PLConstraints))
	for _, c := range leaf.PLConstraints {
		if !c.Obsolete() {
			candidates = append(candidates, c)
		}
	}

	tracker := plsolve.NewPseudoCostTracker()
	tracker.Initialize(candidates)
	return tracker.TopUnfixed()
}

// Run splits query into numDisj leaves and races one single-threaded
// Engine per leaf. If every leaf reports UNSAT, the whole disjunction
// is UNSAT; a single SAT leaf concludes the manager SAT.
func (m *DnCManager) Run(ctx context.Context, name string, query *plsolve.InputQuery, cfg config.Configuration) WorkerResult {
	leaves := m.Split(query, cfg.NumDisjuncts)
	strategy := m.Strategy()

	workers := make([]worker, len(leaves))
	for i, leaf := range leaves {
		i, leaf := i, leaf
		leafName := fmt.Sprintf("%s/leaf%d", name, i)
		workers[i] = worker{
			name: leafName,
			run: func(ctx context.Context) WorkerResult {
				leafCfg := cfg
				leafCfg.BranchStrategy = strategy.String()
				leafCfg.RandomSeed = cfg.RandomSeed + int64(m.strategyIndex)*1009 + int64(i)

				stats := plsolve.NewStatistics()
				oracle := lporacle.NewGonumOracle()
				engine := plsolve.NewEngine(leaf, oracle, leafCfg, stats)

				result, assignment, err := engine.Solve(ctx)
				if err != nil {
					return WorkerResult{Worker: leafName, Result: plsolve.ResultError, Stats: stats, Err: err}
				}
				return WorkerResult{Worker: leafName, Result: result, Assignment: assignment, Stats: stats}
			},
		}
	}

	return raceAllUnsat(ctx, name, workers)
}

// raceAllUnsat behaves like race, except that UNSAT only concludes the
// whole group once every worker has reported UNSAT (a disjunction is
// UNSAT only if every disjunct is). The first SAT cancels the other
// workers; ERROR and TIMEOUT cancel nothing. Once every worker has
// reported, the outcome is SAT if any leaf was SAT, else UNSAT if all
// were, else the first ERROR, else the first TIMEOUT.
func raceAllUnsat(ctx context.Context, name string, workers []worker) WorkerResult {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan WorkerResult, len(workers))
	for _, w := range workers {
		w := w
		go func() {
			defer func() {
				if rec := recover(); rec != nil {
					results <- WorkerResult{Worker: w.name, Result: plsolve.ResultError, Err: errPanicf(w.name, rec)}
					return
				}
			}()
			results <- w.run(ctx)
		}()
	}

	// Every worker is read to completion before this function returns,
	// even after the outcome is already decided, so no leaf Engine is
	// left running past Run's return (spec.md §9 Open Question 2:
	// join every worker). Cancelling ctx as soon as a SAT leaf is seen
	// just makes the remaining leaves give up their own search sooner.
	var unsatCount int
	var sat *WorkerResult
	var firstErr, firstTimeout *WorkerResult
	for i := 0; i < len(workers); i++ {
		r := <-results
		switch r.Result {
		case plsolve.ResultSAT:
			if sat == nil {
				rc := r
				sat = &rc
				cancel()
			}
		case plsolve.ResultUNSAT:
			unsatCount++
		case plsolve.ResultError:
			if firstErr == nil {
				rc := r
				firstErr = &rc
			}
		default:
			if firstTimeout == nil {
				rc := r
				firstTimeout = &rc
			}
		}
	}

	if sat != nil {
		return WorkerResult{Worker: name, Result: plsolve.ResultSAT, Assignment: sat.Assignment, Stats: sat.Stats}
	}
	if unsatCount == len(workers) {
		return WorkerResult{Worker: name, Result: plsolve.ResultUNSAT}
	}
	if firstErr != nil {
		return *firstErr
	}
	if firstTimeout != nil {
		return *firstTimeout
	}
	return WorkerResult{Worker: name, Result: plsolve.ResultUNSAT}
}
