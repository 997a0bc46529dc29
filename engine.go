package plsolve

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"plsolve/internal/config"
	"plsolve/internal/lporacle"
	"plsolve/internal/trail"
)

// BranchStrategy selects which heuristic Engine.pickSplitPLConstraint
// uses. It adapts the teacher's BranchHeuristic enum
// (jjhbw-GoMILP/branching.go: BRANCH_MAXFUN/BRANCH_MOST_INFEASIBLE/
// BRANCH_NAIVE) to this domain's four branching policies (spec.md
// §4.6), and gives the DnC strategy index s∈{0..3} of §4.8 concrete
// meaning.
type BranchStrategy int

const (
	StrategyPolarity BranchStrategy = iota
	StrategyPseudoCost
	StrategySoI
	StrategyRandom
)

func (s BranchStrategy) String() string {
	switch s {
	case StrategyPolarity:
		return "polarity"
	case StrategyPseudoCost:
		return "pseudocost"
	case StrategySoI:
		return "soi"
	case StrategyRandom:
		return "random"
	default:
		return "unknown"
	}
}

func parseBranchStrategy(name string) BranchStrategy {
	switch name {
	case "polarity":
		return StrategyPolarity
	case "soi":
		return StrategySoI
	case "random":
		return StrategyRandom
	default:
		return StrategyPseudoCost
	}
}

// Engine owns one complete, single-threaded search: its own trail,
// BoundManager, LP oracle, SmtCore, and PLConstraint list. No state is
// shared with any other Engine (spec.md §5, "within a single Engine:
// single-threaded cooperative... no data is shared with peers").
type Engine struct {
	trail *trail.Trail
	ids   *idGenerator

	bm      *BoundManager
	smt     *SmtCore
	tracker *PseudoCostTracker
	oracle  lporacle.Oracle

	constraints []PLConstraint
	equations   []Equation
	// splitEquations accumulates the equations applied by every split
	// on the current branch; trail-scoped so pop reverts it along with
	// everything else.
	splitEquations *trail.Var[[]Equation]

	query *InputQuery
	cfg   config.Configuration
	stats *Statistics

	strategy BranchStrategy
	rng      *rand.Rand

	startedAt time.Time
}

// NewEngine builds a fresh search over query: a new trail, a new
// BoundManager seeded from query's initial bounds, and every
// PLConstraint rebound onto that trail (Rebind, since query's
// constraints may have been built against a different trail, or none,
// e.g. after InputQuery.Clone for a DnC worker).
func NewEngine(query *InputQuery, oracle lporacle.Oracle, cfg config.Configuration, stats *Statistics) *Engine {
	t := trail.New()
	ids := &idGenerator{}

	epsilon := cfg.EqEpsilon
	if query.EqEpsilon != 0 {
		epsilon = query.EqEpsilon
	}
	bm := NewBoundManager(t, epsilon)
	for v := 0; v < query.NumberOfVariables; v++ {
		lb, ok := query.LowerBounds[Variable(v)]
		if !ok {
			lb = math.Inf(-1)
		}
		ub, ok := query.UpperBounds[Variable(v)]
		if !ok {
			ub = math.Inf(1)
		}
		bm.InitializeBounds(Variable(v), lb, ub)
	}

	constraints := make([]PLConstraint, len(query.PLConstraints))
	for i, c := range query.PLConstraints {
		rebound := c.Rebind(ids, t)
		rebound.RegisterAsWatcher(bm)
		constraints[i] = rebound
	}

	tracker := NewPseudoCostTracker()
	tracker.Initialize(constraints)

	e := &Engine{
		trail:          t,
		ids:            ids,
		bm:             bm,
		tracker:        tracker,
		oracle:         oracle,
		constraints:    constraints,
		equations:      append([]Equation(nil), query.Equations...),
		splitEquations: trail.NewVar(t, []Equation{}),
		query:          query,
		cfg:            cfg,
		stats:          stats,
		strategy:       parseBranchStrategy(cfg.BranchStrategy),
		rng:            rand.New(rand.NewSource(cfg.RandomSeed)),
	}
	e.smt = NewSmtCore(t, tracker, cfg.ConstraintViolationThreshold, cfg.LocalSearch, e.pickSplitPLConstraint)
	e.smt.SetStatistics(stats)
	return e
}

func varName(v Variable) string { return fmt.Sprintf("x%d", v) }

// Solve runs the main loop of spec.md §4.6 to completion, honoring
// ctx's deadline as the per-worker timeout.
func (e *Engine) Solve(ctx context.Context) (Result, Assignment, error) {
	e.startedAt = time.Now()
	for {
		select {
		case <-ctx.Done():
			return ResultTimeout, nil, nil
		default:
		}

		e.buildModel(e.remainingTime(ctx))
		if e.stats != nil {
			e.stats.IncSimplexCalls()
		}
		e.oracle.Solve()

		switch {
		case e.oracle.Infeasible():
			if !e.smt.PopSplit(e.applySplit) {
				return ResultUNSAT, nil, nil
			}
		case e.oracle.Timeout():
			return ResultTimeout, nil, nil
		case e.oracle.Optimal(), e.oracle.HaveFeasibleSolution():
			assignment := e.extractAssignment()
			violated := e.violatedConstraints(assignment)
			if len(violated) == 0 {
				e.query.SetSolution(assignment)
				return ResultSAT, assignment, nil
			}

			if e.tighten(violated) {
				if e.bm.Infeasible() {
					e.bm.ClearInfeasible()
					if !e.smt.PopSplit(e.applySplit) {
						return ResultUNSAT, nil, nil
					}
				}
				continue
			}

			e.smt.RequestSplit()
			if !e.smt.NeedToSplit() {
				return ResultError, nil, fmt.Errorf("plsolve: no unfixed active constraint available to split on")
			}
			e.smt.PerformSplit(e.applySplit)
		default:
			return ResultError, nil, fmt.Errorf("plsolve: lp oracle returned no recognized status")
		}
	}
}

func (e *Engine) remainingTime(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			return d
		}
		return 0
	}
	if e.cfg.Timeout > 0 {
		return e.cfg.Timeout
	}
	return 30 * time.Second
}

// applySplit applies a CaseSplit's tightenings to the BoundManager and
// stashes its equations for the next buildModel call, all trail-scoped
// so a subsequent pop reverts both.
func (e *Engine) applySplit(cs CaseSplit) {
	for _, t := range cs.Tightenings {
		switch t.Type {
		case LB:
			e.bm.SetLower(t.Variable, t.Value)
		case UB:
			e.bm.SetUpper(t.Variable, t.Value)
		}
	}
	if len(cs.Equations) > 0 {
		cur := e.splitEquations.Get()
		next := make([]Equation, 0, len(cur)+len(cs.Equations))
		next = append(next, cur...)
		next = append(next, cs.Equations...)
		e.splitEquations.Set(next)
	}
}

func (e *Engine) buildModel(timeLimit time.Duration) {
	e.oracle.ResetModel()
	for v := 0; v < e.query.NumberOfVariables; v++ {
		name := varName(Variable(v))
		_ = e.oracle.AddVariable(name, e.bm.GetLower(Variable(v)), e.bm.GetUpper(Variable(v)), lporacle.Continuous)
	}
	for _, eq := range e.equations {
		e.addEquation(eq)
	}
	for _, eq := range e.splitEquations.Get() {
		e.addEquation(eq)
	}

	if e.strategy == StrategySoI {
		e.oracle.SetCost(e.buildSoICost())
	} else {
		e.oracle.SetCost(nil)
	}
	e.oracle.SetTimeLimit(timeLimit.Seconds())
	e.oracle.SetVerbosity(e.cfg.Verbosity)
}

func (e *Engine) addEquation(eq Equation) {
	terms := make([]lporacle.Term, len(eq.Addends))
	for i, a := range eq.Addends {
		terms[i] = lporacle.Term{Coef: a.Coefficient, Name: varName(a.Variable)}
	}
	switch eq.Comparator {
	case EQ:
		_ = e.oracle.AddEqConstraint(terms, eq.Scalar)
	case LE:
		_ = e.oracle.AddLeqConstraint(terms, eq.Scalar)
	case GE:
		_ = e.oracle.AddGeqConstraint(terms, eq.Scalar)
	}
}

func (e *Engine) extractAssignment() Assignment {
	a := make(Assignment, e.query.NumberOfVariables)
	for v := 0; v < e.query.NumberOfVariables; v++ {
		val, err := e.oracle.GetValue(varName(Variable(v)))
		if err == nil {
			a[Variable(v)] = val
		}
	}
	return a
}

func (e *Engine) violatedConstraints(a Assignment) []PLConstraint {
	var out []PLConstraint
	for _, c := range e.constraints {
		if !c.IsActive() {
			continue
		}
		if !c.Satisfied(a) {
			out = append(out, c)
		}
	}
	return out
}

// tighten applies getEntailedTightenings from every violated
// constraint and reports whether any bound actually moved.
func (e *Engine) tighten(violated []PLConstraint) bool {
	progress := false
	for _, c := range violated {
		for _, t := range c.GetEntailedTightenings() {
			switch t.Type {
			case LB:
				before := e.bm.GetLower(t.Variable)
				e.bm.SetLower(t.Variable, t.Value)
				if e.bm.GetLower(t.Variable) != before {
					progress = true
				}
			case UB:
				before := e.bm.GetUpper(t.Variable)
				e.bm.SetUpper(t.Variable, t.Value)
				if e.bm.GetUpper(t.Variable) != before {
					progress = true
				}
			}
		}
	}
	return progress
}

// pickSplitPLConstraint dispatches to whichever BranchStrategy the
// engine was configured with (spec.md §4.6 pickSplitPLConstraint).
func (e *Engine) pickSplitPLConstraint() PLConstraint {
	switch e.strategy {
	case StrategyPolarity:
		return e.pickByPolarity()
	case StrategySoI:
		return e.pickBySoI()
	case StrategyRandom:
		return e.pickRandom()
	default:
		return e.tracker.TopUnfixed()
	}
}

func (e *Engine) unfixedActive() []PLConstraint {
	var out []PLConstraint
	for _, c := range e.constraints {
		if c.IsActive() && !c.PhaseFixed() {
			out = append(out, c)
		}
	}
	return out
}

func (e *Engine) pickByPolarity() PLConstraint {
	var best PLConstraint
	bestScore := math.Inf(-1)
	for _, c := range e.unfixedActive() {
		if c.SupportsPolarity() {
			c.UpdateScoreBasedOnPolarity()
		}
		if c.Score() > bestScore {
			bestScore = c.Score()
			best = c
		}
	}
	return best
}

// pickBySoI picks the unfixed active constraint with the largest
// estimated reduced cost from flipping to its suggested phase. None of
// this build's PLConstraint kinds report a concrete delta (their
// GetReducedHeuristicCost always returns ok=false — see DESIGN.md), so
// this currently always falls back to polarity; buildSoICost still
// assembles the real LP objective from every kind's
// AddCostFunctionComponent when StrategySoI is selected.
func (e *Engine) pickBySoI() PLConstraint {
	var best PLConstraint
	bestDelta := math.Inf(-1)
	for _, c := range e.unfixedActive() {
		delta, _, ok := c.GetReducedHeuristicCost()
		if !ok {
			continue
		}
		if delta > bestDelta {
			bestDelta = delta
			best = c
		}
	}
	if best == nil {
		return e.pickByPolarity()
	}
	return best
}

func (e *Engine) pickRandom() PLConstraint {
	candidates := e.unfixedActive()
	if len(candidates) == 0 {
		return nil
	}
	return candidates[e.rng.Intn(len(candidates))]
}

// buildSoICost assembles the Sum-of-Infeasibilities linear functional:
// each unfixed active constraint contributes through
// AddCostFunctionComponent, targeting whichever phase
// GetReducedHeuristicCost suggests (spec.md §4.6).
func (e *Engine) buildSoICost() []lporacle.Term {
	costs := make(map[Variable]float64)
	for _, c := range e.unfixedActive() {
		_, phase, _ := c.GetReducedHeuristicCost()
		c.AddCostFunctionComponent(costs, phase)
	}
	terms := make([]lporacle.Term, 0, len(costs))
	for v, coef := range costs {
		if coef == 0 {
			continue
		}
		terms = append(terms, lporacle.Term{Coef: coef, Name: varName(v)})
	}
	return terms
}

// Stats returns the engine's Statistics accumulator (nil if none was
// supplied at construction).
func (e *Engine) Stats() *Statistics { return e.stats }

// Elapsed reports wall-clock time since Solve began.
func (e *Engine) Elapsed() time.Duration { return time.Since(e.startedAt) }
