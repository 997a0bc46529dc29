package plsolve

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plsolve/internal/config"
	"plsolve/internal/lporacle"
	"plsolve/internal/trail"
)

func solveQuery(t *testing.T, q *InputQuery) (Result, Assignment) {
	t.Helper()
	cfg := config.Default()
	cfg.Timeout = 5 * time.Second
	stats := NewStatistics()
	e := NewEngine(q, lporacle.NewGonumOracle(), cfg, stats)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	result, assignment, err := e.Solve(ctx)
	require.NoError(t, err)
	return result, assignment
}

// Scenario 1 (spec §8): ReLU active branch is satisfiable.
func TestEngine_Scenario_ReLUActiveBranch(t *testing.T) {
	scratch := trail.New()
	q := NewInputQuery(2) // 0=x, 1=y
	q.SetLowerBound(0, -1)
	q.SetUpperBound(0, 1)
	q.AddPLConstraint(NewReLUConstraint(&idGenerator{}, scratch, 0, 1, 1e-6))
	q.AddEquation(*NewEquation(GE).AddAddend(1, 0).SetScalar(0.5))
	q.AddEquation(*NewEquation(GE).AddAddend(1, 1).SetScalar(0.25))

	result, assignment := solveQuery(t, q)
	require.Equal(t, ResultSAT, result)
	assert.GreaterOrEqual(t, assignment[0], 0.5-1e-6)
	assert.InDelta(t, assignment[0], assignment[1], 1e-4)
}

// Scenario 2 (spec §8): both ReLU branches are infeasible given the
// property, so the whole query is UNSAT.
func TestEngine_Scenario_ReLUInfeasibleBothBranches(t *testing.T) {
	scratch := trail.New()
	q := NewInputQuery(2) // 0=x, 1=y
	q.SetLowerBound(0, -1)
	q.SetUpperBound(0, -0.5)
	q.AddPLConstraint(NewReLUConstraint(&idGenerator{}, scratch, 0, 1, 1e-6))
	q.AddEquation(*NewEquation(GE).AddAddend(1, 1).SetScalar(0.1))

	result, _ := solveQuery(t, q)
	assert.Equal(t, ResultUNSAT, result)
}

// Scenario 3 (spec §8): a|.|-chain, c = |b-1| <= 0.3.
func TestEngine_Scenario_AbsChain(t *testing.T) {
	scratch := trail.New()
	q := NewInputQuery(4) // 0=a, 1=b, 2=d(=b-1), 3=c
	q.SetLowerBound(0, -2)
	q.SetUpperBound(0, 2)
	q.AddPLConstraint(NewAbsConstraint(&idGenerator{}, scratch, 0, 1, 1e-6))  // b = |a|
	q.AddPLConstraint(NewAbsConstraint(&idGenerator{}, scratch, 2, 3, 1e-6)) // c = |d|
	q.AddEquation(*NewEquation(EQ).AddAddend(1, 2).AddAddend(-1, 1).SetScalar(-1)) // d = b - 1
	q.AddEquation(*NewEquation(LE).AddAddend(1, 3).SetScalar(0.3))                 // c <= 0.3

	result, assignment := solveQuery(t, q)
	require.Equal(t, ResultSAT, result)
	a := assignment[0]
	inLowerBand := a >= -1.3-1e-4 && a <= -0.7+1e-4
	inUpperBand := a >= 0.7-1e-4 && a <= 1.3+1e-4
	assert.True(t, inLowerBand || inUpperBand, "witness a=%v must fall in [-1.3,-0.7] or [0.7,1.3]", a)
}

// Scenario 4 (spec §8): a 3-way disjunction over x plus x=5 is only
// satisfiable through the middle alternative.
func TestEngine_Scenario_DisjunctionSplitting(t *testing.T) {
	scratch := trail.New()
	alts := []CaseSplit{
		*NewCaseSplit(PhaseStatus(0)).AddTightening(UpperTightening(0, 3)),
		*NewCaseSplit(PhaseStatus(1)).
			AddTightening(LowerTightening(0, 4)).
			AddTightening(UpperTightening(0, 6)),
		*NewCaseSplit(PhaseStatus(2)).AddTightening(LowerTightening(0, 7)),
	}
	q := NewInputQuery(1)
	q.SetLowerBound(0, 0)
	q.SetUpperBound(0, 10)
	q.AddPLConstraint(NewDisjunctionConstraint(&idGenerator{}, scratch, alts, []Variable{0}))
	q.AddEquation(*NewEquation(EQ).AddAddend(1, 0).SetScalar(5))

	result, assignment := solveQuery(t, q)
	require.Equal(t, ResultSAT, result)
	assert.Equal(t, 5.0, assignment[0])
}

// Scenario 5 (spec §8): y = max(x1,x2,x3) with y <= 2.5 is satisfiable
// only when the dominating argument itself stays within 2.5.
func TestEngine_Scenario_MaxConstraint(t *testing.T) {
	scratch := trail.New()
	q := NewInputQuery(4) // 0=x1, 1=x2, 2=x3, 3=y
	q.SetLowerBound(0, 0)
	q.SetUpperBound(0, 1)
	q.SetLowerBound(1, 2)
	q.SetUpperBound(1, 3)
	q.SetLowerBound(2, 0)
	q.SetUpperBound(2, 4)
	q.AddPLConstraint(NewMaxConstraint(&idGenerator{}, scratch, 3, []Variable{0, 1, 2}, 1e-6))
	q.AddEquation(*NewEquation(LE).AddAddend(1, 3).SetScalar(2.5))

	result, assignment := solveQuery(t, q)
	require.Equal(t, ResultSAT, result)
	best := assignment[0]
	for _, v := range []Variable{1, 2} {
		if assignment[v] > best {
			best = assignment[v]
		}
	}
	assert.InDelta(t, best, assignment[3], 1e-4)
	assert.LessOrEqual(t, assignment[3], 2.5+1e-6)
}

// Scenario 6 (spec §8): a single ReLU whose output is bounded above by
// -1, so both its active and its inactive branch are infeasible. The
// test checks only that the search concludes UNSAT; it does not assert
// how many tree states the search visits.
func TestEngine_Scenario_BacktrackBudget(t *testing.T) {
	scratch := trail.New()
	q := NewInputQuery(2) // 0=b, 1=f
	q.SetLowerBound(0, -1)
	q.SetUpperBound(0, 1)
	q.SetUpperBound(1, -1) // f <= -1 contradicts f = ReLU(b) >= 0 on every branch
	q.AddPLConstraint(NewReLUConstraint(&idGenerator{}, scratch, 0, 1, 1e-6))

	result, _ := solveQuery(t, q)
	assert.Equal(t, ResultUNSAT, result)
}
