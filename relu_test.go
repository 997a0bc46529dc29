package plsolve

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"plsolve/internal/trail"
)

func newTestReLU(t *trail.Trail, b, f Variable) *ReLUConstraint {
	return NewReLUConstraint(&idGenerator{}, t, b, f, 1e-6)
}

func TestReLU_Satisfied(t *testing.T) {
	tr := trail.New()
	r := newTestReLU(tr, 0, 1)

	assert.True(t, r.Satisfied(Assignment{0: 3, 1: 3}))
	assert.True(t, r.Satisfied(Assignment{0: -2, 1: 0}))
	assert.False(t, r.Satisfied(Assignment{0: -2, 1: 1}))
}

func TestReLU_CaseSplits_AreComplementaryAtZero(t *testing.T) {
	tr := trail.New()
	r := newTestReLU(tr, 0, 1)
	splits := r.CaseSplits()
	assert.Len(t, splits, 2)

	assert.Equal(t, ReLUActive, splits[0].Phase)
	assert.Equal(t, LB, splits[0].Tightenings[0].Type)
	assert.Equal(t, 0.0, splits[0].Tightenings[0].Value)

	assert.Equal(t, ReLUInactive, splits[1].Phase)
	assert.Equal(t, UB, splits[1].Tightenings[0].Type)
	assert.Equal(t, 0.0, splits[1].Tightenings[0].Value)
}

func TestReLU_NotifyLowerBound_FixesActivePhase(t *testing.T) {
	tr := trail.New()
	r := newTestReLU(tr, 0, 1)
	assert.False(t, r.PhaseFixed())

	r.NotifyLowerBound(0, 1)
	assert.True(t, r.PhaseFixed())
	assert.Equal(t, ReLUActive, r.PhaseStatus())
}

func TestReLU_NotifyUpperBound_FixesInactivePhase(t *testing.T) {
	tr := trail.New()
	r := newTestReLU(tr, 0, 1)

	r.NotifyUpperBound(0, -1)
	assert.True(t, r.PhaseFixed())
	assert.Equal(t, ReLUInactive, r.PhaseStatus())
}

func TestReLU_PhaseReverts_OnTrailPop(t *testing.T) {
	tr := trail.New()
	r := newTestReLU(tr, 0, 1)

	tr.Push()
	r.NotifyLowerBound(0, 1)
	assert.True(t, r.PhaseFixed())

	tr.Pop()
	assert.False(t, r.PhaseFixed())
}

func TestReLU_GetEntailedTightenings(t *testing.T) {
	tr := trail.New()
	bm := NewBoundManager(tr, 1e-6)
	bm.InitializeBounds(0, -10, 10)
	bm.InitializeBounds(1, -10, 10)
	r := newTestReLU(tr, 0, 1)
	r.RegisterAsWatcher(bm)

	bm.SetLower(0, 2)
	bm.SetUpper(0, 5)
	tight := r.GetEntailedTightenings()
	assert.Contains(t, tight, LowerTightening(1, 2))
	assert.Contains(t, tight, UpperTightening(1, 5))
}

// TestReLU_GetEntailedTightenings_ReadsInitializeBoundsOnlyInterval covers
// the case where a variable's bound was only ever seeded through
// InitializeBounds, which never calls a watcher's notify: a constraint
// whose driving variable starts already-decided (here [2,5]) must still
// see that interval, not the zero value.
func TestReLU_GetEntailedTightenings_ReadsInitializeBoundsOnlyInterval(t *testing.T) {
	tr := trail.New()
	bm := NewBoundManager(tr, 1e-6)
	bm.InitializeBounds(0, 2, 5)
	bm.InitializeBounds(1, -10, 10)
	r := newTestReLU(tr, 0, 1)
	r.RegisterAsWatcher(bm)

	tight := r.GetEntailedTightenings()
	assert.Contains(t, tight, LowerTightening(1, 2))
	assert.Contains(t, tight, UpperTightening(1, 5))
}

func TestReLU_GetReducedHeuristicCost_MatchesBoundEvidence(t *testing.T) {
	tr := trail.New()
	bm := NewBoundManager(tr, 1e-6)
	bm.InitializeBounds(0, 2, 5)
	bm.InitializeBounds(1, -10, 10)
	r := newTestReLU(tr, 0, 1)
	r.RegisterAsWatcher(bm)

	_, phase, _ := r.GetReducedHeuristicCost()
	assert.Equal(t, ReLUActive, phase, "a driving variable already known non-negative should steer SoI toward the active phase")
}

func TestReLU_EliminateVariable_MarksObsoleteAndFixesPhase(t *testing.T) {
	tr := trail.New()
	r := newTestReLU(tr, 0, 1)

	r.EliminateVariable(0, -3)
	assert.True(t, r.Obsolete())
	assert.Equal(t, ReLUInactive, r.PhaseStatus())
}

func TestReLU_Rebind_PreservesVariablesAndEpsilon(t *testing.T) {
	tr := trail.New()
	r := newTestReLU(tr, 0, 1)

	tr2 := trail.New()
	ids := &idGenerator{}
	rebound := r.Rebind(ids, tr2).(*ReLUConstraint)

	assert.Equal(t, r.B, rebound.B)
	assert.Equal(t, r.F, rebound.F)
	assert.Equal(t, r.epsilon, rebound.epsilon)
	assert.False(t, rebound.PhaseFixed())
}

func TestReLU_Duplicate_SharesOriginalTrailVars(t *testing.T) {
	tr := trail.New()
	r := newTestReLU(tr, 0, 1)

	dup := r.Duplicate().(*ReLUConstraint)
	tr.Push()
	r.NotifyLowerBound(0, 1)

	assert.True(t, r.PhaseFixed())
	assert.True(t, dup.PhaseFixed(), "Duplicate shares the base struct's trail.Var pointers before any Rebind")
}
