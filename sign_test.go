package plsolve

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"plsolve/internal/trail"
)

func newTestSign(t *trail.Trail, b, f Variable) *SignConstraint {
	return NewSignConstraint(&idGenerator{}, t, b, f, 1e-6)
}

func TestSign_Satisfied(t *testing.T) {
	tr := trail.New()
	s := newTestSign(tr, 0, 1)

	assert.True(t, s.Satisfied(Assignment{0: 5, 1: 1}))
	assert.True(t, s.Satisfied(Assignment{0: 0, 1: 1}))
	assert.True(t, s.Satisfied(Assignment{0: -5, 1: -1}))
	assert.False(t, s.Satisfied(Assignment{0: 5, 1: -1}))
}

func TestSign_CaseSplits_FixScalarOutput(t *testing.T) {
	tr := trail.New()
	s := newTestSign(tr, 0, 1)
	splits := s.CaseSplits()
	assert.Len(t, splits, 2)
	assert.Equal(t, 1.0, splits[0].Equations[0].Scalar)
	assert.Equal(t, -1.0, splits[1].Equations[0].Scalar)
}

func TestSign_GetEntailedTightenings(t *testing.T) {
	tr := trail.New()
	bm := NewBoundManager(tr, 1e-6)
	bm.InitializeBounds(0, -10, 10)
	bm.InitializeBounds(1, -10, 10)
	s := newTestSign(tr, 0, 1)
	s.RegisterAsWatcher(bm)

	bm.SetUpper(0, -1)
	tight := s.GetEntailedTightenings()
	assert.Contains(t, tight, LowerTightening(1, -1))
	assert.Contains(t, tight, UpperTightening(1, -1))
}

// TestSign_GetEntailedTightenings_ReadsInitializeBoundsOnlyInterval mirrors
// relu_test.go's case for a variable seeded only through InitializeBounds.
func TestSign_GetEntailedTightenings_ReadsInitializeBoundsOnlyInterval(t *testing.T) {
	tr := trail.New()
	bm := NewBoundManager(tr, 1e-6)
	bm.InitializeBounds(0, 2, 5)
	bm.InitializeBounds(1, -10, 10)
	s := newTestSign(tr, 0, 1)
	s.RegisterAsWatcher(bm)

	tight := s.GetEntailedTightenings()
	assert.Contains(t, tight, LowerTightening(1, 1))
	assert.Contains(t, tight, UpperTightening(1, 1))
}

func TestSign_GetReducedHeuristicCost_MatchesBoundEvidence(t *testing.T) {
	tr := trail.New()
	bm := NewBoundManager(tr, 1e-6)
	bm.InitializeBounds(0, 2, 5)
	bm.InitializeBounds(1, -10, 10)
	s := newTestSign(tr, 0, 1)
	s.RegisterAsWatcher(bm)

	_, phase, _ := s.GetReducedHeuristicCost()
	assert.Equal(t, SignPositive, phase, "a driving variable already known non-negative should steer SoI toward the positive phase")
}

func TestSign_UpdateVariableIndex(t *testing.T) {
	tr := trail.New()
	s := newTestSign(tr, 0, 1)

	s.UpdateVariableIndex(0, 7)
	assert.Equal(t, Variable(7), s.B)
	assert.Equal(t, Variable(1), s.F)
}
