package plsolve

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"plsolve/internal/trail"
)

func newTestAbs(t *trail.Trail, b, f Variable) *AbsConstraint {
	return NewAbsConstraint(&idGenerator{}, t, b, f, 1e-6)
}

func TestAbs_Satisfied(t *testing.T) {
	tr := trail.New()
	a := newTestAbs(tr, 0, 1)

	assert.True(t, a.Satisfied(Assignment{0: 3, 1: 3}))
	assert.True(t, a.Satisfied(Assignment{0: -3, 1: 3}))
	assert.False(t, a.Satisfied(Assignment{0: -3, 1: -3}))
}

func TestAbs_CaseSplits(t *testing.T) {
	tr := trail.New()
	a := newTestAbs(tr, 0, 1)
	splits := a.CaseSplits()
	assert.Len(t, splits, 2)
	assert.Equal(t, AbsPositive, splits[0].Phase)
	assert.Equal(t, AbsNegative, splits[1].Phase)
}

func TestAbs_PhaseFixesFromBounds(t *testing.T) {
	tr := trail.New()
	a := newTestAbs(tr, 0, 1)

	a.NotifyUpperBound(0, -2)
	assert.Equal(t, AbsNegative, a.PhaseStatus())
}

func TestAbs_GetEntailedTightenings_NegativeBranch(t *testing.T) {
	tr := trail.New()
	bm := NewBoundManager(tr, 1e-6)
	bm.InitializeBounds(0, -10, 10)
	bm.InitializeBounds(1, -10, 10)
	a := newTestAbs(tr, 0, 1)
	a.RegisterAsWatcher(bm)

	bm.SetUpper(0, -2)
	bm.SetLower(0, -5)
	tight := a.GetEntailedTightenings()
	assert.Contains(t, tight, LowerTightening(1, 2))
	assert.Contains(t, tight, UpperTightening(1, 5))
}

// TestAbs_GetEntailedTightenings_ReadsInitializeBoundsOnlyInterval mirrors
// relu_test.go's case for a variable whose interval was only ever seeded
// by InitializeBounds (no watcher notification ever fires).
func TestAbs_GetEntailedTightenings_ReadsInitializeBoundsOnlyInterval(t *testing.T) {
	tr := trail.New()
	bm := NewBoundManager(tr, 1e-6)
	bm.InitializeBounds(0, -5, -2)
	bm.InitializeBounds(1, -10, 10)
	a := newTestAbs(tr, 0, 1)
	a.RegisterAsWatcher(bm)

	tight := a.GetEntailedTightenings()
	assert.Contains(t, tight, LowerTightening(1, 2))
	assert.Contains(t, tight, UpperTightening(1, 5))
}

func TestAbs_EliminateVariable(t *testing.T) {
	tr := trail.New()
	a := newTestAbs(tr, 0, 1)

	a.EliminateVariable(0, 4)
	assert.True(t, a.Obsolete())
	assert.Equal(t, AbsPositive, a.PhaseStatus())
}
