package plsolve

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"plsolve/internal/trail"
)

func TestBoundManager_SetLower_OnlyTightens(t *testing.T) {
	tr := trail.New()
	bm := NewBoundManager(tr, 1e-6)
	bm.InitializeBounds(0, -10, 10)

	bm.SetLower(0, -5)
	assert.Equal(t, -5.0, bm.GetLower(0))

	bm.SetLower(0, -8) // widening attempt, must be a no-op
	assert.Equal(t, -5.0, bm.GetLower(0))
}

func TestBoundManager_SetUpper_OnlyTightens(t *testing.T) {
	tr := trail.New()
	bm := NewBoundManager(tr, 1e-6)
	bm.InitializeBounds(0, -10, 10)

	bm.SetUpper(0, 5)
	assert.Equal(t, 5.0, bm.GetUpper(0))

	bm.SetUpper(0, 8) // widening attempt, must be a no-op
	assert.Equal(t, 5.0, bm.GetUpper(0))
}

func TestBoundManager_Infeasible_WhenIntervalEmpties(t *testing.T) {
	tr := trail.New()
	bm := NewBoundManager(tr, 1e-6)
	bm.InitializeBounds(0, 0, 10)

	assert.False(t, bm.Infeasible())
	bm.SetLower(0, 20)
	assert.True(t, bm.Infeasible())

	bm.ClearInfeasible()
	assert.False(t, bm.Infeasible())
}

func TestBoundManager_Watcher_FiresOnlyWhenBoundMoves(t *testing.T) {
	tr := trail.New()
	bm := NewBoundManager(tr, 1e-6)
	bm.InitializeBounds(0, -10, 10)

	calls := 0
	bm.RegisterWatcher(0, func(v Variable, lower, upper float64) { calls++ })

	bm.SetLower(0, -5)
	assert.Equal(t, 1, calls)

	bm.SetLower(0, -20) // widening no-op, watcher must not fire
	assert.Equal(t, 1, calls)
}

func TestBoundManager_ClearWatchers_RemovesAllForVariable(t *testing.T) {
	tr := trail.New()
	bm := NewBoundManager(tr, 1e-6)
	bm.InitializeBounds(0, -10, 10)

	calls := 0
	bm.RegisterWatcher(0, func(v Variable, lower, upper float64) { calls++ })
	bm.ClearWatchers(0)

	bm.SetLower(0, -5)
	assert.Equal(t, 0, calls)
}

func TestBoundManager_BoundsRevertOnTrailPop(t *testing.T) {
	tr := trail.New()
	bm := NewBoundManager(tr, 1e-6)
	bm.InitializeBounds(0, -10, 10)

	tr.Push()
	bm.SetLower(0, -5)
	assert.Equal(t, -5.0, bm.GetLower(0))

	tr.Pop()
	assert.Equal(t, -10.0, bm.GetLower(0))
}
