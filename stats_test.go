package plsolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatistics_IncVisitedTreeStates_Accumulates(t *testing.T) {
	s := NewStatistics()
	s.IncVisitedTreeStates()
	s.IncVisitedTreeStates()
	s.IncVisitedTreeStates()
	assert.Equal(t, uint64(3), s.VisitedTreeStates())
}

func TestStatistics_SetStackDepth_TracksRunningMax(t *testing.T) {
	s := NewStatistics()
	s.SetStackDepth(3)
	s.SetStackDepth(7)
	s.SetStackDepth(2)

	assert.Equal(t, 2, s.StackDepth())
	assert.Equal(t, 7, s.MaxStackDepth(), "max must persist even after depth later drops")
}

func TestStatistics_TimePhase_AccumulatesIntoCounter(t *testing.T) {
	s := NewStatistics()
	ran := false
	s.TimePhase(s.LPMicros(), func() { ran = true })

	assert.True(t, ran)
	assert.GreaterOrEqual(t, s.LPMicros().Load(), int64(0))
}

func TestStatistics_FlipCounters_IndependentOfEachOther(t *testing.T) {
	s := NewStatistics()
	s.IncProposedFlip()
	s.IncProposedFlip()
	s.IncAcceptedFlip()
	s.IncRejectedFlip()

	assert.Equal(t, uint64(2), s.ProposedFlips())
	assert.Equal(t, uint64(1), s.AcceptedFlips())
	assert.Equal(t, uint64(1), s.RejectedFlips())
}

func TestStatistics_Snapshot_ReflectsCurrentCounters(t *testing.T) {
	s := NewStatistics()
	s.IncVisitedTreeStates()
	s.SetStackDepth(4)
	s.IncSimplexCalls()
	s.IncPrecisionRestorations()
	s.IncProposedFlip()
	s.IncAcceptedFlip()

	snap := s.Snapshot()
	assert.Equal(t, uint64(1), snap.VisitedTreeStates)
	assert.Equal(t, 4, snap.MaxStackDepth)
	assert.Equal(t, uint64(1), snap.NumSimplexCalls)
	assert.Equal(t, uint64(1), snap.NumPrecisionRestores)
	assert.Equal(t, uint64(1), snap.ProposedFlips)
	assert.Equal(t, uint64(1), snap.AcceptedFlips)
	assert.Equal(t, uint64(0), snap.RejectedFlips)
}
