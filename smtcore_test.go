package plsolve

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"plsolve/internal/trail"
)

func newTestSmtCore(tr *trail.Trail, pick func() PLConstraint) *SmtCore {
	return NewSmtCore(tr, NewPseudoCostTracker(), 10, false, pick)
}

func TestSmtCore_PerformSplit_PushesTrailAndStack(t *testing.T) {
	tr := trail.New()
	r := newTestReLU(tr, 0, 1)
	smt := newTestSmtCore(tr, func() PLConstraint { return r })

	smt.RequestSplit()
	assert.True(t, smt.NeedToSplit())

	var applied []CaseSplit
	smt.PerformSplit(func(cs CaseSplit) { applied = append(applied, cs) })

	assert.Equal(t, 1, tr.Level())
	assert.Equal(t, 1, smt.StackDepth())
	assert.Len(t, applied, 1)
	assert.Equal(t, ReLUActive, applied[0].Phase)
	assert.False(t, r.IsActive(), "the constraint being split on is deactivated for the branch")
}

func TestSmtCore_PerformSplit_PanicsWithoutPendingRequest(t *testing.T) {
	tr := trail.New()
	r := newTestReLU(tr, 0, 1)
	smt := newTestSmtCore(tr, func() PLConstraint { return r })

	assert.Panics(t, func() {
		smt.PerformSplit(func(cs CaseSplit) {})
	})
}

func TestSmtCore_PopSplit_TriesNextAlternative(t *testing.T) {
	tr := trail.New()
	r := newTestReLU(tr, 0, 1)
	smt := newTestSmtCore(tr, func() PLConstraint { return r })

	smt.RequestSplit()
	var applied []CaseSplit
	apply := func(cs CaseSplit) { applied = append(applied, cs) }
	smt.PerformSplit(apply)
	assert.Equal(t, ReLUActive, applied[len(applied)-1].Phase)

	ok := smt.PopSplit(apply)
	assert.True(t, ok)
	assert.Equal(t, 1, tr.Level(), "pop-then-push for the next alternative nets back to the same depth")
	assert.Equal(t, ReLUInactive, applied[len(applied)-1].Phase)
}

func TestSmtCore_PopSplit_ReturnsFalseWhenStackExhausted(t *testing.T) {
	tr := trail.New()
	r := newTestReLU(tr, 0, 1)
	smt := newTestSmtCore(tr, func() PLConstraint { return r })

	smt.RequestSplit()
	apply := func(cs CaseSplit) {}
	smt.PerformSplit(apply)

	assert.True(t, smt.PopSplit(apply), "first pop tries ReLU's second (inactive) alternative")
	assert.False(t, smt.PopSplit(apply), "no alternatives left at any level: search is exhausted")
	assert.Equal(t, 0, tr.Level())
	assert.Equal(t, 0, smt.StackDepth())
}

func TestSmtCore_ReportRandomFlip_RequestsSplitPastThreshold(t *testing.T) {
	tr := trail.New()
	r := newTestReLU(tr, 0, 1)
	smt := NewSmtCore(tr, NewPseudoCostTracker(), 3, false, func() PLConstraint { return r })

	smt.ReportRandomFlip()
	smt.ReportRandomFlip()
	assert.False(t, smt.NeedToSplit())

	smt.ReportRandomFlip()
	assert.True(t, smt.NeedToSplit())
}

func TestSmtCore_ReportRandomFlip_NoopUnderLocalSearch(t *testing.T) {
	tr := trail.New()
	r := newTestReLU(tr, 0, 1)
	smt := NewSmtCore(tr, NewPseudoCostTracker(), 1, true, func() PLConstraint { return r })

	smt.ReportRandomFlip()
	assert.False(t, smt.NeedToSplit())
}

func TestSmtCore_ReportRandomFlip_IncrementsFlipStatistics(t *testing.T) {
	tr := trail.New()
	r := newTestReLU(tr, 0, 1)
	stats := NewStatistics()
	smt := NewSmtCore(tr, NewPseudoCostTracker(), 10, false, func() PLConstraint { return r })
	smt.SetStatistics(stats)

	smt.ReportRandomFlip()
	smt.ReportRandomFlip()

	assert.Equal(t, uint64(2), stats.ProposedFlips())
	assert.Equal(t, uint64(2), stats.AcceptedFlips())
	assert.Equal(t, uint64(0), stats.RejectedFlips())
}

func TestSmtCore_Reset_PopsToRootAndClearsStack(t *testing.T) {
	tr := trail.New()
	r := newTestReLU(tr, 0, 1)
	smt := newTestSmtCore(tr, func() PLConstraint { return r })

	smt.RequestSplit()
	smt.PerformSplit(func(cs CaseSplit) {})
	assert.Equal(t, 1, tr.Level())

	smt.Reset()
	assert.Equal(t, 0, tr.Level())
	assert.Equal(t, 0, smt.StackDepth())
	assert.False(t, smt.NeedToSplit())
}
