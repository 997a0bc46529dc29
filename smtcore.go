package plsolve

import (
	"plsolve/internal/trail"
)

// SmtStackEntry records one level of the search: the split actually
// applied at that level, plus whichever alternatives from the same
// constraint's CaseSplits() haven't been tried yet. Its invariant is
// that it exists if and only if a matching trail push exists: stack
// depth always equals trail level.
type SmtStackEntry struct {
	ActiveSplit       CaseSplit
	AlternativeSplits []CaseSplit
}

// SmtCore drives the backtracking search: it decides when a split is
// needed, which constraint to split on, and how to pop back to the
// next untried alternative when a branch dead-ends.
type SmtCore struct {
	trail *trail.Trail

	stack []*SmtStackEntry

	needToSplit            bool
	constraintForSplitting PLConstraint
	numberOfRandomFlips    int
	violationThreshold     int
	localSearch            bool

	tracker *PseudoCostTracker
	stats   *Statistics

	// pickConstraint is supplied by the Engine: it implements whichever
	// BranchStrategy is configured, without SmtCore needing to know the
	// engine's SoI/LP-relaxation internals.
	pickConstraint func() PLConstraint
}

// NewSmtCore returns an SmtCore with no splits yet performed.
func NewSmtCore(t *trail.Trail, tracker *PseudoCostTracker, violationThreshold int, localSearch bool, pick func() PLConstraint) *SmtCore {
	return &SmtCore{
		trail:              t,
		violationThreshold: violationThreshold,
		localSearch:        localSearch,
		tracker:            tracker,
		pickConstraint:     pick,
	}
}

func (s *SmtCore) SetStatistics(stats *Statistics) { s.stats = stats }

// StackDepth reports the current number of open case splits, which
// must always equal the trail's push level.
func (s *SmtCore) StackDepth() int { return len(s.stack) }

// ReportRandomFlip records one more observed local-search flip of a
// boolean variable and, once the configured violation threshold is
// reached, requests a split for the next call to PerformSplit. A
// no-op under local search, mirroring the original's SmtCore since
// local search handles variable flips without the SMT stack.
func (s *SmtCore) ReportRandomFlip() {
	if s.localSearch {
		return
	}
	if s.stats != nil {
		s.stats.IncProposedFlip()
		s.stats.IncAcceptedFlip()
	}
	s.numberOfRandomFlips++
	if s.numberOfRandomFlips >= s.violationThreshold {
		s.needToSplit = true
		s.pickSplitPLConstraint()
	}
}

// RequestSplit unconditionally flags that a split is needed and picks
// the constraint to split on.
func (s *SmtCore) RequestSplit() {
	s.needToSplit = true
	s.pickSplitPLConstraint()
}

func (s *SmtCore) pickSplitPLConstraint() bool {
	if s.needToSplit {
		s.constraintForSplitting = s.pickConstraint()
	}
	return s.constraintForSplitting != nil
}

// NeedToSplit reports whether PerformSplit is ready to be called.
func (s *SmtCore) NeedToSplit() bool { return s.needToSplit && s.constraintForSplitting != nil }

// PerformSplit pushes the trail one level, deactivates the chosen
// constraint, applies its first case split, and stashes the rest as
// alternatives on the stack. Panics if no split was requested or the
// chosen constraint isn't active — both are caller bugs, not runtime
// conditions.
func (s *SmtCore) PerformSplit(apply func(CaseSplit)) {
	if !s.needToSplit {
		panic("smtcore: PerformSplit called without a pending split request")
	}
	if s.constraintForSplitting == nil || !s.constraintForSplitting.IsActive() {
		panic("smtcore: PerformSplit called with no active constraint chosen")
	}

	s.resetReportedViolations()
	if s.stats != nil {
		s.stats.IncVisitedTreeStates()
	}

	s.constraintForSplitting.SetActive(false)
	s.trail.Push()

	splits := s.constraintForSplitting.CaseSplits()
	if len(splits) == 0 {
		panic("smtcore: constraint produced zero case splits")
	}

	entry := &SmtStackEntry{
		ActiveSplit:       splits[0],
		AlternativeSplits: append([]CaseSplit(nil), splits[1:]...),
	}
	apply(splits[0])

	s.stack = append(s.stack, entry)
	s.constraintForSplitting = nil

	if s.stats != nil {
		s.stats.SetStackDepth(s.StackDepth())
	}
}

// PopSplit backtracks to the most recent stack entry with an untried
// alternative, applying that alternative in its place. It returns
// false once the stack is exhausted, signalling the search is
// complete (UNSAT for the whole subtree rooted at trail level 0).
func (s *SmtCore) PopSplit(apply func(CaseSplit)) bool {
	if len(s.stack) == 0 {
		return false
	}

	s.resetReportedViolations()
	if s.stats != nil {
		s.stats.IncVisitedTreeStates()
	}

	for len(s.stack[len(s.stack)-1].AlternativeSplits) == 0 {
		s.stack = s.stack[:len(s.stack)-1]
		s.trail.Pop()
		if len(s.stack) == 0 {
			if s.stats != nil {
				s.stats.SetStackDepth(0)
			}
			return false
		}
	}

	s.trail.Pop()
	entry := s.stack[len(s.stack)-1]

	next := entry.AlternativeSplits[0]
	entry.AlternativeSplits = entry.AlternativeSplits[1:]

	s.trail.Push()
	apply(next)
	entry.ActiveSplit = next

	if s.stats != nil {
		s.stats.SetStackDepth(s.StackDepth())
	}
	return true
}

func (s *SmtCore) resetReportedViolations() {
	s.numberOfRandomFlips = 0
	s.needToSplit = false
}

// Reset pops the trail back to level 0 and discards the whole stack,
// used when a DnC worker starts a fresh subquery.
func (s *SmtCore) Reset() {
	s.trail.PopTo(0)
	s.needToSplit = false
	s.constraintForSplitting = nil
	s.stack = nil
}
