package plsolve

import "sort"

// scoreEntry mirrors the original implementation's ScoreEntry: ordered
// by score descending, then by a stable identity tiebreak. The C++
// original breaks ties on raw PiecewiseLinearConstraint pointer value;
// here the constraint's monotonic ID plays that role (Design Notes §9).
type scoreEntry struct {
	constraint PLConstraint
	score      float64
}

// PseudoCostTracker keeps every PLConstraint ordered by a heuristic
// branching score, descending, and answers "which unfixed, active
// constraint looks best to split on next" in O(n) worst case, O(1)
// amortized once the top few entries are usually fixed/inactive.
type PseudoCostTracker struct {
	entries []*scoreEntry
	byID    map[int64]*scoreEntry
	dirty   bool
}

func NewPseudoCostTracker() *PseudoCostTracker {
	return &PseudoCostTracker{byID: make(map[int64]*scoreEntry)}
}

// Initialize seeds the tracker with every constraint's current score.
func (p *PseudoCostTracker) Initialize(constraints []PLConstraint) {
	p.entries = p.entries[:0]
	p.byID = make(map[int64]*scoreEntry, len(constraints))
	for _, c := range constraints {
		e := &scoreEntry{constraint: c, score: c.Score()}
		p.entries = append(p.entries, e)
		p.byID[c.ID()] = e
	}
	p.dirty = true
}

// UpdateScore records constraint's latest score, inserting it if this
// is the first time the tracker has seen it.
func (p *PseudoCostTracker) UpdateScore(constraint PLConstraint, score float64) {
	if e, ok := p.byID[constraint.ID()]; ok {
		e.score = score
	} else {
		e := &scoreEntry{constraint: constraint, score: score}
		p.entries = append(p.entries, e)
		p.byID[constraint.ID()] = e
	}
	p.dirty = true
}

func (p *PseudoCostTracker) resort() {
	if !p.dirty {
		return
	}
	sort.Slice(p.entries, func(i, j int) bool {
		a, b := p.entries[i], p.entries[j]
		if a.score == b.score {
			return a.constraint.ID() > b.constraint.ID()
		}
		return a.score > b.score
	})
	p.dirty = false
}

// Top returns the highest-scoring constraint regardless of whether it
// is active or phase-fixed.
func (p *PseudoCostTracker) Top() PLConstraint {
	p.resort()
	if len(p.entries) == 0 {
		return nil
	}
	return p.entries[0].constraint
}

// TopUnfixed returns the highest-scoring constraint that is still
// active and not phase-fixed, or nil if none qualifies.
func (p *PseudoCostTracker) TopUnfixed() PLConstraint {
	p.resort()
	for _, e := range p.entries {
		if e.constraint.IsActive() && !e.constraint.PhaseFixed() {
			return e.constraint
		}
	}
	return nil
}
