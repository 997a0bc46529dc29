package plsolve

import (
	"plsolve/internal/trail"
)

// DisjunctionConstraint wraps a caller-supplied list of alternative
// CaseSplits directly, with no driving/output variable pair of its
// own: whichever alternative's tightenings and equations hold is the
// accepted case. Used for disjunctive design constraints such as
// "x <= 3 \/ 4 <= x <= 6 \/ x >= 7" that don't arise from a fixed
// two- or n-ary piecewise shape (spec.md testable scenario 4).
type DisjunctionConstraint struct {
	base
	alternatives []CaseSplit
	vars         []Variable
	eliminated   bool
}

// NewDisjunctionConstraint builds a disjunction over the given
// alternatives. vars lists every variable any alternative's
// tightenings or equations mentions, supplied explicitly since a
// CaseSplit carries no back-reference to its constraint.
func NewDisjunctionConstraint(ids *idGenerator, t *trail.Trail, alternatives []CaseSplit, vars []Variable) *DisjunctionConstraint {
	altsCopy := make([]CaseSplit, len(alternatives))
	copy(altsCopy, alternatives)
	varsCopy := append([]Variable(nil), vars...)
	return &DisjunctionConstraint{
		base:         newBase(ids.nextID(), t),
		alternatives: altsCopy,
		vars:         varsCopy,
	}
}

func (d *DisjunctionConstraint) Kind() Kind { return Disjunction }

func (d *DisjunctionConstraint) Duplicate() PLConstraint {
	dup := *d
	dup.alternatives = make([]CaseSplit, len(d.alternatives))
	for i, alt := range d.alternatives {
		dup.alternatives[i] = CaseSplit{
			Phase:       alt.Phase,
			Tightenings: append([]Tightening(nil), alt.Tightenings...),
			Equations:   append([]Equation(nil), alt.Equations...),
		}
	}
	dup.vars = append([]Variable(nil), d.vars...)
	return &dup
}

func (d *DisjunctionConstraint) ParticipatingVariables() []Variable { return d.vars }

func (d *DisjunctionConstraint) Participates(v Variable) bool {
	for _, a := range d.vars {
		if a == v {
			return true
		}
	}
	return false
}

// RegisterAsWatcher is a no-op: a disjunction has no driving variable
// whose bound movement alone ever fixes its phase; only a split
// chosen by the search does (EliminateVariable marks the constraint
// obsolete but fixes no phase).
func (d *DisjunctionConstraint) RegisterAsWatcher(bm *BoundManager)   {}
func (d *DisjunctionConstraint) UnregisterAsWatcher(bm *BoundManager) {}

// NotifyLowerBound and NotifyUpperBound are no-ops: GetEntailedTightenings
// never reads a bound back out for a disjunction (see below), so there is
// nothing to cache.
func (d *DisjunctionConstraint) NotifyLowerBound(v Variable, x float64) {}
func (d *DisjunctionConstraint) NotifyUpperBound(v Variable, x float64) {}

func (d *DisjunctionConstraint) Satisfied(assignment Assignment) bool {
	for _, alt := range d.alternatives {
		if caseSplitHolds(alt, assignment) {
			return true
		}
	}
	return false
}

func caseSplitHolds(cs CaseSplit, assignment Assignment) bool {
	for _, t := range cs.Tightenings {
		v := assignment[t.Variable]
		switch t.Type {
		case LB:
			if v < t.Value {
				return false
			}
		case UB:
			if v > t.Value {
				return false
			}
		}
	}
	for _, eq := range cs.Equations {
		if !eq.Satisfied(assignment, 1e-6) {
			return false
		}
	}
	return true
}

func (d *DisjunctionConstraint) CaseSplits() []CaseSplit {
	out := make([]CaseSplit, len(d.alternatives))
	for i, alt := range d.alternatives {
		out[i] = CaseSplit{
			Phase:       DisjunctionCase(i),
			Tightenings: append([]Tightening(nil), alt.Tightenings...),
			Equations:   append([]Equation(nil), alt.Equations...),
		}
	}
	return out
}

func (d *DisjunctionConstraint) PhaseFixed() bool { return d.PhaseStatus() != PhaseNotFixed }

func (d *DisjunctionConstraint) GetValidCaseSplit() CaseSplit {
	for _, cs := range d.CaseSplits() {
		if cs.Phase == d.PhaseStatus() {
			return cs
		}
	}
	panic("disjunction: GetValidCaseSplit called while phase not fixed")
}

// EliminateVariable marks the constraint obsolete once v (participating
// in this disjunction) is pinned to fixedValue; the disjunction itself
// carries no per-variable elimination semantics beyond that, since
// which alternative survives is a search decision, not an algebraic
// consequence of one fixed variable.
func (d *DisjunctionConstraint) EliminateVariable(v Variable, fixedValue float64) {
	if !d.Participates(v) {
		return
	}
	d.eliminated = true
}

func (d *DisjunctionConstraint) UpdateVariableIndex(oldIdx, newIdx Variable) {
	for i, v := range d.vars {
		if v == oldIdx {
			d.vars[i] = newIdx
		}
	}
	for i := range d.alternatives {
		for j, t := range d.alternatives[i].Tightenings {
			if t.Variable == oldIdx {
				d.alternatives[i].Tightenings[j].Variable = newIdx
			}
		}
	}
}

func (d *DisjunctionConstraint) Obsolete() bool { return d.eliminated }

func (d *DisjunctionConstraint) Rebind(ids *idGenerator, t *trail.Trail) PLConstraint {
	return &DisjunctionConstraint{
		base:         newBase(ids.nextID(), t),
		alternatives: append([]CaseSplit(nil), d.alternatives...),
		vars:         append([]Variable(nil), d.vars...),
	}
}

// GetEntailedTightenings returns nothing: unlike ReLU/Abs/Sign/Max, a
// disjunction's alternatives are generally incomparable (no common
// bound every alternative implies), so there's no sound tightening to
// propagate before the search actually commits to one of them.
func (d *DisjunctionConstraint) GetEntailedTightenings() []Tightening { return nil }

func (d *DisjunctionConstraint) SerializeToString() string {
	return serializeTerms(Disjunction, float64(len(d.alternatives)))
}

func (d *DisjunctionConstraint) SupportsPolarity() bool     { return false }
func (d *DisjunctionConstraint) UpdateScoreBasedOnPolarity() {}

func (d *DisjunctionConstraint) AddCostFunctionComponent(out map[Variable]float64, phase PhaseStatus) {
}

func (d *DisjunctionConstraint) GetReducedHeuristicCost() (float64, PhaseStatus, bool) {
	return 0, PhaseNotFixed, false
}
