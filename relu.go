package plsolve

import (
	"math"

	"plsolve/internal/trail"
)

// ReLUConstraint enforces f = max(b, 0): f is the output, b the
// driving (input) variable. Its two case splits are
//
//	active:   b >= 0  /\  f = b
//	inactive: b <= 0  /\  f = 0
//
// Per spec.md §9 Open Question 1, both branches are closed (<=, >=)
// with an epsilon slack, consistent with LP feasibility.
type ReLUConstraint struct {
	base
	B, F       Variable
	eliminated bool
	obsoleteAt PhaseStatus
	epsilon    float64
}

// NewReLUConstraint constructs an active (unregistered) ReLU
// constraint with a freshly minted ID.
func NewReLUConstraint(ids *idGenerator, t *trail.Trail, b, f Variable, epsilon float64) *ReLUConstraint {
	return &ReLUConstraint{
		base:    newBase(ids.nextID(), t),
		B:       b,
		F:       f,
		epsilon: epsilon,
	}
}

func (r *ReLUConstraint) Kind() Kind { return ReLU }

func (r *ReLUConstraint) Duplicate() PLConstraint {
	dup := *r
	return &dup
}

func (r *ReLUConstraint) ParticipatingVariables() []Variable { return []Variable{r.B, r.F} }

func (r *ReLUConstraint) Participates(v Variable) bool { return v == r.B || v == r.F }

func (r *ReLUConstraint) RegisterAsWatcher(bm *BoundManager) {
	r.base.setBoundManager(bm)
	bm.RegisterWatcher(r.B, func(v Variable, lower, upper float64) {
		r.notifyLower(lower)
		r.notifyUpper(upper)
	})
}

func (r *ReLUConstraint) UnregisterAsWatcher(bm *BoundManager) {
	bm.ClearWatchers(r.B)
}

func (r *ReLUConstraint) NotifyLowerBound(v Variable, x float64) {
	if v == r.B {
		r.notifyLower(x)
	}
}

func (r *ReLUConstraint) NotifyUpperBound(v Variable, x float64) {
	if v == r.B {
		r.notifyUpper(x)
	}
}

func (r *ReLUConstraint) notifyLower(x float64) {
	if r.PhaseStatus() == PhaseNotFixed && x >= -r.epsilon {
		r.phase.Set(ReLUActive)
	}
}

func (r *ReLUConstraint) notifyUpper(x float64) {
	if r.PhaseStatus() == PhaseNotFixed && x <= r.epsilon {
		r.phase.Set(ReLUInactive)
	}
}

func (r *ReLUConstraint) Satisfied(assignment Assignment) bool {
	b, f := assignment[r.B], assignment[r.F]
	return math.Abs(f-math.Max(b, 0)) <= r.epsilon
}

func (r *ReLUConstraint) CaseSplits() []CaseSplit {
	active := NewCaseSplit(ReLUActive).
		AddTightening(LowerTightening(r.B, 0))
	active.AddEquation(*NewEquation(EQ).AddAddend(1, r.F).AddAddend(-1, r.B).SetScalar(0))

	inactive := NewCaseSplit(ReLUInactive).
		AddTightening(UpperTightening(r.B, 0))
	inactive.AddEquation(*NewEquation(EQ).AddAddend(1, r.F).SetScalar(0))

	return []CaseSplit{*active, *inactive}
}

func (r *ReLUConstraint) PhaseFixed() bool { return r.PhaseStatus() != PhaseNotFixed }

func (r *ReLUConstraint) GetValidCaseSplit() CaseSplit {
	for _, cs := range r.CaseSplits() {
		if cs.Phase == r.PhaseStatus() {
			return cs
		}
	}
	panic("relu: GetValidCaseSplit called while phase not fixed")
}

func (r *ReLUConstraint) EliminateVariable(v Variable, fixedValue float64) {
	if v != r.B && v != r.F {
		return
	}
	r.eliminated = true
	if v == r.B {
		if fixedValue >= 0 {
			r.obsoleteAt = ReLUActive
		} else {
			r.obsoleteAt = ReLUInactive
		}
	} else {
		if fixedValue == 0 {
			r.obsoleteAt = ReLUInactive
		} else {
			r.obsoleteAt = ReLUActive
		}
	}
	r.phase.Set(r.obsoleteAt)
}

func (r *ReLUConstraint) UpdateVariableIndex(oldIdx, newIdx Variable) {
	if r.B == oldIdx {
		r.B = newIdx
	}
	if r.F == oldIdx {
		r.F = newIdx
	}
}

func (r *ReLUConstraint) Obsolete() bool { return r.eliminated }

func (r *ReLUConstraint) Rebind(ids *idGenerator, t *trail.Trail) PLConstraint {
	return &ReLUConstraint{base: newBase(ids.nextID(), t), B: r.B, F: r.F, epsilon: r.epsilon}
}

func (r *ReLUConstraint) GetEntailedTightenings() []Tightening {
	var out []Tightening
	lb, ub := r.lower(r.B), r.upper(r.B)
	switch {
	case lb >= -r.epsilon:
		// active: f = b
		out = append(out, LowerTightening(r.F, lb), UpperTightening(r.F, ub))
	case ub <= r.epsilon:
		// inactive: f = 0
		out = append(out, LowerTightening(r.F, 0), UpperTightening(r.F, 0))
	}
	return out
}

func (r *ReLUConstraint) SerializeToString() string {
	return serializeTerms(ReLU, float64(r.B), float64(r.F))
}

func (r *ReLUConstraint) SupportsPolarity() bool { return true }

func (r *ReLUConstraint) UpdateScoreBasedOnPolarity() {
	lb, ub := r.lower(r.B), r.upper(r.B)
	if ub <= lb {
		r.SetScore(-1)
		return
	}
	polarity := (ub + lb) / (ub - lb)
	// constraints nearest polarity 0 (maximally undecided) get the
	// highest priority, so score is the negated absolute polarity.
	r.SetScore(-math.Abs(polarity))
}

func (r *ReLUConstraint) AddCostFunctionComponent(out map[Variable]float64, phase PhaseStatus) {
	if !r.IsActive() || r.PhaseFixed() {
		return
	}
	switch phase {
	case ReLUActive:
		out[r.F] += 1
		out[r.B] -= 1
	case ReLUInactive:
		out[r.F] += 1
	}
}

func (r *ReLUConstraint) GetReducedHeuristicCost() (float64, PhaseStatus, bool) {
	if !r.IsActive() || r.PhaseFixed() {
		return 0, PhaseNotFixed, false
	}
	lb := r.lower(r.B)
	if lb >= -r.epsilon {
		return 0, ReLUActive, false
	}
	return 0, ReLUInactive, false
}
