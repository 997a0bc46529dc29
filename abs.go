package plsolve

import (
	"math"

	"plsolve/internal/trail"
)

// AbsConstraint enforces F = |B|:
//
//	positive: B >= 0  /\  F = B
//	negative: B <= 0  /\  F = -B
type AbsConstraint struct {
	base
	B, F       Variable
	eliminated bool
	epsilon    float64
}

func NewAbsConstraint(ids *idGenerator, t *trail.Trail, b, f Variable, epsilon float64) *AbsConstraint {
	return &AbsConstraint{base: newBase(ids.nextID(), t), B: b, F: f, epsilon: epsilon}
}

func (a *AbsConstraint) Kind() Kind { return Abs }

func (a *AbsConstraint) Duplicate() PLConstraint {
	dup := *a
	return &dup
}

func (a *AbsConstraint) ParticipatingVariables() []Variable { return []Variable{a.B, a.F} }
func (a *AbsConstraint) Participates(v Variable) bool       { return v == a.B || v == a.F }

func (a *AbsConstraint) RegisterAsWatcher(bm *BoundManager) {
	a.base.setBoundManager(bm)
	bm.RegisterWatcher(a.B, func(v Variable, lower, upper float64) {
		a.checkFixed(lower, upper)
	})
}

func (a *AbsConstraint) UnregisterAsWatcher(bm *BoundManager) { bm.ClearWatchers(a.B) }

func (a *AbsConstraint) NotifyLowerBound(v Variable, x float64) {
	if v == a.B {
		a.checkFixed(x, a.upper(a.B))
	}
}

func (a *AbsConstraint) NotifyUpperBound(v Variable, x float64) {
	if v == a.B {
		a.checkFixed(a.lower(a.B), x)
	}
}

func (a *AbsConstraint) checkFixed(lower, upper float64) {
	if a.PhaseStatus() != PhaseNotFixed {
		return
	}
	if lower >= -a.epsilon {
		a.phase.Set(AbsPositive)
	} else if upper <= a.epsilon {
		a.phase.Set(AbsNegative)
	}
}

func (a *AbsConstraint) Satisfied(assignment Assignment) bool {
	b, f := assignment[a.B], assignment[a.F]
	return math.Abs(f-math.Abs(b)) <= a.epsilon
}

func (a *AbsConstraint) CaseSplits() []CaseSplit {
	positive := NewCaseSplit(AbsPositive).AddTightening(LowerTightening(a.B, 0))
	positive.AddEquation(*NewEquation(EQ).AddAddend(1, a.F).AddAddend(-1, a.B).SetScalar(0))

	negative := NewCaseSplit(AbsNegative).AddTightening(UpperTightening(a.B, 0))
	negative.AddEquation(*NewEquation(EQ).AddAddend(1, a.F).AddAddend(1, a.B).SetScalar(0))

	return []CaseSplit{*positive, *negative}
}

func (a *AbsConstraint) PhaseFixed() bool { return a.PhaseStatus() != PhaseNotFixed }

func (a *AbsConstraint) GetValidCaseSplit() CaseSplit {
	for _, cs := range a.CaseSplits() {
		if cs.Phase == a.PhaseStatus() {
			return cs
		}
	}
	panic("abs: GetValidCaseSplit called while phase not fixed")
}

func (a *AbsConstraint) EliminateVariable(v Variable, fixedValue float64) {
	if v != a.B && v != a.F {
		return
	}
	a.eliminated = true
	if v == a.B {
		if fixedValue >= 0 {
			a.phase.Set(AbsPositive)
		} else {
			a.phase.Set(AbsNegative)
		}
	}
}

func (a *AbsConstraint) UpdateVariableIndex(oldIdx, newIdx Variable) {
	if a.B == oldIdx {
		a.B = newIdx
	}
	if a.F == oldIdx {
		a.F = newIdx
	}
}

func (a *AbsConstraint) Obsolete() bool { return a.eliminated }

func (a *AbsConstraint) Rebind(ids *idGenerator, t *trail.Trail) PLConstraint {
	return &AbsConstraint{base: newBase(ids.nextID(), t), B: a.B, F: a.F, epsilon: a.epsilon}
}

func (a *AbsConstraint) GetEntailedTightenings() []Tightening {
	var out []Tightening
	lb, ub := a.lower(a.B), a.upper(a.B)
	switch {
	case lb >= -a.epsilon:
		out = append(out, LowerTightening(a.F, lb), UpperTightening(a.F, ub))
	case ub <= a.epsilon:
		out = append(out, LowerTightening(a.F, -ub), UpperTightening(a.F, -lb))
	}
	return out
}

func (a *AbsConstraint) SerializeToString() string {
	return serializeTerms(Abs, float64(a.B), float64(a.F))
}

func (a *AbsConstraint) SupportsPolarity() bool { return true }

func (a *AbsConstraint) UpdateScoreBasedOnPolarity() {
	lb, ub := a.lower(a.B), a.upper(a.B)
	if ub <= lb {
		a.SetScore(-1)
		return
	}
	a.SetScore(-math.Abs((ub + lb) / (ub - lb)))
}

func (a *AbsConstraint) AddCostFunctionComponent(out map[Variable]float64, phase PhaseStatus) {
	if !a.IsActive() || a.PhaseFixed() {
		return
	}
	switch phase {
	case AbsPositive:
		out[a.F] += 1
		out[a.B] -= 1
	case AbsNegative:
		out[a.F] += 1
		out[a.B] += 1
	}
}

func (a *AbsConstraint) GetReducedHeuristicCost() (float64, PhaseStatus, bool) {
	if !a.IsActive() || a.PhaseFixed() {
		return 0, PhaseNotFixed, false
	}
	if a.lower(a.B) >= -a.epsilon {
		return 0, AbsPositive, false
	}
	return 0, AbsNegative, false
}
