package plsolve

import (
	"math"

	"plsolve/internal/trail"
)

// SignConstraint enforces F = sign(B), with sign(0) taken as +1:
//
//	positive: B >= 0  /\  F = 1
//	negative: B <= 0  /\  F = -1
type SignConstraint struct {
	base
	B, F       Variable
	eliminated bool
	epsilon    float64
}

func NewSignConstraint(ids *idGenerator, t *trail.Trail, b, f Variable, epsilon float64) *SignConstraint {
	return &SignConstraint{base: newBase(ids.nextID(), t), B: b, F: f, epsilon: epsilon}
}

func (s *SignConstraint) Kind() Kind { return Sign }

func (s *SignConstraint) Duplicate() PLConstraint {
	dup := *s
	return &dup
}

func (s *SignConstraint) ParticipatingVariables() []Variable { return []Variable{s.B, s.F} }
func (s *SignConstraint) Participates(v Variable) bool       { return v == s.B || v == s.F }

func (s *SignConstraint) RegisterAsWatcher(bm *BoundManager) {
	s.base.setBoundManager(bm)
	bm.RegisterWatcher(s.B, func(v Variable, lower, upper float64) {
		s.checkFixed(lower, upper)
	})
}

func (s *SignConstraint) UnregisterAsWatcher(bm *BoundManager) { bm.ClearWatchers(s.B) }

func (s *SignConstraint) NotifyLowerBound(v Variable, x float64) {
	if v == s.B {
		s.checkFixed(x, s.upper(s.B))
	}
}

func (s *SignConstraint) NotifyUpperBound(v Variable, x float64) {
	if v == s.B {
		s.checkFixed(s.lower(s.B), x)
	}
}

func (s *SignConstraint) checkFixed(lower, upper float64) {
	if s.PhaseStatus() != PhaseNotFixed {
		return
	}
	if lower >= -s.epsilon {
		s.phase.Set(SignPositive)
	} else if upper <= s.epsilon {
		s.phase.Set(SignNegative)
	}
}

func (s *SignConstraint) Satisfied(assignment Assignment) bool {
	b, f := assignment[s.B], assignment[s.F]
	if b >= 0 {
		return math.Abs(f-1) <= s.epsilon
	}
	return math.Abs(f+1) <= s.epsilon
}

func (s *SignConstraint) CaseSplits() []CaseSplit {
	positive := NewCaseSplit(SignPositive).AddTightening(LowerTightening(s.B, 0))
	positive.AddEquation(*NewEquation(EQ).AddAddend(1, s.F).SetScalar(1))

	negative := NewCaseSplit(SignNegative).AddTightening(UpperTightening(s.B, 0))
	negative.AddEquation(*NewEquation(EQ).AddAddend(1, s.F).SetScalar(-1))

	return []CaseSplit{*positive, *negative}
}

func (s *SignConstraint) PhaseFixed() bool { return s.PhaseStatus() != PhaseNotFixed }

func (s *SignConstraint) GetValidCaseSplit() CaseSplit {
	for _, cs := range s.CaseSplits() {
		if cs.Phase == s.PhaseStatus() {
			return cs
		}
	}
	panic("sign: GetValidCaseSplit called while phase not fixed")
}

func (s *SignConstraint) EliminateVariable(v Variable, fixedValue float64) {
	if v != s.B && v != s.F {
		return
	}
	s.eliminated = true
	if v == s.B {
		if fixedValue >= 0 {
			s.phase.Set(SignPositive)
		} else {
			s.phase.Set(SignNegative)
		}
	}
}

func (s *SignConstraint) UpdateVariableIndex(oldIdx, newIdx Variable) {
	if s.B == oldIdx {
		s.B = newIdx
	}
	if s.F == oldIdx {
		s.F = newIdx
	}
}

func (s *SignConstraint) Obsolete() bool { return s.eliminated }

func (s *SignConstraint) Rebind(ids *idGenerator, t *trail.Trail) PLConstraint {
	return &SignConstraint{base: newBase(ids.nextID(), t), B: s.B, F: s.F, epsilon: s.epsilon}
}

func (s *SignConstraint) GetEntailedTightenings() []Tightening {
	var out []Tightening
	lb, ub := s.lower(s.B), s.upper(s.B)
	switch {
	case lb >= -s.epsilon:
		out = append(out, LowerTightening(s.F, 1), UpperTightening(s.F, 1))
	case ub <= s.epsilon:
		out = append(out, LowerTightening(s.F, -1), UpperTightening(s.F, -1))
	}
	return out
}

func (s *SignConstraint) SerializeToString() string {
	return serializeTerms(Sign, float64(s.B), float64(s.F))
}

func (s *SignConstraint) SupportsPolarity() bool { return true }

func (s *SignConstraint) UpdateScoreBasedOnPolarity() {
	lb, ub := s.lower(s.B), s.upper(s.B)
	if ub <= lb {
		s.SetScore(-1)
		return
	}
	s.SetScore(-math.Abs((ub + lb) / (ub - lb)))
}

func (s *SignConstraint) AddCostFunctionComponent(out map[Variable]float64, phase PhaseStatus) {
	if !s.IsActive() || s.PhaseFixed() {
		return
	}
	switch phase {
	case SignPositive:
		out[s.F] += 1
	case SignNegative:
		out[s.F] -= 1
	}
}

func (s *SignConstraint) GetReducedHeuristicCost() (float64, PhaseStatus, bool) {
	if !s.IsActive() || s.PhaseFixed() {
		return 0, PhaseNotFixed, false
	}
	if s.lower(s.B) >= -s.epsilon {
		return 0, SignPositive, false
	}
	return 0, SignNegative, false
}
