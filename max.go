package plsolve

import (
	"math"

	"plsolve/internal/trail"
)

// MaxConstraint enforces F = max(Args...). Its case split i fixes
// F = Args[i] and adds Args[i] >= Args[j] for every other argument j,
// one split per argmax candidate (spec.md §4.4).
type MaxConstraint struct {
	base
	F          Variable
	Args       []Variable
	eliminated bool
	epsilon    float64
}

func NewMaxConstraint(ids *idGenerator, t *trail.Trail, f Variable, args []Variable, epsilon float64) *MaxConstraint {
	argsCopy := make([]Variable, len(args))
	copy(argsCopy, args)
	return &MaxConstraint{base: newBase(ids.nextID(), t), F: f, Args: argsCopy, epsilon: epsilon}
}

func (m *MaxConstraint) Kind() Kind { return Max }

func (m *MaxConstraint) Duplicate() PLConstraint {
	dup := *m
	dup.Args = append([]Variable(nil), m.Args...)
	return &dup
}

func (m *MaxConstraint) ParticipatingVariables() []Variable {
	out := append([]Variable{m.F}, m.Args...)
	return out
}

func (m *MaxConstraint) Participates(v Variable) bool {
	if v == m.F {
		return true
	}
	for _, a := range m.Args {
		if a == v {
			return true
		}
	}
	return false
}

func (m *MaxConstraint) RegisterAsWatcher(bm *BoundManager) {
	m.base.setBoundManager(bm)
	for _, a := range m.Args {
		bm.RegisterWatcher(a, func(v Variable, lower, upper float64) {
			m.checkFixed()
		})
	}
}

func (m *MaxConstraint) UnregisterAsWatcher(bm *BoundManager) {
	for _, a := range m.Args {
		bm.ClearWatchers(a)
	}
}

func (m *MaxConstraint) NotifyLowerBound(v Variable, x float64) {
	if m.Participates(v) {
		m.checkFixed()
	}
}

func (m *MaxConstraint) NotifyUpperBound(v Variable, x float64) {
	if m.Participates(v) {
		m.checkFixed()
	}
}

// checkFixed fixes the phase to argument i when i's lower bound meets
// or exceeds every other argument's upper bound, i.e. i is guaranteed
// to dominate regardless of assignment.
func (m *MaxConstraint) checkFixed() {
	if m.PhaseStatus() != PhaseNotFixed {
		return
	}
	for i, ai := range m.Args {
		dominates := true
		for j, aj := range m.Args {
			if i == j {
				continue
			}
			if m.lower(ai) < m.upper(aj)-m.epsilon {
				dominates = false
				break
			}
		}
		if dominates {
			m.phase.Set(MaxArgCase(i))
			return
		}
	}
}

func (m *MaxConstraint) Satisfied(assignment Assignment) bool {
	best := math.Inf(-1)
	for _, a := range m.Args {
		if v := assignment[a]; v > best {
			best = v
		}
	}
	return math.Abs(assignment[m.F]-best) <= m.epsilon
}

func (m *MaxConstraint) CaseSplits() []CaseSplit {
	splits := make([]CaseSplit, 0, len(m.Args))
	for i, ai := range m.Args {
		cs := NewCaseSplit(MaxArgCase(i))
		cs.AddEquation(*NewEquation(EQ).AddAddend(1, m.F).AddAddend(-1, ai).SetScalar(0))
		for j, aj := range m.Args {
			if i == j {
				continue
			}
			cs.AddEquation(*NewEquation(GE).AddAddend(1, ai).AddAddend(-1, aj).SetScalar(0))
		}
		splits = append(splits, *cs)
	}
	return splits
}

func (m *MaxConstraint) PhaseFixed() bool { return m.PhaseStatus() != PhaseNotFixed }

func (m *MaxConstraint) GetValidCaseSplit() CaseSplit {
	for _, cs := range m.CaseSplits() {
		if cs.Phase == m.PhaseStatus() {
			return cs
		}
	}
	panic("max: GetValidCaseSplit called while phase not fixed")
}

func (m *MaxConstraint) EliminateVariable(v Variable, fixedValue float64) {
	if !m.Participates(v) {
		return
	}
	m.eliminated = true
	for i, a := range m.Args {
		if a == v {
			m.phase.Set(MaxArgCase(i))
			return
		}
	}
}

func (m *MaxConstraint) UpdateVariableIndex(oldIdx, newIdx Variable) {
	if m.F == oldIdx {
		m.F = newIdx
	}
	for i, a := range m.Args {
		if a == oldIdx {
			m.Args[i] = newIdx
		}
	}
}

func (m *MaxConstraint) Obsolete() bool { return m.eliminated }

func (m *MaxConstraint) Rebind(ids *idGenerator, t *trail.Trail) PLConstraint {
	return &MaxConstraint{base: newBase(ids.nextID(), t), F: m.F, Args: append([]Variable(nil), m.Args...), epsilon: m.epsilon}
}

func (m *MaxConstraint) GetEntailedTightenings() []Tightening {
	var out []Tightening
	maxLower := math.Inf(-1)
	maxUpper := math.Inf(-1)
	for _, a := range m.Args {
		if l := m.lower(a); l > maxLower {
			maxLower = l
		}
		if u := m.upper(a); u > maxUpper {
			maxUpper = u
		}
	}
	if !math.IsInf(maxLower, -1) {
		out = append(out, LowerTightening(m.F, maxLower))
	}
	if !math.IsInf(maxUpper, -1) {
		out = append(out, UpperTightening(m.F, maxUpper))
	}
	return out
}

func (m *MaxConstraint) SerializeToString() string {
	fields := make([]float64, 0, len(m.Args)+1)
	fields = append(fields, float64(m.F))
	for _, a := range m.Args {
		fields = append(fields, float64(a))
	}
	return serializeTerms(Max, fields...)
}

func (m *MaxConstraint) SupportsPolarity() bool { return false }

func (m *MaxConstraint) UpdateScoreBasedOnPolarity() {}

func (m *MaxConstraint) AddCostFunctionComponent(out map[Variable]float64, phase PhaseStatus) {
	if !m.IsActive() || m.PhaseFixed() {
		return
	}
	i := int(phase - MaxArgMaxBase)
	if i < 0 || i >= len(m.Args) {
		return
	}
	out[m.F] += 1
	out[m.Args[i]] -= 1
}

func (m *MaxConstraint) GetReducedHeuristicCost() (float64, PhaseStatus, bool) {
	if !m.IsActive() || m.PhaseFixed() || len(m.Args) == 0 {
		return 0, PhaseNotFixed, false
	}
	bestIdx := 0
	bestUpper := math.Inf(-1)
	for i, a := range m.Args {
		if u := m.upper(a); u > bestUpper {
			bestUpper = u
			bestIdx = i
		}
	}
	return 0, MaxArgCase(bestIdx), false
}
