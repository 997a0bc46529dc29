package plsolve

import "fmt"

// InputQuery is the whole problem: a set of variables with initial
// bounds, a list of linear equations, and a list of piecewise-linear
// constraints, plus designated input/output variable indices. It is
// constructed by a parser or by LoadInputQuery, consumed by an
// Engine, and otherwise immutable to the search core except for
// post-hoc solution annotation (spec.md §3 "InputQuery").
type InputQuery struct {
	Name string

	NumberOfVariables int
	LowerBounds       map[Variable]float64
	UpperBounds       map[Variable]float64

	Equations       []Equation
	PLConstraints   []PLConstraint
	InputVariables  []Variable
	OutputVariables []Variable

	// EqEpsilon overrides Configuration's default feasibility tolerance
	// for this query alone, mirroring the teacher's per-problem
	// branchingHeuristic override field.
	EqEpsilon float64

	solution Assignment
}

// NewInputQuery returns an empty query over n variables, every one
// starting unconstrained ([-Inf, +Inf]); callers narrow bounds with
// SetLowerBound/SetUpperBound before handing the query to an Engine.
func NewInputQuery(n int) *InputQuery {
	return &InputQuery{
		NumberOfVariables: n,
		LowerBounds:       make(map[Variable]float64, n),
		UpperBounds:       make(map[Variable]float64, n),
	}
}

func (q *InputQuery) SetLowerBound(v Variable, x float64) { q.LowerBounds[v] = x }
func (q *InputQuery) SetUpperBound(v Variable, x float64) { q.UpperBounds[v] = x }

func (q *InputQuery) GetLowerBound(v Variable) float64 { return q.LowerBounds[v] }
func (q *InputQuery) GetUpperBound(v Variable) float64 { return q.UpperBounds[v] }

func (q *InputQuery) AddEquation(e Equation)         { q.Equations = append(q.Equations, e) }
func (q *InputQuery) AddPLConstraint(c PLConstraint) { q.PLConstraints = append(q.PLConstraints, c) }

func (q *InputQuery) MarkInputVariable(v Variable)  { q.InputVariables = append(q.InputVariables, v) }
func (q *InputQuery) MarkOutputVariable(v Variable) { q.OutputVariables = append(q.OutputVariables, v) }

// SetSolution attaches a concrete satisfying assignment, recorded once
// the engine reports SAT. It is the one mutation permitted on an
// otherwise-immutable query.
func (q *InputQuery) SetSolution(a Assignment) { q.solution = a }

func (q *InputQuery) Solution() (Assignment, bool) {
	if q.solution == nil {
		return nil, false
	}
	return q.solution, true
}

// Clone deep-copies the query: a fresh bounds map, a fresh equation
// slice, and a Duplicate() of every PLConstraint (duplicated because
// constraints carry a trail-scoped base that must not be shared across
// independently backtracking workers, per spec.md's DnC/portfolio
// "each has its own copy of the InputQuery, deep-cloned at spawn").
func (q *InputQuery) Clone() *InputQuery {
	clone := &InputQuery{
		Name:              q.Name,
		NumberOfVariables: q.NumberOfVariables,
		LowerBounds:       make(map[Variable]float64, len(q.LowerBounds)),
		UpperBounds:       make(map[Variable]float64, len(q.UpperBounds)),
		Equations:         append([]Equation(nil), q.Equations...),
		InputVariables:    append([]Variable(nil), q.InputVariables...),
		OutputVariables:   append([]Variable(nil), q.OutputVariables...),
		EqEpsilon:         q.EqEpsilon,
	}
	for v, x := range q.LowerBounds {
		clone.LowerBounds[v] = x
	}
	for v, x := range q.UpperBounds {
		clone.UpperBounds[v] = x
	}
	clone.PLConstraints = make([]PLConstraint, len(q.PLConstraints))
	for i, c := range q.PLConstraints {
		clone.PLConstraints[i] = c.Duplicate()
	}
	return clone
}

// ApplyCaseSplit bakes a CaseSplit's tightenings directly into the
// clone's initial bounds (tightest of existing vs. new) and appends
// its equations, used by DnCManager to turn one bisection decision
// into a standalone leaf subquery.
func (q *InputQuery) ApplyCaseSplit(cs CaseSplit) {
	for _, t := range cs.Tightenings {
		switch t.Type {
		case LB:
			if cur, ok := q.LowerBounds[t.Variable]; !ok || t.Value > cur {
				q.LowerBounds[t.Variable] = t.Value
			}
		case UB:
			if cur, ok := q.UpperBounds[t.Variable]; !ok || t.Value < cur {
				q.UpperBounds[t.Variable] = t.Value
			}
		}
	}
	q.Equations = append(q.Equations, cs.Equations...)
}

func (q *InputQuery) String() string {
	return fmt.Sprintf("InputQuery(%s): %d vars, %d equations, %d pl-constraints",
		q.Name, q.NumberOfVariables, len(q.Equations), len(q.PLConstraints))
}
