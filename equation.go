package plsolve

import "fmt"

// Comparator is the relational operator of an Equation.
type Comparator int

const (
	EQ Comparator = iota
	LE
	GE
)

func (c Comparator) String() string {
	switch c {
	case EQ:
		return "="
	case LE:
		return "<="
	case GE:
		return ">="
	default:
		return "?"
	}
}

// Addend is one (coefficient, variable) term of an Equation.
type Addend struct {
	Coefficient float64
	Variable    Variable
}

// Equation is an ordered sum of Addends related to a scalar by a
// Comparator: sum(coefficient_i * variable_i) Comparator scalar.
type Equation struct {
	Addends    []Addend
	Scalar     float64
	Comparator Comparator
}

// NewEquation returns an empty equation with the given comparator.
func NewEquation(cmp Comparator) *Equation {
	return &Equation{Comparator: cmp}
}

// AddAddend appends a term and returns the equation, for chained
// construction.
func (e *Equation) AddAddend(coef float64, v Variable) *Equation {
	e.Addends = append(e.Addends, Addend{Coefficient: coef, Variable: v})
	return e
}

// SetScalar sets the right-hand-side scalar and returns the equation.
func (e *Equation) SetScalar(s float64) *Equation {
	e.Scalar = s
	return e
}

// Evaluate returns sum(coefficient_i * assignment[variable_i]).
func (e *Equation) Evaluate(assignment Assignment) float64 {
	var sum float64
	for _, a := range e.Addends {
		sum += a.Coefficient * assignment[a.Variable]
	}
	return sum
}

// Satisfied reports whether assignment satisfies the equation within
// epsilon.
func (e *Equation) Satisfied(assignment Assignment, epsilon float64) bool {
	lhs := e.Evaluate(assignment)
	switch e.Comparator {
	case EQ:
		return abs(lhs-e.Scalar) <= epsilon
	case LE:
		return lhs <= e.Scalar+epsilon
	case GE:
		return lhs >= e.Scalar-epsilon
	default:
		return false
	}
}

// ParticipatingVariables returns every distinct variable referenced by
// the equation's addends.
func (e *Equation) ParticipatingVariables() []Variable {
	seen := make(map[Variable]bool, len(e.Addends))
	var out []Variable
	for _, a := range e.Addends {
		if !seen[a.Variable] {
			seen[a.Variable] = true
			out = append(out, a.Variable)
		}
	}
	return out
}

func (e *Equation) String() string {
	s := ""
	for i, a := range e.Addends {
		if i > 0 {
			s += " + "
		}
		s += fmt.Sprintf("%gx%d", a.Coefficient, a.Variable)
	}
	return fmt.Sprintf("%s %s %g", s, e.Comparator, e.Scalar)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
