// Package milp encodes a whole InputQuery into a mixed-integer linear
// feasibility problem and solves it with the branch-and-bound
// enumerator adapted from jjhbw-GoMILP, for use as one portfolio
// worker alongside the single-threaded Engine workers (SPEC_FULL.md
// §4.3/§4.8). It is not a general MILP solver: every encoded problem
// has the fixed shape "the query's own linear equations, plus one
// binary indicator per piecewise-linear constraint case-split".
package milp

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"plsolve"
)

// defaultBigM bounds every gated big-M relaxation. Variables and
// constraint coefficients in a verification query are expected to sit
// well within this range; values outside it silently make the
// encoding unsound, the same inherited limitation the teacher's own
// TODOs flag for unrestricted-sign variables (see DESIGN.md).
const defaultBigM = 1e5

// row is one accumulated linear inequality/equality before it is
// flattened into a gonum matrix; built up column-by-column since the
// total variable count (original + one indicator per case) is only
// known once every constraint has been visited.
type row struct {
	coeffs map[int]float64
	rhs    float64
}

func newRow(rhs float64) *row { return &row{coeffs: make(map[int]float64), rhs: rhs} }

func (r *row) add(col int, coef float64) { r.coeffs[col] += coef }

// encoder accumulates the columns and rows of the MILP encoding of one
// InputQuery.
type encoder struct {
	bigM float64

	numOriginal int
	numCols     int
	integer     []bool

	eqRows  []*row
	leRows  []*row
}

func newEncoder(q *plsolve.InputQuery, bigM float64) *encoder {
	e := &encoder{
		bigM:        bigM,
		numOriginal: q.NumberOfVariables,
		numCols:     q.NumberOfVariables,
		integer:     make([]bool, q.NumberOfVariables),
	}
	return e
}

// newColumn allocates a fresh column (e.g. a case-split indicator) and
// returns its index.
func (e *encoder) newColumn(isInteger bool) int {
	col := e.numCols
	e.numCols++
	e.integer = append(e.integer, isInteger)
	return col
}

func (e *encoder) addEq(r *row)  { e.eqRows = append(e.eqRows, r) }
func (e *encoder) addLE(r *row)  { e.leRows = append(e.leRows, r) }

// boundRows adds x >= lb and x <= ub as inequality rows for every
// variable with a recorded bound in q.
func (e *encoder) boundRows(q *plsolve.InputQuery) {
	for v, lb := range q.LowerBounds {
		r := newRow(-lb)
		r.add(int(v), -1)
		e.addLE(r)
	}
	for v, ub := range q.UpperBounds {
		r := newRow(ub)
		r.add(int(v), 1)
		e.addLE(r)
	}
}

// equationRows adds the query's own linear equations (not gated by
// any indicator, since they hold unconditionally).
func (e *encoder) equationRows(q *plsolve.InputQuery) {
	for _, eq := range q.Equations {
		e.addComparatorRow(eq, -1, 0)
	}
}

// addComparatorRow encodes `sum(addends) Comparator scalar`, optionally
// relaxed by `bigM*(1 - x[gateCol])` (pass gateCol < 0 for an ungated
// row). EQ rows are encoded as a genuine equality when ungated, or as
// a pair of gated <= / >= rows when gated (an equality can't itself be
// "relaxed" by a single big-M row).
func (e *encoder) addComparatorRow(eq plsolve.Equation, gateCol int, bigM float64) {
	if gateCol < 0 {
		switch eq.Comparator {
		case plsolve.EQ:
			r := newRow(eq.Scalar)
			for _, a := range eq.Addends {
				r.add(int(a.Variable), a.Coefficient)
			}
			e.addEq(r)
		case plsolve.LE:
			r := newRow(eq.Scalar)
			for _, a := range eq.Addends {
				r.add(int(a.Variable), a.Coefficient)
			}
			e.addLE(r)
		case plsolve.GE:
			r := newRow(-eq.Scalar)
			for _, a := range eq.Addends {
				r.add(int(a.Variable), -a.Coefficient)
			}
			e.addLE(r)
		}
		return
	}

	// Gated: sum <= scalar + M(1-delta)  =>  sum + M*delta <= scalar + M
	if eq.Comparator == plsolve.EQ || eq.Comparator == plsolve.LE {
		r := newRow(eq.Scalar + bigM)
		for _, a := range eq.Addends {
			r.add(int(a.Variable), a.Coefficient)
		}
		r.add(gateCol, bigM)
		e.addLE(r)
	}
	// Gated: sum >= scalar - M(1-delta)  =>  -sum + M*delta <= M - scalar
	if eq.Comparator == plsolve.EQ || eq.Comparator == plsolve.GE {
		r := newRow(bigM - eq.Scalar)
		for _, a := range eq.Addends {
			r.add(int(a.Variable), -a.Coefficient)
		}
		r.add(gateCol, bigM)
		e.addLE(r)
	}
}

// addGatedTightening encodes one Tightening as a big-M-relaxed
// inequality, gated by the case's indicator column.
func (e *encoder) addGatedTightening(t plsolve.Tightening, gateCol int, bigM float64) {
	switch t.Type {
	case plsolve.LB:
		// v >= value - M(1-delta)  =>  -v + M*delta <= M - value
		r := newRow(bigM - t.Value)
		r.add(int(t.Variable), -1)
		r.add(gateCol, bigM)
		e.addLE(r)
	case plsolve.UB:
		// v <= value + M(1-delta)  =>  v + M*delta <= value + M
		r := newRow(t.Value + bigM)
		r.add(int(t.Variable), 1)
		r.add(gateCol, bigM)
		e.addLE(r)
	}
}

// plConstraintRows encodes one PLConstraint generically from its own
// CaseSplits(): one binary indicator column per case, the cases'
// indicators summing to exactly one, and every case's Tightenings and
// Equations relaxed by a big-M gate on that case's indicator. This
// works uniformly for every Kind (ReLU/Abs/Sign/Max/Disjunction)
// because CaseSplits() already reduces each of them to "a set of
// tightenings plus equations" (see plconstraint.go, disjunction.go).
func (e *encoder) plConstraintRows(c plsolve.PLConstraint) {
	cases := c.CaseSplits()
	if len(cases) == 0 {
		return
	}

	cols := make([]int, len(cases))
	sumRow := newRow(1)
	for i, cs := range cases {
		col := e.newColumn(true)
		cols[i] = col
		sumRow.add(col, 1)

		for _, t := range cs.Tightenings {
			e.addGatedTightening(t, col, e.bigM)
		}
		for _, eq := range cs.Equations {
			e.addComparatorRow(eq, col, e.bigM)
		}
	}
	e.addEq(sumRow)
}

// build flattens the accumulated rows into the dense matrices
// milpProblem expects.
func (e *encoder) build(heuristic BranchHeuristic) milpProblem {
	c := make([]float64, e.numCols)

	var A *mat.Dense
	var b []float64
	if n := len(e.eqRows); n > 0 {
		A = mat.NewDense(n, e.numCols, nil)
		b = make([]float64, n)
		for i, r := range e.eqRows {
			for col, coef := range r.coeffs {
				A.Set(i, col, coef)
			}
			b[i] = r.rhs
		}
	}

	var G *mat.Dense
	var h []float64
	if n := len(e.leRows); n > 0 {
		G = mat.NewDense(n, e.numCols, nil)
		h = make([]float64, n)
		for i, r := range e.leRows {
			for col, coef := range r.coeffs {
				G.Set(i, col, coef)
			}
			h[i] = r.rhs
		}
	}

	return milpProblem{
		c: c,
		A: A,
		b: b,
		G: G,
		h: h,
		integralityConstraints: e.integer,
		branchingHeuristic:     heuristic,
	}
}

// ErrNoFeasibleAssignment is returned by Solve when the encoded query
// has no satisfying assignment.
var ErrNoFeasibleAssignment = errors.New("milp: query is infeasible")

// Solve encodes q as a mixed-integer feasibility problem and searches
// for a satisfying assignment, suitable as one concurrent portfolio
// worker alongside the single-threaded Engine workers. It returns
// ErrNoFeasibleAssignment (with the branch-and-bound error's text
// appended; that error itself is not wrapped) when the query is
// unsatisfiable, and ctx.Err() on timeout.
func Solve(ctx context.Context, q *plsolve.InputQuery, workers int, heuristic BranchHeuristic) (plsolve.Assignment, error) {
	e := newEncoder(q, defaultBigM)
	e.boundRows(q)
	e.equationRows(q)
	for _, c := range q.PLConstraints {
		e.plConstraintRows(c)
	}

	prob := e.build(heuristic)

	sol, err := prob.solve(ctx, workers, dummyMiddleware{})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrNoFeasibleAssignment, err)
	}

	assignment := make(plsolve.Assignment, e.numOriginal)
	for i := 0; i < e.numOriginal; i++ {
		assignment[plsolve.Variable(i)] = sol.x[i]
	}
	return assignment, nil
}
