package lporacle

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// GonumOracle is the default, pure-Go Oracle backend. It accumulates
// variables and constraints into dense c/A/b/G/h structures and solves
// with gonum's two-phase simplex, exactly the conversion pipeline
// jjhbw-GoMILP/subproblem.go uses (combineInequalities,
// convertToEqualities) generalized from one fixed MILP problem to an
// incrementally-built, repeatedly re-solved model.
type GonumOracle struct {
	names   []string
	index   map[string]int
	lb, ub  []float64
	kind    []VarKind
	leq     []rowRHS
	geq     []rowRHS
	eq      []rowRHS
	costRow []float64 // nil if unset
	maxRow  []float64 // nil if unset

	cutoff     float64
	haveCutoff bool
	timeLimit  time.Duration
	verbosity  int

	// status of the last Solve call
	status solveStatus
	x      []float64 // solution in original variable space, valid when optimal/feasible
	z      float64
}

type rowRHS struct {
	coefs  []float64
	scalar float64
}

type solveStatus int

const (
	statusNone solveStatus = iota
	statusOptimal
	statusInfeasible
	statusCutoff
	statusTimeout
	statusFeasibleNonOptimal
)

// NewGonumOracle returns an empty oracle ready for variables to be
// registered.
func NewGonumOracle() *GonumOracle {
	o := &GonumOracle{}
	o.ResetModel()
	return o
}

func (o *GonumOracle) Reset() {
	o.leq = nil
	o.geq = nil
	o.eq = nil
	o.costRow = nil
	o.maxRow = nil
	o.haveCutoff = false
	o.status = statusNone
	o.x = nil
}

func (o *GonumOracle) ResetModel() {
	o.names = nil
	o.index = make(map[string]int)
	o.lb = nil
	o.ub = nil
	o.kind = nil
	o.Reset()
}

func (o *GonumOracle) AddVariable(name string, lb, ub float64, kind VarKind) error {
	if _, exists := o.index[name]; exists {
		return fmt.Errorf("lporacle: variable %q already registered", name)
	}
	o.index[name] = len(o.names)
	o.names = append(o.names, name)
	o.lb = append(o.lb, lb)
	o.ub = append(o.ub, ub)
	o.kind = append(o.kind, kind)
	return nil
}

func (o *GonumOracle) varIndex(name string) (int, error) {
	i, ok := o.index[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
	}
	return i, nil
}

func (o *GonumOracle) SetLowerBound(name string, v float64) error {
	i, err := o.varIndex(name)
	if err != nil {
		return err
	}
	o.lb[i] = v
	return nil
}

func (o *GonumOracle) SetUpperBound(name string, v float64) error {
	i, err := o.varIndex(name)
	if err != nil {
		return err
	}
	o.ub[i] = v
	return nil
}

func (o *GonumOracle) termsToRow(terms []Term) ([]float64, error) {
	row := make([]float64, len(o.names))
	for _, term := range terms {
		i, err := o.varIndex(term.Name)
		if err != nil {
			return nil, err
		}
		row[i] += term.Coef
	}
	return row, nil
}

func (o *GonumOracle) AddLeqConstraint(terms []Term, scalar float64) error {
	row, err := o.termsToRow(terms)
	if err != nil {
		return err
	}
	o.leq = append(o.leq, rowRHS{row, scalar})
	return nil
}

func (o *GonumOracle) AddGeqConstraint(terms []Term, scalar float64) error {
	row, err := o.termsToRow(terms)
	if err != nil {
		return err
	}
	o.geq = append(o.geq, rowRHS{row, scalar})
	return nil
}

func (o *GonumOracle) AddEqConstraint(terms []Term, scalar float64) error {
	row, err := o.termsToRow(terms)
	if err != nil {
		return err
	}
	o.eq = append(o.eq, rowRHS{row, scalar})
	return nil
}

func (o *GonumOracle) SetCost(terms []Term) {
	row, err := o.termsToRow(terms)
	if err != nil {
		// programmer error: cost referencing an unregistered variable
		panic(err)
	}
	o.costRow = row
	o.maxRow = nil
}

func (o *GonumOracle) SetObjective(terms []Term) {
	row, err := o.termsToRow(terms)
	if err != nil {
		panic(err)
	}
	o.maxRow = row
	o.costRow = nil
}

func (o *GonumOracle) SetCutoff(v float64) {
	o.cutoff = v
	o.haveCutoff = true
}

func (o *GonumOracle) SetTimeLimit(seconds float64) {
	o.timeLimit = time.Duration(seconds * float64(time.Second))
}

func (o *GonumOracle) SetVerbosity(n int) {
	o.verbosity = n
}

// Solve builds the dense equality-standard-form model and runs the
// simplex, shifting each finitely-bounded-below variable by its lower
// bound and folding upper bounds and inequalities into slack-variable
// equalities exactly as jjhbw-GoMILP/subproblem.go's
// convertToEqualities does. A variable left unbounded below (the
// default starting interval of every InputQuery variable) has no
// point to shift against, so it is instead represented as the
// difference of two non-negative columns (see freeColumns/augmentRow)
// — a case the teacher never had to handle, since every MILP variable
// there carries an explicit finite bound.
func (o *GonumOracle) Solve() {
	o.status = statusNone
	o.x = nil

	n := len(o.names)
	if n == 0 {
		o.status = statusInfeasible
		return
	}

	freeCols, numFree := o.freeColumns()
	nAug := n + numFree

	c := make([]float64, nAug)
	switch {
	case o.costRow != nil:
		copy(c, o.costRow)
	case o.maxRow != nil:
		for i, v := range o.maxRow {
			c[i] = -v
		}
	}
	for i, fc := range freeCols {
		if fc >= 0 {
			c[n+fc] = -c[i]
		}
	}

	// Gather every inequality (explicit Leq/Geq plus finite upper
	// bounds) into G,h with shifted/split coordinates.
	var Grows [][]float64
	var h []float64
	for _, r := range o.leq {
		shifted, rhs := augmentRow(r.coefs, r.scalar, o.lb, freeCols, numFree)
		Grows = append(Grows, shifted)
		h = append(h, rhs)
	}
	for _, r := range o.geq {
		negated := negate(r.coefs)
		shifted, rhs := augmentRow(negated, -r.scalar, o.lb, freeCols, numFree)
		Grows = append(Grows, shifted)
		h = append(h, rhs)
	}
	for i := range o.names {
		if math.IsInf(o.ub[i], 1) {
			continue
		}
		row := make([]float64, nAug)
		row[i] = 1
		rhs := o.ub[i]
		if fc := freeCols[i]; fc >= 0 {
			row[n+fc] = -1
		} else {
			rhs -= o.lb[i]
		}
		Grows = append(Grows, row)
		h = append(h, rhs)
	}

	var Arows [][]float64
	var b []float64
	for _, r := range o.eq {
		shifted, rhs := augmentRow(r.coefs, r.scalar, o.lb, freeCols, numFree)
		Arows = append(Arows, shifted)
		b = append(b, rhs)
	}

	cFull, AFull, bFull := embedSlacks(c, Arows, b, Grows, h, nAug)

	if len(AFull) == 0 {
		// No constraints at all: the only candidate point is the
		// origin of the shifted/split space — every finitely-bounded
		// variable at its lower bound, every unbounded one at zero —
		// which is trivially feasible.
		o.x = make([]float64, n)
		for i := range o.x {
			if math.IsInf(o.lb[i], -1) {
				o.x[i] = 0
			} else {
				o.x[i] = o.lb[i]
			}
		}
		o.z = 0
		o.finishWithCutoff()
		return
	}

	A := mat.NewDense(len(AFull), len(cFull), flatten(AFull))

	resultCh := make(chan simplexResult, 1)
	go func() {
		z, xFull, err := lp.Simplex(cFull, A, bFull, 0, nil)
		resultCh <- simplexResult{z, xFull, err}
	}()

	if o.timeLimit > 0 {
		select {
		case res := <-resultCh:
			o.applySimplexResult(res, n, freeCols)
		case <-time.After(o.timeLimit):
			o.status = statusTimeout
		}
		return
	}

	res := <-resultCh
	o.applySimplexResult(res, n, freeCols)
}

// freeColumns reports, for every registered variable, the column index
// of its negative part in the trailing free-variable block if its
// lower bound is -Inf, or -1 if it is shifted by a finite lower bound
// instead. numFree is the size of that trailing block.
func (o *GonumOracle) freeColumns() (cols []int, numFree int) {
	cols = make([]int, len(o.lb))
	for i, lb := range o.lb {
		if math.IsInf(lb, -1) {
			cols[i] = numFree
			numFree++
		} else {
			cols[i] = -1
		}
	}
	return cols, numFree
}

type simplexResult struct {
	z   float64
	x   []float64
	err error
}

func (o *GonumOracle) applySimplexResult(res simplexResult, n int, freeCols []int) {
	if res.err != nil {
		o.status = statusInfeasible
		return
	}
	x := make([]float64, n)
	for i := 0; i < n; i++ {
		if fc := freeCols[i]; fc >= 0 {
			x[i] = res.x[i] - res.x[n+fc]
		} else {
			x[i] = res.x[i] + o.lb[i]
		}
	}
	o.x = x
	if o.costRow != nil {
		o.z = dot(o.costRow, x)
	} else if o.maxRow != nil {
		o.z = dot(o.maxRow, x)
	} else {
		o.z = 0
	}
	o.finishWithCutoff()
}

// finishWithCutoff applies Gurobi-style cutoff semantics: if a cutoff
// is set and the achieved objective does not clear it, the solve is
// reported as a cutoff rather than a full optimum.
func (o *GonumOracle) finishWithCutoff() {
	if o.haveCutoff {
		minimizing := o.maxRow == nil
		if minimizing && o.z > o.cutoff {
			o.status = statusCutoff
			return
		}
		if !minimizing && o.z < o.cutoff {
			o.status = statusCutoff
			return
		}
	}
	o.status = statusOptimal
}

func (o *GonumOracle) Optimal() bool               { return o.status == statusOptimal }
func (o *GonumOracle) Infeasible() bool            { return o.status == statusInfeasible }
func (o *GonumOracle) CutoffOccurred() bool        { return o.status == statusCutoff }
func (o *GonumOracle) Timeout() bool                { return o.status == statusTimeout }
func (o *GonumOracle) HaveFeasibleSolution() bool {
	return o.status == statusOptimal || o.status == statusCutoff || o.status == statusFeasibleNonOptimal
}

func (o *GonumOracle) GetValue(name string) (float64, error) {
	i, err := o.varIndex(name)
	if err != nil {
		return 0, err
	}
	if o.x == nil {
		return 0, ErrNoSolution
	}
	return o.x[i], nil
}

func (o *GonumOracle) GetObjective() float64 {
	return o.z
}

func (o *GonumOracle) ExtractSolution(values map[string]float64) (float64, error) {
	if o.x == nil {
		return 0, ErrNoSolution
	}
	for i, name := range o.names {
		values[name] = o.x[i]
	}
	return o.z, nil
}

// augmentRow rewrites one constraint row from original-variable
// coordinates into the non-negative coordinates gonum's simplex
// requires. A variable with a finite lower bound is shifted by that
// bound, folded into rhs. A variable with lb=-Inf has no point to
// shift against (and multiplying its -Inf bound by a zero coefficient
// — the common case, since most rows don't touch every variable —
// would produce NaN), so it is instead split into a non-negative
// positive and negative part (x = xpos - xneg) via its paired column
// in the trailing free-variable block.
func augmentRow(coefs []float64, scalar float64, lb []float64, freeCols []int, numFree int) ([]float64, float64) {
	nVar := len(coefs)
	row := make([]float64, nVar+numFree)
	rhs := scalar
	for i, v := range coefs {
		if v == 0 {
			continue
		}
		row[i] = v
		if fc := freeCols[i]; fc >= 0 {
			row[nVar+fc] = -v
		} else {
			rhs -= v * lb[i]
		}
	}
	return row, rhs
}

func negate(coefs []float64) []float64 {
	out := make([]float64, len(coefs))
	for i, v := range coefs {
		out[i] = -v
	}
	return out
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func flatten(rows [][]float64) []float64 {
	if len(rows) == 0 {
		return nil
	}
	out := make([]float64, 0, len(rows)*len(rows[0]))
	for _, r := range rows {
		out = append(out, r...)
	}
	return out
}

// embedSlacks concatenates the equality rows (A,b) with the
// inequality rows (G,h) turned into equalities via one slack variable
// per inequality, mirroring jjhbw-GoMILP/subproblem.go's
// convertToEqualities but operating on row slices instead of
// *mat.Dense so no constraint need be known in advance.
func embedSlacks(c []float64, Arows [][]float64, b []float64, Grows [][]float64, h []float64, nVar int) (cNew []float64, aNew [][]float64, bNew []float64) {
	nIneq := len(Grows)
	cNew = make([]float64, nVar+nIneq)
	copy(cNew, c)

	for _, row := range Arows {
		padded := make([]float64, nVar+nIneq)
		copy(padded, row)
		aNew = append(aNew, padded)
	}
	bNew = append(bNew, b...)

	for gi, row := range Grows {
		padded := make([]float64, nVar+nIneq)
		copy(padded, row)
		padded[nVar+gi] = 1
		aNew = append(aNew, padded)
		bNew = append(bNew, h[gi])
	}

	return cNew, aNew, bNew
}
