//go:build glpk

package lporacle

import (
	"fmt"
	"math"

	"github.com/lukpank/go-glpk/glpk"
)

// GLPKOracle wraps the GNU Linear Programming Kit via
// github.com/lukpank/go-glpk/glpk, the real Go binding named in
// jjhbw-GoMILP/api_glpk_compare_test.go. Its method shapes and status
// semantics mirror original_source/common/GLPKWrapper.h/.cpp: column
// per variable, row per constraint, glp_smcp control parameters, and
// the optimal/infeasible/cutoff/timeout/feasible status predicates
// read from GLPK's own return codes rather than re-derived locally.
//
// Unlike GonumOracle, GLPKOracle supports native MILP solving
// (Intopt). The MILP encoder in internal/milp does not use it: that
// package always runs its own branch-and-bound over gonum's lp.Simplex,
// with or without the glpk build tag.
type GLPKOracle struct {
	prob *glpk.Prob

	index map[string]int // variable name -> 1-based GLPK column
	names []string

	numRows int

	cutoff    float64
	haveCut   bool
	timeLimit float64 // seconds, 0 = unlimited
	verbosity int
	maximize  bool

	lastRet glpkStatus
}

type glpkStatus int

const (
	glpkNone glpkStatus = iota
	glpkOptimal
	glpkInfeasible
	glpkCutoff
	glpkTimeout
	glpkFeasible
)

// NewGLPKOracle constructs an empty GLPK-backed oracle.
func NewGLPKOracle() *GLPKOracle {
	o := &GLPKOracle{}
	o.ResetModel()
	return o
}

func (o *GLPKOracle) ResetModel() {
	if o.prob != nil {
		o.prob.Delete()
	}
	o.prob = glpk.New()
	o.prob.SetObjDir(glpk.MIN)
	o.index = make(map[string]int)
	o.names = nil
	o.numRows = 0
	o.haveCut = false
	o.lastRet = glpkNone
	o.maximize = false
}

func (o *GLPKOracle) Reset() {
	o.ResetModel()
}

func (o *GLPKOracle) AddVariable(name string, lb, ub float64, kind VarKind) error {
	if _, exists := o.index[name]; exists {
		return fmt.Errorf("lporacle: variable %q already registered", name)
	}
	col := o.prob.AddCols(1)
	o.index[name] = col
	o.names = append(o.names, name)

	switch {
	case math.IsInf(lb, -1) && math.IsInf(ub, 1):
		o.prob.SetColBnds(col, glpk.FR, 0, 0)
	case math.IsInf(ub, 1):
		o.prob.SetColBnds(col, glpk.LO, lb, 0)
	case math.IsInf(lb, -1):
		o.prob.SetColBnds(col, glpk.UP, 0, ub)
	case lb == ub:
		o.prob.SetColBnds(col, glpk.FX, lb, 0)
	default:
		o.prob.SetColBnds(col, glpk.DB, lb, ub)
	}

	if kind == Binary {
		o.prob.SetColKind(col, glpk.IV)
		o.prob.SetColBnds(col, glpk.DB, 0, 1)
	}
	return nil
}

func (o *GLPKOracle) col(name string) (int, error) {
	c, ok := o.index[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
	}
	return c, nil
}

func (o *GLPKOracle) SetLowerBound(name string, lb float64) error {
	c, err := o.col(name)
	if err != nil {
		return err
	}
	_, ub := o.prob.ColLB(c), o.prob.ColUB(c)
	o.prob.SetColBnds(c, glpk.DB, lb, ub)
	return nil
}

func (o *GLPKOracle) SetUpperBound(name string, ub float64) error {
	c, err := o.col(name)
	if err != nil {
		return err
	}
	lb := o.prob.ColLB(c)
	o.prob.SetColBnds(c, glpk.DB, lb, ub)
	return nil
}

func (o *GLPKOracle) addConstraint(terms []Term, lb, ub float64, kind int32) error {
	row := o.prob.AddRows(1)
	o.numRows++

	ind := make([]int32, len(terms)+1)
	val := make([]float64, len(terms)+1)
	for i, term := range terms {
		c, err := o.col(term.Name)
		if err != nil {
			return err
		}
		ind[i+1] = int32(c)
		val[i+1] = term.Coef
	}
	o.prob.SetMatRow(row, ind, val)
	o.prob.SetRowBnds(row, kind, lb, ub)
	return nil
}

func (o *GLPKOracle) AddLeqConstraint(terms []Term, scalar float64) error {
	return o.addConstraint(terms, 0, scalar, glpk.UP)
}

func (o *GLPKOracle) AddGeqConstraint(terms []Term, scalar float64) error {
	return o.addConstraint(terms, scalar, 0, glpk.LO)
}

func (o *GLPKOracle) AddEqConstraint(terms []Term, scalar float64) error {
	return o.addConstraint(terms, scalar, scalar, glpk.FX)
}

func (o *GLPKOracle) setObjRow(terms []Term, maximize bool) {
	// clear any previously-set coefficients
	for _, name := range o.names {
		c := o.index[name]
		o.prob.SetObjCoef(c, 0)
	}
	for _, term := range terms {
		c := o.index[term.Name]
		o.prob.SetObjCoef(c, term.Coef)
	}
	o.maximize = maximize
	if maximize {
		o.prob.SetObjDir(glpk.MAX)
	} else {
		o.prob.SetObjDir(glpk.MIN)
	}
}

func (o *GLPKOracle) SetCost(terms []Term)      { o.setObjRow(terms, false) }
func (o *GLPKOracle) SetObjective(terms []Term) { o.setObjRow(terms, true) }

func (o *GLPKOracle) SetCutoff(v float64) {
	o.cutoff = v
	o.haveCut = true
}

func (o *GLPKOracle) SetTimeLimit(seconds float64) {
	o.timeLimit = seconds
}

func (o *GLPKOracle) SetVerbosity(n int) {
	o.verbosity = n
}

func (o *GLPKOracle) hasIntegerVars() bool {
	for _, name := range o.names {
		c := o.index[name]
		if o.prob.ColKind(c) == glpk.IV {
			return true
		}
	}
	return false
}

// Solve runs the simplex relaxation, then GLPK's branch-and-bound
// (Intopt) when the model contains any integer/binary columns —
// giving this backend the native MILP support the gonum-only path
// lacks, per SPEC_FULL.md §4.3.
func (o *GLPKOracle) Solve() {
	o.lastRet = glpkNone

	scp := glpk.NewSmcp()
	scp.SetMsgLev(glpkMsgLevel(o.verbosity))
	if o.timeLimit > 0 {
		scp.SetTmLim(int(o.timeLimit * 1000))
	}
	if err := o.prob.Simplex(scp); err != nil {
		o.lastRet = glpkInfeasible
		return
	}

	if o.hasIntegerVars() {
		iocp := glpk.NewIocp()
		iocp.SetMsgLev(glpkMsgLevel(o.verbosity))
		if o.haveCut {
			iocp.SetObjLL(o.cutoff)
			iocp.SetObjUL(o.cutoff)
		}
		if err := o.prob.Intopt(iocp); err != nil {
			o.lastRet = glpkInfeasible
			return
		}
		switch o.prob.MipStatus() {
		case glpk.OPT:
			o.lastRet = glpkOptimal
		case glpk.FEAS:
			o.lastRet = glpkFeasible
		default:
			o.lastRet = glpkInfeasible
		}
		return
	}

	switch o.prob.Status() {
	case glpk.OPT:
		o.lastRet = glpkOptimal
	case glpk.FEAS:
		o.lastRet = glpkFeasible
	case glpk.INFEAS, glpk.NOFEAS:
		o.lastRet = glpkInfeasible
	default:
		o.lastRet = glpkInfeasible
	}
}

func glpkMsgLevel(verbosity int) int32 {
	if verbosity <= 0 {
		return glpk.MSG_OFF
	}
	return glpk.MSG_ERR
}

func (o *GLPKOracle) Optimal() bool            { return o.lastRet == glpkOptimal }
func (o *GLPKOracle) Infeasible() bool         { return o.lastRet == glpkInfeasible }
func (o *GLPKOracle) CutoffOccurred() bool     { return o.lastRet == glpkCutoff }
func (o *GLPKOracle) Timeout() bool            { return o.lastRet == glpkTimeout }
func (o *GLPKOracle) HaveFeasibleSolution() bool {
	return o.lastRet == glpkOptimal || o.lastRet == glpkFeasible || o.lastRet == glpkCutoff
}

func (o *GLPKOracle) columnValue(c int) float64 {
	if o.hasIntegerVars() {
		return o.prob.MipColVal(c)
	}
	return o.prob.ColPrim(c)
}

func (o *GLPKOracle) GetValue(name string) (float64, error) {
	c, err := o.col(name)
	if err != nil {
		return 0, err
	}
	if o.lastRet == glpkNone || o.lastRet == glpkInfeasible {
		return 0, ErrNoSolution
	}
	return o.columnValue(c), nil
}

func (o *GLPKOracle) GetObjective() float64 {
	if o.hasIntegerVars() {
		return o.prob.MipObjVal()
	}
	return o.prob.ObjVal()
}

func (o *GLPKOracle) ExtractSolution(values map[string]float64) (float64, error) {
	if o.lastRet == glpkNone || o.lastRet == glpkInfeasible {
		return 0, ErrNoSolution
	}
	for _, name := range o.names {
		c := o.index[name]
		values[name] = o.columnValue(c)
	}
	return o.GetObjective(), nil
}

// Close releases the underlying GLPK problem handle. GLPK's CGO
// bindings manage memory outside Go's GC, so callers that create many
// short-lived oracles (e.g. one per DnC partition) must call Close
// when done.
func (o *GLPKOracle) Close() {
	if o.prob != nil {
		o.prob.Delete()
		o.prob = nil
	}
}
