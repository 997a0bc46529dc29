// Package plsolve implements the search engine that decides
// satisfiability of conjunctions of linear and piecewise-linear
// constraints over piecewise-linear neural networks: bound
// propagation, phase-aware piecewise-linear constraints, a
// backtracking SmtCore, and the branching heuristics that pick which
// constraint to split next.
package plsolve

// Variable is a non-negative integer identifier for a decision
// variable. Bounds for a Variable are tracked externally by a
// BoundManager; the Variable value itself carries no state.
type Variable uint32

// Assignment maps variables to their current concrete value, as
// extracted from a feasible LP solution.
type Assignment map[Variable]float64
