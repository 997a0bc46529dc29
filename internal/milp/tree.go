package milp

import "math"

// bnbDecision records which branch-and-bound outcome a solved
// subProblem node reached, for reporting through BnbMiddleware.
type bnbDecision string

const (
	SUBPROBLEM_IS_DEGENERATE        bnbDecision = "subproblem is degenerate"
	SUBPROBLEM_NOT_FEASIBLE         bnbDecision = "subproblem not feasible"
	WORSE_THAN_INCUMBENT            bnbDecision = "worse than incumbent"
	BETTER_THAN_INCUMBENT_BRANCHING bnbDecision = "better than incumbent, branching"
	BETTER_THAN_INCUMBENT_FEASIBLE  bnbDecision = "better than incumbent, integer feasible"
	INITIAL_RX_FEASIBLE_FOR_IP      bnbDecision = "initial relaxation already integer feasible"
	INITIAL_RELAXATION_LEGAL        bnbDecision = "initial relaxation legal"
)

// feasibleForIP reports whether every variable x has designated as
// integer-constrained actually holds an integer value (within a small
// floating-point tolerance), i.e. whether the LP-relaxation solution x
// is already feasible for the integer program.
func feasibleForIP(integralityConstraints []bool, x []float64) bool {
	for i, isInt := range integralityConstraints {
		if !isInt {
			continue
		}
		if i >= len(x) {
			return false
		}
		if math.Abs(x[i]-math.Round(x[i])) > 1e-6 {
			return false
		}
	}
	return true
}
