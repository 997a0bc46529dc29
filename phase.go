package plsolve

// PhaseStatus is the label of the linear piece currently active for a
// PLConstraint. It is context-scoped: versioned on the search trail
// and reverted on backtrack. DisjunctionCase(i) encodes "alternative i
// of a Disjunction constraint is active" in the same small integer
// space so PhaseStatus remains a single comparable value.
type PhaseStatus int

const (
	PhaseNotFixed PhaseStatus = iota
	ReLUActive
	ReLUInactive
	AbsPositive
	AbsNegative
	SignPositive
	SignNegative
	MaxArgMaxBase // Max case i is MaxArgMaxBase + i
)

// disjunctionCaseBase separates the small fixed phase tags above from
// the open-ended per-constraint case indices used by Max and
// Disjunction; chosen far enough away that a Max constraint with any
// realistic arity cannot collide with it.
const disjunctionCaseBase = 1 << 16

// DisjunctionCase returns the PhaseStatus tag for "alternative i of
// a Disjunction constraint is the fixed case".
func DisjunctionCase(i int) PhaseStatus {
	return PhaseStatus(disjunctionCaseBase + i)
}

// DisjunctionCaseIndex reports which alternative a disjunction-case
// PhaseStatus refers to, and whether status is in fact such a tag.
func DisjunctionCaseIndex(status PhaseStatus) (int, bool) {
	if int(status) >= disjunctionCaseBase {
		return int(status) - disjunctionCaseBase, true
	}
	return 0, false
}

// MaxArgCase returns the PhaseStatus tag for "argument i is the
// argmax" of a Max constraint.
func MaxArgCase(i int) PhaseStatus {
	return MaxArgMaxBase + PhaseStatus(i)
}
