package plsolve

import (
	"fmt"
	"math"

	"plsolve/internal/trail"
)

// Kind tags a PLConstraint's concrete piecewise-linear shape. Concrete
// constraints are tagged variants dispatched through one interface
// rather than a class hierarchy (Design Notes §9: "tagged variants +
// trait interface").
type Kind int

const (
	ReLU Kind = iota
	Abs
	Sign
	Max
	Disjunction
)

func (k Kind) String() string {
	switch k {
	case ReLU:
		return "relu"
	case Abs:
		return "abs"
	case Sign:
		return "sign"
	case Max:
		return "max"
	case Disjunction:
		return "disj"
	default:
		return "unknown"
	}
}

// Watcher is notified whenever a bound on one of its variables moves.
// It is the idiomatic Go substitute for the single-method
// ITableau::VariableWatcher interface of the original implementation.
type Watcher func(v Variable, lower, upper float64)

// PLConstraint is the common contract every concrete piecewise-linear
// constraint (ReLU, Abs, Sign, Max, Disjunction) satisfies. See
// SPEC_FULL.md §4.4.
type PLConstraint interface {
	ID() int64
	Kind() Kind
	Duplicate() PLConstraint

	ParticipatingVariables() []Variable
	Participates(v Variable) bool

	RegisterAsWatcher(bm *BoundManager)
	UnregisterAsWatcher(bm *BoundManager)

	NotifyLowerBound(v Variable, x float64)
	NotifyUpperBound(v Variable, x float64)

	Satisfied(assignment Assignment) bool

	CaseSplits() []CaseSplit
	PhaseFixed() bool
	GetValidCaseSplit() CaseSplit

	EliminateVariable(v Variable, fixedValue float64)
	UpdateVariableIndex(oldIdx, newIdx Variable)
	Obsolete() bool

	// Rebind returns a copy of this constraint with a fresh base bound
	// to t and a fresh ID minted from ids, preserving every other field
	// (variables, epsilon, alternatives). Engine uses it to take
	// ownership of an InputQuery's constraints, which may have been
	// built against a different (or no) trail, e.g. after InputQuery.Clone
	// for a DnC worker.
	Rebind(ids *idGenerator, t *trail.Trail) PLConstraint

	GetEntailedTightenings() []Tightening

	SerializeToString() string

	SupportsPolarity() bool
	UpdateScoreBasedOnPolarity()

	AddCostFunctionComponent(out map[Variable]float64, phase PhaseStatus)
	GetReducedHeuristicCost() (delta float64, phase PhaseStatus, ok bool)

	IsActive() bool
	SetActive(active bool)

	PhaseStatus() PhaseStatus

	Score() float64
	SetScore(float64)
}

// base holds the fields and trail-backed cells common to every
// concrete PLConstraint, embedded by each kind the way the original
// implementation's PiecewiseLinearConstraint base class holds
// _constraintActive/_phaseStatus/_score/_boundManager.
type base struct {
	id     int64
	active *trail.Var[bool]
	phase  *trail.Var[PhaseStatus]
	score  float64

	// bm is the BoundManager lower/upper read through. It is recorded
	// by RegisterAsWatcher rather than duplicated into a private map:
	// a copy would start unseeded (InitializeBounds never calls
	// notify) and never revert on trail.Pop, so it could go stale the
	// moment a split got backtracked past.
	bm *BoundManager
}

func newBase(id int64, t *trail.Trail) base {
	return base{
		id:     id,
		active: trail.NewVar(t, true),
		phase:  trail.NewVar(t, PhaseNotFixed),
	}
}

func (b *base) ID() int64                { return b.id }
func (b *base) IsActive() bool           { return b.active.Get() }
func (b *base) SetActive(active bool)    { b.active.Set(active) }
func (b *base) PhaseStatus() PhaseStatus { return b.phase.Get() }
func (b *base) Score() float64           { return b.score }
func (b *base) SetScore(s float64)       { b.score = s }

func (b *base) setBoundManager(bm *BoundManager) { b.bm = bm }

// lower and upper answer from the live BoundManager, so they reflect
// whatever InitializeBounds or the latest SetLower/SetUpper left in
// place, not just the bounds a watcher happened to already fire for.
func (b *base) lower(v Variable) float64 {
	if b.bm == nil {
		return math.Inf(-1)
	}
	return b.bm.GetLower(v)
}

func (b *base) upper(v Variable) float64 {
	if b.bm == nil {
		return math.Inf(1)
	}
	return b.bm.GetUpper(v)
}

// idGenerator hands out monotonically increasing constraint IDs, used
// as the stable tiebreaker PseudoCostTracker needs instead of pointer
// identity (Design Notes §9: "stable-identity keys").
type idGenerator struct{ next int64 }

func (g *idGenerator) nextID() int64 {
	id := g.next
	g.next++
	return id
}

// serializeTerms renders a simple comma-separated numeric field list,
// the canonical persisted form each PLConstraint's SerializeToString
// leads with a kind tag followed by (spec.md §6).
func serializeTerms(kind Kind, fields ...float64) string {
	s := kind.String()
	for _, f := range fields {
		s += fmt.Sprintf(",%g", f)
	}
	return s
}
