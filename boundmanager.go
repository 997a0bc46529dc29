package plsolve

import (
	"plsolve/internal/trail"
)

// BoundManager holds the per-variable (lower, upper) interval, both
// fields context-scoped, and notifies registered watchers whenever a
// bound actually moves. Tightenings that would widen an interval are
// silent no-ops; a tightening that empties an interval is reported
// through Infeasible().
type BoundManager struct {
	trail *trail.Trail

	lower map[Variable]*trail.Var[float64]
	upper map[Variable]*trail.Var[float64]

	watchers map[Variable][]Watcher

	infeasible bool
	epsilon    float64
}

// NewBoundManager returns a BoundManager backed by t, treating any
// interval narrower than -epsilon as infeasible.
func NewBoundManager(t *trail.Trail, epsilon float64) *BoundManager {
	return &BoundManager{
		trail:    t,
		lower:    make(map[Variable]*trail.Var[float64]),
		upper:    make(map[Variable]*trail.Var[float64]),
		watchers: make(map[Variable][]Watcher),
		epsilon:  epsilon,
	}
}

// InitializeBounds registers a variable with its starting interval. It
// must be called before SetLower/SetUpper/GetLower/GetUpper for v.
func (bm *BoundManager) InitializeBounds(v Variable, lower, upper float64) {
	bm.lower[v] = trail.NewVar(bm.trail, lower)
	bm.upper[v] = trail.NewVar(bm.trail, upper)
}

func (bm *BoundManager) GetLower(v Variable) float64 {
	return bm.lower[v].Get()
}

func (bm *BoundManager) GetUpper(v Variable) float64 {
	return bm.upper[v].Get()
}

// SetLower tightens v's lower bound to x if x is strictly greater than
// the current lower bound (a monotonic shrink); any other value is a
// silent no-op. Watchers are notified only when the bound actually
// moves, and infeasibility is flagged if the interval becomes empty.
func (bm *BoundManager) SetLower(v Variable, x float64) {
	cell := bm.lower[v]
	if x <= cell.Get() {
		return
	}
	cell.Set(x)
	bm.checkFeasible(v)
	bm.notify(v)
}

// SetUpper is SetLower's mirror image for the upper bound.
func (bm *BoundManager) SetUpper(v Variable, x float64) {
	cell := bm.upper[v]
	if x >= cell.Get() {
		return
	}
	cell.Set(x)
	bm.checkFeasible(v)
	bm.notify(v)
}

func (bm *BoundManager) checkFeasible(v Variable) {
	if bm.lower[v].Get() > bm.upper[v].Get()+bm.epsilon {
		bm.infeasible = true
	}
}

// Infeasible reports whether any tightening so far has emptied a
// variable's interval. It is not context-scoped on purpose: the
// engine reads it immediately after applying a split, before any
// further push/pop, to decide whether to backtrack.
func (bm *BoundManager) Infeasible() bool {
	return bm.infeasible
}

// ClearInfeasible resets the infeasibility flag, called by the engine
// once it has acted on (or is about to act on, via backtracking) a
// reported infeasibility.
func (bm *BoundManager) ClearInfeasible() {
	bm.infeasible = false
}

// RegisterWatcher subscribes w to bound changes on v.
func (bm *BoundManager) RegisterWatcher(v Variable, w Watcher) {
	bm.watchers[v] = append(bm.watchers[v], w)
}

// ClearWatchers removes every watcher registered for v, whichever
// PLConstraint registered it. Because Watcher is a plain func value,
// identity-based removal of one constraint's watcher isn't possible
// with ==; callers instead re-register from scratch after this
// unregister-all, matching how short-lived the
// constraint-to-tableau registration actually is in practice.
func (bm *BoundManager) ClearWatchers(v Variable) {
	delete(bm.watchers, v)
}

func (bm *BoundManager) notify(v Variable) {
	lower, upper := bm.lower[v].Get(), bm.upper[v].Get()
	for _, w := range bm.watchers[v] {
		w(v, lower, upper)
	}
}
