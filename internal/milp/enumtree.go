package milp

import (
	"context"
	"math"
	"sync"
)

// enumerationTree drives the branch-and-bound search over subProblem
// nodes. The frontier is a LIFO stack guarded by a mutex/condition
// variable rather than a channel, since the number of outstanding
// nodes is not known ahead of time and grows and shrinks as the
// search branches and prunes (a buffered channel would need an
// a-priori capacity bound; gitrdm-gokando's worker pool sizes its
// channel from a known job list, which this search does not have).
type enumerationTree struct {
	instrumentation BnbMiddleware

	mu        sync.Mutex
	cond      *sync.Cond
	frontier  []subProblem
	pending   int // nodes queued or currently being solved by a worker
	incumbent *solution
}

func newEnumerationTree(root subProblem, instrumentation BnbMiddleware) *enumerationTree {
	if instrumentation == nil {
		instrumentation = dummyMiddleware{}
	}
	t := &enumerationTree{
		instrumentation: instrumentation,
		frontier:        []subProblem{root},
		pending:         1,
	}
	t.cond = sync.NewCond(&t.mu)
	t.instrumentation.NewSubProblem(root)
	return t
}

// startSearch runs the branch-and-bound procedure with the given
// number of concurrent workers and returns the best incumbent found
// (nil if none), or a partial/nil incumbent if ctx is cancelled first.
func (t *enumerationTree) startSearch(ctx context.Context, workers int) *solution {
	stopWatch := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			t.mu.Lock()
			t.cond.Broadcast()
			t.mu.Unlock()
		case <-stopWatch:
		}
	}()
	defer close(stopWatch)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			t.worker(ctx)
		}()
	}
	wg.Wait()

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.incumbent
}

func (t *enumerationTree) worker(ctx context.Context) {
	for {
		t.mu.Lock()
		for len(t.frontier) == 0 && t.pending > 0 && ctx.Err() == nil {
			t.cond.Wait()
		}
		if t.pending == 0 || ctx.Err() != nil {
			t.pending = 0
			t.cond.Broadcast()
			t.mu.Unlock()
			return
		}
		p := t.frontier[len(t.frontier)-1]
		t.frontier = t.frontier[:len(t.frontier)-1]
		t.mu.Unlock()

		children := t.processSubproblem(p)

		t.mu.Lock()
		t.pending--
		if len(children) > 0 {
			for _, c := range children {
				t.instrumentation.NewSubProblem(c)
			}
			t.frontier = append(t.frontier, children...)
			t.pending += len(children)
		}
		t.cond.Broadcast()
		t.mu.Unlock()
	}
}

// processSubproblem solves one node and returns its children, if the
// search should branch further. It updates t.incumbent under t.mu
// whenever a better integer-feasible solution is found.
func (t *enumerationTree) processSubproblem(p subProblem) []subProblem {
	sol := p.solve()

	if sol.err != nil {
		decision, expected := expectedFailures[sol.err]
		if !expected {
			decision = SUBPROBLEM_NOT_FEASIBLE
		}
		t.instrumentation.ProcessDecision(sol, decision)
		return nil
	}

	t.mu.Lock()
	bound := math.Inf(1)
	if t.incumbent != nil {
		bound = t.incumbent.z
	}
	t.mu.Unlock()

	if sol.z >= bound {
		t.instrumentation.ProcessDecision(sol, WORSE_THAN_INCUMBENT)
		return nil
	}

	if feasibleForIP(p.integralityConstraints, sol.x) {
		t.mu.Lock()
		if t.incumbent == nil || sol.z < t.incumbent.z {
			solCopy := sol
			t.incumbent = &solCopy
		}
		t.mu.Unlock()
		t.instrumentation.ProcessDecision(sol, BETTER_THAN_INCUMBENT_FEASIBLE)
		return nil
	}

	t.instrumentation.ProcessDecision(sol, BETTER_THAN_INCUMBENT_BRANCHING)
	p1, p2 := sol.branch()
	return []subProblem{p1, p2}
}
