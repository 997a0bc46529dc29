package milp

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"plsolve"
)

func TestSolve_ReLUActiveForcedByBounds(t *testing.T) {
	q, err := plsolve.LoadInputQuery(strings.NewReader(
		"NUM_VARS 2\n" +
			"BOUND 0 1 5\n" +
			"PLCONSTRAINT relu,0,1\n",
	))
	if err != nil {
		t.Fatalf("LoadInputQuery: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assignment, err := Solve(ctx, q, 2, BRANCH_MAXFUN)
	assert.NoError(t, err)
	assert.InDelta(t, assignment[0], assignment[1], 1e-6)
}

func TestSolve_ReLUInfeasibleBothBranches(t *testing.T) {
	// b is forced positive by its own bounds, but f is pinned to zero
	// by an independent equation: neither ReLU case can hold.
	q, err := plsolve.LoadInputQuery(strings.NewReader(
		"NUM_VARS 2\n" +
			"BOUND 0 1 5\n" +
			"BOUND 1 0 0\n" +
			"EQUATION = 0 1 1\n" +
			"PLCONSTRAINT relu,0,1\n",
	))
	if err != nil {
		t.Fatalf("LoadInputQuery: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = Solve(ctx, q, 2, BRANCH_MAXFUN)
	assert.Error(t, err)
}

func TestSolve_NoConstraintsTrivallySatisfiable(t *testing.T) {
	q, err := plsolve.LoadInputQuery(strings.NewReader(
		"NUM_VARS 1\n" +
			"BOUND 0 2 2\n",
	))
	if err != nil {
		t.Fatalf("LoadInputQuery: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assignment, err := Solve(ctx, q, 1, BRANCH_MAXFUN)
	assert.NoError(t, err)
	assert.InDelta(t, 2, assignment[0], 1e-6)
}
