package dnc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"plsolve"
	"plsolve/internal/config"
)

func TestHasTopLevelDisjunction_NoneByDefault(t *testing.T) {
	q := loadQuery(t, "NUM_VARS 1\nBOUND 0 0 1\n")
	assert.False(t, hasTopLevelDisjunction(q))
}

func TestPortfolio_Run_NoDisjunction_TrivialSAT(t *testing.T) {
	q := loadQuery(t, "NUM_VARS 1\nBOUND 0 2 2\n")

	cfg := config.Default()
	cfg.NumDisjuncts = 1
	cfg.NumSingleThreadWorkers = 1
	cfg.Timeout = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	p := NewPortfolio(cfg)
	result := p.Run(ctx, q)

	assert.Equal(t, plsolve.ResultSAT, result.Result)
	assert.InDelta(t, 2, result.Assignment[0], 1e-6)
}

func TestPortfolio_Run_NoDisjunction_UNSAT(t *testing.T) {
	// Two bounds on the same variable whose intervals don't overlap,
	// expressed as a pinned bound plus an equation forcing a different
	// value, so every worker in the mix (DnC leaves, single-thread
	// engines, and MILP) reaches the same UNSAT verdict.
	q := loadQuery(t, "NUM_VARS 1\n"+
		"BOUND 0 1 1\n"+
		"EQUATION = 2 1 0\n")

	cfg := config.Default()
	cfg.NumDisjuncts = 1
	cfg.NumSingleThreadWorkers = 1
	cfg.Timeout = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	p := NewPortfolio(cfg)
	result := p.Run(ctx, q)

	assert.Equal(t, plsolve.ResultUNSAT, result.Result)
}
