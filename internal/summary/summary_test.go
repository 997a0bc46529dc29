package summary

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"plsolve"
)

func TestWriter_Write_SAT_ListsAssignment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.txt")
	w := NewWriter(path)

	err := w.Write(Report{
		Result:     plsolve.ResultSAT,
		Elapsed:    1.5,
		Assignment: plsolve.Assignment{0: 2.0, 1: 4.0},
	})
	assert.NoError(t, err)

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")

	assert.True(t, strings.HasPrefix(lines[0], "sat 1.5"))
	assert.Equal(t, "x0 = 2.000000", lines[1])
	assert.Equal(t, "x1 = 4.000000", lines[2])
}

func TestWriter_Write_UNSAT_NoAssignmentLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.txt")
	w := NewWriter(path)

	err := w.Write(Report{Result: plsolve.ResultUNSAT, Elapsed: 0.2})
	assert.NoError(t, err)

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")

	assert.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "unsat"))
}

func TestWriter_Write_Portfolio_UsesHoldsViolatedUnknown(t *testing.T) {
	tests := []struct {
		result plsolve.Result
		want   string
	}{
		{plsolve.ResultSAT, "violated"},
		{plsolve.ResultUNSAT, "holds"},
		{plsolve.ResultTimeout, "unknown"},
		{plsolve.ResultError, "unknown"},
	}
	for _, tt := range tests {
		path := filepath.Join(t.TempDir(), "summary.txt")
		w := NewWriter(path)
		err := w.Write(Report{Result: tt.result, Portfolio: true})
		assert.NoError(t, err)

		data, err := os.ReadFile(path)
		assert.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), tt.want), "result %v: got %q", tt.result, string(data))
	}
}

func TestWriter_Write_OverwritesPriorPartialWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.txt")
	w := NewWriter(path)

	assert.NoError(t, w.Write(Report{Result: plsolve.ResultTimeout}))
	assert.NoError(t, w.Write(Report{Result: plsolve.ResultSAT, Assignment: plsolve.Assignment{0: 1}}))

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "sat"))
}

func TestExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.txt")
	assert.False(t, Exists(path))
	assert.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	assert.True(t, Exists(path))
}
