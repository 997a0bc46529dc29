package plsolve

// Result is the terminal verdict of one Engine run (spec.md §6 result
// summary: "sat, unsat, TIMEOUT, ERROR, UNKNOWN").
type Result int

const (
	ResultUnknown Result = iota
	ResultSAT
	ResultUNSAT
	ResultTimeout
	ResultError
)

func (r Result) String() string {
	switch r {
	case ResultSAT:
		return "sat"
	case ResultUNSAT:
		return "unsat"
	case ResultTimeout:
		return "TIMEOUT"
	case ResultError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
