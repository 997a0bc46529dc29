package plsolve

// BoundType distinguishes a lower-bound tightening from an
// upper-bound one.
type BoundType int

const (
	LB BoundType = iota
	UB
)

// Tightening is a candidate narrowing of one variable's interval:
// applying it sets variable's LB|UB bound to value. Application must
// only ever shrink the interval; BoundManager silently ignores an
// attempt that would widen it.
type Tightening struct {
	Variable Variable
	Value    float64
	Type     BoundType
}

func LowerTightening(v Variable, value float64) Tightening {
	return Tightening{Variable: v, Value: value, Type: LB}
}

func UpperTightening(v Variable, value float64) Tightening {
	return Tightening{Variable: v, Value: value, Type: UB}
}
