package models

// Sentinel is the missing-value marker used in fixed-format outputs. It never
// participates in arithmetic; internal code carries validity explicitly and
// converts at the boundary.
const Sentinel = -999.0

// Value is an optional float64, same shape as sql.NullFloat64. The zero
// value is missing.
type Value struct {
	Float64 float64
	Valid   bool
}

// Some wraps a present value.
func Some(f float64) Value {
	return Value{Float64: f, Valid: true}
}

// Missing is the absent value.
func Missing() Value {
	return Value{}
}

// FromSentinel interprets an external -999 as missing.
func FromSentinel(f float64) Value {
	if f == Sentinel {
		return Missing()
	}
	return Some(f)
}

// OrSentinel flattens the value for fixed-format output.
func (v Value) OrSentinel() float64 {
	if !v.Valid {
		return Sentinel
	}
	return v.Float64
}
