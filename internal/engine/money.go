package engine

// Money is an amount in minor currency units (paisa). All engine arithmetic
// is integer arithmetic on this type; floating point exists only at the
// FromMajor input boundary.
type Money int64

// MinorUnitsPerMajor is the minor-unit factor: 100 paisa per rupee.
const MinorUnitsPerMajor = 100

// FromMajor converts a user-entered major-unit decimal (e.g. 12.34) to minor
// units, rounding to the nearest integer. Callers converting user input should
// do it exactly once, here; everything downstream stays integer.
func FromMajor(major float64) Money {
	if major >= 0 {
		return Money(major*MinorUnitsPerMajor + 0.5)
	}
	return Money(major*MinorUnitsPerMajor - 0.5)
}

// Major returns the major-unit representation for display purposes only.
func (m Money) Major() float64 {
	return float64(m) / MinorUnitsPerMajor
}

// ValidAmount reports whether m is usable as a raw amount field (prices,
// amounts paid, extras). Balance fields may go negative; amounts may not.
func ValidAmount(m Money) bool {
	return m >= 0
}

func minMoney(a, b Money) Money {
	if a < b {
		return a
	}
	return b
}
