package utils

import (
	"fmt"
	"math"
)

// MaxExponentOrder is the highest power CacheExponents will compute. The cost function needs
// t^7; the extra headroom covers higher derivative orders.
const MaxExponentOrder = 10

// CacheExponents returns [t^0, t^1, ..., t^order]. It panics if order is negative or above
// MaxExponentOrder, as that is a programming error rather than a runtime condition.
func CacheExponents(t float64, order int) []float64 {
	if order < 0 || order > MaxExponentOrder {
		panic(fmt.Sprintf("exponent order %d outside [0, %d]", order, MaxExponentOrder))
	}
	exps := make([]float64, order+1)
	exps[0] = 1
	for i := 1; i <= order; i++ {
		exps[i] = exps[i-1] * t
	}
	return exps
}

// Float64AlmostEqual compares two float64s and returns if the difference between them is less than epsilon.
func Float64AlmostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) <= epsilon
}

// IsFinite returns whether x is neither NaN nor infinite.
func IsFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// FloorDiv returns floor(num/den), nudged by a relative epsilon so that quotients which are
// integral up to rounding (0.5/0.1) are not truncated one short.
func FloorDiv(num, den float64) int {
	q := num / den
	return int(math.Floor(q + 1e-9*math.Max(1, math.Abs(q))))
}
