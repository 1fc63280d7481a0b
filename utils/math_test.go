package utils

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestCacheExponents(t *testing.T) {
	exps := CacheExponents(2, 7)
	test.That(t, exps, test.ShouldResemble, []float64{1, 2, 4, 8, 16, 32, 64, 128})

	exps = CacheExponents(0, 3)
	test.That(t, exps, test.ShouldResemble, []float64{1, 0, 0, 0})

	exps = CacheExponents(0.5, 0)
	test.That(t, exps, test.ShouldResemble, []float64{1})

	test.That(t, func() { CacheExponents(1, MaxExponentOrder+1) }, test.ShouldPanic)
	test.That(t, func() { CacheExponents(1, -1) }, test.ShouldPanic)
}

func TestFloorDiv(t *testing.T) {
	test.That(t, FloorDiv(0.5, 0.1), test.ShouldEqual, 5)
	test.That(t, FloorDiv(0.3, 0.1), test.ShouldEqual, 3)
	test.That(t, FloorDiv(0.55, 0.1), test.ShouldEqual, 5)
	test.That(t, FloorDiv(0.09, 0.1), test.ShouldEqual, 0)
	test.That(t, FloorDiv(1.0, 0.1), test.ShouldEqual, 10)
}

func TestIsFinite(t *testing.T) {
	test.That(t, IsFinite(1), test.ShouldBeTrue)
	test.That(t, IsFinite(math.Inf(1)), test.ShouldBeFalse)
}

func TestFloat64AlmostEqual(t *testing.T) {
	test.That(t, Float64AlmostEqual(0.1+0.2, 0.3, 1e-12), test.ShouldBeTrue)
	test.That(t, Float64AlmostEqual(1, 1.001, 1e-6), test.ShouldBeFalse)
}
