package spline

import (
	"gonum.org/v1/gonum/mat"
)

// Term is one entry of a sparse linear combination over the optimization vector.
type Term struct {
	Index int
	Value float64
}

// Dependency describes an eliminated coefficient as Σ Value·x[Index] + Constant.
type Dependency struct {
	Terms    []Term
	Constant float64
}

// Eval returns the value of the eliminated coefficient for the optimization vector x.
func (d Dependency) Eval(x []float64) float64 {
	sum := d.Constant
	for _, term := range d.Terms {
		sum += term.Value * x[term.Index]
	}
	return sum
}

// AddToColumn adds scale times the dependency's coefficients to column col of m.
func (d Dependency) AddToColumn(m *mat.Dense, col int, scale float64) {
	for _, term := range d.Terms {
		m.Set(term.Index, col, m.At(term.Index, col)+scale*term.Value)
	}
}

// AddTo adds scale times the dependency's coefficients to the dense vector v.
func (d Dependency) AddTo(v []float64, scale float64) {
	for _, term := range d.Terms {
		v[term.Index] += scale * term.Value
	}
}

// sparsify keeps the nonzero entries of a dense working vector, in index order.
func sparsify(dense []float64) []Term {
	var terms []Term
	for i, v := range dense {
		if v != 0 {
			terms = append(terms, Term{Index: i, Value: v})
		}
	}
	return terms
}

// eliminated holds the start-state independent part of the e and f coefficients of one spline.
type eliminated struct {
	velocity []Term
	position []Term
}

// buildDependencies walks the splines once and records, per spline and axis, e and f as linear
// combinations of the free coefficients of all preceding splines:
//
//	e(k) = e(k-1) + 5a·T⁴ + 4b·T³ + 3c·T² + 2d·T
//	f(k) = f(k-1) + e(k-1)·T + a·T⁵ + b·T⁴ + c·T³ + d·T²
//
// with T the duration of spline k-1, e(0) = v0 and f(0) = p0.
func buildDependencies(splines []Spline, nCoeff int) [NumDims][]eliminated {
	var deps [NumDims][]eliminated
	for _, dim := range Dims {
		deps[dim] = make([]eliminated, len(splines))
		e := make([]float64, nCoeff)
		f := make([]float64, nCoeff)
		for k, s := range splines {
			deps[dim][k] = eliminated{velocity: sparsify(e), position: sparsify(f)}

			t := cacheDuration(s.Duration)
			a := VarIndex(s.ID, dim, A)
			b := VarIndex(s.ID, dim, B)
			c := VarIndex(s.ID, dim, C)
			d := VarIndex(s.ID, dim, D)

			// f must be advanced with the e of this spline before e moves on.
			for i := range f {
				f[i] += e[i] * t[1]
			}
			f[a] += t[5]
			f[b] += t[4]
			f[c] += t[3]
			f[d] += t[2]

			e[a] += 5 * t[4]
			e[b] += 4 * t[3]
			e[c] += 3 * t[2]
			e[d] += 2 * t[1]
		}
	}
	return deps
}
