package nlp

// Jacobian fills the given columns of the row-major m×len(x) Jacobian of fn at x by central
// differences. x is restored before returning.
func Jacobian(fn func(out, x []float64), x []float64, m int, step float64, cols []int, jac []float64) {
	n := len(x)
	plus := make([]float64, m)
	minus := make([]float64, m)
	for _, c := range cols {
		orig := x[c]
		x[c] = orig + step
		fn(plus, x)
		x[c] = orig - step
		fn(minus, x)
		x[c] = orig
		for i := 0; i < m; i++ {
			jac[i*n+c] = (plus[i] - minus[i]) / (2 * step)
		}
	}
}
