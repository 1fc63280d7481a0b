// Package qp solves dense strictly convex quadratic programs
//
//	min ½ xᵀGx + g0ᵀx
//	s.t. CEᵀx + ce0 = 0
//	     CIᵀx + ci0 ≥ 0
//
// with the dual active-set method of Goldfarb and Idnani. Every column of CE and CI is one
// constraint.
package qp

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	defaultRegularization = 1e-8
	redundancyTolerance   = 1e-10
	residualTolerance     = 1e-8
)

var eps = math.Nextafter(1, 2) - 1

var (
	// ErrNotPositiveDefinite is returned when the regularized Hessian has no Cholesky factor.
	ErrNotPositiveDefinite = errors.New("hessian is not positive definite")
	// ErrInconsistentEqualities is returned when the equality constraints have no common solution.
	ErrInconsistentEqualities = errors.New("equality constraints are inconsistent")
	// ErrDimensionMismatch is returned when the problem matrices do not agree in size.
	ErrDimensionMismatch = errors.New("problem dimensions do not match")
)

// Status describes how a solve ended.
type Status int

const (
	// StatusOptimal means all constraints hold at the returned minimizer.
	StatusOptimal Status = iota
	// StatusInfeasible means the inequality constraints cannot be satisfied together with the
	// equality constraints.
	StatusInfeasible
	// StatusIterationLimit means the active set did not settle within the iteration budget.
	StatusIterationLimit
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusIterationLimit:
		return "iteration limit"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Settings tune the solver.
type Settings struct {
	// Regularization is added to the diagonal of G so that positive semi-definite costs, including
	// an all-zero cost, can be factorized.
	Regularization float64
	// MaxIterations bounds the number of active set changes. Zero picks a bound from the problem
	// size.
	MaxIterations int
}

// DefaultSettings returns the settings used by Solve.
func DefaultSettings() Settings {
	return Settings{Regularization: defaultRegularization}
}

// Problem is a dense quadratic program. CE and CI may be nil when there are no constraints of
// that kind.
type Problem struct {
	G   mat.Matrix
	G0  []float64
	CE  mat.Matrix
	CE0 []float64
	CI  mat.Matrix
	CI0 []float64
}

// Result is the outcome of a solve.
type Result struct {
	X []float64
	// Cost is ½ xᵀGx + g0ᵀx with the unregularized G, or +Inf if the problem is infeasible.
	Cost       float64
	Status     Status
	Iterations int
	// Active lists the inequality constraints that are active at X.
	Active []int
}

// Solve solves the problem with the default settings.
func Solve(p *Problem) (*Result, error) {
	return SolveWithSettings(p, DefaultSettings())
}

// SolveWithSettings solves the problem.
func SolveWithSettings(p *Problem, settings Settings) (*Result, error) {
	n, nEq, nIneq, err := p.dims()
	if err != nil {
		return nil, err
	}
	s := newSolver(p, n, nEq, nIneq, settings)
	if err := s.factorize(); err != nil {
		return nil, err
	}
	if err := s.addEqualities(); err != nil {
		return nil, err
	}
	status := s.run()

	res := &Result{
		X:          s.x,
		Status:     status,
		Iterations: s.iter,
		Cost:       math.Inf(1),
	}
	if status != StatusInfeasible {
		res.Cost = p.cost(s.x)
	}
	for k := s.nEqActive; k < s.iq; k++ {
		res.Active = append(res.Active, s.active[k])
	}
	return res, nil
}

func (p *Problem) dims() (n, nEq, nIneq int, err error) {
	if p == nil || p.G == nil {
		return 0, 0, 0, errors.Wrap(ErrDimensionMismatch, "missing hessian")
	}
	r, c := p.G.Dims()
	if r != c || r == 0 {
		return 0, 0, 0, errors.Wrapf(ErrDimensionMismatch, "hessian is %dx%d", r, c)
	}
	n = r
	if p.G0 != nil && len(p.G0) != n {
		return 0, 0, 0, errors.Wrapf(ErrDimensionMismatch, "linear term has length %d, want %d", len(p.G0), n)
	}
	check := func(name string, m mat.Matrix, v []float64) (int, error) {
		if m == nil {
			if len(v) != 0 {
				return 0, errors.Wrapf(ErrDimensionMismatch, "%s has no matrix but %d constants", name, len(v))
			}
			return 0, nil
		}
		r, c := m.Dims()
		if r != n {
			return 0, errors.Wrapf(ErrDimensionMismatch, "%s has %d rows, want %d", name, r, n)
		}
		if len(v) != c {
			return 0, errors.Wrapf(ErrDimensionMismatch, "%s has %d columns but %d constants", name, c, len(v))
		}
		return c, nil
	}
	if nEq, err = check("equality", p.CE, p.CE0); err != nil {
		return 0, 0, 0, err
	}
	if nIneq, err = check("inequality", p.CI, p.CI0); err != nil {
		return 0, 0, 0, err
	}
	return n, nEq, nIneq, nil
}

func (p *Problem) cost(x []float64) float64 {
	xv := mat.NewVecDense(len(x), x)
	var gx mat.VecDense
	gx.MulVec(p.G, xv)
	c := 0.5 * mat.Dot(xv, &gx)
	if p.G0 != nil {
		c += floats.Dot(p.G0, x)
	}
	return c
}

type solver struct {
	p               *Problem
	settings        Settings
	n, nEq, nIneq   int
	maxIter         int
	iter            int
	chol            mat.Cholesky
	j               *mat.Dense
	r               *mat.Dense
	x               []float64
	z, d, np, rv, u []float64
	s               []float64
	active          []int
	iq, nEqActive   int
	rNorm           float64
	c1, c2          float64
	ceCols, ciCols  [][]float64
	g0              []float64
	candidate, excl []bool
	xOld, uOld      []float64
	activeOld       []int
}

func newSolver(p *Problem, n, nEq, nIneq int, settings Settings) *solver {
	size := nEq + nIneq + 1
	s := &solver{
		p:         p,
		settings:  settings,
		n:         n,
		nEq:       nEq,
		nIneq:     nIneq,
		j:         mat.NewDense(n, n, nil),
		r:         mat.NewDense(n, n, nil),
		x:         make([]float64, n),
		z:         make([]float64, n),
		d:         make([]float64, n),
		np:        make([]float64, n),
		rv:        make([]float64, size),
		u:         make([]float64, size),
		s:         make([]float64, nIneq),
		active:    make([]int, size),
		candidate: make([]bool, nIneq),
		excl:      make([]bool, nIneq),
		xOld:      make([]float64, n),
		uOld:      make([]float64, size),
		activeOld: make([]int, size),
		rNorm:     1,
		g0:        p.G0,
	}
	if s.g0 == nil {
		s.g0 = make([]float64, n)
	}
	s.maxIter = settings.MaxIterations
	if s.maxIter <= 0 {
		s.maxIter = 50*(n+nEq+nIneq) + 100
	}
	s.ceCols = columns(p.CE, nEq)
	s.ciCols = columns(p.CI, nIneq)
	return s
}

func columns(m mat.Matrix, count int) [][]float64 {
	cols := make([][]float64, count)
	for c := range cols {
		cols[c] = mat.Col(nil, c, m)
	}
	return cols
}

// factorize computes G = LLᵀ, J = L⁻ᵀ and the unconstrained minimizer.
func (s *solver) factorize() error {
	g := mat.NewSymDense(s.n, nil)
	for i := 0; i < s.n; i++ {
		for k := i; k < s.n; k++ {
			v := 0.5 * (s.p.G.At(i, k) + s.p.G.At(k, i))
			if i == k {
				v += s.settings.Regularization
			}
			g.SetSym(i, k, v)
		}
	}
	s.c1 = mat.Trace(g)
	if ok := s.chol.Factorize(g); !ok {
		return ErrNotPositiveDefinite
	}
	var l, lInv mat.TriDense
	s.chol.LTo(&l)
	if err := lInv.InverseTri(&l); err != nil {
		return errors.Wrap(ErrNotPositiveDefinite, err.Error())
	}
	s.j.Copy(lInv.T())
	s.c2 = mat.Trace(s.j)

	neg := make([]float64, s.n)
	floats.ScaleTo(neg, -1, s.g0)
	var xv mat.VecDense
	if err := s.chol.SolveVecTo(&xv, mat.NewVecDense(s.n, neg)); err != nil {
		return errors.Wrap(ErrNotPositiveDefinite, err.Error())
	}
	copy(s.x, xv.RawVector().Data)
	return nil
}

// addEqualities makes every equality constraint active. Equalities whose normal lies in the
// span of the ones already added are skipped if they hold, and reported otherwise.
func (s *solver) addEqualities() error {
	for i := 0; i < s.nEq; i++ {
		copy(s.np, s.ceCols[i])
		s.computeD()
		residual := floats.Dot(s.np, s.x) + s.p.CE0[i]
		if s.dependent() {
			if math.Abs(residual) > residualTolerance*(1+math.Abs(s.p.CE0[i])) {
				return errors.Wrapf(ErrInconsistentEqualities, "equality %d has residual %g", i, residual)
			}
			continue
		}
		s.updateZ()
		s.updateR()

		t2 := 0.0
		if zz := floats.Dot(s.z, s.z); zz > eps {
			t2 = -residual / floats.Dot(s.z, s.np)
		}
		floats.AddScaled(s.x, t2, s.z)
		s.u[s.iq] = t2
		for k := 0; k < s.iq; k++ {
			s.u[k] -= t2 * s.rv[k]
		}
		s.active[s.iq] = -i - 1
		if !s.addConstraint() {
			return errors.Wrapf(ErrInconsistentEqualities, "equality %d is linearly dependent", i)
		}
	}
	s.nEqActive = s.iq
	return nil
}

// dependent reports whether the current normal lies in the span of the active constraints.
func (s *solver) dependent() bool {
	total := floats.Norm(s.d, 2)
	if total == 0 {
		return true
	}
	return floats.Norm(s.d[s.iq:], 2) <= redundancyTolerance*total
}

func (s *solver) run() Status {
outer:
	for {
		s.iter++
		if s.iter > s.maxIter {
			return StatusIterationLimit
		}
		for i := range s.candidate {
			s.candidate[i] = true
		}
		for k := s.nEqActive; k < s.iq; k++ {
			s.candidate[s.active[k]] = false
		}

		psi := 0.0
		for i := 0; i < s.nIneq; i++ {
			s.excl[i] = true
			s.s[i] = floats.Dot(s.ciCols[i], s.x) + s.p.CI0[i]
			psi += math.Min(0, s.s[i])
		}
		if math.Abs(psi) <= float64(s.nIneq)*eps*s.c1*s.c2*100 {
			return StatusOptimal
		}
		copy(s.uOld, s.u[:s.iq])
		copy(s.activeOld, s.active[:s.iq])
		copy(s.xOld, s.x)

	selecting:
		for {
			ip, ss := -1, 0.0
			for i := 0; i < s.nIneq; i++ {
				if s.s[i] < ss && s.candidate[i] && s.excl[i] {
					ss = s.s[i]
					ip = i
				}
			}
			if ip < 0 {
				return StatusOptimal
			}
			copy(s.np, s.ciCols[ip])
			s.u[s.iq] = 0
			s.active[s.iq] = ip

			for {
				s.iter++
				if s.iter > s.maxIter {
					return StatusIterationLimit
				}
				s.computeD()
				s.updateZ()
				s.updateR()

				// dual step length, limited by the active inequality that leaves first
				l, t1 := -1, math.Inf(1)
				for k := s.nEqActive; k < s.iq; k++ {
					if s.rv[k] > 0 && s.u[k]/s.rv[k] < t1 {
						t1 = s.u[k] / s.rv[k]
						l = s.active[k]
					}
				}
				// primal step length
				t2 := math.Inf(1)
				if floats.Dot(s.z, s.z) > eps {
					t2 = -s.s[ip] / floats.Dot(s.z, s.np)
					if t2 < 0 {
						t2 = math.Inf(1)
					}
				}
				t := math.Min(t1, t2)
				if math.IsInf(t, 1) {
					return StatusInfeasible
				}

				if math.IsInf(t2, 1) {
					// step in dual space only
					for k := 0; k < s.iq; k++ {
						s.u[k] -= t * s.rv[k]
					}
					s.u[s.iq] += t
					s.candidate[l] = true
					s.deleteConstraint(l)
					continue
				}

				floats.AddScaled(s.x, t, s.z)
				for k := 0; k < s.iq; k++ {
					s.u[k] -= t * s.rv[k]
				}
				s.u[s.iq] += t

				if t2 <= t1 {
					// full step, the violated constraint becomes active
					if !s.addConstraint() {
						s.excl[ip] = false
						s.deleteConstraint(ip)
						for i := range s.candidate {
							s.candidate[i] = true
						}
						for k := s.nEqActive; k < s.iq; k++ {
							s.active[k] = s.activeOld[k]
							s.u[k] = s.uOld[k]
							s.candidate[s.active[k]] = false
						}
						copy(s.x, s.xOld)
						continue selecting
					}
					s.candidate[ip] = false
					continue outer
				}

				// partial step, a blocking constraint leaves the active set
				s.candidate[l] = true
				s.deleteConstraint(l)
				s.s[ip] = floats.Dot(s.ciCols[ip], s.x) + s.p.CI0[ip]
			}
		}
	}
}

// computeD sets d = Jᵀ np.
func (s *solver) computeD() {
	for i := 0; i < s.n; i++ {
		sum := 0.0
		for k := 0; k < s.n; k++ {
			sum += s.j.At(k, i) * s.np[k]
		}
		s.d[i] = sum
	}
}

// updateZ sets the primal step direction z = J₂ d₂.
func (s *solver) updateZ() {
	for i := 0; i < s.n; i++ {
		sum := 0.0
		for k := s.iq; k < s.n; k++ {
			sum += s.j.At(i, k) * s.d[k]
		}
		s.z[i] = sum
	}
}

// updateR sets the dual step direction r = R⁻¹ d₁ by back substitution.
func (s *solver) updateR() {
	for i := s.iq - 1; i >= 0; i-- {
		sum := 0.0
		for k := i + 1; k < s.iq; k++ {
			sum += s.r.At(i, k) * s.rv[k]
		}
		s.rv[i] = (s.d[i] - sum) / s.r.At(i, i)
	}
}

// addConstraint updates J and R with Givens rotations so that d gains a new column of R. It
// reports false if the new constraint is linearly dependent on the active ones.
func (s *solver) addConstraint() bool {
	for k := s.n - 1; k >= s.iq+1; k-- {
		cc, ss := s.d[k-1], s.d[k]
		h := math.Hypot(cc, ss)
		if h < eps {
			continue
		}
		s.d[k] = 0
		ss /= h
		cc /= h
		if cc < 0 {
			cc, ss = -cc, -ss
			s.d[k-1] = -h
		} else {
			s.d[k-1] = h
		}
		xny := ss / (1 + cc)
		for i := 0; i < s.n; i++ {
			t1, t2 := s.j.At(i, k-1), s.j.At(i, k)
			nt1 := t1*cc + t2*ss
			s.j.Set(i, k-1, nt1)
			s.j.Set(i, k, xny*(t1+nt1)-t2)
		}
	}
	s.iq++
	for i := 0; i < s.iq; i++ {
		s.r.Set(i, s.iq-1, s.d[i])
	}
	if math.Abs(s.d[s.iq-1]) <= eps*s.rNorm {
		return false
	}
	s.rNorm = math.Max(s.rNorm, math.Abs(s.d[s.iq-1]))
	return true
}

// deleteConstraint removes the inequality l from the active set and restores the triangular
// shape of R.
func (s *solver) deleteConstraint(l int) {
	qq := -1
	for k := s.nEqActive; k < s.iq; k++ {
		if s.active[k] == l {
			qq = k
			break
		}
	}
	if qq < 0 {
		return
	}
	for k := qq; k < s.iq-1; k++ {
		s.active[k] = s.active[k+1]
		s.u[k] = s.u[k+1]
		for i := 0; i < s.n; i++ {
			s.r.Set(i, k, s.r.At(i, k+1))
		}
	}
	s.active[s.iq-1] = s.active[s.iq]
	s.u[s.iq-1] = s.u[s.iq]
	s.active[s.iq] = 0
	s.u[s.iq] = 0
	for i := 0; i < s.iq; i++ {
		s.r.Set(i, s.iq-1, 0)
	}
	s.iq--
	if s.iq == 0 {
		return
	}
	for k := qq; k < s.iq; k++ {
		cc, ss := s.r.At(k, k), s.r.At(k+1, k)
		h := math.Hypot(cc, ss)
		if h < eps {
			continue
		}
		cc /= h
		ss /= h
		s.r.Set(k+1, k, 0)
		if cc < 0 {
			s.r.Set(k, k, -h)
			cc, ss = -cc, -ss
		} else {
			s.r.Set(k, k, h)
		}
		xny := ss / (1 + cc)
		for c := k + 1; c < s.iq; c++ {
			t1, t2 := s.r.At(k, c), s.r.At(k+1, c)
			nt1 := t1*cc + t2*ss
			s.r.Set(k, c, nt1)
			s.r.Set(k+1, c, xny*(t1+nt1)-t2)
		}
		for i := 0; i < s.n; i++ {
			t1, t2 := s.j.At(i, k), s.j.At(i, k+1)
			nt1 := t1*cc + t2*ss
			s.j.Set(i, k, nt1)
			s.j.Set(i, k+1, xny*(nt1+t1)-t2)
		}
	}
}
