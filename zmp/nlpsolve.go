package zmp

import (
	"context"
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/mohakhalili/towr/legs"
	"github.com/mohakhalili/towr/nlp"
	"github.com/mohakhalili/towr/spline"
	"github.com/mohakhalili/towr/supportpolygon"
)

// rows of the end position constraints inside the equality system, per axis.
const endPositionRow = startConstraintsPerAxis

// NLPSolution is the result of refining a QP solution together with the footholds.
type NLPSolution struct {
	Coeffs      []float64
	Footholds   []legs.Foothold
	FinalStance legs.Stance
	Objective   float64
	Status      string
	Evaluations int
	Converged   bool
}

// SolveNLP refines the coefficients together with the horizontal position of every step
// foothold, starting from coeffs. Footholds may move by at most Options.FootholdTolerance
// along each axis. A run that does not converge returns the last iterate without an error.
func (o *Optimizer) SolveNLP(ctx context.Context, f *Formulation, coeffs []float64) (*NLPSolution, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	if len(coeffs) != f.Sequence.OptCoeffCount() {
		return nil, errors.Wrapf(ErrPreconditionViolation,
			"expected %d coefficients as initial guess, got %d", f.Sequence.OptCoeffCount(), len(coeffs))
	}
	p := newFootholdProblem(f, o.opts.FootholdTolerance)
	res, err := nlp.Solve(ctx, p, p.initialGuess(coeffs), o.opts.NLP, o.logger.Sublogger("nlp"))
	if err != nil {
		if errors.Is(err, nlp.ErrInitialization) {
			return nil, NewSolverInitializationError(err)
		}
		return nil, err
	}
	o.logger.Infow("solved nlp", "status", res.Status, "objective", res.Objective, "evaluations", res.Evaluations)

	footholds := p.footholds(res.X)
	return &NLPSolution{
		Coeffs:      append([]float64(nil), res.X[:p.n]...),
		Footholds:   footholds,
		FinalStance: p.finalStance(res.X),
		Objective:   res.Objective,
		Status:      res.Status,
		Evaluations: res.Evaluations,
		Converged:   res.Converged,
	}, nil
}

// footholdProblem is the nonlinear program over [coefficients, x₀ y₀ x₁ y₁ ...] where xⱼ yⱼ is
// the foothold of step j.
type footholdProblem struct {
	f     *Formulation
	n     int
	steps int
	tol   float64
	// lastPlacer is the step that last moved each leg, -1 for legs that never step.
	lastPlacer [legs.NumLegs]int
}

func newFootholdProblem(f *Formulation, tol float64) *footholdProblem {
	p := &footholdProblem{
		f:          f,
		n:          f.Sequence.OptCoeffCount(),
		steps:      len(f.Request.Steps),
		tol:        tol,
		lastPlacer: [legs.NumLegs]int{-1, -1, -1, -1},
	}
	for j, step := range f.Request.Steps {
		p.lastPlacer[step.Leg] = j
	}
	return p
}

func (p *footholdProblem) footholdIndex(step int, dim spline.Dim) int {
	return p.n + spline.NumDims*step + int(dim)
}

func (p *footholdProblem) initialGuess(coeffs []float64) []float64 {
	x := make([]float64, p.Dimension())
	copy(x, coeffs)
	for j, step := range p.f.Request.Steps {
		x[p.footholdIndex(j, spline.X)] = step.Pos.X
		x[p.footholdIndex(j, spline.Y)] = step.Pos.Y
	}
	return x
}

func (p *footholdProblem) footholds(x []float64) []legs.Foothold {
	out := append([]legs.Foothold(nil), p.f.Request.Steps...)
	for j := range out {
		out[j].Pos.X = x[p.footholdIndex(j, spline.X)]
		out[j].Pos.Y = x[p.footholdIndex(j, spline.Y)]
	}
	return out
}

func (p *footholdProblem) finalStance(x []float64) legs.Stance {
	stance := p.f.Request.StartStance
	for _, step := range p.footholds(x) {
		stance = stance.Apply(step)
	}
	return stance
}

func (p *footholdProblem) vertex(v supportpolygon.Vertex, x []float64) r2.Point {
	if v.Step < 0 {
		return r2.Point{X: v.Pos.X, Y: v.Pos.Y}
	}
	return r2.Point{X: x[p.footholdIndex(v.Step, spline.X)], Y: x[p.footholdIndex(v.Step, spline.Y)]}
}

func (p *footholdProblem) Dimension() int {
	return p.n + spline.NumDims*p.steps
}

func (p *footholdProblem) Bounds() ([]float64, []float64) {
	lower := make([]float64, p.Dimension())
	upper := make([]float64, p.Dimension())
	for i := 0; i < p.n; i++ {
		lower[i] = math.Inf(-1)
		upper[i] = math.Inf(1)
	}
	for j, step := range p.f.Request.Steps {
		for _, dim := range spline.Dims {
			c := step.Pos.X
			if dim == spline.Y {
				c = step.Pos.Y
			}
			lower[p.footholdIndex(j, dim)] = c - p.tol
			upper[p.footholdIndex(j, dim)] = c + p.tol
		}
	}
	return lower, upper
}

// Objective is ½ cᵀGc over the coefficients c. Footholds do not enter the cost.
func (p *footholdProblem) Objective(x, grad []float64) float64 {
	c := mat.NewVecDense(p.n, x[:p.n])
	var gc mat.VecDense
	gc.MulVec(p.f.Cost.M, c)
	if len(grad) > 0 {
		copy(grad, gc.RawVector().Data)
		for i := p.n; i < len(grad); i++ {
			grad[i] = 0
		}
	}
	return 0.5 * mat.Dot(c, &gc)
}

func (p *footholdProblem) EqualityCount() int {
	return p.f.Equality.Cols()
}

// Equalities evaluates the equality system with the end position target moved to the centroid
// of the final stance spanned by the current footholds.
func (p *footholdProblem) Equalities(result, x, jac []float64) {
	copy(result, p.f.Equality.Evaluate(x[:p.n]))
	endX, endY := p.finalStance(x).Centroid()
	result[p.endRow(spline.X)] += p.f.EndPosition.X - endX
	result[p.endRow(spline.Y)] += p.f.EndPosition.Y - endY
	if len(jac) == 0 {
		return
	}
	dim := p.Dimension()
	for i := range jac {
		jac[i] = 0
	}
	for r := 0; r < len(result); r++ {
		for i := 0; i < p.n; i++ {
			jac[r*dim+i] = p.f.Equality.M.At(i, r)
		}
	}
	for _, j := range p.lastPlacer {
		if j < 0 {
			continue
		}
		for _, d := range spline.Dims {
			jac[p.endRow(d)*dim+p.footholdIndex(j, d)] = -1.0 / legs.NumLegs
		}
	}
}

func (p *footholdProblem) endRow(dim spline.Dim) int {
	return int(dim)*(startConstraintsPerAxis+endConstraintsPerAxis) + endPositionRow
}

func (p *footholdProblem) InequalityCount() int {
	return len(p.f.Lines)
}

// Inequalities evaluates every sampled line with the edge recomputed from the current
// footholds. Derivatives with respect to the footholds are taken by central differences.
func (p *footholdProblem) Inequalities(result, x, jac []float64) {
	dim := p.Dimension()
	if len(jac) > 0 {
		for i := range jac {
			jac[i] = 0
		}
	}
	for c, l := range p.f.Lines {
		zx, zy := p.f.ZMP.Node(c, x[:p.n])
		tr := p.f.Triangles[l.Step]
		from := tr.Vertices[l.Edge]
		to := tr.Vertices[(l.Edge+1)%supportpolygon.EdgesPerTriangle]
		value := func(a, b r2.Point) float64 {
			line := supportpolygon.LineThrough(a, b)
			return line.P*zx + line.Q*zy + line.R - l.Margin
		}
		a, b := p.vertex(from, x), p.vertex(to, x)
		result[c] = value(a, b)
		if len(jac) == 0 {
			continue
		}

		line := supportpolygon.LineThrough(a, b)
		for i := 0; i < p.n; i++ {
			jac[c*dim+i] = line.P*p.f.ZMP.X.At(i, c) + line.Q*p.f.ZMP.Y.At(i, c)
		}
		// columns 0 and 1 are the xy of the from vertex, 2 and 3 the xy of the to vertex.
		var cols []int
		if from.Step >= 0 {
			cols = append(cols, 0, 1)
		}
		if to.Step >= 0 {
			cols = append(cols, 2, 3)
		}
		if len(cols) == 0 {
			continue
		}
		var grad [4]float64
		nlp.Jacobian(func(out, v []float64) {
			out[0] = value(r2.Point{X: v[0], Y: v[1]}, r2.Point{X: v[2], Y: v[3]})
		}, []float64{a.X, a.Y, b.X, b.Y}, 1, defaultFootholdStep, cols, grad[:])
		for _, k := range cols {
			step := from.Step
			if k >= 2 {
				step = to.Step
			}
			jac[c*dim+p.footholdIndex(step, spline.Dim(k%2))] += grad[k]
		}
	}
}
