package zmp

import (
	"gonum.org/v1/gonum/mat"

	"github.com/mohakhalili/towr/spline"
	"github.com/mohakhalili/towr/utils"
)

// ZMPMaps give the ZMP of every constraint node as an affine function of the optimization
// vector: zmp_x = X[:,c]ᵀx + VX[c] and zmp_y = Y[:,c]ᵀx + VY[c].
type ZMPMaps struct {
	X, Y   *mat.Dense
	VX, VY []float64
}

// Node returns the ZMP of node c for the coefficients x.
func (z ZMPMaps) Node(c int, x []float64) (float64, float64) {
	zx, zy := z.VX[c], z.VY[c]
	for i, v := range x {
		zx += z.X.At(i, c) * v
		zy += z.Y.At(i, c) * v
	}
	return zx, zy
}

// ZMPMapsForLines models the ZMP at every sampled node as pos - h/(g + z̈)·acc, with pos and acc
// the polynomial of the node's spline evaluated at the node time. A node where g + z̈ is not
// positive fails with ErrInvalidGaitRequest.
func ZMPMapsForLines(seq *spline.Sequence, lines []SampledLine, req *Request, opts *Options) (ZMPMaps, error) {
	n := seq.OptCoeffCount()
	k := len(lines)
	maps := ZMPMaps{VX: make([]float64, k), VY: make([]float64, k)}
	if k == 0 {
		return maps, nil
	}
	maps.X = mat.NewDense(n, k, nil)
	maps.Y = mat.NewDense(n, k, nil)

	for c, l := range lines {
		sp := seq.Spline(l.Spline)
		t := utils.CacheExponents(l.Time, 5)
		g, err := opts.effectiveGravity(seq.StartTime(sp.ID) + l.Time)
		if err != nil {
			return ZMPMaps{}, err
		}
		hg := req.RobotHeight / g

		for _, dim := range spline.Dims {
			m, v := maps.X, maps.VX
			if dim == spline.Y {
				m, v = maps.Y, maps.VY
			}
			m.Set(spline.VarIndex(sp.ID, dim, spline.A), c, t[5]-hg*20*t[3])
			m.Set(spline.VarIndex(sp.ID, dim, spline.B), c, t[4]-hg*12*t[2])
			m.Set(spline.VarIndex(sp.ID, dim, spline.C), c, t[3]-hg*6*t[1])
			m.Set(spline.VarIndex(sp.ID, dim, spline.D), c, t[2]-hg*2)

			v0 := component(req.StartVelocity, dim)
			p0 := component(req.StartPosition, dim)
			velDep := seq.VelocityDependency(sp.ID, dim, v0)
			posDep := seq.PositionDependency(sp.ID, dim, v0, p0)
			velDep.AddToColumn(m, c, t[1])
			posDep.AddToColumn(m, c, 1)
			v[c] = velDep.Constant*t[1] + posDep.Constant
		}
	}
	return maps, nil
}

// InequalityConstraints combines the ZMP maps with the sampled lines into one row per line:
// p·zmp_x + q·zmp_y + r - margin ≥ 0.
func InequalityConstraints(seq *spline.Sequence, lines []SampledLine, maps ZMPMaps) MatVec {
	n := seq.OptCoeffCount()
	ic := newMatVec(n, len(lines))
	for c, l := range lines {
		for i := 0; i < n; i++ {
			ic.M.Set(i, c, l.P*maps.X.At(i, c)+l.Q*maps.Y.At(i, c))
		}
		ic.V.SetVec(c, l.P*maps.VX[c]+l.Q*maps.VY[c]+l.R-l.Margin)
	}
	return ic
}
