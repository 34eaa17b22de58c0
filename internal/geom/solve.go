package geom

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Line is a 3D line given by two distinct points on it. For track segments
// the points are the segment endpoints.
type Line struct {
	P0, P1 r3.Vec
}

// SolveLeastSquares3D finds the point minimizing the weighted sum of squared
// distances to a set of 3D lines. weights may be nil, in which case all lines
// weigh equally; otherwise it must have one entry per line.
//
// The solution comes from the normal equations: each line with unit direction
// u contributes w*(I - u*uᵀ) to the system matrix and w*(I - u*uᵀ)*p0 to the
// right-hand side. The system is solved with a Cholesky factorization.
//
// Returns the crossing point and the weighted mean squared distance from it
// to the lines. A negative return value signals that the fit could not be
// made: fewer than two usable lines, or a (near-)singular system, which
// happens when all lines are parallel.
func SolveLeastSquares3D(lines []Line, weights []float64) (r3.Vec, float64) {
	var a [3][3]float64
	var b [3]float64

	n := 0
	for i, ln := range lines {
		d := r3.Sub(ln.P1, ln.P0)
		l := r3.Norm(d)
		if l <= 0 {
			continue
		}
		u := r3.Scale(1/l, d)
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		if w <= 0 {
			continue
		}

		// M = w * (I - u*uᵀ)
		ux := [3]float64{u.X, u.Y, u.Z}
		p0 := [3]float64{ln.P0.X, ln.P0.Y, ln.P0.Z}
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				m := -w * ux[r] * ux[c]
				if r == c {
					m += w
				}
				a[r][c] += m
				b[r] += m * p0[c]
			}
		}
		n++
	}
	if n < 2 {
		return r3.Vec{}, -1.0
	}

	sym := mat.NewSymDense(3, []float64{
		a[0][0], a[0][1], a[0][2],
		a[1][0], a[1][1], a[1][2],
		a[2][0], a[2][1], a[2][2],
	})
	var chol mat.Cholesky
	if !chol.Factorize(sym) {
		return r3.Vec{}, -1.0
	}
	var x mat.VecDense
	if err := chol.SolveVecTo(&x, mat.NewVecDense(3, b[:])); err != nil {
		return r3.Vec{}, -1.0
	}
	p := r3.Vec{X: x.AtVec(0), Y: x.AtVec(1), Z: x.AtVec(2)}

	var mse, wsum float64
	for i, ln := range lines {
		if r3.Norm2(r3.Sub(ln.P1, ln.P0)) <= 0 {
			continue
		}
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		if w <= 0 {
			continue
		}
		mse += w * PointLineDist2(p, ln.P0, ln.P1)
		wsum += w
	}
	return p, mse / wsum
}
