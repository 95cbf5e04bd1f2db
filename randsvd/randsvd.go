// SPDX-License-Identifier: MIT

package randsvd

import (
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/asnet/matrix"
)

const (
	opDecompose   = "Decompose"
	opReconstruct = "Reconstruct"
)

// Result holds a rank-k singular triple: A ≈ U·diag(Sigma)·Vᵀ.
//   - U is rows×k with orthonormal columns.
//   - Sigma has length k, sorted in non-increasing order.
//   - V is cols×k with orthonormal columns.
type Result struct {
	U     *matrix.Dense
	Sigma []float64
	V     *matrix.Dense
}

// Rank returns k, the number of retained singular triplets.
func (r *Result) Rank() int { return len(r.Sigma) }

// Decompose computes a rank-k randomized SVD of a.
//
// Implementation:
//   - Stage 1: Validate a and 1 <= k <= min(rows, cols) before any allocation.
//   - Stage 2: Draw Ω (cols×l, standard Gaussian, l = k + oversampling) and
//     form Y = A·Ω.
//   - Stage 3: Thin QR of Y gives an orthonormal range basis Q (rows×l);
//     optional power iterations refine it.
//   - Stage 4: B = Qᵀ·A (l×cols); exact thin SVD of B via gonum.
//   - Stage 5: U = Q·Û, truncated to k columns.
//
// Behavior highlights:
//   - a is never mutated.
//   - Same seed and input give bit-identical output.
//
// Errors:
//   - matrix.ErrNilMatrix, ErrRankTooLarge, ErrSVDFailed.
//
// Complexity:
//   - Time O(rows*cols*l + rows*l^2), Space O((rows+cols)*l).
func Decompose(a *matrix.Dense, k int, opts ...Option) (*Result, error) {
	if a == nil {
		return nil, svdErrorf(opDecompose, matrix.ErrNilMatrix)
	}
	rows, cols := a.Shape()
	limit := min(rows, cols)
	if k < 1 || k > limit {
		return nil, svdErrorf(opDecompose, ErrRankTooLarge)
	}
	cfg := newConfig(opts...)
	l := min(k+cfg.oversampling, limit)

	// Gaussian test matrix Ω (cols×l).
	omega := make([]float64, cols*l)
	for i := range omega {
		omega[i] = cfg.rng.NormFloat64()
	}
	Omega, err := matrix.NewDenseFromData(cols, l, omega)
	if err != nil {
		return nil, svdErrorf(opDecompose, err)
	}

	Y, err := matrix.Mul(a, Omega)
	if err != nil {
		return nil, svdErrorf(opDecompose, err)
	}
	Q, _, err := matrix.QR(Y)
	if err != nil {
		return nil, svdErrorf(opDecompose, err)
	}

	for q := 0; q < cfg.powerIterations; q++ {
		if Q, err = powerStep(a, Q); err != nil {
			return nil, svdErrorf(opDecompose, err)
		}
	}

	B, err := matrix.MulTransA(Q, a)
	if err != nil {
		return nil, svdErrorf(opDecompose, err)
	}

	var svd mat.SVD
	if ok := svd.Factorize(B.Gonum(), mat.SVDThin); !ok {
		return nil, svdErrorf(opDecompose, ErrSVDFailed)
	}
	values := svd.Values(nil)

	var uB, vB mat.Dense
	svd.UTo(&uB) // l×l
	svd.VTo(&vB) // cols×l

	var u mat.Dense
	u.Mul(Q.Gonum(), uB.Slice(0, l, 0, k))

	U, err := matrix.FromGonum(&u)
	if err != nil {
		return nil, svdErrorf(opDecompose, err)
	}
	V, err := matrix.FromGonum(vB.Slice(0, cols, 0, k))
	if err != nil {
		return nil, svdErrorf(opDecompose, err)
	}
	sigma := make([]float64, k)
	copy(sigma, values[:k])

	return &Result{U: U, Sigma: sigma, V: V}, nil
}

// powerStep returns an orthonormal basis of A·Aᵀ·Q, orthonormalizing in between.
func powerStep(a, q *matrix.Dense) (*matrix.Dense, error) {
	z, err := matrix.MulTransA(a, q) // cols×l
	if err != nil {
		return nil, err
	}
	if z, _, err = matrix.QR(z); err != nil {
		return nil, err
	}
	y, err := matrix.Mul(a, z) // rows×l
	if err != nil {
		return nil, err
	}
	q, _, err = matrix.QR(y)

	return q, err
}

// Reconstruct returns U·diag(Sigma)·Vᵀ.
// Errors: matrix.ErrNilMatrix for an empty result, matrix.ErrDimensionMismatch for inconsistent parts.
// Complexity: O(rows*cols*k).
func Reconstruct(res *Result) (*matrix.Dense, error) {
	if res == nil || res.U == nil || res.V == nil {
		return nil, svdErrorf(opReconstruct, matrix.ErrNilMatrix)
	}
	us, err := matrix.ScaleCols(res.U, res.Sigma)
	if err != nil {
		return nil, svdErrorf(opReconstruct, err)
	}
	vt, err := matrix.Transpose(res.V)
	if err != nil {
		return nil, svdErrorf(opReconstruct, err)
	}
	out, err := matrix.Mul(us, vt)
	if err != nil {
		return nil, svdErrorf(opReconstruct, err)
	}

	return out, nil
}
