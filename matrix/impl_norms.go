// SPDX-License-Identifier: MIT
// Package: matrix
//
// Purpose:
//   - Norms used by sketch quality checks and diagnostics.
//   - Frobenius is a flat sum of squares; Spectral delegates to gonum's SVD.

package matrix

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	opFrobenius = "FrobeniusNorm"
	opSpectral  = "SpectralNorm"
)

// FrobeniusNorm returns ‖m‖_F = sqrt(Σ m[i,j]²).
// Time: O(r*c). Space: O(1).
func FrobeniusNorm(m Matrix) (float64, error) {
	if err := ValidateNotNil(m); err != nil {
		return NormZero, matrixErrorf(opFrobenius, err)
	}
	sum := NormZero
	if d, ok := m.(*Dense); ok {
		for _, v := range d.data {
			sum += v * v
		}
		return math.Sqrt(sum), nil
	}
	var (
		v   float64
		err error
	)
	for i := 0; i < m.Rows(); i++ {
		for j := 0; j < m.Cols(); j++ {
			if v, err = m.At(i, j); err != nil {
				return NormZero, matrixErrorf(opFrobenius, err)
			}
			sum += v * v
		}
	}

	return math.Sqrt(sum), nil
}

// SpectralNorm returns ‖m‖₂, the largest singular value of m.
//
// Implementation:
//   - Factorize with gonum mat.SVD (values only) and return σ₁.
//
// Errors:
//   - ErrNilMatrix; ErrNaNInf when gonum reports a failed factorization
//     (non-finite input).
//
// Complexity: O(r*c*min(r,c)).
func SpectralNorm(m *Dense) (float64, error) {
	if m == nil {
		return NormZero, matrixErrorf(opSpectral, ErrNilMatrix)
	}
	var svd mat.SVD
	if ok := svd.Factorize(m.Gonum(), mat.SVDNone); !ok {
		return NormZero, matrixErrorf(opSpectral, ErrNaNInf)
	}
	values := svd.Values(nil)
	if len(values) == 0 {
		return NormZero, nil
	}

	return values[0], nil
}
