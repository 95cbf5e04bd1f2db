// SPDX-License-Identifier: MIT
// Package: matrix
//
// Element-wise kernels behind ScaleCols, Sub and AllClose. They rebuild
// U·diag(σ) from singular triplets and compare a sketch's Gram matrix
// against the Gram matrix of the rows it absorbed. Loops run in fixed
// row-major order with a flat-buffer path for *Dense.

package matrix

import (
	"math"
)

// ewScaleCols computes out[i,j] = X[i,j] * scale[j].
// Time: O(r*c). Space: O(r*c). Deterministic i→j loops.
//
// Used to form U·diag(σ) when reconstructing from singular triplets.
func ewScaleCols(X Matrix, scale []float64) (*Dense, error) {
	if err := ValidateNotNil(X); err != nil {
		return nil, matrixErrorf("ScaleCols", err)
	}
	r, c := X.Rows(), X.Cols()
	if len(scale) != c {
		return nil, matrixErrorf("ScaleCols", ErrDimensionMismatch)
	}
	out, err := NewDense(r, c)
	if err != nil {
		return nil, matrixErrorf("ScaleCols", err)
	}

	// Dense fast-path.
	if d, ok := X.(*Dense); ok {
		for i := 0; i < r; i++ {
			base := i * c
			for j := 0; j < c; j++ {
				out.data[base+j] = d.data[base+j] * scale[j]
			}
		}
		return out, nil
	}

	// Generic fallback.
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v, e := X.At(i, j)
			if e != nil {
				return nil, matrixErrorf("ScaleCols", e)
			}
			out.data[i*c+j] = v * scale[j]
		}
	}
	return out, nil
}

// ewSub computes out = a - b for same-shaped inputs.
// Time: O(r*c). Space: O(r*c).
func ewSub(a, b Matrix) (*Dense, error) {
	if err := ValidateNotNil(a); err != nil {
		return nil, matrixErrorf("Sub", err)
	}
	if err := ValidateNotNil(b); err != nil {
		return nil, matrixErrorf("Sub", err)
	}
	if err := ValidateSameShape(a, b); err != nil {
		return nil, matrixErrorf("Sub", err)
	}
	r, c := a.Rows(), a.Cols()
	out, err := NewDense(r, c)
	if err != nil {
		return nil, matrixErrorf("Sub", err)
	}
	if da, okA := a.(*Dense); okA {
		if db, okB := b.(*Dense); okB {
			for idx := range out.data {
				out.data[idx] = da.data[idx] - db.data[idx]
			}
			return out, nil
		}
	}
	var av, bv float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if av, err = a.At(i, j); err != nil {
				return nil, matrixErrorf("Sub", err)
			}
			if bv, err = b.At(i, j); err != nil {
				return nil, matrixErrorf("Sub", err)
			}
			out.data[i*c+j] = av - bv
		}
	}
	return out, nil
}

// ewAllClose checks element-wise |a-b| ≤ atol + rtol*|b| for identical shapes.
// Returns (true,nil) if all elements satisfy the relation; (false,nil) otherwise.
// Time: O(r*c). Space: O(1). Deterministic.
//
// Policy:
//   - a and b must be non-nil and have identical shapes.
//   - rtol, atol are treated as |rtol|, |atol| (negative values are normalized).
func ewAllClose(a, b Matrix, rtol, atol float64) (bool, error) {
	if math.IsNaN(rtol) || math.IsNaN(atol) || math.IsInf(rtol, 0) || math.IsInf(atol, 0) {
		return false, matrixErrorf("AllClose", ErrNaNInf)
	}
	rtol, atol = math.Abs(rtol), math.Abs(atol)

	if err := ValidateNotNil(a); err != nil {
		return false, matrixErrorf("AllClose", err)
	}
	if err := ValidateNotNil(b); err != nil {
		return false, matrixErrorf("AllClose", err)
	}
	if err := ValidateSameShape(a, b); err != nil {
		return false, matrixErrorf("AllClose", err)
	}

	r, c := a.Rows(), a.Cols()

	// Dense fast-path: operate over flat slices when both are *Dense.
	if da, okA := a.(*Dense); okA {
		if db, okB := b.(*Dense); okB {
			for idx := 0; idx < r*c; idx++ {
				if math.Abs(da.data[idx]-db.data[idx]) > atol+rtol*math.Abs(db.data[idx]) {
					return false, nil // early-exit on first violation
				}
			}
			return true, nil
		}
	}

	var av, bv float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			av, _ = a.At(i, j)
			bv, _ = b.At(i, j)
			if math.Abs(av-bv) > atol+rtol*math.Abs(bv) {
				return false, nil
			}
		}
	}

	return true, nil
}
