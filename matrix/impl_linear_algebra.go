// SPDX-License-Identifier: MIT
// Package matrix provides universal operations on any Matrix implementation:
// matrix multiplication (plain and with a transposed left operand), transpose,
// scalar and per-row scaling, and a thin Householder QR. All functions perform
// strict fail-fast validation and return clear errors on dimension mismatches.
//
// Notes:
//   - *Dense operands take a gonum/BLAS fast path (the storage is shared, not copied).
//   - Other Matrix implementations fall back to deterministic At/Set loops.

package matrix

import (
	"fmt"
	"math"
)

// NormZero is the additive identity for norm and accumulation operations.
const NormZero = 0.0

// ZeroSum is the initial sum value for dot products and similar.
const ZeroSum = 0.0

// Operation name constants for unified error wrapping and reducing magic strings.
const (
	opMul       = "Mul"
	opMulTransA = "MulTransA"
	opTranspose = "Transpose"
	opScale     = "Scale"
	opScaleRows = "ScaleRows"
	opQR        = "QR"
)

// matrixErrorf wraps err with an operation tag, preserving the original error via %w.
// Use only when err != nil to avoid creating a non-nil wrapper around a nil cause.
func matrixErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// Mul computes the matrix product C = A × B and returns a fresh Dense.
//
// Implementation:
//   - Stage 1: ValidateMulCompatible(a, b). Allocate result Dense(a.Rows, b.Cols).
//   - Stage 2: If both are *Dense, multiply through gonum into the result's
//     own storage; otherwise use the generic i→j→k loop.
//
// Errors:
//   - ErrNilMatrix (nil input), ErrDimensionMismatch (inner mismatch).
//
// Complexity:
//   - Time O(r*n*c), Space O(r*c).
func Mul(a, b Matrix) (*Dense, error) {
	if err := ValidateMulCompatible(a, b); err != nil {
		return nil, matrixErrorf(opMul, err)
	}
	aRows, aCols, bCols := a.Rows(), a.Cols(), b.Cols()
	res, err := NewDense(aRows, bCols)
	if err != nil {
		return nil, matrixErrorf(opMul, err)
	}

	// Fast path: BLAS-backed product written straight into res.data.
	if da, okA := a.(*Dense); okA {
		if db, okB := b.(*Dense); okB {
			res.Gonum().Mul(da.Gonum(), db.Gonum())
			return res, nil
		}
	}

	// Fallback: generic interface triple-loop (i-j-k).
	var (
		i, j, k         int
		av, bv, current float64
	)
	for i = 0; i < aRows; i++ {
		for j = 0; j < bCols; j++ {
			current = ZeroSum
			for k = 0; k < aCols; k++ {
				if av, err = a.At(i, k); err != nil {
					return nil, matrixErrorf(opMul, err)
				}
				if av == 0 {
					continue // skip zero for performance
				}
				if bv, err = b.At(k, j); err != nil {
					return nil, matrixErrorf(opMul, err)
				}
				current += av * bv
			}
			res.data[i*bCols+j] = current
		}
	}

	return res, nil
}

// MulTransA computes C = Aᵀ × B without materializing Aᵀ.
//
// Errors:
//   - ErrNilMatrix, ErrDimensionMismatch (a.Rows != b.Rows).
//
// Complexity:
//   - Time O(a.Cols*a.Rows*b.Cols), Space O(a.Cols*b.Cols).
func MulTransA(a, b *Dense) (*Dense, error) {
	if a == nil || b == nil {
		return nil, matrixErrorf(opMulTransA, ErrNilMatrix)
	}
	if a.r != b.r {
		return nil, matrixErrorf(opMulTransA, ErrDimensionMismatch)
	}
	res, err := NewDense(a.c, b.c)
	if err != nil {
		return nil, matrixErrorf(opMulTransA, err)
	}
	res.Gonum().Mul(a.Gonum().T(), b.Gonum())

	return res, nil
}

// Transpose returns a new matrix with rows and columns swapped (mᵀ).
// The original matrix is never mutated.
//
// Errors:
//   - ErrNilMatrix.
//
// Complexity:
//   - Time O(r*c), Space O(r*c).
func Transpose(m Matrix) (*Dense, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opTranspose, err)
	}
	rows, cols := m.Rows(), m.Cols()
	res, err := NewDense(cols, rows)
	if err != nil {
		return nil, matrixErrorf(opTranspose, err)
	}
	var i, j int
	if dm, ok := m.(*Dense); ok {
		var base int
		for i = 0; i < rows; i++ {
			base = i * cols
			for j = 0; j < cols; j++ {
				res.data[j*rows+i] = dm.data[base+j]
			}
		}
		return res, nil
	}
	var v float64
	for i = 0; i < rows; i++ {
		for j = 0; j < cols; j++ {
			if v, err = m.At(i, j); err != nil {
				return nil, matrixErrorf(opTranspose, err)
			}
			res.data[j*rows+i] = v
		}
	}

	return res, nil
}

// Scale returns alpha*m as a fresh Dense.
//
// Errors:
//   - ErrNilMatrix; ErrNaNInf when alpha is not finite.
//
// Complexity: O(r*c).
func Scale(m Matrix, alpha float64) (*Dense, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opScale, err)
	}
	if math.IsNaN(alpha) || math.IsInf(alpha, 0) {
		return nil, matrixErrorf(opScale, ErrNaNInf)
	}
	res, err := NewDense(m.Rows(), m.Cols())
	if err != nil {
		return nil, matrixErrorf(opScale, err)
	}
	if dm, ok := m.(*Dense); ok {
		for idx, v := range dm.data {
			res.data[idx] = alpha * v
		}
		return res, nil
	}
	var i, j int
	var v float64
	for i = 0; i < res.r; i++ {
		for j = 0; j < res.c; j++ {
			if v, err = m.At(i, j); err != nil {
				return nil, matrixErrorf(opScale, err)
			}
			res.data[i*res.c+j] = alpha * v
		}
	}

	return res, nil
}

// ScaleRows returns diag(s) × m: row i of the result is s[i] times row i of m.
//
// Errors:
//   - ErrNilMatrix; ErrDimensionMismatch when len(s) != m.Rows().
//
// Complexity: O(r*c).
func ScaleRows(s []float64, m *Dense) (*Dense, error) {
	if m == nil {
		return nil, matrixErrorf(opScaleRows, ErrNilMatrix)
	}
	if err := ValidateVecLen(s, m.r); err != nil {
		return nil, matrixErrorf(opScaleRows, err)
	}
	res := m.Copy()
	var i, j, base int
	for i = 0; i < m.r; i++ {
		base = i * m.c
		for j = 0; j < m.c; j++ {
			res.data[base+j] *= s[i]
		}
	}

	return res, nil
}

// QR computes a thin Householder factorization A = Q × R of a tall matrix.
//
// Implementation:
//   - Stage 1: Validate m (not nil, rows >= cols); copy A into a working buffer.
//   - Stage 2: For k=0..n-1, build a column reflector and apply it to the
//     trailing columns (forming R in the upper triangle).
//   - Stage 3: Accumulate Q (m×n) by applying the reflectors, last to first,
//     to the first n columns of the identity.
//
// Behavior highlights:
//   - Q always has orthonormal columns, even when A is rank-deficient
//     (zero columns simply skip their reflector).
//
// Returns:
//   - *Dense: Q (m×n, orthonormal columns).
//   - *Dense: R (n×n, upper triangular).
//
// Errors:
//   - ErrNilMatrix, ErrNotTall.
//
// Complexity:
//   - Time O(m*n^2), Space O(m*n).
func QR(m Matrix) (*Dense, *Dense, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, nil, matrixErrorf(opQR, err)
	}
	rows, cols := m.Rows(), m.Cols()
	if rows < cols {
		return nil, nil, matrixErrorf(opQR, fmt.Errorf("%dx%d: %w", rows, cols, ErrNotTall))
	}

	// Working copy of A (row-major, rows×cols).
	var A *Dense
	if dm, ok := m.(*Dense); ok {
		A = dm.Copy()
	} else {
		var err error
		if A, err = NewDense(rows, cols); err != nil {
			return nil, nil, matrixErrorf(opQR, err)
		}
		var i, j int
		var v float64
		for i = 0; i < rows; i++ {
			for j = 0; j < cols; j++ {
				if v, err = m.At(i, j); err != nil {
					return nil, nil, matrixErrorf(opQR, err)
				}
				A.data[i*cols+j] = v
			}
		}
	}

	// Reflectors: vs[k] spans rows k..rows-1; taus[k]==0 marks a skipped column.
	vs := make([][]float64, cols)
	taus := make([]float64, cols)

	var (
		i, j, k    int
		norm, beta float64
		alpha, tau float64
		sum, aij   float64
	)
	for k = 0; k < cols; k++ {
		// Norm of A[k:rows, k].
		norm = NormZero
		for i = k; i < rows; i++ {
			aij = A.data[i*cols+k]
			norm += aij * aij
		}
		norm = math.Sqrt(norm)
		if norm == NormZero {
			continue // zero column: no reflector
		}

		// alpha = -sign(A[k,k]) * norm avoids cancellation in v[0].
		alpha = -math.Copysign(norm, A.data[k*cols+k])

		v := make([]float64, rows-k)
		for i = k; i < rows; i++ {
			v[i-k] = A.data[i*cols+k]
		}
		v[0] -= alpha

		beta = NormZero
		for _, x := range v {
			beta += x * x
		}
		if beta == NormZero {
			continue
		}
		tau = 2.0 / beta

		// Apply H = I - tau v vᵀ to A[k:rows, k:cols].
		for j = k; j < cols; j++ {
			sum = ZeroSum
			for i = k; i < rows; i++ {
				sum += v[i-k] * A.data[i*cols+j]
			}
			for i = k; i < rows; i++ {
				A.data[i*cols+j] -= tau * v[i-k] * sum
			}
		}
		vs[k], taus[k] = v, tau
	}

	// R: upper triangle of the reduced A.
	R, err := NewDense(cols, cols)
	if err != nil {
		return nil, nil, matrixErrorf(opQR, err)
	}
	for i = 0; i < cols; i++ {
		for j = i; j < cols; j++ {
			R.data[i*cols+j] = A.data[i*cols+j]
		}
	}

	// Q = H_0 H_1 ... H_{n-1} I[:, :n], applied right-to-left.
	Q, err := NewDense(rows, cols)
	if err != nil {
		return nil, nil, matrixErrorf(opQR, err)
	}
	for i = 0; i < cols; i++ {
		Q.data[i*cols+i] = 1.0
	}
	for k = cols - 1; k >= 0; k-- {
		if taus[k] == 0 {
			continue
		}
		v := vs[k]
		for j = 0; j < cols; j++ {
			sum = ZeroSum
			for i = k; i < rows; i++ {
				sum += v[i-k] * Q.data[i*cols+j]
			}
			if sum == ZeroSum {
				continue
			}
			for i = k; i < rows; i++ {
				Q.data[i*cols+j] -= taus[k] * v[i-k] * sum
			}
		}
	}

	return Q, R, nil
}
