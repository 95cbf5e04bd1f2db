// SPDX-License-Identifier: MIT
// Package matrix: thin entry points over the kernels used by the sketch
// and subspace packages.
//
// Facades never change loop order or numeric policy; validation lives in
// the kernels. Gram forms AᵀA without an explicit transpose.

package matrix

// ---------- Constructors & Utilities ----------

// NewIdentity returns I_n (n×n identity; ones on the diagonal, zeros elsewhere).
// Complexity: O(n^2) zeroing (constructor) + O(n) writes on the diagonal.
func NewIdentity(n int) (*Dense, error) {
	I, err := NewDense(n, n)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		I.data[i*n+i] = 1.0
	}

	return I, nil
}

// ---------- Algebra facades ----------

// Gram returns AᵀA (cols×cols). Used to compare a sketch's covariance with
// the covariance of the rows it summarizes.
// Complexity: O(r*c^2).
func Gram(a *Dense) (*Dense, error) {
	return MulTransA(a, a)
}

// Sub returns a - b for same-shaped matrices.
// Complexity: O(r*c).
func Sub(a, b Matrix) (*Dense, error) { return ewSub(a, b) }

// ScaleCols returns m · diag(s): column j is multiplied by s[j].
// Complexity: O(r*c).
func ScaleCols(m Matrix, s []float64) (*Dense, error) { return ewScaleCols(m, s) }

// AllClose checks element-wise |a-b| ≤ atol + rtol*|b| for identical shapes.
// Returns (true,nil) if all elements satisfy the relation; (false,nil) otherwise.
// NaN != anything. Deterministic.
// Time: O(r*c). Space: O(1).
//
// AI-Hints:
//   - AllClose with small atol/rtol is ideal for invariance tests in unit tests.
func AllClose(a, b Matrix, rtol, atol float64) (bool, error) {
	return ewAllClose(a, b, rtol, atol)
}

// FirstCols returns a copy of the first k columns of m.
// Errors: ErrNilMatrix, ErrBadShape when k > m.Cols(), ErrInvalidDimensions when k < 1.
// Complexity: O(r*k).
func FirstCols(m *Dense, k int) (*Dense, error) {
	if m == nil {
		return nil, matrixErrorf("FirstCols", ErrNilMatrix)
	}
	v, err := m.View(0, 0, m.r, k)
	if err != nil {
		return nil, matrixErrorf("FirstCols", err)
	}

	return v.Materialize()
}

// FirstRows returns a copy of the first k rows of m.
// Errors: ErrNilMatrix, ErrBadShape when k > m.Rows(), ErrInvalidDimensions when k < 1.
// Complexity: O(k*c).
func FirstRows(m *Dense, k int) (*Dense, error) {
	if m == nil {
		return nil, matrixErrorf("FirstRows", ErrNilMatrix)
	}
	v, err := m.View(0, 0, k, m.c)
	if err != nil {
		return nil, matrixErrorf("FirstRows", err)
	}

	return v.Materialize()
}
