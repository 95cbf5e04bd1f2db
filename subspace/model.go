// SPDX-License-Identifier: MIT

package subspace

import (
	"fmt"

	"github.com/katalvlaran/asnet/matrix"
)

// Model projects flattened inputs onto the first r columns of a fixed
// n×rMax basis. Shrinking or regrowing r never reallocates the basis.
//
// A Model is not safe for concurrent use with SetRank.
type Model struct {
	full *matrix.Dense // n × rMax, owned
	r    int
}

// New copies V (n_features × r_max) and activates its first r columns.
//
// Errors: matrix.ErrNilMatrix, ErrInvalidRank when r is outside [1, cols(V)].
func New(v *matrix.Dense, r int) (*Model, error) {
	if err := matrix.ValidateNotNil(v); err != nil {
		return nil, subspaceErrorf("subspace.New", err)
	}
	if r < 1 || r > v.Cols() {
		return nil, subspaceErrorf("subspace.New", fmt.Errorf("r=%d with %d basis columns: %w", r, v.Cols(), ErrInvalidRank))
	}

	return &Model{full: v.Copy(), r: r}, nil
}

// Rank returns the active rank r.
func (m *Model) Rank() int { return m.r }

// MaxRank returns r_max, the number of stored basis columns.
func (m *Model) MaxRank() int { return m.full.Cols() }

// Features returns n_features.
func (m *Model) Features() int { return m.full.Rows() }

// SetRank changes the active rank. Any r in [1, MaxRank] is accepted,
// including a rank larger than the current one.
func (m *Model) SetRank(r int) error {
	if r < 1 || r > m.MaxRank() {
		return subspaceErrorf("Model.SetRank", fmt.Errorf("r=%d, max %d: %w", r, m.MaxRank(), ErrInvalidRank))
	}
	m.r = r
	return nil
}

// Basis returns a copy of the active n×r basis.
func (m *Model) Basis() *matrix.Dense {
	b, _ := matrix.FirstCols(m.full, m.r) // 1 <= r <= cols holds by construction
	return b
}

// Apply flattens every non-batch dimension of x and returns x_flat·V_active (batch × r).
//
// Errors: matrix.ErrNilMatrix, matrix.ErrDimensionMismatch.
func (m *Model) Apply(x *matrix.Tensor) (*matrix.Dense, error) {
	if x == nil {
		return nil, subspaceErrorf("Model.Apply", matrix.ErrNilMatrix)
	}
	out, err := m.ApplyDense(x.Flatten())
	if err != nil {
		return nil, subspaceErrorf("Model.Apply", err)
	}
	return out, nil
}

// ApplyDense projects the rows of a batch × n_features matrix.
func (m *Model) ApplyDense(x *matrix.Dense) (*matrix.Dense, error) {
	if err := matrix.ValidateNotNil(x); err != nil {
		return nil, subspaceErrorf("Model.ApplyDense", err)
	}
	if x.Cols() != m.Features() {
		return nil, subspaceErrorf("Model.ApplyDense",
			fmt.Errorf("%d features, basis has %d: %w", x.Cols(), m.Features(), matrix.ErrDimensionMismatch))
	}
	out, err := matrix.NewDense(x.Rows(), m.r)
	if err != nil {
		return nil, subspaceErrorf("Model.ApplyDense", err)
	}
	// The active basis is a gonum slice of the stored one, so no copy is made.
	out.Gonum().Mul(x.Gonum(), m.full.Gonum().Slice(0, m.Features(), 0, m.r))

	return out, nil
}
