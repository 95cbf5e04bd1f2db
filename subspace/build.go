// SPDX-License-Identifier: MIT

package subspace

import (
	"fmt"

	"github.com/katalvlaran/asnet/capture"
	"github.com/katalvlaran/asnet/matrix"
)

// BuildFromSketches turns every sketch of table into a Model of rank rMax.
// For each layer (ascending id) the sketch's right singular vectors are
// transposed into an n×d basis and truncated to rMax columns; Σ is truncated
// the same way.
//
// Errors: ErrInvalidRank when rMax < 1 or rMax exceeds a sketch's rank;
// decomposition errors from the sketch.
func BuildFromSketches(table *capture.Table, rMax int) (map[int]*Model, map[int][]float64, error) {
	const op = "subspace.BuildFromSketches"
	if table == nil {
		return nil, nil, subspaceErrorf(op, matrix.ErrNilMatrix)
	}
	models := make(map[int]*Model, table.Len())
	sigmas := make(map[int][]float64, table.Len())
	for _, id := range table.Layers() {
		fd, _ := table.Get(id)
		if rMax < 1 || rMax > fd.Rank() {
			return nil, nil, subspaceErrorf(op, fmt.Errorf("layer %d: rMax=%d, sketch rank %d: %w", id, rMax, fd.Rank(), ErrInvalidRank))
		}
		sigma, vt, err := fd.Singular()
		if err != nil {
			return nil, nil, subspaceErrorf(op, fmt.Errorf("layer %d: %w", id, err))
		}
		v, err := matrix.Transpose(vt)
		if err != nil {
			return nil, nil, subspaceErrorf(op, err)
		}
		if v, err = matrix.FirstCols(v, rMax); err != nil {
			return nil, nil, subspaceErrorf(op, err)
		}
		m, err := New(v, rMax)
		if err != nil {
			return nil, nil, subspaceErrorf(op, err)
		}
		models[id] = m
		sigmas[id] = append([]float64(nil), sigma[:rMax]...)
	}

	return models, sigmas, nil
}
