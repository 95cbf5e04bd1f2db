// SPDX-License-Identifier: MIT
// Package: matrix
//
// Tensor is a minimal N-d batch container: a shape plus a flat row-major
// buffer. Dimension 0 is always the batch; Flatten collapses every other
// dimension into a batch × features Dense that shares the buffer.

package matrix

import "fmt"

// Tensor holds batched samples of arbitrary rank.
type Tensor struct {
	shape []int
	data  []float64
}

// NewTensor allocates a zero-filled tensor of the given shape.
func NewTensor(shape ...int) (*Tensor, error) {
	n, err := shapeSize(shape)
	if err != nil {
		return nil, err
	}

	return &Tensor{shape: append([]int(nil), shape...), data: make([]float64, n)}, nil
}

// NewTensorFromData copies data into a tensor of the given shape.
func NewTensorFromData(data []float64, shape ...int) (*Tensor, error) {
	n, err := shapeSize(shape)
	if err != nil {
		return nil, err
	}
	if len(data) != n {
		return nil, fmt.Errorf("NewTensorFromData: len %d for shape %v: %w", len(data), shape, ErrBadShape)
	}
	if DefaultValidateNaNInf {
		if err = ValidateFiniteVec(data); err != nil {
			return nil, fmt.Errorf("NewTensorFromData: %w", err)
		}
	}

	return &Tensor{shape: append([]int(nil), shape...), data: append([]float64(nil), data...)}, nil
}

// TensorFromDense wraps a batch × features Dense as a rank-2 tensor sharing its storage.
func TensorFromDense(d *Dense) (*Tensor, error) {
	if d == nil {
		return nil, fmt.Errorf("TensorFromDense: %w", ErrNilMatrix)
	}

	return &Tensor{shape: []int{d.r, d.c}, data: d.data}, nil
}

func shapeSize(shape []int) (int, error) {
	if len(shape) < 2 {
		return 0, fmt.Errorf("shape %v: %w", shape, ErrBadTensorShape)
	}
	n := 1
	for _, s := range shape {
		if s <= 0 {
			return 0, fmt.Errorf("shape %v: %w", shape, ErrBadTensorShape)
		}
		n *= s
	}

	return n, nil
}

// Shape returns a copy of the tensor's dimensions.
func (t *Tensor) Shape() []int { return append([]int(nil), t.shape...) }

// Batch returns the size of dimension 0.
func (t *Tensor) Batch() int { return t.shape[0] }

// Features returns the product of all non-batch dimensions.
func (t *Tensor) Features() int { return len(t.data) / t.shape[0] }

// Data exposes the flat buffer (no copy).
func (t *Tensor) Data() []float64 { return t.data }

// Flatten returns a Batch() × Features() Dense sharing the tensor's buffer.
func (t *Tensor) Flatten() *Dense {
	return wrapDense(t.Batch(), t.Features(), t.data)
}

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	return &Tensor{shape: t.Shape(), data: append([]float64(nil), t.data...)}
}
