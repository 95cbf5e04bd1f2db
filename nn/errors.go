// SPDX-License-Identifier: MIT

package nn

import (
	"errors"
	"fmt"
)

// ErrNoGraph indicates Backward was called before any Forward.
var ErrNoGraph = errors.New("nn: backward without a recorded forward pass")

// ErrLayerIndex indicates a layer position outside [0, Len()).
var ErrLayerIndex = errors.New("nn: layer index out of range")

// ErrInplaceOnTracked indicates an in-place activation would overwrite a
// gradient-tracked input.
var ErrInplaceOnTracked = errors.New("nn: in-place operation on a tracked input")

// ErrBadTarget indicates labels that do not match the prediction batch or class count.
var ErrBadTarget = errors.New("nn: invalid target labels")

// ErrBadReduction indicates an unknown loss reduction.
var ErrBadReduction = errors.New("nn: unknown reduction")

// ErrNilHook indicates a nil hook passed to RegisterBackwardHook.
var ErrNilHook = errors.New("nn: nil hook")

func nnErrorf(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
