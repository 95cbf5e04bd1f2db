// SPDX-License-Identifier: MIT

package nn

import (
	"fmt"

	"github.com/katalvlaran/asnet/matrix"
)

// Hook observes ∂L/∂output of one layer during Backward.
// The matrix is freshly allocated per call; hooks may keep it but must not mutate it.
type Hook func(gradOut *matrix.Dense)

// Sequential chains layers. It records the input of the last Forward and
// keeps every layer cache, so Backward can run repeatedly against that pass.
//
// A Sequential is not safe for concurrent use.
type Sequential struct {
	layers   []Layer
	hooks    map[int]map[int]Hook // layer idx → hook id → hook
	nextHook int
	training bool
	input    *Variable
}

// NewSequential returns a network running layers in order.
func NewSequential(layers ...Layer) *Sequential {
	return &Sequential{
		layers: layers,
		hooks:  make(map[int]map[int]Hook),
	}
}

// Len returns the number of layers.
func (s *Sequential) Len() int { return len(s.layers) }

// Layer returns the layer at 0-based position idx.
func (s *Sequential) Layer(idx int) (Layer, error) {
	if idx < 0 || idx >= len(s.layers) {
		return nil, nnErrorf("Sequential.Layer", fmt.Errorf("%d of %d: %w", idx, len(s.layers), ErrLayerIndex))
	}
	return s.layers[idx], nil
}

// Train switches to training mode.
func (s *Sequential) Train() { s.training = true }

// Eval switches to evaluation mode.
func (s *Sequential) Eval() { s.training = false }

// Training reports the current mode.
func (s *Sequential) Training() bool { return s.training }

// SetInplace toggles every in-place capable layer.
func (s *Sequential) SetInplace(on bool) {
	for _, l := range s.layers {
		if ip, ok := l.(InplaceSetter); ok {
			ip.SetInplace(on)
		}
	}
}

// Inplace reports whether any layer runs in place.
func (s *Sequential) Inplace() bool {
	for _, l := range s.layers {
		if ip, ok := l.(InplaceReporter); ok && ip.Inplace() {
			return true
		}
	}
	return false
}

// RegisterBackwardHook subscribes h to the output gradient of the layer at
// 0-based position idx. The returned func unsubscribes it (idempotent).
//
// Errors: ErrLayerIndex, ErrNilHook.
func (s *Sequential) RegisterBackwardHook(idx int, h Hook) (func(), error) {
	if idx < 0 || idx >= len(s.layers) {
		return nil, nnErrorf("Sequential.RegisterBackwardHook", fmt.Errorf("%d of %d: %w", idx, len(s.layers), ErrLayerIndex))
	}
	if h == nil {
		return nil, nnErrorf("Sequential.RegisterBackwardHook", ErrNilHook)
	}
	if s.hooks[idx] == nil {
		s.hooks[idx] = make(map[int]Hook)
	}
	id := s.nextHook
	s.nextHook++
	s.hooks[idx][id] = h

	return func() { delete(s.hooks[idx], id) }, nil
}

// Forward runs x through every layer and returns the network output.
//
// Errors:
//   - matrix.ErrNilMatrix for a nil input.
//   - ErrInplaceOnTracked when the first layer would overwrite a tracked input.
//   - layer errors (shape mismatches).
func (s *Sequential) Forward(x *Variable) (*matrix.Dense, error) {
	if x == nil || x.Value() == nil {
		return nil, nnErrorf("Sequential.Forward", matrix.ErrNilMatrix)
	}
	if len(s.layers) > 0 && x.RequiresGrad() {
		if ip, ok := s.layers[0].(InplaceReporter); ok && ip.Inplace() {
			return nil, nnErrorf("Sequential.Forward", ErrInplaceOnTracked)
		}
	}
	out := x.Value()
	var err error
	for i, l := range s.layers {
		if out, err = l.Forward(out); err != nil {
			return nil, nnErrorf(fmt.Sprintf("Sequential.Forward[%d]", i), err)
		}
	}
	s.input = x

	return out, nil
}

// Backward propagates ∂L/∂output back to the input, calling hooks on the way
// and accumulating into the input Variable when it tracks gradients.
// The recorded pass is retained, so Backward may be called again.
func (s *Sequential) Backward(grad *matrix.Dense) error {
	if s.input == nil {
		return nnErrorf("Sequential.Backward", ErrNoGraph)
	}
	var err error
	for i := len(s.layers) - 1; i >= 0; i-- {
		for _, h := range s.hooks[i] {
			h(grad)
		}
		if grad, err = s.layers[i].Backward(grad); err != nil {
			return nnErrorf(fmt.Sprintf("Sequential.Backward[%d]", i), err)
		}
	}
	if s.input.RequiresGrad() {
		s.input.accumulate(grad)
	}

	return nil
}

// ZeroGrad clears the parameter gradients of every Linear layer.
func (s *Sequential) ZeroGrad() {
	for _, l := range s.layers {
		if lin, ok := l.(*Linear); ok {
			lin.ZeroGrad()
		}
	}
}
