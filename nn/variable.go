// SPDX-License-Identifier: MIT

package nn

import "github.com/katalvlaran/asnet/matrix"

// Variable is a batch × features input that may collect a gradient.
// Only the input of a network is a Variable; intermediate values are plain
// matrices cached by the layers.
type Variable struct {
	value        *matrix.Dense
	requiresGrad bool
	grad         *matrix.Dense
}

// NewVariable wraps value. When requiresGrad is true, Backward accumulates
// ∂loss/∂value into Grad().
func NewVariable(value *matrix.Dense, requiresGrad bool) *Variable {
	return &Variable{value: value, requiresGrad: requiresGrad}
}

// Value returns the wrapped matrix (shared).
func (v *Variable) Value() *matrix.Dense { return v.value }

// RequiresGrad reports whether gradients are tracked for v.
func (v *Variable) RequiresGrad() bool { return v.requiresGrad }

// SetRequiresGrad toggles gradient tracking.
func (v *Variable) SetRequiresGrad(on bool) { v.requiresGrad = on }

// Grad returns the accumulated gradient, or nil if none has been recorded.
func (v *Variable) Grad() *matrix.Dense { return v.grad }

// ZeroGrad drops the accumulated gradient.
func (v *Variable) ZeroGrad() { v.grad = nil }

// accumulate adds g into the stored gradient.
func (v *Variable) accumulate(g *matrix.Dense) {
	if v.grad == nil {
		v.grad = g.Copy()
		return
	}
	dst := v.grad.RawData()
	for i, x := range g.RawData() {
		dst[i] += x
	}
}
