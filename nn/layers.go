// SPDX-License-Identifier: MIT

package nn

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/katalvlaran/asnet/matrix"
)

// Layer is one differentiable stage of a Sequential network.
//
// Forward caches whatever Backward needs; Backward may be called any number
// of times after a single Forward (the graph is retained until the next Forward).
type Layer interface {
	Name() string
	Forward(x *matrix.Dense) (*matrix.Dense, error)
	// Backward maps ∂L/∂output to ∂L/∂input and accumulates parameter gradients.
	Backward(gradOut *matrix.Dense) (*matrix.Dense, error)
}

// InplaceSetter is implemented by layers and models whose activations can
// run in place.
type InplaceSetter interface {
	SetInplace(on bool)
}

// InplaceReporter reports whether any in-place activation is active.
type InplaceReporter interface {
	Inplace() bool
}

// ---------- Linear ----------

// Linear computes y = x·W + b with W in×out.
type Linear struct {
	W     *matrix.Dense
	B     []float64
	GradW *matrix.Dense
	GradB []float64

	x *matrix.Dense // cached input
}

// NewLinear initializes W and b from U(-1/sqrt(in), 1/sqrt(in)) drawn from rng.
// Panics if in or out is not positive, or rng is nil.
func NewLinear(in, out int, rng *rand.Rand) *Linear {
	if in < 1 || out < 1 {
		panic("nn: NewLinear requires in, out >= 1")
	}
	if rng == nil {
		panic("nn: NewLinear(rng=nil)")
	}
	bound := 1 / math.Sqrt(float64(in))
	w := make([]float64, in*out)
	for i := range w {
		w[i] = (2*rng.Float64() - 1) * bound
	}
	b := make([]float64, out)
	for i := range b {
		b[i] = (2*rng.Float64() - 1) * bound
	}
	W, _ := matrix.NewDenseFromData(in, out, w)

	return &Linear{W: W, B: b}
}

// NewLinearFromWeights builds a Linear with explicit weights (copied).
// A nil bias means zero bias.
func NewLinearFromWeights(w *matrix.Dense, b []float64) (*Linear, error) {
	if w == nil {
		return nil, nnErrorf("NewLinearFromWeights", matrix.ErrNilMatrix)
	}
	if b == nil {
		b = make([]float64, w.Cols())
	}
	if len(b) != w.Cols() {
		return nil, nnErrorf("NewLinearFromWeights", matrix.ErrDimensionMismatch)
	}

	return &Linear{W: w.Copy(), B: append([]float64(nil), b...)}, nil
}

// In returns the input width.
func (l *Linear) In() int { return l.W.Rows() }

// Out returns the output width.
func (l *Linear) Out() int { return l.W.Cols() }

func (l *Linear) Name() string { return fmt.Sprintf("Linear(%d→%d)", l.In(), l.Out()) }

func (l *Linear) Forward(x *matrix.Dense) (*matrix.Dense, error) {
	y, err := matrix.Mul(x, l.W)
	if err != nil {
		return nil, nnErrorf(l.Name(), err)
	}
	out := l.Out()
	data := y.RawData()
	for i := 0; i < y.Rows(); i++ {
		row := data[i*out : (i+1)*out]
		for j := range row {
			row[j] += l.B[j]
		}
	}
	l.x = x

	return y, nil
}

func (l *Linear) Backward(gradOut *matrix.Dense) (*matrix.Dense, error) {
	if l.x == nil {
		return nil, nnErrorf(l.Name(), ErrNoGraph)
	}
	// ∂L/∂W = xᵀ·g
	gw, err := matrix.MulTransA(l.x, gradOut)
	if err != nil {
		return nil, nnErrorf(l.Name(), err)
	}
	if l.GradW == nil {
		l.GradW = gw
		l.GradB = make([]float64, l.Out())
	} else {
		dst := l.GradW.RawData()
		for i, v := range gw.RawData() {
			dst[i] += v
		}
	}
	out := l.Out()
	g := gradOut.RawData()
	for i := 0; i < gradOut.Rows(); i++ {
		for j := 0; j < out; j++ {
			l.GradB[j] += g[i*out+j]
		}
	}

	// ∂L/∂x = g·Wᵀ
	wt, err := matrix.Transpose(l.W)
	if err != nil {
		return nil, nnErrorf(l.Name(), err)
	}
	gx, err := matrix.Mul(gradOut, wt)
	if err != nil {
		return nil, nnErrorf(l.Name(), err)
	}

	return gx, nil
}

// ZeroGrad clears the parameter gradients.
func (l *Linear) ZeroGrad() {
	l.GradW, l.GradB = nil, nil
}

// ---------- ReLU ----------

// ReLU computes max(0, x). With in-place mode on, the input buffer is overwritten.
type ReLU struct {
	inplace bool
	y       *matrix.Dense // cached output; y > 0 ⇔ x > 0
}

// NewReLU returns a ReLU; inplace selects the overwriting variant.
func NewReLU(inplace bool) *ReLU { return &ReLU{inplace: inplace} }

func (r *ReLU) Name() string {
	if r.inplace {
		return "ReLU(inplace)"
	}
	return "ReLU"
}

// SetInplace implements InplaceSetter.
func (r *ReLU) SetInplace(on bool) { r.inplace = on }

// Inplace implements InplaceReporter.
func (r *ReLU) Inplace() bool { return r.inplace }

func (r *ReLU) Forward(x *matrix.Dense) (*matrix.Dense, error) {
	y := x
	if !r.inplace {
		y = x.Copy()
	}
	if err := y.Apply(func(_, _ int, v float64) float64 { return max(v, 0) }); err != nil {
		return nil, nnErrorf(r.Name(), err)
	}
	r.y = y

	return y, nil
}

func (r *ReLU) Backward(gradOut *matrix.Dense) (*matrix.Dense, error) {
	if r.y == nil {
		return nil, nnErrorf(r.Name(), ErrNoGraph)
	}
	gx := gradOut.Copy()
	mask := r.y.RawData()
	data := gx.RawData()
	for i := range data {
		if mask[i] <= 0 {
			data[i] = 0
		}
	}

	return gx, nil
}

// ---------- LogSoftmax ----------

// LogSoftmax computes row-wise log(softmax(x)) with the max-shift trick.
type LogSoftmax struct {
	y *matrix.Dense
}

// NewLogSoftmax returns a LogSoftmax layer.
func NewLogSoftmax() *LogSoftmax { return &LogSoftmax{} }

func (s *LogSoftmax) Name() string { return "LogSoftmax" }

func (s *LogSoftmax) Forward(x *matrix.Dense) (*matrix.Dense, error) {
	y := x.Copy()
	c := y.Cols()
	data := y.RawData()
	for i := 0; i < y.Rows(); i++ {
		row := data[i*c : (i+1)*c]
		mx := math.Inf(-1)
		for _, v := range row {
			mx = math.Max(mx, v)
		}
		sum := 0.0
		for _, v := range row {
			sum += math.Exp(v - mx)
		}
		lse := mx + math.Log(sum)
		for j := range row {
			row[j] -= lse
		}
	}
	s.y = y

	return y, nil
}

// Backward: ∂x_j = g_j − softmax_j · Σ_k g_k.
func (s *LogSoftmax) Backward(gradOut *matrix.Dense) (*matrix.Dense, error) {
	if s.y == nil {
		return nil, nnErrorf(s.Name(), ErrNoGraph)
	}
	gx := gradOut.Copy()
	c := gx.Cols()
	g := gx.RawData()
	y := s.y.RawData()
	for i := 0; i < gx.Rows(); i++ {
		sum := 0.0
		for j := 0; j < c; j++ {
			sum += g[i*c+j]
		}
		for j := 0; j < c; j++ {
			g[i*c+j] -= math.Exp(y[i*c+j]) * sum
		}
	}

	return gx, nil
}
