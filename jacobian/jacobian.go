// SPDX-License-Identifier: MIT

package jacobian

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/katalvlaran/asnet/matrix"
	"github.com/katalvlaran/asnet/nn"
	"github.com/katalvlaran/asnet/randsvd"
	"github.com/katalvlaran/asnet/subspace"
)

// Model is the network differentiated by Build. nn.Sequential implements it.
// Models that also implement nn.InplaceSetter get their in-place
// activations switched off first.
type Model interface {
	Eval()
	Forward(x *nn.Variable) (*matrix.Dense, error)
	Backward(grad *matrix.Dense) error
}

// GradMatrix returns the Jacobian of fx with respect to x, one backward pass
// per output column. For column i every row of fx is seeded with a one-hot
// gradient at i; backward must propagate that seed into x (keeping its graph
// for the next column). Row s*C+i of the result holds ∂fx[s,i]/∂x[s,:], so the
// shape is (rows(x)·cols(fx)) × cols(x).
//
// Errors: matrix.ErrNilMatrix, ErrNilBackward, ErrNotTracked (checked before
// any backward pass), and whatever backward returns.
func GradMatrix(x *nn.Variable, fx *matrix.Dense, backward func(*matrix.Dense) error) (*matrix.Dense, error) {
	const op = "jacobian.GradMatrix"
	if x == nil || x.Value() == nil || fx == nil {
		return nil, jacobianErrorf(op, matrix.ErrNilMatrix)
	}
	if backward == nil {
		return nil, jacobianErrorf(op, ErrNilBackward)
	}
	if !x.RequiresGrad() {
		return nil, jacobianErrorf(op, ErrNotTracked)
	}

	samples, features := x.Value().Shape()
	rows, outputs := fx.Shape()
	out := make([]float64, samples*outputs*features)
	for i := 0; i < outputs; i++ {
		seed, err := matrix.NewDense(rows, outputs)
		if err != nil {
			return nil, jacobianErrorf(op, err)
		}
		raw := seed.RawData()
		for r := 0; r < rows; r++ {
			raw[r*outputs+i] = 1
		}

		x.ZeroGrad()
		if err = backward(seed); err != nil {
			return nil, jacobianErrorf(fmt.Sprintf("%s[output %d]", op, i), err)
		}
		g := x.Grad()
		if g == nil {
			return nil, jacobianErrorf(op, ErrNotTracked)
		}
		for s := 0; s < samples; s++ {
			at := (s*outputs + i) * features
			copy(out[at:at+features], g.RawRow(s))
		}
	}

	return matrix.NewDenseFromData(samples*outputs, features, out)
}

// Build computes the Jacobian of model (or of the loss, with WithLoss) with
// respect to the samples and returns the rank-rMax active subspace of its
// rows together with the rMax leading singular values.
//
// Steps: switch off in-place activations, eval mode, add WithNoise noise,
// forward, broadcast a single label to the whole batch, apply the loss with
// labels or the WithAttackTarget class, GradMatrix, randomized SVD.
//
// labels may be nil when no loss is configured.
//
// Errors: ErrUnsupportedDevice, ErrInplaceActivation, ErrBadNoise,
// randsvd.ErrRankTooLarge, and errors from the model, loss and GradMatrix.
func Build(model Model, samples *matrix.Tensor, labels []int, rMax int, opts ...Option) (*subspace.Model, []float64, error) {
	const op = "jacobian.Build"
	cfg := newConfig(opts...)
	if err := prepare(model, cfg); err != nil {
		return nil, nil, jacobianErrorf(op, err)
	}
	if samples == nil {
		return nil, nil, jacobianErrorf(op, matrix.ErrNilMatrix)
	}
	x := samples.Clone()
	if cfg.noise != nil {
		if err := addNoise(x, cfg.noise); err != nil {
			return nil, nil, jacobianErrorf(op, err)
		}
	}

	g, err := jacobianRows(model, x.Flatten(), labels, cfg)
	if err != nil {
		return nil, nil, jacobianErrorf(op, err)
	}

	return decompose(op, g, rMax, cfg)
}

// BuildOneExample stacks the Jacobians of numNoise perturbed copies of one
// example, sample + noiseLevel·N(0, 1), and decomposes them like Build.
//
// Errors: ErrBadNoise for numNoise < 1 or noiseLevel < 0, plus those of Build.
func BuildOneExample(model Model, sample *matrix.Tensor, label, numNoise int, noiseLevel float64, rMax int, opts ...Option) (*subspace.Model, []float64, error) {
	const op = "jacobian.BuildOneExample"
	if numNoise < 1 || noiseLevel < 0 {
		return nil, nil, jacobianErrorf(op, fmt.Errorf("count %d, level %g: %w", numNoise, noiseLevel, ErrBadNoise))
	}
	cfg := newConfig(opts...)
	if err := prepare(model, cfg); err != nil {
		return nil, nil, jacobianErrorf(op, err)
	}
	if sample == nil {
		return nil, nil, jacobianErrorf(op, matrix.ErrNilMatrix)
	}

	var (
		stacked  []float64
		rows     int
		features = sample.Features()
	)
	for k := 0; k < numNoise; k++ {
		x := sample.Clone()
		for i, v := range x.Data() {
			x.Data()[i] = v + noiseLevel*cfg.rng.NormFloat64()
		}
		g, err := jacobianRows(model, x.Flatten(), []int{label}, cfg)
		if err != nil {
			return nil, nil, jacobianErrorf(fmt.Sprintf("%s[copy %d]", op, k), err)
		}
		stacked = append(stacked, g.RawData()...)
		rows += g.Rows()
	}
	g, err := matrix.NewDenseFromData(rows, features, stacked)
	if err != nil {
		return nil, nil, jacobianErrorf(op, err)
	}

	return decompose(op, g, rMax, cfg)
}

// prepare checks the device and leaves the model in eval mode without
// in-place activations.
func prepare(model Model, cfg config) error {
	if model == nil {
		return fmt.Errorf("model: %w", matrix.ErrNilMatrix)
	}
	if cfg.device != DeviceCPU {
		return fmt.Errorf("%q: %w", cfg.device, ErrUnsupportedDevice)
	}
	if s, ok := model.(nn.InplaceSetter); ok {
		s.SetInplace(false)
	}
	if r, ok := model.(nn.InplaceReporter); ok && r.Inplace() {
		return ErrInplaceActivation
	}
	model.Eval()

	return nil
}

func addNoise(x, noise *matrix.Tensor) error {
	xs, ns := x.Shape(), noise.Shape()
	if len(xs) != len(ns) {
		return fmt.Errorf("noise shape %v, samples %v: %w", ns, xs, ErrBadNoise)
	}
	for i := range xs {
		if xs[i] != ns[i] {
			return fmt.Errorf("noise shape %v, samples %v: %w", ns, xs, ErrBadNoise)
		}
	}
	nd := noise.Data()
	for i := range x.Data() {
		x.Data()[i] += nd[i]
	}
	return nil
}

// jacobianRows runs the forward pass on a tracked copy of x and returns the
// Jacobian of the outputs, or of the loss when one is configured.
func jacobianRows(model Model, x *matrix.Dense, labels []int, cfg config) (*matrix.Dense, error) {
	v := nn.NewVariable(x, true)
	out, err := model.Forward(v)
	if err != nil {
		return nil, err
	}
	if cfg.loss == nil {
		return GradMatrix(v, out, model.Backward)
	}

	batch := out.Rows()
	target := labels
	switch {
	case cfg.attack:
		target = repeat(cfg.target, batch)
	case len(labels) == 1:
		// a single label stands for the whole batch
		target = repeat(labels[0], batch)
	}
	l, err := cfg.loss.Forward(out, target)
	if err != nil {
		return nil, err
	}
	// l is already a column: 1×1 for reduced losses, batch×1 for ReduceNone.
	return GradMatrix(v, l, func(seed *matrix.Dense) error {
		gp, err := cfg.loss.Backward(seed)
		if err != nil {
			return err
		}
		return model.Backward(gp)
	})
}

func repeat(label, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = label
	}
	return out
}

func decompose(op string, g *matrix.Dense, rMax int, cfg config) (*subspace.Model, []float64, error) {
	res, err := randsvd.Decompose(g, rMax,
		randsvd.WithRand(cfg.rng),
		randsvd.WithPowerIterations(cfg.powerIts),
	)
	if err != nil {
		return nil, nil, jacobianErrorf(op, err)
	}
	cfg.logger.Debug("jacobian decomposed",
		zap.Int("rows", g.Rows()),
		zap.Int("features", g.Cols()),
		zap.Int("rank", rMax),
		zap.Float64("sigma_max", res.Sigma[0]),
	)
	m, err := subspace.New(res.V, rMax)
	if err != nil {
		return nil, nil, jacobianErrorf(op, err)
	}

	return m, res.Sigma, nil
}
