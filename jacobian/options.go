// SPDX-License-Identifier: MIT

package jacobian

import (
	"math/rand"

	"go.uber.org/zap"

	"github.com/katalvlaran/asnet/matrix"
	"github.com/katalvlaran/asnet/nn"
)

// Defaults used when no option overrides them.
const (
	DeviceCPU         = "cpu"
	DefaultSeed int64 = 1
)

// Option configures Build and BuildOneExample.
type Option func(*config)

type config struct {
	device   string
	noise    *matrix.Tensor
	loss     nn.Criterion
	target   int
	attack   bool
	rng      *rand.Rand
	powerIts int
	logger   *zap.Logger
}

func newConfig(opts ...Option) config {
	cfg := config{device: DeviceCPU, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.rng == nil {
		cfg.rng = rand.New(rand.NewSource(DefaultSeed))
	}

	return cfg
}

// WithDevice selects the compute device; only DeviceCPU is accepted.
func WithDevice(device string) Option {
	return func(c *config) { c.device = device }
}

// WithNoise adds noise element-wise to the samples before the forward pass.
// The noise must have the samples' shape. A nil tensor is ignored.
func WithNoise(noise *matrix.Tensor) Option {
	return func(c *config) { c.noise = noise }
}

// WithLoss differentiates loss(model(x), labels) instead of the raw outputs.
// Use a criterion with nn.ReduceNone to keep one Jacobian row per sample.
func WithLoss(loss nn.Criterion) Option {
	return func(c *config) { c.loss = loss }
}

// WithAttackTarget replaces the labels by class for every sample.
// It only matters together with WithLoss.
func WithAttackTarget(class int) Option {
	return func(c *config) {
		c.target = class
		c.attack = true
	}
}

// WithSeed seeds both the noise of BuildOneExample and the randomized SVD.
func WithSeed(seed int64) Option {
	return func(c *config) { c.rng = rand.New(rand.NewSource(seed)) }
}

// WithPowerIterations forwards q power iterations to the randomized SVD.
// Panics if q < 0.
func WithPowerIterations(q int) Option {
	if q < 0 {
		panic("jacobian: WithPowerIterations(q<0)")
	}
	return func(c *config) { c.powerIts = q }
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
