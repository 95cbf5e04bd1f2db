// SPDX-License-Identifier: MIT

package capture

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/katalvlaran/asnet/nn"
	"github.com/katalvlaran/asnet/sketch"
)

// Defaults applied by DefaultOptions.
const (
	DeviceCPU = "cpu"

	DefaultMaxBatches       = 1
	DefaultLogEvery         = 2
	DefaultDRate            = 0.8
	DefaultMinRank          = 400
	DefaultSeed       int64 = 1
)

// Option configures an Embedder via functional arguments.
// An invalid Option is recorded and surfaced as ErrOptionViolation by New.
type Option func(*Options)

// Options holds the parameters of a capture run.
type Options struct {
	// Device names the compute device. Only DeviceCPU is supported.
	Device string

	// MaxBatches caps the number of batches processed by Run.
	MaxBatches int

	// LogEvery sets the Info logging cadence in batches. It has no effect on results.
	LogEvery int

	// DRate and MinRank size each sketch: d = min(MinRank, int(DRate*n)), at least 1.
	DRate   float64
	MinRank int

	// Seed is the base seed; the sketch of layer id uses Seed+id.
	Seed int64

	// Loss turns the network output into the scalar that is backpropagated.
	Loss nn.Criterion

	// OnBatch is called after each processed batch with its 0-based index
	// and mean loss. Returning an error aborts Run.
	OnBatch func(idx int, loss float64) error

	Logger   *zap.Logger
	Observer sketch.Observer

	// internal error recorded during option parsing
	err error
}

// DefaultOptions returns Options with:
//   - DeviceCPU
//   - MaxBatches 1, LogEvery 2
//   - DRate 0.8, MinRank 400
//   - mean NLL loss
//   - no-op logger, observer and OnBatch.
func DefaultOptions() Options {
	return Options{
		Device:     DeviceCPU,
		MaxBatches: DefaultMaxBatches,
		LogEvery:   DefaultLogEvery,
		DRate:      DefaultDRate,
		MinRank:    DefaultMinRank,
		Seed:       DefaultSeed,
		Loss:       nn.NewNLLLoss(nn.ReduceMean),
		OnBatch:    func(int, float64) error { return nil },
		Logger:     zap.NewNop(),
		Observer:   sketch.NoopObserver{},
	}
}

// WithDevice selects the compute device. Anything but DeviceCPU makes New
// fail with ErrUnsupportedDevice.
func WithDevice(device string) Option {
	return func(o *Options) {
		o.Device = device
	}
}

// WithMaxBatches sets how many batches Run consumes.
//
//	n > 0: process at most n batches
//	n <= 0: invalid option → ErrOptionViolation
func WithMaxBatches(n int) Option {
	return func(o *Options) {
		if n <= 0 {
			o.err = fmt.Errorf("%w: MaxBatches must be positive (%d)", ErrOptionViolation, n)
			return
		}
		o.MaxBatches = n
	}
}

// WithLogEvery sets the progress logging cadence. n <= 0 → ErrOptionViolation.
func WithLogEvery(n int) Option {
	return func(o *Options) {
		if n <= 0 {
			o.err = fmt.Errorf("%w: LogEvery must be positive (%d)", ErrOptionViolation, n)
			return
		}
		o.LogEvery = n
	}
}

// WithDRate sets the fraction of the feature dimension kept by each sketch.
// r must lie in (0, 1], else ErrOptionViolation.
func WithDRate(r float64) Option {
	return func(o *Options) {
		if !(r > 0 && r <= 1) {
			o.err = fmt.Errorf("%w: DRate must be in (0, 1] (%g)", ErrOptionViolation, r)
			return
		}
		o.DRate = r
	}
}

// WithMinRank caps the sketch rank. n < 1 → ErrOptionViolation.
func WithMinRank(n int) Option {
	return func(o *Options) {
		if n < 1 {
			o.err = fmt.Errorf("%w: MinRank must be positive (%d)", ErrOptionViolation, n)
			return
		}
		o.MinRank = n
	}
}

// WithSeed sets the base seed of the per-layer sketches.
func WithSeed(seed int64) Option {
	return func(o *Options) {
		o.Seed = seed
	}
}

// WithLoss replaces the default mean NLL criterion. A nil criterion is ignored.
func WithLoss(c nn.Criterion) Option {
	return func(o *Options) {
		if c != nil {
			o.Loss = c
		}
	}
}

// WithOnBatch registers a per-batch callback; returning an error stops Run.
func WithOnBatch(fn func(idx int, loss float64) error) Option {
	return func(o *Options) {
		if fn != nil {
			o.OnBatch = fn
		}
	}
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithObserver forwards sketch events of every layer to obs. A nil observer is ignored.
func WithObserver(obs sketch.Observer) Option {
	return func(o *Options) {
		if obs != nil {
			o.Observer = obs
		}
	}
}
