// SPDX-License-Identifier: MIT

package data

import (
	"errors"
	"fmt"
	"io"
	"math/rand"

	"github.com/katalvlaran/asnet/matrix"
)

// Synthetic defaults.
const (
	DefaultSeed  int64 = 1
	DefaultScale       = 1.0
)

// ErrBadSize indicates a non-positive batch count, batch size, class count or sample shape.
var ErrBadSize = errors.New("data: invalid synthetic dataset size")

// SyntheticOption configures a Synthetic loader.
type SyntheticOption func(*syntheticConfig)

type syntheticConfig struct {
	rng   *rand.Rand
	scale float64
}

// WithSeed seeds the dataset generator.
func WithSeed(seed int64) SyntheticOption {
	return func(c *syntheticConfig) {
		c.rng = rand.New(rand.NewSource(seed))
	}
}

// WithRand draws samples from r. Panics if r is nil.
func WithRand(r *rand.Rand) SyntheticOption {
	if r == nil {
		panic("data: WithRand(nil)")
	}
	return func(c *syntheticConfig) {
		c.rng = r
	}
}

// WithScale sets the standard deviation of the generated samples. Panics if s <= 0.
func WithScale(s float64) SyntheticOption {
	if s <= 0 {
		panic("data: WithScale(s<=0)")
	}
	return func(c *syntheticConfig) {
		c.scale = s
	}
}

// Synthetic generates Gaussian samples with uniform labels, one batch per Next.
// Batches are produced lazily; a given seed always yields the same stream.
type Synthetic struct {
	batches   int
	batchSize int
	shape     []int // per-sample shape
	classes   int
	cfg       syntheticConfig
	served    int
}

// NewSynthetic returns a loader of `batches` batches, each batchSize samples of
// the given per-sample shape, labelled in [0, classes).
//
// Errors: ErrBadSize.
func NewSynthetic(batches, batchSize, classes int, sampleShape []int, opts ...SyntheticOption) (*Synthetic, error) {
	if batches < 1 || batchSize < 1 || classes < 1 || len(sampleShape) == 0 {
		return nil, fmt.Errorf("NewSynthetic: %w", ErrBadSize)
	}
	for _, s := range sampleShape {
		if s < 1 {
			return nil, fmt.Errorf("NewSynthetic: shape %v: %w", sampleShape, ErrBadSize)
		}
	}
	cfg := syntheticConfig{scale: DefaultScale}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.rng == nil {
		cfg.rng = rand.New(rand.NewSource(DefaultSeed))
	}

	return &Synthetic{
		batches:   batches,
		batchSize: batchSize,
		shape:     append([]int(nil), sampleShape...),
		classes:   classes,
		cfg:       cfg,
	}, nil
}

// Next implements Loader.
func (s *Synthetic) Next() (Batch, error) {
	if s.served >= s.batches {
		return Batch{}, io.EOF
	}
	x, err := matrix.NewTensor(append([]int{s.batchSize}, s.shape...)...)
	if err != nil {
		return Batch{}, fmt.Errorf("Synthetic.Next: %w", err)
	}
	buf := x.Data()
	for i := range buf {
		buf[i] = s.cfg.rng.NormFloat64() * s.cfg.scale
	}
	labels := make([]int, s.batchSize)
	for i := range labels {
		labels[i] = s.cfg.rng.Intn(s.classes)
	}
	s.served++

	return Batch{X: x, Labels: labels}, nil
}

// Served returns the number of batches produced so far.
func (s *Synthetic) Served() int { return s.served }
