// SPDX-License-Identifier: MIT

package sketch

import (
	"math/rand"

	"go.uber.org/zap"
)

// DefaultSeed seeds the sketch's generator when neither WithSeed nor WithRand is given.
const DefaultSeed int64 = 1

// Option configures a FrequentDirections sketch.
type Option func(*config)

type config struct {
	rng      *rand.Rand
	observer Observer
	logger   *zap.Logger
}

func newConfig(opts ...Option) config {
	cfg := config{
		observer: NoopObserver{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.rng == nil {
		cfg.rng = rand.New(rand.NewSource(DefaultSeed))
	}

	return cfg
}

// WithSeed gives the sketch its own generator seeded with seed.
func WithSeed(seed int64) Option {
	return func(c *config) {
		c.rng = rand.New(rand.NewSource(seed))
	}
}

// WithRand makes the sketch draw its random projections from r.
// The sketch then shares r with the caller. Panics if r is nil.
func WithRand(r *rand.Rand) Option {
	if r == nil {
		panic("sketch: WithRand(nil)")
	}
	return func(c *config) {
		c.rng = r
	}
}

// WithObserver routes append/skip/rotate events to o. Panics if o is nil.
func WithObserver(o Observer) Option {
	if o == nil {
		panic("sketch: WithObserver(nil)")
	}
	return func(c *config) {
		c.observer = o
	}
}

// WithLogger sets the logger used for rotation diagnostics (Debug level).
// A nil logger is replaced with zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l == nil {
			l = zap.NewNop()
		}
		c.logger = l
	}
}
