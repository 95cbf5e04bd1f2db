// SPDX-License-Identifier: MIT
// Package: asnet/randsvd
//
// options.go — functional options and deterministic defaults.
//
// Deterministic defaults (no surprises):
//   • rng              = rand.New(rand.NewSource(DefaultSeed))
//   • powerIterations  = 0 (plain range finder)
//   • oversampling     = 0 (project straight onto k columns)

package randsvd

import "math/rand"

// DefaultSeed seeds the Gaussian test matrix when neither WithSeed nor WithRand is given.
const DefaultSeed int64 = 1

// Option mutates the decomposition config before use.
type Option func(*config)

type config struct {
	rng             *rand.Rand
	powerIterations int
	oversampling    int
}

// newConfig applies options in order (later overrides earlier).
func newConfig(opts ...Option) config {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.rng == nil {
		cfg.rng = rand.New(rand.NewSource(DefaultSeed))
	}

	return cfg
}

// WithRand draws the Gaussian test matrix from r. The caller owns r's seed policy.
// Panics if r is nil.
func WithRand(r *rand.Rand) Option {
	if r == nil {
		panic("randsvd: WithRand(nil)")
	}
	return func(c *config) {
		c.rng = r
	}
}

// WithSeed creates a new *rand.Rand with the given seed (deterministic).
func WithSeed(seed int64) Option {
	return func(c *config) {
		c.rng = rand.New(rand.NewSource(seed))
	}
}

// WithPowerIterations applies q rounds of Y ← A(AᵀY) with re-orthonormalization
// after the first projection. Useful when the spectrum decays slowly.
// Panics if q < 0.
func WithPowerIterations(q int) Option {
	if q < 0 {
		panic("randsvd: WithPowerIterations(q<0)")
	}
	return func(c *config) {
		c.powerIterations = q
	}
}

// WithOversampling projects onto k+p columns and truncates the result to k.
// k+p is clamped to min(rows, cols). Panics if p < 0.
func WithOversampling(p int) Option {
	if p < 0 {
		panic("randsvd: WithOversampling(p<0)")
	}
	return func(c *config) {
		c.oversampling = p
	}
}
