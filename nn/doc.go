// Package nn is a small reference network used to drive gradient capture and
// Jacobian construction without an external autodiff framework.
//
// It provides Linear, ReLU (optionally in place) and LogSoftmax layers, a
// Sequential container with per-layer backward hooks, an input Variable that
// accumulates ∂L/∂x, and an NLL criterion with mean/sum/none reduction.
//
// Backward is explicit reverse-mode differentiation: every layer caches what
// it needs during Forward, and the cache survives until the next Forward, so
// one forward pass can be differentiated against many output gradients.
package nn
