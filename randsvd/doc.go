// Package randsvd computes truncated singular value decompositions with a
// Gaussian range finder.
//
// Decompose(A, k) projects A onto k random directions, orthonormalizes the
// projection with a thin Householder QR, and solves the small k×cols problem
// exactly with gonum's SVD. The result is a rank-k triple (U, Σ, V) with
// A ≈ U·diag(Σ)·Vᵀ, exact whenever rank(A) <= k.
//
// Randomness is explicit: every call draws from a *rand.Rand supplied through
// WithSeed or WithRand (DefaultSeed otherwise), so results are reproducible.
// WithOversampling and WithPowerIterations trade time for accuracy on matrices
// whose spectrum decays slowly.
//
// Decompose never mutates its input and keeps no state between calls.
package randsvd
