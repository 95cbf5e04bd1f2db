// Package asnet computes low-rank "active subspace" approximations of a neural
// network's gradient behaviour without ever materializing the full gradient
// matrix.
//
// The pieces, bottom-up:
//
//	matrix/    — row-major Dense, N-d Tensor with Flatten, QR, norms, gonum bridge
//	randsvd/   — randomized truncated SVD (Gaussian projection + thin QR + small SVD)
//	sketch/    — Frequent Directions: a 2d×n buffer that shrinks on overflow
//	nn/        — a small differentiable reference network with backward hooks
//	data/      — batch loaders (in-memory, seeded synthetic)
//	capture/   — streams per-layer output gradients into one sketch per layer
//	subspace/  — projection onto the first r columns of a learned basis
//	jacobian/  — direct builder from the full input Jacobian
//	metrics/   — Prometheus collector for sketch and capture events
//	cmd/asnet  — cobra/viper driver producing YAML or JSON reports
//
// Typical streaming use:
//
//	emb, _ := capture.New(net, loader, capture.WithMaxBatches(5))
//	_ = emb.Run(ctx, 1)
//	models, sigmas, _ := subspace.BuildFromSketches(emb.Sketches(), 32)
//	z, _ := models[1].Apply(x) // batch × 32
//
// Everything is single-threaded and deterministic for a fixed seed.
package asnet
