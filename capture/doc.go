// Package capture streams backward-pass gradients of selected network layers
// into per-layer Frequent Directions sketches.
//
// An Embedder owns a Model and a data.Loader. Run subscribes one backward hook
// per target layer, drives forward, loss and backward for up to MaxBatches
// batches, and after each batch moves the captured batch×features gradient
// rows into the layer's sketch. The first gradient of a layer only fixes the
// sketch's feature dimension n and rank d = min(MinRank, int(DRate*n)).
//
// Layer ids are 1-based positions in the model: id 1 is the first layer.
//
// Options follow the functional style; invalid values are recorded and
// reported as ErrOptionViolation by New:
//
//	emb, err := capture.New(net, loader,
//		capture.WithMaxBatches(5),
//		capture.WithLogger(logger),
//	)
//	if err != nil { ... }
//	if err := emb.Run(ctx, 1); err != nil { ... }
//	fd, _ := emb.Sketches().Get(1)
package capture
