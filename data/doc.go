// Package data defines the batch stream consumed by gradient capture.
//
// A Loader yields Batch values until it returns io.EOF. SliceLoader replays
// in-memory batches; Synthetic generates seeded Gaussian batches of any
// per-sample shape, which is what the command-line driver and the end-to-end
// tests use in place of a real dataset.
package data
