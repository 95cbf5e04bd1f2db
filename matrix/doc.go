// Package matrix provides the dense numeric containers used across asnet.
//
// The matrix package provides:
//
//   - Dense: a row-major float64 matrix with bounds-checked accessors, no-copy
//     row views, and a zero-copy bridge to gonum (Dense.Gonum).
//   - Tensor: an N-dimensional batch container whose leading axis is the batch;
//     Flatten collapses every non-batch axis into a batch×features Dense.
//   - Kernels: Mul, MulTransA, Transpose, Scale, ScaleRows, thin Householder QR,
//     Frobenius and spectral norms.
//
// Rows are samples or directions, columns are features. Everything is
// single-threaded; a Dense must not be mutated concurrently.
package matrix
