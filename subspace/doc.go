// Package subspace holds the active-subspace projection model.
//
// A Model stores an n_features × r_max orthonormal basis and projects inputs
// onto its first r columns. The active rank can be lowered or raised again up
// to r_max without reallocating. BuildFromSketches creates one Model per
// layer from the sketches collected by package capture.
package subspace
