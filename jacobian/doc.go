// Package jacobian builds an active subspace directly from the full input
// Jacobian of a network, without streaming.
//
// GradMatrix runs one backward pass per output and stacks the input
// gradients as rows. Build and BuildOneExample wrap it: they switch off
// in-place activations, put the network in eval mode, optionally perturb the
// inputs or differentiate a loss instead of the outputs, and decompose the
// Jacobian with a randomized SVD into a subspace.Model.
package jacobian
