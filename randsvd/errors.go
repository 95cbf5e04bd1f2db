// SPDX-License-Identifier: MIT
// Package: asnet/randsvd
//
// errors.go — sentinel errors for the randsvd package.
//
// Error policy:
//   • Only sentinel variables (package-level) are exposed.
//   • Callers MUST use errors.Is(err, ErrX) to branch on semantics.
//   • Runtime failures never panic; option constructors panic on nonsense values.

package randsvd

import (
	"errors"
	"fmt"
)

// ErrRankTooLarge indicates a requested rank k outside [1, min(rows, cols)].
// Classification: dimensionality error, raised before any allocation.
var ErrRankTooLarge = errors.New("randsvd: rank must satisfy 1 <= k <= min(rows, cols)")

// ErrSVDFailed indicates the dense SVD of the projected matrix did not converge.
var ErrSVDFailed = errors.New("randsvd: svd factorization failed")

// svdErrorf prefixes err with the operation name, keeping the sentinel reachable.
func svdErrorf(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
