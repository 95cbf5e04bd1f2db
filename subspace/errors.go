// SPDX-License-Identifier: MIT

package subspace

import (
	"errors"
	"fmt"
)

// ErrInvalidRank indicates a rank outside [1, MaxRank] (or a build rank
// larger than a sketch's rank).
var ErrInvalidRank = errors.New("subspace: invalid rank")

func subspaceErrorf(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
