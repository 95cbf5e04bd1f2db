// SPDX-License-Identifier: MIT

package sketch

import (
	"errors"
	"fmt"
)

// ErrBadParameters indicates New was called with n < 1 or d outside [1, n].
var ErrBadParameters = errors.New("sketch: require n >= 1 and 1 <= d <= n")

// sketchErrorf wraps err with the method name, keeping the sentinel reachable.
func sketchErrorf(method string, err error) error {
	return fmt.Errorf("FrequentDirections.%s: %w", method, err)
}
