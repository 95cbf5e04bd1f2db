// SPDX-License-Identifier: MIT

package jacobian

import (
	"errors"
	"fmt"
)

// Sentinel errors for Jacobian construction.
var (
	// ErrNotTracked is returned when the input does not record gradients,
	// or when a backward pass leaves its gradient empty.
	ErrNotTracked = errors.New("jacobian: input does not require grad")

	// ErrInplaceActivation is returned when in-place activations stay enabled
	// after Build tried to switch them off.
	ErrInplaceActivation = errors.New("jacobian: in-place activations enabled")

	// ErrNilBackward is returned when GradMatrix receives no backward function.
	ErrNilBackward = errors.New("jacobian: backward function is nil")

	// ErrUnsupportedDevice is returned for any device other than DeviceCPU.
	ErrUnsupportedDevice = errors.New("jacobian: unsupported device")

	// ErrBadNoise is returned for a noise tensor of the wrong shape, a
	// non-positive noise count or a negative noise level.
	ErrBadNoise = errors.New("jacobian: invalid noise")
)

func jacobianErrorf(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
