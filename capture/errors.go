// SPDX-License-Identifier: MIT

package capture

import (
	"errors"
	"fmt"
)

// Sentinel errors for gradient capture.
var (
	// ErrNilModel is returned when New receives a nil model.
	ErrNilModel = errors.New("capture: model is nil")

	// ErrNilLoader is returned when New receives a nil loader.
	ErrNilLoader = errors.New("capture: loader is nil")

	// ErrUnsupportedDevice is returned for any device other than DeviceCPU.
	ErrUnsupportedDevice = errors.New("capture: unsupported device")

	// ErrOptionViolation is returned when an invalid Option is supplied.
	ErrOptionViolation = errors.New("capture: invalid option supplied")

	// ErrLayerOutOfRange is returned when a target layer id is not in [1, model.Len()].
	ErrLayerOutOfRange = errors.New("capture: layer id out of range")

	// ErrNoLayers is returned when Run is called without target layers.
	ErrNoLayers = errors.New("capture: no target layers")
)

func captureErrorf(op string, err error) error {
	return fmt.Errorf("Embedder.%s: %w", op, err)
}
