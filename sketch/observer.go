// SPDX-License-Identifier: MIT

package sketch

import "time"

// Observer receives operational events from a FrequentDirections sketch.
// Implement it to integrate with a monitoring system; see package metrics
// for the Prometheus implementation.
//
// Calls are synchronous and happen on the goroutine that drives the sketch.
type Observer interface {
	// RecordCreate is called once when a sketch is constructed.
	RecordCreate(dim, rank int)

	// RecordAppend is called after a row has been written into the buffer.
	RecordAppend()

	// RecordSkip is called when an all-zero row is ignored.
	RecordSkip()

	// RecordRotate is called after every shrink step; err is nil on success.
	RecordRotate(duration time.Duration, err error)
}

// NoopObserver discards every event. It is the default.
type NoopObserver struct{}

func (NoopObserver) RecordCreate(int, int)             {}
func (NoopObserver) RecordAppend()                     {}
func (NoopObserver) RecordSkip()                       {}
func (NoopObserver) RecordRotate(time.Duration, error) {}
