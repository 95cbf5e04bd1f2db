// SPDX-License-Identifier: MIT

package data

import (
	"errors"
	"fmt"
	"io"

	"github.com/katalvlaran/asnet/matrix"
)

// ErrBadBatch indicates a batch whose labels do not match its sample count.
var ErrBadBatch = errors.New("data: labels do not match batch size")

// Batch is one minibatch: X has the batch on dimension 0; Labels has one class per sample.
type Batch struct {
	X      *matrix.Tensor
	Labels []int
}

// Validate checks that X is present and Labels has one entry per sample.
func (b Batch) Validate() error {
	if b.X == nil {
		return fmt.Errorf("Batch.Validate: %w", matrix.ErrNilMatrix)
	}
	if len(b.Labels) != b.X.Batch() {
		return fmt.Errorf("Batch.Validate: %d labels for %d samples: %w", len(b.Labels), b.X.Batch(), ErrBadBatch)
	}
	return nil
}

// Loader yields batches in order. Next returns io.EOF once the stream is exhausted.
type Loader interface {
	Next() (Batch, error)
}

// SliceLoader replays a fixed list of batches.
type SliceLoader struct {
	batches []Batch
	pos     int
}

// NewSliceLoader returns a loader over batches (the slice is not copied).
func NewSliceLoader(batches ...Batch) *SliceLoader {
	return &SliceLoader{batches: batches}
}

// Next implements Loader.
func (l *SliceLoader) Next() (Batch, error) {
	if l.pos >= len(l.batches) {
		return Batch{}, io.EOF
	}
	b := l.batches[l.pos]
	l.pos++
	return b, nil
}

// Reset rewinds to the first batch.
func (l *SliceLoader) Reset() { l.pos = 0 }

// Len returns the total number of batches.
func (l *SliceLoader) Len() int { return len(l.batches) }
