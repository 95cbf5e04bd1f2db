// SPDX-License-Identifier: MIT

package sketch

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/katalvlaran/asnet/matrix"
	"github.com/katalvlaran/asnet/randsvd"
)

const (
	methodNew     = "New"
	methodAppend  = "Append"
	methodRows    = "AppendRows"
	methodRotate  = "rotate"
	methodGet     = "Singular"
	methodRoot    = "Root"
	methodRawRows = "Raw"
)

// FrequentDirections maintains a 2d×n buffer whose Gram matrix tracks the Gram
// matrix of every row appended so far:
//
//	0 ⪯ AᵀA − BᵀB  and  ‖AᵀA − BᵀB‖₂ ≤ ‖A‖²_F / d.
//
// Rows [0, Len()) hold data and rows [Len(), 2d) are zero. When the buffer is
// full the next Append first shrinks it back to d rows.
//
// A FrequentDirections is not safe for concurrent use.
type FrequentDirections struct {
	n, d, m int
	buf     *matrix.Dense // m×n
	next    int           // first zero row

	appended  int
	skipped   int
	rotations int

	rng      *rand.Rand
	observer Observer
	logger   *zap.Logger
}

// New returns an empty sketch for rows of length n that keeps d directions.
//
// Errors:
//   - ErrBadParameters when n < 1, d < 1 or d > n.
//
// Complexity: O(d*n) allocation.
func New(n, d int, opts ...Option) (*FrequentDirections, error) {
	if n < 1 || d < 1 || d > n {
		return nil, sketchErrorf(methodNew, fmt.Errorf("n=%d d=%d: %w", n, d, ErrBadParameters))
	}
	cfg := newConfig(opts...)
	buf, err := matrix.NewDense(2*d, n)
	if err != nil {
		return nil, sketchErrorf(methodNew, err)
	}
	fd := &FrequentDirections{
		n:        n,
		d:        d,
		m:        2 * d,
		buf:      buf,
		rng:      cfg.rng,
		observer: cfg.observer,
		logger:   cfg.logger,
	}
	fd.observer.RecordCreate(n, d)

	return fd, nil
}

// Dim returns n, the length of every row.
func (fd *FrequentDirections) Dim() int { return fd.n }

// Rank returns d, the number of directions kept after a shrink.
func (fd *FrequentDirections) Rank() int { return fd.d }

// Capacity returns the buffer height 2d.
func (fd *FrequentDirections) Capacity() int { return fd.m }

// Len returns the number of occupied buffer rows.
func (fd *FrequentDirections) Len() int { return fd.next }

// Appended returns the number of non-zero rows accepted since construction.
func (fd *FrequentDirections) Appended() int { return fd.appended }

// Skipped returns the number of all-zero rows ignored since construction.
func (fd *FrequentDirections) Skipped() int { return fd.skipped }

// Rotations returns how many times the buffer has been shrunk.
func (fd *FrequentDirections) Rotations() int { return fd.rotations }

// Append adds one row to the sketch.
//
// Behavior highlights:
//   - An all-zero row is a silent no-op (counted by Skipped).
//   - A full buffer is shrunk to d rows before the write.
//   - The row is copied; the caller keeps ownership of row.
//
// Errors:
//   - matrix.ErrDimensionMismatch when len(row) != Dim().
//   - matrix.ErrNaNInf when row holds a non-finite value.
//   - errors from the shrink step (randsvd.ErrSVDFailed).
//
// Complexity: O(n) amortized plus one O(n*d^2) shrink every d appends.
func (fd *FrequentDirections) Append(row []float64) error {
	if len(row) != fd.n {
		return sketchErrorf(methodAppend, fmt.Errorf("len %d want %d: %w", len(row), fd.n, matrix.ErrDimensionMismatch))
	}
	if err := matrix.ValidateFiniteVec(row); err != nil {
		return sketchErrorf(methodAppend, err)
	}
	if isZero(row) {
		fd.skipped++
		fd.observer.RecordSkip()
		return nil
	}
	if fd.next >= fd.m {
		if err := fd.rotate(); err != nil {
			return sketchErrorf(methodAppend, err)
		}
	}
	copy(fd.buf.RawRow(fd.next), row)
	fd.next++
	fd.appended++
	fd.observer.RecordAppend()

	return nil
}

// AppendRows appends every row of rows in order, stopping at the first error.
func (fd *FrequentDirections) AppendRows(rows *matrix.Dense) error {
	if rows == nil {
		return sketchErrorf(methodRows, matrix.ErrNilMatrix)
	}
	for i := 0; i < rows.Rows(); i++ {
		if err := fd.Append(rows.RawRow(i)); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}

	return nil
}

// rotate shrinks the buffer back to d rows.
//
// Implementation:
//   - Stage 1: rank-d randomized SVD of the n×2d transpose; the left factor
//     holds the sketch's right singular vectors.
//   - Stage 2: σ'_i = sqrt(max(0, σ_i² − σ_d²)). The clamp absorbs rounding
//     when σ_i and σ_d are nearly equal.
//   - Stage 3: rows [0,d) ← diag(σ')·Vᵀ; rows [d,2d) ← 0; cursor ← d.
func (fd *FrequentDirections) rotate() (err error) {
	start := time.Now()
	defer func() {
		fd.observer.RecordRotate(time.Since(start), err)
	}()

	sigma, vt, err := fd.decompose()
	if err != nil {
		return sketchErrorf(methodRotate, err)
	}
	floor := sigma[fd.d-1] * sigma[fd.d-1]
	shrunk := make([]float64, fd.d)
	for i, s := range sigma {
		shrunk[i] = math.Sqrt(math.Max(0, s*s-floor))
	}
	rows, err := matrix.ScaleRows(shrunk, vt)
	if err != nil {
		return sketchErrorf(methodRotate, err)
	}
	copy(fd.buf.RawData(), rows.RawData())
	if err = fd.buf.ZeroRows(fd.d); err != nil {
		return sketchErrorf(methodRotate, err)
	}
	fd.next = fd.d
	fd.rotations++

	fd.logger.Debug("sketch rotated",
		zap.Int("dim", fd.n),
		zap.Int("rank", fd.d),
		zap.Int("rotations", fd.rotations),
		zap.Float64("shrink", math.Sqrt(floor)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return nil
}

// decompose returns the top-d singular values of the buffer and the
// corresponding right singular vectors as a d×n matrix. The buffer is untouched.
func (fd *FrequentDirections) decompose() ([]float64, *matrix.Dense, error) {
	bt, err := matrix.Transpose(fd.buf)
	if err != nil {
		return nil, nil, err
	}
	res, err := randsvd.Decompose(bt, fd.d, randsvd.WithRand(fd.rng))
	if err != nil {
		return nil, nil, err
	}
	vt, err := matrix.Transpose(res.U)
	if err != nil {
		return nil, nil, err
	}

	return res.Sigma, vt, nil
}

// Singular returns the top-d singular values Σ (descending) of the sketch and
// the matching right singular vectors as the rows of a d×n matrix.
// The sketch state is not modified, though its generator advances.
func (fd *FrequentDirections) Singular() ([]float64, *matrix.Dense, error) {
	sigma, vt, err := fd.decompose()
	if err != nil {
		return nil, nil, sketchErrorf(methodGet, err)
	}

	return sigma, vt, nil
}

// Root returns diag(sqrt(Σ))·Vᵀ, a d×n factor built from Singular.
func (fd *FrequentDirections) Root() (*matrix.Dense, error) {
	sigma, vt, err := fd.decompose()
	if err != nil {
		return nil, sketchErrorf(methodRoot, err)
	}
	roots := make([]float64, len(sigma))
	for i, s := range sigma {
		roots[i] = math.Sqrt(s)
	}
	out, err := matrix.ScaleRows(roots, vt)
	if err != nil {
		return nil, sketchErrorf(methodRoot, err)
	}

	return out, nil
}

// Raw returns a copy of the first d buffer rows without any decomposition.
func (fd *FrequentDirections) Raw() (*matrix.Dense, error) {
	out, err := matrix.FirstRows(fd.buf, fd.d)
	if err != nil {
		return nil, sketchErrorf(methodRawRows, err)
	}

	return out, nil
}

// Buffer returns a copy of the whole 2d×n buffer, zero rows included.
func (fd *FrequentDirections) Buffer() *matrix.Dense { return fd.buf.Copy() }

func isZero(row []float64) bool {
	for _, v := range row {
		if v != 0 {
			return false
		}
	}

	return true
}
