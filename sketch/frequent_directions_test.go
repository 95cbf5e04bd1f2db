package sketch_test

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	zapobserver "go.uber.org/zap/zaptest/observer"

	"github.com/katalvlaran/asnet/matrix"
	"github.com/katalvlaran/asnet/sketch"
)

// countingObserver tallies sketch events.
type countingObserver struct {
	created, appended, skipped, rotated int
	lastErr                             error
}

func (c *countingObserver) RecordCreate(int, int) { c.created++ }
func (c *countingObserver) RecordAppend()         { c.appended++ }
func (c *countingObserver) RecordSkip()           { c.skipped++ }
func (c *countingObserver) RecordRotate(_ time.Duration, err error) {
	c.rotated++
	c.lastErr = err
}

// decayingRows draws rows = Σ_j g_j·2^(-j)·q_j over a fixed orthonormal
// basis q_j, so the row covariance has a geometrically decaying spectrum.
func decayingRows(t *testing.T, rows, n int, seed int64) *matrix.Dense {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	g := make([]float64, n*n)
	for i := range g {
		g[i] = rng.NormFloat64()
	}
	G, err := matrix.NewDenseFromData(n, n, g)
	require.NoError(t, err)
	Q, _, err := matrix.QR(G)
	require.NoError(t, err)

	coef := make([]float64, rows*n)
	for i := 0; i < rows; i++ {
		for j := 0; j < n; j++ {
			coef[i*n+j] = rng.NormFloat64() * math.Pow(2, -float64(j))
		}
	}
	C, err := matrix.NewDenseFromData(rows, n, coef)
	require.NoError(t, err)
	Qt, err := matrix.Transpose(Q)
	require.NoError(t, err)
	A, err := matrix.Mul(C, Qt)
	require.NoError(t, err)

	return A
}

// covarianceError returns ‖AᵀA − BᵀB‖₂.
func covarianceError(t *testing.T, A, B *matrix.Dense) float64 {
	t.Helper()
	ga, err := matrix.Gram(A)
	require.NoError(t, err)
	gb, err := matrix.Gram(B)
	require.NoError(t, err)
	diff, err := matrix.Sub(ga, gb)
	require.NoError(t, err)
	e, err := matrix.SpectralNorm(diff)
	require.NoError(t, err)

	return e
}

func TestNewBadParameters(t *testing.T) {
	for _, tc := range []struct{ n, d int }{
		{0, 1},
		{5, 0},
		{5, 6},
		{-1, -1},
	} {
		_, err := sketch.New(tc.n, tc.d)
		require.ErrorIs(t, err, sketch.ErrBadParameters, "n=%d d=%d", tc.n, tc.d)
	}

	fd, err := sketch.New(5, 5)
	require.NoError(t, err)
	assert.Equal(t, 10, fd.Capacity())
	assert.Equal(t, 0, fd.Len())
}

func TestAppendValidation(t *testing.T) {
	fd, err := sketch.New(3, 2)
	require.NoError(t, err)

	err = fd.Append([]float64{1, 2})
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)

	err = fd.Append([]float64{1, math.NaN(), 0})
	require.ErrorIs(t, err, matrix.ErrNaNInf)

	assert.Equal(t, 0, fd.Len(), "rejected rows must not advance the cursor")
}

// TestZeroRowIdempotence appends zero rows and expects no state change.
func TestZeroRowIdempotence(t *testing.T) {
	obs := &countingObserver{}
	fd, err := sketch.New(4, 2, sketch.WithObserver(obs))
	require.NoError(t, err)
	require.NoError(t, fd.Append([]float64{1, 2, 3, 4}))
	before := fd.Buffer()

	for i := 0; i < 10; i++ {
		require.NoError(t, fd.Append(make([]float64, 4)))
	}

	assert.Equal(t, 1, fd.Len())
	assert.Equal(t, 10, fd.Skipped())
	assert.Equal(t, 1, fd.Appended())
	assert.Equal(t, before.RawData(), fd.Buffer().RawData())
	assert.Equal(t, 1, obs.created)
	assert.Equal(t, 10, obs.skipped)
	assert.Equal(t, 1, obs.appended)
}

// TestMemoryBound streams many rows and checks the buffer never grows.
func TestMemoryBound(t *testing.T) {
	const n, d, rows = 12, 3, 200
	obs := &countingObserver{}
	fd, err := sketch.New(n, d, sketch.WithSeed(7), sketch.WithObserver(obs))
	require.NoError(t, err)

	A := decayingRows(t, rows, n, 1)
	for i := 0; i < rows; i++ {
		require.NoError(t, fd.Append(A.RawRow(i)))
		assert.LessOrEqual(t, fd.Len(), 2*d)
		if fd.Rotations() > 0 {
			assert.GreaterOrEqual(t, fd.Len(), d+1, "cursor is d right after a shrink, then one row is written")
		}
	}
	B := fd.Buffer()
	assert.Equal(t, 2*d, B.Rows())
	assert.Equal(t, n, B.Cols())
	for i := fd.Len(); i < 2*d; i++ {
		assert.True(t, B.IsZeroRow(i), "row %d beyond the cursor must be zero", i)
	}

	// first rotation at the (2d+1)-th row, then one every d rows
	assert.Equal(t, (rows-2*d-1)/d+1, fd.Rotations())
	assert.Equal(t, fd.Rotations(), obs.rotated)
	assert.NoError(t, obs.lastErr)
}

// TestCovarianceErrorBound checks ‖AᵀA − BᵀB‖₂ ≤ ‖A‖²_F / d.
func TestCovarianceErrorBound(t *testing.T) {
	for _, tc := range []struct {
		name       string
		n, d       int
		rows       int
		seed       int64
		sketchSeed int64
	}{
		{"n16_d4", 16, 4, 120, 3, 11},
		{"n32_d8", 32, 8, 400, 5, 13},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			fd, err := sketch.New(tc.n, tc.d, sketch.WithSeed(tc.sketchSeed))
			require.NoError(t, err)
			A := decayingRows(t, tc.rows, tc.n, tc.seed)
			require.NoError(t, fd.AppendRows(A))
			require.Positive(t, fd.Rotations())

			fro, err := matrix.FrobeniusNorm(A)
			require.NoError(t, err)
			bound := fro * fro / float64(tc.d)

			assert.LessOrEqual(t, covarianceError(t, A, fd.Buffer()), bound)
		})
	}
}

// TestLowRankStreamIsLossless streams rank-r rows with r < d: nothing is shrunk away.
func TestLowRankStreamIsLossless(t *testing.T) {
	const n, d, r, rows = 10, 4, 2, 50
	rng := rand.New(rand.NewSource(2))
	basis := make([][]float64, r)
	for k := range basis {
		basis[k] = make([]float64, n)
		for j := range basis[k] {
			basis[k][j] = rng.NormFloat64()
		}
	}
	data := make([]float64, rows*n)
	for i := 0; i < rows; i++ {
		for k := 0; k < r; k++ {
			c := rng.NormFloat64()
			for j := 0; j < n; j++ {
				data[i*n+j] += c * basis[k][j]
			}
		}
	}
	A, err := matrix.NewDenseFromData(rows, n, data)
	require.NoError(t, err)

	fd, err := sketch.New(n, d, sketch.WithSeed(1))
	require.NoError(t, err)
	require.NoError(t, fd.AppendRows(A))
	require.Positive(t, fd.Rotations())

	fro, err := matrix.FrobeniusNorm(A)
	require.NoError(t, err)
	assert.Less(t, covarianceError(t, A, fd.Buffer()), 1e-9*fro*fro)
}

// TestShrinkClampOnFlatSpectrum forces σ_i ≈ σ_d for every i; the radicand
// may round below zero and must be clamped instead of producing NaN.
func TestShrinkClampOnFlatSpectrum(t *testing.T) {
	const n = 4
	fd, err := sketch.New(n, n, sketch.WithSeed(3))
	require.NoError(t, err)
	for rep := 0; rep < 3; rep++ {
		for j := 0; j < n; j++ {
			row := make([]float64, n)
			row[j] = 1
			require.NoError(t, fd.Append(row))
		}
	}
	require.Equal(t, 1, fd.Rotations())

	for _, v := range fd.Buffer().RawData() {
		assert.False(t, math.IsNaN(v))
	}
	sigma, vt, err := fd.Singular()
	require.NoError(t, err)
	assert.Len(t, sigma, n)
	assert.Equal(t, n, vt.Rows())
	for _, s := range sigma {
		assert.False(t, math.IsNaN(s))
	}
}

func TestGetVariantsAreReadOnly(t *testing.T) {
	const n, d = 8, 3
	fd, err := sketch.New(n, d, sketch.WithSeed(9))
	require.NoError(t, err)
	A := decayingRows(t, 20, n, 4)
	require.NoError(t, fd.AppendRows(A))
	cursor := fd.Len()
	buf := fd.Buffer()

	sigma, vt, err := fd.Singular()
	require.NoError(t, err)
	require.Len(t, sigma, d)
	require.Equal(t, d, vt.Rows())
	require.Equal(t, n, vt.Cols())
	for i := 1; i < d; i++ {
		assert.LessOrEqual(t, sigma[i], sigma[i-1])
	}

	root, err := fd.Root()
	require.NoError(t, err)
	assert.Equal(t, d, root.Rows())

	raw, err := fd.Raw()
	require.NoError(t, err)
	want, err := matrix.FirstRows(buf, d)
	require.NoError(t, err)
	assert.Equal(t, want.RawData(), raw.RawData())

	assert.Equal(t, cursor, fd.Len())
	assert.Equal(t, buf.RawData(), fd.Buffer().RawData())

	// the rows of Vᵀ are orthonormal
	vv, err := matrix.Gram(mustTranspose(t, vt))
	require.NoError(t, err)
	I, err := matrix.NewIdentity(d)
	require.NoError(t, err)
	ok, err := matrix.AllClose(vv, I, 0, 1e-9)
	require.NoError(t, err)
	assert.True(t, ok)
}

func mustTranspose(t *testing.T, m *matrix.Dense) *matrix.Dense {
	t.Helper()
	out, err := matrix.Transpose(m)
	require.NoError(t, err)
	return out
}

func TestRotationIsLogged(t *testing.T) {
	core, logs := zapobserver.New(zapcore.DebugLevel)
	fd, err := sketch.New(3, 1, sketch.WithLogger(zap.New(core)))
	require.NoError(t, err)
	for _, row := range [][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}} {
		require.NoError(t, fd.Append(row))
	}
	entries := logs.FilterMessage("sketch rotated").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].ContextMap()["rotations"])
}

func TestOptionPanics(t *testing.T) {
	assert.Panics(t, func() { sketch.WithRand(nil) })
	assert.Panics(t, func() { sketch.WithObserver(nil) })
	assert.NotPanics(t, func() { sketch.WithLogger(nil) })
}
