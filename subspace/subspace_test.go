package subspace_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/asnet/capture"
	"github.com/katalvlaran/asnet/matrix"
	"github.com/katalvlaran/asnet/sketch"
	"github.com/katalvlaran/asnet/subspace"
)

// orthonormal returns an n×k matrix with orthonormal columns.
func orthonormal(t *testing.T, n, k int, rng *rand.Rand) *matrix.Dense {
	t.Helper()
	a, err := matrix.NewDense(n, k)
	require.NoError(t, err)
	for i := range a.RawData() {
		a.RawData()[i] = rng.NormFloat64()
	}
	q, _, err := matrix.QR(a)
	require.NoError(t, err)
	return q
}

func TestSetRankMonotonicity(t *testing.T) {
	m, err := subspace.New(orthonormal(t, 12, 6, rand.New(rand.NewSource(1))), 6)
	require.NoError(t, err)

	require.NoError(t, m.SetRank(4))
	require.NoError(t, m.SetRank(2))
	assert.Equal(t, 2, m.Rank())
	require.NoError(t, m.SetRank(6), "regrow up to r_max")

	require.ErrorIs(t, m.SetRank(7), subspace.ErrInvalidRank)
	require.ErrorIs(t, m.SetRank(0), subspace.ErrInvalidRank)
	assert.Equal(t, 6, m.Rank(), "failed SetRank keeps the rank")
	assert.Equal(t, 6, m.MaxRank())
	assert.Equal(t, 12, m.Features())
}

func TestNewRejectsBadRank(t *testing.T) {
	v := orthonormal(t, 5, 3, rand.New(rand.NewSource(2)))
	_, err := subspace.New(v, 4)
	require.ErrorIs(t, err, subspace.ErrInvalidRank)
	_, err = subspace.New(v, 0)
	require.ErrorIs(t, err, subspace.ErrInvalidRank)
	_, err = subspace.New(nil, 1)
	require.ErrorIs(t, err, matrix.ErrNilMatrix)
}

func TestApplyShape(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	m, err := subspace.New(orthonormal(t, 3*4, 5, rng), 5)
	require.NoError(t, err)
	require.NoError(t, m.SetRank(3))

	x, err := matrix.NewTensor(7, 3, 4)
	require.NoError(t, err)
	for i := range x.Data() {
		x.Data()[i] = rng.NormFloat64()
	}
	out, err := m.Apply(x)
	require.NoError(t, err)
	r, c := out.Shape()
	assert.Equal(t, 7, r)
	assert.Equal(t, 3, c)

	bad, err := matrix.NewTensor(7, 5)
	require.NoError(t, err)
	_, err = m.Apply(bad)
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}

// TestApplyPrefix checks that lowering the rank keeps the leading coordinates.
func TestApplyPrefix(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	v := orthonormal(t, 8, 4, rng)
	m, err := subspace.New(v, 4)
	require.NoError(t, err)

	x, err := matrix.NewDense(3, 8)
	require.NoError(t, err)
	for i := range x.RawData() {
		x.RawData()[i] = rng.NormFloat64()
	}
	full, err := m.ApplyDense(x)
	require.NoError(t, err)
	want, err := matrix.Mul(x, v)
	require.NoError(t, err)
	ok, err := matrix.AllClose(full, want, 1e-12, 1e-12)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, m.SetRank(2))
	part, err := m.ApplyDense(x)
	require.NoError(t, err)
	prefix, err := matrix.FirstCols(full, 2)
	require.NoError(t, err)
	ok, err = matrix.AllClose(part, prefix, 1e-12, 1e-12)
	require.NoError(t, err)
	assert.True(t, ok)

	b := m.Basis()
	assert.Equal(t, 2, b.Cols())
	b.RawData()[0] = 42
	again := m.Basis()
	assert.NotEqual(t, 42.0, again.RawData()[0], "Basis returns a copy")
}

func TestNewCopiesBasis(t *testing.T) {
	v := orthonormal(t, 4, 2, rand.New(rand.NewSource(5)))
	m, err := subspace.New(v, 2)
	require.NoError(t, err)
	orig := m.Basis()
	v.RawData()[0] = 99
	assert.Equal(t, orig.RawData(), m.Basis().RawData())
}

func TestBuildFromSketches(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	table := capture.NewTable()
	for _, id := range []int{3, 1} {
		fd, err := sketch.New(10, 4, sketch.WithSeed(int64(id)))
		require.NoError(t, err)
		row := make([]float64, 10)
		for i := 0; i < 30; i++ {
			for j := range row {
				row[j] = rng.NormFloat64()
			}
			require.NoError(t, fd.Append(row))
		}
		require.True(t, table.Put(id, fd))
	}

	models, sigmas, err := subspace.BuildFromSketches(table, 3)
	require.NoError(t, err)
	require.Len(t, models, 2)
	for _, id := range []int{1, 3} {
		m := models[id]
		require.NotNil(t, m)
		assert.Equal(t, 10, m.Features())
		assert.Equal(t, 3, m.Rank())
		require.Len(t, sigmas[id], 3)
		assert.GreaterOrEqual(t, sigmas[id][0], sigmas[id][1])
		assert.GreaterOrEqual(t, sigmas[id][1], sigmas[id][2])

		// columns are orthonormal
		g, err := matrix.Gram(m.Basis())
		require.NoError(t, err)
		id3, err := matrix.NewIdentity(3)
		require.NoError(t, err)
		ok, err := matrix.AllClose(g, id3, 1e-8, 1e-8)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	_, _, err = subspace.BuildFromSketches(table, 5)
	require.ErrorIs(t, err, subspace.ErrInvalidRank)
	_, _, err = subspace.BuildFromSketches(table, 0)
	require.ErrorIs(t, err, subspace.ErrInvalidRank)
}
