package data_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/asnet/data"
	"github.com/katalvlaran/asnet/matrix"
)

func TestSliceLoader(t *testing.T) {
	x, err := matrix.NewTensor(2, 3)
	require.NoError(t, err)
	l := data.NewSliceLoader(data.Batch{X: x, Labels: []int{0, 1}}, data.Batch{X: x, Labels: []int{1, 1}})
	assert.Equal(t, 2, l.Len())

	for i := 0; i < 2; i++ {
		b, err := l.Next()
		require.NoError(t, err)
		require.NoError(t, b.Validate())
	}
	_, err = l.Next()
	require.ErrorIs(t, err, io.EOF)

	l.Reset()
	_, err = l.Next()
	require.NoError(t, err)
}

func TestBatchValidate(t *testing.T) {
	x, err := matrix.NewTensor(2, 3)
	require.NoError(t, err)
	require.ErrorIs(t, data.Batch{X: x, Labels: []int{0}}.Validate(), data.ErrBadBatch)
	require.ErrorIs(t, data.Batch{}.Validate(), matrix.ErrNilMatrix)
}

func TestSyntheticDeterministic(t *testing.T) {
	mk := func() *data.Synthetic {
		s, err := data.NewSynthetic(3, 4, 10, []int{2, 2}, data.WithSeed(7))
		require.NoError(t, err)
		return s
	}
	a, b := mk(), mk()
	for i := 0; i < 3; i++ {
		ba, err := a.Next()
		require.NoError(t, err)
		bb, err := b.Next()
		require.NoError(t, err)
		assert.Equal(t, []int{4, 2, 2}, ba.X.Shape())
		assert.Equal(t, ba.X.Data(), bb.X.Data())
		assert.Equal(t, ba.Labels, bb.Labels)
		for _, c := range ba.Labels {
			assert.GreaterOrEqual(t, c, 0)
			assert.Less(t, c, 10)
		}
	}
	_, err := a.Next()
	require.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 3, a.Served())
}

func TestSyntheticBadSize(t *testing.T) {
	_, err := data.NewSynthetic(0, 4, 10, []int{3})
	require.ErrorIs(t, err, data.ErrBadSize)
	_, err = data.NewSynthetic(1, 4, 10, []int{3, 0})
	require.ErrorIs(t, err, data.ErrBadSize)
	assert.Panics(t, func() { data.WithScale(0) })
}
