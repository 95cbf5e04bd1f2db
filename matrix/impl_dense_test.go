// Package matrix_test contains unit tests for the Dense implementation
// of the Matrix interface in the matrix package.
package matrix_test

import (
	"math"
	"testing"

	"github.com/katalvlaran/asnet/matrix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewDenseInvalidDimensions ensures that NewDense rejects non-positive dimensions.
func TestNewDenseInvalidDimensions(t *testing.T) {
	_, err := matrix.NewDense(0, 5)
	require.ErrorIs(t, err, matrix.ErrInvalidDimensions)

	_, err = matrix.NewDense(5, 0)
	require.ErrorIs(t, err, matrix.ErrInvalidDimensions)
}

// TestRowsCols verifies that Rows() and Cols() return correct dimension values.
func TestRowsCols(t *testing.T) {
	rows, cols := 3, 4
	m, err := matrix.NewDense(rows, cols)
	require.NoError(t, err)

	require.Equal(t, rows, m.Rows())
	require.Equal(t, cols, m.Cols())
}

// TestAtSetOutOfRange ensures At() and Set() return ErrOutOfRange on invalid access.
func TestAtSetOutOfRange(t *testing.T) {
	m := MustDense(t, 2, 2)

	_, err := m.At(-1, 0)
	require.ErrorIs(t, err, matrix.ErrOutOfRange)

	_, err = m.At(0, 2)
	require.ErrorIs(t, err, matrix.ErrOutOfRange)

	err = m.Set(2, 0, 1.23)
	require.ErrorIs(t, err, matrix.ErrOutOfRange)

	err = m.Set(0, -1, 4.56)
	require.ErrorIs(t, err, matrix.ErrOutOfRange)
}

// TestSetRejectsNaNInf checks the default numeric policy.
func TestSetRejectsNaNInf(t *testing.T) {
	m := MustDense(t, 2, 2)
	require.ErrorIs(t, m.Set(0, 0, math.NaN()), matrix.ErrNaNInf)
	require.ErrorIs(t, m.SetRow(1, []float64{1, math.Inf(1)}), matrix.ErrNaNInf)

	// the rejected row is left untouched
	assert.True(t, m.IsZeroRow(1))
}

func TestNewDenseFromData(t *testing.T) {
	_, err := matrix.NewDenseFromData(2, 2, []float64{1, 2, 3})
	require.ErrorIs(t, err, matrix.ErrBadShape)

	src := []float64{1, 2, 3, 4}
	m, err := matrix.NewDenseFromData(2, 2, src)
	require.NoError(t, err)
	src[0] = 99
	assert.Equal(t, 1.0, MustAt(t, m, 0, 0), "constructor must copy its input")
}

func TestNewDenseFromRowsRagged(t *testing.T) {
	_, err := matrix.NewDenseFromRows([][]float64{{1, 2}, {3}})
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)

	_, err = matrix.NewDenseFromRows(nil)
	require.ErrorIs(t, err, matrix.ErrInvalidDimensions)
}

// TestRowCopyVsRawRow shows Row copies and RawRow shares storage.
func TestRowCopyVsRawRow(t *testing.T) {
	m := NewFilledDense(t, 2, 3, []float64{1, 2, 3, 4, 5, 6})

	row, err := m.Row(1)
	require.NoError(t, err)
	row[0] = -1
	assert.Equal(t, 4.0, MustAt(t, m, 1, 0))

	raw := m.RawRow(1)
	raw[0] = -1
	assert.Equal(t, -1.0, MustAt(t, m, 1, 0))
	assert.Len(t, raw, 3)

	_, err = m.Row(2)
	require.ErrorIs(t, err, matrix.ErrOutOfRange)
}

func TestZeroRows(t *testing.T) {
	m := NewFilledDense(t, 3, 2, []float64{1, 2, 3, 4, 5, 6})
	require.NoError(t, m.ZeroRows(1))
	assert.False(t, m.IsZeroRow(0))
	assert.True(t, m.IsZeroRow(1))
	assert.True(t, m.IsZeroRow(2))

	require.NoError(t, m.ZeroRows(3), "from == Rows() is a no-op")
	require.ErrorIs(t, m.ZeroRows(4), matrix.ErrOutOfRange)
}

// TestCloneIndependence ensures Clone() returns a deep copy that does not share storage.
func TestCloneIndependence(t *testing.T) {
	m := NewFilledDense(t, 2, 2, []float64{1, 0, 0, 2})

	clone := m.Clone()
	require.NoError(t, clone.Set(0, 0, 3.0))

	assert.Equal(t, 1.0, MustAt(t, m, 0, 0))
	assert.Equal(t, 3.0, MustAt(t, clone, 0, 0))
}

// TestGonumSharesStorage ensures the gonum bridge is a zero-copy view.
func TestGonumSharesStorage(t *testing.T) {
	m := NewFilledDense(t, 2, 2, []float64{1, 2, 3, 4})
	g := m.Gonum()
	g.Set(1, 1, 40)
	assert.Equal(t, 40.0, MustAt(t, m, 1, 1))

	back, err := matrix.FromGonum(g)
	require.NoError(t, err)
	ok, err := matrix.AllClose(m, back, 0, 0)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestViewAndMaterialize(t *testing.T) {
	m := NewFilledDense(t, 3, 3, []float64{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	})
	v, err := m.View(1, 1, 2, 2)
	require.NoError(t, err)
	x, err := v.At(1, 1)
	require.NoError(t, err)
	assert.Equal(t, 9.0, x)

	require.NoError(t, v.Set(0, 0, 50))
	assert.Equal(t, 50.0, MustAt(t, m, 1, 1), "view writes reach the base")

	out, err := v.Materialize()
	require.NoError(t, err)
	assert.Equal(t, 2, out.Rows())
	assert.Equal(t, 6.0, MustAt(t, out, 0, 1))

	_, err = m.View(2, 2, 2, 2)
	require.ErrorIs(t, err, matrix.ErrBadShape)
}

func TestApply(t *testing.T) {
	m := NewFilledDense(t, 2, 2, []float64{1, 2, 3, 4})
	require.NoError(t, m.Apply(func(_, _ int, v float64) float64 { return v * 2 }))
	assert.Equal(t, []float64{2, 4, 6, 8}, m.RawData())

	err := m.Apply(func(_, _ int, v float64) float64 { return math.Inf(1) })
	require.ErrorIs(t, err, matrix.ErrNaNInf)
}
