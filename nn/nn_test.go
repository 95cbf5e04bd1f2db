package nn_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/asnet/matrix"
	"github.com/katalvlaran/asnet/nn"
)

func randDense(t *testing.T, rows, cols int, rng *rand.Rand) *matrix.Dense {
	t.Helper()
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = rng.NormFloat64()
	}
	d, err := matrix.NewDenseFromData(rows, cols, data)
	require.NoError(t, err)
	return d
}

func smallNet(rng *rand.Rand, inplace bool) *nn.Sequential {
	return nn.NewSequential(
		nn.NewLinear(5, 4, rng),
		nn.NewReLU(inplace),
		nn.NewLinear(4, 3, rng),
		nn.NewLogSoftmax(),
	)
}

// lossAt evaluates the scalar mean NLL for input x.
func lossAt(t *testing.T, net *nn.Sequential, x *matrix.Dense, labels []int) float64 {
	t.Helper()
	out, err := net.Forward(nn.NewVariable(x, false))
	require.NoError(t, err)
	l, err := nn.NewNLLLoss(nn.ReduceMean).Forward(out, labels)
	require.NoError(t, err)
	return l.RawData()[0]
}

// TestInputGradientMatchesFiniteDifferences checks ∂L/∂x against central differences.
func TestInputGradientMatchesFiniteDifferences(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	net := smallNet(rng, false)
	x := randDense(t, 3, 5, rng)
	labels := []int{0, 2, 1}

	v := nn.NewVariable(x.Copy(), true)
	out, err := net.Forward(v)
	require.NoError(t, err)
	crit := nn.NewNLLLoss(nn.ReduceMean)
	_, err = crit.Forward(out, labels)
	require.NoError(t, err)
	one, err := matrix.NewDenseFromData(1, 1, []float64{1})
	require.NoError(t, err)
	gp, err := crit.Backward(one)
	require.NoError(t, err)
	require.NoError(t, net.Backward(gp))
	require.NotNil(t, v.Grad())

	const h = 1e-6
	for idx := range x.RawData() {
		xp, xm := x.Copy(), x.Copy()
		xp.RawData()[idx] += h
		xm.RawData()[idx] -= h
		num := (lossAt(t, net, xp, labels) - lossAt(t, net, xm, labels)) / (2 * h)
		assert.InDelta(t, num, v.Grad().RawData()[idx], 1e-6, "idx %d", idx)
	}
}

// TestBackwardRetainsGraph calls Backward twice on one Forward; gradients accumulate.
func TestBackwardRetainsGraph(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	net := smallNet(rng, false)
	v := nn.NewVariable(randDense(t, 2, 5, rng), true)
	out, err := net.Forward(v)
	require.NoError(t, err)

	g := randDense(t, out.Rows(), out.Cols(), rng)
	require.NoError(t, net.Backward(g))
	first := v.Grad().Copy()
	require.NoError(t, net.Backward(g))

	for i, x := range v.Grad().RawData() {
		assert.InDelta(t, 2*first.RawData()[i], x, 1e-12)
	}

	v.ZeroGrad()
	assert.Nil(t, v.Grad())
}

func TestHooksSeeOutputGradients(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	net := smallNet(rng, false)

	var seen []*matrix.Dense
	remove, err := net.RegisterBackwardHook(0, func(g *matrix.Dense) { seen = append(seen, g) })
	require.NoError(t, err)

	x := randDense(t, 6, 5, rng)
	out, err := net.Forward(nn.NewVariable(x, false))
	require.NoError(t, err)
	require.NoError(t, net.Backward(randDense(t, out.Rows(), out.Cols(), rng)))

	require.Len(t, seen, 1)
	assert.Equal(t, 6, seen[0].Rows())
	assert.Equal(t, 4, seen[0].Cols(), "hook on layer 0 sees ∂L/∂(Linear 5→4 output)")

	remove()
	remove() // idempotent
	require.NoError(t, net.Backward(randDense(t, out.Rows(), out.Cols(), rng)))
	assert.Len(t, seen, 1)
}

func TestHookRegistrationErrors(t *testing.T) {
	net := smallNet(rand.New(rand.NewSource(4)), false)
	_, err := net.RegisterBackwardHook(4, func(*matrix.Dense) {})
	require.ErrorIs(t, err, nn.ErrLayerIndex)
	_, err = net.RegisterBackwardHook(-1, func(*matrix.Dense) {})
	require.ErrorIs(t, err, nn.ErrLayerIndex)
	_, err = net.RegisterBackwardHook(0, nil)
	require.ErrorIs(t, err, nn.ErrNilHook)
}

func TestBackwardWithoutForward(t *testing.T) {
	net := smallNet(rand.New(rand.NewSource(5)), false)
	g, err := matrix.NewDense(1, 3)
	require.NoError(t, err)
	require.ErrorIs(t, net.Backward(g), nn.ErrNoGraph)
}

func TestInplaceToggle(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	net := nn.NewSequential(nn.NewReLU(true), nn.NewLinear(3, 2, rng))
	assert.True(t, net.Inplace())

	x := randDense(t, 2, 3, rng)
	_, err := net.Forward(nn.NewVariable(x, true))
	require.ErrorIs(t, err, nn.ErrInplaceOnTracked)

	net.SetInplace(false)
	assert.False(t, net.Inplace())
	before := x.Copy()
	_, err = net.Forward(nn.NewVariable(x, true))
	require.NoError(t, err)
	assert.Equal(t, before.RawData(), x.RawData(), "out-of-place ReLU leaves the input alone")
}

func TestNLLLossReductions(t *testing.T) {
	pred, err := matrix.NewDenseFromRows([][]float64{{-1, -2}, {-3, -4}})
	require.NoError(t, err)

	for _, tc := range []struct {
		r    nn.Reduction
		want []float64
	}{
		{nn.ReduceMean, []float64{2.5}},
		{nn.ReduceSum, []float64{5}},
		{nn.ReduceNone, []float64{1, 4}},
	} {
		out, err := nn.NewNLLLoss(tc.r).Forward(pred, []int{0, 1})
		require.NoError(t, err)
		assert.Equal(t, tc.want, out.RawData(), tc.r.String())
	}

	_, err = nn.NewNLLLoss(nn.ReduceMean).Forward(pred, []int{0})
	require.ErrorIs(t, err, nn.ErrBadTarget)
	_, err = nn.NewNLLLoss(nn.ReduceMean).Forward(pred, []int{0, 2})
	require.ErrorIs(t, err, nn.ErrBadTarget)

	r, err := nn.ParseReduction("none")
	require.NoError(t, err)
	assert.Equal(t, nn.ReduceNone, r)
	_, err = nn.ParseReduction("max")
	require.ErrorIs(t, err, nn.ErrBadReduction)
}

func TestLinearParameterGradients(t *testing.T) {
	w, err := matrix.NewDenseFromRows([][]float64{{1, 0}, {0, 1}, {1, 1}})
	require.NoError(t, err)
	lin, err := nn.NewLinearFromWeights(w, []float64{0.5, -0.5})
	require.NoError(t, err)

	x, err := matrix.NewDenseFromRows([][]float64{{1, 2, 3}})
	require.NoError(t, err)
	y, err := lin.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, []float64{4.5, 4.5}, y.RawData())

	g, err := matrix.NewDenseFromRows([][]float64{{1, -1}})
	require.NoError(t, err)
	gx, err := lin.Backward(g)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, -1, 0}, gx.RawData())
	assert.Equal(t, []float64{1, -1, 2, -2, 3, -3}, lin.GradW.RawData())
	assert.Equal(t, []float64{1, -1}, lin.GradB)

	_, err = nn.NewLinearFromWeights(w, []float64{1})
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}
