package gradcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/tapegrad/internal/autodiff"
)

// chain is L = ((a * b) + c) * f.
func chain(t *autodiff.Tape, xs []autodiff.Value) autodiff.Value {
	a, b, c, f := xs[0], xs[1], xs[2], xs[3]
	return t.Mul(t.Add(t.Mul(a, b), c), f)
}

func TestCheck_Chain(t *testing.T) {
	res, err := Check(chain, []float64{2, -3, 10, -2}, DefaultConfig())
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{6, -4, -2, 4}, res.Analytic, 1e-5)
	assert.InDeltaSlice(t, res.Analytic, res.Numeric, 1e-2)
	assert.Less(t, res.MaxDiff, 1e-2)
}

func TestCheck_Division(t *testing.T) {
	f := func(t *autodiff.Tape, xs []autodiff.Value) autodiff.Value {
		// (a * b) / c - d
		return t.Sub(t.Div(t.Mul(xs[0], xs[1]), xs[2]), xs[3])
	}
	res, err := Check(f, []float64{2, -3, 10, -2}, DefaultConfig())
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{-0.3, 0.2, 0.06, -1}, res.Analytic, 1e-5)
}

func TestCheck_ScalarOps(t *testing.T) {
	f := func(t *autodiff.Tape, xs []autodiff.Value) autodiff.Value {
		// 1 / (2 - x) + 3 * x
		return t.Add(t.ScalarDiv(1, t.ScalarSub(2, xs[0])), t.ScalarMul(3, xs[0]))
	}
	_, err := Check(f, []float64{0.5}, DefaultConfig())
	assert.NoError(t, err)
}

func TestCheck_Mismatch(t *testing.T) {
	// Overwriting the gradient between passes makes the analytic result wrong.
	f := func(t *autodiff.Tape, xs []autodiff.Value) autodiff.Value {
		out := t.Mul(xs[0], xs[0])
		xs[0].SetGrad(5)
		return out
	}
	res, err := Check(f, []float64{3}, DefaultConfig())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMismatch)

	var mm *MismatchError
	require.ErrorAs(t, err, &mm)
	assert.Equal(t, 0, mm.Index)
	assert.InDelta(t, 11, mm.Analytic, 1e-5)
	assert.InDelta(t, 6, mm.Numeric, 1e-2)
	assert.NotNil(t, res)
}

func TestCheck_InvalidOutput(t *testing.T) {
	f := func(t *autodiff.Tape, xs []autodiff.Value) autodiff.Value {
		return t.Add(xs[0], autodiff.Value{})
	}
	_, err := Check(f, []float64{1}, DefaultConfig())
	assert.ErrorIs(t, err, ErrInvalidOutput)
	assert.ErrorIs(t, err, autodiff.ErrInvalidValue)
}

func TestAnalytic_ReusesTape(t *testing.T) {
	tape := autodiff.NewTape()
	defer tape.Destroy()

	for i := 0; i < 3; i++ {
		grad, err := Analytic(tape, chain, []float64{2, -3, 10, -2})
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{6, -4, -2, 4}, grad, 1e-5)
	}
	assert.Equal(t, 1, tape.NumBlocks())
}
