package ops

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind_String(t *testing.T) {
	assert.Equal(t, "", None.String())
	assert.Equal(t, "+", Add.String())
	assert.Equal(t, "-", Sub.String())
	assert.Equal(t, "*", Mul.String())
	assert.Equal(t, "/", Div.String())
	assert.Equal(t, "", Kind(42).String())
}

func TestForward(t *testing.T) {
	tests := []struct {
		kind Kind
		a, b float32
		want float32
	}{
		{Add, 2, 3, 5},
		{Add, -4, 7, 3},
		{Sub, 10, 4, 6},
		{Sub, 2, 5, -3},
		{Mul, 3, 4, 12},
		{Mul, 5, 0, 0},
		{Div, 10, 4, 2.5},
		{Div, 6, -3, -2},
		{None, 1, 2, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Forward(tt.kind, tt.a, tt.b), "%v(%v, %v)", tt.kind, tt.a, tt.b)
	}
}

func TestForward_DivByZero(t *testing.T) {
	assert.True(t, math.IsInf(float64(Forward(Div, 1, 0)), 1))
	assert.True(t, math.IsInf(float64(Forward(Div, -1, 0)), -1))
	assert.True(t, math.IsNaN(float64(Forward(Div, 0, 0))))
}

func TestCacheAndBackward(t *testing.T) {
	tests := []struct {
		name         string
		kind         Kind
		a, b, grad   float32
		wantA, wantB float32
	}{
		{"add", Add, 2, -3, 1, 1, 1},
		{"sub", Sub, 5, 3, 1, 1, -1},
		{"mul", Mul, 2, -3, 1, -3, 2},
		{"mul scaled", Mul, 2, -3, 0.5, -1.5, 1},
		{"div", Div, 6, 3, 1, 1.0 / 3.0, -6.0 / 9.0},
		{"none", None, 1, 1, 1, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ca, cb := Cache(tt.kind, tt.a, tt.b)
			ga, gb := Backward(tt.kind, tt.grad, ca, cb)
			assert.InDelta(t, tt.wantA, ga, 1e-6)
			assert.InDelta(t, tt.wantB, gb, 1e-6)
		})
	}
}

// Mul must route each partial to its own operand.
func TestMulBackward_DistinctOperands(t *testing.T) {
	ca, cb := Cache(Mul, 7, 11)
	ga, gb := Backward(Mul, 1, ca, cb)
	assert.Equal(t, float32(11), ga)
	assert.Equal(t, float32(7), gb)
}
