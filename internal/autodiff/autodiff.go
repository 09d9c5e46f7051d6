// Package autodiff implements scalar reverse-mode automatic differentiation on
// an arena-backed tape.
//
// Architecture:
//   - Tape: owns node memory (block arena) and a creation-ordered registry
//   - Value: generation-tagged handle into the registry, zero value is absent
//   - ops.Kind: derivative rule attached to each result node, with cached operands
//   - Backward: one reverse walk over the registry accumulates gradients
//
// Usage:
//
//	tape := autodiff.NewTape()
//	a := tape.NewValue(2, "a", true)
//	b := tape.NewValue(-3, "b", true)
//	c := tape.Mul(a, b)
//	c.Backward()
//	fmt.Println(a.Grad(), b.Grad()) // -3 2
//
// Operators never panic or return errors. Invalid operands and allocation
// failures yield an absent Value, which in turn makes every operator it is fed
// into absent as well; Tape.Err reports the first failure.
package autodiff

import "github.com/born-ml/tapegrad/internal/autodiff/ops"

// operands resolves both inputs of a binary operator.
func (t *Tape) operands(a, b Value) (*node, *node, bool) {
	if t == nil {
		return nil, nil, false
	}
	if t.destroyed {
		t.fail(ErrDestroyed)
		return nil, nil, false
	}
	x, y := t.lookup(a), t.lookup(b)
	if x == nil || y == nil {
		t.fail(ErrInvalidValue)
		return nil, nil, false
	}
	return x, y, true
}

// binary records the result of a kind b. The derivative rule and its caches
// are only attached when one of the operands requires gradients.
func (t *Tape) binary(kind ops.Kind, a, b Value) Value {
	x, y, ok := t.operands(a, b)
	if !ok {
		return Value{}
	}

	requiresGrad := x.requiresGrad || y.requiresGrad
	out, v := t.newNode(ops.Forward(kind, x.data, y.data), "", kind, requiresGrad, a, b)
	if out != nil && requiresGrad {
		out.rule = kind
		out.cachedA, out.cachedB = ops.Cache(kind, x.data, y.data)
	}
	return v
}

// Add returns a + b.
func (t *Tape) Add(a, b Value) Value {
	return t.binary(ops.Add, a, b)
}

// Sub returns a - b.
func (t *Tape) Sub(a, b Value) Value {
	return t.binary(ops.Sub, a, b)
}

// Mul returns a * b.
func (t *Tape) Mul(a, b Value) Value {
	return t.binary(ops.Mul, a, b)
}

// Div returns a / b. A zero divisor produces ±Inf or NaN, not an error.
func (t *Tape) Div(a, b Value) Value {
	return t.binary(ops.Div, a, b)
}

// constant materializes a literal left operand next to v. Constants never
// require gradients.
func (t *Tape) constant(s float32, v Value) Value {
	if t == nil {
		return Value{}
	}
	if t.lookup(v) == nil {
		t.fail(ErrInvalidValue)
		return Value{}
	}
	return t.NewValue(s, "", false)
}

// ScalarAdd returns s + v.
func (t *Tape) ScalarAdd(s float32, v Value) Value {
	return t.Add(t.constant(s, v), v)
}

// ScalarSub returns s - v.
func (t *Tape) ScalarSub(s float32, v Value) Value {
	return t.Sub(t.constant(s, v), v)
}

// ScalarMul returns s * v.
func (t *Tape) ScalarMul(s float32, v Value) Value {
	return t.Mul(t.constant(s, v), v)
}

// ScalarDiv returns s / v.
func (t *Tape) ScalarDiv(s float32, v Value) Value {
	return t.Div(t.constant(s, v), v)
}
