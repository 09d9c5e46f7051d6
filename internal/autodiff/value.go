package autodiff

import "fmt"

// Value is a handle to one node on a Tape.
//
// The zero Value is absent. A Value also becomes stale once its tape is
// cleared or destroyed; stale and absent Values behave the same way: accessors
// return zero values, setters do nothing and operators produce absent results.
type Value struct {
	tape *Tape
	gen  uint32
	id   uint32
}

func (v Value) node() *node {
	return v.tape.lookup(v)
}

// IsValid reports whether v refers to a live node.
func (v Value) IsValid() bool {
	return v.node() != nil
}

// Tape returns the tape v was created on, or nil for the zero Value.
func (v Value) Tape() *Tape {
	return v.tape
}

// Data returns the scalar held by v.
func (v Value) Data() float32 {
	if n := v.node(); n != nil {
		return n.data
	}
	return 0
}

// Grad returns the gradient accumulated into v.
func (v Value) Grad() float32 {
	if n := v.node(); n != nil {
		return n.grad
	}
	return 0
}

// Name returns the diagnostic label of v.
func (v Value) Name() string {
	if n := v.node(); n != nil {
		return label(n.name[:])
	}
	return ""
}

// Op returns the symbol of the operator that produced v, empty for leaves.
func (v Value) Op() string {
	if n := v.node(); n != nil {
		return label(n.op[:])
	}
	return ""
}

// RequiresGrad reports whether backward passes write gradients into v.
func (v Value) RequiresGrad() bool {
	if n := v.node(); n != nil {
		return n.requiresGrad
	}
	return false
}

// Children returns the operands v was computed from.
func (v Value) Children() []Value {
	n := v.node()
	if n == nil || n.numChildren == 0 {
		return nil
	}
	children := make([]Value, n.numChildren)
	for i := range children {
		children[i] = Value{tape: v.tape, gen: v.gen, id: n.children[i]}
	}
	return children
}

// SetData overwrites the scalar held by v. Gradients already recorded for
// nodes built from v keep using the value v had when they were created.
func (v Value) SetData(data float32) {
	if n := v.node(); n != nil {
		n.data = data
	}
}

// SetGrad overwrites the gradient of v.
func (v Value) SetGrad(grad float32) {
	if n := v.node(); n != nil {
		n.grad = grad
	}
}

// SetName replaces the diagnostic label of v. Labels longer than 31 bytes are
// truncated.
func (v Value) SetName(name string) {
	if n := v.node(); n != nil {
		setLabel(n.name[:], name)
	}
}

// Add returns v + o on v's tape.
func (v Value) Add(o Value) Value {
	return v.tape.Add(v, o)
}

// Sub returns v - o on v's tape.
func (v Value) Sub(o Value) Value {
	return v.tape.Sub(v, o)
}

// Mul returns v * o on v's tape.
func (v Value) Mul(o Value) Value {
	return v.tape.Mul(v, o)
}

// Div returns v / o on v's tape.
func (v Value) Div(o Value) Value {
	return v.tape.Div(v, o)
}

// Backward propagates gradients from v to every ancestor. See Tape.Backward.
func (v Value) Backward() {
	v.tape.Backward(v)
}

// String implements fmt.Stringer.
func (v Value) String() string {
	n := v.node()
	if n == nil {
		return "Value(<absent>)"
	}
	if name := label(n.name[:]); name != "" {
		return fmt.Sprintf("Value(%s, data=%g, grad=%g)", name, n.data, n.grad)
	}
	return fmt.Sprintf("Value(data=%g, grad=%g)", n.data, n.grad)
}
