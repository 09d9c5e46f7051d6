package optim

import "github.com/born-ml/tapegrad/internal/autodiff"

// Parameter is a trainable scalar that outlives tape generations.
//
// A tape is cleared between training steps, so the parameter keeps its value
// outside the tape and is re-bound to a fresh leaf for every graph:
//
//	tape.Clear()
//	w := param.Bind(tape)
//	loss := ... // built from w
//	loss.Backward()
//	param.Accumulate()
//	optimizer.Step()
//	optimizer.ZeroGrad()
type Parameter struct {
	Name string
	Data float32
	Grad float32 // Gradient collected since the last ZeroGrad.

	leaf autodiff.Value
}

// NewParameter creates a parameter holding data.
func NewParameter(name string, data float32) *Parameter {
	return &Parameter{Name: name, Data: data}
}

// Bind creates the leaf for this parameter on t and remembers it.
func (p *Parameter) Bind(t *autodiff.Tape) autodiff.Value {
	p.leaf = t.NewValue(p.Data, p.Name, true)
	return p.leaf
}

// Value returns the leaf created by the last Bind. It is stale once that
// tape has been cleared.
func (p *Parameter) Value() autodiff.Value {
	return p.leaf
}

// Accumulate adds the gradient of the bound leaf to Grad.
func (p *Parameter) Accumulate() {
	p.Grad += p.leaf.Grad()
}

// ZeroGrad resets Grad.
func (p *Parameter) ZeroGrad() {
	p.Grad = 0
}
