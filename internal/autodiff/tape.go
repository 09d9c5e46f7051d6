package autodiff

import (
	"fmt"
	"math"

	"k8s.io/klog/v2"

	"github.com/born-ml/tapegrad/internal/arena"
	"github.com/born-ml/tapegrad/internal/autodiff/ops"
)

// InitialNodes is the default starting capacity of the node registry.
const InitialNodes = 64

// Tape owns the memory of every node built on it and keeps them in a registry
// in creation order.
//
// Because an operator can only reference nodes that already exist, every
// child is registered before its parents, so walking the registry backwards
// visits nodes in reverse topological order. Backward relies on this.
//
// Usage:
//
//	tape := NewTape()
//	defer tape.Destroy()
//	for step := range steps {
//	    tape.Clear()
//	    // ... build the graph ...
//	    tape.Backward(loss)
//	}
//
// A Tape is not safe for concurrent use. Run independent graphs on separate
// tapes instead.
type Tape struct {
	arena     *arena.Arena
	nodes     []*node   // registry, creation order
	adjoint   []float32 // per-pass scratch reused by Backward
	gen       uint32    // bumped by Clear and Destroy, starts at 1
	destroyed bool
	err       error
}

type config struct {
	initialNodes int
	arenaOpts    []arena.Option
}

// Option configures a Tape.
type Option func(*config)

// WithInitialNodes sets the starting registry capacity. The registry doubles
// whenever it fills up.
func WithInitialNodes(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.initialNodes = n
		}
	}
}

// WithInitialBlocks sets the starting capacity of the arena block list.
func WithInitialBlocks(n int) Option {
	return func(c *config) {
		c.arenaOpts = append(c.arenaOpts, arena.WithInitialBlocks(n))
	}
}

// WithBlockSize sets the arena block capacity in bytes.
func WithBlockSize(n int) Option {
	return func(c *config) {
		c.arenaOpts = append(c.arenaOpts, arena.WithBlockSize(n))
	}
}

// WithMaxBlocks bounds the arena. Once the bound is hit, node construction
// fails with an error wrapping arena.ErrExhausted.
func WithMaxBlocks(n int) Option {
	return func(c *config) {
		c.arenaOpts = append(c.arenaOpts, arena.WithMaxBlocks(n))
	}
}

// NewTape creates an empty tape.
func NewTape(opts ...Option) *Tape {
	cfg := config{initialNodes: InitialNodes}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Tape{
		arena: arena.New(cfg.arenaOpts...),
		nodes: make([]*node, 0, cfg.initialNodes),
		gen:   1,
	}
}

// lookup resolves v against the current generation. It returns nil for
// absent, stale and foreign handles.
func (t *Tape) lookup(v Value) *node {
	if t == nil || v.tape != t || t.destroyed || v.gen != t.gen || int(v.id) >= len(t.nodes) {
		return nil
	}
	return t.nodes[v.id]
}

// fail records err if no earlier error is pending.
func (t *Tape) fail(err error) {
	if t.err == nil {
		t.err = err
	}
	klog.V(4).InfoS("Node construction failed", "err", err)
}

// Err returns the first construction error since the tape was created or
// last cleared.
func (t *Tape) Err() error {
	if t == nil {
		return nil
	}
	return t.err
}

// register appends n to the registry, doubling its capacity when full.
func (t *Tape) register(n *node) uint32 {
	if len(t.nodes) == cap(t.nodes) {
		grown := make([]*node, len(t.nodes), max(2*cap(t.nodes), 1))
		copy(grown, t.nodes)
		t.nodes = grown
	}
	t.nodes = append(t.nodes, n)
	return uint32(len(t.nodes) - 1) //nolint:gosec // bounded by newNode
}

// newNode allocates and registers a node. On failure nothing is registered
// and the zero Value is returned.
func (t *Tape) newNode(data float32, name string, kind ops.Kind, requiresGrad bool, children ...Value) (*node, Value) {
	if t == nil {
		return nil, Value{}
	}
	if t.destroyed {
		t.fail(ErrDestroyed)
		return nil, Value{}
	}
	if len(t.nodes) >= math.MaxUint32 {
		t.fail(ErrTooManyNodes)
		return nil, Value{}
	}

	n, err := arena.Allocate[node](t.arena)
	if err != nil {
		t.fail(fmt.Errorf("autodiff: allocate node: %w", err))
		return nil, Value{}
	}

	n.data = data
	n.requiresGrad = requiresGrad
	setLabel(n.name[:], name)
	setLabel(n.op[:], kind.String())
	for _, c := range children {
		n.children[n.numChildren] = c.id
		n.numChildren++
	}

	id := t.register(n)
	return n, Value{tape: t, gen: t.gen, id: id}
}

// NewValue creates a leaf holding data. Leaves have no operands and no
// derivative rule; when requiresGrad is false backward passes never write
// into it.
func (t *Tape) NewValue(data float32, name string, requiresGrad bool) Value {
	_, v := t.newNode(data, name, ops.None, requiresGrad)
	return v
}

// Values returns handles to every registered node in creation order.
func (t *Tape) Values() []Value {
	if t == nil || t.destroyed {
		return nil
	}
	values := make([]Value, len(t.nodes))
	for i := range values {
		values[i] = Value{tape: t, gen: t.gen, id: uint32(i)} //nolint:gosec // registry is bounded
	}
	return values
}

// Clear forgets every node while keeping the arena blocks and registry
// capacity for the next graph. All Values obtained before the call become
// stale, and the pending error is reset.
func (t *Tape) Clear() {
	if t == nil || t.destroyed {
		return
	}
	t.arena.Reset()
	clear(t.nodes)
	t.nodes = t.nodes[:0]
	t.gen++
	t.err = nil
	klog.V(4).InfoS("Cleared tape", "generation", t.gen, "blocks", t.arena.NumBlocks())
}

// Destroy releases all memory held by the tape. Every Value becomes stale and
// the tape refuses to build new nodes. Destroy is idempotent.
func (t *Tape) Destroy() {
	if t == nil || t.destroyed {
		return
	}
	t.arena.Release()
	t.nodes = nil
	t.adjoint = nil
	t.gen++
	t.destroyed = true
	klog.V(4).InfoS("Destroyed tape", "generation", t.gen)
}

// Destroyed reports whether Destroy has been called.
func (t *Tape) Destroyed() bool {
	return t != nil && t.destroyed
}

// Generation identifies the current set of live Values. It changes on every
// Clear and Destroy.
func (t *Tape) Generation() uint32 {
	if t == nil {
		return 0
	}
	return t.gen
}

// NumNodes returns the number of registered nodes.
func (t *Tape) NumNodes() int {
	if t == nil {
		return 0
	}
	return len(t.nodes)
}

// NumBlocks returns the number of arena blocks held.
func (t *Tape) NumBlocks() int {
	if t == nil {
		return 0
	}
	return t.arena.NumBlocks()
}

// BytesUsed returns the arena bytes occupied by the current graph.
func (t *Tape) BytesUsed() int {
	if t == nil {
		return 0
	}
	return t.arena.BytesUsed()
}
