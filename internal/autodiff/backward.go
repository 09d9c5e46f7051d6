package autodiff

import "github.com/born-ml/tapegrad/internal/autodiff/ops"

// Backward propagates d(out)/d(node) into the gradient of every ancestor of
// out, out itself included.
//
// Algorithm:
//  1. Seed the pass-local adjoint of out with 1
//  2. Walk the registry from out down to the first node; nodes registered
//     after out cannot be its ancestors
//  3. For each node with a derivative rule, add its contributions into the
//     adjoints of its operands (operands that do not require gradients are
//     skipped)
//  4. Add every adjoint into the node's grad
//
// Gradients accumulate: calling Backward twice without ZeroGrad adds a second
// full pass to every gradient. Absent, stale and gradient-free outputs are a
// no-op.
func (t *Tape) Backward(out Value) {
	n := t.lookup(out)
	if n == nil || !n.requiresGrad {
		return
	}

	root := int(out.id)
	adj := t.scratch(root + 1)
	adj[root] = 1

	for i := root; i >= 0; i-- {
		nd := t.nodes[i]
		g := adj[i]
		if nd.rule == ops.None || g == 0 {
			continue
		}
		ga, gb := ops.Backward(nd.rule, g, nd.cachedA, nd.cachedB)
		t.accumulate(adj, nd.children[0], ga)
		t.accumulate(adj, nd.children[1], gb)
	}

	for i, g := range adj {
		if g != 0 {
			t.nodes[i].grad += g
		}
	}
}

// accumulate adds g into the adjoint of child unless it is a gradient sink.
func (t *Tape) accumulate(adj []float32, child uint32, g float32) {
	if t.nodes[child].requiresGrad {
		adj[child] += g
	}
}

// scratch returns a zeroed adjoint buffer of length n, reusing capacity.
func (t *Tape) scratch(n int) []float32 {
	if cap(t.adjoint) < n {
		t.adjoint = make([]float32, n, max(n, cap(t.nodes)))
	}
	adj := t.adjoint[:n]
	clear(adj)
	return adj
}

// ZeroGrad resets the gradient of every registered node to zero.
func (t *Tape) ZeroGrad() {
	if t == nil {
		return
	}
	for _, n := range t.nodes {
		n.grad = 0
	}
}
