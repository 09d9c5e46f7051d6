package autodiff

import (
	"bytes"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/tapegrad/internal/arena"
	"github.com/born-ml/tapegrad/internal/autodiff/ops"
)

// nodeBytes is the arena footprint of one node.
var nodeBytes = (int(unsafe.Sizeof(node{})) + arena.Alignment - 1) &^ (arena.Alignment - 1)

func TestNode_FitsBlock(t *testing.T) {
	assert.LessOrEqual(t, nodeBytes, arena.BlockSize)
	assert.Zero(t, nodeBytes%arena.Alignment)
}

func TestNewTape_InitialCapacity(t *testing.T) {
	tape := NewTape()
	assert.Equal(t, InitialNodes, cap(tape.nodes))
	assert.Equal(t, uint32(1), tape.Generation())
	assert.Equal(t, 0, tape.NumBlocks())
}

func TestRegister_Doubles(t *testing.T) {
	tape := NewTape(WithInitialNodes(2))

	for i := 0; i < 5; i++ {
		require.True(t, tape.NewValue(float32(i), "", false).IsValid())
	}
	assert.Equal(t, 5, tape.NumNodes())
	assert.Equal(t, 8, cap(tape.nodes))

	for i, v := range tape.Values() {
		assert.Equal(t, float32(i), v.Data(), "registry keeps creation order")
	}
}

func TestRegistry_ChildrenPrecedeParents(t *testing.T) {
	tape := NewTape()
	a := tape.NewValue(1, "a", true)
	b := tape.NewValue(2, "b", true)
	c := tape.Add(tape.Mul(a, b), tape.Sub(b, a))
	_ = tape.Div(c, a)

	for i, n := range tape.nodes {
		for k := range n.numChildren {
			assert.Less(t, int(n.children[k]), i)
		}
	}
}

func TestBytesUsed_PerNode(t *testing.T) {
	tape := NewTape()

	a := tape.NewValue(1, "a", true)
	assert.Equal(t, nodeBytes, tape.BytesUsed())

	_ = tape.Mul(a, a)
	assert.Equal(t, 2*nodeBytes, tape.BytesUsed())
	assert.Equal(t, 1, tape.NumBlocks())
}

func TestBlocks_OpenWhenFull(t *testing.T) {
	tape := NewTape()
	perBlock := arena.BlockSize / nodeBytes

	for i := 0; i < perBlock; i++ {
		tape.NewValue(0, "", false)
	}
	assert.Equal(t, 1, tape.NumBlocks())

	tape.NewValue(0, "", false)
	assert.Equal(t, 2, tape.NumBlocks())
}

func TestExhaustion_NoPartialNode(t *testing.T) {
	tape := NewTape(WithMaxBlocks(1))
	perBlock := arena.BlockSize / nodeBytes

	values := make([]Value, perBlock)
	for i := range values {
		values[i] = tape.NewValue(float32(i), "", true)
		require.True(t, values[i].IsValid())
	}
	require.NoError(t, tape.Err())

	sum := tape.Add(values[0], values[1])
	assert.False(t, sum.IsValid())
	assert.Equal(t, perBlock, tape.NumNodes())
	assert.ErrorIs(t, tape.Err(), arena.ErrExhausted)

	leaf := tape.NewValue(1, "late", true)
	assert.False(t, leaf.IsValid())
	assert.Equal(t, perBlock, tape.NumNodes())

	// Clearing makes room again.
	tape.Clear()
	assert.True(t, tape.NewValue(1, "again", true).IsValid())
	assert.NoError(t, tape.Err())
}

func TestBinary_RuleOnlyWhenRequired(t *testing.T) {
	tape := NewTape()
	a := tape.NewValue(6, "a", false)
	b := tape.NewValue(3, "b", false)
	g := tape.NewValue(3, "g", true)

	plain := tape.Div(a, b)
	n := tape.lookup(plain)
	assert.Equal(t, ops.None, n.rule)
	assert.Equal(t, float32(0), n.cachedA)
	assert.Equal(t, "/", plain.Op())

	tracked := tape.Div(a, g)
	n = tape.lookup(tracked)
	assert.Equal(t, ops.Div, n.rule)
	assert.InDelta(t, 1.0/3.0, n.cachedA, 1e-6)
	assert.InDelta(t, -6.0/9.0, n.cachedB, 1e-6)
}

func TestScratch_Reused(t *testing.T) {
	tape := NewTape()
	a := tape.NewValue(1, "a", true)
	b := tape.Mul(a, a)
	b.Backward()
	first := unsafe.SliceData(tape.adjoint)

	b.Backward()
	assert.Equal(t, first, unsafe.SliceData(tape.adjoint))
	assert.InDelta(t, 4, a.Grad(), 1e-6)
}

func TestLabel(t *testing.T) {
	var buf [8]byte
	setLabel(buf[:], "abc")
	assert.Equal(t, "abc", label(buf[:]))

	setLabel(buf[:], "abcdefghij")
	assert.Equal(t, "abcdefg", label(buf[:]))

	setLabel(buf[:], "")
	assert.Equal(t, "", label(buf[:]))
}

func TestAncestors(t *testing.T) {
	tape := NewTape()
	a := tape.NewValue(1, "a", true)
	b := tape.NewValue(2, "b", true)
	c := tape.NewValue(3, "c", true)
	ab := tape.Mul(a, b)
	_ = tape.Add(b, c)

	set := tape.ancestors(ab.id)
	assert.Equal(t, []uint32{0, 1, 3}, set.ToArray())
}

func TestWriteDOT(t *testing.T) {
	tape := NewTape()
	a := tape.NewValue(2, "a", true)
	b := tape.NewValue(-3, "b|x", true)
	e := tape.Mul(a, b)
	e.SetName("e")
	e.Backward()

	var buf bytes.Buffer
	require.NoError(t, tape.WriteDOT(&buf))
	out := buf.String()

	assert.Contains(t, out, "digraph G {")
	assert.Contains(t, out, "rankdir=LR;")
	assert.Contains(t, out, `node_0 [label="{ a | data 2.0000 | grad -3.0000 }"];`)
	assert.Contains(t, out, `node_1 [label="{ b\|x | data -3.0000 | grad 2.0000 }"];`)
	assert.Contains(t, out, `node_op_2 [label="*", shape=circle];`)
	assert.Contains(t, out, "node_op_2 -> node_2;")
	assert.Contains(t, out, "node_0 -> node_op_2;")
	assert.Contains(t, out, "node_1 -> node_op_2;")
	assert.NotContains(t, out, "node_op_0")

	// Export is read-only.
	assert.Equal(t, 3, tape.NumNodes())
	assert.InDelta(t, -3, a.Grad(), 1e-6)
}

func TestWriteDOTFrom(t *testing.T) {
	tape := NewTape()
	a := tape.NewValue(1, "a", true)
	b := tape.NewValue(2, "b", true)
	c := tape.NewValue(3, "c", true)
	ab := tape.Add(a, b)
	_ = tape.Mul(b, c)

	var buf bytes.Buffer
	require.NoError(t, tape.WriteDOTFrom(&buf, ab))
	out := buf.String()

	assert.Contains(t, out, "node_0 [")
	assert.Contains(t, out, "node_1 [")
	assert.Contains(t, out, "node_3 [")
	assert.NotContains(t, out, "node_2 [")
	assert.NotContains(t, out, "node_4 [")

	assert.ErrorIs(t, tape.WriteDOTFrom(&buf, Value{}), ErrInvalidValue)

	tape.Destroy()
	assert.ErrorIs(t, tape.WriteDOT(&buf), ErrDestroyed)
}
