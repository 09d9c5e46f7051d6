package autodiff

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
)

// WriteDOT writes every registered node as a Graphviz digraph.
//
// Each node becomes a record with its name, data and gradient. Nodes produced
// by an operator get an extra circle for the operator, wired
// operand -> operator -> result. The tape is only read.
func (t *Tape) WriteDOT(w io.Writer) error {
	if t == nil || t.destroyed {
		return ErrDestroyed
	}
	return t.writeDOT(w, nil)
}

// WriteDOTFrom writes only out and its ancestors.
func (t *Tape) WriteDOTFrom(w io.Writer, out Value) error {
	if t.lookup(out) == nil {
		return ErrInvalidValue
	}
	return t.writeDOT(w, t.ancestors(out.id))
}

// ancestors returns the registry indices reachable from root through child
// links. A single backward sweep suffices because children precede parents.
func (t *Tape) ancestors(root uint32) *roaring.Bitmap {
	set := roaring.New()
	set.Add(root)
	for i := int(root); i >= 0; i-- {
		if !set.Contains(uint32(i)) { //nolint:gosec // i <= root
			continue
		}
		n := t.nodes[i]
		for c := range n.numChildren {
			set.Add(n.children[c])
		}
	}
	return set
}

// writeDOT emits the nodes in only, or all nodes when only is nil.
func (t *Tape) writeDOT(w io.Writer, only *roaring.Bitmap) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "digraph G {")
	fmt.Fprintln(bw, "  rankdir=LR;")
	fmt.Fprintln(bw, "  node [shape=record];")

	for i, n := range t.nodes {
		if only != nil && !only.Contains(uint32(i)) { //nolint:gosec // registry is bounded
			continue
		}
		fmt.Fprintf(bw, "  node_%d [label=\"{ %s | data %.4f | grad %.4f }\"];\n",
			i, escapeRecord(label(n.name[:])), n.data, n.grad)

		if n.numChildren == 0 {
			continue
		}
		fmt.Fprintf(bw, "  node_op_%d [label=\"%s\", shape=circle];\n", i, escapeRecord(label(n.op[:])))
		fmt.Fprintf(bw, "  node_op_%d -> node_%d;\n", i, i)
		for c := range n.numChildren {
			fmt.Fprintf(bw, "  node_%d -> node_op_%d;\n", n.children[c], i)
		}
	}

	fmt.Fprintln(bw, "}")
	return bw.Flush()
}

var recordEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	`{`, `\{`,
	`}`, `\}`,
	`|`, `\|`,
	`<`, `\<`,
	`>`, `\>`,
)

func escapeRecord(s string) string {
	return recordEscaper.Replace(s)
}
