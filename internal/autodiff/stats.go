package autodiff

import (
	"fmt"
	"strings"
)

// Stats is a snapshot of tape memory usage.
type Stats struct {
	Nodes         int    // Registered nodes.
	Blocks        int    // Arena blocks held, idle retained ones included.
	BytesUsed     int    // Arena bytes occupied by the current graph.
	BytesReserved int    // Total capacity of the blocks held.
	PeakBytes     int    // High-water mark of BytesUsed across clears.
	Generation    uint32 // Current handle generation.
}

// Stats returns a snapshot of the tape's memory usage.
func (t *Tape) Stats() Stats {
	if t == nil {
		return Stats{}
	}
	return Stats{
		Nodes:         len(t.nodes),
		Blocks:        t.arena.NumBlocks(),
		BytesUsed:     t.arena.BytesUsed(),
		BytesReserved: t.arena.Cap(),
		PeakBytes:     t.arena.Peak(),
		Generation:    t.gen,
	}
}

// String renders the stats as a short multi-line report.
func (s Stats) String() string {
	var b strings.Builder
	b.WriteString("Tape stats:\n")
	fmt.Fprintf(&b, "  Number of nodes: %d\n", s.Nodes)
	fmt.Fprintf(&b, "  Number of blocks: %d\n", s.Blocks)
	fmt.Fprintf(&b, "  Memory used: %d bytes (%f Mb)\n", s.BytesUsed, float64(s.BytesUsed)/(1024*1024))
	fmt.Fprintf(&b, "  Memory reserved: %d bytes, peak %d bytes\n", s.BytesReserved, s.PeakBytes)
	return b.String()
}
