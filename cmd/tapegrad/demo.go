package main

import (
	"context"
	"fmt"
	"io"

	"github.com/born-ml/tapegrad/autodiff"
)

// demoGraph builds L = ((a*b)+c)*f with a=2, b=-3, c=10, f=-2 and runs
// backward from L.
func demoGraph(tape *autodiff.Tape) (autodiff.Value, error) {
	a := tape.NewValue(2, "a", true)
	b := tape.NewValue(-3, "b", true)
	c := tape.NewValue(10, "c", true)
	f := tape.NewValue(-2, "f", true)

	e := a.Mul(b)
	e.SetName("e")
	d := e.Add(c)
	d.SetName("d")
	l := d.Mul(f)
	l.SetName("L")

	if err := tape.Err(); err != nil {
		return autodiff.Value{}, fmt.Errorf("building graph: %w", err)
	}
	l.Backward()
	return l, nil
}

func runDemo(ctx context.Context, args []string, stdout io.Writer) error {
	fs := newFlagSet("demo", stdout)
	blockSize := fs.Int("block-size", 4096, "arena block size in bytes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tape := autodiff.NewTape(autodiff.WithBlockSize(*blockSize))
	defer tape.Destroy()

	if _, err := demoGraph(tape); err != nil {
		return err
	}

	for _, v := range tape.Values() {
		fmt.Fprintln(stdout, v)
	}
	fmt.Fprintln(stdout, tape.Stats())
	return nil
}
