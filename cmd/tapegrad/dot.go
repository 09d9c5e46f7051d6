package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"k8s.io/klog/v2"

	"github.com/born-ml/tapegrad/autodiff"
)

func runDot(ctx context.Context, args []string, stdout io.Writer) error {
	fs := newFlagSet("dot", stdout)
	output := fs.String("o", "-", "output path; '-' writes to stdout, a .zst suffix compresses with zstd")
	subgraph := fs.Bool("subgraph", false, "export only the ancestors of L")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tape := autodiff.NewTape()
	defer tape.Destroy()

	l, err := demoGraph(tape)
	if err != nil {
		return err
	}
	// Unrelated node, only visible in the full export.
	tape.NewValue(1, "unused", false)

	write := tape.WriteDOT
	if *subgraph {
		write = func(w io.Writer) error { return tape.WriteDOTFrom(w, l) }
	}

	if *output == "-" {
		return write(stdout)
	}
	if err := writeFile(*output, write); err != nil {
		return err
	}
	klog.FromContext(ctx).Info("Wrote graph", "path", *output, "nodes", tape.NumNodes())
	return nil
}

// writeFile creates path and writes to it, compressing if path ends in ".zst".
func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %q: %w", path, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	if !strings.HasSuffix(path, ".zst") {
		return write(f)
	}

	enc, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("creating zstd writer: %w", err)
	}
	if err := write(enc); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}
