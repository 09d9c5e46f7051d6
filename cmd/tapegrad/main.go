// Package main provides the tapegrad CLI.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"k8s.io/klog/v2"
)

const version = "v0.1.0-dev"

func main() {
	klog.InitFlags(nil)
	flag.Usage = func() { usage(flag.CommandLine.Output()) }
	flag.Parse()
	defer klog.Flush()

	ctx := context.Background()
	if err := run(ctx, flag.Args(), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		klog.Flush()
		os.Exit(1)
	}
}

// run dispatches a subcommand. Output goes to stdout.
func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		usage(stdout)
		return nil
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "version":
		fmt.Fprintf(stdout, "tapegrad %s\n", version)
		return nil
	case "demo":
		return runDemo(ctx, rest, stdout)
	case "dot":
		return runDot(ctx, rest, stdout)
	case "check":
		return runCheck(ctx, rest, stdout)
	case "train":
		return runTrain(ctx, rest, stdout)
	case "help", "-h", "--help":
		usage(stdout)
		return nil
	default:
		return fmt.Errorf("unknown command %q (run 'tapegrad help')", cmd)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "tapegrad - scalar reverse-mode autodiff on an arena tape")
	fmt.Fprintf(w, "Version: %s\n\n", version)
	fmt.Fprintln(w, "Usage: tapegrad [klog flags] <command> [flags]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  version    Show version")
	fmt.Fprintln(w, "  demo       Differentiate L = ((a*b)+c)*f and print the tape")
	fmt.Fprintln(w, "  dot        Export the demo graph in Graphviz DOT format")
	fmt.Fprintln(w, "  check      Verify gradients against finite differences")
	fmt.Fprintln(w, "  train      Fit y = w*x + b with SGD or Adam")
}

// newFlagSet returns a flag set that reports errors instead of exiting.
func newFlagSet(name string, stdout io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stdout)
	return fs
}
