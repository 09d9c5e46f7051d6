package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/born-ml/tapegrad/internal/autodiff"
	"github.com/born-ml/tapegrad/internal/gradcheck"
)

type expression struct {
	name string
	f    gradcheck.Func
	x    []float64
}

var expressions = []expression{
	{
		name: "((a*b)+c)*f",
		f: func(t *autodiff.Tape, xs []autodiff.Value) autodiff.Value {
			return t.Mul(t.Add(t.Mul(xs[0], xs[1]), xs[2]), xs[3])
		},
		x: []float64{2, -3, 10, -2},
	},
	{
		name: "(a*b)/c-d",
		f: func(t *autodiff.Tape, xs []autodiff.Value) autodiff.Value {
			return t.Sub(t.Div(t.Mul(xs[0], xs[1]), xs[2]), xs[3])
		},
		x: []float64{2, -3, 10, -2},
	},
	{
		name: "a*a+a",
		f: func(t *autodiff.Tape, xs []autodiff.Value) autodiff.Value {
			return t.Add(t.Mul(xs[0], xs[0]), xs[0])
		},
		x: []float64{1.5},
	},
	{
		name: "1/(2-x)+3*x",
		f: func(t *autodiff.Tape, xs []autodiff.Value) autodiff.Value {
			return t.Add(t.ScalarDiv(1, t.ScalarSub(2, xs[0])), t.ScalarMul(3, xs[0]))
		},
		x: []float64{0.5},
	},
	{
		name: "(x+y)*(x-y)/y",
		f: func(t *autodiff.Tape, xs []autodiff.Value) autodiff.Value {
			x, y := xs[0], xs[1]
			return t.Div(t.Mul(t.Add(x, y), t.Sub(x, y)), y)
		},
		x: []float64{3, 2},
	},
}

func runCheck(ctx context.Context, args []string, stdout io.Writer) error {
	cfg := gradcheck.DefaultConfig()

	fs := newFlagSet("check", stdout)
	fs.Float64Var(&cfg.Step, "step", cfg.Step, "finite-difference step")
	fs.Float64Var(&cfg.AbsTol, "abs-tol", cfg.AbsTol, "absolute tolerance")
	fs.Float64Var(&cfg.RelTol, "rel-tol", cfg.RelTol, "relative tolerance")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var errs []error
	for _, e := range expressions {
		res, err := gradcheck.Check(e.f, e.x, cfg)
		if err != nil {
			fmt.Fprintf(stdout, "FAIL %-16s %v\n", e.name, err)
			errs = append(errs, fmt.Errorf("%s: %w", e.name, err))
			continue
		}
		fmt.Fprintf(stdout, "ok   %-16s grad=%v max-diff=%.2e\n", e.name, res.Analytic, res.MaxDiff)
	}
	return errors.Join(errs...)
}
