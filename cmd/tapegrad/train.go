package main

import (
	"context"
	"fmt"
	"io"

	"k8s.io/klog/v2"

	"github.com/born-ml/tapegrad/autodiff"
	"github.com/born-ml/tapegrad/internal/parallel"
	"github.com/born-ml/tapegrad/optim"
)

type trainConfig struct {
	optimizer string
	lr        float64
	momentum  float64
	epochs    int
	samples   int
	trueW     float64
	trueB     float64
	parallel  parallel.Config
}

// sample is one (x, y) training point.
type sample struct {
	x, y float32
}

// dataset returns n points evenly spaced over [-1, 1] on the line y = w*x + b.
func dataset(n int, w, b float32) []sample {
	data := make([]sample, n)
	for i := range data {
		x := float32(-1)
		if n > 1 {
			x += 2 * float32(i) / float32(n-1)
		}
		data[i] = sample{x: x, y: w*x + b}
	}
	return data
}

func runTrain(ctx context.Context, args []string, stdout io.Writer) error {
	cfg := trainConfig{parallel: parallel.DefaultConfig()}

	fs := newFlagSet("train", stdout)
	fs.StringVar(&cfg.optimizer, "optimizer", "sgd", "optimizer: sgd or adam")
	fs.Float64Var(&cfg.lr, "lr", 0.1, "learning rate")
	fs.Float64Var(&cfg.momentum, "momentum", 0.9, "SGD momentum")
	fs.IntVar(&cfg.epochs, "epochs", 200, "number of epochs")
	fs.IntVar(&cfg.samples, "samples", 64, "number of training samples")
	fs.Float64Var(&cfg.trueW, "w", 2, "slope of the generating line")
	fs.Float64Var(&cfg.trueB, "b", 1, "intercept of the generating line")
	fs.IntVar(&cfg.parallel.NumWorkers, "workers", cfg.parallel.NumWorkers, "worker goroutines, each with a private tape")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg.parallel.Enabled = cfg.parallel.NumWorkers > 1

	w, b, loss, err := train(ctx, cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "w=%.4f b=%.4f loss=%.6f\n", w.Data, b.Data, loss)
	return nil
}

// train fits w and b by full-batch gradient descent on the mean squared error.
// Per-sample gradients are computed on worker tapes and averaged.
func train(ctx context.Context, cfg trainConfig) (w, b *optim.Parameter, loss float32, err error) {
	if cfg.samples <= 0 {
		return nil, nil, 0, fmt.Errorf("samples must be positive, got %d", cfg.samples)
	}
	log := klog.FromContext(ctx)

	w = optim.NewParameter("w", 0)
	b = optim.NewParameter("b", 0)
	params := []*optim.Parameter{w, b}

	var opt optim.Optimizer
	switch cfg.optimizer {
	case "sgd":
		opt = optim.NewSGD(params, optim.SGDConfig{LR: float32(cfg.lr), Momentum: float32(cfg.momentum)})
	case "adam":
		opt = optim.NewAdam(params, optim.AdamConfig{LR: float32(cfg.lr)})
	default:
		return nil, nil, 0, fmt.Errorf("unknown optimizer %q", cfg.optimizer)
	}

	data := dataset(cfg.samples, float32(cfg.trueW), float32(cfg.trueB))
	losses := make([]float32, len(data))
	gradW := make([]float32, len(data))
	gradB := make([]float32, len(data))

	for epoch := 0; epoch < cfg.epochs; epoch++ {
		wd, bd := w.Data, b.Data

		err := parallel.ForEach(ctx, len(data), func(_ context.Context, i int, tape *autodiff.Tape) error {
			wv := tape.NewValue(wd, "w", true)
			bv := tape.NewValue(bd, "b", true)
			x := tape.NewValue(data[i].x, "x", false)
			diff := tape.ScalarSub(data[i].y, tape.Add(tape.Mul(wv, x), bv))
			l := tape.Mul(diff, diff)
			if err := tape.Err(); err != nil {
				return fmt.Errorf("sample %d: %w", i, err)
			}
			l.Backward()

			losses[i], gradW[i], gradB[i] = l.Data(), wv.Grad(), bv.Grad()
			return nil
		}, cfg.parallel)
		if err != nil {
			return nil, nil, 0, err
		}

		loss = mean(losses)
		w.Grad, b.Grad = mean(gradW), mean(gradB)
		opt.Step()
		opt.ZeroGrad()

		log.V(2).Info("Epoch finished", "epoch", epoch, "loss", loss, "w", w.Data, "b", b.Data)
	}
	return w, b, loss, nil
}

func mean(xs []float32) float32 {
	var sum float32
	for _, x := range xs {
		sum += x
	}
	return sum / float32(len(xs))
}
