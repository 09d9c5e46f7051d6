// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimization algorithms for scalar parameters.
//
// # Overview
//
// This package contains:
//   - Parameter: a trainable scalar that survives Tape.Clear
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation with bias correction
//   - Optimizer interface for custom optimizers
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/tapegrad/autodiff"
//	    "github.com/born-ml/tapegrad/optim"
//	)
//
//	func main() {
//	    tape := autodiff.NewTape()
//	    defer tape.Destroy()
//
//	    w := optim.NewParameter("w", 0)
//	    b := optim.NewParameter("b", 0)
//	    optimizer := optim.NewAdam(
//	        []*optim.Parameter{w, b},
//	        optim.AdamConfig{LR: 0.01},
//	    )
//
//	    for epoch := range 100 {
//	        tape.Clear()
//	        loss := model(tape, w.Bind(tape), b.Bind(tape))
//	        loss.Backward()
//	        w.Accumulate()
//	        b.Accumulate()
//
//	        optimizer.Step()
//	        optimizer.ZeroGrad()
//	    }
//	}
//
// # Training Loop Pattern
//
//	for epoch := range numEpochs {
//	    // 1. Start a new graph generation
//	    tape.Clear()
//
//	    // 2. Forward pass on freshly bound leaves
//	    loss := criterion(tape, w.Bind(tape), x, y)
//
//	    // 3. Backward pass, then collect gradients into the parameters
//	    loss.Backward()
//	    w.Accumulate()
//
//	    // 4. Update parameters and clear their gradients
//	    optimizer.Step()
//	    optimizer.ZeroGrad()
//	}
package optim
