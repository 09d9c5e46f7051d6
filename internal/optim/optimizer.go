// Package optim implements optimization algorithms for scalar parameters.
//
// This package provides:
//   - Parameter: a scalar kept across tape generations
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation
//
// Example usage:
//
//	w := optim.NewParameter("w", 0)
//	optimizer := optim.NewSGD([]*optim.Parameter{w}, optim.SGDConfig{LR: 0.1})
//
//	for step := range steps {
//	    tape.Clear()
//	    loss := buildLoss(tape, w.Bind(tape))
//	    loss.Backward()
//	    w.Accumulate()
//
//	    optimizer.Step()
//	    optimizer.ZeroGrad()
//	}
package optim

// Optimizer is the base interface for all optimization algorithms.
//
// All optimizers must implement:
//   - Step: Apply gradient updates to parameters
//   - ZeroGrad: Clear gradients before next iteration
//   - GetLR: Get current learning rate (for monitoring/scheduling)
type Optimizer interface {
	// Step updates every parameter's Data from its Grad.
	Step()

	// ZeroGrad clears all parameter gradients.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float32
}

// Config is the base configuration for all optimizers.
type Config struct {
	LR float32 // Learning rate
}

func zeroGrads(params []*Parameter) {
	for _, p := range params {
		if p != nil {
			p.ZeroGrad()
		}
	}
}
