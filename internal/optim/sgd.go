package optim

import "fmt"

// SGD implements Stochastic Gradient Descent optimizer with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
type SGD struct {
	params     []*Parameter
	lr         float32
	momentum   float32
	velocities []float32
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR       float32 // Learning rate (default: 0.01)
	Momentum float32 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates a new SGD optimizer.
func NewSGD(params []*Parameter, config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}

	return &SGD{
		params:     params,
		lr:         config.LR,
		momentum:   config.Momentum,
		velocities: make([]float32, len(params)),
	}
}

// Step performs a single optimization step. Nil parameters are skipped.
func (s *SGD) Step() {
	for i, p := range s.params {
		if p == nil {
			continue
		}
		if s.momentum == 0 {
			p.Data -= s.lr * p.Grad
			continue
		}
		s.velocities[i] = s.momentum*s.velocities[i] + p.Grad
		p.Data -= s.lr * s.velocities[i]
	}
}

// ZeroGrad clears gradients for all parameters.
func (s *SGD) ZeroGrad() {
	zeroGrads(s.params)
}

// GetLR returns the current learning rate.
func (s *SGD) GetLR() float32 {
	return s.lr
}

// SetLR updates the learning rate.
func (s *SGD) SetLR(lr float32) {
	s.lr = lr
}

// StateDict returns the velocity of every parameter under "velocity.{index}".
// Without momentum it is empty.
func (s *SGD) StateDict() map[string]float32 {
	state := make(map[string]float32)
	if s.momentum == 0 {
		return state
	}
	for i, v := range s.velocities {
		state[fmt.Sprintf("velocity.%d", i)] = v
	}
	return state
}
