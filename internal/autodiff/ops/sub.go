package ops

// Subtraction: output = a - b.
//
// Backward pass:
//   - d(a-b)/da = 1, so grad_a = outputGrad
//   - d(a-b)/db = -1, so grad_b = -outputGrad

func subForward(a, b float32) float32 {
	return a - b
}

func subBackward(grad float32) (float32, float32) {
	return grad, -grad
}
