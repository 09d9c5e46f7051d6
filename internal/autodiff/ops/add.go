package ops

// Addition: output = a + b.
//
// Backward pass:
//   - d(a+b)/da = 1, so grad_a = outputGrad
//   - d(a+b)/db = 1, so grad_b = outputGrad

func addForward(a, b float32) float32 {
	return a + b
}

func addBackward(grad float32) (float32, float32) {
	return grad, grad
}
