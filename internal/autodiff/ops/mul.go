package ops

// Multiplication: output = a * b.
//
// Backward pass:
//   - d(a*b)/da = b, so grad_a = outputGrad * b
//   - d(a*b)/db = a, so grad_b = outputGrad * a
//
// cachedA holds b and cachedB holds a: each cache is the factor for the
// operand with the same position.

func mulForward(a, b float32) float32 {
	return a * b
}

func mulCache(a, b float32) (float32, float32) {
	return b, a
}

func mulBackward(grad, cachedA, cachedB float32) (float32, float32) {
	return cachedA * grad, cachedB * grad
}
