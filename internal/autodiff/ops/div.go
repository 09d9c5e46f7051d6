package ops

// Division: output = a / b.
//
// Backward pass:
//   - d(a/b)/da = 1/b, so grad_a = outputGrad / b
//   - d(a/b)/db = -a/b², so grad_b = -outputGrad * a / b²
//
// A zero divisor is not rejected: the forward value and the cached partials
// follow IEEE rules and become ±Inf or NaN.

func divForward(a, b float32) float32 {
	return a / b
}

func divCache(a, b float32) (float32, float32) {
	return 1 / b, -a / (b * b)
}

func divBackward(grad, cachedA, cachedB float32) (float32, float32) {
	return cachedA * grad, cachedB * grad
}
