// Package ops defines the scalar operators a tape can record and their derivative rules.
//
// Each operator is a Kind. For a result node the tape stores the Kind together
// with two cached scalars computed by Cache at creation time; during the
// backward pass Backward turns the node's gradient into the contributions for
// its two operands. Operand values are never read at backward time, so later
// mutation of an operand cannot change gradients already recorded.
//
// Supported operators:
//   - Add: d(a+b)/da = 1, d(a+b)/db = 1
//   - Sub: d(a-b)/da = 1, d(a-b)/db = -1
//   - Mul: d(a*b)/da = b, d(a*b)/db = a
//   - Div: d(a/b)/da = 1/b, d(a/b)/db = -a/b²
package ops

// Kind identifies the operator that produced a node. None marks leaves and
// results that carry no derivative rule.
type Kind uint8

// Operator kinds.
const (
	None Kind = iota
	Add
	Sub
	Mul
	Div
)

// String returns the operator symbol used as the node's op tag.
func (k Kind) String() string {
	switch k {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case Div:
		return "/"
	default:
		return ""
	}
}

// Forward evaluates a op b with IEEE float32 semantics.
func Forward(k Kind, a, b float32) float32 {
	switch k {
	case Add:
		return addForward(a, b)
	case Sub:
		return subForward(a, b)
	case Mul:
		return mulForward(a, b)
	case Div:
		return divForward(a, b)
	default:
		return 0
	}
}

// Cache returns the scalars the backward rule of k needs, snapshotted from the
// operand values a and b.
func Cache(k Kind, a, b float32) (cachedA, cachedB float32) {
	switch k {
	case Mul:
		return mulCache(a, b)
	case Div:
		return divCache(a, b)
	default:
		return 0, 0
	}
}

// Backward returns the gradient contributions for the first and second
// operand of a node with operator k, gradient grad and the given caches.
func Backward(k Kind, grad, cachedA, cachedB float32) (gradA, gradB float32) {
	switch k {
	case Add:
		return addBackward(grad)
	case Sub:
		return subBackward(grad)
	case Mul:
		return mulBackward(grad, cachedA, cachedB)
	case Div:
		return divBackward(grad, cachedA, cachedB)
	default:
		return 0, 0
	}
}
