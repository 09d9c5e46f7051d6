package autodiff

import (
	"bytes"
	"unicode/utf8"

	"github.com/born-ml/tapegrad/internal/autodiff/ops"
)

const (
	maxNameLen = 32 // name buffer, one byte kept for the terminator
	maxOpLen   = 8
)

// node is one scalar in the graph. It lives in arena memory, so it must stay
// free of Go pointers: children are registry indices and labels are fixed
// byte arrays.
type node struct {
	data    float32
	grad    float32
	cachedA float32 // operand-0 partial factor, snapshotted at creation
	cachedB float32 // operand-1 partial factor, snapshotted at creation

	children     [2]uint32
	numChildren  uint8
	rule         ops.Kind
	requiresGrad bool

	name [maxNameLen]byte
	op   [maxOpLen]byte
}

// setLabel stores s in dst, truncated on a rune boundary so that at least one
// trailing zero byte remains.
func setLabel(dst []byte, s string) {
	clear(dst)
	n := min(len(s), len(dst)-1)
	for n > 0 && n < len(s) && !utf8.RuneStart(s[n]) {
		n--
	}
	copy(dst, s[:n])
}

func label(src []byte) string {
	if i := bytes.IndexByte(src, 0); i >= 0 {
		src = src[:i]
	}
	return string(src)
}
