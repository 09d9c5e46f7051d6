// Package arena provides the block bump allocator that backs a gradient tape.
//
// Memory is handed out from fixed-size blocks (4 KiB by default) in 8-byte
// aligned pieces. Nothing is freed individually:
//   - Reset rewinds every block cursor so the next graph reuses the same memory
//   - Release drops the blocks, after which the arena refuses to allocate
//
// Anything obtained from an Arena is only valid until the next Reset or Release.
// Blocks are plain byte slices that the garbage collector does not scan, so only
// pointer-free types may be placed in them.
//
// An Arena is not safe for concurrent use.
package arena

import (
	"fmt"
	"unsafe"

	"k8s.io/klog/v2"
)

const (
	// BlockSize is the default capacity of one block in bytes.
	BlockSize = 4096
	// Alignment is the granularity every request is rounded up to.
	Alignment = 8
	// InitialBlocks is the default starting capacity of the block list.
	InitialBlocks = 8
)

// Config controls block geometry and growth limits.
type Config struct {
	BlockSize     int // Capacity of each block in bytes.
	InitialBlocks int // Starting capacity of the block list (doubles on overflow).
	MaxBlocks     int // Upper bound on blocks held, 0 for no limit.
}

// DefaultConfig returns the standard 4 KiB block layout without a block limit.
func DefaultConfig() Config {
	return Config{
		BlockSize:     BlockSize,
		InitialBlocks: InitialBlocks,
	}
}

// Option configures an Arena.
type Option func(*Config)

// WithBlockSize sets the block capacity. It is rounded down to a multiple of
// Alignment; values smaller than Alignment are ignored.
func WithBlockSize(n int) Option {
	return func(c *Config) {
		if n >= Alignment {
			c.BlockSize = n &^ (Alignment - 1)
		}
	}
}

// WithInitialBlocks sets the starting capacity of the block list.
func WithInitialBlocks(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.InitialBlocks = n
		}
	}
}

// WithMaxBlocks limits how many blocks the arena may hold.
func WithMaxBlocks(n int) Option {
	return func(c *Config) {
		if n >= 0 {
			c.MaxBlocks = n
		}
	}
}

type block struct {
	data   []byte
	offset int
}

// Arena is a bump allocator over a growing list of fixed-size blocks.
type Arena struct {
	cfg      Config
	blocks   []*block
	cur      int // index of the active block, -1 before the first allocation
	used     int // bytes handed out since the last Reset
	peak     int
	released bool
}

// New creates an empty arena. No block is opened until the first allocation.
func New(opts ...Option) *Arena {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Arena{
		cfg:    cfg,
		blocks: make([]*block, 0, cfg.InitialBlocks),
		cur:    -1,
	}
}

// align rounds n up to the next multiple of Alignment.
func align(n int) int {
	return (n + Alignment - 1) &^ (Alignment - 1)
}

// Alloc reserves size bytes, rounded up to Alignment, and returns a pointer to
// the first of them. The memory is not zeroed.
//
// When the active block cannot hold the request the next retained block is
// reused, or a new one is opened. A request larger than one block is rejected
// with ErrTooLarge.
func (a *Arena) Alloc(size int) (unsafe.Pointer, error) {
	if a.released {
		return nil, ErrReleased
	}
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	size = align(size)
	if size > a.cfg.BlockSize {
		return nil, fmt.Errorf("%w: %d bytes, block holds %d", ErrTooLarge, size, a.cfg.BlockSize)
	}

	b := a.active()
	if b == nil || b.offset+size > len(b.data) {
		var err error
		if b, err = a.advance(); err != nil {
			return nil, err
		}
	}

	p := unsafe.Pointer(&b.data[b.offset])
	b.offset += size
	a.used += size
	if a.used > a.peak {
		a.peak = a.used
	}
	return p, nil
}

// Allocate reserves zeroed memory for one T. T must not contain pointers.
func Allocate[T any](a *Arena) (*T, error) {
	var zero T
	p, err := a.Alloc(int(unsafe.Sizeof(zero)))
	if err != nil {
		return nil, err
	}
	v := (*T)(p)
	*v = zero
	return v, nil
}

func (a *Arena) active() *block {
	if a.cur < 0 {
		return nil
	}
	return a.blocks[a.cur]
}

// advance moves to the next retained block or opens a new one.
func (a *Arena) advance() (*block, error) {
	if a.cur+1 < len(a.blocks) {
		a.cur++
		return a.blocks[a.cur], nil
	}

	if a.cfg.MaxBlocks > 0 && len(a.blocks) >= a.cfg.MaxBlocks {
		return nil, fmt.Errorf("%w: %d blocks", ErrExhausted, len(a.blocks))
	}

	if len(a.blocks) == cap(a.blocks) {
		grown := make([]*block, len(a.blocks), max(2*cap(a.blocks), 1))
		copy(grown, a.blocks)
		a.blocks = grown
	}

	b := &block{data: make([]byte, a.cfg.BlockSize)}
	a.blocks = append(a.blocks, b)
	a.cur = len(a.blocks) - 1

	klog.V(4).InfoS("Opened arena block", "blocks", len(a.blocks), "blockSize", a.cfg.BlockSize)
	return b, nil
}

// Reset rewinds every block without releasing memory. Everything previously
// allocated becomes invalid.
func (a *Arena) Reset() {
	for _, b := range a.blocks {
		b.offset = 0
	}
	a.cur = -1
	a.used = 0
}

// Release drops all blocks. The arena cannot allocate afterwards.
func (a *Arena) Release() {
	a.blocks = nil
	a.cur = -1
	a.used = 0
	a.released = true
}

// Released reports whether Release has been called.
func (a *Arena) Released() bool {
	return a.released
}

// NumBlocks returns the number of blocks held, including idle retained ones.
func (a *Arena) NumBlocks() int {
	return len(a.blocks)
}

// BytesUsed returns the bytes handed out since the last Reset, alignment included.
func (a *Arena) BytesUsed() int {
	return a.used
}

// Cap returns the total capacity of the blocks held.
func (a *Arena) Cap() int {
	return len(a.blocks) * a.cfg.BlockSize
}

// Peak returns the high-water mark of BytesUsed. It survives Reset.
func (a *Arena) Peak() int {
	return a.peak
}

// BlockSize returns the configured block capacity.
func (a *Arena) BlockSize() int {
	return a.cfg.BlockSize
}
