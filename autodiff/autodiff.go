// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides scalar reverse-mode automatic differentiation.
//
// Every value lives on a Tape: an append-only record of scalar nodes packed
// into arena memory. Operations append a node whose children are earlier
// nodes, so a single reverse sweep over the tape propagates gradients.
// Clearing a tape discards every node at once and reuses its memory.
//
// Example:
//
//	import "github.com/born-ml/tapegrad/autodiff"
//
//	func main() {
//	    tape := autodiff.NewTape()
//	    defer tape.Destroy()
//
//	    a := tape.NewValue(2, "a", true)
//	    b := tape.NewValue(-3, "b", true)
//	    loss := a.Mul(b).Add(a) // a*b + a
//
//	    loss.Backward()
//	    fmt.Println(a.Grad(), b.Grad()) // -2 2
//	}
//
// A process-wide default tape is available for scripts that do not want to
// carry one around; see Default.
package autodiff

import (
	"sync"

	"github.com/born-ml/tapegrad/internal/autodiff"
)

// Tape records scalar operations for automatic differentiation.
type Tape = autodiff.Tape

// Value is a handle to a node on a Tape.
type Value = autodiff.Value

// Option configures a Tape.
type Option = autodiff.Option

// Stats reports tape memory usage.
type Stats = autodiff.Stats

// Errors reported by Tape.Err.
var (
	ErrInvalidValue = autodiff.ErrInvalidValue
	ErrDestroyed    = autodiff.ErrDestroyed
	ErrTooManyNodes = autodiff.ErrTooManyNodes
)

// Tape defaults.
const (
	InitialNodes = autodiff.InitialNodes
)

// NewTape creates an empty tape.
//
// Example:
//
//	tape := autodiff.NewTape(autodiff.WithInitialNodes(1024))
//	defer tape.Destroy()
func NewTape(opts ...Option) *Tape {
	return autodiff.NewTape(opts...)
}

// WithInitialNodes sets the initial capacity of the node registry.
func WithInitialNodes(n int) Option {
	return autodiff.WithInitialNodes(n)
}

// WithInitialBlocks sets the initial capacity of the arena block list.
func WithInitialBlocks(n int) Option {
	return autodiff.WithInitialBlocks(n)
}

// WithBlockSize sets the arena block size in bytes.
func WithBlockSize(n int) Option {
	return autodiff.WithBlockSize(n)
}

// WithMaxBlocks caps the number of arena blocks. Zero means unlimited.
func WithMaxBlocks(n int) Option {
	return autodiff.WithMaxBlocks(n)
}

var (
	defaultMu   sync.Mutex
	defaultTape *Tape
)

// Default returns the process-wide default tape, creating it on first use or
// after DestroyDefault.
//
// The default tape is not safe for concurrent graph construction; goroutines
// that build graphs in parallel should own their tapes.
func Default() *Tape {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultTape == nil {
		defaultTape = autodiff.NewTape()
	}
	return defaultTape
}

// DestroyDefault destroys the default tape. The next Default call creates a
// new one. Values from the destroyed tape read as absent.
func DestroyDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultTape != nil {
		defaultTape.Destroy()
		defaultTape = nil
	}
}

// NewValue creates a leaf on the default tape.
func NewValue(data float32, name string, requiresGrad bool) Value {
	return Default().NewValue(data, name, requiresGrad)
}

// Backward propagates gradients from out on the tape that owns it.
func Backward(out Value) {
	out.Backward()
}

// ZeroGrad resets every gradient on the default tape.
func ZeroGrad() {
	Default().ZeroGrad()
}
