package parallel

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/tapegrad/internal/autodiff"
)

func TestForEach(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}

	var counter int64
	n := 1000

	err := ForEach(context.Background(), n, func(_ context.Context, _ int, _ *autodiff.Tape) error {
		atomic.AddInt64(&counter, 1)
		return nil
	}, cfg)

	require.NoError(t, err)
	assert.Equal(t, int64(n), counter)
}

func TestForEach_Sequential(t *testing.T) {
	cfg := Config{Enabled: false}

	var order []int
	var tapes []*autodiff.Tape
	err := ForEach(context.Background(), 5, func(_ context.Context, i int, tape *autodiff.Tape) error {
		order = append(order, i)
		tapes = append(tapes, tape)
		return nil
	}, cfg)

	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
	for _, tape := range tapes {
		assert.Same(t, tapes[0], tape, "sequential run reuses one tape")
	}
}

func TestForEach_Empty(t *testing.T) {
	called := false
	err := ForEach(context.Background(), 0, func(context.Context, int, *autodiff.Tape) error {
		called = true
		return nil
	}, DefaultConfig())

	require.NoError(t, err)
	assert.False(t, called)
}

// TestForEach_PrivateTapes checks that no two workers share a tape and that
// each item starts on a cleared tape.
func TestForEach_PrivateTapes(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}
	n := 64
	grads := make([]float32, n)

	var mu sync.Mutex
	owners := map[*autodiff.Tape]map[int]bool{}

	err := ForEach(context.Background(), n, func(_ context.Context, i int, tape *autodiff.Tape) error {
		mu.Lock()
		if owners[tape] == nil {
			owners[tape] = map[int]bool{}
		}
		owners[tape][i] = true
		mu.Unlock()

		if tape.NumNodes() != 0 {
			return errors.New("tape not cleared")
		}
		x := tape.NewValue(float32(i), "x", true)
		y := tape.Mul(x, x)
		y.Backward()
		grads[i] = x.Grad()
		return tape.Err()
	}, cfg, autodiff.WithInitialNodes(4))

	require.NoError(t, err)
	for i, g := range grads {
		assert.InDelta(t, float32(2*i), g, 1e-4)
	}
	assert.LessOrEqual(t, len(owners), 4)
	total := 0
	for _, items := range owners {
		total += len(items)
	}
	assert.Equal(t, n, total)
}

func TestForEach_Error(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 2, MinChunkSize: 1}
	boom := errors.New("boom")

	err := ForEach(context.Background(), 100, func(_ context.Context, i int, _ *autodiff.Tape) error {
		if i == 10 {
			return boom
		}
		return nil
	}, cfg)

	assert.ErrorIs(t, err, boom)
}

func TestForEach_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ForEach(ctx, 10, func(context.Context, int, *autodiff.Tape) error {
		return nil
	}, Config{Enabled: false})

	assert.ErrorIs(t, err, context.Canceled)
}

func BenchmarkForEach(b *testing.B) {
	cfg := DefaultConfig()
	n := 10000

	work := func(_ context.Context, i int, tape *autodiff.Tape) error {
		x := tape.NewValue(float32(i), "x", true)
		tape.Mul(x, tape.ScalarAdd(1, x)).Backward()
		return nil
	}

	b.Run("parallel", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = ForEach(context.Background(), n, work, cfg)
		}
	})

	b.Run("sequential", func(b *testing.B) {
		cfgSeq := cfg
		cfgSeq.Enabled = false
		for i := 0; i < b.N; i++ {
			_ = ForEach(context.Background(), n, work, cfgSeq)
		}
	})
}
