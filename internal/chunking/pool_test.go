package chunking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeChunks() []Chunk {
	return []Chunk{
		{Index: 0, Range: Range{Offset: 0, Length: 10}},
		{Index: 1, Range: Range{Offset: 10, Length: 10}},
		{Index: 2, Range: Range{Offset: 20, Length: 5}},
	}
}

func TestPoolAssemblesByIndexUnderOutOfOrderCompletion(t *testing.T) {
	// Chunk 2 finishes first, then 0, then 1.
	done2 := make(chan struct{})
	done0 := make(chan struct{})
	texts := map[int]string{0: "first part", 1: "second part", 2: "third part"}

	transcribe := func(_ context.Context, c Chunk) (string, error) {
		switch c.Index {
		case 2:
			close(done2)
		case 0:
			<-done2
			close(done0)
		case 1:
			<-done0
		}
		return texts[c.Index], nil
	}

	results, err := NewPool(3).Process(context.Background(), threeChunks(), transcribe, nil)
	require.NoError(t, err)

	assert.Equal(t, "first part\nsecond part\nthird part", Assemble(results))
}

func TestPoolIsolatesChunkFailure(t *testing.T) {
	transcribe := func(_ context.Context, c Chunk) (string, error) {
		if c.Index == 1 {
			return "", errors.New("recognizer rejected payload")
		}
		return fmt.Sprintf("text %d", c.Index), nil
	}

	results, err := NewPool(2).Process(context.Background(), threeChunks(), transcribe, nil)
	require.NoError(t, err, "a chunk failure must not fail the run")

	assert.False(t, results[0].Failed)
	assert.True(t, results[1].Failed)
	assert.False(t, results[2].Failed)
	assert.Equal(t, "text 0\n[chunk 1 transcription failed]\ntext 2", Assemble(results))
}

func TestPoolProgressReachesTotalRegardlessOfOrder(t *testing.T) {
	var mu sync.Mutex
	var observed []int

	transcribe := func(_ context.Context, c Chunk) (string, error) {
		return "x", nil
	}
	onProgress := func(completed, total int) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 3, total)
		observed = append(observed, completed)
	}

	_, err := NewPool(2).Process(context.Background(), threeChunks(), transcribe, onProgress)
	require.NoError(t, err)

	require.Len(t, observed, 3)
	prev := 0
	for _, c := range observed {
		assert.Greater(t, c, prev, "completion counts must increase")
		prev = c
	}
	assert.Equal(t, 3, observed[len(observed)-1])
}

func TestPoolBoundsConcurrency(t *testing.T) {
	chunks, err := Split(1000, 50)
	require.NoError(t, err)

	var inFlight, peak atomic.Int32
	gate := make(chan struct{})
	var once sync.Once

	transcribe := func(_ context.Context, c Chunk) (string, error) {
		cur := inFlight.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		once.Do(func() { close(gate) })
		<-gate
		inFlight.Add(-1)
		return "x", nil
	}

	_, err = NewPool(4).Process(context.Background(), chunks, transcribe, nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(4))
}

func TestPoolStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPool(2).Process(ctx, threeChunks(), func(context.Context, Chunk) (string, error) {
		return "x", nil
	}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAssembleTrimsTrailingNewlines(t *testing.T) {
	chunks := []Chunk{
		{Index: 1, Transcript: "two\n"},
		{Index: 0, Transcript: "one\n"},
	}
	assert.Equal(t, "one\ntwo", Assemble(chunks))
}
