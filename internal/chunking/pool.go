package chunking

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds how many chunks are transcribed concurrently.
const DefaultWorkers = 4

// TranscribeFunc transcribes one chunk and returns its text.
type TranscribeFunc func(ctx context.Context, c Chunk) (string, error)

// PoolProgressFunc receives completion counts as chunks finish, in whatever
// order they complete.
type PoolProgressFunc func(completed, total int)

// Pool runs chunk transcriptions with bounded concurrency. A failing chunk
// is recorded as failed and does not abort the run; only context
// cancellation stops the pool early.
type Pool struct {
	workers int
}

// NewPool returns a Pool with the given concurrency limit; values < 1 fall
// back to DefaultWorkers.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Pool{workers: workers}
}

// Process transcribes every chunk and returns the chunks with their outcomes
// filled in, in index order. Per-chunk failures are absorbed into the chunk's
// Failed marker.
func (p *Pool) Process(ctx context.Context, chunks []Chunk, transcribe TranscribeFunc, onProgress PoolProgressFunc) ([]Chunk, error) {
	results := make([]Chunk, len(chunks))
	copy(results, chunks)

	var mu sync.Mutex
	completed := 0

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(p.workers)
	for i := range results {
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text, err := transcribe(gctx, results[i])
			if err != nil {
				slog.Warn("Chunk transcription failed, continuing without it.",
					"chunkIndex", results[i].Index, "error", err)
				results[i].Failed = true
			} else {
				results[i].Transcript = text
			}

			mu.Lock()
			completed++
			done := completed
			mu.Unlock()
			if onProgress != nil {
				onProgress(done, len(results))
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("chunk processing aborted: %w", err)
	}
	return results, nil
}

// FailureMarker is the inline placeholder for a chunk whose transcription
// failed.
func FailureMarker(index int) string {
	return fmt.Sprintf("[chunk %d transcription failed]", index)
}

// Assemble joins chunk transcripts strictly by index, regardless of the
// order in which chunks completed. Failed chunks contribute their failure
// marker instead of text.
func Assemble(chunks []Chunk) string {
	ordered := make([]Chunk, len(chunks))
	copy(ordered, chunks)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	parts := make([]string, 0, len(ordered))
	for _, c := range ordered {
		if c.Failed {
			parts = append(parts, FailureMarker(c.Index))
			continue
		}
		parts = append(parts, strings.TrimRight(c.Transcript, "\n"))
	}
	return strings.Join(parts, "\n")
}
