// Package chunking partitions source audio into independently transcribed
// sub-ranges and reassembles the per-chunk transcripts in index order.
//
// Splitting is purely positional: boundaries may fall mid-word, and no
// overlap or stitching is applied to compensate. That accuracy trade-off is
// accepted in exchange for deterministic, content-agnostic chunking.
package chunking

import "fmt"

// Range is a contiguous byte span within the source payload.
type Range struct {
	Offset int64
	Length int64
}

// Chunk is one unit of the chunked processing path. Chunks live only inside
// a single job run and are never persisted.
type Chunk struct {
	Index      int
	Range      Range
	Transcript string
	Failed     bool
}

// Split partitions totalSize bytes into contiguous, non-overlapping chunks
// of chunkSize bytes each. The last chunk absorbs the remainder and may be
// shorter. The result is deterministic for a given input pair.
func Split(totalSize, chunkSize int64) ([]Chunk, error) {
	if totalSize <= 0 {
		return nil, fmt.Errorf("total size must be positive, got %d", totalSize)
	}
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}

	var chunks []Chunk
	for offset := int64(0); offset < totalSize; offset += chunkSize {
		length := chunkSize
		if remaining := totalSize - offset; remaining < length {
			length = remaining
		}
		chunks = append(chunks, Chunk{
			Index: len(chunks),
			Range: Range{Offset: offset, Length: length},
		})
	}
	return chunks, nil
}
