// Package blobstore stages audio payloads (whole uploads and chunk slices)
// before transcription. Refs are opaque locator strings; the GCS
// implementation uses gs:// URIs, which is what the Speech API consumes.
package blobstore

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Store is the staging contract used by the orchestrator and the chunk
// worker pool.
type Store interface {
	// Put stores data under name and returns an opaque ref for it.
	Put(ctx context.Context, name string, data []byte) (string, error)
	// Get resolves a ref previously returned by Put.
	Get(ctx context.Context, ref string) ([]byte, error)
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Prefixes of objects this package writes into the staging bucket. Upload
// watchers must skip both, or the pipeline would re-ingest its own writes.
const (
	audioObjectPrefix = "audio_"
	chunkObjectPrefix = "chunks/"
)

// AudioObjectName builds the staging object name for an uploaded file,
// matching the audio_<timestamp>_<name> layout of the upload bucket.
func AudioObjectName(t time.Time, fileName string) string {
	return fmt.Sprintf("%s%s_%s", audioObjectPrefix, t.Format("20060102_150405"), unsafeNameChars.ReplaceAllString(fileName, "_"))
}

// ChunkObjectName builds the staging object name for one chunk payload of a
// job.
func ChunkObjectName(jobID string, index int, fileName string) string {
	return fmt.Sprintf("%s%s/%05d_%s", chunkObjectPrefix, jobID, index, unsafeNameChars.ReplaceAllString(fileName, "_"))
}

// IsStagedObject reports whether an object name was produced by this package,
// i.e. it is a staged API upload or a chunk slice rather than a fresh user
// upload.
func IsStagedObject(name string) bool {
	return strings.HasPrefix(name, audioObjectPrefix) || strings.HasPrefix(name, chunkObjectPrefix)
}
