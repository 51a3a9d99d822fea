// Package service wires the orchestration core to Google Cloud clients and
// exposes the HTTP and event entry points used by the cmd/ functions.
package service

import (
	"fmt"
	"strconv"

	"github.com/Lllllllleong/meetingscribeflow/internal/gcp"
)

// Config holds all environment-derived settings shared by the entry points.
type Config struct {
	ProjectID       string
	VertexAIRegion  string
	StagingBucket   string
	JobsCollection  string
	DefaultLanguage string
	ChunkWorkers    int
}

// LoadConfig loads and validates the environment for the jobs service.
func LoadConfig() (*Config, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	stagingBucket := gcp.GetEnv("AUDIO_STAGING_BUCKET", "")
	if stagingBucket == "" {
		return nil, fmt.Errorf("AUDIO_STAGING_BUCKET environment variable must be set")
	}

	workers := 0
	if raw := gcp.GetEnv("CHUNK_WORKERS", ""); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return nil, fmt.Errorf("CHUNK_WORKERS must be a positive integer, got %q", raw)
		}
		workers = parsed
	}

	return &Config{
		ProjectID:       projectID,
		VertexAIRegion:  gcp.GetEnv("VERTEX_AI_REGION", "us-central1"),
		StagingBucket:   stagingBucket,
		JobsCollection:  gcp.GetEnv("FIRESTORE_COLLECTION", ""),
		DefaultLanguage: gcp.GetEnv("TRANSCRIPTION_LANGUAGE", ""),
		ChunkWorkers:    workers,
	}, nil
}
