package service

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/Lllllllleong/meetingscribeflow/internal/blobstore"
	"github.com/Lllllllleong/meetingscribeflow/internal/gcp"
	"github.com/Lllllllleong/meetingscribeflow/internal/models"
)

// GCSEvent is the payload of a GCS object-finalize event.
type GCSEvent struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

// audioExtensions lists the upload types the watcher reacts to.
var audioExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".m4a":  true,
	".flac": true,
}

// objectSizeFunc resolves the byte size of a bucket object. Injected so the
// watcher can be exercised without a live storage client.
type objectSizeFunc func(ctx context.Context, bucket, name string) (int64, error)

// Watcher submits a job automatically when an audio file lands in the
// staging bucket.
type Watcher struct {
	jobs        *JobsService
	objectSize  objectSizeFunc
	defaultMode models.QualityMode
}

// NewWatcher constructs the watcher on top of the full jobs service.
func NewWatcher(ctx context.Context) (*Watcher, error) {
	jobs, err := NewJobsService(ctx)
	if err != nil {
		return nil, err
	}
	storageClient, err := gcp.NewStorageClient(ctx)
	if err != nil {
		return nil, err
	}
	objectSize := func(ctx context.Context, bucket, name string) (int64, error) {
		attrs, err := storageClient.Bucket(bucket).Object(name).Attrs(ctx)
		if err != nil {
			return 0, err
		}
		return attrs.Size, nil
	}

	mode := models.QualityMode(gcp.GetEnv("DEFAULT_QUALITY_MODE", string(models.QualityBalanced)))
	if !mode.Valid() {
		return nil, fmt.Errorf("DEFAULT_QUALITY_MODE is not a valid mode: %q", mode)
	}

	return &Watcher{jobs: jobs, objectSize: objectSize, defaultMode: mode}, nil
}

// Process handles one upload event and returns the new job id, or "" when
// the object is ignored. Non-audio objects are ignored, as are objects the
// pipeline staged itself (API uploads and chunk slices land in the same
// bucket; re-ingesting them would transcribe the same audio a second time).
func (wt *Watcher) Process(ctx context.Context, e GCSEvent) (string, error) {
	if blobstore.IsStagedObject(e.Name) {
		return "", nil
	}
	if !audioExtensions[strings.ToLower(filepath.Ext(e.Name))] {
		slog.Info("Ignoring non-audio upload.", "object", e.Name)
		return "", nil
	}

	size, err := wt.objectSize(ctx, e.Bucket, e.Name)
	if err != nil {
		return "", fmt.Errorf("failed to read attrs for gs://%s/%s: %w", e.Bucket, e.Name, err)
	}

	fileInfo := models.FileInfo{
		Name:       filepath.Base(e.Name),
		SizeBytes:  size,
		StorageRef: fmt.Sprintf("gs://%s/%s", e.Bucket, e.Name),
	}
	jobID, err := wt.jobs.Orchestrator().Submit(ctx, fileInfo, models.Settings{QualityMode: wt.defaultMode})
	if err != nil {
		return "", fmt.Errorf("failed to submit job for gs://%s/%s: %w", e.Bucket, e.Name, err)
	}

	slog.Info("Job auto-submitted for upload.", "jobId", jobID, "object", e.Name, "sizeBytes", size)
	return jobID, nil
}
