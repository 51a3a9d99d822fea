package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/meetingscribeflow/internal/blobstore"
	"github.com/Lllllllleong/meetingscribeflow/internal/models"
	"github.com/Lllllllleong/meetingscribeflow/internal/orchestrator"
)

// fakeObjectSize records lookups so tests can assert which events reached
// the storage layer.
type fakeObjectSize struct {
	size  int64
	err   error
	calls int
}

func (f *fakeObjectSize) get(_ context.Context, _, _ string) (int64, error) {
	f.calls++
	return f.size, f.err
}

func testWatcher(t *testing.T, sizes *fakeObjectSize) (*Watcher, *orchestrator.Orchestrator) {
	t.Helper()
	svc, orch := testService(t)
	return &Watcher{jobs: svc, objectSize: sizes.get, defaultMode: models.QualityFast}, orch
}

func TestWatcherSubmitsUploadedAudio(t *testing.T) {
	ctx := context.Background()
	sizes := &fakeObjectSize{size: 2048}
	wt, orch := testWatcher(t, sizes)

	jobID, err := wt.Process(ctx, GCSEvent{Bucket: "recordings", Name: "standup.mp3"})
	require.NoError(t, err)
	require.NotEmpty(t, jobID)
	assert.Equal(t, 1, sizes.calls)

	orch.Wait()
	job, err := orch.Status(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, job.Status)
	assert.Equal(t, "standup.mp3", job.FileInfo.Name)
	assert.Equal(t, int64(2048), job.FileInfo.SizeBytes)
	assert.Equal(t, "gs://recordings/standup.mp3", job.FileInfo.StorageRef)
	assert.Equal(t, models.QualityFast, job.Settings.QualityMode)
}

func TestWatcherSkipsPipelineStagedObjects(t *testing.T) {
	ctx := context.Background()
	sizes := &fakeObjectSize{size: 2048}
	wt, _ := testWatcher(t, sizes)

	// The finalize events the pipeline's own writes produce: an API upload
	// staged by Stage and a chunk slice staged by the worker pool. Neither
	// may start another job for the same audio.
	staged := []string{
		blobstore.AudioObjectName(time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC), "meeting.wav"),
		blobstore.ChunkObjectName("ab12cd34", 0, "meeting.wav"),
	}
	for _, name := range staged {
		jobID, err := wt.Process(ctx, GCSEvent{Bucket: "recordings", Name: name})
		require.NoError(t, err)
		assert.Empty(t, jobID, name)
	}
	assert.Zero(t, sizes.calls, "skipped objects must not be looked up")
}

func TestWatcherSkipsNonAudioObjects(t *testing.T) {
	ctx := context.Background()
	sizes := &fakeObjectSize{size: 2048}
	wt, _ := testWatcher(t, sizes)

	for _, name := range []string{"notes.txt", "minutes/summary.pdf", "meeting"} {
		jobID, err := wt.Process(ctx, GCSEvent{Bucket: "recordings", Name: name})
		require.NoError(t, err)
		assert.Empty(t, jobID, name)
	}
	assert.Zero(t, sizes.calls)
}

func TestWatcherPropagatesAttrsError(t *testing.T) {
	boom := errors.New("object gone")
	wt, _ := testWatcher(t, &fakeObjectSize{err: boom})

	_, err := wt.Process(context.Background(), GCSEvent{Bucket: "recordings", Name: "standup.mp3"})
	assert.ErrorIs(t, err, boom)
}
