package jobstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/meetingscribeflow/internal/models"
)

func newJob(id string, createdAt time.Time) *models.Job {
	return &models.Job{
		ID:          id,
		Status:      models.JobStatusCreated,
		Progress:    0,
		CurrentStep: "waiting",
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
		FileInfo:    models.FileInfo{Name: "meeting.wav", SizeBytes: 1024, StorageRef: "gs://audio/meeting.wav"},
		Settings:    models.Settings{QualityMode: models.QualityBalanced},
	}
}

func TestMemoryStoreCreateGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	require.NoError(t, s.Create(ctx, newJob("job-1", time.Now())))

	got, err := s.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCreated, got.Status)
	assert.Equal(t, 0, got.Progress)
	assert.Nil(t, got.Result)
	assert.Nil(t, got.Error)
}

func TestMemoryStoreRejectsDuplicateID(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	require.NoError(t, s.Create(ctx, newJob("job-1", time.Now())))

	err := s.Create(ctx, newJob("job-1", time.Now()))
	require.ErrorIs(t, err, ErrJobExists)

	// The original record survives the rejected create.
	got, err := s.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCreated, got.Status)
}

func TestMemoryStoreNotFound(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)

	err = s.Update(ctx, "missing", Update{Progress: ProgressPtr(10)})
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestMemoryStoreUpdateMergesOnlySuppliedFields(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.Create(ctx, newJob("job-1", time.Now())))

	require.NoError(t, s.Update(ctx, "job-1", Update{
		Status:      StatusPtr(models.JobStatusProcessing),
		Progress:    ProgressPtr(20),
		CurrentStep: StepPtr("transcription running"),
	}))

	// A progress-only write must not clobber status or step.
	require.NoError(t, s.Update(ctx, "job-1", Update{Progress: ProgressPtr(40)}))

	got, err := s.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusProcessing, got.Status)
	assert.Equal(t, 40, got.Progress)
	assert.Equal(t, "transcription running", got.CurrentStep)
	assert.Equal(t, "meeting.wav", got.FileInfo.Name)
}

func TestMemoryStoreUpdatedAtStrictlyIncreases(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.Create(ctx, newJob("job-1", time.Now())))

	var prev time.Time
	for i := 1; i <= 5; i++ {
		require.NoError(t, s.Update(ctx, "job-1", Update{Progress: ProgressPtr(i * 10)}))
		got, err := s.Get(ctx, "job-1")
		require.NoError(t, err)
		assert.True(t, got.UpdatedAt.After(prev), "updatedAt must strictly increase")
		prev = got.UpdatedAt
	}
}

func TestMemoryStoreGetReturnsSnapshot(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.Create(ctx, newJob("job-1", time.Now())))

	got, err := s.Get(ctx, "job-1")
	require.NoError(t, err)
	got.Progress = 99

	again, err := s.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, 0, again.Progress, "caller mutation must not leak into the store")
}

func TestMemoryStoreDeleteOlderThan(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	now := time.Now()
	require.NoError(t, s.Create(ctx, newJob("old-1", now.AddDate(0, 0, -10))))
	require.NoError(t, s.Create(ctx, newJob("old-2", now.AddDate(0, 0, -8))))
	require.NoError(t, s.Create(ctx, newJob("fresh", now)))

	deleted, err := s.DeleteOlderThan(ctx, now.AddDate(0, 0, -7))
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	_, err = s.Get(ctx, "old-1")
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, err = s.Get(ctx, "fresh")
	assert.NoError(t, err)
}
