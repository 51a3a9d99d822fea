// Package jobstore persists job records. The store is the only channel
// between a job's background task and status callers, so it must survive a
// process restart; the Firestore implementation provides that, the in-memory
// implementation exists for tests and local development.
package jobstore

import (
	"context"
	"errors"
	"time"

	"github.com/Lllllllleong/meetingscribeflow/internal/models"
)

// ErrJobNotFound is returned by Get, Update and Delete for unknown job ids.
var ErrJobNotFound = errors.New("job not found")

// ErrJobExists is returned by Create when the id is already taken.
var ErrJobExists = errors.New("job already exists")

// Update carries the fields to merge into an existing record. Nil fields are
// left untouched; UpdatedAt is always bumped by the store.
type Update struct {
	Status      *models.JobStatus
	Progress    *int
	CurrentStep *string
	Result      *models.Result
	Error       *models.JobError
}

// Store is the durable key-value contract for job records. Records are
// single-writer (the owning background task) and multi-reader, so
// last-write-wins per field is sufficient.
type Store interface {
	// Create persists a new record. The record's ID must be unique.
	Create(ctx context.Context, job *models.Job) error
	// Get returns the latest snapshot for the id, or ErrJobNotFound.
	Get(ctx context.Context, id string) (*models.Job, error)
	// Update merges the supplied fields into the record, or ErrJobNotFound.
	Update(ctx context.Context, id string, upd Update) error
	// DeleteOlderThan removes records created before cutoff and returns how
	// many were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// StatusPtr, ProgressPtr and StepPtr are small helpers for building Updates.
func StatusPtr(s models.JobStatus) *models.JobStatus { return &s }

func ProgressPtr(p int) *int { return &p }

func StepPtr(s string) *string { return &s }
