package jobstore

import (
	"context"
	"sync"
	"time"

	"github.com/Lllllllleong/meetingscribeflow/internal/models"
)

// MemoryStore is an in-process Store for tests and local runs. It mirrors the
// Firestore merge semantics, including strictly increasing UpdatedAt.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*models.Job
}

// NewMemory returns an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*models.Job)}
}

func (s *MemoryStore) Create(_ context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; ok {
		return ErrJobExists
	}
	cp := *job
	s.jobs[job.ID] = &cp
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	cp := *job
	return &cp, nil
}

func (s *MemoryStore) Update(_ context.Context, id string, upd Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}

	now := time.Now()
	if !now.After(job.UpdatedAt) {
		// Wall clock too coarse for back-to-back writes.
		now = job.UpdatedAt.Add(time.Microsecond)
	}
	job.UpdatedAt = now

	if upd.Status != nil {
		job.Status = *upd.Status
	}
	if upd.Progress != nil {
		job.Progress = *upd.Progress
	}
	if upd.CurrentStep != nil {
		job.CurrentStep = *upd.CurrentStep
	}
	if upd.Result != nil {
		job.Result = upd.Result
	}
	if upd.Error != nil {
		job.Error = upd.Error
	}
	return nil
}

func (s *MemoryStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for id, job := range s.jobs {
		if job.CreatedAt.Before(cutoff) {
			delete(s.jobs, id)
			deleted++
		}
	}
	return deleted, nil
}
