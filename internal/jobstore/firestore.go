package jobstore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Lllllllleong/meetingscribeflow/internal/models"
)

// DefaultCollection is the Firestore collection holding job records.
const DefaultCollection = "meeting_recorder_jobs"

// FirestoreStore is the durable Store implementation backed by Firestore.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

// NewFirestore wraps an existing Firestore client. An empty collection name
// selects DefaultCollection.
func NewFirestore(client *firestore.Client, collection string) *FirestoreStore {
	if collection == "" {
		collection = DefaultCollection
	}
	return &FirestoreStore{client: client, collection: collection}
}

func (s *FirestoreStore) doc(id string) *firestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(id)
}

// Create persists a new job record. Creation is rejected if the id already
// exists, which keeps job creation exactly-once.
func (s *FirestoreStore) Create(ctx context.Context, job *models.Job) error {
	if _, err := s.doc(job.ID).Create(ctx, job); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return ErrJobExists
		}
		return fmt.Errorf("failed to create job record %s: %w", job.ID, err)
	}
	return nil
}

// Get returns the latest persisted snapshot for the id.
func (s *FirestoreStore) Get(ctx context.Context, id string) (*models.Job, error) {
	snap, err := s.doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job record %s: %w", id, err)
	}
	var job models.Job
	if err := snap.DataTo(&job); err != nil {
		return nil, fmt.Errorf("failed to decode job record %s: %w", id, err)
	}
	return &job, nil
}

// Update merges only the supplied fields; unspecified fields are untouched.
func (s *FirestoreStore) Update(ctx context.Context, id string, upd Update) error {
	updates := []firestore.Update{
		{Path: "updatedAt", Value: time.Now()},
	}
	if upd.Status != nil {
		updates = append(updates, firestore.Update{Path: "status", Value: *upd.Status})
	}
	if upd.Progress != nil {
		updates = append(updates, firestore.Update{Path: "progress", Value: *upd.Progress})
	}
	if upd.CurrentStep != nil {
		updates = append(updates, firestore.Update{Path: "currentStep", Value: *upd.CurrentStep})
	}
	if upd.Result != nil {
		updates = append(updates, firestore.Update{Path: "result", Value: upd.Result})
	}
	if upd.Error != nil {
		updates = append(updates, firestore.Update{Path: "error", Value: upd.Error})
	}

	if _, err := s.doc(id).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrJobNotFound
		}
		return fmt.Errorf("failed to update job record %s: %w", id, err)
	}
	return nil
}

// DeleteOlderThan removes job records created before cutoff.
func (s *FirestoreStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	it := s.client.Collection(s.collection).Where("createdAt", "<", cutoff).Documents(ctx)
	deleted := 0
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return deleted, fmt.Errorf("failed to query old job records: %w", err)
		}
		if _, err := snap.Ref.Delete(ctx); err != nil {
			return deleted, fmt.Errorf("failed to delete job record %s: %w", snap.Ref.ID, err)
		}
		deleted++
	}
	return deleted, nil
}
