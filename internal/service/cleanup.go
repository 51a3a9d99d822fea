package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Lllllllleong/meetingscribeflow/internal/gcp"
	"github.com/Lllllllleong/meetingscribeflow/internal/jobstore"
	"github.com/Lllllllleong/meetingscribeflow/internal/models"
)

// DefaultRetentionDays is how long job records are kept when the cleanup
// request doesn't say otherwise.
const DefaultRetentionDays = 7

// CleanupService deletes stale job records. It only needs Firestore, so it
// deliberately doesn't build the full jobs service.
type CleanupService struct {
	store jobstore.Store
}

// NewCleanupService constructs the cleanup entry point from the environment.
func NewCleanupService(ctx context.Context) (*CleanupService, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	firestoreClient, err := gcp.NewFirestoreClient(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &CleanupService{
		store: jobstore.NewFirestore(firestoreClient, gcp.GetEnv("FIRESTORE_COLLECTION", "")),
	}, nil
}

// HandleCleanup removes job records older than the requested retention.
func (s *CleanupService) HandleCleanup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.CleanupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}
	days := req.RetentionDays
	if days <= 0 {
		days = DefaultRetentionDays
	}

	cutoff := time.Now().AddDate(0, 0, -days)
	deleted, err := s.store.DeleteOlderThan(r.Context(), cutoff)
	if err != nil {
		slog.Error("Cleanup failed", "cutoff", cutoff, "deletedSoFar", deleted, "error", err)
		http.Error(w, "Internal Server Error: cleanup failed", http.StatusInternalServerError)
		return
	}

	slog.Info("Cleanup complete.", "deleted", deleted, "retentionDays", days)
	writeJSON(w, http.StatusOK, models.CleanupResponse{Deleted: deleted})
}
