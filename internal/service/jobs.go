package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Lllllllleong/meetingscribeflow/internal/blobstore"
	"github.com/Lllllllleong/meetingscribeflow/internal/clock"
	"github.com/Lllllllleong/meetingscribeflow/internal/gcp"
	"github.com/Lllllllleong/meetingscribeflow/internal/jobstore"
	"github.com/Lllllllleong/meetingscribeflow/internal/models"
	"github.com/Lllllllleong/meetingscribeflow/internal/orchestrator"
	"github.com/Lllllllleong/meetingscribeflow/internal/summarize"
	"github.com/Lllllllleong/meetingscribeflow/internal/transcription"
)

// JobsService serves job submission and status over HTTP on top of the
// orchestrator.
type JobsService struct {
	orch *orchestrator.Orchestrator
}

// NewJobsService constructs the full dependency graph from the environment.
func NewJobsService(ctx context.Context) (*JobsService, error) {
	config, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
	if err != nil {
		return nil, err
	}
	storageClient, err := gcp.NewStorageClient(ctx)
	if err != nil {
		return nil, err
	}
	speechClient, err := gcp.NewSpeechClient(ctx)
	if err != nil {
		return nil, err
	}
	vertexClient, err := gcp.NewVertexClient(ctx, config.ProjectID, config.VertexAIRegion)
	if err != nil {
		return nil, err
	}

	blobs, err := blobstore.NewGCS(storageClient, config.StagingBucket)
	if err != nil {
		return nil, err
	}
	store := jobstore.NewFirestore(firestoreClient, config.JobsCollection)

	orch := orchestrator.New(
		store,
		blobs,
		transcription.NewGoogleService(speechClient),
		summarize.New(vertexClient),
		clock.Real(),
		orchestrator.Config{
			ChunkWorkers:    config.ChunkWorkers,
			DefaultLanguage: config.DefaultLanguage,
		},
	)

	slog.Info("Jobs service initialized.", "project", config.ProjectID, "stagingBucket", config.StagingBucket)
	return &JobsService{orch: orch}, nil
}

// Orchestrator exposes the underlying orchestrator to other entry points.
func (s *JobsService) Orchestrator() *orchestrator.Orchestrator {
	return s.orch
}

// HandleSubmit accepts a job submission. The request either references
// already-staged audio or carries the payload inline as base64.
func (s *JobsService) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.SubmitJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Could not decode submit request", "error", err)
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}
	if req.FileName == "" {
		http.Error(w, "Bad Request: fileName is required", http.StatusBadRequest)
		return
	}

	fileInfo, err := s.resolveFileInfo(r.Context(), &req)
	if err != nil {
		if errors.Is(err, orchestrator.ErrUpload) {
			slog.Error("Audio staging failed", "file", req.FileName, "error", err)
			http.Error(w, "Internal Server Error: staging failed", http.StatusInternalServerError)
			return
		}
		http.Error(w, fmt.Sprintf("Bad Request: %v", err), http.StatusBadRequest)
		return
	}

	settings := models.Settings{
		QualityMode:    models.QualityMode(req.QualityMode),
		ChunkSizeBytes: req.ChunkSizeBytes,
		LanguageCode:   req.LanguageCode,
	}
	jobID, err := s.orch.Submit(r.Context(), fileInfo, settings)
	if err != nil {
		slog.Error("Job submission rejected", "file", req.FileName, "error", err)
		http.Error(w, fmt.Sprintf("Bad Request: %v", err), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusAccepted, models.SubmitJobResponse{
		JobID:  jobID,
		Status: string(models.JobStatusCreated),
	})
}

func (s *JobsService) resolveFileInfo(ctx context.Context, req *models.SubmitJobRequest) (models.FileInfo, error) {
	if req.AudioBase64 != "" {
		data, err := base64.StdEncoding.DecodeString(req.AudioBase64)
		if err != nil {
			return models.FileInfo{}, fmt.Errorf("audioBase64 is not valid base64: %w", err)
		}
		return s.orch.Stage(ctx, req.FileName, data)
	}
	if req.StorageRef == "" {
		return models.FileInfo{}, fmt.Errorf("either storageRef or audioBase64 must be provided")
	}
	return models.FileInfo{
		Name:       req.FileName,
		SizeBytes:  req.SizeBytes,
		StorageRef: req.StorageRef,
	}, nil
}

// HandleStatus returns the latest persisted job snapshot. Safe to call from
// any client at any time, including long after the submitting client went
// away.
func (s *JobsService) HandleStatus(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Query().Get("jobId")
	if jobID == "" {
		http.Error(w, "Bad Request: jobId query parameter is required", http.StatusBadRequest)
		return
	}

	job, err := s.orch.Status(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, jobstore.ErrJobNotFound) {
			http.Error(w, "Not Found: unknown job id", http.StatusNotFound)
			return
		}
		slog.Error("Status read failed", "jobId", jobID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, job)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}
