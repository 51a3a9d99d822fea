package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/Lllllllleong/meetingscribeflow/internal/service"
)

var (
	jobsInstance *service.JobsService
	once         sync.Once
	initErr      error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Register the HTTP functions with the framework.
	functions.HTTP("SubmitJob", submitJob)
	functions.HTTP("JobStatus", jobStatus)
}

// main is required by the Go Functions Framework.
func main() {}

func instance() (*service.JobsService, error) {
	// Use sync.Once for robust, one-time initialization of clients.
	once.Do(func() {
		jobsInstance, initErr = service.NewJobsService(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
	}
	return jobsInstance, initErr
}

func submitJob(w http.ResponseWriter, r *http.Request) {
	svc, err := instance()
	if err != nil {
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}
	svc.HandleSubmit(w, r)
}

func jobStatus(w http.ResponseWriter, r *http.Request) {
	svc, err := instance()
	if err != nil {
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}
	svc.HandleStatus(w, r)
}
