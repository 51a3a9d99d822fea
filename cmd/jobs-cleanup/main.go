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
	cleanupInstance *service.CleanupService
	once            sync.Once
	initErr         error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("CleanupJobs", cleanupJobs)
}

// main is required by the Go Functions Framework.
func main() {}

func cleanupJobs(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		cleanupInstance, initErr = service.NewCleanupService(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}
	cleanupInstance.HandleCleanup(w, r)
}
