package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/Lllllllleong/meetingscribeflow/internal/service"
)

var (
	watcherInstance *service.Watcher
	once            sync.Once
	initErr         error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Register the CloudEvent function. The framework routes GCS finalize
	// events here.
	functions.CloudEvent("AudioUploaded", audioUploaded)
}

// main is required by the Go Functions Framework.
func main() {}

func audioUploaded(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		watcherInstance, initErr = service.NewWatcher(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var gcsEvent service.GCSEvent
	if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	_, err := watcherInstance.Process(ctx, gcsEvent)
	return err
}
