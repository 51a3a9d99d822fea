// Package gcp centralizes Google Cloud client construction and the prompt
// configuration for the minutes model.
package gcp

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/storage"
)

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// NewFirestoreClient creates a Firestore client for the given project ID.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	return client, nil
}

// NewStorageClient creates a Cloud Storage client.
func NewStorageClient(ctx context.Context) (*storage.Client, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}
	return client, nil
}

// NewSpeechClient creates a Speech-to-Text client.
func NewSpeechClient(ctx context.Context) (*speech.Client, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Speech client: %w", err)
	}
	return client, nil
}
