package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// GCSStore stages payloads in a single Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCS wraps an existing storage client around the staging bucket.
func NewGCS(client *storage.Client, bucket string) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("staging bucket name must be provided")
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

// Put writes data only if the object doesn't already exist; a precondition
// failure means an identical staging write already happened and is not an
// error in an idempotent pipeline.
func (s *GCSStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	ref := fmt.Sprintf("gs://%s/%s", s.bucket, name)
	writer := s.client.Bucket(s.bucket).Object(name).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)

	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		_ = writer.Close()
		if gerr, ok := err.(*googleapi.Error); ok && gerr.Code == 412 {
			slog.Info("Staging object already exists, skipping write.", "object", name)
			return ref, nil
		}
		return "", fmt.Errorf("failed to write staging object %s: %w", name, err)
	}
	if err := writer.Close(); err != nil {
		if gerr, ok := err.(*googleapi.Error); ok && gerr.Code == 412 {
			slog.Info("Staging object already exists, skipping write.", "object", name)
			return ref, nil
		}
		return "", fmt.Errorf("failed to finalize staging object %s: %w", name, err)
	}
	return ref, nil
}

// Get reads a staged payload back by its gs:// ref.
func (s *GCSStore) Get(ctx context.Context, ref string) ([]byte, error) {
	bucket, object, err := parseGCSRef(ref)
	if err != nil {
		return nil, err
	}
	reader, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open reader for %s: %w", ref, err)
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ref, err)
	}
	return data, nil
}

func parseGCSRef(ref string) (bucket, object string, err error) {
	trimmed, ok := strings.CutPrefix(ref, "gs://")
	if !ok {
		return "", "", fmt.Errorf("not a gs:// ref: %q", ref)
	}
	bucket, object, ok = strings.Cut(trimmed, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("malformed gs:// ref: %q", ref)
	}
	return bucket, object, nil
}
