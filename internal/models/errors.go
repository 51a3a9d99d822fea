package models

import "fmt"

// ErrorCode is a short machine-checkable classification of a job failure.
type ErrorCode string

const (
	// ErrCodeUpload marks a staging failure before the job record exists.
	ErrCodeUpload ErrorCode = "UPLOAD_ERROR"
	// ErrCodeTranscriptionTimeout marks a recognition operation that did not
	// finish within the mode's deadline. Fatal.
	ErrCodeTranscriptionTimeout ErrorCode = "TRANSCRIPTION_TIMEOUT"
	// ErrCodeTranscriptionService marks any other recognition failure. Fatal.
	ErrCodeTranscriptionService ErrorCode = "TRANSCRIPTION_SERVICE_ERROR"
)

// JobError is the persisted failure detail for a failed job. Chunk-level and
// summarization failures are absorbed elsewhere and never become a JobError.
type JobError struct {
	Code    ErrorCode `firestore:"code" json:"code"`
	Message string    `firestore:"message" json:"message"`
}

func (e *JobError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
