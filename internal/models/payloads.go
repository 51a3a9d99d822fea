package models

// These structs define the JSON payloads for the HTTP surface exposed by
// cmd/jobs-service and cmd/jobs-cleanup.

// SubmitJobRequest is the input for the SubmitJob function. Either StorageRef
// points at already-staged audio, or AudioBase64 carries the raw bytes to be
// staged before the job is created.
type SubmitJobRequest struct {
	FileName       string `json:"fileName"`
	SizeBytes      int64  `json:"sizeBytes,omitempty"`
	StorageRef     string `json:"storageRef,omitempty"`
	AudioBase64    string `json:"audioBase64,omitempty"`
	QualityMode    string `json:"qualityMode,omitempty"`
	ChunkSizeBytes int64  `json:"chunkSizeBytes,omitempty"`
	LanguageCode   string `json:"languageCode,omitempty"`
}

// SubmitJobResponse is the output of the SubmitJob function.
type SubmitJobResponse struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
}

// CleanupRequest is the input for the jobs-cleanup function.
type CleanupRequest struct {
	RetentionDays int `json:"retentionDays,omitempty"`
}

// CleanupResponse is the output of the jobs-cleanup function.
type CleanupResponse struct {
	Deleted int `json:"deleted"`
}
