package models

import "time"

// JobStatus is the lifecycle state of a transcription job. Transitions are
// monotonic: created -> processing -> completed|failed, never backwards.
type JobStatus string

const (
	JobStatusCreated    JobStatus = "created"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further transitions can occur.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// QualityMode selects the recognition model and the poll/timeout profile.
type QualityMode string

const (
	QualityFast     QualityMode = "fast"
	QualityBalanced QualityMode = "balanced"
	QualityQuality  QualityMode = "quality"
)

// Valid reports whether m is one of the three supported modes.
func (m QualityMode) Valid() bool {
	switch m {
	case QualityFast, QualityBalanced, QualityQuality:
		return true
	}
	return false
}

// FileInfo describes the staged source audio. Set once at job creation.
type FileInfo struct {
	Name       string `firestore:"name" json:"name"`
	SizeBytes  int64  `firestore:"sizeBytes" json:"sizeBytes"`
	StorageRef string `firestore:"storageRef" json:"storageRef"`
}

// Settings are the caller-chosen processing options, set once at creation.
// A ChunkSizeBytes > 0 selects the chunked path; zero means whole-file.
type Settings struct {
	QualityMode    QualityMode `firestore:"qualityMode" json:"qualityMode"`
	ChunkSizeBytes int64       `firestore:"chunkSizeBytes,omitempty" json:"chunkSizeBytes,omitempty"`
	LanguageCode   string      `firestore:"languageCode,omitempty" json:"languageCode,omitempty"`
}

// Stats summarizes one completed processing run.
type Stats struct {
	TranscriptChars int         `firestore:"transcriptChars" json:"transcriptChars"`
	ChunkCount      int         `firestore:"chunkCount" json:"chunkCount"`
	FailedChunks    int         `firestore:"failedChunks" json:"failedChunks"`
	Mode            QualityMode `firestore:"mode" json:"mode"`
}

// Result holds the final artifacts. Present iff the job completed.
type Result struct {
	Transcript        string    `firestore:"transcript" json:"transcript"`
	Summary           string    `firestore:"summary" json:"summary"`
	ProcessingMinutes float64   `firestore:"processingMinutes" json:"processingMinutes"`
	Stats             Stats     `firestore:"stats" json:"stats"`
	CompletedAt       time.Time `firestore:"completedAt" json:"completedAt"`
}

// Job is the persisted record for one source-audio-to-minutes conversion.
// Only the owning background task writes the mutable fields; any number of
// status callers may read it concurrently.
type Job struct {
	ID          string    `firestore:"jobId" json:"jobId"`
	Status      JobStatus `firestore:"status" json:"status"`
	Progress    int       `firestore:"progress" json:"progress"`
	CurrentStep string    `firestore:"currentStep" json:"currentStep"`
	CreatedAt   time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt" json:"updatedAt"`
	FileInfo    FileInfo  `firestore:"fileInfo" json:"fileInfo"`
	Settings    Settings  `firestore:"settings" json:"settings"`
	Result      *Result   `firestore:"result,omitempty" json:"result,omitempty"`
	Error       *JobError `firestore:"error,omitempty" json:"error,omitempty"`
}
