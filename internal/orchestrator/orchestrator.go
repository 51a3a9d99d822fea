// Package orchestrator owns the job lifecycle: it creates the persisted job
// record, spawns one detached background task per job, drives the whole-file
// or chunked transcription path to a single terminal write, and serves
// status reads. The job store is the only channel between a running task and
// status callers, so the initiating caller may disappear and any later
// caller can still recover progress or the final result.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Lllllllleong/meetingscribeflow/internal/blobstore"
	"github.com/Lllllllleong/meetingscribeflow/internal/chunking"
	"github.com/Lllllllleong/meetingscribeflow/internal/clock"
	"github.com/Lllllllleong/meetingscribeflow/internal/jobstore"
	"github.com/Lllllllleong/meetingscribeflow/internal/models"
	"github.com/Lllllllleong/meetingscribeflow/internal/summarize"
	"github.com/Lllllllleong/meetingscribeflow/internal/transcription"
)

// ErrUpload wraps staging failures that occur before a job record exists.
var ErrUpload = errors.New("audio staging failed")

// Timeout slack for the background task's context beyond the mode's poll
// deadline, covering submission, fetch and minutes generation.
const taskTimeoutSlack = 10 * time.Minute

// Config tunes orchestrator behavior.
type Config struct {
	// ChunkWorkers bounds concurrent chunk transcriptions per job.
	ChunkWorkers int
	// DefaultLanguage applies when job settings leave the language empty.
	DefaultLanguage string
}

// Orchestrator wires the job store, blob staging, the recognizer and the
// summarizer together. All collaborators are injected so tests can
// substitute fakes.
type Orchestrator struct {
	store      jobstore.Store
	blobs      blobstore.Store
	recognizer transcription.Service
	summarizer *summarize.Summarizer
	clk        clock.Clock
	cfg        Config

	tasks sync.WaitGroup
}

// New builds an Orchestrator.
func New(store jobstore.Store, blobs blobstore.Store, recognizer transcription.Service, summarizer *summarize.Summarizer, clk clock.Clock, cfg Config) *Orchestrator {
	if cfg.ChunkWorkers < 1 {
		cfg.ChunkWorkers = chunking.DefaultWorkers
	}
	return &Orchestrator{
		store:      store,
		blobs:      blobs,
		recognizer: recognizer,
		summarizer: summarizer,
		clk:        clk,
		cfg:        cfg,
	}
}

// Stage uploads raw audio bytes to the blob store and returns the file info
// for a subsequent Submit. Failures here are fatal before any job exists.
func (o *Orchestrator) Stage(ctx context.Context, fileName string, data []byte) (models.FileInfo, error) {
	if len(data) == 0 {
		return models.FileInfo{}, fmt.Errorf("empty audio payload for %s: %w", fileName, ErrUpload)
	}
	objectName := blobstore.AudioObjectName(o.clk.Now(), fileName)
	ref, err := o.blobs.Put(ctx, objectName, data)
	if err != nil {
		return models.FileInfo{}, fmt.Errorf("failed to stage %s: %w", fileName, errors.Join(ErrUpload, err))
	}
	return models.FileInfo{
		Name:       fileName,
		SizeBytes:  int64(len(data)),
		StorageRef: ref,
	}, nil
}

// Submit creates the job record and schedules the detached background task.
// It returns the job id immediately without waiting for any processing.
func (o *Orchestrator) Submit(ctx context.Context, fileInfo models.FileInfo, settings models.Settings) (string, error) {
	if fileInfo.StorageRef == "" {
		return "", fmt.Errorf("file info must reference staged audio")
	}
	if settings.QualityMode == "" {
		settings.QualityMode = models.QualityBalanced
	}
	if !settings.QualityMode.Valid() {
		return "", fmt.Errorf("unknown quality mode %q", settings.QualityMode)
	}
	if settings.ChunkSizeBytes < 0 {
		return "", fmt.Errorf("chunk size must not be negative")
	}
	if settings.LanguageCode == "" {
		settings.LanguageCode = o.cfg.DefaultLanguage
	}

	now := o.clk.Now()
	job := &models.Job{
		ID:          uuid.NewString()[:8],
		Status:      models.JobStatusCreated,
		Progress:    0,
		CurrentStep: "waiting",
		CreatedAt:   now,
		UpdatedAt:   now,
		FileInfo:    fileInfo,
		Settings:    settings,
	}
	if err := o.store.Create(ctx, job); err != nil {
		return "", fmt.Errorf("failed to create job: %w", err)
	}
	slog.Info("Job created.", "jobId", job.ID, "file", fileInfo.Name, "mode", string(settings.QualityMode))

	o.tasks.Add(1)
	go o.runJob(*job)

	return job.ID, nil
}

// Status returns the latest persisted snapshot for the job id. It is a pure
// read, safe for any number of concurrent callers at any time.
func (o *Orchestrator) Status(ctx context.Context, jobID string) (*models.Job, error) {
	return o.store.Get(ctx, jobID)
}

// Wait blocks until all background tasks have finished. Used for graceful
// shutdown and deterministic tests.
func (o *Orchestrator) Wait() {
	o.tasks.Wait()
}

// runJob is the detached background task. It is the only writer of the job's
// mutable fields and performs exactly one terminal write. Its context is
// deliberately detached from the submitting request and bounded by the
// mode's timeout plus slack.
func (o *Orchestrator) runJob(job models.Job) {
	defer o.tasks.Done()

	params := transcription.ParamsForMode(job.Settings.QualityMode)
	ctx, cancel := context.WithTimeout(context.Background(), params.Timeout+taskTimeoutSlack)
	defer cancel()

	logCtx := slog.With("jobId", job.ID)
	start := o.clk.Now()
	tracker := &progressTracker{orch: o, jobID: job.ID, logCtx: logCtx}

	tracker.update(ctx, models.JobStatusProcessing, 10, "starting transcription")

	cfg := transcription.Config{
		Mode:         job.Settings.QualityMode,
		LanguageCode: job.Settings.LanguageCode,
		FileName:     job.FileInfo.Name,
	}

	var (
		transcript string
		stats      models.Stats
		err        error
	)
	if job.Settings.ChunkSizeBytes > 0 {
		transcript, stats, err = o.runChunked(ctx, job, cfg, tracker)
	} else {
		transcript, stats, err = o.runWholeFile(ctx, job, cfg, tracker)
	}
	if err != nil {
		o.failJob(ctx, job.ID, classifyError(err), logCtx)
		return
	}
	stats.Mode = job.Settings.QualityMode
	stats.TranscriptChars = len(transcript)

	tracker.update(ctx, models.JobStatusProcessing, 85, "generating minutes")
	processingMinutes := o.clk.Now().Sub(start).Minutes()
	summary, sumErr := o.summarizer.Minutes(ctx, transcript, summarize.Metadata{
		FileName:          job.FileInfo.Name,
		Mode:              job.Settings.QualityMode,
		ProcessingMinutes: processingMinutes,
		GeneratedAt:       o.clk.Now(),
	})
	if sumErr != nil {
		// Degradation, not failure: the job still completes with the raw
		// transcript standing in for the minutes.
		logCtx.Warn("Minutes generation failed, degrading to raw transcript.", "error", sumErr)
		summary = summarize.Degraded(transcript)
	}

	result := &models.Result{
		Transcript:        transcript,
		Summary:           summary,
		ProcessingMinutes: o.clk.Now().Sub(start).Minutes(),
		Stats:             stats,
		CompletedAt:       o.clk.Now(),
	}
	o.completeJob(ctx, job.ID, result, logCtx)
}

// runWholeFile drives a single long-running recognition operation.
func (o *Orchestrator) runWholeFile(ctx context.Context, job models.Job, cfg transcription.Config, tracker *progressTracker) (string, models.Stats, error) {
	poller := transcription.NewPoller(o.recognizer, o.clk)
	transcript, err := poller.Run(ctx, job.FileInfo.StorageRef, cfg, func(progress int, step string) {
		tracker.update(ctx, models.JobStatusProcessing, progress, step)
	})
	if err != nil {
		return "", models.Stats{}, err
	}
	return transcript, models.Stats{}, nil
}

// runChunked splits the staged audio into byte ranges, transcribes them with
// bounded concurrency and reassembles the transcript strictly by index.
// Individual chunk failures are absorbed as inline markers.
func (o *Orchestrator) runChunked(ctx context.Context, job models.Job, cfg transcription.Config, tracker *progressTracker) (string, models.Stats, error) {
	data, err := o.blobs.Get(ctx, job.FileInfo.StorageRef)
	if err != nil {
		return "", models.Stats{}, fmt.Errorf("failed to read staged audio: %w", err)
	}

	chunks, err := chunking.Split(int64(len(data)), job.Settings.ChunkSizeBytes)
	if err != nil {
		return "", models.Stats{}, fmt.Errorf("failed to split audio: %w", err)
	}
	tracker.logCtx.Info("Chunked path selected.", "chunks", len(chunks), "chunkSizeBytes", job.Settings.ChunkSizeBytes)

	transcribeChunk := func(ctx context.Context, c chunking.Chunk) (string, error) {
		payload := data[c.Range.Offset : c.Range.Offset+c.Range.Length]
		objectName := blobstore.ChunkObjectName(job.ID, c.Index, job.FileInfo.Name)
		ref, err := o.blobs.Put(ctx, objectName, payload)
		if err != nil {
			return "", fmt.Errorf("failed to stage chunk %d: %w", c.Index, err)
		}
		return o.recognizer.RecognizeSync(ctx, ref, cfg)
	}

	pool := chunking.NewPool(o.cfg.ChunkWorkers)
	results, err := pool.Process(ctx, chunks, transcribeChunk, func(completed, total int) {
		// Chunk progress spans the whole band but stays below 100 until the
		// terminal write.
		progress := completed * 100 / total
		if progress > 95 {
			progress = 95
		}
		tracker.update(ctx, models.JobStatusProcessing, progress,
			fmt.Sprintf("transcribed %d/%d chunks", completed, total))
	})
	if err != nil {
		return "", models.Stats{}, err
	}

	stats := models.Stats{ChunkCount: len(results)}
	for _, c := range results {
		if c.Failed {
			stats.FailedChunks++
		}
	}
	return chunking.Assemble(results), stats, nil
}

// completeJob performs the single terminal write for a successful run.
func (o *Orchestrator) completeJob(ctx context.Context, jobID string, result *models.Result, logCtx *slog.Logger) {
	err := o.store.Update(ctx, jobID, jobstore.Update{
		Status:      jobstore.StatusPtr(models.JobStatusCompleted),
		Progress:    jobstore.ProgressPtr(100),
		CurrentStep: jobstore.StepPtr("completed"),
		Result:      result,
	})
	if err != nil {
		logCtx.Error("CRITICAL: failed to persist completed state", "error", err)
		return
	}
	logCtx.Info("Job completed.", "transcriptChars", result.Stats.TranscriptChars, "failedChunks", result.Stats.FailedChunks)
}

// failJob performs the single terminal write for a fatal failure.
func (o *Orchestrator) failJob(ctx context.Context, jobID string, jobErr *models.JobError, logCtx *slog.Logger) {
	// The task context may already be past its deadline; the terminal write
	// must still go through.
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
	}
	err := o.store.Update(ctx, jobID, jobstore.Update{
		Status:      jobstore.StatusPtr(models.JobStatusFailed),
		CurrentStep: jobstore.StepPtr("failed"),
		Error:       jobErr,
	})
	if err != nil {
		logCtx.Error("CRITICAL: failed to persist failed state", "error", err)
		return
	}
	logCtx.Error("Job failed.", "code", string(jobErr.Code), "message", jobErr.Message)
}

// classifyError maps a fatal processing error onto the persisted taxonomy.
func classifyError(err error) *models.JobError {
	code := models.ErrCodeTranscriptionService
	if errors.Is(err, transcription.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		code = models.ErrCodeTranscriptionTimeout
	}
	return &models.JobError{Code: code, Message: err.Error()}
}

// progressTracker serializes the background task's non-terminal writes and
// keeps progress monotonically non-decreasing even when estimates from
// different sources interleave.
type progressTracker struct {
	orch   *Orchestrator
	jobID  string
	logCtx *slog.Logger

	mu   sync.Mutex
	last int
}

func (t *progressTracker) update(ctx context.Context, status models.JobStatus, progress int, step string) {
	// The store write stays under the lock so concurrent chunk completions
	// cannot persist a lower progress after a higher one.
	t.mu.Lock()
	defer t.mu.Unlock()
	if progress < t.last {
		progress = t.last
	}
	t.last = progress

	err := t.orch.store.Update(ctx, t.jobID, jobstore.Update{
		Status:      jobstore.StatusPtr(status),
		Progress:    jobstore.ProgressPtr(progress),
		CurrentStep: jobstore.StepPtr(step),
	})
	if err != nil {
		t.logCtx.Warn("Failed to persist progress update.", "error", err, "progress", progress)
	}
}
