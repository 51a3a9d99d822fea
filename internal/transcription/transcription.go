// Package transcription drives long-running speech recognition operations.
// The Service interface maps onto the external recognizer's primitives; the
// Poller layers the submit/poll/fetch state machine with per-mode timeouts
// on top of it.
package transcription

import (
	"context"
	"errors"
	"time"

	"github.com/Lllllllleong/meetingscribeflow/internal/models"
)

// ErrTimeout is returned by the Poller when the operation does not report
// done within the mode's deadline. No further polls are issued after it.
var ErrTimeout = errors.New("transcription operation timed out")

// Handle is an opaque reference to an in-progress recognition operation. It
// is a plain string so a restarted process could resume polling by name.
type Handle string

// Config selects the recognition behavior for one submit call.
type Config struct {
	Mode         models.QualityMode
	LanguageCode string
	// FileName is used only to infer the audio encoding from its extension.
	FileName string
}

// Service is the external recognizer contract. Fetch has a side-effect cost
// and must be called at most once per operation; callers that need the
// transcript again read it from the persisted job result.
type Service interface {
	// Submit starts a long-running recognition operation for staged audio.
	Submit(ctx context.Context, audioRef string, cfg Config) (Handle, error)
	// Poll reports whether the operation has finished. It never blocks on
	// the operation itself.
	Poll(ctx context.Context, h Handle) (bool, error)
	// Fetch retrieves the transcript of a finished operation.
	Fetch(ctx context.Context, h Handle) (string, error)
	// RecognizeSync transcribes short audio in a single blocking call. Used
	// for chunk payloads, which are small enough to skip the poll loop.
	RecognizeSync(ctx context.Context, audioRef string, cfg Config) (string, error)
}

// ModeParams bound one mode's poll cadence and total wait.
type ModeParams struct {
	PollInterval time.Duration
	Timeout      time.Duration
}

// ParamsForMode returns the poll cadence and deadline for a quality mode.
// Fast polls tighter and gives up sooner; quality waits the longest.
func ParamsForMode(mode models.QualityMode) ModeParams {
	switch mode {
	case models.QualityFast:
		return ModeParams{PollInterval: 10 * time.Second, Timeout: 15 * time.Minute}
	case models.QualityQuality:
		return ModeParams{PollInterval: 45 * time.Second, Timeout: 60 * time.Minute}
	default:
		return ModeParams{PollInterval: 30 * time.Second, Timeout: 30 * time.Minute}
	}
}
