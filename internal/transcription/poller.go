package transcription

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Lllllllleong/meetingscribeflow/internal/clock"
)

// Progress estimation while polling: starts at pollBaseProgress right after
// submission and grows with elapsed/timeout, capped at pollMaxProgress so
// completion is never reported before the result is actually fetched.
const (
	pollBaseProgress = 20
	pollSpanProgress = 60
	pollMaxProgress  = 80
)

// ProgressFunc receives progress estimates (0-100) and a step label.
type ProgressFunc func(progress int, step string)

// Poller drives one recognition operation from submission to transcript.
type Poller struct {
	svc Service
	clk clock.Clock
}

// NewPoller builds a Poller on top of a recognizer and an injectable clock.
func NewPoller(svc Service, clk clock.Clock) *Poller {
	return &Poller{svc: svc, clk: clk}
}

// Run submits the operation and polls at the mode's interval until it is
// done, the mode's timeout expires, or ctx is cancelled. On done the result
// is fetched exactly once. On timeout no further polls are issued and
// ErrTimeout is returned.
func (p *Poller) Run(ctx context.Context, audioRef string, cfg Config, onProgress ProgressFunc) (string, error) {
	params := ParamsForMode(cfg.Mode)

	handle, err := p.svc.Submit(ctx, audioRef, cfg)
	if err != nil {
		return "", fmt.Errorf("failed to submit recognition operation: %w", err)
	}
	slog.Info("Recognition operation submitted.", "handle", string(handle), "mode", string(cfg.Mode))
	onProgress(pollBaseProgress, "transcription running")

	start := p.clk.Now()
	for {
		elapsed := p.clk.Now().Sub(start)
		if elapsed > params.Timeout {
			slog.Warn("Recognition operation exceeded deadline.",
				"handle", string(handle), "elapsed", elapsed.String(), "timeout", params.Timeout.String())
			return "", fmt.Errorf("no result after %s: %w", params.Timeout, ErrTimeout)
		}

		done, err := p.svc.Poll(ctx, handle)
		if err != nil {
			return "", fmt.Errorf("failed to poll recognition operation: %w", err)
		}
		if done {
			break
		}

		onProgress(estimateProgress(elapsed, params.Timeout), "transcription running")
		if err := p.clk.Sleep(ctx, params.PollInterval); err != nil {
			return "", fmt.Errorf("polling interrupted: %w", err)
		}
	}

	transcript, err := p.svc.Fetch(ctx, handle)
	if err != nil {
		return "", fmt.Errorf("failed to fetch recognition result: %w", err)
	}
	return transcript, nil
}

// estimateProgress maps elapsed wait onto the polling progress band. It is
// non-decreasing in elapsed and never reaches 100.
func estimateProgress(elapsed, timeout time.Duration) int {
	if timeout <= 0 {
		return pollBaseProgress
	}
	est := pollBaseProgress + int(float64(elapsed)/float64(timeout)*pollSpanProgress)
	if est > pollMaxProgress {
		return pollMaxProgress
	}
	return est
}
