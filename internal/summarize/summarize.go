// Package summarize turns an assembled transcript into meeting minutes via a
// black-box text completion service. Its failures never fail the job: the
// orchestrator falls back to the raw transcript with a degradation note.
package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Lllllllleong/meetingscribeflow/internal/gcp"
	"github.com/Lllllllleong/meetingscribeflow/internal/models"
)

// DefaultMaxPromptChars bounds how much transcript is sent to the completion
// service; longer transcripts are sampled, not truncated.
const DefaultMaxPromptChars = 24000

// SamplingNote is appended to minutes generated from a sampled transcript.
const SamplingNote = "\n\n> Note: the source transcript was too long to process in full; these minutes were generated from sampled beginning, middle and end segments."

// DegradationNote separates the raw transcript from the explanation when
// minutes generation failed.
const DegradationNote = "\n\n---\n> Note: minutes generation failed; the raw transcript is shown instead."

// Completer is the black-box text-to-text service contract.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Metadata travels alongside the transcript into the minutes prompt.
type Metadata struct {
	FileName          string
	Mode              models.QualityMode
	ProcessingMinutes float64
	GeneratedAt       time.Time
}

// Summarizer generates meeting minutes from transcripts.
type Summarizer struct {
	completer      Completer
	maxPromptChars int
}

// New builds a Summarizer with the default transcript budget.
func New(completer Completer) *Summarizer {
	return &Summarizer{completer: completer, maxPromptChars: DefaultMaxPromptChars}
}

// NewWithLimit builds a Summarizer with a custom transcript budget.
func NewWithLimit(completer Completer, maxPromptChars int) *Summarizer {
	if maxPromptChars <= 0 {
		maxPromptChars = DefaultMaxPromptChars
	}
	return &Summarizer{completer: completer, maxPromptChars: maxPromptChars}
}

// Minutes generates meeting minutes for the transcript. Oversized
// transcripts are head/middle/tail sampled with explicit section markers and
// the returned minutes carry a note that sampling occurred.
func (s *Summarizer) Minutes(ctx context.Context, transcript string, meta Metadata) (string, error) {
	sampled, wasSampled := sampleTranscript(transcript, s.maxPromptChars)
	if wasSampled {
		slog.Info("Transcript exceeds prompt budget, sampling segments.",
			"transcriptChars", len(transcript), "budget", s.maxPromptChars)
	}

	prompt := fmt.Sprintf(gcp.MinutesUserPromptTemplate,
		sampled,
		meta.FileName,
		meta.GeneratedAt.Format("2006-01-02 15:04"),
		string(meta.Mode),
		meta.ProcessingMinutes,
	)

	minutes, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("minutes generation failed: %w", err)
	}
	if refused(minutes) {
		return "", fmt.Errorf("completion service refused to generate minutes")
	}
	if strings.TrimSpace(minutes) == "" {
		return "", fmt.Errorf("completion service returned empty minutes")
	}

	if wasSampled {
		minutes += SamplingNote
	}
	return minutes, nil
}

// Degraded produces the fallback summary used when minutes generation fails.
func Degraded(transcript string) string {
	return transcript + DegradationNote
}

// sampleTranscript returns the transcript unchanged when it fits the budget;
// otherwise it concatenates head, middle and tail segments with explicit
// markers.
func sampleTranscript(transcript string, budget int) (string, bool) {
	if len(transcript) <= budget {
		return transcript, false
	}

	segment := budget / 3
	headEnd := segment
	midStart := (len(transcript) - segment) / 2
	midEnd := midStart + segment
	tailStart := len(transcript) - segment

	var sb strings.Builder
	sb.WriteString("[transcript beginning]\n")
	sb.WriteString(transcript[:headEnd])
	sb.WriteString("\n[... omitted ...]\n[transcript middle]\n")
	sb.WriteString(transcript[midStart:midEnd])
	sb.WriteString("\n[... omitted ...]\n[transcript end]\n")
	sb.WriteString(transcript[tailStart:])
	return sb.String(), true
}

var refusalPhrases = []string{
	"i am unable to",
	"i cannot fulfill",
	"i cannot answer",
	"i cannot provide",
	"as a large language model",
}

// refused detects an LLM refusal so the caller can degrade instead of
// persisting a non-answer as minutes.
func refused(response string) bool {
	lower := strings.ToLower(response)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
