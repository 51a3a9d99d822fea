package transcription

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"

	"github.com/Lllllllleong/meetingscribeflow/internal/models"
)

// DefaultLanguageCode is used when the job settings leave the language empty.
const DefaultLanguageCode = "ja-JP"

// GoogleService is the Service implementation backed by Cloud Speech-to-Text.
type GoogleService struct {
	client *speech.Client
}

// NewGoogleService wraps an existing Speech client.
func NewGoogleService(client *speech.Client) *GoogleService {
	return &GoogleService{client: client}
}

// Submit starts a LongRunningRecognize operation and returns its name as the
// opaque handle.
func (s *GoogleService) Submit(ctx context.Context, audioRef string, cfg Config) (Handle, error) {
	req := &speechpb.LongRunningRecognizeRequest{
		Config: recognitionConfig(cfg),
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Uri{Uri: audioRef},
		},
	}
	op, err := s.client.LongRunningRecognize(ctx, req)
	if err != nil {
		return "", fmt.Errorf("LongRunningRecognize: %w", err)
	}
	return Handle(op.Name()), nil
}

// Poll checks the operation state without blocking on it.
func (s *GoogleService) Poll(ctx context.Context, h Handle) (bool, error) {
	op := s.client.LongRunningRecognizeOperation(string(h))
	if _, err := op.Poll(ctx); err != nil {
		return false, fmt.Errorf("poll operation %s: %w", string(h), err)
	}
	return op.Done(), nil
}

// Fetch retrieves the finished operation's response and flattens it into a
// transcript.
func (s *GoogleService) Fetch(ctx context.Context, h Handle) (string, error) {
	op := s.client.LongRunningRecognizeOperation(string(h))
	resp, err := op.Wait(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch operation %s: %w", string(h), err)
	}
	return flattenResults(resp.GetResults()), nil
}

// RecognizeSync transcribes a short payload in one call.
func (s *GoogleService) RecognizeSync(ctx context.Context, audioRef string, cfg Config) (string, error) {
	req := &speechpb.RecognizeRequest{
		Config: recognitionConfig(cfg),
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Uri{Uri: audioRef},
		},
	}
	resp, err := s.client.Recognize(ctx, req)
	if err != nil {
		return "", fmt.Errorf("Recognize: %w", err)
	}
	return flattenResults(resp.GetResults()), nil
}

// flattenResults joins the top alternative of each result, one per line.
func flattenResults(results []*speechpb.SpeechRecognitionResult) string {
	var sb strings.Builder
	for _, result := range results {
		alts := result.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		sb.WriteString(alts[0].GetTranscript())
		sb.WriteString("\n")
	}
	return sb.String()
}

// recognitionConfig builds the per-mode request config. Fast trades accuracy
// for turnaround; quality enables the long-form model, diarization and the
// enhanced variant.
func recognitionConfig(cfg Config) *speechpb.RecognitionConfig {
	language := cfg.LanguageCode
	if language == "" {
		language = DefaultLanguageCode
	}

	rc := &speechpb.RecognitionConfig{
		Encoding:                   encodingForFile(cfg.FileName),
		LanguageCode:               language,
		EnableAutomaticPunctuation: true,
	}

	switch cfg.Mode {
	case models.QualityFast:
		rc.Model = "default"
		rc.UseEnhanced = false
		rc.MaxAlternatives = 1
	case models.QualityQuality:
		rc.Model = "latest_long"
		rc.UseEnhanced = true
		rc.DiarizationConfig = &speechpb.SpeakerDiarizationConfig{
			EnableSpeakerDiarization: true,
			MinSpeakerCount:          2,
			MaxSpeakerCount:          2,
		}
	default:
		rc.Model = "default"
		rc.UseEnhanced = false
	}
	return rc
}

func encodingForFile(fileName string) speechpb.RecognitionConfig_AudioEncoding {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".wav":
		return speechpb.RecognitionConfig_LINEAR16
	case ".mp3", ".m4a":
		return speechpb.RecognitionConfig_MP3
	case ".flac":
		return speechpb.RecognitionConfig_FLAC
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	}
}
