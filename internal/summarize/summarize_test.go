package summarize

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/meetingscribeflow/internal/models"
)

type fakeCompleter struct {
	response string
	err      error

	prompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func testMeta() Metadata {
	return Metadata{
		FileName:          "standup.wav",
		Mode:              models.QualityBalanced,
		ProcessingMinutes: 3.2,
		GeneratedAt:       time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC),
	}
}

func TestMinutesPassesTranscriptAndMetadata(t *testing.T) {
	c := &fakeCompleter{response: "# Meeting Minutes (auto-generated)\n\n## Key Topics\n- roadmap"}
	s := New(c)

	got, err := s.Minutes(context.Background(), "we discussed the roadmap", testMeta())
	require.NoError(t, err)
	assert.Contains(t, got, "## Key Topics")
	assert.NotContains(t, got, SamplingNote)

	require.Len(t, c.prompts, 1)
	assert.Contains(t, c.prompts[0], "we discussed the roadmap")
	assert.Contains(t, c.prompts[0], "standup.wav")
	assert.Contains(t, c.prompts[0], "balanced")
}

func TestMinutesSamplesLongTranscript(t *testing.T) {
	c := &fakeCompleter{response: "minutes"}
	s := NewWithLimit(c, 300)

	transcript := strings.Repeat("a", 400) + strings.Repeat("b", 400) + strings.Repeat("c", 400)
	got, err := s.Minutes(context.Background(), transcript, testMeta())
	require.NoError(t, err)
	assert.Contains(t, got, SamplingNote, "sampled runs must carry the sampling note")

	require.Len(t, c.prompts, 1)
	prompt := c.prompts[0]
	assert.Contains(t, prompt, "[transcript beginning]")
	assert.Contains(t, prompt, "[transcript middle]")
	assert.Contains(t, prompt, "[transcript end]")
	assert.NotContains(t, prompt, strings.Repeat("a", 200), "head sample must be bounded")
}

func TestMinutesSurfacesCompletionFailure(t *testing.T) {
	boom := errors.New("quota exceeded")
	s := New(&fakeCompleter{err: boom})

	_, err := s.Minutes(context.Background(), "short transcript", testMeta())
	assert.ErrorIs(t, err, boom)
}

func TestMinutesRejectsRefusalAndEmpty(t *testing.T) {
	s := New(&fakeCompleter{response: "I cannot fulfill this request."})
	_, err := s.Minutes(context.Background(), "short transcript", testMeta())
	assert.Error(t, err)

	s = New(&fakeCompleter{response: "   \n"})
	_, err = s.Minutes(context.Background(), "short transcript", testMeta())
	assert.Error(t, err)
}

func TestSampleTranscriptBoundaries(t *testing.T) {
	short, sampled := sampleTranscript("short", 300)
	assert.False(t, sampled)
	assert.Equal(t, "short", short)

	transcript := strings.Repeat("x", 1000)
	out, sampled := sampleTranscript(transcript, 300)
	assert.True(t, sampled)
	// Three segments of budget/3 plus markers: well under the original size.
	assert.Less(t, len(out), len(transcript))
}

func TestDegraded(t *testing.T) {
	got := Degraded("raw transcript text")
	assert.True(t, strings.HasPrefix(got, "raw transcript text"))
	assert.Contains(t, got, "minutes generation failed")
}
