package gcp

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
)

// --- Minutes Model Prompts ---
const MinutesSystemPrompt = "You are an expert minute-taker. Your task is to turn a raw meeting transcript into practical, well-structured meeting minutes in markdown. Accuracy matters more than polish: never invent decisions or action items that are not supported by the transcript."

const MinutesUserPromptTemplate = `Create practical meeting minutes from the following meeting transcript.

Transcript:
%s

Context:
- Source file: %s
- Generated at: %s
- Processing mode: %s
- Processing time: %.1f minutes

Produce the minutes in this structure:

# Meeting Minutes (auto-generated)

## Key Topics
[the main topics discussed]

## Decisions
[decisions that were made]

## Discussion
[the substance of the discussion]

## Action Items
[concrete tasks, owners and deadlines where stated]

## Notable Quotes
[especially important statements]

## Open Items
[items carried over to a future meeting]

Return ONLY the final markdown. Do not include any preamble like "Here are the minutes" and do not wrap the output in backtick fences.`

// VertexClient holds the pre-configured generative model for minutes
// generation.
type VertexClient struct {
	MinutesModel *genai.GenerativeModel
	baseClient   *genai.Client
}

// NewVertexClient creates a client holding the configured minutes model.
func NewVertexClient(ctx context.Context, projectID, region string) (*VertexClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	minutesModel := baseClient.GenerativeModel("gemini-1.5-pro")
	minutesModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(MinutesSystemPrompt)},
	}
	minutesModel.GenerationConfig = genai.GenerationConfig{
		// Low temperature keeps the minutes close to the transcript.
		Temperature: genai.Ptr[float32](0.3),
	}

	return &VertexClient{
		MinutesModel: minutesModel,
		baseClient:   baseClient,
	}, nil
}

// Complete sends the prompt to the minutes model and returns the extracted
// text response.
func (c *VertexClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.MinutesModel.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content from gemini: %w", err)
	}
	return extractText(resp), nil
}

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}

// extractText robustly parses the model's response and concatenates its text
// parts, stripping any markdown fences.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}

	contentStr := strings.TrimSpace(sb.String())
	contentStr = strings.TrimPrefix(contentStr, "```markdown")
	contentStr = strings.TrimPrefix(contentStr, "```")
	contentStr = strings.TrimSuffix(contentStr, "```")
	return strings.TrimSpace(contentStr)
}
