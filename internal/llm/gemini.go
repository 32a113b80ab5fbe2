package llm

import (
	"context"
	"fmt"
	"strings"

	"ai-trip-planner/internal/shared"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash-lite"

// GeminiClient is a client for the Google Gemini API.
type GeminiClient struct {
	client    *genai.Client
	modelName string
	plain     *genai.GenerativeModel
	withCode  *genai.GenerativeModel
}

// NewGeminiClient creates a new Gemini API client. Both model handles are
// configured once so concurrent runs never mutate shared state.
func NewGeminiClient(ctx context.Context, apiKey, modelName string, temperature float32) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}

	plain := client.GenerativeModel(modelName)
	plain.SetTemperature(temperature)

	withCode := client.GenerativeModel(modelName)
	withCode.SetTemperature(temperature)
	withCode.Tools = []*genai.Tool{{CodeExecution: &genai.CodeExecution{}}}

	return &GeminiClient{
		client:    client,
		modelName: modelName,
		plain:     plain,
		withCode:  withCode,
	}, nil
}

// SupportsTool reports code execution only. Search grounding is not exposed
// by this SDK.
func (c *GeminiClient) SupportsTool(t Tool) bool {
	return t == ToolCodeExecution
}

// GenerateContent sends a prompt to the Gemini model and returns the generated text.
// ToolGoogleSearch is ignored.
func (c *GeminiClient) GenerateContent(ctx context.Context, prompt string, tools ...Tool) (ContentResponse, error) {
	model := c.plain
	for _, t := range tools {
		if t == ToolCodeExecution {
			model = c.withCode
		}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return ContentResponse{}, fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ContentResponse{}, ErrNoContent
	}

	// Code execution interleaves code and results with text; keep only text parts.
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return ContentResponse{}, ErrNoContent
	}

	usage := shared.TokenUsage{Model: c.modelName}
	if resp.UsageMetadata != nil {
		usage.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		usage.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	return ContentResponse{Content: sb.String(), Usage: usage}, nil
}

// Close closes the underlying Gemini client.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}
