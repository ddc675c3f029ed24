package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cognitoai/cognito/config"
	"github.com/cognitoai/cognito/models"

	"google.golang.org/genai"
)

// Oracle is the external generative-text model invoked with a prompt and
// returning free text. Structured calls enforce an output schema before
// the answer is returned.
type Oracle interface {
	// GenerateText sends a plain prompt and returns the model's free text.
	GenerateText(ctx context.Context, prompt string) (string, error)

	// AnswerAboutReport asks a question grounded on evidence and returns
	// the validated answer field of the structured response.
	AnswerAboutReport(ctx context.Context, question string, evidence models.EvidenceSource) (string, error)

	// SummarizeReport produces a summary of a single report document.
	SummarizeReport(ctx context.Context, mimeType string, data []byte) (string, error)
}

// GeminiOracle implements Oracle on top of the Gemini API.
type GeminiOracle struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// oracleTimeout bounds every oracle call. One call, no automatic retry.
const oracleTimeout = 30 * time.Second

// NewGeminiOracle creates the Gemini-backed oracle. The API key comes from
// the injected config, never from a source literal.
func NewGeminiOracle(ctx context.Context, cfg *config.Config) (*GeminiOracle, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	log.Println("Successfully connected to Google Gemini.")
	return &GeminiOracle{client: client, model: cfg.GeminiModel, timeout: oracleTimeout}, nil
}

// Client exposes the underlying genai client for services that manage
// their own chat sessions.
func (o *GeminiOracle) Client() *genai.Client {
	return o.client
}

// answerSchema is the output schema enforced on structured answer calls.
func answerSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"answer": {Type: genai.TypeString, Description: "The answer to the question about the report."},
		},
		Required: []string{"answer"},
	}
}

func summarySchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"summary": {Type: genai.TypeString, Description: "A plain-language summary of the report."},
		},
		Required: []string{"summary"},
	}
}

// GenerateText implements Oracle.
func (o *GeminiOracle) GenerateText(ctx context.Context, prompt string) (string, error) {
	return o.generate(ctx, []*genai.Part{{Text: prompt}}, nil)
}

// AnswerAboutReport implements Oracle. The oracle response must conform to
// the {answer: string} shape; anything else fails the request.
func (o *GeminiOracle) AnswerAboutReport(ctx context.Context, question string, evidence models.EvidenceSource) (string, error) {
	parts, err := RenderReportPrompt(question, evidence)
	if err != nil {
		return "", err
	}
	raw, err := o.generate(ctx, parts, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   answerSchema(),
	})
	if err != nil {
		return "", err
	}
	return decodeStringField(raw, "answer")
}

// SummarizeReport implements Oracle.
func (o *GeminiOracle) SummarizeReport(ctx context.Context, mimeType string, data []byte) (string, error) {
	parts := []*genai.Part{
		{Text: "You are an AI assistant that summarizes user-uploaded health reports in plain language. Summarize the following report."},
		{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
	}
	raw, err := o.generate(ctx, parts, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   summarySchema(),
	})
	if err != nil {
		return "", err
	}
	return decodeStringField(raw, "summary")
}

// generate performs a single bounded call against the Gemini API and
// collects the text parts of the first candidate.
func (o *GeminiOracle) generate(ctx context.Context, parts []*genai.Part, cfg *genai.GenerateContentConfig) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	contents := []*genai.Content{{Role: genai.RoleUser, Parts: parts}}
	result, err := o.client.Models.GenerateContent(ctx, o.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini api call failed: %w", err)
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: gemini returned no candidates", ErrSchemaValidation)
	}

	var sb strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		if p.Text != "" {
			sb.WriteString(p.Text)
		}
	}
	return sb.String(), nil
}

// decodeStringField parses a structured oracle response and extracts the
// named string field, failing with ErrSchemaValidation when the field is
// missing or empty.
func decodeStringField(raw, field string) (string, error) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return "", fmt.Errorf("%w: response is not valid JSON: %v", ErrSchemaValidation, err)
	}
	value, ok := payload[field].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("%w: response missing %q field", ErrSchemaValidation, field)
	}
	return value, nil
}
