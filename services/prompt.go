package services

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/cognitoai/cognito/models"

	"google.golang.org/genai"
)

const reportPromptHeader = `You are an AI assistant that answers questions about user-uploaded health reports. Answer only the question below, using the report content provided.`

const directPromptHeader = `You are a helpful assistant. Provide a concise, helpful answer.`

// RenderReportPrompt builds the oracle input for a question grounded on
// evidence. Blob evidence becomes an inline media part; text evidence is
// embedded verbatim as an itemized list. The evidence is never truncated.
func RenderReportPrompt(question string, evidence models.EvidenceSource) ([]*genai.Part, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: question must not be empty", ErrValidation)
	}
	if evidence.IsZero() {
		return nil, fmt.Errorf("%w: evidence must not be empty", ErrValidation)
	}

	if evidence.Blob != nil {
		data, err := base64.StdEncoding.DecodeString(evidence.Blob.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: evidence blob is not valid base64: %v", ErrValidation, err)
		}
		return []*genai.Part{
			{Text: reportPromptHeader + "\n\nReport:"},
			{InlineData: &genai.Blob{MIMEType: evidence.Blob.MIMEType, Data: data}},
			{Text: fmt.Sprintf("Question: %s", question)},
		}, nil
	}

	var sb strings.Builder
	sb.WriteString(reportPromptHeader)
	sb.WriteString("\n\nReports:\n")
	for i, text := range evidence.Texts {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, text))
	}
	sb.WriteString(fmt.Sprintf("\nQuestion: %s", question))
	return []*genai.Part{{Text: sb.String()}}, nil
}

// RenderDirectPrompt builds the minimal question-only prompt used when the
// retrieval stack is not available.
func RenderDirectPrompt(question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("%w: question must not be empty", ErrValidation)
	}
	return fmt.Sprintf("%s\n\nQuestion:\n%s", directPromptHeader, question), nil
}
