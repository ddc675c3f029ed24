package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"

	"github.com/cognitoai/cognito/config"
	"github.com/cognitoai/cognito/models"
)

const summaryFallbackAnswer = "The AI service is temporarily unavailable. Your report was received but could not be summarized."

const summaryPlaceholderAnswer = "The AI service is not fully configured (missing GEMINI_API_KEY). Your report was received."

// SummaryService produces AI-generated summaries of uploaded reports.
// Like the answer chain, it degrades to a placeholder instead of failing
// the request when the oracle is missing or unavailable.
type SummaryService struct {
	cfg    *config.Config
	oracle Oracle
}

// NewSummaryService creates the summary service.
func NewSummaryService(cfg *config.Config, oracle Oracle) *SummaryService {
	return &SummaryService{cfg: cfg, oracle: oracle}
}

// Summarize parses the report data URI and asks the oracle for a summary.
func (s *SummaryService) Summarize(ctx context.Context, fileDataURI string) (*models.SummarizeResponse, error) {
	mimeType, data, err := ParseDataURI(fileDataURI)
	if err != nil {
		return nil, err
	}

	if s.oracle == nil || !s.cfg.OracleReady() {
		return &models.SummarizeResponse{
			Summary: summaryPlaceholderAnswer,
			Mode:    models.ModePlaceholder,
		}, nil
	}

	summary, err := s.oracle.SummarizeReport(ctx, mimeType, data)
	if err != nil {
		log.Printf("SERVICE: Summarize call failed, degrading to fallback answer: %v", err)
		return &models.SummarizeResponse{
			Summary: summaryFallbackAnswer,
			Mode:    models.ModeErrorFallback,
			Detail:  err.Error(),
		}, nil
	}

	return &models.SummarizeResponse{
		Summary: summary,
		Mode:    models.ModeDirect,
	}, nil
}

// ParseDataURI splits a 'data:<mimetype>;base64,<data>' URI into its MIME
// type and decoded content.
func ParseDataURI(uri string) (string, []byte, error) {
	if !strings.HasPrefix(uri, "data:") {
		return "", nil, fmt.Errorf("%w: not a data URI", ErrValidation)
	}
	rest := strings.TrimPrefix(uri, "data:")

	header, encoded, found := strings.Cut(rest, ",")
	if !found {
		return "", nil, fmt.Errorf("%w: data URI missing content", ErrValidation)
	}

	mimeType, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("%w: data URI must be base64 encoded", ErrValidation)
	}
	if mimeType == "" {
		return "", nil, fmt.Errorf("%w: data URI missing MIME type", ErrValidation)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", nil, fmt.Errorf("%w: data URI content is not valid base64: %v", ErrValidation, err)
	}
	return mimeType, data, nil
}
