package services

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/cognitoai/cognito/config"
	"github.com/cognitoai/cognito/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDataURI(t *testing.T) {
	t.Parallel()

	t.Run("decodes a valid data URI", func(t *testing.T) {
		t.Parallel()

		content := []byte("report body")
		uri := "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(content)

		mimeType, data, err := ParseDataURI(uri)
		require.NoError(t, err)
		assert.Equal(t, "application/pdf", mimeType)
		assert.Equal(t, content, data)
	})

	tests := []struct {
		name string
		uri  string
	}{
		{"not a data URI", "https://example.com/report.pdf"},
		{"missing content", "data:application/pdf;base64"},
		{"not base64 encoded", "data:application/pdf,plain-content"},
		{"missing mime type", "data:;base64,aGVsbG8="},
		{"invalid base64", "data:application/pdf;base64,!!!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := ParseDataURI(tt.uri)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestSummaryService(t *testing.T) {
	t.Parallel()

	validURI := "data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte("cholesterol 180"))

	t.Run("returns the oracle summary", func(t *testing.T) {
		t.Parallel()

		oracle := &fakeOracle{answer: "All values in normal range."}
		svc := NewSummaryService(oracleOnlyConfig(), oracle)

		resp, err := svc.Summarize(context.Background(), validURI)
		require.NoError(t, err)
		assert.Equal(t, "All values in normal range.", resp.Summary)
		assert.Equal(t, models.ModeDirect, resp.Mode)
	})

	t.Run("degrades to error-fallback on oracle failure", func(t *testing.T) {
		t.Parallel()

		oracle := &fakeOracle{err: errors.New("quota exceeded")}
		svc := NewSummaryService(oracleOnlyConfig(), oracle)

		resp, err := svc.Summarize(context.Background(), validURI)
		require.NoError(t, err)
		assert.Equal(t, models.ModeErrorFallback, resp.Mode)
		assert.NotEmpty(t, resp.Summary)
		assert.Contains(t, resp.Detail, "quota exceeded")
	})

	t.Run("placeholder when the oracle is not configured", func(t *testing.T) {
		t.Parallel()

		svc := NewSummaryService(&config.Config{}, nil)

		resp, err := svc.Summarize(context.Background(), validURI)
		require.NoError(t, err)
		assert.Equal(t, models.ModePlaceholder, resp.Mode)
	})

	t.Run("rejects a malformed data URI", func(t *testing.T) {
		t.Parallel()

		svc := NewSummaryService(oracleOnlyConfig(), &fakeOracle{})
		_, err := svc.Summarize(context.Background(), "not-a-data-uri")
		assert.ErrorIs(t, err, ErrValidation)
	})
}
