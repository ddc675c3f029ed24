// Package chat holds the client-side chat session: the transcript a user
// sees and the calls it makes against the answering and retrieval
// services.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cognitoai/cognito/models"
	"github.com/cognitoai/cognito/services"
)

// requestTimeout bounds every client call so an unresponsive server can
// never hang a session indefinitely.
const requestTimeout = 30 * time.Second

// Client talks to the CognitoAI answer endpoint and the retrieval
// service's upload endpoint on behalf of a chat session.
type Client struct {
	httpClient *http.Client
	baseURL    string
	rag        *services.RAGClient
}

// NewClient creates a chat client. baseURL points at the CognitoAI
// server; ragBaseURL at the retrieval service handling uploads.
func NewClient(baseURL, ragBaseURL string) *Client {
	httpClient := &http.Client{Timeout: requestTimeout}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		rag:        services.NewRAGClient(httpClient, ragBaseURL),
	}
}

// AskQuestion posts a question to /api/ai/answer-questions and returns
// the answer with its mode tag.
func (c *Client) AskQuestion(ctx context.Context, question, userID string) (*models.AnswerQuestionResponse, error) {
	body, err := json.Marshal(models.AnswerQuestionRequest{Question: question, UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal answer request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/ai/answer-questions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create answer request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call answer api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		if errBody.Error != "" {
			return nil, fmt.Errorf("answer api returned status %d: %s", resp.StatusCode, errBody.Error)
		}
		return nil, fmt.Errorf("answer api returned status %d", resp.StatusCode)
	}

	var answer models.AnswerQuestionResponse
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return nil, fmt.Errorf("failed to decode answer response: %w", err)
	}
	return &answer, nil
}

// Upload hands files to the retrieval service for indexing.
func (c *Client) Upload(ctx context.Context, userID string, files []services.UploadFile) (*models.UploadResponse, error) {
	return c.rag.Upload(ctx, userID, files)
}
