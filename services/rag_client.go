package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/cognitoai/cognito/models"
)

// RAGQuerier is the slice of the retrieval service the answer chain needs:
// forward a question and get an answer back.
type RAGQuerier interface {
	Query(ctx context.Context, req models.QueryRequest) (*models.QueryResponse, error)
}

// UploadFile is one file handed to the retrieval service for indexing.
type UploadFile struct {
	Name    string
	Content []byte
}

// RAGClient talks to the external retrieval service over HTTP. The service
// may be a remote deployment or this process's own retrieval routes; the
// client does not care.
type RAGClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewRAGClient creates a client for the retrieval service at baseURL.
func NewRAGClient(httpClient *http.Client, baseURL string) *RAGClient {
	return &RAGClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Query forwards a question to POST /api/query and returns the answer.
func (c *RAGClient) Query(ctx context.Context, req models.QueryRequest) (*models.QueryResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/query", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create query request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call rag query api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rag query api returned status %d: %s", resp.StatusCode, readErrorDetail(resp.Body))
	}

	var queryResp models.QueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&queryResp); err != nil {
		return nil, fmt.Errorf("failed to decode rag query response: %w", err)
	}
	return &queryResp, nil
}

// Ask forwards a question to POST /api/ask, the session-less endpoint used
// by the floating chat widget.
func (c *RAGClient) Ask(ctx context.Context, question string) (*models.AskResponse, error) {
	body, err := json.Marshal(models.AskRequest{Question: question})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ask request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/ask", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create ask request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call rag ask api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rag ask api returned status %d: %s", resp.StatusCode, readErrorDetail(resp.Body))
	}

	var askResp models.AskResponse
	if err := json.NewDecoder(resp.Body).Decode(&askResp); err != nil {
		return nil, fmt.Errorf("failed to decode rag ask response: %w", err)
	}
	return &askResp, nil
}

// Upload sends files to POST /api/upload as a multipart form. A non-"ok"
// status in the response body counts as a failed upload.
func (c *RAGClient) Upload(ctx context.Context, userID string, files []UploadFile) (*models.UploadResponse, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files to upload", ErrValidation)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := writer.CreateFormFile("files", f.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to create form file %s: %w", f.Name, err)
		}
		if _, err := part.Write(f.Content); err != nil {
			return nil, fmt.Errorf("failed to write form file %s: %w", f.Name, err)
		}
	}
	if userID != "" {
		if err := writer.WriteField("user_id", userID); err != nil {
			return nil, fmt.Errorf("failed to write user_id field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call rag upload api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rag upload api returned status %d: %s", resp.StatusCode, readErrorDetail(resp.Body))
	}

	var uploadResp models.UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&uploadResp); err != nil {
		return nil, fmt.Errorf("failed to decode rag upload response: %w", err)
	}
	if uploadResp.Status != "ok" {
		return nil, fmt.Errorf("rag upload rejected: %s", uploadResp.Message)
	}
	return &uploadResp, nil
}

// readErrorDetail pulls a human-readable message out of an error response
// body, trying the {detail} and {message} shapes before falling back to
// the raw body.
func readErrorDetail(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(raw) == 0 {
		return "no error detail"
	}
	var payload struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		switch {
		case payload.Detail != "":
			return payload.Detail
		case payload.Message != "":
			return payload.Message
		case payload.Error != "":
			return payload.Error
		}
	}
	return string(raw)
}
