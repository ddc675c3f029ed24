package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const fast2SMSEndpoint = "https://www.fast2sms.com/dev/bulkV2"

// SMSService sends notification texts through the Fast2SMS bulk API.
type SMSService struct {
	httpClient *http.Client
	apiKey     string
	endpoint   string
}

// NewSMSService creates the SMS client. An empty API key is allowed; Send
// reports it as a configuration error.
func NewSMSService(httpClient *http.Client, apiKey string) *SMSService {
	return &SMSService{httpClient: httpClient, apiKey: apiKey, endpoint: fast2SMSEndpoint}
}

// Configured reports whether an API key is present.
func (s *SMSService) Configured() bool { return s.apiKey != "" }

type fast2SMSRequest struct {
	Route   string `json:"route"`
	Message string `json:"message"`
	Numbers string `json:"numbers"`
}

type fast2SMSResponse struct {
	Return    bool   `json:"return"`
	RequestID string `json:"request_id"`
	Message   any    `json:"message"`
}

// Send delivers one message to one phone number over the promotional
// route.
func (s *SMSService) Send(ctx context.Context, phone, message string) error {
	if !s.Configured() {
		return fmt.Errorf("sms api key is not configured")
	}

	reqBody, err := json.Marshal(fast2SMSRequest{
		Route:   "p",
		Message: message,
		Numbers: phone,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal sms request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create sms request: %w", err)
	}
	httpReq.Header.Set("authorization", s.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to call fast2sms api: %w", err)
	}
	defer resp.Body.Close()

	var smsResp fast2SMSResponse
	if err := json.NewDecoder(resp.Body).Decode(&smsResp); err != nil {
		return fmt.Errorf("failed to decode fast2sms response: %w", err)
	}

	if !smsResp.Return || smsResp.RequestID == "" {
		if msg, ok := smsResp.Message.(string); ok && msg != "" {
			return fmt.Errorf("fast2sms rejected the message: %s", msg)
		}
		return fmt.Errorf("fast2sms rejected the message")
	}
	return nil
}
