package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMSService_Send(t *testing.T) {
	t.Parallel()

	t.Run("delivers the message with the api key header", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "secret-key", r.Header.Get("authorization"))
			var req fast2SMSRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "p", req.Route)
			assert.Equal(t, "9999999999", req.Numbers)
			json.NewEncoder(w).Encode(fast2SMSResponse{Return: true, RequestID: "req-1"})
		}))
		defer server.Close()

		svc := NewSMSService(testHTTPClient(), "secret-key")
		svc.endpoint = server.URL

		err := svc.Send(context.Background(), "9999999999", "Your report is ready.")
		assert.NoError(t, err)
	})

	t.Run("a rejected message is an error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"return": false, "message": "invalid number"})
		}))
		defer server.Close()

		svc := NewSMSService(testHTTPClient(), "secret-key")
		svc.endpoint = server.URL

		err := svc.Send(context.Background(), "bad", "hello")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid number")
	})

	t.Run("missing api key is a configuration error", func(t *testing.T) {
		t.Parallel()

		svc := NewSMSService(testHTTPClient(), "")
		assert.False(t, svc.Configured())

		err := svc.Send(context.Background(), "9999999999", "hello")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not configured")
	})
}
