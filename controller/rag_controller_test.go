package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognitoai/cognito/models"
)

type fakeIngester struct {
	chunks   int
	err      error
	files    []string
	userIDs  []string
	contents [][]byte
}

func (f *fakeIngester) IngestUpload(_ context.Context, filename string, content []byte, userID string) (int, error) {
	f.files = append(f.files, filename)
	f.userIDs = append(f.userIDs, userID)
	f.contents = append(f.contents, content)
	return f.chunks, f.err
}

type fakeRetriever struct {
	queryResp *models.QueryResponse
	queryErr  error
	askAnswer string
	askErr    error
	docs      *models.ListDocumentsResponse
	lastQuery models.QueryRequest
}

func (f *fakeRetriever) Query(_ context.Context, req models.QueryRequest) (*models.QueryResponse, error) {
	f.lastQuery = req
	return f.queryResp, f.queryErr
}

func (f *fakeRetriever) Ask(_ context.Context, _ string) (string, []models.SourceDocument, error) {
	return f.askAnswer, nil, f.askErr
}

func (f *fakeRetriever) ListDocuments(_ context.Context) (*models.ListDocumentsResponse, error) {
	return f.docs, nil
}

func newRetrievalRouter(retriever *fakeRetriever, ingester *fakeIngester) *gin.Engine {
	gin.SetMode(gin.TestMode)
	c := NewRetrievalController(retriever, ingester)
	router := gin.New()
	router.POST("/api/upload", c.Upload)
	router.POST("/api/query", c.Query)
	router.POST("/api/ask", c.Ask)
	router.GET("/api/documents", c.ListDocuments)
	return router
}

func multipartUpload(t *testing.T, userID string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, content := range files {
		part, err := writer.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	if userID != "" {
		require.NoError(t, writer.WriteField("user_id", userID))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestUpload_Handler(t *testing.T) {
	t.Run("ingests every file and reports chunk totals", func(t *testing.T) {
		ingester := &fakeIngester{chunks: 3}
		router := newRetrievalRouter(&fakeRetriever{}, ingester)

		body, contentType := multipartUpload(t, "u1", map[string]string{
			"a.txt": "cholesterol fine",
			"b.txt": "glucose fine",
		})
		req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp models.UploadResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "ok", resp.Status)
		assert.Contains(t, resp.Message, "2 file(s)")
		assert.Contains(t, resp.Message, "6 chunks")
		assert.ElementsMatch(t, []string{"a.txt", "b.txt"}, ingester.files)
		assert.Equal(t, []string{"u1", "u1"}, ingester.userIDs)
	})

	t.Run("no files is a 400 with detail and message", func(t *testing.T) {
		router := newRetrievalRouter(&fakeRetriever{}, &fakeIngester{})

		body, contentType := multipartUpload(t, "u1", nil)
		req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
		var resp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "No files provided", resp["detail"])
		assert.Equal(t, "No files provided", resp["message"])
	})

	t.Run("ingestion failure is a 500", func(t *testing.T) {
		ingester := &fakeIngester{err: errors.New("unsupported file type")}
		router := newRetrievalRouter(&fakeRetriever{}, ingester)

		body, contentType := multipartUpload(t, "", map[string]string{"a.bin": "x"})
		req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "a.bin")
	})
}

func TestQuery_Handler(t *testing.T) {
	t.Run("forwards the request and returns the answer", func(t *testing.T) {
		retriever := &fakeRetriever{queryResp: &models.QueryResponse{
			Answer:    "Your cholesterol is within range.",
			SessionID: "u1",
		}}
		router := newRetrievalRouter(retriever, &fakeIngester{})

		w := postJSON(t, router, "/api/query", models.QueryRequest{Query: "cholesterol?", UserID: "u1"})

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "within range")
		assert.Equal(t, "cholesterol?", retriever.lastQuery.Query)
		assert.Equal(t, "u1", retriever.lastQuery.UserID)
	})

	t.Run("empty query is a 400", func(t *testing.T) {
		router := newRetrievalRouter(&fakeRetriever{}, &fakeIngester{})

		w := postJSON(t, router, "/api/query", models.QueryRequest{Query: "   "})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("retrieval failure is a 500 with a stable detail", func(t *testing.T) {
		retriever := &fakeRetriever{queryErr: errors.New("chroma unreachable")}
		router := newRetrievalRouter(retriever, &fakeIngester{})

		w := postJSON(t, router, "/api/query", models.QueryRequest{Query: "q"})
		require.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "Failed to generate AI response")
	})
}

func TestAsk_Handler(t *testing.T) {
	t.Run("answers without a session", func(t *testing.T) {
		router := newRetrievalRouter(&fakeRetriever{askAnswer: "Normal."}, &fakeIngester{})

		w := postJSON(t, router, "/api/ask", models.AskRequest{Question: "Is my panel normal?"})

		require.Equal(t, http.StatusOK, w.Code)
		var resp models.AskResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, "Normal.", resp.Answer)
	})

	t.Run("empty question is a 400", func(t *testing.T) {
		router := newRetrievalRouter(&fakeRetriever{}, &fakeIngester{})

		w := postJSON(t, router, "/api/ask", models.AskRequest{Question: ""})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListDocuments_Handler(t *testing.T) {
	retriever := &fakeRetriever{docs: &models.ListDocumentsResponse{
		Count: 1,
		Chunks: []models.IndexedChunk{{
			ID:       "c1",
			Text:     "cholesterol fine",
			Metadata: map[string]interface{}{"source_file": "a.txt"},
		}},
	}}
	router := newRetrievalRouter(retriever, &fakeIngester{})

	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.ListDocumentsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Chunks, 1)
	assert.Equal(t, "a.txt", resp.Chunks[0].Metadata["source_file"])
}
