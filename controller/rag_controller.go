package controller

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cognitoai/cognito/models"
)

// ReportIngester indexes uploaded report files.
type ReportIngester interface {
	IngestUpload(ctx context.Context, filename string, content []byte, userID string) (int, error)
}

// Retriever is the slice of the retrieval service the HTTP surface needs.
type Retriever interface {
	Query(ctx context.Context, req models.QueryRequest) (*models.QueryResponse, error)
	Ask(ctx context.Context, question string) (string, []models.SourceDocument, error)
	ListDocuments(ctx context.Context) (*models.ListDocumentsResponse, error)
}

// RetrievalController exposes the retrieval service over HTTP. These are
// the routes the answer chain's RAG tier forwards to; they are only
// mounted when the vector store is configured.
type RetrievalController struct {
	retrieval Retriever
	ingester  ReportIngester
}

// NewRetrievalController creates the controller with its dependencies
// injected.
func NewRetrievalController(retrieval Retriever, ingester ReportIngester) *RetrievalController {
	return &RetrievalController{retrieval: retrieval, ingester: ingester}
}

// Upload is the Gin handler for POST /api/upload. It accepts a multipart
// form with one or more report files ("file" or "files") and an optional
// "user_id" field. Error bodies carry both "detail" and "message" because
// the two original clients read different fields.
func (c *RetrievalController) Upload(ctx *gin.Context) {
	form, err := ctx.MultipartForm()
	if err != nil {
		uploadError(ctx, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}

	files := append(form.File["files"], form.File["file"]...)
	if len(files) == 0 {
		uploadError(ctx, http.StatusBadRequest, "No files provided")
		return
	}

	userID := ctx.PostForm("user_id")

	totalChunks := 0
	for _, fileHeader := range files {
		content, err := readFormFile(fileHeader)
		if err != nil {
			uploadError(ctx, http.StatusBadRequest, fmt.Sprintf("Could not read file %s: %v", fileHeader.Filename, err))
			return
		}
		chunks, err := c.ingester.IngestUpload(ctx.Request.Context(), fileHeader.Filename, content, userID)
		if err != nil {
			log.Printf("CONTROLLER: upload of %s failed: %v", fileHeader.Filename, err)
			uploadError(ctx, http.StatusInternalServerError, fmt.Sprintf("Failed to process %s: %v", fileHeader.Filename, err))
			return
		}
		totalChunks += chunks
	}

	ctx.JSON(http.StatusOK, models.UploadResponse{
		Status:  "ok",
		Message: fmt.Sprintf("Successfully processed %d file(s) into %d chunks", len(files), totalChunks),
	})
}

// Query is the Gin handler for POST /api/query.
func (c *RetrievalController) Query(ctx *gin.Context) {
	var req models.QueryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": "Query must not be empty"})
		return
	}

	response, err := c.retrieval.Query(ctx.Request.Context(), req)
	if err != nil {
		log.Printf("CONTROLLER: query failed: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to generate AI response"})
		return
	}

	ctx.JSON(http.StatusOK, response)
}

// Ask is the Gin handler for POST /api/ask, the session-less variant used
// by the floating chat widget.
func (c *RetrievalController) Ask(ctx *gin.Context) {
	var req models.AskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, models.AskResponse{Status: "error", Message: "Invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		ctx.JSON(http.StatusBadRequest, models.AskResponse{Status: "error", Message: "Question must not be empty"})
		return
	}

	answer, _, err := c.retrieval.Ask(ctx.Request.Context(), req.Question)
	if err != nil {
		log.Printf("CONTROLLER: ask failed: %v", err)
		ctx.JSON(http.StatusInternalServerError, models.AskResponse{Status: "error", Message: "Failed to generate AI response"})
		return
	}

	ctx.JSON(http.StatusOK, models.AskResponse{Status: "ok", Answer: answer})
}

// ListDocuments is the Gin handler for GET /api/documents.
func (c *RetrievalController) ListDocuments(ctx *gin.Context) {
	response, err := c.retrieval.ListDocuments(ctx.Request.Context())
	if err != nil {
		log.Printf("CONTROLLER: list documents failed: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to retrieve documents"})
		return
	}

	ctx.JSON(http.StatusOK, response)
}

func uploadError(ctx *gin.Context, status int, msg string) {
	ctx.JSON(status, gin.H{"detail": msg, "message": msg})
}

func readFormFile(fileHeader *multipart.FileHeader) ([]byte, error) {
	f, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
