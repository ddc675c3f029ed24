package controller

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cognitoai/cognito/models"
	"github.com/cognitoai/cognito/services"
)

// AnswerProvider is the slice of the answer service this controller needs.
type AnswerProvider interface {
	Answer(ctx context.Context, req models.AnswerQuestionRequest) (*models.AnswerQuestionResponse, error)
}

// Summarizer produces report summaries.
type Summarizer interface {
	Summarize(ctx context.Context, fileDataURI string) (*models.SummarizeResponse, error)
}

// SMSSender delivers notification texts.
type SMSSender interface {
	Configured() bool
	Send(ctx context.Context, phone, message string) error
}

// AIController handles the HTTP requests of the AI surface: question
// answering, report summaries, and SMS notifications.
type AIController struct {
	answers   AnswerProvider
	summaries Summarizer
	sms       SMSSender
}

// NewAIController creates a new AIController with its service
// dependencies injected.
func NewAIController(answers AnswerProvider, summaries Summarizer, sms SMSSender) *AIController {
	return &AIController{answers: answers, summaries: summaries, sms: sms}
}

// AnswerQuestions is the Gin handler for POST /api/ai/answer-questions.
// Every configured-tier outcome is a 200; only invalid input (400) and
// unexpected internal errors (500) are transport failures.
func (c *AIController) AnswerQuestions(ctx *gin.Context) {
	var req models.AnswerQuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	response, err := c.answers.Answer(ctx.Request.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields: question, userId"})
			return
		}
		// Unexpected internal error; log the details, return a generic
		// message that leaks nothing.
		log.Printf("CONTROLLER: answer-questions failed: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	ctx.JSON(http.StatusOK, response)
}

// Summarize is the Gin handler for POST /api/ai/summarize.
func (c *AIController) Summarize(ctx *gin.Context) {
	var req models.SummarizeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if req.FileDataURI == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Missing required field: fileDataUri"})
		return
	}

	response, err := c.summaries.Summarize(ctx.Request.Context(), req.FileDataURI)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("CONTROLLER: summarize failed: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	ctx.JSON(http.StatusOK, response)
}

// SendSMS is the Gin handler for POST /api/send-sms.
func (c *AIController) SendSMS(ctx *gin.Context) {
	if !c.sms.Configured() {
		ctx.JSON(http.StatusInternalServerError, models.SendSMSResponse{
			Success: false,
			Message: "SMS API key is not configured.",
		})
		return
	}

	var req models.SendSMSRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.Phone == "" || req.Message == "" {
		ctx.JSON(http.StatusBadRequest, models.SendSMSResponse{
			Success: false,
			Message: "Phone number and message are required.",
		})
		return
	}

	if err := c.sms.Send(ctx.Request.Context(), req.Phone, req.Message); err != nil {
		log.Printf("CONTROLLER: send-sms failed: %v", err)
		ctx.JSON(http.StatusBadGateway, models.SendSMSResponse{
			Success: false,
			Message: "Failed to send SMS.",
		})
		return
	}

	ctx.JSON(http.StatusOK, models.SendSMSResponse{
		Success: true,
		Message: "SMS sent successfully.",
	})
}
