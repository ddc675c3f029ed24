package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/cognitoai/cognito/config"
	"github.com/cognitoai/cognito/controller"
	"github.com/cognitoai/cognito/services"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	httpClient := &http.Client{
		Timeout: 30 * time.Second,
	}

	// The oracle is optional: without a Gemini key the answer chain
	// degrades to its placeholder tier.
	var oracle services.Oracle
	var gemini *services.GeminiOracle
	if cfg.OracleReady() {
		var err error
		gemini, err = services.NewGeminiOracle(ctx, cfg)
		if err != nil {
			log.Fatalf("FATAL: Failed to create Gemini client: %v", err)
		}
		oracle = gemini
	} else {
		log.Println("GEMINI_API_KEY not set; direct answering disabled.")
	}

	ragClient := services.NewRAGClient(httpClient, cfg.RAGBaseURL)
	answerService := services.NewAnswerService(cfg, ragClient, oracle)
	summaryService := services.NewSummaryService(cfg, oracle)
	smsService := services.NewSMSService(httpClient, cfg.FastSMSAPIKey)
	aiController := controller.NewAIController(answerService, summaryService, smsService)

	router := gin.Default()

	// CORS middleware so the web UI can call the API from another origin.
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "CognitoAI API",
			"version": "1.0.0",
		})
	})

	api := router.Group("/api")
	{
		api.POST("/ai/answer-questions", aiController.AnswerQuestions)
		api.POST("/ai/summarize", aiController.Summarize)
		api.POST("/send-sms", aiController.SendSMS)
	}

	// The retrieval routes are only mounted when the full retrieval stack
	// is configured; the answer chain reaches them over RAG_BASE_URL.
	if cfg.RAGReady() && gemini != nil {
		if err := setupRetrieval(ctx, cfg, httpClient, gemini, api); err != nil {
			log.Fatalf("FATAL: Failed to set up retrieval service: %v", err)
		}
	} else {
		log.Println("Retrieval stack not fully configured; /api/upload and /api/query not mounted.")
	}

	log.Printf("CognitoAI backend server starting on http://localhost:%s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("FATAL: Failed to start server: %v", err)
	}
}

// setupRetrieval wires the vector store, indexing pipeline, and retrieval
// routes onto the router group.
func setupRetrieval(ctx context.Context, cfg *config.Config, httpClient *http.Client, gemini *services.GeminiOracle, api *gin.RouterGroup) error {
	if cfg.UnidocLicenseKey != "" {
		if err := services.SetupUnidocLicense(cfg.UnidocLicenseKey); err != nil {
			log.Printf("WARN: %v. PDF processing will fail.", err)
		}
	} else {
		log.Println("UNIDOC_LICENSE_KEY not set; PDF processing will fail.")
	}

	chromaClient, err := chromago.NewHTTPClient(chromago.WithBaseURL(cfg.ChromaURL))
	if err != nil {
		return err
	}

	collection, err := getOrCreateCollection(ctx, chromaClient, "cognito-reports")
	if err != nil {
		return err
	}

	uploadStore, err := services.NewUploadStore(cfg.UploadsDir)
	if err != nil {
		return err
	}

	retrievalService := services.NewRetrievalService(httpClient, collection, gemini.Client(), cfg)
	indexer := services.NewReportIndexingService(collection, retrievalService, uploadStore)
	retrievalController := controller.NewRetrievalController(retrievalService, indexer)

	api.POST("/upload", retrievalController.Upload)
	api.POST("/query", retrievalController.Query)
	api.POST("/ask", retrievalController.Ask)
	api.GET("/documents", retrievalController.ListDocuments)

	if cfg.ReportsWatchDir != "" {
		go func() {
			indexer.ScanAndIndexDirectory(ctx, cfg.ReportsWatchDir)
			indexer.WatchDirectory(ctx, cfg.ReportsWatchDir)
		}()
	}

	return nil
}

// getOrCreateCollection fetches the report collection, creating it on
// first run.
func getOrCreateCollection(ctx context.Context, client chromago.Client, collectionName string) (chromago.Collection, error) {
	log.Printf("Getting or creating collection '%s'...", collectionName)

	collection, err := client.GetOrCreateCollection(
		ctx,
		collectionName,
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute("description", "Indexed health-report chunks"),
				chromago.NewStringAttribute("created_by", "cognito_server"),
			),
		),
	)
	if err != nil {
		return nil, err
	}

	log.Printf("Successfully got/created collection '%s'", collectionName)
	return collection, nil
}
