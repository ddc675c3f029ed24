package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cognitoai/cognito/config"
	"github.com/cognitoai/cognito/models"
)

// Placeholder answers returned when a tier cannot produce a real answer.
// Failures degrade to a lesser-quality answer rather than failing the
// request outright.
const (
	placeholderAnswer   = "The AI service is not fully configured (missing GEMINI_API_KEY). Your question was received."
	errorFallbackAnswer = "The AI service is temporarily unavailable. Your question was received."
)

// Strategy is one answering path. Available is a pure predicate over the
// configuration; Execute produces the answer for a valid request.
type Strategy interface {
	Name() string
	Available(cfg *config.Config) bool
	Execute(ctx context.Context, req models.AnswerQuestionRequest) (*models.AnswerQuestionResponse, error)
}

// AnswerService runs the ordered strategy chain for incoming questions.
// It is stateless per request; readiness is re-evaluated on every call.
type AnswerService struct {
	cfg        *config.Config
	strategies []Strategy
}

// NewAnswerService assembles the chain in priority order: full retrieval,
// direct oracle, static placeholder. The placeholder tier is always
// available, so the chain always answers.
func NewAnswerService(cfg *config.Config, rag RAGQuerier, oracle Oracle) *AnswerService {
	return &AnswerService{
		cfg: cfg,
		strategies: []Strategy{
			&ragStrategy{rag: rag},
			&directStrategy{oracle: oracle},
			&placeholderStrategy{},
		},
	}
}

// Answer validates the request and executes the first available strategy.
// Validation failures are the only errors surfaced before tier selection;
// strategy-internal transport failures never escape the chain.
func (s *AnswerService) Answer(ctx context.Context, req models.AnswerQuestionRequest) (*models.AnswerQuestionResponse, error) {
	if strings.TrimSpace(req.Question) == "" || strings.TrimSpace(req.UserID) == "" {
		return nil, fmt.Errorf("%w: missing required fields: question, userId", ErrValidation)
	}

	for _, strat := range s.strategies {
		if !strat.Available(s.cfg) {
			continue
		}
		log.Printf("SERVICE: Answering question for user '%s' via '%s' strategy", req.UserID, strat.Name())
		return strat.Execute(ctx, req)
	}

	// Unreachable: the placeholder strategy is always available.
	return nil, fmt.Errorf("no answering strategy available")
}

// ragStrategy forwards the question unmodified to the external retrieval
// service. Its internal chunking, embedding and ranking are not this
// strategy's concern.
type ragStrategy struct {
	rag RAGQuerier
}

func (s *ragStrategy) Name() string { return models.ModeRAG }

func (s *ragStrategy) Available(cfg *config.Config) bool {
	return s.rag != nil && cfg.RAGReady()
}

func (s *ragStrategy) Execute(ctx context.Context, req models.AnswerQuestionRequest) (*models.AnswerQuestionResponse, error) {
	resp, err := s.rag.Query(ctx, models.QueryRequest{
		Query:  req.Question,
		UserID: req.UserID,
	})
	if err != nil {
		log.Printf("SERVICE: RAG query failed, degrading to fallback answer: %v", err)
		return &models.AnswerQuestionResponse{
			Answer: errorFallbackAnswer,
			Mode:   models.ModeErrorFallback,
			Detail: err.Error(),
		}, nil
	}
	return &models.AnswerQuestionResponse{
		Answer: resp.Answer,
		Mode:   models.ModeRAG,
	}, nil
}

// directStrategy renders a minimal question-only prompt and asks the
// oracle without retrieval. Oracle failures are converted to a non-fatal
// fallback answer; this strategy never returns an error for a transport
// failure.
type directStrategy struct {
	oracle Oracle
}

func (s *directStrategy) Name() string { return models.ModeDirect }

func (s *directStrategy) Available(cfg *config.Config) bool {
	return s.oracle != nil && cfg.OracleReady()
}

func (s *directStrategy) Execute(ctx context.Context, req models.AnswerQuestionRequest) (*models.AnswerQuestionResponse, error) {
	prompt, err := RenderDirectPrompt(req.Question)
	if err != nil {
		return nil, err
	}

	answer, err := s.oracle.GenerateText(ctx, prompt)
	if err != nil {
		log.Printf("SERVICE: Direct oracle call failed, degrading to fallback answer: %v", err)
		return &models.AnswerQuestionResponse{
			Answer: errorFallbackAnswer,
			Mode:   models.ModeErrorFallback,
			Detail: err.Error(),
		}, nil
	}
	return &models.AnswerQuestionResponse{
		Answer: answer,
		Mode:   models.ModeDirect,
	}, nil
}

// placeholderStrategy is the terminal tier: a static answer, no network.
type placeholderStrategy struct{}

func (s *placeholderStrategy) Name() string { return models.ModePlaceholder }

func (s *placeholderStrategy) Available(*config.Config) bool { return true }

func (s *placeholderStrategy) Execute(context.Context, models.AnswerQuestionRequest) (*models.AnswerQuestionResponse, error) {
	return &models.AnswerQuestionResponse{
		Answer: placeholderAnswer,
		Mode:   models.ModePlaceholder,
	}, nil
}
