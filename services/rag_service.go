package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/cognitoai/cognito/config"
	"github.com/cognitoai/cognito/models"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	"github.com/google/uuid"
	"google.golang.org/genai"
)

// defaultTopK is the number of chunks retrieved per question when the
// caller does not specify one.
const defaultTopK = 5

// RetrievalService answers questions over the indexed report collection.
// This is the in-process implementation of the retrieval collaborator the
// answer chain forwards to over HTTP.
type RetrievalService interface {
	Query(ctx context.Context, req models.QueryRequest) (*models.QueryResponse, error)
	Ask(ctx context.Context, question string) (string, []models.SourceDocument, error)
	ListDocuments(ctx context.Context) (*models.ListDocumentsResponse, error)
	EmbedText(ctx context.Context, text string) ([]float32, error)
	CountChunks(ctx context.Context) (int, error)
}

// retrievalServiceImpl holds the dependencies it needs to do its job.
type retrievalServiceImpl struct {
	httpClient   *http.Client
	collection   chromago.Collection
	geminiClient *genai.Client
	cfg          *config.Config
	chatSessions map[string]*genai.Chat
	mu           sync.Mutex
}

// NewRetrievalService creates the retrieval service instance.
func NewRetrievalService(client *http.Client, collection chromago.Collection, geminiClient *genai.Client, cfg *config.Config) RetrievalService {
	return &retrievalServiceImpl{
		httpClient:   client,
		collection:   collection,
		geminiClient: geminiClient,
		cfg:          cfg,
		chatSessions: make(map[string]*genai.Chat),
	}
}

// CountChunks counts all the document chunks in the collection.
func (r *retrievalServiceImpl) CountChunks(ctx context.Context) (int, error) {
	count, err := r.collection.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count items in collection: %w", err)
	}
	return int(count), nil
}

// ListDocuments retrieves every indexed chunk from the collection.
func (r *retrievalServiceImpl) ListDocuments(ctx context.Context) (*models.ListDocumentsResponse, error) {
	log.Printf("SERVICE: Listing indexed report chunks...")

	results, err := r.collection.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get documents from chromadb: %w", err)
	}

	ids := results.GetIDs()
	documents := results.GetDocuments()
	metadatas := results.GetMetadatas()

	if len(ids) == 0 {
		return &models.ListDocumentsResponse{Count: 0, Chunks: []models.IndexedChunk{}}, nil
	}

	chunks := make([]models.IndexedChunk, 0, len(documents))
	for i := range documents {
		var metadataMap map[string]interface{}
		if len(metadatas) > i && metadatas[i] != nil {
			metadataMap = metadataToMap(metadatas[i])
		}
		chunks = append(chunks, models.IndexedChunk{
			ID:       string(ids[i]),
			Text:     documents[i].ContentString(),
			Metadata: metadataMap,
		})
	}

	log.Printf("SERVICE: Retrieved %d indexed chunks", len(chunks))
	return &models.ListDocumentsResponse{Count: len(chunks), Chunks: chunks}, nil
}

// Query answers a question over the user's indexed reports, keeping a
// per-user chat session so follow-up questions retain context. The model
// decides when to pull chunks via the retrieveReportChunks tool.
func (r *retrievalServiceImpl) Query(ctx context.Context, req models.QueryRequest) (*models.QueryResponse, error) {
	log.Printf("SERVICE: Querying reports with: '%s' (user: '%s')", req.Query, req.UserID)

	r.mu.Lock()
	defer r.mu.Unlock()

	sessionKey := req.UserID
	if sessionKey == "" {
		sessionKey = uuid.New().String()
	}

	session := r.chatSessions[sessionKey]
	if session == nil {
		log.Println("SERVICE: No active session found. Creating a new one.")
		var err error
		session, err = r.geminiClient.Chats.Create(ctx, r.cfg.GeminiModel, &genai.GenerateContentConfig{
			Tools:             retrievalTools(),
			SystemInstruction: retrievalSystemPrompt(req.DetailLevel),
		}, nil)
		if err != nil {
			return nil, fmt.Errorf("could not start new chat session: %w", err)
		}
		r.chatSessions[sessionKey] = session
	}

	topK := req.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	answer, retrievedDocs, err := r.generateWithTools(ctx, session, req.Query, req.UserID, topK)
	if err != nil {
		return nil, fmt.Errorf("could not generate response from gemini: %w", err)
	}

	return &models.QueryResponse{
		Answer:     answer,
		SourceDocs: retrievedDocs,
		SessionID:  sessionKey,
	}, nil
}

// Ask is the session-less variant: retrieve once, answer once. Used by the
// floating chat widget, which keeps no conversation state on the server.
func (r *retrievalServiceImpl) Ask(ctx context.Context, question string) (string, []models.SourceDocument, error) {
	log.Printf("SERVICE: Ask (session-less): '%s'", question)

	docs, err := r.retrieveChunks(ctx, question, "", defaultTopK)
	if err != nil {
		return "", nil, fmt.Errorf("failed to retrieve report chunks: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("Context from the user's uploaded reports:\n")
	if len(docs) == 0 {
		sb.WriteString("(no matching report content found)\n")
	}
	for i, doc := range docs {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, doc.Text))
	}
	sb.WriteString(fmt.Sprintf("\nQuestion: %s", question))

	contents := []*genai.Content{{Role: genai.RoleUser, Parts: []*genai.Part{{Text: sb.String()}}}}
	result, err := r.geminiClient.Models.GenerateContent(ctx, r.cfg.GeminiModel, contents, &genai.GenerateContentConfig{
		SystemInstruction: retrievalSystemPrompt(""),
	})
	if err != nil {
		return "", nil, fmt.Errorf("gemini api call failed: %w", err)
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "I'm sorry, I couldn't generate a response.", docs, nil
	}

	var answer strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		if p.Text != "" {
			answer.WriteString(p.Text)
		}
	}
	return answer.String(), docs, nil
}

// retrieveChunks embeds the query and pulls the most similar chunks from
// the collection, scoped to one user when a user ID is given.
func (r *retrievalServiceImpl) retrieveChunks(ctx context.Context, query, userID string, nResults int) ([]models.SourceDocument, error) {
	queryEmbedding, err := r.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query text: %w", err)
	}
	embedding := embeddings.NewEmbeddingFromFloat32(queryEmbedding)

	queryOpts := []chromago.CollectionQueryOption{
		chromago.WithQueryEmbeddings(embedding),
		chromago.WithNResults(nResults),
	}
	if userID != "" {
		queryOpts = append(queryOpts, chromago.WithWhereQuery(chromago.EqString("user_id", userID)))
	}

	results, err := r.collection.Query(ctx, queryOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chromadb: %w", err)
	}

	var documents []models.SourceDocument
	documentGroups := results.GetDocumentsGroups()
	metadataGroups := results.GetMetadatasGroups()

	if len(documentGroups) > 0 {
		for i, doc := range documentGroups[0] {
			if doc.ContentString() == "" {
				continue
			}
			var metadataMap map[string]interface{}
			if len(metadataGroups) > 0 && i < len(metadataGroups[0]) && metadataGroups[0][i] != nil {
				metadataMap = metadataToMap(metadataGroups[0][i])
			}
			documents = append(documents, models.SourceDocument{
				Text:     doc.ContentString(),
				Metadata: metadataMap,
			})
		}
	}
	log.Printf("SERVICE: Retrieved %d chunks", len(documents))
	return documents, nil
}

// generateWithTools drives the chat session, answering tool calls until
// the model produces a final text answer.
func (r *retrievalServiceImpl) generateWithTools(ctx context.Context, session *genai.Chat, prompt, userID string, topK int) (string, []models.SourceDocument, error) {
	currentPart := genai.Part{Text: prompt}
	var allRetrievedDocs []models.SourceDocument

	for {
		result, err := session.SendMessage(ctx, currentPart)
		if err != nil {
			return "", nil, fmt.Errorf("gemini api call failed: %w", err)
		}

		if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
			return "I'm sorry, I couldn't generate a response.", nil, nil
		}

		part := result.Candidates[0].Content.Parts[0]

		if part.FunctionCall != nil {
			call := part.FunctionCall
			log.Printf("SERVICE: Model requested tool '%s' with args: %v", call.Name, call.Args)

			var toolResult string
			switch call.Name {
			case "retrieveReportChunks":
				query, ok := call.Args["query"].(string)
				if !ok {
					toolResult = "Error: 'query' argument must be a string."
				} else {
					docs, err := r.retrieveChunks(ctx, query, userID, topK)
					if err != nil {
						toolResult = fmt.Sprintf("Error retrieving report chunks: %v", err)
					} else {
						allRetrievedDocs = append(allRetrievedDocs, docs...)
						jsonBytes, err := json.Marshal(docs)
						if err != nil {
							toolResult = "Error: Could not format the retrieved chunks."
						} else {
							toolResult = string(jsonBytes)
						}
					}
				}
			default:
				toolResult = fmt.Sprintf("Error: Unknown function '%s' requested.", call.Name)
			}

			currentPart = genai.Part{FunctionResponse: &genai.FunctionResponse{
				Name:     call.Name,
				Response: map[string]interface{}{"result": toolResult},
			}}
			continue
		}

		var responseText strings.Builder
		for _, p := range result.Candidates[0].Content.Parts {
			if p.Text != "" {
				responseText.WriteString(p.Text)
			}
		}
		return responseText.String(), allRetrievedDocs, nil
	}
}

// EmbedText generates an embedding vector using the Ollama embeddings API.
func (r *retrievalServiceImpl) EmbedText(ctx context.Context, textToEmbed string) ([]float32, error) {
	reqBody, err := json.Marshal(models.OllamaEmbedRequest{
		Model:  r.cfg.OllamaModel,
		Prompt: textToEmbed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ollama request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.OllamaURL, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call ollama embedding api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama api returned non-200 status: %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var ollamaResp models.OllamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return nil, fmt.Errorf("failed to decode ollama response: %w", err)
	}
	return ollamaResp.Embedding, nil
}

// metadataToMap converts a chroma DocumentMetadata into a plain map. The
// struct exposes no accessor for all values, so it round-trips through
// JSON.
func metadataToMap(metadata chromago.DocumentMetadata) map[string]interface{} {
	jsonBytes, err := json.Marshal(metadata)
	if err != nil {
		log.Printf("WARN: could not marshal chunk metadata: %v", err)
		return map[string]interface{}{}
	}
	var metadataMap map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &metadataMap); err != nil {
		log.Printf("WARN: could not unmarshal chunk metadata: %v", err)
		return map[string]interface{}{}
	}
	return metadataMap
}
