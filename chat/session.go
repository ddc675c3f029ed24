package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/cognitoai/cognito/models"
	"github.com/cognitoai/cognito/services"
)

// ErrBusy is returned when a send or upload is attempted while another
// request is in flight. The session allows one question at a time; there
// is no queue.
var ErrBusy = errors.New("a request is already in flight")

const greetingMessage = "Hello! I'm your AI assistant. Upload documents first, then ask me questions about them."

const uploadRequiredMessage = "Please upload at least one document before asking questions."

const sendFailedMessage = "Sorry, I encountered an error while processing your question. Please try again."

// Answerer answers a user's question.
type Answerer interface {
	AskQuestion(ctx context.Context, question, userID string) (*models.AnswerQuestionResponse, error)
}

// Uploader sends report files to the retrieval service for indexing.
type Uploader interface {
	Upload(ctx context.Context, userID string, files []services.UploadFile) (*models.UploadResponse, error)
}

// Session is one user's transient conversation: an ordered, append-only
// transcript, the manifest of files the retrieval service has accepted,
// and the in-flight request flags. Nothing is persisted; the transcript
// dies with the session.
type Session struct {
	mu sync.Mutex

	answerer Answerer
	uploader Uploader
	userID   string

	// requireUpload gates questions behind a successful upload ack, for
	// sessions that only make sense against indexed documents.
	requireUpload bool

	messages      []models.Message
	uploadedFiles []string
	asking        bool
	uploading     bool
}

// NewSession creates a session for one user. When requireUpload is set,
// questions are refused with an advisory message until at least one
// upload has been acknowledged.
func NewSession(answerer Answerer, uploader Uploader, userID string, requireUpload bool) *Session {
	return &Session{
		answerer:      answerer,
		uploader:      uploader,
		userID:        userID,
		requireUpload: requireUpload,
		messages:      []models.Message{{Sender: models.SenderAI, Text: greetingMessage}},
	}
}

// Send submits a question. The user's Message is appended optimistically
// before the request; the response (or a tagged error Message on
// transport failure) is appended after. The user's turn is never dropped.
func (s *Session) Send(ctx context.Context, question string) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil
	}

	s.mu.Lock()
	if s.asking || s.uploading {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.requireUpload && len(s.uploadedFiles) == 0 {
		s.messages = append(s.messages, models.Message{Sender: models.SenderAI, Text: uploadRequiredMessage})
		s.mu.Unlock()
		return nil
	}
	s.messages = append(s.messages, models.Message{Sender: models.SenderUser, Text: question})
	s.asking = true
	s.mu.Unlock()

	response, err := s.answerer.AskQuestion(ctx, question, s.userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.asking = false

	if err != nil {
		s.messages = append(s.messages, models.Message{Sender: models.SenderAI, Text: sendFailedMessage})
		return nil
	}
	s.messages = append(s.messages, models.Message{Sender: models.SenderAI, Text: response.Answer})
	return nil
}

// Upload hands files to the retrieval service. Acknowledged filenames are
// appended to the manifest; failures surface as an error Message in the
// transcript.
func (s *Session) Upload(ctx context.Context, files []services.UploadFile) error {
	if len(files) == 0 {
		return nil
	}

	s.mu.Lock()
	if s.asking || s.uploading {
		s.mu.Unlock()
		return ErrBusy
	}
	s.uploading = true
	s.mu.Unlock()

	resp, err := s.uploader.Upload(ctx, s.userID, files)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploading = false

	if err != nil {
		s.messages = append(s.messages, models.Message{
			Sender: models.SenderAI,
			Text:   "Upload Error: " + err.Error(),
		})
		return nil
	}

	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}
	s.uploadedFiles = append(s.uploadedFiles, names...)

	text := fmt.Sprintf("Successfully uploaded %d file(s): %s. Now you can ask me questions about these documents!",
		len(names), strings.Join(names, ", "))
	if resp.Message != "" {
		text = fmt.Sprintf("Successfully uploaded %d file(s): %s. %s", len(names), strings.Join(names, ", "), resp.Message)
	}
	s.messages = append(s.messages, models.Message{Sender: models.SenderAI, Text: text})
	return nil
}

// Transcript returns a copy of the ordered message list.
func (s *Session) Transcript() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// UploadedFiles returns a copy of the uploaded-file manifest.
func (s *Session) UploadedFiles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.uploadedFiles))
	copy(out, s.uploadedFiles)
	return out
}

// Busy reports whether a send or upload is in flight. Callers use it to
// disable input, mirroring the UI this session drives.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.asking || s.uploading
}
