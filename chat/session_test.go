package chat

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognitoai/cognito/models"
	"github.com/cognitoai/cognito/services"
)

type scriptedAnswerer struct {
	mu      sync.Mutex
	resp    *models.AnswerQuestionResponse
	err     error
	calls   int
	started chan struct{}
	release chan struct{}
}

func (a *scriptedAnswerer) AskQuestion(_ context.Context, _, _ string) (*models.AnswerQuestionResponse, error) {
	a.mu.Lock()
	a.calls++
	a.mu.Unlock()
	if a.started != nil {
		a.started <- struct{}{}
	}
	if a.release != nil {
		<-a.release
	}
	return a.resp, a.err
}

func (a *scriptedAnswerer) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

type scriptedUploader struct {
	resp  *models.UploadResponse
	err   error
	calls int
}

func (u *scriptedUploader) Upload(_ context.Context, _ string, _ []services.UploadFile) (*models.UploadResponse, error) {
	u.calls++
	return u.resp, u.err
}

func TestSession_Send(t *testing.T) {
	t.Parallel()

	t.Run("appends the question and then the answer, in order", func(t *testing.T) {
		t.Parallel()

		answerer := &scriptedAnswerer{resp: &models.AnswerQuestionResponse{
			Answer: "Your cholesterol is normal.",
			Mode:   models.ModeRAG,
		}}
		session := NewSession(answerer, &scriptedUploader{}, "u1", false)

		require.NoError(t, session.Send(context.Background(), "Is my cholesterol ok?"))

		transcript := session.Transcript()
		require.Len(t, transcript, 3)
		assert.Equal(t, models.SenderAI, transcript[0].Sender)
		assert.Equal(t, models.Message{Sender: models.SenderUser, Text: "Is my cholesterol ok?"}, transcript[1])
		assert.Equal(t, models.Message{Sender: models.SenderAI, Text: "Your cholesterol is normal."}, transcript[2])
	})

	t.Run("a failed request still completes the turn", func(t *testing.T) {
		t.Parallel()

		answerer := &scriptedAnswerer{err: errors.New("connection refused")}
		session := NewSession(answerer, &scriptedUploader{}, "u1", false)

		require.NoError(t, session.Send(context.Background(), "hello?"))

		transcript := session.Transcript()
		require.Len(t, transcript, 3)
		assert.Equal(t, models.SenderUser, transcript[1].Sender)
		assert.Equal(t, models.SenderAI, transcript[2].Sender)
		assert.Equal(t, sendFailedMessage, transcript[2].Text)
		assert.False(t, session.Busy())
	})

	t.Run("blank questions are ignored", func(t *testing.T) {
		t.Parallel()

		answerer := &scriptedAnswerer{resp: &models.AnswerQuestionResponse{Answer: "x"}}
		session := NewSession(answerer, &scriptedUploader{}, "u1", false)

		require.NoError(t, session.Send(context.Background(), "   "))
		assert.Len(t, session.Transcript(), 1)
		assert.Zero(t, answerer.callCount())
	})

	t.Run("questions are gated until an upload when required", func(t *testing.T) {
		t.Parallel()

		answerer := &scriptedAnswerer{resp: &models.AnswerQuestionResponse{Answer: "x"}}
		uploader := &scriptedUploader{resp: &models.UploadResponse{Status: "ok"}}
		session := NewSession(answerer, uploader, "u1", true)

		require.NoError(t, session.Send(context.Background(), "too early"))
		transcript := session.Transcript()
		require.Len(t, transcript, 2)
		assert.Equal(t, uploadRequiredMessage, transcript[1].Text)
		assert.Zero(t, answerer.callCount(), "the advisory never reaches the network")

		require.NoError(t, session.Upload(context.Background(), []services.UploadFile{
			{Name: "report.pdf", Content: []byte("pdf")},
		}))
		require.NoError(t, session.Send(context.Background(), "now?"))
		assert.Equal(t, 1, answerer.callCount())
	})

	t.Run("a second send while one is in flight is refused", func(t *testing.T) {
		t.Parallel()

		answerer := &scriptedAnswerer{
			resp:    &models.AnswerQuestionResponse{Answer: "x"},
			started: make(chan struct{}),
			release: make(chan struct{}),
		}
		session := NewSession(answerer, &scriptedUploader{}, "u1", false)

		done := make(chan error, 1)
		go func() {
			done <- session.Send(context.Background(), "first")
		}()
		<-answerer.started

		assert.True(t, session.Busy())
		assert.ErrorIs(t, session.Send(context.Background(), "second"), ErrBusy)

		close(answerer.release)
		require.NoError(t, <-done)
		assert.False(t, session.Busy())
		assert.Equal(t, 1, answerer.callCount())
	})
}

func TestSession_Upload(t *testing.T) {
	t.Parallel()

	t.Run("acknowledged files join the manifest with a confirmation", func(t *testing.T) {
		t.Parallel()

		uploader := &scriptedUploader{resp: &models.UploadResponse{
			Status:  "ok",
			Message: "Successfully processed 2 file(s) into 9 chunks",
		}}
		session := NewSession(&scriptedAnswerer{}, uploader, "u1", false)

		require.NoError(t, session.Upload(context.Background(), []services.UploadFile{
			{Name: "a.pdf", Content: []byte("a")},
			{Name: "b.txt", Content: []byte("b")},
		}))

		assert.Equal(t, []string{"a.pdf", "b.txt"}, session.UploadedFiles())
		transcript := session.Transcript()
		require.Len(t, transcript, 2)
		assert.Contains(t, transcript[1].Text, "a.pdf, b.txt")
		assert.Contains(t, transcript[1].Text, "9 chunks")
	})

	t.Run("a failed upload leaves the manifest untouched", func(t *testing.T) {
		t.Parallel()

		uploader := &scriptedUploader{err: errors.New("service unavailable")}
		session := NewSession(&scriptedAnswerer{}, uploader, "u1", false)

		require.NoError(t, session.Upload(context.Background(), []services.UploadFile{
			{Name: "a.pdf", Content: []byte("a")},
		}))

		assert.Empty(t, session.UploadedFiles())
		transcript := session.Transcript()
		require.Len(t, transcript, 2)
		assert.Contains(t, transcript[1].Text, "Upload Error")
		assert.Contains(t, transcript[1].Text, "service unavailable")
	})

	t.Run("an empty file list is a no-op", func(t *testing.T) {
		t.Parallel()

		uploader := &scriptedUploader{}
		session := NewSession(&scriptedAnswerer{}, uploader, "u1", false)

		require.NoError(t, session.Upload(context.Background(), nil))
		assert.Zero(t, uploader.calls)
		assert.Len(t, session.Transcript(), 1)
	})
}
