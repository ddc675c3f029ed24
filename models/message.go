package models

// Message senders. A transcript only ever contains these two.
const (
	SenderUser = "user"
	SenderAI   = "ai"
)

// Message is a single entry in a chat session transcript. Messages are
// appended in order and never mutated or deleted; the transcript is
// discarded with the session.
type Message struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}
