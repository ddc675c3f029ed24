package models

// Answer modes reported by the answer-questions endpoint. The mode tells
// the caller which tier of the fallback chain produced the answer.
const (
	ModeRAG           = "rag"
	ModeDirect        = "direct"
	ModePlaceholder   = "placeholder"
	ModeErrorFallback = "error-fallback"
)

// AnswerQuestionResponse is the success body of POST /api/ai/answer-questions.
// Every tier returns this shape with a 200 status; configuration gaps and
// upstream failures are reported in Answer and Mode, never as transport
// errors. Detail carries the upstream error message on the error-fallback
// path, for diagnostics only.
type AnswerQuestionResponse struct {
	Answer string `json:"answer"`
	Mode   string `json:"mode"`
	Detail string `json:"detail,omitempty"`
}

// UploadResponse is returned by POST /api/upload.
type UploadResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// QueryResponse is returned by POST /api/query.
type QueryResponse struct {
	Answer     string           `json:"answer"`
	SourceDocs []SourceDocument `json:"source_docs,omitempty"`
	SessionID  string           `json:"sessionID"`
}

// AskResponse is returned by POST /api/ask.
type AskResponse struct {
	Status  string `json:"status"`
	Answer  string `json:"answer,omitempty"`
	Message string `json:"message,omitempty"`
}

// SummarizeResponse is the success body of POST /api/ai/summarize.
type SummarizeResponse struct {
	Summary string `json:"summary"`
	Mode    string `json:"mode"`
	Detail  string `json:"detail,omitempty"`
}

// SendSMSResponse is returned by POST /api/send-sms.
type SendSMSResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
