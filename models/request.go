package models

// AnswerQuestionRequest is the body of POST /api/ai/answer-questions.
// Both fields are required; requests missing either are rejected before
// any strategy is consulted.
type AnswerQuestionRequest struct {
	Question string `json:"question"`
	UserID   string `json:"userId"`
}

// QueryRequest is the body of POST /api/query on the retrieval service.
type QueryRequest struct {
	Query       string `json:"query"`
	UserID      string `json:"user_id,omitempty"`
	TopK        int    `json:"top_k,omitempty"`
	DetailLevel string `json:"detail_level,omitempty"`
}

// AskRequest is the body of POST /api/ask, the session-less variant of the
// query endpoint used by the floating chat widget.
type AskRequest struct {
	Question string `json:"question"`
}

// SummarizeRequest is the body of POST /api/ai/summarize. The report is
// supplied as a data URI (MIME type + base64 content).
type SummarizeRequest struct {
	FileDataURI string `json:"fileDataUri"`
}

// SendSMSRequest is the body of POST /api/send-sms.
type SendSMSRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}
