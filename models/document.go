package models

// SourceDocument represents a chunk of text and its origin, as returned
// alongside an answer from the retrieval pipeline.
type SourceDocument struct {
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// IndexedChunk is a single document chunk retrieved from the vector store.
type IndexedChunk struct {
	ID       string                 `json:"id"`
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// ListDocumentsResponse is the structure for the response of the
// GET /api/documents endpoint.
type ListDocumentsResponse struct {
	Count  int            `json:"count"`
	Chunks []IndexedChunk `json:"chunks"`
}
