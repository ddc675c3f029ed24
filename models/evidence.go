package models

// EvidenceBlob is a single report document carried as a self-describing
// payload: a MIME type plus base64-encoded content, the wire form of a
// data URI.
type EvidenceBlob struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// EvidenceSource is the document content supplied to ground an answer.
// Exactly one variant is set: a single blob document, or an ordered list
// of plain-text report contents. The two shapes are resolved once at the
// request boundary and consumed uniformly downstream.
type EvidenceSource struct {
	Blob  *EvidenceBlob `json:"blob,omitempty"`
	Texts []string      `json:"texts,omitempty"`
}

// BlobEvidence wraps a single document payload as an evidence source.
func BlobEvidence(mimeType, data string) EvidenceSource {
	return EvidenceSource{Blob: &EvidenceBlob{MIMEType: mimeType, Data: data}}
}

// TextEvidence wraps an ordered list of plain-text report contents.
func TextEvidence(texts ...string) EvidenceSource {
	return EvidenceSource{Texts: texts}
}

// IsZero reports whether no evidence was supplied.
func (e EvidenceSource) IsZero() bool {
	return e.Blob == nil && len(e.Texts) == 0
}
