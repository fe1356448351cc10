package models

// These structs define the JSON payloads exchanged with HTTP callers and the
// Cloud Functions runtime.

// DocumentFailure describes a document whose processing ended in error.
type DocumentFailure struct {
	FileName  string `json:"fileName"`
	MediaType string `json:"mediaType"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Cause     error  `json:"-"`
}

// ProcessResponse is the output of the document processing endpoint.
type ProcessResponse struct {
	RequestID string               `json:"requestId"`
	Documents []*ProcessedDocument `json:"documents"`
	Failures  []DocumentFailure    `json:"failures"`
}

// StreamEvent is one NDJSON line of a streamed processing response.
type StreamEvent struct {
	Type     string           `json:"type"`
	Progress *ProgressStatus  `json:"progress,omitempty"`
	Result   *ProcessResponse `json:"result,omitempty"`
}

// TokenizerConfigRequest is a partial update of the tokenizer settings.
// Nil fields are left untouched.
type TokenizerConfigRequest struct {
	ModelName  *string `json:"modelName"`
	ServiceURL *string `json:"serviceUrl"`
	APIKey     *string `json:"apiKey"`
}

// TokenizerConfigResponse exposes the active tokenizer settings without the key.
type TokenizerConfigResponse struct {
	ModelName  string `json:"modelName"`
	ServiceURL string `json:"serviceUrl"`
	APIKeySet  bool   `json:"apiKeySet"`
	Configured bool   `json:"configured"`
}

// ConnectionTestResponse is the result of a tokenizer connectivity probe.
type ConnectionTestResponse struct {
	Connected bool `json:"connected"`
}

// ErrorResponse is returned for any failed HTTP request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// GCSEvent is the payload of a GCS object finalize event.
type GCSEvent struct {
	Bucket      string `json:"bucket"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        string `json:"size"`
}
