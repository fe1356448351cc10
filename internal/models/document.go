package models

import "time"

// ByteSource lazily yields the raw content of an uploaded document.
// It is only invoked once a format adapter has been selected.
type ByteSource func() ([]byte, error)

// DocumentInput is a user-supplied file as handed over by an upload surface.
// Size and type have already been validated upstream.
type DocumentInput struct {
	Name      string
	MediaType string
	Size      int64
	Open      ByteSource
}

// NewDocumentInput wraps in-memory bytes as a DocumentInput.
func NewDocumentInput(name, mediaType string, data []byte) DocumentInput {
	return DocumentInput{
		Name:      name,
		MediaType: mediaType,
		Size:      int64(len(data)),
		Open:      func() ([]byte, error) { return data, nil },
	}
}

// ExtractionResult is the text pulled out of a single document.
type ExtractionResult struct {
	Text      string        `json:"text"`
	PageCount int           `json:"pageCount,omitempty"`
	Elapsed   time.Duration `json:"elapsed"`
	Warnings  []string      `json:"warnings,omitempty"`
}

// NormalizationStats compares a text before and after normalization.
type NormalizationStats struct {
	OriginalWordCount    int     `json:"originalWordCount"`
	ProcessedWordCount   int     `json:"processedWordCount"`
	OriginalLineCount    int     `json:"originalLineCount"`
	ProcessedLineCount   int     `json:"processedLineCount"`
	CompressionRatio     float64 `json:"compressionRatio"`
	StructureImprovement float64 `json:"structureImprovement"`
}

// NormalizationResult holds normalized text and its statistics.
type NormalizationResult struct {
	Text  string             `json:"text"`
	Stats NormalizationStats `json:"stats"`
}

// TokenizationResult is the response of the remote tokenization service.
// TokenIDs is either empty or index-aligned with Tokens.
type TokenizationResult struct {
	Tokens      []string  `json:"tokens"`
	TokenIDs    []int     `json:"tokenIds"`
	TokenCount  int       `json:"tokenCount"`
	Model       string    `json:"model"`
	CompletedAt time.Time `json:"completedAt"`
}

// ProcessedDocument is the pipeline output for one input file.
// TokenizedData is nil when tokenization was unavailable.
type ProcessedDocument struct {
	ID                 string              `json:"id"`
	OriginalName       string              `json:"originalName"`
	OriginalType       string              `json:"originalType"`
	ExtractedText      string              `json:"extractedText"`
	PageCount          int                 `json:"pageCount,omitempty"`
	NormalizedText     string              `json:"normalizedText"`
	NormalizationStats NormalizationStats  `json:"normalizationStats"`
	TokenizedData      *TokenizationResult `json:"tokenizedData,omitempty"`
	WordCount          int                 `json:"wordCount"`
	Warnings           []string            `json:"warnings,omitempty"`
	CreatedAt          time.Time           `json:"createdAt"`
}

// Status is the coarse processing state reported to observers.
type Status string

const (
	StatusUploading  Status = "uploading"
	StatusExtracting Status = "extracting"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Terminal reports whether no further updates follow for the document.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// ProgressStatus is a transient progress notification. The last one emitted
// for a DocumentID is authoritative.
type ProgressStatus struct {
	DocumentID string `json:"documentId"`
	Status     Status `json:"status"`
	Progress   int    `json:"progress"`
	Message    string `json:"message"`
	Error      string `json:"error,omitempty"`
}
