// Package extractor turns raw document bytes into plain text, dispatching on
// the declared media type to a format-specific adapter.
package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Lllllllleong/docpipeline/internal/apperr"
	"github.com/Lllllllleong/docpipeline/internal/models"
)

// ProgressFunc receives extraction progress in the range [0,100].
type ProgressFunc func(percent int, message string)

// Output is what a format adapter recovers from a document.
type Output struct {
	Text      string
	PageCount int
	Warnings  []string
}

// FormatExtractor extracts text from one document format. Implementations
// must not keep state between calls.
type FormatExtractor interface {
	Extract(ctx context.Context, data []byte, onProgress ProgressFunc) (Output, error)
}

// Extractor dispatches documents to the adapter registered for their media type.
type Extractor struct {
	adapters map[string]FormatExtractor
	logger   *slog.Logger
	now      func() time.Time
}

// New creates an Extractor with the PDF, DOCX and plain text adapters registered.
func New(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Extractor{
		adapters: make(map[string]FormatExtractor),
		logger:   logger,
		now:      time.Now,
	}
	text := NewTextExtractor()
	e.Register(MediaTypePDF, NewPDFExtractor(logger))
	e.Register(MediaTypeDOCX, NewDOCXExtractor(logger))
	e.Register(MediaTypeText, text)
	e.Register(MediaTypeMarkdown, text)
	e.Register(MediaTypeCSV, text)
	return e
}

// Register installs or replaces the adapter for a media type.
func (e *Extractor) Register(mediaType string, fe FormatExtractor) {
	e.adapters[CanonicalMediaType(mediaType)] = fe
}

// SupportedMediaTypes returns the media types with a registered adapter.
func (e *Extractor) SupportedMediaTypes() []string {
	types := make([]string, 0, len(e.adapters))
	for mt := range e.adapters {
		types = append(types, mt)
	}
	sort.Strings(types)
	return types
}

// Supports reports whether a media type can be extracted.
func (e *Extractor) Supports(mediaType string) bool {
	_, ok := e.adapters[CanonicalMediaType(mediaType)]
	return ok
}

// Extract reads the document and returns its text. Failures are
// *apperr.Error values of kind ErrUnsupportedFormat, ErrCorruptDocument or
// ErrUnknown.
func (e *Extractor) Extract(ctx context.Context, in models.DocumentInput, onProgress ProgressFunc) (*models.ExtractionResult, error) {
	if onProgress == nil {
		onProgress = func(int, string) {}
	}
	mediaType := CanonicalMediaType(in.MediaType)
	if mediaType == MediaTypeLegacyWord {
		return nil, apperr.New(apperr.ErrUnsupportedFormat,
			"Legacy .doc files are not supported. Please save the document as .docx and upload it again.", nil)
	}
	adapter, ok := e.adapters[mediaType]
	if !ok {
		return nil, apperr.New(apperr.ErrUnsupportedFormat,
			fmt.Sprintf("Unsupported file type: %s", in.MediaType), nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, apperr.Wrap(err)
	}
	if in.Open == nil {
		return nil, apperr.New(apperr.ErrUnknown, fmt.Sprintf("No content available for %s", in.Name), nil)
	}

	logCtx := e.logger.With("fileName", in.Name, "mediaType", mediaType)
	start := e.now()
	onProgress(0, fmt.Sprintf("Reading %s", in.Name))

	data, err := in.Open()
	if err != nil {
		logCtx.Error("Failed to read document content", "error", err)
		return nil, apperr.Wrap(fmt.Errorf("read %s: %w", in.Name, err))
	}

	out, err := adapter.Extract(ctx, data, onProgress)
	if err != nil {
		return nil, apperr.Wrap(err)
	}

	elapsed := e.now().Sub(start)
	onProgress(100, "Extraction complete")
	logCtx.Info("Text extracted.", "chars", len(out.Text), "pages", out.PageCount, "elapsed", elapsed.String())

	return &models.ExtractionResult{
		Text:      out.Text,
		PageCount: out.PageCount,
		Elapsed:   elapsed,
		Warnings:  out.Warnings,
	}, nil
}

// TextExtractor passes plain text through unchanged.
type TextExtractor struct{}

// NewTextExtractor creates a plain text adapter.
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

// Extract returns the bytes as a string; an empty file yields an empty string.
func (TextExtractor) Extract(_ context.Context, data []byte, onProgress ProgressFunc) (Output, error) {
	onProgress(50, "Reading text file")
	return Output{Text: string(data)}, nil
}
