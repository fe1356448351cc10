package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/Lllllllleong/docpipeline/internal/apperr"
	"github.com/Lllllllleong/docpipeline/internal/extractor"
	"github.com/Lllllllleong/docpipeline/internal/models"
	"github.com/Lllllllleong/docpipeline/internal/normalizer"
	"github.com/Lllllllleong/docpipeline/internal/tokenizer"
	"github.com/oklog/ulid/v2"
)

// TextExtractor is the extraction stage.
type TextExtractor interface {
	Extract(ctx context.Context, in models.DocumentInput, onProgress extractor.ProgressFunc) (*models.ExtractionResult, error)
}

// TextNormalizer is the normalization stage. It must not fail.
type TextNormalizer interface {
	Apply(raw string, opts normalizer.Options, variant normalizer.Variant) models.NormalizationResult
}

// Tokenizer is the optional tokenization stage.
type Tokenizer interface {
	TryTokenize(ctx context.Context, text string, onProgress tokenizer.ProgressFunc) tokenizer.Outcome
}

// PipelineConfig holds the per-pipeline processing options.
type PipelineConfig struct {
	NormalizeOptions normalizer.Options
	Variant          normalizer.Variant
	Tokenize         bool
}

// DefaultPipelineConfig normalizes with every step enabled and tokenizes.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		NormalizeOptions: normalizer.DefaultOptions(),
		Variant:          normalizer.VariantGeneric,
		Tokenize:         true,
	}
}

// Pipeline runs documents through extraction, normalization and
// tokenization. A Pipeline may be shared; each call works on its own document.
type Pipeline struct {
	extractor  TextExtractor
	normalizer TextNormalizer
	tokenizer  Tokenizer
	config     PipelineConfig
	logger     *slog.Logger
	now        func() time.Time

	idMu    sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewPipeline wires the stages together. A nil tokenizer disables tokenization.
func NewPipeline(ext TextExtractor, norm TextNormalizer, tok Tokenizer, config PipelineConfig, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		extractor:  ext,
		normalizer: norm,
		tokenizer:  tok,
		config:     config,
		logger:     logger,
		now:        time.Now,
		entropy:    ulid.Monotonic(rand.Reader, 0),
	}
}

// ProcessDocument runs one document to completion. Extraction failures fail
// the document; an unavailable tokenizer only adds a warning. The final
// progress update is either completed or error.
func (p *Pipeline) ProcessDocument(ctx context.Context, in models.DocumentInput, onProgress ProgressFunc) (*models.ProcessedDocument, error) {
	start := p.now()
	id := p.newDocumentID(in.Name, start)
	logCtx := p.logger.With("documentId", id, "fileName", in.Name, "mediaType", in.MediaType)
	r := newReporter(id, onProgress)

	r.emit(models.StatusUploading, 0, fmt.Sprintf("Processing %s", in.Name))

	extraction, err := p.extractor.Extract(ctx, in, func(percent int, message string) {
		r.emit(models.StatusExtracting, scale(0, percent, 0.9), message)
	})
	if err != nil {
		appErr := apperr.Wrap(err)
		logCtx.Error("Document extraction failed", "error", err, "code", apperr.Code(appErr))
		r.fail(appErr)
		return nil, appErr
	}

	r.emit(models.StatusExtracting, 90, "Normalizing text")
	normalized := p.normalizer.Apply(extraction.Text, p.config.NormalizeOptions, p.config.Variant)
	r.emit(models.StatusExtracting, 96, "Text normalized")

	warnings := append([]string(nil), extraction.Warnings...)
	outcome := p.tokenize(ctx, normalized.Text, r)
	if !outcome.Available() {
		note := fmt.Sprintf("Tokenization unavailable: %s", outcome.Reason)
		if outcome.Err != nil {
			logCtx.Warn("Tokenization failed, continuing without tokens", "error", outcome.Err, "code", apperr.Code(outcome.Err))
		} else {
			logCtx.Info("Tokenization skipped", "reason", outcome.Reason)
		}
		warnings = append(warnings, note)
		r.emit(models.StatusExtracting, r.last, note)
	}

	r.emit(models.StatusExtracting, 99, "Finalizing document")
	doc := &models.ProcessedDocument{
		ID:                 id,
		OriginalName:       in.Name,
		OriginalType:       in.MediaType,
		ExtractedText:      extraction.Text,
		PageCount:          extraction.PageCount,
		NormalizedText:     normalized.Text,
		NormalizationStats: normalized.Stats,
		TokenizedData:      outcome.Result,
		WordCount:          normalizer.WordCount(extraction.Text),
		Warnings:           warnings,
		CreatedAt:          p.now(),
	}
	r.emit(models.StatusCompleted, 100, "Processing complete")

	logCtx.Info("Document processed.",
		"words", doc.WordCount,
		"tokenized", doc.TokenizedData != nil,
		"elapsed", p.now().Sub(start).String())
	return doc, nil
}

func (p *Pipeline) tokenize(ctx context.Context, text string, r *reporter) tokenizer.Outcome {
	if !p.config.Tokenize || p.tokenizer == nil {
		return tokenizer.Unavailable("tokenization is disabled", nil)
	}
	return p.tokenizer.TryTokenize(ctx, text, func(percent int, message string) {
		r.emit(models.StatusExtracting, scale(96, percent, 0.03), message)
	})
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

const maxSlugLen = 48

// newDocumentID derives an ID from the file name and start time. The ULID
// suffix keeps same-named files from different runs apart.
func (p *Pipeline) newDocumentID(name string, start time.Time) string {
	slug := strings.Trim(slugInvalid.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "-")
	}
	if slug == "" {
		slug = "document"
	}
	p.idMu.Lock()
	id := ulid.MustNew(ulid.Timestamp(start), p.entropy)
	p.idMu.Unlock()
	return slug + "-" + strings.ToLower(id.String())
}

// scale maps a stage-local percentage into the overall range.
func scale(base, percent int, weight float64) int {
	percent = min(max(percent, 0), 100)
	return base + int(math.Round(float64(percent)*weight))
}

// reporter stamps progress updates for one document.
type reporter struct {
	id   string
	fn   ProgressFunc
	last int
}

func newReporter(id string, fn ProgressFunc) *reporter {
	return &reporter{id: id, fn: fn}
}

func (r *reporter) emit(status models.Status, percent int, message string) {
	r.last = percent
	if r.fn == nil {
		return
	}
	r.fn(models.ProgressStatus{
		DocumentID: r.id,
		Status:     status,
		Progress:   percent,
		Message:    message,
	})
}

func (r *reporter) fail(err *apperr.Error) {
	if r.fn == nil {
		return
	}
	r.fn(models.ProgressStatus{
		DocumentID: r.id,
		Status:     models.StatusError,
		Progress:   r.last,
		Message:    err.Message,
		Error:      apperr.Code(err) + ": " + err.Message,
	})
}
