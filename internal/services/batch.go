package services

import (
	"context"

	"github.com/Lllllllleong/docpipeline/internal/apperr"
	"github.com/Lllllllleong/docpipeline/internal/models"
	lru "github.com/hashicorp/golang-lru/v2"
)

// BatchResult collects the outcome of a batch. Every input ends up in
// exactly one of the two lists.
type BatchResult struct {
	Documents []*models.ProcessedDocument
	Failures  []models.DocumentFailure
}

// ProcessBatch processes inputs one after another. A failing document does
// not stop the batch. An input with the same name and declared type as an
// already completed one reuses that result without being extracted again.
func (p *Pipeline) ProcessBatch(ctx context.Context, inputs []models.DocumentInput, onProgress ProgressFunc) BatchResult {
	result := BatchResult{
		Documents: make([]*models.ProcessedDocument, 0, len(inputs)),
		Failures:  []models.DocumentFailure{},
	}
	completed, _ := lru.New[string, *models.ProcessedDocument](max(len(inputs), 1))
	logCtx := p.logger.With("batchSize", len(inputs))

	for _, in := range inputs {
		key := in.Name + "\x00" + in.MediaType
		if doc, ok := completed.Get(key); ok {
			logCtx.Info("Reusing result of identical document", "fileName", in.Name, "documentId", doc.ID)
			if onProgress != nil {
				onProgress(models.ProgressStatus{
					DocumentID: doc.ID,
					Status:     models.StatusCompleted,
					Progress:   100,
					Message:    "Already processed",
				})
			}
			result.Documents = append(result.Documents, doc)
			continue
		}

		if err := ctx.Err(); err != nil {
			logCtx.Warn("Batch cancelled before document started", "fileName", in.Name, "error", err)
			result.Failures = append(result.Failures, failureOf(in, apperr.New(apperr.ErrUnknown, "Processing cancelled", err)))
			continue
		}

		doc, err := p.ProcessDocument(ctx, in, onProgress)
		if err != nil {
			result.Failures = append(result.Failures, failureOf(in, err))
			continue
		}
		completed.Add(key, doc)
		result.Documents = append(result.Documents, doc)
	}

	logCtx.Info("Batch finished.", "documents", len(result.Documents), "failures", len(result.Failures))
	return result
}

func failureOf(in models.DocumentInput, err error) models.DocumentFailure {
	return models.DocumentFailure{
		FileName:  in.Name,
		MediaType: in.MediaType,
		Code:      apperr.Code(err),
		Message:   err.Error(),
		Cause:     err,
	}
}
