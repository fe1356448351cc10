package services

import (
	"context"
	"testing"

	"github.com/Lllllllleong/docpipeline/internal/apperr"
	"github.com/Lllllllleong/docpipeline/internal/extractor"
	"github.com/Lllllllleong/docpipeline/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessBatchIsolatesFailures(t *testing.T) {
	p, _ := newTestPipeline(&stubTokenizer{outcome: tokensOutcome("t")}, DefaultPipelineConfig())
	inputs := []models.DocumentInput{
		textInput("one.txt", "first"),
		models.NewDocumentInput("two.doc", extractor.MediaTypeLegacyWord, []byte("x")),
		textInput("three.txt", "third"),
	}

	res := p.ProcessBatch(context.Background(), inputs, nil)

	require.Len(t, res.Documents, 2)
	assert.Equal(t, "one.txt", res.Documents[0].OriginalName)
	assert.Equal(t, "three.txt", res.Documents[1].OriginalName)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, models.DocumentFailure{
		FileName:  "two.doc",
		MediaType: extractor.MediaTypeLegacyWord,
		Code:      "UNSUPPORTED_FORMAT",
		Message:   res.Failures[0].Message,
		Cause:     res.Failures[0].Cause,
	}, res.Failures[0])
	assert.ErrorIs(t, res.Failures[0].Cause, apperr.ErrUnsupportedFormat)
	assert.Contains(t, res.Failures[0].Message, ".docx")
}

func TestProcessBatchReusesDuplicates(t *testing.T) {
	p, ext := newTestPipeline(&stubTokenizer{outcome: tokensOutcome("t")}, DefaultPipelineConfig())
	var progress statusLog
	inputs := []models.DocumentInput{
		textInput("same.txt", "content"),
		textInput("same.txt", "content"),
		models.NewDocumentInput("same.txt", extractor.MediaTypeMarkdown, []byte("content")),
	}

	res := p.ProcessBatch(context.Background(), inputs, progress.record)

	require.Len(t, res.Documents, 3)
	assert.Empty(t, res.Failures)
	assert.Equal(t, 2, ext.calls)
	assert.Same(t, res.Documents[0], res.Documents[1])
	assert.NotEqual(t, res.Documents[0].ID, res.Documents[2].ID)

	var reused []models.ProgressStatus
	for _, u := range progress.updates {
		if u.Message == "Already processed" {
			reused = append(reused, u)
		}
	}
	require.Len(t, reused, 1)
	assert.Equal(t, res.Documents[0].ID, reused[0].DocumentID)
	assert.Equal(t, models.StatusCompleted, reused[0].Status)
}

func TestProcessBatchRetriesFailedDuplicates(t *testing.T) {
	p, ext := newTestPipeline(nil, PipelineConfig{})
	bad := models.NewDocumentInput("scan.pdf", extractor.MediaTypePDF, []byte("not a pdf"))

	res := p.ProcessBatch(context.Background(), []models.DocumentInput{bad, bad}, nil)

	assert.Empty(t, res.Documents)
	assert.Len(t, res.Failures, 2)
	assert.Equal(t, 2, ext.calls)
}

func TestProcessBatchCancelled(t *testing.T) {
	p, ext := newTestPipeline(nil, PipelineConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := p.ProcessBatch(ctx, []models.DocumentInput{textInput("a.txt", "a"), textInput("b.txt", "b")}, nil)

	assert.Empty(t, res.Documents)
	require.Len(t, res.Failures, 2)
	assert.Equal(t, "UNKNOWN", res.Failures[0].Code)
	assert.Zero(t, ext.calls)
}

func TestProcessBatchEmpty(t *testing.T) {
	p, _ := newTestPipeline(nil, PipelineConfig{})

	res := p.ProcessBatch(context.Background(), nil, nil)

	assert.NotNil(t, res.Documents)
	assert.NotNil(t, res.Failures)
	assert.Empty(t, res.Documents)
}
