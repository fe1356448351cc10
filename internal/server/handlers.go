package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/Lllllllleong/docpipeline/internal/apperr"
	"github.com/Lllllllleong/docpipeline/internal/extractor"
	"github.com/Lllllllleong/docpipeline/internal/models"
	"github.com/Lllllllleong/docpipeline/internal/services"
	"github.com/Lllllllleong/docpipeline/internal/tokenizer"
	"github.com/Lllllllleong/docpipeline/internal/validation"
	"github.com/gin-gonic/gin"
)

// multipartOverhead is allowed on top of the file bytes for form framing.
const multipartOverhead = 1 << 20

// handleProcess runs uploaded files through the pipeline. With ?stream=true
// progress is streamed as NDJSON before the final result line.
func (s *Server) handleProcess(c *gin.Context) {
	if s.limits.MaxFileBytes > 0 && s.limits.MaxBatchFiles > 0 {
		limit := s.limits.MaxFileBytes*int64(s.limits.MaxBatchFiles) + multipartOverhead
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "Request body is too large")
			return
		}
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Expected a multipart form with a files field")
		return
	}
	files := form.File["files"]
	if err := validation.ValidateBatch(len(files), s.limits); err != nil {
		respondError(c, http.StatusBadRequest, validation.Code(err), err.Error())
		return
	}

	inputs, rejected := s.uploadInputs(files)
	requestID := c.GetString(requestIDKey)
	logCtx := s.logger.With("requestId", requestID, "files", len(files), "rejected", len(rejected))
	logCtx.Info("Processing upload.")

	if c.Query("stream") == "true" {
		s.streamBatch(c, requestID, inputs, rejected)
		return
	}

	res := s.processor.ProcessBatch(c.Request.Context(), inputs, services.LogReporter(logCtx))
	resp := buildResponse(requestID, res, rejected)
	c.JSON(responseStatus(resp), resp)
}

// streamBatch writes progress events while the batch runs, then the result.
func (s *Server) streamBatch(c *gin.Context, requestID string, inputs []models.DocumentInput, rejected []models.DocumentFailure) {
	reporter := services.NewChannelReporter(64)
	var res services.BatchResult
	go func() {
		defer reporter.Close()
		res = s.processor.ProcessBatch(c.Request.Context(), inputs,
			services.Fanout(reporter.Report, services.LogReporter(s.logger.With("requestId", requestID))))
	}()

	c.Header("Content-Type", "application/x-ndjson")
	c.Status(http.StatusOK)
	enc := json.NewEncoder(c.Writer)
	for update := range reporter.Updates() {
		if err := enc.Encode(models.StreamEvent{Type: "progress", Progress: &update}); err != nil {
			s.logger.Warn("Failed to write progress event", "requestId", requestID, "error", err)
			continue
		}
		c.Writer.Flush()
	}
	resp := buildResponse(requestID, res, rejected)
	if err := enc.Encode(models.StreamEvent{Type: "result", Result: &resp}); err != nil {
		s.logger.Warn("Failed to write result event", "requestId", requestID, "error", err)
	}
	c.Writer.Flush()
	if dropped := reporter.Dropped(); dropped > 0 {
		s.logger.Info("Progress events dropped for slow client", "requestId", requestID, "dropped", dropped)
	}
}

// uploadInputs validates each file and wraps the accepted ones.
func (s *Server) uploadInputs(files []*multipart.FileHeader) ([]models.DocumentInput, []models.DocumentFailure) {
	inputs := make([]models.DocumentInput, 0, len(files))
	var rejected []models.DocumentFailure
	for _, fh := range files {
		mediaType := extractor.ResolveMediaType(fh.Header.Get("Content-Type"), fh.Filename)
		if err := validation.ValidateUpload(fh.Filename, mediaType, fh.Size, s.limits); err != nil {
			rejected = append(rejected, models.DocumentFailure{
				FileName:  fh.Filename,
				MediaType: mediaType,
				Code:      validation.Code(err),
				Message:   err.Error(),
				Cause:     err,
			})
			continue
		}
		inputs = append(inputs, models.DocumentInput{
			Name:      fh.Filename,
			MediaType: mediaType,
			Size:      fh.Size,
			Open:      func() ([]byte, error) { return readUpload(fh) },
		})
	}
	return inputs, rejected
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()
	return io.ReadAll(f)
}

func buildResponse(requestID string, res services.BatchResult, rejected []models.DocumentFailure) models.ProcessResponse {
	failures := make([]models.DocumentFailure, 0, len(rejected)+len(res.Failures))
	failures = append(failures, rejected...)
	failures = append(failures, res.Failures...)
	docs := res.Documents
	if docs == nil {
		docs = []*models.ProcessedDocument{}
	}
	return models.ProcessResponse{RequestID: requestID, Documents: docs, Failures: failures}
}

// responseStatus is 200 unless every file failed, in which case the first
// failure decides.
func responseStatus(resp models.ProcessResponse) int {
	if len(resp.Documents) > 0 || len(resp.Failures) == 0 {
		return http.StatusOK
	}
	return statusFor(resp.Failures[0].Cause)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, validation.ErrEmptyFile):
		return http.StatusBadRequest
	case errors.Is(err, validation.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, validation.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType
	default:
		return apperr.HTTPStatus(err)
	}
}

func (s *Server) handleGetTokenizerConfig(c *gin.Context) {
	c.JSON(http.StatusOK, tokenizerConfigResponse(s.tokenizer.Config()))
}

func (s *Server) handleUpdateTokenizerConfig(c *gin.Context) {
	var req models.TokenizerConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	cfg := s.tokenizer.UpdateConfig(tokenizer.ConfigUpdate{
		ModelName:  req.ModelName,
		ServiceURL: req.ServiceURL,
		APIKey:     req.APIKey,
	})
	s.logger.Info("Tokenizer configuration updated",
		"requestId", c.GetString(requestIDKey), "serviceUrl", cfg.ServiceURL, "model", cfg.ModelName)
	c.JSON(http.StatusOK, tokenizerConfigResponse(cfg))
}

func (s *Server) handleTestTokenizer(c *gin.Context) {
	c.JSON(http.StatusOK, models.ConnectionTestResponse{Connected: s.tokenizer.TestConnection(c.Request.Context())})
}

func tokenizerConfigResponse(cfg tokenizer.Config) models.TokenizerConfigResponse {
	return models.TokenizerConfigResponse{
		ModelName:  cfg.ModelName,
		ServiceURL: cfg.ServiceURL,
		APIKeySet:  cfg.APIKey != "",
		Configured: cfg.Configured(),
	}
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, models.ErrorResponse{Error: code, Message: message})
}
