// Package tokenizer is a client for the remote tokenization service.
package tokenizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Lllllllleong/docpipeline/internal/apperr"
	"github.com/Lllllllleong/docpipeline/internal/models"
)

// DefaultTimeout bounds a single tokenization request.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of a failed response is echoed back.
const maxErrorBody = 4 << 10

// ProgressFunc receives tokenization progress in the range [0,100].
type ProgressFunc func(percent int, message string)

type tokenizeRequest struct {
	Text           string `json:"text"`
	ModelName      string `json:"model_name"`
	ReturnTokens   bool   `json:"return_tokens"`
	ReturnTokenIDs bool   `json:"return_token_ids"`
	TestConnection bool   `json:"test_connection,omitempty"`
}

type tokenizeResponse struct {
	Tokens    []string `json:"tokens"`
	TokenIDs  []int    `json:"token_ids"`
	Model     string   `json:"model"`
	ModelName string   `json:"model_name"`
}

// Client calls the tokenization service. The active Config can be swapped
// at any time; a request in flight keeps the Config it started with.
type Client struct {
	config     atomic.Pointer[Config]
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Client with the given initial configuration.
func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.SetConfig(cfg)
	return c
}

// Config returns a snapshot of the active configuration.
func (c *Client) Config() Config {
	return *c.config.Load()
}

// SetConfig replaces the active configuration.
func (c *Client) SetConfig(cfg Config) {
	cfg.ModelName = strings.TrimSpace(cfg.ModelName)
	cfg.ServiceURL = strings.TrimSpace(cfg.ServiceURL)
	if cfg.ModelName == "" {
		cfg.ModelName = DefaultModelName
	}
	c.config.Store(&cfg)
}

// UpdateConfig merges u into the active configuration and returns the result.
func (c *Client) UpdateConfig(u ConfigUpdate) Config {
	for {
		old := c.config.Load()
		next := old.apply(u)
		if next.ModelName == "" {
			next.ModelName = DefaultModelName
		}
		if c.config.CompareAndSwap(old, &next) {
			return next
		}
	}
}

// Tokenize sends text to the service. Failures are *apperr.Error values of
// kind ErrNotConfigured, ErrTimeout, ErrNetwork, ErrService or
// ErrInvalidResponse.
func (c *Client) Tokenize(ctx context.Context, text string, onProgress ProgressFunc) (*models.TokenizationResult, error) {
	if onProgress == nil {
		onProgress = func(int, string) {}
	}
	cfg := c.Config()
	if !cfg.Configured() {
		return nil, apperr.New(apperr.ErrNotConfigured, "Tokenizer service URL is not configured", nil)
	}
	logCtx := c.logger.With("serviceUrl", cfg.ServiceURL, "model", cfg.ModelName)

	onProgress(10, "Connecting to tokenizer service")
	payload, err := c.post(ctx, cfg, tokenizeRequest{
		Text:           text,
		ModelName:      cfg.ModelName,
		ReturnTokens:   true,
		ReturnTokenIDs: true,
	}, func() { onProgress(30, "Sending text to tokenizer") })
	if err != nil {
		logCtx.Warn("Tokenization request failed", "error", err, "code", apperr.Code(err))
		return nil, err
	}
	onProgress(70, "Processing tokenizer response")

	if payload.Tokens == nil {
		return nil, apperr.New(apperr.ErrInvalidResponse, "Tokenizer response did not contain a tokens array", nil)
	}
	ids := payload.TokenIDs
	if ids == nil {
		ids = []int{}
	}
	if len(ids) > 0 && len(ids) != len(payload.Tokens) {
		return nil, apperr.New(apperr.ErrInvalidResponse,
			fmt.Sprintf("Tokenizer returned %d token ids for %d tokens", len(ids), len(payload.Tokens)), nil)
	}

	onProgress(90, "Finalizing tokenization")
	model := cfg.ModelName
	switch {
	case payload.ModelName != "":
		model = payload.ModelName
	case payload.Model != "":
		model = payload.Model
	}
	result := &models.TokenizationResult{
		Tokens:      payload.Tokens,
		TokenIDs:    ids,
		TokenCount:  len(payload.Tokens),
		Model:       model,
		CompletedAt: c.now(),
	}
	onProgress(100, "Tokenization complete")
	logCtx.Debug("Text tokenized.", "tokens", result.TokenCount)
	return result, nil
}

// TestConnection probes the service with a marker request. Any failure,
// including a missing configuration, yields false.
func (c *Client) TestConnection(ctx context.Context) bool {
	cfg := c.Config()
	if !cfg.Configured() {
		return false
	}
	_, err := c.post(ctx, cfg, tokenizeRequest{
		Text:           "test",
		ModelName:      cfg.ModelName,
		ReturnTokens:   true,
		ReturnTokenIDs: true,
		TestConnection: true,
	}, nil)
	if err != nil {
		c.logger.Info("Tokenizer connection test failed", "serviceUrl", cfg.ServiceURL, "error", err)
		return false
	}
	return true
}

// post performs one request under the client timeout and decodes a 2xx body.
func (c *Client) post(ctx context.Context, cfg Config, body tokenizeRequest, onSend func()) (*tokenizeResponse, error) {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return nil, apperr.New(apperr.ErrUnknown, "Failed to encode tokenizer request", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, cfg.ServiceURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, apperr.New(apperr.ErrNetwork, fmt.Sprintf("Invalid tokenizer service URL %q", cfg.ServiceURL), err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	}

	if onSend != nil {
		onSend()
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		e := apperr.New(apperr.ErrService,
			fmt.Sprintf("Tokenizer service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(text))), nil)
		e.StatusCode = resp.StatusCode
		return nil, e
	}

	var payload tokenizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		if reqCtx.Err() != nil {
			return nil, transportError(reqCtx.Err())
		}
		return nil, apperr.New(apperr.ErrInvalidResponse, "Tokenizer response is not valid JSON", err)
	}
	return &payload, nil
}

func transportError(err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return apperr.New(apperr.ErrTimeout, "Tokenizer request timed out", err)
	case errors.Is(err, context.Canceled):
		return apperr.New(apperr.ErrNetwork, "Tokenizer request cancelled", err)
	default:
		return apperr.New(apperr.ErrNetwork, fmt.Sprintf("Failed to reach tokenizer service: %v", err), err)
	}
}
