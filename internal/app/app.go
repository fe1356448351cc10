// Package app wires configuration into the pipeline components shared by
// the command line tool and the Cloud Functions entry points.
package app

import (
	"context"
	"log/slog"

	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/docpipeline/internal/config"
	"github.com/Lllllllleong/docpipeline/internal/extractor"
	"github.com/Lllllllleong/docpipeline/internal/gcp"
	"github.com/Lllllllleong/docpipeline/internal/inputs"
	"github.com/Lllllllleong/docpipeline/internal/normalizer"
	"github.com/Lllllllleong/docpipeline/internal/server"
	"github.com/Lllllllleong/docpipeline/internal/services"
	"github.com/Lllllllleong/docpipeline/internal/tokenizer"
	"github.com/Lllllllleong/docpipeline/internal/validation"
)

// App holds the wired components.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Limits    validation.Limits
	Tokenizer *tokenizer.Client
	Pipeline  *services.Pipeline
	Resolver  *inputs.Resolver
	// Store is nil when no storage client could be created.
	Store gcp.ObjectStore

	storageClient *storage.Client
}

// Options control which optional components New builds.
type Options struct {
	// WithStorage creates a Cloud Storage client. Failure is logged and
	// leaves Store nil so local inputs keep working.
	WithStorage bool
}

// New builds every component from cfg.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) *App {
	if logger == nil {
		logger = slog.Default()
	}
	ext := extractor.New(logger)
	var normOpts []normalizer.Option
	if len(cfg.Normalizer.SectionKeywords) > 0 {
		normOpts = append(normOpts, normalizer.WithSectionKeywords(cfg.Normalizer.SectionKeywords))
	}
	tok := tokenizer.New(cfg.Tokenizer.Client(),
		tokenizer.WithTimeout(cfg.Tokenizer.Timeout),
		tokenizer.WithLogger(logger))

	pipeline := services.NewPipeline(ext, normalizer.New(normOpts...), tok, services.PipelineConfig{
		NormalizeOptions: cfg.Normalizer.Options,
		Variant:          cfg.Normalizer.Variant,
		Tokenize:         cfg.Tokenizer.Enabled,
	}, logger)

	limits := validation.Limits{
		MaxFileBytes:  cfg.Server.MaxFileBytes,
		MaxBatchFiles: cfg.Server.MaxBatchFiles,
		Supported:     ext.Supports,
	}

	a := &App{
		Config:    cfg,
		Logger:    logger,
		Limits:    limits,
		Tokenizer: tok,
		Pipeline:  pipeline,
	}
	if opts.WithStorage {
		client, err := gcp.NewStorageClient(ctx, cfg.Storage.Endpoint)
		if err != nil {
			logger.Warn("Cloud Storage unavailable, gs:// sources will be rejected", "error", err)
		} else {
			a.storageClient = client
			a.Store = gcp.NewGCSStore(client)
		}
	}
	a.Resolver = inputs.NewResolver(a.Store, limits, cfg.Storage.FetchConcurrency, logger)
	return a
}

// Server returns the HTTP API backed by this App.
func (a *App) Server() *server.Server {
	return server.NewServer(a.Pipeline, a.Tokenizer, a.Limits, a.Logger)
}

// Close releases the storage client, if any.
func (a *App) Close() error {
	if a.storageClient == nil {
		return nil
	}
	return a.storageClient.Close()
}
