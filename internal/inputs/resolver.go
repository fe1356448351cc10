// Package inputs turns local paths and gs:// URIs into validated
// document inputs whose bytes are read only when the pipeline asks.
package inputs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/Lllllllleong/docpipeline/internal/extractor"
	"github.com/Lllllllleong/docpipeline/internal/gcp"
	"github.com/Lllllllleong/docpipeline/internal/models"
	"github.com/Lllllllleong/docpipeline/internal/validation"
	"golang.org/x/sync/errgroup"
)

// Resolver looks up sources and validates them against Limits.
type Resolver struct {
	store       gcp.ObjectStore
	limits      validation.Limits
	concurrency int
	logger      *slog.Logger
}

// NewResolver creates a Resolver. store may be nil when no gs:// sources
// are expected.
func NewResolver(store gcp.ObjectStore, limits validation.Limits, concurrency int, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		store:       store,
		limits:      limits,
		concurrency: max(concurrency, 1),
		logger:      logger,
	}
}

type resolved struct {
	input   models.DocumentInput
	failure *models.DocumentFailure
}

// Resolve stats every source concurrently and returns the accepted inputs
// and the rejected ones, both in source order. Only a batch-level problem,
// such as too many sources, is returned as an error.
func (r *Resolver) Resolve(ctx context.Context, sources []string) ([]models.DocumentInput, []models.DocumentFailure, error) {
	if err := validation.ValidateBatch(len(sources), r.limits); err != nil {
		return nil, nil, err
	}

	results := make([]resolved, len(sources))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(r.concurrency)
	for i, src := range sources {
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.resolve(gctx, ctx, src)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, fmt.Errorf("resolve inputs: %w", err)
	}

	inputs := make([]models.DocumentInput, 0, len(sources))
	failures := []models.DocumentFailure{}
	for _, res := range results {
		if res.failure != nil {
			failures = append(failures, *res.failure)
			continue
		}
		inputs = append(inputs, res.input)
	}
	return inputs, failures, nil
}

// resolve stats under statCtx; the returned input reads under readCtx,
// which outlives the stat phase.
func (r *Resolver) resolve(statCtx, readCtx context.Context, src string) resolved {
	if gcp.IsURI(src) {
		return r.resolveObject(statCtx, readCtx, src)
	}
	return r.resolveFile(src)
}

func (r *Resolver) resolveFile(src string) resolved {
	name := filepath.Base(src)
	mediaType := extractor.MediaTypeFromName(src)
	info, err := os.Stat(src)
	if err != nil {
		code := "READ_FAILED"
		if errors.Is(err, fs.ErrNotExist) {
			code = "NOT_FOUND"
		}
		return r.reject(src, name, mediaType, code, err)
	}
	if info.IsDir() {
		return r.reject(src, name, mediaType, "NOT_A_FILE", fmt.Errorf("%s is a directory", src))
	}
	if err := validation.ValidateUpload(name, mediaType, info.Size(), r.limits); err != nil {
		return r.reject(src, name, mediaType, validation.Code(err), err)
	}
	return resolved{input: models.DocumentInput{
		Name:      name,
		MediaType: mediaType,
		Size:      info.Size(),
		Open:      func() ([]byte, error) { return os.ReadFile(src) },
	}}
}

func (r *Resolver) resolveObject(statCtx, readCtx context.Context, src string) resolved {
	uri, err := gcp.ParseURI(src)
	if err != nil {
		return r.reject(src, src, "", "INVALID_SOURCE", err)
	}
	name := path.Base(uri.Object)
	if r.store == nil {
		return r.reject(src, name, "", "STORAGE_UNAVAILABLE", errors.New("Cloud Storage is not configured"))
	}
	info, err := r.store.Stat(statCtx, uri)
	if err != nil {
		code := "READ_FAILED"
		if errors.Is(err, gcp.ErrObjectNotFound) {
			code = "NOT_FOUND"
		}
		return r.reject(src, name, "", code, err)
	}
	mediaType := extractor.ResolveMediaType(info.ContentType, name)
	if err := validation.ValidateUpload(name, mediaType, info.Size, r.limits); err != nil {
		return r.reject(src, name, mediaType, validation.Code(err), err)
	}
	store, limit := r.store, r.limits.MaxFileBytes
	return resolved{input: models.DocumentInput{
		Name:      name,
		MediaType: mediaType,
		Size:      info.Size,
		Open:      func() ([]byte, error) { return store.Read(readCtx, uri, limit) },
	}}
}

func (r *Resolver) reject(src, name, mediaType, code string, err error) resolved {
	r.logger.Warn("Rejected input", "source", src, "code", code, "error", err)
	return resolved{failure: &models.DocumentFailure{
		FileName:  name,
		MediaType: mediaType,
		Code:      code,
		Message:   err.Error(),
		Cause:     err,
	}}
}
