package app

import (
	"context"
	"errors"

	"github.com/Lllllllleong/docpipeline/internal/gcp"
	"github.com/Lllllllleong/docpipeline/internal/models"
	"github.com/Lllllllleong/docpipeline/internal/services"
)

// ProcessUploadedObject processes the object named by a storage finalize
// event and logs the outcome. Document failures are logged and not
// returned; a retry would fail the same way.
func (a *App) ProcessUploadedObject(ctx context.Context, event models.GCSEvent) (services.BatchResult, error) {
	logCtx := a.Logger.With("bucket", event.Bucket, "object", event.Name)
	if event.Bucket == "" || event.Name == "" {
		return services.BatchResult{}, errors.New("event is missing bucket or object name")
	}
	uri := gcp.ObjectURI{Bucket: event.Bucket, Object: event.Name}.String()
	inputs, rejected, err := a.Resolver.Resolve(ctx, []string{uri})
	if err != nil {
		return services.BatchResult{}, err
	}

	res := a.Pipeline.ProcessBatch(ctx, inputs, services.LogReporter(logCtx))
	res.Failures = append(append(make([]models.DocumentFailure, 0, 1), rejected...), res.Failures...)
	for _, f := range res.Failures {
		logCtx.Warn("Uploaded document was not processed", "code", f.Code, "error", f.Message)
	}

	logCtx.Info("Finished processing uploaded document.", "documents", len(res.Documents), "failures", len(res.Failures))
	return res, nil
}
