package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/docpipeline/internal/app"
	"github.com/Lllllllleong/docpipeline/internal/config"
	"github.com/Lllllllleong/docpipeline/internal/logging"
	"github.com/Lllllllleong/docpipeline/internal/models"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

var (
	processor *app.App
	handler   http.Handler
	once      sync.Once
	initErr   error
)

func init() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	functions.HTTP("ProcessDocuments", processDocuments)
	functions.CloudEvent("ProcessUploadedDocument", processUploadedDocument)
}

// main is required by the Go Functions Framework.
func main() {}

func setup() error {
	once.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			initErr = err
			return
		}
		logger, err := logging.Setup(os.Stdout, cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			initErr = err
			return
		}
		processor = app.New(context.Background(), cfg, logger, app.Options{WithStorage: true})
		handler = processor.Server().ProcessHandler()
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
	}
	return initErr
}

// processDocuments accepts multipart uploads and returns the processed
// documents, or an NDJSON progress stream with ?stream=true.
func processDocuments(w http.ResponseWriter, r *http.Request) {
	if err := setup(); err != nil {
		http.Error(w, "Internal Server Error: function failed to initialize.", http.StatusInternalServerError)
		return
	}
	handler.ServeHTTP(w, r)
}

// processUploadedDocument handles storage finalize events.
func processUploadedDocument(ctx context.Context, e cloudevents.Event) error {
	if err := setup(); err != nil {
		return err
	}

	var gcsEvent models.GCSEvent
	if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	_, err := processor.ProcessUploadedObject(ctx, gcsEvent)
	return err
}
