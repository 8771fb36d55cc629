package main

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/Lllllllleong/watermarkflow/internal/handlers"
	"github.com/Lllllllleong/watermarkflow/internal/services"
)

var (
	handler *handlers.EventHandler
	once    sync.Once
	initErr error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	api.DisableConfigDir()

	// Triggered by object finalization in the input bucket.
	functions.CloudEvent("WatermarkOnUpload", watermarkOnUpload)
}

// main is required by the Go Functions Framework.
func main() {}

func watermarkOnUpload(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		var watermarker *services.WatermarkerFunction
		watermarker, initErr = services.NewWatermarker(context.Background())
		if initErr != nil {
			return
		}
		cfg := watermarker.Config()
		handler = handlers.NewEventHandler(watermarker, cfg.InputBucket, cfg.InputPrefix, cfg.WatermarkPrefix)
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}
	return handler.Handle(ctx, e)
}
