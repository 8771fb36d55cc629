package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/Lllllllleong/watermarkflow/internal/handlers"
	"github.com/Lllllllleong/watermarkflow/internal/services"
)

var (
	handler *handlers.HTTPHandler
	once    sync.Once
	initErr error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// pdfcpu must not try to write its config dir on a read-only filesystem.
	api.DisableConfigDir()

	functions.HTTP("HandleAddWatermark", handleAddWatermark)
}

// main is required by the Go Functions Framework.
func main() {}

func handleAddWatermark(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		var watermarker *services.WatermarkerFunction
		watermarker, initErr = services.NewWatermarker(context.Background())
		if initErr != nil {
			return
		}
		handler, initErr = handlers.NewHTTPHandler(watermarker, watermarker.Config().Watermark)
	})
	if initErr != nil {
		slog.Error("Critical: Watermarker initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}
	handler.ServeHTTP(w, r)
}
