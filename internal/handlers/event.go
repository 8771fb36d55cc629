package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/Lllllllleong/watermarkflow/internal/models"
	"github.com/Lllllllleong/watermarkflow/internal/services"
)

// EventHandler runs a job for every object finalized under the input prefix.
type EventHandler struct {
	proc            Processor
	bucket          string
	inputPrefix     string
	watermarkPrefix string
}

// NewEventHandler accepts events for bucket. Objects outside inputPrefix, and
// anything written under watermarkPrefix, are ignored.
func NewEventHandler(proc Processor, bucket, inputPrefix, watermarkPrefix string) *EventHandler {
	return &EventHandler{
		proc:            proc,
		bucket:          bucket,
		inputPrefix:     dirPrefix(inputPrefix),
		watermarkPrefix: dirPrefix(watermarkPrefix),
	}
}

func dirPrefix(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}
	return p + "/"
}

// Handle returns an error only for failures worth a retry. Requests that can
// never succeed are logged and acknowledged.
func (h *EventHandler) Handle(ctx context.Context, e cloudevents.Event) error {
	var gcsEvent models.GCSEvent
	if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}
	logCtx := slog.With("gcsBucket", gcsEvent.Bucket, "gcsObject", gcsEvent.Name, "eventId", e.ID())

	fileName, ok := h.fileName(gcsEvent)
	if !ok {
		logCtx.Debug("Ignoring object outside the input prefix.")
		return nil
	}

	out := h.proc.Process(ctx, services.Job{FileName: fileName})
	switch {
	case out.Err == nil:
		return nil
	case out.Err.Kind.UserFacing():
		logCtx.Warn("Skipping object.", "kind", out.Err.Kind, "detail", out.Err.Detail)
		return nil
	default:
		return out.Err
	}
}

func (h *EventHandler) fileName(e models.GCSEvent) (string, bool) {
	if h.bucket != "" && e.Bucket != h.bucket {
		return "", false
	}
	if strings.HasSuffix(e.Name, "/") {
		return "", false
	}
	if h.watermarkPrefix != "" && strings.HasPrefix(e.Name, h.watermarkPrefix) {
		return "", false
	}
	if !strings.HasPrefix(e.Name, h.inputPrefix) {
		return "", false
	}
	name := strings.TrimPrefix(e.Name, h.inputPrefix)
	return name, name != ""
}
