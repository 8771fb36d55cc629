// Package handlers adapts HTTP requests and storage events to watermark jobs.
package handlers

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Lllllllleong/watermarkflow/internal/models"
	"github.com/Lllllllleong/watermarkflow/internal/services"
	"github.com/Lllllllleong/watermarkflow/internal/watermark"
)

// maxBodyBytes caps the JSON request body.
const maxBodyBytes = 64 << 10

//go:embed request.schema.json
var requestSchema string

// Processor runs one watermark job.
type Processor interface {
	Process(ctx context.Context, job services.Job) services.Outcome
}

// HTTPHandler serves POST requests naming a file in the input prefix, either as
// the file_name query parameter or in a JSON body.
type HTTPHandler struct {
	proc     Processor
	defaults watermark.Spec
	schema   *jsonschema.Schema
}

func NewHTTPHandler(proc Processor, defaults watermark.Spec) (*HTTPHandler, error) {
	schema, err := jsonschema.CompileString("request.schema.json", requestSchema)
	if err != nil {
		return nil, fmt.Errorf("compile request schema: %w", err)
	}
	return &HTTPHandler{proc: proc, defaults: defaults, schema: schema}, nil
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, models.WatermarkResponse{Status: "error", Message: "use POST"})
		return
	}

	req, err := h.decodeRequest(r)
	if err != nil {
		slog.Warn("Could not decode request body.", "error", err)
		writeJSON(w, http.StatusBadRequest, models.WatermarkResponse{Status: "error", Message: err.Error()})
		return
	}
	if name := r.URL.Query().Get("file_name"); name != "" {
		req.FileName = name
	}
	if req.FileName == "" {
		writeJSON(w, http.StatusBadRequest, models.WatermarkResponse{Status: "error", Message: "file_name is required"})
		return
	}

	job := services.Job{FileName: req.FileName}
	if req.Watermark != nil {
		spec, err := services.ApplyOptions(h.defaults, req.Watermark)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, models.WatermarkResponse{
				Status:   "error",
				FileName: req.FileName,
				Message:  "invalid watermark options: " + err.Error(),
			})
			return
		}
		job.Spec = &spec
	}

	out := h.proc.Process(r.Context(), job)
	writeJSON(w, statusCode(out), response(req.FileName, out))
}

// decodeRequest returns an empty request when there is no body.
func (h *HTTPHandler) decodeRequest(r *http.Request) (models.WatermarkRequest, error) {
	var req models.WatermarkRequest
	if r.Body == nil {
		return req, nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return req, fmt.Errorf("could not read body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return req, errors.New("request body too large")
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return req, nil
	}

	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return req, fmt.Errorf("could not parse JSON: %w", err)
	}
	if err := h.schema.Validate(raw); err != nil {
		return req, fmt.Errorf("request does not match schema: %w", err)
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, fmt.Errorf("could not parse JSON: %w", err)
	}
	return req, nil
}

func statusCode(out services.Outcome) int {
	if out.Err == nil {
		return http.StatusOK
	}
	switch out.Err.Kind {
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindUnsupportedFormat:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func response(fileName string, out services.Outcome) models.WatermarkResponse {
	res := models.WatermarkResponse{FileName: fileName}
	if out.Result != nil {
		res.JobID = out.Result.JobID
		res.OutputLocation = out.Result.OutputLocation
	}
	switch {
	case out.Err == nil:
		res.Status = string(models.StatusDone)
	case out.Err.Kind.UserFacing():
		res.Status = "error"
		res.Message = out.Err.Detail
	default:
		// Internal causes stay in the logs.
		res.Status = string(models.StatusFailed)
		res.Message = fmt.Sprintf("%s: %s", out.Err.Kind, out.Err.Detail)
	}
	return res
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write response.", "error", err)
	}
}
