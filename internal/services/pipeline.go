package services

import (
	"context"
	"errors"
	"log/slog"
	"path"
	"time"

	"github.com/Lllllllleong/watermarkflow/internal/models"
	"github.com/Lllllllleong/watermarkflow/internal/watermark"
	"github.com/google/uuid"
)

// State names a step of the watermark job.
type State string

const (
	StateValidating     State = "Validating"
	StateFetching       State = "Fetching"
	StateConverting     State = "Converting"
	StateWatermarking   State = "Watermarking"
	StateUploading      State = "Uploading"
	StateLoggingSuccess State = "LoggingSuccess"
	StateLoggingFailure State = "LoggingFailure"
)

// The pipeline depends only on the small interfaces below so each integration
// can be replaced in tests.

type ExistenceChecker interface {
	Exists(ctx context.Context, object string) bool
}

type BlobFetcher interface {
	Fetch(ctx context.Context, object string) ([]byte, error)
}

type BlobUploader interface {
	Upload(ctx context.Context, data []byte, object string) (string, error)
}

type FormatConverter interface {
	Convert(ctx context.Context, data []byte) ([]byte, error)
}

type WatermarkApplier interface {
	Apply(ctx context.Context, doc []byte, spec watermark.Spec) ([]byte, error)
}

type StatusLogger interface {
	Record(ctx context.Context, rec models.StatusRecord) error
}

// SourceStore is where source documents are read from.
type SourceStore interface {
	ExistenceChecker
	BlobFetcher
}

// WorkflowNotifier is told about every successful job.
type WorkflowNotifier interface {
	Trigger(ctx context.Context, arg models.WorkflowArgument) error
}

// Dependencies are the collaborators of a Pipeline. Notifier may be nil.
type Dependencies struct {
	Source    SourceStore
	Sink      BlobUploader
	Converter FormatConverter
	Watermark WatermarkApplier
	StatusLog StatusLogger
	Notifier  WorkflowNotifier
	Logger    *slog.Logger
}

// PipelineConfig holds the naming and timing settings of a Pipeline.
type PipelineConfig struct {
	InputPrefix     string
	WatermarkPrefix string
	DefaultSpec     watermark.Spec
	// StatusTimeout bounds each status write. Writes outlive cancellation of the
	// job context so a disconnected caller still leaves a record behind.
	StatusTimeout time.Duration
}

// Job is one request to watermark a stored document.
type Job struct {
	FileName string
	// Spec overrides the configured default watermark when non-nil.
	Spec *watermark.Spec
}

// Outcome is the result of Run. A successful job carries a done Result and no
// Err. A failure carries Err, plus a failed Result once a status write was made.
type Outcome struct {
	Result *models.JobResult
	Err    *JobError
}

// OK reports whether the job finished with status done.
func (o Outcome) OK() bool {
	return o.Err == nil && o.Result != nil && o.Result.Status == models.StatusDone
}

// Pipeline runs watermark jobs. It holds no per-job state and is safe for
// concurrent use.
type Pipeline struct {
	cfg    PipelineConfig
	deps   Dependencies
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// NewPipeline returns a Pipeline using deps.
func NewPipeline(cfg PipelineConfig, deps Dependencies) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.StatusTimeout <= 0 {
		cfg.StatusTimeout = 10 * time.Second
	}
	return &Pipeline{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// SourceObject is the storage key a file name is read from.
func (p *Pipeline) SourceObject(fileName string) string {
	return path.Join(p.cfg.InputPrefix, fileName)
}

// Run executes one job. The source is never modified and nothing is uploaded
// unless every earlier step succeeded.
func (p *Pipeline) Run(ctx context.Context, job Job) Outcome {
	jobID := p.newID()
	logCtx := p.logger.With("jobId", jobID, "fileName", job.FileName)

	format, err := ClassifyName(job.FileName)
	if err != nil {
		logCtx.Warn("Rejected file name.", "error", err)
		return Outcome{Err: &JobError{Kind: KindUnsupportedFormat, State: StateValidating, Detail: err.Error()}}
	}

	source := p.SourceObject(job.FileName)
	if !p.deps.Source.Exists(ctx, source) {
		logCtx.Info("Source document not found.", "object", source)
		return Outcome{Err: &JobError{Kind: KindNotFound, State: StateValidating, Detail: "file not found: " + job.FileName}}
	}

	spec := p.cfg.DefaultSpec
	if job.Spec != nil {
		spec = *job.Spec
	}
	result := &models.JobResult{
		JobID:      jobID,
		InputName:  job.FileName,
		OutputName: OutputName(job.FileName),
		Status:     models.StatusInProgress,
	}
	logCtx.Info("Starting watermark job.", "format", format, "object", source)

	data, err := p.deps.Source.Fetch(ctx, source)
	if err != nil {
		return p.fail(ctx, logCtx, result, &JobError{Kind: KindFetch, State: StateFetching, Detail: "could not read source", Err: err})
	}

	if format == FormatEditable {
		data, err = p.deps.Converter.Convert(ctx, data)
		if err != nil {
			return p.fail(ctx, logCtx, result, &JobError{Kind: KindConversion, State: StateConverting, Detail: "could not convert to PDF", Err: err})
		}
		logCtx.Info("Converted editable document.", "bytes", len(data))
	}

	marked, err := p.deps.Watermark.Apply(ctx, data, spec)
	if err != nil {
		kind := KindComposition
		if errors.Is(err, watermark.ErrRender) {
			kind = KindRender
		}
		return p.fail(ctx, logCtx, result, &JobError{Kind: kind, State: StateWatermarking, Detail: "could not watermark document", Err: err})
	}

	destination := path.Join(p.cfg.WatermarkPrefix, result.OutputName)
	location, err := p.deps.Sink.Upload(ctx, marked, destination)
	if err != nil {
		return p.fail(ctx, logCtx, result, &JobError{Kind: KindUpload, State: StateUploading, Detail: "could not store watermarked document", Err: err})
	}

	result.OutputLocation = location
	result.Status = models.StatusDone
	result.Timestamp = p.now()
	p.record(ctx, logCtx, StateLoggingSuccess, result)
	logCtx.Info("Watermark job finished.", "outputLocation", location)

	if p.deps.Notifier != nil {
		arg := models.WorkflowArgument{JobID: jobID, InputName: job.FileName, OutputLocation: location}
		if err := p.deps.Notifier.Trigger(ctx, arg); err != nil {
			logCtx.Error("Failed to trigger downstream workflow.", "error", err)
		}
	}
	return Outcome{Result: result}
}

// fail records the failed status and returns the job error unchanged.
func (p *Pipeline) fail(ctx context.Context, logCtx *slog.Logger, result *models.JobResult, jobErr *JobError) Outcome {
	logCtx.Error("Watermark job failed.", "kind", jobErr.Kind, "state", jobErr.State, "error", jobErr)
	result.OutputLocation = ""
	result.Status = models.StatusFailed
	result.Timestamp = p.now()
	p.record(ctx, logCtx, StateLoggingFailure, result)
	return Outcome{Result: result, Err: jobErr}
}

// record writes the status row. A failed write is logged and otherwise ignored.
func (p *Pipeline) record(ctx context.Context, logCtx *slog.Logger, state State, result *models.JobResult) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.cfg.StatusTimeout)
	defer cancel()

	if err := p.deps.StatusLog.Record(writeCtx, models.NewStatusRecord(*result)); err != nil {
		logCtx.Error("Failed to write status record.", "state", state, "status", result.Status, "error", err)
	}
}
