package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Lllllllleong/watermarkflow/internal/convert"
	"github.com/Lllllllleong/watermarkflow/internal/gcp"
	"github.com/Lllllllleong/watermarkflow/internal/statuslog"
	"github.com/Lllllllleong/watermarkflow/internal/watermark"
)

// WatermarkerFunction is the watermark service as deployed: one Pipeline wired to
// Cloud Storage, LibreOffice and the configured status backend.
type WatermarkerFunction struct {
	clients  *gcp.Clients
	input    *gcp.BlobStore
	pipeline *Pipeline
	closers  []io.Closer
	config   WatermarkerConfig
}

// NewWatermarker loads configuration from the environment and builds every
// client. Called once by the cmd entry points.
func NewWatermarker(ctx context.Context) (*WatermarkerFunction, error) {
	config := LoadConfig()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return NewWatermarkerWithConfig(ctx, config)
}

// NewWatermarkerWithConfig builds the service from an explicit configuration.
func NewWatermarkerWithConfig(ctx context.Context, config WatermarkerConfig) (*WatermarkerFunction, error) {
	clients, err := gcp.NewClients(ctx, gcp.ClientOptions{
		ProjectID:     config.ProjectID,
		WithFirestore: config.Status.Backend == BackendFirestore,
		WithWorkflows: config.Workflow.ID != "",
	})
	if err != nil {
		return nil, err
	}

	f := &WatermarkerFunction{clients: clients, config: config}
	statusLog, err := f.openStatusLog(ctx)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	logger := slog.Default()
	f.input = gcp.NewBlobStore(clients.Storage, config.InputBucket, 0)
	deps := Dependencies{
		Source:    f.input,
		Sink:      gcp.NewBlobStore(clients.Storage, config.OutputBucket, config.UploadTimeout),
		Converter: convert.NewLibreOffice(config.Converter, convert.ExecRunner{Logger: logger}, logger),
		Watermark: watermark.NewCompositor(config.RenderParallelism, logger),
		StatusLog: statusLog,
		Logger:    logger,
	}
	if config.Workflow.ID != "" {
		deps.Notifier = gcp.NewWorkflowTrigger(clients.Executions, config.ProjectID, config.Workflow.Location, config.Workflow.ID)
	}

	f.pipeline = NewPipeline(PipelineConfig{
		InputPrefix:     config.InputPrefix,
		WatermarkPrefix: config.WatermarkPrefix,
		DefaultSpec:     config.Watermark,
		StatusTimeout:   config.StatusTimeout,
	}, deps)

	slog.Info("Watermarker initialized.",
		"inputBucket", config.InputBucket,
		"outputBucket", config.OutputBucket,
		"statusBackend", config.Status.Backend,
		"workflowId", config.Workflow.ID,
	)
	return f, nil
}

func (f *WatermarkerFunction) openStatusLog(ctx context.Context) (StatusLogger, error) {
	logger := slog.Default()
	switch f.config.Status.Backend {
	case BackendPostgres:
		pg, err := statuslog.OpenPostgres(ctx, f.config.Status.Postgres, logger)
		if err != nil {
			return nil, err
		}
		f.closers = append(f.closers, pg)
		return pg, nil
	case BackendSQLite:
		lite, err := statuslog.OpenSQLite(ctx, f.config.Status.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		f.closers = append(f.closers, lite)
		return lite, nil
	case BackendFirestore:
		return statuslog.NewFirestore(f.clients.Firestore, f.config.Status.FirestoreCollection, logger), nil
	default:
		return nil, fmt.Errorf("unknown status backend %q", f.config.Status.Backend)
	}
}

// Process runs one job.
func (f *WatermarkerFunction) Process(ctx context.Context, job Job) Outcome {
	return f.pipeline.Run(ctx, job)
}

// Config returns the configuration the service was built with.
func (f *WatermarkerFunction) Config() WatermarkerConfig {
	return f.config
}

// ListSources returns the file names, relative to the input prefix, of every
// object stored under it.
func (f *WatermarkerFunction) ListSources(ctx context.Context) ([]string, error) {
	prefix := f.config.InputPrefix
	if prefix != "" {
		prefix += "/"
	}
	objects, err := f.input.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(objects))
	for _, o := range objects {
		if name := o[len(prefix):]; name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// Close releases the status backend and every client.
func (f *WatermarkerFunction) Close() error {
	var errs []error
	for _, c := range f.closers {
		errs = append(errs, c.Close())
	}
	if f.clients != nil {
		errs = append(errs, f.clients.Close())
	}
	return errors.Join(errs...)
}
