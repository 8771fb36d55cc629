package services

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/color"

	"github.com/Lllllllleong/watermarkflow/internal/convert"
	"github.com/Lllllllleong/watermarkflow/internal/gcp"
	"github.com/Lllllllleong/watermarkflow/internal/statuslog"
	"github.com/Lllllllleong/watermarkflow/internal/watermark"
)

// Status log backends selectable with STATUS_BACKEND.
const (
	BackendPostgres  = "postgres"
	BackendSQLite    = "sqlite"
	BackendFirestore = "firestore"
)

// WatermarkerConfig holds everything the watermark service reads from its
// environment.
type WatermarkerConfig struct {
	ProjectID       string
	InputBucket     string
	OutputBucket    string
	InputPrefix     string
	WatermarkPrefix string

	Watermark         watermark.Spec
	RenderParallelism int
	UploadTimeout     time.Duration
	StatusTimeout     time.Duration

	Status    StatusConfig
	Converter convert.Config
	Workflow  WorkflowConfig
}

// StatusConfig selects and configures the status log backend.
type StatusConfig struct {
	Backend             string
	Postgres            statuslog.PostgresConfig
	SQLitePath          string
	FirestoreCollection string
}

// WorkflowConfig names the workflow started after each successful job. An empty
// ID disables the hand-off.
type WorkflowConfig struct {
	ID       string
	Location string
}

// LoadConfig reads the service configuration from environment variables.
func LoadConfig() WatermarkerConfig {
	inputBucket := gcp.GetEnv("INPUT_BUCKET", "")
	return WatermarkerConfig{
		ProjectID:       gcp.GetEnv("PROJECT_ID", os.Getenv("GCP_PROJECT")),
		InputBucket:     inputBucket,
		OutputBucket:    gcp.GetEnv("OUTPUT_BUCKET", inputBucket),
		InputPrefix:     strings.Trim(gcp.GetEnv("INPUT_PREFIX", "translated-zone"), "/"),
		WatermarkPrefix: strings.Trim(gcp.GetEnv("WATERMARK_PREFIX", "watermarked-zone"), "/"),

		Watermark: watermark.Spec{
			Text:            gcp.GetEnv("WATERMARK_TEXT", watermark.DefaultText),
			FontName:        gcp.GetEnv("WATERMARK_FONT", watermark.DefaultFontName),
			FontSize:        getEnvAsFloat("WATERMARK_FONT_SIZE", watermark.DefaultFontSize),
			FillColor:       getEnvAsColor("WATERMARK_COLOR", watermark.DefaultFillColor),
			Opacity:         getEnvAsFloat("WATERMARK_OPACITY", watermark.DefaultOpacity),
			RotationDegrees: getEnvAsFloat("WATERMARK_ROTATION", watermark.DefaultRotation),
			Anchor:          watermark.AnchorCenter,
		},
		RenderParallelism: getEnvAsInt("RENDER_PARALLELISM", 4),
		UploadTimeout:     getEnvAsDuration("UPLOAD_TIMEOUT", 50*time.Second),
		StatusTimeout:     getEnvAsDuration("STATUS_TIMEOUT", 10*time.Second),

		Status: StatusConfig{
			Backend: strings.ToLower(gcp.GetEnv("STATUS_BACKEND", BackendPostgres)),
			Postgres: statuslog.PostgresConfig{
				DSN:             gcp.GetEnv("DB_URL", ""),
				MaxConns:        int32(getEnvAsInt("DB_MAX_CONNS", 4)),
				MinConns:        int32(getEnvAsInt("DB_MIN_CONNS", 0)),
				MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
				MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
				DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			},
			SQLitePath:          gcp.GetEnv("SQLITE_PATH", "watermark-status.db"),
			FirestoreCollection: gcp.GetEnv("FIRESTORE_COLLECTION", "file_translation_logs"),
		},
		Converter: convert.Config{
			Binary:  gcp.GetEnv("LIBREOFFICE_BIN", "libreoffice"),
			Timeout: getEnvAsDuration("CONVERT_TIMEOUT", 2*time.Minute),
		},
		Workflow: WorkflowConfig{
			ID:       gcp.GetEnv("WORKFLOW_ID", ""),
			Location: gcp.GetEnv("WORKFLOW_LOCATION", "us-central1"),
		},
	}
}

// Validate reports every missing or inconsistent setting at once.
func (c WatermarkerConfig) Validate() error {
	var errs []error
	if c.InputBucket == "" {
		errs = append(errs, errors.New("INPUT_BUCKET must be set"))
	}
	if c.OutputBucket == "" {
		errs = append(errs, errors.New("OUTPUT_BUCKET must be set"))
	}
	if err := c.Watermark.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("invalid default watermark: %w", err))
	}
	switch c.Status.Backend {
	case BackendPostgres:
		if c.Status.Postgres.DSN == "" {
			errs = append(errs, errors.New("DB_URL must be set for the postgres status backend"))
		}
	case BackendSQLite:
		if c.Status.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH must be set for the sqlite status backend"))
		}
	case BackendFirestore:
		if c.ProjectID == "" {
			errs = append(errs, errors.New("PROJECT_ID must be set for the firestore status backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STATUS_BACKEND %q", c.Status.Backend))
	}
	if c.Workflow.ID != "" && c.ProjectID == "" {
		errs = append(errs, errors.New("PROJECT_ID must be set when WORKFLOW_ID is set"))
	}
	return errors.Join(errs...)
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsColor accepts "#rrggbb" or three space separated components in [0,1].
func getEnvAsColor(key string, defaultValue color.SimpleColor) color.SimpleColor {
	if value := os.Getenv(key); value != "" {
		if c, err := ParseColor(value); err == nil {
			return c
		}
	}
	return defaultValue
}

// ParseColor parses "#rrggbb" or "r g b" with components in [0,1].
func ParseColor(s string) (color.SimpleColor, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		if len(s) != 7 {
			return color.SimpleColor{}, fmt.Errorf("invalid hex color %q", s)
		}
		rgb, err := strconv.ParseUint(s[1:], 16, 32)
		if err != nil {
			return color.SimpleColor{}, fmt.Errorf("invalid hex color %q", s)
		}
		return color.SimpleColor{
			R: float32(rgb>>16&0xFF) / 255,
			G: float32(rgb>>8&0xFF) / 255,
			B: float32(rgb&0xFF) / 255,
		}, nil
	}

	fields := strings.Fields(s)
	if len(fields) != 3 {
		return color.SimpleColor{}, fmt.Errorf("color %q needs three components", s)
	}
	var c [3]float32
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil || v < 0 || v > 1 {
			return color.SimpleColor{}, fmt.Errorf("color component %q must be a number within [0,1]", f)
		}
		c[i] = float32(v)
	}
	return color.SimpleColor{R: c[0], G: c[1], B: c[2]}, nil
}
