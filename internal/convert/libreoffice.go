// Package convert turns editable documents into PDF with a headless office suite.
package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/h2non/filetype"
)

// ErrConversion is returned for any failed conversion.
var ErrConversion = errors.New("document conversion failed")

// Config configures the LibreOffice converter.
type Config struct {
	// Binary is the soffice/libreoffice executable.
	Binary string
	// Timeout bounds a single conversion. Zero means no limit.
	Timeout time.Duration
}

// LibreOffice converts .docx bytes to PDF bytes by shelling out to LibreOffice.
// Every call works in its own scratch directory, including its own user profile,
// so concurrent conversions do not contend for the profile lock.
type LibreOffice struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewLibreOffice(cfg Config, runner Runner, logger *slog.Logger) *LibreOffice {
	if cfg.Binary == "" {
		cfg.Binary = "libreoffice"
	}
	if runner == nil {
		runner = ExecRunner{Logger: logger}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LibreOffice{cfg: cfg, runner: runner, logger: logger}
}

// Convert returns the PDF rendition of data. The scratch directory is removed on
// every path.
func (l *LibreOffice) Convert(ctx context.Context, data []byte) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "docx-convert-*")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create temp dir: %w", ErrConversion, err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			l.logger.Warn("Failed to remove conversion scratch dir.", "path", tmpDir, "error", err)
		}
	}()

	if !filetype.Is(data, "docx") {
		l.logger.Warn("Source does not look like a .docx container; attempting conversion anyway.")
	}

	src := filepath.Join(tmpDir, "source.docx")
	if err := os.WriteFile(src, data, 0o600); err != nil {
		return nil, fmt.Errorf("%w: failed to stage source: %w", ErrConversion, err)
	}
	l.logger.Debug("Wrote .docx content.", "path", src)

	if l.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.cfg.Timeout)
		defer cancel()
	}

	profile := "file://" + filepath.ToSlash(filepath.Join(tmpDir, "profile"))
	_, stderr, err := l.runner.Run(ctx, l.cfg.Binary,
		"-env:UserInstallation="+profile,
		"--headless",
		"--convert-to", "pdf",
		"--outdir", tmpDir,
		src,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w (stderr: %s)", ErrConversion, l.cfg.Binary, err, truncate(string(stderr), 512))
	}

	out := filepath.Join(tmpDir, "source.pdf")
	pdf, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("%w: conversion produced no output: %w", ErrConversion, err)
	}
	if !filetype.Is(pdf, "pdf") {
		return nil, fmt.Errorf("%w: conversion output is not a PDF", ErrConversion)
	}

	l.logger.Debug("Converted .docx to .pdf.", "bytes", len(pdf))
	return pdf, nil
}
