// Command watermark-backfill watermarks every document already stored under the
// input prefix, for example after the watermark text changes.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"golang.org/x/sync/errgroup"

	"github.com/Lllllllleong/watermarkflow/internal/services"
)

func main() {
	var (
		concurrency = flag.Int("concurrency", 4, "jobs to run at once")
		match       = flag.String("match", "", "only process names containing this substring")
		dryRun      = flag.Bool("dry-run", false, "list the files that would be processed and exit")
		verbose     = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	api.DisableConfigDir()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *concurrency, *match, *dryRun); err != nil {
		slog.Error("Backfill failed.", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, concurrency int, match string, dryRun bool) error {
	watermarker, err := services.NewWatermarker(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := watermarker.Close(); err != nil {
			slog.Warn("Failed to close clients.", "error", err)
		}
	}()

	names, err := watermarker.ListSources(ctx)
	if err != nil {
		return err
	}

	var selected []string
	for _, name := range names {
		if _, err := services.ClassifyName(name); err != nil {
			slog.Debug("Skipping unsupported object.", "fileName", name)
			continue
		}
		if match != "" && !strings.Contains(name, match) {
			continue
		}
		selected = append(selected, name)
	}
	slog.Info("Backfill selected documents.", "listed", len(names), "selected", len(selected))

	if dryRun {
		for _, name := range selected {
			fmt.Println(name)
		}
		return nil
	}

	var failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	for _, name := range selected {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			out := watermarker.Process(gctx, services.Job{FileName: name})
			if !out.OK() {
				failed.Add(1)
				slog.Error("Document failed.", "fileName", name, "error", out.Err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d of %d documents failed", n, len(selected))
	}
	slog.Info("Backfill finished.", "documents", len(selected))
	return nil
}
