package statuslog

import (
	"context"
	"database/sql"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/Lllllllleong/watermarkflow/internal/models"
)

func openTestDB(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "status.db"), slog.Default())
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

type row struct {
	date, datetime, status, path sql.NullString
}

func readRow(t *testing.T, s *SQLite, fileName string) (row, bool) {
	t.Helper()
	var r row
	err := s.db.QueryRow(
		`SELECT watermark_date, watermark_datetime, watermark_status, watermark_zone_path
		 FROM file_translation_logs WHERE file_name = ?`, fileName,
	).Scan(&r.date, &r.datetime, &r.status, &r.path)
	if err == sql.ErrNoRows {
		return r, false
	}
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	return r, true
}

func TestSQLite_RecordUpdatesRegisteredRow(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()
	if err := s.Register(ctx, "report.pdf"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	ts := time.Date(2026, 10, 19, 14, 30, 0, 0, time.UTC)
	rec := models.NewStatusRecord(models.JobResult{
		InputName:      "report.pdf",
		OutputLocation: "gs://out/watermarked-zone/report.pdf",
		Status:         models.StatusDone,
		Timestamp:      ts,
	})
	if err := s.Record(ctx, rec); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	got, ok := readRow(t, s, "report.pdf")
	if !ok {
		t.Fatal("row disappeared")
	}
	if got.status.String != "done" {
		t.Errorf("status = %q, want done", got.status.String)
	}
	if got.path.String != "gs://out/watermarked-zone/report.pdf" {
		t.Errorf("path = %q", got.path.String)
	}
	if got.date.String != "2026-10-19" {
		t.Errorf("date = %q, want 2026-10-19", got.date.String)
	}
	if got.datetime.String == "" {
		t.Error("datetime was not written")
	}
}

func TestSQLite_RecordWithoutRowIsNotAnError(t *testing.T) {
	s := openTestDB(t)
	rec := models.NewStatusRecord(models.JobResult{InputName: "ghost.pdf", Status: models.StatusFailed, Timestamp: time.Now()})

	if err := s.Record(context.Background(), rec); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if _, ok := readRow(t, s, "ghost.pdf"); ok {
		t.Error("Record created a row; it must only update")
	}
}

func TestSQLite_RecordSurfacesErrors(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()
	if err := s.Register(ctx, "report.pdf"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	rec := models.NewStatusRecord(models.JobResult{InputName: "report.pdf", Status: models.StatusDone, Timestamp: time.Now()})
	if err := s.Record(cancelled, rec); err == nil {
		t.Fatal("Record with a cancelled context succeeded")
	}

	got, _ := readRow(t, s, "report.pdf")
	if got.status.Valid {
		t.Errorf("status = %q after a failed write, want NULL", got.status.String)
	}
}
