package statuslog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/Lllllllleong/watermarkflow/internal/models"
)

const updateSQLite = `
UPDATE file_translation_logs
SET watermark_date = ?,
    watermark_datetime = ?,
    watermark_status = ?,
    watermark_zone_path = ?
WHERE file_name = ?`

const createSQLite = `
CREATE TABLE IF NOT EXISTS file_translation_logs (
    file_name           TEXT PRIMARY KEY,
    watermark_date      TEXT,
    watermark_datetime  TEXT,
    watermark_status    TEXT,
    watermark_zone_path TEXT
)`

// SQLite writes status rows to a local database file. It backs local runs and
// the backfill tool when no Postgres is reachable.
type SQLite struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens path and creates the log table if it is missing.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	// One writer at a time; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, createSQLite); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create file_translation_logs: %w", err)
	}
	return &SQLite{db: db, logger: logger}, nil
}

// Record updates the row for rec.FileName in one transaction.
func (s *SQLite) Record(ctx context.Context, rec models.StatusRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin status transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, updateSQLite,
		rec.WatermarkDate.Format("2006-01-02"),
		rec.WatermarkDateTime.Format("2006-01-02T15:04:05.000000Z07:00"),
		string(rec.WatermarkStatus),
		rec.WatermarkZonePath,
		rec.FileName,
	)
	if err != nil {
		return fmt.Errorf("failed to update status row: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		s.logger.Warn("No translation log row for file; nothing updated.", "fileName", rec.FileName)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit status row: %w", err)
	}
	return nil
}

// Register inserts an empty row for fileName, as the upload step upstream does.
func (s *SQLite) Register(ctx context.Context, fileName string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO file_translation_logs (file_name) VALUES (?) ON CONFLICT(file_name) DO NOTHING`, fileName)
	if err != nil {
		return fmt.Errorf("failed to register %s: %w", fileName, err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
