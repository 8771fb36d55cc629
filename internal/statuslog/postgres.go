// Package statuslog records the outcome of watermark jobs in the translation log.
package statuslog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Lllllllleong/watermarkflow/internal/models"
)

const updatePostgres = `
UPDATE file_translation_logs
SET watermark_date = $1,
    watermark_datetime = $2,
    watermark_status = $3,
    watermark_zone_path = $4
WHERE file_name = $5`

type PostgresConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// Postgres writes status rows through a pgx connection pool.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// OpenPostgres creates the pool and verifies connectivity.
func OpenPostgres(ctx context.Context, cfg PostgresConfig, logger *slog.Logger) (*Postgres, error) {
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("invalid database DSN: %w", err)
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "watermarkflow"

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Connected to status database.")
	return &Postgres{pool: pool, logger: logger}, nil
}

// Record updates the row for rec.FileName in one transaction. Any error rolls
// the transaction back and is returned as is; there is no retry.
func (p *Postgres) Record(ctx context.Context, rec models.StatusRecord) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin status transaction: %w", err)
	}
	// Rollback after Commit is a no-op.
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, updatePostgres,
		rec.WatermarkDate,
		rec.WatermarkDateTime,
		string(rec.WatermarkStatus),
		rec.WatermarkZonePath,
		rec.FileName,
	)
	if err != nil {
		return fmt.Errorf("failed to update status row: %w", err)
	}
	if tag.RowsAffected() == 0 {
		p.logger.Warn("No translation log row for file; nothing updated.", "fileName", rec.FileName)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit status row: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
