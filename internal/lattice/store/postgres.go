package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pebble/internal/lattice/models"
	"pebble/pkg/platform/sentinel"
	txcontext "pebble/pkg/platform/tx"
)

// Schema creates the pebble_lattice table. Migrate applies it idempotently.
const Schema = `
CREATE TABLE IF NOT EXISTS pebble_lattice (
	lattice_id   TEXT PRIMARY KEY,
	entity_name  TEXT NOT NULL,
	numeric_id   BIGINT NOT NULL,
	codex_hash   TEXT NOT NULL,
	verified     BOOLEAN NOT NULL DEFAULT FALSE,
	tier         TEXT NOT NULL DEFAULT '',
	generated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS pebble_lattice_generated_at_idx ON pebble_lattice (generated_at DESC);
`

const upsertRecord = `
	INSERT INTO pebble_lattice (lattice_id, entity_name, numeric_id, codex_hash, verified, tier, generated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (lattice_id) DO UPDATE SET
		entity_name = EXCLUDED.entity_name,
		numeric_id = EXCLUDED.numeric_id,
		codex_hash = EXCLUDED.codex_hash,
		verified = EXCLUDED.verified,
		tier = EXCLUDED.tier,
		generated_at = EXCLUDED.generated_at
`

const selectColumns = `lattice_id, entity_name, numeric_id, codex_hash, verified, tier, generated_at`

// PostgresStore persists verification records in PostgreSQL.
// This store is pure I/O. It joins a transaction carried in context when
// one is present.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Migrate creates the table and index if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate pebble_lattice: %w", err)
	}
	return nil
}

// Save upserts all records in one transaction.
func (s *PostgresStore) Save(ctx context.Context, records []models.VerificationRecord) error {
	if len(records) == 0 {
		return nil
	}
	err := txcontext.RunInTx(ctx, s.db, func(ctx context.Context) error {
		exec := s.execer(ctx)
		for _, rec := range records {
			_, err := exec.ExecContext(ctx, upsertRecord,
				rec.LatticeID,
				rec.EntityName,
				rec.NumericID,
				rec.CodexHash,
				rec.Verified,
				string(rec.Tier),
				rec.GeneratedAt,
			)
			if err != nil {
				return fmt.Errorf("upsert %s: %w", rec.LatticeID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save lattice records: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByLatticeID(ctx context.Context, latticeID string) (*models.VerificationRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM pebble_lattice WHERE lattice_id = $1`
	rec, err := scanRecord(s.execer(ctx).QueryRowContext(ctx, query, latticeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find lattice record: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]models.VerificationRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM pebble_lattice ORDER BY generated_at DESC, lattice_id ASC LIMIT $1`
	rows, err := s.execer(ctx).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list lattice records: %w", err)
	}
	defer rows.Close()

	var out []models.VerificationRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lattice record: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lattice records: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.execer(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM pebble_lattice`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count lattice records: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.VerificationRecord, error) {
	var rec models.VerificationRecord
	var tier string
	if err := row.Scan(
		&rec.LatticeID,
		&rec.EntityName,
		&rec.NumericID,
		&rec.CodexHash,
		&rec.Verified,
		&tier,
		&rec.GeneratedAt,
	); err != nil {
		return nil, err
	}
	rec.Tier = models.Tier(tier)
	rec.GeneratedAt = rec.GeneratedAt.UTC()
	return &rec, nil
}
