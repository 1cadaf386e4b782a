// Package store persists invocation audit records in PostgreSQL. The
// store is optional: it is only constructed when database.url is set.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/nullpath7/agentcore-cli/api/schemas"
)

// DBPool abstracts pgxpool.Pool so tests can substitute pgxmock.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Store is a PostgreSQL-backed implementation of schemas.Recorder.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

var _ schemas.Recorder = (*Store)(nil)

// New verifies the connection and returns a Store.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{
		pool: pool,
		log:  logger.Named("store"),
	}, nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS invocations (
    id           TEXT PRIMARY KEY,
    session_id   TEXT NOT NULL,
    runtime_arn  TEXT NOT NULL,
    prompt       TEXT NOT NULL,
    response     TEXT NOT NULL DEFAULT '',
    streamed     BOOLEAN NOT NULL DEFAULT FALSE,
    duration_ms  BIGINT NOT NULL DEFAULT 0,
    error        TEXT NOT NULL DEFAULT '',
    created_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS invocations_session_idx ON invocations (session_id, created_at);
`

// EnsureSchema creates the invocations table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// SaveInvocations writes a batch of records in one transaction.
func (s *Store) SaveInvocations(ctx context.Context, records []schemas.InvocationRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	rows := make([][]interface{}, len(records))
	for i, rec := range records {
		rows[i] = []interface{}{
			rec.ID, rec.SessionID, rec.RuntimeARN,
			rec.Prompt, rec.Response, rec.Streamed,
			rec.DurationMs, rec.Error,
			rec.CreatedAt.UTC(),
		}
	}

	copyCount, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"invocations"},
		[]string{"id", "session_id", "runtime_arn", "prompt", "response", "streamed", "duration_ms", "error", "created_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to copy invocations: %w", err)
	}
	if int(copyCount) != len(records) {
		return fmt.Errorf("mismatch in copied invocation count: expected %d, got %d", len(records), copyCount)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListBySession returns the records of one session, oldest first.
func (s *Store) ListBySession(ctx context.Context, sessionID string) ([]schemas.InvocationRecord, error) {
	query := `
        SELECT id, session_id, runtime_arn, prompt, response, streamed, duration_ms, error, created_at
        FROM invocations
        WHERE session_id = $1
        ORDER BY created_at ASC;
    `
	rows, err := s.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query invocations: %w", err)
	}
	defer rows.Close()

	var records []schemas.InvocationRecord
	for rows.Next() {
		var rec schemas.InvocationRecord
		if err := rows.Scan(
			&rec.ID, &rec.SessionID, &rec.RuntimeARN,
			&rec.Prompt, &rec.Response, &rec.Streamed,
			&rec.DurationMs, &rec.Error, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invocation row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return records, nil
}
