package submission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// ErrNotFound is returned when no submission has the requested ID.
var ErrNotFound = errors.New("submission not found")

// ErrInvalidID is returned by ParseID for malformed submission IDs.
var ErrInvalidID = errors.New("invalid submission id")

// ErrPersistenceDisabled is returned by handlers when no database is configured.
var ErrPersistenceDisabled = errors.New("persistence disabled")

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Pool is a DBTX that can start transactions. Satisfied by *pgxpool.Pool.
type Pool interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// schemaDDL creates the tables used by Store. Statements are idempotent.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS submission_status (
	submission_id  UUID PRIMARY KEY,
	schema_key     TEXT NOT NULL,
	file_name      TEXT NOT NULL,
	mime_type      TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL,
	error_count    INTEGER NOT NULL DEFAULT 0,
	warning_count  INTEGER NOT NULL DEFAULT 0,
	validated_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS submission_message (
	id             BIGSERIAL PRIMARY KEY,
	submission_id  UUID NOT NULL REFERENCES submission_status(submission_id) ON DELETE CASCADE,
	seq            INTEGER NOT NULL,
	type           TEXT NOT NULL,
	class          TEXT NOT NULL,
	file_name      TEXT NOT NULL,
	message        TEXT NOT NULL,
	col            TEXT,
	row_number     INTEGER,
	key_rows       INTEGER[]
);

CREATE INDEX IF NOT EXISTS idx_submission_message_submission
	ON submission_message (submission_id, seq);
`

var messageColumns = []string{
	"submission_id", "seq", "type", "class", "file_name", "message", "col", "row_number", "key_rows",
}

// ParseID parses a submission ID.
func ParseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return id, nil
}

// Summary is the stored status row of a submission.
type Summary struct {
	SubmissionID uuid.UUID `json:"submissionId"`
	Schema       string    `json:"schema"`
	FileName     string    `json:"fileName"`
	MIME         string    `json:"mimeType"`
	Status       Status    `json:"status"`
	ErrorCount   int       `json:"errorCount"`
	WarningCount int       `json:"warningCount"`
	ValidatedAt  time.Time `json:"validatedAt"`
}

// Store persists validation results in PostgreSQL.
type Store struct {
	db Pool
}

// NewStore creates a Store backed by db.
func NewStore(db Pool) *Store {
	return &Store{db: db}
}

// Migrate creates the submission tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("migrate submission tables: %w", err)
	}
	return nil
}

// SaveResult stores the status row and every message of r in one transaction.
func (s *Store) SaveResult(ctx context.Context, r *Result) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	id := pgtype.UUID{Bytes: r.SubmissionID, Valid: true}

	_, err = tx.Exec(ctx, `
		INSERT INTO submission_status
			(submission_id, schema_key, file_name, mime_type, status, error_count, warning_count, validated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, r.Schema, r.FileName, r.MIME, string(r.Status), r.ErrorCount, r.WarningCount,
		pgtype.Timestamptz{Time: r.ValidatedAt, Valid: true},
	)
	if err != nil {
		return fmt.Errorf("insert submission status: %w", err)
	}

	if len(r.Messages) > 0 {
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"submission_message"},
			messageColumns,
			pgx.CopyFromSlice(len(r.Messages), func(i int) ([]any, error) {
				return messageRow(id, i, r.Messages[i]), nil
			}),
		)
		if err != nil {
			return fmt.Errorf("copy submission messages: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit submission %s: %w", r.SubmissionID, err)
	}
	return nil
}

func messageRow(id pgtype.UUID, seq int, m Message) []any {
	col := pgtype.Text{String: m.Col, Valid: m.Col != ""}
	row := pgtype.Int4{Int32: int32(m.Row), Valid: m.Row > 0}

	var keyRows []int32
	if len(m.Rows) > 0 {
		keyRows = make([]int32, len(m.Rows))
		for i, r := range m.Rows {
			keyRows[i] = int32(r)
		}
	}

	return []any{id, int32(seq), m.Type, string(m.Class), m.FileName, m.Message, col, row, keyRows}
}

// GetSummary returns the status row of a submission.
func (s *Store) GetSummary(ctx context.Context, id uuid.UUID) (Summary, error) {
	var (
		sum         Summary
		status      string
		validatedAt pgtype.Timestamptz
	)
	err := s.db.QueryRow(ctx, `
		SELECT schema_key, file_name, mime_type, status, error_count, warning_count, validated_at
		FROM submission_status
		WHERE submission_id = $1`,
		pgtype.UUID{Bytes: id, Valid: true},
	).Scan(&sum.Schema, &sum.FileName, &sum.MIME, &status, &sum.ErrorCount, &sum.WarningCount, &validatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Summary{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Summary{}, fmt.Errorf("query submission %s: %w", id, err)
	}

	sum.SubmissionID = id
	sum.Status = Status(status)
	sum.ValidatedAt = validatedAt.Time
	return sum, nil
}

// GetMessages returns the stored messages of a submission in their original
// order. A submission with no messages returns an empty slice; an unknown
// submission returns ErrNotFound.
func (s *Store) GetMessages(ctx context.Context, id uuid.UUID) ([]Message, error) {
	if _, err := s.GetSummary(ctx, id); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT type, class, file_name, message, col, row_number, key_rows
		FROM submission_message
		WHERE submission_id = $1
		ORDER BY seq`,
		pgtype.UUID{Bytes: id, Valid: true},
	)
	if err != nil {
		return nil, fmt.Errorf("query messages for %s: %w", id, err)
	}
	defer rows.Close()

	msgs := []Message{}
	for rows.Next() {
		var (
			m       Message
			class   string
			col     pgtype.Text
			row     pgtype.Int4
			keyRows []int32
		)
		if err := rows.Scan(&m.Type, &class, &m.FileName, &m.Message, &col, &row, &keyRows); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Class = Class(class)
		m.Col = col.String
		if row.Valid {
			m.Row = int(row.Int32)
		}
		for _, r := range keyRows {
			m.Rows = append(m.Rows, int(r))
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return msgs, nil
}
