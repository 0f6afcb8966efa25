package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Nikiel54/nba-match-predictor/internal/metrics"

	"github.com/jackc/pgx/v5"
)

const createDocumentTables = `
CREATE TABLE IF NOT EXISTS rating_documents (
	document_key TEXT PRIMARY KEY,
	document     JSONB NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS rating_document_saves (
	id             BIGSERIAL PRIMARY KEY,
	document_key   TEXT NOT NULL,
	team_count     INTEGER NOT NULL,
	last_game_date TIMESTAMP,
	saved_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// PostgresBackend stores the ratings document as a JSONB row keyed per deployment
type PostgresBackend struct {
	db  *Database
	key string
}

// NewPostgresBackend creates a backend for the document stored under key
func NewPostgresBackend(db *Database, key string) *PostgresBackend {
	return &PostgresBackend{db: db, key: key}
}

// EnsureSchema creates the document tables if they do not exist
func (b *PostgresBackend) EnsureSchema(ctx context.Context) error {
	if _, err := b.db.Pool.Exec(ctx, createDocumentTables); err != nil {
		return fmt.Errorf("failed to create document tables: %w", err)
	}
	return nil
}

// LoadDocument fetches and decodes the stored document
func (b *PostgresBackend) LoadDocument(ctx context.Context) (*Document, error) {
	start := time.Now()

	var raw []byte
	err := b.db.Pool.QueryRow(ctx,
		`SELECT document FROM rating_documents WHERE document_key = $1`,
		b.key,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.RecordDBQuery("load_document", "not_found", time.Since(start).Seconds())
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		metrics.RecordDBQuery("load_document", "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("failed to query document %s: %w", b.key, err)
	}

	metrics.RecordDBQuery("load_document", "success", time.Since(start).Seconds())

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document %s: %w", b.key, err)
	}
	return &doc, nil
}

// SaveDocument upserts the document and records the save in one transaction
func (b *PostgresBackend) SaveDocument(ctx context.Context, doc *Document) (err error) {
	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.RecordDBQuery("save_document", status, time.Since(start).Seconds())
		metrics.RecordStoreSave("postgres", status, time.Since(start).Seconds())
	}()

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	tx, err := b.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO rating_documents (document_key, document, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (document_key) DO UPDATE SET
			document = EXCLUDED.document,
			updated_at = NOW()`,
		b.key, raw,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert document %s: %w", b.key, err)
	}

	var lastGameDate *time.Time
	if !doc.LastGameDate.IsZero() {
		t := doc.LastGameDate.Time
		lastGameDate = &t
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO rating_document_saves (document_key, team_count, last_game_date)
		VALUES ($1, $2, $3)`,
		b.key, len(doc.Ratings), lastGameDate,
	)
	if err != nil {
		return fmt.Errorf("failed to record document save: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit document %s: %w", b.key, err)
	}
	return nil
}
