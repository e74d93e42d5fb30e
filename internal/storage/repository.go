// Package storage persists the whole document as a single JSON blob
// in SQLite, keyed by a versioned slot name.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"lendtrack/internal/core"

	_ "modernc.org/sqlite"
)

// DocumentKey is the storage slot the document lives under. The name
// carries the schema version; bumping the shape means a new key.
const DocumentKey = "business-tracker-data-v2"

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load reads the document blob. A missing row yields the empty
// default document; a corrupt payload is logged and likewise yields
// the default, so a damaged blob never takes the application down.
func (r *Repository) Load(ctx context.Context) (*core.Document, error) {
	var payload string
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM documents WHERE key = ?`, DocumentKey,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return core.NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}

	var doc core.Document
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		slog.WarnContext(ctx, "Stored document is unreadable, starting empty",
			"key", DocumentKey, "error", err)
		return core.NewDocument(), nil
	}
	doc.Normalize()
	return &doc, nil
}

// Save upserts the document blob under the document key.
func (r *Repository) Save(ctx context.Context, doc *core.Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO documents (key, payload, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			payload = excluded.payload,
			updated_at = CURRENT_TIMESTAMP`,
		DocumentKey, string(payload))
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}

	slog.DebugContext(ctx, "Document saved",
		"key", DocumentKey, "people", len(doc.People), "bytes", len(payload))
	return nil
}
