package repository

import (
	"context"
	"fmt"
)

// BackendConfig selects and configures the document backend
type BackendConfig struct {
	Kind        string // "file" or "postgres"
	Path        string
	DocumentKey string
	Database    Config
}

// OpenBackend builds the configured backend. The returned Database is nil for
// the file backend; callers close it when non-nil.
func OpenBackend(ctx context.Context, cfg BackendConfig) (Backend, *Database, error) {
	switch cfg.Kind {
	case "file":
		return NewFileBackend(cfg.Path), nil, nil

	case "postgres":
		db, err := NewDatabase(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		backend := NewPostgresBackend(db, cfg.DocumentKey)
		if err := backend.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return backend, db, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Kind)
	}
}
