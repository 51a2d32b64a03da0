package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/marcboeker/go-duckdb/v2"
)

// Wrapper around an in-memory DuckDB connection used to scan parquet
// datasets, local or remote.
//
// 1. The creation method opens the database and pins it to one connection
//    so session state (extensions, secrets) sticks.
// 2. EnableRemote installs the httpfs filesystem for hf:// and http(s)://
//    locators and registers a Hugging Face token when one is available.
type Store struct {
	db *sqlx.DB
}

// NewStore creates a new in-memory DuckDB-backed store.
func NewStore(ctx context.Context) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DuckDB: %w", err)
	}

	// Extensions and secrets are session state; keep one connection so
	// every query sees them.
	db.SetMaxOpenConns(1)

	return &Store{db: db}, nil
}

// EnableRemote loads the httpfs extension so hf:// and http(s):// locators
// resolve. A non-empty token becomes a Hugging Face secret, which gated
// datasets require.
func (s *Store) EnableRemote(ctx context.Context, hfToken string) error {
	if _, err := s.db.ExecContext(ctx, "INSTALL httpfs"); err != nil {
		return fmt.Errorf("failed to install httpfs extension: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "LOAD httpfs"); err != nil {
		return fmt.Errorf("failed to load httpfs extension: %w", err)
	}
	if hfToken != "" {
		stmt := fmt.Sprintf(
			"CREATE SECRET hf_token (TYPE huggingface, TOKEN '%s')",
			strings.ReplaceAll(hfToken, "'", "''"),
		)
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to register Hugging Face token: %w", err)
		}
	}
	return nil
}

// DB returns the underlying connection.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
