package toucan

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/EternisAI/toucan-to-messages/pkg/db"
)

// Row is one dataset record. Both columns hold JSON-encoded text.
type Row struct {
	Messages string `db:"messages"`
	Tools    string `db:"tools"`
}

// RowSource yields dataset rows until io.EOF.
type RowSource interface {
	Next() (Row, error)
	Close() error
}

// ErrRowScan marks a row that could not be scanned, such as a NULL column.
// Iteration can continue past it.
var ErrRowScan = errors.New("row scan failed")

// Source streams rows from a parquet locator through DuckDB.
type Source struct {
	rows *sqlx.Rows
	row  int
}

// OpenSource starts a streaming query against the locator, which may be a
// local path, a glob, or an hf:// URL. A limit of zero or less means no
// limit.
func OpenSource(ctx context.Context, store *db.Store, locator string, limit int) (*Source, error) {
	query := fmt.Sprintf("SELECT messages, tools FROM '%s'", strings.ReplaceAll(locator, "'", "''"))
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := store.DB().QueryxContext(ctx, query)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query dataset %s", locator)
	}
	return &Source{rows: rows}, nil
}

// Next returns the next row. It returns io.EOF once the stream is done and
// an error wrapping ErrRowScan when only the current row is unusable.
func (s *Source) Next() (Row, error) {
	if !s.rows.Next() {
		if err := s.rows.Err(); err != nil {
			return Row{}, errors.Wrap(err, "dataset iteration failed")
		}
		return Row{}, io.EOF
	}
	s.row++
	var r Row
	if err := s.rows.StructScan(&r); err != nil {
		return Row{}, errors.Wrapf(ErrRowScan, "row %d: %v", s.row, err)
	}
	return r, nil
}

func (s *Source) Close() error {
	return s.rows.Close()
}
