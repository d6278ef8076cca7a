package repository

import (
	"context"
	"database/sql"
	"strings"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx. Services construct
// tx-scoped repos inside an atomic unit and db-scoped repos elsewhere.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// scanner handles both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likeContains builds a substring LIKE pattern treating term literally.
// Pair with `ESCAPE '\'` in the query.
func likeContains(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}
