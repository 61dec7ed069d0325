// Package postgres implements the direct-connection query executor used when
// the HTTP bridge is disabled. It speaks to the database over database/sql
// with the pgx driver and exposes the same rows-as-maps contract as the
// bridge executor, so the service layer cannot tell the two apart.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // register the pgx database/sql driver
	"github.com/medfellows/quizforge-api/internal/platform/logger"
	"github.com/medfellows/quizforge-api/internal/redact"
)

// Executor executes SQL statements over a direct database connection.
type Executor struct {
	db *sql.DB
}

// Open connects to the database at the given URL and verifies the
// connection with a ping.
func Open(ctx context.Context, url string) (*Executor, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Executor{db: db}, nil
}

// NewExecutor wraps an existing database handle. Used by tests.
func NewExecutor(db *sql.DB) *Executor {
	return &Executor{db: db}
}

// Close releases the underlying connection pool.
func (e *Executor) Close() error {
	return e.db.Close()
}

// Execute runs stmt with "?" placeholders rebound to the driver's positional
// form. SELECT-shaped statements return their rows as maps keyed by column
// name; mutations return an empty row set.
func (e *Executor) Execute(ctx context.Context, stmt string, args ...any) ([]map[string]any, error) {
	log := logger.FromContext(ctx)
	rebound := Rebind(stmt)

	if !isRowReturning(stmt) {
		if _, err := e.db.ExecContext(ctx, rebound, args...); err != nil {
			log.Error("statement execution failed",
				"statement", redact.Statement(stmt),
				"error", redact.Error(err))
			return nil, fmt.Errorf("failed to execute statement: %w", err)
		}
		return nil, nil
	}

	rows, err := e.db.QueryContext(ctx, rebound, args...)
	if err != nil {
		log.Error("query failed",
			"statement", redact.Statement(stmt),
			"error", redact.Error(err))
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	var result []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			// Text columns may scan as []byte; normalize to string so rows
			// look the same as the bridge's JSON-decoded rows.
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed while iterating rows: %w", err)
	}

	return result, nil
}

// Rebind converts "?" placeholders to the $1, $2, ... form pgx expects.
// Quoted literals are left untouched.
func Rebind(stmt string) string {
	var b strings.Builder
	n := 0
	inQuote := false
	for _, r := range stmt {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			b.WriteString("$" + strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// isRowReturning reports whether the statement produces a result set.
func isRowReturning(stmt string) bool {
	head := strings.ToUpper(strings.TrimSpace(stmt))
	return strings.HasPrefix(head, "SELECT") || strings.HasPrefix(head, "SHOW") ||
		strings.Contains(head, "RETURNING")
}
