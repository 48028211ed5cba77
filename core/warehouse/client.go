package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/snowflakedb/gosnowflake" // Snowflake driver
)

// Client provides access to the columnar warehouse holding the placement
// report tables, the channel metadata table, and the exclusion history.
//
// All writes are whole-row operations: report tables are replaced per run and
// history is append-only, so no in-place updates exist anywhere.
type Client struct {
	db      *sql.DB
	timeout time.Duration
}

// Connect opens a connection pool against Snowflake.
func Connect(cfg Config) (*Client, error) {
	// DSN format: user:password@account/database/schema?warehouse=xxx
	dsn := fmt.Sprintf("%s:%s@%s/%s/%s",
		cfg.User,
		cfg.Password,
		cfg.Account,
		cfg.Database,
		cfg.Schema,
	)
	if cfg.Warehouse != "" {
		dsn += "?warehouse=" + cfg.Warehouse
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open warehouse connection: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 60
	}

	client := &Client{db: db, timeout: time.Duration(timeout) * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), client.timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping warehouse: %w", err)
	}

	return client, nil
}

// NewWithDB wraps an existing connection. Used by tests with sqlmock.
func NewWithDB(db *sql.DB) *Client {
	return &Client{db: db, timeout: 60 * time.Second}
}

// Close releases the connection pool.
func (c *Client) Close() error {
	return c.db.Close()
}

// QueryStrings runs a query expected to return a single string column and
// collects the values.
func (c *Client) QueryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("warehouse query failed: %w", err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}
	return values, nil
}

// Append inserts the rows into the table. Each row must match the column
// list. Rows are inserted in a single multi-row statement.
func (c *Client) Append(ctx context.Context, table string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	query, args := buildInsert(table, columns, rows)
	if _, err := c.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to append %d rows to %s: %w", len(rows), table, err)
	}
	return nil
}

// Replace atomically swaps the full contents of the table for the given rows.
// The delete and insert run in one transaction so readers never observe a
// half-written table.
func (c *Client) Replace(ctx context.Context, table string, columns []string, rows [][]any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}

	if len(rows) > 0 {
		query, args := buildInsert(table, columns, rows)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert %d rows into %s: %w", len(rows), table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit replace of %s: %w", table, err)
	}
	return nil
}

// buildInsert renders a parameterized multi-row INSERT statement.
func buildInsert(table string, columns []string, rows [][]any) (string, []any) {
	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?,", len(columns)), ",") + ")"

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(table)
	sb.WriteString(" (")
	sb.WriteString(strings.Join(columns, ", "))
	sb.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(placeholder)
		args = append(args, row...)
	}
	return sb.String(), args
}
