package executor

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/zoobzio/relql"
)

// Querier runs one rendered statement and returns its rows keyed by column
// name.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) ([]relql.Row, error)
}

// QuerierFunc adapts a function to Querier.
type QuerierFunc func(ctx context.Context, sql string, args ...any) ([]relql.Row, error)

// Query implements Querier.
func (f QuerierFunc) Query(ctx context.Context, sql string, args ...any) ([]relql.Row, error) {
	return f(ctx, sql, args...)
}

// SQLQueryer is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type SQLQueryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type dbQuerier struct {
	db SQLQueryer
}

// DB adapts a database/sql handle. []byte values are returned as strings,
// which is how text columns arrive from the MySQL driver.
func DB(db SQLQueryer) Querier {
	return dbQuerier{db: db}
}

func (q dbQuerier) Query(ctx context.Context, query string, args ...any) ([]relql.Row, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var out []relql.Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(relql.Row, len(cols))
		for i, c := range cols {
			if b, ok := values[i].([]byte); ok {
				row[c] = string(b)
				continue
			}
			row[c] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// PgxQueryer is satisfied by *pgx.Conn, pgx.Tx and *pgxpool.Pool.
type PgxQueryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type pgxQuerier struct {
	conn PgxQueryer
}

// Pgx adapts a pgx connection, transaction or pool.
func Pgx(conn PgxQueryer) Querier {
	return pgxQuerier{conn: conn}
}

func (q pgxQuerier) Query(ctx context.Context, query string, args ...any) ([]relql.Row, error) {
	rows, err := q.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out []relql.Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		row := make(relql.Row, len(fields))
		for i, f := range fields {
			row[f.Name] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
