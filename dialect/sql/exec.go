package sql

import (
	"context"
	"fmt"

	"github.com/syssam/sqlkit/dialect"
)

// QueryResult is the outcome of executing a Query.
//
// Rows holds the returned rows of a SELECT, or of a statement with a
// RETURNING clause on a dialect that supports it. LastInsertID and
// RowsAffected are filled for statements that do not return rows.
// LastInsertID is 0 where the driver cannot report it (postgres, supabase);
// request the key with Returning instead.
type QueryResult struct {
	Rows         []map[string]any
	LastInsertID int64
	RowsAffected int64
}

// Exec compiles the query and executes it on ex, which is typically a
// *Driver, a transaction or a wrapped driver.
func (q *Query) Exec(ctx context.Context, ex dialect.ExecQuerier) (*QueryResult, error) {
	query, args, err := q.ToSQL()
	if err != nil {
		return nil, err
	}
	if q.returnsRows() {
		rows, err := queryOn(ctx, ex, query, args)
		if err != nil {
			return nil, err
		}
		return &QueryResult{Rows: rows, RowsAffected: int64(len(rows))}, nil
	}
	return execOn(ctx, ex, query, args)
}

// ScanMaps reads all remaining rows into column-name keyed maps. Byte
// slices are returned as strings.
func ScanMaps(rows ColumnScanner) ([]map[string]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: scan columns: %w", err)
	}
	var (
		out    = make([]map[string]any, 0)
		values = make([]any, len(columns))
		dest   = make([]any, len(columns))
	)
	for i := range values {
		dest[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("dialect/sql: scan row: %w", err)
		}
		row := make(map[string]any, len(columns))
		for i, c := range columns {
			switch v := values[i].(type) {
			case []byte:
				row[c] = string(v)
			default:
				row[c] = v
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dialect/sql: scan rows: %w", err)
	}
	return out, nil
}
