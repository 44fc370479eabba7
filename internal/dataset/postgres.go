package dataset

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Querier is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// DefaultQuery selects tickets from the conventional table layout
const DefaultQuery = `
	SELECT id, channel, customer_name, subject, "fullMessage", sentiment_name
	FROM supportflow.tickets
	ORDER BY id`

// LoadQuery runs sql and turns the result set into a dataset. Column names come from
// the result's field descriptions, so aliases can map any table onto the ticket schema.
// Cell values keep their database types (NULL -> nil).
func LoadQuery(ctx context.Context, q Querier, sql string, args ...any) (*Dataset, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query tickets: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	ds := &Dataset{Columns: make([]string, len(fields))}
	for i, f := range fields {
		ds.Columns[i] = f.Name
	}

	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan ticket row %d: %w", len(ds.Rows)+1, err)
		}
		ds.Rows = append(ds.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tickets: %w", err)
	}
	return ds, nil
}
