package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps documents as JSONB rows in the documents table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store backed by the given connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Get loads the document stored under id, or returns ErrNotFound.
func (s *PostgresStore) Get(ctx context.Context, collection, id string) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting document %s/%s: %w", collection, id, err)
	}
	return data, nil
}

// Set upserts the document stored under id.
func (s *PostgresStore) Set(ctx context.Context, collection, id string, data []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO documents (collection, id, data)
		 VALUES ($1, $2, $3::jsonb)
		 ON CONFLICT (collection, id)
		 DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		collection, id, string(data),
	)
	if err != nil {
		return fmt.Errorf("setting document %s/%s: %w", collection, id, err)
	}
	return nil
}

// Add inserts data under a generated id and returns the id.
func (s *PostgresStore) Add(ctx context.Context, collection string, data []byte) (string, error) {
	id := uuid.NewString()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)`,
		collection, id, string(data),
	)
	if err != nil {
		return "", fmt.Errorf("adding document to %s: %w", collection, err)
	}
	return id, nil
}

// Update replaces an existing document. It returns ErrNotFound if no row
// matched.
func (s *PostgresStore) Update(ctx context.Context, collection, id string, data []byte) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE documents SET data = $3::jsonb, updated_at = now()
		 WHERE collection = $1 AND id = $2`,
		collection, id, string(data),
	)
	if err != nil {
		return fmt.Errorf("updating document %s/%s: %w", collection, id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the document. Deleting a missing document is not an error.
func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("deleting document %s/%s: %w", collection, id, err)
	}
	return nil
}

// Query returns the documents of collection matching every filter.
func (s *PostgresStore) Query(ctx context.Context, collection string, filters ...Filter) ([]Snapshot, error) {
	query, args, err := buildQuery(collection, filters)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", collection, err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.ID, &snap.Data); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", collection, err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// buildQuery translates filters into a JSONB predicate list.
func buildQuery(collection string, filters []Filter) (string, []any, error) {
	where := []string{"collection = $1"}
	args := []any{collection}
	argIdx := 2

	for _, f := range filters {
		if err := f.validate(); err != nil {
			return "", nil, err
		}

		var operand any = f.Value
		op := "="
		if f.Op == OpArrayContains {
			operand = []any{f.Value}
			op = "@>"
		}
		value, err := json.Marshal(operand)
		if err != nil {
			return "", nil, fmt.Errorf("encoding filter value for %s: %w", f.Field, err)
		}

		where = append(where, fmt.Sprintf("data #> $%d::text[] %s $%d::jsonb", argIdx, op, argIdx+1))
		args = append(args, f.Path(), string(value))
		argIdx += 2
	}

	query := fmt.Sprintf(`SELECT id, data FROM documents WHERE %s ORDER BY id`,
		strings.Join(where, " AND "))
	return query, args, nil
}
