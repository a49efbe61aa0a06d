package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"honeyhive/internal/domain"
)

type postgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres returns a Store backed by a single jsonb documents table.
func NewPostgres(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool}
}

func (s *postgresStore) QueryByField(ctx context.Context, collection, field string, op Op, value interface{}) ([]Record, error) {
	if op != OpEqual {
		return nil, fmt.Errorf("unsupported operator %q", op)
	}
	const q = `
SELECT id::text, data
FROM documents
WHERE collection = $1 AND data->>$2 = $3
ORDER BY created_at ASC
`
	rows, err := s.pool.Query(ctx, q, collection, field, fmt.Sprint(value))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Data); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *postgresStore) Get(ctx context.Context, collection, id string) (Record, error) {
	const q = `
SELECT id::text, data
FROM documents
WHERE collection = $1 AND id = $2
`
	var rec Record
	if err := s.pool.QueryRow(ctx, q, collection, id).Scan(&rec.ID, &rec.Data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, domain.ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

func (s *postgresStore) List(ctx context.Context, collection string) ([]Record, error) {
	const q = `
SELECT id::text, data
FROM documents
WHERE collection = $1
ORDER BY created_at ASC
`
	rows, err := s.pool.Query(ctx, q, collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Data); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *postgresStore) Create(ctx context.Context, collection string, data map[string]interface{}) (string, error) {
	id := uuid.NewString()
	const q = `
INSERT INTO documents (collection, id, data)
VALUES ($1, $2, $3)
`
	if _, err := s.pool.Exec(ctx, q, collection, id, data); err != nil {
		return "", err
	}
	return id, nil
}

func (s *postgresStore) Update(ctx context.Context, collection, id string, partial map[string]interface{}) error {
	const q = `
UPDATE documents
SET data = data || $3
WHERE collection = $1 AND id = $2
`
	cmd, err := s.pool.Exec(ctx, q, collection, id, partial)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *postgresStore) Delete(ctx context.Context, collection, id string) error {
	cmd, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
