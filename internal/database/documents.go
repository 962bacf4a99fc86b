package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/thomasarchive/archive/internal/catalog"
)

// DocumentStore keeps catalog documents as jsonb rows keyed by document key.
type DocumentStore struct {
	db DBTX
}

func NewDocumentStore(db DBTX) *DocumentStore {
	return &DocumentStore{db: db}
}

func (s *DocumentStore) Fetch(ctx context.Context, key string) ([]byte, error) {
	var body string
	err := s.db.QueryRow(ctx, `SELECT body::text FROM catalog_documents WHERE key = $1`, key).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", key, catalog.ErrDocumentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query document %s: %w", key, err)
	}
	return []byte(body), nil
}

func (s *DocumentStore) Put(ctx context.Context, key string, body []byte) error {
	if !json.Valid(body) {
		return fmt.Errorf("document %s is not valid JSON", key)
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO catalog_documents (key, body, updated_at) VALUES ($1, $2::jsonb, now())
		 ON CONFLICT (key) DO UPDATE SET body = EXCLUDED.body, updated_at = now()`,
		key, string(body))
	if err != nil {
		return fmt.Errorf("store document %s: %w", key, err)
	}
	return nil
}

func (s *DocumentStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT key FROM catalog_documents ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan document keys: %w", err)
	}
	return keys, nil
}
