package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pokedexhub/pokedex-data/internal/model"
)

// RequestLogStore persists the append-only PokeAPI request audit trail.
type RequestLogStore struct {
	pool *pgxpool.Pool
}

// NewRequestLogStore creates a RequestLogStore over the shared pool.
func NewRequestLogStore(pool *pgxpool.Pool) *RequestLogStore {
	return &RequestLogStore{pool: pool}
}

// Append writes one log row and fills in its id and timestamp.
func (s *RequestLogStore) Append(ctx context.Context, entry *model.APIRequest) error {
	var responseData any
	if len(entry.ResponseData) > 0 {
		responseData = entry.ResponseData
	}
	err := s.pool.QueryRow(ctx, "request_log_insert",
		entry.PokemonName, entry.Success, entry.ErrorMessage,
		entry.HTTPStatusCode, responseData,
	).Scan(&entry.ID, &entry.RequestedAt)
	if err != nil {
		return fmt.Errorf("append request log: %w", err)
	}
	return nil
}

// Recent returns the newest log rows, most recent first.
func (s *RequestLogStore) Recent(ctx context.Context, limit int) ([]*model.APIRequest, error) {
	rows, err := s.pool.Query(ctx, "request_log_recent", limit)
	if err != nil {
		return nil, fmt.Errorf("list request log: %w", err)
	}
	defer rows.Close()

	var result []*model.APIRequest
	for rows.Next() {
		var r model.APIRequest
		err := rows.Scan(
			&r.ID, &r.PokemonName, &r.Success, &r.ErrorMessage,
			&r.HTTPStatusCode, &r.ResponseData, &r.RequestedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan request log row: %w", err)
		}
		result = append(result, &r)
	}
	return result, rows.Err()
}

// Count returns the total number of log rows.
func (s *RequestLogStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, "request_log_count").Scan(&n); err != nil {
		return 0, fmt.Errorf("count request log: %w", err)
	}
	return n, nil
}

// Prune deletes log rows older than the cutoff and reports how many went.
// Retention is an administrative concern; the reconciliation flow itself
// never deletes.
func (s *RequestLogStore) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, "request_log_prune", olderThan)
	if err != nil {
		return 0, fmt.Errorf("prune request log: %w", err)
	}
	return tag.RowsAffected(), nil
}
