// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pokedexhub/pokedex-data/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// registerPreparedStatements registers all statements the API and ingestion
// layers use. Prepared statements eliminate parse overhead on every request.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	const pokemonCols = "id, pokemon_id, name, height, weight, base_experience, raw_data, created_at, updated_at"
	const requestCols = "id, pokemon_name, success, error_message, http_status_code, response_data, requested_at"

	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Entity cache
		"pokemon_by_name": "SELECT " + pokemonCols + " FROM " + config.PokemonTable + " WHERE name = $1",
		"pokemon_list":    "SELECT " + pokemonCols + " FROM " + config.PokemonTable + " ORDER BY pokemon_id LIMIT $1 OFFSET $2",
		"pokemon_count":   "SELECT count(*) FROM " + config.PokemonTable,
		"upsert_pokemon": "INSERT INTO " + config.PokemonTable + ` (
			pokemon_id, name, height, weight, base_experience, raw_data
		) VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (pokemon_id) DO UPDATE SET
			name = EXCLUDED.name,
			height = EXCLUDED.height,
			weight = EXCLUDED.weight,
			base_experience = EXCLUDED.base_experience,
			raw_data = EXCLUDED.raw_data,
			updated_at = NOW()
		RETURNING id, created_at, updated_at, (xmax = 0) AS inserted`,

		// Request log
		"request_log_insert": "INSERT INTO " + config.RequestLogTable + ` (
			pokemon_name, success, error_message, http_status_code, response_data
		) VALUES ($1,$2,$3,$4,$5)
		RETURNING id, requested_at`,
		"request_log_recent": "SELECT " + requestCols + " FROM " + config.RequestLogTable + " ORDER BY requested_at DESC LIMIT $1",
		"request_log_count":  "SELECT count(*) FROM " + config.RequestLogTable,
		"request_log_prune":  "DELETE FROM " + config.RequestLogTable + " WHERE requested_at < $1",
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
