// Package store implements the Postgres-backed entity cache and request log.
//
// Statements referenced by name here are registered in internal/db as
// prepared statements on every pool connection.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pokedexhub/pokedex-data/internal/model"
	"github.com/pokedexhub/pokedex-data/internal/provider/pokeapi"
)

// PokemonStore persists cached Pokemon entities.
type PokemonStore struct {
	pool *pgxpool.Pool
}

// NewPokemonStore creates a PokemonStore over the shared pool.
func NewPokemonStore(pool *pgxpool.Pool) *PokemonStore {
	return &PokemonStore{pool: pool}
}

// FindByName looks up a cached entity by its normalized name.
// Returns (nil, nil) when the name is not cached.
func (s *PokemonStore) FindByName(ctx context.Context, name string) (*model.Pokemon, error) {
	p, err := scanPokemon(s.pool.QueryRow(ctx, "pokemon_by_name", name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find pokemon by name %q: %w", name, err)
	}
	return p, nil
}

// Upsert writes a fetched provider resource, keyed by the provider id.
// The ON CONFLICT clause makes concurrent upserts for the same id safe:
// last writer wins on fields, no duplicate rows. Returns the stored entity
// and whether a new row was created.
func (s *PokemonStore) Upsert(ctx context.Context, res *pokeapi.Resource) (*model.Pokemon, bool, error) {
	// The name column carries a lowercase CHECK constraint.
	name := strings.ToLower(res.Name)
	p := &model.Pokemon{
		PokemonID:      res.ID,
		Name:           name,
		Height:         res.Height,
		Weight:         res.Weight,
		BaseExperience: res.BaseExperience,
		RawData:        res.Raw,
	}

	var created bool
	err := s.pool.QueryRow(ctx, "upsert_pokemon",
		res.ID, name, res.Height, res.Weight, res.BaseExperience, res.Raw,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt, &created)
	if err != nil {
		return nil, false, fmt.Errorf("upsert pokemon %d: %w", res.ID, err)
	}
	return p, created, nil
}

// List returns cached entities ordered by provider id.
func (s *PokemonStore) List(ctx context.Context, limit, offset int) ([]*model.Pokemon, error) {
	rows, err := s.pool.Query(ctx, "pokemon_list", limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list pokemon: %w", err)
	}
	defer rows.Close()

	var result []*model.Pokemon
	for rows.Next() {
		p, err := scanPokemon(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pokemon row: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// Count returns the number of cached entities.
func (s *PokemonStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, "pokemon_count").Scan(&n); err != nil {
		return 0, fmt.Errorf("count pokemon: %w", err)
	}
	return n, nil
}

func scanPokemon(row pgx.Row) (*model.Pokemon, error) {
	var p model.Pokemon
	err := row.Scan(
		&p.ID, &p.PokemonID, &p.Name, &p.Height, &p.Weight,
		&p.BaseExperience, &p.RawData, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
