// Package pokedex implements the get-or-fetch reconciliation flow that keeps
// the local Pokemon cache consistent with PokeAPI.
package pokedex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/pokedexhub/pokedex-data/internal/model"
	"github.com/pokedexhub/pokedex-data/internal/provider/pokeapi"
)

// EntityStore is the slice of the Pokemon store the service needs.
type EntityStore interface {
	FindByName(ctx context.Context, name string) (*model.Pokemon, error)
	Upsert(ctx context.Context, res *pokeapi.Resource) (*model.Pokemon, bool, error)
}

// RequestLog records every provider call, success or failure.
type RequestLog interface {
	Append(ctx context.Context, entry *model.APIRequest) error
}

// Fetcher retrieves one named resource from the provider.
type Fetcher interface {
	GetPokemon(ctx context.Context, name string) (*pokeapi.Resource, error)
}

// Archiver saves raw payload copies. May be nil to disable archiving.
type Archiver interface {
	Save(name string, id int, raw []byte) error
}

// Service orchestrates cache lookup, provider fetch, upsert, and audit
// logging for a single name.
type Service struct {
	entities EntityStore
	requests RequestLog
	client   Fetcher
	archive  Archiver
	logger   *slog.Logger
}

// NewService wires the reconciliation service.
func NewService(entities EntityStore, requests RequestLog, client Fetcher, archive Archiver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		entities: entities,
		requests: requests,
		client:   client,
		archive:  archive,
		logger:   logger,
	}
}

// NormalizeName trims and lowercases a queried name. Every lookup and
// provider call uses the normalized form; the provider's own casing survives
// only inside the raw payload.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// PokeAPI slugs are lowercase alphanumerics and hyphens (numeric ids are
// valid queries too). Anything else never names a resource, so it is refused
// before it can reach the provider URL or an archive filename.
var validName = regexp.MustCompile(`^[a-z0-9-]+$`)

// Resolve returns the cached entity for name, fetching and upserting it from
// the provider on cache miss.
//
// A cache hit makes no provider call and writes no request log entry; the
// log records provider traffic, not reads. On miss, exactly one log row is
// appended whatever the outcome, and every failure is returned as one of the
// typed errors from the pokeapi package (*NotFoundError, *TransportError,
// *ProviderError) — never a panic, never an unclassified fault.
func (s *Service) Resolve(ctx context.Context, name string) (*model.Pokemon, error) {
	name = NormalizeName(name)
	if !validName.MatchString(name) {
		return nil, &pokeapi.NotFoundError{Name: name}
	}

	cached, err := s.entities.FindByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("cache lookup for %q: %w", name, err)
	}
	if cached != nil {
		s.logger.Debug("Cache hit", "name", name, "id", cached.PokemonID)
		return cached, nil
	}

	s.logger.Info("Fetching Pokemon data", "name", name)
	res, err := s.client.GetPokemon(ctx, name)
	if err != nil {
		s.logFailure(ctx, name, err)
		return nil, err
	}

	s.logSuccess(ctx, name, res)

	// The stored name is always the normalized form; the provider's casing
	// survives only inside the raw payload.
	res.Name = NormalizeName(res.Name)

	entity, created, err := s.entities.Upsert(ctx, res)
	if err != nil {
		return nil, fmt.Errorf("upsert %q: %w", name, err)
	}
	action := "Updated"
	if created {
		action = "Created"
	}
	s.logger.Info(action+" Pokemon", "name", entity.Name, "id", entity.PokemonID)

	// Best-effort raw payload archive; never fails the resolve.
	if s.archive != nil {
		if err := s.archive.Save(name, res.ID, res.Raw); err != nil {
			s.logger.Error("Failed to archive raw payload", "name", name, "error", err)
		}
	}

	return entity, nil
}

// logSuccess appends the audit row for a successful provider call.
func (s *Service) logSuccess(ctx context.Context, name string, res *pokeapi.Resource) {
	status := res.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	s.appendLog(ctx, &model.APIRequest{
		PokemonName:    name,
		Success:        true,
		HTTPStatusCode: &status,
		ResponseData:   res.Raw,
	})
}

// logFailure appends the audit row for a failed provider call, carrying the
// status code when the provider answered at all.
func (s *Service) logFailure(ctx context.Context, name string, cause error) {
	entry := &model.APIRequest{
		PokemonName:  name,
		Success:      false,
		ErrorMessage: cause.Error(),
	}

	var notFound *pokeapi.NotFoundError
	var provider *pokeapi.ProviderError
	switch {
	case errors.As(cause, &notFound):
		status := http.StatusNotFound
		entry.HTTPStatusCode = &status
		s.logger.Warn("Pokemon not found", "name", name)
	case errors.As(cause, &provider):
		if provider.StatusCode > 0 {
			status := provider.StatusCode
			entry.HTTPStatusCode = &status
		}
		s.logger.Error("Provider error", "name", name, "status", provider.StatusCode)
	default:
		s.logger.Error("Transport failure", "name", name, "error", cause)
	}

	s.appendLog(ctx, entry)
}

func (s *Service) appendLog(ctx context.Context, entry *model.APIRequest) {
	if err := s.requests.Append(ctx, entry); err != nil {
		s.logger.Error("Failed to append request log", "name", entry.PokemonName, "error", err)
	}
}
