// Package handler provides HTTP handlers for all API endpoints.
// Handlers depend on narrow interfaces so they can be exercised against
// in-memory fakes.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/pokedexhub/pokedex-data/internal/api/respond"
	"github.com/pokedexhub/pokedex-data/internal/cache"
	"github.com/pokedexhub/pokedex-data/internal/config"
	"github.com/pokedexhub/pokedex-data/internal/model"
)

// Resolver runs the get-or-fetch reconciliation for one name.
type Resolver interface {
	Resolve(ctx context.Context, name string) (*model.Pokemon, error)
}

// EntityReader serves the list/detail/download views from the cache store.
type EntityReader interface {
	FindByName(ctx context.Context, name string) (*model.Pokemon, error)
	List(ctx context.Context, limit, offset int) ([]*model.Pokemon, error)
	Count(ctx context.Context) (int, error)
}

// RequestReader serves the audit views of the request log.
type RequestReader interface {
	Recent(ctx context.Context, limit int) ([]*model.APIRequest, error)
	Count(ctx context.Context) (int, error)
}

// HealthChecker reports whether the database is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	resolver Resolver
	entities EntityReader
	requests RequestReader
	health   HealthChecker
	cache    *cache.Cache
	cfg      *config.Config
}

// New creates a Handler with shared dependencies.
func New(resolver Resolver, entities EntityReader, requests RequestReader, health HealthChecker, c *cache.Cache, cfg *config.Config) *Handler {
	return &Handler{
		resolver: resolver,
		entities: entities,
		requests: requests,
		health:   health,
		cache:    c,
		cfg:      cfg,
	}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version, and status.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "Pokedex Data API",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs",
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns basic health status and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Description Verifies Postgres connectivity.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.health.HealthCheck(r.Context()); err != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns response cache statistics.
// @Summary Cache health check
// @Description Returns in-memory response cache statistics.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"cache":     h.cache.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
