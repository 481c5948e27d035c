package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokedexhub/pokedex-data/internal/cache"
	"github.com/pokedexhub/pokedex-data/internal/config"
	"github.com/pokedexhub/pokedex-data/internal/model"
	"github.com/pokedexhub/pokedex-data/internal/provider/pokeapi"
)

// --------------------------------------------------------------------------
// Stubs
// --------------------------------------------------------------------------

type stubResolver struct {
	p     *model.Pokemon
	err   error
	calls []string
}

func (s *stubResolver) Resolve(ctx context.Context, name string) (*model.Pokemon, error) {
	s.calls = append(s.calls, name)
	if s.err != nil {
		return nil, s.err
	}
	return s.p, nil
}

type stubEntities struct {
	items  []*model.Pokemon
	byName map[string]*model.Pokemon
}

func (s *stubEntities) FindByName(ctx context.Context, name string) (*model.Pokemon, error) {
	return s.byName[name], nil
}

func (s *stubEntities) List(ctx context.Context, limit, offset int) ([]*model.Pokemon, error) {
	if offset >= len(s.items) {
		return nil, nil
	}
	end := offset + limit
	if end > len(s.items) {
		end = len(s.items)
	}
	return s.items[offset:end], nil
}

func (s *stubEntities) Count(ctx context.Context) (int, error) {
	return len(s.items), nil
}

type stubRequests struct {
	entries []*model.APIRequest
}

func (s *stubRequests) Recent(ctx context.Context, limit int) ([]*model.APIRequest, error) {
	if limit > len(s.entries) {
		limit = len(s.entries)
	}
	return s.entries[:limit], nil
}

func (s *stubRequests) Count(ctx context.Context) (int, error) {
	return len(s.entries), nil
}

type stubHealth struct {
	err error
}

func (s *stubHealth) HealthCheck(ctx context.Context) error {
	return s.err
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func ditto() *model.Pokemon {
	return &model.Pokemon{
		PokemonID: 132,
		Name:      "ditto",
		Height:    3,
		Weight:    40,
		RawData:   json.RawMessage(`{"id":132,"name":"ditto","abilities":[{"ability":{"name":"limber"},"is_hidden":false}]}`),
	}
}

func newTestRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/api/v1/pokemon", h.ListPokemon)
	r.Post("/api/v1/pokemon/search", h.SearchPokemon)
	r.Get("/api/v1/pokemon/{name}", h.GetPokemon)
	r.Get("/api/v1/pokemon/{name}/download", h.DownloadPokemon)
	r.Get("/api/v1/requests", h.GetRecentRequests)
	r.Get("/health/db", h.HealthCheckDB)
	return r
}

func newTestHandler(resolver Resolver, entities EntityReader, requests RequestReader, health HealthChecker) *Handler {
	if resolver == nil {
		resolver = &stubResolver{}
	}
	if entities == nil {
		entities = &stubEntities{}
	}
	if requests == nil {
		requests = &stubRequests{}
	}
	if health == nil {
		health = &stubHealth{}
	}
	return New(resolver, entities, requests, health, cache.New(true), &config.Config{})
}

func doRequest(t *testing.T, h *Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, req)
	return rec
}

// --------------------------------------------------------------------------
// Tests
// --------------------------------------------------------------------------

func TestGetPokemonSuccess(t *testing.T) {
	resolver := &stubResolver{p: ditto()}
	h := newTestHandler(resolver, nil, nil, nil)

	rec := doRequest(t, h, http.MethodGet, "/api/v1/pokemon/ditto", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool          `json:"success"`
		Data    model.APIData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 132, body.Data.ID)
	assert.Equal(t, "ditto", body.Data.Name)
	assert.InDelta(t, 0.3, body.Data.HeightMeters, 1e-9)
	assert.Equal(t, []string{"limber"}, body.Data.Abilities)
	assert.Equal(t, []string{"ditto"}, resolver.calls)
}

func TestGetPokemonStatusByErrorKind(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", &pokeapi.NotFoundError{Name: "missingno"}, http.StatusNotFound, "NOT_FOUND"},
		{"transport", &pokeapi.TransportError{Name: "ditto", Err: context.DeadlineExceeded}, http.StatusGatewayTimeout, "PROVIDER_UNREACHABLE"},
		{"provider", &pokeapi.ProviderError{Name: "ditto", StatusCode: 500, Message: "boom"}, http.StatusBadGateway, "PROVIDER_ERROR"},
		{"internal", context.Canceled, http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(&stubResolver{err: tt.err}, nil, nil, nil)
			rec := doRequest(t, h, http.MethodGet, "/api/v1/pokemon/ditto", "")
			require.Equal(t, tt.wantStatus, rec.Code)

			var body struct {
				Success bool   `json:"success"`
				Error   string `json:"error"`
				Code    string `json:"code"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.NotEmpty(t, body.Error)
			assert.Equal(t, tt.wantCode, body.Code)
		})
	}
}

func TestSearchPokemon(t *testing.T) {
	resolver := &stubResolver{p: ditto()}
	h := newTestHandler(resolver, nil, nil, nil)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/pokemon/search", `{"pokemon_name": "Ditto"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Ditto"}, resolver.calls)
}

func TestSearchPokemonValidation(t *testing.T) {
	h := newTestHandler(nil, nil, nil, nil)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/pokemon/search", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "required")

	rec = doRequest(t, h, http.MethodPost, "/api/v1/pokemon/search", `{"pokemon_name": "`+strings.Repeat("a", 101)+`"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, h, http.MethodPost, "/api/v1/pokemon/search", `not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListPokemon(t *testing.T) {
	entities := &stubEntities{items: []*model.Pokemon{ditto()}}
	h := newTestHandler(nil, entities, nil, nil)

	rec := doRequest(t, h, http.MethodGet, "/api/v1/pokemon", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

	var body pokemonListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, 1, body.Page)
	assert.Equal(t, defaultPageSize, body.PageSize)
	require.Len(t, body.Results, 1)
	assert.Equal(t, "ditto", body.Results[0].Name)

	// Second read is served from the response cache.
	rec = doRequest(t, h, http.MethodGet, "/api/v1/pokemon", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))

	// Conditional request with the ETag gets a 304.
	etag := rec.Header().Get("ETag")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/pokemon", nil)
	req.Header.Set("If-None-Match", etag)
	rec2 := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusNotModified, rec2.Code)
}

func TestListPokemonClampsPaging(t *testing.T) {
	entities := &stubEntities{items: []*model.Pokemon{ditto()}}
	h := newTestHandler(nil, entities, nil, nil)

	rec := doRequest(t, h, http.MethodGet, "/api/v1/pokemon?page=-1&page_size=9999", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body pokemonListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Page)
	assert.Equal(t, defaultPageSize, body.PageSize)
}

func TestDownloadPokemon(t *testing.T) {
	entities := &stubEntities{byName: map[string]*model.Pokemon{"ditto": ditto()}}
	h := newTestHandler(nil, entities, nil, nil)

	rec := doRequest(t, h, http.MethodGet, "/api/v1/pokemon/Ditto/download", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `attachment`)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `ditto_data.json`)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "ditto", got["name"])
}

func TestDownloadPokemonNotCached(t *testing.T) {
	h := newTestHandler(nil, &stubEntities{}, nil, nil)

	rec := doRequest(t, h, http.MethodGet, "/api/v1/pokemon/missingno/download", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetRecentRequests(t *testing.T) {
	status := http.StatusOK
	requests := &stubRequests{entries: []*model.APIRequest{
		{ID: 2, PokemonName: "ditto", Success: true, HTTPStatusCode: &status},
		{ID: 1, PokemonName: "missingno", Success: false, ErrorMessage: `pokemon "missingno" not found`},
	}}
	h := newTestHandler(nil, nil, requests, nil)

	rec := doRequest(t, h, http.MethodGet, "/api/v1/requests?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body requestLogResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	require.Len(t, body.Results, 2)
	assert.Equal(t, "ditto", body.Results[0].PokemonName)
	assert.False(t, body.Results[1].Success)
}

func TestHealthCheckDB(t *testing.T) {
	h := newTestHandler(nil, nil, nil, &stubHealth{})
	rec := doRequest(t, h, http.MethodGet, "/health/db", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	h = newTestHandler(nil, nil, nil, &stubHealth{err: context.DeadlineExceeded})
	rec = doRequest(t, h, http.MethodGet, "/health/db", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
