package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pokedexhub/pokedex-data/internal/api/respond"
	"github.com/pokedexhub/pokedex-data/internal/cache"
	"github.com/pokedexhub/pokedex-data/internal/model"
	"github.com/pokedexhub/pokedex-data/internal/pokedex"
	"github.com/pokedexhub/pokedex-data/internal/provider/pokeapi"
)

const defaultPageSize = 20

// pokemonListResponse is the paginated list envelope.
type pokemonListResponse struct {
	Count    int             `json:"count"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	Results  []model.APIData `json:"results"`
}

// GetPokemon returns a Pokemon, fetching it from PokeAPI on cache miss.
// @Summary Get or fetch a Pokemon
// @Description Returns the cached Pokemon for a name, fetching and caching it from PokeAPI when absent. Name matching is case-insensitive.
// @Tags pokemon
// @Produce json
// @Param name path string true "Pokemon name"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} respond.ErrorResponse
// @Failure 502 {object} respond.ErrorResponse
// @Failure 504 {object} respond.ErrorResponse
// @Router /pokemon/{name} [get]
func (h *Handler) GetPokemon(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	h.resolveAndRespond(w, r, name)
}

// searchRequest is the POST /pokemon/search body.
type searchRequest struct {
	PokemonName string `json:"pokemon_name" validate:"required,max=100"`
}

// SearchPokemon runs the same get-or-fetch flow for a validated form body.
// @Summary Search for a Pokemon
// @Description Validates the submitted name and runs the get-or-fetch flow.
// @Tags pokemon
// @Accept json
// @Produce json
// @Param request body searchRequest true "Search request"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /pokemon/search [post]
func (h *Handler) SearchPokemon(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_NAME", validationMessage(err))
		return
	}
	h.resolveAndRespond(w, r, req.PokemonName)
}

// resolveAndRespond maps the reconciliation outcome to a transport status by
// error kind, never by message text.
func (h *Handler) resolveAndRespond(w http.ResponseWriter, r *http.Request, name string) {
	p, err := h.resolver.Resolve(r.Context(), name)
	if err != nil {
		var notFound *pokeapi.NotFoundError
		var transport *pokeapi.TransportError
		var provider *pokeapi.ProviderError
		switch {
		case errors.As(err, &notFound):
			respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", notFound.Error())
		case errors.As(err, &transport):
			respond.WriteError(w, http.StatusGatewayTimeout, "PROVIDER_UNREACHABLE", transport.Error())
		case errors.As(err, &provider):
			respond.WriteError(w, http.StatusBadGateway, "PROVIDER_ERROR", provider.Error())
		default:
			respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Internal server error")
		}
		return
	}

	// The cached set may have grown; drop the stale list pages.
	h.cache.InvalidatePrefix(listCachePrefix)

	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    p.APIData(),
	})
}

// ListPokemon returns all cached Pokemon, paginated.
// @Summary List cached Pokemon
// @Description Returns cached Pokemon ordered by provider id. Never calls the provider.
// @Tags pokemon
// @Produce json
// @Param page query int false "Page number (1-based)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} pokemonListResponse
// @Router /pokemon [get]
func (h *Handler) ListPokemon(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := queryInt(r, "page_size", defaultPageSize)
	if pageSize < 1 || pageSize > 100 {
		pageSize = defaultPageSize
	}

	cacheKey := listCacheKey(page, pageSize)
	if data, etag, ok := h.cache.Get(cacheKey); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, cache.TTLList, true)
		return
	}

	count, err := h.entities.Count(r.Context())
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Internal server error")
		return
	}
	entities, err := h.entities.List(r.Context(), pageSize, (page-1)*pageSize)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Internal server error")
		return
	}

	results := make([]model.APIData, 0, len(entities))
	for _, p := range entities {
		results = append(results, p.APIData())
	}

	body, err := json.Marshal(pokemonListResponse{
		Count:    count,
		Page:     page,
		PageSize: pageSize,
		Results:  results,
	})
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Internal server error")
		return
	}

	etag := h.cache.Set(cacheKey, body, cache.TTLList)
	respond.WriteJSON(w, body, etag, cache.TTLList, false)
}

// DownloadPokemon serves the raw provider payload as a JSON attachment.
// @Summary Download raw payload
// @Description Serves the stored raw PokeAPI payload for a cached Pokemon as a file attachment.
// @Tags pokemon
// @Produce json
// @Param name path string true "Pokemon name"
// @Success 200 {string} string "raw payload"
// @Failure 404 {object} respond.ErrorResponse
// @Router /pokemon/{name}/download [get]
func (h *Handler) DownloadPokemon(w http.ResponseWriter, r *http.Request) {
	name := pokedex.NormalizeName(chi.URLParam(r, "name"))
	p, err := h.entities.FindByName(r.Context(), name)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Internal server error")
		return
	}
	if p == nil {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("pokemon %q not found", name))
		return
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, p.RawData, "", "  "); err != nil {
		buf.Reset()
		buf.Write(p.RawData)
	}
	respond.WriteAttachment(w, p.Name+"_data.json", buf.Bytes())
}

const listCachePrefix = "pokemon_list:"

func listCacheKey(page, pageSize int) string {
	return fmt.Sprintf("%s%d:%d", listCachePrefix, page, pageSize)
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
