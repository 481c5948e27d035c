package handler

import (
	"encoding/json"
	"net/http"

	"github.com/pokedexhub/pokedex-data/internal/api/respond"
	"github.com/pokedexhub/pokedex-data/internal/cache"
	"github.com/pokedexhub/pokedex-data/internal/model"
)

const requestsCacheKey = "requests_recent"

// requestLogResponse is the audit view envelope.
type requestLogResponse struct {
	Count   int                 `json:"count"`
	Results []*model.APIRequest `json:"results"`
}

// GetRecentRequests returns the newest request log entries.
// @Summary Recent provider requests
// @Description Returns the newest PokeAPI request log entries, most recent first.
// @Tags requests
// @Produce json
// @Param limit query int false "Maximum entries (default 10, max 100)"
// @Success 200 {object} requestLogResponse
// @Router /requests [get]
func (h *Handler) GetRecentRequests(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 10)
	if limit < 1 || limit > 100 {
		limit = 10
	}

	// Only the default view is cached; explicit limits read through.
	useCache := limit == 10
	if useCache {
		if data, etag, ok := h.cache.Get(requestsCacheKey); ok {
			if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
				respond.WriteNotModified(w, etag)
				return
			}
			respond.WriteJSON(w, data, etag, cache.TTLRequests, true)
			return
		}
	}

	count, err := h.requests.Count(r.Context())
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Internal server error")
		return
	}
	entries, err := h.requests.Recent(r.Context(), limit)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Internal server error")
		return
	}
	if entries == nil {
		entries = []*model.APIRequest{}
	}

	body, err := json.Marshal(requestLogResponse{Count: count, Results: entries})
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Internal server error")
		return
	}

	if useCache {
		etag := h.cache.Set(requestsCacheKey, body, cache.TTLRequests)
		respond.WriteJSON(w, body, etag, cache.TTLRequests, false)
		return
	}
	respond.WriteJSON(w, body, cache.ComputeETag(body), cache.TTLRequests, false)
}
