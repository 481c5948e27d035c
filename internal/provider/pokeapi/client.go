// Package pokeapi provides the HTTP client for the public PokeAPI.
//
// PokeAPI is unauthenticated and read-only. Outbound calls are rate limited
// via a token bucket limiter and bounded by a per-request timeout; every
// failure is classified into one of the typed errors in errors.go so callers
// switch on kind, never on message text.
package pokeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// Resource is the typed slice of a PokeAPI pokemon document the cache
// persists as columns. Raw holds the complete unmodified body.
type Resource struct {
	ID             int             `json:"id"`
	Name           string          `json:"name"`
	Height         int             `json:"height"`
	Weight         int             `json:"weight"`
	BaseExperience *int            `json:"base_experience"`
	Raw            json.RawMessage `json:"-"`
	StatusCode     int             `json:"-"`
}

// Client is the HTTP client for the PokeAPI pokemon endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// Config bundles the client construction knobs.
type Config struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerMinute int
	HTTPClient        *http.Client // optional, overrides Timeout
}

// NewClient creates a PokeAPI client with rate limiting.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 100
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	rps := float64(cfg.RequestsPerMinute) / 60.0
	return &Client{
		httpClient: httpClient,
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
	}
}

// GetPokemon performs a rate-limited GET for one named resource.
//
// The name must already be normalized (trimmed, lowercased). Errors are
// always one of *NotFoundError, *TransportError, or *ProviderError.
func (c *Client) GetPokemon(ctx context.Context, name string) (*Resource, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &TransportError{Name: name, Err: fmt.Errorf("rate limit wait: %w", err)}
	}

	// Escaping the name keeps it a single path segment; it can never
	// re-route the request to a different endpoint.
	u := fmt.Sprintf("%s/%s/", c.baseURL, url.PathEscape(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &TransportError{Name: name, Err: fmt.Errorf("create request: %w", err)}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Name: name, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Name: name, Err: fmt.Errorf("read response body: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusNotFound:
		return nil, &NotFoundError{Name: name}
	default:
		return nil, &ProviderError{
			Name:       name,
			StatusCode: resp.StatusCode,
			Message:    truncate(body, 200),
		}
	}

	var res Resource
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, &ProviderError{
			Name:       name,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("decode response: %v", err),
		}
	}
	res.Raw = body
	res.StatusCode = resp.StatusCode

	c.logger.Debug("PokeAPI fetch ok", "name", name, "id", res.ID, "bytes", len(body))
	return &res, nil
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
