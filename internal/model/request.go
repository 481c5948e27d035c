package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// APIRequest is one append-only audit row recording a PokeAPI call.
// Rows are immutable after creation.
type APIRequest struct {
	ID             int64           `json:"id"`
	PokemonName    string          `json:"pokemon_name"`
	Success        bool            `json:"success"`
	ErrorMessage   string          `json:"error_message,omitempty"`
	HTTPStatusCode *int            `json:"http_status_code,omitempty"`
	ResponseData   json.RawMessage `json:"-"`
	RequestedAt    time.Time       `json:"requested_at"`
}

func (r *APIRequest) String() string {
	status := "SUCCESS"
	if !r.Success {
		status = "ERROR"
	}
	return fmt.Sprintf("%s - %s (%s)", r.PokemonName, status, r.RequestedAt.Format(time.RFC3339))
}
