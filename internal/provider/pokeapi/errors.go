package pokeapi

import (
	"fmt"
	"net/http"
)

// NotFoundError reports that the provider has no resource with the queried
// name. This is an expected outcome, not a system fault.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("pokemon %q not found", e.Name)
}

// TransportError captures timeouts, connection failures, and DNS errors —
// anything that prevented a provider response from arriving at all.
type TransportError struct {
	Name string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("pokeapi request for %q failed: %v", e.Name, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProviderError captures provider misbehavior: any non-200/non-404 response,
// or a 200 response whose body could not be decoded.
type ProviderError struct {
	Name       string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 && e.StatusCode != http.StatusOK {
		return fmt.Sprintf("pokeapi returned %d for %q: %s", e.StatusCode, e.Name, e.Message)
	}
	return fmt.Sprintf("pokeapi error for %q: %s", e.Name, e.Message)
}
