package search

import "fmt"

// TransportError is a failed provider call (network, HTTP status, malformed response or timeout).
type TransportError struct {
	Provider string
	Query    string
	Attempt  int
	Cause    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s search failed for %q (attempt %d): %v", e.Provider, e.Query, e.Attempt, e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// TokenError means the provider page did not yield the query token needed for the results call.
type TokenError struct {
	Query   string
	Message string
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("query token error for %q: %s", e.Query, e.Message)
}
