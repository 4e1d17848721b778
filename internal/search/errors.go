package search

import (
	"errors"
	"fmt"
)

// ErrMissingAPIKey is returned when no search service api key is
// configured. The orchestrator treats it as fatal for the whole run.
var ErrMissingAPIKey = errors.New("search service api key is not configured")

// HTTPError reports a non-success HTTP status from the search
// service. Scoped to one query.
type HTTPError struct {
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("search service bad status: %s", e.Status)
}

// APIError reports an explicit error field carried by an otherwise
// successful search service response. Scoped to one query.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("search service error: %s", e.Message)
}
