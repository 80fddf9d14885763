package joplin

import (
	"errors"
	"fmt"
)

// ErrUnauthorized indicates the API token was rejected
var ErrUnauthorized = errors.New("joplin rejected the API token")

// ErrNotFound indicates the requested item does not exist
var ErrNotFound = errors.New("joplin item not found")

// ServerError represents a 5xx error from the Joplin Data API
type ServerError struct {
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("Joplin server error: HTTP %d: %s", e.StatusCode, e.Body)
}
