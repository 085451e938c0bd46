package spotify

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a Spotify API error.
//
// Status is the HTTP status of the failed request and Message is the
// description Spotify returned with it.
type Error struct {
	Status  int    // HTTP status code
	Message string // Error message from Spotify
}

// Error returns the error message.
func (e *Error) Error() string {
	return fmt.Sprintf("spotify: error %d: %s", e.Status, e.Message)
}

// Is checks if the target error is a Spotify error with the same status.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Status == t.Status
}

// Temporary returns true if the request may succeed when retried.
//
// Rate limiting (429) and the 5xx gateway and availability statuses are
// temporary.
func (e *Error) Temporary() bool {
	switch e.Status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// Predefined errors for common cases.
var (
	// ErrNoToken is returned when the token endpoint answers without an
	// access token.
	ErrNoToken = errors.New("spotify: no access token in response")

	// ErrInvalidID is returned for track IDs that are neither bare IDs
	// nor spotify:track: URIs or open.spotify.com links.
	ErrInvalidID = errors.New("spotify: invalid track id")
)
