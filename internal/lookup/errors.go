package lookup

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidURL      = errors.New("invalid lookup request url")
	ErrInvalidResponse = errors.New("invalid lookup response")
	ErrDecoding        = errors.New("failed to decode lookup response")
	ErrNetwork         = errors.New("lookup network error")
	ErrNoResultsFound  = errors.New("no matching titles found")
)

// NetworkError wraps a transport failure or a rejected call.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("lookup network error: %v", e.Err)
}

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }
func (e *NetworkError) Unwrap() error        { return e.Err }

// Message returns the human readable text shown to users for err.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var netErr *NetworkError
	switch {
	case errors.Is(err, ErrInvalidURL):
		return "Invalid URL for IMDB API request"
	case errors.Is(err, ErrInvalidResponse):
		return "Invalid response from IMDB API"
	case errors.Is(err, ErrDecoding):
		return "Failed to decode IMDB API response"
	case errors.Is(err, ErrNoResultsFound):
		return "No matching titles found on IMDB"
	case errors.As(err, &netErr):
		return "Network error: " + netErr.Err.Error()
	default:
		return err.Error()
	}
}
