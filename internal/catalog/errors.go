package catalog

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the catalog client. Callers match them with errors.Is.
var (
	ErrInvalidURL      = errors.New("invalid catalog request url")
	ErrInvalidResponse = errors.New("invalid catalog response")
	ErrDecoding        = errors.New("failed to decode catalog response")
	ErrRateLimited     = errors.New("catalog rate limit exceeded")
	ErrNotFound        = errors.New("anime not found")
	ErrServer          = errors.New("catalog server error")
	ErrNetwork         = errors.New("catalog network error")
)

// ServerError carries the HTTP status of an unexpected non-2xx response.
type ServerError struct {
	Code int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("catalog server error: status %d", e.Code)
}

func (e *ServerError) Is(target error) bool { return target == ErrServer }

// NetworkError wraps a transport failure, including context cancellation.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("catalog network error: %v", e.Err)
}

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }
func (e *NetworkError) Unwrap() error        { return e.Err }

// Message returns the human readable text shown to users for err.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var serverErr *ServerError
	var netErr *NetworkError
	switch {
	case errors.Is(err, ErrInvalidURL):
		return "Invalid URL for Jikan API request"
	case errors.Is(err, ErrInvalidResponse):
		return "Invalid response from Jikan API"
	case errors.Is(err, ErrDecoding):
		return "Failed to decode Jikan API response"
	case errors.Is(err, ErrRateLimited):
		return "Rate limit exceeded. Please try again later."
	case errors.Is(err, ErrNotFound):
		return "Anime not found"
	case errors.As(err, &serverErr):
		return fmt.Sprintf("Server error with code: %d", serverErr.Code)
	case errors.As(err, &netErr):
		return "Network error: " + netErr.Err.Error()
	default:
		return err.Error()
	}
}

// outcome maps err to the metrics label of the request.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrServer):
		return "server_error"
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.Is(err, ErrDecoding):
		return "decode"
	default:
		return "invalid"
	}
}
