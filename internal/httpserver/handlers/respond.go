package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/MrSnakeDoc/aniarc/internal/catalog"
	"github.com/MrSnakeDoc/aniarc/internal/feed"
	"github.com/MrSnakeDoc/aniarc/internal/lookup"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: message}})
}

// RateLimited is the 429 body of the inbound rate limiter.
func RateLimited(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusTooManyRequests, "rate_limited", "Too many requests, slow down.")
}

// writeFailure maps err to a status code and a user-facing message.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)

	msg := catalog.Message(err)
	var lookupNet *lookup.NetworkError
	if errors.Is(err, lookup.ErrNoResultsFound) ||
		errors.Is(err, lookup.ErrInvalidResponse) ||
		errors.Is(err, lookup.ErrDecoding) ||
		errors.Is(err, lookup.ErrInvalidURL) ||
		errors.As(err, &lookupNet) {
		msg = lookup.Message(err)
	}
	writeError(w, status, code, msg)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, lookup.ErrNoResultsFound):
		return http.StatusNotFound, "no_results"
	case errors.Is(err, catalog.ErrRateLimited):
		return http.StatusTooManyRequests, "upstream_rate_limited"
	case errors.Is(err, feed.ErrInvalidSeason):
		return http.StatusBadRequest, "invalid_season"
	case errors.Is(err, feed.ErrLoadMoreUnavailable):
		return http.StatusConflict, "load_more_unavailable"
	case errors.Is(err, feed.ErrSuperseded):
		return http.StatusConflict, "superseded"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "cancelled"
	case errors.Is(err, catalog.ErrServer),
		errors.Is(err, catalog.ErrNetwork),
		errors.Is(err, catalog.ErrDecoding),
		errors.Is(err, catalog.ErrInvalidResponse),
		errors.Is(err, catalog.ErrInvalidURL),
		errors.Is(err, lookup.ErrNetwork),
		errors.Is(err, lookup.ErrDecoding),
		errors.Is(err, lookup.ErrInvalidResponse),
		errors.Is(err, lookup.ErrInvalidURL):
		return http.StatusBadGateway, "upstream_error"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// idParam parses the {id} path parameter. It writes a 400 and reports false
// when the id is not a positive integer.
func idParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "id must be a positive integer")
		return 0, false
	}
	return id, true
}
