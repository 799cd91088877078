package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/aniarc/internal/httpserver/deps"
)

// Anime returns one decorated record.
func Anime(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		item, err := d.Feed.Anime(r.Context(), id)
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

// Recommendations returns the records recommended for {id}.
func Recommendations(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		items, err := d.Feed.Recommendations(r.Context(), id)
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
	}
}

type playResponse struct {
	URL string `json:"url"`
}

// Play resolves the player launch URL of {id}.
func Play(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		url, err := d.Feed.Play(r.Context(), id)
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, playResponse{URL: url})
	}
}
