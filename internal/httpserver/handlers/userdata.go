package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/aniarc/internal/domain"
	"github.com/MrSnakeDoc/aniarc/internal/httpserver/deps"
	"github.com/MrSnakeDoc/aniarc/internal/logger"
	"github.com/MrSnakeDoc/aniarc/internal/userstate"
)

const maxBodyBytes = 4 << 20

func statusParam(w http.ResponseWriter, r *http.Request) (domain.WatchStatus, bool) {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return "", true
	}
	st, err := domain.ParseWatchStatus(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return "", false
	}
	return st, true
}

// Watchlist lists the raw watchlist entries, optionally by status.
func Watchlist(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, ok := statusParam(w, r)
		if !ok {
			return
		}
		entries := d.UserState.Entries()
		if st != "" {
			entries = d.UserState.EntriesByStatus(st)
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
	}
}

// WatchlistItems hydrates the watchlist into catalog records.
func WatchlistItems(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, ok := statusParam(w, r)
		if !ok {
			return
		}
		items, err := d.Feed.WatchlistItems(r.Context(), st)
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
	}
}

type putWatchlistRequest struct {
	Status domain.WatchStatus `json:"status"`
}

// AddToWatchlist inserts or replaces the entry of {id}.
func AddToWatchlist(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		var req putWatchlistRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Status != "" {
			if _, err := domain.ParseWatchStatus(string(req.Status)); err != nil {
				writeError(w, http.StatusBadRequest, "bad_request", err.Error())
				return
			}
		}

		rec, found := d.Feed.Record(id)
		if !found {
			rec = domain.AnimeRecord{ID: id}
		}
		if err := d.UserState.AddToWatchlist(r.Context(), rec, req.Status); err != nil {
			writeFailure(w, err)
			return
		}
		entry, _ := d.UserState.GetEntry(id)
		writeJSON(w, http.StatusOK, entry)
	}
}

type patchWatchlistRequest struct {
	Status   *domain.WatchStatus `json:"status"`
	Progress *int                `json:"progress"`
	Rating   *int                `json:"rating"` // 0 removes the rating
	Notes    *string             `json:"notes"`
}

// UpdateWatchlist applies a partial update to {id}.
func UpdateWatchlist(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		var req patchWatchlistRequest
		if !decodeBody(w, r, &req) {
			return
		}

		ctx := r.Context()
		var err error
		if req.Status != nil {
			if _, perr := domain.ParseWatchStatus(string(*req.Status)); perr != nil {
				writeError(w, http.StatusBadRequest, "bad_request", perr.Error())
				return
			}
			err = d.UserState.UpdateWatchStatus(ctx, id, *req.Status)
		}
		if err == nil && req.Progress != nil {
			err = d.UserState.UpdateWatchProgress(ctx, id, *req.Progress)
		}
		if err == nil && req.Rating != nil {
			if *req.Rating == 0 {
				err = d.UserState.RemoveUserRating(ctx, id)
			} else {
				err = d.UserState.SetUserRating(ctx, id, *req.Rating)
			}
		}
		if err == nil && req.Notes != nil {
			err = d.UserState.UpdateNotes(ctx, id, *req.Notes)
		}
		if err != nil {
			writeFailure(w, err)
			return
		}

		entry, found := d.UserState.GetEntry(id)
		if !found {
			entry = domain.UserAnimeEntry{ID: id, WatchProgress: d.UserState.GetProgress(id)}
			if rating, ok := d.UserState.GetUserRating(id); ok {
				entry.UserRating = &rating
			}
		}
		writeJSON(w, http.StatusOK, entry)
	}
}

// RemoveFromWatchlist deletes the entry of {id}.
func RemoveFromWatchlist(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		if err := d.UserState.RemoveFromWatchlist(r.Context(), id); err != nil {
			writeFailure(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ToggleFavorite flips favorite membership of {id}.
func ToggleFavorite(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		fav, err := d.UserState.ToggleFavorite(r.Context(), id)
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "favorite": fav})
	}
}

type statsResponse struct {
	userstate.Stats
	Favorites int                     `json:"favorites"`
	Recent    []domain.UserAnimeEntry `json:"recent"`
}

// Stats summarizes the watchlist.
func Stats(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, statsResponse{
			Stats:     d.UserState.CompletionStats(),
			Favorites: len(d.UserState.FavoriteIDs()),
			Recent:    d.UserState.RecentlyAdded(5),
		})
	}
}

// Export downloads the whole user state. ?format=yaml switches to YAML.
func Export(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := d.UserState.ExportAll()
		if !strings.EqualFold(r.URL.Query().Get("format"), "yaml") {
			w.Header().Set("Content-Disposition", `attachment; filename="aniarc-userdata.json"`)
			writeJSON(w, http.StatusOK, snap)
			return
		}

		out, err := yaml.Marshal(snap)
		if err != nil {
			writeFailure(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.Header().Set("Content-Disposition", `attachment; filename="aniarc-userdata.yaml"`)
		_, _ = w.Write(out)
	}
}

// Import merges an uploaded snapshot (JSON, or YAML by content type).
func Import(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var snap userstate.Snapshot
		if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
			if err == nil {
				err = yaml.Unmarshal(body, &snap)
			}
			if err != nil {
				writeError(w, http.StatusBadRequest, "bad_request", "invalid yaml body: "+err.Error())
				return
			}
		} else if !decodeBody(w, r, &snap) {
			return
		}

		if err := d.UserState.ImportAll(r.Context(), snap); err != nil {
			writeFailure(w, err)
			return
		}
		d.Logger.Info("user data imported",
			logger.Int("favorites", len(snap.Favorites)),
			logger.Int("ratings", len(snap.Ratings)),
			logger.Int("progress", len(snap.Progress)))
		writeJSON(w, http.StatusOK, d.UserState.CompletionStats())
	}
}

// Clear wipes every user index.
func Clear(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.UserState.ClearAll(r.Context()); err != nil {
			writeFailure(w, err)
			return
		}
		d.Logger.Warn("user data cleared",
			logger.String("remote_ip", r.RemoteAddr))
		w.WriteHeader(http.StatusNoContent)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid json body: "+err.Error())
		return false
	}
	return true
}
