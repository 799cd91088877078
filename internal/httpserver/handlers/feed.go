package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/aniarc/internal/catalog"
	"github.com/MrSnakeDoc/aniarc/internal/config"
	"github.com/MrSnakeDoc/aniarc/internal/domain"
	"github.com/MrSnakeDoc/aniarc/internal/feed"
	"github.com/MrSnakeDoc/aniarc/internal/httpserver/deps"
	"github.com/MrSnakeDoc/aniarc/internal/logger"
)

type feedResponse struct {
	State feed.State  `json:"state"`
	Items []feed.Item `json:"items"`
}

func feedSnapshot(d deps.Deps) feedResponse {
	return feedResponse{State: d.Feed.State(), Items: d.Feed.Items()}
}

// Feed returns the feed state and its items, narrowed locally by the q and
// genres query parameters.
func Feed(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		writeJSON(w, http.StatusOK, feedResponse{
			State: d.Feed.State(),
			Items: d.Feed.FilteredItems(q.Get("q"), config.SplitList(q.Get("genres"))),
		})
	}
}

// SetMode switches the browse mode.
func SetMode(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mode, err := feed.ParseMode(chi.URLParam(r, "mode"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		if err := d.Feed.SetMode(r.Context(), mode); err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, feedSnapshot(d))
	}
}

// SetSeason browses the broadcast season {season} of {year}.
func SetSeason(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		year, err := strconv.Atoi(chi.URLParam(r, "year"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "year must be an integer")
			return
		}
		if err := d.Feed.SetSeason(r.Context(), year, chi.URLParam(r, "season")); err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, feedSnapshot(d))
	}
}

type statusOption struct {
	Value domain.WatchStatus `json:"value"`
	Label string             `json:"label"`
}

type optionsResponse struct {
	Modes    []feed.Mode    `json:"modes"`
	Seasons  []string       `json:"seasons"`
	Genres   []string       `json:"genres"`
	Statuses []statusOption `json:"statuses"`
}

// Options lists the values accepted by the feed and watchlist endpoints.
func Options(d deps.Deps) http.HandlerFunc {
	statuses := make([]statusOption, 0, len(domain.WatchStatuses))
	for _, st := range domain.WatchStatuses {
		statuses = append(statuses, statusOption{Value: st, Label: st.DisplayName()})
	}
	resp := optionsResponse{
		Modes:    feed.Modes,
		Seasons:  catalog.Seasons,
		Genres:   domain.GenreNames(),
		Statuses: statuses,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, resp)
	}
}

// LoadMore appends the next page.
func LoadMore(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Feed.LoadMore(r.Context()); err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, feedSnapshot(d))
	}
}

// Search submits q immediately. An empty q reloads the current mode.
func Search(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Feed.SubmitSearch(r.Context(), r.URL.Query().Get("q")); err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, feedSnapshot(d))
	}
}

// QueueSearch debounces q; the result shows up in a later GET /api/feed.
func QueueSearch(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.Feed.QueueSearch(r.URL.Query().Get("q"))
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
	}
}

// Genres applies a genre filter feed.
func Genres(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names := config.SplitList(r.URL.Query().Get("genres"))
		if err := d.Feed.ApplyGenres(r.Context(), names); err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, feedSnapshot(d))
	}
}

// Refresh asks the refresher for an immediate refresh of the feed.
func Refresh(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case d.RefreshTrigger <- struct{}{}:
			d.Logger.Info("manual feed refresh triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusAccepted, map[string]string{"status": "refresh triggered"})
		default:
			d.Logger.Warn("feed refresh already pending",
				logger.String("remote_ip", r.RemoteAddr))
			writeError(w, http.StatusTooManyRequests, "refresh_pending", "Refresh already in progress, please wait")
		}
	}
}
