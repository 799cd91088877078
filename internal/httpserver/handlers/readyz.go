package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/aniarc/internal/httpserver/deps"
	"github.com/MrSnakeDoc/aniarc/internal/logger"
)

type readyzResponse struct {
	Ready bool   `json:"ready"`
	Store string `json:"store"`
	Feed  string `json:"feed"`
	Error string `json:"error,omitempty"`
}

// Readyz pings the user state backend. The feed phase is reported but does
// not affect readiness: a catalog outage leaves the API usable.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := readyzResponse{
			Ready: true,
			Store: d.StoreDriver,
			Feed:  string(d.Feed.State().Phase),
		}
		status := http.StatusOK
		if err := d.UserState.Ping(ctx); err != nil {
			d.Logger.Warn("readiness check failed", logger.Error(err))
			resp.Ready = false
			resp.Error = err.Error()
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}
