package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/aniarc/internal/httpserver/deps"
	"github.com/MrSnakeDoc/aniarc/internal/httpserver/handlers"
)

func init() { Register(registerUserData) }

func registerUserData(r chi.Router, d deps.Deps) {
	g := api(r, d)
	g.Get("/api/watchlist", handlers.Watchlist(d))
	g.Get("/api/watchlist/items", handlers.WatchlistItems(d))
	g.Put("/api/watchlist/{id}", handlers.AddToWatchlist(d))
	g.Patch("/api/watchlist/{id}", handlers.UpdateWatchlist(d))
	g.Delete("/api/watchlist/{id}", handlers.RemoveFromWatchlist(d))
	g.Post("/api/favorites/{id}/toggle", handlers.ToggleFavorite(d))
	g.Get("/api/stats", handlers.Stats(d))
	g.Get("/api/userdata/export", handlers.Export(d))
	g.Post("/api/userdata/import", handlers.Import(d))
	g.Delete("/api/userdata", handlers.Clear(d))
}
