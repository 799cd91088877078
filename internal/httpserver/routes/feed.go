package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/aniarc/internal/httpserver/deps"
	"github.com/MrSnakeDoc/aniarc/internal/httpserver/handlers"
)

func init() { Register(registerFeed) }

func registerFeed(r chi.Router, d deps.Deps) {
	g := api(r, d)
	g.Get("/api/feed", handlers.Feed(d))
	g.Get("/api/feed/options", handlers.Options(d))
	g.Post("/api/feed/mode/{mode}", handlers.SetMode(d))
	g.Post("/api/feed/season/{year}/{season}", handlers.SetSeason(d))
	g.Post("/api/feed/more", handlers.LoadMore(d))
	g.Post("/api/feed/refresh", handlers.Refresh(d))
	g.Post("/api/feed/search", handlers.Search(d))
	g.Post("/api/feed/search/queue", handlers.QueueSearch(d))
	g.Post("/api/feed/genres", handlers.Genres(d))
}
