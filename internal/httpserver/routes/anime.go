package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/aniarc/internal/httpserver/deps"
	"github.com/MrSnakeDoc/aniarc/internal/httpserver/handlers"
)

func init() { Register(registerAnime) }

func registerAnime(r chi.Router, d deps.Deps) {
	g := api(r, d)
	g.Get("/api/anime/{id}", handlers.Anime(d))
	g.Get("/api/anime/{id}/recommendations", handlers.Recommendations(d))
	g.Get("/api/anime/{id}/play", handlers.Play(d))
}
