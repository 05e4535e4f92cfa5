package routes

import (
	"github.com/courtside/bracket-engine/handlers"
	"github.com/courtside/bracket-engine/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupRoutes mounts the engine's HTTP surface. Bracket reads and the
// websocket stream are public; everything that mutates the bracket requires
// an admin token.
func SetupRoutes(
	router *chi.Mux,
	bracketHandler *handlers.BracketHandler,
	gameHandler *handlers.GameHandler,
	webSocketHandler *handlers.WebSocketHandler,
	jwtSecret string,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	router.Route("/tournaments/{tournamentID}", func(r chi.Router) {
		r.Get("/bracket", bracketHandler.GetBracket)
		r.Get("/bracket/validate", bracketHandler.ValidateBracket)
		r.Get("/bracket/duplicates", bracketHandler.ListDuplicates)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate([]byte(jwtSecret)))
			r.Use(middleware.Authorize("admin"))

			r.Post("/bracket", bracketHandler.GenerateBracket)
			r.Post("/bracket/relink", bracketHandler.RelinkBracket)
			r.Post("/bracket/prune", bracketHandler.PruneBracket)
			r.Post("/bracket/snapshot", bracketHandler.ExportSnapshot)
		})
	})

	router.Route("/games/{gameID}", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate([]byte(jwtSecret)))
			r.Use(middleware.Authorize("admin"))

			r.Post("/propagate", gameHandler.PropagateResult)
		})
	})

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.Subscribe)
}
