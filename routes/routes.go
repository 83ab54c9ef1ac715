package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/Dosada05/league-draw/docs"
	"github.com/Dosada05/league-draw/handlers"
	"github.com/Dosada05/league-draw/middleware"
)

type Handlers struct {
	Health      *handlers.HealthHandler
	Auth        *handlers.AuthHandler
	Competition *handlers.CompetitionHandler
	Draw        *handlers.DrawHandler
	WebSocket   *handlers.WebSocketHandler
}

type Options struct {
	JWTSecret      []byte
	AllowedOrigins []string
}

func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", h.Health.Health)
	router.Get("/swagger/*", httpSwagger.WrapHandler)
	router.Get("/ws/competitions/{slug}", h.WebSocket.ServeWs)

	router.Post("/auth/token", h.Auth.IssueToken)

	organizerOnly := func(r chi.Router) {
		r.Use(middleware.Authenticate(opts.JWTSecret))
		r.Use(middleware.Authorize(middleware.RoleOrganizer))
	}

	router.Route("/competitions", func(r chi.Router) {
		r.Get("/", h.Competition.ListCompetitions)

		r.Route("/{slug}", func(r chi.Router) {
			r.Get("/teams", h.Competition.GetTeams)
			r.Get("/draws", h.Draw.ListDraws)

			// Защищенные маршруты только для организаторов
			r.Group(func(r chi.Router) {
				organizerOnly(r)
				r.Post("/draws", h.Draw.RunDraw)
				r.Post("/simulations", h.Draw.Simulate)
			})
		})
	})

	router.Route("/draws/{drawID}", func(r chi.Router) {
		r.Get("/", h.Draw.GetDraw)
		r.Get("/fixtures", h.Draw.GetFixtures)
		r.Get("/teams/{teamID}", h.Draw.GetTeamDraw)
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"the requested resource could not be found"}` + "\n"))
	})
}
