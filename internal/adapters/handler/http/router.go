package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/vncsmyrnk/ideabox/internal/core/domain"
)

type RouterConfig struct {
	Ideas          *IdeaHandler
	Votes          *VoteHandler
	Users          *UserHandler
	Auth           *Authenticator
	AllowedOrigins []string
	// Health reports whether the store is reachable.
	Health  func(ctx context.Context) error
	Metrics http.Handler
}

func NewHandler(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(corsHandler(cfg.AllowedOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Health != nil {
			if err := cfg.Health(r.Context()); err != nil {
				writeError(w, r, domain.NewUnavailableError(err))
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/ideas", func(r chi.Router) {
			r.With(cfg.Auth.OptionalAuth).Get("/", cfg.Ideas.ListIdeas)
			r.Get("/stats", cfg.Ideas.Stats)
			r.With(cfg.Auth.OptionalAuth).Get("/{id}", cfg.Ideas.GetIdea)

			r.Group(func(r chi.Router) {
				r.Use(cfg.Auth.RequireAuth)
				r.Post("/", cfg.Ideas.CreateIdea)
				r.Patch("/{id}", cfg.Ideas.UpdateIdea)
				r.Post("/{id}/votes", cfg.Votes.Vote)
				r.Delete("/{id}/votes", cfg.Votes.Unvote)
			})
		})

		r.Route("/me", func(r chi.Router) {
			r.Use(cfg.Auth.RequireAuth)
			r.Get("/", cfg.Users.GetMe)
			r.Put("/", cfg.Users.UpdateMe)
			r.Get("/votes", cfg.Users.MyVotes)
			r.Get("/quota", cfg.Users.MyQuota)
		})
	})

	return r
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
		}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Requested-With", "Cache-Control"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: allowCredentials,
		MaxAge:           300,
	})
}
