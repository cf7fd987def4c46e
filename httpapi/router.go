package httpapi

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter builds the chi router exposing C12's five endpoints, wired
// with the same middleware stack (request logging, panic recovery,
// request ids, permissive CORS for local integration testing) the
// teacher's api.NewRouter uses.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/evaluate", h.Evaluate)
		r.Post("/expand", h.Expand)
		r.Post("/compress", h.Compress)
		r.Post("/solve", h.Solve)
		r.Post("/convert", h.Convert)
	})

	return r
}
