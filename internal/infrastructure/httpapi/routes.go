package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter mounts the assist API. CORS is only enabled for allowedOrigins;
// with none, browsers on other origins cannot read responses.
func NewRouter(h *Handler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))
	}

	r.Group(func(r chi.Router) {
		// Cross-site form posts cannot send application/json without a preflight.
		r.Use(middleware.AllowContentType("application/json"))
		RegisterRoutes(r, h)
	})

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})
	return r
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/v1/assist/{operation}", h.HandleAssist)
	r.Post("/v1/actions", h.HandleActions)
}
