package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"skyreport/internal/http/handlers"
	"skyreport/internal/middleware"
)

// NewRouter builds the chi router. Unmatched methods on a registered route
// get a 405 from chi itself.
func NewRouter(app *handlers.App) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
	)
	if app.Cfg != nil && len(app.Cfg.CORSOrigins) > 0 {
		r.Use(middleware.CORS(app.Cfg.CORSOrigins))
	}
	r.Use(middleware.Logger(app.Logger))
	if app.Cfg != nil && app.Cfg.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(app.Cfg.RateLimitPerMin, time.Minute))
	}

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/drafts", func(r chi.Router) {
		r.Post("/", app.DraftsCreate)
	})

	r.Get("/v1/submissions", app.SubmissionsList)

	return r
}
