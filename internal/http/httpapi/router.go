package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"imagefallback/internal/http/handlers"
	"imagefallback/internal/infra"
	"imagefallback/internal/metrics"
	"imagefallback/internal/middleware"
)

// RouterOptions carries the cross-cutting settings of the HTTP surface.
type RouterOptions struct {
	Logger             infra.Logger
	Metrics            *metrics.Collector
	CORSAllowedOrigins []string
	DefaultLocale      string
	RateLimitPerMin    int
}

func NewRouter(app *handlers.App, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	var observer middleware.HTTPObserver
	if opts.Metrics != nil {
		observer = opts.Metrics
	}

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Logger(opts.Logger, observer),
		chimw.Recoverer,
		middleware.CORS(opts.CORSAllowedOrigins),
		middleware.I18N(opts.DefaultLocale),
	)

	r.Get("/v1/healthz", app.Health)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/providers", app.Providers)
		r.With(middleware.RateLimit(opts.RateLimitPerMin, time.Minute)).
			Post("/images/generate", app.ImagesGenerate)
	})

	return r
}
