package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/rogerio-castellano/stockroom/docs"
	"github.com/rogerio-castellano/stockroom/internal/http/handlers"
	mw "github.com/rogerio-castellano/stockroom/internal/http/middleware"
	rl "github.com/rogerio-castellano/stockroom/internal/http/rate_limiter"
	"github.com/rogerio-castellano/stockroom/internal/logger"
)

type RouterOptions struct {
	Logger *logger.Logger
	// Limiter is optional; nil disables rate limiting.
	Limiter *rl.Limiter
	// Gatherer backs GET /metrics. Defaults to the global registry.
	Gatherer prometheus.Gatherer
}

func NewRouter(srv *handlers.Server, opts RouterOptions) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(mw.RequestLogger(log))
	r.Use(chimw.Recoverer)
	if opts.Limiter != nil {
		r.Use(mw.RateLimit(opts.Limiter))
	}

	r.Get("/health", srv.HealthHandler)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Post("/unlock", srv.UnlockHandler)
	r.Post("/lock", srv.LockHandler)
	r.Get("/status", srv.StatusHandler)

	r.Group(func(r chi.Router) {
		r.Use(mw.RequireUnlocked(srv, log))

		r.Get("/metrics/dashboard", srv.GetDashboardMetricsHandler)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", srv.GetProductsHandler)
			r.Post("/", srv.CreateProductHandler)
			r.Put("/", srv.UpdateProductsHandler)
			r.Post("/import", srv.ImportProductsHandler)
			r.Post("/import/preview", srv.PreviewImportHandler)
			r.Post("/reset", srv.ResetProductsHandler)
			r.Post("/reset/demo", srv.ResetDemoHandler)
			r.Get("/export", srv.ExportProductsHandler)

			r.Get("/{id}", srv.GetProductByIDHandler)
			r.Put("/{id}", srv.UpdateProductHandler)
			r.Delete("/{id}", srv.DeleteProductHandler)
		})
	})

	return r
}
