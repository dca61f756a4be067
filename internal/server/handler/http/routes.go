package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/atinyakov/cardash/internal/middleware"
	"github.com/atinyakov/cardash/internal/observability"
)

// NewRouter constructs and returns the dashboard's HTTP handler.
//
// Parameters:
//
//	pages    - handler for every view and its follow-up requests
//	metrics  - collectors for request metrics; nil disables them
//	gatherer - source for GET /metrics; nil leaves the route unmounted
//	logger   - structured logger for request logging middleware
//
// Routes:
//
//	GET  /                      → pages.Home
//	GET  /signup                → pages.SignUp
//	GET  /signin                → pages.SignIn
//	GET  /carlist               → pages.CarList
//	GET  /carlist/{viewID}      → pages.CarListRerender
//	POST /signup                → pages.SubmitSignUp
//	POST /signin                → pages.SubmitSignIn
//	POST /views/{viewID}/input  → pages.Input
//	GET  /metrics               → Prometheus exposition
//	anything else               → pages.NotFound (404)
//
// Middleware chain (applied in order):
//  1. RequestID
//  2. Recoverer
//  3. WithRequestLogging(logger)
//  4. WithMetrics(metrics)
//  5. AllowContentType(form-urlencoded), POST routes only
func NewRouter(
	pages *PageHandler,
	metrics *observability.Metrics,
	gatherer prometheus.Gatherer,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.WithRequestLogging(logger))
	if metrics != nil {
		r.Use(middleware.WithMetrics(metrics))
	}

	// Views
	r.Get("/", pages.Home)
	r.Get("/signup", pages.SignUp)
	r.Get("/signin", pages.SignIn)
	r.Get("/carlist", pages.CarList)
	r.With(middleware.LoadView(pages.Views)).Get("/carlist/{viewID}", pages.CarListRerender)

	// Form submissions and keystrokes
	r.Group(func(r chi.Router) {
		r.Use(chiMiddleware.AllowContentType("application/x-www-form-urlencoded"))

		r.Post("/signup", pages.SubmitSignUp)
		r.Post("/signin", pages.SubmitSignIn)
		r.With(middleware.LoadView(pages.Views)).Post("/views/{viewID}/input", pages.Input)
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.NotFound(pages.NotFound)

	return r
}
