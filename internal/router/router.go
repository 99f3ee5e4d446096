package router

import (
	"net/http"

	"go-points/internal/handlers"
	"go-points/internal/middleware"
	"go-points/internal/services"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

type Options struct {
	RateLimitRPS   float64
	RateLimitBurst int
}

func SetupRouter(pointService *services.PointService, logger zerolog.Logger, opts Options) *mux.Router {
	pointHandler := handlers.NewPointHandler(pointService, logger)

	r := mux.NewRouter()

	rateLimiter := middleware.NewRateLimiter(rate.Limit(opts.RateLimitRPS), opts.RateLimitBurst, middleware.DefaultVisitorTTL)

	r.Use(middleware.ErrorHandling(logger))
	r.Use(middleware.PerformanceMonitoring(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())

	// Top-level routes, not a subrouter, so a method mismatch stays 405.
	chain := func(h http.HandlerFunc) http.Handler {
		return rateLimiter.Middleware()(middleware.RequestValidation()(h))
	}
	r.Handle("/point/{id}", chain(pointHandler.GetPoint)).Methods("GET")
	r.Handle("/point/{id}/histories", chain(pointHandler.GetHistories)).Methods("GET")
	r.Handle("/point/{id}/charge", chain(pointHandler.Charge)).Methods("PATCH")
	r.Handle("/point/{id}/use", chain(pointHandler.Use)).Methods("PATCH")

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	return r
}
