// Package httpapi wires the render API routes and middleware.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"reel/internal/httpapi/handlers"
	"reel/internal/httpkit"
	"reel/internal/metrics"
	"reel/internal/pkg/env"
	"reel/internal/pkg/logger"
	"reel/internal/pkg/middleware"
	"reel/internal/ports"
)

// RequestTimeout bounds every request except content downloads.
const RequestTimeout = 30 * time.Second

type Deps struct {
	Store   handlers.Store
	Queue   handlers.Queue
	SP      ports.StorageProvider
	Metrics *metrics.Metrics
	Log     *logger.Logger
	Version string
	// AllowedOrigins defaults to CORS_ALLOWED_ORIGINS, then localhost dev
	// origins.
	AllowedOrigins []string
}

func NewRouter(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logging(log))
	if d.Metrics != nil {
		r.Use(middleware.Observe(d.Metrics.HTTPRequest))
	}

	allowedOrigins := d.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = env.ListEnv("CORS_ALLOWED_ORIGINS", []string{
			"http://localhost:8081",
			"http://localhost:5173",
		})
	}
	r.Use(httpkit.CORS(httpkit.CORSOptions{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAgeSeconds:    600,
	}))

	h := handlers.New(handlers.Deps{
		Store:   d.Store,
		Queue:   d.Queue,
		SP:      d.SP,
		Log:     log,
		Version: d.Version,
	})

	r.Get("/health", h.Health)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Route("/renders", func(r chi.Router) {
		r.With(middleware.Timeout(RequestTimeout)).Post("/", h.PostRender)
		r.With(middleware.Timeout(RequestTimeout)).Get("/", h.ListRenders)
		r.With(middleware.Timeout(RequestTimeout)).Get("/{renderId}", h.GetRender)
		r.With(httpkit.ExposeHeaders("Content-Disposition", "Content-Length")).Get("/{renderId}/content", h.StreamRender)
	})

	return r
}
