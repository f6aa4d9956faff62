package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterOptions struct {
	APIPrefix       string
	LoginRateLimit  int
	LoginRateWindow time.Duration

	// CORSOrigins enables CORS for the listed origins. Empty disables it.
	CORSOrigins []string
}

func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	if h == nil {
		panic("handlers.NewRouter: nil handler")
	}
	if opts.APIPrefix == "" {
		opts.APIPrefix = "/"
	}

	router := chi.NewRouter()
	if len(opts.CORSOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
			MaxAge:           3600,
		}))
	}
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(AccessLog)
	router.Use(middleware.Recoverer)
	router.Use(Metrics)

	router.Get("/health", h.Health)
	router.Handle("/metrics", promhttp.Handler())

	router.Route(opts.APIPrefix, func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if opts.LoginRateLimit > 0 {
				r.Use(httprate.Limit(
					opts.LoginRateLimit,
					opts.LoginRateWindow,
					httprate.WithKeyFuncs(httprate.KeyByIP),
					httprate.WithLimitHandler(h.loginRateLimited),
				))
			}
			r.Post("/login/access-token", h.Login)
		})

		r.Route("/users", func(r chi.Router) {
			r.Post("/", h.Register)
			r.Get("/me", h.Me)
			r.Patch("/me", h.UpdateMe)
			r.Get("/read_multi", h.ListUsers)
			r.Patch("/{id}", h.UpdateUser)
			r.Delete("/{id}", h.DeleteUser)
		})

		r.Route("/devices", func(r chi.Router) {
			r.Post("/", h.CreateDevice)
			r.Get("/", h.ListDevices)
			r.Get("/{id}", h.GetDevice)
		})
	})

	return router
}
