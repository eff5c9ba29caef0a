package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Mounter is implemented by handlers that register their own routes.
type Mounter interface {
	Routes(r chi.Router)
}

type Options struct {
	// CSRF enables the double-submit check for browser-facing services.
	CSRF *CSRFConfig
}

// New builds the chi router shared by the portal and the gateway: request ID,
// metrics, request logging and security headers on every route, /healthz and
// /metrics, then each mounter's routes.
func New(logger *zap.SugaredLogger, opts Options, mounts ...Mounter) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(MetricsMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(SecurityHeadersMiddleware())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if opts.CSRF != nil {
			r.Use(CSRFMiddleware(*opts.CSRF, logger))
		}
		for _, m := range mounts {
			m.Routes(r)
		}
	})
	return r
}
