package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewHealthRouter serves the keep-alive and observability endpoints.
func NewHealthRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	alive := func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
	r.Get("/", alive)
	r.Get("/health", alive)
	r.Handle("/metrics", promhttp.Handler())
	return r
}
