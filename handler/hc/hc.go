package hc

import (
	"net/http"
	"time"

	"creditline/handler/render"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
)

// Handle health check endpoint
func Handle(ver string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.NoCache)
	r.Get("/", handle(ver))
	return r
}

func handle(version string) http.HandlerFunc {
	started := time.Now()
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, render.H{
			"service": "creditline",
			"version": version,
			"uptime":  time.Since(started).Truncate(time.Millisecond).String(),
		})
	}
}
