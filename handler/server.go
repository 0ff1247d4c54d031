package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi"

	"creditline/handler/render"
	"creditline/handler/rest"
)

// Server api server
type Server struct {
	deps rest.Deps
}

// New new server
func New(deps rest.Deps) Server {
	return Server{deps: deps}
}

// HandleRestAPI handle restful apis
func (s Server) HandleRestAPI() http.Handler {
	r := chi.NewRouter()
	r.Use(resetRoutePath)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.NotFoundRequest(w, errors.New("not found"))
	})

	r.Mount("/", rest.Handle(s.deps))

	return r
}

func resetRoutePath(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if c := chi.RouteContext(ctx); c != nil {
			c.RoutePath = r.URL.Path
		}

		next.ServeHTTP(w, r)
	}

	return http.HandlerFunc(fn)
}
