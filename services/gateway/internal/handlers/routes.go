package handlers

import (
	"net/http"

	"github.com/clubhive/clubhive/pkg/response"
	"github.com/go-chi/chi/v5"
)

// Upstreams are the backends behind the gateway.
type Upstreams struct {
	Auth       http.Handler
	Clubs      http.Handler
	Attendance http.Handler
	// Stations reaches the attendance service without the /attendance prefix.
	Stations http.Handler
}

// Routes maps the public /v1 surface onto the services. Authentication is
// left to the services; the gateway only routes.
func Routes(u Upstreams) chi.Router {
	r := chi.NewRouter()

	r.Route("/v1", func(r chi.Router) {
		r.Handle("/auth", u.Auth)
		r.Handle("/auth/*", u.Auth)
		r.Handle("/attendance/*", u.Attendance)
		r.Handle("/stations/*", u.Stations)
		r.Handle("/*", u.Clubs)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Route not found")
	})
	return r
}
