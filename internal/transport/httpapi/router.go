package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter configures the local bridge routes.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.Health).Methods("GET")
	r.HandleFunc("/api/setup", h.SetupStatus).Methods("GET")
	r.HandleFunc("/api/clips", h.CreateClip).Methods("POST")
	return r
}

// DefaultAllowedOrigins admits pages served from this machine only.
var DefaultAllowedOrigins = []string{
	"http://localhost",
	"http://localhost:*",
	"http://127.0.0.1",
	"http://127.0.0.1:*",
	"http://[::1]",
	"http://[::1]:*",
}

// NewHTTPHandler wraps the router with CORS for a browser front end. An
// empty allowedOrigins means DefaultAllowedOrigins.
func NewHTTPHandler(h *Handler, allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = DefaultAllowedOrigins
	}
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(NewRouter(h))
}
