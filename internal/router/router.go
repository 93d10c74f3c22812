package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/kiwari-pos/display/internal/handler"
	"github.com/kiwari-pos/display/internal/metrics"
)

// New creates the Chi router for the local display-facing API.
func New(orders *handler.OrderHandler, conn *handler.ConnectionHandler, mets *metrics.Registry) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Display frontends run on the same machine or LAN; origins are not
	// restricted here.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/orders", orders.RegisterRoutes)
	r.Route("/connection", conn.RegisterRoutes)
	r.Method(http.MethodGet, "/metrics", mets.Handler())

	return r
}
