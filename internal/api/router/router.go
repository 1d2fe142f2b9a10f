package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/primestageprime/wellappoint-ui-sub000/internal/http/handlers"
	httpmiddleware "github.com/primestageprime/wellappoint-ui-sub000/internal/http/middleware"
	"github.com/primestageprime/wellappoint-ui-sub000/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	BookingHandler     *handlers.BookingHandler
	AuthJWTSecret      string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Authenticated booking API
	r.Route("/api", func(api chi.Router) {
		api.Use(httpmiddleware.UserJWT(cfg.AuthJWTSecret))

		api.Route("/booking", func(b chi.Router) {
			b.Get("/state", cfg.BookingHandler.State)
			b.Post("/service", cfg.BookingHandler.SelectService)
			b.Delete("/service", cfg.BookingHandler.UnselectService)
			b.Post("/duration", cfg.BookingHandler.SelectDuration)
			b.Delete("/duration", cfg.BookingHandler.UnselectDuration)
			b.Post("/slot", cfg.BookingHandler.SelectSlot)
			b.Delete("/slot", cfg.BookingHandler.UnselectSlot)
			b.Post("/confirm", cfg.BookingHandler.Confirm)
			b.Post("/reset", cfg.BookingHandler.Reset)
		})
		api.Get("/appointments", cfg.BookingHandler.Appointments)
	})

	return r
}
