package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	// Every endpoint is called from arbitrary funnel origins, so CORS is
	// fully open with a fixed preflight response.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         86400,
	}))

	// Health check
	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Route("/funnel", func(r chi.Router) {
			r.Post("/lead", h.HandleLead)
			r.Post("/quiz", h.HandleQuiz)
			r.Post("/event", h.HandleEvent)
		})

		// The payment provider may deliver notifications as POST bodies or
		// as GET redirects carrying query parameters.
		r.Post("/payments/webhook", h.HandlePaymentWebhook)
		r.Get("/payments/webhook", h.HandlePaymentWebhook)

		// Cached text-to-speech readings. Generation itself happens in the
		// speech provider; this is only the put-if-absent cache in front.
		r.Get("/readings/audio", h.HandleGetAudio)
		r.Post("/readings/audio", h.HandlePutAudio)

		r.Route("/orders", func(r chi.Router) {
			r.Get("/verify", h.HandleVerifyOrder)
			r.Get("/token", h.HandleVerifyToken)
			r.Post("/link", h.HandleLinkOrder)
		})
	})

	return r
}
