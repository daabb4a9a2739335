package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xavierca1/recupa-ai/internal/infra/http/middleware"
)

type RouterConfig struct {
	Webhook  *WebhookHandler
	WhatsApp *WhatsAppHandler
	Leads    *LeadHandler
	Health   *HealthHandler

	RateLimitStore  middleware.CounterStore
	RateLimitMax    int
	RateLimitWindow time.Duration
	WebhookSecret   string
	CORSOrigin      string
	Logger          *zap.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.HottokHeader},
		ExposedHeaders:   []string{"Link", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", cfg.Health.Handle)
	r.Handle("/metrics", promhttp.Handler())

	limit := middleware.RateLimit(cfg.RateLimitStore, cfg.RateLimitMax, cfg.RateLimitWindow, cfg.Logger)

	r.Route("/api", func(r chi.Router) {
		r.With(limit, middleware.VerifySignature(cfg.WebhookSecret, cfg.Logger)).
			Post("/webhooks/{clientId}", cfg.Webhook.Handle)

		r.Route("/whatsapp", func(r chi.Router) {
			r.With(limit).Post("/webhook", cfg.WhatsApp.Receive)
			r.Post("/connect/{clientId}", cfg.WhatsApp.Connect)
			r.Get("/status/{clientId}", cfg.WhatsApp.Status)
		})

		r.Patch("/leads/{leadId}/status", cfg.Leads.UpdateStatus)
	})

	return r
}
