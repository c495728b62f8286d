package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/capitalize-ai/autoreply-relay/internal/middleware"
	"github.com/capitalize-ai/autoreply-relay/pkg/logger"
)

// RouterConfig carries the secrets and limits the router enforces.
type RouterConfig struct {
	JWTSecret         string
	AppSecret         string
	CronSecret        string
	FrontendURL       string
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// Handlers groups the endpoint handlers mounted by NewRouter.
type Handlers struct {
	Health   *HealthHandler
	Webhook  *WebhookHandler
	Accounts *AccountHandler
	Rules    *RuleHandler
	Contacts *ContactHandler
	Messages *MessageHandler
	Stream   *StreamHandler
	Cron     *CronHandler
}

// NewRouter mounts every endpoint with its middleware.
func NewRouter(cfg RouterConfig, h Handlers, log *logger.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.FrontendURL))

	// Health endpoints (no auth required)
	r.Get("/health", h.Health.Health)
	r.Get("/ready", h.Health.Ready)

	r.Handle("/metrics", promhttp.Handler())

	// Platform webhook
	r.Route("/webhook", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitRequests*10, cfg.RateLimitWindow))
		r.Use(middleware.HubSignature(cfg.AppSecret))
		r.Get("/", h.Webhook.Verify)
		r.Post("/", h.Webhook.Receive)
	})

	r.Route("/api", func(r chi.Router) {
		// Scheduler
		r.With(middleware.CronSecret(cfg.CronSecret)).Get("/cron/cleanup", h.Cron.Cleanup)

		// Dashboard
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTSecret))
			r.Use(middleware.UserRateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

			r.Route("/accounts", func(r chi.Router) {
				r.Get("/", h.Accounts.List)
				r.Post("/", h.Accounts.Create)
				r.Get("/unmatched", h.Accounts.Unmatched)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.Accounts.Get)
					r.Put("/", h.Accounts.Update)
					r.Delete("/", h.Accounts.Delete)
					r.Get("/suggestions", h.Accounts.Suggestions)
				})
			})

			r.Route("/rules", func(r chi.Router) {
				r.Get("/", h.Rules.List)
				r.Post("/", h.Rules.Create)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.Rules.Get)
					r.Put("/", h.Rules.Update)
					r.Delete("/", h.Rules.Delete)
				})
			})

			r.Route("/contacts", func(r chi.Router) {
				r.Get("/", h.Contacts.List)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.Contacts.Get)
					r.Post("/tags", h.Contacts.AddTags)
					r.Get("/messages", h.Contacts.Messages)
					r.Get("/stream", h.Stream.Stream)
				})
			})

			r.Post("/messages/send", h.Messages.Send)
		})
	})

	return r
}
