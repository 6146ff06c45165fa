package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Priya8975/life-event-share/internal/service"
)

// Handlers collects everything the HTTP surface serves. Metrics and
// WebSocket are optional.
type Handlers struct {
	Tokens     *Tokens
	AdminToken string
	Ingester   Ingester
	Events     *service.EventService
	Acquirers  *service.AcquirerService
	Publishers *service.PublisherService
	Dashboard  *DashboardHandler
	WebSocket  http.HandlerFunc
	Metrics    http.Handler
	Logger     *slog.Logger
}

func NewRouter(h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(corsMiddleware)

	if h.WebSocket != nil {
		r.Get("/ws", h.WebSocket)
	}
	if h.Metrics != nil {
		r.Handle("/metrics", h.Metrics)
	}

	notifications := NewNotificationHandler(h.Ingester, h.Logger)
	events := NewEventHandler(h.Events, h.Logger)
	acquirers := NewAcquirerHandler(h.Acquirers, h.Logger)
	publishers := NewPublisherHandler(h.Publishers, h.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", HealthHandler())
		if h.Dashboard != nil {
			r.Get("/dashboard", h.Dashboard.Stats)
		}

		r.Group(func(r chi.Router) {
			r.Use(RequireClient(h.Tokens, h.Logger))

			r.Post("/notifications", notifications.Create)

			r.Route("/events", func(r chi.Router) {
				r.Get("/", events.List)
				r.Get("/status", events.Status)
				r.Get("/{id}", events.Get)
				r.Delete("/{id}", events.Delete)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin(h.AdminToken, h.Logger))

			r.Route("/acquirers", func(r chi.Router) {
				r.Get("/", acquirers.List)
				r.Post("/", acquirers.Create)
				r.Get("/subscriptions", acquirers.ListAllSubscriptions)
				r.Delete("/{id}", acquirers.Delete)
				r.Get("/{id}/subscriptions", acquirers.ListSubscriptions)
				r.Post("/{id}/subscriptions", acquirers.CreateSubscription)
				r.Put("/{id}/subscriptions/{subscriptionId}", acquirers.UpdateSubscription)
				r.Delete("/{id}/subscriptions/{subscriptionId}", acquirers.DeleteSubscription)
			})

			r.Route("/publishers", func(r chi.Router) {
				r.Get("/", publishers.List)
				r.Post("/", publishers.Create)
				r.Get("/{id}/subscriptions", publishers.ListSubscriptions)
				r.Post("/{id}/subscriptions", publishers.CreateSubscription)
				r.Put("/{id}/subscriptions/{subscriptionId}", publishers.UpdateSubscription)
			})
		})
	})

	return r
}

// corsMiddleware adds CORS headers for the dashboard.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
