package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Priya8975/life-event-share/internal/domain"
	"github.com/Priya8975/life-event-share/internal/service"
)

type PublisherHandler struct {
	publishers *service.PublisherService
	logger     *slog.Logger
}

func NewPublisherHandler(publishers *service.PublisherService, logger *slog.Logger) *PublisherHandler {
	return &PublisherHandler{publishers: publishers, logger: logger}
}

func (h *PublisherHandler) List(w http.ResponseWriter, r *http.Request) {
	publishers, err := h.publishers.ListPublishers(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, publishers)
}

func (h *PublisherHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.PublisherRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	p, err := h.publishers.AddPublisher(r.Context(), req)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (h *PublisherHandler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.publishers.ListPublisherSubscriptions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, subs)
}

func (h *PublisherHandler) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req domain.PublisherSubscriptionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	ps, err := h.publishers.AddPublisherSubscription(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, ps)
}

func (h *PublisherHandler) UpdateSubscription(w http.ResponseWriter, r *http.Request) {
	var req domain.PublisherSubscriptionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	ps, err := h.publishers.UpdatePublisherSubscription(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "subscriptionId"), req)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, ps)
}
