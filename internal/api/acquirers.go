package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Priya8975/life-event-share/internal/domain"
	"github.com/Priya8975/life-event-share/internal/service"
)

type AcquirerHandler struct {
	acquirers *service.AcquirerService
	logger    *slog.Logger
}

func NewAcquirerHandler(acquirers *service.AcquirerService, logger *slog.Logger) *AcquirerHandler {
	return &AcquirerHandler{acquirers: acquirers, logger: logger}
}

func (h *AcquirerHandler) List(w http.ResponseWriter, r *http.Request) {
	acquirers, err := h.acquirers.ListAcquirers(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, acquirers)
}

func (h *AcquirerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.AcquirerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	a, err := h.acquirers.AddAcquirer(r.Context(), req)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, a)
}

func (h *AcquirerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.acquirers.DeleteAcquirer(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AcquirerHandler) ListAllSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.acquirers.ListSubscriptions(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, subs)
}

func (h *AcquirerHandler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.acquirers.ListAcquirerSubscriptions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, subs)
}

func (h *AcquirerHandler) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req domain.SubscriptionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	sub, err := h.acquirers.AddSubscription(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, sub)
}

func (h *AcquirerHandler) UpdateSubscription(w http.ResponseWriter, r *http.Request) {
	var req domain.SubscriptionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	sub, err := h.acquirers.UpdateSubscription(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "subscriptionId"), req)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, sub)
}

func (h *AcquirerHandler) DeleteSubscription(w http.ResponseWriter, r *http.Request) {
	err := h.acquirers.DeleteAcquirerSubscription(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "subscriptionId"))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
