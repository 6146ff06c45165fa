package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Priya8975/life-event-share/internal/domain"
	"github.com/Priya8975/life-event-share/internal/service"
)

type EventHandler struct {
	events *service.EventService
	logger *slog.Logger
}

func NewEventHandler(events *service.EventService, logger *slog.Logger) *EventHandler {
	return &EventHandler{events: events, logger: logger}
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := parseEventsQuery(r)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	page, err := h.events.GetEvents(r.Context(), ClientID(r.Context()), q)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.events.GetEvent(r.Context(), ClientID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	item, err := h.events.DeleteEvent(r.Context(), ClientID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (h *EventHandler) Status(w http.ResponseWriter, r *http.Request) {
	start, err := timeParam(r, "startTime")
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	end, err := timeParam(r, "endTime")
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	statuses, err := h.events.GetEventsStatus(r.Context(), ClientID(r.Context()), start, end)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, statuses)
}

func parseEventsQuery(r *http.Request) (domain.EventsQuery, error) {
	var q domain.EventsQuery
	for _, t := range r.URL.Query()["eventType"] {
		et := domain.EventType(t)
		if !et.Valid() {
			return q, &domain.ValidationError{Field: "eventType", Message: "unknown event type " + t}
		}
		q.EventTypes = append(q.EventTypes, et)
	}

	var err error
	if q.StartTime, err = timeParam(r, "startTime"); err != nil {
		return q, err
	}
	if q.EndTime, err = timeParam(r, "endTime"); err != nil {
		return q, err
	}
	if q.Page, err = intParam(r, "page"); err != nil {
		return q, err
	}
	if q.PageSize, err = intParam(r, "pageSize"); err != nil {
		return q, err
	}
	return q, nil
}

func timeParam(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, &domain.ValidationError{Field: name, Message: name + " must be an RFC3339 timestamp"}
	}
	return &t, nil
}

func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &domain.ValidationError{Field: name, Message: name + " must be an integer"}
	}
	return n, nil
}

// Ingester turns one inbound notification into delivery records.
type Ingester interface {
	Ingest(ctx context.Context, n domain.Notification) ([]domain.EventData, error)
}

type NotificationHandler struct {
	ingester Ingester
	logger   *slog.Logger
}

func NewNotificationHandler(ingester Ingester, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{ingester: ingester, logger: logger}
}

type ingestResponse struct {
	RecordsCreated int `json:"records_created"`
}

// Create accepts a notification from an authenticated publisher. The caller's
// client id is the notification's source publisher.
func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var n domain.Notification
	if err := decodeJSON(r, &n); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	n.SourcePublisher = ClientID(r.Context())

	records, err := h.ingester.Ingest(r.Context(), n)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, ingestResponse{RecordsCreated: len(records)})
}
