package handler

import (
	"encoding/json"
	"net/http"

	"github.com/stagelink/marketplace-api/internal/auth"
	"github.com/stagelink/marketplace-api/internal/domain"
	"github.com/stagelink/marketplace-api/internal/service"
	"go.uber.org/zap"
)

// EventHandler exposes event endpoints
type EventHandler struct {
	events *service.EventService
	logger *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler(events *service.EventService, logger *zap.Logger) *EventHandler {
	return &EventHandler{events: events, logger: logger}
}

// CreateEvent godoc
// @Summary Create an event
// @Description Registers a new event owned by the calling organizer
// @Tags events
// @Accept json
// @Produce json
// @Param request body domain.CreateEventRequest true "Event"
// @Success 201 {object} domain.EventDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /events [post]
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req domain.CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	event, err := h.events.CreateEvent(r.Context(), user, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, event)
}

// GetEvent godoc
// @Summary Get an event
// @Tags events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} domain.EventDTO
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /events/{id} [get]
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	event, err := h.events.GetEvent(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, event)
}

// ListMyEvents godoc
// @Summary List my events
// @Tags events
// @Produce json
// @Success 200 {array} domain.EventDTO
// @Failure 403 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /events [get]
func (h *EventHandler) ListMyEvents(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	events, err := h.events.ListMyEvents(r.Context(), user)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if events == nil {
		events = []domain.EventDTO{}
	}
	respondJSON(w, http.StatusOK, events)
}
