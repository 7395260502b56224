package handler

import (
	"encoding/json"
	"net/http"

	"github.com/stagelink/marketplace-api/internal/auth"
	"github.com/stagelink/marketplace-api/internal/domain"
	"github.com/stagelink/marketplace-api/internal/service"
	"go.uber.org/zap"
)

// OfferHandler exposes offer creation and read endpoints
type OfferHandler struct {
	offers *service.OfferService
	logger *zap.Logger
}

// NewOfferHandler creates a new offer handler
func NewOfferHandler(offers *service.OfferService, logger *zap.Logger) *OfferHandler {
	return &OfferHandler{offers: offers, logger: logger}
}

// CreateServiceRequest godoc
// @Summary Create a service request
// @Description Organizer asks a provider for a service on one of their events
// @Tags offers
// @Accept json
// @Produce json
// @Param request body domain.CreateServiceRequestRequest true "Service request"
// @Success 201 {object} domain.OfferDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /offers/requests [post]
func (h *OfferHandler) CreateServiceRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req domain.CreateServiceRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}
	if !req.ServiceCategory.IsValid() {
		respondWithError(w, http.StatusBadRequest, "Unknown service category")
		return
	}

	offer, err := h.offers.CreateServiceRequest(r.Context(), user, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, offer)
}

// CreateProviderOffer godoc
// @Summary Create a provider offer
// @Description Provider proactively offers a service for an event
// @Tags offers
// @Accept json
// @Produce json
// @Param request body domain.CreateProviderOfferRequest true "Provider offer"
// @Success 201 {object} domain.OfferDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /offers/proposals [post]
func (h *OfferHandler) CreateProviderOffer(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req domain.CreateProviderOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}
	if !req.ServiceCategory.IsValid() {
		respondWithError(w, http.StatusBadRequest, "Unknown service category")
		return
	}

	offer, err := h.offers.CreateProviderOffer(r.Context(), user, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, offer)
}

// GetOffer godoc
// @Summary Get an offer
// @Description Fetch one offer the caller participates in
// @Tags offers
// @Produce json
// @Param id path string true "Offer ID"
// @Success 200 {object} domain.OfferDTO
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /offers/{id} [get]
func (h *OfferHandler) GetOffer(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	offer, err := h.offers.GetOffer(r.Context(), user, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, offer)
}

// ListOffers godoc
// @Summary List my offers
// @Description List all offers on the caller's side of the marketplace
// @Tags offers
// @Produce json
// @Success 200 {object} domain.OfferListResponse
// @Security BearerAuth
// @Router /offers [get]
func (h *OfferHandler) ListOffers(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	offers, err := h.offers.ListOffers(r.Context(), user)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, offers)
}

// GetOfferHistory godoc
// @Summary Get offer negotiation history
// @Description Replay of quotes, counters and the closing action
// @Tags offers
// @Produce json
// @Param id path string true "Offer ID"
// @Success 200 {array} domain.OfferHistoryEntry
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /offers/{id}/history [get]
func (h *OfferHandler) GetOfferHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	history, err := h.offers.GetHistory(r.Context(), user, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, history)
}
