package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/stagelink/marketplace-api/internal/auth"
	"github.com/stagelink/marketplace-api/internal/domain"
	"github.com/stagelink/marketplace-api/internal/service"
	"go.uber.org/zap"
)

// NegotiationHandler exposes the offer state machine actions
type NegotiationHandler struct {
	negotiation *service.NegotiationService
	logger      *zap.Logger
}

// NewNegotiationHandler creates a new negotiation handler
func NewNegotiationHandler(negotiation *service.NegotiationService, logger *zap.Logger) *NegotiationHandler {
	return &NegotiationHandler{negotiation: negotiation, logger: logger}
}

// SubmitQuote godoc
// @Summary Submit a quote
// @Description Provider answers a pending service request with a price
// @Tags negotiation
// @Accept json
// @Produce json
// @Param id path string true "Offer ID"
// @Param request body domain.SubmitQuoteRequest true "Quote"
// @Success 200 {object} domain.OfferDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /offers/{id}/quote [post]
func (h *NegotiationHandler) SubmitQuote(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(user *auth.UserContext, id uuid.UUID) (*domain.OfferDTO, error) {
		var req domain.SubmitQuoteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, errBadBody
		}
		if err := validate.Struct(&req); err != nil {
			return nil, err
		}
		return h.negotiation.SubmitQuote(r.Context(), user, id, &req)
	})
}

// CounterOffer godoc
// @Summary Make a counter offer
// @Description The party whose turn it is proposes a revised price
// @Tags negotiation
// @Accept json
// @Produce json
// @Param id path string true "Offer ID"
// @Param request body domain.CounterOfferRequest true "Counter offer"
// @Success 200 {object} domain.OfferDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /offers/{id}/counter [post]
func (h *NegotiationHandler) CounterOffer(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(user *auth.UserContext, id uuid.UUID) (*domain.OfferDTO, error) {
		var req domain.CounterOfferRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, errBadBody
		}
		if err := validate.Struct(&req); err != nil {
			return nil, err
		}
		return h.negotiation.CounterOffer(r.Context(), user, id, &req)
	})
}

// AcceptOffer godoc
// @Summary Accept an offer
// @Description Locks in the amount currently on the table
// @Tags negotiation
// @Accept json
// @Produce json
// @Param id path string true "Offer ID"
// @Param request body domain.AcceptOfferRequest false "Acceptance"
// @Success 200 {object} domain.OfferDTO
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /offers/{id}/accept [post]
func (h *NegotiationHandler) AcceptOffer(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(user *auth.UserContext, id uuid.UUID) (*domain.OfferDTO, error) {
		var req domain.AcceptOfferRequest
		if err := decodeOptionalBody(r, &req); err != nil {
			return nil, err
		}
		return h.negotiation.AcceptOffer(r.Context(), user, id, &req)
	})
}

// RejectOffer godoc
// @Summary Reject an offer
// @Description Declines the negotiation with an optional reason
// @Tags negotiation
// @Accept json
// @Produce json
// @Param id path string true "Offer ID"
// @Param request body domain.RejectOfferRequest false "Rejection"
// @Success 200 {object} domain.OfferDTO
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /offers/{id}/reject [post]
func (h *NegotiationHandler) RejectOffer(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(user *auth.UserContext, id uuid.UUID) (*domain.OfferDTO, error) {
		var req domain.RejectOfferRequest
		if err := decodeOptionalBody(r, &req); err != nil {
			return nil, err
		}
		return h.negotiation.RejectOffer(r.Context(), user, id, &req)
	})
}

// CancelOffer godoc
// @Summary Cancel an offer
// @Description Either participant withdraws from the negotiation
// @Tags negotiation
// @Accept json
// @Produce json
// @Param id path string true "Offer ID"
// @Param request body domain.CancelOfferRequest false "Cancellation"
// @Success 200 {object} domain.OfferDTO
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /offers/{id}/cancel [post]
func (h *NegotiationHandler) CancelOffer(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(user *auth.UserContext, id uuid.UUID) (*domain.OfferDTO, error) {
		var req domain.CancelOfferRequest
		if err := decodeOptionalBody(r, &req); err != nil {
			return nil, err
		}
		return h.negotiation.CancelOffer(r.Context(), user, id, &req)
	})
}

// act handles the shared plumbing of every negotiation action: auth, path
// parsing, error mapping and the success response
func (h *NegotiationHandler) act(w http.ResponseWriter, r *http.Request, fn func(*auth.UserContext, uuid.UUID) (*domain.OfferDTO, error)) {
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

	offer, err := fn(user, id)
	if err != nil {
		respondValidationOrService(w, err)
		return
	}
	respondJSON(w, http.StatusOK, offer)
}
