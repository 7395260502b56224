package handler

import (
	"net/http"

	"github.com/stagelink/marketplace-api/internal/auth"
	"github.com/stagelink/marketplace-api/internal/domain"
	"github.com/stagelink/marketplace-api/internal/service"
	"go.uber.org/zap"
)

// ContractHandler exposes the contract signature endpoints
type ContractHandler struct {
	contracts *service.ContractService
	logger    *zap.Logger
}

// NewContractHandler creates a new contract handler
func NewContractHandler(contracts *service.ContractService, logger *zap.Logger) *ContractHandler {
	return &ContractHandler{contracts: contracts, logger: logger}
}

// signContractRequest optionally pins the expected offer version
type signContractRequest struct {
	ExpectedVersion *int64 `json:"expectedVersion,omitempty"`
}

// SignContract godoc
// @Summary Sign the contract
// @Description Records the caller's signature on an accepted offer. Re-signing is a no-op.
// @Tags contracts
// @Accept json
// @Produce json
// @Param id path string true "Offer ID"
// @Success 200 {object} domain.OfferDTO
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /offers/{id}/sign [post]
func (h *ContractHandler) SignContract(w http.ResponseWriter, r *http.Request) {
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

	var req signContractRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		respondValidationOrService(w, err)
		return
	}

	offer, err := h.contracts.SignContract(r.Context(), user, id, req.ExpectedVersion)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, offer)
}

// GetUserContracts godoc
// @Summary List my contracts
// @Description Accepted offers with the caller's signature obligations
// @Tags contracts
// @Produce json
// @Success 200 {array} domain.UserContract
// @Security BearerAuth
// @Router /contracts [get]
func (h *ContractHandler) GetUserContracts(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	contracts, err := h.contracts.GetUserContracts(r.Context(), user)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if contracts == nil {
		contracts = []domain.UserContract{}
	}
	respondJSON(w, http.StatusOK, contracts)
}
