package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stagelink/marketplace-api/internal/auth"
	"github.com/stagelink/marketplace-api/internal/domain"
	"github.com/stagelink/marketplace-api/internal/mapper"
	"github.com/stagelink/marketplace-api/internal/repository"
	"github.com/stagelink/marketplace-api/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ContractService handles the bilateral signature gate on accepted offers.
// Signatures are monotonic: once set, a party flag never clears. The combined
// flag flips exactly once, when the second signature lands.
type ContractService struct {
	offers  *repository.OfferRepository
	archive storage.Storage
	logger  *zap.Logger
	now     func() time.Time
}

// NewContractService creates a new contract service. The archive is optional;
// without it executed contracts are simply not archived.
func NewContractService(offers *repository.OfferRepository, archive storage.Storage, logger *zap.Logger) *ContractService {
	return &ContractService{
		offers:  offers,
		archive: archive,
		logger:  logger,
		now:     time.Now,
	}
}

// SignContract records the caller's signature on an accepted offer. Signing
// twice is a no-op returning the current state, not an error.
func (s *ContractService) SignContract(ctx context.Context, user *auth.UserContext, id uuid.UUID, expectedVersion *int64) (*domain.OfferDTO, error) {
	offer, err := s.offers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOfferNotFound
		}
		return nil, fmt.Errorf("failed to load offer: %w", err)
	}

	actor := offer.RoleOf(user.UserID)
	if actor == domain.PartyNone || actor != user.Role {
		return nil, ErrNotParticipant
	}
	if offer.Status != domain.OfferStatusAccepted {
		return nil, fmt.Errorf("cannot sign a %s offer: %w", offer.Status, ErrOfferNotAccepted)
	}

	now := s.now()

	// Idempotent re-sign
	if offer.SignedBy(actor) {
		dto := mapper.ToOfferDTO(offer, now)
		return &dto, nil
	}

	updates := map[string]interface{}{}
	var column string
	if actor == domain.PartyOrganizer {
		column = "contract_signed_by_organizer"
	} else {
		column = "contract_signed_by_provider"
	}
	updates[column] = true

	completes := offer.SignedBy(actor.Other())
	if completes {
		updates["contract_signed"] = true
		updates["contract_signed_at"] = now
	}

	version := offer.Version
	if expectedVersion != nil {
		version = *expectedVersion
	}

	updated, err := s.offers.PatchVersioned(ctx, offer.ID, version, updates)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrStaleVersion):
			return nil, ErrStaleWrite
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrOfferNotFound
		}
		return nil, err
	}

	s.logger.Info("contract signed",
		zap.String("offer_id", id.String()),
		zap.String("by", string(actor)),
		zap.Bool("fully_signed", updated.ContractSigned),
	)

	if completes {
		s.archiveContract(ctx, updated)
	}

	dto := mapper.ToOfferDTO(updated, now)
	return &dto, nil
}

// GetUserContracts projects the caller's accepted offers with their
// signature obligations. The listing is a single-predicate party read; the
// status refinement happens here, like the dashboards do it.
func (s *ContractService) GetUserContracts(ctx context.Context, user *auth.UserContext) ([]domain.UserContract, error) {
	offers, err := s.offers.ListByParty(ctx, user.Role, user.UserID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	contracts := make([]domain.UserContract, 0, len(offers))
	for i := range offers {
		offer := &offers[i]
		if offer.Status != domain.OfferStatusAccepted {
			continue
		}
		contract := domain.UserContract{
			Offer:            mapper.ToOfferDTO(offer, now),
			NeedsMySignature: offer.NeedsSignatureFrom(user.Role),
			FullySigned:      offer.ContractSigned,
		}
		if offer.Event != nil {
			event := mapper.ToEventDTO(offer.Event)
			contract.Event = &event
		}
		contracts = append(contracts, contract)
	}
	return contracts, nil
}

// executedContract is the archived record of a fully signed contract
type executedContract struct {
	OfferID         uuid.UUID  `json:"offerId"`
	EventID         uuid.UUID  `json:"eventId"`
	OrganizerID     string     `json:"organizerId"`
	OrganizerName   string     `json:"organizerName,omitempty"`
	ProviderID      string     `json:"providerId"`
	ProviderName    string     `json:"providerName,omitempty"`
	ServiceCategory string     `json:"serviceCategory"`
	FinalAmount     float64    `json:"finalAmount"`
	AcceptedAt      *time.Time `json:"acceptedAt,omitempty"`
	SignedAt        *time.Time `json:"signedAt,omitempty"`
}

// archiveContract uploads the executed contract record. Archive failures are
// logged and swallowed; the signature itself is already durable.
func (s *ContractService) archiveContract(ctx context.Context, offer *domain.Offer) {
	if s.archive == nil {
		return
	}

	record := executedContract{
		OfferID:         offer.ID,
		EventID:         offer.EventID,
		OrganizerID:     offer.OrganizerID,
		OrganizerName:   offer.OrganizerName,
		ProviderID:      offer.ProviderID,
		ProviderName:    offer.ProviderName,
		ServiceCategory: string(offer.ServiceCategory),
		FinalAmount:     offer.EffectiveAmount(),
		AcceptedAt:      offer.AcceptedAt,
		SignedAt:        offer.ContractSignedAt,
	}

	raw, err := json.Marshal(record)
	if err != nil {
		s.logger.Error("failed to encode contract archive record",
			zap.String("offer_id", offer.ID.String()),
			zap.Error(err),
		)
		return
	}

	filename := fmt.Sprintf("contract-%s.json", offer.ID)
	path, size, err := s.archive.Upload(ctx, filename, "application/json", strings.NewReader(string(raw)))
	if err != nil {
		s.logger.Error("failed to archive executed contract",
			zap.String("offer_id", offer.ID.String()),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("executed contract archived",
		zap.String("offer_id", offer.ID.String()),
		zap.String("storage_path", path),
		zap.Int64("size", size),
	)
}
