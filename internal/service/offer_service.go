package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stagelink/marketplace-api/internal/auth"
	"github.com/stagelink/marketplace-api/internal/domain"
	"github.com/stagelink/marketplace-api/internal/mapper"
	"github.com/stagelink/marketplace-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OfferService handles offer creation and reads. Both creation paths produce
// a pending offer; which party owes the first response follows from the
// request type.
type OfferService struct {
	offers       *repository.OfferRepository
	events       *repository.EventRepository
	logger       *zap.Logger
	validityDays int
	now          func() time.Time
}

// NewOfferService creates a new offer service
func NewOfferService(offers *repository.OfferRepository, events *repository.EventRepository, validityDays int, logger *zap.Logger) *OfferService {
	if validityDays <= 0 {
		validityDays = 14
	}
	return &OfferService{
		offers:       offers,
		events:       events,
		logger:       logger,
		validityDays: validityDays,
		now:          time.Now,
	}
}

// CreateServiceRequest opens a negotiation organizer-first. The provider owes
// the first response.
func (s *OfferService) CreateServiceRequest(ctx context.Context, user *auth.UserContext, req *domain.CreateServiceRequestRequest) (*domain.OfferDTO, error) {
	if user.Role != domain.PartyOrganizer {
		return nil, ErrWrongRole
	}

	event, err := s.events.GetByID(ctx, req.EventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	if event.OrganizerID != user.UserID {
		return nil, ErrNotParticipant
	}

	offer := &domain.Offer{
		EventID:         event.ID,
		OrganizerID:     user.UserID,
		OrganizerName:   user.DisplayName,
		ProviderID:      req.ProviderID,
		ProviderName:    req.ProviderName,
		ServiceCategory: req.ServiceCategory,
		RequestType:     domain.RequestTypeRequest,
		Status:          domain.OfferStatusPending,
		Description:     req.Description,
		Amount:          req.Amount,
		ValidUntil:      s.validUntil(req.ValidUntil),
	}

	if err := s.offers.Create(ctx, offer); err != nil {
		return nil, err
	}

	s.logger.Info("service request created",
		zap.String("offer_id", offer.ID.String()),
		zap.String("event_id", event.ID.String()),
		zap.String("organizer_id", offer.OrganizerID),
		zap.String("provider_id", offer.ProviderID),
		zap.String("category", string(offer.ServiceCategory)),
	)

	dto := mapper.ToOfferDTO(offer, s.now())
	return &dto, nil
}

// CreateProviderOffer opens a negotiation provider-first. The organizer owes
// the first response.
func (s *OfferService) CreateProviderOffer(ctx context.Context, user *auth.UserContext, req *domain.CreateProviderOfferRequest) (*domain.OfferDTO, error) {
	if user.Role != domain.PartyProvider {
		return nil, ErrWrongRole
	}

	event, err := s.events.GetByID(ctx, req.EventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	if event.OrganizerID != req.OrganizerID {
		return nil, fmt.Errorf("organizer %s does not own event %s: %w", req.OrganizerID, event.ID, ErrEventNotFound)
	}

	organizerName := req.OrganizerName
	if organizerName == "" {
		organizerName = event.OrganizerName
	}

	offer := &domain.Offer{
		EventID:         event.ID,
		OrganizerID:     req.OrganizerID,
		OrganizerName:   organizerName,
		ProviderID:      user.UserID,
		ProviderName:    user.DisplayName,
		ServiceCategory: req.ServiceCategory,
		RequestType:     domain.RequestTypeOffer,
		Status:          domain.OfferStatusPending,
		Description:     req.Description,
		Amount:          req.Amount,
		ValidUntil:      s.validUntil(req.ValidUntil),
	}

	if err := s.offers.Create(ctx, offer); err != nil {
		return nil, err
	}

	s.logger.Info("provider offer created",
		zap.String("offer_id", offer.ID.String()),
		zap.String("event_id", event.ID.String()),
		zap.String("organizer_id", offer.OrganizerID),
		zap.String("provider_id", offer.ProviderID),
		zap.String("category", string(offer.ServiceCategory)),
	)

	dto := mapper.ToOfferDTO(offer, s.now())
	return &dto, nil
}

// GetOffer fetches one offer for a participant
func (s *OfferService) GetOffer(ctx context.Context, user *auth.UserContext, id uuid.UUID) (*domain.OfferDTO, error) {
	offer, err := s.loadForParticipant(ctx, user, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToOfferDTO(offer, s.now())
	return &dto, nil
}

// ListOffers returns the caller's offers on their side of the marketplace
func (s *OfferService) ListOffers(ctx context.Context, user *auth.UserContext) (*domain.OfferListResponse, error) {
	offers, err := s.offers.ListByParty(ctx, user.Role, user.UserID)
	if err != nil {
		return nil, err
	}
	dtos := mapper.ToOfferDTOs(offers, s.now())
	return &domain.OfferListResponse{Offers: dtos, Total: len(dtos)}, nil
}

// GetHistory returns the negotiation replay of one offer
func (s *OfferService) GetHistory(ctx context.Context, user *auth.UserContext, id uuid.UUID) ([]domain.OfferHistoryEntry, error) {
	offer, err := s.loadForParticipant(ctx, user, id)
	if err != nil {
		return nil, err
	}
	entries, err := offer.HistoryEntries()
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.OfferHistoryEntry{}
	}
	return entries, nil
}

// Watch subscribes the caller to live snapshots of their offer set
func (s *OfferService) Watch(ctx context.Context, user *auth.UserContext) (<-chan []domain.Offer, func(), error) {
	return s.offers.Watch().Subscribe(ctx, user.Role, user.UserID)
}

func (s *OfferService) loadForParticipant(ctx context.Context, user *auth.UserContext, id uuid.UUID) (*domain.Offer, error) {
	offer, err := s.offers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOfferNotFound
		}
		return nil, fmt.Errorf("failed to load offer: %w", err)
	}
	if !offer.IsParticipant(user.UserID) {
		return nil, ErrNotParticipant
	}
	return offer, nil
}

func (s *OfferService) validUntil(requested *time.Time) *time.Time {
	if requested != nil {
		return requested
	}
	deadline := s.now().AddDate(0, 0, s.validityDays)
	return &deadline
}
