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

// NegotiationService drives the offer state machine. Every mutation is a
// versioned patch: callers may pin an expected version, otherwise the version
// read at the start of the operation is used, so a concurrent writer always
// surfaces as ErrStaleWrite instead of a silent overwrite.
type NegotiationService struct {
	offers *repository.OfferRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewNegotiationService creates a new negotiation service
func NewNegotiationService(offers *repository.OfferRepository, logger *zap.Logger) *NegotiationService {
	return &NegotiationService{
		offers: offers,
		logger: logger,
		now:    time.Now,
	}
}

// SubmitQuote answers a pending service request with a price. Only the
// provider can quote, and only while the request awaits them.
func (s *NegotiationService) SubmitQuote(ctx context.Context, user *auth.UserContext, id uuid.UUID, req *domain.SubmitQuoteRequest) (*domain.OfferDTO, error) {
	offer, actor, err := s.loadForTurn(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if offer.Status != domain.OfferStatusPending {
		return nil, fmt.Errorf("cannot quote a %s offer: %w", offer.Status, ErrInvalidTransition)
	}
	if actor != domain.PartyProvider {
		return nil, fmt.Errorf("only the provider quotes: %w", ErrWrongRole)
	}

	now := s.now()
	amount := req.Amount
	history, err := offer.AppendHistory(domain.OfferHistoryEntry{
		Type:      domain.HistoryEntryQuote,
		By:        actor,
		Amount:    &amount,
		Message:   req.Message,
		Timestamp: now,
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.patch(ctx, offer, req.ExpectedVersion, map[string]interface{}{
		"amount":        amount,
		"status":        domain.OfferStatusQuoted,
		"offer_history": history,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("quote submitted",
		zap.String("offer_id", id.String()),
		zap.String("provider_id", user.UserID),
		zap.Float64("amount", amount),
	)

	dto := mapper.ToOfferDTO(updated, now)
	return &dto, nil
}

// CounterOffer proposes a revised price and flips the turn to the other party
func (s *NegotiationService) CounterOffer(ctx context.Context, user *auth.UserContext, id uuid.UUID, req *domain.CounterOfferRequest) (*domain.OfferDTO, error) {
	offer, actor, err := s.loadForTurn(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if !negotiable(offer.Status) {
		return nil, fmt.Errorf("cannot counter a %s offer: %w", offer.Status, ErrInvalidTransition)
	}

	now := s.now()
	amount := req.Amount
	history, err := offer.AppendHistory(domain.OfferHistoryEntry{
		Type:      domain.HistoryEntryCounter,
		By:        actor,
		Amount:    &amount,
		Message:   req.Message,
		Timestamp: now,
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.patch(ctx, offer, req.ExpectedVersion, map[string]interface{}{
		"counter_amount": amount,
		"counter_by":     actor,
		"counter_at":     now,
		"status":         domain.OfferStatusCounterOffered,
		"offer_history":  history,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("counter offer made",
		zap.String("offer_id", id.String()),
		zap.String("by", string(actor)),
		zap.Float64("amount", amount),
	)

	dto := mapper.ToOfferDTO(updated, now)
	return &dto, nil
}

// AcceptOffer locks in the amount currently on the table as the final amount.
// A pending offer has no proposal to accept yet: the provider must quote (or
// either party counter) before acceptance becomes possible.
func (s *NegotiationService) AcceptOffer(ctx context.Context, user *auth.UserContext, id uuid.UUID, req *domain.AcceptOfferRequest) (*domain.OfferDTO, error) {
	offer, actor, err := s.loadForTurn(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if offer.Status != domain.OfferStatusQuoted && offer.Status != domain.OfferStatusCounterOffered {
		return nil, fmt.Errorf("cannot accept a %s offer: %w", offer.Status, ErrInvalidTransition)
	}

	now := s.now()
	finalAmount := offer.EffectiveAmount()
	history, err := offer.AppendHistory(domain.OfferHistoryEntry{
		Type:      domain.HistoryEntryAccepted,
		By:        actor,
		Amount:    &finalAmount,
		Message:   req.Message,
		Timestamp: now,
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.patch(ctx, offer, req.ExpectedVersion, map[string]interface{}{
		"final_amount":  finalAmount,
		"accepted_by":   actor,
		"accepted_at":   now,
		"status":        domain.OfferStatusAccepted,
		"offer_history": history,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("offer accepted",
		zap.String("offer_id", id.String()),
		zap.String("by", string(actor)),
		zap.Float64("final_amount", finalAmount),
	)

	dto := mapper.ToOfferDTO(updated, now)
	return &dto, nil
}

// RejectOffer declines the negotiation
func (s *NegotiationService) RejectOffer(ctx context.Context, user *auth.UserContext, id uuid.UUID, req *domain.RejectOfferRequest) (*domain.OfferDTO, error) {
	offer, actor, err := s.loadForTurn(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if !negotiable(offer.Status) {
		return nil, fmt.Errorf("cannot reject a %s offer: %w", offer.Status, ErrInvalidTransition)
	}

	now := s.now()
	history, err := offer.AppendHistory(domain.OfferHistoryEntry{
		Type:      domain.HistoryEntryRejected,
		By:        actor,
		Message:   req.Reason,
		Timestamp: now,
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.patch(ctx, offer, req.ExpectedVersion, map[string]interface{}{
		"rejected_by":      actor,
		"rejected_at":      now,
		"rejection_reason": req.Reason,
		"status":           domain.OfferStatusRejected,
		"offer_history":    history,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("offer rejected",
		zap.String("offer_id", id.String()),
		zap.String("by", string(actor)),
	)

	dto := mapper.ToOfferDTO(updated, now)
	return &dto, nil
}

// CancelOffer withdraws from the negotiation. Either participant may cancel
// regardless of whose turn it is, from any non-terminal state and from
// accepted, signed or not.
func (s *NegotiationService) CancelOffer(ctx context.Context, user *auth.UserContext, id uuid.UUID, req *domain.CancelOfferRequest) (*domain.OfferDTO, error) {
	offer, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	actor := offer.RoleOf(user.UserID)
	if actor == domain.PartyNone || actor != user.Role {
		return nil, ErrNotParticipant
	}
	now := s.now()
	status := offer.StatusAt(now)
	if status.IsTerminal() && status != domain.OfferStatusAccepted {
		return nil, fmt.Errorf("cannot cancel a %s offer: %w", status, ErrInvalidTransition)
	}

	updated, err := s.patch(ctx, offer, req.ExpectedVersion, map[string]interface{}{
		"cancelled_by":        actor,
		"cancelled_at":        now,
		"cancellation_reason": req.Reason,
		"status":              domain.OfferStatusCancelled,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("offer cancelled",
		zap.String("offer_id", id.String()),
		zap.String("by", string(actor)),
	)

	dto := mapper.ToOfferDTO(updated, now)
	return &dto, nil
}

// ExpireOffer marks an overdue offer expired. System-initiated: the sweep
// calls it, no user entitlement applies.
func (s *NegotiationService) ExpireOffer(ctx context.Context, id uuid.UUID) (*domain.OfferDTO, error) {
	offer, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if offer.Status.IsTerminal() {
		return nil, fmt.Errorf("cannot expire a %s offer: %w", offer.Status, ErrInvalidTransition)
	}

	now := s.now()
	if !offer.IsOverdue(now) {
		return nil, ErrNotExpirable
	}

	updated, err := s.patch(ctx, offer, nil, map[string]interface{}{
		"status": domain.OfferStatusExpired,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("offer expired",
		zap.String("offer_id", id.String()),
	)

	dto := mapper.ToOfferDTO(updated, now)
	return &dto, nil
}

// negotiable reports whether the turn-based actions apply to the status
func negotiable(status domain.OfferStatus) bool {
	switch status {
	case domain.OfferStatusPending, domain.OfferStatusQuoted, domain.OfferStatusCounterOffered:
		return true
	}
	return false
}

// loadForTurn loads the offer and checks that the caller is a participant
// acting on their turn. Overdue offers read as expired, so actions on them
// fail the turn check.
func (s *NegotiationService) loadForTurn(ctx context.Context, user *auth.UserContext, id uuid.UUID) (*domain.Offer, domain.Party, error) {
	offer, err := s.load(ctx, id)
	if err != nil {
		return nil, domain.PartyNone, err
	}

	actor := offer.RoleOf(user.UserID)
	if actor == domain.PartyNone || actor != user.Role {
		return nil, domain.PartyNone, ErrNotParticipant
	}

	now := s.now()
	if offer.IsOverdue(now) {
		return nil, domain.PartyNone, fmt.Errorf("offer validity has passed: %w", ErrInvalidTransition)
	}

	if offer.AwaitingAction() != actor {
		return nil, domain.PartyNone, ErrNotYourTurn
	}

	return offer, actor, nil
}

func (s *NegotiationService) load(ctx context.Context, id uuid.UUID) (*domain.Offer, error) {
	offer, err := s.offers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOfferNotFound
		}
		return nil, fmt.Errorf("failed to load offer: %w", err)
	}
	return offer, nil
}

// patch applies a versioned update using the caller's pinned version when
// given, the freshly read version otherwise
func (s *NegotiationService) patch(ctx context.Context, offer *domain.Offer, expectedVersion *int64, updates map[string]interface{}) (*domain.Offer, error) {
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
	return updated, nil
}
