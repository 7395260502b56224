package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stagelink/marketplace-api/internal/domain"
	"gorm.io/gorm"
)

// OfferRepository is the persistence adapter for offers. Reads are scoped to
// one party predicate at a time; conditional writes carry a version guard.
type OfferRepository struct {
	db    *gorm.DB
	watch *WatchHub
}

// NewOfferRepository creates a new offer repository
func NewOfferRepository(db *gorm.DB) *OfferRepository {
	repo := &OfferRepository{db: db}
	repo.watch = NewWatchHub(repo.ListByParty)
	return repo
}

// Watch exposes the change notification hub
func (r *OfferRepository) Watch() *WatchHub {
	return r.watch
}

// Create inserts a new offer at version 1
func (r *OfferRepository) Create(ctx context.Context, offer *domain.Offer) error {
	if offer.Version == 0 {
		offer.Version = 1
	}
	if err := r.db.WithContext(ctx).Create(offer).Error; err != nil {
		return fmt.Errorf("failed to create offer: %w", err)
	}
	r.watch.Notify(ctx, offer)
	return nil
}

// GetByID fetches a single offer with its event preloaded
func (r *OfferRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Offer, error) {
	var offer domain.Offer
	err := r.db.WithContext(ctx).
		Preload("Event").
		First(&offer, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

// ListByParty returns all offers where the given party ID appears on the
// given side, newest first. Exactly one side is filtered per query.
func (r *OfferRepository) ListByParty(ctx context.Context, party domain.Party, partyID string) ([]domain.Offer, error) {
	column, err := partyColumn(party)
	if err != nil {
		return nil, err
	}

	var offers []domain.Offer
	err = r.db.WithContext(ctx).
		Preload("Event").
		Where(column+" = ?", partyID).
		Order("created_at DESC").
		Find(&offers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list offers for %s %s: %w", party, partyID, err)
	}
	return offers, nil
}

// ListByEvent returns all offers attached to one event
func (r *OfferRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.Offer, error) {
	var offers []domain.Offer
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at DESC").
		Find(&offers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list offers for event %s: %w", eventID, err)
	}
	return offers, nil
}

// ListExpirable returns non-terminal offers whose validity window has passed.
// Used by the expiry sweep.
func (r *OfferRepository) ListExpirable(ctx context.Context, now time.Time) ([]domain.Offer, error) {
	var offers []domain.Offer
	err := r.db.WithContext(ctx).
		Where("status IN ?", []domain.OfferStatus{
			domain.OfferStatusPending,
			domain.OfferStatusQuoted,
			domain.OfferStatusCounterOffered,
		}).
		Where("valid_until IS NOT NULL AND valid_until <= ?", now).
		Find(&offers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list expirable offers: %w", err)
	}
	return offers, nil
}

// ListSettled returns accepted offers whose contract is fully signed.
// Used by the settlement warehouse sync.
func (r *OfferRepository) ListSettled(ctx context.Context) ([]domain.Offer, error) {
	var offers []domain.Offer
	err := r.db.WithContext(ctx).
		Preload("Event").
		Where("status = ?", domain.OfferStatusAccepted).
		Where("contract_signed = ?", true).
		Order("contract_signed_at ASC").
		Find(&offers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list settled offers: %w", err)
	}
	return offers, nil
}

// PatchVersioned applies a partial update guarded by the expected version.
// The version column advances by one on success. A zero-row update means the
// caller lost a race (or the offer vanished); the two cases are told apart
// with a follow-up existence check.
func (r *OfferRepository) PatchVersioned(ctx context.Context, id uuid.UUID, expectedVersion int64, updates map[string]interface{}) (*domain.Offer, error) {
	patch := make(map[string]interface{}, len(updates)+1)
	for k, v := range updates {
		patch[k] = v
	}
	patch["version"] = gorm.Expr("version + 1")

	result := r.db.WithContext(ctx).
		Model(&domain.Offer{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(patch)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to patch offer %s: %w", id, result.Error)
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&domain.Offer{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to check offer %s: %w", id, err)
		}
		if count == 0 {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, ErrStaleVersion
	}

	updated, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.watch.Notify(ctx, updated)
	return updated, nil
}

func partyColumn(party domain.Party) (string, error) {
	switch party {
	case domain.PartyOrganizer:
		return "organizer_id", nil
	case domain.PartyProvider:
		return "provider_id", nil
	default:
		return "", fmt.Errorf("cannot list offers for party %q", party)
	}
}
