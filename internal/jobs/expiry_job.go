package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/stagelink/marketplace-api/internal/repository"
	"github.com/stagelink/marketplace-api/internal/service"
	"go.uber.org/zap"
)

// ExpiryJob sweeps overdue offers and persists their expired status. Reads
// already show overdue offers as expired; the sweep makes that durable so
// queries by stored status stay honest.
type ExpiryJob struct {
	offers      *repository.OfferRepository
	negotiation *service.NegotiationService
	logger      *zap.Logger
}

// NewExpiryJob creates a new expiry sweep job
func NewExpiryJob(offers *repository.OfferRepository, negotiation *service.NegotiationService, logger *zap.Logger) *ExpiryJob {
	return &ExpiryJob{
		offers:      offers,
		negotiation: negotiation,
		logger:      logger,
	}
}

// Run performs one sweep. Individual failures are logged and skipped; an
// offer that raced with a user action simply gets picked up next sweep if it
// is still overdue.
func (j *ExpiryJob) Run(ctx context.Context) {
	start := time.Now()

	overdue, err := j.offers.ListExpirable(ctx, start)
	if err != nil {
		j.logger.Error("expiry sweep failed to list offers", zap.Error(err))
		return
	}
	if len(overdue) == 0 {
		return
	}

	var expired, skipped int
	for i := range overdue {
		_, err := j.negotiation.ExpireOffer(ctx, overdue[i].ID)
		switch {
		case err == nil:
			expired++
		case errors.Is(err, service.ErrStaleWrite),
			errors.Is(err, service.ErrInvalidTransition),
			errors.Is(err, service.ErrNotExpirable),
			errors.Is(err, service.ErrOfferNotFound):
			// Lost a race with a user action; the offer is no longer ours to expire
			skipped++
		default:
			skipped++
			j.logger.Error("failed to expire offer",
				zap.String("offer_id", overdue[i].ID.String()),
				zap.Error(err),
			)
		}
	}

	j.logger.Info("expiry sweep completed",
		zap.Int("expired", expired),
		zap.Int("skipped", skipped),
		zap.Duration("duration", time.Since(start)),
	)
}
