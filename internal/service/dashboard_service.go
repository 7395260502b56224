package service

import (
	"context"
	"time"

	"github.com/stagelink/marketplace-api/internal/auth"
	"github.com/stagelink/marketplace-api/internal/domain"
	"github.com/stagelink/marketplace-api/internal/repository"
	"go.uber.org/zap"
)

// DashboardService builds the role-scoped dashboard. The numbers are
// recomputed from the caller's full offer set on every request; nothing is
// cached or incrementally maintained.
type DashboardService struct {
	offers *repository.OfferRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(offers *repository.OfferRepository, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		offers: offers,
		logger: logger,
		now:    time.Now,
	}
}

// GetDashboard computes the caller's dashboard counters
func (s *DashboardService) GetDashboard(ctx context.Context, user *auth.UserContext) (*domain.DashboardStats, error) {
	offers, err := s.offers.ListByParty(ctx, user.Role, user.UserID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	stats := &domain.DashboardStats{
		Role:        user.Role,
		TotalOffers: len(offers),
	}

	for i := range offers {
		offer := &offers[i]
		status := offer.StatusAt(now)

		if !status.IsTerminal() {
			stats.ActiveOffers++
		}
		if status == domain.OfferStatusAccepted {
			stats.AcceptedOffers++
		}

		view := *offer
		view.Status = status
		if view.AwaitingAction() == user.Role {
			stats.AwaitingMyAction++
		}

		if offer.ContractSigned {
			stats.FullySignedContracts++
		}
		if offer.NeedsSignatureFrom(user.Role) {
			stats.AwaitingMySignature++
		}
	}

	accepted := acceptedOffers(offers, now)
	stats.TotalAmount = sumEffective(accepted)
	if len(accepted) > 0 {
		stats.AveragePerOffer = stats.TotalAmount / float64(len(accepted))
	}
	stats.DistinctCounterparts = distinctCounterparts(offers, user.Role.Other())
	stats.PendingPaymentAmount, _ = pendingPayment(accepted)

	return stats, nil
}
