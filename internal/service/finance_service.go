package service

import (
	"context"
	"time"

	"github.com/stagelink/marketplace-api/internal/auth"
	"github.com/stagelink/marketplace-api/internal/domain"
	"github.com/stagelink/marketplace-api/internal/repository"
	"go.uber.org/zap"
)

// FinanceService builds the role-scoped financial summary: accepted totals,
// the rolling monthly series and the per-category breakdown.
type FinanceService struct {
	offers *repository.OfferRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewFinanceService creates a new finance service
func NewFinanceService(offers *repository.OfferRepository, logger *zap.Logger) *FinanceService {
	return &FinanceService{
		offers: offers,
		logger: logger,
		now:    time.Now,
	}
}

// GetFinancialSummary computes the caller's financial summary. Only offers
// reading as accepted contribute to the money figures.
func (s *FinanceService) GetFinancialSummary(ctx context.Context, user *auth.UserContext) (*domain.FinancialSummary, error) {
	offers, err := s.offers.ListByParty(ctx, user.Role, user.UserID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	accepted := acceptedOffers(offers, now)

	summary := &domain.FinancialSummary{
		Role:           user.Role,
		TotalAmount:    sumEffective(accepted),
		AcceptedOffers: len(accepted),
		Monthly:        monthlyTotals(accepted),
		Categories:     categoryBreakdown(accepted),
	}
	if len(accepted) > 0 {
		summary.AveragePerOffer = summary.TotalAmount / float64(len(accepted))
	}
	summary.PendingPaymentAmount, summary.PendingContracts = pendingPayment(accepted)

	return summary, nil
}
