package service

import (
	"context"
	"time"

	"github.com/stagelink/marketplace-api/internal/auth"
	"github.com/stagelink/marketplace-api/internal/domain"
	"github.com/stagelink/marketplace-api/internal/repository"
	"go.uber.org/zap"
)

// AnalyticsService builds the per-role analytics views: spend or revenue
// totals, counterparty leaderboards and the category/month distributions.
type AnalyticsService struct {
	offers *repository.OfferRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(offers *repository.OfferRepository, logger *zap.Logger) *AnalyticsService {
	return &AnalyticsService{
		offers: offers,
		logger: logger,
		now:    time.Now,
	}
}

// GetOrganizerAnalytics computes spend-side analytics for an organizer
func (s *AnalyticsService) GetOrganizerAnalytics(ctx context.Context, user *auth.UserContext) (*domain.OrganizerAnalytics, error) {
	if user.Role != domain.PartyOrganizer {
		return nil, ErrWrongRole
	}

	offers, err := s.offers.ListByParty(ctx, domain.PartyOrganizer, user.UserID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	accepted := acceptedOffers(offers, now)

	analytics := &domain.OrganizerAnalytics{
		TotalSpend:        sumEffective(accepted),
		AcceptedOffers:    len(accepted),
		DistinctProviders: distinctCounterparts(offers, domain.PartyProvider),
		Monthly:           monthlyTotals(accepted),
		Categories:        categoryBreakdown(accepted),
		TopProviders:      leaderboard(accepted, domain.PartyProvider),
	}
	if len(accepted) > 0 {
		analytics.AveragePerOffer = analytics.TotalSpend / float64(len(accepted))
	}
	return analytics, nil
}

// GetProviderAnalytics computes revenue-side analytics for a provider
func (s *AnalyticsService) GetProviderAnalytics(ctx context.Context, user *auth.UserContext) (*domain.ProviderAnalytics, error) {
	if user.Role != domain.PartyProvider {
		return nil, ErrWrongRole
	}

	offers, err := s.offers.ListByParty(ctx, domain.PartyProvider, user.UserID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	accepted := acceptedOffers(offers, now)

	analytics := &domain.ProviderAnalytics{
		TotalRevenue:    sumEffective(accepted),
		AcceptedOffers:  len(accepted),
		DistinctClients: distinctCounterparts(offers, domain.PartyOrganizer),
		Monthly:         monthlyTotals(accepted),
		Categories:      categoryBreakdown(accepted),
		TopClients:      leaderboard(accepted, domain.PartyOrganizer),
	}
	if len(accepted) > 0 {
		analytics.AveragePerOffer = analytics.TotalRevenue / float64(len(accepted))
	}
	return analytics, nil
}
