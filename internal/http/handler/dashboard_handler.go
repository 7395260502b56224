package handler

import (
	"net/http"

	"github.com/stagelink/marketplace-api/internal/auth"
	"github.com/stagelink/marketplace-api/internal/service"
	"go.uber.org/zap"
)

// DashboardHandler exposes the aggregated read models: dashboard counters,
// financial summaries and per-role analytics
type DashboardHandler struct {
	dashboard *service.DashboardService
	finance   *service.FinanceService
	analytics *service.AnalyticsService
	logger    *zap.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboard *service.DashboardService, finance *service.FinanceService, analytics *service.AnalyticsService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboard: dashboard,
		finance:   finance,
		analytics: analytics,
		logger:    logger,
	}
}

// GetDashboard godoc
// @Summary Get dashboard counters
// @Description Role-scoped overview of the caller's offers and contracts
// @Tags dashboard
// @Produce json
// @Success 200 {object} domain.DashboardStats
// @Security BearerAuth
// @Router /dashboard [get]
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	stats, err := h.dashboard.GetDashboard(r.Context(), user)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// GetFinancialSummary godoc
// @Summary Get financial summary
// @Description Accepted totals, rolling monthly series and category breakdown
// @Tags dashboard
// @Produce json
// @Success 200 {object} domain.FinancialSummary
// @Security BearerAuth
// @Router /finance/summary [get]
func (h *DashboardHandler) GetFinancialSummary(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	summary, err := h.finance.GetFinancialSummary(r.Context(), user)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// GetOrganizerAnalytics godoc
// @Summary Get organizer analytics
// @Description Spend analytics with the top providers leaderboard
// @Tags dashboard
// @Produce json
// @Success 200 {object} domain.OrganizerAnalytics
// @Failure 403 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /analytics/organizer [get]
func (h *DashboardHandler) GetOrganizerAnalytics(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	analytics, err := h.analytics.GetOrganizerAnalytics(r.Context(), user)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, analytics)
}

// GetProviderAnalytics godoc
// @Summary Get provider analytics
// @Description Revenue analytics with the top clients leaderboard
// @Tags dashboard
// @Produce json
// @Success 200 {object} domain.ProviderAnalytics
// @Failure 403 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /analytics/provider [get]
func (h *DashboardHandler) GetProviderAnalytics(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	analytics, err := h.analytics.GetProviderAnalytics(r.Context(), user)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, analytics)
}
