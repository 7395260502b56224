package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stagelink/marketplace-api/internal/auth"
	"github.com/stagelink/marketplace-api/internal/domain"
	"github.com/stagelink/marketplace-api/internal/http/handler"
	"github.com/stagelink/marketplace-api/internal/repository"
	"github.com/stagelink/marketplace-api/internal/service"
	"github.com/stagelink/marketplace-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupDashboard(t *testing.T, user *auth.UserContext) (*gorm.DB, chi.Router) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	offers := repository.NewOfferRepository(db)

	h := handler.NewDashboardHandler(
		service.NewDashboardService(offers, logger),
		service.NewFinanceService(offers, logger),
		service.NewAnalyticsService(offers, logger),
		logger,
	)

	r := chi.NewRouter()
	r.Use(asUser(user))
	r.Get("/dashboard", h.GetDashboard)
	r.Get("/finance/summary", h.GetFinancialSummary)
	r.Get("/analytics/organizer", h.GetOrganizerAnalytics)
	r.Get("/analytics/provider", h.GetProviderAnalytics)
	return db, r
}

func get(t *testing.T, r chi.Router, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestDashboardEndpoints(t *testing.T) {
	organizer := &auth.UserContext{UserID: "org-1", Role: domain.PartyOrganizer}
	db, router := setupDashboard(t, organizer)

	event := testutil.CreateTestEvent(t, db, "org-1", "Gala")
	testutil.CreateTestOffer(t, db, event.ID,
		testutil.WithParties("org-1", "prov-1"),
		testutil.Accepted(10000, time.Now(), domain.PartyOrganizer))
	testutil.CreateTestOffer(t, db, event.ID,
		testutil.WithParties("org-1", "prov-2"),
		testutil.WithStatus(domain.OfferStatusQuoted),
		testutil.WithAmount(500))

	t.Run("dashboard", func(t *testing.T) {
		rec := get(t, router, "/dashboard")
		require.Equal(t, http.StatusOK, rec.Code)

		var stats domain.DashboardStats
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
		assert.Equal(t, 2, stats.TotalOffers)
		assert.Equal(t, 1, stats.AcceptedOffers)
		assert.Equal(t, 10000.0, stats.TotalAmount)
		assert.Equal(t, 1, stats.AwaitingMyAction)
	})

	t.Run("financial summary", func(t *testing.T) {
		rec := get(t, router, "/finance/summary")
		require.Equal(t, http.StatusOK, rec.Code)

		var summary domain.FinancialSummary
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
		assert.Equal(t, 10000.0, summary.TotalAmount)
		require.Len(t, summary.Categories, 1)
		assert.Equal(t, 100, summary.Categories[0].Percent)
	})

	t.Run("organizer analytics", func(t *testing.T) {
		rec := get(t, router, "/analytics/organizer")
		require.Equal(t, http.StatusOK, rec.Code)

		var analytics domain.OrganizerAnalytics
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &analytics))
		assert.Equal(t, 10000.0, analytics.TotalSpend)
		require.Len(t, analytics.TopProviders, 1)
		assert.Equal(t, "prov-1", analytics.TopProviders[0].PartyID)
	})

	t.Run("the provider view is closed to organizers", func(t *testing.T) {
		rec := get(t, router, "/analytics/provider")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestDashboardRequiresAuth(t *testing.T) {
	_, router := setupDashboard(t, nil)

	for _, path := range []string{"/dashboard", "/finance/summary", "/analytics/organizer", "/analytics/provider"} {
		rec := get(t, router, path)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}
