package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stagelink/marketplace-api/internal/domain"
	"github.com/stagelink/marketplace-api/internal/service"
	"github.com/stagelink/marketplace-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateServiceRequest(t *testing.T) {
	fx := setupNegotiation(t)
	ctx := context.Background()

	organizer := organizerCtx("org-1")
	event := testutil.CreateTestEvent(t, fx.db, organizer.UserID, "Gala")

	t.Run("creates a pending request awaiting the provider", func(t *testing.T) {
		dto, err := fx.offerSvc.CreateServiceRequest(ctx, organizer, &domain.CreateServiceRequestRequest{
			EventID:         event.ID,
			ProviderID:      "prov-1",
			ProviderName:    "Fjord Catering",
			ServiceCategory: domain.CategoryCatering,
			Amount:          testutil.FloatPtr(5000),
		})
		require.NoError(t, err)

		assert.Equal(t, domain.RequestTypeRequest, dto.RequestType)
		assert.Equal(t, domain.OfferStatusPending, dto.Status)
		assert.Equal(t, domain.PartyProvider, dto.AwaitingAction)
		assert.Equal(t, organizer.UserID, dto.OrganizerID)
		assert.Equal(t, int64(1), dto.Version)
	})

	t.Run("defaults the validity window when none is given", func(t *testing.T) {
		dto, err := fx.offerSvc.CreateServiceRequest(ctx, organizer, &domain.CreateServiceRequestRequest{
			EventID:         event.ID,
			ProviderID:      "prov-1",
			ServiceCategory: domain.CategoryVenue,
		})
		require.NoError(t, err)

		require.NotNil(t, dto.ValidUntil)
		expected := time.Now().AddDate(0, 0, 14)
		assert.WithinDuration(t, expected, *dto.ValidUntil, time.Minute)
	})

	t.Run("providers cannot open a service request", func(t *testing.T) {
		_, err := fx.offerSvc.CreateServiceRequest(ctx, providerCtx("prov-1"), &domain.CreateServiceRequestRequest{
			EventID:         event.ID,
			ProviderID:      "prov-1",
			ServiceCategory: domain.CategoryCatering,
		})
		assert.ErrorIs(t, err, service.ErrWrongRole)
	})

	t.Run("requests are scoped to events the organizer owns", func(t *testing.T) {
		otherEvent := testutil.CreateTestEvent(t, fx.db, "org-other", "Foreign Event")
		_, err := fx.offerSvc.CreateServiceRequest(ctx, organizer, &domain.CreateServiceRequestRequest{
			EventID:         otherEvent.ID,
			ProviderID:      "prov-1",
			ServiceCategory: domain.CategoryCatering,
		})
		assert.ErrorIs(t, err, service.ErrNotParticipant)
	})

	t.Run("unknown event is rejected", func(t *testing.T) {
		_, err := fx.offerSvc.CreateServiceRequest(ctx, organizer, &domain.CreateServiceRequestRequest{
			EventID:         uuid.New(),
			ProviderID:      "prov-1",
			ServiceCategory: domain.CategoryCatering,
		})
		assert.ErrorIs(t, err, service.ErrEventNotFound)
	})
}

func TestCreateProviderOffer(t *testing.T) {
	fx := setupNegotiation(t)
	ctx := context.Background()

	provider := providerCtx("prov-1")
	event := testutil.CreateTestEvent(t, fx.db, "org-1", "Gala")

	t.Run("creates a pending proposal awaiting the organizer", func(t *testing.T) {
		dto, err := fx.offerSvc.CreateProviderOffer(ctx, provider, &domain.CreateProviderOfferRequest{
			EventID:         event.ID,
			OrganizerID:     "org-1",
			ServiceCategory: domain.CategoryPhotography,
			Amount:          testutil.FloatPtr(3000),
		})
		require.NoError(t, err)

		assert.Equal(t, domain.RequestTypeOffer, dto.RequestType)
		assert.Equal(t, domain.PartyOrganizer, dto.AwaitingAction)
		assert.Equal(t, provider.UserID, dto.ProviderID)
		// Organizer name falls back to the event record
		assert.Equal(t, event.OrganizerName, dto.OrganizerName)
	})

	t.Run("organizer must own the target event", func(t *testing.T) {
		_, err := fx.offerSvc.CreateProviderOffer(ctx, provider, &domain.CreateProviderOfferRequest{
			EventID:         event.ID,
			OrganizerID:     "org-wrong",
			ServiceCategory: domain.CategoryPhotography,
		})
		assert.ErrorIs(t, err, service.ErrEventNotFound)
	})

	t.Run("organizers cannot open a provider proposal", func(t *testing.T) {
		_, err := fx.offerSvc.CreateProviderOffer(ctx, organizerCtx("org-1"), &domain.CreateProviderOfferRequest{
			EventID:         event.ID,
			OrganizerID:     "org-1",
			ServiceCategory: domain.CategoryPhotography,
		})
		assert.ErrorIs(t, err, service.ErrWrongRole)
	})
}

func TestGetOfferAndListing(t *testing.T) {
	fx := setupNegotiation(t)
	ctx := context.Background()

	organizer := organizerCtx("org-1")
	provider := providerCtx("prov-1")
	event := testutil.CreateTestEvent(t, fx.db, organizer.UserID, "Gala")
	offer := testutil.CreateTestOffer(t, fx.db, event.ID,
		testutil.WithParties(organizer.UserID, provider.UserID))

	t.Run("both participants can read the offer", func(t *testing.T) {
		forOrganizer, err := fx.offerSvc.GetOffer(ctx, organizer, offer.ID)
		require.NoError(t, err)
		assert.Equal(t, offer.ID, forOrganizer.ID)

		forProvider, err := fx.offerSvc.GetOffer(ctx, provider, offer.ID)
		require.NoError(t, err)
		assert.Equal(t, offer.ID, forProvider.ID)
	})

	t.Run("outsiders cannot read the offer", func(t *testing.T) {
		_, err := fx.offerSvc.GetOffer(ctx, organizerCtx("org-other"), offer.ID)
		assert.ErrorIs(t, err, service.ErrNotParticipant)
	})

	t.Run("listing is scoped to the caller's side", func(t *testing.T) {
		list, err := fx.offerSvc.ListOffers(ctx, provider)
		require.NoError(t, err)
		assert.Equal(t, 1, list.Total)
		require.Len(t, list.Offers, 1)
		assert.Equal(t, offer.ID, list.Offers[0].ID)

		empty, err := fx.offerSvc.ListOffers(ctx, providerCtx("prov-other"))
		require.NoError(t, err)
		assert.Equal(t, 0, empty.Total)
	})

	t.Run("history of a fresh offer is empty, not null", func(t *testing.T) {
		history, err := fx.offerSvc.GetHistory(ctx, organizer, offer.ID)
		require.NoError(t, err)
		assert.NotNil(t, history)
		assert.Empty(t, history)
	})

	t.Run("unknown offer id", func(t *testing.T) {
		_, err := fx.offerSvc.GetOffer(ctx, organizer, uuid.New())
		assert.ErrorIs(t, err, service.ErrOfferNotFound)
	})
}
