package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stagelink/marketplace-api/internal/auth"
	"github.com/stagelink/marketplace-api/internal/domain"
	"github.com/stagelink/marketplace-api/internal/repository"
	"github.com/stagelink/marketplace-api/internal/service"
	"github.com/stagelink/marketplace-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func organizerCtx(id string) *auth.UserContext {
	return &auth.UserContext{UserID: id, DisplayName: "Organizer " + id, Role: domain.PartyOrganizer}
}

func providerCtx(id string) *auth.UserContext {
	return &auth.UserContext{UserID: id, DisplayName: "Provider " + id, Role: domain.PartyProvider}
}

type negotiationFixture struct {
	db          *gorm.DB
	offers      *repository.OfferRepository
	events      *repository.EventRepository
	offerSvc    *service.OfferService
	negotiation *service.NegotiationService
}

func setupNegotiation(t *testing.T) *negotiationFixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	offers := repository.NewOfferRepository(db)
	events := repository.NewEventRepository(db)
	logger := zap.NewNop()
	return &negotiationFixture{
		db:          db,
		offers:      offers,
		events:      events,
		offerSvc:    service.NewOfferService(offers, events, 14, logger),
		negotiation: service.NewNegotiationService(offers, logger),
	}
}

func TestNegotiationLifecycle(t *testing.T) {
	fx := setupNegotiation(t)
	ctx := context.Background()

	organizer := organizerCtx("org-1")
	provider := providerCtx("prov-1")

	event := testutil.CreateTestEvent(t, fx.db, organizer.UserID, "Harbor Festival")

	// Organizer asks for catering, naming a budget
	created, err := fx.offerSvc.CreateServiceRequest(ctx, organizer, &domain.CreateServiceRequestRequest{
		EventID:         event.ID,
		ProviderID:      provider.UserID,
		ProviderName:    "Fjord Catering",
		ServiceCategory: domain.CategoryCatering,
		Amount:          testutil.FloatPtr(20000),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OfferStatusPending, created.Status)
	assert.Equal(t, domain.PartyProvider, created.AwaitingAction)
	assert.Equal(t, 20000.0, created.EffectiveAmount)
	assert.NotNil(t, created.ValidUntil)

	// Provider quotes above the budget
	quoted, err := fx.negotiation.SubmitQuote(ctx, provider, created.ID, &domain.SubmitQuoteRequest{
		Amount:  25000,
		Message: "includes staff for 500 guests",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OfferStatusQuoted, quoted.Status)
	assert.Equal(t, domain.PartyOrganizer, quoted.AwaitingAction)
	assert.Equal(t, 25000.0, quoted.EffectiveAmount)

	// Organizer counters
	countered, err := fx.negotiation.CounterOffer(ctx, organizer, created.ID, &domain.CounterOfferRequest{
		Amount: 22000,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OfferStatusCounterOffered, countered.Status)
	assert.Equal(t, domain.PartyProvider, countered.AwaitingAction)
	assert.Equal(t, 22000.0, countered.EffectiveAmount)

	// Provider accepts; the counter amount becomes the final amount
	accepted, err := fx.negotiation.AcceptOffer(ctx, provider, created.ID, &domain.AcceptOfferRequest{})
	require.NoError(t, err)
	assert.Equal(t, domain.OfferStatusAccepted, accepted.Status)
	assert.Equal(t, domain.PartyNone, accepted.AwaitingAction)
	require.NotNil(t, accepted.FinalAmount)
	assert.Equal(t, 22000.0, *accepted.FinalAmount)
	assert.Equal(t, 22000.0, accepted.EffectiveAmount)

	// The replay preserves every step in order
	history, err := fx.offerSvc.GetHistory(ctx, organizer, created.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, domain.HistoryEntryQuote, history[0].Type)
	assert.Equal(t, domain.HistoryEntryCounter, history[1].Type)
	assert.Equal(t, domain.HistoryEntryAccepted, history[2].Type)
	assert.Equal(t, 22000.0, *history[2].Amount)
}

func TestTurnEnforcement(t *testing.T) {
	fx := setupNegotiation(t)
	ctx := context.Background()

	organizer := organizerCtx("org-1")
	provider := providerCtx("prov-1")
	event := testutil.CreateTestEvent(t, fx.db, organizer.UserID, "Gala")

	created, err := fx.offerSvc.CreateServiceRequest(ctx, organizer, &domain.CreateServiceRequestRequest{
		EventID:         event.ID,
		ProviderID:      provider.UserID,
		ServiceCategory: domain.CategorySecurity,
	})
	require.NoError(t, err)

	t.Run("organizer cannot act while awaiting the provider", func(t *testing.T) {
		_, err := fx.negotiation.CounterOffer(ctx, organizer, created.ID, &domain.CounterOfferRequest{Amount: 100})
		assert.ErrorIs(t, err, service.ErrNotYourTurn)

		_, err = fx.negotiation.AcceptOffer(ctx, organizer, created.ID, &domain.AcceptOfferRequest{})
		assert.ErrorIs(t, err, service.ErrNotYourTurn)
	})

	t.Run("strangers are not participants", func(t *testing.T) {
		_, err := fx.negotiation.SubmitQuote(ctx, providerCtx("prov-other"), created.ID, &domain.SubmitQuoteRequest{Amount: 100})
		assert.ErrorIs(t, err, service.ErrNotParticipant)
	})

	t.Run("a participant acting under the wrong role is rejected", func(t *testing.T) {
		impostor := &auth.UserContext{UserID: provider.UserID, Role: domain.PartyOrganizer}
		_, err := fx.negotiation.SubmitQuote(ctx, impostor, created.ID, &domain.SubmitQuoteRequest{Amount: 100})
		assert.ErrorIs(t, err, service.ErrNotParticipant)
	})

	t.Run("turn flips after each response", func(t *testing.T) {
		_, err := fx.negotiation.SubmitQuote(ctx, provider, created.ID, &domain.SubmitQuoteRequest{Amount: 5000})
		require.NoError(t, err)

		// Now it is the organizer's turn; the provider must wait
		_, err = fx.negotiation.CounterOffer(ctx, provider, created.ID, &domain.CounterOfferRequest{Amount: 4500})
		assert.ErrorIs(t, err, service.ErrNotYourTurn)

		_, err = fx.negotiation.CounterOffer(ctx, organizer, created.ID, &domain.CounterOfferRequest{Amount: 4000})
		require.NoError(t, err)

		_, err = fx.negotiation.AcceptOffer(ctx, organizer, created.ID, &domain.AcceptOfferRequest{})
		assert.ErrorIs(t, err, service.ErrNotYourTurn)
	})
}

func TestAcceptRequiresProposal(t *testing.T) {
	fx := setupNegotiation(t)
	ctx := context.Background()

	organizer := organizerCtx("org-1")
	provider := providerCtx("prov-1")
	event := testutil.CreateTestEvent(t, fx.db, organizer.UserID, "Gala")

	created, err := fx.offerSvc.CreateServiceRequest(ctx, organizer, &domain.CreateServiceRequestRequest{
		EventID:         event.ID,
		ProviderID:      provider.UserID,
		ServiceCategory: domain.CategoryCatering,
		Amount:          testutil.FloatPtr(20000),
	})
	require.NoError(t, err)

	// The provider holds the turn on a pending request, but there is no
	// proposal on the table yet to accept
	_, err = fx.negotiation.AcceptOffer(ctx, provider, created.ID, &domain.AcceptOfferRequest{})
	assert.ErrorIs(t, err, service.ErrInvalidTransition)

	reloaded, err := fx.offerSvc.GetOffer(ctx, provider, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OfferStatusPending, reloaded.Status)
	assert.Nil(t, reloaded.FinalAmount)

	// A quote makes the offer acceptable
	_, err = fx.negotiation.SubmitQuote(ctx, provider, created.ID, &domain.SubmitQuoteRequest{Amount: 21000})
	require.NoError(t, err)
	accepted, err := fx.negotiation.AcceptOffer(ctx, organizer, created.ID, &domain.AcceptOfferRequest{})
	require.NoError(t, err)
	assert.Equal(t, domain.OfferStatusAccepted, accepted.Status)
}

func TestQuoteOnlyFromPending(t *testing.T) {
	fx := setupNegotiation(t)
	ctx := context.Background()

	provider := providerCtx("prov-1")
	event := testutil.CreateTestEvent(t, fx.db, "org-1", "Gala")
	offer := testutil.CreateTestOffer(t, fx.db, event.ID,
		testutil.WithStatus(domain.OfferStatusCounterOffered))
	counterBy := domain.PartyOrganizer
	require.NoError(t, fx.db.Model(offer).Update("counter_by", counterBy).Error)

	_, err := fx.negotiation.SubmitQuote(ctx, provider, offer.ID, &domain.SubmitQuoteRequest{Amount: 100})
	assert.ErrorIs(t, err, service.ErrInvalidTransition)
}

func TestTerminalOffersRefuseActions(t *testing.T) {
	fx := setupNegotiation(t)
	ctx := context.Background()

	organizer := organizerCtx("org-1")
	provider := providerCtx("prov-1")
	event := testutil.CreateTestEvent(t, fx.db, organizer.UserID, "Gala")

	created, err := fx.offerSvc.CreateServiceRequest(ctx, organizer, &domain.CreateServiceRequestRequest{
		EventID:         event.ID,
		ProviderID:      provider.UserID,
		ServiceCategory: domain.CategoryVenue,
		Amount:          testutil.FloatPtr(8000),
	})
	require.NoError(t, err)

	_, err = fx.negotiation.RejectOffer(ctx, provider, created.ID, &domain.RejectOfferRequest{Reason: "fully booked"})
	require.NoError(t, err)

	// Rejected is terminal; AwaitingAction is nobody, so the turn check fires
	_, err = fx.negotiation.SubmitQuote(ctx, provider, created.ID, &domain.SubmitQuoteRequest{Amount: 100})
	assert.ErrorIs(t, err, service.ErrNotYourTurn)

	_, err = fx.negotiation.CancelOffer(ctx, organizer, created.ID, &domain.CancelOfferRequest{})
	assert.ErrorIs(t, err, service.ErrInvalidTransition)
}

func TestOptimisticConcurrency(t *testing.T) {
	fx := setupNegotiation(t)
	ctx := context.Background()

	organizer := organizerCtx("org-1")
	provider := providerCtx("prov-1")
	event := testutil.CreateTestEvent(t, fx.db, organizer.UserID, "Gala")

	created, err := fx.offerSvc.CreateServiceRequest(ctx, organizer, &domain.CreateServiceRequestRequest{
		EventID:         event.ID,
		ProviderID:      provider.UserID,
		ServiceCategory: domain.CategoryTechnical,
	})
	require.NoError(t, err)

	quoted, err := fx.negotiation.SubmitQuote(ctx, provider, created.ID, &domain.SubmitQuoteRequest{Amount: 3000})
	require.NoError(t, err)

	// A client still holding the pre-quote version loses the race
	staleVersion := created.Version
	_, err = fx.negotiation.CounterOffer(ctx, organizer, created.ID, &domain.CounterOfferRequest{
		Amount:          2500,
		ExpectedVersion: &staleVersion,
	})
	assert.ErrorIs(t, err, service.ErrStaleWrite)

	// Pinning the current version succeeds
	_, err = fx.negotiation.CounterOffer(ctx, organizer, created.ID, &domain.CounterOfferRequest{
		Amount:          2500,
		ExpectedVersion: &quoted.Version,
	})
	assert.NoError(t, err)
}

func TestOverdueOfferRefusesActions(t *testing.T) {
	fx := setupNegotiation(t)
	ctx := context.Background()

	provider := providerCtx("prov-1")
	event := testutil.CreateTestEvent(t, fx.db, "org-1", "Gala")
	offer := testutil.CreateTestOffer(t, fx.db, event.ID,
		testutil.WithValidUntil(time.Now().Add(-time.Hour)))

	_, err := fx.negotiation.SubmitQuote(ctx, provider, offer.ID, &domain.SubmitQuoteRequest{Amount: 100})
	assert.ErrorIs(t, err, service.ErrInvalidTransition)
}

func TestCancelOffer(t *testing.T) {
	fx := setupNegotiation(t)
	ctx := context.Background()

	organizer := organizerCtx("org-1")
	provider := providerCtx("prov-1")
	event := testutil.CreateTestEvent(t, fx.db, organizer.UserID, "Gala")

	t.Run("either participant may cancel out of turn", func(t *testing.T) {
		created, err := fx.offerSvc.CreateServiceRequest(ctx, organizer, &domain.CreateServiceRequestRequest{
			EventID:         event.ID,
			ProviderID:      provider.UserID,
			ServiceCategory: domain.CategoryTransport,
		})
		require.NoError(t, err)

		// Pending awaits the provider, yet the organizer may withdraw
		cancelled, err := fx.negotiation.CancelOffer(ctx, organizer, created.ID, &domain.CancelOfferRequest{
			Reason: "found another vendor",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.OfferStatusCancelled, cancelled.Status)
		assert.Equal(t, "found another vendor", cancelled.CancellationReason)
	})

	t.Run("accepted but unsigned offers can still be cancelled", func(t *testing.T) {
		offer := testutil.CreateTestOffer(t, fx.db, event.ID,
			testutil.WithParties(organizer.UserID, provider.UserID),
			testutil.Accepted(5000, time.Now(), domain.PartyOrganizer))

		cancelled, err := fx.negotiation.CancelOffer(ctx, provider, offer.ID, &domain.CancelOfferRequest{})
		require.NoError(t, err)
		assert.Equal(t, domain.OfferStatusCancelled, cancelled.Status)
	})

	t.Run("signatures do not block cancellation of an accepted offer", func(t *testing.T) {
		offer := testutil.CreateTestOffer(t, fx.db, event.ID,
			testutil.WithParties(organizer.UserID, provider.UserID),
			testutil.Accepted(5000, time.Now(), domain.PartyOrganizer),
			testutil.FullySigned(time.Now()))

		cancelled, err := fx.negotiation.CancelOffer(ctx, organizer, offer.ID, &domain.CancelOfferRequest{
			Reason: "event called off",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.OfferStatusCancelled, cancelled.Status)
	})

	t.Run("non-participants cannot cancel", func(t *testing.T) {
		offer := testutil.CreateTestOffer(t, fx.db, event.ID,
			testutil.WithParties(organizer.UserID, provider.UserID))

		_, err := fx.negotiation.CancelOffer(ctx, organizerCtx("org-other"), offer.ID, &domain.CancelOfferRequest{})
		assert.ErrorIs(t, err, service.ErrNotParticipant)
	})
}

func TestExpireOffer(t *testing.T) {
	fx := setupNegotiation(t)
	ctx := context.Background()

	event := testutil.CreateTestEvent(t, fx.db, "org-1", "Gala")

	t.Run("overdue offer expires", func(t *testing.T) {
		offer := testutil.CreateTestOffer(t, fx.db, event.ID,
			testutil.WithStatus(domain.OfferStatusQuoted),
			testutil.WithValidUntil(time.Now().Add(-time.Minute)))

		expired, err := fx.negotiation.ExpireOffer(ctx, offer.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OfferStatusExpired, expired.Status)
	})

	t.Run("offer still inside its window is not expirable", func(t *testing.T) {
		offer := testutil.CreateTestOffer(t, fx.db, event.ID,
			testutil.WithValidUntil(time.Now().Add(time.Hour)))

		_, err := fx.negotiation.ExpireOffer(ctx, offer.ID)
		assert.ErrorIs(t, err, service.ErrNotExpirable)
	})

	t.Run("terminal offer cannot expire", func(t *testing.T) {
		offer := testutil.CreateTestOffer(t, fx.db, event.ID,
			testutil.Accepted(100, time.Now(), domain.PartyProvider),
			testutil.WithValidUntil(time.Now().Add(-time.Hour)))

		_, err := fx.negotiation.ExpireOffer(ctx, offer.ID)
		assert.ErrorIs(t, err, service.ErrInvalidTransition)
	})
}
