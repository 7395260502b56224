package jobs_test

import (
	"context"
	"testing"
	"time"

	"github.com/stagelink/marketplace-api/internal/domain"
	"github.com/stagelink/marketplace-api/internal/jobs"
	"github.com/stagelink/marketplace-api/internal/repository"
	"github.com/stagelink/marketplace-api/internal/service"
	"github.com/stagelink/marketplace-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestExpirySweep(t *testing.T) {
	db := testutil.SetupTestDB(t)
	offers := repository.NewOfferRepository(db)
	negotiation := service.NewNegotiationService(offers, zap.NewNop())
	sweep := jobs.NewExpiryJob(offers, negotiation, zap.NewNop())
	ctx := context.Background()
	now := time.Now()

	event := testutil.CreateTestEvent(t, db, "org-1", "Gala")

	overduePending := testutil.CreateTestOffer(t, db, event.ID,
		testutil.WithValidUntil(now.Add(-time.Hour)))
	overdueQuoted := testutil.CreateTestOffer(t, db, event.ID,
		testutil.WithStatus(domain.OfferStatusQuoted),
		testutil.WithValidUntil(now.Add(-time.Minute)))
	stillValid := testutil.CreateTestOffer(t, db, event.ID,
		testutil.WithValidUntil(now.Add(time.Hour)))
	alreadyAccepted := testutil.CreateTestOffer(t, db, event.ID,
		testutil.Accepted(1000, now, domain.PartyOrganizer),
		testutil.WithValidUntil(now.Add(-time.Hour)))

	sweep.Run(ctx)

	expectStatus := func(id string, want domain.OfferStatus) {
		var offer domain.Offer
		require.NoError(t, db.First(&offer, "id = ?", id).Error)
		assert.Equal(t, want, offer.Status, "offer %s", id)
	}

	expectStatus(overduePending.ID.String(), domain.OfferStatusExpired)
	expectStatus(overdueQuoted.ID.String(), domain.OfferStatusExpired)
	expectStatus(stillValid.ID.String(), domain.OfferStatusPending)
	expectStatus(alreadyAccepted.ID.String(), domain.OfferStatusAccepted)

	// The sweep bumps the version like any other sanctioned write
	var swept domain.Offer
	require.NoError(t, db.First(&swept, "id = ?", overduePending.ID).Error)
	assert.Equal(t, int64(2), swept.Version)

	// A second run finds nothing left to do
	sweep.Run(ctx)
	expectStatus(overduePending.ID.String(), domain.OfferStatusExpired)
}
