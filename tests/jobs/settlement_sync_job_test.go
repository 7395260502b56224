package jobs_test

import (
	"context"
	"testing"
	"time"

	"github.com/stagelink/marketplace-api/internal/domain"
	"github.com/stagelink/marketplace-api/internal/jobs"
	"github.com/stagelink/marketplace-api/internal/repository"
	"github.com/stagelink/marketplace-api/tests/testutil"
	"go.uber.org/zap"
)

func TestSettlementSyncWithoutWarehouse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	offers := repository.NewOfferRepository(db)

	event := testutil.CreateTestEvent(t, db, "org-1", "Gala")
	testutil.CreateTestOffer(t, db, event.ID,
		testutil.Accepted(1000, time.Now(), domain.PartyOrganizer),
		testutil.FullySigned(time.Now()))

	// No warehouse configured: the sync is a quiet no-op
	sync := jobs.NewSettlementSyncJob(offers, nil, zap.NewNop())
	sync.Run(context.Background())
}
