package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stagelink/marketplace-api/internal/domain"
	"github.com/stagelink/marketplace-api/internal/repository"
	"github.com/stagelink/marketplace-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestOfferRepositoryCreate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewOfferRepository(db)
	ctx := context.Background()

	event := testutil.CreateTestEvent(t, db, "org-1", "Summer Festival")

	offer := &domain.Offer{
		EventID:         event.ID,
		OrganizerID:     "org-1",
		ProviderID:      "prov-1",
		ServiceCategory: domain.CategoryCatering,
		RequestType:     domain.RequestTypeRequest,
		Status:          domain.OfferStatusPending,
	}
	require.NoError(t, repo.Create(ctx, offer))

	assert.NotEqual(t, uuid.Nil, offer.ID)
	assert.Equal(t, int64(1), offer.Version)

	fetched, err := repo.GetByID(ctx, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OfferStatusPending, fetched.Status)
	require.NotNil(t, fetched.Event)
	assert.Equal(t, "Summer Festival", fetched.Event.Title)
}

func TestOfferRepositoryListByParty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewOfferRepository(db)
	ctx := context.Background()

	event := testutil.CreateTestEvent(t, db, "org-1", "Conference")
	testutil.CreateTestOffer(t, db, event.ID, testutil.WithParties("org-1", "prov-1"))
	testutil.CreateTestOffer(t, db, event.ID, testutil.WithParties("org-1", "prov-2"))
	testutil.CreateTestOffer(t, db, event.ID, testutil.WithParties("org-2", "prov-1"))

	asOrganizer, err := repo.ListByParty(ctx, domain.PartyOrganizer, "org-1")
	require.NoError(t, err)
	assert.Len(t, asOrganizer, 2)

	asProvider, err := repo.ListByParty(ctx, domain.PartyProvider, "prov-1")
	require.NoError(t, err)
	assert.Len(t, asProvider, 2)

	// An id that plays organizer elsewhere never leaks into a provider listing
	crossed, err := repo.ListByParty(ctx, domain.PartyProvider, "org-1")
	require.NoError(t, err)
	assert.Empty(t, crossed)

	_, err = repo.ListByParty(ctx, domain.PartyNone, "org-1")
	assert.Error(t, err)
}

func TestOfferRepositoryListExpirable(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewOfferRepository(db)
	ctx := context.Background()
	now := time.Now()

	event := testutil.CreateTestEvent(t, db, "org-1", "Gala")
	overdue := testutil.CreateTestOffer(t, db, event.ID,
		testutil.WithStatus(domain.OfferStatusQuoted),
		testutil.WithValidUntil(now.Add(-time.Hour)))
	testutil.CreateTestOffer(t, db, event.ID,
		testutil.WithStatus(domain.OfferStatusQuoted),
		testutil.WithValidUntil(now.Add(time.Hour)))
	testutil.CreateTestOffer(t, db, event.ID,
		testutil.WithStatus(domain.OfferStatusRejected),
		testutil.WithValidUntil(now.Add(-time.Hour)))
	testutil.CreateTestOffer(t, db, event.ID,
		testutil.WithStatus(domain.OfferStatusPending))

	expirable, err := repo.ListExpirable(ctx, now)
	require.NoError(t, err)
	require.Len(t, expirable, 1)
	assert.Equal(t, overdue.ID, expirable[0].ID)
}

func TestOfferRepositoryListSettled(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewOfferRepository(db)
	ctx := context.Background()
	now := time.Now()

	event := testutil.CreateTestEvent(t, db, "org-1", "Gala")
	signed := testutil.CreateTestOffer(t, db, event.ID,
		testutil.Accepted(5000, now, domain.PartyOrganizer),
		testutil.FullySigned(now))
	testutil.CreateTestOffer(t, db, event.ID,
		testutil.Accepted(3000, now, domain.PartyOrganizer))

	settled, err := repo.ListSettled(ctx)
	require.NoError(t, err)
	require.Len(t, settled, 1)
	assert.Equal(t, signed.ID, settled[0].ID)
}

func TestPatchVersioned(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewOfferRepository(db)
	ctx := context.Background()

	event := testutil.CreateTestEvent(t, db, "org-1", "Wedding")
	offer := testutil.CreateTestOffer(t, db, event.ID)

	t.Run("matching version applies the patch and bumps the version", func(t *testing.T) {
		updated, err := repo.PatchVersioned(ctx, offer.ID, 1, map[string]interface{}{
			"status": domain.OfferStatusQuoted,
			"amount": 1500.0,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.OfferStatusQuoted, updated.Status)
		require.NotNil(t, updated.Amount)
		assert.Equal(t, 1500.0, *updated.Amount)
		assert.Equal(t, int64(2), updated.Version)
	})

	t.Run("stale version is rejected without touching the row", func(t *testing.T) {
		_, err := repo.PatchVersioned(ctx, offer.ID, 1, map[string]interface{}{
			"status": domain.OfferStatusRejected,
		})
		assert.ErrorIs(t, err, repository.ErrStaleVersion)

		current, err := repo.GetByID(ctx, offer.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OfferStatusQuoted, current.Status)
		assert.Equal(t, int64(2), current.Version)
	})

	t.Run("unknown offer id reports not found, not stale", func(t *testing.T) {
		_, err := repo.PatchVersioned(ctx, uuid.New(), 1, map[string]interface{}{
			"status": domain.OfferStatusQuoted,
		})
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestWatchHub(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewOfferRepository(db)
	ctx := context.Background()

	event := testutil.CreateTestEvent(t, db, "org-1", "Launch Party")
	testutil.CreateTestOffer(t, db, event.ID, testutil.WithParties("org-1", "prov-1"))

	ch, cancel, err := repo.Watch().Subscribe(ctx, domain.PartyProvider, "prov-1")
	require.NoError(t, err)
	defer cancel()

	// The initial snapshot is delivered without any write happening
	select {
	case snapshot := <-ch:
		assert.Len(t, snapshot, 1)
	case <-time.After(time.Second):
		t.Fatal("expected initial snapshot")
	}

	// A write on the watched side produces a fresh snapshot
	second := &domain.Offer{
		EventID:         event.ID,
		OrganizerID:     "org-2",
		ProviderID:      "prov-1",
		ServiceCategory: domain.CategorySecurity,
		RequestType:     domain.RequestTypeRequest,
		Status:          domain.OfferStatusPending,
	}
	require.NoError(t, repo.Create(ctx, second))

	select {
	case snapshot := <-ch:
		assert.Len(t, snapshot, 2)
	case <-time.After(time.Second):
		t.Fatal("expected snapshot after create")
	}

	// A write for an unrelated provider does not wake this subscriber
	unrelated := &domain.Offer{
		EventID:         event.ID,
		OrganizerID:     "org-1",
		ProviderID:      "prov-other",
		ServiceCategory: domain.CategoryVenue,
		RequestType:     domain.RequestTypeRequest,
		Status:          domain.OfferStatusPending,
	}
	require.NoError(t, repo.Create(ctx, unrelated))

	select {
	case <-ch:
		t.Fatal("unexpected snapshot for unrelated offer")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWatchHubLatestWins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewOfferRepository(db)
	ctx := context.Background()

	event := testutil.CreateTestEvent(t, db, "org-1", "Award Show")

	ch, cancel, err := repo.Watch().Subscribe(ctx, domain.PartyOrganizer, "org-1")
	require.NoError(t, err)
	defer cancel()

	// Several writes while the consumer is idle collapse to one snapshot
	for i := 0; i < 3; i++ {
		offer := &domain.Offer{
			EventID:         event.ID,
			OrganizerID:     "org-1",
			ProviderID:      "prov-1",
			ServiceCategory: domain.CategoryTechnical,
			RequestType:     domain.RequestTypeRequest,
			Status:          domain.OfferStatusPending,
		}
		require.NoError(t, repo.Create(ctx, offer))
	}

	select {
	case snapshot := <-ch:
		assert.Len(t, snapshot, 3)
	case <-time.After(time.Second):
		t.Fatal("expected a snapshot")
	}
}
