package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stagelink/marketplace-api/internal/domain"
	"github.com/stagelink/marketplace-api/internal/repository"
	"github.com/stagelink/marketplace-api/internal/service"
	"github.com/stagelink/marketplace-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEventService(t *testing.T) {
	db := testutil.SetupTestDB(t)
	events := service.NewEventService(repository.NewEventRepository(db), zap.NewNop())
	ctx := context.Background()

	organizer := organizerCtx("org-1")

	t.Run("create and fetch", func(t *testing.T) {
		created, err := events.CreateEvent(ctx, organizer, &domain.CreateEventRequest{
			Title:    "Midsummer Concert",
			Venue:    "Frognerparken",
			City:     "Oslo",
			StartsAt: time.Now().AddDate(0, 2, 0),
		})
		require.NoError(t, err)
		assert.Equal(t, domain.EventStatusPlanned, created.Status)
		assert.Equal(t, organizer.UserID, created.OrganizerID)

		fetched, err := events.GetEvent(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Midsummer Concert", fetched.Title)

		// Providers may read events too
		_, err = events.GetEvent(ctx, created.ID)
		assert.NoError(t, err)
	})

	t.Run("providers cannot create events", func(t *testing.T) {
		_, err := events.CreateEvent(ctx, providerCtx("prov-1"), &domain.CreateEventRequest{
			Title:    "Rogue Event",
			StartsAt: time.Now(),
		})
		assert.ErrorIs(t, err, service.ErrWrongRole)
	})

	t.Run("listing is scoped to the owner and ordered by start", func(t *testing.T) {
		later, err := events.CreateEvent(ctx, organizer, &domain.CreateEventRequest{
			Title:    "Winter Market",
			StartsAt: time.Now().AddDate(0, 6, 0),
		})
		require.NoError(t, err)

		_, err = events.CreateEvent(ctx, organizerCtx("org-2"), &domain.CreateEventRequest{
			Title:    "Someone Else's Party",
			StartsAt: time.Now(),
		})
		require.NoError(t, err)

		mine, err := events.ListMyEvents(ctx, organizer)
		require.NoError(t, err)
		require.Len(t, mine, 2)
		assert.Equal(t, "Midsummer Concert", mine[0].Title)
		assert.Equal(t, later.ID, mine[1].ID)
	})

	t.Run("unknown event", func(t *testing.T) {
		_, err := events.GetEvent(ctx, uuid.New())
		assert.ErrorIs(t, err, service.ErrEventNotFound)
	})
}
