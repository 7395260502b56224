package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stagelink/marketplace-api/internal/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens an in-memory sqlite database with the schema migrated
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to open test database")

	require.NoError(t, db.AutoMigrate(&domain.Event{}, &domain.Offer{}))
	return db
}

// CreateTestEvent inserts an event owned by the given organizer
func CreateTestEvent(t *testing.T, db *gorm.DB, organizerID, title string) *domain.Event {
	t.Helper()

	event := &domain.Event{
		Title:         title,
		OrganizerID:   organizerID,
		OrganizerName: "Organizer " + organizerID,
		Venue:         "Test Arena",
		City:          "Oslo",
		StartsAt:      time.Now().AddDate(0, 1, 0),
		Status:        domain.EventStatusPlanned,
	}
	require.NoError(t, db.Create(event).Error)
	return event
}

// OfferOption mutates an offer fixture before insert
type OfferOption func(*domain.Offer)

// CreateTestOffer inserts an offer with sensible defaults, customized by opts
func CreateTestOffer(t *testing.T, db *gorm.DB, eventID uuid.UUID, opts ...OfferOption) *domain.Offer {
	t.Helper()

	offer := &domain.Offer{
		EventID:         eventID,
		OrganizerID:     "org-1",
		OrganizerName:   "Organizer One",
		ProviderID:      "prov-1",
		ProviderName:    "Provider One",
		ServiceCategory: domain.CategoryTechnical,
		RequestType:     domain.RequestTypeRequest,
		Status:          domain.OfferStatusPending,
		Version:         1,
	}
	for _, opt := range opts {
		opt(offer)
	}
	require.NoError(t, db.Create(offer).Error)
	return offer
}

// WithStatus sets the offer status
func WithStatus(status domain.OfferStatus) OfferOption {
	return func(o *domain.Offer) { o.Status = status }
}

// WithParties sets both party ids
func WithParties(organizerID, providerID string) OfferOption {
	return func(o *domain.Offer) {
		o.OrganizerID = organizerID
		o.ProviderID = providerID
	}
}

// WithProvider sets the provider id and name
func WithProvider(id, name string) OfferOption {
	return func(o *domain.Offer) {
		o.ProviderID = id
		o.ProviderName = name
	}
}

// WithCategory sets the service category
func WithCategory(c domain.ServiceCategory) OfferOption {
	return func(o *domain.Offer) { o.ServiceCategory = c }
}

// WithAmount sets the initial asking amount
func WithAmount(v float64) OfferOption {
	return func(o *domain.Offer) { o.Amount = &v }
}

// WithValidUntil sets the validity deadline
func WithValidUntil(deadline time.Time) OfferOption {
	return func(o *domain.Offer) { o.ValidUntil = &deadline }
}

// Accepted marks the offer accepted with the given final amount and time
func Accepted(finalAmount float64, acceptedAt time.Time, by domain.Party) OfferOption {
	return func(o *domain.Offer) {
		o.Status = domain.OfferStatusAccepted
		o.FinalAmount = &finalAmount
		o.AcceptedAt = &acceptedAt
		o.AcceptedBy = &by
	}
}

// FullySigned marks the contract signed by both parties
func FullySigned(at time.Time) OfferOption {
	return func(o *domain.Offer) {
		o.ContractSignedByOrganizer = true
		o.ContractSignedByProvider = true
		o.ContractSigned = true
		o.ContractSignedAt = &at
	}
}

// FloatPtr returns a pointer to the given float
func FloatPtr(v float64) *float64 { return &v }

// Int64Ptr returns a pointer to the given int64
func Int64Ptr(v int64) *int64 { return &v }
