package domain

import (
	"time"

	"github.com/google/uuid"
)

// OfferDTO is the API representation of an Offer
type OfferDTO struct {
	ID              uuid.UUID       `json:"id"`
	EventID         uuid.UUID       `json:"eventId"`
	OrganizerID     string          `json:"organizerId"`
	OrganizerName   string          `json:"organizerName,omitempty"`
	ProviderID      string          `json:"providerId"`
	ProviderName    string          `json:"providerName,omitempty"`
	ServiceCategory ServiceCategory `json:"serviceCategory"`
	RequestType     RequestType     `json:"requestType"`
	Status          OfferStatus     `json:"status"`
	Description     string          `json:"description,omitempty"`

	Amount        *float64   `json:"amount,omitempty"`
	CounterAmount *float64   `json:"counterAmount,omitempty"`
	CounterBy     *Party     `json:"counterBy,omitempty"`
	CounterAt     *time.Time `json:"counterAt,omitempty"`
	FinalAmount   *float64   `json:"finalAmount,omitempty"`
	AcceptedBy    *Party     `json:"acceptedBy,omitempty"`
	AcceptedAt    *time.Time `json:"acceptedAt,omitempty"`

	RejectedBy         *Party     `json:"rejectedBy,omitempty"`
	RejectedAt         *time.Time `json:"rejectedAt,omitempty"`
	RejectionReason    string     `json:"rejectionReason,omitempty"`
	CancelledBy        *Party     `json:"cancelledBy,omitempty"`
	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`
	CancellationReason string     `json:"cancellationReason,omitempty"`

	ValidUntil *time.Time `json:"validUntil,omitempty"`

	ContractSignedByOrganizer bool       `json:"contractSignedByOrganizer"`
	ContractSignedByProvider  bool       `json:"contractSignedByProvider"`
	ContractSigned            bool       `json:"contractSigned"`
	ContractSignedAt          *time.Time `json:"contractSignedAt,omitempty"`

	// Derived, never stored
	EffectiveAmount float64 `json:"effectiveAmount"`
	AwaitingAction  Party   `json:"awaitingAction"`

	History []OfferHistoryEntry `json:"offerHistory,omitempty"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Event *EventDTO `json:"event,omitempty"`
}

// EventDTO is the API representation of an Event
type EventDTO struct {
	ID            uuid.UUID   `json:"id"`
	Title         string      `json:"title"`
	OrganizerID   string      `json:"organizerId"`
	OrganizerName string      `json:"organizerName,omitempty"`
	Venue         string      `json:"venue,omitempty"`
	City          string      `json:"city,omitempty"`
	StartsAt      time.Time   `json:"startsAt"`
	EndsAt        *time.Time  `json:"endsAt,omitempty"`
	Status        EventStatus `json:"status"`
	Description   string      `json:"description,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// CreateEventRequest creates a new event
type CreateEventRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Venue       string     `json:"venue" validate:"max=200"`
	City        string     `json:"city" validate:"max=100"`
	StartsAt    time.Time  `json:"startsAt" validate:"required"`
	EndsAt      *time.Time `json:"endsAt,omitempty"`
	Description string     `json:"description" validate:"max=2000"`
}

// CreateServiceRequestRequest opens a negotiation organizer-first:
// the organizer asks a provider for a service (requestType=request)
type CreateServiceRequestRequest struct {
	EventID         uuid.UUID       `json:"eventId" validate:"required"`
	ProviderID      string          `json:"providerId" validate:"required,max=100"`
	ProviderName    string          `json:"providerName" validate:"max=200"`
	ServiceCategory ServiceCategory `json:"serviceCategory" validate:"required"`
	Amount          *float64        `json:"amount,omitempty" validate:"omitempty,gt=0"`
	Description     string          `json:"description" validate:"max=2000"`
	ValidUntil      *time.Time      `json:"validUntil,omitempty"`
}

// CreateProviderOfferRequest opens a negotiation provider-first:
// the provider proposes a service proactively (requestType=offer)
type CreateProviderOfferRequest struct {
	EventID         uuid.UUID       `json:"eventId" validate:"required"`
	OrganizerID     string          `json:"organizerId" validate:"required,max=100"`
	OrganizerName   string          `json:"organizerName" validate:"max=200"`
	ServiceCategory ServiceCategory `json:"serviceCategory" validate:"required"`
	Amount          *float64        `json:"amount,omitempty" validate:"omitempty,gt=0"`
	Description     string          `json:"description" validate:"max=2000"`
	ValidUntil      *time.Time      `json:"validUntil,omitempty"`
}

// SubmitQuoteRequest answers a pending service request with a price
type SubmitQuoteRequest struct {
	Amount          float64 `json:"amount" validate:"required,gt=0"`
	Message         string  `json:"message" validate:"max=1000"`
	ExpectedVersion *int64  `json:"expectedVersion,omitempty"`
}

// CounterOfferRequest proposes a revised price, flipping the turn
type CounterOfferRequest struct {
	Amount          float64 `json:"amount" validate:"required,gt=0"`
	Message         string  `json:"message" validate:"max=1000"`
	ExpectedVersion *int64  `json:"expectedVersion,omitempty"`
}

// AcceptOfferRequest accepts the amount currently on the table
type AcceptOfferRequest struct {
	Message         string `json:"message" validate:"max=1000"`
	ExpectedVersion *int64 `json:"expectedVersion,omitempty"`
}

// RejectOfferRequest declines the negotiation with an optional reason
type RejectOfferRequest struct {
	Reason          string `json:"reason" validate:"max=500"`
	ExpectedVersion *int64 `json:"expectedVersion,omitempty"`
}

// CancelOfferRequest withdraws from the negotiation
type CancelOfferRequest struct {
	Reason          string `json:"reason" validate:"max=500"`
	ExpectedVersion *int64 `json:"expectedVersion,omitempty"`
}

// DashboardStats is the role-scoped dashboard read model. It is a pure
// function of the viewer's offer set, recomputed in full on demand.
type DashboardStats struct {
	Role                  Party   `json:"role"`
	TotalOffers           int     `json:"totalOffers"`
	ActiveOffers          int     `json:"activeOffers"`
	AcceptedOffers        int     `json:"acceptedOffers"`
	AwaitingMyAction      int     `json:"awaitingMyAction"`
	TotalAmount           float64 `json:"totalAmount"`
	AveragePerOffer       float64 `json:"averagePerOffer"`
	DistinctCounterparts  int     `json:"distinctCounterparts"`
	FullySignedContracts  int     `json:"fullySignedContracts"`
	AwaitingMySignature   int     `json:"awaitingMySignature"`
	PendingPaymentAmount  float64 `json:"pendingPaymentAmount"`
}

// MonthlyTotal is one bucket of the 6-month rolling series. Months with
// no accepted offers are absent, not zero entries.
type MonthlyTotal struct {
	Month string  `json:"month"` // YYYY-MM
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

// CategoryBreakdown is one slice of the per-category totals. Percent is
// rounded to a whole percent at build time, never before summation.
type CategoryBreakdown struct {
	Category ServiceCategory `json:"category"`
	Total    float64         `json:"total"`
	Count    int             `json:"count"`
	Percent  int             `json:"percent"`
}

// LeaderboardEntry is one counterparty ranked by accepted total
type LeaderboardEntry struct {
	PartyID string  `json:"partyId"`
	Name    string  `json:"name,omitempty"`
	Total   float64 `json:"total"`
	Jobs    int     `json:"jobs"`
}

// FinancialSummary is the role-scoped financial read model
type FinancialSummary struct {
	Role                 Party               `json:"role"`
	TotalAmount          float64             `json:"totalAmount"`
	AcceptedOffers       int                 `json:"acceptedOffers"`
	AveragePerOffer      float64             `json:"averagePerOffer"`
	Monthly              []MonthlyTotal      `json:"monthly"`
	Categories           []CategoryBreakdown `json:"categories"`
	PendingPaymentAmount float64             `json:"pendingPaymentAmount"`
	PendingContracts     int                 `json:"pendingContracts"`
}

// OrganizerAnalytics is the organizer-side analytics read model
type OrganizerAnalytics struct {
	TotalSpend        float64             `json:"totalSpend"`
	AcceptedOffers    int                 `json:"acceptedOffers"`
	AveragePerOffer   float64             `json:"averagePerOffer"`
	DistinctProviders int                 `json:"distinctProviders"`
	Monthly           []MonthlyTotal      `json:"monthly"`
	Categories        []CategoryBreakdown `json:"categories"`
	TopProviders      []LeaderboardEntry  `json:"topProviders"`
}

// ProviderAnalytics is the provider-side analytics read model
type ProviderAnalytics struct {
	TotalRevenue    float64             `json:"totalRevenue"`
	AcceptedOffers  int                 `json:"acceptedOffers"`
	AveragePerOffer float64             `json:"averagePerOffer"`
	DistinctClients int                 `json:"distinctClients"`
	Monthly         []MonthlyTotal      `json:"monthly"`
	Categories      []CategoryBreakdown `json:"categories"`
	TopClients      []LeaderboardEntry  `json:"topClients"`
}

// UserContract projects an accepted offer together with its event and the
// viewer's signature obligations
type UserContract struct {
	Offer            OfferDTO  `json:"offer"`
	Event            *EventDTO `json:"event,omitempty"`
	NeedsMySignature bool      `json:"needsMySignature"`
	FullySigned      bool      `json:"fullySigned"`
}

// OfferListResponse wraps a role-scoped offer listing
type OfferListResponse struct {
	Offers []OfferDTO `json:"offers"`
	Total  int        `json:"total"`
}

// ErrorResponse documents the error payload shape for swagger
type ErrorResponse struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}
