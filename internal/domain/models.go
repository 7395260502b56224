package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns an ID when the database doesn't
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Party identifies one side of a negotiation
type Party string

const (
	PartyOrganizer Party = "organizer"
	PartyProvider  Party = "provider"

	// PartyNone is returned by AwaitingAction for terminal offers.
	// It is not a valid actor.
	PartyNone Party = "none"
)

// IsValid checks if the Party is a valid actor
func (p Party) IsValid() bool {
	return p == PartyOrganizer || p == PartyProvider
}

// Other returns the opposite party
func (p Party) Other() Party {
	switch p {
	case PartyOrganizer:
		return PartyProvider
	case PartyProvider:
		return PartyOrganizer
	}
	return PartyNone
}

// RequestType indicates which party opened the negotiation
type RequestType string

const (
	// RequestTypeRequest - the organizer asked for a service first
	RequestTypeRequest RequestType = "request"
	// RequestTypeOffer - the provider proposed proactively
	RequestTypeOffer RequestType = "offer"
)

// IsValid checks if the RequestType is a valid enum value
func (rt RequestType) IsValid() bool {
	return rt == RequestTypeRequest || rt == RequestTypeOffer
}

// OfferStatus represents the negotiation status of an offer
type OfferStatus string

const (
	OfferStatusPending        OfferStatus = "pending"
	OfferStatusQuoted         OfferStatus = "quoted"
	OfferStatusCounterOffered OfferStatus = "counter_offered"
	OfferStatusAccepted       OfferStatus = "accepted"
	OfferStatusRejected       OfferStatus = "rejected"
	OfferStatusExpired        OfferStatus = "expired"
	OfferStatusCancelled      OfferStatus = "cancelled"
)

// IsValid checks if the OfferStatus is a valid enum value
func (s OfferStatus) IsValid() bool {
	switch s {
	case OfferStatusPending, OfferStatusQuoted, OfferStatusCounterOffered,
		OfferStatusAccepted, OfferStatusRejected, OfferStatusExpired, OfferStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further negotiation action is possible
func (s OfferStatus) IsTerminal() bool {
	switch s {
	case OfferStatusAccepted, OfferStatusRejected, OfferStatusExpired, OfferStatusCancelled:
		return true
	}
	return false
}

// ServiceCategory classifies the service being negotiated
type ServiceCategory string

const (
	CategoryBooking     ServiceCategory = "booking"
	CategoryTechnical   ServiceCategory = "technical"
	CategoryCatering    ServiceCategory = "catering"
	CategorySecurity    ServiceCategory = "security"
	CategoryTransport   ServiceCategory = "transport"
	CategoryVenue       ServiceCategory = "venue"
	CategoryDecoration  ServiceCategory = "decoration"
	CategoryPhotography ServiceCategory = "photography"
	CategoryOther       ServiceCategory = "other"
)

// IsValid checks if the ServiceCategory is a valid enum value
func (c ServiceCategory) IsValid() bool {
	switch c {
	case CategoryBooking, CategoryTechnical, CategoryCatering, CategorySecurity,
		CategoryTransport, CategoryVenue, CategoryDecoration, CategoryPhotography, CategoryOther:
		return true
	}
	return false
}

// HistoryEntryType classifies a negotiation history entry
type HistoryEntryType string

const (
	HistoryEntryQuote    HistoryEntryType = "quote"
	HistoryEntryCounter  HistoryEntryType = "counter"
	HistoryEntryAccepted HistoryEntryType = "accepted"
	HistoryEntryRejected HistoryEntryType = "rejected"
)

// OfferHistoryEntry is one step of the negotiation replay.
// Entries are append-only: never mutated, removed, or reordered.
type OfferHistoryEntry struct {
	Type      HistoryEntryType `json:"type"`
	By        Party            `json:"by"`
	Amount    *float64         `json:"amount,omitempty"`
	Message   string           `json:"message,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Offer is one service-category negotiation between an organizer and a
// provider, scoped to one event. All mutation goes through the negotiation
// service; direct field edits bypass the state machine's invariants.
type Offer struct {
	BaseModel
	EventID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	Event           *Event          `gorm:"foreignKey:EventID"`
	OrganizerID     string          `gorm:"type:varchar(100);not null;index"`
	OrganizerName   string          `gorm:"type:varchar(200)"`
	ProviderID      string          `gorm:"type:varchar(100);not null;index"`
	ProviderName    string          `gorm:"type:varchar(200)"`
	ServiceCategory ServiceCategory `gorm:"type:varchar(50);not null;index"`
	RequestType     RequestType     `gorm:"type:varchar(20);not null;column:request_type"`
	Status          OfferStatus     `gorm:"type:varchar(50);not null;default:'pending';index"`
	Description     string          `gorm:"type:text"`

	// Pricing fields, layered: finalAmount wins over counterAmount wins
	// over amount. Resolve through EffectiveAmount, never directly.
	Amount        *float64   `gorm:"type:decimal(15,2)"`
	CounterAmount *float64   `gorm:"type:decimal(15,2);column:counter_amount"`
	CounterBy     *Party     `gorm:"type:varchar(20);column:counter_by"`
	CounterAt     *time.Time `gorm:"column:counter_at"`
	FinalAmount   *float64   `gorm:"type:decimal(15,2);column:final_amount"`
	AcceptedBy    *Party     `gorm:"type:varchar(20);column:accepted_by"`
	AcceptedAt    *time.Time `gorm:"column:accepted_at"`

	RejectedBy         *Party     `gorm:"type:varchar(20);column:rejected_by"`
	RejectedAt         *time.Time `gorm:"column:rejected_at"`
	RejectionReason    string     `gorm:"type:varchar(500);column:rejection_reason"`
	CancelledBy        *Party     `gorm:"type:varchar(20);column:cancelled_by"`
	CancelledAt        *time.Time `gorm:"column:cancelled_at"`
	CancellationReason string     `gorm:"type:varchar(500);column:cancellation_reason"`

	ValidUntil *time.Time `gorm:"column:valid_until"`

	// Contract signature gate. ContractSigned is the AND of the two
	// per-party flags, persisted redundantly for query convenience.
	ContractSignedByOrganizer bool       `gorm:"not null;default:false;column:contract_signed_by_organizer"`
	ContractSignedByProvider  bool       `gorm:"not null;default:false;column:contract_signed_by_provider"`
	ContractSigned            bool       `gorm:"not null;default:false;column:contract_signed;index"`
	ContractSignedAt          *time.Time `gorm:"column:contract_signed_at"`

	// History is the serialized append-only []OfferHistoryEntry
	History string `gorm:"type:jsonb;column:offer_history"`

	// Version increments on every sanctioned write; all state-machine
	// writes are conditional on it (optimistic concurrency)
	Version int64 `gorm:"not null;default:0"`
}

// EffectiveAmount resolves the single authoritative amount of the offer.
// Resolution is strictly first-match-wins: finalAmount, counterAmount,
// amount, 0. Every place money is displayed or summed uses this.
func (o *Offer) EffectiveAmount() float64 {
	switch {
	case o.FinalAmount != nil:
		return *o.FinalAmount
	case o.CounterAmount != nil:
		return *o.CounterAmount
	case o.Amount != nil:
		return *o.Amount
	}
	return 0
}

// AwaitingAction determines which party owes the next action.
// Terminal offers await nobody.
func (o *Offer) AwaitingAction() Party {
	if o.Status.IsTerminal() {
		return PartyNone
	}
	switch o.Status {
	case OfferStatusPending:
		// The party who did not open the negotiation owes the first response
		if o.RequestType == RequestTypeRequest {
			return PartyProvider
		}
		return PartyOrganizer
	case OfferStatusQuoted:
		return PartyOrganizer
	case OfferStatusCounterOffered:
		if o.CounterBy != nil {
			return o.CounterBy.Other()
		}
		return PartyNone
	}
	return PartyNone
}

// IsOverdue reports whether a non-terminal offer has passed its deadline
func (o *Offer) IsOverdue(now time.Time) bool {
	return !o.Status.IsTerminal() && o.ValidUntil != nil && now.After(*o.ValidUntil)
}

// StatusAt returns the status accounting for lazy expiry: a non-terminal
// offer past validUntil reads as expired even before the sweep persists it.
func (o *Offer) StatusAt(now time.Time) OfferStatus {
	if o.IsOverdue(now) {
		return OfferStatusExpired
	}
	return o.Status
}

// PartyID returns the user id of the given side
func (o *Offer) PartyID(p Party) string {
	if p == PartyOrganizer {
		return o.OrganizerID
	}
	return o.ProviderID
}

// PartyName returns the display name of the given side
func (o *Offer) PartyName(p Party) string {
	if p == PartyOrganizer {
		return o.OrganizerName
	}
	return o.ProviderName
}

// IsParticipant reports whether the user is one of the two parties
func (o *Offer) IsParticipant(userID string) bool {
	return o.OrganizerID == userID || o.ProviderID == userID
}

// RoleOf returns the side a user plays on this offer, or PartyNone
func (o *Offer) RoleOf(userID string) Party {
	switch userID {
	case o.OrganizerID:
		return PartyOrganizer
	case o.ProviderID:
		return PartyProvider
	}
	return PartyNone
}

// SignedBy reports whether the given party has signed the contract
func (o *Offer) SignedBy(p Party) bool {
	if p == PartyOrganizer {
		return o.ContractSignedByOrganizer
	}
	return o.ContractSignedByProvider
}

// NeedsSignatureFrom reports whether an accepted offer still awaits the
// given party's signature
func (o *Offer) NeedsSignatureFrom(p Party) bool {
	return o.Status == OfferStatusAccepted && !o.ContractSigned && !o.SignedBy(p)
}

// HistoryEntries deserializes the negotiation history
func (o *Offer) HistoryEntries() ([]OfferHistoryEntry, error) {
	if o.History == "" {
		return nil, nil
	}
	var entries []OfferHistoryEntry
	if err := json.Unmarshal([]byte(o.History), &entries); err != nil {
		return nil, fmt.Errorf("failed to decode offer history: %w", err)
	}
	return entries, nil
}

// AppendHistory returns the serialized history with one entry appended.
// The existing entries are never touched.
func (o *Offer) AppendHistory(entry OfferHistoryEntry) (string, error) {
	entries, err := o.HistoryEntries()
	if err != nil {
		return "", err
	}
	entries = append(entries, entry)
	raw, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("failed to encode offer history: %w", err)
	}
	return string(raw), nil
}

// EventStatus represents the status of an event
type EventStatus string

const (
	EventStatusPlanned   EventStatus = "planned"
	EventStatusActive    EventStatus = "active"
	EventStatusCompleted EventStatus = "completed"
	EventStatusCancelled EventStatus = "cancelled"
)

// IsValid checks if the EventStatus is a valid enum value
func (s EventStatus) IsValid() bool {
	switch s {
	case EventStatusPlanned, EventStatusActive, EventStatusCompleted, EventStatusCancelled:
		return true
	}
	return false
}

// Event is the thing being organized. Offers reference it by id; the
// negotiation core only needs it for the contract projection.
type Event struct {
	BaseModel
	Title         string      `gorm:"type:varchar(200);not null;index"`
	OrganizerID   string      `gorm:"type:varchar(100);not null;index"`
	OrganizerName string      `gorm:"type:varchar(200)"`
	Venue         string      `gorm:"type:varchar(200)"`
	City          string      `gorm:"type:varchar(100)"`
	StartsAt      time.Time   `gorm:"not null;column:starts_at"`
	EndsAt        *time.Time  `gorm:"column:ends_at"`
	Status        EventStatus `gorm:"type:varchar(50);not null;default:'planned';index"`
	Description   string      `gorm:"type:text"`
	Offers        []Offer     `gorm:"foreignKey:EventID"`
}
