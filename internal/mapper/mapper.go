package mapper

import (
	"time"

	"github.com/stagelink/marketplace-api/internal/domain"
)

// ToOfferDTO converts an offer to its API representation. The status is the
// lazy-expiry view at the given instant; derived fields are computed from
// that view, so an overdue offer reads as expired with nobody to act.
func ToOfferDTO(offer *domain.Offer, now time.Time) domain.OfferDTO {
	view := *offer
	view.Status = offer.StatusAt(now)

	history, _ := offer.HistoryEntries()

	dto := domain.OfferDTO{
		ID:              offer.ID,
		EventID:         offer.EventID,
		OrganizerID:     offer.OrganizerID,
		OrganizerName:   offer.OrganizerName,
		ProviderID:      offer.ProviderID,
		ProviderName:    offer.ProviderName,
		ServiceCategory: offer.ServiceCategory,
		RequestType:     offer.RequestType,
		Status:          view.Status,
		Description:     offer.Description,

		Amount:        offer.Amount,
		CounterAmount: offer.CounterAmount,
		CounterBy:     offer.CounterBy,
		CounterAt:     offer.CounterAt,
		FinalAmount:   offer.FinalAmount,
		AcceptedBy:    offer.AcceptedBy,
		AcceptedAt:    offer.AcceptedAt,

		RejectedBy:         offer.RejectedBy,
		RejectedAt:         offer.RejectedAt,
		RejectionReason:    offer.RejectionReason,
		CancelledBy:        offer.CancelledBy,
		CancelledAt:        offer.CancelledAt,
		CancellationReason: offer.CancellationReason,

		ValidUntil: offer.ValidUntil,

		ContractSignedByOrganizer: offer.ContractSignedByOrganizer,
		ContractSignedByProvider:  offer.ContractSignedByProvider,
		ContractSigned:            offer.ContractSigned,
		ContractSignedAt:          offer.ContractSignedAt,

		EffectiveAmount: offer.EffectiveAmount(),
		AwaitingAction:  view.AwaitingAction(),

		History: history,

		Version:   offer.Version,
		CreatedAt: offer.CreatedAt,
		UpdatedAt: offer.UpdatedAt,
	}

	if offer.Event != nil {
		event := ToEventDTO(offer.Event)
		dto.Event = &event
	}

	return dto
}

// ToOfferDTOs converts a slice of offers
func ToOfferDTOs(offers []domain.Offer, now time.Time) []domain.OfferDTO {
	dtos := make([]domain.OfferDTO, 0, len(offers))
	for i := range offers {
		dtos = append(dtos, ToOfferDTO(&offers[i], now))
	}
	return dtos
}

// ToEventDTO converts an event to its API representation
func ToEventDTO(event *domain.Event) domain.EventDTO {
	return domain.EventDTO{
		ID:            event.ID,
		Title:         event.Title,
		OrganizerID:   event.OrganizerID,
		OrganizerName: event.OrganizerName,
		Venue:         event.Venue,
		City:          event.City,
		StartsAt:      event.StartsAt,
		EndsAt:        event.EndsAt,
		Status:        event.Status,
		Description:   event.Description,
		CreatedAt:     event.CreatedAt,
		UpdatedAt:     event.UpdatedAt,
	}
}

// ToEventDTOs converts a slice of events
func ToEventDTOs(events []domain.Event) []domain.EventDTO {
	dtos := make([]domain.EventDTO, 0, len(events))
	for i := range events {
		dtos = append(dtos, ToEventDTO(&events[i]))
	}
	return dtos
}
