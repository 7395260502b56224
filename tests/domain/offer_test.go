package domain_test

import (
	"testing"
	"time"

	"github.com/stagelink/marketplace-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func partyPtr(p domain.Party) *domain.Party { return &p }

func TestEffectiveAmount(t *testing.T) {
	// Every presence combination of the three stored amounts
	cases := []struct {
		name          string
		amount        *float64
		counterAmount *float64
		finalAmount   *float64
		want          float64
	}{
		{"nothing set defaults to zero", nil, nil, nil, 0},
		{"initial amount alone", floatPtr(1000), nil, nil, 1000},
		{"counter alone", nil, floatPtr(800), nil, 800},
		{"counter wins over initial", floatPtr(1000), floatPtr(800), nil, 800},
		{"final alone", nil, nil, floatPtr(900), 900},
		{"final wins over initial", floatPtr(1000), nil, floatPtr(900), 900},
		{"final wins over counter", nil, floatPtr(800), floatPtr(900), 900},
		{"final wins over everything", floatPtr(1000), floatPtr(800), floatPtr(900), 900},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			offer := &domain.Offer{
				Amount:        tc.amount,
				CounterAmount: tc.counterAmount,
				FinalAmount:   tc.finalAmount,
			}
			assert.Equal(t, tc.want, offer.EffectiveAmount())
		})
	}

	t.Run("explicit zero counter is still authoritative", func(t *testing.T) {
		offer := &domain.Offer{
			Amount:        floatPtr(1000),
			CounterAmount: floatPtr(0),
		}
		assert.Equal(t, 0.0, offer.EffectiveAmount())
	})
}

func TestAwaitingAction(t *testing.T) {
	t.Run("pending request awaits the provider", func(t *testing.T) {
		offer := &domain.Offer{
			Status:      domain.OfferStatusPending,
			RequestType: domain.RequestTypeRequest,
		}
		assert.Equal(t, domain.PartyProvider, offer.AwaitingAction())
	})

	t.Run("pending proactive offer awaits the organizer", func(t *testing.T) {
		offer := &domain.Offer{
			Status:      domain.OfferStatusPending,
			RequestType: domain.RequestTypeOffer,
		}
		assert.Equal(t, domain.PartyOrganizer, offer.AwaitingAction())
	})

	t.Run("quoted always awaits the organizer", func(t *testing.T) {
		offer := &domain.Offer{
			Status:      domain.OfferStatusQuoted,
			RequestType: domain.RequestTypeOffer,
		}
		assert.Equal(t, domain.PartyOrganizer, offer.AwaitingAction())
	})

	t.Run("counter offer awaits the party that did not counter", func(t *testing.T) {
		offer := &domain.Offer{
			Status:    domain.OfferStatusCounterOffered,
			CounterBy: partyPtr(domain.PartyOrganizer),
		}
		assert.Equal(t, domain.PartyProvider, offer.AwaitingAction())

		offer.CounterBy = partyPtr(domain.PartyProvider)
		assert.Equal(t, domain.PartyOrganizer, offer.AwaitingAction())
	})

	t.Run("terminal statuses await nobody", func(t *testing.T) {
		for _, status := range []domain.OfferStatus{
			domain.OfferStatusAccepted,
			domain.OfferStatusRejected,
			domain.OfferStatusExpired,
			domain.OfferStatusCancelled,
		} {
			offer := &domain.Offer{Status: status, RequestType: domain.RequestTypeRequest}
			assert.Equal(t, domain.PartyNone, offer.AwaitingAction(), "status %s", status)
		}
	})
}

func TestStatusAt(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	t.Run("overdue non-terminal offer reads as expired", func(t *testing.T) {
		offer := &domain.Offer{Status: domain.OfferStatusQuoted, ValidUntil: &past}
		assert.Equal(t, domain.OfferStatusExpired, offer.StatusAt(now))
		assert.True(t, offer.IsOverdue(now))
	})

	t.Run("deadline in the future leaves the status alone", func(t *testing.T) {
		offer := &domain.Offer{Status: domain.OfferStatusQuoted, ValidUntil: &future}
		assert.Equal(t, domain.OfferStatusQuoted, offer.StatusAt(now))
		assert.False(t, offer.IsOverdue(now))
	})

	t.Run("no deadline means never overdue", func(t *testing.T) {
		offer := &domain.Offer{Status: domain.OfferStatusPending}
		assert.Equal(t, domain.OfferStatusPending, offer.StatusAt(now))
	})

	t.Run("terminal statuses never flip to expired", func(t *testing.T) {
		offer := &domain.Offer{Status: domain.OfferStatusAccepted, ValidUntil: &past}
		assert.Equal(t, domain.OfferStatusAccepted, offer.StatusAt(now))
		assert.False(t, offer.IsOverdue(now))
	})
}

func TestAppendHistory(t *testing.T) {
	offer := &domain.Offer{}

	first := domain.OfferHistoryEntry{
		Type:      domain.HistoryEntryQuote,
		By:        domain.PartyProvider,
		Amount:    floatPtr(1200),
		Timestamp: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	raw, err := offer.AppendHistory(first)
	require.NoError(t, err)
	offer.History = raw

	second := domain.OfferHistoryEntry{
		Type:      domain.HistoryEntryCounter,
		By:        domain.PartyOrganizer,
		Amount:    floatPtr(1000),
		Message:   "budget is tight",
		Timestamp: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
	raw, err = offer.AppendHistory(second)
	require.NoError(t, err)
	offer.History = raw

	entries, err := offer.HistoryEntries()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, domain.HistoryEntryQuote, entries[0].Type)
	assert.Equal(t, 1200.0, *entries[0].Amount)
	assert.Equal(t, domain.HistoryEntryCounter, entries[1].Type)
	assert.Equal(t, "budget is tight", entries[1].Message)
	assert.True(t, entries[0].Timestamp.Before(entries[1].Timestamp))
}

func TestHistoryEntriesEmpty(t *testing.T) {
	offer := &domain.Offer{}
	entries, err := offer.HistoryEntries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestContractSignatureHelpers(t *testing.T) {
	offer := &domain.Offer{
		Status:                    domain.OfferStatusAccepted,
		ContractSignedByOrganizer: true,
	}

	assert.True(t, offer.SignedBy(domain.PartyOrganizer))
	assert.False(t, offer.SignedBy(domain.PartyProvider))
	assert.False(t, offer.NeedsSignatureFrom(domain.PartyOrganizer))
	assert.True(t, offer.NeedsSignatureFrom(domain.PartyProvider))

	offer.ContractSignedByProvider = true
	offer.ContractSigned = true
	assert.False(t, offer.NeedsSignatureFrom(domain.PartyProvider))
}

func TestPartyHelpers(t *testing.T) {
	offer := &domain.Offer{
		OrganizerID:  "org-42",
		ProviderID:   "prov-7",
		ProviderName: "Nordic Sound AS",
	}

	assert.Equal(t, domain.PartyOrganizer, offer.RoleOf("org-42"))
	assert.Equal(t, domain.PartyProvider, offer.RoleOf("prov-7"))
	assert.Equal(t, domain.PartyNone, offer.RoleOf("someone-else"))
	assert.True(t, offer.IsParticipant("org-42"))
	assert.False(t, offer.IsParticipant("someone-else"))
	assert.Equal(t, "prov-7", offer.PartyID(domain.PartyProvider))
	assert.Equal(t, "Nordic Sound AS", offer.PartyName(domain.PartyProvider))

	assert.Equal(t, domain.PartyProvider, domain.PartyOrganizer.Other())
	assert.Equal(t, domain.PartyOrganizer, domain.PartyProvider.Other())
	assert.Equal(t, domain.PartyNone, domain.PartyNone.Other())
}
