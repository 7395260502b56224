package service

import (
	"math"
	"sort"
	"time"

	"github.com/stagelink/marketplace-api/internal/domain"
)

// maxMonthlyBuckets bounds the rolling financial series
const maxMonthlyBuckets = 6

// maxLeaderboardEntries bounds the counterparty leaderboards
const maxLeaderboardEntries = 5

// acceptedOffers filters to offers reading as accepted at the given instant
func acceptedOffers(offers []domain.Offer, now time.Time) []domain.Offer {
	out := make([]domain.Offer, 0, len(offers))
	for _, o := range offers {
		if o.StatusAt(now) == domain.OfferStatusAccepted {
			out = append(out, o)
		}
	}
	return out
}

// bucketMonth keys an accepted offer by its acceptance month, falling back
// to the creation month for legacy rows without acceptedAt
func bucketMonth(o *domain.Offer) string {
	t := o.CreatedAt
	if o.AcceptedAt != nil {
		t = *o.AcceptedAt
	}
	return t.Format("2006-01")
}

// monthlyTotals builds the rolling monthly series from accepted offers.
// Only the most recent distinct months are kept; months with no accepted
// offers simply do not appear. The result is sorted oldest first.
func monthlyTotals(accepted []domain.Offer) []domain.MonthlyTotal {
	byMonth := make(map[string]*domain.MonthlyTotal)
	for i := range accepted {
		o := &accepted[i]
		month := bucketMonth(o)
		bucket, ok := byMonth[month]
		if !ok {
			bucket = &domain.MonthlyTotal{Month: month}
			byMonth[month] = bucket
		}
		bucket.Total += o.EffectiveAmount()
		bucket.Count++
	}

	months := make([]string, 0, len(byMonth))
	for month := range byMonth {
		months = append(months, month)
	}
	sort.Strings(months)
	if len(months) > maxMonthlyBuckets {
		months = months[len(months)-maxMonthlyBuckets:]
	}

	series := make([]domain.MonthlyTotal, 0, len(months))
	for _, month := range months {
		series = append(series, *byMonth[month])
	}
	return series
}

// categoryBreakdown totals accepted offers per service category. Percentages
// are computed from the full-precision totals and rounded once, at the end.
func categoryBreakdown(accepted []domain.Offer) []domain.CategoryBreakdown {
	byCategory := make(map[domain.ServiceCategory]*domain.CategoryBreakdown)
	var grand float64
	for i := range accepted {
		o := &accepted[i]
		amount := o.EffectiveAmount()
		grand += amount
		slice, ok := byCategory[o.ServiceCategory]
		if !ok {
			slice = &domain.CategoryBreakdown{Category: o.ServiceCategory}
			byCategory[o.ServiceCategory] = slice
		}
		slice.Total += amount
		slice.Count++
	}

	breakdown := make([]domain.CategoryBreakdown, 0, len(byCategory))
	for _, slice := range byCategory {
		if grand > 0 {
			slice.Percent = int(math.Round(slice.Total / grand * 100))
		}
		breakdown = append(breakdown, *slice)
	}

	sort.SliceStable(breakdown, func(i, j int) bool {
		if breakdown[i].Total != breakdown[j].Total {
			return breakdown[i].Total > breakdown[j].Total
		}
		return breakdown[i].Category < breakdown[j].Category
	})
	return breakdown
}

// leaderboard ranks the counterparties on the given side by accepted total.
// Ties keep a stable order by party id.
func leaderboard(accepted []domain.Offer, counterparty domain.Party) []domain.LeaderboardEntry {
	byParty := make(map[string]*domain.LeaderboardEntry)
	for i := range accepted {
		o := &accepted[i]
		id := o.PartyID(counterparty)
		entry, ok := byParty[id]
		if !ok {
			entry = &domain.LeaderboardEntry{PartyID: id, Name: o.PartyName(counterparty)}
			byParty[id] = entry
		}
		entry.Total += o.EffectiveAmount()
		entry.Jobs++
	}

	entries := make([]domain.LeaderboardEntry, 0, len(byParty))
	for _, entry := range byParty {
		entries = append(entries, *entry)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Total != entries[j].Total {
			return entries[i].Total > entries[j].Total
		}
		return entries[i].PartyID < entries[j].PartyID
	})

	if len(entries) > maxLeaderboardEntries {
		entries = entries[:maxLeaderboardEntries]
	}
	return entries
}

// distinctCounterparts counts the unique parties on the given side. Every
// surface feeds it the caller's full offer set, not just the accepted ones,
// so the dashboard and analytics agree on the count.
func distinctCounterparts(offers []domain.Offer, counterparty domain.Party) int {
	seen := make(map[string]struct{})
	for i := range offers {
		seen[offers[i].PartyID(counterparty)] = struct{}{}
	}
	return len(seen)
}

// sumEffective totals the effective amounts of a slice of offers
func sumEffective(offers []domain.Offer) float64 {
	var total float64
	for i := range offers {
		total += offers[i].EffectiveAmount()
	}
	return total
}

// pendingPayment sums accepted offers whose contract is not fully signed
func pendingPayment(accepted []domain.Offer) (float64, int) {
	var total float64
	var count int
	for i := range accepted {
		if !accepted[i].ContractSigned {
			total += accepted[i].EffectiveAmount()
			count++
		}
	}
	return total, count
}
