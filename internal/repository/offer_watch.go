package repository

import (
	"context"
	"sync"

	"github.com/stagelink/marketplace-api/internal/domain"
)

// queryFunc re-runs a subscriber's party listing after a change
type queryFunc func(ctx context.Context, party domain.Party, partyID string) ([]domain.Offer, error)

type watchSubscriber struct {
	party   domain.Party
	partyID string
	ch      chan []domain.Offer
}

// WatchHub fans out offer changes to in-process subscribers. Each subscriber
// receives the full current offer set for its party whenever any offer on
// that party's side changes. Delivery is latest-wins: a slow consumer sees
// the newest snapshot, never a backlog.
type WatchHub struct {
	mu    sync.RWMutex
	subs  map[*watchSubscriber]struct{}
	query queryFunc
}

// NewWatchHub creates a hub backed by the given listing query
func NewWatchHub(query queryFunc) *WatchHub {
	return &WatchHub{
		subs:  make(map[*watchSubscriber]struct{}),
		query: query,
	}
}

// Subscribe registers a subscriber for one party's offer set. The returned
// channel immediately receives the current set, then a fresh set after every
// relevant change. Cancel must be called to release the subscription.
func (h *WatchHub) Subscribe(ctx context.Context, party domain.Party, partyID string) (<-chan []domain.Offer, func(), error) {
	initial, err := h.query(ctx, party, partyID)
	if err != nil {
		return nil, nil, err
	}

	sub := &watchSubscriber{
		party:   party,
		partyID: partyID,
		ch:      make(chan []domain.Offer, 1),
	}
	sub.ch <- initial

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		delete(h.subs, sub)
		h.mu.Unlock()
	}
	return sub.ch, cancel, nil
}

// Notify delivers fresh snapshots to every subscriber watching a side of the
// changed offer. Query failures for one subscriber do not affect the rest.
func (h *WatchHub) Notify(ctx context.Context, offer *domain.Offer) {
	h.mu.RLock()
	matched := make([]*watchSubscriber, 0, 2)
	for sub := range h.subs {
		if offer.PartyID(sub.party) == sub.partyID {
			matched = append(matched, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range matched {
		offers, err := h.query(ctx, sub.party, sub.partyID)
		if err != nil {
			continue
		}
		// Drop the stale pending snapshot, if any, before sending
		select {
		case <-sub.ch:
		default:
		}
		select {
		case sub.ch <- offers:
		default:
		}
	}
}
