package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/stagelink/marketplace-api/internal/auth"
	"github.com/stagelink/marketplace-api/internal/mapper"
	"github.com/stagelink/marketplace-api/internal/service"
	"go.uber.org/zap"
)

// WatchHandler streams live offer set snapshots over server-sent events
type WatchHandler struct {
	offers *service.OfferService
	logger *zap.Logger
}

// NewWatchHandler creates a new watch handler
func NewWatchHandler(offers *service.OfferService, logger *zap.Logger) *WatchHandler {
	return &WatchHandler{offers: offers, logger: logger}
}

// WatchOffers godoc
// @Summary Watch my offers
// @Description Server-sent event stream. Each event carries the caller's full current offer set; the first event is sent immediately.
// @Tags offers
// @Produce text/event-stream
// @Security BearerAuth
// @Router /offers/watch [get]
func (h *WatchHandler) WatchOffers(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	snapshots, cancel, err := h.offers.Watch(r.Context(), user)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	h.logger.Debug("offer watch started",
		zap.String("user_id", user.UserID),
		zap.String("role", string(user.Role)),
	)

	for {
		select {
		case <-r.Context().Done():
			return
		case offers, open := <-snapshots:
			if !open {
				return
			}
			dtos := mapper.ToOfferDTOs(offers, timeNow())
			payload, err := json.Marshal(dtos)
			if err != nil {
				h.logger.Error("failed to encode offer snapshot", zap.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: offers\ndata: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
