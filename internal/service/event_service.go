package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stagelink/marketplace-api/internal/auth"
	"github.com/stagelink/marketplace-api/internal/domain"
	"github.com/stagelink/marketplace-api/internal/mapper"
	"github.com/stagelink/marketplace-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EventService handles the event records offers attach to
type EventService struct {
	events *repository.EventRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewEventService creates a new event service
func NewEventService(events *repository.EventRepository, logger *zap.Logger) *EventService {
	return &EventService{
		events: events,
		logger: logger,
		now:    time.Now,
	}
}

// CreateEvent registers a new event owned by the calling organizer
func (s *EventService) CreateEvent(ctx context.Context, user *auth.UserContext, req *domain.CreateEventRequest) (*domain.EventDTO, error) {
	if user.Role != domain.PartyOrganizer {
		return nil, ErrWrongRole
	}

	event := &domain.Event{
		Title:         req.Title,
		OrganizerID:   user.UserID,
		OrganizerName: user.DisplayName,
		Venue:         req.Venue,
		City:          req.City,
		StartsAt:      req.StartsAt,
		EndsAt:        req.EndsAt,
		Status:        domain.EventStatusPlanned,
		Description:   req.Description,
	}

	if err := s.events.Create(ctx, event); err != nil {
		return nil, err
	}

	s.logger.Info("event created",
		zap.String("event_id", event.ID.String()),
		zap.String("organizer_id", event.OrganizerID),
		zap.String("title", event.Title),
	)

	dto := mapper.ToEventDTO(event)
	return &dto, nil
}

// GetEvent fetches one event. Any authenticated user may read an event;
// providers need it to place offers.
func (s *EventService) GetEvent(ctx context.Context, id uuid.UUID) (*domain.EventDTO, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	dto := mapper.ToEventDTO(event)
	return &dto, nil
}

// ListMyEvents returns the calling organizer's events
func (s *EventService) ListMyEvents(ctx context.Context, user *auth.UserContext) ([]domain.EventDTO, error) {
	if user.Role != domain.PartyOrganizer {
		return nil, ErrWrongRole
	}
	events, err := s.events.ListByOrganizer(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	return mapper.ToEventDTOs(events), nil
}
