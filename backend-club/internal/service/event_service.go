package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gronit/club-portal/backend-club/internal/clock"
	"github.com/gronit/club-portal/backend-club/internal/domain"
	"github.com/gronit/club-portal/backend-club/internal/dto"
	"github.com/gronit/club-portal/backend-club/internal/repository"
	"github.com/gronit/club-portal/pkg/logger"
	"github.com/gronit/club-portal/pkg/markdown"
	"github.com/gronit/club-portal/pkg/media"
	"github.com/gronit/club-portal/pkg/telemetry"
)

// eventService implements the EventService interface
type eventService struct {
	eventRepo repository.EventRepository
	images    media.ImageStore
	publisher ContentPublisher
	clock     clock.Clock
}

// NewEventService creates a new EventService
func NewEventService(eventRepo repository.EventRepository, images media.ImageStore, publisher ContentPublisher, clk clock.Clock) EventService {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &eventService{
		eventRepo: eventRepo,
		images:    images,
		publisher: publisher,
		clock:     clk,
	}
}

// ListEvents lists events for a period with their registration status
func (s *eventService) ListEvents(ctx context.Context, query *dto.EventListQuery) ([]*dto.EventResponse, int, error) {
	query.SetDefaults()
	now := s.clock.Now()

	events, total, err := s.eventRepo.List(ctx, repository.EventFilter{
		Period: domain.EventPeriod(query.When),
		Now:    now,
		Limit:  query.Limit,
		Offset: query.Offset,
	})
	if err != nil {
		return nil, 0, err
	}

	responses := make([]*dto.EventResponse, len(events))
	for i, event := range events {
		responses[i] = s.toResponse(ctx, event, now)
	}
	return responses, total, nil
}

// GetEvent retrieves an event with its rendered content
func (s *eventService) GetEvent(ctx context.Context, id string) (*dto.EventResponse, error) {
	event, err := s.getEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := s.toResponse(ctx, event, s.clock.Now())
	html, err := markdown.Render(event.Content)
	if err != nil {
		logger.WarnCtx(ctx, "failed to render event content", zap.String("event_id", id), zap.Error(err))
	} else {
		resp.ContentHTML = html
	}
	return resp, nil
}

// GetRegistrationStatus evaluates an event's registration status at the current instant
func (s *eventService) GetRegistrationStatus(ctx context.Context, id string) (*dto.RegistrationStatusResponse, error) {
	event, err := s.getEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	return &dto.RegistrationStatusResponse{
		Event:              event,
		RegistrationStatus: s.evaluate(ctx, event, s.clock.Now()),
	}, nil
}

// CreateEvent uploads the image and creates an event
func (s *eventService) CreateEvent(ctx context.Context, req *dto.CreateEventRequest) (*dto.EventResponse, error) {
	if req.Image == nil {
		return nil, ErrImageRequired
	}
	if valid, msg := req.Validate(); !valid {
		return nil, invalidInput(msg)
	}

	date, _ := dto.ParseTime(req.Date)
	startDate, err := optionalTime(req.RegistrationStartDate)
	if err != nil {
		return nil, invalidInput("registrationStartDate: " + err.Error())
	}
	endDate, err := optionalTime(req.RegistrationEndDate)
	if err != nil {
		return nil, invalidInput("registrationEndDate: " + err.Error())
	}

	eventType := domain.EventTypeOffline
	if req.EventType != "" {
		eventType = strings.ToUpper(req.EventType)
	}
	isOpen := true
	if req.IsRegistrationOpen != nil {
		isOpen = *req.IsRegistrationOpen
	}

	img, err := uploadImage(ctx, s.images, req.Image)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	event := &domain.Event{
		ID:                    uuid.New().String(),
		Title:                 strings.TrimSpace(req.Title),
		Content:               req.Content,
		Author:                req.Author,
		Description:           strings.TrimSpace(req.Description),
		RegistrationLink:      strings.TrimSpace(req.RegistrationLink),
		ImageURL:              img.URL,
		ImagePublicID:         img.PublicID,
		Date:                  date,
		RegistrationStartDate: startDate,
		RegistrationEndDate:   endDate,
		MaxParticipants:       req.MaxParticipants,
		CurrentParticipants:   req.CurrentParticipants,
		IsRegistrationOpen:    isOpen,
		Location:              strings.TrimSpace(req.Location),
		EventType:             eventType,
		Tags:                  dto.NormalizeTags(req.Tags),
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		destroyImage(ctx, s.images, img.PublicID)
		return nil, err
	}

	announce(ctx, s.publisher, domain.ResourceEvent, domain.ActionCreated, event.ID, req.Author, now)
	return s.toResponse(ctx, event, now), nil
}

// UpdateEvent applies a partial update. A replacement image is uploaded
// first and the previous one destroyed once the row is saved.
func (s *eventService) UpdateEvent(ctx context.Context, id, actor string, req *dto.UpdateEventRequest) (*dto.EventResponse, error) {
	if valid, msg := req.Validate(); !valid {
		return nil, invalidInput(msg)
	}

	event, err := s.getEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyEventUpdate(event, req); err != nil {
		return nil, err
	}

	oldPublicID := ""
	var img *media.Image
	if req.Image != nil {
		img, err = uploadImage(ctx, s.images, req.Image)
		if err != nil {
			return nil, err
		}
		oldPublicID = event.ImagePublicID
		event.ImageURL = img.URL
		event.ImagePublicID = img.PublicID
	}

	now := s.clock.Now()
	event.UpdatedAt = now

	if err := s.eventRepo.Update(ctx, event); err != nil {
		if img != nil {
			destroyImage(ctx, s.images, img.PublicID)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	destroyImage(ctx, s.images, oldPublicID)

	announce(ctx, s.publisher, domain.ResourceEvent, domain.ActionUpdated, event.ID, actor, now)
	return s.toResponse(ctx, event, now), nil
}

// DeleteEvent deletes an event and then its image
func (s *eventService) DeleteEvent(ctx context.Context, id, actor string) error {
	event, err := s.getEvent(ctx, id)
	if err != nil {
		return err
	}

	if err := s.eventRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrEventNotFound
		}
		return err
	}
	destroyImage(ctx, s.images, event.ImagePublicID)

	announce(ctx, s.publisher, domain.ResourceEvent, domain.ActionDeleted, id, actor, s.clock.Now())
	return nil
}

func (s *eventService) getEvent(ctx context.Context, id string) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	return event, nil
}

func (s *eventService) evaluate(ctx context.Context, event *domain.Event, now time.Time) domain.RegistrationStatus {
	status := event.RegistrationStatus(now)
	telemetry.Metrics().RegistrationEvaluations.Inc(ctx, telemetry.OutcomeAttr(string(status.Reason)))
	return status
}

func (s *eventService) toResponse(ctx context.Context, event *domain.Event, now time.Time) *dto.EventResponse {
	return &dto.EventResponse{
		Event:              event,
		RegistrationStatus: s.evaluate(ctx, event, now),
		IsUpcoming:         event.IsUpcoming(now),
		DaysUntilEvent:     event.DaysUntil(now),
	}
}

func applyEventUpdate(event *domain.Event, req *dto.UpdateEventRequest) error {
	if req.Title != nil {
		event.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		event.Content = *req.Content
	}
	if req.Description != nil {
		event.Description = strings.TrimSpace(*req.Description)
	}
	if req.RegistrationLink != nil {
		event.RegistrationLink = strings.TrimSpace(*req.RegistrationLink)
	}
	if req.Date != nil {
		date, err := dto.ParseTime(*req.Date)
		if err != nil {
			return invalidInput("date: " + err.Error())
		}
		event.Date = date
	}
	if req.RegistrationStartDate != nil {
		t, err := optionalTime(*req.RegistrationStartDate)
		if err != nil {
			return invalidInput("registrationStartDate: " + err.Error())
		}
		event.RegistrationStartDate = t
	}
	if req.RegistrationEndDate != nil {
		t, err := optionalTime(*req.RegistrationEndDate)
		if err != nil {
			return invalidInput("registrationEndDate: " + err.Error())
		}
		event.RegistrationEndDate = t
	}
	if req.MaxParticipants != nil {
		if *req.MaxParticipants == 0 {
			event.MaxParticipants = nil
		} else {
			v := *req.MaxParticipants
			event.MaxParticipants = &v
		}
	}
	if req.CurrentParticipants != nil {
		v := *req.CurrentParticipants
		event.CurrentParticipants = &v
	}
	if req.IsRegistrationOpen != nil {
		event.IsRegistrationOpen = *req.IsRegistrationOpen
	}
	if req.Location != nil {
		event.Location = strings.TrimSpace(*req.Location)
	}
	if req.EventType != nil {
		event.EventType = strings.ToUpper(*req.EventType)
	}
	if req.Tags != nil {
		event.Tags = dto.NormalizeTags(req.Tags)
	}

	start, end := event.RegistrationStartDate, event.RegistrationEndDate
	if start != nil && end != nil && end.Before(*start) {
		return invalidInput("registrationEndDate must not be before registrationStartDate")
	}
	return nil
}

// optionalTime parses s, returning nil for an empty string
func optionalTime(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := dto.ParseTime(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
