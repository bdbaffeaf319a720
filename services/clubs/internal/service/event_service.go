package service

import (
	"context"
	"fmt"
	"time"

	"github.com/clubhive/clubhive/pkg/events"
	"github.com/clubhive/clubhive/pkg/logger"
	"github.com/clubhive/clubhive/pkg/pass"
	"github.com/clubhive/clubhive/pkg/session"
	"github.com/clubhive/clubhive/services/clubs/internal/domain"
	"github.com/clubhive/clubhive/services/clubs/internal/repository"
)

type EventService interface {
	List(ctx context.Context, f domain.EventFilter) ([]domain.Event, error)
	Get(ctx context.Context, id string) (*domain.Event, error)
	Create(ctx context.Context, req *domain.EventRequest, createdBy string) (*domain.Event, error)
	Update(ctx context.Context, id string, patch *domain.EventPatch) (*domain.Event, error)
	Delete(ctx context.Context, id string) error

	Register(ctx context.Context, eventID string, s *session.Session) (*domain.Registration, error)
	MyRegistrations(ctx context.Context, userID string) ([]domain.MyRegistration, error)
	PassPNG(ctx context.Context, registrationID, userID string) ([]byte, error)
	Count(ctx context.Context, eventID string) (*domain.RegistrationCount, error)
}

type eventService struct {
	events        repository.EventRepository
	registrations repository.RegistrationRepository
	bus           events.Publisher
	now           func() time.Time
}

func NewEventService(events repository.EventRepository, registrations repository.RegistrationRepository, bus events.Publisher) EventService {
	return &eventService{events: events, registrations: registrations, bus: bus, now: time.Now}
}

func (s *eventService) List(ctx context.Context, f domain.EventFilter) ([]domain.Event, error) {
	evs, err := s.events.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	now := s.now()
	for i := range evs {
		evs[i].Status = evs[i].StatusAt(now)
	}
	return evs, nil
}

func (s *eventService) Get(ctx context.Context, id string) (*domain.Event, error) {
	e, err := s.events.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find event: %w", err)
	}
	if e == nil {
		return nil, domain.ErrEventNotFound
	}
	e.Status = e.StatusAt(s.now())
	return e, nil
}

func (s *eventService) Create(ctx context.Context, req *domain.EventRequest, createdBy string) (*domain.Event, error) {
	e, err := s.events.Create(ctx, req, createdBy)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	e.Status = e.StatusAt(s.now())
	publish(ctx, s.bus, events.EventCreated, events.EventCreatedEvent{
		EventID: e.ID, ClubID: e.ClubID, Title: e.Title, Date: e.Date,
	})
	return e, nil
}

func (s *eventService) Update(ctx context.Context, id string, patch *domain.EventPatch) (*domain.Event, error) {
	e, err := s.events.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	if e == nil {
		return nil, domain.ErrEventNotFound
	}
	e.Status = e.StatusAt(s.now())
	if patch.IsCompleted != nil {
		publish(ctx, s.bus, events.EventCompleted, events.EventCompletedEvent{EventID: e.ID, Completed: e.IsCompleted})
	}
	return e, nil
}

func (s *eventService) Delete(ctx context.Context, id string) error {
	ok, err := s.events.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if !ok {
		return domain.ErrEventNotFound
	}
	return nil
}

func (s *eventService) Register(ctx context.Context, eventID string, sess *session.Session) (*domain.Registration, error) {
	reg, err := s.registrations.Register(ctx, eventID, sess.UserID(), s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	logger.InfoContext(ctx, "Registered for event", "event_id", eventID, "registration_id", reg.ID)

	evt := events.RegistrationCreatedEvent{
		RegistrationID: reg.ID,
		EventID:        eventID,
		UserID:         reg.UserID,
		Email:          sess.Email(),
		FullName:       sess.Profile().FullName,
		PassToken:      reg.PassToken,
		RegisteredAt:   reg.RegisteredAt,
	}
	// the event is only read for the mail; a failure here does not undo the registration
	if e, err := s.events.FindByID(ctx, eventID); err == nil && e != nil {
		evt.EventTitle, evt.EventDate, evt.Location = e.Title, e.Date, e.Location
	}
	publish(ctx, s.bus, events.RegistrationCreated, evt)
	return reg, nil
}

func (s *eventService) MyRegistrations(ctx context.Context, userID string) ([]domain.MyRegistration, error) {
	regs, err := s.registrations.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	now := s.now()
	for i := range regs {
		regs[i].Event.Status = regs[i].Event.StatusAt(now)
	}
	return regs, nil
}

func (s *eventService) PassPNG(ctx context.Context, registrationID, userID string) ([]byte, error) {
	reg, err := s.registrations.FindForUser(ctx, registrationID, userID)
	if err != nil {
		return nil, fmt.Errorf("find registration: %w", err)
	}
	if reg == nil {
		return nil, domain.ErrRegistrationNotFound
	}
	return pass.PNG(reg.PassToken)
}

func (s *eventService) Count(ctx context.Context, eventID string) (*domain.RegistrationCount, error) {
	e, err := s.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	registered, attended, err := s.registrations.Count(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("count registrations: %w", err)
	}
	c := &domain.RegistrationCount{EventID: eventID, Registered: registered, Attended: attended, Capacity: e.Capacity}
	if e.Capacity != nil {
		left := max(*e.Capacity-registered, 0)
		c.SpotsLeft = &left
	}
	return c, nil
}
