package service

import (
	"context"
	"fmt"
	"time"

	"github.com/clubhive/clubhive/pkg/events"
	"github.com/clubhive/clubhive/pkg/logger"
	"github.com/clubhive/clubhive/services/clubs/internal/domain"
	"github.com/clubhive/clubhive/services/clubs/internal/repository"
)

type ClubService interface {
	List(ctx context.Context, limit, offset int) ([]domain.Club, error)
	Get(ctx context.Context, id string) (*domain.Club, error)
	Create(ctx context.Context, req *domain.ClubRequest, createdBy string) (*domain.Club, error)
	Update(ctx context.Context, id string, patch *domain.ClubPatch) (*domain.Club, error)
	Delete(ctx context.Context, id string) error
	Mine(ctx context.Context, userID string) ([]domain.Club, error)
	Join(ctx context.Context, clubID, userID string) error
	Leave(ctx context.Context, clubID, userID string) error
}

type clubService struct {
	clubs repository.ClubRepository
	bus   events.Publisher
}

func NewClubService(clubs repository.ClubRepository, bus events.Publisher) ClubService {
	return &clubService{clubs: clubs, bus: bus}
}

func (s *clubService) List(ctx context.Context, limit, offset int) ([]domain.Club, error) {
	clubs, err := s.clubs.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list clubs: %w", err)
	}
	return clubs, nil
}

func (s *clubService) Get(ctx context.Context, id string) (*domain.Club, error) {
	c, err := s.clubs.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find club: %w", err)
	}
	if c == nil {
		return nil, domain.ErrClubNotFound
	}
	return c, nil
}

func (s *clubService) Create(ctx context.Context, req *domain.ClubRequest, createdBy string) (*domain.Club, error) {
	c, err := s.clubs.Create(ctx, req, createdBy)
	if err != nil {
		return nil, fmt.Errorf("create club: %w", err)
	}
	publish(ctx, s.bus, events.ClubCreated, events.ClubCreatedEvent{
		ClubID: c.ID, Name: c.Name, CreatedBy: createdBy, CreatedAt: c.CreatedAt,
	})
	return c, nil
}

func (s *clubService) Update(ctx context.Context, id string, patch *domain.ClubPatch) (*domain.Club, error) {
	c, err := s.clubs.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("update club: %w", err)
	}
	if c == nil {
		return nil, domain.ErrClubNotFound
	}
	return c, nil
}

func (s *clubService) Delete(ctx context.Context, id string) error {
	ok, err := s.clubs.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete club: %w", err)
	}
	if !ok {
		return domain.ErrClubNotFound
	}
	return nil
}

func (s *clubService) Mine(ctx context.Context, userID string) ([]domain.Club, error) {
	clubs, err := s.clubs.ListByMember(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	return clubs, nil
}

func (s *clubService) Join(ctx context.Context, clubID, userID string) error {
	joined, err := s.clubs.Join(ctx, clubID, userID)
	if err != nil {
		return fmt.Errorf("join club: %w", err)
	}
	if !joined {
		return domain.ErrAlreadyMember
	}
	publish(ctx, s.bus, events.ClubJoined, events.ClubMembershipEvent{ClubID: clubID, UserID: userID, At: time.Now().UTC()})
	return nil
}

func (s *clubService) Leave(ctx context.Context, clubID, userID string) error {
	left, err := s.clubs.Leave(ctx, clubID, userID)
	if err != nil {
		return fmt.Errorf("leave club: %w", err)
	}
	if !left {
		return domain.ErrNotMember
	}
	publish(ctx, s.bus, events.ClubLeft, events.ClubMembershipEvent{ClubID: clubID, UserID: userID, At: time.Now().UTC()})
	return nil
}

// publish is best effort; domain writes never fail on the bus.
func publish(ctx context.Context, bus events.Publisher, subject string, data any) {
	if bus == nil {
		return
	}
	if err := bus.Publish(ctx, subject, data); err != nil {
		logger.ErrorContext(ctx, "Failed to publish event", "subject", subject, "error", err)
	}
}
