package service

import (
	"context"
	"fmt"

	"github.com/clubhive/clubhive/pkg/events"
	"github.com/clubhive/clubhive/services/clubs/internal/domain"
	"github.com/clubhive/clubhive/services/clubs/internal/repository"
)

type AnnouncementService interface {
	List(ctx context.Context, clubID string, limit, offset int) ([]domain.Announcement, error)
	Create(ctx context.Context, req *domain.AnnouncementRequest, createdBy string) (*domain.Announcement, error)
	Profile(ctx context.Context, id string) (*domain.Profile, error)
}

type announcementService struct {
	announcements repository.AnnouncementRepository
	profiles      repository.ProfileRepository
	bus           events.Publisher
}

func NewAnnouncementService(announcements repository.AnnouncementRepository, profiles repository.ProfileRepository, bus events.Publisher) AnnouncementService {
	return &announcementService{announcements: announcements, profiles: profiles, bus: bus}
}

func (s *announcementService) List(ctx context.Context, clubID string, limit, offset int) ([]domain.Announcement, error) {
	list, err := s.announcements.List(ctx, clubID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	return list, nil
}

func (s *announcementService) Create(ctx context.Context, req *domain.AnnouncementRequest, createdBy string) (*domain.Announcement, error) {
	a, err := s.announcements.Create(ctx, req, createdBy)
	if err != nil {
		return nil, fmt.Errorf("create announcement: %w", err)
	}
	publish(ctx, s.bus, events.AnnouncementCreated, events.AnnouncementCreatedEvent{
		AnnouncementID: a.ID, ClubID: a.ClubID, Title: a.Title, CreatedAt: a.CreatedAt,
	})
	return a, nil
}

// Profile returns the display fields of a member, for author and attendee names.
func (s *announcementService) Profile(ctx context.Context, id string) (*domain.Profile, error) {
	p, err := s.profiles.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	if p == nil {
		return nil, domain.ErrProfileNotFound
	}
	return p, nil
}
