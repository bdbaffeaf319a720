package handlers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/clubhive/clubhive/pkg/session"
	"github.com/clubhive/clubhive/services/clubs/internal/domain"
)

// memStore backs every fake repository with one lock.
type memStore struct {
	mu            sync.Mutex
	seq           int
	clubs         map[string]*domain.Club
	members       map[string]map[string]bool
	events        map[string]*domain.Event
	registrations []*domain.Registration
	announcements []domain.Announcement
	profiles      map[string]*domain.Profile
}

func newMemStore() *memStore {
	return &memStore{
		clubs:    map[string]*domain.Club{},
		members:  map[string]map[string]bool{},
		events:   map[string]*domain.Event{},
		profiles: map[string]*domain.Profile{},
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s%d", prefix, m.seq)
}

type fakeClubs struct{ *memStore }

func (f fakeClubs) List(_ context.Context, limit, offset int) ([]domain.Club, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Club
	for _, c := range f.clubs {
		out = append(out, *c)
	}
	return out, nil
}

func (f fakeClubs) FindByID(_ context.Context, id string) (*domain.Club, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.clubs[id]; ok {
		cp := *c
		cp.MemberCount = len(f.members[id])
		return &cp, nil
	}
	return nil, nil
}

func (f fakeClubs) Create(_ context.Context, req *domain.ClubRequest, createdBy string) (*domain.Club, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := &domain.Club{ID: f.nextID("c"), Name: req.Name, Category: req.Category, CreatedBy: createdBy, CreatedAt: time.Now()}
	f.clubs[c.ID] = c
	return c, nil
}

func (f fakeClubs) Update(_ context.Context, id string, patch *domain.ClubPatch) (*domain.Club, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.clubs[id]
	if !ok {
		return nil, nil
	}
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	return c, nil
}

func (f fakeClubs) Delete(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.clubs[id]
	delete(f.clubs, id)
	return ok, nil
}

func (f fakeClubs) ListByMember(_ context.Context, userID string) ([]domain.Club, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Club
	for id, users := range f.members {
		if users[userID] {
			out = append(out, *f.clubs[id])
		}
	}
	return out, nil
}

func (f fakeClubs) Join(_ context.Context, clubID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.clubs[clubID]; !ok {
		return false, domain.ErrClubNotFound
	}
	if f.members[clubID] == nil {
		f.members[clubID] = map[string]bool{}
	}
	if f.members[clubID][userID] {
		return false, nil
	}
	f.members[clubID][userID] = true
	return true, nil
}

func (f fakeClubs) Leave(_ context.Context, clubID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.members[clubID][userID] {
		return false, nil
	}
	delete(f.members[clubID], userID)
	return true, nil
}

type fakeEvents struct{ *memStore }

func (f fakeEvents) List(_ context.Context, filter domain.EventFilter) ([]domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Event
	for _, e := range f.events {
		if filter.ClubID != "" && e.ClubID != filter.ClubID {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

func (f fakeEvents) FindByID(_ context.Context, id string) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.events[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, nil
}

func (f fakeEvents) Create(_ context.Context, req *domain.EventRequest, createdBy string) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.clubs[req.ClubID]; !ok {
		return nil, domain.ErrClubNotFound
	}
	e := &domain.Event{
		ID: f.nextID("e"), ClubID: req.ClubID, Title: req.Title, Date: req.Date,
		Location: req.Location, Capacity: req.Capacity, CreatedBy: createdBy,
	}
	f.events[e.ID] = e
	cp := *e
	return &cp, nil
}

func (f fakeEvents) Update(_ context.Context, id string, patch *domain.EventPatch) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return nil, nil
	}
	if patch.IsCompleted != nil {
		e.IsCompleted = *patch.IsCompleted
	}
	if patch.Title != nil {
		e.Title = *patch.Title
	}
	cp := *e
	return &cp, nil
}

func (f fakeEvents) Delete(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.events[id]
	delete(f.events, id)
	return ok, nil
}

type fakeRegistrations struct{ *memStore }

func (f fakeRegistrations) Register(_ context.Context, eventID, userID string, now time.Time) (*domain.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[eventID]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	if e.IsPast(now) {
		return nil, domain.ErrEventPast
	}
	taken := 0
	for _, r := range f.registrations {
		if r.EventID != eventID {
			continue
		}
		if r.UserID == userID {
			return nil, domain.ErrAlreadyRegistered
		}
		taken++
	}
	if e.Capacity != nil && taken >= *e.Capacity {
		return nil, domain.ErrCapacityReached
	}
	r := (&domain.Registration{ID: f.nextID("r"), EventID: eventID, UserID: userID, RegisteredAt: now}).WithPass()
	f.registrations = append(f.registrations, r)
	cp := *r
	return &cp, nil
}

func (f fakeRegistrations) ListByUser(_ context.Context, userID string) ([]domain.MyRegistration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.MyRegistration
	for _, r := range f.registrations {
		if r.UserID == userID {
			out = append(out, domain.MyRegistration{Registration: *r, Event: *f.events[r.EventID]})
		}
	}
	return out, nil
}

func (f fakeRegistrations) FindForUser(_ context.Context, id, userID string) (*domain.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.registrations {
		if r.ID == id && r.UserID == userID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (f fakeRegistrations) Count(_ context.Context, eventID string) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var registered, attended int
	for _, r := range f.registrations {
		if r.EventID == eventID {
			registered++
			if r.Attended {
				attended++
			}
		}
	}
	return registered, attended, nil
}

type fakeAnnouncements struct{ *memStore }

func (f fakeAnnouncements) List(_ context.Context, clubID string, limit, offset int) ([]domain.Announcement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Announcement
	for i := len(f.announcements) - 1; i >= 0; i-- {
		if a := f.announcements[i]; clubID == "" || a.ClubID == clubID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f fakeAnnouncements) Create(_ context.Context, req *domain.AnnouncementRequest, createdBy string) (*domain.Announcement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.clubs[req.ClubID]; !ok {
		return nil, domain.ErrClubNotFound
	}
	a := domain.Announcement{ID: f.nextID("a"), ClubID: req.ClubID, Title: req.Title, Content: req.Content, CreatedBy: createdBy}
	f.announcements = append(f.announcements, a)
	return &a, nil
}

type fakeProfiles struct{ *memStore }

func (f fakeProfiles) FindByID(_ context.Context, id string) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.profiles[id], nil
}

type fakeBus struct {
	mu       sync.Mutex
	subjects []string
	payloads []any
}

func (b *fakeBus) Publish(_ context.Context, subject string, data any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subjects = append(b.subjects, subject)
	b.payloads = append(b.payloads, data)
	return nil
}

func (b *fakeBus) Close() error { return nil }

func (b *fakeBus) published(subject string) []any {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []any
	for i, s := range b.subjects {
		if s == subject {
			out = append(out, b.payloads[i])
		}
	}
	return out
}

type fakeSessions map[string]*session.Session

func (f fakeSessions) Get(_ context.Context, id string) (*session.Session, error) {
	return f[id], nil
}
