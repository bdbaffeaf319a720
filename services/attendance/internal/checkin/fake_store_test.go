package checkin

import (
	"context"
	"errors"
	"sync"
	"time"
)

// fakeStore is an in-memory Store. block, when set, holds MarkAttended until closed.
type fakeStore struct {
	mu       sync.Mutex
	event    *Event
	entries  []RosterEntry
	writes   int
	lists    int
	writeErr error
	listErr  error
	block    chan struct{}
	entered  chan struct{}
}

func newFakeStore(eventID string, entries ...RosterEntry) *fakeStore {
	return &fakeStore{
		event:   &Event{ID: eventID, Title: "Hack Night", Date: time.Date(2026, 10, 20, 18, 0, 0, 0, time.UTC)},
		entries: entries,
	}
}

func (f *fakeStore) FindEvent(_ context.Context, eventID string) (*Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.event == nil || f.event.ID != eventID {
		return nil, nil
	}
	ev := *f.event
	return &ev, nil
}

func (f *fakeStore) ListRoster(_ context.Context, eventID string) ([]RosterEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]RosterEntry, len(f.entries))
	copy(out, f.entries)
	return out, nil
}

func (f *fakeStore) MarkAttended(ctx context.Context, registrationID string, at time.Time) (bool, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	if f.writeErr != nil {
		return false, f.writeErr
	}
	for i := range f.entries {
		if f.entries[i].RegistrationID == registrationID {
			if f.entries[i].Attended {
				return false, nil
			}
			f.entries[i].Attended = true
			t := at
			f.entries[i].CheckedInAt = &t
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) setAttended(registrationID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.entries {
		if f.entries[i].RegistrationID == registrationID {
			f.entries[i].Attended = true
		}
	}
}

func (f *fakeStore) counts() (writes, lists int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes, f.lists
}

var errWriteRejected = errors.New("permission denied for table event_registrations")

func entry(reg, user, name string, attended bool) RosterEntry {
	return RosterEntry{RegistrationID: reg, EventID: "e1", UserID: user, FullName: name, Attended: attended}
}

type recordedEvent struct {
	subject string
	data    any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *fakePublisher) Publish(_ context.Context, subject string, data any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{subject, data})
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}
