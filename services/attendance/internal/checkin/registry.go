package checkin

import (
	"context"
	"sync"
	"time"

	"github.com/clubhive/clubhive/pkg/events"
	"golang.org/x/sync/singleflight"
)

// Desks keeps one Desk per event so that every scanner and roster view of
// an event shares the same serialization and in-flight guard.
type Desks struct {
	store     Store
	publisher events.Publisher
	opens     singleflight.Group

	mu    sync.Mutex
	desks map[string]*Desk
}

func NewDesks(store Store, publisher events.Publisher) *Desks {
	return &Desks{store: store, publisher: publisher, desks: make(map[string]*Desk)}
}

// Get returns the desk of an event, opening it on first use.
func (r *Desks) Get(ctx context.Context, eventID string) (*Desk, error) {
	r.mu.Lock()
	d, ok := r.desks[eventID]
	r.mu.Unlock()
	if ok {
		d.touch()
		return d, nil
	}

	v, err, _ := r.opens.Do(eventID, func() (any, error) {
		d, err := OpenDesk(ctx, eventID, r.store, r.publisher)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.desks[eventID] = d
		r.mu.Unlock()
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Desk), nil
}

// Sweep drops desks unused since before cutoff. It returns how many were dropped.
func (r *Desks) Sweep(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, d := range r.desks {
		if d.lastUsed().Before(cutoff) {
			delete(r.desks, id)
			n++
		}
	}
	return n
}

// Forget drops the desk of an event, e.g. after the event was edited.
func (r *Desks) Forget(eventID string) {
	r.mu.Lock()
	delete(r.desks, eventID)
	r.mu.Unlock()
}
