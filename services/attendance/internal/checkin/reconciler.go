package checkin

import (
	"context"
	"time"
)

// Store is the roster side of the data service.
type Store interface {
	// FindEvent returns nil, nil for an unknown event.
	FindEvent(ctx context.Context, eventID string) (*Event, error)
	ListRoster(ctx context.Context, eventID string) ([]RosterEntry, error)
	// MarkAttended flips attended for a registration not yet attended and
	// reports whether a row changed.
	MarkAttended(ctx context.Context, registrationID string, at time.Time) (bool, error)
}

type Result struct {
	Outcome Outcome      `json:"outcome"`
	Entry   *RosterEntry `json:"registration,omitempty"`
	Effects []Effect     `json:"effects,omitempty"`
	Err     error        `json:"-"`
}

func (r Result) Has(e Effect) bool {
	return Decision{Effects: r.Effects}.Has(e)
}

type Reconciler struct {
	store Store
	now   func() time.Time
}

func NewReconciler(store Store) *Reconciler {
	return &Reconciler{store: store, now: time.Now}
}

// CheckIn reconciles one registration against a roster snapshot. A failed
// write returns no effects so the snapshot stays as it was and a retry is possible.
func (r *Reconciler) CheckIn(ctx context.Context, registrationID string, roster Roster) Result {
	d := Decide(registrationID, roster)
	if !d.Has(EffectPersistCheckIn) {
		return Result{Outcome: d.Outcome, Entry: d.Entry, Effects: d.Effects}
	}

	at := r.now().UTC()
	changed, err := r.store.MarkAttended(ctx, registrationID, at)
	if err != nil {
		return Result{Outcome: OutcomeFailed, Entry: d.Entry, Err: err}
	}

	entry := *d.Entry
	if !changed {
		// another desk got there first; the snapshot is stale
		entry.Attended = true
		return Result{Outcome: OutcomeAlreadyAttended, Entry: &entry, Effects: []Effect{EffectReloadRoster}}
	}

	entry.Attended = true
	entry.CheckedInAt = &at
	return Result{Outcome: OutcomeSuccess, Entry: &entry, Effects: []Effect{EffectReloadRoster}}
}
