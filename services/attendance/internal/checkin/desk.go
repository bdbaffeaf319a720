package checkin

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/clubhive/clubhive/pkg/credential"
	"github.com/clubhive/clubhive/pkg/events"
	"github.com/clubhive/clubhive/pkg/logger"
	"github.com/clubhive/clubhive/pkg/obs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

var (
	ErrEventNotFound  = errors.New("event not found")
	ErrCheckInPending = errors.New("check-in already in progress for this registration")
)

// Via names the path a check-in came through.
type Via string

const (
	ViaScan    Via = "scan"
	ViaManual  Via = "manual"
	ViaStation Via = "station"
)

// Desk is the check-in point of one event. Check-ins are applied one at a
// time and every successful write is followed by a roster reload before the
// call returns.
type Desk struct {
	store      Store
	reconciler *Reconciler
	publisher  events.Publisher

	mu     sync.Mutex // serializes check-ins
	loads  singleflight.Group
	rmu    sync.RWMutex
	event  Event
	roster Roster
	used   time.Time
	// loadSeq numbers roster loads; installed is the newest one applied.
	loadSeq   uint64
	installed uint64

	pmu     sync.Mutex
	pending map[string]struct{}
}

// OpenDesk loads the event and its roster. The publisher may be nil.
func OpenDesk(ctx context.Context, eventID string, store Store, publisher events.Publisher) (*Desk, error) {
	d := &Desk{
		store:      store,
		reconciler: NewReconciler(store),
		publisher:  publisher,
		pending:    make(map[string]struct{}),
		used:       time.Now(),
	}

	var (
		ev      *Event
		entries []RosterEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ev, err = store.FindEvent(gctx, eventID)
		if err != nil {
			return fmt.Errorf("failed to load event: %w", err)
		}
		if ev == nil {
			return ErrEventNotFound
		}
		return nil
	})
	g.Go(func() error {
		var err error
		entries, err = store.ListRoster(gctx, eventID)
		if err != nil {
			return fmt.Errorf("failed to load roster: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.event = *ev
	d.roster = Roster{EventID: eventID, Entries: entries, LoadedAt: time.Now().UTC()}
	return d, nil
}

func (d *Desk) Event() Event {
	d.rmu.RLock()
	defer d.rmu.RUnlock()
	return d.event
}

// Snapshot returns the current roster without touching the store.
func (d *Desk) Snapshot() Roster {
	d.rmu.RLock()
	defer d.rmu.RUnlock()
	return d.roster
}

func (d *Desk) lastUsed() time.Time {
	d.rmu.RLock()
	defer d.rmu.RUnlock()
	return d.used
}

// Reload refetches the roster. Concurrent callers share one query.
func (d *Desk) Reload(ctx context.Context) (Roster, error) {
	return d.reload(ctx, false)
}

// reload with fresh set starts a new query instead of joining one that may
// have begun before the caller's write.
func (d *Desk) reload(ctx context.Context, fresh bool) (Roster, error) {
	eventID := d.Snapshot().EventID
	if fresh {
		d.loads.Forget("roster")
	}
	v, err, _ := d.loads.Do("roster", func() (any, error) {
		d.rmu.Lock()
		d.loadSeq++
		seq := d.loadSeq
		d.rmu.Unlock()

		entries, err := d.store.ListRoster(ctx, eventID)
		if err != nil {
			return nil, err
		}
		r := Roster{EventID: eventID, Entries: entries, LoadedAt: time.Now().UTC()}

		d.rmu.Lock()
		defer d.rmu.Unlock()
		d.used = time.Now()
		if seq > d.installed {
			d.roster, d.installed = r, seq
		}
		return d.roster, nil
	})
	if err != nil {
		return Roster{}, fmt.Errorf("failed to reload roster: %w", err)
	}
	return v.(Roster), nil
}

func (d *Desk) touch() {
	d.rmu.Lock()
	d.used = time.Now()
	d.rmu.Unlock()
}

// CheckIn runs the reconciler for a registration and applies its effects.
func (d *Desk) CheckIn(ctx context.Context, registrationID string, via Via) Result {
	ctx, span := obs.Tracer("attendance").Start(ctx, "checkin.CheckIn")
	defer span.End()
	span.SetAttributes(
		attribute.String("event.id", d.Event().ID),
		attribute.String("registration.id", registrationID),
		attribute.String("checkin.via", string(via)),
	)

	d.mu.Lock()
	defer d.mu.Unlock()

	res := d.reconciler.CheckIn(ctx, registrationID, d.Snapshot())
	span.SetAttributes(attribute.String("checkin.outcome", res.Outcome.String()))

	switch res.Outcome {
	case OutcomeFailed:
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, "persist check-in")
		logger.ErrorContext(ctx, "Failed to persist check-in", "registration_id", registrationID, "error", res.Err)
	case OutcomeSuccess:
		logger.InfoContext(ctx, "Checked in", "registration_id", registrationID, "via", via)
	}

	if res.Has(EffectReloadRoster) {
		if _, err := d.reload(ctx, true); err != nil {
			// keep the snapshot consistent with the write we just made
			logger.WarnContext(ctx, "Roster reload failed after check-in", "error", err)
			if res.Entry != nil {
				at := time.Now().UTC()
				if res.Entry.CheckedInAt != nil {
					at = *res.Entry.CheckedInAt
				}
				d.rmu.Lock()
				d.roster = d.roster.withAttended(registrationID, at)
				d.rmu.Unlock()
			}
		}
	}

	if res.Outcome == OutcomeSuccess {
		d.publishCheckedIn(ctx, *res.Entry, via)
	}
	return res
}

// Scan decodes pass text and checks the registration in. Text that is not a
// pass, or a pass for another event or a different user, never reaches the store.
func (d *Desk) Scan(ctx context.Context, text string) Result {
	return d.scan(ctx, text, ViaScan)
}

// ScanVia is Scan for callers that are not the admin camera, such as stations.
func (d *Desk) ScanVia(ctx context.Context, text string, via Via) Result {
	return d.scan(ctx, text, via)
}

func (d *Desk) scan(ctx context.Context, text string, via Via) Result {
	tok, err := credential.Decode(text)
	if err != nil {
		logger.DebugContext(ctx, "Rejected scanned text", "length", len(text))
		return Result{Outcome: OutcomeRejected}
	}
	if tok.EventID != d.Event().ID {
		return Result{Outcome: OutcomeNotFound}
	}
	if entry, ok := d.Snapshot().Find(tok.RegistrationID); ok && entry.UserID != tok.UserID {
		logger.WarnContext(ctx, "Pass user does not match registration", "registration_id", tok.RegistrationID)
		return Result{Outcome: OutcomeNotFound}
	}
	return d.CheckIn(ctx, tok.RegistrationID, via)
}

// Manual checks a registration in from the roster. While a manual check-in
// of the same registration is in flight a second one returns ErrCheckInPending.
func (d *Desk) Manual(ctx context.Context, registrationID string) (Result, error) {
	d.pmu.Lock()
	if _, busy := d.pending[registrationID]; busy {
		d.pmu.Unlock()
		return Result{}, ErrCheckInPending
	}
	d.pending[registrationID] = struct{}{}
	d.pmu.Unlock()

	defer func() {
		d.pmu.Lock()
		delete(d.pending, registrationID)
		d.pmu.Unlock()
	}()

	return d.CheckIn(ctx, registrationID, ViaManual), nil
}

// Pending reports whether a manual check-in of the registration is in flight.
func (d *Desk) Pending(registrationID string) bool {
	d.pmu.Lock()
	defer d.pmu.Unlock()
	_, ok := d.pending[registrationID]
	return ok
}

func (d *Desk) publishCheckedIn(ctx context.Context, e RosterEntry, via Via) {
	if d.publisher == nil {
		return
	}
	ev := d.Event()
	at := time.Now().UTC()
	if e.CheckedInAt != nil {
		at = *e.CheckedInAt
	}
	err := d.publisher.Publish(ctx, events.AttendanceCheckedIn, events.CheckedInEvent{
		RegistrationID: e.RegistrationID,
		EventID:        ev.ID,
		EventTitle:     ev.Title,
		UserID:         e.UserID,
		Email:          e.Email,
		FullName:       e.FullName,
		CheckedInAt:    at,
		Via:            string(via),
	})
	if err != nil {
		logger.ErrorContext(ctx, "Failed to publish check-in event", "error", err)
	}
}
