package scan

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/clubhive/clubhive/services/attendance/internal/checkin"
)

type fakeCamera struct {
	mu       sync.Mutex
	startErr error
	// startHook runs inside Start before it returns
	startHook func()
	starts   int
	stops    int
	running  bool
}

func (c *fakeCamera) Start(context.Context) error {
	c.mu.Lock()
	hook := c.startHook
	c.mu.Unlock()
	if hook != nil {
		hook()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.starts++
	if c.startErr != nil {
		return c.startErr
	}
	c.running = true
	return nil
}

func (c *fakeCamera) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stops++
	c.running = false
	return nil
}

func (c *fakeCamera) isRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

type fakeDispatcher struct {
	mu      sync.Mutex
	texts   []string
	outcome checkin.Outcome
	// hook runs inside Scan, while the session is Processing
	hook func()
}

func (d *fakeDispatcher) Scan(_ context.Context, text string) checkin.Result {
	d.mu.Lock()
	d.texts = append(d.texts, text)
	hook := d.hook
	d.mu.Unlock()
	if hook != nil {
		hook()
	}
	e := checkin.RosterEntry{RegistrationID: "r1", FullName: "Ada"}
	return checkin.Result{Outcome: d.outcome, Entry: &e}
}

func (d *fakeDispatcher) calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.texts)
}

type fakeNotifier struct {
	mu      sync.Mutex
	states  []State
	notices []checkin.Notice
}

func (n *fakeNotifier) StateChanged(s State) {
	n.mu.Lock()
	n.states = append(n.states, s)
	n.mu.Unlock()
}

func (n *fakeNotifier) Notify(no checkin.Notice) {
	n.mu.Lock()
	n.notices = append(n.notices, no)
	n.mu.Unlock()
}

func (n *fakeNotifier) titles() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, no := range n.notices {
		out = append(out, no.Title)
	}
	return out
}

// manualTimers fires cooldowns on demand.
type manualTimers struct {
	mu      sync.Mutex
	pending []*manualTimer
}

type manualTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (m *manualTimers) after(d time.Duration, f func()) timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{d: d, f: f}
	m.pending = append(m.pending, t)
	return t
}

func (m *manualTimers) fire() int {
	m.mu.Lock()
	ts := m.pending
	m.pending = nil
	m.mu.Unlock()
	n := 0
	for _, t := range ts {
		if !t.stopped {
			t.f()
			n++
		}
	}
	return n
}

type harness struct {
	cam    *fakeCamera
	disp   *fakeDispatcher
	notif  *fakeNotifier
	timers *manualTimers
	sess   *Session
}

func newHarness() *harness {
	h := &harness{
		cam:    &fakeCamera{},
		disp:   &fakeDispatcher{outcome: checkin.OutcomeSuccess},
		notif:  &fakeNotifier{},
		timers: &manualTimers{},
	}
	h.sess = NewSession(h.cam, h.disp, h.notif, time.Second)
	h.sess.after = h.timers.after
	return h
}

func TestDecodedTextIgnoredUnlessActive(t *testing.T) {
	h := newHarness()
	h.sess.OnDecodedText(context.Background(), "CLUBHIVE-e1-u1-r1")
	if h.disp.calls() != 0 {
		t.Fatal("text dispatched while Idle")
	}
}

func TestScanCycleDebounces(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	if err := h.sess.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if h.sess.State() != Active {
		t.Fatalf("State = %v, want active", h.sess.State())
	}

	h.sess.OnDecodedText(ctx, "CLUBHIVE-e1-u1-r1")
	if h.sess.State() != Cooldown {
		t.Fatalf("State = %v, want cooldown", h.sess.State())
	}

	// the camera keeps reading the same pass during cooldown
	for i := 0; i < 5; i++ {
		h.sess.OnDecodedText(ctx, "CLUBHIVE-e1-u1-r1")
	}
	if h.disp.calls() != 1 {
		t.Errorf("dispatched %d times during one cooldown, want 1", h.disp.calls())
	}
	if got := h.timers.pending[0].d; got != time.Second {
		t.Errorf("cooldown = %v, want 1s", got)
	}

	h.timers.fire()
	if h.sess.State() != Active {
		t.Fatalf("State after cooldown = %v, want active", h.sess.State())
	}
	h.sess.OnDecodedText(ctx, "CLUBHIVE-e1-u2-r2")
	if h.disp.calls() != 2 {
		t.Errorf("dispatched %d, want 2 after cooldown", h.disp.calls())
	}

	want := []State{Active, Processing, Cooldown, Active, Processing, Cooldown}
	if len(h.notif.states) != len(want) {
		t.Fatalf("states = %v, want %v", h.notif.states, want)
	}
	for i := range want {
		if h.notif.states[i] != want[i] {
			t.Errorf("states = %v, want %v", h.notif.states, want)
			break
		}
	}
}

func TestTextDuringProcessingIsDropped(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.sess.Start(ctx)
	h.disp.hook = func() {
		if h.sess.State() != Processing {
			t.Errorf("State in dispatch = %v, want processing", h.sess.State())
		}
		h.sess.OnDecodedText(ctx, "CLUBHIVE-e1-u1-r1")
	}
	h.sess.OnDecodedText(ctx, "CLUBHIVE-e1-u1-r1")
	if h.disp.calls() != 1 {
		t.Errorf("dispatched %d, want 1", h.disp.calls())
	}
}

func TestCooldownFollowsEveryOutcome(t *testing.T) {
	for _, o := range []checkin.Outcome{checkin.OutcomeAlreadyAttended, checkin.OutcomeNotFound, checkin.OutcomeFailed, checkin.OutcomeRejected} {
		h := newHarness()
		h.disp.outcome = o
		h.sess.Start(context.Background())
		h.sess.OnDecodedText(context.Background(), "x")
		if h.sess.State() != Cooldown {
			t.Errorf("%v: State = %v, want cooldown", o, h.sess.State())
		}
		if len(h.notif.notices) != 1 {
			t.Errorf("%v: %d notices, want 1", o, len(h.notif.notices))
		}
	}
}

func TestStopDuringProcessingEndsIdle(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.sess.Start(ctx)
	h.disp.hook = func() { h.sess.Stop() }

	h.sess.OnDecodedText(ctx, "CLUBHIVE-e1-u1-r1")
	if h.cam.isRunning() {
		t.Error("camera still running after Stop")
	}
	if h.sess.State() != Cooldown {
		t.Fatalf("State = %v, want cooldown", h.sess.State())
	}
	h.timers.fire()
	if h.sess.State() != Idle {
		t.Errorf("State after cooldown = %v, want idle", h.sess.State())
	}
	// the outcome of the attempt was still shown
	if titles := h.notif.titles(); len(titles) != 1 || titles[0] != "Attendance Recorded" {
		t.Errorf("notices = %v", titles)
	}
}

func TestStartDuringCooldownWithdrawsStop(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.sess.Start(ctx)
	h.sess.OnDecodedText(ctx, "a")
	h.sess.Stop()
	if err := h.sess.Start(ctx); err != nil {
		t.Fatal(err)
	}
	h.timers.fire()
	if h.sess.State() != Active {
		t.Errorf("State = %v, want active", h.sess.State())
	}
	if !h.cam.isRunning() {
		t.Error("camera not running")
	}
}

func TestStartFailureReportedOnceAndStaysIdle(t *testing.T) {
	h := newHarness()
	h.cam.startErr = errors.New("NotAllowedError: permission denied")

	if err := h.sess.Start(context.Background()); err == nil {
		t.Fatal("Start succeeded with failing camera")
	}
	if h.sess.State() != Idle {
		t.Errorf("State = %v, want idle", h.sess.State())
	}
	if titles := h.notif.titles(); len(titles) != 1 || titles[0] != "Camera Error" {
		t.Errorf("notices = %v, want one camera error", titles)
	}
	h.sess.OnDecodedText(context.Background(), "CLUBHIVE-e1-u1-r1")
	if h.disp.calls() != 0 {
		t.Error("dispatched without a running camera")
	}
}

func TestCameraErrorWhileActive(t *testing.T) {
	h := newHarness()
	h.sess.Start(context.Background())

	h.sess.OnCameraError(errors.New("track ended"))
	h.sess.OnCameraError(errors.New("track ended"))
	if h.sess.State() != Idle {
		t.Errorf("State = %v, want idle", h.sess.State())
	}
	if n := len(h.notif.titles()); n != 1 {
		t.Errorf("%d notices, want 1", n)
	}
}

func TestDecodeErrorChangesNothing(t *testing.T) {
	h := newHarness()
	h.sess.Start(context.Background())
	h.sess.OnDecodeError(errors.New("No MultiFormat Readers were able to detect the code"))
	if h.sess.State() != Active || len(h.notif.notices) != 0 {
		t.Errorf("decode error changed state %v or notified %v", h.sess.State(), h.notif.notices)
	}
}

func TestCloseReleasesCameraAndCancelsCooldown(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.sess.Start(ctx)
	h.sess.OnDecodedText(ctx, "a")
	h.sess.Close()

	if h.cam.isRunning() {
		t.Error("camera running after Close")
	}
	if n := h.timers.fire(); n != 0 {
		t.Errorf("%d cooldown timers fired after Close", n)
	}
	if h.sess.State() != Idle {
		t.Errorf("State = %v, want idle", h.sess.State())
	}
	if err := h.sess.Start(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("Start after Close err = %v, want ErrClosed", err)
	}
}

func TestStaleCooldownTimerIgnored(t *testing.T) {
	h := newHarness()
	h.sess.Start(context.Background())
	h.sess.OnDecodedText(context.Background(), "a")
	h.sess.endCooldown(h.sess.gen + 1)
	if h.sess.State() != Cooldown {
		t.Errorf("State = %v after stale timer, want cooldown", h.sess.State())
	}
}

func TestStopWhileCameraStarting(t *testing.T) {
	h := newHarness()
	h.cam.startHook = func() { h.sess.Stop() }

	if err := h.sess.Start(context.Background()); err != nil {
		t.Fatalf("Start err = %v", err)
	}
	if h.sess.State() != Idle {
		t.Errorf("State = %v, want idle", h.sess.State())
	}
	if h.cam.isRunning() {
		t.Error("camera left running after Stop during start")
	}
	if len(h.notif.notices) != 0 {
		t.Errorf("notices = %v, want none", h.notif.titles())
	}
}

func TestCloseWhileCameraStarting(t *testing.T) {
	h := newHarness()
	h.cam.startHook = func() { h.sess.Close() }

	if err := h.sess.Start(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("Start err = %v, want ErrClosed", err)
	}
	if h.cam.isRunning() {
		t.Error("camera left running after Close during start")
	}
	if h.sess.State() != Idle {
		t.Errorf("State = %v, want idle", h.sess.State())
	}
}
