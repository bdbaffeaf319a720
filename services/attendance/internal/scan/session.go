// Package scan drives one live scanning session: it owns the camera stream,
// accepts decoded text only while Active and debounces between attempts.
package scan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/clubhive/clubhive/pkg/logger"
	"github.com/clubhive/clubhive/services/attendance/internal/checkin"
)

type State int

const (
	Idle State = iota
	Active
	Processing
	Cooldown
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Processing:
		return "processing"
	case Cooldown:
		return "cooldown"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var ErrClosed = errors.New("scan session closed")

// Camera is the video stream the session owns.
type Camera interface {
	Start(ctx context.Context) error
	// Stop releases the stream; calling it on a stopped camera is a no-op.
	Stop() error
}

// Dispatcher reconciles decoded text. *checkin.Desk implements it.
type Dispatcher interface {
	Scan(ctx context.Context, text string) checkin.Result
}

// Notifier receives state changes and notices. Implementations must not
// block and must not call back into the Session.
type Notifier interface {
	StateChanged(State)
	Notify(checkin.Notice)
}

type timer interface {
	Stop() bool
}

type Session struct {
	camera   Camera
	dispatch Dispatcher
	notify   Notifier
	cooldown time.Duration
	after    func(time.Duration, func()) timer

	mu            sync.Mutex
	state         State
	cameraOn      bool
	starting      bool
	abortStart    bool
	stopRequested bool
	closed        bool
	pending       timer
	gen           uint64
}

func NewSession(camera Camera, dispatch Dispatcher, notify Notifier, cooldown time.Duration) *Session {
	return &Session{
		camera:   camera,
		dispatch: dispatch,
		notify:   notify,
		cooldown: cooldown,
		after: func(d time.Duration, f func()) timer {
			return time.AfterFunc(d, f)
		},
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(st State) {
	if s.state == st {
		return
	}
	s.state = st
	s.notify.StateChanged(st)
}

// Start acquires the camera. A start failure is reported once and the
// session stays Idle. Starting during Processing or Cooldown after a stop
// withdraws the stop. The lock is not held while the camera starts, so a
// Stop or Close arriving meanwhile wins.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.starting || s.state == Active || ((s.state == Processing || s.state == Cooldown) && !s.stopRequested) {
		s.mu.Unlock()
		return nil
	}
	s.starting = true
	s.abortStart = false
	s.mu.Unlock()

	err := s.camera.Start(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.starting = false
	if s.closed {
		if err == nil {
			s.releaseCamera()
		}
		return ErrClosed
	}
	if s.abortStart {
		s.abortStart = false
		if err == nil {
			s.releaseCamera()
		}
		return nil
	}
	if err != nil {
		s.reportCameraError(err)
		return err
	}
	s.cameraOn = true

	if s.state == Idle {
		s.setState(Active)
	} else {
		s.stopRequested = false
	}
	return nil
}

// Stop releases the camera at once. An attempt in flight still completes;
// the session then goes to Idle instead of Active.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.starting {
		s.abortStart = true
	}
	s.releaseCamera()
	switch s.state {
	case Active:
		s.setState(Idle)
	case Processing, Cooldown:
		s.stopRequested = true
	}
}

// OnDecodedText is the single entry point for text read by the camera.
// It is a no-op unless the session is Active. It returns after the
// attempt was reconciled and the cooldown scheduled.
func (s *Session) OnDecodedText(ctx context.Context, text string) {
	s.mu.Lock()
	if s.state != Active {
		s.mu.Unlock()
		return
	}
	s.setState(Processing)
	s.mu.Unlock()

	res := s.dispatch.Scan(ctx, text)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.notify.Notify(res.Notice())
	s.setState(Cooldown)
	s.gen++
	gen := s.gen
	s.pending = s.after(s.cooldown, func() { s.endCooldown(gen) })
}

func (s *Session) endCooldown(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || s.state != Cooldown || s.closed {
		return
	}
	s.pending = nil
	if s.stopRequested || !s.cameraOn {
		s.stopRequested = false
		s.setState(Idle)
		return
	}
	s.setState(Active)
}

// OnDecodeError is a frame without a readable code. It happens on most
// frames and is never shown to the user.
func (s *Session) OnDecodeError(err error) {
	logger.Debug("No code in frame", "error", err)
}

// OnCameraError is a failure of a running stream. It is reported once.
func (s *Session) OnCameraError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.cameraOn {
		return
	}
	s.cameraOn = false
	s.reportCameraError(err)
	switch s.state {
	case Active:
		s.setState(Idle)
	case Processing, Cooldown:
		s.stopRequested = true
	}
}

func (s *Session) reportCameraError(err error) {
	logger.Warn("Camera error", "error", err)
	s.notify.Notify(checkin.Notice{
		Kind:    checkin.NoticeError,
		Title:   "Camera Error",
		Message: fmt.Sprintf("Could not use the camera: %v", err),
	})
}

func (s *Session) releaseCamera() {
	if err := s.camera.Stop(); err != nil {
		logger.Warn("Failed to release camera", "error", err)
	}
	s.cameraOn = false
}

// Close ends the session for good and always releases the camera.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	s.releaseCamera()
	s.stopRequested = false
	s.abortStart = s.starting
	s.setState(Idle)
	s.closed = true
}
