package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/clubhive/clubhive/pkg/logger"
	"github.com/clubhive/clubhive/pkg/response"
	"github.com/clubhive/clubhive/services/attendance/internal/checkin"
	"github.com/clubhive/clubhive/services/attendance/internal/scan"
	"github.com/clubhive/clubhive/services/attendance/internal/station"
	"github.com/gorilla/websocket"
)

const (
	writeTimeout     = 10 * time.Second
	pongTimeout      = 60 * time.Second
	pingInterval     = 50 * time.Second
	cameraAckTimeout = 15 * time.Second
	maxFrameSize     = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// origins are enforced by the gateway's CORS policy
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Frames sent by the scanning client.
const (
	frameStart       = "start"
	frameStop        = "stop"
	frameCameraReady = "camera_ready"
	frameCameraError = "camera_error"
	frameDecoded     = "decoded"
	frameDecodeError = "decode_error"
)

type clientFrame struct {
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

type serverFrame struct {
	Type   string          `json:"type"`
	State  string          `json:"state,omitempty"`
	Action string          `json:"action,omitempty"`
	Notice *checkin.Notice `json:"notice,omitempty"`
	Event  *checkin.Event  `json:"event,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// outbox serializes writes to one connection.
type outbox struct {
	ch   chan serverFrame
	done chan struct{}
	once sync.Once
}

func newOutbox() *outbox {
	return &outbox{ch: make(chan serverFrame, 64), done: make(chan struct{})}
}

func (o *outbox) send(f serverFrame) {
	select {
	case <-o.done:
	case o.ch <- f:
	default:
		logger.Warn("Scan session outbox full, dropping frame", "type", f.Type)
	}
}

func (o *outbox) close() {
	o.once.Do(func() { close(o.done) })
}

func (o *outbox) run(wc *websocket.Conn) {
	t := time.NewTicker(pingInterval)
	defer t.Stop()
	defer wc.Close()
	for {
		select {
		case f := <-o.ch:
			wc.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := wc.WriteJSON(f); err != nil {
				o.close()
				return
			}
		case <-t.C:
			wc.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := wc.WriteMessage(websocket.PingMessage, nil); err != nil {
				o.close()
				return
			}
		case <-o.done:
			wc.SetWriteDeadline(time.Now().Add(writeTimeout))
			wc.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// notifier forwards session output to the client.
type notifier struct{ out *outbox }

func (n notifier) StateChanged(s scan.State) {
	n.out.send(serverFrame{Type: "state", State: s.String()})
}

func (n notifier) Notify(no checkin.Notice) {
	n.out.send(serverFrame{Type: "notice", Notice: &no})
}

var errCameraStopped = errors.New("camera stopped")

// remoteCamera is the browser camera: it is commanded with frames and
// acknowledges a start with camera_ready or camera_error.
type remoteCamera struct {
	out *outbox

	mu      sync.Mutex
	waiting chan error
}

func (c *remoteCamera) Start(ctx context.Context) error {
	ack := make(chan error, 1)
	c.mu.Lock()
	c.waiting = ack
	c.mu.Unlock()

	c.out.send(serverFrame{Type: "camera", Action: "start"})

	ctx, cancel := context.WithTimeout(ctx, cameraAckTimeout)
	defer cancel()
	select {
	case err := <-ack:
		return err
	case <-ctx.Done():
		c.resolve(ctx.Err())
		return errors.New("camera did not start in time")
	}
}

func (c *remoteCamera) Stop() error {
	c.resolve(errCameraStopped)
	c.out.send(serverFrame{Type: "camera", Action: "stop"})
	return nil
}

// resolve answers a pending start and reports whether one was pending.
func (c *remoteCamera) resolve(err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.waiting == nil {
		return false
	}
	c.waiting <- err
	c.waiting = nil
	return true
}

// ScanSession runs a live scan session for an admin over a WebSocket.
func (h *Handlers) ScanSession(w http.ResponseWriter, r *http.Request) {
	d, ok := h.desk(w, r)
	if !ok {
		return
	}
	h.serveScan(w, r, d, d)
}

// StationScanSession is ScanSession for a kiosk authenticated by station credentials.
func (h *Handlers) StationScanSession(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	st, err := h.stations.Authenticate(r.Context(), q.Get("station_id"), q.Get("key"))
	if errors.Is(err, station.ErrInvalidKey) {
		response.Unauthorized(w, "Invalid station credentials")
		return
	}
	if err != nil {
		logger.ErrorContext(r.Context(), "Station authentication failed", "error", err)
		response.InternalError(w, "Failed to authenticate station")
		return
	}

	d, err := h.desks.Get(r.Context(), st.EventID)
	if errors.Is(err, checkin.ErrEventNotFound) {
		response.NotFound(w, "Event not found")
		return
	}
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to open check-in desk", "error", err)
		response.InternalError(w, "Failed to load event")
		return
	}
	h.serveScan(w, r, d, stationDispatcher{desk: d})
}

type stationDispatcher struct{ desk *checkin.Desk }

func (s stationDispatcher) Scan(ctx context.Context, text string) checkin.Result {
	return s.desk.ScanVia(ctx, text, checkin.ViaStation)
}

func (h *Handlers) serveScan(w http.ResponseWriter, r *http.Request, d *checkin.Desk, dispatch scan.Dispatcher) {
	wc, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WarnContext(r.Context(), "Scan session upgrade failed", "error", err)
		return
	}

	// detach from the request so a finishing handler does not cancel reconciliations
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	out := newOutbox()
	go out.run(wc)
	defer out.close()

	cam := &remoteCamera{out: out}
	sess := scan.NewSession(cam, dispatch, notifier{out: out}, h.cooldown)
	defer sess.Close()

	ev := d.Event()
	out.send(serverFrame{Type: "hello", State: sess.State().String(), Event: &ev})
	logger.InfoContext(ctx, "Scan session opened", "event_id", ev.ID)

	wc.SetReadLimit(maxFrameSize)
	wc.SetReadDeadline(time.Now().Add(pongTimeout))
	wc.SetPongHandler(func(string) error {
		return wc.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	for {
		op, data, err := wc.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.WarnContext(ctx, "Scan session read failed", "error", err)
			}
			break
		}
		if op != websocket.TextMessage {
			continue
		}
		wc.SetReadDeadline(time.Now().Add(pongTimeout))

		var f clientFrame
		if err := json.Unmarshal(data, &f); err != nil {
			out.send(serverFrame{Type: "error", Error: "malformed frame"})
			continue
		}

		switch f.Type {
		case frameStart:
			go sess.Start(ctx)
		case frameStop:
			sess.Stop()
		case frameCameraReady:
			cam.resolve(nil)
		case frameCameraError:
			camErr := errors.New(f.Error)
			if !cam.resolve(camErr) {
				sess.OnCameraError(camErr)
			}
		case frameDecoded:
			go sess.OnDecodedText(ctx, f.Text)
		case frameDecodeError:
			sess.OnDecodeError(errors.New(f.Error))
		default:
			out.send(serverFrame{Type: "error", Error: "unknown frame type " + f.Type})
		}
	}
	logger.InfoContext(ctx, "Scan session closed", "event_id", ev.ID)
}
