package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/clubhive/clubhive/pkg/auth"
	"github.com/clubhive/clubhive/pkg/credential"
	"github.com/clubhive/clubhive/pkg/session"
	"github.com/clubhive/clubhive/services/attendance/internal/checkin"
	"github.com/clubhive/clubhive/services/attendance/internal/station"
	"github.com/gorilla/websocket"
)

const (
	eventID = "6f1c1d2e-0000-4000-8000-000000000001"
	userAda = "6f1c1d2e-0000-4000-8000-0000000000a1"
	regAda  = "6f1c1d2e-0000-4000-8000-0000000000b1"
)

// ---------- Mocks ----------

type mockStore struct {
	mu      sync.Mutex
	entries []checkin.RosterEntry
	writes  int
}

func (m *mockStore) FindEvent(_ context.Context, id string) (*checkin.Event, error) {
	if id != eventID {
		return nil, nil
	}
	return &checkin.Event{ID: eventID, Title: "Robotics Demo Day", Location: "Hall B"}, nil
}

func (m *mockStore) ListRoster(context.Context, string) ([]checkin.RosterEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]checkin.RosterEntry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

func (m *mockStore) MarkAttended(_ context.Context, id string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	for i := range m.entries {
		if m.entries[i].RegistrationID == id && !m.entries[i].Attended {
			m.entries[i].Attended = true
			m.entries[i].CheckedInAt = &at
			return true, nil
		}
	}
	return false, nil
}

type mockStations struct {
	st  station.Station
	key string
}

func (m *mockStations) Create(_ context.Context, eventID, label, createdBy string) (*station.Station, string, error) {
	m.st = station.Station{ID: "st-1", EventID: eventID, Label: label, CreatedBy: createdBy}
	m.key = "k-1"
	return &m.st, m.key, nil
}

func (m *mockStations) List(context.Context, string) ([]station.Station, error) {
	return []station.Station{m.st}, nil
}

func (m *mockStations) Authenticate(_ context.Context, id, key string) (*station.Station, error) {
	if id != m.st.ID || key != m.key || key == "" {
		return nil, station.ErrInvalidKey
	}
	return &m.st, nil
}

func (m *mockStations) Revoke(context.Context, string) error { return nil }

func asAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := session.New("sid", "admin-1", "admin@example.com", auth.RoleAdmin, session.Profile{})
		next.ServeHTTP(w, r.WithContext(session.NewContext(r.Context(), s)))
	})
}

func passthrough(next http.Handler) http.Handler { return next }

func setup(t *testing.T) (*httptest.Server, *mockStore, *mockStations) {
	t.Helper()
	store := &mockStore{entries: []checkin.RosterEntry{
		{RegistrationID: regAda, EventID: eventID, UserID: userAda, FullName: "Ada Lovelace"},
	}}
	stations := &mockStations{}
	h := New(checkin.NewDesks(store, nil), stations, 20*time.Millisecond)
	srv := httptest.NewServer(h.Routes(asAdmin, passthrough))
	t.Cleanup(srv.Close)
	return srv, store, stations
}

func postJSON(t *testing.T, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	b, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out map[string]any
	json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

// ---------- HTTP ----------

func TestRoster(t *testing.T) {
	srv, _, _ := setup(t)

	resp, err := http.Get(srv.URL + "/admin/events/" + eventID + "/roster")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body rosterResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Roster.Entries) != 1 || body.Summary.Registered != 1 || body.Event.Title != "Robotics Demo Day" {
		t.Errorf("body = %+v", body)
	}

	for _, id := range []string{"not-a-uuid", "6f1c1d2e-0000-4000-8000-00000000ffff"} {
		resp, _ := http.Get(srv.URL + "/admin/events/" + id + "/roster")
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("roster of %s: status %d, want 404", id, resp.StatusCode)
		}
	}
}

func TestManualCheckIn(t *testing.T) {
	srv, store, _ := setup(t)
	url := srv.URL + "/admin/events/" + eventID + "/checkins/manual"

	resp, body := postJSON(t, url, manualRequest{RegistrationID: regAda})
	if resp.StatusCode != http.StatusOK || body["outcome"] != "success" {
		t.Fatalf("first: %d %v", resp.StatusCode, body)
	}
	notice := body["notice"].(map[string]any)
	if notice["message"] != "Ada Lovelace marked as attended!" {
		t.Errorf("notice = %v", notice)
	}

	resp, body = postJSON(t, url, manualRequest{RegistrationID: regAda})
	if resp.StatusCode != http.StatusOK || body["outcome"] != "already_attended" {
		t.Errorf("second: %d %v", resp.StatusCode, body)
	}

	resp, _ = postJSON(t, url, manualRequest{RegistrationID: "nobody"})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown: %d", resp.StatusCode)
	}

	resp, _ = postJSON(t, url, map[string]string{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty: %d", resp.StatusCode)
	}

	if store.writes != 1 {
		t.Errorf("writes = %d, want 1", store.writes)
	}
}

func TestScanCheckIn(t *testing.T) {
	srv, store, _ := setup(t)
	url := srv.URL + "/admin/events/" + eventID + "/checkins/scan"

	resp, body := postJSON(t, url, scanRequest{Text: "https://example.com"})
	if resp.StatusCode != http.StatusUnprocessableEntity || body["outcome"] != "invalid_credential" {
		t.Errorf("garbage: %d %v", resp.StatusCode, body)
	}

	resp, body = postJSON(t, url, scanRequest{Text: credential.Encode(eventID, userAda, regAda)})
	if resp.StatusCode != http.StatusOK || body["outcome"] != "success" {
		t.Errorf("pass: %d %v", resp.StatusCode, body)
	}
	if store.writes != 1 {
		t.Errorf("writes = %d", store.writes)
	}
}

// ---------- WebSocket ----------

type wsClient struct {
	t  *testing.T
	wc *websocket.Conn
}

func dial(t *testing.T, url string) *wsClient {
	t.Helper()
	wc, resp, err := websocket.DefaultDialer.Dial(strings.Replace(url, "http", "ws", 1), nil)
	if err != nil {
		code := 0
		if resp != nil {
			code = resp.StatusCode
		}
		t.Fatalf("dial %s: %v (status %d)", url, err, code)
	}
	t.Cleanup(func() { wc.Close() })
	return &wsClient{t: t, wc: wc}
}

func (c *wsClient) send(f clientFrame) {
	c.t.Helper()
	if err := c.wc.WriteJSON(f); err != nil {
		c.t.Fatal(err)
	}
}

// next reads frames until one matches typ.
func (c *wsClient) next(typ string) serverFrame {
	c.t.Helper()
	c.wc.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var f serverFrame
		if err := c.wc.ReadJSON(&f); err != nil {
			c.t.Fatalf("waiting for %q: %v", typ, err)
		}
		if f.Type == typ {
			return f
		}
	}
}

func (c *wsClient) nextState(want string) {
	c.t.Helper()
	for {
		if f := c.next("state"); f.State == want {
			return
		}
	}
}

func TestScanSessionOverWebSocket(t *testing.T) {
	srv, store, _ := setup(t)
	c := dial(t, srv.URL+"/admin/events/"+eventID+"/scan")

	hello := c.next("hello")
	if hello.State != "idle" || hello.Event == nil || hello.Event.ID != eventID {
		t.Fatalf("hello = %+v", hello)
	}

	c.send(clientFrame{Type: frameStart})
	if f := c.next("camera"); f.Action != "start" {
		t.Fatalf("camera frame = %+v", f)
	}
	c.send(clientFrame{Type: frameCameraReady})
	c.nextState("active")

	c.send(clientFrame{Type: frameDecodeError, Error: "no code in frame"})
	pass := credential.Encode(eventID, userAda, regAda)
	c.send(clientFrame{Type: frameDecoded, Text: pass})

	n := c.next("notice")
	if n.Notice == nil || n.Notice.Title != "Attendance Recorded" {
		t.Fatalf("notice = %+v", n.Notice)
	}
	c.nextState("cooldown")
	c.nextState("active")

	c.send(clientFrame{Type: frameDecoded, Text: pass})
	if n := c.next("notice"); n.Notice.Title != "Already Attended" {
		t.Errorf("second notice = %+v", n.Notice)
	}
	c.nextState("active")

	c.send(clientFrame{Type: frameStop})
	if f := c.next("camera"); f.Action != "stop" {
		t.Errorf("camera frame = %+v", f)
	}
	c.nextState("idle")

	store.mu.Lock()
	defer store.mu.Unlock()
	if store.writes != 1 {
		t.Errorf("writes = %d, want 1", store.writes)
	}
}

func TestScanSessionCameraDenied(t *testing.T) {
	srv, _, _ := setup(t)
	c := dial(t, srv.URL+"/admin/events/"+eventID+"/scan")
	c.next("hello")

	c.send(clientFrame{Type: frameStart})
	c.next("camera")
	c.send(clientFrame{Type: frameCameraError, Error: "NotAllowedError"})

	n := c.next("notice")
	if n.Notice.Title != "Camera Error" {
		t.Errorf("notice = %+v", n.Notice)
	}

	// still idle: decoded text is ignored and produces no notice
	c.send(clientFrame{Type: frameDecoded, Text: credential.Encode(eventID, userAda, regAda)})
	c.send(clientFrame{Type: "bogus"})
	if f := c.next("error"); !strings.Contains(f.Error, "bogus") {
		t.Errorf("error frame = %+v", f)
	}
}

func TestStationScanSession(t *testing.T) {
	srv, _, stations := setup(t)

	resp, body := postJSON(t, srv.URL+"/admin/events/"+eventID+"/stations", createStationRequest{Label: "Door"})
	if resp.StatusCode != http.StatusCreated || body["key"] != "k-1" {
		t.Fatalf("create station: %d %v", resp.StatusCode, body)
	}

	bad, err := http.Get(srv.URL + "/stations/scan?station_id=st-1&key=wrong")
	if err != nil {
		t.Fatal(err)
	}
	bad.Body.Close()
	if bad.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong key: status %d", bad.StatusCode)
	}

	c := dial(t, srv.URL+"/stations/scan?station_id=st-1&key="+stations.key)
	if hello := c.next("hello"); hello.Event.ID != eventID {
		t.Errorf("hello = %+v", hello)
	}
}
