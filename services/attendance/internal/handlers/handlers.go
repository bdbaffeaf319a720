package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/clubhive/clubhive/pkg/logger"
	"github.com/clubhive/clubhive/pkg/response"
	"github.com/clubhive/clubhive/pkg/session"
	"github.com/clubhive/clubhive/services/attendance/internal/checkin"
	"github.com/clubhive/clubhive/services/attendance/internal/station"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type Handlers struct {
	desks    *checkin.Desks
	stations station.Repository
	cooldown time.Duration
}

func New(desks *checkin.Desks, stations station.Repository, cooldown time.Duration) *Handlers {
	return &Handlers{desks: desks, stations: stations, cooldown: cooldown}
}

// Routes mounts the attendance API. requireAdmin authenticates admin
// sessions; limit throttles one-shot check-ins.
func (h *Handlers) Routes(requireAdmin, limit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Route("/admin", func(r chi.Router) {
		r.Use(requireAdmin)
		r.Route("/events/{eventID}", func(r chi.Router) {
			r.Get("/roster", h.Roster)
			r.Get("/summary", h.Summary)
			r.With(limit).Post("/checkins/manual", h.ManualCheckIn)
			r.With(limit).Post("/checkins/scan", h.ScanCheckIn)
			r.Get("/scan", h.ScanSession)
			r.Get("/stations", h.ListStations)
			r.Post("/stations", h.CreateStation)
		})
		r.Delete("/stations/{stationID}", h.RevokeStation)
	})

	r.Get("/stations/scan", h.StationScanSession)
	return r
}

// desk resolves the event in the path; it writes the error reply itself.
func (h *Handlers) desk(w http.ResponseWriter, r *http.Request) (*checkin.Desk, bool) {
	eventID := chi.URLParam(r, "eventID")
	if _, err := uuid.Parse(eventID); err != nil {
		response.NotFound(w, "Event not found")
		return nil, false
	}
	d, err := h.desks.Get(r.Context(), eventID)
	if errors.Is(err, checkin.ErrEventNotFound) {
		response.NotFound(w, "Event not found")
		return nil, false
	}
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to open check-in desk", "event_id", eventID, "error", err)
		response.InternalError(w, "Failed to load event")
		return nil, false
	}
	return d, true
}

type rosterResponse struct {
	Event   checkin.Event   `json:"event"`
	Roster  checkin.Roster  `json:"roster"`
	Summary checkin.Summary `json:"summary"`
	// Pending lists registrations with a manual check-in in flight.
	Pending []string `json:"pending"`
}

func (h *Handlers) Roster(w http.ResponseWriter, r *http.Request) {
	d, ok := h.desk(w, r)
	if !ok {
		return
	}
	roster, err := d.Reload(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to fetch registrations", "error", err)
		response.InternalError(w, "Failed to fetch registrations")
		return
	}
	pending := []string{}
	for _, e := range roster.Entries {
		if d.Pending(e.RegistrationID) {
			pending = append(pending, e.RegistrationID)
		}
	}
	response.JSON(w, http.StatusOK, rosterResponse{
		Event:   d.Event(),
		Roster:  roster,
		Summary: roster.Summary(),
		Pending: pending,
	})
}

func (h *Handlers) Summary(w http.ResponseWriter, r *http.Request) {
	d, ok := h.desk(w, r)
	if !ok {
		return
	}
	roster, err := d.Reload(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to fetch registrations", "error", err)
		response.InternalError(w, "Failed to fetch registrations")
		return
	}
	response.JSON(w, http.StatusOK, roster.Summary())
}

type checkInResponse struct {
	checkin.Result
	Notice checkin.Notice `json:"notice"`
}

// writeResult maps an outcome to a status. Duplicates are informational and
// reported with 200; only a failed write is a server error.
func writeResult(w http.ResponseWriter, res checkin.Result) {
	status := http.StatusOK
	switch res.Outcome {
	case checkin.OutcomeNotFound:
		status = http.StatusNotFound
	case checkin.OutcomeRejected:
		status = http.StatusUnprocessableEntity
	case checkin.OutcomeFailed:
		status = http.StatusBadGateway
	}
	response.JSON(w, status, checkInResponse{Result: res, Notice: res.Notice()})
}

type manualRequest struct {
	RegistrationID string `json:"registration_id"`
}

func (h *Handlers) ManualCheckIn(w http.ResponseWriter, r *http.Request) {
	var req manualRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.RegistrationID) == "" {
		response.BadRequest(w, "registration_id is required")
		return
	}
	d, ok := h.desk(w, r)
	if !ok {
		return
	}

	res, err := d.Manual(r.Context(), strings.TrimSpace(req.RegistrationID))
	if errors.Is(err, checkin.ErrCheckInPending) {
		response.WriteError(w, http.StatusConflict, "Check-in already in progress", response.CodeCheckInPending)
		return
	}
	writeResult(w, res)
}

type scanRequest struct {
	Text string `json:"text"`
}

func (h *Handlers) ScanCheckIn(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		response.BadRequest(w, "text is required")
		return
	}
	d, ok := h.desk(w, r)
	if !ok {
		return
	}
	writeResult(w, d.Scan(r.Context(), req.Text))
}

type createStationRequest struct {
	Label string `json:"label"`
}

type createStationResponse struct {
	Station *station.Station `json:"station"`
	// Key is shown once.
	Key string `json:"key"`
}

func (h *Handlers) CreateStation(w http.ResponseWriter, r *http.Request) {
	var req createStationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON payload")
		return
	}
	req.Label = strings.TrimSpace(req.Label)
	if req.Label == "" {
		req.Label = "Scan station"
	}
	d, ok := h.desk(w, r)
	if !ok {
		return
	}
	s, _ := session.FromContext(r.Context())

	st, key, err := h.stations.Create(r.Context(), d.Event().ID, req.Label, s.UserID())
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to create station", "error", err)
		response.InternalError(w, "Failed to create station")
		return
	}
	logger.InfoContext(r.Context(), "Scan station created", "station_id", st.ID, "event_id", st.EventID)
	response.JSON(w, http.StatusCreated, createStationResponse{Station: st, Key: key})
}

func (h *Handlers) ListStations(w http.ResponseWriter, r *http.Request) {
	d, ok := h.desk(w, r)
	if !ok {
		return
	}
	list, err := h.stations.List(r.Context(), d.Event().ID)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to list stations", "error", err)
		response.InternalError(w, "Failed to list stations")
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"stations": list})
}

func (h *Handlers) RevokeStation(w http.ResponseWriter, r *http.Request) {
	if err := h.stations.Revoke(r.Context(), chi.URLParam(r, "stationID")); err != nil {
		logger.ErrorContext(r.Context(), "Failed to revoke station", "error", err)
		response.InternalError(w, "Failed to revoke station")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
