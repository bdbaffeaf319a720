package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/clubhive/clubhive/pkg/response"
	"github.com/clubhive/clubhive/pkg/session"
	"github.com/clubhive/clubhive/services/clubs/internal/domain"
	"github.com/go-chi/chi/v5"
)

func (h *Handlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	f := domain.EventFilter{
		ClubID: r.URL.Query().Get("club_id"),
		Limit:  limit,
		Offset: offset,
	}
	if v := r.URL.Query().Get("upcoming"); v != "" {
		upcoming, err := strconv.ParseBool(v)
		if err != nil {
			response.BadRequest(w, "Invalid upcoming parameter")
			return
		}
		f.Upcoming = upcoming
	}

	evs, err := h.events.List(r.Context(), f)
	if err != nil {
		writeServiceError(w, r, err, "Failed to list events")
		return
	}
	response.JSON(w, http.StatusOK, nonNil(evs))
}

func (h *Handlers) GetEvent(w http.ResponseWriter, r *http.Request) {
	e, err := h.events.Get(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		writeServiceError(w, r, err, "Failed to load event")
		return
	}
	response.JSON(w, http.StatusOK, e)
}

func (h *Handlers) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req domain.EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON")
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	s, _ := session.FromContext(r.Context())
	e, err := h.events.Create(r.Context(), &req, s.UserID())
	if err != nil {
		writeServiceError(w, r, err, "Failed to create event")
		return
	}
	response.JSON(w, http.StatusCreated, e)
}

func (h *Handlers) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var patch domain.EventPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		response.BadRequest(w, "Invalid JSON")
		return
	}
	if err := patch.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	e, err := h.events.Update(r.Context(), chi.URLParam(r, "eventID"), &patch)
	if err != nil {
		writeServiceError(w, r, err, "Failed to update event")
		return
	}
	response.JSON(w, http.StatusOK, e)
}

func (h *Handlers) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.events.Delete(r.Context(), chi.URLParam(r, "eventID")); err != nil {
		writeServiceError(w, r, err, "Failed to delete event")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) RegistrationCount(w http.ResponseWriter, r *http.Request) {
	c, err := h.events.Count(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		writeServiceError(w, r, err, "Failed to count registrations")
		return
	}
	response.JSON(w, http.StatusOK, c)
}
