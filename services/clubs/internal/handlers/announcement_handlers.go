package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/clubhive/clubhive/pkg/response"
	"github.com/clubhive/clubhive/pkg/session"
	"github.com/clubhive/clubhive/services/clubs/internal/domain"
	"github.com/go-chi/chi/v5"
)

func (h *Handlers) ListAnnouncements(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	list, err := h.announcements.List(r.Context(), r.URL.Query().Get("club_id"), limit, offset)
	if err != nil {
		writeServiceError(w, r, err, "Failed to list announcements")
		return
	}
	response.JSON(w, http.StatusOK, nonNil(list))
}

func (h *Handlers) CreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	var req domain.AnnouncementRequest
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
	a, err := h.announcements.Create(r.Context(), &req, s.UserID())
	if err != nil {
		writeServiceError(w, r, err, "Failed to create announcement")
		return
	}
	response.JSON(w, http.StatusCreated, a)
}

func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.announcements.Profile(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeServiceError(w, r, err, "Failed to load profile")
		return
	}
	response.JSON(w, http.StatusOK, p)
}
