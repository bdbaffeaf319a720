package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/clubhive/clubhive/pkg/response"
	"github.com/clubhive/clubhive/pkg/session"
	"github.com/clubhive/clubhive/services/clubs/internal/domain"
	"github.com/go-chi/chi/v5"
)

func (h *Handlers) ListClubs(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	clubs, err := h.clubs.List(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, r, err, "Failed to list clubs")
		return
	}
	response.JSON(w, http.StatusOK, nonNil(clubs))
}

func (h *Handlers) GetClub(w http.ResponseWriter, r *http.Request) {
	c, err := h.clubs.Get(r.Context(), chi.URLParam(r, "clubID"))
	if err != nil {
		writeServiceError(w, r, err, "Failed to load club")
		return
	}
	response.JSON(w, http.StatusOK, c)
}

func (h *Handlers) CreateClub(w http.ResponseWriter, r *http.Request) {
	var req domain.ClubRequest
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
	c, err := h.clubs.Create(r.Context(), &req, s.UserID())
	if err != nil {
		writeServiceError(w, r, err, "Failed to create club")
		return
	}
	response.JSON(w, http.StatusCreated, c)
}

func (h *Handlers) UpdateClub(w http.ResponseWriter, r *http.Request) {
	var patch domain.ClubPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		response.BadRequest(w, "Invalid JSON")
		return
	}
	if err := patch.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	c, err := h.clubs.Update(r.Context(), chi.URLParam(r, "clubID"), &patch)
	if err != nil {
		writeServiceError(w, r, err, "Failed to update club")
		return
	}
	response.JSON(w, http.StatusOK, c)
}

func (h *Handlers) DeleteClub(w http.ResponseWriter, r *http.Request) {
	if err := h.clubs.Delete(r.Context(), chi.URLParam(r, "clubID")); err != nil {
		writeServiceError(w, r, err, "Failed to delete club")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) MyClubs(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	clubs, err := h.clubs.Mine(r.Context(), s.UserID())
	if err != nil {
		writeServiceError(w, r, err, "Failed to list your clubs")
		return
	}
	response.JSON(w, http.StatusOK, nonNil(clubs))
}

func (h *Handlers) JoinClub(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	clubID := chi.URLParam(r, "clubID")
	if err := h.clubs.Join(r.Context(), clubID, s.UserID()); err != nil {
		writeServiceError(w, r, err, "Failed to join club")
		return
	}
	response.JSON(w, http.StatusCreated, map[string]string{"club_id": clubID, "status": "joined"})
}

func (h *Handlers) LeaveClub(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	if err := h.clubs.Leave(r.Context(), chi.URLParam(r, "clubID"), s.UserID()); err != nil {
		writeServiceError(w, r, err, "Failed to leave club")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
