package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/clubhive/clubhive/pkg/logger"
	"github.com/clubhive/clubhive/pkg/response"
	"github.com/clubhive/clubhive/services/clubs/internal/domain"
	"github.com/clubhive/clubhive/services/clubs/internal/service"
	"github.com/go-chi/chi/v5"
)

type Handlers struct {
	clubs         service.ClubService
	events        service.EventService
	announcements service.AnnouncementService
}

func New(clubs service.ClubService, events service.EventService, announcements service.AnnouncementService) *Handlers {
	return &Handlers{clubs: clubs, events: events, announcements: announcements}
}

// Routes mounts the member routes behind requireSession and the /admin
// routes behind requireAdmin. idempotent wraps event registration.
func (h *Handlers) Routes(requireSession, requireAdmin, idempotent func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(requireSession)

		r.Get("/clubs", h.ListClubs)
		r.Get("/clubs/{clubID}", h.GetClub)
		r.Post("/clubs/{clubID}/join", h.JoinClub)
		r.Delete("/clubs/{clubID}/join", h.LeaveClub)

		r.Get("/events", h.ListEvents)
		r.Get("/events/{eventID}", h.GetEvent)
		r.With(idempotent).Post("/events/{eventID}/register", h.Register)

		r.Get("/me/clubs", h.MyClubs)
		r.Get("/me/registrations", h.MyRegistrations)
		r.Get("/me/registrations/{registrationID}/pass.png", h.PassPNG)

		r.Get("/announcements", h.ListAnnouncements)
		r.Get("/profiles/{userID}", h.GetProfile)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(requireAdmin)

		r.Post("/clubs", h.CreateClub)
		r.Patch("/clubs/{clubID}", h.UpdateClub)
		r.Delete("/clubs/{clubID}", h.DeleteClub)

		r.Post("/events", h.CreateEvent)
		r.Patch("/events/{eventID}", h.UpdateEvent)
		r.Delete("/events/{eventID}", h.DeleteEvent)
		r.Get("/events/{eventID}/registrations/count", h.RegistrationCount)

		r.Post("/announcements", h.CreateAnnouncement)
	})

	return r
}

// writeServiceError maps domain errors onto the response envelope and logs the rest.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, domain.ErrClubNotFound):
		response.NotFound(w, "Club not found")
	case errors.Is(err, domain.ErrEventNotFound):
		response.NotFound(w, "Event not found")
	case errors.Is(err, domain.ErrRegistrationNotFound):
		response.NotFound(w, "Registration not found")
	case errors.Is(err, domain.ErrProfileNotFound):
		response.NotFound(w, "Profile not found")
	case errors.Is(err, domain.ErrAlreadyMember):
		response.Conflict(w, "Already a member of this club")
	case errors.Is(err, domain.ErrNotMember):
		response.NotFound(w, "Not a member of this club")
	case errors.Is(err, domain.ErrAlreadyRegistered):
		response.WriteError(w, http.StatusConflict, "Already registered for this event", response.CodeAlreadyRegistered)
	case errors.Is(err, domain.ErrCapacityReached):
		response.WriteError(w, http.StatusConflict, "Event is full", response.CodeCapacityReached)
	case errors.Is(err, domain.ErrEventPast):
		response.WriteError(w, http.StatusUnprocessableEntity, "Event has already taken place", response.CodeEventPast)
	default:
		logger.ErrorContext(r.Context(), msg, "error", err)
		response.InternalError(w, msg)
	}
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit = 50
	offset = 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return limit, offset
}
