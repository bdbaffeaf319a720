package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/clubhive/clubhive/pkg/logger"
	"github.com/clubhive/clubhive/pkg/response"
	"github.com/clubhive/clubhive/pkg/session"
	"github.com/clubhive/clubhive/services/auth/internal/domain"
	"github.com/clubhive/clubhive/services/auth/internal/service"
	"github.com/go-chi/chi/v5"
)

type Handlers struct {
	sessions service.SessionService
}

func New(sessions service.SessionService) *Handlers {
	return &Handlers{sessions: sessions}
}

// Routes mounts the session endpoints. requireSession guards everything but
// sign-in; limit throttles sign-in attempts.
func (h *Handlers) Routes(requireSession, limit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.With(limit).Post("/session", h.SignIn)
	r.Group(func(r chi.Router) {
		r.Use(requireSession)
		r.Get("/session", h.Current)
		r.Delete("/session", h.SignOut)
		r.Patch("/session/profile", h.UpdateProfile)
	})
	return r
}

func (h *Handlers) SignIn(w http.ResponseWriter, r *http.Request) {
	var req domain.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AccessToken == "" {
		response.BadRequest(w, "access_token is required")
		return
	}

	res, err := h.sessions.SignIn(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredential):
			response.WriteError(w, http.StatusUnauthorized, "Invalid or expired sign-in token", response.CodeInvalidCredential)
		case errors.Is(err, service.ErrProfileMissing):
			response.NotFound(w, "Profile not found")
		default:
			logger.ErrorContext(r.Context(), "Sign-in failed", "error", err)
			response.InternalError(w, "Failed to sign in")
		}
		return
	}
	response.JSON(w, http.StatusCreated, res)
}

func (h *Handlers) Current(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	response.JSON(w, http.StatusOK, h.sessions.Current(r.Context(), s))
}

func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())

	var req domain.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON")
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	state, err := h.sessions.UpdateProfile(r.Context(), s, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionEnded):
			response.WriteError(w, http.StatusUnauthorized, "Session has ended", response.CodeSessionEnded)
		case errors.Is(err, service.ErrProfileMissing):
			response.NotFound(w, "Profile not found")
		default:
			logger.ErrorContext(r.Context(), "Profile update failed", "error", err)
			response.InternalError(w, "Failed to update profile")
		}
		return
	}
	response.JSON(w, http.StatusOK, state)
}

func (h *Handlers) SignOut(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	if err := h.sessions.SignOut(r.Context(), s); err != nil {
		logger.ErrorContext(r.Context(), "Sign-out failed", "error", err)
		response.InternalError(w, "Failed to sign out")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
