package handlers

import (
	"net/http"
	"strconv"

	"github.com/clubhive/clubhive/pkg/response"
	"github.com/clubhive/clubhive/pkg/session"
	"github.com/go-chi/chi/v5"
)

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	reg, err := h.events.Register(r.Context(), chi.URLParam(r, "eventID"), s)
	if err != nil {
		writeServiceError(w, r, err, "Failed to register")
		return
	}
	response.JSON(w, http.StatusCreated, reg)
}

func (h *Handlers) MyRegistrations(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	regs, err := h.events.MyRegistrations(r.Context(), s.UserID())
	if err != nil {
		writeServiceError(w, r, err, "Failed to list registrations")
		return
	}
	response.JSON(w, http.StatusOK, nonNil(regs))
}

func (h *Handlers) PassPNG(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	png, err := h.events.PassPNG(r.Context(), chi.URLParam(r, "registrationID"), s.UserID())
	if err != nil {
		writeServiceError(w, r, err, "Failed to render pass")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
