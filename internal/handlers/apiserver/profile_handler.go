package apiserver

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"reunion/internal/middleware"
	"reunion/internal/services"
)

// ProfileHandler serves the profile directory endpoints.
type ProfileHandler struct {
	svc services.ProfileService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(svc services.ProfileService) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

// List handles GET /api/v1/profiles
func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "failed to list profiles")
		return
	}
	writeJSONResponse(w, http.StatusOK, profiles)
}

// Get handles GET /api/v1/profiles/{username}
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.svc.Get(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		writeServiceError(w, r, err, "failed to load profile")
		return
	}
	writeJSONResponse(w, http.StatusOK, profile)
}

// Create handles POST /api/v1/profiles for the authenticated user.
func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	username, in, ok := h.decode(w, r)
	if !ok {
		return
	}

	profile, err := h.svc.Create(r.Context(), username, in)
	if err != nil {
		writeServiceError(w, r, err, "failed to create profile")
		return
	}
	writeJSONResponse(w, http.StatusCreated, profile)
}

// UpdateMine handles PUT /api/v1/profiles/me
func (h *ProfileHandler) UpdateMine(w http.ResponseWriter, r *http.Request) {
	username, in, ok := h.decode(w, r)
	if !ok {
		return
	}

	profile, err := h.svc.UpdateMine(r.Context(), username, in)
	if err != nil {
		writeServiceError(w, r, err, "failed to update profile")
		return
	}
	writeJSONResponse(w, http.StatusOK, profile)
}

func (h *ProfileHandler) decode(w http.ResponseWriter, r *http.Request) (string, services.ProfileInput, bool) {
	var in services.ProfileInput
	username, ok := middleware.GetUsernameFromContext(r.Context())
	if !ok || username == "" {
		writeJSONError(w, "unable to identify the current user", http.StatusUnauthorized)
		return "", in, false
	}

	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return "", in, false
	}
	defer r.Body.Close()
	return username, in, true
}
