package api

import (
	"encoding/json"
	"net/http"

	"github.com/garnizeh/snaglist/internal/workflow"
	"github.com/garnizeh/snaglist/pkg/models"
)

type UsersHandler struct {
	svc *workflow.Service
}

func NewUsersHandler(svc *workflow.Service) *UsersHandler {
	return &UsersHandler{svc: svc}
}

type createUserRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// CreateUser invites a new account: the row is created pending, registration
// is completed later through the auth endpoint.
func (h *UsersHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	u, err := h.svc.CreateUser(r.Context(), actor, req.Email, req.Role)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, u, http.StatusCreated)
}

func (h *UsersHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	items, err := h.svc.ListUsers(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []models.User{}
	}

	writeJSON(w, items, http.StatusOK)
}

func (h *UsersHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.svc.DeleteUser(r.Context(), actor, id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type profileRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// UpdateProfile edits the authenticated user's own account.
func (h *UsersHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	u, err := h.svc.UpdateProfile(r.Context(), actor, actor.UserID, req.FullName, req.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, u, http.StatusOK)
}
