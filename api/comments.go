package api

import (
	"encoding/json"
	"net/http"

	"github.com/garnizeh/snaglist/internal/workflow"
	"github.com/garnizeh/snaglist/pkg/models"
)

type CommentsHandler struct {
	svc *workflow.Service
}

func NewCommentsHandler(svc *workflow.Service) *CommentsHandler {
	return &CommentsHandler{svc: svc}
}

type commentRequest struct {
	Body string `json:"body"`
}

func (h *CommentsHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	defectID, err := pathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	c, err := h.svc.AddComment(r.Context(), actor, defectID, req.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, c, http.StatusCreated)
}

func (h *CommentsHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	defectID, err := pathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	items, err := h.svc.ListComments(r.Context(), actor, defectID)
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []models.Comment{}
	}

	writeJSON(w, items, http.StatusOK)
}

func (h *CommentsHandler) EditComment(w http.ResponseWriter, r *http.Request) {
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

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	c, err := h.svc.EditComment(r.Context(), actor, id, req.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, c, http.StatusOK)
}

func (h *CommentsHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
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

	if err := h.svc.DeleteComment(r.Context(), actor, id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
