package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/garnizeh/snaglist/internal/core"
	"github.com/garnizeh/snaglist/internal/workflow"
	"github.com/garnizeh/snaglist/pkg/models"
	"github.com/garnizeh/snaglist/pkg/repository"
)

type DefectsHandler struct {
	svc *workflow.Service
}

func NewDefectsHandler(svc *workflow.Service) *DefectsHandler {
	return &DefectsHandler{svc: svc}
}

func (h *DefectsHandler) CreateDefect(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var in workflow.DefectInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	d, err := h.svc.CreateDefect(r.Context(), actor, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, d, http.StatusCreated)
}

func (h *DefectsHandler) GetDefect(w http.ResponseWriter, r *http.Request) {
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

	d, err := h.svc.GetDefect(r.Context(), actor, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, d, http.StatusOK)
}

func (h *DefectsHandler) ListDefects(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	limit, offset := pagination(r)
	f := repository.DefectFilter{Limit: limit, Offset: offset}
	q := r.URL.Query()
	for name, dst := range map[string]**int64{
		"object_id":   &f.ObjectID,
		"assignee_id": &f.AssigneeID,
		"status_id":   &f.StatusID,
	} {
		if raw := q.Get(name); raw != "" {
			v, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || v <= 0 {
				http.Error(w, "invalid "+name, http.StatusBadRequest)
				return
			}
			*dst = &v
		}
	}

	items, total, err := h.svc.ListDefects(r.Context(), actor, f)
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []models.Defect{}
	}

	writeJSON(w, map[string]any{
		"total":  total,
		"limit":  limit,
		"offset": offset,
		"items":  items,
	}, http.StatusOK)
}

func (h *DefectsHandler) UpdateDefect(w http.ResponseWriter, r *http.Request) {
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

	var in workflow.DefectUpdate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	d, err := h.svc.UpdateDefectFields(r.Context(), actor, id, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, d, http.StatusOK)
}

type assignRequest struct {
	AssigneeID *int64 `json:"assignee_id"`
}

// AssignDefect sets or clears the assignee. A null assignee_id unassigns.
func (h *DefectsHandler) AssignDefect(w http.ResponseWriter, r *http.Request) {
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

	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	d, err := h.svc.AssignDefect(r.Context(), actor, id, req.AssigneeID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, d, http.StatusOK)
}

type transitionRequest struct {
	StatusID int64 `json:"status_id"`
}

func (h *DefectsHandler) TransitionDefect(w http.ResponseWriter, r *http.Request) {
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

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	d, err := h.svc.TransitionDefect(r.Context(), actor, id, core.Status(req.StatusID))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, d, http.StatusOK)
}

func (h *DefectsHandler) DeleteDefect(w http.ResponseWriter, r *http.Request) {
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

	if err := h.svc.DeleteDefect(r.Context(), actor, id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
