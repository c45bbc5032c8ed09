package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/garnizeh/snaglist/internal/workflow"
	"github.com/garnizeh/snaglist/pkg/models"
)

type HistoryHandler struct {
	svc *workflow.Service
}

func NewHistoryHandler(svc *workflow.Service) *HistoryHandler {
	return &HistoryHandler{svc: svc}
}

// ListHistory returns the change trail for one entity, newest first.
func (h *HistoryHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	entityType := mux.Vars(r)["entity_type"]
	entityID, err := pathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	limit, offset := pagination(r)

	items, total, err := h.svc.ListHistory(r.Context(), actor, entityType, entityID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []models.ChangeEntry{}
	}

	writeJSON(w, map[string]any{
		"total":  total,
		"limit":  limit,
		"offset": offset,
		"items":  items,
	}, http.StatusOK)
}
