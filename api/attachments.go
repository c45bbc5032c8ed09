package api

import (
	"fmt"
	"io"
	"net/http"

	"log/slog"

	"github.com/garnizeh/snaglist/internal/workflow"
	"github.com/garnizeh/snaglist/pkg/models"
)

// maxAttachmentSize caps multipart uploads at 32 MiB.
const maxAttachmentSize = 32 << 20

type AttachmentsHandler struct {
	svc *workflow.Service
}

func NewAttachmentsHandler(svc *workflow.Service) *AttachmentsHandler {
	return &AttachmentsHandler{svc: svc}
}

func (h *AttachmentsHandler) Upload(w http.ResponseWriter, r *http.Request) {
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

	r.Body = http.MaxBytesReader(w, r.Body, maxAttachmentSize)
	if err := r.ParseMultipartForm(maxAttachmentSize); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	a, err := h.svc.UploadAttachment(r.Context(), actor, defectID, header.Filename, file)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, a, http.StatusCreated)
}

func (h *AttachmentsHandler) List(w http.ResponseWriter, r *http.Request) {
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

	items, err := h.svc.ListAttachments(r.Context(), actor, defectID)
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []models.Attachment{}
	}

	writeJSON(w, items, http.StatusOK)
}

func (h *AttachmentsHandler) Download(w http.ResponseWriter, r *http.Request) {
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

	a, rc, err := h.svc.OpenAttachment(r.Context(), actor, id)
	if err != nil {
		writeError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.FileName))
	if _, err := io.Copy(w, rc); err != nil {
		logger.Error("stream attachment", slog.Int64("id", a.ID), slog.Any("err", err))
	}
}

func (h *AttachmentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.svc.DeleteAttachment(r.Context(), actor, id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
