package workflow

import (
	"context"
	"fmt"
	"io"

	"log/slog"

	"github.com/garnizeh/snaglist/internal/core"
	"github.com/garnizeh/snaglist/pkg/models"
	"github.com/google/uuid"
)

// UploadAttachment stores the payload under a fresh uuid key and records the
// metadata row. The client filename is kept for display only.
func (s *Service) UploadAttachment(ctx context.Context, actor core.Actor, defectID int64, fileName string, r io.Reader) (*models.Attachment, error) {
	if err := core.Authorize(actor, core.ActionAttachmentAdd); err != nil {
		return nil, err
	}
	if fileName == "" {
		return nil, fmt.Errorf("%w: file_name is required", core.ErrValidation)
	}
	if _, err := s.requireDefectParticipation(ctx, actor, defectID); err != nil {
		return nil, err
	}

	key := uuid.NewString()
	size, err := s.blobs.Save(ctx, key, r)
	if err != nil {
		return nil, fmt.Errorf("save attachment payload: %w", err)
	}

	a := &models.Attachment{
		DefectID:   defectID,
		UserID:     actor.UserID,
		FileName:   fileName,
		StorageKey: key,
		Size:       size,
	}
	id, err := s.store.CreateAttachment(ctx, a)
	if err != nil {
		// the row failed, do not leave the payload behind
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			s.logger.Error("orphan blob cleanup failed", slog.String("key", key), slog.Any("err", delErr))
		}
		return nil, storeErr("create attachment", err)
	}
	a.ID = id
	return a, nil
}

// OpenAttachment returns the metadata row and a reader over the payload.
// The caller closes the reader.
func (s *Service) OpenAttachment(ctx context.Context, actor core.Actor, id int64) (*models.Attachment, io.ReadCloser, error) {
	if err := core.Authorize(actor, core.ActionAttachmentRead); err != nil {
		return nil, nil, err
	}
	a, err := s.store.GetAttachmentByID(ctx, id)
	if err != nil {
		return nil, nil, storeErr("get attachment", err)
	}
	if a == nil {
		return nil, nil, fmt.Errorf("%w: attachment %d", core.ErrNotFound, id)
	}
	d, err := s.store.GetDefectByID(ctx, a.DefectID)
	if err != nil {
		return nil, nil, storeErr("get defect", err)
	}
	if d == nil {
		return nil, nil, fmt.Errorf("%w: defect %d", core.ErrNotFound, a.DefectID)
	}
	if err := canReadDefect(actor, d); err != nil {
		return nil, nil, err
	}

	rc, err := s.blobs.Open(ctx, a.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("open attachment payload: %w", err)
	}
	return a, rc, nil
}

// DeleteAttachment removes the actor's own upload. Engineers must still be
// the defect's assignee. The payload is removed after the row.
func (s *Service) DeleteAttachment(ctx context.Context, actor core.Actor, id int64) error {
	if err := core.Authorize(actor, core.ActionAttachmentDelete); err != nil {
		return err
	}
	a, err := s.store.GetAttachmentByID(ctx, id)
	if err != nil {
		return storeErr("get attachment", err)
	}
	if a == nil {
		return fmt.Errorf("%w: attachment %d", core.ErrNotFound, id)
	}
	if a.UserID != actor.UserID {
		return fmt.Errorf("%w: attachment %d is not yours", core.ErrForbidden, id)
	}
	if _, err := s.requireDefectParticipation(ctx, actor, a.DefectID); err != nil {
		return err
	}

	if err := s.store.DeleteAttachment(ctx, id); err != nil {
		return storeErr("delete attachment", err)
	}
	s.cleanupBlobs(ctx, []string{a.StorageKey})
	return nil
}

func (s *Service) ListAttachments(ctx context.Context, actor core.Actor, defectID int64) ([]models.Attachment, error) {
	d, err := s.store.GetDefectByID(ctx, defectID)
	if err != nil {
		return nil, storeErr("get defect", err)
	}
	if d == nil {
		return nil, fmt.Errorf("%w: defect %d", core.ErrNotFound, defectID)
	}
	if err := canReadDefect(actor, d); err != nil {
		return nil, err
	}

	atts, err := s.store.ListAttachmentsByDefect(ctx, defectID)
	if err != nil {
		return nil, storeErr("list attachments", err)
	}
	return atts, nil
}
