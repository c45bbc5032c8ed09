package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/garnizeh/snaglist/internal/core"
	"github.com/garnizeh/snaglist/internal/history"
	"github.com/garnizeh/snaglist/pkg/models"
	"github.com/garnizeh/snaglist/pkg/repository"
)

// DefectInput carries the fields a manager sets when reporting a defect.
// Status always starts at New; priority defaults to Medium when omitted.
type DefectInput struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ObjectID    int64   `json:"object_id"`
	PriorityID  *int64  `json:"priority_id"`
	DueDate     *string `json:"due_date"`
}

// DefectUpdate carries the plain field edits a manager may apply. These are
// independent of the lifecycle: status and assignee are untouched here.
type DefectUpdate struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ObjectID    int64   `json:"object_id"`
	PriorityID  int64   `json:"priority_id"`
	DueDate     *string `json:"due_date"`
}

func (s *Service) CreateDefect(ctx context.Context, actor core.Actor, in DefectInput) (*models.Defect, error) {
	if err := core.Authorize(actor, core.ActionDefectCreate); err != nil {
		return nil, err
	}
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", core.ErrValidation)
	}
	if err := validateDueDate(in.DueDate); err != nil {
		return nil, err
	}
	priority := int64(core.PriorityMedium)
	if in.PriorityID != nil {
		if !core.Priority(*in.PriorityID).Known() {
			return nil, fmt.Errorf("%w: unknown priority %d", core.ErrValidation, *in.PriorityID)
		}
		priority = *in.PriorityID
	}

	d := &models.Defect{
		Title:       in.Title,
		Description: in.Description,
		ObjectID:    in.ObjectID,
		StatusID:    int64(core.StatusNew),
		PriorityID:  priority,
		ReporterID:  actor.UserID,
		DueDate:     in.DueDate,
	}
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		o, err := tx.GetObjectByID(ctx, in.ObjectID)
		if err != nil {
			return storeErr("get object", err)
		}
		if o == nil {
			return fmt.Errorf("%w: object %d", core.ErrNotFound, in.ObjectID)
		}
		id, err := tx.CreateDefect(ctx, d)
		if err != nil {
			return storeErr("create defect", err)
		}
		d.ID = id
		if _, err := s.rec.Record(ctx, tx, history.EntityDefect, id, &actor.UserID, history.ActionCreate, nil, history.DefectSnapshot(d)); err != nil {
			return storeErr("record defect create", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// canReadDefect applies the engineer row filter on top of the matrix.
func canReadDefect(actor core.Actor, d *models.Defect) error {
	if err := core.Authorize(actor, core.ActionDefectRead); err != nil {
		return err
	}
	if actor.Role == core.RoleEngineer {
		if d.AssigneeID == nil || *d.AssigneeID != actor.UserID {
			return fmt.Errorf("%w: defect %d", core.ErrForbidden, d.ID)
		}
	}
	return nil
}

func (s *Service) GetDefect(ctx context.Context, actor core.Actor, id int64) (*models.Defect, error) {
	d, err := s.store.GetDefectByID(ctx, id)
	if err != nil {
		return nil, storeErr("get defect", err)
	}
	if d == nil {
		return nil, fmt.Errorf("%w: defect %d", core.ErrNotFound, id)
	}
	if err := canReadDefect(actor, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) ListDefects(ctx context.Context, actor core.Actor, f repository.DefectFilter) ([]models.Defect, int64, error) {
	if err := core.Authorize(actor, core.ActionDefectRead); err != nil {
		return nil, 0, err
	}
	if actor.Role == core.RoleEngineer {
		f.AssigneeID = &actor.UserID
	}
	items, err := s.store.ListDefects(ctx, f)
	if err != nil {
		return nil, 0, storeErr("list defects", err)
	}
	total, err := s.store.CountDefects(ctx, f)
	if err != nil {
		return nil, 0, storeErr("count defects", err)
	}
	return items, total, nil
}

func (s *Service) UpdateDefectFields(ctx context.Context, actor core.Actor, id int64, in DefectUpdate) (*models.Defect, error) {
	if err := core.Authorize(actor, core.ActionDefectUpdate); err != nil {
		return nil, err
	}
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", core.ErrValidation)
	}
	if !core.Priority(in.PriorityID).Known() {
		return nil, fmt.Errorf("%w: unknown priority %d", core.ErrValidation, in.PriorityID)
	}
	if err := validateDueDate(in.DueDate); err != nil {
		return nil, err
	}

	var updated *models.Defect
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		d, err := tx.GetDefectByID(ctx, id)
		if err != nil {
			return storeErr("get defect", err)
		}
		if d == nil {
			return fmt.Errorf("%w: defect %d", core.ErrNotFound, id)
		}
		if in.ObjectID != d.ObjectID {
			o, err := tx.GetObjectByID(ctx, in.ObjectID)
			if err != nil {
				return storeErr("get object", err)
			}
			if o == nil {
				return fmt.Errorf("%w: object %d", core.ErrNotFound, in.ObjectID)
			}
		}
		before := history.DefectSnapshot(d)

		d.Title = in.Title
		d.Description = in.Description
		d.ObjectID = in.ObjectID
		d.PriorityID = in.PriorityID
		d.DueDate = in.DueDate
		if err := tx.UpdateDefect(ctx, d); err != nil {
			return storeErr("update defect", err)
		}
		if _, err := s.rec.Record(ctx, tx, history.EntityDefect, id, &actor.UserID, history.ActionUpdate, before, history.DefectSnapshot(d)); err != nil {
			return storeErr("record defect update", err)
		}
		updated = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// AssignDefect sets assigneeID as the defect's assignee, or clears the
// assignment when assigneeID is nil. Manager only; the target must hold the
// engineer role.
func (s *Service) AssignDefect(ctx context.Context, actor core.Actor, id int64, assigneeID *int64) (*models.Defect, error) {
	var updated *models.Defect
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		d, err := tx.GetDefectByID(ctx, id)
		if err != nil {
			return storeErr("get defect", err)
		}
		if d == nil {
			return fmt.Errorf("%w: defect %d", core.ErrNotFound, id)
		}
		var assignee *models.User
		if assigneeID != nil {
			assignee, err = tx.GetUserByID(ctx, *assigneeID)
			if err != nil {
				return storeErr("get assignee", err)
			}
			if assignee == nil {
				return fmt.Errorf("%w: user %d", core.ErrNotFound, *assigneeID)
			}
		}
		before := history.DefectSnapshot(d)

		if err := core.Assign(d, assignee, actor); err != nil {
			return err
		}
		if err := tx.UpdateDefect(ctx, d); err != nil {
			return storeErr("update defect", err)
		}
		if _, err := s.rec.Record(ctx, tx, history.EntityDefect, id, &actor.UserID, history.ActionUpdate, before, history.DefectSnapshot(d)); err != nil {
			return storeErr("record defect assign", err)
		}
		updated = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// TransitionDefect moves the defect to the target lifecycle status. Role and
// assignee gating live in core.Transition; this wraps the persist and audit
// steps into one unit of work.
func (s *Service) TransitionDefect(ctx context.Context, actor core.Actor, id int64, target core.Status) (*models.Defect, error) {
	var updated *models.Defect
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		d, err := tx.GetDefectByID(ctx, id)
		if err != nil {
			return storeErr("get defect", err)
		}
		if d == nil {
			return fmt.Errorf("%w: defect %d", core.ErrNotFound, id)
		}
		before := history.DefectSnapshot(d)

		if err := core.Transition(d, target, actor, time.Now()); err != nil {
			return err
		}
		if err := tx.UpdateDefect(ctx, d); err != nil {
			return storeErr("update defect", err)
		}
		if _, err := s.rec.Record(ctx, tx, history.EntityDefect, id, &actor.UserID, history.ActionUpdate, before, history.DefectSnapshot(d)); err != nil {
			return storeErr("record defect transition", err)
		}
		updated = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// deleteDefectInTx removes one defect with its comments and attachment rows
// and records the DELETE audit entry. It returns the storage keys of removed
// attachments so payloads can be cleaned up after commit.
func deleteDefectInTx(ctx context.Context, tx repository.Store, rec *history.Recorder, d *models.Defect, actorID int64) ([]string, error) {
	atts, err := tx.ListAttachmentsByDefect(ctx, d.ID)
	if err != nil {
		return nil, storeErr("list defect attachments", err)
	}
	keys := make([]string, 0, len(atts))
	for _, a := range atts {
		if err := tx.DeleteAttachment(ctx, a.ID); err != nil {
			return nil, storeErr("delete attachment", err)
		}
		keys = append(keys, a.StorageKey)
	}

	comments, err := tx.ListCommentsByDefect(ctx, d.ID)
	if err != nil {
		return nil, storeErr("list defect comments", err)
	}
	for _, c := range comments {
		if err := tx.DeleteComment(ctx, c.ID); err != nil {
			return nil, storeErr("delete comment", err)
		}
	}

	if err := tx.DeleteDefect(ctx, d.ID); err != nil {
		return nil, storeErr("delete defect", err)
	}
	if _, err := rec.Record(ctx, tx, history.EntityDefect, d.ID, &actorID, history.ActionDelete, history.DefectSnapshot(d), nil); err != nil {
		return nil, storeErr("record defect delete", err)
	}
	return keys, nil
}

func (s *Service) DeleteDefect(ctx context.Context, actor core.Actor, id int64) error {
	if err := core.Authorize(actor, core.ActionDefectDelete); err != nil {
		return err
	}

	var orphanKeys []string
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		d, err := tx.GetDefectByID(ctx, id)
		if err != nil {
			return storeErr("get defect", err)
		}
		if d == nil {
			return fmt.Errorf("%w: defect %d", core.ErrNotFound, id)
		}
		keys, err := deleteDefectInTx(ctx, tx, s.rec, d, actor.UserID)
		if err != nil {
			return err
		}
		orphanKeys = keys
		return nil
	})
	if err != nil {
		return err
	}
	s.cleanupBlobs(ctx, orphanKeys)
	return nil
}
