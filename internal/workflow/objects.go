package workflow

import (
	"context"
	"fmt"

	"github.com/garnizeh/snaglist/internal/core"
	"github.com/garnizeh/snaglist/internal/history"
	"github.com/garnizeh/snaglist/pkg/models"
	"github.com/garnizeh/snaglist/pkg/repository"
)

// ObjectInput carries the writable fields of a construction object.
type ObjectInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Address     string  `json:"address"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
}

func (in *ObjectInput) validate() error {
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", core.ErrValidation)
	}
	return validateDateRange(in.StartDate, in.EndDate)
}

func (s *Service) CreateObject(ctx context.Context, actor core.Actor, in ObjectInput) (*models.Object, error) {
	if err := core.Authorize(actor, core.ActionObjectCreate); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	o := &models.Object{
		Name:        in.Name,
		Description: in.Description,
		Address:     in.Address,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
	}
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		id, err := tx.CreateObject(ctx, o)
		if err != nil {
			return storeErr("create object", err)
		}
		o.ID = id
		if _, err := s.rec.Record(ctx, tx, history.EntityObject, id, &actor.UserID, history.ActionCreate, nil, history.ObjectSnapshot(o)); err != nil {
			return storeErr("record object create", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) GetObject(ctx context.Context, actor core.Actor, id int64) (*models.Object, error) {
	if err := core.Authorize(actor, core.ActionObjectRead); err != nil {
		return nil, err
	}
	o, err := s.store.GetObjectByID(ctx, id)
	if err != nil {
		return nil, storeErr("get object", err)
	}
	if o == nil {
		return nil, fmt.Errorf("%w: object %d", core.ErrNotFound, id)
	}
	if actor.Role == core.RoleEngineer {
		// engineers only see objects where one of their defects lives
		n, err := s.store.CountDefects(ctx, repository.DefectFilter{ObjectID: &o.ID, AssigneeID: &actor.UserID})
		if err != nil {
			return nil, storeErr("check object visibility", err)
		}
		if n == 0 {
			return nil, fmt.Errorf("%w: object %d", core.ErrForbidden, id)
		}
	}
	return o, nil
}

func (s *Service) ListObjects(ctx context.Context, actor core.Actor, limit, offset int) ([]models.Object, int64, error) {
	if err := core.Authorize(actor, core.ActionObjectRead); err != nil {
		return nil, 0, err
	}
	if actor.Role == core.RoleEngineer {
		items, err := s.store.ListObjectsForAssignee(ctx, actor.UserID, limit, offset)
		if err != nil {
			return nil, 0, storeErr("list objects", err)
		}
		total, err := s.store.CountObjectsForAssignee(ctx, actor.UserID)
		if err != nil {
			return nil, 0, storeErr("count objects", err)
		}
		return items, total, nil
	}
	items, err := s.store.ListObjects(ctx, limit, offset)
	if err != nil {
		return nil, 0, storeErr("list objects", err)
	}
	total, err := s.store.CountObjects(ctx)
	if err != nil {
		return nil, 0, storeErr("count objects", err)
	}
	return items, total, nil
}

func (s *Service) UpdateObject(ctx context.Context, actor core.Actor, id int64, in ObjectInput) (*models.Object, error) {
	if err := core.Authorize(actor, core.ActionObjectUpdate); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	var updated *models.Object
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		o, err := tx.GetObjectByID(ctx, id)
		if err != nil {
			return storeErr("get object", err)
		}
		if o == nil {
			return fmt.Errorf("%w: object %d", core.ErrNotFound, id)
		}
		before := history.ObjectSnapshot(o)

		o.Name = in.Name
		o.Description = in.Description
		o.Address = in.Address
		o.StartDate = in.StartDate
		o.EndDate = in.EndDate
		if err := tx.UpdateObject(ctx, o); err != nil {
			return storeErr("update object", err)
		}
		if _, err := s.rec.Record(ctx, tx, history.EntityObject, id, &actor.UserID, history.ActionUpdate, before, history.ObjectSnapshot(o)); err != nil {
			return storeErr("record object update", err)
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteObject removes the object and every defect under it. The cascade is
// explicit: each child defect is deleted individually and leaves its own
// DELETE audit record, then the object itself. Attachment payloads are
// removed from the blob store only after the transaction commits.
func (s *Service) DeleteObject(ctx context.Context, actor core.Actor, id int64) error {
	if err := core.Authorize(actor, core.ActionObjectDelete); err != nil {
		return err
	}

	var orphanKeys []string
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		o, err := tx.GetObjectByID(ctx, id)
		if err != nil {
			return storeErr("get object", err)
		}
		if o == nil {
			return fmt.Errorf("%w: object %d", core.ErrNotFound, id)
		}

		defects, err := tx.ListDefectsByObject(ctx, id)
		if err != nil {
			return storeErr("list object defects", err)
		}
		for i := range defects {
			d := &defects[i]
			keys, err := deleteDefectInTx(ctx, tx, s.rec, d, actor.UserID)
			if err != nil {
				return err
			}
			orphanKeys = append(orphanKeys, keys...)
		}

		if err := tx.DeleteObject(ctx, id); err != nil {
			return storeErr("delete object", err)
		}
		if _, err := s.rec.Record(ctx, tx, history.EntityObject, id, &actor.UserID, history.ActionDelete, history.ObjectSnapshot(o), nil); err != nil {
			return storeErr("record object delete", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.cleanupBlobs(ctx, orphanKeys)
	return nil
}
