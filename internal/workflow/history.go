package workflow

import (
	"context"
	"fmt"

	"github.com/garnizeh/snaglist/internal/core"
	"github.com/garnizeh/snaglist/internal/history"
	"github.com/garnizeh/snaglist/pkg/models"
	"github.com/garnizeh/snaglist/pkg/repository"
)

// ListHistory returns the audit trail of one object or defect, newest first.
// Visibility follows the entity itself: whoever may read the entity may read
// its history.
func (s *Service) ListHistory(ctx context.Context, actor core.Actor, entityType string, entityID int64, limit, offset int) ([]models.ChangeEntry, int64, error) {
	if err := core.Authorize(actor, core.ActionHistoryRead); err != nil {
		return nil, 0, err
	}

	switch entityType {
	case history.EntityObject:
		o, err := s.store.GetObjectByID(ctx, entityID)
		if err != nil {
			return nil, 0, storeErr("get object", err)
		}
		if o == nil {
			return nil, 0, fmt.Errorf("%w: object %d", core.ErrNotFound, entityID)
		}
		if actor.Role == core.RoleEngineer {
			n, err := s.store.CountDefects(ctx, repository.DefectFilter{ObjectID: &entityID, AssigneeID: &actor.UserID})
			if err != nil {
				return nil, 0, storeErr("check object visibility", err)
			}
			if n == 0 {
				return nil, 0, fmt.Errorf("%w: object %d", core.ErrForbidden, entityID)
			}
		}
	case history.EntityDefect:
		d, err := s.store.GetDefectByID(ctx, entityID)
		if err != nil {
			return nil, 0, storeErr("get defect", err)
		}
		if d == nil {
			return nil, 0, fmt.Errorf("%w: defect %d", core.ErrNotFound, entityID)
		}
		if err := canReadDefect(actor, d); err != nil {
			return nil, 0, err
		}
	default:
		return nil, 0, fmt.Errorf("%w: unknown entity type %q", core.ErrValidation, entityType)
	}

	entries, err := s.store.ListChanges(ctx, entityType, entityID, limit, offset)
	if err != nil {
		return nil, 0, storeErr("list changes", err)
	}
	total, err := s.store.CountChanges(ctx, entityType, entityID)
	if err != nil {
		return nil, 0, storeErr("count changes", err)
	}
	return entries, total, nil
}
