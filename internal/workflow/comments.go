package workflow

import (
	"context"
	"fmt"

	"github.com/garnizeh/snaglist/internal/core"
	"github.com/garnizeh/snaglist/pkg/models"
)

// requireDefectParticipation loads the defect and, for engineers, checks the
// actor is its current assignee. Managers pass on the matrix alone.
func (s *Service) requireDefectParticipation(ctx context.Context, actor core.Actor, defectID int64) (*models.Defect, error) {
	d, err := s.store.GetDefectByID(ctx, defectID)
	if err != nil {
		return nil, storeErr("get defect", err)
	}
	if d == nil {
		return nil, fmt.Errorf("%w: defect %d", core.ErrNotFound, defectID)
	}
	if actor.Role == core.RoleEngineer {
		if d.AssigneeID == nil || *d.AssigneeID != actor.UserID {
			return nil, fmt.Errorf("%w: defect %d", core.ErrNotAssignee, defectID)
		}
	}
	return d, nil
}

func (s *Service) AddComment(ctx context.Context, actor core.Actor, defectID int64, body string) (*models.Comment, error) {
	if err := core.Authorize(actor, core.ActionCommentAdd); err != nil {
		return nil, err
	}
	if body == "" {
		return nil, fmt.Errorf("%w: body is required", core.ErrValidation)
	}
	if _, err := s.requireDefectParticipation(ctx, actor, defectID); err != nil {
		return nil, err
	}

	c := &models.Comment{DefectID: defectID, UserID: actor.UserID, Body: body}
	id, err := s.store.CreateComment(ctx, c)
	if err != nil {
		return nil, storeErr("create comment", err)
	}
	c.ID = id
	return c, nil
}

func (s *Service) EditComment(ctx context.Context, actor core.Actor, commentID int64, body string) (*models.Comment, error) {
	if err := core.Authorize(actor, core.ActionCommentEdit); err != nil {
		return nil, err
	}
	if body == "" {
		return nil, fmt.Errorf("%w: body is required", core.ErrValidation)
	}
	c, err := s.store.GetCommentByID(ctx, commentID)
	if err != nil {
		return nil, storeErr("get comment", err)
	}
	if c == nil {
		return nil, fmt.Errorf("%w: comment %d", core.ErrNotFound, commentID)
	}
	if c.UserID != actor.UserID {
		return nil, fmt.Errorf("%w: comment %d is not yours", core.ErrForbidden, commentID)
	}
	if _, err := s.requireDefectParticipation(ctx, actor, c.DefectID); err != nil {
		return nil, err
	}

	c.Body = body
	if err := s.store.UpdateComment(ctx, c); err != nil {
		return nil, storeErr("update comment", err)
	}
	return c, nil
}

// DeleteComment removes the actor's own comment. Engineers must additionally
// still be the defect's assignee.
func (s *Service) DeleteComment(ctx context.Context, actor core.Actor, commentID int64) error {
	if err := core.Authorize(actor, core.ActionCommentDelete); err != nil {
		return err
	}
	c, err := s.store.GetCommentByID(ctx, commentID)
	if err != nil {
		return storeErr("get comment", err)
	}
	if c == nil {
		return fmt.Errorf("%w: comment %d", core.ErrNotFound, commentID)
	}
	if c.UserID != actor.UserID {
		return fmt.Errorf("%w: comment %d is not yours", core.ErrForbidden, commentID)
	}
	if _, err := s.requireDefectParticipation(ctx, actor, c.DefectID); err != nil {
		return err
	}

	if err := s.store.DeleteComment(ctx, commentID); err != nil {
		return storeErr("delete comment", err)
	}
	return nil
}

func (s *Service) ListComments(ctx context.Context, actor core.Actor, defectID int64) ([]models.Comment, error) {
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

	comments, err := s.store.ListCommentsByDefect(ctx, defectID)
	if err != nil {
		return nil, storeErr("list comments", err)
	}
	return comments, nil
}
