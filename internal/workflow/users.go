package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/garnizeh/snaglist/internal/core"
	"github.com/garnizeh/snaglist/internal/history"
	"github.com/garnizeh/snaglist/pkg/models"
	"github.com/garnizeh/snaglist/pkg/repository"
	"golang.org/x/crypto/bcrypt"
)

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1
}

// CreateUser provisions a pending account: email and role only. The holder
// activates it later through CompleteRegistration.
func (s *Service) CreateUser(ctx context.Context, actor core.Actor, email, roleName string) (*models.User, error) {
	if err := core.Authorize(actor, core.ActionUserCreate); err != nil {
		return nil, err
	}
	if !validEmail(email) {
		return nil, fmt.Errorf("%w: bad email %q", core.ErrValidation, email)
	}
	if _, err := core.ParseRole(roleName); err != nil {
		return nil, fmt.Errorf("%w: unknown role %q", core.ErrValidation, roleName)
	}

	u := &models.User{Email: email, Role: roleName}
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		existing, err := tx.GetUserByEmail(ctx, email)
		if err != nil {
			return storeErr("get user", err)
		}
		if existing != nil {
			return fmt.Errorf("%w: email %q already in use", core.ErrValidation, email)
		}
		id, err := tx.CreateUser(ctx, u)
		if err != nil {
			return storeErr("create user", err)
		}
		u.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// CompleteRegistration activates a pending account by setting the holder's
// name and password. An account never returns to pending afterwards.
func (s *Service) CompleteRegistration(ctx context.Context, email, fullName, password string) (*models.User, error) {
	if fullName == "" || password == "" {
		return nil, fmt.Errorf("%w: full_name and password are required", core.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var out *models.User
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		u, err := tx.GetUserByEmail(ctx, email)
		if err != nil {
			return storeErr("get user", err)
		}
		if u == nil {
			return fmt.Errorf("%w: user %q", core.ErrNotFound, email)
		}
		if !u.Pending() {
			return fmt.Errorf("%w: account already registered", core.ErrValidation)
		}
		hashStr := string(hash)
		u.FullName = &fullName
		u.PasswordHash = &hashStr
		if err := tx.UpdateUser(ctx, u); err != nil {
			return storeErr("update user", err)
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateProfile edits the actor's own full_name and email. Self-service for
// every role; editing anyone else is forbidden.
func (s *Service) UpdateProfile(ctx context.Context, actor core.Actor, userID int64, fullName, email string) (*models.User, error) {
	if err := core.Authorize(actor, core.ActionProfileEdit); err != nil {
		return nil, err
	}
	if userID != actor.UserID {
		return nil, fmt.Errorf("%w: profile %d is not yours", core.ErrForbidden, userID)
	}
	if fullName == "" {
		return nil, fmt.Errorf("%w: full_name is required", core.ErrValidation)
	}
	if !validEmail(email) {
		return nil, fmt.Errorf("%w: bad email %q", core.ErrValidation, email)
	}

	var out *models.User
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		u, err := tx.GetUserByID(ctx, userID)
		if err != nil {
			return storeErr("get user", err)
		}
		if u == nil {
			return fmt.Errorf("%w: user %d", core.ErrNotFound, userID)
		}
		if u.Email != email {
			other, err := tx.GetUserByEmail(ctx, email)
			if err != nil {
				return storeErr("get user", err)
			}
			if other != nil {
				return fmt.Errorf("%w: email %q already in use", core.ErrValidation, email)
			}
		}
		u.FullName = &fullName
		u.Email = email
		if err := tx.UpdateUser(ctx, u); err != nil {
			return storeErr("update user", err)
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteUser removes an account. Deleting the last remaining manager is
// refused so the system always keeps at least one. Defects assigned to the
// removed user are unassigned in the same transaction, each leaving its own
// UPDATE audit record.
func (s *Service) DeleteUser(ctx context.Context, actor core.Actor, userID int64) error {
	if err := core.Authorize(actor, core.ActionUserDelete); err != nil {
		return err
	}

	return s.store.InTx(ctx, func(tx repository.Store) error {
		u, err := tx.GetUserByID(ctx, userID)
		if err != nil {
			return storeErr("get user", err)
		}
		if u == nil {
			return fmt.Errorf("%w: user %d", core.ErrNotFound, userID)
		}
		if u.Role == string(core.RoleManager) {
			n, err := tx.CountUsersByRole(ctx, string(core.RoleManager))
			if err != nil {
				return storeErr("count managers", err)
			}
			if n <= 1 {
				return core.ErrLastManager
			}
		}

		assigned, err := tx.ListDefectsByAssignee(ctx, userID)
		if err != nil {
			return storeErr("list assigned defects", err)
		}
		for i := range assigned {
			d := &assigned[i]
			before := history.DefectSnapshot(d)
			d.AssigneeID = nil
			if err := tx.UpdateDefect(ctx, d); err != nil {
				return storeErr("unassign defect", err)
			}
			if _, err := s.rec.Record(ctx, tx, history.EntityDefect, d.ID, &actor.UserID, history.ActionUpdate, before, history.DefectSnapshot(d)); err != nil {
				return storeErr("record defect unassign", err)
			}
		}

		if err := tx.DeleteUser(ctx, userID); err != nil {
			return storeErr("delete user", err)
		}
		return nil
	})
}

func (s *Service) ListUsers(ctx context.Context, actor core.Actor) ([]models.User, error) {
	if err := core.Authorize(actor, core.ActionUserList); err != nil {
		return nil, err
	}
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, storeErr("list users", err)
	}
	return users, nil
}
