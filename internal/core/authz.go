package core

import "fmt"

// Role is the closed set of account roles.
type Role string

const (
	RoleManager  Role = "manager"
	RoleEngineer Role = "engineer"
	RoleObserver Role = "observer"
)

// ParseRole maps a stored role string onto the closed enum. Anything else is
// an authorization failure, not a crash.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleManager, RoleEngineer, RoleObserver:
		return Role(s), nil
	}
	return "", fmt.Errorf("%w: unrecognized role %q", ErrForbidden, s)
}

// Actor is the resolved identity of the caller, passed explicitly into every
// workflow and authorization call.
type Actor struct {
	UserID int64
	Role   Role
}

// Action names one gated operation. Row-level distinctions (engineer acting
// on their own assignment) are separate actions so the matrix stays a flat
// (role, action) table.
type Action string

const (
	ActionObjectCreate Action = "object:create"
	ActionObjectRead   Action = "object:read"
	ActionObjectUpdate Action = "object:update"
	ActionObjectDelete Action = "object:delete"

	ActionDefectCreate Action = "defect:create"
	ActionDefectRead   Action = "defect:read"
	ActionDefectUpdate Action = "defect:update"
	ActionDefectDelete Action = "defect:delete"
	ActionDefectAssign Action = "defect:assign"

	// ActionDefectResolve covers transitions into Closed/Cancelled.
	// ActionDefectProgress covers transitions into InProgress/InReview and is
	// additionally subject to the assignee check in Transition.
	ActionDefectResolve  Action = "defect:resolve"
	ActionDefectProgress Action = "defect:progress"

	ActionUserCreate Action = "user:create"
	ActionUserDelete Action = "user:delete"
	ActionUserList   Action = "user:list"

	// ActionProfileEdit is the self-service profile update; the workflow
	// enforces that the target is the actor themself.
	ActionProfileEdit Action = "profile:edit"

	ActionCommentAdd    Action = "comment:add"
	ActionCommentEdit   Action = "comment:edit"
	ActionCommentDelete Action = "comment:delete"

	ActionAttachmentAdd    Action = "attachment:add"
	ActionAttachmentRead   Action = "attachment:read"
	ActionAttachmentDelete Action = "attachment:delete"

	ActionHistoryRead Action = "history:read"
)

// matrix is the whole permission table. An absent pair denies (fail-closed);
// adding a rule is a one-line change here.
var matrix = map[Role]map[Action]bool{
	RoleManager: {
		ActionObjectCreate:     true,
		ActionObjectRead:       true,
		ActionObjectUpdate:     true,
		ActionObjectDelete:     true,
		ActionDefectCreate:     true,
		ActionDefectRead:       true,
		ActionDefectUpdate:     true,
		ActionDefectDelete:     true,
		ActionDefectAssign:     true,
		ActionDefectResolve:    true,
		ActionUserCreate:       true,
		ActionUserDelete:       true,
		ActionUserList:         true,
		ActionProfileEdit:      true,
		ActionCommentAdd:       true,
		ActionCommentEdit:      true,
		ActionCommentDelete:    true,
		ActionAttachmentAdd:    true,
		ActionAttachmentRead:   true,
		ActionAttachmentDelete: true,
		ActionHistoryRead:      true,
	},
	RoleEngineer: {
		// Read and comment/attachment actions are further restricted to
		// defects where assignee_id == actor; the workflow enforces that.
		ActionObjectRead:       true,
		ActionDefectRead:       true,
		ActionDefectProgress:   true,
		ActionProfileEdit:      true,
		ActionCommentAdd:       true,
		ActionCommentEdit:      true,
		ActionCommentDelete:    true,
		ActionAttachmentAdd:    true,
		ActionAttachmentRead:   true,
		ActionAttachmentDelete: true,
		ActionHistoryRead:      true,
	},
	RoleObserver: {
		ActionObjectRead:     true,
		ActionDefectRead:     true,
		ActionProfileEdit:    true,
		ActionAttachmentRead: true,
		ActionHistoryRead:    true,
	},
}

// Allow reports whether role may perform action. Total and deterministic:
// unknown roles and unknown actions deny.
func Allow(role Role, action Action) bool {
	perms, ok := matrix[role]
	if !ok {
		return false
	}
	return perms[action]
}

// Authorize is Allow with the error taxonomy applied.
func Authorize(actor Actor, action Action) error {
	if !Allow(actor.Role, action) {
		return fmt.Errorf("%w: role %s may not %s", ErrForbidden, actor.Role, action)
	}
	return nil
}
