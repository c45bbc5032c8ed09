package core

import (
	"fmt"
	"time"

	"github.com/garnizeh/snaglist/pkg/models"
)

// Status is the fixed defect lifecycle enum. The numeric values are part of
// the storage and wire format and never change.
type Status int64

const (
	StatusNew        Status = 1
	StatusInProgress Status = 2
	StatusInReview   Status = 3
	StatusClosed     Status = 4
	StatusCancelled  Status = 5
)

// Priority is the fixed defect priority enum.
type Priority int64

const (
	PriorityLow    Priority = 1
	PriorityMedium Priority = 2
	PriorityHigh   Priority = 3
)

func (s Status) Known() bool {
	return s >= StatusNew && s <= StatusCancelled
}

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusClosed || s == StatusCancelled
}

func (p Priority) Known() bool {
	return p >= PriorityLow && p <= PriorityHigh
}

func (s Status) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusInProgress:
		return "in_progress"
	case StatusInReview:
		return "in_review"
	case StatusClosed:
		return "closed"
	case StatusCancelled:
		return "cancelled"
	}
	return fmt.Sprintf("status(%d)", int64(s))
}

// transitions lists the permitted lifecycle edges:
// New -> InProgress <-> InReview -> Closed. Cancelled is reachable from any
// non-terminal state (a manager may abandon a defect at any point before it
// is resolved). Terminal states have no outgoing edges.
var transitions = map[Status]map[Status]bool{
	StatusNew:        {StatusInProgress: true, StatusCancelled: true},
	StatusInProgress: {StatusInReview: true, StatusCancelled: true},
	StatusInReview:   {StatusInProgress: true, StatusClosed: true, StatusCancelled: true},
}

// actionForStatus maps a target status onto the matrix action gating it.
func actionForStatus(target Status) Action {
	if target.Terminal() {
		return ActionDefectResolve
	}
	return ActionDefectProgress
}

// Transition validates and applies a status change on d in place. It checks,
// in order: the target is a known status, the current status is not terminal,
// the actor's role is allowed to move a defect into the target, engineer-only
// moves are on the actor's own assignment, and the lifecycle permits the
// edge. Terminal finality is reported before authorization so a denied role
// cannot mask it. On entering a terminal status Completed is set to now; it
// stays nil among non-terminal states.
func Transition(d *models.Defect, target Status, actor Actor, now time.Time) error {
	if !target.Known() {
		return fmt.Errorf("%w: %d", ErrUnknownStatus, int64(target))
	}
	current := Status(d.StatusID)
	if current.Terminal() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, target)
	}
	if err := Authorize(actor, actionForStatus(target)); err != nil {
		return err
	}
	if actor.Role == RoleEngineer {
		if d.AssigneeID == nil || *d.AssigneeID != actor.UserID {
			return fmt.Errorf("%w: defect %d", ErrNotAssignee, d.ID)
		}
	}
	if !transitions[current][target] {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, target)
	}

	d.StatusID = int64(target)
	if target.Terminal() {
		ts := now.UTC().UnixMilli()
		d.Completed = &ts
	} else {
		d.Completed = nil
	}
	return nil
}

// Assign sets or clears the defect's assignee. Only a manager may assign;
// the target user must hold the engineer role. Clearing (assignee == nil)
// is always permitted for a manager.
func Assign(d *models.Defect, assignee *models.User, actor Actor) error {
	if err := Authorize(actor, ActionDefectAssign); err != nil {
		return err
	}
	if assignee == nil {
		d.AssigneeID = nil
		return nil
	}
	role, err := ParseRole(assignee.Role)
	if err != nil || role != RoleEngineer {
		return fmt.Errorf("%w: user %d has role %q", ErrInvalidAssignee, assignee.ID, assignee.Role)
	}
	d.AssigneeID = &assignee.ID
	return nil
}
