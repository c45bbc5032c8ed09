package core

import "errors"

// Sentinel errors for the defect engine. The API layer maps these onto HTTP
// status codes; everything else wraps them with %w and context.
var (
	// ErrNotFound indicates the requested entity id does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates the authorization matrix denied the action.
	ErrForbidden = errors.New("forbidden")

	// ErrNotAssignee indicates an engineer acted on a defect not assigned to them.
	ErrNotAssignee = errors.New("not the assignee")

	// ErrInvalidTransition indicates a status change the lifecycle does not permit.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrUnknownStatus indicates a status value outside the fixed enum.
	ErrUnknownStatus = errors.New("unknown status")

	// ErrInvalidAssignee indicates an assignment target whose role is not engineer.
	ErrInvalidAssignee = errors.New("assignee must be an engineer")

	// ErrLastManager indicates an attempt to delete the last remaining manager.
	ErrLastManager = errors.New("cannot delete the last manager")

	// ErrValidation indicates a malformed request: missing required field,
	// bad date range, unknown enum value. Never reaches the store.
	ErrValidation = errors.New("validation failed")

	// ErrStoreFailure indicates the persistence layer failed; the whole unit
	// of work was rolled back and the caller may retry.
	ErrStoreFailure = errors.New("store failure")
)
