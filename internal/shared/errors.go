package shared

import "errors"

var (
	// ErrNotFound indicates a referenced organization, node, element or value is absent.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition occurs when a workflow action violates the status state machine.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrMissingComment occurs when a rejection is attempted without a rationale.
	ErrMissingComment = errors.New("rejection comment required")
	// ErrInvalidNumericValue occurs when an indicator value does not parse as a finite number.
	ErrInvalidNumericValue = errors.New("invalid numeric value")
	// ErrIncompleteHierarchy occurs when a node references a lower level without its ancestor.
	ErrIncompleteHierarchy = errors.New("incomplete hierarchy")
	// ErrProjectionUnavailable occurs when every dashboard read tier has failed.
	ErrProjectionUnavailable = errors.New("dashboard projection unavailable")
	// ErrForbidden occurs when the actor role does not permit the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrDuplicate occurs when a unique code or name already exists.
	ErrDuplicate = errors.New("duplicate entry")
)
