package loans

import (
	"errors"
	"fmt"
)

// Validation errors: bad input, never retried.
var (
	ErrEmptyRequest               = errors.New("request has no line items")
	ErrInvalidQuantity            = errors.New("line item quantity must be greater than zero and within range")
	ErrMissingMetadata            = errors.New("academic year code, request date and department code are required")
	ErrInvalidReturnDate          = errors.New("expected return date must be YYYY-MM-DD")
	ErrUnknownOrInactiveEquipment = errors.New("equipment is unknown or inactive")
)

// State conflicts: real business outcomes, never retried.
var (
	ErrNotFound                      = errors.New("loan request not found")
	ErrAlreadyProcessed              = errors.New("loan request already processed")
	ErrNotReturnable                 = errors.New("only approved requests can be returned")
	ErrEquipmentMissing              = errors.New("equipment no longer exists")
	ErrInsufficientStock             = errors.New("insufficient stock")
	ErrInsufficientStockAtSubmission = errors.New("insufficient stock at submission")
	ErrForbidden                     = errors.New("forbidden")
)

// ErrTransactionConflict is store contention that survived the retry budget.
var ErrTransactionConflict = errors.New("transaction conflict, please retry")

// InsufficientStockError carries which equipment ran short. It matches
// ErrInsufficientStock from the approval path and
// ErrInsufficientStockAtSubmission from the submission path.
type InsufficientStockError struct {
	EquipmentID   string
	EquipmentName string
	Remaining     int
	Requested     int
	atSubmission  bool
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, remaining %d",
		e.EquipmentName, e.Requested, e.Remaining)
}

func (e *InsufficientStockError) Is(target error) bool {
	if e.atSubmission {
		return target == ErrInsufficientStockAtSubmission
	}
	return target == ErrInsufficientStock
}

type EquipmentMissingError struct {
	EquipmentID   string
	EquipmentName string // snapshot name from the line item
}

func (e *EquipmentMissingError) Error() string {
	return fmt.Sprintf("equipment %s (%s) no longer exists", e.EquipmentName, e.EquipmentID)
}

func (e *EquipmentMissingError) Is(target error) bool { return target == ErrEquipmentMissing }
