package order

import (
	"errors"
	"fmt"

	"github.com/pharmetrix/careplan-service/internal/dedup"
)

var (
	// ErrNotFound is returned when no order matches the given id.
	ErrNotFound = errors.New("order not found")

	// ErrNotResettable is returned when reset is requested for an order
	// that is not in the failed state.
	ErrNotResettable = errors.New("only failed orders can be reset")

	// ErrPlanNotReady is returned when a care plan is requested for an
	// order that has not completed generation.
	ErrPlanNotReady = errors.New("care plan not available")
)

// ValidationError reports a malformed identifier or field in the canonical
// order. It is the caller's fault and never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// BlockedError is a hard business-rule conflict: NPI rebinding or a same-day
// duplicate order. It is never retried and never overridable.
type BlockedError struct {
	Warnings []dedup.Warning
}

func (e *BlockedError) Error() string {
	return "order submission blocked by duplicate rules"
}

// ConfirmationRequiredError is a soft conflict: the caller must resubmit with
// confirm=true to proceed. Nothing was created.
type ConfirmationRequiredError struct {
	Warnings []dedup.Warning
}

func (e *ConfirmationRequiredError) Error() string {
	return "order submission requires duplicate confirmation"
}
