package service

import (
	"errors"
	"fmt"

	"nutriplan/nutrition-app/internal/domain"
)

// --- Error Definitions ---
// Shared across the engine's services. Handlers map these onto the HTTP
// taxonomy: validation -> 400, not found -> 404, conflict/state -> 409.
var (
	ErrValidation           = errors.New("validation failed")
	ErrTemplateNotFound     = errors.New("meal plan template not found")
	ErrScheduleNotFound     = errors.New("meal schedule not found")
	ErrItemNotFound         = errors.New("meal item not found")
	ErrScheduleAccessDenied = errors.New("schedule does not belong to this user")
	ErrTemplateAccessDenied = errors.New("template does not belong to this author")
	ErrSlotConflict         = errors.New("a meal item already occupies that date and meal type")
	ErrCrossScheduleSwap    = errors.New("cannot swap meal items from different schedules")
)

// validationError wraps ErrValidation with a human-readable detail so
// handlers can both match the kind and surface the message.
func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// StateTransitionError reports a rejected lifecycle transition. The current
// state is included so the client can resynchronize.
type StateTransitionError struct {
	Op           string
	CurrentState domain.MealItemState
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("cannot %s a meal item in state %q", e.Op, e.CurrentState)
}
