package service

import (
	"context"
	"errors"
	"time"

	"nutriplan/nutrition-app/internal/domain"
	"nutriplan/nutrition-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AddMealItemInput carries the data for manually adding one meal slot.
type AddMealItemInput struct {
	Date         time.Time
	MealType     domain.MealType
	ScheduleTime string
	RecipeID     primitive.ObjectID
	Notes        string
}

// UpdateMealItemInput carries the free-form metadata fields of an item
// update. Nil pointers leave the stored value untouched.
type UpdateMealItemInput struct {
	Notes        *string
	ScheduleTime *string
}

// --- Service Interface ---
//
// MealItemService owns the lifecycle of scheduled meal occurrences. Every
// transition guard is enforced here (and nowhere else), on top of the
// repository's compare-and-set primitives. All operations authorize against
// the owning schedule: a user can only touch their own items.
type MealItemService interface {
	Complete(ctx context.Context, userID, itemID primitive.ObjectID, actual *domain.NutrientVector) (*domain.MealItem, error)
	Skip(ctx context.Context, userID, itemID primitive.ObjectID, notes string) (*domain.MealItem, error)
	Substitute(ctx context.Context, userID, itemID, substituteRecipeID primitive.ObjectID, notes string) (*domain.MealItem, error)
	Reschedule(ctx context.Context, userID, itemID primitive.ObjectID, newDate *time.Time, newTime string) (*domain.MealItem, error)
	Swap(ctx context.Context, userID, firstID, secondID primitive.ObjectID) ([]domain.MealItem, error)
	Add(ctx context.Context, userID, scheduleID primitive.ObjectID, input AddMealItemInput) (*domain.MealItem, error)
	Remove(ctx context.Context, userID, itemID primitive.ObjectID) error
	Update(ctx context.Context, userID, itemID primitive.ObjectID, input UpdateMealItemInput) (*domain.MealItem, error)
	DayItems(ctx context.Context, userID, scheduleID primitive.ObjectID, date time.Time) ([]domain.MealItem, error)
}

// --- Service Implementation ---

// mealItemService implements the MealItemService interface.
type mealItemService struct {
	itemRepo     repository.MealItemRepository
	scheduleRepo repository.ScheduleRepository
	catalog      repository.NutrientCatalog
}

// NewMealItemService creates a new instance of mealItemService.
func NewMealItemService(
	itemRepo repository.MealItemRepository,
	scheduleRepo repository.ScheduleRepository,
	catalog repository.NutrientCatalog,
) MealItemService {
	return &mealItemService{
		itemRepo:     itemRepo,
		scheduleRepo: scheduleRepo,
		catalog:      catalog,
	}
}

// ownedItem fetches an item and verifies the requesting user owns the
// schedule it belongs to.
func (s *mealItemService) ownedItem(ctx context.Context, userID, itemID primitive.ObjectID) (*domain.MealItem, error) {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}

	schedule, err := s.scheduleRepo.GetByID(ctx, item.ScheduleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	if schedule.OwnerUserID != userID {
		return nil, ErrScheduleAccessDenied
	}
	return item, nil
}

// ownedSchedule verifies the requesting user owns the schedule.
func (s *mealItemService) ownedSchedule(ctx context.Context, userID, scheduleID primitive.ObjectID) (*domain.UserMealSchedule, error) {
	schedule, err := s.scheduleRepo.GetByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	if schedule.OwnerUserID != userID {
		return nil, ErrScheduleAccessDenied
	}
	return schedule, nil
}

// Complete marks a planned item completed. Re-completing an already completed
// item is idempotent: the existing completion is returned unchanged, so a
// client double-submit never counts nutrition twice.
func (s *mealItemService) Complete(ctx context.Context, userID, itemID primitive.ObjectID, actual *domain.NutrientVector) (*domain.MealItem, error) {
	if actual != nil && !actual.NonNegative() {
		return nil, validationError("actual_nutrition fields must be non-negative")
	}
	if _, err := s.ownedItem(ctx, userID, itemID); err != nil {
		return nil, err
	}

	updated, err := s.itemRepo.CompleteIfPlanned(ctx, itemID, actual, time.Now().UTC())
	if err == nil {
		return updated, nil
	}
	if errors.Is(err, repository.ErrUpdateFailed) {
		// The guard did not match: re-read to decide between the idempotent
		// case and a genuine invalid transition.
		current, getErr := s.itemRepo.GetByID(ctx, itemID)
		if getErr != nil {
			return nil, getErr
		}
		if current.State == domain.ItemCompleted {
			return current, nil
		}
		return nil, &StateTransitionError{Op: "complete", CurrentState: current.State}
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrItemNotFound
	}
	return nil, err
}

// Skip marks a planned item skipped. Skipped items contribute zero to
// nutrition aggregation.
func (s *mealItemService) Skip(ctx context.Context, userID, itemID primitive.ObjectID, notes string) (*domain.MealItem, error) {
	if _, err := s.ownedItem(ctx, userID, itemID); err != nil {
		return nil, err
	}

	updated, err := s.itemRepo.SkipIfPlanned(ctx, itemID, notes, time.Now().UTC())
	if err == nil {
		return updated, nil
	}
	if errors.Is(err, repository.ErrUpdateFailed) {
		current, getErr := s.itemRepo.GetByID(ctx, itemID)
		if getErr != nil {
			return nil, getErr
		}
		return nil, &StateTransitionError{Op: "skip", CurrentState: current.State}
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrItemNotFound
	}
	return nil, err
}

// Substitute replaces what a planned item's meal is without changing its
// lifecycle stage: the recipe id and nutrition snapshot are swapped for the
// substitute's, and the item stays planned.
func (s *mealItemService) Substitute(ctx context.Context, userID, itemID, substituteRecipeID primitive.ObjectID, notes string) (*domain.MealItem, error) {
	if substituteRecipeID == primitive.NilObjectID {
		return nil, validationError("substitute_recipe_id is required")
	}
	if _, err := s.ownedItem(ctx, userID, itemID); err != nil {
		return nil, err
	}

	// Substitution is an explicit replacement of the snapshot, so here an
	// unresolved recipe is a hard error rather than fail-open: the user named
	// a specific recipe and should know it does not exist.
	snapshot, err := s.catalog.FindRecipe(ctx, substituteRecipeID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, validationError("substitute recipe %s does not exist", substituteRecipeID.Hex())
	}

	updated, err := s.itemRepo.SubstituteIfPlanned(ctx, itemID, substituteRecipeID, snapshot, false, notes)
	if err == nil {
		return updated, nil
	}
	if errors.Is(err, repository.ErrUpdateFailed) {
		current, getErr := s.itemRepo.GetByID(ctx, itemID)
		if getErr != nil {
			return nil, getErr
		}
		return nil, &StateTransitionError{Op: "substitute", CurrentState: current.State}
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrItemNotFound
	}
	return nil, err
}

// Reschedule moves an item to a new date and/or time. The destination slot
// must be free; a collision aborts the move with no mutation. When the date
// actually changes the state resets to planned and the original date is kept
// for audit; a time-only change is a metadata edit that leaves both alone.
func (s *mealItemService) Reschedule(ctx context.Context, userID, itemID primitive.ObjectID, newDate *time.Time, newTime string) (*domain.MealItem, error) {
	if newDate == nil && newTime == "" {
		return nil, validationError("reschedule requires new_date or new_time")
	}
	if newTime != "" && !domain.ValidReminderTime(newTime) {
		return nil, validationError("new_time must be HH:MM")
	}

	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	targetDate := item.Date
	if newDate != nil {
		targetDate = domain.DateOnly(*newDate)
	}

	if targetDate.Equal(item.Date) {
		// The slot does not move, so there is no state reset or audit trail.
		if newTime == "" || newTime == item.ScheduleTime {
			return item, nil
		}
		updated, err := s.itemRepo.UpdateFields(ctx, itemID, repository.MealItemUpdate{ScheduleTime: &newTime})
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrItemNotFound
			}
			return nil, err
		}
		return updated, nil
	}

	occupant, err := s.itemRepo.FindBySlot(ctx, item.ScheduleID, targetDate, item.MealType)
	if err == nil && occupant.ID != item.ID {
		return nil, ErrSlotConflict
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	updated, err := s.itemRepo.Reschedule(ctx, itemID, targetDate, newTime, item.Date)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Swap exchanges the full content payload (date, meal type, schedule time,
// recipe, nutrition snapshot) of two items while keeping their ids stable.
// Both items must belong to the same schedule; cross-user swap is forbidden.
func (s *mealItemService) Swap(ctx context.Context, userID, firstID, secondID primitive.ObjectID) ([]domain.MealItem, error) {
	if firstID == secondID {
		return nil, validationError("cannot swap a meal item with itself")
	}

	first, err := s.ownedItem(ctx, userID, firstID)
	if err != nil {
		return nil, err
	}
	second, err := s.ownedItem(ctx, userID, secondID)
	if err != nil {
		return nil, err
	}
	if first.ScheduleID != second.ScheduleID {
		return nil, ErrCrossScheduleSwap
	}

	if err := s.itemRepo.Swap(ctx, first, second); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}

	updatedFirst, err := s.itemRepo.GetByID(ctx, firstID)
	if err != nil {
		return nil, err
	}
	updatedSecond, err := s.itemRepo.GetByID(ctx, secondID)
	if err != nil {
		return nil, err
	}
	return []domain.MealItem{*updatedFirst, *updatedSecond}, nil
}

// Add creates a new meal slot in a schedule. The (date, meal_type) slot must
// be free. The nutrition snapshot follows the fail-open policy used when
// applying a template.
func (s *mealItemService) Add(ctx context.Context, userID, scheduleID primitive.ObjectID, input AddMealItemInput) (*domain.MealItem, error) {
	if !domain.ValidMealType(input.MealType) {
		return nil, validationError("unknown meal type %q", input.MealType)
	}
	if input.Date.IsZero() {
		return nil, validationError("date is required")
	}
	if input.RecipeID == primitive.NilObjectID {
		return nil, validationError("recipe_id is required")
	}
	if input.ScheduleTime != "" && !domain.ValidReminderTime(input.ScheduleTime) {
		return nil, validationError("schedule_time must be HH:MM")
	}

	if _, err := s.ownedSchedule(ctx, userID, scheduleID); err != nil {
		return nil, err
	}

	date := domain.DateOnly(input.Date)
	if _, err := s.itemRepo.FindBySlot(ctx, scheduleID, date, input.MealType); err == nil {
		return nil, ErrSlotConflict
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	item := &domain.MealItem{
		ScheduleID:   scheduleID,
		Date:         date,
		MealType:     input.MealType,
		ScheduleTime: input.ScheduleTime,
		RecipeID:     input.RecipeID,
		Notes:        input.Notes,
		State:        domain.ItemPlanned,
	}

	snapshot, err := s.catalog.FindRecipe(ctx, input.RecipeID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		item.NutritionMissing = true
	} else {
		item.PlannedNutrition = snapshot
	}

	itemID, err := s.itemRepo.Create(ctx, item)
	if err != nil {
		return nil, err
	}
	item.ID = itemID
	return item, nil
}

// Remove soft-deletes a meal slot.
func (s *mealItemService) Remove(ctx context.Context, userID, itemID primitive.ObjectID) error {
	if _, err := s.ownedItem(ctx, userID, itemID); err != nil {
		return err
	}

	err := s.itemRepo.SoftDelete(ctx, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrItemNotFound
		}
		return err
	}
	return nil
}

// Update applies free-form metadata edits (notes, schedule time) without
// transitioning state.
func (s *mealItemService) Update(ctx context.Context, userID, itemID primitive.ObjectID, input UpdateMealItemInput) (*domain.MealItem, error) {
	if input.Notes == nil && input.ScheduleTime == nil {
		return nil, validationError("update requires at least one field")
	}
	if input.ScheduleTime != nil && !domain.ValidReminderTime(*input.ScheduleTime) {
		return nil, validationError("schedule_time must be HH:MM")
	}

	if _, err := s.ownedItem(ctx, userID, itemID); err != nil {
		return nil, err
	}

	updated, err := s.itemRepo.UpdateFields(ctx, itemID, repository.MealItemUpdate{
		Notes:        input.Notes,
		ScheduleTime: input.ScheduleTime,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return updated, nil
}

// DayItems lists the live items of one day of a schedule.
func (s *mealItemService) DayItems(ctx context.Context, userID, scheduleID primitive.ObjectID, date time.Time) ([]domain.MealItem, error) {
	if _, err := s.ownedSchedule(ctx, userID, scheduleID); err != nil {
		return nil, err
	}
	return s.itemRepo.GetByScheduleAndDate(ctx, scheduleID, date)
}
