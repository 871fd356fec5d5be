package repository

import (
	"context"
	"time"

	"nutriplan/nutrition-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// ScheduleFilter narrows UserMealSchedule list queries.
type ScheduleFilter struct {
	Status *domain.ScheduleStatus
	Page   int // 1-based
	Limit  int
}

// TemplateRepository defines the interface for interacting with meal plan
// template data. Templates are immutable after creation.
type TemplateRepository interface {
	Create(ctx context.Context, template *domain.MealPlanTemplate) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.MealPlanTemplate, error)
	GetByAuthorID(ctx context.Context, authorID primitive.ObjectID) ([]domain.MealPlanTemplate, error)
	Delete(ctx context.Context, id, authorID primitive.ObjectID) error // only the author may delete
}

// ScheduleRepository defines the interface for interacting with user meal
// schedule data.
type ScheduleRepository interface {
	Create(ctx context.Context, schedule *domain.UserMealSchedule) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.UserMealSchedule, error)
	GetByOwnerID(ctx context.Context, ownerID primitive.ObjectID, filter ScheduleFilter) ([]domain.UserMealSchedule, error)
	UpdateMetadata(ctx context.Context, schedule *domain.UserMealSchedule) error
	ReplaceReminders(ctx context.Context, id primitive.ObjectID, reminders []domain.Reminder) error
}

// MealItemUpdate carries the free-form metadata fields an item update may
// touch. Nil pointers leave the stored value untouched.
type MealItemUpdate struct {
	Notes        *string
	ScheduleTime *string
}

// MealItemRepository defines the interface for interacting with meal item
// data. Every mutating method is a single atomic update against the owning
// document; Swap atomically updates both documents.
type MealItemRepository interface {
	Create(ctx context.Context, item *domain.MealItem) (primitive.ObjectID, error)
	CreateMany(ctx context.Context, items []domain.MealItem) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.MealItem, error)
	GetByScheduleID(ctx context.Context, scheduleID primitive.ObjectID) ([]domain.MealItem, error)
	GetByScheduleAndDate(ctx context.Context, scheduleID primitive.ObjectID, date time.Time) ([]domain.MealItem, error)
	GetByScheduleAndDateRange(ctx context.Context, scheduleID primitive.ObjectID, from, to time.Time) ([]domain.MealItem, error)
	// FindBySlot returns the live item occupying (scheduleID, date, mealType),
	// or ErrNotFound when the slot is free.
	FindBySlot(ctx context.Context, scheduleID primitive.ObjectID, date time.Time, mealType domain.MealType) (*domain.MealItem, error)

	// CompleteIfPlanned performs the planned->completed transition as a
	// compare-and-set; it returns ErrNotFound when the item is missing and
	// ErrUpdateFailed when the state guard did not match.
	CompleteIfPlanned(ctx context.Context, id primitive.ObjectID, actual *domain.NutrientVector, at time.Time) (*domain.MealItem, error)
	// SkipIfPlanned performs the planned->skipped transition the same way.
	SkipIfPlanned(ctx context.Context, id primitive.ObjectID, notes string, at time.Time) (*domain.MealItem, error)
	// SubstituteIfPlanned replaces the recipe and nutrition snapshot while the
	// item is still planned.
	SubstituteIfPlanned(ctx context.Context, id primitive.ObjectID, recipeID primitive.ObjectID, snapshot domain.NutrientVector, missing bool, notes string) (*domain.MealItem, error)
	// Reschedule moves the item to a new slot and resets its state to planned,
	// recording the original date for audit.
	Reschedule(ctx context.Context, id primitive.ObjectID, newDate time.Time, newTime string, originalDate time.Time) (*domain.MealItem, error)
	// Swap exchanges the full scheduling/content payload of two items while
	// keeping their ids stable, inside a two-document transaction.
	Swap(ctx context.Context, first, second *domain.MealItem) error
	UpdateFields(ctx context.Context, id primitive.ObjectID, update MealItemUpdate) (*domain.MealItem, error)
	SoftDelete(ctx context.Context, id primitive.ObjectID) error
}

// NutrientCatalog is the read-only accessor over the external ingredient and
// recipe store. Lookups return ErrNotFound for ids that do not resolve;
// aggregation callers are expected to fail open and skip those ids.
type NutrientCatalog interface {
	FindIngredient(ctx context.Context, id string) (domain.NutrientVector, error)
	FindRecipe(ctx context.Context, id primitive.ObjectID) (domain.NutrientVector, error)
}
