package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MealType distinguishes the slot a meal occupies within a day.
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

// ValidMealType reports whether t is a recognized meal type.
func ValidMealType(t MealType) bool {
	switch t {
	case MealBreakfast, MealLunch, MealDinner, MealSnack:
		return true
	}
	return false
}

// MealItemState type for the per-item lifecycle.
type MealItemState string

const (
	ItemPlanned   MealItemState = "planned"
	ItemCompleted MealItemState = "completed"
	ItemSkipped   MealItemState = "skipped"
)

// MealItem is a single scheduled meal occurrence within a schedule; the unit
// of state-machine transition. Exactly one live item exists per
// (scheduleId, date, mealType) slot at any time.
type MealItem struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ScheduleID primitive.ObjectID `bson:"scheduleId" json:"scheduleId"`
	Date       time.Time          `bson:"date" json:"date"` // UTC midnight
	MealType   MealType           `bson:"mealType" json:"mealType"`

	// ScheduleTime is the intended clock time ("HH:MM"), informational only.
	ScheduleTime string `bson:"scheduleTime,omitempty" json:"scheduleTime,omitempty"`

	RecipeID           primitive.ObjectID  `bson:"recipeId" json:"recipeId"`
	SubstituteRecipeID *primitive.ObjectID `bson:"substituteRecipeId,omitempty" json:"substituteRecipeId,omitempty"`

	// PlannedNutrition is snapshotted when the item is created and never
	// silently recomputed; substitution explicitly replaces it.
	PlannedNutrition NutrientVector `bson:"plannedNutrition" json:"plannedNutrition"`
	// NutritionMissing marks items whose recipe did not resolve at snapshot
	// time; the snapshot is then the zero vector.
	NutritionMissing bool `bson:"nutritionMissing,omitempty" json:"nutritionMissing,omitempty"`
	// ActualNutrition, when recorded at completion, takes precedence over the
	// planned snapshot in aggregation.
	ActualNutrition *NutrientVector `bson:"actualNutrition,omitempty" json:"actualNutrition,omitempty"`

	State        MealItemState `bson:"state" json:"state"`
	Notes        string        `bson:"notes,omitempty" json:"notes,omitempty"`
	CompletedAt  *time.Time    `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	SkippedAt    *time.Time    `bson:"skippedAt,omitempty" json:"skippedAt,omitempty"`
	OriginalDate *time.Time    `bson:"originalDate,omitempty" json:"originalDate,omitempty"` // kept for audit when rescheduled

	Deleted   bool      `bson:"deleted,omitempty" json:"-"` // soft delete
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// ConsumedNutrition returns the nutrition an item contributes once completed:
// the actual nutrition if one was recorded, the planned snapshot otherwise.
func (m *MealItem) ConsumedNutrition() NutrientVector {
	if m.ActualNutrition != nil {
		return *m.ActualNutrition
	}
	return m.PlannedNutrition
}

// CanComplete reports whether the complete transition is allowed. An already
// completed item is handled as an idempotent no-op by the service, not here.
func (m *MealItem) CanComplete() bool {
	return m.State == ItemPlanned
}

// CanSkip reports whether the skip transition is allowed.
func (m *MealItem) CanSkip() bool {
	return m.State == ItemPlanned
}

// CanSubstitute reports whether the recipe may be replaced. Substitution
// changes what is eaten, not the lifecycle stage, so it is only allowed
// while the item is still planned.
func (m *MealItem) CanSubstitute() bool {
	return m.State == ItemPlanned
}

// DateOnly truncates t to UTC midnight. All MealItem dates are stored this
// way so that (scheduleId, date, mealType) slot comparisons are exact.
func DateOnly(t time.Time) time.Time {
	y, mo, d := t.UTC().Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}
