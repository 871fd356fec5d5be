package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TemplateMeal is a single meal entry inside a template day.
type TemplateMeal struct {
	RecipeID     primitive.ObjectID `bson:"recipeId" json:"recipeId"`
	MealType     MealType           `bson:"mealType" json:"mealType"`
	ScheduleTime string             `bson:"scheduleTime,omitempty" json:"scheduleTime,omitempty"` // "HH:MM"
}

// TemplateDay groups the meals planned for one day of the template.
type TemplateDay struct {
	DayNumber int            `bson:"dayNumber" json:"dayNumber"` // 1-based
	Meals     []TemplateMeal `bson:"meals" json:"meals"`
}

// MealPlanTemplate is a reusable, author-owned blueprint of meals across a
// fixed number of days. Templates are immutable after creation; appliers get
// their own UserMealSchedule instance and never mutate the template.
type MealPlanTemplate struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AuthorID       primitive.ObjectID `bson:"authorId" json:"authorId"`
	Title          string             `bson:"title" json:"title"`
	Description    string             `bson:"description,omitempty" json:"description,omitempty"`
	Category       string             `bson:"category,omitempty" json:"category,omitempty"`     // e.g. "weight-loss", "muscle-gain"
	Difficulty     string             `bson:"difficulty,omitempty" json:"difficulty,omitempty"` // e.g. "easy", "medium", "hard"
	DurationDays   int                `bson:"durationDays" json:"durationDays"`
	TargetCalories float64            `bson:"targetCalories,omitempty" json:"targetCalories,omitempty"` // per day
	Days           []TemplateDay      `bson:"days" json:"days"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}
