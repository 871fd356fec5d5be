package service_test

import (
	"context"
	"testing"
	"time"

	"nutriplan/nutrition-app/internal/domain"
	"nutriplan/nutrition-app/internal/repository/memory"
	"nutriplan/nutrition-app/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type planFixture struct {
	store   *memory.Store
	svc     service.PlanService
	userID  primitive.ObjectID
	recipes []primitive.ObjectID
}

func newPlanFixture(t *testing.T) *planFixture {
	t.Helper()
	store := memory.New()

	recipes := []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID()}
	store.Recipes[recipes[0]] = domain.NutrientVector{Calories: 400, Protein: 25, Carbs: 40, Fat: 12}
	store.Recipes[recipes[1]] = domain.NutrientVector{Calories: 300, Protein: 15, Carbs: 35, Fat: 8}

	return &planFixture{
		store:   store,
		svc:     service.NewPlanService(store.Templates(), store.Schedules(), store.MealItems(), store.Catalog()),
		userID:  primitive.NewObjectID(),
		recipes: recipes,
	}
}

func (f *planFixture) twoDayTemplate(t *testing.T) *domain.MealPlanTemplate {
	t.Helper()
	template, err := f.svc.CreateTemplate(context.Background(), f.userID, &domain.MealPlanTemplate{
		Title:          "Cut Week",
		TargetCalories: 1800,
		Days: []domain.TemplateDay{
			{DayNumber: 1, Meals: []domain.TemplateMeal{
				{RecipeID: f.recipes[0], MealType: domain.MealBreakfast, ScheduleTime: "08:00"},
				{RecipeID: f.recipes[1], MealType: domain.MealDinner, ScheduleTime: "19:00"},
			}},
			{DayNumber: 2, Meals: []domain.TemplateMeal{
				{RecipeID: f.recipes[1], MealType: domain.MealLunch},
			}},
		},
	})
	require.NoError(t, err)
	return template
}

func TestCreateTemplateValidation(t *testing.T) {
	f := newPlanFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateTemplate(ctx, f.userID, &domain.MealPlanTemplate{Title: ""})
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = f.svc.CreateTemplate(ctx, f.userID, &domain.MealPlanTemplate{Title: "Empty"})
	assert.ErrorIs(t, err, service.ErrValidation, "at least one day is required")

	_, err = f.svc.CreateTemplate(ctx, f.userID, &domain.MealPlanTemplate{
		Title: "Dup",
		Days: []domain.TemplateDay{
			{DayNumber: 1, Meals: []domain.TemplateMeal{
				{RecipeID: f.recipes[0], MealType: domain.MealLunch},
				{RecipeID: f.recipes[1], MealType: domain.MealLunch},
			}},
		},
	})
	assert.ErrorIs(t, err, service.ErrValidation, "a day cannot schedule the same meal type twice")

	_, err = f.svc.CreateTemplate(ctx, f.userID, &domain.MealPlanTemplate{
		Title:          "Negative",
		TargetCalories: -1800,
		Days: []domain.TemplateDay{
			{DayNumber: 1, Meals: []domain.TemplateMeal{{RecipeID: f.recipes[0], MealType: domain.MealLunch}}},
		},
	})
	assert.ErrorIs(t, err, service.ErrValidation, "the calorie target cannot be negative")
}

func TestCreateTemplateRaisesDuration(t *testing.T) {
	f := newPlanFixture(t)

	template, err := f.svc.CreateTemplate(context.Background(), f.userID, &domain.MealPlanTemplate{
		Title: "Sparse",
		Days: []domain.TemplateDay{
			{DayNumber: 5, Meals: []domain.TemplateMeal{{RecipeID: f.recipes[0], MealType: domain.MealDinner}}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 5, template.DurationDays, "duration expands to cover the highest day number")
}

func TestDeleteTemplateEnforcesAuthorship(t *testing.T) {
	f := newPlanFixture(t)
	template := f.twoDayTemplate(t)

	stranger := primitive.NewObjectID()
	err := f.svc.DeleteTemplate(context.Background(), stranger, template.ID)
	assert.ErrorIs(t, err, service.ErrTemplateAccessDenied)

	// The refused delete leaves the template in place for its author.
	_, err = f.svc.GetTemplateByID(context.Background(), template.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteTemplate(context.Background(), f.userID, template.ID))

	err = f.svc.DeleteTemplate(context.Background(), f.userID, template.ID)
	assert.ErrorIs(t, err, service.ErrTemplateNotFound)
}

func TestApplyTemplateCreatesScheduleAndItems(t *testing.T) {
	f := newPlanFixture(t)
	template := f.twoDayTemplate(t)
	start := time.Date(2026, 3, 2, 15, 30, 0, 0, time.Local)

	schedule, err := f.svc.ApplyTemplate(context.Background(), f.userID, service.ApplyTemplateInput{
		TemplateID: template.ID,
		StartDate:  start,
		Reminders:  []domain.Reminder{{Time: "07:30", Channel: domain.ChannelPush, Enabled: true}},
	})
	require.NoError(t, err)

	assert.Equal(t, f.userID, schedule.OwnerUserID)
	assert.Equal(t, template.ID, schedule.SourceTemplateID)
	assert.Equal(t, template.Title, schedule.Title, "title defaults to the template's")
	assert.Equal(t, domain.ScheduleActive, schedule.Status)

	items, err := f.store.MealItems().GetByScheduleID(context.Background(), schedule.ID)
	require.NoError(t, err)
	require.Len(t, items, 3)

	day1 := domain.DateOnly(start)
	day2 := day1.AddDate(0, 0, 1)
	for _, item := range items {
		assert.Equal(t, domain.ItemPlanned, item.State)
		assert.False(t, item.NutritionMissing)
	}
	assert.True(t, items[0].Date.Equal(day1))
	assert.True(t, items[1].Date.Equal(day1))
	assert.True(t, items[2].Date.Equal(day2))
	assert.Equal(t, 400.0, items[0].PlannedNutrition.Calories, "snapshot taken from the catalog at apply time")
}

func TestApplyTemplateFailsOpenOnMissingRecipe(t *testing.T) {
	f := newPlanFixture(t)
	ghost := primitive.NewObjectID() // never added to the catalog

	template, err := f.svc.CreateTemplate(context.Background(), f.userID, &domain.MealPlanTemplate{
		Title: "Ghost",
		Days: []domain.TemplateDay{
			{DayNumber: 1, Meals: []domain.TemplateMeal{{RecipeID: ghost, MealType: domain.MealBreakfast}}},
		},
	})
	require.NoError(t, err)

	schedule, err := f.svc.ApplyTemplate(context.Background(), f.userID, service.ApplyTemplateInput{
		TemplateID: template.ID,
		StartDate:  time.Now(),
	})
	require.NoError(t, err, "an unresolved recipe must not abort the application")

	items, err := f.store.MealItems().GetByScheduleID(context.Background(), schedule.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].NutritionMissing)
	assert.True(t, items[0].PlannedNutrition.IsZero())
}

func TestApplyTemplateValidatesReminders(t *testing.T) {
	f := newPlanFixture(t)
	template := f.twoDayTemplate(t)

	_, err := f.svc.ApplyTemplate(context.Background(), f.userID, service.ApplyTemplateInput{
		TemplateID: template.ID,
		StartDate:  time.Now(),
		Reminders:  []domain.Reminder{{Time: "25:00", Channel: domain.ChannelPush}},
	})
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = f.svc.ApplyTemplate(context.Background(), f.userID, service.ApplyTemplateInput{
		TemplateID: template.ID,
		StartDate:  time.Now(),
		Reminders:  []domain.Reminder{{Time: "08:00", Channel: "carrier-pigeon"}},
	})
	assert.ErrorIs(t, err, service.ErrValidation)
}
