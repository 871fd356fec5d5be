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

type reportFixture struct {
	store    *memory.Store
	reports  service.ReportService
	items    service.MealItemService
	userID   primitive.ObjectID
	schedule *domain.UserMealSchedule
	dayItems []domain.MealItem
}

// newReportFixture applies a two-day template with two meals per day, so
// reports can be driven through real state transitions.
func newReportFixture(t *testing.T) *reportFixture {
	t.Helper()
	store := memory.New()

	recipeA := primitive.NewObjectID()
	recipeB := primitive.NewObjectID()
	store.Recipes[recipeA] = domain.NutrientVector{Calories: 400, Protein: 25, Sodium: 500}
	store.Recipes[recipeB] = domain.NutrientVector{Calories: 300, Protein: 15, Sodium: 300}

	userID := primitive.NewObjectID()
	plans := service.NewPlanService(store.Templates(), store.Schedules(), store.MealItems(), store.Catalog())
	template, err := plans.CreateTemplate(context.Background(), userID, &domain.MealPlanTemplate{
		Title:          "Report Plan",
		TargetCalories: 1400,
		Days: []domain.TemplateDay{
			{DayNumber: 1, Meals: []domain.TemplateMeal{
				{RecipeID: recipeA, MealType: domain.MealBreakfast},
				{RecipeID: recipeB, MealType: domain.MealDinner},
			}},
			{DayNumber: 2, Meals: []domain.TemplateMeal{
				{RecipeID: recipeA, MealType: domain.MealBreakfast},
				{RecipeID: recipeB, MealType: domain.MealDinner},
			}},
		},
	})
	require.NoError(t, err)

	schedule, err := plans.ApplyTemplate(context.Background(), userID, service.ApplyTemplateInput{
		TemplateID: template.ID,
		StartDate:  time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	items, err := store.MealItems().GetByScheduleID(context.Background(), schedule.ID)
	require.NoError(t, err)
	require.Len(t, items, 4)

	return &reportFixture{
		store:    store,
		reports:  service.NewReportService(store.Schedules(), store.MealItems(), store.Templates()),
		items:    service.NewMealItemService(store.MealItems(), store.Schedules(), store.Catalog()),
		userID:   userID,
		schedule: schedule,
		dayItems: items,
	}
}

func TestDayNutritionCountsOnlyCompleted(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()
	day1 := f.schedule.StartDate

	// Complete breakfast, skip dinner.
	_, err := f.items.Complete(ctx, f.userID, f.dayItems[0].ID, nil)
	require.NoError(t, err)
	_, err = f.items.Skip(ctx, f.userID, f.dayItems[1].ID, "ate out")
	require.NoError(t, err)

	summary, err := f.reports.DayNutrition(ctx, f.userID, f.schedule.ID, day1)
	require.NoError(t, err)

	assert.Equal(t, 400.0, summary.Totals.Calories, "skipped items contribute nothing")
	assert.Equal(t, 1, summary.CompletedCount)
	assert.Equal(t, 1, summary.SkippedCount)
	assert.Equal(t, 0, summary.PendingCount)
	assert.Equal(t, 29, summary.OfTargetCalories, "400 of the template's 1400 target")
}

func TestDayNutritionUsesActualOverPlanned(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	actual := &domain.NutrientVector{Calories: 650}
	_, err := f.items.Complete(ctx, f.userID, f.dayItems[0].ID, actual)
	require.NoError(t, err)

	summary, err := f.reports.DayNutrition(ctx, f.userID, f.schedule.ID, f.schedule.StartDate)
	require.NoError(t, err)
	assert.Equal(t, 650.0, summary.Totals.Calories)
}

func TestOverviewAdherenceAndStreak(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	// Before any transition, adherence is zero.
	stats, err := f.reports.OverviewStats(ctx, f.userID, f.schedule.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalItems)
	assert.Equal(t, 0, stats.AdherencePercent)
	assert.Equal(t, 0, stats.CurrentStreak)

	// Complete everything: adherence 100, streak covers both days.
	for _, item := range f.dayItems {
		_, err := f.items.Complete(ctx, f.userID, item.ID, nil)
		require.NoError(t, err)
	}

	stats, err = f.reports.OverviewStats(ctx, f.userID, f.schedule.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.CompletedCount)
	assert.Equal(t, 100, stats.AdherencePercent)
	assert.Equal(t, 2, stats.CurrentStreak)
}

func TestOverviewStreakBreaksOnSkippedDay(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	// Day one: one skip. Day two: all completed. The streak counts from the
	// most recent day back, so it stops at day one.
	_, err := f.items.Complete(ctx, f.userID, f.dayItems[0].ID, nil)
	require.NoError(t, err)
	_, err = f.items.Skip(ctx, f.userID, f.dayItems[1].ID, "")
	require.NoError(t, err)
	_, err = f.items.Complete(ctx, f.userID, f.dayItems[2].ID, nil)
	require.NoError(t, err)
	_, err = f.items.Complete(ctx, f.userID, f.dayItems[3].ID, nil)
	require.NoError(t, err)

	stats, err := f.reports.OverviewStats(ctx, f.userID, f.schedule.ID)
	require.NoError(t, err)
	assert.Equal(t, 75, stats.AdherencePercent)
	assert.Equal(t, 1, stats.CurrentStreak)
}

func TestOverviewStreakIgnoresUpcomingDays(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	// Day one fully completed, day two entirely untouched. The untouched day
	// is still ahead of the user and must not zero the streak.
	_, err := f.items.Complete(ctx, f.userID, f.dayItems[0].ID, nil)
	require.NoError(t, err)
	_, err = f.items.Complete(ctx, f.userID, f.dayItems[1].ID, nil)
	require.NoError(t, err)

	stats, err := f.reports.OverviewStats(ctx, f.userID, f.schedule.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.CurrentStreak)

	// A skip on the upcoming day settles it as imperfect and ends the streak.
	_, err = f.items.Skip(ctx, f.userID, f.dayItems[2].ID, "")
	require.NoError(t, err)

	stats, err = f.reports.OverviewStats(ctx, f.userID, f.schedule.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.CurrentStreak)
}

func TestProgressReportSeries(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	_, err := f.items.Complete(ctx, f.userID, f.dayItems[0].ID, nil)
	require.NoError(t, err)
	_, err = f.items.Complete(ctx, f.userID, f.dayItems[1].ID, nil)
	require.NoError(t, err)

	report, err := f.reports.ProgressReport(ctx, f.userID, f.schedule.ID, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, report, 2)

	assert.True(t, report[0].Date.Equal(f.schedule.StartDate))
	assert.Equal(t, 700.0, report[0].Totals.Calories)
	assert.Equal(t, 100, report[0].AdherencePercent)
	assert.Equal(t, 2, report[1].PendingCount)
	assert.Equal(t, 0, report[1].AdherencePercent)

	// Restricting the range to day two drops day one from the series.
	day2 := f.schedule.StartDate.AddDate(0, 0, 1)
	report, err = f.reports.ProgressReport(ctx, f.userID, f.schedule.ID, day2, day2)
	require.NoError(t, err)
	require.Len(t, report, 1)
	assert.True(t, report[0].Date.Equal(day2))
}

func TestProgressReportRejectsInvertedRange(t *testing.T) {
	f := newReportFixture(t)

	from := f.schedule.StartDate.AddDate(0, 0, 1)
	to := f.schedule.StartDate
	_, err := f.reports.ProgressReport(context.Background(), f.userID, f.schedule.ID, from, to)
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestReportsEnforceOwnership(t *testing.T) {
	f := newReportFixture(t)
	stranger := primitive.NewObjectID()

	_, err := f.reports.OverviewStats(context.Background(), stranger, f.schedule.ID)
	assert.ErrorIs(t, err, service.ErrScheduleAccessDenied)

	_, err = f.reports.DayNutrition(context.Background(), stranger, f.schedule.ID, f.schedule.StartDate)
	assert.ErrorIs(t, err, service.ErrScheduleAccessDenied)
}
