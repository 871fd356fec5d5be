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

type itemFixture struct {
	store    *memory.Store
	svc      service.MealItemService
	userID   primitive.ObjectID
	schedule *domain.UserMealSchedule
	recipeA  primitive.ObjectID
	recipeB  primitive.ObjectID
}

// newItemFixture builds a schedule with a breakfast and a dinner on day one
// and a lunch on day two, all planned.
func newItemFixture(t *testing.T) (*itemFixture, []domain.MealItem) {
	t.Helper()
	store := memory.New()

	recipeA := primitive.NewObjectID()
	recipeB := primitive.NewObjectID()
	store.Recipes[recipeA] = domain.NutrientVector{Calories: 400, Protein: 25}
	store.Recipes[recipeB] = domain.NutrientVector{Calories: 300, Protein: 15}

	userID := primitive.NewObjectID()
	schedule := &domain.UserMealSchedule{
		OwnerUserID: userID,
		Title:       "Test Schedule",
		StartDate:   domain.DateOnly(time.Now()),
		Status:      domain.ScheduleActive,
	}
	_, err := store.Schedules().Create(context.Background(), schedule)
	require.NoError(t, err)

	day1 := schedule.StartDate
	day2 := day1.AddDate(0, 0, 1)
	items := []domain.MealItem{
		{ScheduleID: schedule.ID, Date: day1, MealType: domain.MealBreakfast, ScheduleTime: "08:00", RecipeID: recipeA, PlannedNutrition: store.Recipes[recipeA], State: domain.ItemPlanned},
		{ScheduleID: schedule.ID, Date: day1, MealType: domain.MealDinner, ScheduleTime: "19:00", RecipeID: recipeB, PlannedNutrition: store.Recipes[recipeB], State: domain.ItemPlanned},
		{ScheduleID: schedule.ID, Date: day2, MealType: domain.MealLunch, RecipeID: recipeB, PlannedNutrition: store.Recipes[recipeB], State: domain.ItemPlanned},
	}
	require.NoError(t, store.MealItems().CreateMany(context.Background(), items))

	f := &itemFixture{
		store:    store,
		svc:      service.NewMealItemService(store.MealItems(), store.Schedules(), store.Catalog()),
		userID:   userID,
		schedule: schedule,
		recipeA:  recipeA,
		recipeB:  recipeB,
	}
	return f, items
}

func TestCompleteIsIdempotent(t *testing.T) {
	f, items := newItemFixture(t)
	ctx := context.Background()

	first, err := f.svc.Complete(ctx, f.userID, items[0].ID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ItemCompleted, first.State)
	require.NotNil(t, first.CompletedAt)

	// A double submit returns the existing completion unchanged.
	second, err := f.svc.Complete(ctx, f.userID, items[0].ID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ItemCompleted, second.State)
	assert.True(t, first.CompletedAt.Equal(*second.CompletedAt), "completedAt must not move on re-completion")
}

func TestCompleteRecordsActualNutrition(t *testing.T) {
	f, items := newItemFixture(t)

	actual := &domain.NutrientVector{Calories: 550, Protein: 30}
	item, err := f.svc.Complete(context.Background(), f.userID, items[0].ID, actual)
	require.NoError(t, err)

	require.NotNil(t, item.ActualNutrition)
	assert.Equal(t, 550.0, item.ConsumedNutrition().Calories, "actual takes precedence over the planned snapshot")
}

func TestCompleteRejectsNegativeActualNutrition(t *testing.T) {
	f, items := newItemFixture(t)
	ctx := context.Background()

	_, err := f.svc.Complete(ctx, f.userID, items[0].ID, &domain.NutrientVector{Calories: -5000, Protein: -12})
	assert.ErrorIs(t, err, service.ErrValidation)

	// The rejected vector must not have transitioned the item.
	current, getErr := f.store.MealItems().GetByID(ctx, items[0].ID)
	require.NoError(t, getErr)
	assert.Equal(t, domain.ItemPlanned, current.State)
	assert.Nil(t, current.ActualNutrition)
}

func TestSkipOnCompletedIsRejected(t *testing.T) {
	f, items := newItemFixture(t)
	ctx := context.Background()

	_, err := f.svc.Complete(ctx, f.userID, items[0].ID, nil)
	require.NoError(t, err)

	_, err = f.svc.Skip(ctx, f.userID, items[0].ID, "")
	var transition *service.StateTransitionError
	require.ErrorAs(t, err, &transition)
	assert.Equal(t, "skip", transition.Op)
	assert.Equal(t, domain.ItemCompleted, transition.CurrentState)
}

func TestSubstituteKeepsItemPlanned(t *testing.T) {
	f, items := newItemFixture(t)

	item, err := f.svc.Substitute(context.Background(), f.userID, items[0].ID, f.recipeB, "out of eggs")
	require.NoError(t, err)

	assert.Equal(t, domain.ItemPlanned, item.State, "substitution changes what is eaten, not the lifecycle stage")
	assert.Equal(t, f.recipeB, item.RecipeID)
	require.NotNil(t, item.SubstituteRecipeID)
	assert.Equal(t, f.recipeB, *item.SubstituteRecipeID)
	assert.Equal(t, 300.0, item.PlannedNutrition.Calories, "snapshot replaced with the substitute's")
}

func TestSubstituteUnknownRecipeFails(t *testing.T) {
	f, items := newItemFixture(t)

	_, err := f.svc.Substitute(context.Background(), f.userID, items[0].ID, primitive.NewObjectID(), "")
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestRescheduleResetsStateAndKeepsOriginalDate(t *testing.T) {
	f, items := newItemFixture(t)
	ctx := context.Background()

	_, err := f.svc.Skip(ctx, f.userID, items[0].ID, "")
	require.NoError(t, err)

	newDate := items[0].Date.AddDate(0, 0, 3)
	item, err := f.svc.Reschedule(ctx, f.userID, items[0].ID, &newDate, "09:30")
	require.NoError(t, err)

	assert.Equal(t, domain.ItemPlanned, item.State)
	assert.True(t, item.Date.Equal(newDate))
	assert.Equal(t, "09:30", item.ScheduleTime)
	require.NotNil(t, item.OriginalDate)
	assert.True(t, item.OriginalDate.Equal(items[0].Date))
	assert.Nil(t, item.SkippedAt)
}

func TestRescheduleIntoOccupiedSlotFails(t *testing.T) {
	f, items := newItemFixture(t)

	// Day two already has a lunch; moving day one's breakfast there as-is is
	// fine, but moving an item into an occupied (date, mealType) slot is not.
	day2 := items[2].Date
	conflicting := domain.MealItem{
		ScheduleID: f.schedule.ID, Date: items[0].Date, MealType: domain.MealLunch,
		RecipeID: f.recipeA, State: domain.ItemPlanned,
	}
	_, err := f.store.MealItems().Create(context.Background(), &conflicting)
	require.NoError(t, err)

	_, err = f.svc.Reschedule(context.Background(), f.userID, conflicting.ID, &day2, "")
	assert.ErrorIs(t, err, service.ErrSlotConflict)

	// The collision must leave the original untouched.
	current, getErr := f.store.MealItems().GetByID(context.Background(), conflicting.ID)
	require.NoError(t, getErr)
	assert.True(t, current.Date.Equal(items[0].Date))
	assert.Nil(t, current.OriginalDate)
}

func TestRescheduleTimeOnlyKeepsState(t *testing.T) {
	f, items := newItemFixture(t)
	ctx := context.Background()

	_, err := f.svc.Complete(ctx, f.userID, items[0].ID, nil)
	require.NoError(t, err)

	// Changing only the time is a metadata edit: the item stays completed and
	// no original date is recorded.
	item, err := f.svc.Reschedule(ctx, f.userID, items[0].ID, nil, "09:15")
	require.NoError(t, err)
	assert.Equal(t, domain.ItemCompleted, item.State)
	assert.Equal(t, "09:15", item.ScheduleTime)
	assert.Nil(t, item.OriginalDate)

	// Same date spelled out explicitly behaves the same way.
	sameDay := items[0].Date
	item, err = f.svc.Reschedule(ctx, f.userID, items[0].ID, &sameDay, "10:00")
	require.NoError(t, err)
	assert.Equal(t, domain.ItemCompleted, item.State)
	assert.Equal(t, "10:00", item.ScheduleTime)
	assert.Nil(t, item.OriginalDate)
}

func TestRescheduleRequiresDateOrTime(t *testing.T) {
	f, items := newItemFixture(t)

	_, err := f.svc.Reschedule(context.Background(), f.userID, items[0].ID, nil, "")
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = f.svc.Reschedule(context.Background(), f.userID, items[0].ID, nil, "9:5")
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestSwapExchangesContentAndSwapTwiceRestores(t *testing.T) {
	f, items := newItemFixture(t)
	ctx := context.Background()

	swapped, err := f.svc.Swap(ctx, f.userID, items[0].ID, items[1].ID)
	require.NoError(t, err)
	require.Len(t, swapped, 2)

	first := swapped[0]
	assert.Equal(t, items[0].ID, first.ID, "ids stay stable across a swap")
	assert.Equal(t, domain.MealDinner, first.MealType)
	assert.Equal(t, f.recipeB, first.RecipeID)
	assert.Equal(t, "19:00", first.ScheduleTime)

	// Swapping again restores the original layout.
	restored, err := f.svc.Swap(ctx, f.userID, items[0].ID, items[1].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MealBreakfast, restored[0].MealType)
	assert.Equal(t, f.recipeA, restored[0].RecipeID)
	assert.Equal(t, "08:00", restored[0].ScheduleTime)
}

func TestSwapRejectsSelfAndCrossSchedule(t *testing.T) {
	f, items := newItemFixture(t)
	ctx := context.Background()

	_, err := f.svc.Swap(ctx, f.userID, items[0].ID, items[0].ID)
	assert.ErrorIs(t, err, service.ErrValidation)

	other := &domain.UserMealSchedule{OwnerUserID: f.userID, Title: "Other", StartDate: f.schedule.StartDate, Status: domain.ScheduleActive}
	_, err = f.store.Schedules().Create(ctx, other)
	require.NoError(t, err)
	foreign := domain.MealItem{ScheduleID: other.ID, Date: f.schedule.StartDate, MealType: domain.MealSnack, RecipeID: f.recipeA, State: domain.ItemPlanned}
	_, err = f.store.MealItems().Create(ctx, &foreign)
	require.NoError(t, err)

	_, err = f.svc.Swap(ctx, f.userID, items[0].ID, foreign.ID)
	assert.ErrorIs(t, err, service.ErrCrossScheduleSwap)
}

func TestAddMealItemRejectsOccupiedSlot(t *testing.T) {
	f, items := newItemFixture(t)

	_, err := f.svc.Add(context.Background(), f.userID, f.schedule.ID, service.AddMealItemInput{
		Date:     items[0].Date,
		MealType: domain.MealBreakfast,
		RecipeID: f.recipeB,
	})
	assert.ErrorIs(t, err, service.ErrSlotConflict)
}

func TestAddMealItemSnapshotsNutrition(t *testing.T) {
	f, items := newItemFixture(t)

	item, err := f.svc.Add(context.Background(), f.userID, f.schedule.ID, service.AddMealItemInput{
		Date:         items[0].Date,
		MealType:     domain.MealSnack,
		ScheduleTime: "15:00",
		RecipeID:     f.recipeA,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ItemPlanned, item.State)
	assert.Equal(t, 400.0, item.PlannedNutrition.Calories)
	assert.False(t, item.NutritionMissing)
}

func TestRemoveSoftDeletesItem(t *testing.T) {
	f, items := newItemFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Remove(ctx, f.userID, items[2].ID))

	_, err := f.store.MealItems().GetByID(ctx, items[2].ID)
	assert.Error(t, err)

	// The freed slot can be reused.
	_, err = f.svc.Add(ctx, f.userID, f.schedule.ID, service.AddMealItemInput{
		Date:     items[2].Date,
		MealType: domain.MealLunch,
		RecipeID: f.recipeB,
	})
	assert.NoError(t, err)
}

func TestOwnershipIsEnforced(t *testing.T) {
	f, items := newItemFixture(t)
	stranger := primitive.NewObjectID()

	_, err := f.svc.Complete(context.Background(), stranger, items[0].ID, nil)
	assert.ErrorIs(t, err, service.ErrScheduleAccessDenied)

	err = f.svc.Remove(context.Background(), stranger, items[0].ID)
	assert.ErrorIs(t, err, service.ErrScheduleAccessDenied)
}

func TestUpdateMealItemFields(t *testing.T) {
	f, items := newItemFixture(t)

	_, err := f.svc.Update(context.Background(), f.userID, items[0].ID, service.UpdateMealItemInput{})
	assert.ErrorIs(t, err, service.ErrValidation)

	notes := "prep the night before"
	when := "07:45"
	item, err := f.svc.Update(context.Background(), f.userID, items[0].ID, service.UpdateMealItemInput{
		Notes:        &notes,
		ScheduleTime: &when,
	})
	require.NoError(t, err)
	assert.Equal(t, notes, item.Notes)
	assert.Equal(t, when, item.ScheduleTime)
	assert.Equal(t, domain.ItemPlanned, item.State, "metadata edits never transition state")
}
