package service_test

import (
	"context"
	"testing"

	"nutriplan/nutrition-app/internal/domain"
	"nutriplan/nutrition-app/internal/repository/memory"
	"nutriplan/nutrition-app/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNutritionFixture() (*memory.Store, service.NutritionService) {
	store := memory.New()
	store.Ingredients["oats"] = domain.NutrientVector{Calories: 50, Protein: 4, Carbs: 8, Fat: 1, Fiber: 2}
	store.Ingredients["olive-oil"] = domain.NutrientVector{Calories: 884, Fat: 100}
	return store, service.NewNutritionService(store.Catalog())
}

func TestCalculateScalesPer100(t *testing.T) {
	_, svc := newNutritionFixture()

	result, err := svc.Calculate(context.Background(), []service.IngredientAmount{
		{IngredientID: "oats", Amount: 200},
	})
	require.NoError(t, err)

	assert.Equal(t, 100.0, result.TotalNutrition.Calories)
	assert.Equal(t, 8.0, result.TotalNutrition.Protein)
	require.Len(t, result.DetailedIngredients, 1)
	assert.Equal(t, "oats", result.DetailedIngredients[0].IngredientID)
	assert.Empty(t, result.Unresolved)
}

func TestCalculateSkipsUnresolvedIngredients(t *testing.T) {
	_, svc := newNutritionFixture()

	result, err := svc.Calculate(context.Background(), []service.IngredientAmount{
		{IngredientID: "oats", Amount: 100},
		{IngredientID: "unicorn-dust", Amount: 50},
	})
	require.NoError(t, err, "unresolved ingredients are reported, not fatal")

	assert.Equal(t, 50.0, result.TotalNutrition.Calories, "totals cover resolved ingredients only")
	assert.Equal(t, []string{"unicorn-dust"}, result.Unresolved)
	assert.Len(t, result.DetailedIngredients, 1)
}

func TestCalculateValidation(t *testing.T) {
	_, svc := newNutritionFixture()
	ctx := context.Background()

	_, err := svc.Calculate(ctx, nil)
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = svc.Calculate(ctx, []service.IngredientAmount{{IngredientID: "oats", Amount: 0}})
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = svc.Calculate(ctx, []service.IngredientAmount{{IngredientID: "", Amount: 10}})
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestAnalyzeMealRejectsNonPositiveTarget(t *testing.T) {
	_, svc := newNutritionFixture()

	zero := 0.0
	_, err := svc.AnalyzeMeal(context.Background(), []service.IngredientAmount{
		{IngredientID: "oats", Amount: 100},
	}, &zero)
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestAnalyzeMealPercentagesAndAssessment(t *testing.T) {
	_, svc := newNutritionFixture()

	target := 500.0
	analysis, err := svc.AnalyzeMeal(context.Background(), []service.IngredientAmount{
		{IngredientID: "olive-oil", Amount: 100},
	}, &target)
	require.NoError(t, err)

	assert.Equal(t, 884.0, analysis.Nutrition.Calories)
	// 100g fat at 9 kcal/g is essentially all of the 884 calories.
	assert.Equal(t, 102, analysis.Percentages.FatCalories)
	assert.Equal(t, 177, analysis.Percentages.OfTargetCalories)
	assert.Contains(t, analysis.Assessment, "exceeds the calorie target")
	assert.Contains(t, analysis.Assessment, "high in fat")
}

func TestAnalyzeMealBalancedFallback(t *testing.T) {
	store := memory.New()
	store.Ingredients["rice"] = domain.NutrientVector{Calories: 130, Protein: 2.7, Carbs: 28, Fat: 0.3}
	svc := service.NewNutritionService(store.Catalog())

	analysis, err := svc.AnalyzeMeal(context.Background(), []service.IngredientAmount{
		{IngredientID: "rice", Amount: 100},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"balanced"}, analysis.Assessment)
	assert.Zero(t, analysis.Percentages.OfTargetCalories)
}
