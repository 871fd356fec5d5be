package service

import (
	"context"
	"errors"

	"nutriplan/nutrition-app/internal/domain"
	"nutriplan/nutrition-app/internal/repository"
)

// IngredientAmount is one entry of an ad hoc nutrition calculation request.
type IngredientAmount struct {
	IngredientID string  `json:"ingredient_id"`
	Amount       float64 `json:"amount"` // in the ingredient's natural unit
}

// IngredientNutrition is the per-ingredient breakdown of a calculation.
type IngredientNutrition struct {
	IngredientID string                `json:"ingredient_id"`
	Amount       float64               `json:"amount"`
	Nutrition    domain.NutrientVector `json:"nutrition"`
}

// CalculationResult is the outcome of an ad hoc nutrition calculation. Ids
// that did not resolve are reported in Unresolved rather than failing the
// call; totals cover the resolved ingredients only.
type CalculationResult struct {
	TotalNutrition      domain.NutrientVector `json:"total_nutrition"`
	DetailedIngredients []IngredientNutrition `json:"detailed_ingredients"`
	Unresolved          []string              `json:"unresolved_ingredients,omitempty"`
}

// MacroPercentages expresses each macro's share of total calories, plus the
// calorie total as a share of the caller-supplied target.
type MacroPercentages struct {
	OfTargetCalories int `json:"of_target_calories,omitempty"`
	ProteinCalories  int `json:"protein_calories"`
	CarbsCalories    int `json:"carbs_calories"`
	FatCalories      int `json:"fat_calories"`
}

// MealAnalysis is the outcome of a meal analysis: totals, macro percentages
// and a qualitative assessment.
type MealAnalysis struct {
	Nutrition   domain.NutrientVector `json:"nutrition"`
	Percentages MacroPercentages      `json:"percentages"`
	Assessment  []string              `json:"assessment"`
	Unresolved  []string              `json:"unresolved_ingredients,omitempty"`
}

// Calories per gram of each macronutrient (Atwater factors).
const (
	caloriesPerGramProtein = 4
	caloriesPerGramCarbs   = 4
	caloriesPerGramFat     = 9
)

// --- Service Interface ---
type NutritionService interface {
	Calculate(ctx context.Context, ingredients []IngredientAmount) (*CalculationResult, error)
	AnalyzeMeal(ctx context.Context, ingredients []IngredientAmount, targetCalories *float64) (*MealAnalysis, error)
}

// --- Service Implementation ---

// nutritionService implements the NutritionService interface.
type nutritionService struct {
	catalog repository.NutrientCatalog
}

// NewNutritionService creates a new instance of nutritionService.
func NewNutritionService(catalog repository.NutrientCatalog) NutritionService {
	return &nutritionService{catalog: catalog}
}

// resolve scales and sums the resolved ingredients, collecting unresolved ids
// instead of aborting. Totals stay unrounded; rounding is applied by the
// caller at the response edge.
func (s *nutritionService) resolve(ctx context.Context, ingredients []IngredientAmount) (domain.NutrientVector, []IngredientNutrition, []string, error) {
	var (
		total      domain.NutrientVector
		detailed   []IngredientNutrition
		unresolved []string
	)

	for _, ing := range ingredients {
		per100, err := s.catalog.FindIngredient(ctx, ing.IngredientID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				unresolved = append(unresolved, ing.IngredientID)
				continue
			}
			return domain.NutrientVector{}, nil, nil, err
		}

		scaled := per100.Scale(ing.Amount)
		total = total.Add(scaled)
		detailed = append(detailed, IngredientNutrition{
			IngredientID: ing.IngredientID,
			Amount:       ing.Amount,
			Nutrition:    scaled.Rounded(),
		})
	}
	return total, detailed, unresolved, nil
}

func validateIngredients(ingredients []IngredientAmount) error {
	if len(ingredients) == 0 {
		return validationError("ingredients must be a non-empty array")
	}
	for _, ing := range ingredients {
		if ing.IngredientID == "" {
			return validationError("every ingredient requires an ingredient_id")
		}
		if ing.Amount <= 0 {
			return validationError("ingredient %q has non-positive amount", ing.IngredientID)
		}
	}
	return nil
}

// Calculate computes total nutrition for a list of (ingredient, amount)
// pairs. Unresolved ids are skipped and reported, never fatal.
func (s *nutritionService) Calculate(ctx context.Context, ingredients []IngredientAmount) (*CalculationResult, error) {
	if err := validateIngredients(ingredients); err != nil {
		return nil, err
	}

	total, detailed, unresolved, err := s.resolve(ctx, ingredients)
	if err != nil {
		return nil, err
	}

	return &CalculationResult{
		TotalNutrition:      total.Rounded(),
		DetailedIngredients: detailed,
		Unresolved:          unresolved,
	}, nil
}

// AnalyzeMeal computes totals plus macro calorie percentages and a
// qualitative assessment. A target_calories of zero or less is a validation
// error, not a division crash.
func (s *nutritionService) AnalyzeMeal(ctx context.Context, ingredients []IngredientAmount, targetCalories *float64) (*MealAnalysis, error) {
	if err := validateIngredients(ingredients); err != nil {
		return nil, err
	}
	if targetCalories != nil && *targetCalories <= 0 {
		return nil, validationError("target_calories must be positive")
	}

	total, _, unresolved, err := s.resolve(ctx, ingredients)
	if err != nil {
		return nil, err
	}

	analysis := &MealAnalysis{
		Nutrition:  total.Rounded(),
		Unresolved: unresolved,
	}

	proteinCal := total.Protein * caloriesPerGramProtein
	carbsCal := total.Carbs * caloriesPerGramCarbs
	fatCal := total.Fat * caloriesPerGramFat
	if total.Calories > 0 {
		analysis.Percentages.ProteinCalories = domain.PercentOf(proteinCal, total.Calories)
		analysis.Percentages.CarbsCalories = domain.PercentOf(carbsCal, total.Calories)
		analysis.Percentages.FatCalories = domain.PercentOf(fatCal, total.Calories)
	}
	if targetCalories != nil {
		analysis.Percentages.OfTargetCalories = domain.PercentOf(total.Calories, *targetCalories)
	}

	analysis.Assessment = assessMeal(total, targetCalories)
	return analysis, nil
}

// assessMeal produces the qualitative remarks shown next to the numbers.
func assessMeal(total domain.NutrientVector, targetCalories *float64) []string {
	var remarks []string

	if targetCalories != nil {
		pct := domain.PercentOf(total.Calories, *targetCalories)
		switch {
		case pct > 110:
			remarks = append(remarks, "exceeds the calorie target")
		case pct < 80:
			remarks = append(remarks, "well under the calorie target")
		default:
			remarks = append(remarks, "within the calorie target")
		}
	}

	if total.Calories > 0 {
		if domain.PercentOf(total.Protein*caloriesPerGramProtein, total.Calories) >= 30 {
			remarks = append(remarks, "high in protein")
		}
		if domain.PercentOf(total.Fat*caloriesPerGramFat, total.Calories) >= 40 {
			remarks = append(remarks, "high in fat")
		}
		if domain.PercentOf(total.Sugar*caloriesPerGramCarbs, total.Calories) >= 20 {
			remarks = append(remarks, "high in sugar")
		}
	}
	if total.Fiber >= 10 {
		remarks = append(remarks, "good source of fiber")
	}
	if total.Sodium >= 1500 {
		remarks = append(remarks, "high in sodium")
	}

	if len(remarks) == 0 {
		remarks = append(remarks, "balanced")
	}
	return remarks
}
