package api

import (
	"net/http"

	"nutriplan/nutrition-app/internal/service"

	"github.com/gin-gonic/gin"
)

// NutritionHandler holds the nutrition service dependency.
type NutritionHandler struct {
	nutritionService service.NutritionService
}

// NewNutritionHandler creates a new NutritionHandler.
func NewNutritionHandler(nutritionService service.NutritionService) *NutritionHandler {
	return &NutritionHandler{nutritionService: nutritionService}
}

// --- DTOs for API ---

// CalculateNutritionRequest defines the expected JSON for an ad hoc
// nutrition calculation.
type CalculateNutritionRequest struct {
	Ingredients []service.IngredientAmount `json:"ingredients" binding:"required"`
}

// AnalyzeMealRequest defines the expected JSON for a meal analysis.
type AnalyzeMealRequest struct {
	MealIngredients []service.IngredientAmount `json:"meal_ingredients" binding:"required"`
	TargetCalories  *float64                   `json:"target_calories"`
}

// --- Handler Methods ---

// CalculateNutrition computes total nutrition for a list of (ingredient,
// amount) pairs. Unresolved ingredient ids are reported, not fatal.
func (h *NutritionHandler) CalculateNutrition(c *gin.Context) {
	var req CalculateNutritionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	result, err := h.nutritionService.Calculate(c.Request.Context(), req.Ingredients)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, result)
}

// AnalyzeMeal computes totals, macro percentages and a qualitative
// assessment for a meal.
func (h *NutritionHandler) AnalyzeMeal(c *gin.Context) {
	var req AnalyzeMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	analysis, err := h.nutritionService.AnalyzeMeal(c.Request.Context(), req.MealIngredients, req.TargetCalories)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, analysis)
}
