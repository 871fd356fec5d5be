package api

import (
	"net/http"
	"time"

	"nutriplan/nutrition-app/internal/domain"
	"nutriplan/nutrition-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MealItemHandler holds the meal item service dependency.
type MealItemHandler struct {
	itemService service.MealItemService
}

// NewMealItemHandler creates a new MealItemHandler.
func NewMealItemHandler(itemService service.MealItemService) *MealItemHandler {
	return &MealItemHandler{itemService: itemService}
}

// --- DTOs for API ---

// CompleteMealItemRequest marks an item completed, optionally recording what
// was actually consumed instead of the planned snapshot.
type CompleteMealItemRequest struct {
	MealItemID      string                 `json:"meal_item_id" binding:"required"`
	ActualNutrition *domain.NutrientVector `json:"actual_nutrition"`
}

// SkipMealItemRequest marks an item skipped.
type SkipMealItemRequest struct {
	MealItemID string `json:"meal_item_id" binding:"required"`
	Notes      string `json:"notes"`
}

// SubstituteMealItemRequest replaces an item's recipe with a substitute.
type SubstituteMealItemRequest struct {
	MealItemID         string `json:"meal_item_id" binding:"required"`
	SubstituteRecipeID string `json:"substitute_recipe_id" binding:"required"`
	Notes              string `json:"notes"`
}

// RescheduleMealItemRequest moves an item to a new date and/or time.
type RescheduleMealItemRequest struct {
	MealItemID string `json:"meal_item_id" binding:"required"`
	NewDate    string `json:"new_date"`
	NewTime    string `json:"new_time"`
}

// SwapMealItemsRequest exchanges the content of two items of one schedule.
type SwapMealItemsRequest struct {
	FirstMealItemID  string `json:"meal_item_id_1" binding:"required"`
	SecondMealItemID string `json:"meal_item_id_2" binding:"required"`
}

// MealItemData is the payload of a manually added meal slot.
type MealItemData struct {
	Date         string `json:"date" binding:"required"`
	MealType     string `json:"meal_type" binding:"required"`
	ScheduleTime string `json:"schedule_time"`
	RecipeID     string `json:"recipe_id" binding:"required"`
	Notes        string `json:"notes"`
}

// AddMealItemRequest creates a new meal slot in a schedule.
type AddMealItemRequest struct {
	ScheduleID string       `json:"schedule_id" binding:"required"`
	MealData   MealItemData `json:"meal_data" binding:"required"`
}

// RemoveMealItemRequest soft-deletes a meal slot.
type RemoveMealItemRequest struct {
	MealItemID string `json:"meal_item_id" binding:"required"`
}

// MealItemUpdateData carries the editable item fields; absent fields are
// left untouched.
type MealItemUpdateData struct {
	Notes        *string `json:"notes"`
	ScheduleTime *string `json:"schedule_time"`
}

// UpdateMealItemRequest edits free-form item metadata.
type UpdateMealItemRequest struct {
	MealItemID string             `json:"meal_item_id" binding:"required"`
	UpdateData MealItemUpdateData `json:"update_data"`
}

// --- Helpers ---

func itemIDFromHex(c *gin.Context, hex string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid meal item ID format.")
		return primitive.NilObjectID, false
	}
	return id, true
}

// --- Handler Methods ---

// CompleteMealItem marks a meal item completed.
func (h *MealItemHandler) CompleteMealItem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CompleteMealItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	itemID, ok := itemIDFromHex(c, req.MealItemID)
	if !ok {
		return
	}

	item, err := h.itemService.Complete(c.Request.Context(), userID, itemID, req.ActualNutrition)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, item)
}

// SkipMealItem marks a meal item skipped.
func (h *MealItemHandler) SkipMealItem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req SkipMealItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	itemID, ok := itemIDFromHex(c, req.MealItemID)
	if !ok {
		return
	}

	item, err := h.itemService.Skip(c.Request.Context(), userID, itemID, req.Notes)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, item)
}

// SubstituteMealItem swaps an item's recipe for a substitute while keeping it
// planned.
func (h *MealItemHandler) SubstituteMealItem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req SubstituteMealItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	itemID, ok := itemIDFromHex(c, req.MealItemID)
	if !ok {
		return
	}
	substituteID, err := primitive.ObjectIDFromHex(req.SubstituteRecipeID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid substitute recipe ID format.")
		return
	}

	item, err := h.itemService.Substitute(c.Request.Context(), userID, itemID, substituteID, req.Notes)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, item)
}

// RescheduleMealItem moves a meal item to a new date and/or time.
func (h *MealItemHandler) RescheduleMealItem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req RescheduleMealItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	itemID, ok := itemIDFromHex(c, req.MealItemID)
	if !ok {
		return
	}

	var newDate *time.Time
	if req.NewDate != "" {
		parsed, err := parseDate(req.NewDate)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "new_date must be YYYY-MM-DD.")
			return
		}
		newDate = &parsed
	}

	item, err := h.itemService.Reschedule(c.Request.Context(), userID, itemID, newDate, req.NewTime)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, item)
}

// SwapMealItems exchanges the content of two meal items.
func (h *MealItemHandler) SwapMealItems(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req SwapMealItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	firstID, ok := itemIDFromHex(c, req.FirstMealItemID)
	if !ok {
		return
	}
	secondID, ok := itemIDFromHex(c, req.SecondMealItemID)
	if !ok {
		return
	}

	items, err := h.itemService.Swap(c.Request.Context(), userID, firstID, secondID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, items)
}

// AddMealItem creates a new meal slot in the schedule named in the body.
func (h *MealItemHandler) AddMealItem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req AddMealItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	scheduleID, err := primitive.ObjectIDFromHex(req.ScheduleID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid schedule ID format.")
		return
	}
	date, err := parseDate(req.MealData.Date)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "date must be YYYY-MM-DD.")
		return
	}
	recipeID, err := primitive.ObjectIDFromHex(req.MealData.RecipeID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid recipe ID format.")
		return
	}

	item, err := h.itemService.Add(c.Request.Context(), userID, scheduleID, service.AddMealItemInput{
		Date:         date,
		MealType:     domain.MealType(req.MealData.MealType),
		ScheduleTime: req.MealData.ScheduleTime,
		RecipeID:     recipeID,
		Notes:        req.MealData.Notes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, item)
}

// RemoveMealItem soft-deletes a meal item.
func (h *MealItemHandler) RemoveMealItem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req RemoveMealItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	itemID, ok := itemIDFromHex(c, req.MealItemID)
	if !ok {
		return
	}

	if err := h.itemService.Remove(c.Request.Context(), userID, itemID); err != nil {
		respondServiceError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "Meal item removed.")
}

// UpdateMealItem edits free-form metadata of a meal item.
func (h *MealItemHandler) UpdateMealItem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req UpdateMealItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	itemID, ok := itemIDFromHex(c, req.MealItemID)
	if !ok {
		return
	}

	item, err := h.itemService.Update(c.Request.Context(), userID, itemID, service.UpdateMealItemInput{
		Notes:        req.UpdateData.Notes,
		ScheduleTime: req.UpdateData.ScheduleTime,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, item)
}

// GetDayItems lists the meal items of one day of a schedule. Both
// "schedule_id" and "date" query parameters are required.
func (h *MealItemHandler) GetDayItems(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	scheduleID, err := primitive.ObjectIDFromHex(c.Query("schedule_id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "schedule_id query parameter is required.")
		return
	}
	date, err := parseDate(c.Query("date"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "date query parameter must be YYYY-MM-DD.")
		return
	}

	items, err := h.itemService.DayItems(c.Request.Context(), userID, scheduleID, date)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if items == nil {
		items = []domain.MealItem{}
	}
	respondOK(c, http.StatusOK, items)
}
