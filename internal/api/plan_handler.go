package api

import (
	"net/http"
	"time"

	"nutriplan/nutrition-app/internal/domain"
	"nutriplan/nutrition-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const dateLayout = "2006-01-02"

// parseDate parses a "YYYY-MM-DD" request field into UTC midnight.
func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, time.UTC)
}

// PlanHandler holds the plan service dependency.
type PlanHandler struct {
	planService service.PlanService
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(planService service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// --- DTOs for API ---

// TemplateMealRequest is one meal entry of a template day.
type TemplateMealRequest struct {
	RecipeID     string `json:"recipe_id" binding:"required"`
	MealType     string `json:"meal_type" binding:"required"`
	ScheduleTime string `json:"schedule_time"`
}

// TemplateDayRequest is one day of a template.
type TemplateDayRequest struct {
	DayNumber int                   `json:"day_number" binding:"required,min=1"`
	Meals     []TemplateMealRequest `json:"meals" binding:"required"`
}

// CreateTemplateRequest defines the expected JSON for creating a template.
type CreateTemplateRequest struct {
	Title          string               `json:"title" binding:"required"`
	Description    string               `json:"description"`
	Category       string               `json:"category"`
	Difficulty     string               `json:"difficulty"`
	TargetCalories float64              `json:"target_calories" binding:"omitempty,gt=0"`
	Days           []TemplateDayRequest `json:"days" binding:"required"`
}

// ReminderRequest is one reminder configuration.
type ReminderRequest struct {
	Time    string `json:"time" binding:"required"`
	Channel string `json:"channel" binding:"required"`
	Enabled bool   `json:"enabled"`
}

// ApplyTemplateRequest defines the expected JSON for applying a template.
type ApplyTemplateRequest struct {
	MealPlanID   string            `json:"meal_plan_id" binding:"required"`
	Title        string            `json:"title"`
	StartDate    string            `json:"start_date" binding:"required"`
	TargetWeight *float64          `json:"target_weight" binding:"omitempty,gt=0"`
	Notes        string            `json:"notes"`
	Reminders    []ReminderRequest `json:"reminders"`
}

func mapReminders(in []ReminderRequest) []domain.Reminder {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.Reminder, len(in))
	for i, r := range in {
		out[i] = domain.Reminder{
			Time:    r.Time,
			Channel: domain.ReminderChannel(r.Channel),
			Enabled: r.Enabled,
		}
	}
	return out
}

// --- Handler Methods ---

// CreateTemplate creates a new meal plan template owned by the caller.
func (h *PlanHandler) CreateTemplate(c *gin.Context) {
	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	authorID, ok := currentUserID(c)
	if !ok {
		return
	}

	template := &domain.MealPlanTemplate{
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		Difficulty:     req.Difficulty,
		TargetCalories: req.TargetCalories,
	}
	for _, day := range req.Days {
		templateDay := domain.TemplateDay{DayNumber: day.DayNumber}
		for _, meal := range day.Meals {
			recipeID, err := primitive.ObjectIDFromHex(meal.RecipeID)
			if err != nil {
				abortWithError(c, http.StatusBadRequest, "Invalid recipe ID format: "+meal.RecipeID)
				return
			}
			templateDay.Meals = append(templateDay.Meals, domain.TemplateMeal{
				RecipeID:     recipeID,
				MealType:     domain.MealType(meal.MealType),
				ScheduleTime: meal.ScheduleTime,
			})
		}
		template.Days = append(template.Days, templateDay)
	}

	created, err := h.planService.CreateTemplate(c.Request.Context(), authorID, template)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, created)
}

// GetMyTemplates lists templates created by the caller.
func (h *PlanHandler) GetMyTemplates(c *gin.Context) {
	authorID, ok := currentUserID(c)
	if !ok {
		return
	}

	templates, err := h.planService.GetTemplatesByAuthor(c.Request.Context(), authorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if templates == nil {
		templates = []domain.MealPlanTemplate{}
	}
	respondOK(c, http.StatusOK, templates)
}

// GetTemplate retrieves a single template.
func (h *PlanHandler) GetTemplate(c *gin.Context) {
	templateID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid template ID format.")
		return
	}

	template, err := h.planService.GetTemplateByID(c.Request.Context(), templateID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, template)
}

// DeleteTemplate deletes a template owned by the caller.
func (h *PlanHandler) DeleteTemplate(c *gin.Context) {
	templateID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid template ID format.")
		return
	}

	authorID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.planService.DeleteTemplate(c.Request.Context(), authorID, templateID); err != nil {
		respondServiceError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "Template deleted.")
}

// ApplyTemplate instantiates a personal meal schedule from a template.
func (h *PlanHandler) ApplyTemplate(c *gin.Context) {
	var req ApplyTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	templateID, err := primitive.ObjectIDFromHex(req.MealPlanID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid meal plan ID format.")
		return
	}
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "start_date must be YYYY-MM-DD.")
		return
	}

	schedule, err := h.planService.ApplyTemplate(c.Request.Context(), userID, service.ApplyTemplateInput{
		TemplateID:   templateID,
		Title:        req.Title,
		StartDate:    startDate,
		TargetWeight: req.TargetWeight,
		Notes:        req.Notes,
		Reminders:    mapReminders(req.Reminders),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, schedule)
}
