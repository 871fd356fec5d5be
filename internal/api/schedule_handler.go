package api

import (
	"net/http"
	"strconv"
	"time"

	"nutriplan/nutrition-app/internal/domain"
	"nutriplan/nutrition-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScheduleHandler holds the schedule and report service dependencies.
type ScheduleHandler struct {
	scheduleService service.ScheduleService
	reportService   service.ReportService
}

// NewScheduleHandler creates a new ScheduleHandler.
func NewScheduleHandler(scheduleService service.ScheduleService, reportService service.ReportService) *ScheduleHandler {
	return &ScheduleHandler{
		scheduleService: scheduleService,
		reportService:   reportService,
	}
}

// --- DTOs for API ---

// UpdateScheduleRequest defines the expected JSON for a schedule metadata
// update. Absent fields are left untouched.
type UpdateScheduleRequest struct {
	Title        *string  `json:"title"`
	Notes        *string  `json:"notes"`
	Status       *string  `json:"status"`
	TargetWeight *float64 `json:"target_weight" binding:"omitempty,gt=0"`
}

// UpdateRemindersRequest replaces the schedule's reminder list.
type UpdateRemindersRequest struct {
	Reminders []ReminderRequest `json:"reminders" binding:"required"`
}

// --- Helpers ---

func scheduleIDParam(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid schedule ID format.")
		return primitive.NilObjectID, false
	}
	return id, true
}

// --- Handler Methods ---

// ListSchedules lists the caller's schedules with pagination and optional
// status filtering via query parameters.
func (h *ScheduleHandler) ListSchedules(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	filter := service.ScheduleListFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		status := domain.ScheduleStatus(statusStr)
		filter.Status = &status
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "0"))

	schedules, err := h.scheduleService.ListSchedules(c.Request.Context(), userID, filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if schedules == nil {
		schedules = []domain.UserMealSchedule{}
	}
	respondOK(c, http.StatusOK, schedules)
}

// GetSchedule retrieves one schedule owned by the caller.
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	scheduleID, ok := scheduleIDParam(c)
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	schedule, err := h.scheduleService.GetSchedule(c.Request.Context(), userID, scheduleID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, schedule)
}

// UpdateSchedule edits schedule-level metadata.
func (h *ScheduleHandler) UpdateSchedule(c *gin.Context) {
	scheduleID, ok := scheduleIDParam(c)
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	input := service.UpdateScheduleInput{
		Title:        req.Title,
		Notes:        req.Notes,
		TargetWeight: req.TargetWeight,
	}
	if req.Status != nil {
		status := domain.ScheduleStatus(*req.Status)
		input.Status = &status
	}

	schedule, err := h.scheduleService.UpdateSchedule(c.Request.Context(), userID, scheduleID, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, schedule)
}

// UpdateReminders replaces the reminder list of a schedule.
func (h *ScheduleHandler) UpdateReminders(c *gin.Context) {
	scheduleID, ok := scheduleIDParam(c)
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req UpdateRemindersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	schedule, err := h.scheduleService.UpdateReminders(c.Request.Context(), userID, scheduleID, mapReminders(req.Reminders))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, schedule)
}

// GetOverview returns adherence and streak statistics for a schedule.
func (h *ScheduleHandler) GetOverview(c *gin.Context) {
	scheduleID, ok := scheduleIDParam(c)
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	stats, err := h.reportService.OverviewStats(c.Request.Context(), userID, scheduleID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, stats)
}

// GetProgress returns the day-indexed progress series for a schedule. The
// range is controlled by optional "from" and "to" query parameters.
func (h *ScheduleHandler) GetProgress(c *gin.Context) {
	scheduleID, ok := scheduleIDParam(c)
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var from, to time.Time
	var err error
	if fromStr := c.Query("from"); fromStr != "" {
		if from, err = parseDate(fromStr); err != nil {
			abortWithError(c, http.StatusBadRequest, "from must be YYYY-MM-DD.")
			return
		}
	}
	if toStr := c.Query("to"); toStr != "" {
		if to, err = parseDate(toStr); err != nil {
			abortWithError(c, http.StatusBadRequest, "to must be YYYY-MM-DD.")
			return
		}
	}

	report, err := h.reportService.ProgressReport(c.Request.Context(), userID, scheduleID, from, to)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, report)
}

// GetDayNutrition returns the nutrition roll-up of one day of a schedule.
// Both "schedule_id" and "date" query parameters are required.
func (h *ScheduleHandler) GetDayNutrition(c *gin.Context) {
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

	summary, err := h.reportService.DayNutrition(c.Request.Context(), userID, scheduleID, date)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, summary)
}
