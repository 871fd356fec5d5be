package api

import (
	"net/http"

	"nutriplan/nutrition-app/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	planService service.PlanService,
	scheduleService service.ScheduleService,
	mealItemService service.MealItemService,
	reportService service.ReportService,
	nutritionService service.NutritionService,
) {
	planHandler := NewPlanHandler(planService)
	scheduleHandler := NewScheduleHandler(scheduleService, reportService)
	mealItemHandler := NewMealItemHandler(mealItemService)
	nutritionHandler := NewNutritionHandler(nutritionService)

	router.Use(RequestIDMiddleware())

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")

	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(jwtSecret))
	{
		protected.GET("/me", func(c *gin.Context) {
			userIDStr, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			c.JSON(http.StatusOK, gin.H{"userId": userIDStr})
		})

		// --- Meal Plan Template Routes ---
		planGroup := protected.Group("/meal-plans")
		{
			planGroup.POST("", planHandler.CreateTemplate)
			planGroup.GET("", planHandler.GetMyTemplates)
			planGroup.GET("/:id", planHandler.GetTemplate)
			planGroup.DELETE("/:id", planHandler.DeleteTemplate)
			planGroup.POST("/actions/apply", planHandler.ApplyTemplate)
		}

		// --- Personal Schedule Routes ---
		scheduleGroup := protected.Group("/user-meal-schedules")
		{
			scheduleGroup.GET("", scheduleHandler.ListSchedules)
			scheduleGroup.GET("/:id", scheduleHandler.GetSchedule)
			scheduleGroup.PUT("/:id", scheduleHandler.UpdateSchedule)
			scheduleGroup.PUT("/:id/reminders", scheduleHandler.UpdateReminders)

			// Reports are derived on demand from the item set.
			scheduleGroup.GET("/:id/overview", scheduleHandler.GetOverview)
			scheduleGroup.GET("/:id/progress", scheduleHandler.GetProgress)
			scheduleGroup.GET("/nutrition/day", scheduleHandler.GetDayNutrition)

			// Meal item lifecycle. Item and schedule ids travel in the body
			// (or query, for reads) rather than the path.
			scheduleGroup.GET("/meal-items/day", mealItemHandler.GetDayItems)
			scheduleGroup.POST("/meal-items/complete", mealItemHandler.CompleteMealItem)
			scheduleGroup.POST("/meal-items/skip", mealItemHandler.SkipMealItem)
			scheduleGroup.POST("/meal-items/substitute", mealItemHandler.SubstituteMealItem)
			scheduleGroup.POST("/meal-items/reschedule", mealItemHandler.RescheduleMealItem)
			scheduleGroup.POST("/meal-items/swap", mealItemHandler.SwapMealItems)
			scheduleGroup.POST("/meal-items/add", mealItemHandler.AddMealItem)
			scheduleGroup.DELETE("/meal-items/remove", mealItemHandler.RemoveMealItem)
			scheduleGroup.PUT("/meal-items/update", mealItemHandler.UpdateMealItem)
		}

		// --- Ad Hoc Nutrition Routes ---
		nutritionGroup := protected.Group("/nutrition")
		{
			nutritionGroup.POST("/calculate", nutritionHandler.CalculateNutrition)
			nutritionGroup.POST("/analyze-meal", nutritionHandler.AnalyzeMeal)
		}
	}
}
