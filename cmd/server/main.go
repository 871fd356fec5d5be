package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nutriplan/nutrition-app/internal/api"
	"nutriplan/nutrition-app/internal/config"
	"nutriplan/nutrition-app/internal/repository/mongo"
	"nutriplan/nutrition-app/internal/service"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("Starting Nutrition App Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Println("Configuration loaded.")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Println("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Println("Database connection established.")

	// --- Ensure Indexes ---
	log.Println("Ensuring database indexes...")
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureTemplateIndexes(ctx, appDB.Collection("meal_plan_templates"))
		mongo.EnsureScheduleIndexes(ctx, appDB.Collection("user_meal_schedules"))
		mongo.EnsureMealItemIndexes(ctx, appDB.Collection("meal_items"))
		log.Println("Index creation process completed.")
	}()

	// --- Initialize Repositories ---
	log.Println("Initializing repositories...")
	templateRepo := mongo.NewMongoTemplateRepository(appDB)
	scheduleRepo := mongo.NewMongoScheduleRepository(appDB)
	itemRepo := mongo.NewMongoMealItemRepository(dbClient, appDB)
	catalog := mongo.NewMongoNutrientCatalog(appDB)

	// --- Initialize Services ---
	log.Println("Initializing services...")
	planService := service.NewPlanService(templateRepo, scheduleRepo, itemRepo, catalog)
	scheduleService := service.NewScheduleService(scheduleRepo)
	mealItemService := service.NewMealItemService(itemRepo, scheduleRepo, catalog)
	reportService := service.NewReportService(scheduleRepo, itemRepo, templateRepo)
	nutritionService := service.NewNutritionService(catalog)

	// --- Initialize Gin Engine ---
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	log.Println("Setting up API routes...")
	api.SetupRoutes(router, cfg.JWT.Secret, planService, scheduleService, mealItemService, reportService, nutritionService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
