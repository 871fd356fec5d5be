package service

import (
	"context"
	"errors"
	"time"

	"nutriplan/nutrition-app/internal/domain"
	"nutriplan/nutrition-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ApplyTemplateInput carries everything a user supplies when applying a
// template to create their personal schedule.
type ApplyTemplateInput struct {
	TemplateID   primitive.ObjectID
	Title        string
	StartDate    time.Time
	TargetWeight *float64
	Notes        string
	Reminders    []domain.Reminder
}

// --- Service Interface ---
type PlanService interface {
	// Template management (author-owned, immutable after creation)
	CreateTemplate(ctx context.Context, authorID primitive.ObjectID, template *domain.MealPlanTemplate) (*domain.MealPlanTemplate, error)
	GetTemplateByID(ctx context.Context, templateID primitive.ObjectID) (*domain.MealPlanTemplate, error)
	GetTemplatesByAuthor(ctx context.Context, authorID primitive.ObjectID) ([]domain.MealPlanTemplate, error)
	DeleteTemplate(ctx context.Context, authorID, templateID primitive.ObjectID) error

	// ApplyTemplate instantiates a UserMealSchedule (and its MealItems) from a
	// template and returns the new schedule.
	ApplyTemplate(ctx context.Context, userID primitive.ObjectID, input ApplyTemplateInput) (*domain.UserMealSchedule, error)
}

// --- Service Implementation ---

// planService implements the PlanService interface.
type planService struct {
	templateRepo repository.TemplateRepository
	scheduleRepo repository.ScheduleRepository
	itemRepo     repository.MealItemRepository
	catalog      repository.NutrientCatalog
}

// NewPlanService creates a new instance of planService.
func NewPlanService(
	templateRepo repository.TemplateRepository,
	scheduleRepo repository.ScheduleRepository,
	itemRepo repository.MealItemRepository,
	catalog repository.NutrientCatalog,
) PlanService {
	return &planService{
		templateRepo: templateRepo,
		scheduleRepo: scheduleRepo,
		itemRepo:     itemRepo,
		catalog:      catalog,
	}
}

// === Template Management ===

// CreateTemplate validates and persists a new meal plan template.
func (s *planService) CreateTemplate(ctx context.Context, authorID primitive.ObjectID, template *domain.MealPlanTemplate) (*domain.MealPlanTemplate, error) {
	if authorID == primitive.NilObjectID {
		return nil, errors.New("author ID is required to create a template")
	}
	if template.Title == "" {
		return nil, validationError("template title is required")
	}
	if len(template.Days) == 0 {
		return nil, validationError("template must contain at least one day")
	}
	if template.TargetCalories < 0 {
		return nil, validationError("target_calories cannot be negative")
	}
	for _, day := range template.Days {
		if day.DayNumber < 1 {
			return nil, validationError("day numbers start at 1")
		}
		seen := map[domain.MealType]bool{}
		for _, meal := range day.Meals {
			if !domain.ValidMealType(meal.MealType) {
				return nil, validationError("unknown meal type %q on day %d", meal.MealType, day.DayNumber)
			}
			if meal.RecipeID == primitive.NilObjectID {
				return nil, validationError("every meal requires a recipe id")
			}
			if seen[meal.MealType] {
				return nil, validationError("day %d has duplicate %s entries", day.DayNumber, meal.MealType)
			}
			seen[meal.MealType] = true
		}
		if day.DayNumber > template.DurationDays {
			template.DurationDays = day.DayNumber
		}
	}

	template.AuthorID = authorID
	templateID, err := s.templateRepo.Create(ctx, template)
	if err != nil {
		return nil, err
	}
	template.ID = templateID
	return template, nil
}

// GetTemplateByID retrieves a single template. Templates are readable by any
// authenticated user; only mutation is restricted to the author.
func (s *planService) GetTemplateByID(ctx context.Context, templateID primitive.ObjectID) (*domain.MealPlanTemplate, error) {
	template, err := s.templateRepo.GetByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	return template, nil
}

// GetTemplatesByAuthor retrieves all templates created by an author.
func (s *planService) GetTemplatesByAuthor(ctx context.Context, authorID primitive.ObjectID) ([]domain.MealPlanTemplate, error) {
	if authorID == primitive.NilObjectID {
		return nil, errors.New("author ID cannot be nil")
	}
	return s.templateRepo.GetByAuthorID(ctx, authorID)
}

// DeleteTemplate removes a template, enforcing authorship. Schedules already
// applied from it keep their snapshots and are unaffected.
func (s *planService) DeleteTemplate(ctx context.Context, authorID, templateID primitive.ObjectID) error {
	if authorID == primitive.NilObjectID || templateID == primitive.NilObjectID {
		return errors.New("author ID and template ID are required")
	}

	template, err := s.templateRepo.GetByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTemplateNotFound
		}
		return err
	}
	if template.AuthorID != authorID {
		return ErrTemplateAccessDenied
	}

	err = s.templateRepo.Delete(ctx, templateID, authorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTemplateNotFound
		}
		return err
	}
	return nil
}

// === Template Application ===

// ApplyTemplate creates one UserMealSchedule for the user, then one MealItem
// per (day, meal) entry of the template with date = start_date+(day-1) days
// and a nutrition snapshot fetched from the catalog.
//
// Snapshot lookups fail open: an unresolved recipe yields an item with a zero
// vector and NutritionMissing set, rather than aborting the whole
// application. The caller can surface the flagged items to the user.
func (s *planService) ApplyTemplate(ctx context.Context, userID primitive.ObjectID, input ApplyTemplateInput) (*domain.UserMealSchedule, error) {
	if userID == primitive.NilObjectID {
		return nil, errors.New("user ID is required to apply a template")
	}
	if input.TemplateID == primitive.NilObjectID {
		return nil, validationError("meal_plan_id is required")
	}
	if input.StartDate.IsZero() {
		return nil, validationError("start_date is required")
	}
	for _, reminder := range input.Reminders {
		if err := validateReminder(reminder); err != nil {
			return nil, err
		}
	}

	template, err := s.templateRepo.GetByID(ctx, input.TemplateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}

	title := input.Title
	if title == "" {
		title = template.Title
	}

	schedule := &domain.UserMealSchedule{
		OwnerUserID:      userID,
		SourceTemplateID: template.ID,
		Title:            title,
		StartDate:        domain.DateOnly(input.StartDate),
		Status:           domain.ScheduleActive,
		TargetWeight:     input.TargetWeight,
		Notes:            input.Notes,
		Reminders:        input.Reminders,
	}

	scheduleID, err := s.scheduleRepo.Create(ctx, schedule)
	if err != nil {
		return nil, err
	}
	schedule.ID = scheduleID

	var items []domain.MealItem
	for _, day := range template.Days {
		date := schedule.StartDate.AddDate(0, 0, day.DayNumber-1)
		for _, meal := range day.Meals {
			item := domain.MealItem{
				ScheduleID:   scheduleID,
				Date:         date,
				MealType:     meal.MealType,
				ScheduleTime: meal.ScheduleTime,
				RecipeID:     meal.RecipeID,
				State:        domain.ItemPlanned,
			}

			snapshot, err := s.catalog.FindRecipe(ctx, meal.RecipeID)
			if err != nil {
				if !errors.Is(err, repository.ErrNotFound) {
					return nil, err
				}
				item.NutritionMissing = true
			} else {
				item.PlannedNutrition = snapshot
			}
			items = append(items, item)
		}
	}

	if err := s.itemRepo.CreateMany(ctx, items); err != nil {
		return nil, err
	}
	return schedule, nil
}
