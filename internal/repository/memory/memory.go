package memory

import (
	"context"
	"sync"
	"time"

	"nutriplan/nutrition-app/internal/domain"
	"nutriplan/nutrition-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store is an in-memory implementation of every repository interface, exposed
// through per-repository views. It exists so services and handlers can be
// tested without a running MongoDB; production wiring always uses the mongo
// package.
type Store struct {
	mu        sync.Mutex
	templates map[primitive.ObjectID]domain.MealPlanTemplate
	schedules map[primitive.ObjectID]domain.UserMealSchedule
	items     map[primitive.ObjectID]domain.MealItem
	itemOrder []primitive.ObjectID

	Ingredients map[string]domain.NutrientVector
	Recipes     map[primitive.ObjectID]domain.NutrientVector
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		templates:   make(map[primitive.ObjectID]domain.MealPlanTemplate),
		schedules:   make(map[primitive.ObjectID]domain.UserMealSchedule),
		items:       make(map[primitive.ObjectID]domain.MealItem),
		Ingredients: make(map[string]domain.NutrientVector),
		Recipes:     make(map[primitive.ObjectID]domain.NutrientVector),
	}
}

// Templates returns the TemplateRepository view of the store.
func (s *Store) Templates() repository.TemplateRepository { return &templateRepo{s} }

// Schedules returns the ScheduleRepository view of the store.
func (s *Store) Schedules() repository.ScheduleRepository { return &scheduleRepo{s} }

// MealItems returns the MealItemRepository view of the store.
func (s *Store) MealItems() repository.MealItemRepository { return &mealItemRepo{s} }

// Catalog returns the NutrientCatalog view of the store.
func (s *Store) Catalog() repository.NutrientCatalog { return &catalog{s} }

// === TemplateRepository ===

type templateRepo struct{ s *Store }

var _ repository.TemplateRepository = (*templateRepo)(nil)

func (r *templateRepo) Create(ctx context.Context, template *domain.MealPlanTemplate) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	template.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	template.CreatedAt = now
	template.UpdatedAt = now
	r.s.templates[template.ID] = *template
	return template.ID, nil
}

func (r *templateRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.MealPlanTemplate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	template, ok := r.s.templates[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &template, nil
}

func (r *templateRepo) GetByAuthorID(ctx context.Context, authorID primitive.ObjectID) ([]domain.MealPlanTemplate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []domain.MealPlanTemplate
	for _, t := range r.s.templates {
		if t.AuthorID == authorID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *templateRepo) Delete(ctx context.Context, id, authorID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	template, ok := r.s.templates[id]
	if !ok || template.AuthorID != authorID {
		return repository.ErrNotFound
	}
	delete(r.s.templates, id)
	return nil
}

// === ScheduleRepository ===

type scheduleRepo struct{ s *Store }

var _ repository.ScheduleRepository = (*scheduleRepo)(nil)

func (r *scheduleRepo) Create(ctx context.Context, schedule *domain.UserMealSchedule) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	schedule.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now
	if schedule.Status == "" {
		schedule.Status = domain.ScheduleActive
	}
	r.s.schedules[schedule.ID] = *schedule
	return schedule.ID, nil
}

func (r *scheduleRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.UserMealSchedule, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	schedule, ok := r.s.schedules[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &schedule, nil
}

func (r *scheduleRepo) GetByOwnerID(ctx context.Context, ownerID primitive.ObjectID, filter repository.ScheduleFilter) ([]domain.UserMealSchedule, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []domain.UserMealSchedule
	for _, sched := range r.s.schedules {
		if sched.OwnerUserID != ownerID {
			continue
		}
		if filter.Status != nil && sched.Status != *filter.Status {
			continue
		}
		out = append(out, sched)
	}
	if filter.Limit > 0 {
		start := 0
		if filter.Page > 1 {
			start = (filter.Page - 1) * filter.Limit
		}
		if start >= len(out) {
			return nil, nil
		}
		end := start + filter.Limit
		if end > len(out) {
			end = len(out)
		}
		out = out[start:end]
	}
	return out, nil
}

func (r *scheduleRepo) UpdateMetadata(ctx context.Context, schedule *domain.UserMealSchedule) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.schedules[schedule.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Title = schedule.Title
	stored.Notes = schedule.Notes
	stored.Status = schedule.Status
	if schedule.TargetWeight != nil {
		stored.TargetWeight = schedule.TargetWeight
	}
	stored.UpdatedAt = time.Now().UTC()
	r.s.schedules[schedule.ID] = stored
	return nil
}

func (r *scheduleRepo) ReplaceReminders(ctx context.Context, id primitive.ObjectID, reminders []domain.Reminder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.schedules[id]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Reminders = reminders
	stored.UpdatedAt = time.Now().UTC()
	r.s.schedules[id] = stored
	return nil
}

// === MealItemRepository ===

type mealItemRepo struct{ s *Store }

var _ repository.MealItemRepository = (*mealItemRepo)(nil)

func (r *mealItemRepo) Create(ctx context.Context, item *domain.MealItem) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.insert(item)
}

// insert must be called with the lock held.
func (r *mealItemRepo) insert(item *domain.MealItem) (primitive.ObjectID, error) {
	item.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	if item.State == "" {
		item.State = domain.ItemPlanned
	}
	r.s.items[item.ID] = *item
	r.s.itemOrder = append(r.s.itemOrder, item.ID)
	return item.ID, nil
}

func (r *mealItemRepo) CreateMany(ctx context.Context, items []domain.MealItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for i := range items {
		if _, err := r.insert(&items[i]); err != nil {
			return err
		}
	}
	return nil
}

// liveItem must be called with the lock held.
func (r *mealItemRepo) liveItem(id primitive.ObjectID) (*domain.MealItem, error) {
	item, ok := r.s.items[id]
	if !ok || item.Deleted {
		return nil, repository.ErrNotFound
	}
	return &item, nil
}

func (r *mealItemRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.MealItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.liveItem(id)
}

// collect walks items in insertion order; keeps day listings deterministic.
func (r *mealItemRepo) collect(keep func(domain.MealItem) bool) []domain.MealItem {
	var out []domain.MealItem
	for _, id := range r.s.itemOrder {
		item, ok := r.s.items[id]
		if !ok || item.Deleted {
			continue
		}
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

func (r *mealItemRepo) GetByScheduleID(ctx context.Context, scheduleID primitive.ObjectID) ([]domain.MealItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.collect(func(item domain.MealItem) bool {
		return item.ScheduleID == scheduleID
	}), nil
}

func (r *mealItemRepo) GetByScheduleAndDate(ctx context.Context, scheduleID primitive.ObjectID, date time.Time) ([]domain.MealItem, error) {
	day := domain.DateOnly(date)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.collect(func(item domain.MealItem) bool {
		return item.ScheduleID == scheduleID && item.Date.Equal(day)
	}), nil
}

func (r *mealItemRepo) GetByScheduleAndDateRange(ctx context.Context, scheduleID primitive.ObjectID, from, to time.Time) ([]domain.MealItem, error) {
	lo, hi := domain.DateOnly(from), domain.DateOnly(to)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.collect(func(item domain.MealItem) bool {
		if item.ScheduleID != scheduleID {
			return false
		}
		return !item.Date.Before(lo) && !item.Date.After(hi)
	}), nil
}

func (r *mealItemRepo) FindBySlot(ctx context.Context, scheduleID primitive.ObjectID, date time.Time, mealType domain.MealType) (*domain.MealItem, error) {
	day := domain.DateOnly(date)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, item := range r.s.items {
		if item.ScheduleID == scheduleID && !item.Deleted && item.Date.Equal(day) && item.MealType == mealType {
			found := item
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *mealItemRepo) CompleteIfPlanned(ctx context.Context, id primitive.ObjectID, actual *domain.NutrientVector, at time.Time) (*domain.MealItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	item, err := r.liveItem(id)
	if err != nil {
		return nil, err
	}
	if item.State != domain.ItemPlanned {
		return nil, repository.ErrUpdateFailed
	}
	item.State = domain.ItemCompleted
	item.CompletedAt = &at
	item.UpdatedAt = at
	if actual != nil {
		item.ActualNutrition = actual
	}
	r.s.items[id] = *item
	return item, nil
}

func (r *mealItemRepo) SkipIfPlanned(ctx context.Context, id primitive.ObjectID, notes string, at time.Time) (*domain.MealItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	item, err := r.liveItem(id)
	if err != nil {
		return nil, err
	}
	if item.State != domain.ItemPlanned {
		return nil, repository.ErrUpdateFailed
	}
	item.State = domain.ItemSkipped
	item.SkippedAt = &at
	item.UpdatedAt = at
	if notes != "" {
		item.Notes = notes
	}
	r.s.items[id] = *item
	return item, nil
}

func (r *mealItemRepo) SubstituteIfPlanned(ctx context.Context, id primitive.ObjectID, recipeID primitive.ObjectID, snapshot domain.NutrientVector, missing bool, notes string) (*domain.MealItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	item, err := r.liveItem(id)
	if err != nil {
		return nil, err
	}
	if item.State != domain.ItemPlanned {
		return nil, repository.ErrUpdateFailed
	}
	item.RecipeID = recipeID
	item.SubstituteRecipeID = &recipeID
	item.PlannedNutrition = snapshot
	item.NutritionMissing = missing
	if notes != "" {
		item.Notes = notes
	}
	item.UpdatedAt = time.Now().UTC()
	r.s.items[id] = *item
	return item, nil
}

func (r *mealItemRepo) Reschedule(ctx context.Context, id primitive.ObjectID, newDate time.Time, newTime string, originalDate time.Time) (*domain.MealItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	item, err := r.liveItem(id)
	if err != nil {
		return nil, err
	}
	orig := domain.DateOnly(originalDate)
	item.Date = domain.DateOnly(newDate)
	item.State = domain.ItemPlanned
	item.OriginalDate = &orig
	item.CompletedAt = nil
	item.SkippedAt = nil
	item.ActualNutrition = nil
	if newTime != "" {
		item.ScheduleTime = newTime
	}
	item.UpdatedAt = time.Now().UTC()
	r.s.items[id] = *item
	return item, nil
}

func (r *mealItemRepo) Swap(ctx context.Context, first, second *domain.MealItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, err := r.liveItem(first.ID)
	if err != nil {
		return err
	}
	b, err := r.liveItem(second.ID)
	if err != nil {
		return err
	}

	a.Date, b.Date = b.Date, a.Date
	a.MealType, b.MealType = b.MealType, a.MealType
	a.ScheduleTime, b.ScheduleTime = b.ScheduleTime, a.ScheduleTime
	a.RecipeID, b.RecipeID = b.RecipeID, a.RecipeID
	a.SubstituteRecipeID, b.SubstituteRecipeID = b.SubstituteRecipeID, a.SubstituteRecipeID
	a.PlannedNutrition, b.PlannedNutrition = b.PlannedNutrition, a.PlannedNutrition
	a.NutritionMissing, b.NutritionMissing = b.NutritionMissing, a.NutritionMissing

	now := time.Now().UTC()
	a.UpdatedAt = now
	b.UpdatedAt = now
	r.s.items[a.ID] = *a
	r.s.items[b.ID] = *b
	return nil
}

func (r *mealItemRepo) UpdateFields(ctx context.Context, id primitive.ObjectID, update repository.MealItemUpdate) (*domain.MealItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	item, err := r.liveItem(id)
	if err != nil {
		return nil, err
	}
	if update.Notes != nil {
		item.Notes = *update.Notes
	}
	if update.ScheduleTime != nil {
		item.ScheduleTime = *update.ScheduleTime
	}
	item.UpdatedAt = time.Now().UTC()
	r.s.items[id] = *item
	return item, nil
}

func (r *mealItemRepo) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	item, err := r.liveItem(id)
	if err != nil {
		return err
	}
	item.Deleted = true
	item.UpdatedAt = time.Now().UTC()
	r.s.items[id] = *item
	return nil
}

// === NutrientCatalog ===

type catalog struct{ s *Store }

var _ repository.NutrientCatalog = (*catalog)(nil)

func (c *catalog) FindIngredient(ctx context.Context, id string) (domain.NutrientVector, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	v, ok := c.s.Ingredients[id]
	if !ok {
		return domain.NutrientVector{}, repository.ErrNotFound
	}
	return v, nil
}

func (c *catalog) FindRecipe(ctx context.Context, id primitive.ObjectID) (domain.NutrientVector, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	v, ok := c.s.Recipes[id]
	if !ok {
		return domain.NutrientVector{}, repository.ErrNotFound
	}
	return v, nil
}
