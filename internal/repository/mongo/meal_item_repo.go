package mongo

import (
	"context"
	"errors"
	"time"

	"nutriplan/nutrition-app/internal/domain"
	"nutriplan/nutrition-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mealItemCollectionName = "meal_items"

// mongoMealItemRepository implements repository.MealItemRepository.
// State transitions are single-document compare-and-set updates so that
// concurrent requests from the same user (double-tap "complete") cannot lose
// updates; Swap uses a session transaction across both documents.
type mongoMealItemRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoMealItemRepository creates a new meal item repository backed by MongoDB.
func NewMongoMealItemRepository(client *mongo.Client, db *mongo.Database) repository.MealItemRepository {
	return &mongoMealItemRepository{
		client:     client,
		collection: db.Collection(mealItemCollectionName),
	}
}

// notDeleted is the base filter shared by every read; removed items stay in
// the collection as soft-deleted documents.
func notDeleted(extra bson.M) bson.M {
	extra["deleted"] = bson.M{"$ne": true}
	return extra
}

// Create inserts a single meal item.
func (r *mongoMealItemRepository) Create(ctx context.Context, item *domain.MealItem) (primitive.ObjectID, error) {
	if item.ScheduleID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("meal item requires scheduleId")
	}

	item.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	if item.State == "" {
		item.State = domain.ItemPlanned
	}

	result, err := r.collection.InsertOne(ctx, item)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted meal item ID")
	}
	return insertedID, nil
}

// CreateMany bulk-inserts the items produced by a template application.
func (r *mongoMealItemRepository) CreateMany(ctx context.Context, items []domain.MealItem) error {
	if len(items) == 0 {
		return nil
	}

	now := time.Now().UTC()
	docs := make([]interface{}, len(items))
	for i := range items {
		if items[i].ID == primitive.NilObjectID {
			items[i].ID = primitive.NewObjectID()
		}
		items[i].CreatedAt = now
		items[i].UpdatedAt = now
		if items[i].State == "" {
			items[i].State = domain.ItemPlanned
		}
		docs[i] = items[i]
	}

	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

// GetByID retrieves a live meal item by its ID.
func (r *mongoMealItemRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.MealItem, error) {
	var item domain.MealItem
	filter := notDeleted(bson.M{"_id": id})

	err := r.collection.FindOne(ctx, filter).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (r *mongoMealItemRepository) findAll(ctx context.Context, filter bson.M) ([]domain.MealItem, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "scheduleTime", Value: 1}})

	var items []domain.MealItem
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// GetByScheduleID retrieves all live items of a schedule ordered by date.
func (r *mongoMealItemRepository) GetByScheduleID(ctx context.Context, scheduleID primitive.ObjectID) ([]domain.MealItem, error) {
	return r.findAll(ctx, notDeleted(bson.M{"scheduleId": scheduleID}))
}

// GetByScheduleAndDate retrieves the live items of one day.
func (r *mongoMealItemRepository) GetByScheduleAndDate(ctx context.Context, scheduleID primitive.ObjectID, date time.Time) ([]domain.MealItem, error) {
	return r.findAll(ctx, notDeleted(bson.M{"scheduleId": scheduleID, "date": domain.DateOnly(date)}))
}

// GetByScheduleAndDateRange retrieves live items with from <= date <= to.
func (r *mongoMealItemRepository) GetByScheduleAndDateRange(ctx context.Context, scheduleID primitive.ObjectID, from, to time.Time) ([]domain.MealItem, error) {
	filter := notDeleted(bson.M{
		"scheduleId": scheduleID,
		"date": bson.M{
			"$gte": domain.DateOnly(from),
			"$lte": domain.DateOnly(to),
		},
	})
	return r.findAll(ctx, filter)
}

// FindBySlot returns the live item occupying (scheduleID, date, mealType).
func (r *mongoMealItemRepository) FindBySlot(ctx context.Context, scheduleID primitive.ObjectID, date time.Time, mealType domain.MealType) (*domain.MealItem, error) {
	var item domain.MealItem
	filter := notDeleted(bson.M{
		"scheduleId": scheduleID,
		"date":       domain.DateOnly(date),
		"mealType":   mealType,
	})

	err := r.collection.FindOne(ctx, filter).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// findOneAndUpdate runs a guarded update and returns the post-update document.
// A nil document with mongo.ErrNoDocuments means either the item does not
// exist or the guard did not match; callers disambiguate via GetByID.
func (r *mongoMealItemRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*domain.MealItem, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var item domain.MealItem
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Distinguish "missing" from "guard failed".
			if _, getErr := r.GetByID(ctx, filter["_id"].(primitive.ObjectID)); getErr != nil {
				return nil, repository.ErrNotFound
			}
			return nil, repository.ErrUpdateFailed
		}
		return nil, err
	}
	return &item, nil
}

// CompleteIfPlanned transitions planned -> completed atomically.
func (r *mongoMealItemRepository) CompleteIfPlanned(ctx context.Context, id primitive.ObjectID, actual *domain.NutrientVector, at time.Time) (*domain.MealItem, error) {
	filter := notDeleted(bson.M{"_id": id, "state": domain.ItemPlanned})
	set := bson.M{
		"state":       domain.ItemCompleted,
		"completedAt": at,
		"updatedAt":   at,
	}
	if actual != nil {
		set["actualNutrition"] = *actual
	}
	return r.findOneAndUpdate(ctx, filter, bson.M{"$set": set})
}

// SkipIfPlanned transitions planned -> skipped atomically.
func (r *mongoMealItemRepository) SkipIfPlanned(ctx context.Context, id primitive.ObjectID, notes string, at time.Time) (*domain.MealItem, error) {
	filter := notDeleted(bson.M{"_id": id, "state": domain.ItemPlanned})
	set := bson.M{
		"state":     domain.ItemSkipped,
		"skippedAt": at,
		"updatedAt": at,
	}
	if notes != "" {
		set["notes"] = notes
	}
	return r.findOneAndUpdate(ctx, filter, bson.M{"$set": set})
}

// SubstituteIfPlanned replaces the recipe and nutrition snapshot while the
// item is still planned. The state stays planned.
func (r *mongoMealItemRepository) SubstituteIfPlanned(ctx context.Context, id primitive.ObjectID, recipeID primitive.ObjectID, snapshot domain.NutrientVector, missing bool, notes string) (*domain.MealItem, error) {
	filter := notDeleted(bson.M{"_id": id, "state": domain.ItemPlanned})
	set := bson.M{
		"recipeId":           recipeID,
		"substituteRecipeId": recipeID,
		"plannedNutrition":   snapshot,
		"nutritionMissing":   missing,
		"updatedAt":          time.Now().UTC(),
	}
	if notes != "" {
		set["notes"] = notes
	}
	return r.findOneAndUpdate(ctx, filter, bson.M{"$set": set})
}

// Reschedule moves the item to a new slot and resets it to planned. The slot
// collision check belongs to the service; this method only applies the move.
func (r *mongoMealItemRepository) Reschedule(ctx context.Context, id primitive.ObjectID, newDate time.Time, newTime string, originalDate time.Time) (*domain.MealItem, error) {
	now := time.Now().UTC()
	filter := notDeleted(bson.M{"_id": id})
	set := bson.M{
		"date":         domain.DateOnly(newDate),
		"state":        domain.ItemPlanned,
		"originalDate": domain.DateOnly(originalDate),
		"updatedAt":    now,
	}
	if newTime != "" {
		set["scheduleTime"] = newTime
	}
	update := bson.M{
		"$set":   set,
		"$unset": bson.M{"completedAt": "", "skippedAt": "", "actualNutrition": ""},
	}
	return r.findOneAndUpdate(ctx, filter, update)
}

// swapPayload extracts the exchangeable content of an item. Ids and lifecycle
// state stay with the original documents.
func swapPayload(item *domain.MealItem) bson.M {
	set := bson.M{
		"date":             item.Date,
		"mealType":         item.MealType,
		"scheduleTime":     item.ScheduleTime,
		"recipeId":         item.RecipeID,
		"plannedNutrition": item.PlannedNutrition,
		"nutritionMissing": item.NutritionMissing,
		"updatedAt":        time.Now().UTC(),
	}
	if item.SubstituteRecipeID != nil {
		set["substituteRecipeId"] = *item.SubstituteRecipeID
	}
	return set
}

// Swap exchanges the full content payload of two items inside a transaction,
// preventing a half-applied swap under concurrent requests.
func (r *mongoMealItemRepository) Swap(ctx context.Context, first, second *domain.MealItem) error {
	session, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		firstSet := swapPayload(second)
		secondSet := swapPayload(first)

		firstUpdate := bson.M{"$set": firstSet}
		if second.SubstituteRecipeID == nil {
			firstUpdate["$unset"] = bson.M{"substituteRecipeId": ""}
		}
		secondUpdate := bson.M{"$set": secondSet}
		if first.SubstituteRecipeID == nil {
			secondUpdate["$unset"] = bson.M{"substituteRecipeId": ""}
		}

		res, err := r.collection.UpdateOne(sc, notDeleted(bson.M{"_id": first.ID}), firstUpdate)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			return nil, repository.ErrNotFound
		}

		res, err = r.collection.UpdateOne(sc, notDeleted(bson.M{"_id": second.ID}), secondUpdate)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			return nil, repository.ErrNotFound
		}
		return nil, nil
	})
	return err
}

// UpdateFields applies free-form metadata edits without touching state.
func (r *mongoMealItemRepository) UpdateFields(ctx context.Context, id primitive.ObjectID, update repository.MealItemUpdate) (*domain.MealItem, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if update.Notes != nil {
		set["notes"] = *update.Notes
	}
	if update.ScheduleTime != nil {
		set["scheduleTime"] = *update.ScheduleTime
	}

	filter := notDeleted(bson.M{"_id": id})
	return r.findOneAndUpdate(ctx, filter, bson.M{"$set": set})
}

// SoftDelete marks an item removed. The document stays for audit.
func (r *mongoMealItemRepository) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	filter := notDeleted(bson.M{"_id": id})
	update := bson.M{"$set": bson.M{"deleted": true, "updatedAt": time.Now().UTC()}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureMealItemIndexes creates necessary indexes for the meal items collection.
// The slot index is intentionally non-unique: a unique index would reject the
// transient duplicate that exists halfway through a swap transaction. Slot
// uniqueness is enforced by the service via FindBySlot before add/reschedule.
func EnsureMealItemIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "scheduleId", Value: 1}, {Key: "date", Value: 1}, {Key: "mealType", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "scheduleId", Value: 1}, {Key: "state", Value: 1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
