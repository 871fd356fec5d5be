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

const scheduleCollectionName = "user_meal_schedules"

// mongoScheduleRepository implements repository.ScheduleRepository
type mongoScheduleRepository struct {
	collection *mongo.Collection
}

// NewMongoScheduleRepository creates a new schedule repository backed by MongoDB.
func NewMongoScheduleRepository(db *mongo.Database) repository.ScheduleRepository {
	return &mongoScheduleRepository{
		collection: db.Collection(scheduleCollectionName),
	}
}

// Create inserts a new user meal schedule.
func (r *mongoScheduleRepository) Create(ctx context.Context, schedule *domain.UserMealSchedule) (primitive.ObjectID, error) {
	if schedule.OwnerUserID == primitive.NilObjectID || schedule.SourceTemplateID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("schedule requires ownerUserId and sourceTemplateId")
	}

	schedule.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now
	if schedule.Status == "" {
		schedule.Status = domain.ScheduleActive
	}

	result, err := r.collection.InsertOne(ctx, schedule)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted schedule ID")
	}
	return insertedID, nil
}

// GetByID retrieves a schedule by its ID.
func (r *mongoScheduleRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.UserMealSchedule, error) {
	var schedule domain.UserMealSchedule
	filter := bson.M{"_id": id}

	err := r.collection.FindOne(ctx, filter).Decode(&schedule)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &schedule, nil
}

// GetByOwnerID retrieves schedules for a user, newest first, with optional
// status filtering and pagination.
func (r *mongoScheduleRepository) GetByOwnerID(ctx context.Context, ownerID primitive.ObjectID, filter repository.ScheduleFilter) ([]domain.UserMealSchedule, error) {
	query := bson.M{"ownerUserId": ownerID}
	if filter.Status != nil {
		query["status"] = *filter.Status
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if filter.Limit > 0 {
		findOptions.SetLimit(int64(filter.Limit))
		if filter.Page > 1 {
			findOptions.SetSkip(int64((filter.Page - 1) * filter.Limit))
		}
	}

	var schedules []domain.UserMealSchedule
	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &schedules); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return schedules, nil
}

// UpdateMetadata persists the mutable schedule-level fields (title, notes,
// status, target weight). Reminders have their own replace operation.
func (r *mongoScheduleRepository) UpdateMetadata(ctx context.Context, schedule *domain.UserMealSchedule) error {
	if schedule.ID == primitive.NilObjectID {
		return errors.New("schedule ID is required for update")
	}

	filter := bson.M{"_id": schedule.ID}
	updateFields := bson.M{
		"title":     schedule.Title,
		"notes":     schedule.Notes,
		"status":    schedule.Status,
		"updatedAt": time.Now().UTC(),
	}
	if schedule.TargetWeight != nil {
		updateFields["targetWeight"] = *schedule.TargetWeight
	}

	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": updateFields})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ReplaceReminders swaps the reminder list wholesale.
func (r *mongoScheduleRepository) ReplaceReminders(ctx context.Context, id primitive.ObjectID, reminders []domain.Reminder) error {
	filter := bson.M{"_id": id}
	update := bson.M{"$set": bson.M{
		"reminders": reminders,
		"updatedAt": time.Now().UTC(),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureScheduleIndexes creates necessary indexes for the schedules collection.
func EnsureScheduleIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "ownerUserId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "ownerUserId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
