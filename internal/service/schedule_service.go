package service

import (
	"context"
	"errors"

	"nutriplan/nutrition-app/internal/domain"
	"nutriplan/nutrition-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// ScheduleListFilter narrows a schedule listing.
type ScheduleListFilter struct {
	Status *domain.ScheduleStatus
	Page   int
	Limit  int
}

// UpdateScheduleInput carries the mutable schedule-level metadata. Nil
// pointers leave the stored value untouched.
type UpdateScheduleInput struct {
	Title        *string
	Notes        *string
	Status       *domain.ScheduleStatus
	TargetWeight *float64
}

// --- Service Interface ---
type ScheduleService interface {
	ListSchedules(ctx context.Context, userID primitive.ObjectID, filter ScheduleListFilter) ([]domain.UserMealSchedule, error)
	GetSchedule(ctx context.Context, userID, scheduleID primitive.ObjectID) (*domain.UserMealSchedule, error)
	UpdateSchedule(ctx context.Context, userID, scheduleID primitive.ObjectID, input UpdateScheduleInput) (*domain.UserMealSchedule, error)
	// UpdateReminders replaces the reminder list wholesale; there is no
	// partial patch. Delivery belongs to an external notifier.
	UpdateReminders(ctx context.Context, userID, scheduleID primitive.ObjectID, reminders []domain.Reminder) (*domain.UserMealSchedule, error)
}

// --- Service Implementation ---

// scheduleService implements the ScheduleService interface.
type scheduleService struct {
	scheduleRepo repository.ScheduleRepository
}

// NewScheduleService creates a new instance of scheduleService.
func NewScheduleService(scheduleRepo repository.ScheduleRepository) ScheduleService {
	return &scheduleService{scheduleRepo: scheduleRepo}
}

func (s *scheduleService) owned(ctx context.Context, userID, scheduleID primitive.ObjectID) (*domain.UserMealSchedule, error) {
	schedule, err := s.scheduleRepo.GetByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	if schedule.OwnerUserID != userID {
		return nil, ErrScheduleAccessDenied
	}
	return schedule, nil
}

// ListSchedules lists the user's schedules with pagination and an optional
// status filter.
func (s *scheduleService) ListSchedules(ctx context.Context, userID primitive.ObjectID, filter ScheduleListFilter) ([]domain.UserMealSchedule, error) {
	if userID == primitive.NilObjectID {
		return nil, errors.New("user ID is required")
	}
	if filter.Status != nil && !domain.ValidScheduleStatus(*filter.Status) {
		return nil, validationError("unknown schedule status %q", *filter.Status)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}

	return s.scheduleRepo.GetByOwnerID(ctx, userID, repository.ScheduleFilter{
		Status: filter.Status,
		Page:   page,
		Limit:  limit,
	})
}

// GetSchedule retrieves one schedule, enforcing ownership.
func (s *scheduleService) GetSchedule(ctx context.Context, userID, scheduleID primitive.ObjectID) (*domain.UserMealSchedule, error) {
	return s.owned(ctx, userID, scheduleID)
}

// UpdateSchedule edits schedule-level metadata (title, notes, status, target
// weight).
func (s *scheduleService) UpdateSchedule(ctx context.Context, userID, scheduleID primitive.ObjectID, input UpdateScheduleInput) (*domain.UserMealSchedule, error) {
	if input.Title == nil && input.Notes == nil && input.Status == nil && input.TargetWeight == nil {
		return nil, validationError("update requires at least one field")
	}
	if input.Status != nil && !domain.ValidScheduleStatus(*input.Status) {
		return nil, validationError("unknown schedule status %q", *input.Status)
	}

	schedule, err := s.owned(ctx, userID, scheduleID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		schedule.Title = *input.Title
	}
	if input.Notes != nil {
		schedule.Notes = *input.Notes
	}
	if input.Status != nil {
		schedule.Status = *input.Status
	}
	if input.TargetWeight != nil {
		schedule.TargetWeight = input.TargetWeight
	}

	if err := s.scheduleRepo.UpdateMetadata(ctx, schedule); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	return schedule, nil
}

// validateReminder checks one reminder configuration.
func validateReminder(reminder domain.Reminder) error {
	if !domain.ValidReminderTime(reminder.Time) {
		return validationError("reminder time %q must be HH:MM", reminder.Time)
	}
	if !domain.ValidReminderChannel(reminder.Channel) {
		return validationError("unknown reminder channel %q", reminder.Channel)
	}
	return nil
}

// UpdateReminders replaces the reminder list wholesale after validating every
// entry.
func (s *scheduleService) UpdateReminders(ctx context.Context, userID, scheduleID primitive.ObjectID, reminders []domain.Reminder) (*domain.UserMealSchedule, error) {
	for _, reminder := range reminders {
		if err := validateReminder(reminder); err != nil {
			return nil, err
		}
	}

	schedule, err := s.owned(ctx, userID, scheduleID)
	if err != nil {
		return nil, err
	}

	if err := s.scheduleRepo.ReplaceReminders(ctx, scheduleID, reminders); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	schedule.Reminders = reminders
	return schedule, nil
}
