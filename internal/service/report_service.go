package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"nutriplan/nutrition-app/internal/domain"
	"nutriplan/nutrition-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DayNutritionSummary is the derived nutrition roll-up of one day. It is
// computed on demand from the day's meal items and never stored.
type DayNutritionSummary struct {
	Date             time.Time             `json:"date"`
	Totals           domain.NutrientVector `json:"totals"`
	CompletedCount   int                   `json:"completed_count"`
	SkippedCount     int                   `json:"skipped_count"`
	PendingCount     int                   `json:"pending_count"`
	OfTargetCalories int                   `json:"of_target_calories,omitempty"`
}

// OverviewStats summarizes a whole schedule.
type OverviewStats struct {
	ScheduleID       primitive.ObjectID `json:"schedule_id"`
	StartDate        time.Time          `json:"start_date"`
	TotalItems       int                `json:"total_items"`
	CompletedCount   int                `json:"completed_count"`
	SkippedCount     int                `json:"skipped_count"`
	PendingCount     int                `json:"pending_count"`
	AdherencePercent int                `json:"adherence_percent"`
	CurrentStreak    int                `json:"current_streak_days"`
}

// DayProgress is one point of a progress report series.
type DayProgress struct {
	Date             time.Time             `json:"date"`
	Totals           domain.NutrientVector `json:"totals"`
	CompletedCount   int                   `json:"completed_count"`
	SkippedCount     int                   `json:"skipped_count"`
	PendingCount     int                   `json:"pending_count"`
	AdherencePercent int                   `json:"adherence_percent"`
}

// --- Service Interface ---
//
// ReportService recomputes every statistic from the current item set on each
// call. There are no cached counters: item states change retroactively (a
// late "complete"), so derived numbers must always be derived.
type ReportService interface {
	DayNutrition(ctx context.Context, userID, scheduleID primitive.ObjectID, date time.Time) (*DayNutritionSummary, error)
	OverviewStats(ctx context.Context, userID, scheduleID primitive.ObjectID) (*OverviewStats, error)
	ProgressReport(ctx context.Context, userID, scheduleID primitive.ObjectID, from, to time.Time) ([]DayProgress, error)
}

// --- Service Implementation ---

// reportService implements the ReportService interface.
type reportService struct {
	scheduleRepo repository.ScheduleRepository
	itemRepo     repository.MealItemRepository
	templateRepo repository.TemplateRepository
}

// NewReportService creates a new instance of reportService.
func NewReportService(
	scheduleRepo repository.ScheduleRepository,
	itemRepo repository.MealItemRepository,
	templateRepo repository.TemplateRepository,
) ReportService {
	return &reportService{
		scheduleRepo: scheduleRepo,
		itemRepo:     itemRepo,
		templateRepo: templateRepo,
	}
}

func (s *reportService) ownedSchedule(ctx context.Context, userID, scheduleID primitive.ObjectID) (*domain.UserMealSchedule, error) {
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

// dayCounts tallies one day's items. Only completed items contribute
// nutrition; skipped and pending items are counted but excluded from totals.
func dayCounts(items []domain.MealItem) (totals domain.NutrientVector, completed, skipped, pending int) {
	for _, item := range items {
		switch item.State {
		case domain.ItemCompleted:
			totals = totals.Add(item.ConsumedNutrition())
			completed++
		case domain.ItemSkipped:
			skipped++
		default:
			pending++
		}
	}
	return totals, completed, skipped, pending
}

// adherencePercent is completed out of all items, as a whole percentage.
func adherencePercent(completed, skipped, pending int) int {
	total := completed + skipped + pending
	if total == 0 {
		return 0
	}
	return domain.PercentOf(float64(completed), float64(total))
}

// DayNutrition sums consumed nutrition over one day's completed items.
func (s *reportService) DayNutrition(ctx context.Context, userID, scheduleID primitive.ObjectID, date time.Time) (*DayNutritionSummary, error) {
	schedule, err := s.ownedSchedule(ctx, userID, scheduleID)
	if err != nil {
		return nil, err
	}

	items, err := s.itemRepo.GetByScheduleAndDate(ctx, scheduleID, date)
	if err != nil {
		return nil, err
	}

	totals, completed, skipped, pending := dayCounts(items)
	summary := &DayNutritionSummary{
		Date:           domain.DateOnly(date),
		Totals:         totals.Rounded(),
		CompletedCount: completed,
		SkippedCount:   skipped,
		PendingCount:   pending,
	}

	// Percentage of the source template's daily calorie target, when the
	// template still exists and declares one.
	if template, err := s.templateRepo.GetByID(ctx, schedule.SourceTemplateID); err == nil && template.TargetCalories > 0 {
		summary.OfTargetCalories = domain.PercentOf(totals.Calories, template.TargetCalories)
	}

	return summary, nil
}

// groupByDate buckets items per calendar day and returns the sorted day keys.
func groupByDate(items []domain.MealItem) (map[time.Time][]domain.MealItem, []time.Time) {
	byDate := make(map[time.Time][]domain.MealItem)
	for _, item := range items {
		day := domain.DateOnly(item.Date)
		byDate[day] = append(byDate[day], item)
	}
	days := make([]time.Time, 0, len(byDate))
	for day := range byDate {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return byDate, days
}

// OverviewStats computes adherence and the current completion streak over the
// whole schedule.
func (s *reportService) OverviewStats(ctx context.Context, userID, scheduleID primitive.ObjectID) (*OverviewStats, error) {
	schedule, err := s.ownedSchedule(ctx, userID, scheduleID)
	if err != nil {
		return nil, err
	}

	items, err := s.itemRepo.GetByScheduleID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	_, completed, skipped, pending := dayCounts(items)

	stats := &OverviewStats{
		ScheduleID:       scheduleID,
		StartDate:        schedule.StartDate,
		TotalItems:       completed + skipped + pending,
		CompletedCount:   completed,
		SkippedCount:     skipped,
		PendingCount:     pending,
		AdherencePercent: adherencePercent(completed, skipped, pending),
	}

	// Current streak: walk days most recent first. Days still in flight
	// (pending items, nothing skipped) have not been lost yet, so they are
	// passed over; counting starts at the latest settled day and runs while
	// every item of the day is completed.
	byDate, days := groupByDate(items)
	i := len(days) - 1
	for i >= 0 {
		_, _, ds, dp := dayCounts(byDate[days[i]])
		if dp > 0 && ds == 0 {
			i--
			continue
		}
		break
	}
	for ; i >= 0; i-- {
		_, dc, ds, dp := dayCounts(byDate[days[i]])
		if dp == 0 && ds == 0 && dc > 0 {
			stats.CurrentStreak++
			continue
		}
		break
	}

	return stats, nil
}

// ProgressReport produces a day-indexed series over [from, to] for charting.
// A zero from defaults to the schedule start; a zero to imposes no upper
// bound.
func (s *reportService) ProgressReport(ctx context.Context, userID, scheduleID primitive.ObjectID, from, to time.Time) ([]DayProgress, error) {
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, validationError("date range end precedes start")
	}

	schedule, err := s.ownedSchedule(ctx, userID, scheduleID)
	if err != nil {
		return nil, err
	}
	if from.IsZero() {
		from = schedule.StartDate
	}

	lo := domain.DateOnly(from)
	var items []domain.MealItem
	if to.IsZero() {
		// No upper bound: take everything and drop days before the start.
		items, err = s.itemRepo.GetByScheduleID(ctx, scheduleID)
		if err != nil {
			return nil, err
		}
		inRange := items[:0:0]
		for _, item := range items {
			if !item.Date.Before(lo) {
				inRange = append(inRange, item)
			}
		}
		items = inRange
	} else {
		items, err = s.itemRepo.GetByScheduleAndDateRange(ctx, scheduleID, lo, to)
		if err != nil {
			return nil, err
		}
	}

	byDate, days := groupByDate(items)
	report := make([]DayProgress, 0, len(days))
	for _, day := range days {
		totals, completed, skipped, pending := dayCounts(byDate[day])
		report = append(report, DayProgress{
			Date:             day,
			Totals:           totals.Rounded(),
			CompletedCount:   completed,
			SkippedCount:     skipped,
			PendingCount:     pending,
			AdherencePercent: adherencePercent(completed, skipped, pending),
		})
	}
	return report, nil
}
