package domain

import (
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScheduleStatus type for the schedule lifecycle.
type ScheduleStatus string

const (
	ScheduleActive    ScheduleStatus = "active"
	ScheduleCompleted ScheduleStatus = "completed"
	ScheduleAbandoned ScheduleStatus = "abandoned"
)

// ValidScheduleStatus reports whether s is one of the recognized statuses.
func ValidScheduleStatus(s ScheduleStatus) bool {
	switch s {
	case ScheduleActive, ScheduleCompleted, ScheduleAbandoned:
		return true
	}
	return false
}

// ReminderChannel identifies how a reminder is delivered. Delivery itself is
// handled by an external notifier; the engine only stores the configuration.
type ReminderChannel string

const (
	ChannelPush  ReminderChannel = "push"
	ChannelEmail ReminderChannel = "email"
	ChannelSMS   ReminderChannel = "sms"
)

// ValidReminderChannel reports whether ch is a recognized channel.
func ValidReminderChannel(ch ReminderChannel) bool {
	switch ch {
	case ChannelPush, ChannelEmail, ChannelSMS:
		return true
	}
	return false
}

var reminderTimeRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ValidReminderTime reports whether t is a well-formed "HH:MM" clock time.
func ValidReminderTime(t string) bool {
	return reminderTimeRe.MatchString(t)
}

// Reminder is one reminder configuration attached to a schedule.
type Reminder struct {
	Time    string          `bson:"time" json:"time"` // "HH:MM"
	Channel ReminderChannel `bson:"channel" json:"channel"`
	Enabled bool            `bson:"enabled" json:"enabled"`
}

// UserMealSchedule is one user's personalized, mutable instantiation of a
// MealPlanTemplate, anchored to a start date. A schedule is exclusively owned
// by the user who applied the template and is never shared.
type UserMealSchedule struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerUserID      primitive.ObjectID `bson:"ownerUserId" json:"ownerUserId"`
	SourceTemplateID primitive.ObjectID `bson:"sourceTemplateId" json:"sourceTemplateId"`
	Title            string             `bson:"title" json:"title"`
	StartDate        time.Time          `bson:"startDate" json:"startDate"` // UTC midnight
	Status           ScheduleStatus     `bson:"status" json:"status"`
	TargetWeight     *float64           `bson:"targetWeight,omitempty" json:"targetWeight,omitempty"`
	Notes            string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Reminders        []Reminder         `bson:"reminders,omitempty" json:"reminders,omitempty"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}
