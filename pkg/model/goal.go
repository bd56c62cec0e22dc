package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

var (
	// ErrGoalNotFound is returned when a goal does not exist or belongs to another user.
	// Both cases are reported identically so callers cannot probe other users' goals.
	ErrGoalNotFound = goerr.New("goal not found or unauthorized")

	ErrInvalidPriority = goerr.New("invalid priority")
)

type GoalID string

// NewGoalID generates a new unique GoalID
func NewGoalID() GoalID {
	return GoalID(uuid.New().String())
}

type UserID string

type Priority string

const (
	PriorityUrgent      Priority = "URGENT"
	PriorityImportant   Priority = "IMPORTANT"
	PriorityNormal      Priority = "NORMAL"
	PriorityOptional    Priority = "OPTIONAL"
	PriorityUnimportant Priority = "UNIMPORTANT"
)

// Priorities lists every valid priority from most to least pressing
var Priorities = []Priority{
	PriorityUrgent,
	PriorityImportant,
	PriorityNormal,
	PriorityOptional,
	PriorityUnimportant,
}

// Validate checks if the priority is valid
func (p Priority) Validate() error {
	switch p {
	case PriorityUrgent, PriorityImportant, PriorityNormal, PriorityOptional, PriorityUnimportant:
		return nil
	default:
		return goerr.Wrap(ErrInvalidPriority, "unknown priority", goerr.V("priority", p))
	}
}

// DayEpoch is the fixed reference date for Goal.Day buckets.
var DayEpoch = time.Date(2023, time.June, 24, 0, 0, 0, 0, time.UTC)

// DayOf returns the number of whole days between DayEpoch and t.
func DayOf(t time.Time) int {
	d := t.Sub(DayEpoch)
	days := int(d / (24 * time.Hour))
	if d < 0 && d%(24*time.Hour) != 0 {
		days--
	}
	return days
}

// Goal is a user-owned behavioral commitment tracked outside the transcript.
type Goal struct {
	ID          GoalID     `json:"id"`
	UID         UserID     `json:"uid"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	Deadline    string     `json:"deadline"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`

	// Day is derived from CreatedAt once and never recomputed.
	Day int `json:"day"`
}

// GoalUpdate holds the fields to overwrite on a goal. Nil fields are left untouched.
type GoalUpdate struct {
	Name        *string
	Description *string
	Priority    *Priority
	Deadline    *string
	UpdatedAt   time.Time
}

// Apply merges the update into goal
func (u *GoalUpdate) Apply(goal *Goal) {
	if u.Name != nil {
		goal.Name = *u.Name
	}
	if u.Description != nil {
		goal.Description = *u.Description
	}
	if u.Priority != nil {
		goal.Priority = *u.Priority
	}
	if u.Deadline != nil {
		goal.Deadline = *u.Deadline
	}
	updatedAt := u.UpdatedAt
	goal.UpdatedAt = &updatedAt
}
