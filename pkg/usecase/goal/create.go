package goal

import (
	"context"
	"strings"
	"time"

	"github.com/m-mizutani/euonia/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrNameRequired    = goerr.New("name is required")
	ErrInvalidDeadline = goerr.New("deadline must be an ISO 8601 date or date-time")
)

// CreateInput holds the fields of a new goal
type CreateInput struct {
	Name        string
	Priority    model.Priority
	Description string
	Deadline    string
}

// Validate checks the input before anything is written
func (x *CreateInput) Validate() error {
	if strings.TrimSpace(x.Name) == "" {
		return ErrNameRequired
	}
	if err := x.Priority.Validate(); err != nil {
		return err
	}
	if err := ValidateDeadline(x.Deadline); err != nil {
		return err
	}
	return nil
}

var deadlineLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.DateOnly,
}

// ValidateDeadline accepts ISO 8601 dates with or without a time part
func ValidateDeadline(deadline string) error {
	for _, layout := range deadlineLayouts {
		if _, err := time.Parse(layout, deadline); err == nil {
			return nil
		}
	}
	return goerr.Wrap(ErrInvalidDeadline, "unparsable deadline", goerr.V("deadline", deadline))
}

// Create stores a new goal for uid. Repeated calls create distinct goals.
func (u *UseCase) Create(ctx context.Context, uid model.UserID, input CreateInput) (*model.Goal, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	now := u.now()
	goal := &model.Goal{
		ID:          model.NewGoalID(),
		UID:         uid,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Priority:    input.Priority,
		Deadline:    input.Deadline,
		CreatedAt:   now,
		Day:         model.DayOf(now),
	}

	if err := u.repo.PutGoal(ctx, goal); err != nil {
		return nil, goerr.Wrap(err, "failed to create goal")
	}

	return goal, nil
}
