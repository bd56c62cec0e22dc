package goal

import (
	"context"

	"github.com/m-mizutani/euonia/pkg/model"
)

// UpdateInput holds the fields to change. Nil or empty fields keep their current value.
type UpdateInput struct {
	Name        *string
	Description *string
	Priority    *model.Priority
	Deadline    *string
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

// Update overwrites the provided fields of a goal owned by uid and stamps updatedAt.
// Returns model.ErrGoalNotFound if the goal is missing or owned by someone else.
func (u *UseCase) Update(ctx context.Context, id model.GoalID, uid model.UserID, input UpdateInput) (*model.Goal, error) {
	update := &model.GoalUpdate{
		Name:        nonEmpty(input.Name),
		Description: nonEmpty(input.Description),
		Deadline:    nonEmpty(input.Deadline),
		UpdatedAt:   u.now(),
	}

	if input.Priority != nil && *input.Priority != "" {
		if err := input.Priority.Validate(); err != nil {
			return nil, err
		}
		update.Priority = input.Priority
	}
	if update.Deadline != nil {
		if err := ValidateDeadline(*update.Deadline); err != nil {
			return nil, err
		}
	}

	return u.repo.UpdateGoal(ctx, id, uid, update)
}
