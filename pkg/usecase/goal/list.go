package goal

import (
	"context"

	"github.com/m-mizutani/euonia/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// NormalizeDays clamps a requested window to [0, MaxWindowDays]
func NormalizeDays(days int) int {
	if days < 0 {
		return 0
	}
	if days > MaxWindowDays {
		return MaxWindowDays
	}
	return days
}

// ListByWindow returns goals whose day bucket is within [today-days, today+days).
// The bucket of "today" is recomputed on every call, so results drift as time passes.
func (u *UseCase) ListByWindow(ctx context.Context, uid model.UserID, days int) ([]*model.Goal, error) {
	days = NormalizeDays(days)
	today := model.DayOf(u.now())

	goals, err := u.repo.ListGoalsByDay(ctx, uid, today-days, today+days)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list goals by window", goerr.V("days", days))
	}
	return goals, nil
}

// ListAll returns every goal of uid, most recent first
func (u *UseCase) ListAll(ctx context.Context, uid model.UserID) ([]*model.Goal, error) {
	goals, err := u.repo.ListGoals(ctx, uid)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list goals")
	}
	return goals, nil
}
