package goal

import (
	"context"

	"github.com/m-mizutani/euonia/pkg/model"
)

// Resolve permanently deletes a goal owned by uid. There is no undo.
func (u *UseCase) Resolve(ctx context.Context, id model.GoalID, uid model.UserID) error {
	return u.repo.DeleteGoal(ctx, id, uid)
}
