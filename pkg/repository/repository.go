package repository

import (
	"context"

	"github.com/m-mizutani/euonia/pkg/model"
)

// Repository defines the interface for goal and chat transcript persistence
type Repository interface {
	// PutGoal saves a goal, overwriting any goal with the same ID
	PutGoal(ctx context.Context, goal *model.Goal) error

	// ListGoalsByDay retrieves goals of uid whose Day is in [from, to)
	ListGoalsByDay(ctx context.Context, uid model.UserID, from, to int) ([]*model.Goal, error)

	// ListGoals retrieves all goals of uid ordered by CreatedAt descending
	ListGoals(ctx context.Context, uid model.UserID) ([]*model.Goal, error)

	// UpdateGoal merges update into the goal if it exists and belongs to uid.
	// Returns model.ErrGoalNotFound otherwise.
	UpdateGoal(ctx context.Context, id model.GoalID, uid model.UserID, update *model.GoalUpdate) (*model.Goal, error)

	// DeleteGoal permanently removes the goal if it exists and belongs to uid.
	// Returns model.ErrGoalNotFound otherwise.
	DeleteGoal(ctx context.Context, id model.GoalID, uid model.UserID) error

	// PutChat creates or overwrites a chat session including its interactions
	PutChat(ctx context.Context, chat *model.Chat) error

	// GetChat retrieves a chat session. Returns model.ErrChatNotFound if absent.
	GetChat(ctx context.Context, id model.ChatID) (*model.Chat, error)

	// PutInteractions overwrites the full message sequence of an existing chat
	PutInteractions(ctx context.Context, id model.ChatID, interactions []*model.Message) error
}
