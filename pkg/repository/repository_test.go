package repository_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/euonia/pkg/model"
	"github.com/m-mizutani/euonia/pkg/repository"
	"github.com/m-mizutani/gt"
)

func setupFirestore(t *testing.T) *repository.Firestore {
	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")

	if projectID == "" || databaseID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID and TEST_FIRESTORE_DATABASE_ID must be set to run Firestore tests")
	}

	repo, err := repository.New(context.Background(), projectID, databaseID)
	gt.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	return repo
}

func TestMemory(t *testing.T) {
	testRepository(t, func(t *testing.T) repository.Repository {
		return repository.NewMemory()
	})
}

func TestFirestore(t *testing.T) {
	testRepository(t, func(t *testing.T) repository.Repository {
		return setupFirestore(t)
	})
}

// newUser returns a unique uid so that tests against a shared database do not collide
func newUser() model.UserID {
	return model.UserID("test-user-" + string(model.NewGoalID()))
}

func newGoal(uid model.UserID, name string, createdAt time.Time) *model.Goal {
	return &model.Goal{
		ID:        model.NewGoalID(),
		UID:       uid,
		Name:      name,
		Priority:  model.PriorityNormal,
		Deadline:  "2025-06-10",
		CreatedAt: createdAt,
		Day:       model.DayOf(createdAt),
	}
}

func testRepository(t *testing.T, newRepo func(t *testing.T) repository.Repository) {
	ctx := context.Background()
	now := time.Now().Truncate(time.Millisecond)

	t.Run("list goals ordered by createdAt desc", func(t *testing.T) {
		repo := newRepo(t)
		uid := newUser()

		g1 := newGoal(uid, "first", now.Add(-2*time.Hour))
		g2 := newGoal(uid, "second", now.Add(-1*time.Hour))
		g3 := newGoal(uid, "third", now)
		for _, g := range []*model.Goal{g2, g1, g3} {
			gt.NoError(t, repo.PutGoal(ctx, g))
		}
		gt.NoError(t, repo.PutGoal(ctx, newGoal(newUser(), "other user", now)))

		goals, err := repo.ListGoals(ctx, uid)
		gt.NoError(t, err)
		gt.A(t, goals).Length(3)
		gt.Equal(t, goals[0].Name, "third")
		gt.Equal(t, goals[1].Name, "second")
		gt.Equal(t, goals[2].Name, "first")
		gt.True(t, goals[0].CreatedAt.Equal(g3.CreatedAt))
	})

	t.Run("list goals for user without goals is empty", func(t *testing.T) {
		repo := newRepo(t)
		goals, err := repo.ListGoals(ctx, newUser())
		gt.NoError(t, err)
		gt.True(t, goals != nil)
		gt.A(t, goals).Length(0)
	})

	t.Run("list goals by day is half-open", func(t *testing.T) {
		repo := newRepo(t)
		uid := newUser()
		base := model.DayOf(now)

		for _, offset := range []int{-10, -3, 0, 3, 10} {
			g := newGoal(uid, "goal", now)
			g.Day = base + offset
			gt.NoError(t, repo.PutGoal(ctx, g))
		}

		goals, err := repo.ListGoalsByDay(ctx, uid, base-3, base+3)
		gt.NoError(t, err)
		gt.A(t, goals).Length(2)
		for _, g := range goals {
			gt.True(t, g.Day >= base-3 && g.Day < base+3)
		}
	})

	t.Run("update goal merges fields", func(t *testing.T) {
		repo := newRepo(t)
		uid := newUser()
		g := newGoal(uid, "walk", now)
		g.Description = "20 minutes"
		gt.NoError(t, repo.PutGoal(ctx, g))

		urgent := model.PriorityUrgent
		updatedAt := now.Add(time.Minute)
		updated, err := repo.UpdateGoal(ctx, g.ID, uid, &model.GoalUpdate{
			Priority:  &urgent,
			UpdatedAt: updatedAt,
		})
		gt.NoError(t, err)
		gt.Equal(t, updated.Priority, model.PriorityUrgent)
		gt.Equal(t, updated.Name, "walk")

		goals, err := repo.ListGoals(ctx, uid)
		gt.NoError(t, err)
		gt.A(t, goals).Length(1)
		gt.Equal(t, goals[0].Priority, model.PriorityUrgent)
		gt.Equal(t, goals[0].Description, "20 minutes")
		gt.Equal(t, goals[0].Deadline, "2025-06-10")
		gt.NotNil(t, goals[0].UpdatedAt)
		gt.True(t, goals[0].UpdatedAt.Equal(updatedAt))
	})

	t.Run("update and delete reject other users", func(t *testing.T) {
		repo := newRepo(t)
		owner := newUser()
		g := newGoal(owner, "private", now)
		gt.NoError(t, repo.PutGoal(ctx, g))

		name := "hijacked"
		for range 3 {
			_, err := repo.UpdateGoal(ctx, g.ID, newUser(), &model.GoalUpdate{Name: &name, UpdatedAt: now})
			gt.True(t, errors.Is(err, model.ErrGoalNotFound))

			err = repo.DeleteGoal(ctx, g.ID, newUser())
			gt.True(t, errors.Is(err, model.ErrGoalNotFound))
		}

		goals, err := repo.ListGoals(ctx, owner)
		gt.NoError(t, err)
		gt.A(t, goals).Length(1)
		gt.Equal(t, goals[0].Name, "private")
		gt.Nil(t, goals[0].UpdatedAt)
	})

	t.Run("update and delete missing goal", func(t *testing.T) {
		repo := newRepo(t)
		uid := newUser()
		name := "x"

		_, err := repo.UpdateGoal(ctx, model.NewGoalID(), uid, &model.GoalUpdate{Name: &name, UpdatedAt: now})
		gt.True(t, errors.Is(err, model.ErrGoalNotFound))
		gt.True(t, errors.Is(repo.DeleteGoal(ctx, model.NewGoalID(), uid), model.ErrGoalNotFound))
	})

	t.Run("delete goal", func(t *testing.T) {
		repo := newRepo(t)
		uid := newUser()
		g := newGoal(uid, "done", now)
		gt.NoError(t, repo.PutGoal(ctx, g))

		gt.NoError(t, repo.DeleteGoal(ctx, g.ID, uid))
		goals, err := repo.ListGoals(ctx, uid)
		gt.NoError(t, err)
		gt.A(t, goals).Length(0)
	})

	t.Run("chat round trip", func(t *testing.T) {
		repo := newRepo(t)
		chat := &model.Chat{
			ID:        model.NewChatID(),
			UserID:    newUser(),
			Name:      "journal",
			CreatedAt: now,
		}
		gt.NoError(t, repo.PutChat(ctx, chat))

		got, err := repo.GetChat(ctx, chat.ID)
		gt.NoError(t, err)
		gt.Equal(t, got.ID, chat.ID)
		gt.Equal(t, got.UserID, chat.UserID)
		gt.A(t, got.Interactions).Length(0)

		interactions := []*model.Message{
			{Role: model.RoleUser, Content: "hello"},
			{
				Role: model.RoleAssistant,
				ToolCalls: []model.ToolCall{
					{ID: "call_1", Type: "function", Function: model.FunctionCall{Name: "get_goals", Arguments: `{"days":7}`}},
				},
			},
			{Role: model.RoleTool, ToolCallID: "call_1", Name: "get_goals", Content: "No goals found for the specified period."},
			{Role: model.RoleAssistant, Content: "hi"},
		}
		gt.NoError(t, repo.PutInteractions(ctx, chat.ID, interactions))
		gt.NoError(t, repo.PutInteractions(ctx, chat.ID, interactions))

		got, err = repo.GetChat(ctx, chat.ID)
		gt.NoError(t, err)
		gt.A(t, got.Interactions).Length(4)
		gt.Equal(t, got.Interactions[1].ToolCalls[0].ID, "call_1")
		gt.Equal(t, got.Interactions[2].ToolCallID, "call_1")
		gt.Equal(t, got.Interactions[3].Content, "hi")
	})

	t.Run("missing chat", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.GetChat(ctx, model.NewChatID())
		gt.True(t, errors.Is(err, model.ErrChatNotFound))

		err = repo.PutInteractions(ctx, model.NewChatID(), nil)
		gt.True(t, errors.Is(err, model.ErrChatNotFound))
	})
}
