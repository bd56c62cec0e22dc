package goal_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/euonia/pkg/model"
	"github.com/m-mizutani/euonia/pkg/repository"
	"github.com/m-mizutani/euonia/pkg/tool/goal"
	goaluc "github.com/m-mizutani/euonia/pkg/usecase/goal"
	"github.com/m-mizutani/gt"
)

func setup(t *testing.T) (*goal.Tool, *repository.Memory) {
	repo := repository.NewMemory()
	now := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	uc := goaluc.New(repo, goaluc.WithClock(func() time.Time { return now }))

	tl, err := goal.New(uc)
	gt.NoError(t, err)
	return tl, repo
}

func TestSpec(t *testing.T) {
	tl, _ := setup(t)

	spec := tl.Spec()
	gt.A(t, spec.FunctionDeclarations).Length(4)

	byName := map[string]bool{}
	for _, fd := range spec.FunctionDeclarations {
		byName[fd.Name] = true
		gt.NotEqual(t, fd.Description, "")
		gt.NotNil(t, fd.Parameters)
	}
	gt.True(t, byName["get_goals"])
	gt.True(t, byName["set_goal"])
	gt.True(t, byName["update_goal"])
	gt.True(t, byName["resolve_goal"])

	setGoal := spec.FunctionDeclarations[1]
	gt.Equal(t, setGoal.Name, "set_goal")
	gt.Map(t, setGoal.Parameters.Properties).HasKey("priority")
	gt.A(t, setGoal.Parameters.Properties["priority"].Enum).Length(5)
	gt.Equal(t, setGoal.Parameters.Required, []string{"name", "deadline", "priority", "description"})

	// Date-only deadlines are valid, so no date-time format is advertised
	for _, fd := range spec.FunctionDeclarations {
		if deadline, ok := fd.Parameters.Properties["deadline"]; ok {
			gt.Equal(t, deadline.Format, "")
		}
	}
}

func TestExecuteLifecycle(t *testing.T) {
	ctx := context.Background()
	tl, repo := setup(t)

	out, err := tl.Execute(ctx, "user-a", "get_goals", map[string]any{"days": 7.0})
	gt.NoError(t, err)
	gt.Equal(t, out, "No goals found for the specified period.")

	out, err = tl.Execute(ctx, "user-a", "set_goal", map[string]any{
		"name":        "Stretch before bed",
		"deadline":    "2025-06-10",
		"priority":    "NORMAL",
		"description": "",
	})
	gt.NoError(t, err)
	gt.S(t, out).Contains("Goal 'Stretch before bed' has been successfully set.")

	goals, err := repo.ListGoals(ctx, "user-a")
	gt.NoError(t, err)
	gt.A(t, goals).Length(1)
	id := string(goals[0].ID)
	gt.S(t, out).Contains(id)

	out, err = tl.Execute(ctx, "user-a", "get_goals", map[string]any{"days": "not a number"})
	gt.NoError(t, err)
	gt.S(t, out).Contains("Found 1 goal(s)")
	gt.S(t, out).Contains("Stretch before bed")

	out, err = tl.Execute(ctx, "user-a", "update_goal", map[string]any{"id": id, "priority": "URGENT"})
	gt.NoError(t, err)
	gt.S(t, out).Contains("has been successfully updated")

	goals, err = repo.ListGoals(ctx, "user-a")
	gt.NoError(t, err)
	gt.Equal(t, goals[0].Priority, model.PriorityUrgent)
	gt.Equal(t, goals[0].Name, "Stretch before bed")

	out, err = tl.Execute(ctx, "user-a", "resolve_goal", map[string]any{"id": id})
	gt.NoError(t, err)
	gt.Equal(t, out, "Goal "+id+" has been successfully resolved.")

	goals, err = repo.ListGoals(ctx, "user-a")
	gt.NoError(t, err)
	gt.A(t, goals).Length(0)
}

func TestExecuteRecoverableFailures(t *testing.T) {
	ctx := context.Background()
	tl, repo := setup(t)

	_, err := tl.Execute(ctx, "owner", "set_goal", map[string]any{"name": "Mine", "deadline": "2025-06-10", "priority": "NORMAL"})
	gt.NoError(t, err)
	goals, err := repo.ListGoals(ctx, "owner")
	gt.NoError(t, err)
	id := string(goals[0].ID)

	testCases := []struct {
		name     string
		tool     string
		args     map[string]any
		expected string
	}{
		{"resolve other user's goal", "resolve_goal", map[string]any{"id": id}, "Failed to resolve goal: Goal not found or unauthorized."},
		{"update other user's goal", "update_goal", map[string]any{"id": id, "name": "x"}, "Failed to update goal: Goal not found or unauthorized."},
		{"resolve missing goal", "resolve_goal", map[string]any{"id": "missing"}, "Failed to resolve goal: Goal not found or unauthorized."},
		{"resolve without id", "resolve_goal", map[string]any{}, "Failed to resolve goal: id is required."},
		{"update without id", "update_goal", map[string]any{"name": "x"}, "Failed to update goal: id is required."},
		{"set without name", "set_goal", map[string]any{"deadline": "2025-06-10", "priority": "NORMAL"}, "Failed to set goal: name is required."},
		{"set with bad deadline", "set_goal", map[string]any{"name": "x", "deadline": "soon", "priority": "NORMAL"}, "Failed to set goal: deadline must be an ISO 8601 date or date-time."},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := tl.Execute(ctx, "intruder", tc.tool, tc.args)
			gt.NoError(t, err)
			gt.Equal(t, out, tc.expected)
		})
	}

	goals, err = repo.ListGoals(ctx, "owner")
	gt.NoError(t, err)
	gt.A(t, goals).Length(1)
	gt.Equal(t, goals[0].Name, "Mine")
}

func TestExecuteUpdateInvalidPriority(t *testing.T) {
	ctx := context.Background()
	tl, repo := setup(t)

	_, err := tl.Execute(ctx, "owner", "set_goal", map[string]any{"name": "Mine", "deadline": "2025-06-10", "priority": "NORMAL"})
	gt.NoError(t, err)
	goals, err := repo.ListGoals(ctx, "owner")
	gt.NoError(t, err)

	out, err := tl.Execute(ctx, "owner", "update_goal", map[string]any{"id": string(goals[0].ID), "priority": "SOMEDAY"})
	gt.NoError(t, err)
	gt.S(t, out).Contains("Failed to update goal: priority must be one of URGENT")
}

func TestExecuteUnknownIsNoop(t *testing.T) {
	tl, repo := setup(t)

	out, err := tl.Execute(context.Background(), "user-a", "launch_rocket", map[string]any{})
	gt.NoError(t, err)
	gt.Equal(t, out, "")

	goals, err := repo.ListGoals(context.Background(), "user-a")
	gt.NoError(t, err)
	gt.A(t, goals).Length(0)
}

func TestFormatGoals(t *testing.T) {
	gt.Equal(t, goal.FormatGoals(nil), "No goals found for the specified period.")

	out := goal.FormatGoals([]*model.Goal{
		{ID: "g1", Name: "Walk", Priority: model.PriorityNormal, Deadline: "2025-06-10", Description: "outside"},
	})
	gt.S(t, out).Contains("Found 1 goal(s)")
	gt.S(t, out).Contains("ID: g1")
	gt.S(t, out).Contains("Description: outside")
}
