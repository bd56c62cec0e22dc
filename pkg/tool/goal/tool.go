package goal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m-mizutani/euonia/pkg/model"
	"github.com/m-mizutani/euonia/pkg/tool"
	goaluc "github.com/m-mizutani/euonia/pkg/usecase/goal"
	"github.com/m-mizutani/euonia/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// Tool serves get_goals, set_goal, update_goal and resolve_goal
type Tool struct {
	goals *goaluc.UseCase
	spec  *genai.Tool
}

var _ tool.Tool = (*Tool)(nil)

// New creates the goal tool set backed by the goal use case
func New(goals *goaluc.UseCase) (*Tool, error) {
	decls, err := Declarations()
	if err != nil {
		return nil, err
	}

	return &Tool{
		goals: goals,
		spec:  &genai.Tool{FunctionDeclarations: decls},
	}, nil
}

// Spec returns the tool specification for Gemini function calling
func (t *Tool) Spec() *genai.Tool {
	return t.spec
}

// Execute decodes and dispatches a function call on behalf of uid
func (t *Tool) Execute(ctx context.Context, uid model.UserID, name string, args map[string]any) (string, error) {
	call := Decode(name, args)
	logging.From(ctx).Debug("dispatching goal tool", "name", name, "call", call)
	return t.Dispatch(ctx, uid, call)
}

// Dispatch runs a decoded call and renders its observation
func (t *Tool) Dispatch(ctx context.Context, uid model.UserID, call Call) (string, error) {
	switch c := call.(type) {
	case GetGoals:
		goals, err := t.goals.ListByWindow(ctx, uid, c.Days)
		if err != nil {
			return "", goerr.Wrap(err, "failed to get goals")
		}
		return FormatGoals(goals), nil

	case SetGoal:
		g, err := t.goals.Create(ctx, uid, goaluc.CreateInput{
			Name:        c.Name,
			Priority:    c.Priority,
			Description: c.Description,
			Deadline:    c.Deadline,
		})
		if reason, ok := failureReason(err); ok {
			return fmt.Sprintf("Failed to set goal: %s.", reason), nil
		}
		if err != nil {
			return "", goerr.Wrap(err, "failed to set goal")
		}
		return fmt.Sprintf("Goal '%s' has been successfully set. Its ID is %s.", g.Name, g.ID), nil

	case UpdateGoal:
		if c.ID == "" {
			return "Failed to update goal: id is required.", nil
		}
		g, err := t.goals.Update(ctx, c.ID, uid, goaluc.UpdateInput{
			Name:        c.Name,
			Description: c.Description,
			Priority:    c.Priority,
			Deadline:    c.Deadline,
		})
		if reason, ok := failureReason(err); ok {
			return fmt.Sprintf("Failed to update goal: %s.", reason), nil
		}
		if err != nil {
			return "", goerr.Wrap(err, "failed to update goal")
		}
		return fmt.Sprintf("Goal %s has been successfully updated. %s", g.ID, describeGoal(g)), nil

	case ResolveGoal:
		if c.ID == "" {
			return "Failed to resolve goal: id is required.", nil
		}
		err := t.goals.Resolve(ctx, c.ID, uid)
		if reason, ok := failureReason(err); ok {
			return fmt.Sprintf("Failed to resolve goal: %s.", reason), nil
		}
		if err != nil {
			return "", goerr.Wrap(err, "failed to resolve goal")
		}
		return fmt.Sprintf("Goal %s has been successfully resolved.", c.ID), nil

	default:
		return "", nil
	}
}

// failureReason maps recoverable errors to text for the model
func failureReason(err error) (string, bool) {
	switch {
	case err == nil:
		return "", false
	case errors.Is(err, model.ErrGoalNotFound):
		return "Goal not found or unauthorized", true
	case errors.Is(err, goaluc.ErrNameRequired):
		return "name is required", true
	case errors.Is(err, goaluc.ErrInvalidDeadline):
		return "deadline must be an ISO 8601 date or date-time", true
	case errors.Is(err, model.ErrInvalidPriority):
		return "priority must be one of " + priorityList(), true
	default:
		return "", false
	}
}

func priorityList() string {
	names := make([]string, len(model.Priorities))
	for i, p := range model.Priorities {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

func describeGoal(g *model.Goal) string {
	s := fmt.Sprintf("Name: %s, Priority: %s, Deadline: %s", g.Name, g.Priority, g.Deadline)
	if g.Description != "" {
		s += ", Description: " + g.Description
	}
	return s
}

// FormatGoals renders a goal listing as a human-readable string
func FormatGoals(goals []*model.Goal) string {
	if len(goals) == 0 {
		return "No goals found for the specified period."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d goal(s):\n", len(goals))
	for i, g := range goals {
		fmt.Fprintf(&b, "%d. ID: %s\n", i+1, g.ID)
		fmt.Fprintf(&b, "   Name: %s\n", g.Name)
		fmt.Fprintf(&b, "   Priority: %s\n", g.Priority)
		fmt.Fprintf(&b, "   Deadline: %s\n", g.Deadline)
		fmt.Fprintf(&b, "   Created: %s\n", g.CreatedAt.Format("2006-01-02 15:04:05"))
		if g.Description != "" {
			fmt.Fprintf(&b, "   Description: %s\n", g.Description)
		}
	}
	return b.String()
}
