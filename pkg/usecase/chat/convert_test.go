package chat

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/euonia/pkg/model"
	"github.com/m-mizutani/gt"
	"google.golang.org/genai"
)

func TestToContents(t *testing.T) {
	msgs := []*model.Message{
		{Role: model.RoleUser, Content: "hello"},
		{Role: model.RoleAssistant, Content: "let me look", ToolCalls: []model.ToolCall{
			{ID: "a", Type: "function", Function: model.FunctionCall{Name: "get_goals", Arguments: `{"days":7}`}},
			{ID: "b", Type: "function", Function: model.FunctionCall{Name: "resolve_goal", Arguments: `{"id":"g1"}`}},
		}},
		{Role: model.RoleTool, ToolCallID: "a", Name: "get_goals", Content: "No goals found for the specified period."},
		{Role: model.RoleTool, ToolCallID: "b", Content: "Goal g1 has been successfully resolved."},
		{Role: model.RoleAssistant, Content: "done"},
		{Role: model.RoleAssistant},
	}

	contents, err := toContents(msgs)
	gt.NoError(t, err)
	gt.A(t, contents).Length(4)

	gt.Equal(t, contents[0].Role, string(genai.RoleUser))
	gt.Equal(t, contents[0].Parts[0].Text, "hello")

	gt.Equal(t, contents[1].Role, string(genai.RoleModel))
	gt.A(t, contents[1].Parts).Length(3)
	gt.Equal(t, contents[1].Parts[0].Text, "let me look")
	gt.Equal(t, contents[1].Parts[1].FunctionCall.ID, "a")
	gt.Equal(t, contents[1].Parts[1].FunctionCall.Args["days"], any(float64(7)))

	gt.Equal(t, contents[2].Role, string(genai.RoleUser))
	gt.A(t, contents[2].Parts).Length(2)
	gt.Equal(t, contents[2].Parts[0].FunctionResponse.ID, "a")
	gt.Equal(t, contents[2].Parts[1].FunctionResponse.ID, "b")
	// name recovered from the originating call
	gt.Equal(t, contents[2].Parts[1].FunctionResponse.Name, "resolve_goal")
	gt.Equal(t, contents[2].Parts[1].FunctionResponse.Response["output"], any("Goal g1 has been successfully resolved."))

	gt.Equal(t, contents[3].Parts[0].Text, "done")
}

func TestToContentsBrokenArguments(t *testing.T) {
	_, err := toContents([]*model.Message{
		{Role: model.RoleAssistant, ToolCalls: []model.ToolCall{
			{ID: "a", Function: model.FunctionCall{Name: "get_goals", Arguments: `{broken`}},
		}},
	})
	gt.Error(t, err)

	_, err = toContents([]*model.Message{{Role: "system", Content: "x"}})
	gt.Error(t, err)
}

func TestFromResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{
			Role: string(genai.RoleModel),
			Parts: []*genai.Part{
				{Text: "thinking out loud", Thought: true},
				{Text: "<response>Sure.</response>"},
				{FunctionCall: &genai.FunctionCall{Name: "get_goals"}},
				{FunctionCall: &genai.FunctionCall{ID: "x", Name: "resolve_goal", Args: map[string]any{"id": "g1"}}},
			},
		}}},
	}

	msg, calls, err := fromResponse(resp)
	gt.NoError(t, err)
	gt.Equal(t, msg.Role, model.RoleAssistant)
	gt.Equal(t, msg.Content, "Sure.")
	gt.A(t, msg.ToolCalls).Length(2)
	gt.A(t, calls).Length(2)

	gt.True(t, strings.HasPrefix(calls[0].ID, "call_"))
	gt.Equal(t, msg.ToolCalls[0].ID, calls[0].ID)
	gt.Equal(t, msg.ToolCalls[0].Function.Arguments, "{}")
	gt.Equal(t, msg.ToolCalls[0].Type, "function")

	gt.Equal(t, calls[1].ID, "x")
	gt.Equal(t, msg.ToolCalls[1].Function.Arguments, `{"id":"g1"}`)
}

func TestFromResponseEmpty(t *testing.T) {
	for _, resp := range []*genai.GenerateContentResponse{
		nil,
		{},
		{Candidates: []*genai.Candidate{{}}},
	} {
		msg, calls, err := fromResponse(resp)
		gt.NoError(t, err)
		gt.Equal(t, msg.Content, "")
		gt.A(t, calls).Length(0)
	}
}

func TestHealPendingCalls(t *testing.T) {
	msgs := []*model.Message{
		{Role: model.RoleAssistant, ToolCalls: []model.ToolCall{
			{ID: "a", Function: model.FunctionCall{Name: "get_goals"}},
			{ID: "b", Function: model.FunctionCall{Name: "set_goal"}},
		}},
		{Role: model.RoleTool, ToolCallID: "a", Content: "ok"},
	}

	healed := healPendingCalls(msgs)
	gt.A(t, healed).Length(3)
	gt.A(t, msgs).Length(2)
	gt.Equal(t, healed[2].ToolCallID, "b")
	gt.Equal(t, healed[2].Name, "set_goal")
	gt.Equal(t, healed[2].Content, interruptedObservation)
	gt.A(t, model.PendingToolCalls(healed)).Length(0)

	gt.A(t, healPendingCalls(healed)).Length(3)
}

func TestChatLocks(t *testing.T) {
	locks := newChatLocks()
	ctx := context.Background()

	unlock, err := locks.Lock(ctx, "c1")
	gt.NoError(t, err)

	// Another chat is independent
	unlockOther, err := locks.Lock(ctx, "c2")
	gt.NoError(t, err)
	unlockOther()

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = locks.Lock(waitCtx, "c1")
	gt.Error(t, err)

	acquired := make(chan struct{})
	go func() {
		u, err := locks.Lock(ctx, "c1")
		if err == nil {
			u()
			close(acquired)
		}
	}()

	select {
	case <-acquired:
		t.Fatal("lock acquired while held")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("lock not acquired after release")
	}

	gt.Equal(t, locks.size(), 0)
}

func TestPersona(t *testing.T) {
	p := DefaultPersona()
	gt.Equal(t, p.Name, "Euonia")

	now := time.Date(2025, time.June, 3, 0, 0, 0, 0, time.UTC)
	rendered := p.Render(now)
	gt.True(t, strings.Contains(rendered, "June 3, 2025"))
	gt.False(t, strings.Contains(rendered, "{{date}}"))

	dir := t.TempDir()
	path := filepath.Join(dir, "persona.yaml")
	gt.NoError(t, os.WriteFile(path, []byte("name: coach\nsystem_message: Today is {{date}}.\n"), 0600))

	loaded, err := LoadPersona(path)
	gt.NoError(t, err)
	gt.Equal(t, loaded.Render(now), "Today is June 3, 2025.")

	gt.NoError(t, os.WriteFile(path, []byte("name: empty\n"), 0600))
	_, err = LoadPersona(path)
	gt.Error(t, err)

	_, err = LoadPersona(filepath.Join(dir, "missing.yaml"))
	gt.Error(t, err)
}
