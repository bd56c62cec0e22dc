package tool_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/euonia/pkg/model"
	"github.com/m-mizutani/euonia/pkg/tool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"google.golang.org/genai"
)

type echoTool struct {
	calls []string
	err   error
}

func (e *echoTool) Spec() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{Name: "echo", Description: "echo the input"},
			{Name: "shout", Description: "echo the input loudly"},
		},
	}
}

func (e *echoTool) Execute(ctx context.Context, uid model.UserID, name string, args map[string]any) (string, error) {
	e.calls = append(e.calls, string(uid)+":"+name)
	if e.err != nil {
		return "", e.err
	}
	return name + " done", nil
}

type emptyTool struct{}

func (emptyTool) Spec() *genai.Tool { return nil }
func (emptyTool) Execute(ctx context.Context, uid model.UserID, name string, args map[string]any) (string, error) {
	return "", nil
}

func TestRegistry(t *testing.T) {
	echo := &echoTool{}
	r := tool.New(echo, emptyTool{})

	gt.A(t, r.Specs()).Length(1)
	gt.Equal(t, r.Names(), []string{"echo", "shout"})

	result, ok, err := r.Execute(context.Background(), "user-a", "shout", nil)
	gt.NoError(t, err)
	gt.True(t, ok)
	gt.Equal(t, result, "shout done")
	gt.Equal(t, echo.calls, []string{"user-a:shout"})
}

func TestRegistryUnknownToolIsNoop(t *testing.T) {
	echo := &echoTool{}
	r := tool.New(echo)

	result, ok, err := r.Execute(context.Background(), "user-a", "delete_everything", map[string]any{"x": 1})
	gt.NoError(t, err)
	gt.False(t, ok)
	gt.Equal(t, result, "")
	gt.A(t, echo.calls).Length(0)
}

func TestRegistryPropagatesErrors(t *testing.T) {
	r := tool.New(&echoTool{err: goerr.New("store unavailable")})

	_, ok, err := r.Execute(context.Background(), "user-a", "echo", nil)
	gt.Error(t, err)
	gt.True(t, ok)
}
