package tool

import (
	"context"

	"github.com/m-mizutani/euonia/pkg/model"
	"google.golang.org/genai"
)

// Tool represents a set of functions that can be called by the LLM
type Tool interface {
	// Spec returns the tool specification for Gemini function calling
	Spec() *genai.Tool

	// Execute runs the named function on behalf of uid and returns a
	// natural-language observation for the model. Errors are reserved for
	// failures that should abort the turn, such as an unreachable store.
	Execute(ctx context.Context, uid model.UserID, name string, args map[string]any) (string, error)
}
