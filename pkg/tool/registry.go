package tool

import (
	"context"

	"github.com/m-mizutani/euonia/pkg/model"
	"google.golang.org/genai"
)

// Registry manages available tools for the LLM
type Registry struct {
	tools map[string]Tool
	specs []*genai.Tool
}

// New creates a new tool registry with the given tools
func New(tools ...Tool) *Registry {
	r := &Registry{
		tools: make(map[string]Tool),
	}

	for _, t := range tools {
		spec := t.Spec()
		if spec == nil || len(spec.FunctionDeclarations) == 0 {
			continue
		}
		r.specs = append(r.specs, spec)
		for _, fd := range spec.FunctionDeclarations {
			r.tools[fd.Name] = t
		}
	}

	return r
}

// Specs returns all tool specifications for Gemini function calling, in registration order
func (r *Registry) Specs() []*genai.Tool {
	return r.specs
}

// Names returns the names of all registered functions
func (r *Registry) Names() []string {
	var names []string
	for _, spec := range r.specs {
		for _, fd := range spec.FunctionDeclarations {
			names = append(names, fd.Name)
		}
	}
	return names
}

// Execute runs the named function. ok is false when no tool declares the
// name; the call is then a no-op so that hallucinated tool names do not
// break the conversation.
func (r *Registry) Execute(ctx context.Context, uid model.UserID, name string, args map[string]any) (result string, ok bool, err error) {
	t, found := r.tools[name]
	if !found {
		return "", false, nil
	}

	result, err = t.Execute(ctx, uid, name, args)
	if err != nil {
		return "", true, err
	}
	return result, true, nil
}
