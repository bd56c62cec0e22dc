package goal

import (
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/euonia/pkg/model"
	"github.com/m-mizutani/euonia/pkg/tool"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

const (
	FuncGetGoals    = "get_goals"
	FuncSetGoal     = "set_goal"
	FuncUpdateGoal  = "update_goal"
	FuncResolveGoal = "resolve_goal"
)

func priorityEnum() []any {
	values := make([]any, len(model.Priorities))
	for i, p := range model.Priorities {
		values[i] = string(p)
	}
	return values
}

func ptr[T any](v T) *T { return &v }

// Schemas returns the parameter schemas of every goal function, keyed by function name
func Schemas() map[string]*jsonschema.Schema {
	return map[string]*jsonschema.Schema{
		FuncGetGoals: {
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"days": {
					Type:        "number",
					Description: "Number of days to look back for goals",
					Minimum:     ptr(0.0),
					Maximum:     ptr(365.0),
				},
			},
			Required: []string{"days"},
		},
		FuncSetGoal: {
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"name": {
					Type:        "string",
					Description: "The name or title of the goal, phrased as a specific behavior",
				},
				"deadline": {
					Type:        "string",
					Description: "The deadline for the goal in ISO 8601 format, either a date (2025-06-10) or a date-time",
				},
				"priority": {
					Type:        "string",
					Enum:        priorityEnum(),
					Description: "The priority level of the goal",
				},
				"description": {
					Type:        "string",
					Description: "Optional details about the goal and how progress is measured",
				},
			},
			Required: []string{"name", "deadline", "priority", "description"},
		},
		FuncUpdateGoal: {
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"id": {
					Type:        "string",
					Description: "The ID of the goal to update",
				},
				"name": {
					Type:        "string",
					Description: "New name of the goal",
				},
				"deadline": {
					Type:        "string",
					Description: "New deadline in ISO 8601 format, either a date or a date-time",
				},
				"priority": {
					Type:        "string",
					Enum:        priorityEnum(),
					Description: "New priority level",
				},
				"description": {
					Type:        "string",
					Description: "New description",
				},
			},
			Required: []string{"id"},
		},
		FuncResolveGoal: {
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"id": {
					Type:        "string",
					Description: "The ID of the goal to resolve",
				},
			},
			Required: []string{"id"},
		},
	}
}

var descriptions = map[string]string{
	FuncGetGoals:    "Retrieve goals from a specified previous amount of days.",
	FuncSetGoal:     "Add a goal to the database for the user to easily look back to. Check existing goals with get_goals first to avoid duplicates.",
	FuncUpdateGoal:  "Reword, reframe or correct an existing goal. Only the provided fields are changed.",
	FuncResolveGoal: "Resolve a goal, removing it from the database permanently.",
}

// Names lists the goal functions in declaration order
var Names = []string{FuncGetGoals, FuncSetGoal, FuncUpdateGoal, FuncResolveGoal}

// Description returns the human-readable description of a goal function
func Description(name string) string {
	return descriptions[name]
}

// Declarations builds the Gemini function declarations for all goal functions
func Declarations() ([]*genai.FunctionDeclaration, error) {
	schemas := Schemas()

	decls := make([]*genai.FunctionDeclaration, 0, len(Names))
	for _, name := range Names {
		params, err := tool.ConvertSchema(schemas[name])
		if err != nil {
			return nil, goerr.Wrap(err, "failed to convert goal tool schema", goerr.V("name", name))
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        name,
			Description: descriptions[name],
			Parameters:  params,
		})
	}
	return decls, nil
}
