package goal

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/m-mizutani/euonia/pkg/model"
	goaluc "github.com/m-mizutani/euonia/pkg/usecase/goal"
)

// Call is a decoded goal tool invocation. Exactly one concrete type exists
// per declared function, plus Unknown for names this package does not serve.
type Call interface {
	FunctionName() string
}

type GetGoals struct {
	Days int
}

type SetGoal struct {
	Name        string
	Deadline    string
	Priority    model.Priority
	Description string
}

type UpdateGoal struct {
	ID          model.GoalID
	Name        *string
	Deadline    *string
	Priority    *model.Priority
	Description *string
}

type ResolveGoal struct {
	ID model.GoalID
}

type Unknown struct {
	Name string
}

func (GetGoals) FunctionName() string    { return FuncGetGoals }
func (SetGoal) FunctionName() string     { return FuncSetGoal }
func (UpdateGoal) FunctionName() string  { return FuncUpdateGoal }
func (ResolveGoal) FunctionName() string { return FuncResolveGoal }
func (u Unknown) FunctionName() string   { return u.Name }

// Decode turns a model-supplied function call into a typed Call. Malformed
// values are defaulted instead of rejected.
func Decode(name string, args map[string]any) Call {
	switch name {
	case FuncGetGoals:
		days, ok := numberArg(args, "days")
		if !ok {
			return GetGoals{Days: goaluc.DefaultWindowDays}
		}
		days = math.Max(0, math.Min(days, goaluc.MaxWindowDays))
		return GetGoals{Days: goaluc.NormalizeDays(int(days))}

	case FuncSetGoal:
		priority := model.PriorityNormal
		if p, ok := priorityArg(args, "priority"); ok {
			priority = p
		}
		return SetGoal{
			Name:        stringArg(args, "name"),
			Deadline:    stringArg(args, "deadline"),
			Priority:    priority,
			Description: stringArg(args, "description"),
		}

	case FuncUpdateGoal:
		call := UpdateGoal{
			ID:          goalIDArg(args),
			Name:        optionalStringArg(args, "name"),
			Deadline:    optionalStringArg(args, "deadline"),
			Description: optionalStringArg(args, "description"),
		}
		if s := optionalStringArg(args, "priority"); s != nil {
			p := model.Priority(strings.ToUpper(strings.TrimSpace(*s)))
			call.Priority = &p
		}
		return call

	case FuncResolveGoal:
		return ResolveGoal{ID: goalIDArg(args)}

	default:
		return Unknown{Name: name}
	}
}

// goalIDArg reads "id", falling back to the "goal_id" spelling models sometimes use
func goalIDArg(args map[string]any) model.GoalID {
	if id := stringArg(args, "id"); id != "" {
		return model.GoalID(id)
	}
	return model.GoalID(stringArg(args, "goal_id"))
}

func stringArg(args map[string]any, key string) string {
	if s := optionalStringArg(args, key); s != nil {
		return *s
	}
	return ""
}

func optionalStringArg(args map[string]any, key string) *string {
	v, ok := args[key]
	if !ok || v == nil {
		return nil
	}

	var s string
	switch x := v.(type) {
	case string:
		s = x
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		s = x.String()
	default:
		return nil
	}
	s = strings.TrimSpace(s)
	return &s
}

func numberArg(args map[string]any, key string) (float64, bool) {
	v, ok := args[key]
	if !ok || v == nil {
		return 0, false
	}

	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func priorityArg(args map[string]any, key string) (model.Priority, bool) {
	s := optionalStringArg(args, key)
	if s == nil {
		return "", false
	}
	p := model.Priority(strings.ToUpper(*s))
	if p.Validate() != nil {
		return "", false
	}
	return p, true
}
