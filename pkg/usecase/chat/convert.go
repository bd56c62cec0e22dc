package chat

import (
	"encoding/json"
	"strings"

	"github.com/m-mizutani/euonia/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// requestedCall is a tool call taken from a model response, with its
// arguments already decoded
type requestedCall struct {
	ID   string
	Name string
	Args map[string]any
}

// toContents converts the stored transcript into Gemini contents. Consecutive
// tool results are folded into a single user turn, which is how Gemini
// expects parallel function responses.
func toContents(msgs []*model.Message) ([]*genai.Content, error) {
	names := make(map[string]string)
	var contents []*genai.Content
	var pending *genai.Content

	flush := func() {
		if pending != nil {
			contents = append(contents, pending)
			pending = nil
		}
	}

	for _, m := range msgs {
		switch m.Role {
		case model.RoleUser:
			flush()
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))

		case model.RoleAssistant:
			flush()
			var parts []*genai.Part
			if m.Content != "" {
				parts = append(parts, genai.NewPartFromText(m.Content))
			}
			for _, tc := range m.ToolCalls {
				args := map[string]any{}
				if tc.Function.Arguments != "" {
					if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
						return nil, goerr.Wrap(err, "broken tool call arguments in transcript",
							goerr.V("tool_call_id", tc.ID), goerr.V("name", tc.Function.Name))
					}
				}
				names[tc.ID] = tc.Function.Name
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{
					ID:   tc.ID,
					Name: tc.Function.Name,
					Args: args,
				}})
			}
			if len(parts) == 0 {
				continue
			}
			contents = append(contents, &genai.Content{Role: string(genai.RoleModel), Parts: parts})

		case model.RoleTool:
			name := m.Name
			if name == "" {
				name = names[m.ToolCallID]
			}
			if pending == nil {
				pending = &genai.Content{Role: string(genai.RoleUser)}
			}
			pending.Parts = append(pending.Parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
				ID:       m.ToolCallID,
				Name:     name,
				Response: map[string]any{"output": m.Content},
			}})

		default:
			return nil, goerr.New("unknown message role in transcript", goerr.V("role", m.Role))
		}
	}
	flush()

	return contents, nil
}

// fromResponse builds the assistant message for a model response. Tool calls
// without an ID get a generated one so that results can be linked back.
func fromResponse(resp *genai.GenerateContentResponse) (*model.Message, []requestedCall, error) {
	msg := &model.Message{Role: model.RoleAssistant}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return msg, nil, nil
	}

	var text strings.Builder
	var calls []requestedCall
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Thought {
			continue
		}
		if part.Text != "" {
			text.WriteString(part.Text)
		}
		if fc := part.FunctionCall; fc != nil {
			id := fc.ID
			if id == "" {
				id = model.NewToolCallID()
			}
			args := fc.Args
			if args == nil {
				args = map[string]any{}
			}
			raw, err := json.Marshal(args)
			if err != nil {
				return nil, nil, goerr.Wrap(err, "failed to encode tool call arguments", goerr.V("name", fc.Name))
			}

			msg.ToolCalls = append(msg.ToolCalls, model.ToolCall{
				ID:   id,
				Type: "function",
				Function: model.FunctionCall{
					Name:      fc.Name,
					Arguments: string(raw),
				},
			})
			calls = append(calls, requestedCall{ID: id, Name: fc.Name, Args: args})
		}
	}

	msg.Content = cleanText(text.String())
	return msg, calls, nil
}

// cleanText drops the <response> wrapper the persona sometimes makes the model emit
func cleanText(s string) string {
	s = strings.ReplaceAll(s, "<response>", "")
	s = strings.ReplaceAll(s, "</response>", "")
	return strings.TrimSpace(s)
}
