package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/m-mizutani/euonia/pkg/model"
	"github.com/m-mizutani/euonia/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// interruptedObservation answers tool calls left pending by an aborted turn
const interruptedObservation = "The tool call was interrupted before it completed."

// TurnInput is one user message for a chat
type TurnInput struct {
	UserID  model.UserID
	ChatID  model.ChatID
	Message string
	// SystemMessage replaces the configured persona for this turn when set
	SystemMessage string
	// Model overrides the default generative model when set
	Model string
}

// TurnOutput is the terminal answer of a turn and the user's goals after it
type TurnOutput struct {
	ResponseText string
	Goals        []*model.Goal
	Rounds       int
	ToolCalls    int
}

// Turn runs one conversation turn. The model is called until it answers
// without tool calls. Tool calls run sequentially in the requested order and
// the transcript is persisted before the first tool runs and after each
// result. A chat owned by another user fails with model.ErrChatUnauthorized
// and an absent chat with model.ErrChatNotFound, both without side effects.
func (u *UseCase) Turn(ctx context.Context, input TurnInput) (*TurnOutput, error) {
	if input.UserID == "" {
		return nil, goerr.New("user ID is required")
	}
	if input.ChatID == "" {
		return nil, goerr.New("chat ID is required")
	}

	if u.turnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.turnTimeout)
		defer cancel()
	}

	ctx = logging.WithAttrs(ctx, "chat_id", input.ChatID, "uid", input.UserID)
	logger := logging.From(ctx)

	unlock, err := u.locks.Lock(ctx, input.ChatID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	chat, err := u.repo.GetChat(ctx, input.ChatID)
	if err != nil {
		return nil, err
	}
	if chat.UserID != input.UserID {
		return nil, goerr.Wrap(model.ErrChatUnauthorized, "chat owned by another user",
			goerr.V("chat_id", input.ChatID), goerr.V("uid", input.UserID))
	}

	startedAt := u.now()
	interactions := healPendingCalls(chat.Interactions)
	interactions = append(interactions, &model.Message{Role: model.RoleUser, Content: input.Message})

	systemMessage := u.persona.Render(startedAt)
	if input.SystemMessage != "" {
		systemMessage = renderSystemMessage(input.SystemMessage, startedAt)
	}

	modelName := input.Model
	if modelName == "" {
		modelName = u.gemini.Model()
	}

	turn := &model.TurnLog{
		ChatID:    chat.ID,
		UserID:    input.UserID,
		Model:     modelName,
		Tools:     []string{},
		StartedAt: startedAt,
	}

	persist := func() error {
		if err := u.repo.PutInteractions(ctx, chat.ID, interactions); err != nil {
			return goerr.Wrap(err, "failed to persist transcript", goerr.V("chat_id", chat.ID))
		}
		return nil
	}

	for round := 0; ; round++ {
		capped := round >= u.maxRounds
		config := u.generateConfig(systemMessage, capped)

		contents, err := toContents(interactions)
		if err != nil {
			return nil, err
		}

		resp, err := u.gemini.GenerateContent(ctx, modelName, contents, config)
		if err != nil {
			return nil, goerr.Wrap(err, "model call failed", goerr.V("round", round))
		}

		msg, calls, err := fromResponse(resp)
		if err != nil {
			return nil, err
		}

		if len(calls) == 0 || capped {
			if capped && len(calls) > 0 {
				logger.Warn("dropping tool calls after round limit", "count", len(calls))
			}
			text := msg.Content
			if text == "" {
				text = fallbackResponse
			}
			interactions = append(interactions, &model.Message{Role: model.RoleAssistant, Content: text})
			if err := persist(); err != nil {
				return nil, err
			}

			goals, err := u.goals.ListAll(ctx, input.UserID)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to list goals after turn")
			}

			turn.Rounds = round
			turn.Capped = capped
			turn.CompletedAt = u.now()
			chat.Interactions = interactions
			u.afterTurn(ctx, chat, turn)

			logger.Info("turn completed", "rounds", round, "tool_calls", turn.ToolCalls, "capped", capped)
			return &TurnOutput{
				ResponseText: text,
				Goals:        goals,
				Rounds:       round,
				ToolCalls:    turn.ToolCalls,
			}, nil
		}

		interactions = append(interactions, msg)
		if err := persist(); err != nil {
			return nil, err
		}

		for _, call := range calls {
			observation, ok, err := u.registry.Execute(ctx, input.UserID, call.Name, call.Args)
			if err != nil {
				return nil, goerr.Wrap(err, "tool execution failed", goerr.V("name", call.Name), goerr.V("tool_call_id", call.ID))
			}
			if !ok {
				logger.Warn("model requested unknown tool", "name", call.Name)
				observation = fmt.Sprintf("Unknown tool '%s' was ignored.", call.Name)
			}
			logger.Debug("tool executed", "name", call.Name, "tool_call_id", call.ID, "observation", observation)

			interactions = append(interactions, &model.Message{
				Role:       model.RoleTool,
				ToolCallID: call.ID,
				Name:       call.Name,
				Content:    observation,
			})
			if err := persist(); err != nil {
				return nil, err
			}

			turn.ToolCalls++
			turn.Tools = append(turn.Tools, call.Name)
		}
	}
}

func (u *UseCase) generateConfig(systemMessage string, disableTools bool) *genai.GenerateContentConfig {
	temperature := u.sampling.Temperature
	topP := u.sampling.TopP

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemMessage, ""),
		Temperature:       &temperature,
		TopP:              &topP,
		MaxOutputTokens:   u.sampling.MaxOutputTokens,
		Tools:             u.registry.Specs(),
	}

	if disableTools {
		config.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode: genai.FunctionCallingConfigModeNone,
			},
		}
	}

	return config
}

// healPendingCalls answers tool calls a previous turn never finished, so the
// transcript sent to the model has no dangling function calls
func healPendingCalls(msgs []*model.Message) []*model.Message {
	pending := model.PendingToolCalls(msgs)
	if len(pending) == 0 {
		return msgs
	}

	names := make(map[string]string)
	for _, m := range msgs {
		for _, tc := range m.ToolCalls {
			names[tc.ID] = tc.Function.Name
		}
	}

	out := append([]*model.Message{}, msgs...)
	for _, id := range pending {
		out = append(out, &model.Message{
			Role:       model.RoleTool,
			ToolCallID: id,
			Name:       names[id],
			Content:    interruptedObservation,
		})
	}
	return out
}

// IsUserFacing reports whether err is an ownership or existence failure that
// is reported to the user as text instead of as a server error
func IsUserFacing(err error) bool {
	return errors.Is(err, model.ErrChatNotFound) || errors.Is(err, model.ErrChatUnauthorized)
}

// UserFacingMessage renders the response text for a user-facing failure
func UserFacingMessage(err error) string {
	switch {
	case errors.Is(err, model.ErrChatUnauthorized):
		return "Unauthorized: this chat belongs to another user."
	case errors.Is(err, model.ErrChatNotFound):
		return "Chat not found."
	default:
		return "Something went wrong."
	}
}
