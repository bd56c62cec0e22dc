package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrChatNotFound     = goerr.New("chat not found")
	ErrChatUnauthorized = goerr.New("chat belongs to another user")
)

type ChatID string

// NewChatID generates a new unique ChatID
func NewChatID() ChatID {
	return ChatID(uuid.New().String())
}

// Role tags a transcript message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Chat is a conversation session owned by one user
type Chat struct {
	ID           ChatID     `json:"chatId" firestore:"-"`
	UserID       UserID     `json:"userId" firestore:"userId"`
	Name         string     `json:"name" firestore:"name"`
	CreatedAt    time.Time  `json:"createdAt" firestore:"createdAt"`
	Interactions []*Message `json:"interactions" firestore:"interactions"`
}

// Message is one entry of a chat transcript
type Message struct {
	Role       Role       `json:"role" firestore:"role"`
	Content    string     `json:"content" firestore:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty" firestore:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty" firestore:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty" firestore:"name,omitempty"`
}

// ToolCall is a tool invocation requested by the assistant
type ToolCall struct {
	ID       string       `json:"id" firestore:"id"`
	Type     string       `json:"type" firestore:"type"`
	Function FunctionCall `json:"function" firestore:"function"`
}

// FunctionCall names the tool and carries its arguments as a JSON object string
type FunctionCall struct {
	Name      string `json:"name" firestore:"name"`
	Arguments string `json:"arguments" firestore:"arguments"`
}

// NewToolCallID generates an identifier for tool calls the model left unnamed
func NewToolCallID() string {
	return "call_" + uuid.New().String()
}

// PendingToolCalls returns the IDs of tool calls in msgs that have no matching tool result
func PendingToolCalls(msgs []*Message) []string {
	answered := make(map[string]bool)
	for _, m := range msgs {
		if m.Role == RoleTool {
			answered[m.ToolCallID] = true
		}
	}

	var pending []string
	for _, m := range msgs {
		for _, tc := range m.ToolCalls {
			if !answered[tc.ID] {
				pending = append(pending, tc.ID)
			}
		}
	}
	return pending
}
