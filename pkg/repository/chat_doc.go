package repository

import (
	"strings"
	"time"

	"github.com/m-mizutani/euonia/pkg/model"
)

// chatDoc is the stored shape of a chat as read back from Firestore. Older
// documents keep message content as a list of {type, text} parts instead of a
// string, so content is decoded loosely.
type chatDoc struct {
	UserID       model.UserID  `firestore:"userId"`
	Name         string        `firestore:"name"`
	CreatedAt    time.Time     `firestore:"createdAt"`
	Interactions []*messageDoc `firestore:"interactions"`
}

type messageDoc struct {
	Role       model.Role       `firestore:"role"`
	Content    any              `firestore:"content"`
	ToolCalls  []model.ToolCall `firestore:"tool_calls"`
	ToolCallID string           `firestore:"tool_call_id"`
	Name       string           `firestore:"name"`
}

func (d *chatDoc) toModel(id model.ChatID) *model.Chat {
	chat := &model.Chat{
		ID:           id,
		UserID:       d.UserID,
		Name:         d.Name,
		CreatedAt:    d.CreatedAt,
		Interactions: make([]*model.Message, 0, len(d.Interactions)),
	}
	for _, m := range d.Interactions {
		if m == nil {
			continue
		}
		chat.Interactions = append(chat.Interactions, &model.Message{
			Role:       m.Role,
			Content:    contentText(m.Content),
			ToolCalls:  m.ToolCalls,
			ToolCallID: m.ToolCallID,
			Name:       m.Name,
		})
	}
	return chat
}

// contentText flattens message content to plain text. Text parts are joined
// with newlines and other part types are dropped.
func contentText(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case []any:
		var texts []string
		for _, p := range c {
			part, ok := p.(map[string]any)
			if !ok {
				continue
			}
			if t, _ := part["type"].(string); t != "" && t != "text" {
				continue
			}
			if text, ok := part["text"].(string); ok {
				texts = append(texts, text)
			}
		}
		return strings.Join(texts, "\n")
	default:
		return ""
	}
}
