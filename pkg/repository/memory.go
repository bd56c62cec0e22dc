package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/euonia/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// Memory is an in-process Repository. Records are copied on the way in and
// out so callers never share state with the store.
type Memory struct {
	mu    sync.RWMutex
	goals map[model.GoalID]*model.Goal
	chats map[model.ChatID]*model.Chat
}

// NewMemory creates an empty in-memory repository
func NewMemory() *Memory {
	return &Memory{
		goals: make(map[model.GoalID]*model.Goal),
		chats: make(map[model.ChatID]*model.Chat),
	}
}

var _ Repository = (*Memory)(nil)

func copyGoal(g *model.Goal) *model.Goal {
	c := *g
	if g.UpdatedAt != nil {
		t := *g.UpdatedAt
		c.UpdatedAt = &t
	}
	return &c
}

func copyMessages(msgs []*model.Message) []*model.Message {
	out := make([]*model.Message, len(msgs))
	for i, m := range msgs {
		c := *m
		if m.ToolCalls != nil {
			c.ToolCalls = append([]model.ToolCall(nil), m.ToolCalls...)
		}
		out[i] = &c
	}
	return out
}

func (m *Memory) PutGoal(ctx context.Context, goal *model.Goal) error {
	if goal.ID == "" {
		return goerr.New("goal ID is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.goals[goal.ID] = copyGoal(goal)
	return nil
}

func (m *Memory) ListGoalsByDay(ctx context.Context, uid model.UserID, from, to int) ([]*model.Goal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	goals := []*model.Goal{}
	for _, g := range m.goals {
		if g.UID == uid && g.Day >= from && g.Day < to {
			goals = append(goals, copyGoal(g))
		}
	}
	sortByCreatedAtDesc(goals)
	return goals, nil
}

func (m *Memory) ListGoals(ctx context.Context, uid model.UserID) ([]*model.Goal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	goals := []*model.Goal{}
	for _, g := range m.goals {
		if g.UID == uid {
			goals = append(goals, copyGoal(g))
		}
	}
	sortByCreatedAtDesc(goals)
	return goals, nil
}

func (m *Memory) UpdateGoal(ctx context.Context, id model.GoalID, uid model.UserID, update *model.GoalUpdate) (*model.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.goals[id]
	if !ok || g.UID != uid {
		return nil, goerr.Wrap(model.ErrGoalNotFound, "failed to update goal", goerr.V("id", id))
	}

	update.Apply(g)
	return copyGoal(g), nil
}

func (m *Memory) DeleteGoal(ctx context.Context, id model.GoalID, uid model.UserID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.goals[id]
	if !ok || g.UID != uid {
		return goerr.Wrap(model.ErrGoalNotFound, "failed to delete goal", goerr.V("id", id))
	}

	delete(m.goals, id)
	return nil
}

func (m *Memory) PutChat(ctx context.Context, chat *model.Chat) error {
	if chat.ID == "" {
		return goerr.New("chat ID is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	c := *chat
	c.Interactions = copyMessages(chat.Interactions)
	m.chats[chat.ID] = &c
	return nil
}

func (m *Memory) GetChat(ctx context.Context, id model.ChatID) (*model.Chat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	chat, ok := m.chats[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrChatNotFound, "failed to get chat", goerr.V("chat_id", id))
	}

	c := *chat
	c.Interactions = copyMessages(chat.Interactions)
	return &c, nil
}

func (m *Memory) PutInteractions(ctx context.Context, id model.ChatID, interactions []*model.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	chat, ok := m.chats[id]
	if !ok {
		return goerr.Wrap(model.ErrChatNotFound, "failed to put interactions", goerr.V("chat_id", id))
	}

	chat.Interactions = copyMessages(interactions)
	return nil
}

func sortByCreatedAtDesc(goals []*model.Goal) {
	sort.SliceStable(goals, func(i, j int) bool {
		return goals[i].CreatedAt.After(goals[j].CreatedAt)
	})
}
