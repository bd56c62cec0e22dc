package chat

import (
	"context"
	"errors"

	"github.com/m-mizutani/euonia/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// CreateChat starts an empty chat for uid
func (u *UseCase) CreateChat(ctx context.Context, uid model.UserID, name string) (*model.Chat, error) {
	if uid == "" {
		return nil, goerr.New("user ID is required")
	}

	chat := &model.Chat{
		ID:           model.NewChatID(),
		UserID:       uid,
		Name:         name,
		CreatedAt:    u.now(),
		Interactions: []*model.Message{},
	}
	if err := u.repo.PutChat(ctx, chat); err != nil {
		return nil, goerr.Wrap(err, "failed to create chat", goerr.V("uid", uid))
	}
	return chat, nil
}

// EnsureChat returns the chat with id, creating it for uid when it does not
// exist yet. A chat owned by someone else is rejected.
func (u *UseCase) EnsureChat(ctx context.Context, uid model.UserID, id model.ChatID, name string) (*model.Chat, error) {
	chat, err := u.repo.GetChat(ctx, id)
	if err == nil {
		if chat.UserID != uid {
			return nil, goerr.Wrap(model.ErrChatUnauthorized, "chat owned by another user", goerr.V("chat_id", id))
		}
		return chat, nil
	}
	if !errors.Is(err, model.ErrChatNotFound) {
		return nil, err
	}

	chat = &model.Chat{
		ID:           id,
		UserID:       uid,
		Name:         name,
		CreatedAt:    u.now(),
		Interactions: []*model.Message{},
	}
	if err := u.repo.PutChat(ctx, chat); err != nil {
		return nil, goerr.Wrap(err, "failed to create chat", goerr.V("chat_id", id))
	}
	return chat, nil
}

// GetChat returns a chat after checking that uid owns it
func (u *UseCase) GetChat(ctx context.Context, uid model.UserID, id model.ChatID) (*model.Chat, error) {
	chat, err := u.repo.GetChat(ctx, id)
	if err != nil {
		return nil, err
	}
	if chat.UserID != uid {
		return nil, goerr.Wrap(model.ErrChatUnauthorized, "chat owned by another user", goerr.V("chat_id", id))
	}
	return chat, nil
}
