package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/m-mizutani/euonia/pkg/model"
	"github.com/m-mizutani/euonia/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// archiveKey is the object key of a transcript snapshot
func archiveKey(chatID model.ChatID, completedAtNano int64) string {
	return fmt.Sprintf("chats/%s/%d.json", chatID, completedAtNano)
}

// afterTurn runs the optional sinks for a finished turn. They never fail the turn.
func (u *UseCase) afterTurn(ctx context.Context, chat *model.Chat, turn *model.TurnLog) {
	logger := logging.From(ctx)

	if u.storage != nil {
		if err := u.archive(ctx, chat, turn); err != nil {
			logger.Warn("failed to archive transcript", "error", err, "chat_id", chat.ID)
		}
	}

	if u.bigquery != nil {
		if err := u.bigquery.InsertTurnLogs(ctx, turn); err != nil {
			logger.Warn("failed to record turn log", "error", err, "chat_id", chat.ID)
		}
	}
}

func (u *UseCase) archive(ctx context.Context, chat *model.Chat, turn *model.TurnLog) error {
	key := archiveKey(chat.ID, turn.CompletedAt.UnixNano())
	w, err := u.storage.Put(ctx, key)
	if err != nil {
		return goerr.Wrap(err, "failed to open archive object", goerr.V("key", key))
	}

	if err := json.NewEncoder(w).Encode(chat); err != nil {
		_ = w.Close()
		return goerr.Wrap(err, "failed to write transcript", goerr.V("key", key))
	}

	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to commit archive object", goerr.V("key", key))
	}
	return nil
}

// RestoreArchive starts a new chat for uid from an archived transcript. The
// archive must belong to uid.
func (u *UseCase) RestoreArchive(ctx context.Context, uid model.UserID, key string) (*model.Chat, error) {
	if u.storage == nil {
		return nil, goerr.New("archive storage is not configured")
	}

	r, err := u.storage.Get(ctx, key)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open archive object", goerr.V("key", key))
	}
	defer func() { _ = r.Close() }()

	var archived model.Chat
	if err := json.NewDecoder(r).Decode(&archived); err != nil {
		return nil, goerr.Wrap(err, "failed to decode archived transcript", goerr.V("key", key))
	}
	if archived.UserID != uid {
		return nil, goerr.Wrap(model.ErrChatUnauthorized, "archive owned by another user",
			goerr.V("key", key), goerr.V("uid", uid))
	}

	chat := &model.Chat{
		ID:           model.NewChatID(),
		UserID:       uid,
		Name:         archived.Name,
		CreatedAt:    u.now(),
		Interactions: healPendingCalls(archived.Interactions),
	}
	if chat.Interactions == nil {
		chat.Interactions = []*model.Message{}
	}
	if err := u.repo.PutChat(ctx, chat); err != nil {
		return nil, goerr.Wrap(err, "failed to create restored chat", goerr.V("key", key))
	}

	logging.From(ctx).Info("chat restored from archive", "key", key, "chat_id", chat.ID, "source_chat_id", archived.ID)
	return chat, nil
}
