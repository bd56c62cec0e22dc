package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/euonia/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	collectionGoals = "goals"
	collectionChats = "chats"
)

// Firestore implements Repository using Cloud Firestore
type Firestore struct {
	client *firestore.Client
}

var _ Repository = (*Firestore)(nil)

// New creates a new Firestore repository
func New(ctx context.Context, projectID, databaseID string, opts ...option.ClientOption) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project_id", projectID),
			goerr.V("database_id", databaseID))
	}

	return &Firestore{client: client}, nil
}

// Close releases the underlying client
func (r *Firestore) Close() error {
	return r.client.Close()
}

// goalDoc is the stored shape of a goal. Timestamps are epoch milliseconds,
// which is what existing documents in the goals collection carry.
type goalDoc struct {
	ID          string `firestore:"id"`
	UID         string `firestore:"uid"`
	Name        string `firestore:"name"`
	Description string `firestore:"description"`
	Priority    string `firestore:"priority"`
	Deadline    string `firestore:"deadline"`
	CreatedAt   int64  `firestore:"createdAt"`
	UpdatedAt   *int64 `firestore:"updatedAt,omitempty"`
	Day         int    `firestore:"day"`
}

func toGoalDoc(g *model.Goal) *goalDoc {
	doc := &goalDoc{
		ID:          string(g.ID),
		UID:         string(g.UID),
		Name:        g.Name,
		Description: g.Description,
		Priority:    string(g.Priority),
		Deadline:    g.Deadline,
		CreatedAt:   g.CreatedAt.UnixMilli(),
		Day:         g.Day,
	}
	if g.UpdatedAt != nil {
		ms := g.UpdatedAt.UnixMilli()
		doc.UpdatedAt = &ms
	}
	return doc
}

func (d *goalDoc) toModel() *model.Goal {
	g := &model.Goal{
		ID:          model.GoalID(d.ID),
		UID:         model.UserID(d.UID),
		Name:        d.Name,
		Description: d.Description,
		Priority:    model.Priority(d.Priority),
		Deadline:    d.Deadline,
		CreatedAt:   time.UnixMilli(d.CreatedAt),
		Day:         d.Day,
	}
	if d.UpdatedAt != nil {
		t := time.UnixMilli(*d.UpdatedAt)
		g.UpdatedAt = &t
	}
	return g
}

func (r *Firestore) PutGoal(ctx context.Context, goal *model.Goal) error {
	if goal.ID == "" {
		return goerr.New("goal ID is empty")
	}

	if _, err := r.client.Collection(collectionGoals).Doc(string(goal.ID)).Set(ctx, toGoalDoc(goal)); err != nil {
		return goerr.Wrap(err, "failed to put goal", goerr.V("id", goal.ID))
	}
	return nil
}

func (r *Firestore) ListGoalsByDay(ctx context.Context, uid model.UserID, from, to int) ([]*model.Goal, error) {
	q := r.client.Collection(collectionGoals).
		Where("uid", "==", string(uid)).
		Where("day", ">=", from).
		Where("day", "<", to)

	goals, err := collectGoals(q.Documents(ctx))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list goals by day",
			goerr.V("uid", uid), goerr.V("from", from), goerr.V("to", to))
	}
	sortByCreatedAtDesc(goals)
	return goals, nil
}

func (r *Firestore) ListGoals(ctx context.Context, uid model.UserID) ([]*model.Goal, error) {
	q := r.client.Collection(collectionGoals).
		Where("uid", "==", string(uid)).
		OrderBy("createdAt", firestore.Desc)

	goals, err := collectGoals(q.Documents(ctx))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list goals", goerr.V("uid", uid))
	}
	return goals, nil
}

func collectGoals(iter *firestore.DocumentIterator) ([]*model.Goal, error) {
	defer iter.Stop()

	goals := []*model.Goal{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate goals")
		}

		var d goalDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to decode goal", goerr.V("doc_id", doc.Ref.ID))
		}
		goals = append(goals, d.toModel())
	}
	return goals, nil
}

// getOwnedGoal reads a goal inside tx and checks ownership
func (r *Firestore) getOwnedGoal(tx *firestore.Transaction, ref *firestore.DocumentRef, uid model.UserID) (*goalDoc, error) {
	snap, err := tx.Get(ref)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrGoalNotFound, "goal does not exist", goerr.V("id", ref.ID))
		}
		return nil, goerr.Wrap(err, "failed to get goal", goerr.V("id", ref.ID))
	}

	var d goalDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to decode goal", goerr.V("id", ref.ID))
	}
	if d.UID != string(uid) {
		return nil, goerr.Wrap(model.ErrGoalNotFound, "goal owned by another user", goerr.V("id", ref.ID))
	}
	return &d, nil
}

func (r *Firestore) UpdateGoal(ctx context.Context, id model.GoalID, uid model.UserID, update *model.GoalUpdate) (*model.Goal, error) {
	ref := r.client.Collection(collectionGoals).Doc(string(id))

	var updated *model.Goal
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		d, err := r.getOwnedGoal(tx, ref, uid)
		if err != nil {
			return err
		}

		goal := d.toModel()
		update.Apply(goal)

		updates := []firestore.Update{
			{Path: "updatedAt", Value: update.UpdatedAt.UnixMilli()},
		}
		if update.Name != nil {
			updates = append(updates, firestore.Update{Path: "name", Value: *update.Name})
		}
		if update.Description != nil {
			updates = append(updates, firestore.Update{Path: "description", Value: *update.Description})
		}
		if update.Priority != nil {
			updates = append(updates, firestore.Update{Path: "priority", Value: string(*update.Priority)})
		}
		if update.Deadline != nil {
			updates = append(updates, firestore.Update{Path: "deadline", Value: *update.Deadline})
		}

		if err := tx.Update(ref, updates); err != nil {
			return goerr.Wrap(err, "failed to update goal", goerr.V("id", id))
		}
		updated = goal
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (r *Firestore) DeleteGoal(ctx context.Context, id model.GoalID, uid model.UserID) error {
	ref := r.client.Collection(collectionGoals).Doc(string(id))

	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := r.getOwnedGoal(tx, ref, uid); err != nil {
			return err
		}
		if err := tx.Delete(ref); err != nil {
			return goerr.Wrap(err, "failed to delete goal", goerr.V("id", id))
		}
		return nil
	})
}

func (r *Firestore) PutChat(ctx context.Context, chat *model.Chat) error {
	if chat.ID == "" {
		return goerr.New("chat ID is empty")
	}

	interactions := chat.Interactions
	if interactions == nil {
		interactions = []*model.Message{}
	}

	data := map[string]any{
		"userId":       string(chat.UserID),
		"name":         chat.Name,
		"createdAt":    chat.CreatedAt,
		"interactions": interactions,
	}
	if _, err := r.client.Collection(collectionChats).Doc(string(chat.ID)).Set(ctx, data); err != nil {
		return goerr.Wrap(err, "failed to put chat", goerr.V("chat_id", chat.ID))
	}
	return nil
}

func (r *Firestore) GetChat(ctx context.Context, id model.ChatID) (*model.Chat, error) {
	snap, err := r.client.Collection(collectionChats).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrChatNotFound, "chat does not exist", goerr.V("chat_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get chat", goerr.V("chat_id", id))
	}

	var doc chatDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode chat", goerr.V("chat_id", id))
	}
	return doc.toModel(id), nil
}

func (r *Firestore) PutInteractions(ctx context.Context, id model.ChatID, interactions []*model.Message) error {
	if interactions == nil {
		interactions = []*model.Message{}
	}

	_, err := r.client.Collection(collectionChats).Doc(string(id)).Update(ctx, []firestore.Update{
		{Path: "interactions", Value: interactions},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(model.ErrChatNotFound, "chat does not exist", goerr.V("chat_id", id))
		}
		return goerr.Wrap(err, "failed to put interactions", goerr.V("chat_id", id))
	}
	return nil
}
