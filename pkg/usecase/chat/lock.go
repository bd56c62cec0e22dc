package chat

import (
	"context"
	"sync"

	"github.com/m-mizutani/euonia/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// chatLocks serializes turns per chat. Entries are dropped once nobody holds
// or waits for them.
type chatLocks struct {
	mu      sync.Mutex
	entries map[model.ChatID]*lockEntry
}

type lockEntry struct {
	ch   chan struct{}
	refs int
}

func newChatLocks() *chatLocks {
	return &chatLocks{entries: make(map[model.ChatID]*lockEntry)}
}

// Lock blocks until the chat is free or ctx is done. The returned function
// releases the lock.
func (l *chatLocks) Lock(ctx context.Context, id model.ChatID) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[id]
	if !ok {
		e = &lockEntry{ch: make(chan struct{}, 1)}
		l.entries[id] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
		return func() {
			<-e.ch
			l.release(id, e)
		}, nil
	case <-ctx.Done():
		l.release(id, e)
		return nil, goerr.Wrap(ctx.Err(), "waiting for chat lock", goerr.V("chat_id", id))
	}
}

func (l *chatLocks) release(id model.ChatID, e *lockEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(l.entries, id)
	}
}

func (l *chatLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
