// Package conversation persists conversation message logs.
//
// Records are created lazily on first lookup, mutated only by appending, and
// never deleted. A system message whose text equals an earlier system message
// of the same conversation is dropped; user messages are always appended.
package conversation

import (
	"context"
	"strings"
	"sync"

	"github.com/Emilianodz/multiagent-orch-system/internal/model"
)

// NoHistory is returned by Formatted for empty or unknown conversations.
const NoHistory = "No previous history."

// Store is a durable, keyed conversation log.
type Store interface {
	// Get returns the record for id, creating and persisting an empty one
	// when none exists.
	Get(ctx context.Context, id string) (*model.ConversationRecord, error)

	// Append adds a message to the conversation, applying the system
	// message dedup rule.
	Append(ctx context.Context, id string, sender model.Sender, text string) error

	// Formatted renders the conversation history as "sender: text" lines.
	Formatted(ctx context.Context, id string) (string, error)

	// Close releases the underlying storage.
	Close() error
}

// Format renders a record as newline-joined "sender: text" lines.
func Format(rec *model.ConversationRecord) string {
	if rec == nil || len(rec.Messages) == 0 {
		return NoHistory
	}

	lines := make([]string, len(rec.Messages))
	for i, m := range rec.Messages {
		lines[i] = string(m.Sender) + ": " + m.Text
	}
	return strings.Join(lines, "\n")
}

// Locker hands out one mutex per key. Distinct keys never contend.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewLocker creates an empty keyed locker.
func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*keyLock)}
}

// Lock acquires the mutex for key and returns its release function.
func (l *Locker) Lock(key string) func() {
	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	kl.mu.Lock()

	return func() {
		kl.mu.Unlock()

		l.mu.Lock()
		kl.refs--
		if kl.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

func persistenceError(op, id string, err error) error {
	if err == nil {
		return nil
	}
	return &model.PersistenceError{Op: op, ConversationID: id, Err: err}
}
