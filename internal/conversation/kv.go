package conversation

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/Emilianodz/multiagent-orch-system/internal/model"
	"github.com/Emilianodz/multiagent-orch-system/pkg/logger"
	"github.com/Emilianodz/multiagent-orch-system/pkg/metrics"
)

// DefaultMaxRetries bounds optimistic update attempts for one append.
const DefaultMaxRetries = 16

// ErrConflict is returned when an append keeps losing revision races.
var ErrConflict = errors.New("too many concurrent updates")

// KVStore keeps conversations in a NATS JetStream key-value bucket.
// Appends use compare-and-set on the entry revision, so concurrent writers
// to one conversation retry instead of overwriting each other. Writers in the
// same process are additionally queued per conversation.
type KVStore struct {
	kv         jetstream.KeyValue
	locks      *Locker
	logger     *logger.Logger
	maxRetries int
}

// NewKVStore creates a store over an existing bucket.
func NewKVStore(kv jetstream.KeyValue, log *logger.Logger) *KVStore {
	return &KVStore{
		kv:         kv,
		locks:      NewLocker(),
		logger:     log,
		maxRetries: DefaultMaxRetries,
	}
}

// kvKey maps a conversation id onto the bucket key alphabet.
func kvKey(id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id))
}

// Get implements Store.
func (s *KVStore) Get(ctx context.Context, id string) (*model.ConversationRecord, error) {
	key := kvKey(id)

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		rec, _, err := s.load(ctx, key)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, persistenceError("get", id, err)
		}

		rec = model.NewConversationRecord(id)
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, persistenceError("create", id, err)
		}

		_, err = s.kv.Create(ctx, key, data)
		if err == nil {
			s.logger.Debug("conversation created", zap.String("conversation_id", id))
			return rec, nil
		}
		if !errors.Is(err, jetstream.ErrKeyExists) {
			return nil, persistenceError("create", id, err)
		}
		// Another writer created it first; read theirs.
	}

	return nil, persistenceError("get", id, ErrConflict)
}

// Append implements Store.
func (s *KVStore) Append(ctx context.Context, id string, sender model.Sender, text string) error {
	if !sender.Valid() {
		return persistenceError("append", id, fmt.Errorf("unknown sender %q", sender))
	}

	key := kvKey(id)

	unlock := s.locks.Lock(key)
	defer unlock()

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		rec, revision, err := s.load(ctx, key)
		missing := errors.Is(err, jetstream.ErrKeyNotFound)
		if err != nil && !missing {
			metrics.ConversationAppendsTotal.WithLabelValues(string(sender), "error").Inc()
			return persistenceError("append", id, err)
		}
		if missing {
			rec = model.NewConversationRecord(id)
		}

		if !rec.Append(sender, text) {
			metrics.ConversationAppendsTotal.WithLabelValues(string(sender), "duplicate").Inc()
			return nil
		}

		data, err := json.Marshal(rec)
		if err != nil {
			return persistenceError("append", id, err)
		}

		if missing {
			_, err = s.kv.Create(ctx, key, data)
		} else {
			_, err = s.kv.Update(ctx, key, data, revision)
		}
		if err == nil {
			metrics.ConversationAppendsTotal.WithLabelValues(string(sender), "appended").Inc()
			return nil
		}
		if !errors.Is(err, jetstream.ErrKeyExists) {
			metrics.ConversationAppendsTotal.WithLabelValues(string(sender), "error").Inc()
			return persistenceError("append", id, err)
		}

		s.logger.Debug("conversation revision conflict, retrying",
			zap.String("conversation_id", id),
			zap.Int("attempt", attempt+1),
		)
	}

	metrics.ConversationAppendsTotal.WithLabelValues(string(sender), "error").Inc()
	return persistenceError("append", id, ErrConflict)
}

// Formatted implements Store.
func (s *KVStore) Formatted(ctx context.Context, id string) (string, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return Format(rec), nil
}

// Close implements Store. The bucket's connection is owned by the caller.
func (s *KVStore) Close() error {
	return nil
}

func (s *KVStore) load(ctx context.Context, key string) (*model.ConversationRecord, uint64, error) {
	entry, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil, 0, err
	}

	var rec model.ConversationRecord
	if err := json.Unmarshal(entry.Value(), &rec); err != nil {
		return nil, 0, fmt.Errorf("failed to decode record: %w", err)
	}
	if rec.Messages == nil {
		rec.Messages = []model.Message{}
	}
	return &rec, entry.Revision(), nil
}
