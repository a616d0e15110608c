package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/Emilianodz/multiagent-orch-system/internal/model"
	"github.com/Emilianodz/multiagent-orch-system/pkg/logger"
	"github.com/Emilianodz/multiagent-orch-system/pkg/metrics"
)

var bucketConversations = []byte("conversations")

// BoltStore keeps conversations in a bbolt file, one JSON value per
// conversation id. bbolt serializes write transactions, so each
// read-modify-write cycle is atomic.
type BoltStore struct {
	db     *bolt.DB
	logger *logger.Logger
}

// OpenBolt opens (or creates) the store file at path.
func OpenBolt(path string, log *logger.Logger) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open conversation store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketConversations)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create conversations bucket: %w", err)
	}

	return &BoltStore{db: db, logger: log}, nil
}

// Get implements Store.
func (s *BoltStore) Get(ctx context.Context, id string) (*model.ConversationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, persistenceError("get", id, err)
	}

	var rec *model.ConversationRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		rec, err = loadRecord(tx.Bucket(bucketConversations), id)
		return err
	})
	if err != nil {
		return nil, persistenceError("get", id, err)
	}
	if rec != nil {
		return rec, nil
	}

	// Re-check inside the write transaction so concurrent first lookups
	// create the record once.
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketConversations)
		existing, err := loadRecord(b, id)
		if err != nil {
			return err
		}
		if existing != nil {
			rec = existing
			return nil
		}
		rec = model.NewConversationRecord(id)
		return saveRecord(b, rec)
	})
	if err != nil {
		return nil, persistenceError("create", id, err)
	}

	s.logger.Debug("conversation created", zap.String("conversation_id", id))

	return rec, nil
}

// Append implements Store.
func (s *BoltStore) Append(ctx context.Context, id string, sender model.Sender, text string) error {
	if err := ctx.Err(); err != nil {
		return persistenceError("append", id, err)
	}
	if !sender.Valid() {
		return persistenceError("append", id, fmt.Errorf("unknown sender %q", sender))
	}

	changed := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketConversations)
		rec, err := loadRecord(b, id)
		if err != nil {
			return err
		}
		if rec == nil {
			rec = model.NewConversationRecord(id)
		}
		if changed = rec.Append(sender, text); !changed {
			return nil
		}
		return saveRecord(b, rec)
	})
	if err != nil {
		metrics.ConversationAppendsTotal.WithLabelValues(string(sender), "error").Inc()
		return persistenceError("append", id, err)
	}

	if changed {
		metrics.ConversationAppendsTotal.WithLabelValues(string(sender), "appended").Inc()
	} else {
		metrics.ConversationAppendsTotal.WithLabelValues(string(sender), "duplicate").Inc()
		s.logger.Debug("duplicate system message skipped", zap.String("conversation_id", id))
	}

	return nil
}

// Formatted implements Store.
func (s *BoltStore) Formatted(ctx context.Context, id string) (string, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return Format(rec), nil
}

// Close implements Store.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func loadRecord(b *bolt.Bucket, id string) (*model.ConversationRecord, error) {
	data := b.Get([]byte(id))
	if data == nil {
		return nil, nil
	}

	var rec model.ConversationRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	if rec.Messages == nil {
		rec.Messages = []model.Message{}
	}
	return &rec, nil
}

func saveRecord(b *bolt.Bucket, rec *model.ConversationRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	return b.Put([]byte(rec.ConversationID), data)
}
