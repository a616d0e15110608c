package conversation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Emilianodz/multiagent-orch-system/internal/model"
	"github.com/Emilianodz/multiagent-orch-system/pkg/logger"
)

type fakeEntry struct {
	jetstream.KeyValueEntry
	value    []byte
	revision uint64
}

func (e fakeEntry) Value() []byte    { return e.value }
func (e fakeEntry) Revision() uint64 { return e.revision }

// fakeKV implements the subset of jetstream.KeyValue the store uses.
type fakeKV struct {
	jetstream.KeyValue

	mu        sync.Mutex
	data      map[string]fakeEntry
	seq       uint64
	conflicts int // number of Update calls to reject before accepting
	getErr    error
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string]fakeEntry)}
}

func (f *fakeKV) Get(_ context.Context, key string) (jetstream.KeyValueEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	e, ok := f.data[key]
	if !ok {
		return nil, jetstream.ErrKeyNotFound
	}
	return e, nil
}

func (f *fakeKV) Create(_ context.Context, key string, value []byte) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return 0, jetstream.ErrKeyExists
	}
	f.seq++
	f.data[key] = fakeEntry{value: value, revision: f.seq}
	return f.seq, nil
}

func (f *fakeKV) Update(_ context.Context, key string, value []byte, revision uint64) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conflicts > 0 {
		f.conflicts--
		// Simulate a concurrent writer bumping the revision.
		e := f.data[key]
		f.seq++
		e.revision = f.seq
		f.data[key] = e
		return 0, jetstream.ErrKeyExists
	}
	if f.data[key].revision != revision {
		return 0, jetstream.ErrKeyExists
	}
	f.seq++
	f.data[key] = fakeEntry{value: value, revision: f.seq}
	return f.seq, nil
}

func TestKVGetCreatesOnce(t *testing.T) {
	kv := newFakeKV()
	s := NewKVStore(kv, logger.NewNop())
	ctx := context.Background()

	rec, err := s.Get(ctx, "conv/with spaces")
	require.NoError(t, err)
	assert.Empty(t, rec.Messages)
	assert.Len(t, kv.data, 1)

	_, err = s.Get(ctx, "conv/with spaces")
	require.NoError(t, err)
	assert.Len(t, kv.data, 1)
}

func TestKVAppendDedup(t *testing.T) {
	s := NewKVStore(newFakeKV(), logger.NewNop())
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "c", model.SenderUser, "q"))
	require.NoError(t, s.Append(ctx, "c", model.SenderSystem, "a"))
	require.NoError(t, s.Append(ctx, "c", model.SenderSystem, "a"))
	require.NoError(t, s.Append(ctx, "c", model.SenderUser, "q"))

	out, err := s.Formatted(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, "user: q\nsystem: a\nuser: q", out)
}

func TestKVAppendRetriesOnRevisionConflict(t *testing.T) {
	kv := newFakeKV()
	s := NewKVStore(kv, logger.NewNop())
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "c", model.SenderUser, "first"))

	kv.conflicts = 3
	require.NoError(t, s.Append(ctx, "c", model.SenderUser, "second"))

	rec, err := s.Get(ctx, "c")
	require.NoError(t, err)
	require.Len(t, rec.Messages, 2)
	assert.Equal(t, "second", rec.Messages[1].Text)
}

func TestKVAppendGivesUpAfterMaxRetries(t *testing.T) {
	kv := newFakeKV()
	s := NewKVStore(kv, logger.NewNop())
	s.maxRetries = 2
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "c", model.SenderUser, "first"))

	kv.conflicts = 10
	err := s.Append(ctx, "c", model.SenderUser, "second")
	require.ErrorIs(t, err, ErrConflict)
}

func TestKVConcurrentAppends(t *testing.T) {
	s := NewKVStore(newFakeKV(), logger.NewNop())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Append(ctx, "shared", model.SenderUser, "same text"))
		}()
	}
	wg.Wait()

	rec, err := s.Get(ctx, "shared")
	require.NoError(t, err)
	assert.Len(t, rec.Messages, 25)
}

func TestKVBackendErrorIsPersistenceError(t *testing.T) {
	kv := newFakeKV()
	kv.getErr = errors.New("connection closed")
	s := NewKVStore(kv, logger.NewNop())

	_, err := s.Get(context.Background(), "c")
	var perr *model.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "get", perr.Op)
}
