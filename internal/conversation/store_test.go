package conversation

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Emilianodz/multiagent-orch-system/internal/model"
)

func TestFormat(t *testing.T) {
	assert.Equal(t, NoHistory, Format(nil))
	assert.Equal(t, NoHistory, Format(model.NewConversationRecord("c1")))

	rec := model.NewConversationRecord("c1")
	rec.Append(model.SenderUser, "how do I list files?")
	rec.Append(model.SenderSystem, "use ls")

	assert.Equal(t, "user: how do I list files?\nsystem: use ls", Format(rec))
}

func TestLockerSerializesSameKey(t *testing.T) {
	l := NewLocker()

	var (
		wg      sync.WaitGroup
		counter int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("conv")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Empty(t, l.locks)
}

func TestLockerDistinctKeysDoNotBlock(t *testing.T) {
	l := NewLocker()

	unlockA := l.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := l.Lock("b")
		unlock()
		close(done)
	}()

	<-done
}
