package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive/internal/queue"
)

func TestIndexer_DeliversInOrder(t *testing.T) {
	var mu sync.Mutex
	var got []uint64
	ix := NewIndexer(func(ctx context.Context, ev queue.TodoIndexEvent) error {
		mu.Lock()
		got = append(got, ev.TodoID)
		mu.Unlock()
		return nil
	}, 8)

	for i := uint64(1); i <= 5; i++ {
		ix.Submit(queue.TodoIndexEvent{Action: queue.IndexActionUpsert, TodoID: i})
	}
	ix.Close()

	assert.Equal(t, []uint64{1, 2, 3, 4, 5}, got)
	assert.Zero(t, ix.Dropped())
	assert.Zero(t, ix.Failed())
}

// Submit must return immediately even when the drain goroutine is wedged on
// a slow broker; overflow is dropped and counted, never waited on.
func TestIndexer_SubmitNeverBlocks(t *testing.T) {
	release := make(chan struct{})
	ix := NewIndexer(func(ctx context.Context, ev queue.TodoIndexEvent) error {
		<-release
		return nil
	}, 1)

	// First event occupies the publisher, second fills the buffer.
	ix.Submit(queue.TodoIndexEvent{TodoID: 1})
	ix.Submit(queue.TodoIndexEvent{TodoID: 2})

	done := make(chan struct{})
	go func() {
		for i := uint64(3); i <= 10; i++ {
			ix.Submit(queue.TodoIndexEvent{TodoID: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Submit blocked on a full buffer")
	}

	close(release)
	ix.Close()
	assert.Greater(t, ix.Dropped(), uint64(0))
}

func TestIndexer_CountsPublishFailures(t *testing.T) {
	ix := NewIndexer(func(ctx context.Context, ev queue.TodoIndexEvent) error {
		if ev.TodoID%2 == 0 {
			return errors.New("broker unavailable")
		}
		return nil
	}, 8)

	for i := uint64(1); i <= 6; i++ {
		ix.Submit(queue.TodoIndexEvent{Action: queue.IndexActionDelete, TodoID: i})
	}
	ix.Close()

	assert.Equal(t, uint64(3), ix.Failed())
	assert.Zero(t, ix.Dropped())
}

func TestIndexer_CloseFlushesBuffer(t *testing.T) {
	var mu sync.Mutex
	n := 0
	ix := NewIndexer(func(ctx context.Context, ev queue.TodoIndexEvent) error {
		time.Sleep(time.Millisecond)
		mu.Lock()
		n++
		mu.Unlock()
		return nil
	}, 32)

	for i := uint64(1); i <= 20; i++ {
		ix.Submit(queue.TodoIndexEvent{TodoID: i})
	}
	ix.Close()

	require.Equal(t, 20, n, "Close must wait for buffered events to publish")
}
