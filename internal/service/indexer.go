package service

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/taskhive/taskhive/internal/queue"
)

// PublishFunc publishes one index event to the broker.
type PublishFunc func(ctx context.Context, ev queue.TodoIndexEvent) error

// Indexer is the fire-and-forget submission point for search-index
// synchronization. Submit never blocks the request path and never returns
// an error: publish failures are logged and counted on an internal error
// path, and a full buffer drops the event rather than delaying the caller.
type Indexer struct {
	publish PublishFunc
	events  chan queue.TodoIndexEvent
	wg      sync.WaitGroup
	dropped atomic.Uint64
	failed  atomic.Uint64
}

// NewIndexer starts the drain goroutine over a buffer of the given size.
func NewIndexer(publish PublishFunc, buffer int) *Indexer {
	if buffer < 1 {
		buffer = 64
	}
	ix := &Indexer{
		publish: publish,
		events:  make(chan queue.TodoIndexEvent, buffer),
	}
	ix.wg.Add(1)
	go ix.drain()
	return ix
}

// Submit hands an event to the drain goroutine without blocking. When the
// buffer is full the event is dropped with a logged warning; the triggering
// request is never delayed or failed by index sync.
func (ix *Indexer) Submit(ev queue.TodoIndexEvent) {
	select {
	case ix.events <- ev:
	default:
		ix.dropped.Add(1)
		log.Printf("indexer: buffer full, dropped %s event for todo %d", ev.Action, ev.TodoID)
	}
}

// Close stops accepting events and waits for the buffer to flush.
func (ix *Indexer) Close() {
	close(ix.events)
	ix.wg.Wait()
}

// Dropped returns how many events were discarded because the buffer was full.
func (ix *Indexer) Dropped() uint64 { return ix.dropped.Load() }

// Failed returns how many publish attempts errored.
func (ix *Indexer) Failed() uint64 { return ix.failed.Load() }

func (ix *Indexer) drain() {
	defer ix.wg.Done()
	for ev := range ix.events {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := ix.publish(ctx, ev); err != nil {
			ix.failed.Add(1)
			log.Printf("indexer: publish %s event for todo %d failed: %v", ev.Action, ev.TodoID, err)
		}
		cancel()
	}
}
