package events

import (
	"context"
	"fmt"
	"sync"

	"zorkdi/internal/domain/entity"
	"zorkdi/internal/domain/service"
	"zorkdi/pkg/logger"
)

// LocalEventBus delivers events in-process through a buffered queue. A
// failed handler is retried up to maxAttempts before the event is dropped.
type LocalEventBus struct {
	queue       chan entity.Event
	handlers    map[entity.EventType][]service.EventHandler
	maxAttempts int
	mu          sync.RWMutex
	wg          sync.WaitGroup
	closeOnce   sync.Once
	closed      chan struct{}
}

func NewLocalEventBus(buffer int) *LocalEventBus {
	if buffer <= 0 {
		buffer = 256
	}
	return &LocalEventBus{
		queue:       make(chan entity.Event, buffer),
		handlers:    make(map[entity.EventType][]service.EventHandler),
		maxAttempts: 3,
		closed:      make(chan struct{}),
	}
}

func (b *LocalEventBus) Subscribe(eventType entity.EventType, handler service.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

func (b *LocalEventBus) Publish(ctx context.Context, event entity.Event) error {
	select {
	case <-b.closed:
		return fmt.Errorf("event bus closed")
	default:
	}

	select {
	case b.queue <- event:
		return nil
	case <-b.closed:
		return fmt.Errorf("event bus closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start dispatches queued events until Close or ctx is done. Either way the
// events already queued are still handled, on a context that is no longer
// cancelled.
func (b *LocalEventBus) Start(ctx context.Context) error {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			select {
			case <-ctx.Done():
				b.closeOnce.Do(func() {
					close(b.closed)
				})
				b.drain(context.WithoutCancel(ctx))
				return
			case <-b.closed:
				b.drain(context.WithoutCancel(ctx))
				return
			case event := <-b.queue:
				b.dispatch(ctx, event)
			}
		}
	}()
	return nil
}

// Close stops accepting events and waits for queued ones to be handled.
func (b *LocalEventBus) Close() error {
	b.closeOnce.Do(func() {
		close(b.closed)
	})
	b.wg.Wait()
	return nil
}

func (b *LocalEventBus) drain(ctx context.Context) {
	for {
		select {
		case event := <-b.queue:
			b.dispatch(ctx, event)
		default:
			return
		}
	}
}

func (b *LocalEventBus) dispatch(ctx context.Context, event entity.Event) {
	b.mu.RLock()
	handlers := b.handlers[event.Type]
	b.mu.RUnlock()

	for _, handler := range handlers {
		var err error
		for attempt := 1; attempt <= b.maxAttempts; attempt++ {
			if err = handler(ctx, event); err == nil {
				break
			}
			logger.Warn("Handler for %s event %s failed (attempt %d): %v", event.Type, event.ID, attempt, err)
		}
		if err != nil {
			logger.Error("Dropping %s event %s after %d attempts", event.Type, event.ID, b.maxAttempts)
		}
	}
}
