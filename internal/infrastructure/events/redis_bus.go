package events

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"zorkdi/internal/domain/entity"
	"zorkdi/internal/domain/service"
	"zorkdi/pkg/logger"
)

const (
	pendingInterval  = 30 * time.Second
	defaultClaimIdle = time.Minute
	readCount        = 16
)

// RedisStreamBus carries trigger events on a Redis stream read through a
// consumer group. Entries are acknowledged only after every handler
// succeeded. The consumer name is stable across restarts, so a worker picks
// its own pending entries up again at start, and entries left idle by any
// consumer for claimIdle are claimed every pendingInterval.
type RedisStreamBus struct {
	client   *redis.Client
	stream   string
	group    string
	consumer string

	claimIdle time.Duration
	block     time.Duration

	handlers map[entity.EventType][]service.EventHandler
	mu       sync.RWMutex

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRedisStreamBus reads as consumer, or as the host name when consumer is
// empty.
func NewRedisStreamBus(client *redis.Client, stream, group, consumer string) *RedisStreamBus {
	if consumer == "" {
		consumer, _ = os.Hostname()
	}
	if consumer == "" {
		consumer = "trigger-worker"
	}
	return &RedisStreamBus{
		client:    client,
		stream:    stream,
		group:     group,
		consumer:  consumer,
		claimIdle: defaultClaimIdle,
		block:     5 * time.Second,
		handlers:  make(map[entity.EventType][]service.EventHandler),
	}
}

func (b *RedisStreamBus) Subscribe(eventType entity.EventType, handler service.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

func (b *RedisStreamBus) Publish(ctx context.Context, event entity.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: b.stream,
		Values: map[string]interface{}{
			"type":  string(event.Type),
			"event": data,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func (b *RedisStreamBus) Start(ctx context.Context) error {
	err := b.client.XGroupCreateMkStream(ctx, b.stream, b.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	ctx, b.cancel = context.WithCancel(ctx)
	b.wg.Add(1)
	go b.consume(ctx)

	logger.Info("Trigger consumer %s listening on stream %s", b.consumer, b.stream)
	return nil
}

func (b *RedisStreamBus) Close() error {
	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()
	return nil
}

func (b *RedisStreamBus) consume(ctx context.Context) {
	defer b.wg.Done()

	if _, err := b.readPending(ctx); err != nil && ctx.Err() == nil {
		logger.Error("Failed to read pending trigger entries: %v", err)
	}

	lastClaim := time.Now()
	for ctx.Err() == nil {
		if time.Since(lastClaim) > pendingInterval {
			if n, err := b.reclaim(ctx); err != nil && ctx.Err() == nil {
				logger.Error("Failed to claim idle trigger entries: %v", err)
			} else if n > 0 {
				logger.Info("Claimed %d idle trigger entries", n)
			}
			lastClaim = time.Now()
		}

		if _, err := b.readNew(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("Failed to read trigger stream: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
		}
	}
}

// readPending handles the entries already delivered to this consumer and
// not acknowledged. Entries that fail again stay pending.
func (b *RedisStreamBus) readPending(ctx context.Context) (int, error) {
	cursor := "0"
	handled := 0
	for {
		msgs, err := b.read(ctx, cursor, -1)
		if err != nil || len(msgs) == 0 {
			return handled, err
		}
		for _, msg := range msgs {
			b.handle(ctx, msg)
			handled++
			cursor = msg.ID
		}
	}
}

// reclaim moves entries idle for claimIdle, under any consumer of the
// group, to this consumer and handles them.
func (b *RedisStreamBus) reclaim(ctx context.Context) (int, error) {
	start := "0-0"
	handled := 0
	for {
		msgs, next, err := b.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   b.stream,
			Group:    b.group,
			Consumer: b.consumer,
			MinIdle:  b.claimIdle,
			Start:    start,
			Count:    readCount,
		}).Result()
		if err != nil {
			return handled, err
		}
		for _, msg := range msgs {
			b.handle(ctx, msg)
			handled++
		}
		if next == "" || next == "0-0" || ctx.Err() != nil {
			return handled, nil
		}
		start = next
	}
}

// readNew waits up to block for entries never delivered to the group.
func (b *RedisStreamBus) readNew(ctx context.Context) (int, error) {
	msgs, err := b.read(ctx, ">", b.block)
	if err != nil {
		return 0, err
	}
	for _, msg := range msgs {
		b.handle(ctx, msg)
	}
	return len(msgs), nil
}

// read issues XREADGROUP from id. A negative block leaves BLOCK out.
func (b *RedisStreamBus) read(ctx context.Context, id string, block time.Duration) ([]redis.XMessage, error) {
	streams, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    b.group,
		Consumer: b.consumer,
		Streams:  []string{b.stream, id},
		Count:    readCount,
		Block:    block,
	}).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var msgs []redis.XMessage
	for _, stream := range streams {
		msgs = append(msgs, stream.Messages...)
	}
	return msgs, nil
}

func (b *RedisStreamBus) handle(ctx context.Context, msg redis.XMessage) {
	raw, _ := msg.Values["event"].(string)

	var event entity.Event
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		logger.Error("Discarding malformed trigger entry %s: %v", msg.ID, err)
		b.ack(ctx, msg.ID)
		return
	}

	b.mu.RLock()
	handlers := b.handlers[event.Type]
	b.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			logger.Warn("Handler for %s event %s failed, leaving pending: %v", event.Type, event.ID, err)
			return
		}
	}
	b.ack(ctx, msg.ID)
}

func (b *RedisStreamBus) ack(ctx context.Context, id string) {
	if err := b.client.XAck(ctx, b.stream, b.group, id).Err(); err != nil {
		logger.Error("Failed to ack trigger entry %s: %v", id, err)
	}
}
