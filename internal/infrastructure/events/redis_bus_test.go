package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zorkdi/internal/domain/entity"
)

const (
	testStream = "zorkdi:triggers"
	testGroup  = "trigger-workers"
)

type countingHandler struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (h *countingHandler) handle(ctx context.Context, e entity.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	if h.fail {
		return errors.New("firestore unavailable")
	}
	return nil
}

func (h *countingHandler) setFail(fail bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fail = fail
}

func (h *countingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls
}

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.XGroupCreateMkStream(context.Background(), testStream, testGroup, "0").Err())
	return client
}

// newTestBus returns a bus that never blocks on reads.
func newTestBus(client *redis.Client, consumer string, h *countingHandler) *RedisStreamBus {
	bus := NewRedisStreamBus(client, testStream, testGroup, consumer)
	bus.block = -1
	bus.Subscribe(entity.EventMessageAppended, h.handle)
	return bus
}

func publish(t *testing.T, bus *RedisStreamBus) {
	t.Helper()
	event, err := entity.NewEvent(entity.EventMessageAppended, entity.MessageAppended{MessageID: "m1"})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(context.Background(), event))
}

func pending(t *testing.T, client *redis.Client) int64 {
	t.Helper()
	summary, err := client.XPending(context.Background(), testStream, testGroup).Result()
	require.NoError(t, err)
	return summary.Count
}

func TestRedisStreamBus_AcksAfterSuccess(t *testing.T) {
	client := newRedis(t)
	h := &countingHandler{}
	bus := newTestBus(client, "worker-a", h)
	publish(t, bus)

	n, err := bus.readNew(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, h.count())
	assert.Equal(t, int64(0), pending(t, client))
}

func TestRedisStreamBus_FailedEntryStaysPendingForRestart(t *testing.T) {
	client := newRedis(t)
	h := &countingHandler{fail: true}
	bus := newTestBus(client, "worker-a", h)
	publish(t, bus)

	_, err := bus.readNew(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending(t, client))

	n, err := bus.readNew(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "pending entry is not delivered as new")

	h.setFail(false)
	restarted := newTestBus(client, "worker-a", h)
	n, err = restarted.readPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, h.count())
	assert.Equal(t, int64(0), pending(t, client))
}

func TestRedisStreamBus_ReadPendingSkipsFailuresOnce(t *testing.T) {
	client := newRedis(t)
	h := &countingHandler{fail: true}
	bus := newTestBus(client, "worker-a", h)
	publish(t, bus)
	publish(t, bus)

	_, err := bus.readNew(context.Background())
	require.NoError(t, err)

	n, err := bus.readPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n, "each pending entry is tried once per pass")
	assert.Equal(t, int64(2), pending(t, client))
}

func TestRedisStreamBus_ReclaimsIdleEntriesOfAnotherConsumer(t *testing.T) {
	client := newRedis(t)
	failing := &countingHandler{fail: true}
	crashed := newTestBus(client, "worker-a", failing)
	publish(t, crashed)
	_, err := crashed.readNew(context.Background())
	require.NoError(t, err)

	h := &countingHandler{}
	survivor := newTestBus(client, "worker-b", h)
	survivor.claimIdle = 0

	n, err := survivor.reclaim(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, h.count())
	assert.Equal(t, int64(0), pending(t, client))
}

func TestRedisStreamBus_DiscardsMalformedEntry(t *testing.T) {
	client := newRedis(t)
	h := &countingHandler{}
	bus := newTestBus(client, "worker-a", h)

	require.NoError(t, client.XAdd(context.Background(), &redis.XAddArgs{
		Stream: testStream,
		Values: map[string]interface{}{"type": "message_appended", "event": "{not json"},
	}).Err())

	n, err := bus.readNew(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Zero(t, h.count())
	assert.Equal(t, int64(0), pending(t, client))
}

func TestRedisStreamBus_StartAndClose(t *testing.T) {
	client := newRedis(t)
	h := &countingHandler{}
	bus := NewRedisStreamBus(client, testStream, testGroup, "")
	bus.block = 20 * time.Millisecond
	bus.Subscribe(entity.EventMessageAppended, h.handle)

	require.NoError(t, bus.Start(context.Background()))
	assert.NotEmpty(t, bus.consumer)

	publish(t, bus)
	assert.Eventually(t, func() bool { return h.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, bus.Close())
	assert.Equal(t, int64(0), pending(t, client))
}
