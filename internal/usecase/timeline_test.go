package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"zorkdi/internal/domain/entity"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func msgAt(id string, key entity.ThreadKey, offset time.Duration) *entity.Message {
	return &entity.Message{ID: id, Thread: key, CreatedAt: t0.Add(offset), Body: id}
}

func ids(messages []*entity.Message) []string {
	out := make([]string, 0, len(messages))
	for _, m := range messages {
		out = append(out, m.ID)
	}
	return out
}

func TestTimeline_MergesThreadsInOrder(t *testing.T) {
	general := entity.GeneralThread("alice")
	project := entity.ProjectThread("alice", "site")

	merged := MergeThreads(map[entity.ThreadKey][]*entity.Message{
		general: {msgAt("a", general, 0), msgAt("c", general, 2*time.Second)},
		project: {msgAt("b", project, time.Second), msgAt("d", project, 3*time.Second)},
	})

	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(merged))
}

func TestTimeline_RedeliveryDoesNotDuplicate(t *testing.T) {
	key := entity.GeneralThread("alice")
	timeline := NewTimeline()

	timeline.Apply(entity.MessageBatch{Thread: key, Initial: true, Messages: []*entity.Message{
		msgAt("a", key, 0), msgAt("b", key, time.Second),
	}})
	timeline.Apply(entity.MessageBatch{Thread: key, Messages: []*entity.Message{
		msgAt("b", key, time.Second), msgAt("c", key, 2*time.Second),
	}})

	assert.Equal(t, 3, timeline.Len())
	assert.Equal(t, []string{"a", "b", "c"}, ids(timeline.Messages()))
}

func TestTimeline_EqualTimestampsOrderByID(t *testing.T) {
	key := entity.GeneralThread("alice")
	timeline := NewTimeline()
	timeline.Add(msgAt("z", key, 0), msgAt("m", key, 0), nil, &entity.Message{})

	assert.Equal(t, []string{"m", "z"}, ids(timeline.Messages()))
}
