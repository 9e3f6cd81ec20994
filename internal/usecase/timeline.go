package usecase

import (
	"sort"

	"zorkdi/internal/domain/entity"
)

// Timeline merges messages from any number of threads into one ordered log.
// Messages are keyed by ID, so a re-delivered message replaces its earlier
// copy instead of appearing twice.
type Timeline struct {
	byID map[string]*entity.Message
}

func NewTimeline() *Timeline {
	return &Timeline{byID: make(map[string]*entity.Message)}
}

func (t *Timeline) Add(messages ...*entity.Message) {
	for _, msg := range messages {
		if msg == nil || msg.ID == "" {
			continue
		}
		t.byID[msg.ID] = msg
	}
}

func (t *Timeline) Apply(batch entity.MessageBatch) {
	t.Add(batch.Messages...)
}

func (t *Timeline) Len() int {
	return len(t.byID)
}

// Messages returns the log ascending by (CreatedAt, ID).
func (t *Timeline) Messages() []*entity.Message {
	messages := make([]*entity.Message, 0, len(t.byID))
	for _, msg := range t.byID {
		messages = append(messages, msg)
	}
	SortMessages(messages)
	return messages
}

func SortMessages(messages []*entity.Message) {
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].Before(messages[j])
	})
}

// MergeThreads is a one-shot Timeline over several thread logs.
func MergeThreads(threads map[entity.ThreadKey][]*entity.Message) []*entity.Message {
	timeline := NewTimeline()
	for _, messages := range threads {
		timeline.Add(messages...)
	}
	return timeline.Messages()
}
