package usecase

import (
	"zorkdi/internal/domain/entity"
)

// InferReplyTarget picks the thread a staff reply in the merged per-user
// room should go to: the thread holding the chronologically latest message.
// Equal timestamps favour the general thread, then the lower key. With no
// messages at all the general thread is used.
func InferReplyTarget(general entity.ThreadKey, threads map[entity.ThreadKey][]*entity.Message) entity.ThreadKey {
	var (
		target entity.ThreadKey
		latest *entity.Message
	)

	for key, messages := range threads {
		last := lastMessage(messages)
		if last == nil {
			continue
		}
		if latest == nil || replyTargetWins(key, last, target, latest) {
			target, latest = key, last
		}
	}

	if latest == nil {
		return general
	}
	return target
}

func replyTargetWins(key entity.ThreadKey, msg *entity.Message, currentKey entity.ThreadKey, current *entity.Message) bool {
	if !msg.CreatedAt.Equal(current.CreatedAt) {
		return msg.CreatedAt.After(current.CreatedAt)
	}
	if key.IsGeneral() != currentKey.IsGeneral() {
		return key.IsGeneral()
	}
	return key.String() < currentKey.String()
}

func lastMessage(messages []*entity.Message) *entity.Message {
	var last *entity.Message
	for _, msg := range messages {
		if msg == nil {
			continue
		}
		if last == nil || last.Before(msg) {
			last = msg
		}
	}
	return last
}
