package usecase

import (
	"context"
	"sync"

	"zorkdi/internal/domain/entity"
)

type readMarker interface {
	MarkRead(ctx context.Context, actor Actor, key entity.ThreadKey) error
}

// ReadSession is one opened view of a thread. It marks the thread read at
// most once: the first successful MarkReadOnce latches it, a failed call
// leaves it open for the next attempt. After Close nothing is marked.
type ReadSession struct {
	marker readMarker
	actor  Actor
	key    entity.ThreadKey

	mu     sync.Mutex
	marked bool
	closed bool
}

func NewReadSession(marker readMarker, actor Actor, key entity.ThreadKey) *ReadSession {
	return &ReadSession{
		marker: marker,
		actor:  actor,
		key:    key,
	}
}

// MarkReadOnce reports whether this call performed the mark.
func (s *ReadSession) MarkReadOnce(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.marked || s.closed {
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if err := s.marker.MarkRead(ctx, s.actor, s.key); err != nil {
		return false, err
	}
	s.marked = true
	return true, nil
}

func (s *ReadSession) Marked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.marked
}

// Close waits for an in-flight MarkReadOnce to finish. After Close no mark
// happens.
func (s *ReadSession) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
