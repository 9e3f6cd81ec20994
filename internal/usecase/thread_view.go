package usecase

import (
	"context"
	"fmt"
	"sync"

	"zorkdi/internal/domain/entity"
	"zorkdi/internal/domain/repository"
	"zorkdi/pkg/logger"
)

type viewEntry struct {
	key     entity.ThreadKey
	sub     repository.MessageSubscription
	session *ReadSession
}

// ThreadView owns the live thread subscriptions of one realtime connection.
// Each opened thread is delivered to sink and marked read once its initial
// batch went out. Once a thread is closed, or the whole view, nothing more
// is delivered or marked read for it.
type ThreadView struct {
	access ThreadAccess
	actor  Actor
	sink   func(entity.MessageBatch)

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	entries map[string]*viewEntry
	closed  bool
}

func NewThreadView(ctx context.Context, access ThreadAccess, actor Actor, sink func(entity.MessageBatch)) *ThreadView {
	ctx, cancel := context.WithCancel(ctx)
	return &ThreadView{
		access:  access,
		actor:   actor,
		sink:    sink,
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[string]*viewEntry),
	}
}

// Open subscribes to key. Opening an already open thread is a no-op.
func (v *ThreadView) Open(key entity.ThreadKey) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return fmt.Errorf("thread view closed")
	}
	if _, ok := v.entries[key.String()]; ok {
		return nil
	}

	sub, err := v.access.Subscribe(v.ctx, v.actor, key)
	if err != nil {
		return err
	}

	entry := &viewEntry{
		key:     key,
		sub:     sub,
		session: NewReadSession(v.access, v.actor, key),
	}
	v.entries[key.String()] = entry
	go v.pump(entry)

	return nil
}

func (v *ThreadView) pump(entry *viewEntry) {
	for batch := range entry.sub.Updates() {
		if !v.deliver(entry, batch) {
			continue
		}
		if batch.Initial {
			if _, err := entry.session.MarkReadOnce(v.ctx); err != nil {
				logger.Warn("Mark read failed for %s: %v", entry.key, err)
			}
		}
	}
}

func (v *ThreadView) deliver(entry *viewEntry, batch entity.MessageBatch) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed || v.entries[entry.key.String()] != entry {
		return false
	}
	v.sink(batch)
	return true
}

// Close cancels the subscription of key.
func (v *ThreadView) Close(key entity.ThreadKey) {
	v.mu.Lock()
	entry, ok := v.entries[key.String()]
	if ok {
		delete(v.entries, key.String())
	}
	v.mu.Unlock()

	if ok {
		entry.sub.Cancel()
		entry.session.Close()
	}
}

// CloseAll tears the view down.
func (v *ThreadView) CloseAll() {
	v.mu.Lock()
	v.closed = true
	entries := v.entries
	v.entries = make(map[string]*viewEntry)
	v.mu.Unlock()

	v.cancel()
	for _, entry := range entries {
		entry.sub.Cancel()
		entry.session.Close()
	}
}

func (v *ThreadView) IsOpen(key entity.ThreadKey) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.entries[key.String()]
	return ok
}
